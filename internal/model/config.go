package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"k8s.io/klog/v2"

	"github.com/lattice-ml/lattice/internal/nn"
	"github.com/lattice-ml/lattice/internal/tensor"
)

// LayerConfig describes one layer of an architecture: a registered
// class name plus the class-specific configuration map.
type LayerConfig struct {
	ClassName string         `json:"class_name"`
	Name      string         `json:"name,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
}

// Architecture is the JSON-serializable description of a sequential
// model.
type Architecture struct {
	ModelType string        `json:"model_type,omitempty"`
	Name      string        `json:"name,omitempty"`
	Layers    []LayerConfig `json:"layers"`
}

// layerBuilder decodes one LayerConfig into a concrete layer.
type layerBuilder[B tensor.Backend] func(lc LayerConfig, backend B) (nn.Layer[B], error)

// layerBuilders returns the class-name registry. Class names follow
// the Keras vocabulary, so exported architectures resolve without
// renaming.
func layerBuilders[B tensor.Backend]() map[string]layerBuilder[B] {
	return map[string]layerBuilder[B]{
		"Conv2D":                 buildConv2D[B],
		"Dense":                  buildDense[B],
		"MaxPooling2D":           buildMaxPooling2D[B],
		"AveragePooling2D":       buildAveragePooling2D[B],
		"GlobalMaxPooling2D":     buildGlobalMaxPooling2D[B],
		"GlobalAveragePooling2D": buildGlobalAveragePooling2D[B],
		"Activation":             buildActivation[B],
		"Flatten":                buildFlatten[B],
	}
}

// FromConfig builds a model from architecture JSON.
//
// Unknown class names and config decode failures return errors
// wrapping nn.ErrInvalidConfiguration; the error names the failing
// layer by position and class.
func FromConfig[B tensor.Backend](data []byte, backend B) (*Model[B], error) {
	var arch Architecture
	if err := json.Unmarshal(data, &arch); err != nil {
		return nil, fmt.Errorf("parse architecture: %w", err)
	}
	if len(arch.Layers) == 0 {
		return nil, fmt.Errorf("architecture has no layers: %w", nn.ErrInvalidConfiguration)
	}

	registry := layerBuilders[B]()

	m := New(arch.Name, backend)
	for i, lc := range arch.Layers {
		build, ok := registry[lc.ClassName]
		if !ok {
			return nil, fmt.Errorf("layer %d: unknown layer class %q (supported: %s): %w",
				i, lc.ClassName, strings.Join(registeredClasses(registry), ", "), nn.ErrInvalidConfiguration)
		}
		layer, err := build(lc, backend)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, lc.ClassName, err)
		}
		if err := m.Add(layer); err != nil {
			return nil, err
		}
	}
	m.arch = append(json.RawMessage(nil), data...)

	klog.V(1).Infof("Built model %s: %d layers", m.name, len(m.layers))
	return m, nil
}

func registeredClasses[B tensor.Backend](registry map[string]layerBuilder[B]) []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decodeConfig decodes a layer's config map into a typed config
// struct. JSON numbers arrive as float64; weak typing coerces them
// into the int fields the layer configs declare.
func decodeConfig(lc LayerConfig, out any) error {
	cfg := lc.Config
	if lc.Name != "" {
		// The top-level name is a fallback for configs without one.
		if _, ok := cfg["name"]; !ok {
			cfg = make(map[string]any, len(lc.Config)+1)
			for k, v := range lc.Config {
				cfg[k] = v
			}
			cfg["name"] = lc.Name
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build config decoder: %w", err)
	}
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %v: %w", err, nn.ErrInvalidConfiguration)
	}
	return nil
}

func buildConv2D[B tensor.Backend](lc LayerConfig, backend B) (nn.Layer[B], error) {
	var cfg nn.Conv2DConfig
	if err := decodeConfig(lc, &cfg); err != nil {
		return nil, err
	}
	return nn.NewConv2D(cfg, backend)
}

func buildDense[B tensor.Backend](lc LayerConfig, backend B) (nn.Layer[B], error) {
	var cfg nn.DenseConfig
	if err := decodeConfig(lc, &cfg); err != nil {
		return nil, err
	}
	return nn.NewDense(cfg, backend)
}

func buildMaxPooling2D[B tensor.Backend](lc LayerConfig, _ B) (nn.Layer[B], error) {
	var cfg nn.PoolingConfig
	if err := decodeConfig(lc, &cfg); err != nil {
		return nil, err
	}
	return nn.NewMaxPooling2D[B](cfg)
}

func buildAveragePooling2D[B tensor.Backend](lc LayerConfig, _ B) (nn.Layer[B], error) {
	var cfg nn.PoolingConfig
	if err := decodeConfig(lc, &cfg); err != nil {
		return nil, err
	}
	return nn.NewAveragePooling2D[B](cfg)
}

func buildGlobalMaxPooling2D[B tensor.Backend](lc LayerConfig, _ B) (nn.Layer[B], error) {
	var cfg nn.GlobalPoolingConfig
	if err := decodeConfig(lc, &cfg); err != nil {
		return nil, err
	}
	return nn.NewGlobalMaxPooling2D[B](cfg)
}

func buildGlobalAveragePooling2D[B tensor.Backend](lc LayerConfig, _ B) (nn.Layer[B], error) {
	var cfg nn.GlobalPoolingConfig
	if err := decodeConfig(lc, &cfg); err != nil {
		return nil, err
	}
	return nn.NewGlobalAveragePooling2D[B](cfg)
}

func buildActivation[B tensor.Backend](lc LayerConfig, _ B) (nn.Layer[B], error) {
	var cfg nn.ActivationConfig
	if err := decodeConfig(lc, &cfg); err != nil {
		return nil, err
	}
	return nn.NewActivation[B](cfg)
}

func buildFlatten[B tensor.Backend](lc LayerConfig, _ B) (nn.Layer[B], error) {
	var cfg struct {
		Name string `mapstructure:"name"`
	}
	if err := decodeConfig(lc, &cfg); err != nil {
		return nil, err
	}
	return nn.NewFlatten[B](cfg.Name), nil
}
