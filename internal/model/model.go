package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lattice-ml/lattice/internal/nn"
	"github.com/lattice-ml/lattice/internal/tensor"
)

// Model is an ordered inference pipeline over a single backend.
//
// Layer names are unique within a model; the weight loader uses them
// to route "layer.parameter" tensors. Building a model is not safe
// for concurrent use, but Predict on a fully built model is: layers
// hold no per-call state.
type Model[B tensor.Backend] struct {
	name    string
	backend B
	layers  []nn.Layer[B]
	index   map[string]int  // layer name -> position
	arch    json.RawMessage // architecture the model was decoded from, nil for hand-built models
}

// New creates an empty model. An empty name defaults to "model".
func New[B tensor.Backend](name string, backend B) *Model[B] {
	if name == "" {
		name = "model"
	}
	return &Model[B]{
		name:    name,
		backend: backend,
		index:   make(map[string]int),
	}
}

// Add appends a layer to the pipeline. Layer names must be unique
// within the model.
func (m *Model[B]) Add(layer nn.Layer[B]) error {
	name := layer.Name()
	if _, exists := m.index[name]; exists {
		return fmt.Errorf("model %s: duplicate layer name %q: %w", m.name, name, nn.ErrInvalidConfiguration)
	}
	m.index[name] = len(m.layers)
	m.layers = append(m.layers, layer)
	return nil
}

// Name returns the model's name.
func (m *Model[B]) Name() string {
	return m.name
}

// Backend returns the backend the model runs on.
func (m *Model[B]) Backend() B {
	return m.backend
}

// Layers returns the pipeline in call order. The slice is a copy.
func (m *Model[B]) Layers() []nn.Layer[B] {
	layers := make([]nn.Layer[B], len(m.layers))
	copy(layers, m.layers)
	return layers
}

// Layer looks a layer up by name.
func (m *Model[B]) Layer(name string) (nn.Layer[B], bool) {
	pos, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.layers[pos], true
}

// Architecture returns the architecture JSON the model was built from,
// or nil for hand-built models.
func (m *Model[B]) Architecture() json.RawMessage {
	return m.arch
}

// Predict runs the input through every layer in order.
//
// Layer errors are wrapped with the layer's position and name, so a
// shape mismatch deep in a stack reports which layer rejected it.
func (m *Model[B]) Predict(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	if len(m.layers) == 0 {
		return nil, fmt.Errorf("model %s has no layers: %w", m.name, nn.ErrInvalidConfiguration)
	}

	x := input
	for i, layer := range m.layers {
		out, err := layer.Call(x)
		if err != nil {
			return nil, fmt.Errorf("model %s: layer %d (%s): %w", m.name, i, layer.Name(), err)
		}
		x = out
	}
	return x, nil
}

// Summary returns a human-readable description of the pipeline, one
// line per layer.
func (m *Model[B]) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model: %s (%d layers)\n", m.name, len(m.layers))
	for i, layer := range m.layers {
		desc := layer.Name()
		if s, ok := layer.(fmt.Stringer); ok {
			desc = fmt.Sprintf("%s %s", layer.Name(), s.String())
		}
		fmt.Fprintf(&b, "  %2d: %s\n", i, desc)
	}
	return b.String()
}
