package model

import (
	"fmt"
	"strconv"

	"k8s.io/klog/v2"

	"github.com/lattice-ml/lattice/internal/nn"
	"github.com/lattice-ml/lattice/internal/serialization"
	"github.com/lattice-ml/lattice/internal/tensor"
)

// Save writes the model to a .latc archive: every weight-bearing
// layer's parameters under qualified names, plus the architecture
// JSON when the model was built with FromConfig. Hand-built models
// save weights only.
func (m *Model[B]) Save(path string) error {
	weights := make(map[string]*tensor.RawTensor)
	for _, layer := range m.layers {
		bearer, ok := layer.(nn.WeightBearer[B])
		if !ok {
			continue
		}
		for param, raw := range bearer.Weights() {
			weights[layer.Name()+"."+param] = raw
		}
	}

	header := serialization.Header{
		ModelType:    "Sequential",
		Architecture: m.arch,
		Metadata: map[string]string{
			"model_name": m.name,
			"layers":     strconv.Itoa(len(m.layers)),
		},
	}

	if err := serialization.WriteArchive(path, weights, header); err != nil {
		return fmt.Errorf("save model %s: %w", m.name, err)
	}

	klog.V(1).Infof("Saved model %s: %d tensors to %s", m.name, len(weights), path)
	return nil
}

// Load reads a model back from a .latc archive written by Save.
//
// The archive must carry architecture JSON; weight-only archives load
// into an already-built model with LoadWeightsFile instead.
func Load[B tensor.Backend](path string, backend B) (*Model[B], error) {
	reader, err := serialization.NewLatticeReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer func() { _ = reader.Close() }()

	arch := reader.Architecture()
	if len(arch) == 0 {
		return nil, fmt.Errorf("archive %s has no architecture; use LoadWeightsFile on a built model", path)
	}

	m, err := FromConfig(arch, backend)
	if err != nil {
		return nil, err
	}

	tensors, err := reader.ReadTensors(backend)
	if err != nil {
		return nil, fmt.Errorf("read tensors from %s: %w", path, err)
	}
	if err := m.LoadWeights(tensors); err != nil {
		return nil, err
	}

	klog.V(1).Infof("Loaded model %s from %s: %d layers, %d tensors",
		m.name, path, len(m.layers), len(tensors))
	return m, nil
}
