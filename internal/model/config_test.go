package model

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/lattice-ml/lattice/internal/backend/cpu"
	"github.com/lattice-ml/lattice/internal/nn"
	"github.com/lattice-ml/lattice/internal/tensor"
)

const cnnArchitecture = `{
  "name": "mnist",
  "layers": [
    {"class_name": "Conv2D", "config": {"name": "conv1", "filters": 8, "kernel_size": [3, 3], "in_channels": 1, "activation": "relu"}},
    {"class_name": "MaxPooling2D", "config": {"name": "pool1", "pool_size": [2, 2]}},
    {"class_name": "Flatten", "config": {"name": "flatten"}},
    {"class_name": "Dense", "config": {"name": "output", "units": 10, "in_features": 72, "activation": "softmax"}}
  ]
}`

// TestFromConfig builds a CNN from architecture JSON and runs it.
func TestFromConfig(t *testing.T) {
	backend := cpu.New()

	m, err := FromConfig([]byte(cnnArchitecture), backend)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}

	if m.Name() != "mnist" {
		t.Errorf("Expected model name mnist, got %q", m.Name())
	}
	if len(m.Layers()) != 4 {
		t.Fatalf("Expected 4 layers, got %d", len(m.Layers()))
	}
	for _, name := range []string{"conv1", "pool1", "flatten", "output"} {
		if _, ok := m.Layer(name); !ok {
			t.Errorf("Missing layer %q", name)
		}
	}

	// JSON numbers must coerce into the typed configs.
	conv, _ := m.Layer("conv1")
	c, ok := conv.(*nn.Conv2D[*cpu.CPUBackend])
	if !ok {
		t.Fatalf("conv1 has type %T", conv)
	}
	if c.Filters() != 8 {
		t.Errorf("Expected 8 filters, got %d", c.Filters())
	}
	if c.KernelSize() != [2]int{3, 3} {
		t.Errorf("Expected 3x3 kernel, got %v", c.KernelSize())
	}
	pool, _ := m.Layer("pool1")
	p, ok := pool.(*nn.Pooling2D[*cpu.CPUBackend])
	if !ok {
		t.Fatalf("pool1 has type %T", pool)
	}
	if p.Config().Window != [2]int{2, 2} {
		t.Errorf("Expected 2x2 window, got %v", p.Config().Window)
	}

	// in_channels / in_features initialize the weights, so the model
	// predicts immediately. A zero input zeroes the conv and dense
	// pre-activations, so the softmax output is exactly uniform.
	input := tensor.Zeros[float32](tensor.Shape{8, 8, 1}, backend)
	out, err := m.Predict(input)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if !out.Shape().Equal(tensor.Shape{10}) {
		t.Fatalf("Expected output shape (10), got %v", out.Shape())
	}
	for i, v := range out.Data() {
		if math.Abs(float64(v)-0.1) > 1e-6 {
			t.Errorf("Output %d: expected uniform 0.1, got %f", i, v)
		}
	}
}

// TestFromConfig_ArchitectureRetained verifies the source JSON is kept
// for Save.
func TestFromConfig_ArchitectureRetained(t *testing.T) {
	m, err := FromConfig([]byte(cnnArchitecture), cpu.New())
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	if !bytes.Equal(m.Architecture(), []byte(cnnArchitecture)) {
		t.Error("Architecture() should return the source JSON")
	}
}

// TestFromConfig_NameFallback uses the top-level layer name when the
// config map has none.
func TestFromConfig_NameFallback(t *testing.T) {
	arch := `{"layers": [{"class_name": "Flatten", "name": "squash"}]}`
	m, err := FromConfig([]byte(arch), cpu.New())
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	if _, ok := m.Layer("squash"); !ok {
		t.Error("Expected top-level name to reach the layer")
	}
}

// TestFromConfig_UnknownClass rejects unregistered class names.
func TestFromConfig_UnknownClass(t *testing.T) {
	arch := `{"layers": [{"class_name": "Wibble", "config": {}}]}`
	_, err := FromConfig([]byte(arch), cpu.New())
	if !errors.Is(err, nn.ErrInvalidConfiguration) {
		t.Fatalf("Expected ErrInvalidConfiguration, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Wibble") {
		t.Errorf("Expected class name in error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Conv2D") {
		t.Errorf("Expected supported classes in error, got: %v", err)
	}
}

// TestFromConfig_InvalidLayerConfig surfaces constructor errors with the
// layer position.
func TestFromConfig_InvalidLayerConfig(t *testing.T) {
	arch := `{"layers": [{"class_name": "Conv2D", "config": {"name": "bad", "filters": 0}}]}`
	_, err := FromConfig([]byte(arch), cpu.New())
	if !errors.Is(err, nn.ErrInvalidConfiguration) {
		t.Fatalf("Expected ErrInvalidConfiguration, got: %v", err)
	}
	if !strings.Contains(err.Error(), "layer 0 (Conv2D)") {
		t.Errorf("Expected layer position in error, got: %v", err)
	}
}

// TestFromConfig_DuplicateLayerNames rejects colliding names.
func TestFromConfig_DuplicateLayerNames(t *testing.T) {
	arch := `{"layers": [
		{"class_name": "Flatten", "config": {"name": "f"}},
		{"class_name": "Flatten", "config": {"name": "f"}}
	]}`
	if _, err := FromConfig([]byte(arch), cpu.New()); !errors.Is(err, nn.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got: %v", err)
	}
}

// TestFromConfig_BadDocument rejects malformed or empty architectures.
func TestFromConfig_BadDocument(t *testing.T) {
	if _, err := FromConfig([]byte("{not json"), cpu.New()); err == nil {
		t.Error("Expected error for malformed JSON")
	}
	if _, err := FromConfig([]byte(`{"layers": []}`), cpu.New()); !errors.Is(err, nn.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration for empty layers, got: %v", err)
	}
}
