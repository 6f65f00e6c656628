package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/lattice-ml/lattice/internal/backend/cpu"
	"github.com/lattice-ml/lattice/internal/nn"
	"github.com/lattice-ml/lattice/internal/tensor"
)

func newTestBackend() *cpu.CPUBackend {
	return cpu.New()
}

// TestModelAdd verifies layer registration and duplicate-name rejection.
func TestModelAdd(t *testing.T) {
	backend := newTestBackend()
	m := New("test", backend)

	pool, err := nn.NewMaxPooling2D[*cpu.CPUBackend](nn.PoolingConfig{Name: "pool1"})
	if err != nil {
		t.Fatalf("NewMaxPooling2D failed: %v", err)
	}
	if err := m.Add(pool); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if got, ok := m.Layer("pool1"); !ok || got.Name() != "pool1" {
		t.Errorf("Layer lookup failed: ok=%v", ok)
	}
	if _, ok := m.Layer("missing"); ok {
		t.Error("Expected lookup miss for unknown layer")
	}

	dup, err := nn.NewAveragePooling2D[*cpu.CPUBackend](nn.PoolingConfig{Name: "pool1"})
	if err != nil {
		t.Fatalf("NewAveragePooling2D failed: %v", err)
	}
	if err := m.Add(dup); !errors.Is(err, nn.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration for duplicate name, got: %v", err)
	}

	if len(m.Layers()) != 1 {
		t.Errorf("Expected 1 layer, got %d", len(m.Layers()))
	}
}

// TestModelPredict runs a pool+flatten pipeline and checks exact values.
func TestModelPredict(t *testing.T) {
	backend := newTestBackend()
	m := New("test", backend)

	pool, err := nn.NewMaxPooling2D[*cpu.CPUBackend](nn.PoolingConfig{Name: "pool"})
	if err != nil {
		t.Fatalf("NewMaxPooling2D failed: %v", err)
	}
	if err := m.Add(pool); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := m.Add(nn.NewFlatten[*cpu.CPUBackend]("")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	input, err := tensor.FromSlice([]float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, tensor.Shape{4, 4, 1}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	out, err := m.Predict(input)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if !out.Shape().Equal(tensor.Shape{4}) {
		t.Fatalf("Expected output shape (4), got %v", out.Shape())
	}
	expected := []float32{6, 8, 14, 16}
	for i, want := range expected {
		if got := out.Data()[i]; got != want {
			t.Errorf("Output %d: expected %f, got %f", i, want, got)
		}
	}
}

// TestModelPredict_ErrorContext verifies layer errors carry position and
// name.
func TestModelPredict_ErrorContext(t *testing.T) {
	backend := newTestBackend()
	m := New("ctx", backend)

	// A Dense without in_features starts weightless; Call must fail.
	head, err := nn.NewDense(nn.DenseConfig{Name: "head", Units: 2}, backend)
	if err != nil {
		t.Fatalf("NewDense failed: %v", err)
	}
	if err := m.Add(head); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	input, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	_, err = m.Predict(input)
	if err == nil {
		t.Fatal("Expected error from weightless dense layer")
	}
	if !errors.Is(err, nn.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got: %v", err)
	}
	if !strings.Contains(err.Error(), "layer 0 (head)") {
		t.Errorf("Expected layer position and name in error, got: %v", err)
	}
}

// TestModelPredict_Empty rejects running an empty pipeline.
func TestModelPredict_Empty(t *testing.T) {
	backend := newTestBackend()
	m := New("", backend)

	input, err := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if _, err := m.Predict(input); !errors.Is(err, nn.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration for empty model, got: %v", err)
	}
}

// TestModelSummary verifies the pipeline description.
func TestModelSummary(t *testing.T) {
	backend := newTestBackend()
	m := New("mnist", backend)

	pool, err := nn.NewMaxPooling2D[*cpu.CPUBackend](nn.PoolingConfig{Name: "pool1"})
	if err != nil {
		t.Fatalf("NewMaxPooling2D failed: %v", err)
	}
	if err := m.Add(pool); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	summary := m.Summary()
	if !strings.Contains(summary, "mnist") {
		t.Errorf("Summary missing model name: %s", summary)
	}
	if !strings.Contains(summary, "pool1") {
		t.Errorf("Summary missing layer name: %s", summary)
	}
	if !strings.Contains(summary, "Pooling2D(reducer=max") {
		t.Errorf("Summary missing layer description: %s", summary)
	}
}
