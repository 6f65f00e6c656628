package model

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/lattice-ml/lattice/internal/backend/cpu"
	"github.com/lattice-ml/lattice/internal/serialization"
	"github.com/lattice-ml/lattice/internal/tensor"
)

// TestSaveLoad_RoundTrip saves a configured model and reloads it; the
// reloaded model must predict bit-identically.
func TestSaveLoad_RoundTrip(t *testing.T) {
	backend := cpu.New()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "mnist.latc")

	m, err := FromConfig([]byte(cnnArchitecture), backend)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}

	input := tensor.Ones[float32](tensor.Shape{8, 8, 1}, backend)
	want, err := m.Predict(input)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if err := m.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored, err := Load(path, backend)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if restored.Name() != "mnist" {
		t.Errorf("Expected model name mnist, got %q", restored.Name())
	}
	if len(restored.Layers()) != 4 {
		t.Fatalf("Expected 4 layers, got %d", len(restored.Layers()))
	}

	got, err := restored.Predict(input)
	if err != nil {
		t.Fatalf("Predict on restored model failed: %v", err)
	}
	for i, w := range want.Data() {
		if got.Data()[i] != w {
			t.Errorf("Output %d: expected %v, got %v", i, w, got.Data()[i])
		}
	}
}

// TestSave_ArchiveContents verifies the written archive's header.
func TestSave_ArchiveContents(t *testing.T) {
	backend := cpu.New()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "mnist.latc")

	m, err := FromConfig([]byte(cnnArchitecture), backend)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	if err := m.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reader, err := serialization.NewLatticeReader(path)
	if err != nil {
		t.Fatalf("NewLatticeReader failed: %v", err)
	}
	defer func() { _ = reader.Close() }()

	if got := reader.Header().ModelType; got != "Sequential" {
		t.Errorf("Expected model type Sequential, got %q", got)
	}
	if got := reader.Metadata()["model_name"]; got != "mnist" {
		t.Errorf("Expected model_name mnist, got %q", got)
	}
	if len(reader.Architecture()) == 0 {
		t.Error("Expected architecture JSON in archive")
	}

	// conv1 kernel+bias, output kernel+bias.
	names := reader.TensorNames()
	if len(names) != 4 {
		t.Fatalf("Expected 4 tensors, got %d: %v", len(names), names)
	}
	for _, want := range []string{"conv1.kernel", "conv1.bias", "output.kernel", "output.bias"} {
		if _, err := reader.TensorInfo(want); err != nil {
			t.Errorf("Missing tensor %s: %v", want, err)
		}
	}
}

// TestLoad_NoArchitecture rejects weight-only archives; those load into
// a built model through LoadWeightsFile.
func TestLoad_NoArchitecture(t *testing.T) {
	backend := cpu.New()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "weights.latc")

	// Hand-built model: Save keeps weights but has no architecture.
	m := headModel(t, backend)
	kernel, bias := headWeights(t, backend)
	if err := m.LoadWeights(map[string]*tensor.RawTensor{
		"head.kernel": kernel,
		"head.bias":   bias,
	}); err != nil {
		t.Fatalf("LoadWeights failed: %v", err)
	}
	if err := m.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := Load(path, backend); err == nil || !strings.Contains(err.Error(), "no architecture") {
		t.Fatalf("Expected no-architecture error, got: %v", err)
	}

	// The weight-only archive still loads into a fresh hand-built model.
	fresh := headModel(t, backend)
	if err := fresh.LoadWeightsFile(path); err != nil {
		t.Fatalf("LoadWeightsFile failed: %v", err)
	}
	checkHeadPrediction(t, fresh, backend)
}
