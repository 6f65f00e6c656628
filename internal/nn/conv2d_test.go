package nn

import (
	"errors"
	"testing"

	"github.com/lattice-ml/lattice/internal/backend/cpu"
	"github.com/lattice-ml/lattice/internal/tensor"
)

// newConvWeights builds a kernel (and optional bias) weight map for
// SetWeights from flat float32 data.
func newConvWeights(t *testing.T, kernelShape tensor.Shape, kernelData []float32, biasData []float32) map[string]*tensor.RawTensor {
	t.Helper()

	kernel, err := tensor.NewRaw(kernelShape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(kernel.AsFloat32(), kernelData)

	weights := map[string]*tensor.RawTensor{"kernel": kernel}
	if biasData != nil {
		bias, err := tensor.NewRaw(tensor.Shape{len(biasData)}, tensor.Float32, tensor.CPU)
		if err != nil {
			t.Fatalf("NewRaw failed: %v", err)
		}
		copy(bias.AsFloat32(), biasData)
		weights["bias"] = bias
	}
	return weights
}

// TestConv2D_FreshInit tests that configuring in_channels initializes
// the weights immediately.
func TestConv2D_FreshInit(t *testing.T) {
	backend := cpu.New()

	conv, err := NewConv2D(Conv2DConfig{
		Filters:    4,
		KernelSize: [2]int{3, 3},
		InChannels: 2,
	}, backend)
	if err != nil {
		t.Fatalf("NewConv2D failed: %v", err)
	}

	weights := conv.Weights()
	kernel, ok := weights["kernel"]
	if !ok {
		t.Fatal("expected kernel weight after fresh init")
	}
	if !kernel.Shape().Equal(tensor.Shape{3, 3, 2, 4}) {
		t.Errorf("kernel shape: expected [3 3 2 4], got %v", kernel.Shape())
	}
	bias, ok := weights["bias"]
	if !ok {
		t.Fatal("expected bias weight after fresh init")
	}
	for i, v := range bias.AsFloat32() {
		if v != 0 {
			t.Errorf("bias[%d]: expected 0, got %v", i, v)
		}
	}

	input := tensor.Randn[float32](tensor.Shape{5, 5, 2}, backend)
	output, err := conv.Call(input)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if !output.Shape().Equal(tensor.Shape{3, 3, 4}) {
		t.Errorf("output shape: expected [3 3 4], got %v", output.Shape())
	}
}

// TestConv2D_SetWeightsForward tests a forward pass with hand-set
// weights: a 1x1 kernel scaling by 2 plus a bias of 1.
func TestConv2D_SetWeightsForward(t *testing.T) {
	backend := cpu.New()

	conv, err := NewConv2D(Conv2DConfig{
		Name:       "c1",
		Filters:    1,
		KernelSize: [2]int{1, 1},
	}, backend)
	if err != nil {
		t.Fatalf("NewConv2D failed: %v", err)
	}

	weights := newConvWeights(t, tensor.Shape{1, 1, 1, 1}, []float32{2}, []float32{1})
	if err := conv.SetWeights(weights); err != nil {
		t.Fatalf("SetWeights failed: %v", err)
	}

	input := tensor.Zeros[float32](tensor.Shape{2, 2, 1}, backend)
	inputData := input.Raw().AsFloat32()
	for i := 0; i < 4; i++ {
		inputData[i] = float32(i + 1)
	}

	output, err := conv.Call(input)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	expected := []float32{3, 5, 7, 9} // 2*x + 1
	outputData := output.Raw().AsFloat32()
	for i, exp := range expected {
		if outputData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outputData[i])
		}
	}
}

// TestConv2D_SamePadding tests same-mode geometry through the layer: a
// 3x3 sum kernel over an all-ones input counts the in-bounds taps.
func TestConv2D_SamePadding(t *testing.T) {
	backend := cpu.New()

	conv, err := NewConv2D(Conv2DConfig{
		Filters:    1,
		KernelSize: [2]int{3, 3},
		Padding:    "same",
		UseBias:    boolPtr(false),
	}, backend)
	if err != nil {
		t.Fatalf("NewConv2D failed: %v", err)
	}

	kernelData := make([]float32, 9)
	for i := range kernelData {
		kernelData[i] = 1
	}
	if err := conv.SetWeights(newConvWeights(t, tensor.Shape{3, 3, 1, 1}, kernelData, nil)); err != nil {
		t.Fatalf("SetWeights failed: %v", err)
	}

	input := tensor.Ones[float32](tensor.Shape{3, 3, 1}, backend)

	output, err := conv.Call(input)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if !output.Shape().Equal(tensor.Shape{3, 3, 1}) {
		t.Fatalf("output shape: expected [3 3 1], got %v", output.Shape())
	}

	// Corners see 4 in-bounds taps, edges 6, the center all 9.
	expected := []float32{
		4, 6, 4,
		6, 9, 6,
		4, 6, 4,
	}
	outputData := output.Raw().AsFloat32()
	for i, exp := range expected {
		if outputData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outputData[i])
		}
	}
}

// TestConv2D_FusedReLU tests that the fused activation clamps negative
// outputs to zero.
func TestConv2D_FusedReLU(t *testing.T) {
	backend := cpu.New()

	conv, err := NewConv2D(Conv2DConfig{
		Filters:    1,
		KernelSize: [2]int{1, 1},
		Activation: "relu",
		UseBias:    boolPtr(false),
	}, backend)
	if err != nil {
		t.Fatalf("NewConv2D failed: %v", err)
	}
	if err := conv.SetWeights(newConvWeights(t, tensor.Shape{1, 1, 1, 1}, []float32{-1}, nil)); err != nil {
		t.Fatalf("SetWeights failed: %v", err)
	}

	input := tensor.Zeros[float32](tensor.Shape{2, 2, 1}, backend)
	copy(input.Raw().AsFloat32(), []float32{1, -2, 3, -4})

	output, err := conv.Call(input)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	// Negated input, then ReLU.
	expected := []float32{0, 2, 0, 4}
	outputData := output.Raw().AsFloat32()
	for i, exp := range expected {
		if outputData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outputData[i])
		}
	}
}

// TestConv2D_ChannelsFirst tests the channels-first data format through
// the layer.
func TestConv2D_ChannelsFirst(t *testing.T) {
	backend := cpu.New()

	conv, err := NewConv2D(Conv2DConfig{
		Filters:    1,
		KernelSize: [2]int{1, 1},
		DataFormat: "channels_first",
		UseBias:    boolPtr(false),
	}, backend)
	if err != nil {
		t.Fatalf("NewConv2D failed: %v", err)
	}
	if err := conv.SetWeights(newConvWeights(t, tensor.Shape{1, 1, 1, 1}, []float32{3}, nil)); err != nil {
		t.Fatalf("SetWeights failed: %v", err)
	}

	// (1, 2, 2) channels-first
	input := tensor.Zeros[float32](tensor.Shape{1, 2, 2}, backend)
	copy(input.Raw().AsFloat32(), []float32{1, 2, 3, 4})

	output, err := conv.Call(input)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if !output.Shape().Equal(tensor.Shape{1, 2, 2}) {
		t.Fatalf("output shape: expected [1 2 2], got %v", output.Shape())
	}

	expected := []float32{3, 6, 9, 12}
	outputData := output.Raw().AsFloat32()
	for i, exp := range expected {
		if outputData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outputData[i])
		}
	}
}

// TestConv2D_CallErrors tests the Call-time validation paths.
func TestConv2D_CallErrors(t *testing.T) {
	backend := cpu.New()

	t.Run("no weights", func(t *testing.T) {
		conv, err := NewConv2D(Conv2DConfig{Filters: 1, KernelSize: [2]int{1, 1}}, backend)
		if err != nil {
			t.Fatalf("NewConv2D failed: %v", err)
		}
		input := tensor.Ones[float32](tensor.Shape{2, 2, 1}, backend)
		if _, err := conv.Call(input); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("expected ErrInvalidConfiguration, got %v", err)
		}
	})

	t.Run("channel mismatch", func(t *testing.T) {
		conv, err := NewConv2D(Conv2DConfig{Filters: 2, KernelSize: [2]int{1, 1}, InChannels: 3}, backend)
		if err != nil {
			t.Fatalf("NewConv2D failed: %v", err)
		}
		input := tensor.Ones[float32](tensor.Shape{2, 2, 1}, backend)
		if _, err := conv.Call(input); !errors.Is(err, ErrDimension) {
			t.Errorf("expected ErrDimension, got %v", err)
		}
	})

	t.Run("kernel does not fit", func(t *testing.T) {
		conv, err := NewConv2D(Conv2DConfig{Filters: 1, KernelSize: [2]int{3, 3}, InChannels: 1}, backend)
		if err != nil {
			t.Fatalf("NewConv2D failed: %v", err)
		}
		input := tensor.Ones[float32](tensor.Shape{2, 2, 1}, backend)
		if _, err := conv.Call(input); !errors.Is(err, ErrDimension) {
			t.Errorf("expected ErrDimension, got %v", err)
		}
	})

	t.Run("non-3D input", func(t *testing.T) {
		conv, err := NewConv2D(Conv2DConfig{Filters: 1, KernelSize: [2]int{1, 1}, InChannels: 1}, backend)
		if err != nil {
			t.Fatalf("NewConv2D failed: %v", err)
		}
		input := tensor.Ones[float32](tensor.Shape{4}, backend)
		if _, err := conv.Call(input); !errors.Is(err, ErrDimension) {
			t.Errorf("expected ErrDimension, got %v", err)
		}
	})
}

// TestConv2D_ConfigErrors tests the constructor validation paths.
func TestConv2D_ConfigErrors(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name string
		cfg  Conv2DConfig
	}{
		{"zero filters", Conv2DConfig{KernelSize: [2]int{3, 3}}},
		{"zero kernel size", Conv2DConfig{Filters: 4}},
		{"unknown padding", Conv2DConfig{Filters: 4, KernelSize: [2]int{3, 3}, Padding: "reflect"}},
		{"unknown activation", Conv2DConfig{Filters: 4, KernelSize: [2]int{3, 3}, Activation: "swish"}},
		{"negative strides", Conv2DConfig{Filters: 4, KernelSize: [2]int{3, 3}, Strides: [2]int{-2, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewConv2D(tt.cfg, backend); !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

// TestConv2D_SetWeightsValidation tests that bad weight maps are
// rejected and leave the layer untouched.
func TestConv2D_SetWeightsValidation(t *testing.T) {
	backend := cpu.New()

	newLayer := func(t *testing.T) *Conv2D[*cpu.CPUBackend] {
		conv, err := NewConv2D(Conv2DConfig{Filters: 2, KernelSize: [2]int{3, 3}}, backend)
		if err != nil {
			t.Fatalf("NewConv2D failed: %v", err)
		}
		return conv
	}

	t.Run("missing kernel", func(t *testing.T) {
		conv := newLayer(t)
		err := conv.SetWeights(map[string]*tensor.RawTensor{})
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("expected ErrInvalidConfiguration, got %v", err)
		}
	})

	t.Run("kernel shape mismatch", func(t *testing.T) {
		conv := newLayer(t)
		weights := newConvWeights(t, tensor.Shape{2, 2, 1, 2}, make([]float32, 8), []float32{0, 0})
		if err := conv.SetWeights(weights); !errors.Is(err, ErrDimension) {
			t.Errorf("expected ErrDimension, got %v", err)
		}
	})

	t.Run("kernel wrong rank", func(t *testing.T) {
		conv := newLayer(t)
		weights := newConvWeights(t, tensor.Shape{3, 3, 1}, make([]float32, 9), []float32{0, 0})
		if err := conv.SetWeights(weights); !errors.Is(err, ErrDimension) {
			t.Errorf("expected ErrDimension, got %v", err)
		}
	})

	t.Run("missing bias", func(t *testing.T) {
		conv := newLayer(t)
		weights := newConvWeights(t, tensor.Shape{3, 3, 1, 2}, make([]float32, 18), nil)
		if err := conv.SetWeights(weights); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("expected ErrInvalidConfiguration, got %v", err)
		}
		// Failed install must not leave partial weights behind.
		if _, ok := conv.Weights()["kernel"]; ok {
			t.Error("kernel installed despite SetWeights failure")
		}
	})

	t.Run("bias shape mismatch", func(t *testing.T) {
		conv := newLayer(t)
		weights := newConvWeights(t, tensor.Shape{3, 3, 1, 2}, make([]float32, 18), []float32{0, 0, 0})
		if err := conv.SetWeights(weights); !errors.Is(err, ErrDimension) {
			t.Errorf("expected ErrDimension, got %v", err)
		}
	})

	t.Run("wrong dtype", func(t *testing.T) {
		conv := newLayer(t)
		kernel, err := tensor.NewRaw(tensor.Shape{3, 3, 1, 2}, tensor.Int32, tensor.CPU)
		if err != nil {
			t.Fatalf("NewRaw failed: %v", err)
		}
		weights := map[string]*tensor.RawTensor{"kernel": kernel}
		if err := conv.SetWeights(weights); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("expected ErrInvalidConfiguration, got %v", err)
		}
	})
}

func boolPtr(b bool) *bool {
	return &b
}
