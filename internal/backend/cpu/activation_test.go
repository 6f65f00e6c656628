package cpu

import (
	"math"
	"testing"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// TestReLU tests the rectified linear unit.
func TestReLU(t *testing.T) {
	backend := New()

	t.Run("Float32", func(t *testing.T) {
		x, _ := tensor.NewRaw(tensor.Shape{5}, tensor.Float32, tensor.CPU)
		xData := x.AsFloat32()
		xData[0], xData[1], xData[2], xData[3], xData[4] = -2, -0.5, 0, 0.5, 2

		result := backend.ReLU(x)

		expected := []float32{0, 0, 0, 0.5, 2}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("ReLU failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("Float64", func(t *testing.T) {
		x, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float64, tensor.CPU)
		xData := x.AsFloat64()
		xData[0], xData[1], xData[2] = -1.5, 0, 3.5

		result := backend.ReLU(x)

		expected := []float64{0, 0, 3.5}
		resultData := result.AsFloat64()
		for i, exp := range expected {
			if resultData[i] != exp {
				t.Errorf("Float64 ReLU failed at %d: got %v, expected %v", i, resultData[i], exp)
			}
		}
	})
}

// TestSigmoid tests the logistic function.
func TestSigmoid(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	xData := x.AsFloat32()
	xData[0], xData[1], xData[2] = 0, 1, -1

	result := backend.Sigmoid(x)

	expected := []float32{0.5, 0.7310586, 0.2689414}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("Sigmoid failed: got %v, expected %v", result.AsFloat32(), expected)
	}
}

// TestTanh tests the hyperbolic tangent.
func TestTanh(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	xData := x.AsFloat32()
	xData[0], xData[1], xData[2] = 0, 1, -1

	result := backend.Tanh(x)

	expected := []float32{0, 0.7615942, -0.7615942}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("Tanh failed: got %v, expected %v", result.AsFloat32(), expected)
	}
}

// TestSoftmax tests softmax along both dimensions of a 2D tensor.
func TestSoftmax(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	xData := x.AsFloat32()
	// Row 0: [1, 2, 3]
	// Row 1: [1, 1, 1]
	xData[0], xData[1], xData[2] = 1, 2, 3
	xData[3], xData[4], xData[5] = 1, 1, 1

	t.Run("LastDim", func(t *testing.T) {
		result := backend.Softmax(x, -1)
		resultData := result.AsFloat32()

		expected := []float32{0.09003057, 0.24472847, 0.66524096, 1.0 / 3, 1.0 / 3, 1.0 / 3}
		if !float32SliceEqual(resultData, expected) {
			t.Errorf("Softmax failed: got %v, expected %v", resultData, expected)
		}

		// Rows must sum to 1
		for row := 0; row < 2; row++ {
			var sum float32
			for col := 0; col < 3; col++ {
				sum += resultData[row*3+col]
			}
			if diff := sum - 1.0; diff < -1e-6 || diff > 1e-6 {
				t.Errorf("Row %d sums to %v, expected 1", row, sum)
			}
		}
	})

	t.Run("FirstDim", func(t *testing.T) {
		result := backend.Softmax(x, 0)
		resultData := result.AsFloat32()

		expected := []float32{0.5, 0.7310586, 0.8807971, 0.5, 0.2689414, 0.1192029}
		if !float32SliceEqual(resultData, expected) {
			t.Errorf("Softmax dim 0 failed: got %v, expected %v", resultData, expected)
		}
	})
}

// TestSoftmax_NumericalStability verifies the max-subtraction trick keeps
// large logits from overflowing to NaN.
func TestSoftmax_NumericalStability(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	xData := x.AsFloat32()
	xData[0], xData[1], xData[2] = 1000, 1001, 1002

	result := backend.Softmax(x, 0)
	resultData := result.AsFloat32()

	var sum float32
	for _, v := range resultData {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("Softmax produced %v for large logits", v)
		}
		sum += v
	}
	if diff := sum - 1.0; diff < -1e-6 || diff > 1e-6 {
		t.Errorf("Softmax of large logits sums to %v, expected 1", sum)
	}
}

// TestSoftmax_MatchesMock cross-checks the strided implementation against
// the naive mock backend for every dimension of a 3D tensor.
func TestSoftmax_MatchesMock(t *testing.T) {
	backend := New()
	mock := tensor.NewMockBackend()

	x, _ := tensor.NewRaw(tensor.Shape{2, 3, 4}, tensor.Float32, tensor.CPU)
	xData := x.AsFloat32()
	for i := range xData {
		xData[i] = float32((i*13)%7) - 3.0
	}

	for dim := 0; dim < 3; dim++ {
		got := backend.Softmax(x, dim)
		want := mock.Softmax(x, dim)

		gotData := got.AsFloat32()
		wantData := want.AsFloat32()
		for i := range gotData {
			diff := gotData[i] - wantData[i]
			if diff < -1e-5 || diff > 1e-5 {
				t.Errorf("dim %d index %d: cpu %v, mock %v", dim, i, gotData[i], wantData[i])
			}
		}
	}
}

// TestActivation_UnsupportedDTypePanics verifies integer inputs are rejected.
func TestActivation_UnsupportedDTypePanics(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Int32, tensor.CPU)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for int32 input to ReLU")
		}
	}()

	backend.ReLU(x)
}
