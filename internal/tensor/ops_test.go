package tensor

import (
	"fmt"
	"math"
	"testing"
)

func TestTensorDiv(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{12, 9, 8, 30}, Shape{2, 2}, backend)
	b, _ := FromSlice([]float32{4, 3, 2, 5}, Shape{2, 2}, backend)

	c := a.Div(b)

	want := []float32{3, 3, 4, 6}
	got := c.Data()
	for i := range want {
		assertEqualFloat32(t, want[i], got[i], fmt.Sprintf("Div[%d]", i))
	}
}

func TestScalarOps(t *testing.T) {
	backend := NewMockBackend()

	base, _ := FromSlice([]float32{-1, 0, 2, 6}, Shape{4}, backend)
	scaled := base.MulScalar(1.5).Data()
	for i, want := range []float32{-1.5, 0, 3, 9} {
		assertEqualFloat32(t, want, scaled[i], fmt.Sprintf("MulScalar[%d]", i))
	}

	offsets, _ := FromSlice([]float32{5, 10, 15}, Shape{3}, backend)
	shifted := offsets.AddScalar(-3).Data()
	for i, want := range []float32{2, 7, 12} {
		assertEqualFloat32(t, want, shifted[i], fmt.Sprintf("AddScalar[%d]", i))
	}
}

// Each activation is checked against its closed-form reference on the
// same inputs rather than hard-coded output values.
func TestActivations(t *testing.T) {
	backend := NewMockBackend()
	input := []float32{-2, -0.5, 0, 0.5, 2}
	tensor, _ := FromSlice(input, Shape{5}, backend)

	tests := []struct {
		name string
		got  *Tensor[float32, *MockBackend]
		ref  func(float64) float64
	}{
		{"ReLU", tensor.ReLU(), func(x float64) float64 { return math.Max(0, x) }},
		{"Sigmoid", tensor.Sigmoid(), func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }},
		{"Tanh", tensor.Tanh(), math.Tanh},
	}

	for _, tt := range tests {
		for i, v := range tt.got.Data() {
			want := tt.ref(float64(input[i]))
			if math.Abs(float64(v)-want) > 1e-6 {
				t.Errorf("%s(%v) = %v, want %v", tt.name, input[i], v, want)
			}
		}
	}
}

func TestTensorSoftmax(t *testing.T) {
	backend := NewMockBackend()
	tensor, _ := FromSlice([]float32{2, 0, 1, 3, 5, 5, 5, 5}, Shape{2, 4}, backend)

	result := tensor.Softmax(-1)

	assertEqualShape(t, Shape{2, 4}, result.Shape(), "Softmax shape")

	got := result.Data()
	for row := 0; row < 2; row++ {
		sum := float32(0)
		for col := 0; col < 4; col++ {
			sum += got[row*4+col]
		}
		assertEqualFloat32(t, 1.0, sum, fmt.Sprintf("Softmax row %d sum", row))
	}

	// A constant lane becomes uniform.
	for col := 0; col < 4; col++ {
		if math.Abs(float64(got[4+col])-0.25) > 1e-6 {
			t.Errorf("Softmax uniform row[%d] = %v, want 0.25", col, got[4+col])
		}
	}

	// Softmax is monotone in its inputs.
	if !(got[1] < got[2] && got[2] < got[0] && got[0] < got[3]) {
		t.Errorf("Softmax should preserve ordering, got %v", got[:4])
	}
}

func TestTensorSoftmaxLeadingDim(t *testing.T) {
	backend := NewMockBackend()
	tensor, _ := FromSlice([]float32{1, 4, 3, 2}, Shape{2, 2}, backend)

	result := tensor.Softmax(0)

	got := result.Data()
	for col := 0; col < 2; col++ {
		sum := got[col] + got[2+col]
		assertEqualFloat32(t, 1.0, sum, fmt.Sprintf("Softmax column %d sum", col))
	}
}

func TestTensorSum(t *testing.T) {
	backend := NewMockBackend()
	tensor, _ := FromSlice([]float32{2.5, -1.5, 4, 5}, Shape{2, 2}, backend)

	result := tensor.Sum()

	if result.Item() != 10 {
		t.Errorf("Sum() = %v, want 10", result.Item())
	}
}

func TestTensorArgmax(t *testing.T) {
	backend := NewMockBackend()
	// [[4, 9],
	//  [8, 1],
	//  [7, 7]]
	tensor, _ := FromSlice([]float32{4, 9, 8, 1, 7, 7}, Shape{3, 2}, backend)

	down := Argmax(tensor, 0)
	assertEqualShape(t, Shape{2}, down.Shape(), "Argmax(0) shape")
	for i, want := range []int64{1, 0} {
		if down.At(i) != want {
			t.Errorf("Argmax(0)[%d] = %d, want %d", i, down.At(i), want)
		}
	}

	// Ties resolve to the lowest index, so the [7, 7] row yields 0.
	across := Argmax(tensor, 1)
	assertEqualShape(t, Shape{3}, across.Shape(), "Argmax(1) shape")
	for i, want := range []int64{1, 0, 0} {
		if across.At(i) != want {
			t.Errorf("Argmax(1)[%d] = %d, want %d", i, across.At(i), want)
		}
	}

	// -1 addresses the last dimension.
	last := Argmax(tensor, -1)
	for i := 0; i < 3; i++ {
		if last.At(i) != across.At(i) {
			t.Errorf("Argmax(-1)[%d] = %d, want %d", i, last.At(i), across.At(i))
		}
	}
}

func TestCastConversions(t *testing.T) {
	backend := NewMockBackend()

	floats, _ := FromSlice([]float32{-1.7, 2.9, 3.1}, Shape{3}, backend)
	truncated := Cast[int32](floats)
	for i, want := range []int32{-1, 2, 3} {
		if got := truncated.Data()[i]; got != want {
			t.Errorf("Cast[int32][%d] = %d, want %d", i, got, want)
		}
	}

	ints, _ := FromSlice([]int64{-4, 0, 11}, Shape{3}, backend)
	widened := Cast[float32](ints)
	for i, want := range []float32{-4, 0, 11} {
		assertEqualFloat32(t, want, widened.Data()[i], fmt.Sprintf("Cast[float32][%d]", i))
	}

	halves, _ := FromSlice([]float32{1.5, -2.25, 3.75}, Shape{3}, backend)
	doubled := Cast[float64](halves)
	for i, want := range []float64{1.5, -2.25, 3.75} {
		if got := doubled.Data()[i]; got != want {
			t.Errorf("Cast[float64][%d] = %v, want %v", i, got, want)
		}
	}
}

// Conv2D / Pool2D Tests (thin wrappers; the kernels are tested in the
// backend packages)

func TestTensorConv2DIdentityKernel(t *testing.T) {
	backend := NewMockBackend()
	// 3x3 single-channel input, 1x1 identity kernel → unchanged values.
	input, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, Shape{3, 3, 1}, backend)
	kernel, _ := FromSlice([]float32{1}, Shape{1, 1, 1, 1}, backend)

	out := input.Conv2D(kernel, nil, ConvConfig{})

	assertEqualShape(t, Shape{3, 3, 1}, out.Shape(), "Conv2D identity shape")
	for i, v := range out.Data() {
		assertEqualFloat32(t, float32(i+1), v, fmt.Sprintf("Conv2D identity[%d]", i))
	}
}

func TestTensorConv2DBias(t *testing.T) {
	backend := NewMockBackend()
	input, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2, 1}, backend)
	kernel, _ := FromSlice([]float32{1}, Shape{1, 1, 1, 1}, backend)
	bias, _ := FromSlice([]float32{10}, Shape{1}, backend)

	out := input.Conv2D(kernel, bias, ConvConfig{})

	expected := []float32{11, 12, 13, 14}
	got := out.Data()
	for i := range expected {
		assertEqualFloat32(t, expected[i], got[i], fmt.Sprintf("Conv2D bias[%d]", i))
	}
}

func TestTensorPool2DMax(t *testing.T) {
	backend := NewMockBackend()
	// [[1,  2,  3,  4],
	//  [5,  6,  7,  8],
	//  [9, 10, 11, 12],
	//  [13,14, 15, 16]]
	input, _ := FromSlice([]float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, Shape{4, 4, 1}, backend)

	out := input.Pool2D(PoolConfig{Window: [2]int{2, 2}, Reducer: ReduceMax})

	assertEqualShape(t, Shape{2, 2, 1}, out.Shape(), "Pool2D max shape")

	expected := []float32{6, 8, 14, 16}
	got := out.Data()
	for i := range expected {
		assertEqualFloat32(t, expected[i], got[i], fmt.Sprintf("Pool2D max[%d]", i))
	}
}

func TestTensorPool2DAverage(t *testing.T) {
	backend := NewMockBackend()
	input := Ones[float32](Shape{4, 4, 1}, backend)

	out := input.Pool2D(PoolConfig{Window: [2]int{2, 2}, Reducer: ReduceAverage})

	assertEqualShape(t, Shape{2, 2, 1}, out.Shape(), "Pool2D average shape")
	for i, v := range out.Data() {
		assertEqualFloat32(t, 1.0, v, fmt.Sprintf("Pool2D average[%d]", i))
	}
}

// Transpose with explicit axes

func TestTensorTransposeAxes(t *testing.T) {
	backend := NewMockBackend()
	tensor := Arange[float32](0, 24, backend).Reshape(2, 3, 4)

	result := tensor.Transpose(2, 0, 1)

	assertEqualShape(t, Shape{4, 2, 3}, result.Shape(), "Transpose axes shape")

	// result[i][j][k] == tensor[j][k][i]
	if result.At(0, 0, 0) != tensor.At(0, 0, 0) {
		t.Error("Transpose(2,0,1) corner mismatch")
	}
	if result.At(3, 1, 2) != tensor.At(1, 2, 3) {
		t.Error("Transpose(2,0,1) data mismatch")
	}
	if result.At(1, 0, 2) != tensor.At(0, 2, 1) {
		t.Error("Transpose(2,0,1) data mismatch")
	}
}
