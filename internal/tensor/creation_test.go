package tensor

import (
	"math"
	"testing"
)

func checkAll[T DType](t *testing.T, name string, data []T, want T) {
	t.Helper()
	for i, v := range data {
		if v != want {
			t.Fatalf("%s[%d] = %v, want %v", name, i, v, want)
		}
	}
}

// With ~5k samples the estimators are tight enough that these bounds
// sit many standard errors away from the expected values.
func TestRandnMoments(t *testing.T) {
	backend := NewMockBackend()
	tensor := Randn[float32](Shape{80, 60}, backend)

	assertEqualShape(t, Shape{80, 60}, tensor.Shape(), "Randn shape")

	var sum, sumSq float64
	for _, v := range tensor.Data() {
		f := float64(v)
		sum += f
		sumSq += f * f
	}
	n := float64(tensor.NumElements())
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)

	if math.Abs(mean) > 0.15 {
		t.Errorf("Randn mean = %v, want roughly 0", mean)
	}
	if std < 0.8 || std > 1.2 {
		t.Errorf("Randn std = %v, want roughly 1", std)
	}
}

func TestRandnFloat64Varies(t *testing.T) {
	backend := NewMockBackend()
	tensor := Randn[float64](Shape{30, 10}, backend)

	seen := make(map[float64]struct{})
	for _, v := range tensor.Data() {
		seen[v] = struct{}{}
	}
	if len(seen) < 100 {
		t.Errorf("Randn produced only %d distinct values out of 300", len(seen))
	}
}

func TestRandRange(t *testing.T) {
	backend := NewMockBackend()
	tensor := Rand[float32](Shape{60, 40}, backend)

	assertEqualShape(t, Shape{60, 40}, tensor.Shape(), "Rand shape")

	seen := make(map[float32]struct{})
	for i, v := range tensor.Data() {
		if v < 0 || v >= 1 {
			t.Fatalf("Rand[%d] = %v, outside [0, 1)", i, v)
		}
		seen[v] = struct{}{}
	}
	if len(seen) < 100 {
		t.Errorf("Rand produced only %d distinct values", len(seen))
	}
}

func TestRandFloat64Range(t *testing.T) {
	backend := NewMockBackend()
	tensor := Rand[float64](Shape{25, 8}, backend)

	for i, v := range tensor.Data() {
		if v < 0 || v >= 1 {
			t.Fatalf("Rand[%d] = %v, outside [0, 1)", i, v)
		}
	}
}

func TestArangeSpans(t *testing.T) {
	backend := NewMockBackend()

	floats := Arange[float32](-2, 3, backend)
	assertEqualShape(t, Shape{5}, floats.Shape(), "Arange float32 shape")
	for i, want := range []float32{-2, -1, 0, 1, 2} {
		assertEqualFloat32(t, want, floats.Data()[i], "Arange float32")
	}

	ints := Arange[int64](5, 10, backend)
	assertEqualShape(t, Shape{5}, ints.Shape(), "Arange int64 shape")
	for i, want := range []int64{5, 6, 7, 8, 9} {
		if got := ints.Data()[i]; got != want {
			t.Errorf("Arange int64[%d] = %d, want %d", i, got, want)
		}
	}
}

func TestEyeIdentity(t *testing.T) {
	backend := NewMockBackend()
	tensor := Eye[float32](5, backend)

	assertEqualShape(t, Shape{5, 5}, tensor.Shape(), "Eye shape")
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if got := tensor.At(i, j); got != want {
				t.Errorf("Eye.At(%d, %d) = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestEyeInt32(t *testing.T) {
	backend := NewMockBackend()
	tensor := Eye[int32](3, backend)

	assertEqualShape(t, Shape{3, 3}, tensor.Shape(), "Eye int32 shape")
	trace := int32(0)
	for i := 0; i < 3; i++ {
		trace += tensor.At(i, i)
	}
	if trace != 3 {
		t.Errorf("Eye int32 trace = %d, want 3", trace)
	}
}

func TestFillDTypeVariants(t *testing.T) {
	backend := NewMockBackend()

	zeros := Zeros[int64](Shape{4, 2}, backend)
	assertEqualShape(t, Shape{4, 2}, zeros.Shape(), "Zeros int64 shape")
	checkAll(t, "Zeros int64", zeros.Data(), 0)

	ones := Ones[float64](Shape{2, 5}, backend)
	checkAll(t, "Ones float64", ones.Data(), 1)

	bytes := Ones[uint8](Shape{3}, backend)
	checkAll(t, "Ones uint8", bytes.Data(), 1)

	full := Full(Shape{2, 2}, int64(-11), backend)
	checkAll(t, "Full int64", full.Data(), -11)
}
