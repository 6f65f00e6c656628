package tensor

import (
	"fmt"
	"math"
	"math/rand"
)

// Zeros allocates a tensor of shape with every element at zero.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{4, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(fmt.Sprintf("zeros: %v", err))
	}
	// Fresh buffers start zeroed, nothing to fill.
	return New[T, B](raw, b)
}

// Full creates a tensor filled with value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{2, 2}, 0.5, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Ones allocates a tensor of shape with every element at one.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Randn creates a float tensor with samples from the standard normal
// distribution, generated pairwise with the Box-Muller transform.
// math/rand is intentional: runs stay reproducible under a fixed seed.
//
// Example:
//
//	t := tensor.Randn[float32](Shape{64, 64}, backend)
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	requireFloat[T]("Randn")
	t := Zeros[T, B](shape, b)
	data := t.Data()

	for i := 0; i < len(data); i += 2 {
		u1 := rand.Float64() //nolint:gosec // G404: math/rand is intentional here
		u2 := rand.Float64() //nolint:gosec // G404: math/rand is intentional here
		r := math.Sqrt(-2.0 * math.Log(u1))
		data[i] = T(r * math.Cos(2.0*math.Pi*u2))
		if i+1 < len(data) {
			data[i+1] = T(r * math.Sin(2.0*math.Pi*u2))
		}
	}
	return t
}

// Rand creates a float tensor with values uniformly distributed in [0, 1).
//
// Example:
//
//	t := tensor.Rand[float32](Shape{8, 8}, backend)
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	requireFloat[T]("Rand")
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = T(rand.Float64()) //nolint:gosec // G404: math/rand is intentional here
	}
	return t
}

func requireFloat[T DType](op string) {
	var dummy T
	switch any(dummy).(type) {
	case float32, float64:
	default:
		panic(op + ": float32 or float64 elements only")
	}
}

// Arange creates a 1D tensor with values from start to end (exclusive),
// stepping by one.
//
// Example:
//
//	t := tensor.Arange[int32](0, 6, backend) // [0 1 2 3 4 5]
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	numElements := int(end - start)
	if numElements <= 0 {
		panic(fmt.Sprintf("arange: empty range [%v, %v)", start, end))
	}

	t := Zeros[T, B](Shape{numElements}, b)
	data := t.Data()
	for i := range data {
		data[i] = start + T(i)
	}
	return t
}

// Eye creates an n x n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	for i := 0; i < n; i++ {
		t.Set(1, i, i)
	}
	return t
}
