package tensor

import "fmt"

// Add returns the element-wise sum of t and other. Operands of unequal
// shape broadcast under the trailing-dimension rules.
//
// Example:
//
//	col := tensor.Ones[float32](Shape{3, 1}, backend)
//	grid := tensor.Ones[float32](Shape{3, 5}, backend)
//	sum := col.Add(grid) // broadcast to [3, 5]
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub returns the element-wise difference of t and other, broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul returns the element-wise product of t and other, broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div returns the element-wise quotient of t and other, broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// AddScalar adds scalar to every element.
func (t *Tensor[T, B]) AddScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, scalar), t.backend)
}

// MulScalar multiplies every element by scalar.
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, scalar), t.backend)
}

// MatMul multiplies a (M, K) matrix by a (K, N) one, producing (M, N).
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Conv2D convolves the tensor with a (kh, kw, inChannels, outChannels)
// kernel. Bias may be nil.
func (t *Tensor[T, B]) Conv2D(kernel, bias *Tensor[T, B], cfg ConvConfig) *Tensor[T, B] {
	var biasRaw *RawTensor
	if bias != nil {
		biasRaw = bias.raw
	}
	return New[T, B](t.backend.Conv2D(t.raw, kernel.raw, biasRaw, cfg), t.backend)
}

// Pool2D reduces windows of the tensor per channel according to cfg.
func (t *Tensor[T, B]) Pool2D(cfg PoolConfig) *Tensor[T, B] {
	return New[T, B](t.backend.Pool2D(t.raw, cfg), t.backend)
}

// Reshape reinterprets the data under a new shape holding the same
// number of elements.
//
// Example:
//
//	flat := tensor.Zeros[float32](Shape{12}, backend)
//	grid := flat.Reshape(3, 4)
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Transpose permutes the dimensions by axes; with no axes it reverses
// them, which for a matrix is the ordinary transpose.
//
// Example:
//
//	x := tensor.Randn[float32](Shape{2, 3, 4}, backend)
//	p := x.Transpose(2, 0, 1) // shape [4, 2, 3]
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// T swaps the rows and columns of a matrix, panicking on other ranks.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if len(t.raw.Shape()) != 2 {
		panic(fmt.Sprintf("transpose: shape %v is not a matrix", t.raw.Shape()))
	}
	return t.Transpose(1, 0)
}

// ReLU applies max(0, x) element-wise.
func (t *Tensor[T, B]) ReLU() *Tensor[T, B] {
	return New[T, B](t.backend.ReLU(t.raw), t.backend)
}

// Sigmoid applies 1/(1+exp(-x)) element-wise.
func (t *Tensor[T, B]) Sigmoid() *Tensor[T, B] {
	return New[T, B](t.backend.Sigmoid(t.raw), t.backend)
}

// Tanh applies the hyperbolic tangent element-wise.
func (t *Tensor[T, B]) Tanh() *Tensor[T, B] {
	return New[T, B](t.backend.Tanh(t.raw), t.backend)
}

// Softmax normalizes values along the given dimension into a probability
// distribution (-1 means last).
func (t *Tensor[T, B]) Softmax(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Softmax(t.raw, dim), t.backend)
}

// Sum reduces all elements to a scalar tensor.
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	return New[T, B](t.backend.Sum(t.raw), t.backend)
}

// Argmax returns the Int64 indices of the maximum values along dim
// (-1 means last). A package-level function because the result element
// type differs from the input's.
func Argmax[T DType, B Backend](t *Tensor[T, B], dim int) *Tensor[int64, B] {
	return New[int64, B](t.backend.Argmax(t.raw, dim), t.backend)
}

// Cast converts the tensor to element type U, copying data.
func Cast[U DType, T DType, B Backend](t *Tensor[T, B]) *Tensor[U, B] {
	var zero U
	return New[U, B](t.backend.Cast(t.raw, inferDataType(zero)), t.backend)
}
