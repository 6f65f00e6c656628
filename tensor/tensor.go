// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/lattice-ml/lattice/internal/tensor"
)

// DType constrains tensor element types: float32, float64, int32,
// int64, or uint8.
type DType = tensor.DType

// DataType is the runtime tag naming a tensor's element type.
type DataType = tensor.DataType

// Element type tags.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
)

// Device identifies where tensor data lives.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// Shape lists a tensor's dimensions, outermost first.
type Shape = tensor.Shape

// Tensor couples an element type T and a backend B into one type-safe
// handle. Operations dispatch to the backend and wrap the result, so a
// chain like x.MatMul(w).Add(bias).ReLU() stays on one device end to end.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// Zeros returns a tensor of the given shape filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones returns a tensor of the given shape filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full returns a tensor of the given shape with every element set to
// value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Randn returns a tensor drawn element-wise from the standard normal
// distribution N(0, 1).
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, b)
}

// Rand returns a tensor drawn element-wise from the uniform
// distribution over [0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Rand[T, B](shape, b)
}

// Arange returns a 1-D tensor counting from start up to but not
// including end.
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	return tensor.Arange[T, B](start, end, b)
}

// Eye returns the n-by-n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	return tensor.Eye[T, B](n, b)
}

// FromSlice builds a tensor of the given shape from data, which must
// hold exactly shape.NumElements() values.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// New wraps an existing raw tensor in a typed handle. Most callers want
// the creation functions above instead.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// NewRaw allocates an untyped tensor with the given shape, dtype, and
// device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Argmax returns the position of the largest value along dim as an
// int64 tensor with that dimension removed; dim -1 means the last.
func Argmax[T DType, B Backend](t *Tensor[T, B], dim int) *Tensor[int64, B] {
	return tensor.Argmax(t, dim)
}

// Cast converts a tensor to element type U, truncating the way Go
// conversions do.
func Cast[U DType, T DType, B Backend](t *Tensor[T, B]) *Tensor[U, B] {
	return tensor.Cast[U](t)
}

// BroadcastShapes resolves two shapes under NumPy broadcasting rules,
// reporting the result shape and whether any stretching is required.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
