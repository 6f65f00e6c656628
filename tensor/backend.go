// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/lattice-ml/lattice/internal/tensor"

// Backend is the compute contract every device implementation satisfies.
// The cpu package implements it in pure Go; webgpu dispatches the same
// operations to compute shaders.
//
// Backend operations panic on shape or dtype violations. Those are
// programmer errors: layers validate user-facing configuration before
// dispatching, so a backend never sees an invalid call from the public API.
//
//	backend := cpu.New()
//	x := tensor.Randn[float32](tensor.Shape{2, 5}, backend)
//	y := tensor.Randn[float32](tensor.Shape{2, 5}, backend)
//	z := x.Add(y) // dispatches to backend.Add
type Backend interface {
	// Element-wise arithmetic with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar forms; scalar must match the tensor's element type.
	AddScalar(x *RawTensor, scalar any) *RawTensor
	MulScalar(x *RawTensor, scalar any) *RawTensor

	// MatMul multiplies two 2D matrices.
	MatMul(a, b *RawTensor) *RawTensor

	// Spatial operations over 3D feature tensors. Geometry (window,
	// stride, padding, channel order) rides in the config structs.
	Conv2D(input, kernel, bias *RawTensor, cfg ConvConfig) *RawTensor
	Pool2D(input *RawTensor, cfg PoolConfig) *RawTensor

	// Shape manipulation. Reshape keeps the element count; Transpose
	// with no axes reverses the dimension order.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Activations.
	ReLU(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reductions. Sum yields a scalar tensor; Argmax drops dim and
	// yields int64 indices.
	Sum(x *RawTensor) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor

	// Cast converts x to a different element type.
	Cast(x *RawTensor, dtype DataType) *RawTensor

	Name() string
	Device() Device
}

// Compile-time check that the internal interface covers the public one.
var _ Backend = tensor.Backend(nil)
