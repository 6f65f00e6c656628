package tensor

// Backend defines the contract for tensor computation backends.
//
// A backend is selected when a layer or model is built and stays fixed for
// its lifetime; the CPU backend is always available, accelerated backends
// are optional strategies behind the same interface.
//
// Backend operations panic on shape or dtype violations. Those are
// programmer errors: layers validate user-facing configuration and geometry
// before dispatching, so a backend never sees an invalid call from the
// public API.
type Backend interface {
	// Element-wise arithmetic with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar arithmetic. The scalar is converted to the tensor's dtype.
	AddScalar(x *RawTensor, scalar any) *RawTensor
	MulScalar(x *RawTensor, scalar any) *RawTensor

	// MatMul performs 2-D matrix multiplication: (M, K) @ (K, N) → (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Conv2D performs a 2-D convolution over a 3-D feature tensor.
	// The kernel is (kh, kw, inChannels, outChannels); bias is
	// (outChannels) or nil. The input layout follows cfg.Order.
	Conv2D(input, kernel, bias *RawTensor, cfg ConvConfig) *RawTensor

	// Pool2D reduces windows of a 3-D feature tensor per channel.
	// The input layout follows cfg.Order; the output preserves it.
	Pool2D(input *RawTensor, cfg PoolConfig) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Element-wise nonlinearities.
	ReLU(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Softmax(x *RawTensor, dim int) *RawTensor // softmax along dimension

	// Reductions.
	Sum(x *RawTensor) *RawTensor             // total sum (scalar result)
	Argmax(x *RawTensor, dim int) *RawTensor // Int64 indices along dim (-1 means last)

	// Type conversion.
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
