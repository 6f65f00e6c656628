//go:build windows

package webgpu

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/tensor"
)

var _ tensor.Backend = (*Backend)(nil)

// The exported surface is panic-based while the kernel runners return
// errors. binary, unary, and scalarOp fold that translation into one
// place, labelled with the kernel name.

func (b *Backend) binary(op string, x, y *tensor.RawTensor, shader string) *tensor.RawTensor {
	result, err := b.runBinaryOp(x, y, op, shader)
	if err != nil {
		panic("webgpu: " + op + ": " + err.Error())
	}
	return result
}

func (b *Backend) unary(op string, x *tensor.RawTensor, shader string) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, op, shader)
	if err != nil {
		panic("webgpu: " + op + ": " + err.Error())
	}
	return result
}

func (b *Backend) scalarOp(op string, x *tensor.RawTensor, scalar any, shader string) *tensor.RawTensor {
	result, err := b.runScalarOp(x, scalar, op, shader)
	if err != nil {
		panic("webgpu: " + op + ": " + err.Error())
	}
	return result
}

// Add sums x and y element-wise, broadcasting either operand.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary("add", x, y, addShader)
}

// Sub subtracts y from x element-wise, broadcasting either operand.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary("sub", x, y, subShader)
}

// Mul multiplies x and y element-wise, broadcasting either operand.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary("mul", x, y, mulShader)
}

// Div divides x by y element-wise, broadcasting either operand.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary("div", x, y, divShader)
}

// AddScalar adds scalar to every element.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.scalarOp("scalar_add", x, scalar, scalarAddShader)
}

// MulScalar multiplies every element by scalar.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.scalarOp("scalar_mul", x, scalar, scalarMulShader)
}

// MatMul multiplies a (M, K) matrix by a (K, N) one on the GPU.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runMatMul(x, y)
	if err != nil {
		panic("webgpu: matmul: " + err.Error())
	}
	return result
}

// Conv2D performs 2D convolution on GPU. Channels-first inputs are
// transposed around the kernel, so the shader only ever sees the native
// channels-last layout.
func (b *Backend) Conv2D(input, kernel, bias *tensor.RawTensor, cfg tensor.ConvConfig) *tensor.RawTensor {
	cfg = cfg.Normalized()
	if cfg.Order == tensor.ChannelsFirst {
		hwc := b.Transpose(input, 1, 2, 0)
		last := cfg
		last.Order = tensor.ChannelsLast
		return b.Transpose(b.Conv2D(hwc, kernel, bias, last), 2, 0, 1)
	}

	result, err := b.runConv2D(input, kernel, bias, cfg)
	if err != nil {
		panic("webgpu: conv2d: " + err.Error())
	}
	return result
}

// Pool2D reduces spatial windows of a feature map on GPU. Channels-first
// inputs are transposed around the kernel per cfg.Order.
func (b *Backend) Pool2D(input *tensor.RawTensor, cfg tensor.PoolConfig) *tensor.RawTensor {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("webgpu: pool2d: %v", err))
	}
	if cfg.Order == tensor.ChannelsFirst {
		hwc := b.Transpose(input, 1, 2, 0)
		last := cfg
		last.Order = tensor.ChannelsLast
		return b.Transpose(b.Pool2D(hwc, last), 2, 0, 1)
	}

	result, err := b.runPool2D(input, cfg)
	if err != nil {
		panic("webgpu: pool2d: " + err.Error())
	}
	return result
}

// Reshape rewraps the elements under newShape, which must hold the same
// element count. Data round-trips through a host copy; tensors do not
// yet stay resident between kernels.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic("webgpu: reshape: " + err.Error())
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("webgpu: reshape: %v holds %d elements, %v wants %d",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}

	result, err := tensor.NewRawFrom(newShape, t.DType(), tensor.WebGPU, t.Data())
	if err != nil {
		panic("webgpu: reshape: " + err.Error())
	}
	return result
}

// Transpose permutes the dimensions by axes; with no axes they are
// reversed. A matrix swap takes the dedicated shader, every other
// permutation goes through the coordinate-mapping shader.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("webgpu: transpose: %d axes for a rank-%d tensor", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("webgpu: transpose: axis %d out of range for rank %d", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("webgpu: transpose: axis %d repeats", ax))
		}
		seen[ax] = true
	}

	var result *tensor.RawTensor
	var err error
	if ndim == 2 && axes[0] == 1 && axes[1] == 0 {
		result, err = b.runTranspose(t)
	} else {
		result, err = b.runTransposeND(t, axes)
	}
	if err != nil {
		panic("webgpu: transpose: " + err.Error())
	}
	return result
}

// ReLU applies max(0, x) element-wise.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary("relu", x, reluShader)
}

// Sigmoid applies 1/(1+exp(-x)) element-wise.
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary("sigmoid", x, sigmoidShader)
}

// Tanh applies the hyperbolic tangent element-wise.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary("tanh", x, tanhShader)
}

// Softmax normalizes values along dim (-1 means last) into a probability
// distribution. The shader reduces the last dimension only; other dims
// rotate into last place and back around it.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	ndim := len(x.Shape())
	dim = checkDim("softmax", dim, ndim)

	if dim == ndim-1 {
		result, err := b.runSoftmax(x)
		if err != nil {
			panic("webgpu: softmax: " + err.Error())
		}
		return result
	}

	axes := rotateLast(ndim, dim)
	inverse := make([]int, ndim)
	for i, ax := range axes {
		inverse[ax] = i
	}

	rotated, err := b.runSoftmax(b.Transpose(x, axes...))
	if err != nil {
		panic("webgpu: softmax: " + err.Error())
	}
	return b.Transpose(rotated, inverse...)
}

// Sum reduces all elements to a scalar tensor.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runSum(x)
	if err != nil {
		panic("webgpu: sum: " + err.Error())
	}
	return result
}

// Argmax returns the Int64 indices of the maximum values along dim
// (-1 means last). The reduced dimension is removed from the output
// shape.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	dim = checkDim("argmax", dim, ndim)

	// With the reduced dimension rotated into last place the remaining
	// dims enumerate batches in the row-major order of the output.
	if dim != ndim-1 {
		x = b.Transpose(x, rotateLast(ndim, dim)...)
	}

	outShape := make(tensor.Shape, 0, ndim-1)
	for i, d := range shape {
		if i != dim {
			outShape = append(outShape, d)
		}
	}

	result, err := b.runArgmax(x, outShape)
	if err != nil {
		panic("webgpu: argmax: " + err.Error())
	}
	return result
}

// checkDim resolves a possibly negative dimension index against ndim.
func checkDim(op string, dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("webgpu: %s: dim %d out of range for rank %d", op, dim, ndim))
	}
	return dim
}

// rotateLast builds the permutation that moves dim into last place while
// keeping the other dimensions in order.
func rotateLast(ndim, dim int) []int {
	axes := make([]int, 0, ndim)
	for i := 0; i < ndim; i++ {
		if i != dim {
			axes = append(axes, i)
		}
	}
	return append(axes, dim)
}

// Cast converts the tensor to a different data type. Conversion runs on
// the host: the compute shaders are float32-only, so every supported cast
// has float32 on one side.
func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x
	}

	result, err := tensor.NewRaw(x.Shape(), dtype, tensor.WebGPU)
	if err != nil {
		panic(fmt.Sprintf("webgpu: cast: %v", err))
	}

	switch {
	case x.DType() == tensor.Float32:
		castFromFloat32(result, x, dtype)
	case dtype == tensor.Float32:
		castToFloat32(result, x)
	default:
		panic(fmt.Sprintf("webgpu: cast: unsupported conversion %s -> %s", x.DType(), dtype))
	}

	return result
}

func castFromFloat32(result, x *tensor.RawTensor, toDtype tensor.DataType) {
	src := x.AsFloat32()

	switch toDtype {
	case tensor.Float64:
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = float64(v)
		}
	case tensor.Int32:
		dst := result.AsInt32()
		for i, v := range src {
			dst[i] = int32(v)
		}
	case tensor.Int64:
		dst := result.AsInt64()
		for i, v := range src {
			dst[i] = int64(v)
		}
	case tensor.Uint8:
		dst := result.AsUint8()
		for i, v := range src {
			dst[i] = uint8(v)
		}
	default:
		panic(fmt.Sprintf("webgpu: cast: unsupported target dtype %v from float32", toDtype))
	}
}

func castToFloat32(result, x *tensor.RawTensor) {
	dst := result.AsFloat32()

	switch x.DType() {
	case tensor.Float64:
		for i, v := range x.AsFloat64() {
			dst[i] = float32(v)
		}
	case tensor.Int32:
		for i, v := range x.AsInt32() {
			dst[i] = float32(v)
		}
	case tensor.Int64:
		for i, v := range x.AsInt64() {
			dst[i] = float32(v)
		}
	case tensor.Uint8:
		for i, v := range x.AsUint8() {
			dst[i] = float32(v)
		}
	default:
		panic(fmt.Sprintf("webgpu: cast: unsupported source dtype %v", x.DType()))
	}
}
