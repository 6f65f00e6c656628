package cpu

import (
	"fmt"
	"math"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// unaryOp enumerates the elementwise activations. As with binOp, kernels
// switch on it outside their loops.
type unaryOp int

const (
	opReLU unaryOp = iota
	opSigmoid
	opTanh
)

func (op unaryOp) String() string {
	switch op {
	case opReLU:
		return "relu"
	case opSigmoid:
		return "sigmoid"
	case opTanh:
		return "tanh"
	}
	return "unknown"
}

// applyUnary computes dst = op(src) elementwise. The transcendental ops go
// through float64 math regardless of T; relu stays in the source type.
func applyUnary[T floatDType](op unaryOp, dst, src []T) {
	switch op {
	case opReLU:
		for i, v := range src {
			if v > 0 {
				dst[i] = v
			}
		}
	case opSigmoid:
		for i, v := range src {
			dst[i] = T(1 / (1 + math.Exp(-float64(v))))
		}
	case opTanh:
		for i, v := range src {
			dst[i] = T(math.Tanh(float64(v)))
		}
	}
}

func (cpu *CPUBackend) unary(op unaryOp, x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	switch x.DType() {
	case tensor.Float32:
		applyUnary(op, result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		applyUnary(op, result.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, x.DType()))
	}
	return result
}

// ReLU zeroes the negative half of x.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(opReLU, x)
}

// Sigmoid computes 1 / (1 + exp(-x)) elementwise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(opSigmoid, x)
}

// Tanh computes the hyperbolic tangent elementwise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary(opTanh, x)
}

// Softmax rescales exp(x) along dim so every slice through that dimension
// sums to one. Negative dim counts back from the last dimension.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("softmax: dim %d out of range for rank %d", dim, len(shape)))
	}

	result, err := tensor.NewRaw(shape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("softmax: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		softmaxLanes(result.AsFloat32(), x.AsFloat32(), shape, dim)
	case tensor.Float64:
		softmaxLanes(result.AsFloat64(), x.AsFloat64(), shape, dim)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}
	return result
}

// softmaxLanes applies the max-shifted three-pass softmax to each lane
// along dim. In a contiguous row-major tensor the lane's elements sit
// inner elements apart, where inner is the product of the dimensions
// after dim, so lanes are addressed by an outer/inner split with no
// coordinate bookkeeping. Exponentials and the lane sum are carried in
// float64 for both element types.
func softmaxLanes[T floatDType](dst, src []T, shape tensor.Shape, dim int) {
	outer, inner := 1, 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	for _, d := range shape[dim+1:] {
		inner *= d
	}
	n := shape[dim]

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*n*inner + in

			hi := float64(src[base])
			for k := 1; k < n; k++ {
				if v := float64(src[base+k*inner]); v > hi {
					hi = v
				}
			}

			var sum float64
			for k := 0; k < n; k++ {
				e := math.Exp(float64(src[base+k*inner]) - hi)
				dst[base+k*inner] = T(e)
				sum += e
			}

			for k := 0; k < n; k++ {
				idx := base + k*inner
				dst[idx] = T(float64(dst[idx]) / sum)
			}
		}
	}
}
