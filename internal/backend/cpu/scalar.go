package cpu

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// AddScalar adds a scalar to every element. The scalar must already
// have the tensor's element type; callers going through the generic
// Tensor API get that for free.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp(opAdd, x, scalar)
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp(opMul, x, scalar)
}

func (cpu *CPUBackend) scalarOp(op binOp, x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%sScalar: %v", op, err))
	}

	switch x.DType() {
	case tensor.Float32:
		scalarLoop(op, result.AsFloat32(), x.AsFloat32(), assertScalar[float32](op, scalar))
	case tensor.Float64:
		scalarLoop(op, result.AsFloat64(), x.AsFloat64(), assertScalar[float64](op, scalar))
	case tensor.Int32:
		scalarLoop(op, result.AsInt32(), x.AsInt32(), assertScalar[int32](op, scalar))
	case tensor.Int64:
		scalarLoop(op, result.AsInt64(), x.AsInt64(), assertScalar[int64](op, scalar))
	default:
		panic(fmt.Sprintf("%sScalar: unsupported dtype %s", op, x.DType()))
	}

	return result
}

func assertScalar[T tensor.DType](op binOp, scalar any) T {
	s, ok := scalar.(T)
	if !ok {
		panic(fmt.Sprintf("%sScalar: scalar %T does not match tensor dtype", op, scalar))
	}
	return s
}

func scalarLoop[T tensor.DType](op binOp, dst, src []T, s T) {
	switch op {
	case opAdd:
		for i := range dst {
			dst[i] = src[i] + s
		}
	case opMul:
		for i := range dst {
			dst[i] = src[i] * s
		}
	default:
		panic(fmt.Sprintf("%sScalar: operator not supported", op))
	}
}
