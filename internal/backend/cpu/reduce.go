package cpu

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// Sum reduces the whole tensor to a scalar (empty shape) of the same dtype.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(tensor.Shape{}, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("sum: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = sumKernel(x.AsFloat32())
	case tensor.Float64:
		result.AsFloat64()[0] = sumKernel(x.AsFloat64())
	case tensor.Int32:
		result.AsInt32()[0] = sumKernel(x.AsInt32())
	case tensor.Int64:
		result.AsInt64()[0] = sumKernel(x.AsInt64())
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	return result
}

func sumKernel[T tensor.DType](src []T) T {
	var total T
	for _, v := range src {
		total += v
	}
	return total
}

// Argmax returns the Int64 indices of the maximum value along dim (-1 means
// last). The reduced dimension is removed from the output shape.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("argmax: dim %d out of range for rank %d", dim, ndim))
	}

	outShape := make(tensor.Shape, 0, ndim-1)
	for i, size := range shape {
		if i != dim {
			outShape = append(outShape, size)
		}
	}

	result, err := tensor.NewRaw(outShape, tensor.Int64, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("argmax: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		argmaxKernel(x.AsFloat32(), result.AsInt64(), shape, dim)
	case tensor.Float64:
		argmaxKernel(x.AsFloat64(), result.AsInt64(), shape, dim)
	case tensor.Int32:
		argmaxKernel(x.AsInt32(), result.AsInt64(), shape, dim)
	case tensor.Int64:
		argmaxKernel(x.AsInt64(), result.AsInt64(), shape, dim)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	return result
}

// argmaxKernel scans one strided slice of data per output element. The group
// counter decomposes over the non-reduced dims from last to first, which puts
// consecutive groups at consecutive row-major positions of the output, so the
// output index is just the counter itself.
func argmaxKernel[T tensor.DType](data []T, out []int64, shape tensor.Shape, dim int) {
	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]

	for group := range out {
		base := 0
		remaining := group
		for i := len(shape) - 1; i >= 0; i-- {
			if i == dim {
				continue
			}
			base += (remaining % shape[i]) * strides[i]
			remaining /= shape[i]
		}

		best := data[base]
		bestIdx := int64(0)
		for i := 1; i < dimSize; i++ {
			if v := data[base+i*dimStride]; v > best {
				best = v
				bestIdx = int64(i)
			}
		}
		out[group] = bestIdx
	}
}
