package cpu

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// floatDType restricts the spatial kernels to the dtypes Conv2D and
// Pool2D accept.
type floatDType interface {
	~float32 | ~float64
}

// binOp enumerates the elementwise arithmetic operators. Kernels switch
// on it outside their loops, so every loop body stays one fused
// expression the compiler can vectorize.
type binOp int

const (
	opAdd binOp = iota
	opSub
	opMul
	opDiv
)

func (op binOp) String() string {
	switch op {
	case opAdd:
		return "add"
	case opSub:
		return "sub"
	case opMul:
		return "mul"
	case opDiv:
		return "div"
	}
	return "unknown"
}

// binaryEqual computes dst = a op b for equal-shape operands. dst may
// alias a, which is the in-place fast path.
func binaryEqual(op binOp, dst, a, b *tensor.RawTensor) {
	switch dst.DType() {
	case tensor.Float32:
		pairwise(op, dst.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		pairwise(op, dst.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	case tensor.Int32:
		pairwise(op, dst.AsInt32(), a.AsInt32(), b.AsInt32())
	case tensor.Int64:
		pairwise(op, dst.AsInt64(), a.AsInt64(), b.AsInt64())
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, dst.DType()))
	}
}

// binaryBroadcast computes dst = a op b with both operands stretched to
// outShape under the broadcasting rules.
func binaryBroadcast(op binOp, dst, a, b *tensor.RawTensor, outShape tensor.Shape) {
	switch dst.DType() {
	case tensor.Float32:
		pairwiseStrided(op, dst.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape)
	case tensor.Float64:
		pairwiseStrided(op, dst.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape)
	case tensor.Int32:
		pairwiseStrided(op, dst.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape)
	case tensor.Int64:
		pairwiseStrided(op, dst.AsInt64(), a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, dst.DType()))
	}
}

// pairwise is the equal-shape kernel: one flat loop per operator.
func pairwise[T tensor.DType](op binOp, dst, a, b []T) {
	switch op {
	case opAdd:
		for i := range dst {
			dst[i] = a[i] + b[i]
		}
	case opSub:
		for i := range dst {
			dst[i] = a[i] - b[i]
		}
	case opMul:
		for i := range dst {
			dst[i] = a[i] * b[i]
		}
	case opDiv:
		for i := range dst {
			dst[i] = a[i] / b[i]
		}
	}
}

// pairwiseStrided walks the output in row-major order and maps each
// position back into the operands through broadcast strides. The index
// arithmetic dominates here, so the per-element operator switch costs
// nothing measurable.
func pairwiseStrided[T tensor.DType](op binOp, dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	for i := range dst {
		av := a[strideIndex(i, outStrides, aStrides)]
		bv := b[strideIndex(i, outStrides, bStrides)]
		switch op {
		case opAdd:
			dst[i] = av + bv
		case opSub:
			dst[i] = av - bv
		case opMul:
			dst[i] = av * bv
		case opDiv:
			dst[i] = av / bv
		}
	}
}

// broadcastStrides returns inShape's strides right-aligned against
// outShape. Size-1 dims and missing leading dims get stride 0, which
// is what makes the operand repeat along them.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	offset := outDim - len(inShape)
	origStrides := inShape.ComputeStrides()

	strides := make([]int, outDim)
	for i := range strides {
		inIdx := i - offset
		if inIdx < 0 || inShape[inIdx] == 1 {
			strides[i] = 0
		} else {
			strides[i] = origStrides[inIdx]
		}
	}
	return strides
}

// strideIndex converts a flat output index into a flat operand index:
// decompose against the output strides, recompose against the
// operand's broadcast strides.
func strideIndex(outIdx int, outStrides, inStrides []int) int {
	flat := 0
	for i, os := range outStrides {
		flat += (outIdx / os) * inStrides[i]
		outIdx %= os
	}
	return flat
}

// transposeData permutes src's dimensions by axes into result.
func transposeData(result, src *tensor.RawTensor, axes []int) {
	switch src.DType() {
	case tensor.Float32:
		transposeKernel(result.AsFloat32(), src.AsFloat32(), src.Shape(), axes)
	case tensor.Float64:
		transposeKernel(result.AsFloat64(), src.AsFloat64(), src.Shape(), axes)
	case tensor.Int32:
		transposeKernel(result.AsInt32(), src.AsInt32(), src.Shape(), axes)
	case tensor.Int64:
		transposeKernel(result.AsInt64(), src.AsInt64(), src.Shape(), axes)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", src.DType()))
	}
}

// transposeKernel walks the source linearly and scatters into the
// destination. The source coordinates advance like an odometer, and
// step[dim] carries each dimension's contribution to the destination
// index, so the loop needs no division and no per-element allocation.
func transposeKernel[T tensor.DType](dst, src []T, shape tensor.Shape, axes []int) {
	ndim := len(shape)

	dstShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		dstShape[i] = shape[ax]
	}
	dstStrides := dstShape.ComputeStrides()

	step := make([]int, ndim)
	for dstDim, srcDim := range axes {
		step[srcDim] = dstStrides[dstDim]
	}

	coords := make([]int, ndim)
	dstIdx := 0
	for i := range src {
		dst[dstIdx] = src[i]
		for dim := ndim - 1; dim >= 0; dim-- {
			coords[dim]++
			dstIdx += step[dim]
			if coords[dim] < shape[dim] {
				break
			}
			coords[dim] = 0
			dstIdx -= step[dim] * shape[dim]
		}
	}
}
