//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// maxDims is the highest tensor rank the coordinate-mapping shaders
// (transpose_nd, expand) support. Their uniform params carry fixed
// six-slot shape, stride and axes arrays.
const maxDims = 6

// putDims packs ints as little-endian u32 values at the given byte offset.
func putDims(params []byte, offset int, dims []int) {
	for i, d := range dims {
		//nolint:gosec // G115: dims are non-negative
		binary.LittleEndian.PutUint32(params[offset+i*4:], uint32(d))
	}
}

// runTransposeND executes an N-dimensional transpose with an arbitrary axes
// permutation on GPU. Axes must already be validated by the caller.
func (b *Backend) runTransposeND(input *tensor.RawTensor, axes []int) (*tensor.RawTensor, error) {
	if err := wantFloat32(input); err != nil {
		return nil, err
	}
	shape := input.Shape()
	ndim := len(shape)
	if ndim > maxDims {
		return nil, fmt.Errorf("webgpu: transpose supports at most %d dimensions, got %d", maxDims, ndim)
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	total := input.NumElements()

	// Params layout: ndim, total, then six-slot shape, input strides,
	// output strides and axes arrays (26 u32 values, padded to 112 bytes).
	params := make([]byte, 112)
	putDims(params, 0, []int{ndim, total})
	putDims(params, 8, shape)
	putDims(params, 32, shape.ComputeStrides())
	putDims(params, 56, newShape.ComputeStrides())
	putDims(params, 80, axes)

	out, err := b.runKernel(kernelRun{
		name:   "transpose_nd",
		code:   transposeNDShader,
		inputs: [][]byte{input.Data()},
		params: params,
		out:    uint64(input.ByteSize()), //nolint:gosec // G115: size is non-negative
		grid:   grid1D(total),
	})
	if err != nil {
		return nil, err
	}
	return rawFromBytes(newShape, out)
}

// runExpand broadcasts a tensor to outShape on GPU following NumPy rules:
// missing leading dimensions are treated as size one, and size-one
// dimensions repeat. Returns the input unchanged when the shape already
// matches.
func (b *Backend) runExpand(input *tensor.RawTensor, outShape tensor.Shape) (*tensor.RawTensor, error) {
	if input.Shape().Equal(outShape) {
		return input, nil
	}
	if err := wantFloat32(input); err != nil {
		return nil, err
	}
	rank := len(outShape)
	if rank > maxDims {
		return nil, fmt.Errorf("webgpu: broadcast supports at most %d dimensions, got %d", maxDims, rank)
	}

	// Align the input shape to the output rank with leading ones, then
	// compute its row-major strides. The shader turns size-one coordinates
	// into zero, so the stride of a broadcast dimension never contributes.
	inShape := input.Shape()
	aligned := make([]int, rank)
	for i := range aligned {
		aligned[i] = 1
	}
	copy(aligned[rank-len(inShape):], inShape)

	inStrides := make([]int, rank)
	stride := 1
	for i := rank - 1; i >= 0; i-- {
		inStrides[i] = stride
		stride *= aligned[i]
	}

	total := outShape.NumElements()

	// Params layout: ndim, total, then six-slot shape, input strides and
	// output strides arrays (20 u32 values, 80 bytes).
	params := make([]byte, 80)
	putDims(params, 0, []int{rank, total})
	putDims(params, 8, aligned)
	putDims(params, 32, inStrides)
	putDims(params, 56, outShape.ComputeStrides())

	out, err := b.runKernel(kernelRun{
		name:   "expand",
		code:   expandShader,
		inputs: [][]byte{input.Data()},
		params: params,
		out:    uint64(total) * 4, //nolint:gosec // G115: element count is non-negative
		grid:   grid1D(total),
	})
	if err != nil {
		return nil, err
	}
	return rawFromBytes(outShape, out)
}
