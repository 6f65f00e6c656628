// Package cpu implements the pure-Go CPU backend, the reference
// implementation every other backend is verified against.
package cpu

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/parallel"
	"github.com/lattice-ml/lattice/internal/tensor"
)

var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend implements tensor operations on CPU. Spatial kernels
// (Conv2D, Pool2D) split their work across goroutines for large inputs.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend with default parallelism.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
}

// NewWithParallel creates a CPU backend with explicit parallelism settings.
// Mostly useful for benchmarks and for forcing the sequential path in tests.
func NewWithParallel(par parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    par,
	}
}

// Name identifies the backend in logs and errors.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device reports tensor.CPU.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add returns a + b, broadcasting either operand.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opAdd, a, b)
}

// Sub returns a - b, broadcasting either operand.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opSub, a, b)
}

// Mul returns the element-wise product a * b with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opMul, a, b)
}

// Div returns the element-wise quotient a / b with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opDiv, a, b)
}

// binary implements the four arithmetic ops. Equal shapes take the
// fused loop — in place into a when nothing else references it — and
// everything else goes through the strided broadcast kernel.
//
// The equal-shape guard is not redundant with needsBroadcast: shapes
// like (3, 5) and (1, 3, 5) broadcast without repeating any element,
// but the result's shape is neither operand's.
func (cpu *CPUBackend) binary(op binOp, a, b *tensor.RawTensor) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType()))
	}

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		if a.IsUnique() {
			binaryEqual(op, a, a, b)
			return a
		}
		result := cpu.newResult(op, outShape, a.DType())
		binaryEqual(op, result, a, b)
		return result
	}

	result := cpu.newResult(op, outShape, a.DType())
	binaryBroadcast(op, result, a, b, outShape)
	return result
}

func (cpu *CPUBackend) newResult(op binOp, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return result
}

// Reshape reinterprets the elements under a new shape of equal size.
// TODO: alias the buffer instead of copying; needs copy-on-write in
// RawTensor first.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: %v holds %d elements, %v wants %d",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}

	result, err := tensor.NewRawFrom(newShape, t.DType(), t.Device(), t.Data())
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return result
}

// Transpose permutes the tensor's dimensions; with no axes given it
// reverses them. The axes must name each dimension exactly once.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	rank := len(shape)

	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	} else if len(axes) != rank {
		panic(fmt.Sprintf("transpose: %d axes for a rank-%d tensor", len(axes), rank))
	}

	dstShape := make(tensor.Shape, rank)
	seen := make([]bool, rank)
	for i, ax := range axes {
		switch {
		case ax < 0 || ax >= rank:
			panic(fmt.Sprintf("transpose: axis %d out of range for rank %d", ax, rank))
		case seen[ax]:
			panic(fmt.Sprintf("transpose: axis %d repeats", ax))
		}
		seen[ax] = true
		dstShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(dstShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}
	transposeData(result, t, axes)
	return result
}
