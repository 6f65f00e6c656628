package cpu

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/parallel"
	"github.com/lattice-ml/lattice/internal/tensor"
)

// MatMul multiplies two rank-2 tensors: (M, K) @ (K, N) -> (M, N).
//
// Rows of the result are independent, so the work fans out over M with
// the backend's parallel config. The inner kernel iterates K in the
// outer loop and N in the inner one, keeping both operand accesses
// sequential in memory.
// TODO: swap the inner kernel for gonum/blas SGEMM once the dense
// head dominates profiles.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: rank-%d @ rank-%d operands, want matrices", len(aShape), len(bShape)))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	if bShape[0] != k {
		panic(fmt.Sprintf("matmul: [%d,%d] @ [%d,%d], inner dims disagree", m, k, bShape[0], n))
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n}, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		matmulRows(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, cpu.par)
	case tensor.Float64:
		matmulRows(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n, cpu.par)
	case tensor.Int32:
		matmulRows(result.AsInt32(), a.AsInt32(), b.AsInt32(), m, k, n, cpu.par)
	case tensor.Int64:
		matmulRows(result.AsInt64(), a.AsInt64(), b.AsInt64(), m, k, n, cpu.par)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

// matmulRows computes C[i,:] = A[i,:] @ B for each row i.
//
// The accumulation order (k outer, j inner) turns the inner loop into
// a scaled row addition: C[i,:] += A[i,k] * B[k,:]. Both slices walk
// forward, so the compiler can keep the loop free of bounds checks.
func matmulRows[T tensor.DType](c, a, b []T, m, k, n int, par parallel.Config) {
	parallel.For(m, func(i int) {
		row := c[i*n : (i+1)*n]
		for j := range row {
			row[j] = 0
		}
		for kIdx := 0; kIdx < k; kIdx++ {
			av := a[i*k+kIdx]
			brow := b[kIdx*n : (kIdx+1)*n]
			for j, bv := range brow {
				row[j] += av * bv
			}
		}
	}, par)
}
