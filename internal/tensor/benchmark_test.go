package tensor

import (
	"fmt"
	"testing"
)

func BenchmarkCreation(b *testing.B) {
	backend := NewMockBackend()
	shape := Shape{128, 64}

	b.Run("Zeros", func(b *testing.B) {
		for b.Loop() {
			_ = Zeros[float32](shape, backend)
		}
	})

	b.Run("Ones", func(b *testing.B) {
		for b.Loop() {
			_ = Ones[float32](shape, backend)
		}
	})

	b.Run("Randn", func(b *testing.B) {
		for b.Loop() {
			_ = Randn[float32](shape, backend)
		}
	})
}

func BenchmarkShapeOps(b *testing.B) {
	shape := Shape{32, 16, 8}
	other := Shape{32, 1, 8}

	b.Run("NumElements", func(b *testing.B) {
		for b.Loop() {
			_ = shape.NumElements()
		}
	})

	b.Run("ComputeStrides", func(b *testing.B) {
		for b.Loop() {
			_ = shape.ComputeStrides()
		}
	})

	b.Run("BroadcastShapes", func(b *testing.B) {
		for b.Loop() {
			_, _, _ = BroadcastShapes(shape, other)
		}
	})

	b.Run("Validate", func(b *testing.B) {
		for b.Loop() {
			_ = shape.Validate()
		}
	})
}

func BenchmarkElementwise(b *testing.B) {
	backend := NewMockBackend()

	for _, size := range []int{256, 4096, 65536} {
		x := Ones[float32](Shape{size}, backend)
		y := Ones[float32](Shape{size}, backend)

		b.Run(fmt.Sprintf("Add-%d", size), func(b *testing.B) {
			for b.Loop() {
				_ = x.Add(y)
			}
		})

		b.Run(fmt.Sprintf("Mul-%d", size), func(b *testing.B) {
			for b.Loop() {
				_ = x.Mul(y)
			}
		})
	}
}

func BenchmarkMatMul(b *testing.B) {
	backend := NewMockBackend()

	for _, size := range []int{16, 64, 128} {
		x := Randn[float32](Shape{size, size}, backend)
		y := Randn[float32](Shape{size, size}, backend)

		b.Run(fmt.Sprintf("%dx%d", size, size), func(b *testing.B) {
			for b.Loop() {
				_ = x.MatMul(y)
			}
		})
	}
}

func BenchmarkReshapeTranspose(b *testing.B) {
	backend := NewMockBackend()
	tensor := Randn[float32](Shape{64, 128}, backend)

	b.Run("Reshape", func(b *testing.B) {
		for b.Loop() {
			_ = tensor.Reshape(128, 64)
		}
	})

	b.Run("Transpose", func(b *testing.B) {
		for b.Loop() {
			_ = tensor.T()
		}
	})
}

func BenchmarkPool2D(b *testing.B) {
	backend := NewMockBackend()
	input := Randn[float32](Shape{64, 64, 8}, backend)

	configs := []struct {
		name string
		cfg  PoolConfig
	}{
		{"Max-Valid", PoolConfig{Window: [2]int{2, 2}, Reducer: ReduceMax}},
		{"Avg-Same", PoolConfig{Window: [2]int{3, 3}, Stride: [2]int{2, 2}, Padding: PaddingSame, Reducer: ReduceAverage}},
	}

	for _, tc := range configs {
		b.Run(tc.name, func(b *testing.B) {
			for b.Loop() {
				_ = input.Pool2D(tc.cfg)
			}
		})
	}
}

func BenchmarkOutputDims(b *testing.B) {
	for b.Loop() {
		_, _, _ = OutputDims(224, 224, 3, 3, 2, 2, PaddingSame)
	}
}

func BenchmarkAccess(b *testing.B) {
	backend := NewMockBackend()
	tensor := Randn[float32](Shape{64, 64}, backend)

	b.Run("At", func(b *testing.B) {
		for b.Loop() {
			_ = tensor.At(31, 17)
		}
	})

	b.Run("Set", func(b *testing.B) {
		for b.Loop() {
			tensor.Set(1.0, 31, 17)
		}
	})

	b.Run("Data", func(b *testing.B) {
		for b.Loop() {
			_ = tensor.Data()
		}
	})
}
