//go:build !windows

package webgpu

import (
	"errors"

	"github.com/lattice-ml/lattice/internal/tensor"
)

var _ tensor.Backend = (*Backend)(nil)

const errUnavailable = "webgpu: not available on this platform"

// Backend is a placeholder for platforms without the native wgpu runtime.
// New always fails here; the operation methods exist only to satisfy
// tensor.Backend and panic if reached.
type Backend struct{}

// New reports that WebGPU is not wired up on this platform. Callers are
// expected to fall back to the CPU backend.
func New() (*Backend, error) {
	return nil, errors.New(errUnavailable)
}

// IsAvailable reports false: this platform has no native wgpu runtime.
func IsAvailable() bool {
	return false
}

// Release is a no-op with no GPU resources to drop.
func (b *Backend) Release() {}

// Name identifies the backend in logs and errors.
func (b *Backend) Name() string {
	return "WebGPU (unavailable)"
}

// Device reports tensor.WebGPU.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

func (b *Backend) Add(_, _ *tensor.RawTensor) *tensor.RawTensor { panic(errUnavailable) }

func (b *Backend) Sub(_, _ *tensor.RawTensor) *tensor.RawTensor { panic(errUnavailable) }

func (b *Backend) Mul(_, _ *tensor.RawTensor) *tensor.RawTensor { panic(errUnavailable) }

func (b *Backend) Div(_, _ *tensor.RawTensor) *tensor.RawTensor { panic(errUnavailable) }

func (b *Backend) AddScalar(_ *tensor.RawTensor, _ any) *tensor.RawTensor { panic(errUnavailable) }

func (b *Backend) MulScalar(_ *tensor.RawTensor, _ any) *tensor.RawTensor { panic(errUnavailable) }

func (b *Backend) MatMul(_, _ *tensor.RawTensor) *tensor.RawTensor { panic(errUnavailable) }

func (b *Backend) Conv2D(_, _, _ *tensor.RawTensor, _ tensor.ConvConfig) *tensor.RawTensor {
	panic(errUnavailable)
}

func (b *Backend) Pool2D(_ *tensor.RawTensor, _ tensor.PoolConfig) *tensor.RawTensor {
	panic(errUnavailable)
}

func (b *Backend) Reshape(_ *tensor.RawTensor, _ tensor.Shape) *tensor.RawTensor {
	panic(errUnavailable)
}

func (b *Backend) Transpose(_ *tensor.RawTensor, _ ...int) *tensor.RawTensor {
	panic(errUnavailable)
}

func (b *Backend) ReLU(_ *tensor.RawTensor) *tensor.RawTensor { panic(errUnavailable) }

func (b *Backend) Sigmoid(_ *tensor.RawTensor) *tensor.RawTensor { panic(errUnavailable) }

func (b *Backend) Tanh(_ *tensor.RawTensor) *tensor.RawTensor { panic(errUnavailable) }

func (b *Backend) Softmax(_ *tensor.RawTensor, _ int) *tensor.RawTensor { panic(errUnavailable) }

func (b *Backend) Sum(_ *tensor.RawTensor) *tensor.RawTensor { panic(errUnavailable) }

func (b *Backend) Argmax(_ *tensor.RawTensor, _ int) *tensor.RawTensor { panic(errUnavailable) }

func (b *Backend) Cast(_ *tensor.RawTensor, _ tensor.DataType) *tensor.RawTensor {
	panic(errUnavailable)
}
