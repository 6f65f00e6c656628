//go:build windows

package webgpu

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// runConv2D convolves a channels-last image on GPU. One invocation owns one
// output cell of one output channel; the kernel layout [K_h, K_w, C_in, C_out]
// matches the CPU backend, so weights upload without rearrangement.
func (b *Backend) runConv2D(input, kernel, bias *tensor.RawTensor, cfg tensor.ConvConfig) (*tensor.RawTensor, error) {
	if err := wantFloat32(input, kernel); err != nil {
		return nil, err
	}

	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 3 {
		return nil, fmt.Errorf("input must be 3D [H,W,C], got %dD", len(inputShape))
	}
	if len(kernelShape) != 4 {
		return nil, fmt.Errorf("kernel must be 4D [K_h,K_w,C_in,C_out], got %dD", len(kernelShape))
	}

	h, w, cIn := inputShape[0], inputShape[1], inputShape[2]
	kh, kw, cOut := kernelShape[0], kernelShape[1], kernelShape[3]

	if cIn != kernelShape[2] {
		return nil, fmt.Errorf("input channels %d != kernel channels %d", cIn, kernelShape[2])
	}
	if bias != nil {
		if err := wantFloat32(bias); err != nil {
			return nil, err
		}
		biasShape := bias.Shape()
		if len(biasShape) != 1 || biasShape[0] != cOut {
			return nil, fmt.Errorf("bias must be 1D [C_out=%d], got %v", cOut, biasShape)
		}
	}

	hOut, wOut, pad := cfg.Geometry(h, w, kh, kw)
	if hOut <= 0 || wOut <= 0 {
		return nil, fmt.Errorf("kernel (%d, %d) with stride (%d, %d) exceeds input (%d, %d)",
			kh, kw, cfg.Stride[0], cfg.Stride[1], h, w)
	}

	// The shader always reads a bias term; a missing bias binds as zeros.
	biasData := make([]byte, cOut*4)
	if bias != nil {
		biasData = bias.Data()
	}

	out, err := b.runKernel(kernelRun{
		name:   "conv2d",
		code:   conv2dShader,
		inputs: [][]byte{input.Data(), kernel.Data(), biasData},
		params: packParams(h, w, cIn, cOut, kh, kw,
			cfg.Stride[0], cfg.Stride[1], pad.RowBefore, pad.ColBefore, hOut, wOut),
		out:  uint64(hOut*wOut*cOut) * 4, //nolint:gosec // G115: output size is non-negative
		grid: gridSurface(hOut, wOut, cOut),
	})
	if err != nil {
		return nil, err
	}
	return rawFromBytes(tensor.Shape{hOut, wOut, cOut}, out)
}

// runPool2D reduces spatial windows of a channels-last feature map on GPU.
// Max windows skip padding taps so they never win a comparison; average
// windows divide by the number of real input cells they cover, matching
// the CPU backend.
func (b *Backend) runPool2D(input *tensor.RawTensor, cfg tensor.PoolConfig) (*tensor.RawTensor, error) {
	if err := wantFloat32(input); err != nil {
		return nil, err
	}

	inputShape := input.Shape()
	if len(inputShape) != 3 {
		return nil, fmt.Errorf("input must be 3D [H,W,C], got %dD", len(inputShape))
	}

	h, w, c := inputShape[0], inputShape[1], inputShape[2]

	hOut, wOut, pad := cfg.Geometry(h, w)
	if hOut <= 0 || wOut <= 0 {
		return nil, fmt.Errorf("window (%d, %d) with stride (%d, %d) exceeds input (%d, %d)",
			cfg.Window[0], cfg.Window[1], cfg.Stride[0], cfg.Stride[1], h, w)
	}

	name, code := "max_pool2d", maxPool2dShader
	if cfg.Reducer == tensor.ReduceAverage {
		name, code = "avg_pool2d", avgPool2dShader
	}

	out, err := b.runKernel(kernelRun{
		name:   name,
		code:   code,
		inputs: [][]byte{input.Data()},
		params: packParams(h, w, c, cfg.Window[0], cfg.Window[1],
			cfg.Stride[0], cfg.Stride[1], pad.RowBefore, pad.ColBefore, hOut, wOut),
		out:  uint64(hOut*wOut*c) * 4, //nolint:gosec // G115: output size is non-negative
		grid: gridSurface(hOut, wOut, c),
	})
	if err != nil {
		return nil, err
	}
	return rawFromBytes(tensor.Shape{hOut, wOut, c}, out)
}
