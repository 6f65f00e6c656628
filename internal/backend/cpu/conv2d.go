package cpu

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/parallel"
	"github.com/lattice-ml/lattice/internal/tensor"
)

// Conv2D performs 2D convolution over a channels-last feature map using the
// im2col algorithm.
//
// Input shape: [H, W, C_in] (channels-first inputs are transposed around the
// kernel per cfg.Order)
// Kernel shape: [K_h, K_w, C_in, C_out]
// Bias shape: [C_out] or nil
// Output shape: [H_out, W_out, C_out]
//
// The kernel window is lowered to a patch matrix (im2col), multiplied
// against the flattened kernel, and the bias is added row-wise.
//
// Because the kernel is stored [K_h, K_w, C_in, C_out], the patch matrix
// [H_out*W_out, K_h*K_w*C_in] times the kernel matrix [K_h*K_w*C_in, C_out]
// lands directly in the channels-last output layout; no rearrangement pass
// is needed.
//
// The lowering follows Chellapilla et al., "High Performance Convolutional
// Neural Networks for Document Processing" (2006).
func (cpu *CPUBackend) Conv2D(input, kernel, bias *tensor.RawTensor, cfg tensor.ConvConfig) *tensor.RawTensor {
	cfg = cfg.Normalized()
	if cfg.Order == tensor.ChannelsFirst {
		hwc := cpu.Transpose(input, 1, 2, 0)
		last := cfg
		last.Order = tensor.ChannelsLast
		return cpu.Transpose(cpu.Conv2D(hwc, kernel, bias, last), 2, 0, 1)
	}

	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 3 {
		panic(fmt.Sprintf("conv2d: input must be 3D [H,W,C], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [K_h,K_w,C_in,C_out], got %dD", len(kernelShape)))
	}

	H := inputShape[0]     // input height
	W := inputShape[1]     // input width
	CIn := inputShape[2]   // input channels
	KH := kernelShape[0]   // kernel height
	KW := kernelShape[1]   // kernel width
	CInK := kernelShape[2] // kernel input channels (must match CIn)
	COut := kernelShape[3] // output channels

	if CIn != CInK {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", CIn, CInK))
	}
	if bias != nil {
		biasShape := bias.Shape()
		if len(biasShape) != 1 || biasShape[0] != COut {
			panic(fmt.Sprintf("conv2d: bias must be 1D [C_out=%d], got %v", COut, biasShape))
		}
	}

	// Compute output dimensions and border padding
	HOut, WOut, pad := cfg.Geometry(H, W, KH, KW)

	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("conv2d: kernel (%d, %d) with stride (%d, %d) exceeds input (%d, %d)",
			KH, KW, cfg.Stride[0], cfg.Stride[1], H, W))
	}

	// Create output tensor [H_out, W_out, C_out]
	output, err := tensor.NewRaw(tensor.Shape{HOut, WOut, COut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		var biasData []float32
		if bias != nil {
			biasData = bias.AsFloat32()
		}
		conv2dKernel(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), biasData,
			H, W, CIn, KH, KW, COut, HOut, WOut, cfg.Stride, pad, cpu.par)
	case tensor.Float64:
		var biasData []float64
		if bias != nil {
			biasData = bias.AsFloat64()
		}
		conv2dKernel(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), biasData,
			H, W, CIn, KH, KW, COut, HOut, WOut, cfg.Stride, pad, cpu.par)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

// conv2dKernel runs im2col and then multiplies the patch matrix
// [H_out*W_out, K_h*K_w*C_in] against the kernel matrix [K_h*K_w*C_in, C_out].
// The product is already [H_out, W_out, C_out] in row-major order. biasData,
// when non-nil, seeds each output row before accumulation.
func conv2dKernel[T floatDType](outputData, inputData, kernelData, biasData []T,
	H, W, CIn, KH, KW, COut, HOut, WOut int,
	stride [2]int, pad tensor.PaddingSpec, par parallel.Config,
) {
	colWidth := KH * KW * CIn
	positions := HOut * WOut
	colBuf := make([]T, positions*colWidth)
	im2col(colBuf, inputData, H, W, CIn, KH, KW, HOut, WOut, stride, pad)

	// Each output position owns one row of the patch matrix; rows are
	// independent, so the matmul parallelizes over positions.
	parallel.For(positions, func(p int) {
		out := outputData[p*COut : (p+1)*COut]
		if biasData != nil {
			copy(out, biasData)
		}
		col := colBuf[p*colWidth : (p+1)*colWidth]
		for k, v := range col {
			krow := kernelData[k*COut : (k+1)*COut]
			for oc := range krow {
				out[oc] += v * krow[oc]
			}
		}
	}, par)
}

// im2col transforms the input tensor into a patch matrix.
//
// Input: [H, W, C]
// Output: colBuf [H_out * W_out, K_h * K_w * C]
//
// Each row of colBuf corresponds to one output position; within a row taps
// run (k_h, k_w, c), matching the kernel's row-major layout. Out-of-bounds
// taps stay zero, which is exactly the zero padding the same mode adds.
func im2col[T floatDType](colBuf, inputData []T, H, W, C, KH, KW, HOut, WOut int, stride [2]int, pad tensor.PaddingSpec) {
	colWidth := KH * KW * C
	colIdx := 0 // Current row in colBuf

	for outH := 0; outH < HOut; outH++ {
		for outW := 0; outW < WOut; outW++ {
			// Top-left corner of the patch in input space
			hStart := outH*stride[0] - pad.RowBefore
			wStart := outW*stride[1] - pad.ColBefore

			bufIdx := colIdx * colWidth

			for kh := 0; kh < KH; kh++ {
				h := hStart + kh
				for kw := 0; kw < KW; kw++ {
					w := wStart + kw
					if h >= 0 && h < H && w >= 0 && w < W {
						inputIdx := (h*W + w) * C
						copy(colBuf[bufIdx:bufIdx+C], inputData[inputIdx:inputIdx+C])
					}
					bufIdx += C
				}
			}

			colIdx++
		}
	}
}
