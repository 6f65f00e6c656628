package cpu

import (
	"fmt"
	"math"

	"github.com/lattice-ml/lattice/internal/parallel"
	"github.com/lattice-ml/lattice/internal/tensor"
)

// Pool2D reduces spatial windows of a channels-last feature map per channel.
//
// Input shape: [H, W, C] (channels-first inputs are transposed around the
// kernel per cfg.Order)
// Output shape: [H_out, W_out, C]
//
// Algorithm: pad-then-reduce.
//  1. Resolve the output size and border padding from the config.
//  2. Materialize the padding with the reducer's fill value: -Inf for max,
//     so synthetic cells never win a comparison; 0 for average, so they
//     drop out of the sum.
//  3. Slide the window over the padded input without bounds checks.
//
// Average windows divide by the number of original input cells they cover,
// not the full window area, so border outputs are true means of the data
// that exists there. A same-mode window always covers at least one original
// cell, so that divisor is never zero.
func (cpu *CPUBackend) Pool2D(input *tensor.RawTensor, cfg tensor.PoolConfig) *tensor.RawTensor {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("pool2d: %v", err))
	}
	if cfg.Order == tensor.ChannelsFirst {
		hwc := cpu.Transpose(input, 1, 2, 0)
		last := cfg
		last.Order = tensor.ChannelsLast
		return cpu.Transpose(cpu.Pool2D(hwc, last), 2, 0, 1)
	}

	inputShape := input.Shape()
	if len(inputShape) != 3 {
		panic(fmt.Sprintf("pool2d: input must be 3D [H,W,C], got %dD", len(inputShape)))
	}

	H := inputShape[0]
	W := inputShape[1]
	C := inputShape[2]

	// Compute output dimensions and border padding
	HOut, WOut, pad := cfg.Geometry(H, W)

	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("pool2d: window (%d, %d) with stride (%d, %d) exceeds input (%d, %d)",
			cfg.Window[0], cfg.Window[1], cfg.Stride[0], cfg.Stride[1], H, W))
	}

	padded, err := tensor.PadSpatial(input, pad, cfg.Reducer.FillValue())
	if err != nil {
		panic(fmt.Sprintf("pool2d: %v", err))
	}
	paddedW := padded.Shape()[1]

	// Create output tensor [H_out, W_out, C]
	output, err := tensor.NewRaw(tensor.Shape{HOut, WOut, C}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("pool2d: %v", err))
	}

	kh, kw := cfg.Window[0], cfg.Window[1]
	sh, sw := cfg.Stride[0], cfg.Stride[1]

	switch input.DType() {
	case tensor.Float32:
		if cfg.Reducer == tensor.ReduceAverage {
			avgPool2D(output.AsFloat32(), padded.AsFloat32(), H, W, paddedW, C, kh, kw, sh, sw, HOut, WOut, pad, cpu.par)
		} else {
			maxPool2D(output.AsFloat32(), padded.AsFloat32(), paddedW, C, kh, kw, sh, sw, HOut, WOut, cpu.par)
		}
	case tensor.Float64:
		if cfg.Reducer == tensor.ReduceAverage {
			avgPool2D(output.AsFloat64(), padded.AsFloat64(), H, W, paddedW, C, kh, kw, sh, sw, HOut, WOut, pad, cpu.par)
		} else {
			maxPool2D(output.AsFloat64(), padded.AsFloat64(), paddedW, C, kh, kw, sh, sw, HOut, WOut, cpu.par)
		}
	default:
		panic(fmt.Sprintf("pool2d: unsupported dtype %s", input.DType()))
	}

	return output
}

// maxPool2D takes the maximum of each window. The source is already padded
// with -Inf, so no bounds or origin checks are needed. Output cells are
// independent; fanning out over (row, col) cells rather than rows keeps
// small feature maps above the parallel threshold.
func maxPool2D[T floatDType](dst, src []T, paddedW, c, kh, kw, sh, sw, outH, outW int, par parallel.Config) {
	negInf := T(math.Inf(-1))
	parallel.ForBatch(outH, outW, func(oy, ox int) {
		rowStart := oy * sh
		colStart := ox * sw
		for ch := 0; ch < c; ch++ {
			best := negInf
			for ky := 0; ky < kh; ky++ {
				rowBase := ((rowStart+ky)*paddedW+colStart)*c + ch
				for kx := 0; kx < kw; kx++ {
					if v := src[rowBase+kx*c]; v > best {
						best = v
					}
				}
			}
			dst[(oy*outW+ox)*c+ch] = best
		}
	}, par)
}

// avgPool2D averages each window. The source is padded with zeros, so
// synthetic cells add nothing to the sum; the divisor counts only the
// window cells that overlap the original input.
func avgPool2D[T floatDType](dst, src []T, h, w, paddedW, c, kh, kw, sh, sw, outH, outW int, pad tensor.PaddingSpec, par parallel.Config) {
	parallel.ForBatch(outH, outW, func(oy, ox int) {
		rowStart := oy * sh
		colStart := ox * sw
		effRows := min(rowStart+kh, pad.RowBefore+h) - max(rowStart, pad.RowBefore)
		effCols := min(colStart+kw, pad.ColBefore+w) - max(colStart, pad.ColBefore)
		count := T(effRows * effCols)
		for ch := 0; ch < c; ch++ {
			var sum T
			for ky := 0; ky < kh; ky++ {
				rowBase := ((rowStart+ky)*paddedW+colStart)*c + ch
				for kx := 0; kx < kw; kx++ {
					sum += src[rowBase+kx*c]
				}
			}
			dst[(oy*outW+ox)*c+ch] = sum / count
		}
	}, par)
}
