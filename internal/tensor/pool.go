package tensor

import (
	"fmt"
	"math"
)

// PaddingMode selects how window positions near the border are handled.
type PaddingMode int

// Supported padding modes.
const (
	// PaddingValid places windows only where they fit entirely inside the
	// input, so the output shrinks relative to the input.
	PaddingValid PaddingMode = iota
	// PaddingSame adds synthetic border cells so the output spatial size
	// tracks ceil(input/stride).
	PaddingSame
)

// String returns the configuration-surface name of the padding mode.
func (p PaddingMode) String() string {
	switch p {
	case PaddingValid:
		return "valid"
	case PaddingSame:
		return "same"
	default:
		return "unknown"
	}
}

// ParsePaddingMode maps a configuration string to a PaddingMode.
func ParsePaddingMode(s string) (PaddingMode, error) {
	switch s {
	case "valid", "":
		return PaddingValid, nil
	case "same":
		return PaddingSame, nil
	default:
		return PaddingValid, fmt.Errorf("unknown padding mode %q (want \"valid\" or \"same\")", s)
	}
}

// ChannelOrder says which axis of a 3-D feature tensor holds channels.
type ChannelOrder int

// Supported channel orders.
const (
	// ChannelsLast is (rows, cols, channels), the native layout of every
	// kernel in this library.
	ChannelsLast ChannelOrder = iota
	// ChannelsFirst is (channels, rows, cols); inputs are transposed to
	// channels-last before the kernel runs and back after.
	ChannelsFirst
)

// String returns the configuration-surface name of the channel order.
func (c ChannelOrder) String() string {
	switch c {
	case ChannelsLast:
		return "channelsLast"
	case ChannelsFirst:
		return "channelsFirst"
	default:
		return "unknown"
	}
}

// ParseChannelOrder maps a configuration string to a ChannelOrder.
// Both the camelCase and the snake_case spellings are accepted since model
// configs exported from Keras use the latter.
func ParseChannelOrder(s string) (ChannelOrder, error) {
	switch s {
	case "channelsLast", "channels_last", "":
		return ChannelsLast, nil
	case "channelsFirst", "channels_first":
		return ChannelsFirst, nil
	default:
		return ChannelsLast, fmt.Errorf("unknown channel order %q (want \"channelsLast\" or \"channelsFirst\")", s)
	}
}

// Reducer selects the per-window reduction of a pooling operation.
type Reducer int

// Supported reducers.
const (
	ReduceMax Reducer = iota
	ReduceAverage
)

// String returns the configuration-surface name of the reducer.
func (r Reducer) String() string {
	switch r {
	case ReduceMax:
		return "max"
	case ReduceAverage:
		return "average"
	default:
		return "unknown"
	}
}

// FillValue returns the padding fill for the reducer: negative infinity for
// max so synthetic cells can never win a comparison, zero for average so
// they drop out of the sum.
func (r Reducer) FillValue() float64 {
	if r == ReduceMax {
		return math.Inf(-1)
	}
	return 0
}

// PoolConfig describes one 2-D pooling operation over a 3-D feature tensor.
// It is constructed once at layer-build time and immutable afterwards.
type PoolConfig struct {
	Window  [2]int // (rows, cols), both positive
	Stride  [2]int // (rows, cols), both positive; zero value follows Window
	Padding PaddingMode
	Order   ChannelOrder
	Reducer Reducer
}

// Normalized returns a copy of the config with defaults applied: a zero
// window becomes (2, 2) and a zero stride follows the window.
func (c PoolConfig) Normalized() PoolConfig {
	if c.Window == [2]int{} {
		c.Window = [2]int{2, 2}
	}
	if c.Stride == [2]int{} {
		c.Stride = c.Window
	}
	return c
}

// Validate checks the window and stride components are positive integers.
func (c PoolConfig) Validate() error {
	for i, k := range c.Window {
		if k <= 0 {
			return fmt.Errorf("pool window[%d] = %d (must be > 0)", i, k)
		}
	}
	for i, s := range c.Stride {
		if s <= 0 {
			return fmt.Errorf("pool stride[%d] = %d (must be > 0)", i, s)
		}
	}
	return nil
}

// Geometry derives the output spatial size and border padding for an input
// with spatial dimensions (h, w).
func (c PoolConfig) Geometry(h, w int) (outH, outW int, pad PaddingSpec) {
	return OutputDims(h, w, c.Window[0], c.Window[1], c.Stride[0], c.Stride[1], c.Padding)
}

// ConvConfig describes one 2-D convolution over a 3-D feature tensor.
// The kernel spatial size comes from the kernel tensor itself.
type ConvConfig struct {
	Stride  [2]int // (rows, cols), both positive; zero value means (1, 1)
	Padding PaddingMode
	Order   ChannelOrder
}

// Normalized returns a copy of the config with a zero stride replaced by
// (1, 1).
func (c ConvConfig) Normalized() ConvConfig {
	if c.Stride == [2]int{} {
		c.Stride = [2]int{1, 1}
	}
	return c
}

// Geometry derives the output spatial size and border padding for an input
// with spatial dimensions (h, w) and a kernel with spatial dimensions
// (kh, kw).
func (c ConvConfig) Geometry(h, w, kh, kw int) (outH, outW int, pad PaddingSpec) {
	return OutputDims(h, w, kh, kw, c.Stride[0], c.Stride[1], c.Padding)
}

// PaddingSpec is the resolved border padding for one kernel invocation.
// All fields are >= 0. It is derived from the input shape and the config,
// and shared by the padding step and the reduction step (which needs to
// know which window cells are synthetic).
type PaddingSpec struct {
	RowBefore, RowAfter int
	ColBefore, ColAfter int
}

// Zero reports whether no padding is required.
func (p PaddingSpec) Zero() bool {
	return p == PaddingSpec{}
}

// OutputDims derives the output spatial dimensions and border padding for a
// windowed 2-D operation.
//
// Valid mode: outH = floor((h - kh + sh) / sh), no padding.
// Same mode:  outH = floor((h + sh - 1) / sh); the total padding per axis is
// max(0, (outH-1)*sh + kh - h), split with the extra cell on the trailing
// side when the total is odd. Downstream weight compatibility depends on
// that exact split, so it must not be rebalanced.
//
// The derivation is pure and total: degenerate geometry (window larger than
// the padded input) yields a non-positive output dimension for the caller
// to reject, never an error here.
func OutputDims(h, w, kh, kw, sh, sw int, mode PaddingMode) (outH, outW int, pad PaddingSpec) {
	if mode == PaddingSame {
		outH = floorDiv(h+sh-1, sh)
		outW = floorDiv(w+sw-1, sw)
		padH := max(0, (outH-1)*sh+kh-h)
		padW := max(0, (outW-1)*sw+kw-w)
		pad.RowBefore = padH / 2
		pad.RowAfter = padH - pad.RowBefore
		pad.ColBefore = padW / 2
		pad.ColAfter = padW - pad.ColBefore
		return outH, outW, pad
	}
	outH = floorDiv(h-kh+sh, sh)
	outW = floorDiv(w-kw+sw, sw)
	return outH, outW, pad
}

// floorDiv divides with flooring instead of Go's truncation toward zero.
// The distinction only matters for negative numerators, which occur when
// the window exceeds the input extent.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// PadSpatial materializes border padding around a channels-last (rows,
// cols, channels) tensor. The result is a new tensor of shape
// (rows + RowBefore + RowAfter, cols + ColBefore + ColAfter, channels)
// filled with the given value everywhere outside the copied interior. The
// input is not modified. A zero spec returns a cheap clone.
func PadSpatial(t *RawTensor, pad PaddingSpec, fill float64) (*RawTensor, error) {
	shape := t.Shape()
	if shape.Rank() != 3 {
		return nil, fmt.Errorf("pad spatial: expected 3D (rows, cols, channels), got %dD shape %v", shape.Rank(), shape)
	}
	if pad.Zero() {
		return t.Clone(), nil
	}
	if pad.RowBefore < 0 || pad.RowAfter < 0 || pad.ColBefore < 0 || pad.ColAfter < 0 {
		return nil, fmt.Errorf("pad spatial: negative padding %+v", pad)
	}

	h, w, c := shape[0], shape[1], shape[2]
	padded := Shape{h + pad.RowBefore + pad.RowAfter, w + pad.ColBefore + pad.ColAfter, c}
	out, err := NewRaw(padded, t.DType(), t.Device())
	if err != nil {
		return nil, fmt.Errorf("pad spatial: %w", err)
	}

	switch t.DType() {
	case Float32:
		padSpatialFloat32(t.AsFloat32(), out.AsFloat32(), h, w, c, padded[1], pad, float32(fill))
	case Float64:
		padSpatialFloat64(t.AsFloat64(), out.AsFloat64(), h, w, c, padded[1], pad, fill)
	default:
		return nil, fmt.Errorf("pad spatial: unsupported dtype %s", t.DType())
	}
	return out, nil
}

func padSpatialFloat32(src, dst []float32, h, w, c, paddedW int, pad PaddingSpec, fill float32) {
	for i := range dst {
		dst[i] = fill
	}
	rowLen := w * c
	for i := 0; i < h; i++ {
		srcOff := i * rowLen
		dstOff := ((i+pad.RowBefore)*paddedW + pad.ColBefore) * c
		copy(dst[dstOff:dstOff+rowLen], src[srcOff:srcOff+rowLen])
	}
}

func padSpatialFloat64(src, dst []float64, h, w, c, paddedW int, pad PaddingSpec, fill float64) {
	for i := range dst {
		dst[i] = fill
	}
	rowLen := w * c
	for i := 0; i < h; i++ {
		srcOff := i * rowLen
		dstOff := ((i+pad.RowBefore)*paddedW + pad.ColBefore) * c
		copy(dst[dstOff:dstOff+rowLen], src[srcOff:srcOff+rowLen])
	}
}
