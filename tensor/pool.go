// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/lattice-ml/lattice/internal/tensor"

// PaddingMode selects how window positions near the border are handled.
type PaddingMode = tensor.PaddingMode

// Padding mode constants.
const (
	// PaddingValid places windows only where they fit entirely inside the
	// input, so the output shrinks relative to the input.
	PaddingValid PaddingMode = tensor.PaddingValid
	// PaddingSame adds synthetic border cells so the output spatial size
	// tracks ceil(input/stride).
	PaddingSame PaddingMode = tensor.PaddingSame
)

// ParsePaddingMode maps a configuration string ("valid", "same") to a PaddingMode.
func ParsePaddingMode(s string) (PaddingMode, error) {
	return tensor.ParsePaddingMode(s)
}

// ChannelOrder says which axis of a 3D feature tensor holds channels.
type ChannelOrder = tensor.ChannelOrder

// Channel order constants.
const (
	// ChannelsLast is (rows, cols, channels).
	ChannelsLast ChannelOrder = tensor.ChannelsLast
	// ChannelsFirst is (channels, rows, cols).
	ChannelsFirst ChannelOrder = tensor.ChannelsFirst
)

// ParseChannelOrder maps a configuration string ("channelsLast",
// "channels_last", ...) to a ChannelOrder.
func ParseChannelOrder(s string) (ChannelOrder, error) {
	return tensor.ParseChannelOrder(s)
}

// Reducer selects the per-window reduction of a pooling operation.
type Reducer = tensor.Reducer

// Reducer constants.
const (
	ReduceMax     Reducer = tensor.ReduceMax
	ReduceAverage Reducer = tensor.ReduceAverage
)

// PoolConfig describes one 2D pooling operation over a 3D feature tensor.
//
// Example:
//
//	cfg := tensor.PoolConfig{
//	    Window:  [2]int{2, 2},
//	    Padding: tensor.PaddingSame,
//	    Reducer: tensor.ReduceMax,
//	}
//	out := backend.Pool2D(input, cfg)
type PoolConfig = tensor.PoolConfig

// ConvConfig describes one 2D convolution over a 3D feature tensor.
// The kernel spatial size comes from the kernel tensor itself.
type ConvConfig = tensor.ConvConfig

// PaddingSpec is the resolved border padding for one kernel invocation,
// as derived by OutputDims.
type PaddingSpec = tensor.PaddingSpec

// OutputDims derives the output spatial dimensions and border padding for a
// windowed 2D operation (pooling or convolution).
//
// Valid mode: outH = floor((h - kh + sh) / sh), no padding.
// Same mode:  outH = ceil(h / sh); total padding per axis is
// max(0, (outH-1)*sh + kh - h), split with the extra cell on the trailing side.
//
// Degenerate geometry (window larger than the padded input) yields a
// non-positive output dimension for the caller to reject.
func OutputDims(h, w, kh, kw, sh, sw int, mode PaddingMode) (outH, outW int, pad PaddingSpec) {
	return tensor.OutputDims(h, w, kh, kw, sh, sw, mode)
}
