// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/lattice-ml/lattice/internal/nn"
	"github.com/lattice-ml/lattice/internal/tensor"
)

// Layer is the uniform interface every inference layer exposes.
//
// Call consumes its input and returns a new output tensor; layers hold
// no per-call state, so concurrent calls on distinct tensors are safe.
type Layer[B tensor.Backend] = nn.Layer[B]

// WeightBearer is the optional capability of layers with learned
// parameters. The model engine discovers it with a type assertion.
type WeightBearer[B tensor.Backend] = nn.WeightBearer[B]

// Errors

// ErrInvalidConfiguration marks layer configuration that can never work:
// an unknown reducer, padding mode or activation name, a malformed config
// block, or weights missing at call time. Match with errors.Is.
var ErrInvalidConfiguration = nn.ErrInvalidConfiguration

// ErrDimension marks input geometry a layer cannot process, such as a
// pooling window larger than the input it is applied to. Match with errors.Is.
var ErrDimension = nn.ErrDimension

// DimensionError carries the offending geometry when a layer rejects an
// input. It unwraps to ErrDimension.
type DimensionError = nn.DimensionError

// Pooling layers

// PoolingConfig configures the 2D pooling layers. The field vocabulary
// follows the Keras layer config (pool_size, strides, padding, data_format).
type PoolingConfig = nn.PoolingConfig

// Pooling2D reduces the two spatial axes of a 3D feature tensor with a
// sliding-window max or average.
type Pooling2D[B tensor.Backend] = nn.Pooling2D[B]

// NewMaxPooling2D creates a 2D max-pooling layer.
//
// Example:
//
//	pool, err := nn.NewMaxPooling2D[*cpu.Backend](nn.PoolingConfig{
//	    PoolSize: [2]int{2, 2},
//	})
func NewMaxPooling2D[B tensor.Backend](cfg PoolingConfig) (*Pooling2D[B], error) {
	return nn.NewMaxPooling2D[B](cfg)
}

// NewAveragePooling2D creates a 2D average-pooling layer.
//
// Average windows that overlap same-mode padding divide by the number of
// real input cells they cover, never by the full window area.
func NewAveragePooling2D[B tensor.Backend](cfg PoolingConfig) (*Pooling2D[B], error) {
	return nn.NewAveragePooling2D[B](cfg)
}

// GlobalPoolingConfig configures the global pooling layers.
type GlobalPoolingConfig = nn.GlobalPoolingConfig

// GlobalPooling2D collapses the full spatial extent of a feature tensor
// into a channel vector: (rows, cols, channels) -> (channels).
type GlobalPooling2D[B tensor.Backend] = nn.GlobalPooling2D[B]

// NewGlobalMaxPooling2D creates a global max-pooling layer.
func NewGlobalMaxPooling2D[B tensor.Backend](cfg GlobalPoolingConfig) (*GlobalPooling2D[B], error) {
	return nn.NewGlobalMaxPooling2D[B](cfg)
}

// NewGlobalAveragePooling2D creates a global average-pooling layer.
func NewGlobalAveragePooling2D[B tensor.Backend](cfg GlobalPoolingConfig) (*GlobalPooling2D[B], error) {
	return nn.NewGlobalAveragePooling2D[B](cfg)
}

// Weighted layers

// Conv2DConfig configures the Conv2D layer. InChannels is only needed
// when the layer is built with freshly initialized weights.
type Conv2DConfig = nn.Conv2DConfig

// Conv2D is a 2D convolution layer with an optional fused activation.
//
// Kernel shape: (kh, kw, inChannels, filters). Bias shape: (filters).
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a 2D convolution layer.
//
// Example:
//
//	conv, err := nn.NewConv2D(nn.Conv2DConfig{
//	    Filters:    8,
//	    KernelSize: [2]int{3, 3},
//	    Padding:    "same",
//	    Activation: "relu",
//	    InChannels: 1,
//	}, backend)
func NewConv2D[B tensor.Backend](cfg Conv2DConfig, backend B) (*Conv2D[B], error) {
	return nn.NewConv2D(cfg, backend)
}

// DenseConfig configures the Dense layer. InFeatures is only needed when
// the layer is built with freshly initialized weights.
type DenseConfig = nn.DenseConfig

// Dense is a fully connected layer with an optional fused activation.
//
// The kernel is stored (inFeatures, units), so exported weights multiply
// without a transpose.
type Dense[B tensor.Backend] = nn.Dense[B]

// NewDense creates a fully connected layer.
//
// Example:
//
//	head, err := nn.NewDense(nn.DenseConfig{
//	    Units:      10,
//	    Activation: "softmax",
//	    InFeatures: 64,
//	}, backend)
func NewDense[B tensor.Backend](cfg DenseConfig, backend B) (*Dense[B], error) {
	return nn.NewDense(cfg, backend)
}

// Shape and activation layers

// ActivationConfig configures an Activation layer.
type ActivationConfig = nn.ActivationConfig

// Activation applies a named element-wise nonlinearity
// ("relu", "sigmoid", "tanh", "softmax", "linear").
type Activation[B tensor.Backend] = nn.Activation[B]

// NewActivation creates an Activation layer. An unknown activation name
// is an ErrInvalidConfiguration.
func NewActivation[B tensor.Backend](cfg ActivationConfig) (*Activation[B], error) {
	return nn.NewActivation[B](cfg)
}

// Flatten reshapes any input to a rank-1 tensor in row-major order.
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a Flatten layer. An empty name defaults to "flatten".
func NewFlatten[B tensor.Backend](name string) *Flatten[B] {
	return nn.NewFlatten[B](name)
}

// Weight initialization

// Xavier draws weights from the Glorot uniform distribution, scaled by the
// layer fan-in and fan-out.
//
// Example:
//
//	backend := cpu.New()
//	kernel := nn.Xavier(784, 128, tensor.Shape{784, 128}, backend)
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// Zeros returns a zero-filled float32 tensor, the usual starting bias.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones returns a one-filled float32 tensor.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}

// Randn fills a float32 tensor with standard normal draws.
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Randn(shape, backend)
}
