package nn

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// GlobalPoolingConfig configures the global pooling layers.
type GlobalPoolingConfig struct {
	Name       string `mapstructure:"name"`
	DataFormat string `mapstructure:"data_format"`
}

// GlobalPooling2D collapses the full spatial extent of a feature tensor
// into a channel vector: (rows, cols, channels) -> (channels).
//
// Equivalent to pooling with a window covering the whole input followed
// by dropping the two singleton spatial axes. Commonly used in place of
// Flatten before the classification head.
type GlobalPooling2D[B tensor.Backend] struct {
	name    string
	order   tensor.ChannelOrder
	reducer tensor.Reducer
}

// NewGlobalMaxPooling2D builds a global max-pooling layer from cfg.
func NewGlobalMaxPooling2D[B tensor.Backend](cfg GlobalPoolingConfig) (*GlobalPooling2D[B], error) {
	return newGlobalPooling2D[B](cfg, tensor.ReduceMax, "global_max_pooling2d")
}

// NewGlobalAveragePooling2D builds a global average-pooling layer from
// cfg.
func NewGlobalAveragePooling2D[B tensor.Backend](cfg GlobalPoolingConfig) (*GlobalPooling2D[B], error) {
	return newGlobalPooling2D[B](cfg, tensor.ReduceAverage, "global_average_pooling2d")
}

func newGlobalPooling2D[B tensor.Backend](cfg GlobalPoolingConfig, r tensor.Reducer, defaultName string) (*GlobalPooling2D[B], error) {
	order, err := tensor.ParseChannelOrder(cfg.DataFormat)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", defaultName, err, ErrInvalidConfiguration)
	}
	name := cfg.Name
	if name == "" {
		name = defaultName
	}
	return &GlobalPooling2D[B]{name: name, order: order, reducer: r}, nil
}

// Call reduces each channel of the input over its whole spatial extent.
//
// Output shape: (channels).
func (g *GlobalPooling2D[B]) Call(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	shape := input.Shape()
	if shape.Rank() != 3 {
		return nil, dimErrorf(g.name, "expected a 3D feature tensor, got shape %v", shape)
	}
	h, w, c := shape[0], shape[1], shape[2]
	if g.order == tensor.ChannelsFirst {
		c, h, w = shape[0], shape[1], shape[2]
	}

	// One window position spanning the whole input; valid mode keeps
	// the divisor at the true cell count for the average reducer.
	out := input.Pool2D(tensor.PoolConfig{
		Window:  [2]int{h, w},
		Stride:  [2]int{h, w},
		Padding: tensor.PaddingValid,
		Order:   g.order,
		Reducer: g.reducer,
	})
	return out.Reshape(c), nil
}

// Name returns the layer's instance name.
func (g *GlobalPooling2D[B]) Name() string {
	return g.name
}

// String names the layer and its reducer.
func (g *GlobalPooling2D[B]) String() string {
	return fmt.Sprintf("GlobalPooling2D(reducer=%s)", g.reducer)
}
