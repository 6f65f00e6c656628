package nn

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// PoolingConfig is the configuration surface of the 2-D pooling layers.
// The field vocabulary follows the Keras layer config, so decoded model
// JSON maps onto it directly.
type PoolingConfig struct {
	Name       string `mapstructure:"name"`
	PoolSize   [2]int `mapstructure:"pool_size"`   // window (rows, cols); zero value means (2, 2)
	Strides    [2]int `mapstructure:"strides"`     // zero value follows PoolSize
	Padding    string `mapstructure:"padding"`     // "valid" (default) or "same"
	DataFormat string `mapstructure:"data_format"` // "channels_last" (default) or "channels_first"
}

// Pooling2D reduces the two spatial axes of a 3-D feature tensor with a
// sliding-window max or average.
//
// Input shape:  (rows, cols, channels), or (channels, rows, cols) with
// the channels-first data format.
// Output shape: spatial dims follow the padding mode (valid shrinks,
// same tracks ceil(input/stride)); the channel count is preserved.
//
// Average windows that overlap same-mode padding divide by the number
// of real input cells they cover, never by the full window area, so
// border means are not diluted by synthetic zeros.
//
// Pooling has no learned parameters and implements only Layer.
//
// Example:
//
//	pool, err := nn.NewMaxPooling2D[*cpu.CPUBackend](nn.PoolingConfig{
//	    PoolSize: [2]int{2, 2},
//	})
//	// ...
//	out, err := pool.Call(input) // (28, 28, 8) -> (14, 14, 8)
type Pooling2D[B tensor.Backend] struct {
	name string
	cfg  tensor.PoolConfig
}

// NewMaxPooling2D builds a max-pooling layer from cfg.
func NewMaxPooling2D[B tensor.Backend](cfg PoolingConfig) (*Pooling2D[B], error) {
	return newPooling2D[B](cfg, tensor.ReduceMax, "max_pooling2d")
}

// NewAveragePooling2D builds an average-pooling layer from cfg.
func NewAveragePooling2D[B tensor.Backend](cfg PoolingConfig) (*Pooling2D[B], error) {
	return newPooling2D[B](cfg, tensor.ReduceAverage, "average_pooling2d")
}

func newPooling2D[B tensor.Backend](cfg PoolingConfig, r tensor.Reducer, defaultName string) (*Pooling2D[B], error) {
	padding, err := tensor.ParsePaddingMode(cfg.Padding)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", defaultName, err, ErrInvalidConfiguration)
	}
	order, err := tensor.ParseChannelOrder(cfg.DataFormat)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", defaultName, err, ErrInvalidConfiguration)
	}

	pc := tensor.PoolConfig{
		Window:  cfg.PoolSize,
		Stride:  cfg.Strides,
		Padding: padding,
		Order:   order,
		Reducer: r,
	}.Normalized()
	if err := pc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", defaultName, err, ErrInvalidConfiguration)
	}

	name := cfg.Name
	if name == "" {
		name = defaultName
	}
	return &Pooling2D[B]{name: name, cfg: pc}, nil
}

// Call pools the input.
//
// The input must be a 3-D feature tensor in the configured data format.
// Geometry the layer cannot pool — a valid-mode window larger than the
// input — is rejected with a *DimensionError before the kernel runs.
func (p *Pooling2D[B]) Call(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	switch p.cfg.Reducer {
	case tensor.ReduceMax, tensor.ReduceAverage:
	default:
		return nil, fmt.Errorf("%s: unsupported reducer %d: %w", p.name, int(p.cfg.Reducer), ErrInvalidConfiguration)
	}

	shape := input.Shape()
	if shape.Rank() != 3 {
		return nil, dimErrorf(p.name, "expected a 3D feature tensor, got shape %v", shape)
	}
	h, w := shape[0], shape[1]
	if p.cfg.Order == tensor.ChannelsFirst {
		h, w = shape[1], shape[2]
	}
	outH, outW, _ := p.cfg.Geometry(h, w)
	if outH <= 0 || outW <= 0 {
		return nil, dimErrorf(p.name, "window (%d, %d) with stride (%d, %d) does not fit a %dx%d input",
			p.cfg.Window[0], p.cfg.Window[1], p.cfg.Stride[0], p.cfg.Stride[1], h, w)
	}

	return input.Pool2D(p.cfg), nil
}

// Name returns the layer's instance name.
func (p *Pooling2D[B]) Name() string {
	return p.name
}

// Config returns the resolved pooling configuration.
func (p *Pooling2D[B]) Config() tensor.PoolConfig {
	return p.cfg
}

// OutputDims reports the output spatial size for an input of spatial
// size (h, w).
func (p *Pooling2D[B]) OutputDims(h, w int) (outH, outW int) {
	outH, outW, _ = p.cfg.Geometry(h, w)
	return outH, outW
}

// String renders the layer in Keras summary style.
func (p *Pooling2D[B]) String() string {
	return fmt.Sprintf("Pooling2D(reducer=%s, pool_size=(%d, %d), strides=(%d, %d), padding=%s)",
		p.cfg.Reducer, p.cfg.Window[0], p.cfg.Window[1], p.cfg.Stride[0], p.cfg.Stride[1], p.cfg.Padding)
}
