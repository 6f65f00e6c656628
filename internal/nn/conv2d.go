package nn

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// Conv2DConfig is the configuration surface of the Conv2D layer.
//
// InChannels is only needed when the layer is built with freshly
// initialized weights; layers that receive their kernel through
// SetWeights leave it zero.
type Conv2DConfig struct {
	Name       string `mapstructure:"name"`
	Filters    int    `mapstructure:"filters"`
	KernelSize [2]int `mapstructure:"kernel_size"`
	Strides    [2]int `mapstructure:"strides"` // zero value means (1, 1)
	Padding    string `mapstructure:"padding"`
	DataFormat string `mapstructure:"data_format"`
	Activation string `mapstructure:"activation"` // fused activation; "" means linear
	UseBias    *bool  `mapstructure:"use_bias"`   // nil means true
	InChannels int    `mapstructure:"in_channels"`
}

// Conv2D is a 2-D convolution layer.
//
// Computes output = activation(input * kernel + bias) with a
// channels-last direct convolution.
//
// Input shape:  (rows, cols, inC), or (inC, rows, cols) channels-first
// Kernel shape: (kh, kw, inC, filters)
// Bias shape:   (filters)
//
// Output spatial dims follow the padding mode exactly as for pooling:
// valid shrinks the input, same tracks ceil(input/stride) with the odd
// padding cell on the trailing side.
type Conv2D[B tensor.Backend] struct {
	name       string
	filters    int
	kernelSize [2]int
	conv       tensor.ConvConfig
	activation string
	useBias    bool

	kernel *tensor.Tensor[float32, B] // (kh, kw, inC, filters)
	bias   *tensor.Tensor[float32, B] // (filters), nil when useBias is false

	backend B
}

// NewConv2D builds a convolution layer from cfg.
//
// When cfg.InChannels is set, the kernel is Xavier-initialized and the
// bias zeroed immediately; otherwise the layer starts without weights
// and SetWeights must install them before the first Call.
func NewConv2D[B tensor.Backend](cfg Conv2DConfig, backend B) (*Conv2D[B], error) {
	if cfg.Filters <= 0 {
		return nil, fmt.Errorf("conv2d: filters = %d (must be > 0): %w", cfg.Filters, ErrInvalidConfiguration)
	}
	if cfg.KernelSize[0] <= 0 || cfg.KernelSize[1] <= 0 {
		return nil, fmt.Errorf("conv2d: kernel size (%d, %d) (must be > 0): %w",
			cfg.KernelSize[0], cfg.KernelSize[1], ErrInvalidConfiguration)
	}
	padding, err := tensor.ParsePaddingMode(cfg.Padding)
	if err != nil {
		return nil, fmt.Errorf("conv2d: %v: %w", err, ErrInvalidConfiguration)
	}
	order, err := tensor.ParseChannelOrder(cfg.DataFormat)
	if err != nil {
		return nil, fmt.Errorf("conv2d: %v: %w", err, ErrInvalidConfiguration)
	}
	if !activationNames[cfg.Activation] {
		return nil, fmt.Errorf("conv2d: unknown activation %q: %w", cfg.Activation, ErrInvalidConfiguration)
	}

	conv := tensor.ConvConfig{Stride: cfg.Strides, Padding: padding, Order: order}.Normalized()
	if conv.Stride[0] <= 0 || conv.Stride[1] <= 0 {
		return nil, fmt.Errorf("conv2d: strides (%d, %d) (must be > 0): %w",
			conv.Stride[0], conv.Stride[1], ErrInvalidConfiguration)
	}

	name := cfg.Name
	if name == "" {
		name = "conv2d"
	}

	c := &Conv2D[B]{
		name:       name,
		filters:    cfg.Filters,
		kernelSize: cfg.KernelSize,
		conv:       conv,
		activation: cfg.Activation,
		useBias:    cfg.UseBias == nil || *cfg.UseBias,
		backend:    backend,
	}

	if cfg.InChannels > 0 {
		kh, kw := cfg.KernelSize[0], cfg.KernelSize[1]
		fanIn := cfg.InChannels * kh * kw
		fanOut := cfg.Filters * kh * kw
		c.kernel = Xavier(fanIn, fanOut, tensor.Shape{kh, kw, cfg.InChannels, cfg.Filters}, backend)
		if c.useBias {
			c.bias = Zeros(tensor.Shape{cfg.Filters}, backend)
		}
	}

	return c, nil
}

// Call convolves the input and applies the fused activation.
func (c *Conv2D[B]) Call(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	if c.kernel == nil {
		return nil, fmt.Errorf("%s: no weights installed (set in_channels or call SetWeights): %w",
			c.name, ErrInvalidConfiguration)
	}

	shape := input.Shape()
	if shape.Rank() != 3 {
		return nil, dimErrorf(c.name, "expected a 3D feature tensor, got shape %v", shape)
	}
	h, w, inC := shape[0], shape[1], shape[2]
	if c.conv.Order == tensor.ChannelsFirst {
		inC, h, w = shape[0], shape[1], shape[2]
	}
	kShape := c.kernel.Shape()
	if inC != kShape[2] {
		return nil, dimErrorf(c.name, "input has %d channels, kernel expects %d", inC, kShape[2])
	}
	outH, outW, _ := c.conv.Geometry(h, w, kShape[0], kShape[1])
	if outH <= 0 || outW <= 0 {
		return nil, dimErrorf(c.name, "kernel (%d, %d) with strides (%d, %d) does not fit a %dx%d input",
			kShape[0], kShape[1], c.conv.Stride[0], c.conv.Stride[1], h, w)
	}

	out := input.Conv2D(c.kernel, c.bias, c.conv)
	result, err := applyActivation(c.activation, out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	return result, nil
}

// SetWeights installs the kernel (and bias) tensors, replacing any
// existing ones. Expected keys: "kernel", plus "bias" when the layer
// uses one.
func (c *Conv2D[B]) SetWeights(weights map[string]*tensor.RawTensor) error {
	kernelRaw, ok := weights["kernel"]
	if !ok {
		return fmt.Errorf("%s: missing kernel weight: %w", c.name, ErrInvalidConfiguration)
	}
	kShape := kernelRaw.Shape()
	if kShape.Rank() != 4 {
		return dimErrorf(c.name, "kernel must be 4D (kh, kw, inC, filters), got shape %v", kShape)
	}
	if kernelRaw.DType() != tensor.Float32 {
		return fmt.Errorf("%s: kernel dtype %s (want float32): %w", c.name, kernelRaw.DType(), ErrInvalidConfiguration)
	}
	if kShape[0] != c.kernelSize[0] || kShape[1] != c.kernelSize[1] || kShape[3] != c.filters {
		return dimErrorf(c.name, "kernel shape %v does not match kernel size (%d, %d) with %d filters",
			kShape, c.kernelSize[0], c.kernelSize[1], c.filters)
	}

	var bias *tensor.Tensor[float32, B]
	if c.useBias {
		biasRaw, ok := weights["bias"]
		if !ok {
			return fmt.Errorf("%s: missing bias weight: %w", c.name, ErrInvalidConfiguration)
		}
		if biasRaw.DType() != tensor.Float32 {
			return fmt.Errorf("%s: bias dtype %s (want float32): %w", c.name, biasRaw.DType(), ErrInvalidConfiguration)
		}
		bShape := biasRaw.Shape()
		if bShape.Rank() != 1 || bShape[0] != c.filters {
			return dimErrorf(c.name, "bias shape %v does not match %d filters", bShape, c.filters)
		}
		bias = tensor.New[float32, B](biasRaw, c.backend)
	}

	c.kernel = tensor.New[float32, B](kernelRaw, c.backend)
	c.bias = bias
	return nil
}

// Weights returns the current weight tensors keyed "kernel" and "bias".
func (c *Conv2D[B]) Weights() map[string]*tensor.RawTensor {
	w := make(map[string]*tensor.RawTensor, 2)
	if c.kernel != nil {
		w["kernel"] = c.kernel.Raw()
	}
	if c.bias != nil {
		w["bias"] = c.bias.Raw()
	}
	return w
}

// Name returns the layer's instance name.
func (c *Conv2D[B]) Name() string {
	return c.name
}

// Filters returns the number of output channels.
func (c *Conv2D[B]) Filters() int {
	return c.filters
}

// KernelSize returns the kernel spatial size (rows, cols).
func (c *Conv2D[B]) KernelSize() [2]int {
	return c.kernelSize
}

// String renders the layer in Keras summary style.
func (c *Conv2D[B]) String() string {
	return fmt.Sprintf("Conv2D(filters=%d, kernel_size=(%d, %d), strides=(%d, %d), padding=%s, activation=%s)",
		c.filters, c.kernelSize[0], c.kernelSize[1],
		c.conv.Stride[0], c.conv.Stride[1], c.conv.Padding, activationLabel(c.activation))
}

// activationLabel normalizes the empty activation to "linear" for
// display.
func activationLabel(name string) string {
	if name == "" {
		return "linear"
	}
	return name
}
