package nn

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// DenseConfig is the configuration surface of the Dense layer.
//
// InFeatures is only needed when the layer is built with freshly
// initialized weights; layers that receive their kernel through
// SetWeights leave it zero.
type DenseConfig struct {
	Name       string `mapstructure:"name"`
	Units      int    `mapstructure:"units"`
	InFeatures int    `mapstructure:"in_features"`
	Activation string `mapstructure:"activation"` // fused activation; "" means linear
	UseBias    *bool  `mapstructure:"use_bias"`   // nil means true
}

// Dense is a fully connected layer.
//
// Computes output = activation(input @ kernel + bias) with the kernel
// stored (inFeatures, units), so exported weights multiply without a
// transpose.
//
// Call accepts a rank-1 input (features) — the shape Flatten and the
// global pooling layers produce — or a rank-2 input (batch, features).
// The output keeps the input's rank.
type Dense[B tensor.Backend] struct {
	name       string
	units      int
	activation string
	useBias    bool

	kernel *tensor.Tensor[float32, B] // (inFeatures, units)
	bias   *tensor.Tensor[float32, B] // (units), nil when useBias is false

	backend B
}

// NewDense builds a fully connected layer from cfg.
//
// When cfg.InFeatures is set, the kernel is Xavier-initialized and the
// bias zeroed immediately; otherwise the layer starts without weights
// and SetWeights must install them before the first Call.
func NewDense[B tensor.Backend](cfg DenseConfig, backend B) (*Dense[B], error) {
	if cfg.Units <= 0 {
		return nil, fmt.Errorf("dense: units = %d (must be > 0): %w", cfg.Units, ErrInvalidConfiguration)
	}
	if !activationNames[cfg.Activation] {
		return nil, fmt.Errorf("dense: unknown activation %q: %w", cfg.Activation, ErrInvalidConfiguration)
	}

	name := cfg.Name
	if name == "" {
		name = "dense"
	}

	d := &Dense[B]{
		name:       name,
		units:      cfg.Units,
		activation: cfg.Activation,
		useBias:    cfg.UseBias == nil || *cfg.UseBias,
		backend:    backend,
	}

	if cfg.InFeatures > 0 {
		d.kernel = Xavier(cfg.InFeatures, cfg.Units, tensor.Shape{cfg.InFeatures, cfg.Units}, backend)
		if d.useBias {
			d.bias = Zeros(tensor.Shape{cfg.Units}, backend)
		}
	}

	return d, nil
}

// Call applies the affine transform and the fused activation.
func (d *Dense[B]) Call(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	if d.kernel == nil {
		return nil, fmt.Errorf("%s: no weights installed (set in_features or call SetWeights): %w",
			d.name, ErrInvalidConfiguration)
	}

	shape := input.Shape()
	inFeatures := d.kernel.Shape()[0]

	var x *tensor.Tensor[float32, B]
	switch shape.Rank() {
	case 1:
		if shape[0] != inFeatures {
			return nil, dimErrorf(d.name, "input has %d features, kernel expects %d", shape[0], inFeatures)
		}
		x = input.Reshape(1, shape[0])
	case 2:
		if shape[1] != inFeatures {
			return nil, dimErrorf(d.name, "input has %d features, kernel expects %d", shape[1], inFeatures)
		}
		x = input
	default:
		return nil, dimErrorf(d.name, "expected a 1D or 2D input, got shape %v", shape)
	}

	out := x.MatMul(d.kernel)
	if d.bias != nil {
		out = out.Add(d.bias.Reshape(1, d.units))
	}
	if shape.Rank() == 1 {
		out = out.Reshape(d.units)
	}

	result, err := applyActivation(d.activation, out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.name, err)
	}
	return result, nil
}

// SetWeights installs the kernel (and bias) tensors, replacing any
// existing ones. Expected keys: "kernel", plus "bias" when the layer
// uses one.
func (d *Dense[B]) SetWeights(weights map[string]*tensor.RawTensor) error {
	kernelRaw, ok := weights["kernel"]
	if !ok {
		return fmt.Errorf("%s: missing kernel weight: %w", d.name, ErrInvalidConfiguration)
	}
	kShape := kernelRaw.Shape()
	if kShape.Rank() != 2 {
		return dimErrorf(d.name, "kernel must be 2D (inFeatures, units), got shape %v", kShape)
	}
	if kernelRaw.DType() != tensor.Float32 {
		return fmt.Errorf("%s: kernel dtype %s (want float32): %w", d.name, kernelRaw.DType(), ErrInvalidConfiguration)
	}
	if kShape[1] != d.units {
		return dimErrorf(d.name, "kernel shape %v does not match %d units", kShape, d.units)
	}

	var bias *tensor.Tensor[float32, B]
	if d.useBias {
		biasRaw, ok := weights["bias"]
		if !ok {
			return fmt.Errorf("%s: missing bias weight: %w", d.name, ErrInvalidConfiguration)
		}
		if biasRaw.DType() != tensor.Float32 {
			return fmt.Errorf("%s: bias dtype %s (want float32): %w", d.name, biasRaw.DType(), ErrInvalidConfiguration)
		}
		bShape := biasRaw.Shape()
		if bShape.Rank() != 1 || bShape[0] != d.units {
			return dimErrorf(d.name, "bias shape %v does not match %d units", bShape, d.units)
		}
		bias = tensor.New[float32, B](biasRaw, d.backend)
	}

	d.kernel = tensor.New[float32, B](kernelRaw, d.backend)
	d.bias = bias
	return nil
}

// Weights returns the current weight tensors keyed "kernel" and "bias".
func (d *Dense[B]) Weights() map[string]*tensor.RawTensor {
	w := make(map[string]*tensor.RawTensor, 2)
	if d.kernel != nil {
		w["kernel"] = d.kernel.Raw()
	}
	if d.bias != nil {
		w["bias"] = d.bias.Raw()
	}
	return w
}

// Name returns the layer's instance name.
func (d *Dense[B]) Name() string {
	return d.name
}

// Units returns the number of output features.
func (d *Dense[B]) Units() int {
	return d.units
}

// String renders the layer in Keras summary style.
func (d *Dense[B]) String() string {
	return fmt.Sprintf("Dense(units=%d, activation=%s)", d.units, activationLabel(d.activation))
}
