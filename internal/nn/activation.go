package nn

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// activationNames lists the activation functions layers accept by name.
// The empty string and "linear" are the identity.
var activationNames = map[string]bool{
	"":        true,
	"linear":  true,
	"relu":    true,
	"sigmoid": true,
	"tanh":    true,
	"softmax": true,
}

// applyActivation applies the named activation to t. Shared by the
// Activation layer and the fused activation of Conv2D and Dense.
func applyActivation[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	switch name {
	case "", "linear":
		return t, nil
	case "relu":
		return t.ReLU(), nil
	case "sigmoid":
		return t.Sigmoid(), nil
	case "tanh":
		return t.Tanh(), nil
	case "softmax":
		return t.Softmax(-1), nil
	default:
		return nil, fmt.Errorf("unknown activation %q: %w", name, ErrInvalidConfiguration)
	}
}

// ActivationConfig configures an Activation layer.
type ActivationConfig struct {
	Name       string `mapstructure:"name"`
	Activation string `mapstructure:"activation"` // "relu", "sigmoid", "tanh", "softmax", "linear"
}

// Activation applies a named element-wise nonlinearity.
//
// Softmax normalizes over the last axis. "linear" passes the input
// through unchanged, matching its role as the default fused activation
// of the weighted layers.
type Activation[B tensor.Backend] struct {
	name string
	fn   string
}

// NewActivation builds an Activation layer from cfg. An unknown
// activation name is an ErrInvalidConfiguration.
func NewActivation[B tensor.Backend](cfg ActivationConfig) (*Activation[B], error) {
	if !activationNames[cfg.Activation] {
		return nil, fmt.Errorf("activation: unknown activation %q: %w", cfg.Activation, ErrInvalidConfiguration)
	}
	name := cfg.Name
	if name == "" {
		name = "activation"
	}
	return &Activation[B]{name: name, fn: cfg.Activation}, nil
}

// Call applies the configured activation function.
func (a *Activation[B]) Call(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	out, err := applyActivation(a.fn, input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}
	return out, nil
}

// Name returns the layer's instance name.
func (a *Activation[B]) Name() string {
	return a.name
}

// Function returns the activation function name.
func (a *Activation[B]) Function() string {
	return a.fn
}

// String names the wrapped activation.
func (a *Activation[B]) String() string {
	return fmt.Sprintf("Activation(%s)", a.fn)
}
