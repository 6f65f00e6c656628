// Package nn implements the layers the inference engine drives.
//
// This package provides the building blocks model graphs are assembled
// from:
//   - Layer interface: the uniform call surface every layer exposes
//   - WeightBearer interface: optional capability for layers with
//     learned parameters
//   - Conv2D, Dense: weighted layers
//   - MaxPooling2D, AveragePooling2D and their global variants
//   - Activation, Flatten: nonlinearity and shape plumbing
//
// Layer configuration follows the Keras vocabulary (pool_size, strides,
// padding, data_format; convolution kernels stored (kh, kw, inC, outC))
// so architectures and weights exported from Keras load without
// surgery.
package nn

import (
	"github.com/lattice-ml/lattice/internal/tensor"
)

// Layer is the uniform capability every inference layer exposes.
//
// Call consumes its input and returns a new, independently owned output
// tensor: implementations never mutate the input and never retain a
// reference to it after returning. Layers hold no per-call state, so
// concurrent calls on distinct tensors are safe.
//
// Layers with learned parameters additionally implement WeightBearer;
// the model engine discovers that capability with a type assertion.
//
// Type parameter B selects the compute backend at build time.
type Layer[B tensor.Backend] interface {
	// Call computes the layer's output for the given input.
	//
	// Configuration problems (an unknown reducer or activation name,
	// weights never installed) surface as errors wrapping
	// ErrInvalidConfiguration. Inputs whose geometry the layer cannot
	// process surface as *DimensionError.
	Call(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error)

	// Name reports the layer's instance name, used for weight mapping
	// and log context.
	Name() string
}

// WeightBearer is the optional capability of layers with learned
// parameters.
//
// Weight maps are keyed by the layer-local parameter name ("kernel",
// "bias"); the model engine resolves qualified names such as
// "conv1.kernel" to (layer, key) pairs before dispatching here.
type WeightBearer[B tensor.Backend] interface {
	// SetWeights installs the given parameter tensors after validating
	// their shapes and dtypes against the layer configuration. On error
	// the layer's existing weights are left untouched.
	SetWeights(weights map[string]*tensor.RawTensor) error

	// Weights returns the current parameter tensors keyed by parameter
	// name. The map is a fresh copy; the tensors are the live ones.
	Weights() map[string]*tensor.RawTensor
}

// Compile-time capability checks for every concrete layer.
var (
	_ Layer[*tensor.MockBackend] = (*Pooling2D[*tensor.MockBackend])(nil)
	_ Layer[*tensor.MockBackend] = (*GlobalPooling2D[*tensor.MockBackend])(nil)
	_ Layer[*tensor.MockBackend] = (*Conv2D[*tensor.MockBackend])(nil)
	_ Layer[*tensor.MockBackend] = (*Dense[*tensor.MockBackend])(nil)
	_ Layer[*tensor.MockBackend] = (*Activation[*tensor.MockBackend])(nil)
	_ Layer[*tensor.MockBackend] = (*Flatten[*tensor.MockBackend])(nil)

	_ WeightBearer[*tensor.MockBackend] = (*Conv2D[*tensor.MockBackend])(nil)
	_ WeightBearer[*tensor.MockBackend] = (*Dense[*tensor.MockBackend])(nil)
)
