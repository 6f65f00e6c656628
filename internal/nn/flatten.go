package nn

import (
	"github.com/lattice-ml/lattice/internal/tensor"
)

// Flatten reshapes any input to a rank-1 tensor in row-major order:
// (rows, cols, channels) -> (rows*cols*channels).
type Flatten[B tensor.Backend] struct {
	name string
}

// NewFlatten builds a Flatten layer. An empty name defaults to
// "flatten".
func NewFlatten[B tensor.Backend](name string) *Flatten[B] {
	if name == "" {
		name = "flatten"
	}
	return &Flatten[B]{name: name}
}

// Call flattens the input.
func (f *Flatten[B]) Call(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return input.Reshape(input.NumElements()), nil
}

// Name returns the layer's instance name.
func (f *Flatten[B]) Name() string {
	return f.name
}

// String implements fmt.Stringer.
func (f *Flatten[B]) String() string {
	return "Flatten()"
}
