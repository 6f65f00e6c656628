package tensor

import "fmt"

// Tensor is a generic tensor with element type T computed by backend B.
// The type parameter pins the element type at compile time; the wrapped
// RawTensor carries the matching runtime tag.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{4, 3}, backend)
//	result := t.Add(t)
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps a RawTensor for the given backend.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromSlice builds a tensor holding a copy of data.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if want := shape.NumElements(); len(data) != want {
		return nil, fmt.Errorf("%d elements for shape %v, want %d", len(data), shape, want)
	}

	var zero T
	raw, err := NewRaw(shape, inferDataType(zero), b.Device())
	if err != nil {
		return nil, err
	}
	copy(sliceAs[T](raw), data)
	return New[T, B](raw, b), nil
}

// Shape reports the dimension sizes.
func (t *Tensor[T, B]) Shape() Shape {
	return t.raw.Shape()
}

// DType reports the element type's runtime tag.
func (t *Tensor[T, B]) DType() DataType {
	return t.raw.DType()
}

// Device reports where the tensor's bytes live.
func (t *Tensor[T, B]) Device() Device {
	return t.raw.Device()
}

// NumElements reports the element count across all dimensions.
func (t *Tensor[T, B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw exposes the wrapped RawTensor for backend-level code.
func (t *Tensor[T, B]) Raw() *RawTensor {
	return t.raw
}

// Backend reports the backend the tensor computes on.
func (t *Tensor[T, B]) Backend() B {
	return t.backend
}

// Data returns a typed view of the tensor's memory. Zero-copy: writes
// through the slice are writes to the tensor.
func (t *Tensor[T, B]) Data() []T {
	return sliceAs[T](t.raw)
}

// Item unwraps a 0-D tensor's single value, panicking on anything else.
func (t *Tensor[T, B]) Item() T {
	if len(t.raw.Shape()) != 0 {
		panic(fmt.Sprintf("item: shape %v is not a scalar", t.raw.Shape()))
	}
	return t.Data()[0]
}

// At reads the element at the given indices, one per dimension.
// Panics when an index falls outside its dimension.
//
// Example:
//
//	t := tensor.Rand[float32](Shape{3, 4}, backend)
//	v := t.At(2, 1) // row 2, column 1
func (t *Tensor[T, B]) At(indices ...int) T {
	return t.Data()[t.flatIndex(indices)]
}

// Set writes the element at the given indices, one per dimension.
// Panics when an index falls outside its dimension.
func (t *Tensor[T, B]) Set(value T, indices ...int) {
	t.Data()[t.flatIndex(indices)] = value
}

// flatIndex maps per-dimension indices onto the strided buffer offset.
func (t *Tensor[T, B]) flatIndex(indices []int) int {
	shape, strides := t.raw.Shape(), t.raw.Strides()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("%d indices for a rank-%d tensor", len(indices), len(shape)))
	}

	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d outside dimension %d of size %d", idx, i, shape[i]))
		}
		off += idx * strides[i]
	}
	return off
}

// String formats the tensor as dtype, shape, and device.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("%s%v on %s", t.raw.DType(), t.raw.Shape(), t.raw.Device())
}

// Clone copies the tensor in O(1). Both copies share the backing buffer
// until one of them has to mutate it.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw.Clone(), backend: t.backend}
}
