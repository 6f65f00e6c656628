// Package tensor implements the dense N-dimensional arrays every backend
// and layer computes on.
package tensor

import "fmt"

// DType is the compile-time constraint for element types a Tensor may hold.
type DType interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

// DataType is the runtime element-type tag carried by RawTensor buffers.
type DataType int

// Runtime tags for every element type a RawTensor can hold.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
)

// dtypeInfo indexes element name and byte size by DataType value.
var dtypeInfo = [...]struct {
	name string
	size int
}{
	Float32: {"float32", 4},
	Float64: {"float64", 8},
	Int32:   {"int32", 4},
	Int64:   {"int64", 8},
	Uint8:   {"uint8", 1},
}

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	if dt < 0 || int(dt) >= len(dtypeInfo) {
		panic(fmt.Sprintf("dtype: DataType(%d) out of range", dt))
	}
	return dtypeInfo[dt].size
}

// String returns the Go name of the element type.
func (dt DataType) String() string {
	if dt < 0 || int(dt) >= len(dtypeInfo) {
		return "unknown"
	}
	return dtypeInfo[dt].name
}

// inferDataType maps a type parameter to its runtime tag.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	default:
		panic(fmt.Sprintf("dtype: no DataType for Go type %T", dummy))
	}
}
