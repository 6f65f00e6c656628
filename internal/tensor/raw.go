package tensor

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Device says where a tensor's bytes live and which backend owns its math.
type Device int

// Devices this build knows about.
const (
	CPU Device = iota
	WebGPU
)

var deviceNames = [...]string{CPU: "CPU", WebGPU: "WebGPU"}

func (d Device) String() string {
	if d < 0 || int(d) >= len(deviceNames) {
		return "Unknown"
	}
	return deviceNames[d]
}

// tensorBuffer is the shared, reference-counted storage behind RawTensor.
// Sharing makes Clone O(1), and the count tells backends when exactly one
// holder remains, which is the precondition for in-place updates.
type tensorBuffer struct {
	data     []byte
	refCount atomic.Int32
}

func newTensorBuffer(size int) *tensorBuffer {
	tb := &tensorBuffer{data: make([]byte, size)}
	tb.refCount.Store(1)
	return tb
}

func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

// release drops one reference. Only the decrement that reaches zero
// clears data.
func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) == 0 {
		tb.data = nil
	}
}

func (tb *tensorBuffer) isUnique() bool {
	return tb.refCount.Load() == 1
}

// RawTensor is the low-level tensor representation: a dtype-tagged byte
// buffer plus shape and stride bookkeeping. Buffers are shared between
// clones via reference counting.
type RawTensor struct {
	buffer *tensorBuffer
	shape  Shape
	stride []int // row-major strides
	dtype  DataType
	device Device
	offset int // byte offset for slicing/views
}

// NewRaw allocates a zeroed tensor of the given shape and element type.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("shape %v: %w", shape, err)
	}

	return &RawTensor{
		buffer: newTensorBuffer(shape.NumElements() * dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
		offset: 0,
	}, nil
}

// NewRawFrom allocates a tensor holding a copy of data, which must be
// exactly the byte size the shape and element type imply.
func NewRawFrom(shape Shape, dtype DataType, device Device, data []byte) (*RawTensor, error) {
	raw, err := NewRaw(shape, dtype, device)
	if err != nil {
		return nil, err
	}
	if len(data) != raw.ByteSize() {
		return nil, fmt.Errorf("%d payload bytes, shape %v wants %d", len(data), shape, raw.ByteSize())
	}
	copy(raw.Data(), data)
	return raw, nil
}

// Shape returns the dimension sizes.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the row-major element strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the element type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns where the tensor lives.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the element count across all dimensions.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the backing buffer size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data exposes the backing bytes. Writes through the slice are visible to
// every clone sharing the buffer.
func (r *RawTensor) Data() []byte {
	return r.buffer.data[r.offset:]
}

// sliceAs reinterprets the buffer as []T. Zero-copy: the result aliases
// tensor memory and is valid only while the tensor holds its buffer.
func sliceAs[T DType](r *RawTensor) []T {
	var dummy T
	if want := inferDataType(dummy); r.dtype != want {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, want))
	}
	n := r.NumElements()
	if n == 0 {
		return nil
	}
	data := r.Data()
	//nolint:gosec // G103: in-place reinterpretation, length bounded by NumElements
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), n)
}

// AsFloat32 interprets the data as []float32. Panics on any other dtype.
func (r *RawTensor) AsFloat32() []float32 { return sliceAs[float32](r) }

// AsFloat64 interprets the data as []float64. Panics on any other dtype.
func (r *RawTensor) AsFloat64() []float64 { return sliceAs[float64](r) }

// AsInt32 interprets the data as []int32. Panics on any other dtype.
func (r *RawTensor) AsInt32() []int32 { return sliceAs[int32](r) }

// AsInt64 interprets the data as []int64. Panics on any other dtype.
func (r *RawTensor) AsInt64() []int64 { return sliceAs[int64](r) }

// AsUint8 interprets the data as []uint8. Panics on any other dtype.
func (r *RawTensor) AsUint8() []uint8 { return sliceAs[uint8](r) }

// Clone returns a new RawTensor sharing this tensor's buffer. The copy is
// O(1); the buffer is duplicated only when a holder needs to mutate it
// while others remain.
func (r *RawTensor) Clone() *RawTensor {
	r.buffer.addRef()
	return &RawTensor{
		buffer: r.buffer,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
		offset: r.offset,
	}
}

// Release drops this tensor's reference to the buffer; the last release
// frees the memory.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// IsUnique reports whether this tensor is the only holder of its buffer,
// in which case backends may update it in place.
func (r *RawTensor) IsUnique() bool {
	return r.buffer.isUnique()
}
