package tensor

import (
	"fmt"
	"math"
)

var _ Backend = (*MockBackend)(nil)

// MockBackend implements every Backend operation as a plain nested loop
// over float64 values. It trades all performance for obviousness, which
// makes it the reference oracle the real backends are tested against.
type MockBackend struct{}

// NewMockBackend returns a stateless oracle instance.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name identifies the backend in logs and errors.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device reports CPU.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add adds the operands element-wise.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.zip(a, b, func(x, y float64) float64 { return x + y })
}

// Sub subtracts b from a element-wise.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.zip(a, b, func(x, y float64) float64 { return x - y })
}

// Mul multiplies the operands element-wise.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.zip(a, b, func(x, y float64) float64 { return x * y })
}

// Div divides a by b element-wise.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.zip(a, b, func(x, y float64) float64 { return x / y })
}

// AddScalar adds a scalar to every element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	s := widenScalar(scalar)
	return m.apply(x, func(v float64) float64 { return v + s })
}

// MulScalar multiplies every element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	s := widenScalar(scalar)
	return m.apply(x, func(v float64) float64 { return v * s })
}

// zip combines two tensors element by element, broadcasting either
// operand where its dimension is 1.
func (m *MockBackend) zip(a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}
	result := m.alloc(outShape, a.DType())

	lhs := m.widen(a)
	rhs := m.widen(b)
	out := m.widen(result)
	for i := range out {
		out[i] = op(lhs[sourceIndex(i, outShape, a.Shape())], rhs[sourceIndex(i, outShape, b.Shape())])
	}

	m.writeBack(out, result)
	return result
}

// apply maps op over every element, preserving shape and dtype.
func (m *MockBackend) apply(x *RawTensor, op func(float64) float64) *RawTensor {
	result := m.alloc(x.Shape(), x.DType())

	out := m.widen(result)
	for i, v := range m.widen(x) {
		out[i] = op(v)
	}

	m.writeBack(out, result)
	return result
}

// MatMul performs 2-D matrix multiplication.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: rank-%d @ rank-%d operands, want matrices", len(aShape), len(bShape)))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: shape mismatch %v @ %v", aShape, bShape))
	}

	rows, inner, cols := aShape[0], aShape[1], bShape[1]
	result := m.alloc(Shape{rows, cols}, a.DType())

	lhs := m.widen(a)
	rhs := m.widen(b)
	out := m.widen(result)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			acc := 0.0
			for k := 0; k < inner; k++ {
				acc += lhs[i*inner+k] * rhs[k*cols+j]
			}
			out[i*cols+j] = acc
		}
	}

	m.writeBack(out, result)
	return result
}

// Conv2D performs a naive 2-D convolution over a 3-D feature tensor.
// The kernel is (kh, kw, inC, outC); out-of-bounds taps read as zero,
// which is exactly the zero padding the same mode materializes.
func (m *MockBackend) Conv2D(input, kernel, bias *RawTensor, cfg ConvConfig) *RawTensor {
	cfg = cfg.Normalized()
	if cfg.Order == ChannelsFirst {
		hwc := m.Transpose(input, 1, 2, 0)
		out := m.Conv2D(hwc, kernel, bias, ConvConfig{Stride: cfg.Stride, Padding: cfg.Padding, Order: ChannelsLast})
		return m.Transpose(out, 2, 0, 1)
	}

	inShape := input.Shape()
	kShape := kernel.Shape()
	if len(inShape) != 3 || len(kShape) != 4 {
		panic(fmt.Sprintf("conv2d: input %v and kernel %v, want rank 3 and rank 4", inShape, kShape))
	}

	h, w, inC := inShape[0], inShape[1], inShape[2]
	kh, kw, outC := kShape[0], kShape[1], kShape[3]
	if kShape[2] != inC {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", inC, kShape[2]))
	}

	outH, outW, pad := cfg.Geometry(h, w, kh, kw)
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("conv2d: kernel (%d, %d) exceeds input (%d, %d)", kh, kw, h, w))
	}

	result := m.alloc(Shape{outH, outW, outC}, input.DType())

	src := m.widen(input)
	kData := m.widen(kernel)
	var bData []float64
	if bias != nil {
		bData = m.widen(bias)
	}
	dst := m.widen(result)

	sh, sw := cfg.Stride[0], cfg.Stride[1]
	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			for oc := 0; oc < outC; oc++ {
				sum := 0.0
				for ky := 0; ky < kh; ky++ {
					iy := oy*sh + ky - pad.RowBefore
					if iy < 0 || iy >= h {
						continue
					}
					for kx := 0; kx < kw; kx++ {
						ix := ox*sw + kx - pad.ColBefore
						if ix < 0 || ix >= w {
							continue
						}
						for ic := 0; ic < inC; ic++ {
							sum += src[(iy*w+ix)*inC+ic] * kData[((ky*kw+kx)*inC+ic)*outC+oc]
						}
					}
				}
				if bData != nil {
					sum += bData[oc]
				}
				dst[(oy*outW+ox)*outC+oc] = sum
			}
		}
	}

	m.writeBack(dst, result)
	return result
}

// Pool2D reduces windows of a 3-D feature tensor per channel.
// Instead of materializing padding it walks each window against the raw
// input with bounds checks: max ignores out-of-bounds cells, average
// divides by the count of in-bounds cells. Both match the padded
// semantics exactly, which makes the mock an independent oracle for the
// production kernel.
func (m *MockBackend) Pool2D(input *RawTensor, cfg PoolConfig) *RawTensor {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("pool2d: %v", err))
	}
	if cfg.Order == ChannelsFirst {
		hwc := m.Transpose(input, 1, 2, 0)
		last := cfg
		last.Order = ChannelsLast
		return m.Transpose(m.Pool2D(hwc, last), 2, 0, 1)
	}

	inShape := input.Shape()
	if len(inShape) != 3 {
		panic(fmt.Sprintf("pool2d: input %v, want rank 3", inShape))
	}

	h, w, c := inShape[0], inShape[1], inShape[2]
	outH, outW, pad := cfg.Geometry(h, w)
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("pool2d: window (%d, %d) exceeds input (%d, %d)", cfg.Window[0], cfg.Window[1], h, w))
	}

	result := m.alloc(Shape{outH, outW, c}, input.DType())

	src := m.widen(input)
	dst := m.widen(result)

	kh, kw := cfg.Window[0], cfg.Window[1]
	sh, sw := cfg.Stride[0], cfg.Stride[1]
	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			for ch := 0; ch < c; ch++ {
				acc := math.Inf(-1)
				sum := 0.0
				count := 0
				for ky := 0; ky < kh; ky++ {
					iy := oy*sh + ky - pad.RowBefore
					if iy < 0 || iy >= h {
						continue
					}
					for kx := 0; kx < kw; kx++ {
						ix := ox*sw + kx - pad.ColBefore
						if ix < 0 || ix >= w {
							continue
						}
						v := src[(iy*w+ix)*c+ch]
						if v > acc {
							acc = v
						}
						sum += v
						count++
					}
				}
				if cfg.Reducer == ReduceAverage {
					acc = sum / float64(count)
				}
				dst[(oy*outW+ox)*c+ch] = acc
			}
		}
	}

	m.writeBack(dst, result)
	return result
}

// Reshape returns a tensor with the same data and a new shape.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: %v holds %d elements, %v wants %d",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}

	result := m.alloc(newShape, t.DType())
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes tensor dimensions. Without axes it reverses them.
func (m *MockBackend) Transpose(t *RawTensor, axes ...int) *RawTensor {
	shape := t.Shape()
	rank := len(shape)

	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	if len(axes) != rank {
		panic(fmt.Sprintf("transpose: %d axes for a rank-%d tensor", len(axes), rank))
	}

	dstShape := make(Shape, rank)
	for i, axis := range axes {
		if axis < 0 || axis >= rank {
			panic(fmt.Sprintf("transpose: axis %d out of range for rank %d", axis, rank))
		}
		dstShape[i] = shape[axis]
	}

	result := m.alloc(dstShape, t.DType())

	src := m.widen(t)
	dst := m.widen(result)

	srcStrides := shape.ComputeStrides()
	dstStrides := dstShape.ComputeStrides()

	// contrib[a] is the destination stride of source axis a, so the
	// destination index is a single pass over the source coordinates.
	contrib := make([]int, rank)
	for pos, axis := range axes {
		contrib[axis] = dstStrides[pos]
	}

	for i, v := range src {
		rem := i
		dstIdx := 0
		for a, stride := range srcStrides {
			dstIdx += (rem / stride) * contrib[a]
			rem %= stride
		}
		dst[dstIdx] = v
	}

	m.writeBack(dst, result)
	return result
}

// ReLU applies max(0, x) element-wise.
func (m *MockBackend) ReLU(x *RawTensor) *RawTensor {
	return m.apply(x, func(v float64) float64 { return math.Max(0, v) })
}

// Sigmoid applies 1/(1+exp(-x)) element-wise.
func (m *MockBackend) Sigmoid(x *RawTensor) *RawTensor {
	return m.apply(x, func(v float64) float64 { return 1.0 / (1.0 + math.Exp(-v)) })
}

// Tanh applies the hyperbolic tangent element-wise.
func (m *MockBackend) Tanh(x *RawTensor) *RawTensor {
	return m.apply(x, math.Tanh)
}

// Softmax applies softmax along the given dimension (-1 means last).
func (m *MockBackend) Softmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	dim = normalizeDim("softmax", dim, len(shape))

	result := m.alloc(shape, x.DType())

	src := m.widen(x)
	dst := m.widen(result)

	strides := shape.ComputeStrides()
	lanes := shape[dim]
	step := strides[dim]

	for group := 0; group < x.NumElements()/lanes; group++ {
		base := laneBase(group, dim, shape, strides)

		// Shift by the max so the exponentials cannot overflow.
		peak := src[base]
		for i := 1; i < lanes; i++ {
			if v := src[base+i*step]; v > peak {
				peak = v
			}
		}

		total := 0.0
		for i := 0; i < lanes; i++ {
			e := math.Exp(src[base+i*step] - peak)
			dst[base+i*step] = e
			total += e
		}
		for i := 0; i < lanes; i++ {
			dst[base+i*step] /= total
		}
	}

	m.writeBack(dst, result)
	return result
}

// Sum computes the total sum of all elements (scalar result).
func (m *MockBackend) Sum(x *RawTensor) *RawTensor {
	total := 0.0
	for _, v := range m.widen(x) {
		total += v
	}

	result := m.alloc(Shape{}, x.DType())
	m.writeBack([]float64{total}, result)
	return result
}

// Argmax returns Int64 indices of the maximum along dim (-1 means last).
// The reduced dimension is removed from the output shape.
func (m *MockBackend) Argmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	dim = normalizeDim("argmax", dim, len(shape))

	outShape := make(Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			outShape = append(outShape, d)
		}
	}

	result := m.alloc(outShape, Int64)

	src := m.widen(x)
	dst := result.AsInt64()

	strides := shape.ComputeStrides()
	lanes := shape[dim]
	step := strides[dim]

	for group := 0; group < x.NumElements()/lanes; group++ {
		base := laneBase(group, dim, shape, strides)

		best := src[base]
		bestAt := int64(0)
		for i := 1; i < lanes; i++ {
			if v := src[base+i*step]; v > best {
				best = v
				bestAt = int64(i)
			}
		}
		dst[group] = bestAt
	}

	return result
}

// Cast converts the tensor to a new dtype.
func (m *MockBackend) Cast(x *RawTensor, dtype DataType) *RawTensor {
	result := m.alloc(x.Shape(), dtype)
	m.writeBack(m.widen(x), result)
	return result
}

// alloc creates a zeroed tensor on this backend's device, panicking on
// invalid shapes since the mock is test-only.
func (m *MockBackend) alloc(shape Shape, dtype DataType) *RawTensor {
	result, err := NewRaw(shape, dtype, m.Device())
	if err != nil {
		panic(err)
	}
	return result
}

// widen reads the tensor as float64 values. For Float64 tensors it
// returns the live buffer, so writeBack on the same tensor is a no-op.
func (m *MockBackend) widen(t *RawTensor) []float64 {
	switch t.DType() {
	case Float32:
		return widenVals(t.AsFloat32())
	case Float64:
		return t.AsFloat64()
	case Int32:
		return widenVals(t.AsInt32())
	case Int64:
		return widenVals(t.AsInt64())
	case Uint8:
		return widenVals(t.AsUint8())
	default:
		panic(fmt.Sprintf("mock: unsupported dtype %s", t.DType()))
	}
}

// writeBack stores float64 values into the tensor's element type.
func (m *MockBackend) writeBack(vals []float64, t *RawTensor) {
	switch t.DType() {
	case Float32:
		narrowInto(t.AsFloat32(), vals)
	case Float64:
		copy(t.AsFloat64(), vals)
	case Int32:
		narrowInto(t.AsInt32(), vals)
	case Int64:
		narrowInto(t.AsInt64(), vals)
	case Uint8:
		narrowInto(t.AsUint8(), vals)
	}
}

func widenVals[T DType](src []T) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}

func widenScalar(scalar any) float64 {
	switch s := scalar.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int:
		return float64(s)
	case int32:
		return float64(s)
	case int64:
		return float64(s)
	case uint8:
		return float64(s)
	default:
		panic(fmt.Sprintf("mock: unsupported scalar type %T", scalar))
	}
}

func narrowInto[T DType](dst []T, vals []float64) {
	for i, v := range vals {
		dst[i] = T(v)
	}
}

// sourceIndex maps a flat index in the broadcast output shape back to
// the flat index in an input shape, treating size-1 dimensions as
// pinned at coordinate 0.
func sourceIndex(flat int, outShape, inShape Shape) int {
	outStrides := outShape.ComputeStrides()
	inStrides := inShape.ComputeStrides()
	skip := len(outShape) - len(inShape)

	idx := 0
	for i, stride := range outStrides {
		coord := flat / stride
		flat %= stride
		if i < skip {
			continue
		}
		if inShape[i-skip] != 1 {
			idx += coord * inStrides[i-skip]
		}
	}
	return idx
}

// laneBase returns the flat index of the first element of the group-th
// lane along dim, enumerating the remaining dimensions row-major.
func laneBase(group, dim int, shape Shape, strides []int) int {
	base := 0
	for i := len(shape) - 1; i >= 0; i-- {
		if i == dim {
			continue
		}
		base += (group % shape[i]) * strides[i]
		group /= shape[i]
	}
	return base
}

// normalizeDim resolves a possibly negative dimension and bounds-checks it.
func normalizeDim(op string, dim, rank int) int {
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		panic(fmt.Sprintf("%s: dimension %d out of range for %dD tensor", op, dim, rank))
	}
	return dim
}
