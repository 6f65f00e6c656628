package cpu

import (
	"fmt"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// Cast converts the tensor to a different data type, truncating the way
// Go conversions do. Casting to the tensor's own dtype returns the
// input untouched.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x
	}

	result, err := tensor.NewRaw(x.Shape(), dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cast: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		castInto(result, x.AsFloat32())
	case tensor.Float64:
		castInto(result, x.AsFloat64())
	case tensor.Int32:
		castInto(result, x.AsInt32())
	case tensor.Int64:
		castInto(result, x.AsInt64())
	case tensor.Uint8:
		castInto(result, x.AsUint8())
	default:
		panic(fmt.Sprintf("cast: unsupported source dtype %s", x.DType()))
	}

	return result
}

// castInto converts src into result's element type.
func castInto[Src tensor.DType](result *tensor.RawTensor, src []Src) {
	switch result.DType() {
	case tensor.Float32:
		convert(result.AsFloat32(), src)
	case tensor.Float64:
		convert(result.AsFloat64(), src)
	case tensor.Int32:
		convert(result.AsInt32(), src)
	case tensor.Int64:
		convert(result.AsInt64(), src)
	case tensor.Uint8:
		convert(result.AsUint8(), src)
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s", result.DType()))
	}
}

//nolint:gosec // G115: narrowing here is the documented Cast behavior.
func convert[Dst, Src tensor.DType](dst []Dst, src []Src) {
	for i, v := range src {
		dst[i] = Dst(v)
	}
}
