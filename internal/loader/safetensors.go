package loader

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// SafeTensors files are a uint64 little-endian header length, a JSON header
// mapping tensor names to dtype/shape/offsets, then the concatenated tensor
// payloads. Offsets in the header are relative to the start of the payload
// section.

// maxSafeTensorsHeader bounds the JSON header; anything larger is a
// corrupt or hostile file, not a model.
const maxSafeTensorsHeader = 100 * 1024 * 1024

// SafeTensorsDType is a dtype tag as it appears on the wire.
type SafeTensorsDType string

// Wire dtype tags this loader accepts.
const (
	SafeTensorsF16  SafeTensorsDType = "F16"
	SafeTensorsF32  SafeTensorsDType = "F32"
	SafeTensorsF64  SafeTensorsDType = "F64"
	SafeTensorsBF16 SafeTensorsDType = "BF16"
	SafeTensorsI32  SafeTensorsDType = "I32"
	SafeTensorsI64  SafeTensorsDType = "I64"
	SafeTensorsU8   SafeTensorsDType = "U8"
)

// safeTensorsToNative maps wire dtypes to the DataType they load as.
// Half-precision payloads have no native DataType and widen to Float32.
var safeTensorsToNative = map[SafeTensorsDType]tensor.DataType{
	SafeTensorsF32:  tensor.Float32,
	SafeTensorsF16:  tensor.Float32,
	SafeTensorsBF16: tensor.Float32,
	SafeTensorsF64:  tensor.Float64,
	SafeTensorsI32:  tensor.Int32,
	SafeTensorsI64:  tensor.Int64,
	SafeTensorsU8:   tensor.Uint8,
}

// SafeTensorInfo is one tensor entry from the JSON header.
type SafeTensorInfo struct {
	DType       SafeTensorsDType `json:"dtype"`
	Shape       []int            `json:"shape"`
	DataOffsets [2]int64         `json:"data_offsets"` // payload-relative [start, end)
}

// SafeTensorsHeader is the decoded JSON header. The wire format mixes the
// "__metadata__" object in with the tensor entries, so decoding needs a
// custom unmarshaler.
type SafeTensorsHeader struct {
	Metadata map[string]string         `json:"__metadata__"`
	Tensors  map[string]SafeTensorInfo `json:"-"`
}

// UnmarshalJSON splits the header's single JSON object into metadata and
// tensor entries in one pass.
func (h *SafeTensorsHeader) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	h.Tensors = make(map[string]SafeTensorInfo, len(raw))
	for key, value := range raw {
		if key == "__metadata__" {
			if err := json.Unmarshal(value, &h.Metadata); err != nil {
				return fmt.Errorf("decode __metadata__: %w", err)
			}
			continue
		}
		var info SafeTensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("decode index entry %s: %w", key, err)
		}
		h.Tensors[key] = info
	}

	return nil
}

// SafeTensorsReader reads tensors out of a .safetensors file.
type SafeTensorsReader struct {
	file       *os.File
	header     SafeTensorsHeader
	dataOffset int64 // where the payload section starts
}

// NewSafeTensorsReader opens path and decodes its header. Tensor payloads
// are read on demand.
func NewSafeTensorsReader(path string) (*SafeTensorsReader, error) {
	//nolint:gosec // G304: the caller chooses which model file to open
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open safetensors file: %w", err)
	}

	header, payload, err := decodeSafeTensorsHeader(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &SafeTensorsReader{file: file, header: header, dataOffset: payload}, nil
}

// decodeSafeTensorsHeader consumes the length prefix and JSON header and
// reports where the payload section starts.
func decodeSafeTensorsHeader(file io.Reader) (SafeTensorsHeader, int64, error) {
	var header SafeTensorsHeader

	var prefix [8]byte
	if _, err := io.ReadFull(file, prefix[:]); err != nil {
		return header, 0, fmt.Errorf("read header length: %w", err)
	}
	jsonLen := binary.LittleEndian.Uint64(prefix[:])
	if jsonLen > maxSafeTensorsHeader {
		return header, 0, fmt.Errorf("header claims %d bytes, limit is %d", jsonLen, maxSafeTensorsHeader)
	}

	buf := make([]byte, jsonLen)
	if _, err := io.ReadFull(file, buf); err != nil {
		return header, 0, fmt.Errorf("read header JSON: %w", err)
	}
	if err := json.Unmarshal(buf, &header); err != nil {
		return header, 0, fmt.Errorf("decode header JSON: %w", err)
	}

	payload := int64(8 + jsonLen) //nolint:gosec // G115: capped by the header size check
	return header, payload, nil
}

// Close releases the file handle, if one is open.
func (r *SafeTensorsReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Metadata returns the free-form __metadata__ map, if present.
func (r *SafeTensorsReader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns a sorted list of all tensor names in the file.
func (r *SafeTensorsReader) TensorNames() []string {
	return slices.Sorted(maps.Keys(r.header.Tensors))
}

// TensorInfo returns the header entry for one tensor.
func (r *SafeTensorsReader) TensorInfo(name string) (*SafeTensorInfo, error) {
	info, ok := r.header.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("no tensor named %q", name)
	}
	return &info, nil
}

// ReadTensorData reads one tensor's raw payload bytes.
// Reads go through ReadAt, so concurrent calls are safe; the model
// engine relies on this when loading weights in parallel.
func (r *SafeTensorsReader) ReadTensorData(name string) ([]byte, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	start, end := info.DataOffsets[0], info.DataOffsets[1]
	if end < start {
		return nil, fmt.Errorf("tensor %s: data_offsets run backwards: [%d, %d]", name, start, end)
	}

	buf := make([]byte, end-start)
	if _, err := r.file.ReadAt(buf, r.dataOffset+start); err != nil {
		return nil, fmt.Errorf("read tensor %s: %w", name, err)
	}

	return buf, nil
}

// LoadTensor loads a tensor from the SafeTensors file into a RawTensor.
// F16 and BF16 payloads are converted to float32; other dtypes load as-is.
func (r *SafeTensorsReader) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	dtype, ok := safeTensorsToNative[info.DType]
	if !ok {
		return nil, fmt.Errorf("tensor %s: unsupported dtype %s", name, info.DType)
	}

	data, err := r.ReadTensorData(name)
	if err != nil {
		return nil, err
	}

	if info.DType == SafeTensorsF16 || info.DType == SafeTensorsBF16 {
		data, err = widenToFloat32(info.DType, data)
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
	}

	// The header's shape, not the payload length, decides the tensor size;
	// NewRawFrom rejects any disagreement.
	raw, err := tensor.NewRawFrom(tensor.Shape(info.Shape), dtype, backend.Device(), data)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	return raw, nil
}

// widenToFloat32 converts F16 or BF16 bytes to little-endian float32 bytes.
func widenToFloat32(dtype SafeTensorsDType, data []byte) ([]byte, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("odd payload size %d for dtype %s", len(data), dtype)
	}

	var f32s []float32
	switch dtype {
	case SafeTensorsF16:
		f32s = make([]float32, len(data)/2)
		for i := range f32s {
			bits := binary.LittleEndian.Uint16(data[i*2:])
			f32s[i] = float16.Frombits(bits).Float32()
		}
	case SafeTensorsBF16:
		f32s = bfloat16.DecodeFloat32(data)
	default:
		return nil, fmt.Errorf("dtype %s does not require conversion", dtype)
	}

	out := make([]byte, len(f32s)*4)
	for i, v := range f32s {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out, nil
}
