package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "LATC"
	FormatVersion   = 1  // Current LATC format version
	HeaderAlignment = 64 // Align tensor data to 64 bytes for optimal performance
	FixedHeaderSize = 64 // Fixed header size (0x40 bytes)
	ChecksumSize    = 32 // SHA-256 checksum size (32 bytes)
	ChecksumOffset  = 0x20
)

// Wire names for the supported data types.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
	DTypeUint8   = "uint8"
)

// Flags for the .latc format.
const (
	FlagCompressed      uint32 = 1 << 0 // bit 0: gzip compression (reserved)
	FlagHasArchitecture uint32 = 1 << 1 // bit 1: architecture config included
	FlagHasMetadata     uint32 = 1 << 2 // bit 2: custom metadata included
)

// Header represents the JSON header in a .latc file.
type Header struct {
	FormatVersion  int               `json:"format_version"`         // Version of the .latc format
	LatticeVersion string            `json:"lattice_version"`        // Version of Lattice that created this file
	ModelType      string            `json:"model_type"`             // Type of model (e.g., "Model")
	CreatedAt      time.Time         `json:"created_at"`             // When the file was created
	Architecture   json.RawMessage   `json:"architecture,omitempty"` // Layer graph config (model package JSON)
	Tensors        []TensorMeta      `json:"tensors"`                // Tensor index
	Metadata       map[string]string `json:"metadata"`               // Custom metadata
}

// TensorMeta is one entry in the tensor index.
type TensorMeta struct {
	Name   string `json:"name"`   // e.g. "conv1.kernel"
	DType  string `json:"dtype"`  // wire name, see the DType constants
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // payload bytes
}

var (
	dtypeNames = map[tensor.DataType]string{
		tensor.Float32: DTypeFloat32,
		tensor.Float64: DTypeFloat64,
		tensor.Int32:   DTypeInt32,
		tensor.Int64:   DTypeInt64,
		tensor.Uint8:   DTypeUint8,
	}
	dtypeFromName = map[string]tensor.DataType{
		DTypeFloat32: tensor.Float32,
		DTypeFloat64: tensor.Float64,
		DTypeInt32:   tensor.Int32,
		DTypeInt64:   tensor.Int64,
		DTypeUint8:   tensor.Uint8,
	}
)

// dtypeToString converts tensor.DataType to its wire name.
func dtypeToString(dt tensor.DataType) string {
	if name, ok := dtypeNames[dt]; ok {
		return name
	}
	return "unknown"
}

// stringToDtype converts a wire name to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	dt, ok := dtypeFromName[s]
	return dt, ok
}

// alignTo rounds pos up to the next multiple of HeaderAlignment, which is
// a power of two.
func alignTo(pos int64) int64 {
	return (pos + HeaderAlignment - 1) &^ (HeaderAlignment - 1)
}

// fixedHeader carries the decoded 64-byte preamble, the read-side mirror
// of packFixedHeader.
type fixedHeader struct {
	version    uint32
	flags      uint32
	headerSize uint64
	dataSize   int64
	checksum   [ChecksumSize]byte
}

// parseFixedHeader decodes and checks the preamble. buf must hold at
// least FixedHeaderSize bytes.
func parseFixedHeader(buf []byte) (fixedHeader, error) {
	var fh fixedHeader

	if string(buf[:4]) != MagicBytes {
		return fh, ErrInvalidMagic
	}

	fh.version = binary.LittleEndian.Uint32(buf[4:8])
	if fh.version != FormatVersion {
		return fh, fmt.Errorf("%w: file has version %d, this build reads %d",
			ErrUnsupportedVersion, fh.version, FormatVersion)
	}

	fh.flags = binary.LittleEndian.Uint32(buf[8:12])

	fh.headerSize = binary.LittleEndian.Uint64(buf[16:24])
	if fh.headerSize > MaxHeaderSize {
		return fh, ErrHeaderTooLarge
	}

	// Cap well below int64 so downstream offset arithmetic cannot wrap.
	rawSize := binary.LittleEndian.Uint64(buf[24:32])
	if rawSize > uint64(1)<<62 {
		return fh, fmt.Errorf("data size too large: %d", rawSize)
	}
	fh.dataSize = int64(rawSize)

	copy(fh.checksum[:], buf[ChecksumOffset:ChecksumOffset+ChecksumSize])
	return fh, nil
}

// materialize decodes one index entry plus its payload bytes into a
// RawTensor on the backend's device. The payload must match the byte size
// the entry's shape implies.
func materialize(meta *TensorMeta, data []byte, backend tensor.Backend) (*tensor.RawTensor, error) {
	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, fmt.Errorf("tensor %s: unknown dtype %q", meta.Name, meta.DType)
	}

	raw, err := tensor.NewRawFrom(tensor.Shape(meta.Shape), dtype, backend.Device(), data)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", meta.Name, err)
	}
	return raw, nil
}
