package serialization

import (
	"cmp"
	"crypto/sha256"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Hard limits on untrusted input. Files claiming more are rejected before
// anything proportional to the claim is allocated.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
	MaxMetadataSize  = 10 * 1024 * 1024 // 10MB
)

// ValidationLevel selects how much of an archive header gets checked.
type ValidationLevel int

const (
	// ValidationStrict runs every check, including the offset scan. Default.
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks counts and names but skips the offset scan.
	ValidationNormal
	// ValidationNone disables validation. Only for trusted input.
	ValidationNone
)

// ComputeChecksum hashes a payload with SHA-256.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ComputeChecksumReader hashes r with SHA-256 without buffering it whole,
// for payloads too large to hold in memory.
func ComputeChecksumReader(r io.Reader) ([32]byte, error) {
	var sum [32]byte
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return sum, err
	}
	h.Sum(sum[:0])
	return sum, nil
}

// ValidateChecksum reports ErrChecksumMismatch unless computed equals the
// checksum stored in the file.
func ValidateChecksum(computed, stored [32]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}

// ValidateTensorOffsets rejects tensor tables whose regions are negative,
// reach past the data section, or overlap each other. A malformed table is
// how a hostile file reads memory it should not see.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    errTypeTooManyTensors,
			Details: fmt.Sprintf("%d tensors, limit %d", len(tensors), MaxTensorCount),
		}
	}

	for _, t := range tensors {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    errTypeNegativeOffset,
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d, size %d", t.Offset, t.Size),
			}
		}
		// Subtraction form: offset+size could wrap int64 on hostile values.
		if t.Size > dataSize-t.Offset {
			return &ValidationError{
				Type:    errTypeOutOfBounds,
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d, size %d, data size %d", t.Offset, t.Size, dataSize),
			}
		}
	}

	// Adjacent regions in offset order are the only overlap candidates.
	sorted := slices.Clone(tensors)
	slices.SortFunc(sorted, func(a, b TensorMeta) int {
		return cmp.Compare(a.Offset, b.Offset)
	})

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Offset+prev.Size > cur.Offset {
			return &ValidationError{
				Type:    errTypeOffsetOverlap,
				Tensor:  prev.Name,
				Tensor2: cur.Name,
				Details: fmt.Sprintf("[%d, %d) runs into [%d, %d)",
					prev.Offset, prev.Offset+prev.Size, cur.Offset, cur.Offset+cur.Size),
			}
		}
	}

	return nil
}

// ValidateTensorName rejects names that could escape the archive namespace:
// overlong names, path fragments, and embedded null bytes.
func ValidateTensorName(name string) error {
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    errTypeNameTooLong,
			Tensor:  name,
			Details: fmt.Sprintf("%d bytes, limit %d", len(name), MaxTensorNameLen),
		}
	}

	for _, bad := range [...]struct{ substr, detail string }{
		{"..", `".." path segment`},
		{"/", "path separator"},
		{"\\", "path separator"},
		{"\x00", "NUL byte"},
	} {
		if strings.Contains(name, bad.substr) {
			return &ValidationError{
				Type:    errTypeInvalidName,
				Tensor:  name,
				Details: bad.detail,
			}
		}
	}

	return nil
}

// ValidateHeader checks a decoded header against level before any tensor
// data is touched.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    errTypeTooManyTensors,
			Details: fmt.Sprintf("%d tensors, limit %d", len(h.Tensors), MaxTensorCount),
		}
	}

	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
	}

	// The offset scan sorts the tensor table, so it is strict-only.
	if level == ValidationStrict {
		return ValidateTensorOffsets(h.Tensors, dataSize)
	}

	return nil
}
