package serialization

import (
	"errors"
	"fmt"
)

// Sentinels reported while reading or validating an archive. Callers match
// them with errors.Is; wrap sites add the file and tensor context.
var (
	ErrChecksumMismatch   = errors.New("stored checksum does not match the data section")
	ErrOffsetOverlap      = errors.New("tensor data ranges overlap")
	ErrOutOfBounds        = errors.New("tensor runs past the data section")
	ErrNegativeOffset     = errors.New("tensor offset or size is negative")
	ErrTooManyTensors     = errors.New("tensor count exceeds the archive limit")
	ErrTensorNameTooLong  = errors.New("tensor name exceeds the length limit")
	ErrInvalidTensorName  = errors.New("tensor name is empty or malformed")
	ErrHeaderTooLarge     = errors.New("header larger than the size limit")
	ErrInvalidMagic       = errors.New("not a lattice archive")
	ErrUnsupportedVersion = errors.New("unsupported archive version")
)

// Failure tags carried in ValidationError.Type.
const (
	errTypeOffsetOverlap  = "offset_overlap"
	errTypeOutOfBounds    = "out_of_bounds"
	errTypeNegativeOffset = "negative_offset"
	errTypeTooManyTensors = "too_many_tensors"
	errTypeNameTooLong    = "name_too_long"
	errTypeInvalidName    = "invalid_name"
)

// validationSentinels maps each failure tag to the sentinel error matched
// by errors.Is.
var validationSentinels = map[string]error{
	errTypeOffsetOverlap:  ErrOffsetOverlap,
	errTypeOutOfBounds:    ErrOutOfBounds,
	errTypeNegativeOffset: ErrNegativeOffset,
	errTypeTooManyTensors: ErrTooManyTensors,
	errTypeNameTooLong:    ErrTensorNameTooLong,
	errTypeInvalidName:    ErrInvalidTensorName,
}

// ValidationError pairs a failure tag with the tensor(s) that tripped it.
type ValidationError struct {
	Type    string // Failure tag (e.g., "offset_overlap")
	Tensor  string // Offending tensor, when known
	Tensor2 string // Second tensor for overlap reports
	Details string // Human-readable specifics
}

// Error renders the tag, the tensors involved, and the specifics.
func (e *ValidationError) Error() string {
	switch {
	case e.Tensor2 != "":
		return fmt.Sprintf("%s: tensor %q overlaps %q: %s", e.Type, e.Tensor, e.Tensor2, e.Details)
	case e.Tensor != "":
		return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
	default:
		return fmt.Sprintf("%s: %s", e.Type, e.Details)
	}
}

// Unwrap maps the failure tag to its sentinel error so callers can match
// with errors.Is. Unknown tags unwrap to nil.
func (e *ValidationError) Unwrap() error {
	return validationSentinels[e.Type]
}
