package serialization

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// LatticeReader reads .latc model archives from disk.
//
// The header is decoded once at open; tensor payloads are fetched on
// demand through ReadAt, so a single reader may serve concurrent
// LoadTensor calls.
type LatticeReader struct {
	file    *os.File
	header  Header
	fixed   fixedHeader
	payload int64 // file offset of the first tensor byte
	index   map[string]int
	opts    ReaderOptions
	closed  bool
}

// ReaderOptions configures archive opening.
type ReaderOptions struct {
	// SkipChecksumValidation skips hashing the data section at open.
	// Opening large archives gets much cheaper; corruption then shows
	// up as garbage weights instead of an error.
	SkipChecksumValidation bool

	// ValidationLevel selects how strictly the header is checked.
	ValidationLevel ValidationLevel
}

// NewLatticeReader opens a .latc archive with strict validation.
func NewLatticeReader(path string) (*LatticeReader, error) {
	return NewLatticeReaderWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// NewLatticeReaderWithOptions opens a .latc archive with explicit options.
func NewLatticeReaderWithOptions(path string, opts ReaderOptions) (*LatticeReader, error) {
	//nolint:gosec // G304: the caller chooses which model file to open
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	r := &LatticeReader{file: file, opts: opts}
	if err := r.load(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

// load runs every check that happens at open time.
func (r *LatticeReader) load() error {
	if err := r.readHeader(); err != nil {
		return fmt.Errorf("parse header: %w", err)
	}
	if err := ValidateHeader(&r.header, r.fixed.dataSize, r.opts.ValidationLevel); err != nil {
		return fmt.Errorf("validate header: %w", err)
	}
	if r.opts.SkipChecksumValidation {
		return nil
	}
	return r.verifyChecksum()
}

func (r *LatticeReader) readHeader() error {
	prologue := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r.file, prologue); err != nil {
		return fmt.Errorf("read fixed header: %w", err)
	}
	fixed, err := parseFixedHeader(prologue)
	if err != nil {
		return err
	}
	r.fixed = fixed

	encoded := make([]byte, fixed.headerSize)
	if _, err := io.ReadFull(r.file, encoded); err != nil {
		return fmt.Errorf("read header JSON: %w", err)
	}
	if err := json.Unmarshal(encoded, &r.header); err != nil {
		return fmt.Errorf("decode header JSON: %w", err)
	}

	r.index = make(map[string]int, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		r.index[meta.Name] = i
	}

	// Payload starts at the first 64-byte boundary after the JSON, and
	// the whole data section must fit inside the file.
	//nolint:gosec // G115: headerSize is capped at MaxHeaderSize
	r.payload = alignTo(int64(FixedHeaderSize) + int64(fixed.headerSize))

	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	if r.payload+r.fixed.dataSize > info.Size() {
		return fmt.Errorf("data section extends beyond file: offset %d + size %d > file size %d",
			r.payload, r.fixed.dataSize, info.Size())
	}
	return nil
}

// verifyChecksum hashes the data section and compares against the stored
// checksum.
func (r *LatticeReader) verifyChecksum() error {
	if _, err := r.file.Seek(r.payload, io.SeekStart); err != nil {
		return fmt.Errorf("seek to data section: %w", err)
	}
	computed, err := ComputeChecksumReader(io.LimitReader(r.file, r.fixed.dataSize))
	if err != nil {
		return fmt.Errorf("hash data section: %w", err)
	}
	return ValidateChecksum(computed, r.fixed.checksum)
}

// Header returns the decoded file header.
func (r *LatticeReader) Header() Header { return r.header }

// Version returns the format version.
func (r *LatticeReader) Version() uint32 { return r.fixed.version }

// Flags returns the header flag bits.
func (r *LatticeReader) Flags() uint32 { return r.fixed.flags }

// Checksum returns the stored SHA-256 checksum of the data section.
func (r *LatticeReader) Checksum() [32]byte { return r.fixed.checksum }

// Metadata returns the custom metadata map.
func (r *LatticeReader) Metadata() map[string]string { return r.header.Metadata }

// Architecture returns the embedded architecture config, or nil if absent.
func (r *LatticeReader) Architecture() json.RawMessage { return r.header.Architecture }

// TensorNames returns the tensor names in index order, which WriteArchive
// lays out sorted.
func (r *LatticeReader) TensorNames() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		names = append(names, meta.Name)
	}
	return names
}

// TensorInfo returns the index entry for one tensor.
func (r *LatticeReader) TensorInfo(name string) (*TensorMeta, error) {
	i, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("no tensor named %q", name)
	}
	return &r.header.Tensors[i], nil
}

func (r *LatticeReader) ensureOpen() error {
	if r.closed {
		return fmt.Errorf("archive reader already closed")
	}
	return nil
}

// ReadTensorData returns a fresh buffer holding one tensor's bytes.
func (r *LatticeReader) ReadTensorData(name string) ([]byte, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	data := make([]byte, meta.Size)
	if _, err := r.file.ReadAt(data, r.payload+meta.Offset); err != nil {
		return nil, fmt.Errorf("read tensor %s: %w", name, err)
	}
	return data, nil
}

// LoadTensor materializes one tensor on the given backend.
func (r *LatticeReader) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	data, err := r.ReadTensorData(name)
	if err != nil {
		return nil, err
	}
	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	return materialize(meta, data, backend)
}

// ReadTensors materializes every tensor in the archive, keyed by name.
func (r *LatticeReader) ReadTensors(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}

	tensors := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		raw, err := r.LoadTensor(meta.Name, backend)
		if err != nil {
			return nil, err
		}
		tensors[meta.Name] = raw
	}
	return tensors, nil
}

// Close closes the underlying file. Safe to call more than once.
func (r *LatticeReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// ReadFrom decodes a .latc archive from a stream, for buffers and network
// connections where seeking is not available. Tensors must be laid out
// back to back the way WriteTo produces them; the data checksum is
// verified as the stream is consumed.
func ReadFrom(reader io.Reader, backend tensor.Backend) (map[string]*tensor.RawTensor, Header, error) {
	prologue := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(reader, prologue); err != nil {
		return nil, Header{}, fmt.Errorf("read fixed header: %w", err)
	}
	fixed, err := parseFixedHeader(prologue)
	if err != nil {
		return nil, Header{}, err
	}

	encoded := make([]byte, fixed.headerSize)
	if _, err := io.ReadFull(reader, encoded); err != nil {
		return nil, Header{}, fmt.Errorf("read header JSON: %w", err)
	}
	var header Header
	if err := json.Unmarshal(encoded, &header); err != nil {
		return nil, Header{}, fmt.Errorf("decode header JSON: %w", err)
	}

	// Offsets cannot be bounds-checked without the data section in hand;
	// the contiguity check in the read loop subsumes the offset scan.
	if err := ValidateHeader(&header, 0, ValidationNormal); err != nil {
		return nil, Header{}, fmt.Errorf("validate header: %w", err)
	}

	//nolint:gosec // G115: headerSize is capped at MaxHeaderSize
	pos := int64(FixedHeaderSize) + int64(fixed.headerSize)
	if pad := alignTo(pos) - pos; pad > 0 {
		if _, err := io.CopyN(io.Discard, reader, pad); err != nil {
			return nil, Header{}, fmt.Errorf("skip alignment padding: %w", err)
		}
	}

	hash := sha256.New()
	tensors := make(map[string]*tensor.RawTensor, len(header.Tensors))
	var next int64
	for i := range header.Tensors {
		meta := &header.Tensors[i]
		if meta.Size < 0 {
			return nil, Header{}, fmt.Errorf("tensor %s: negative size %d", meta.Name, meta.Size)
		}
		if meta.Offset != next {
			return nil, Header{}, fmt.Errorf("tensor %s: index offset %d, stream position %d",
				meta.Name, meta.Offset, next)
		}

		data := make([]byte, meta.Size)
		if _, err := io.ReadFull(reader, data); err != nil {
			return nil, Header{}, fmt.Errorf("read tensor %s: %w", meta.Name, err)
		}
		hash.Write(data)
		next += meta.Size

		raw, err := materialize(meta, data, backend)
		if err != nil {
			return nil, Header{}, err
		}
		tensors[meta.Name] = raw
	}

	var computed [32]byte
	copy(computed[:], hash.Sum(nil))
	if err := ValidateChecksum(computed, fixed.checksum); err != nil {
		return nil, Header{}, err
	}
	return tensors, header, nil
}
