package loader

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/klog/v2"

	"github.com/lattice-ml/lattice/internal/serialization"
	"github.com/lattice-ml/lattice/internal/tensor"
)

// ModelFormat identifies a supported weight container format.
type ModelFormat int

const (
	// FormatUnknown is returned for unrecognized files.
	FormatUnknown ModelFormat = iota
	// FormatSafeTensors is the HuggingFace SafeTensors format (.safetensors).
	FormatSafeTensors
	// FormatLattice is the native archive format (.latc).
	FormatLattice
)

// String names the format for logs and errors.
func (f ModelFormat) String() string {
	switch f {
	case FormatSafeTensors:
		return "safetensors"
	case FormatLattice:
		return "lattice"
	default:
		return "unknown"
	}
}

// DetectFormat identifies the container format from the file extension.
func DetectFormat(path string) ModelFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".safetensors":
		return FormatSafeTensors
	case ".latc":
		return FormatLattice
	default:
		return FormatUnknown
	}
}

// ModelReader provides uniform access to stored weights regardless of the
// container format. Tensor names are canonical "layer.variable" names;
// foreign naming conventions are translated when the file is opened.
type ModelReader interface {
	// Format reports the underlying container format.
	Format() ModelFormat
	// Convention reports the weight naming convention detected in the file.
	Convention() string
	// Metadata returns the free-form key/value metadata stored in the file.
	Metadata() map[string]string
	// TensorNames returns the canonical tensor names in sorted order.
	TensorNames() []string
	// LoadTensor loads a single tensor by canonical name.
	LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error)
	// ReadTensors loads all tensors keyed by canonical name.
	ReadTensors(backend tensor.Backend) (map[string]*tensor.RawTensor, error)
	// Close releases the underlying file handle.
	Close() error
}

// OpenModel opens a weight file, dispatching on the file extension.
// Supported formats: .safetensors and .latc.
func OpenModel(path string) (ModelReader, error) {
	switch DetectFormat(path) {
	case FormatSafeTensors:
		return openSafeTensors(path)
	case FormatLattice:
		return openLattice(path)
	default:
		return nil, fmt.Errorf("unsupported model format: %q", filepath.Ext(path))
	}
}

// safeTensorsModel adapts a SafeTensorsReader to the ModelReader interface,
// translating stored names to canonical form through a WeightMapper.
type safeTensorsModel struct {
	reader *SafeTensorsReader
	mapper WeightMapper
	names  []string          // canonical names, sorted
	stored map[string]string // canonical name -> name as stored in the file
}

func openSafeTensors(path string) (*safeTensorsModel, error) {
	reader, err := NewSafeTensorsReader(path)
	if err != nil {
		return nil, err
	}

	raw := reader.TensorNames()
	arch := DetectArchitecture(raw)
	mapper := GetMapper(arch)

	m := &safeTensorsModel{
		reader: reader,
		mapper: mapper,
		names:  make([]string, 0, len(raw)),
		stored: make(map[string]string, len(raw)),
	}
	for _, name := range raw {
		canonical, err := mapper.MapName(name)
		if err != nil {
			_ = reader.Close()
			return nil, fmt.Errorf("map weight name %q: %w", name, err)
		}
		if prev, ok := m.stored[canonical]; ok {
			_ = reader.Close()
			return nil, fmt.Errorf("weight names %q and %q both map to %q", prev, name, canonical)
		}
		m.stored[canonical] = name
		m.names = append(m.names, canonical)
	}
	sort.Strings(m.names)
	klog.V(1).Infof("Opened %s: %d tensors, %s names", path, len(m.names), arch)

	return m, nil
}

func (m *safeTensorsModel) Format() ModelFormat { return FormatSafeTensors }

func (m *safeTensorsModel) Convention() string { return m.mapper.Architecture() }

func (m *safeTensorsModel) Metadata() map[string]string { return m.reader.Metadata() }

func (m *safeTensorsModel) TensorNames() []string { return m.names }

func (m *safeTensorsModel) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	stored, ok := m.stored[name]
	if !ok {
		return nil, fmt.Errorf("no tensor named %q", name)
	}
	return m.reader.LoadTensor(stored, backend)
}

func (m *safeTensorsModel) ReadTensors(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	tensors := make(map[string]*tensor.RawTensor, len(m.names))
	for _, name := range m.names {
		raw, err := m.LoadTensor(name, backend)
		if err != nil {
			return nil, fmt.Errorf("load tensor %s: %w", name, err)
		}
		tensors[name] = raw
	}
	return tensors, nil
}

func (m *safeTensorsModel) Close() error { return m.reader.Close() }

// latticeModel adapts a serialization.LatticeReader to the ModelReader
// interface. Archive names are already canonical.
type latticeModel struct {
	reader *serialization.LatticeReader
	names  []string
}

func openLattice(path string) (*latticeModel, error) {
	reader, err := serialization.NewLatticeReader(path)
	if err != nil {
		return nil, err
	}

	names := reader.TensorNames()
	sort.Strings(names)

	klog.V(1).Infof("Opened %s: %d tensors", path, len(names))
	return &latticeModel{reader: reader, names: names}, nil
}

func (m *latticeModel) Format() ModelFormat { return FormatLattice }

func (m *latticeModel) Convention() string { return ArchitectureNative }

func (m *latticeModel) Metadata() map[string]string { return m.reader.Metadata() }

func (m *latticeModel) TensorNames() []string { return m.names }

func (m *latticeModel) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	return m.reader.LoadTensor(name, backend)
}

func (m *latticeModel) ReadTensors(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	return m.reader.ReadTensors(backend)
}

func (m *latticeModel) Close() error { return m.reader.Close() }
