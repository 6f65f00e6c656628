package loader

import (
	"fmt"
	"strings"
)

// Naming conventions a weight file can arrive in.
const (
	ArchitectureKeras  = "keras"
	ArchitectureNative = "native"
)

// WeightMapper maps export-specific weight names to canonical Lattice names.
// Canonical names are "<layer>.<variable>", e.g. "conv1.kernel".
type WeightMapper interface {
	// MapName converts an export-specific weight name to the canonical name.
	MapName(name string) (string, error)

	// Architecture returns the naming convention name (e.g., "keras").
	Architecture() string
}

// KerasMapper maps Keras/TensorFlow export names to canonical Lattice names.
// Supports both checkpoint names ("conv1/kernel:0") and TensorFlow.js
// manifest names ("sequential/conv1/kernel").
type KerasMapper struct{}

// NewKerasMapper creates a new Keras weight mapper.
func NewKerasMapper() *KerasMapper {
	return &KerasMapper{}
}

// MapName converts Keras weight names to canonical Lattice names.
// Keras format:
//   - conv1/kernel:0 -> conv1.kernel
//   - sequential/dense_1/bias -> dense_1.bias
//   - max_pooling2d/... scopes without variables pass through unchanged
//
// When a name carries nested scopes, only the last two segments (layer and
// variable) are kept; outer model scopes like "sequential" are dropped.
func (m *KerasMapper) MapName(name string) (string, error) {
	mapped := name

	// Strip the TensorFlow variable suffix (":0")
	if i := strings.IndexByte(mapped, ':'); i >= 0 {
		mapped = mapped[:i]
	}

	parts := strings.Split(mapped, "/")
	if len(parts) == 1 {
		return mapped, nil
	}

	layer := parts[len(parts)-2]
	variable := parts[len(parts)-1]
	if layer == "" || variable == "" {
		return "", fmt.Errorf("invalid weight name %q", name)
	}

	return layer + "." + variable, nil
}

// Architecture returns "keras".
func (m *KerasMapper) Architecture() string {
	return ArchitectureKeras
}

// NativeMapper passes canonical Lattice names through unchanged.
type NativeMapper struct{}

// NewNativeMapper creates a new native weight mapper.
func NewNativeMapper() *NativeMapper {
	return &NativeMapper{}
}

// MapName returns the name unchanged; native files already use
// "<layer>.<variable>" names.
func (m *NativeMapper) MapName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("invalid weight name %q", name)
	}
	return name, nil
}

// Architecture returns "native".
func (m *NativeMapper) Architecture() string {
	return ArchitectureNative
}

// DetectArchitecture attempts to detect the naming convention from weight names.
func DetectArchitecture(names []string) string {
	// Keras/TensorFlow exports scope names with "/" and suffix variables with ":0"
	for _, name := range names {
		if strings.ContainsAny(name, "/:") {
			return ArchitectureKeras
		}
	}

	// Default to native (most common)
	return ArchitectureNative
}

// GetMapper returns the appropriate weight mapper for a naming convention.
func GetMapper(architecture string) WeightMapper {
	switch architecture {
	case ArchitectureKeras:
		return NewKerasMapper()
	case ArchitectureNative:
		return NewNativeMapper()
	default:
		return NewNativeMapper() // Default to native
	}
}
