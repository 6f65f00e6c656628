// Package loader opens model weight files in any container format Lattice
// understands (SafeTensors, Lattice native archives) behind one interface.
//
// Example usage:
//
//	model, err := loader.OpenModel("mnist.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer model.Close()
//
//	// The container format came from the extension.
//	fmt.Println(model.Format())
//
//	// Read all tensors under canonical names
//	tensors, err := model.ReadTensors(cpu.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
package loader

import (
	"github.com/lattice-ml/lattice/internal/loader"
)

// ModelFormat tags the container format of a weight file.
type ModelFormat = loader.ModelFormat

// Container formats OpenModel understands.
const (
	FormatUnknown     ModelFormat = loader.FormatUnknown
	FormatSafeTensors ModelFormat = loader.FormatSafeTensors
	FormatLattice     ModelFormat = loader.FormatLattice
)

// DetectFormat identifies the container format from the file extension.
func DetectFormat(path string) ModelFormat {
	return loader.DetectFormat(path)
}

// ModelReader is the format-independent view over a weight file. Whatever
// the container, tensors are listed and read under canonical
// "<layer>.<variable>" names.
//
// ModelReader is an alias rather than a local interface: its methods return
// internal tensor values, which a wrapper would have to re-wrap on every call.
type ModelReader = loader.ModelReader

// OpenModel opens a model weight file, picking the reader from the
// extension: .safetensors (the Hugging Face interchange format) or .latc
// (the Lattice native archive).
//
// SafeTensors names are translated to canonical names at open time using
// the detected naming convention; Keras/TensorFlow export names like
// "conv1/kernel:0" become "conv1.kernel".
//
// Example:
//
//	model, err := loader.OpenModel("weights/mnist.latc")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer model.Close()
//
//	fmt.Println(model.TensorNames())
func OpenModel(path string) (ModelReader, error) {
	return loader.OpenModel(path)
}

// WeightMapper maps export-specific weight names to canonical Lattice
// names ("<layer>.<variable>"). Different export pipelines use different
// naming conventions; this interface normalizes them.
type WeightMapper = loader.WeightMapper

// NewKerasMapper creates a weight mapper for Keras/TensorFlow exports.
// Checkpoint names ("conv1/kernel:0") and TensorFlow.js manifest names
// ("sequential/conv1/kernel") both map to "conv1.kernel".
func NewKerasMapper() WeightMapper {
	return loader.NewKerasMapper()
}

// NewNativeMapper creates a weight mapper that passes canonical names
// through unchanged.
func NewNativeMapper() WeightMapper {
	return loader.NewNativeMapper()
}

// DetectArchitecture attempts to detect the naming convention from weight
// names. Returns "keras" or "native".
func DetectArchitecture(names []string) string {
	return loader.DetectArchitecture(names)
}

// GetMapper returns the weight mapper for a naming convention detected by
// DetectArchitecture.
func GetMapper(architecture string) WeightMapper {
	return loader.GetMapper(architecture)
}
