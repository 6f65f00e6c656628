// Package loader reads and writes model weight files.
//
// This package implements the SafeTensors container (the Hugging Face
// standard for exported weights) plus weight-name normalization for the
// export conventions Lattice accepts:
//   - Keras/TensorFlow exports: "conv1/kernel:0", "sequential/dense/bias"
//   - Native names: "conv1.kernel", "dense.bias"
//
// Lattice layers compute in float32, so F16 and BF16 payloads are widened
// to float32 on load. Integer dtypes are loaded as-is.
//
// Example:
//
//	reader, err := loader.NewSafeTensorsReader("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reader.Close()
//
//	mapper := loader.GetMapper(loader.DetectArchitecture(reader.TensorNames()))
//	for _, name := range reader.TensorNames() {
//	    canonical, err := mapper.MapName(name)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    raw, err := reader.LoadTensor(name, backend)
//	    ...
//	}
//
// The readers are pure Go with no cgo, and tensor payloads are read on
// demand rather than at open time.
package loader
