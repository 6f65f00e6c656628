// Package serialization reads and writes LATC, the single-file archive
// Lattice models are saved as. One archive holds the architecture
// config, the tensor data, and free-form metadata.
//
// On disk an archive is a fixed 64-byte header, a JSON header, and an
// aligned data section:
//
//	offset  field
//	0x00    magic "LATC"
//	0x04    version (uint32 LE)
//	0x08    flags (uint32 LE)
//	0x0C    reserved
//	0x10    JSON header size (uint64 LE)
//	0x18    data section size (uint64 LE)
//	0x20    SHA-256 of the data section
//	0x40    JSON header: model type, architecture, tensor index, metadata
//	...     data section, each tensor's start aligned to 64 bytes
//
// Tensors of any rank and dtype are stored uncompressed. Readers verify
// the SHA-256 checksum and the tensor index bounds on open (see
// ValidationLevel); MmapReader maps the data section instead of reading
// it into memory.
//
// Example usage:
//
//	// Save weights
//	writer, err := serialization.NewLatticeWriter("model.latc")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := writer.WriteTensors(weights, serialization.Header{ModelType: "Model"}); err != nil {
//	    log.Fatal(err)
//	}
//	writer.Close()
//
//	// Load weights
//	reader, err := serialization.NewLatticeReader("model.latc")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reader.Close()
//	weights, err := reader.ReadTensors(backend)
package serialization
