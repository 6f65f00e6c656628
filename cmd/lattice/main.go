// Command lattice prints version information and inspects LATC model
// archives.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"k8s.io/klog/v2"

	"github.com/lattice-ml/lattice/internal/backend/cpu"
	"github.com/lattice-ml/lattice/internal/loader"
	"github.com/lattice-ml/lattice/internal/model"
	"github.com/lattice-ml/lattice/internal/serialization"
)

const version = "v0.2.0"

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return
	}

	switch args[0] {
	case "version":
		fmt.Printf("Lattice ML Framework %s\n", version)
	case "inspect":
		requireArg(args, "inspect <model.latc|model.safetensors>")
		exitOn(inspect(args[1]))
	case "summary":
		requireArg(args, "summary <model.latc>")
		exitOn(summary(args[1]))
	default:
		fmt.Fprintf(os.Stderr, "lattice: unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("Lattice ML Framework - Neural network inference for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version           Show version")
	fmt.Println("  inspect <file>    Describe a .latc or .safetensors weight file")
	fmt.Println("  summary <file>    Rebuild the model from an archive and print its layers")
}

func requireArg(args []string, use string) {
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: lattice %s\n", use)
		os.Exit(2)
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "lattice: %v\n", err)
		os.Exit(1)
	}
}

func inspect(path string) error {
	switch loader.DetectFormat(path) {
	case loader.FormatLattice:
		return inspectLattice(path)
	case loader.FormatSafeTensors:
		return inspectSafeTensors(path)
	default:
		return fmt.Errorf("unrecognized model format %q (want .latc or .safetensors)", filepath.Ext(path))
	}
}

func inspectLattice(path string) error {
	r, err := serialization.NewLatticeReader(path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	h := r.Header()
	fmt.Printf("Format:        LATC v%d\n", r.Version())
	fmt.Printf("Written by:    lattice %s\n", h.LatticeVersion)
	fmt.Printf("Model type:    %s\n", h.ModelType)
	if !h.CreatedAt.IsZero() {
		fmt.Printf("Created:       %s\n", h.CreatedAt.Format(time.RFC3339))
	}
	fmt.Printf("Checksum:      %x\n", r.Checksum())
	fmt.Printf("Architecture:  %s\n", yesNo(r.Flags()&serialization.FlagHasArchitecture != 0))
	printMetadata(r.Metadata())

	fmt.Printf("\nTensors (%d):\n", len(h.Tensors))
	var total int64
	for _, meta := range h.Tensors {
		fmt.Printf("  %-32s %-8s %-16v %10d bytes\n", meta.Name, meta.DType, meta.Shape, meta.Size)
		total += meta.Size
	}
	fmt.Printf("Total tensor data: %d bytes\n", total)
	return nil
}

func inspectSafeTensors(path string) error {
	r, err := loader.NewSafeTensorsReader(path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	names := r.TensorNames()
	fmt.Println("Format:        SafeTensors")
	fmt.Printf("Naming:        %s\n", loader.DetectArchitecture(names))
	printMetadata(r.Metadata())

	fmt.Printf("\nTensors (%d):\n", len(names))
	var total int64
	for _, name := range names {
		info, err := r.TensorInfo(name)
		if err != nil {
			return err
		}
		size := info.DataOffsets[1] - info.DataOffsets[0]
		fmt.Printf("  %-32s %-8s %-16v %10d bytes\n", name, info.DType, info.Shape, size)
		total += size
	}
	fmt.Printf("Total tensor data: %d bytes\n", total)
	return nil
}

// summary rebuilds the model on the CPU backend so the layer stack can
// be printed; it needs an archive that carries architecture JSON.
func summary(path string) error {
	m, err := model.Load(path, cpu.New())
	if err != nil {
		return err
	}
	fmt.Print(m.Summary())
	return nil
}

func printMetadata(meta map[string]string) {
	if len(meta) == 0 {
		return
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Println("Metadata:")
	for _, k := range keys {
		fmt.Printf("  %s: %s\n", k, meta[k])
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
