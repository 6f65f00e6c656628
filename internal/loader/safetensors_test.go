package loader

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/lattice-ml/lattice/internal/backend/cpu"
	"github.com/lattice-ml/lattice/internal/tensor"
)

// f32le encodes values as a little-endian float32 payload.
func f32le(values ...float32) []byte {
	buf := make([]byte, 0, len(values)*4)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

// f16le encodes values as a little-endian IEEE half payload.
func f16le(values ...float32) []byte {
	buf := make([]byte, 0, len(values)*2)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint16(buf, float16.Fromfloat32(v).Bits())
	}
	return buf
}

// writeSafeTensorsFile writes a SafeTensors file with the given header entries
// and raw payload so tests control the exact bytes on disk.
func writeSafeTensorsFile(t *testing.T, path string, tensors map[string]SafeTensorInfo, payload []byte) {
	t.Helper()

	entries := map[string]any{"__metadata__": map[string]string{"format": "keras"}}
	for name, info := range tensors {
		entries[name] = info
	}
	headerJSON, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("Marshal header failed: %v", err)
	}

	buf := binary.LittleEndian.AppendUint64(nil, uint64(len(headerJSON)))
	buf = append(buf, headerJSON...)
	buf = append(buf, payload...)
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

// The standard fixture: weight is a [4, 2] ramp in steps of 1.5, bias two
// quarters. Every value is exact in float32, so tests compare with ==.
var (
	fixtureWeight = []float32{-3, -1.5, 0, 1.5, 3, 4.5, 6, 7.5}
	fixtureBias   = []float32{0.25, -0.25}
)

// createTestSafeTensorsFile writes the standard two-tensor F32 fixture.
func createTestSafeTensorsFile(t *testing.T, path string) {
	t.Helper()

	entries := map[string]SafeTensorInfo{
		"weight": {DType: SafeTensorsF32, Shape: []int{4, 2}, DataOffsets: [2]int64{0, 32}},
		"bias":   {DType: SafeTensorsF32, Shape: []int{2}, DataOffsets: [2]int64{32, 40}},
	}
	writeSafeTensorsFile(t, path, entries, append(f32le(fixtureWeight...), f32le(fixtureBias...)...))
}

// openFixture writes the standard fixture to a temp file and opens it.
func openFixture(t *testing.T) *SafeTensorsReader {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.safetensors")
	createTestSafeTensorsFile(t, path)
	reader, err := NewSafeTensorsReader(path)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	t.Cleanup(func() { _ = reader.Close() })
	return reader
}

func TestNewSafeTensorsReader(t *testing.T) {
	reader := openFixture(t)

	if got := reader.Metadata()["format"]; got != "keras" {
		t.Errorf("Expected metadata format=keras, got %q", got)
	}

	names := reader.TensorNames()
	if !slices.Equal(names, []string{"bias", "weight"}) {
		t.Errorf("Expected sorted names [bias weight], got %v", names)
	}
}

func TestNewSafeTensorsReader_RejectsCorrupt(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
	}{
		{"empty file", nil},
		{"truncated length prefix", []byte{0x28, 0x00, 0x00}},
		{"length past end of file", append(binary.LittleEndian.AppendUint64(nil, 64), '{')},
		{"length over limit", binary.LittleEndian.AppendUint64(nil, maxSafeTensorsHeader+1)},
		{"header not JSON", append(binary.LittleEndian.AppendUint64(nil, 5), "hello"...)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.safetensors")
			if err := os.WriteFile(path, tc.raw, 0o600); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			if _, err := NewSafeTensorsReader(path); err == nil {
				t.Error("Expected open to fail")
			}
		})
	}

	if _, err := NewSafeTensorsReader(filepath.Join(t.TempDir(), "absent.safetensors")); err == nil {
		t.Error("Expected open to fail for a missing file")
	}
}

func TestSafeTensorsReader_NoMetadata(t *testing.T) {
	// Hand-written header without a __metadata__ key.
	headerJSON := []byte(`{"w":{"dtype":"F32","shape":[1],"data_offsets":[0,4]}}`)
	buf := binary.LittleEndian.AppendUint64(nil, uint64(len(headerJSON)))
	buf = append(buf, headerJSON...)
	buf = append(buf, f32le(2.5)...)

	path := filepath.Join(t.TempDir(), "bare.safetensors")
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	reader, err := NewSafeTensorsReader(path)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	defer reader.Close()

	if meta := reader.Metadata(); len(meta) != 0 {
		t.Errorf("Expected no metadata, got %v", meta)
	}

	raw, err := reader.LoadTensor("w", cpu.New())
	if err != nil {
		t.Fatalf("LoadTensor failed: %v", err)
	}
	if got := raw.AsFloat32(); got[0] != 2.5 {
		t.Errorf("Expected 2.5, got %f", got[0])
	}
}

func TestSafeTensorsReader_TensorInfo(t *testing.T) {
	reader := openFixture(t)

	info, err := reader.TensorInfo("weight")
	if err != nil {
		t.Fatalf("TensorInfo failed: %v", err)
	}
	if info.DType != SafeTensorsF32 {
		t.Errorf("Expected dtype F32, got %s", info.DType)
	}
	if !slices.Equal(info.Shape, []int{4, 2}) {
		t.Errorf("Expected shape [4 2], got %v", info.Shape)
	}

	if _, err := reader.TensorInfo("nonexistent"); err == nil {
		t.Error("Expected error for a name the header does not carry")
	}
}

func TestSafeTensorsReader_ReadTensorData(t *testing.T) {
	reader := openFixture(t)

	data, err := reader.ReadTensorData("bias")
	if err != nil {
		t.Fatalf("ReadTensorData failed: %v", err)
	}
	if len(data) != len(fixtureBias)*4 {
		t.Fatalf("Expected %d bytes, got %d", len(fixtureBias)*4, len(data))
	}
	for i, want := range fixtureBias {
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		if got != want {
			t.Errorf("Expected bias byte-decode [%d]=%f, got %f", i, want, got)
		}
	}

	if _, err := reader.ReadTensorData("nonexistent"); err == nil {
		t.Error("Expected error for a name the header does not carry")
	}
}

func TestSafeTensorsReader_LoadTensor(t *testing.T) {
	reader := openFixture(t)
	backend := cpu.New()

	weight, err := reader.LoadTensor("weight", backend)
	if err != nil {
		t.Fatalf("LoadTensor failed: %v", err)
	}
	if shape := weight.Shape(); !slices.Equal(shape, tensor.Shape{4, 2}) {
		t.Errorf("Expected shape [4 2], got %v", shape)
	}
	if weight.DType() != tensor.Float32 {
		t.Errorf("Expected dtype Float32, got %v", weight.DType())
	}
	if got := weight.AsFloat32(); !slices.Equal(got, fixtureWeight) {
		t.Errorf("Expected weight %v, got %v", fixtureWeight, got)
	}

	bias, err := reader.LoadTensor("bias", backend)
	if err != nil {
		t.Fatalf("LoadTensor failed: %v", err)
	}
	if got := bias.AsFloat32(); !slices.Equal(got, fixtureBias) {
		t.Errorf("Expected bias %v, got %v", fixtureBias, got)
	}
}

func TestSafeTensorsReader_WidensHalfPrecision(t *testing.T) {
	// Exact in both half formats: bf16 keeps 8 mantissa bits, f16 ten.
	values := []float32{1, 2.5, -0.5, 3}

	cases := []struct {
		dtype   SafeTensorsDType
		payload []byte
	}{
		{SafeTensorsF16, f16le(values...)},
		{SafeTensorsBF16, bfloat16.EncodeFloat32(values)},
	}

	for _, tc := range cases {
		t.Run(string(tc.dtype), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "half.safetensors")
			writeSafeTensorsFile(t, path, map[string]SafeTensorInfo{
				"half": {DType: tc.dtype, Shape: []int{2, 2}, DataOffsets: [2]int64{0, int64(len(tc.payload))}},
			}, tc.payload)

			reader, err := NewSafeTensorsReader(path)
			if err != nil {
				t.Fatalf("NewSafeTensorsReader failed: %v", err)
			}
			defer reader.Close()

			raw, err := reader.LoadTensor("half", cpu.New())
			if err != nil {
				t.Fatalf("LoadTensor failed: %v", err)
			}
			if raw.DType() != tensor.Float32 {
				t.Fatalf("Expected %s widened to Float32, got %v", tc.dtype, raw.DType())
			}
			if got := raw.AsFloat32(); !slices.Equal(got, values) {
				t.Errorf("Expected %v, got %v", values, got)
			}
		})
	}
}

func TestSafeTensorsReader_RejectsBadEntries(t *testing.T) {
	cases := []struct {
		name    string
		info    SafeTensorInfo
		payload []byte
	}{
		{
			"backwards data_offsets",
			SafeTensorInfo{DType: SafeTensorsF32, Shape: []int{2}, DataOffsets: [2]int64{16, 8}},
			make([]byte, 16),
		},
		{
			"unsupported dtype",
			SafeTensorInfo{DType: "F8_E4M3", Shape: []int{4}, DataOffsets: [2]int64{0, 4}},
			make([]byte, 4),
		},
		{
			"odd half payload",
			SafeTensorInfo{DType: SafeTensorsF16, Shape: []int{1}, DataOffsets: [2]int64{0, 3}},
			make([]byte, 3),
		},
		{
			"payload shorter than shape",
			SafeTensorInfo{DType: SafeTensorsF32, Shape: []int{2, 2}, DataOffsets: [2]int64{0, 8}},
			make([]byte, 8),
		},
		{
			"negative dimension",
			SafeTensorInfo{DType: SafeTensorsF32, Shape: []int{-1, 2}, DataOffsets: [2]int64{0, 8}},
			make([]byte, 8),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.safetensors")
			writeSafeTensorsFile(t, path, map[string]SafeTensorInfo{"x": tc.info}, tc.payload)

			reader, err := NewSafeTensorsReader(path)
			if err != nil {
				t.Fatalf("NewSafeTensorsReader failed: %v", err)
			}
			defer reader.Close()

			if _, err := reader.LoadTensor("x", cpu.New()); err == nil {
				t.Error("Expected LoadTensor to reject the entry")
			}
		})
	}
}

func TestWriteSafeTensors_RoundTrip(t *testing.T) {
	kernel, err := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(kernel.AsFloat32(), []float32{1, 2, 3, 4})

	bias, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(bias.AsFloat32(), []float32{0.5, -0.5})

	path := filepath.Join(t.TempDir(), "roundtrip.safetensors")
	tensors := map[string]*tensor.RawTensor{
		"conv1.kernel": kernel,
		"conv1.bias":   bias,
	}
	if err := WriteSafeTensors(path, tensors, map[string]string{"format": "lattice"}); err != nil {
		t.Fatalf("WriteSafeTensors failed: %v", err)
	}

	reader, err := NewSafeTensorsReader(path)
	if err != nil {
		t.Fatalf("NewSafeTensorsReader failed: %v", err)
	}
	defer reader.Close()

	if got := reader.Metadata()["format"]; got != "lattice" {
		t.Errorf("Expected metadata format=lattice, got %q", got)
	}
	names := reader.TensorNames()
	if !slices.Equal(names, []string{"conv1.bias", "conv1.kernel"}) {
		t.Fatalf("Expected [conv1.bias conv1.kernel], got %v", names)
	}

	backend := cpu.New()
	gotKernel, err := reader.LoadTensor("conv1.kernel", backend)
	if err != nil {
		t.Fatalf("LoadTensor failed: %v", err)
	}
	if got := gotKernel.AsFloat32(); !slices.Equal(got, []float32{1, 2, 3, 4}) {
		t.Errorf("Expected kernel [1 2 3 4], got %v", got)
	}

	gotBias, err := reader.LoadTensor("conv1.bias", backend)
	if err != nil {
		t.Fatalf("LoadTensor failed: %v", err)
	}
	if got := gotBias.AsFloat32(); !slices.Equal(got, []float32{0.5, -0.5}) {
		t.Errorf("Expected bias [0.5 -0.5], got %v", got)
	}
}
