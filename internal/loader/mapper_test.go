package loader

import "testing"

func TestKerasMapper_MapName(t *testing.T) {
	mapper := NewKerasMapper()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"checkpoint kernel", "conv1/kernel:0", "conv1.kernel", false},
		{"checkpoint bias", "dense_1/bias:0", "dense_1.bias", false},
		{"tfjs manifest", "sequential/conv2d/kernel", "conv2d.kernel", false},
		{"nested model scope", "model/sequential/dense/bias", "dense.bias", false},
		{"no scope", "embedding_vector", "embedding_vector", false},
		{"already canonical", "conv1.kernel", "conv1.kernel", false},
		{"empty variable", "conv1/", "", true},
		{"empty layer", "/kernel", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mapper.MapName(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("MapName(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("MapName(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("MapName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	if mapper.Architecture() != ArchitectureKeras {
		t.Errorf("Expected architecture keras, got %s", mapper.Architecture())
	}
}

func TestNativeMapper_MapName(t *testing.T) {
	mapper := NewNativeMapper()

	got, err := mapper.MapName("conv1.kernel")
	if err != nil {
		t.Fatalf("MapName failed: %v", err)
	}
	if got != "conv1.kernel" {
		t.Errorf("Expected conv1.kernel unchanged, got %q", got)
	}

	if _, err := mapper.MapName(""); err == nil {
		t.Error("Expected error for empty name")
	}

	if mapper.Architecture() != ArchitectureNative {
		t.Errorf("Expected architecture native, got %s", mapper.Architecture())
	}
}

func TestDetectArchitecture(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"keras checkpoint", []string{"conv1/kernel:0", "conv1/bias:0"}, ArchitectureKeras},
		{"tfjs manifest", []string{"sequential/dense/kernel"}, ArchitectureKeras},
		{"variable suffix only", []string{"kernel:0"}, ArchitectureKeras},
		{"native", []string{"conv1.kernel", "conv1.bias"}, ArchitectureNative},
		{"empty", nil, ArchitectureNative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectArchitecture(tt.names); got != tt.want {
				t.Errorf("DetectArchitecture(%v) = %s, want %s", tt.names, got, tt.want)
			}
		})
	}
}

func TestGetMapper(t *testing.T) {
	if GetMapper(ArchitectureKeras).Architecture() != ArchitectureKeras {
		t.Error("Expected keras mapper for keras architecture")
	}
	if GetMapper(ArchitectureNative).Architecture() != ArchitectureNative {
		t.Error("Expected native mapper for native architecture")
	}
	if GetMapper("unknown").Architecture() != ArchitectureNative {
		t.Error("Expected native mapper fallback for unknown architecture")
	}
}
