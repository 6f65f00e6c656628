// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"errors"
	"testing"

	"github.com/lattice-ml/lattice/internal/backend/cpu"
	"github.com/lattice-ml/lattice/internal/tensor"
	"github.com/lattice-ml/lattice/nn"
)

// TestLayerInterface verifies that concrete types implement the Layer
// interface through the public API.
func TestLayerInterface(t *testing.T) {
	backend := cpu.New()

	conv, err := nn.NewConv2D(nn.Conv2DConfig{
		Filters:    2,
		KernelSize: [2]int{3, 3},
		Padding:    "same",
		InChannels: 1,
	}, backend)
	if err != nil {
		t.Fatalf("NewConv2D failed: %v", err)
	}

	pool, err := nn.NewMaxPooling2D[*cpu.CPUBackend](nn.PoolingConfig{})
	if err != nil {
		t.Fatalf("NewMaxPooling2D failed: %v", err)
	}

	global, err := nn.NewGlobalAveragePooling2D[*cpu.CPUBackend](nn.GlobalPoolingConfig{})
	if err != nil {
		t.Fatalf("NewGlobalAveragePooling2D failed: %v", err)
	}

	dense, err := nn.NewDense(nn.DenseConfig{Units: 3, InFeatures: 2}, backend)
	if err != nil {
		t.Fatalf("NewDense failed: %v", err)
	}

	act, err := nn.NewActivation[*cpu.CPUBackend](nn.ActivationConfig{Activation: "relu"})
	if err != nil {
		t.Fatalf("NewActivation failed: %v", err)
	}

	layers := []nn.Layer[*cpu.CPUBackend]{
		conv,
		pool,
		global,
		dense,
		act,
		nn.NewFlatten[*cpu.CPUBackend](""),
	}

	// Drive a feature map through the spatial layers; every layer must
	// report a non-empty name.
	for _, layer := range layers {
		if layer.Name() == "" {
			t.Errorf("layer %T has empty name", layer)
		}
	}

	input := tensor.Zeros[float32](tensor.Shape{6, 6, 1}, backend)
	out, err := conv.Call(input)
	if err != nil {
		t.Fatalf("conv.Call failed: %v", err)
	}
	out, err = pool.Call(out)
	if err != nil {
		t.Fatalf("pool.Call failed: %v", err)
	}
	if _, err = global.Call(out); err != nil {
		t.Fatalf("global.Call failed: %v", err)
	}
}

// TestWeightBearerInterface verifies that weighted layers expose the
// WeightBearer capability and pooling layers do not.
func TestWeightBearerInterface(t *testing.T) {
	backend := cpu.New()

	dense, err := nn.NewDense(nn.DenseConfig{Units: 4, InFeatures: 8}, backend)
	if err != nil {
		t.Fatalf("NewDense failed: %v", err)
	}

	var asLayer nn.Layer[*cpu.CPUBackend] = dense
	bearer, ok := asLayer.(nn.WeightBearer[*cpu.CPUBackend])
	if !ok {
		t.Fatal("Dense does not implement WeightBearer")
	}
	weights := bearer.Weights()
	if _, ok := weights["kernel"]; !ok {
		t.Error("Dense weights missing \"kernel\"")
	}

	pool, err := nn.NewMaxPooling2D[*cpu.CPUBackend](nn.PoolingConfig{})
	if err != nil {
		t.Fatalf("NewMaxPooling2D failed: %v", err)
	}
	asLayer = pool
	if _, ok := asLayer.(nn.WeightBearer[*cpu.CPUBackend]); ok {
		t.Error("Pooling2D unexpectedly implements WeightBearer")
	}
}

// TestErrorSentinels verifies the exported error values match with
// errors.Is across the facade boundary.
func TestErrorSentinels(t *testing.T) {
	_, err := nn.NewActivation[*cpu.CPUBackend](nn.ActivationConfig{Activation: "swish"})
	if !errors.Is(err, nn.ErrInvalidConfiguration) {
		t.Errorf("unknown activation error = %v, want ErrInvalidConfiguration", err)
	}

	backend := cpu.New()
	pool, err := nn.NewMaxPooling2D[*cpu.CPUBackend](nn.PoolingConfig{PoolSize: [2]int{5, 5}})
	if err != nil {
		t.Fatalf("NewMaxPooling2D failed: %v", err)
	}
	input := tensor.Zeros[float32](tensor.Shape{2, 2, 1}, backend)
	_, err = pool.Call(input)
	if !errors.Is(err, nn.ErrDimension) {
		t.Errorf("oversized window error = %v, want ErrDimension", err)
	}

	var dimErr *nn.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("oversized window error = %T, want *DimensionError", err)
	}
}
