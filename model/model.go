// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model provides the public API for assembling and running
// inference pipelines.
//
// A model is an ordered sequence of layers over one backend. Models are
// built three ways: layer by layer with Add, from architecture JSON with
// FromConfig, or from a saved archive with Load.
//
// Example:
//
//	import (
//	    "github.com/lattice-ml/lattice/backend/cpu"
//	    "github.com/lattice-ml/lattice/model"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    m, err := model.FromConfig(architectureJSON, backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := m.LoadWeightsFile("weights.safetensors"); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    out, err := m.Predict(input)
//	}
package model

import (
	"github.com/lattice-ml/lattice/internal/model"
	"github.com/lattice-ml/lattice/internal/tensor"
)

// Model is an ordered inference pipeline over a single backend.
//
// Building a model is not safe for concurrent use, but Predict on a
// fully built model is: layers hold no per-call state.
type Model[B tensor.Backend] = model.Model[B]

// LayerConfig describes one layer of an architecture: a registered class
// name plus the class-specific configuration map.
type LayerConfig = model.LayerConfig

// Architecture is the JSON-serializable description of a sequential model.
type Architecture = model.Architecture

// New creates an empty model. An empty name defaults to "model".
//
// Example:
//
//	m := model.New("classifier", backend)
//	_ = m.Add(conv)
//	_ = m.Add(pool)
func New[B tensor.Backend](name string, backend B) *Model[B] {
	return model.New(name, backend)
}

// FromConfig builds a model from architecture JSON.
//
// Class names follow the Keras vocabulary (Conv2D, Dense, MaxPooling2D,
// AveragePooling2D, GlobalMaxPooling2D, GlobalAveragePooling2D,
// Activation, Flatten), so exported architectures resolve without
// renaming. Unknown class names and config decode failures return errors
// wrapping nn.ErrInvalidConfiguration.
func FromConfig[B tensor.Backend](data []byte, backend B) (*Model[B], error) {
	return model.FromConfig(data, backend)
}

// Load reads a model archive (.latc) written by Model.Save: the retained
// architecture is rebuilt via FromConfig and the stored weights are
// installed.
func Load[B tensor.Backend](path string, backend B) (*Model[B], error) {
	return model.Load(path, backend)
}
