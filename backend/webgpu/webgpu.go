// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu exposes the GPU backend built on the WebGPU compute API.
//
// The native runtime currently ships for Windows; elsewhere New returns
// an error and IsAvailable reports false, so callers can fall back to
// the always-available CPU backend:
//
//	var backend tensor.Backend = cpu.New()
//	if webgpu.IsAvailable() {
//	    dev, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer dev.Release()
//	    backend = dev
//	}
package webgpu

import (
	internalwebgpu "github.com/lattice-ml/lattice/internal/backend/webgpu"
	"github.com/lattice-ml/lattice/tensor"
)

// Backend is the WebGPU backend. All math runs in f32 compute shaders.
// Call Release when done to free the device.
type Backend = internalwebgpu.Backend

var _ tensor.Backend = (*Backend)(nil)

// New acquires the WebGPU instance, adapter, device and queue and
// returns a backend ready for tensor operations. It fails when no
// compatible GPU is present.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable reports whether a WebGPU adapter can be acquired on this
// system. It is the cheap probe for choosing between GPU and CPU.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
