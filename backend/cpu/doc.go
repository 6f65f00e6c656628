// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu implements the tensor.Backend contract in pure Go.
//
// The backend has no CGO or native dependencies, so it is always available
// and serves as both the default choice and the fallback when no
// accelerator is present. Convolutions run through im2col, pooling is
// padding-aware, and spatial kernels fan out across cores for large
// feature maps.
//
// # Usage
//
//	backend := cpu.New()
//
//	x := tensor.Ones[float32](tensor.Shape{3, 2}, backend)
//	y := tensor.Full[float32](tensor.Shape{3, 2}, 3, backend)
//	z := x.Add(y)
//
//	layer, err := nn.NewDense(nn.DenseConfig{InFeatures: 784, Units: 10}, backend)
//
// The backend is safe for concurrent use: operations allocate their own
// outputs and share no mutable state.
//
// For GPU acceleration, see the webgpu package.
package cpu
