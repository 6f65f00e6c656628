// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public tensor API of the Lattice inference
// library: dense N-dimensional arrays typed by element and compute backend.
//
// # Overview
//
// Tensor[T, B] ties the element type and the compute backend into the type
// system, so a float32 CPU tensor and a float64 WebGPU tensor are distinct
// types and mixing them is a compile error. Element types are constrained
// to float32, float64, int32, int64, and uint8 via DType.
//
// # Basic Usage
//
//	backend := cpu.New()
//
//	x := tensor.Rand[float32](tensor.Shape{3, 2}, backend)
//	y := tensor.Full[float32](tensor.Shape{3, 2}, 2, backend)
//
//	z := x.Add(y)
//	result := x.MatMul(y.Transpose())
//
// # Broadcasting
//
// Binary operations follow NumPy broadcasting rules, comparing shapes from
// the right and stretching size-1 dimensions:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend) // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)  // (3, 4)
//	c := a.Add(b)                                           // (3, 4)
//
// # Spatial Geometry
//
// Convolution and pooling share one geometry vocabulary: PoolConfig and
// ConvConfig carry window, stride, padding mode, and channel order, and
// OutputDims derives the output extent and padding split every backend uses.
//
//	cfg := tensor.PoolConfig{Window: [2]int{2, 2}, Padding: tensor.PaddingSame}
//	out := backend.Pool2D(input, cfg)
//
// # Memory
//
// Tensor data lives in reference-counted buffers on a Device (CPU or
// WebGPU). Clone is O(1) and shares the buffer; typed views returned by
// Data alias tensor memory rather than copying it.
package tensor
