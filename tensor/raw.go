// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/lattice-ml/lattice/internal/tensor"

// RawTensor is the untyped tensor representation backends operate on:
// shape, dtype, device, and a reference-counted buffer. The element type
// is a runtime tag rather than a type parameter, so AsFloat32 and friends
// panic when asked for the wrong view.
//
// Most code works with Tensor[T, B]; RawTensor is what backends and the
// serialization layer exchange.
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 4}, tensor.Float32, tensor.CPU)
//	data := raw.AsFloat32()
//	clone := raw.Clone() // O(1), shares the buffer
type RawTensor = tensor.RawTensor
