// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/lattice-ml/lattice/internal/backend/cpu"
	"github.com/lattice-ml/lattice/tensor"
)

// Backend is the CPU backend. It implements every tensor operation in
// pure Go and is always available.
type Backend = internalcpu.CPUBackend

var _ tensor.Backend = (*Backend)(nil)

// New returns a ready backend; there is no state to configure.
//
//	backend := cpu.New()
//	x := tensor.Ones[float32](tensor.Shape{4}, backend)
func New() *Backend {
	return internalcpu.New()
}
