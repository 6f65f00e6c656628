// Package webgpu runs tensor operations on the GPU through the WebGPU
// compute API, via the zero-CGO go-webgpu bindings
// (github.com/go-webgpu/webgpu).
//
// The compute path is float32: that is the dtype every layer runs in, and
// the dtype WGSL storage buffers hold natively. Each operation uploads its
// operands, dispatches a cached compute pipeline and reads the result back
// through a staging buffer.
//
// The native wgpu runtime is only wired up on Windows. On other platforms
// the package still compiles: New reports the backend as unavailable so
// callers can fall back to the CPU backend.
package webgpu
