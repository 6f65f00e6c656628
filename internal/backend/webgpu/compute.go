//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// compileShader compiles WGSL source into a ShaderModule, caching the
// result under name.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, ok := b.shaders[name]; ok {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns the cached ComputePipeline for name,
// building it with an auto layout on first use.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, ok := b.pipelines[name]; ok {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}

// createBuffer creates a GPU buffer pre-filled with data. MappedAtCreation
// avoids a separate upload submit.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // G103: mapped range is exactly size bytes
	copy(unsafe.Slice((*byte)(mappedPtr), size), data)
	buffer.Unmap()

	return buffer
}

// createStorageBuffer creates an uninitialized GPU buffer for shader output.
func (b *Backend) createStorageBuffer(size uint64) *wgpu.Buffer {
	return b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
}

// createUniformBuffer creates a uniform buffer holding data, sized up to
// the 16-byte boundary uniform bindings require.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // G103: mapped range is exactly alignedSize bytes
	copy(unsafe.Slice((*byte)(mappedPtr), alignedSize), data)
	buffer.Unmap()

	return buffer
}

// readBuffer copies a GPU buffer into CPU memory through a staging buffer;
// storage buffers cannot be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	if err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	//nolint:gosec // G103: mapped range is exactly size bytes
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()

	return result, nil
}

// dispatch runs one compute pass over the given bind group and submits it.
func (b *Backend) dispatch(pipeline *wgpu.ComputePipeline, bindGroup *wgpu.BindGroup, x, y, z uint32) {
	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)

	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(x, y, z)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)
}

// kernelRun describes one compute-shader launch.
type kernelRun struct {
	name   string   // shader cache key
	code   string   // WGSL source
	inputs [][]byte // read-only storage buffers, bound in order from 0
	params []byte   // uniform blob, 16-byte aligned, bound last
	out    uint64   // output storage buffer size in bytes
	grid   [3]uint32
}

// runKernel uploads the inputs, dispatches the grid, and reads the output
// buffer back. Bindings are laid out inputs, output, params, matching
// every kernel in shaders.go.
func (b *Backend) runKernel(r kernelRun) ([]byte, error) {
	shader := b.compileShader(r.name, r.code)
	pipeline := b.getOrCreatePipeline(r.name, shader)

	buffers := make([]*wgpu.Buffer, 0, len(r.inputs)+2)
	defer func() {
		for _, buf := range buffers {
			buf.Release()
		}
	}()

	entries := make([]wgpu.BindGroupEntry, 0, len(r.inputs)+2)
	for i, data := range r.inputs {
		buf := b.createBuffer(data, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		buffers = append(buffers, buf)
		//nolint:gosec // G115: binding indexes and sizes are small non-negatives
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), buf, 0, uint64(len(data))))
	}

	outBuf := b.createStorageBuffer(r.out)
	buffers = append(buffers, outBuf)
	//nolint:gosec // G115: binding indexes are small non-negatives
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(r.inputs)), outBuf, 0, r.out))

	paramsBuf := b.createUniformBuffer(r.params)
	buffers = append(buffers, paramsBuf)
	//nolint:gosec // G115: binding indexes and sizes are small non-negatives
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(r.inputs)+1), paramsBuf, 0, uint64(len(r.params))))

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	b.dispatch(pipeline, bindGroup, r.grid[0], r.grid[1], r.grid[2])
	return b.readBuffer(outBuf, r.out)
}

// packParams packs words into a 16-byte-aligned little-endian uniform blob.
func packParams(words ...int) []byte {
	size := (len(words)*4 + 15) &^ 15
	buf := make([]byte, size)
	putDims(buf, 0, words)
	return buf
}

// grid1D spans n elements with workgroupSize-wide groups.
func grid1D(n int) [3]uint32 {
	//nolint:gosec // G115: workgroup count is non-negative
	return [3]uint32{uint32((n + workgroupSize - 1) / workgroupSize), 1, 1}
}

// grid2D tiles a rows-by-cols surface with the 16x16 workgroups the matrix
// shaders declare.
func grid2D(rows, cols int) [3]uint32 {
	//nolint:gosec // G115: workgroup counts are non-negative
	return [3]uint32{uint32((cols + 15) / 16), uint32((rows + 15) / 16), 1}
}

// gridSurface tiles an output plane with 8x8 workgroups, one grid layer
// per channel.
func gridSurface(h, w, c int) [3]uint32 {
	//nolint:gosec // G115: workgroup counts are non-negative
	return [3]uint32{uint32((w + 7) / 8), uint32((h + 7) / 8), uint32(c)}
}

// wantFloat32 rejects non-float32 operands; the shader set is f32-only.
func wantFloat32(ts ...*tensor.RawTensor) error {
	for _, t := range ts {
		if t.DType() != tensor.Float32 {
			return fmt.Errorf("webgpu: only float32 is supported, got %s", t.DType())
		}
	}
	return nil
}

// rawFromBytes wraps kernel output bytes in a WebGPU-resident float32
// tensor. Readback slices are sized exactly, so the copy never truncates.
func rawFromBytes(shape tensor.Shape, data []byte) (*tensor.RawTensor, error) {
	return tensor.NewRawFrom(shape, tensor.Float32, tensor.WebGPU, data)
}

// runBinaryOp executes an element-wise binary operation (add, sub, mul,
// div) on GPU. Operands of different shapes are broadcast to a common
// shape first, so a row-vector bias can be added to a matrix the same way
// the CPU backend does it.
func (b *Backend) runBinaryOp(a, other *tensor.RawTensor, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	if err := wantFloat32(a, other); err != nil {
		return nil, err
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), other.Shape())
	if err != nil {
		return nil, fmt.Errorf("webgpu: %w", err)
	}
	if needsBroadcast {
		if a, err = b.runExpand(a, outShape); err != nil {
			return nil, err
		}
		if other, err = b.runExpand(other, outShape); err != nil {
			return nil, err
		}
	}

	n := outShape.NumElements()
	out, err := b.runKernel(kernelRun{
		name:   shaderName,
		code:   shaderCode,
		inputs: [][]byte{a.Data(), other.Data()},
		params: packParams(n),
		out:    uint64(n) * 4, //nolint:gosec // G115: element count is non-negative
		grid:   grid1D(n),
	})
	if err != nil {
		return nil, err
	}
	return rawFromBytes(outShape, out)
}

// runUnaryOp executes an element-wise unary operation (relu, sigmoid,
// tanh) on GPU.
func (b *Backend) runUnaryOp(input *tensor.RawTensor, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	if err := wantFloat32(input); err != nil {
		return nil, err
	}

	n := input.NumElements()
	out, err := b.runKernel(kernelRun{
		name:   shaderName,
		code:   shaderCode,
		inputs: [][]byte{input.Data()},
		params: packParams(n),
		out:    uint64(n) * 4, //nolint:gosec // G115: element count is non-negative
		grid:   grid1D(n),
	})
	if err != nil {
		return nil, err
	}
	return rawFromBytes(input.Shape(), out)
}

// runScalarOp executes an element-wise operation against a scalar constant
// (add, mul) on GPU. The scalar rides in the uniform params next to the
// element count.
func (b *Backend) runScalarOp(input *tensor.RawTensor, scalar any, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	if err := wantFloat32(input); err != nil {
		return nil, err
	}
	value, ok := scalar.(float32)
	if !ok {
		return nil, fmt.Errorf("webgpu: scalar must be float32, got %T", scalar)
	}

	n := input.NumElements()
	params := packParams(n, 0)
	binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(value))

	out, err := b.runKernel(kernelRun{
		name:   shaderName,
		code:   shaderCode,
		inputs: [][]byte{input.Data()},
		params: params,
		out:    uint64(n) * 4, //nolint:gosec // G115: element count is non-negative
		grid:   grid1D(n),
	})
	if err != nil {
		return nil, err
	}
	return rawFromBytes(input.Shape(), out)
}

// runMatMul executes C = A @ B on GPU. A is [M, K], B is [K, N].
func (b *Backend) runMatMul(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := wantFloat32(a, other); err != nil {
		return nil, err
	}
	if len(a.Shape()) != 2 || len(other.Shape()) != 2 {
		return nil, fmt.Errorf("webgpu: matmul wants rank-2 operands, got %v and %v", a.Shape(), other.Shape())
	}

	m, k, n := a.Shape()[0], a.Shape()[1], other.Shape()[1]
	if other.Shape()[0] != k {
		return nil, fmt.Errorf("webgpu: matmul shape mismatch: [%d,%d] @ [%d,%d]", m, k, other.Shape()[0], n)
	}

	out, err := b.runKernel(kernelRun{
		name:   "matmul",
		code:   matmulShader,
		inputs: [][]byte{a.Data(), other.Data()},
		params: packParams(m, k, n),
		out:    uint64(m) * uint64(n) * 4, //nolint:gosec // G115: dims are non-negative
		grid:   grid2D(m, n),
	})
	if err != nil {
		return nil, err
	}
	return rawFromBytes(tensor.Shape{m, n}, out)
}

// runTranspose executes a 2D matrix transpose on GPU.
func (b *Backend) runTranspose(input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := wantFloat32(input); err != nil {
		return nil, err
	}
	if len(input.Shape()) != 2 {
		return nil, fmt.Errorf("webgpu: transpose wants a rank-2 tensor, got %v", input.Shape())
	}

	rows, cols := input.Shape()[0], input.Shape()[1]
	out, err := b.runKernel(kernelRun{
		name:   "transpose",
		code:   transposeShader,
		inputs: [][]byte{input.Data()},
		params: packParams(rows, cols),
		out:    uint64(input.ByteSize()), //nolint:gosec // G115: size is non-negative
		grid:   grid2D(rows, cols),
	})
	if err != nil {
		return nil, err
	}
	return rawFromBytes(tensor.Shape{cols, rows}, out)
}

// runSoftmax executes softmax along the last dimension on GPU. Every
// leading dimension is treated as batch, so any rank works; the Softmax
// method rotates other dims into last place before calling this.
func (b *Backend) runSoftmax(input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := wantFloat32(input); err != nil {
		return nil, err
	}
	shape := input.Shape()
	if len(shape) == 0 {
		return nil, fmt.Errorf("webgpu: softmax wants rank 1 or higher")
	}

	classes := shape[len(shape)-1]
	batch := input.NumElements() / classes

	// One invocation per row.
	out, err := b.runKernel(kernelRun{
		name:   "softmax",
		code:   softmaxShader,
		inputs: [][]byte{input.Data()},
		params: packParams(batch, classes),
		out:    uint64(input.ByteSize()), //nolint:gosec // G115: size is non-negative
		grid:   grid1D(batch),
	})
	if err != nil {
		return nil, err
	}
	return rawFromBytes(shape, out)
}
