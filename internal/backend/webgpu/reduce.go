//go:build windows

package webgpu

import (
	"encoding/binary"
	"math"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// runSum reduces a tensor to its total sum on GPU. Each pass folds
// workgroupSize elements into one partial sum through workgroup shared
// memory; passes ping-pong between two buffers until one value remains.
//
// The multi-pass loop records every pass into one command encoder, so it
// cannot go through runKernel, which submits a single dispatch.
func (b *Backend) runSum(input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := wantFloat32(input); err != nil {
		return nil, err
	}

	n := input.NumElements()

	shader := b.compileShader("global_sum", globalSumShader)
	pipeline := b.getOrCreatePipeline("global_sum", shader)

	bufferA := b.createBuffer(input.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferA.Release()

	partials := max((n+workgroupSize-1)/workgroupSize, 1)
	//nolint:gosec // G115: partial count is non-negative
	bufferB := b.createStorageBuffer(uint64(partials) * 4)
	defer bufferB.Release()

	// Pass resources stay alive until the submitted work is read back.
	var paramBuffers []*wgpu.Buffer
	var bindGroups []*wgpu.BindGroup
	defer func() {
		for _, bg := range bindGroups {
			bg.Release()
		}
		for _, pb := range paramBuffers {
			pb.Release()
		}
	}()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	encoder := b.device.CreateCommandEncoder(nil)

	src, dst := bufferA, bufferB
	size := n
	for size > 1 {
		groups := (size + workgroupSize - 1) / workgroupSize

		bufferParams := b.createUniformBuffer(packParams(size))
		paramBuffers = append(paramBuffers, bufferParams)

		//nolint:gosec // G115: element counts are non-negative
		bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
			wgpu.BufferBindingEntry(0, src, 0, uint64(size)*4),
			wgpu.BufferBindingEntry(1, dst, 0, uint64(groups)*4),
			wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
		})
		bindGroups = append(bindGroups, bindGroup)

		computePass := encoder.BeginComputePass(nil)
		computePass.SetPipeline(pipeline)
		computePass.SetBindGroup(0, bindGroup, nil)
		//nolint:gosec // G115: workgroup count is non-negative
		computePass.DispatchWorkgroups(uint32(groups), 1, 1)
		computePass.End()

		src, dst = dst, src
		size = groups
	}

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	// After the final pass src holds the single remaining value. With a
	// one-element input no pass ran and src is still the upload buffer.
	resultData, err := b.readBuffer(src, 4)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(tensor.Shape{}, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}

	copy(result.Data(), resultData)
	return result, nil
}

// runArgmax finds the index of the maximum along the last dimension on
// GPU. The shader writes f32 indices (WGSL storage buffers have no i64);
// they are exact for any realistic dimension size and widened to the
// Int64 result on readback.
func (b *Backend) runArgmax(input *tensor.RawTensor, outShape tensor.Shape) (*tensor.RawTensor, error) {
	if err := wantFloat32(input); err != nil {
		return nil, err
	}

	shape := input.Shape()
	dimSize := shape[len(shape)-1]
	batch := input.NumElements() / dimSize

	out, err := b.runKernel(kernelRun{
		name:   "argmax",
		code:   argmaxShader,
		inputs: [][]byte{input.Data()},
		params: packParams(batch, dimSize),
		out:    uint64(batch) * 4, //nolint:gosec // G115: batch count is non-negative
		grid:   grid1D(batch),
	})
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(outShape, tensor.Int64, tensor.WebGPU)
	if err != nil {
		return nil, err
	}

	indices := result.AsInt64()
	for i := range indices {
		bits := binary.LittleEndian.Uint32(out[i*4:])
		indices[i] = int64(math.Float32frombits(bits))
	}
	return result, nil
}
