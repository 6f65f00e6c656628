//go:build windows

package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// Backend runs tensor math on the GPU through WGSL compute kernels.
// Shader modules and pipelines compile on first use and stay cached
// until Release.
type Backend struct {
	// Core handles, acquired in this order and released in reverse.
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Compiled WGSL modules and pipelines, keyed by kernel name.
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	adapterInfo *wgpu.AdapterInfo
}

// New acquires the default high-performance adapter and creates a device
// and queue on it. Returns an error if WebGPU is not available.
func New() (backend *Backend, err error) {
	// The wgpu loader panics when wgpu_native is missing; surface that
	// as an error.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: wgpu_native not loadable: %v", r)
		}
	}()

	// Handles acquired so far, released in reverse order if New fails.
	var acquired []interface{ Release() }
	defer func() {
		if backend == nil {
			for i := len(acquired) - 1; i >= 0; i-- {
				acquired[i].Release()
			}
		}
	}()

	instance := wgpu.CreateInstance(nil)
	acquired = append(acquired, instance)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", err)
	}
	acquired = append(acquired, adapter)

	info := adapter.GetInfo()

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("webgpu: failed to request device: %w", err)
	}
	acquired = append(acquired, device)

	queue := device.GetQueue()
	if queue == nil {
		return nil, fmt.Errorf("webgpu: device returned no queue")
	}

	return &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		adapterInfo: &info,
	}, nil
}

// Release frees every WebGPU resource the backend holds: cached pipelines
// and shaders first, then queue, device, adapter, and instance.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.pipelines {
		p.Release()
	}
	for _, s := range b.shaders {
		s.Release()
	}
	b.pipelines, b.shaders = nil, nil

	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
	b.queue, b.device, b.adapter, b.instance = nil, nil, nil, nil
}

// Name names the backend and the adapter it acquired.
func (b *Backend) Name() string {
	if b.adapterInfo != nil {
		return fmt.Sprintf("WebGPU (%s %s)", b.adapterInfo.Device, b.adapterInfo.Vendor)
	}
	return "WebGPU"
}

// Device reports tensor.WebGPU.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// AdapterInfo exposes the acquired adapter's identity for diagnostics.
func (b *Backend) AdapterInfo() *wgpu.AdapterInfo {
	return b.adapterInfo
}

// IsAvailable reports whether a WebGPU adapter can be acquired on this
// system.
func IsAvailable() (available bool) {
	// CreateInstance panics when wgpu_native is missing; the zero result
	// already says unavailable, so the recover only stops the unwind.
	defer func() { _ = recover() }()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// ListAdapters describes the adapters available to this process.
func ListAdapters() (adapters []*wgpu.AdapterInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			adapters = nil
			err = fmt.Errorf("webgpu: wgpu_native not loadable: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	// WebGPU has no adapter enumeration, so report the default adapter.
	adapter, adapterErr := instance.RequestAdapter(nil)
	if adapterErr != nil {
		return nil, fmt.Errorf("webgpu: no adapter: %w", adapterErr)
	}
	defer adapter.Release()

	info := adapter.GetInfo()

	return []*wgpu.AdapterInfo{&info}, nil
}
