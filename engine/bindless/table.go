package bindless

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

const (
	maxSampledImages  = 16384
	maxStorageImages  = 1024
	maxStorageBuffers = 16384
)

// Table is the single descriptor set exposing arrays of sampled images,
// storage images and storage buffers addressed by Handle.
// The underlying bind group layout declares binding-array entries with
// PARTIALLY_BOUND-equivalent semantics (wgpu-native's BINDING_ARRAY /
// PARTIALLY_BOUND_BINDING_ARRAY native feature) so slots can be written
// while the set is in use by other in-flight frames, this driver's analog
// of Vulkan's VK_DESCRIPTOR_BINDING_UPDATE_AFTER_BIND_BIT +
// VK_DESCRIPTOR_BINDING_PARTIALLY_BOUND_BIT.
type Table struct {
	device *wgpu.Device

	sampledImages  *HandleCache
	storageImages  *HandleCache
	storageBuffers *HandleCache

	sampledImageViews []*wgpu.TextureView
	storageImageViews []*wgpu.TextureView
	storageBufferBufs []*wgpu.Buffer

	layout *wgpu.BindGroupLayout
	group  *wgpu.BindGroup
	dirty  bool
}

// NewTable creates a bindless table with the fixed array capacities (16K
// sampled images, 1K storage images, 16K storage buffers).
func NewTable(device *wgpu.Device) (*Table, error) {
	t := &Table{
		device:         device,
		sampledImages:  NewHandleCache(maxSampledImages),
		storageImages:  NewHandleCache(maxStorageImages),
		storageBuffers: NewHandleCache(maxStorageBuffers),
		sampledImageViews: make([]*wgpu.TextureView, maxSampledImages),
		storageImageViews: make([]*wgpu.TextureView, maxStorageImages),
		storageBufferBufs: make([]*wgpu.Buffer, maxStorageBuffers),
	}

	layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "bindless table layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment | wgpu.ShaderStageCompute,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
				Count: maxSampledImages,
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageCompute,
				StorageTexture: wgpu.StorageTextureBindingLayout{
					Access:        wgpu.StorageTextureAccessReadWrite,
					Format:        wgpu.TextureFormatRGBA16Float,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
				Count: maxStorageImages,
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment | wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeStorage,
				},
				Count: maxStorageBuffers,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bindless layout: %w", err)
	}
	t.layout = layout
	t.dirty = true
	return t, nil
}

// Layout returns the bind group layout, for use building pipeline layouts
// that bind the bindless set at a fixed set index.
func (t *Table) Layout() *wgpu.BindGroupLayout { return t.layout }

// AllocateSampledImage reserves a slot in the sampled-image array and binds
// view to it, returning the packed handle.
func (t *Table) AllocateSampledImage(view *wgpu.TextureView, access Access) (Handle, error) {
	idx, ver, ok := t.sampledImages.Allocate()
	if !ok {
		return Invalid, fmt.Errorf("bindless: sampled image array exhausted (capacity %d)", maxSampledImages)
	}
	t.sampledImageViews[idx] = view
	t.dirty = true
	return Pack(idx, ver, KindSampledImage, access), nil
}

// AllocateStorageImage reserves a slot in the storage-image array.
func (t *Table) AllocateStorageImage(view *wgpu.TextureView, access Access) (Handle, error) {
	idx, ver, ok := t.storageImages.Allocate()
	if !ok {
		return Invalid, fmt.Errorf("bindless: storage image array exhausted (capacity %d)", maxStorageImages)
	}
	t.storageImageViews[idx] = view
	t.dirty = true
	return Pack(idx, ver, KindStorageImage, access), nil
}

// AllocateStorageBuffer reserves a slot in the storage-buffer array.
func (t *Table) AllocateStorageBuffer(buf *wgpu.Buffer, access Access) (Handle, error) {
	idx, ver, ok := t.storageBuffers.Allocate()
	if !ok {
		return Invalid, fmt.Errorf("bindless: storage buffer array exhausted (capacity %d)", maxStorageBuffers)
	}
	t.storageBufferBufs[idx] = buf
	t.dirty = true
	return Pack(idx, ver, KindStorageBuffer, access), nil
}

// Free releases the slot backing h, invalidating the handle for future
// lookups (its generation is bumped; stale copies of h fail Validate).
// A handle that already fails Validate is ignored.
func (t *Table) Free(h Handle) {
	if !t.Validate(h) {
		return
	}
	switch h.Kind() {
	case KindSampledImage:
		t.sampledImages.Free(h.Index())
		t.sampledImageViews[h.Index()] = nil
	case KindStorageImage:
		t.storageImages.Free(h.Index())
		t.storageImageViews[h.Index()] = nil
	case KindStorageBuffer:
		t.storageBuffers.Free(h.Index())
		t.storageBufferBufs[h.Index()] = nil
	}
	t.dirty = true
}

// Validate reports whether h still refers to a live allocation; a recycled
// slot carries a bumped version, so stale handles fail here.
func (t *Table) Validate(h Handle) bool {
	switch h.Kind() {
	case KindSampledImage:
		return t.sampledImages.Validate(h.Index(), h.Version())
	case KindStorageImage:
		return t.storageImages.Validate(h.Index(), h.Version())
	case KindStorageBuffer:
		return t.storageBuffers.Validate(h.Index(), h.Version())
	default:
		return false
	}
}

// Flush rebuilds the bind group if any slot changed since the last Flush.
// Real UPDATE_AFTER_BIND drivers would patch only the touched descriptor;
// this binding's CreateBindGroup call rebuilds the full entries array on
// every flush instead. The handle contract (stability across frames and
// pass reordering) is unaffected, only the cost of a flush differs from a
// true partial write.
func (t *Table) Flush() error {
	if !t.dirty {
		return nil
	}

	group, err := t.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "bindless table",
		Layout: t.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureViewArray: t.sampledImageViews},
			{Binding: 1, TextureViewArray: t.storageImageViews},
			{Binding: 2, BufferArray: t.storageBufferBufs},
		},
	})
	if err != nil {
		return fmt.Errorf("flush bindless table: %w", err)
	}
	t.group = group
	t.dirty = false
	return nil
}

// BindGroup returns the current bind group. Call Flush first if any
// allocation happened since the last flush.
func (t *Table) BindGroup() *wgpu.BindGroup { return t.group }
