package resources

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// BufferSpec describes a logical buffer resource prior to materialization.
type BufferSpec struct {
	// Size is the byte size of a single frame's slice.
	Size uint64
	// PerFrame is 1 for single-instance buffers (e.g. the static instance
	// SSBO) or MaxFramesInFlight for double-buffered per-frame buffers.
	PerFrame        int
	AdditionalUsage wgpu.BufferUsage
	// HostVisible buffers are created mapped-at-creation so the CPU can
	// persistently write into them without a staging round trip.
	HostVisible bool
}

// Buffer is a move-only owner of a GPU buffer. When PerFrame > 1 the byte
// range [slot*perSlotSize, (slot+1)*perSlotSize) is the current frame's
// slice.
type Buffer struct {
	buf         *wgpu.Buffer
	size        uint64
	perFrame    int
	perSlotSize uint64
	usage       wgpu.BufferUsage
	mapped      []byte
	hostVisible bool
}

// NewBuffer creates the underlying GPU buffer sized for PerFrame slices of
// Size bytes each.
func NewBuffer(device *wgpu.Device, spec BufferSpec) (*Buffer, error) {
	perFrame := spec.PerFrame
	if perFrame < 1 {
		perFrame = 1
	}
	total := spec.Size * uint64(perFrame)
	usage := spec.AdditionalUsage

	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:             total,
		Usage:            usage,
		MappedAtCreation: spec.HostVisible,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer: %w", err)
	}

	return &Buffer{
		buf:         buf,
		size:        total,
		perFrame:    perFrame,
		perSlotSize: spec.Size,
		usage:       usage,
		hostVisible: spec.HostVisible,
	}, nil
}

func (b *Buffer) Handle() *wgpu.Buffer        { return b.buf }
func (b *Buffer) Size() uint64                { return b.size }
func (b *Buffer) PerFrame() int               { return b.perFrame }
func (b *Buffer) PerSlotSize() uint64         { return b.perSlotSize }
func (b *Buffer) Usage() wgpu.BufferUsage     { return b.usage }

func (b *Buffer) addUsage(u wgpu.BufferUsage) {
	b.usage |= u
}

// SlotOffset returns the byte offset of the given frame-in-flight slot's
// slice within the buffer. slot must be in [0, PerFrame).
func (b *Buffer) SlotOffset(slot int) uint64 {
	return uint64(slot) * b.perSlotSize
}

// WriteSlot writes data into the given frame-in-flight slot's slice via the
// queue.
func (b *Buffer) WriteSlot(queue *wgpu.Queue, slot int, data []byte) error {
	if uint64(len(data)) > b.perSlotSize {
		return fmt.Errorf("write slot %d: data size %d exceeds slot size %d", slot, len(data), b.perSlotSize)
	}
	queue.WriteBuffer(b.buf, b.SlotOffset(slot), data)
	return nil
}

// Release schedules the underlying GPU buffer for deferred destruction
// under the given frame-in-flight slot; the actual release happens when
// that slot is next drained.
func (b *Buffer) Release(q *DeletionQueue, slot int) {
	if b.buf != nil {
		q.Enqueue(slot, b)
	}
}

func (b *Buffer) releaseNow() {
	if b.buf != nil {
		b.buf.Release()
	}
}

// Sampler is a thin owner of a GPU sampler.
type Sampler struct {
	sampler *wgpu.Sampler
}

func NewSampler(device *wgpu.Device, desc *wgpu.SamplerDescriptor) (*Sampler, error) {
	s, err := device.CreateSampler(desc)
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	return &Sampler{sampler: s}, nil
}

func (s *Sampler) Handle() *wgpu.Sampler { return s.sampler }

func (s *Sampler) releaseNow() {
	if s.sampler != nil {
		s.sampler.Release()
	}
}
