// Package renderer owns the WebGPU device, queue and surface, and the
// frame-in-flight bookkeeping that gates the render loop: one submission
// slot per in-flight frame, waited on before that slot's deletion queue is
// drained and its command buffer re-recorded.
package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/resources"
)

// Renderer is the thin driver wrapper the engine loop and the frame graph
// materialize against.
type Renderer struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	format wgpu.TextureFormat
	extent resources.Extent2D

	deletionQueue *resources.DeletionQueue

	// One entry per frame-in-flight slot: the submission index of the last
	// command buffer submitted under that slot. WebGPU has no explicit
	// fence object; Device.Poll blocking on a wrapped submission index is
	// this driver's fence wait.
	slots [resources.MaxFramesInFlight]slotState

	// frameSurface is the swapchain texture acquired for the frame being
	// recorded, released again at Present.
	frameSurface *wgpu.Texture
}

type slotState struct {
	submission wgpu.SubmissionIndex
	submitted  bool
}

// New creates the instance, surface, adapter, device and queue, and
// configures the surface at the given pixel size. Fatal errors here mean
// there is nothing to render with; the caller aborts.
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int) (*Renderer, error) {
	r := &Renderer{
		instance:      wgpu.CreateInstance(nil),
		deletionQueue: resources.NewDeletionQueue(),
	}
	r.surface = r.instance.CreateSurface(surfaceDescriptor)

	adapter, err := r.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: r.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: request adapter: %w", err)
	}
	r.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: request device: %w", err)
	}
	r.device = device
	r.queue = device.GetQueue()

	r.Configure(width, height)
	return r, nil
}

// Configure (re)configures the surface at the given pixel size, choosing
// the adapter's preferred format and Mailbox presentation when available
// (FIFO otherwise).
func (r *Renderer) Configure(width, height int) {
	caps := r.surface.GetCapabilities(r.adapter)
	r.format = caps.Formats[0]

	presentMode := wgpu.PresentModeFifo
	for _, m := range caps.PresentModes {
		if m == wgpu.PresentModeMailbox {
			presentMode = wgpu.PresentModeMailbox
			break
		}
	}

	r.surface.Configure(r.adapter, r.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopyDst,
		Format:      r.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode,
		AlphaMode:   caps.AlphaModes[0],
	})
	r.extent = resources.Extent2D{Width: uint32(width), Height: uint32(height)}
}

func (r *Renderer) Device() *wgpu.Device                    { return r.device }
func (r *Renderer) Queue() *wgpu.Queue                      { return r.queue }
func (r *Renderer) Format() wgpu.TextureFormat              { return r.format }
func (r *Renderer) Extent() resources.Extent2D              { return r.extent }
func (r *Renderer) DeletionQueue() *resources.DeletionQueue { return r.deletionQueue }

// BeginFrame blocks until the given slot's previous submission has finished
// on the GPU, then drains that slot's deletion queue. Everything destroyed
// while the slot's previous frame was recording is actually released here,
// after its work is provably done.
func (r *Renderer) BeginFrame(slot int) {
	s := &r.slots[slot]
	if s.submitted {
		r.device.Poll(true, &wgpu.WrappedSubmissionIndex{
			Queue:           r.queue,
			SubmissionIndex: s.submission,
		})
		s.submitted = false
	}
	r.deletionQueue.Drain(slot)
}

// AcquireSurface acquires the swapchain texture for the current frame. An
// outdated surface (resize race) is surfaced as an error for the loop's
// rebuild path rather than handled here.
func (r *Renderer) AcquireSurface() (*wgpu.Texture, error) {
	surfaceTexture, err := r.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	r.frameSurface = surfaceTexture
	return surfaceTexture, nil
}

// CurrentSurfaceTexture returns the texture acquired by AcquireSurface for
// the frame being recorded, or an error outside a frame.
func (r *Renderer) CurrentSurfaceTexture() (*wgpu.Texture, error) {
	if r.frameSurface == nil {
		return nil, fmt.Errorf("renderer: no surface texture acquired")
	}
	return r.frameSurface, nil
}

// Submit submits the frame's command buffer under the given slot, recording
// the submission index BeginFrame will wait on when the slot comes around
// again.
func (r *Renderer) Submit(slot int, cmd *wgpu.CommandBuffer) {
	idx := r.queue.Submit(cmd)
	r.slots[slot] = slotState{submission: idx, submitted: true}
}

// Present presents the acquired surface texture and releases it.
func (r *Renderer) Present() {
	if r.frameSurface == nil {
		return
	}
	r.surface.Present()
	r.frameSurface.Release()
	r.frameSurface = nil
}

// WaitIdle blocks until every submitted command buffer has finished, then
// drains every deletion queue slot. Used on shutdown and around swapchain
// rebuilds.
func (r *Renderer) WaitIdle() {
	r.device.Poll(true, nil)
	for slot := 0; slot < resources.MaxFramesInFlight; slot++ {
		r.slots[slot].submitted = false
		r.deletionQueue.Drain(slot)
	}
}

// Release tears the driver objects down. Call after WaitIdle.
func (r *Renderer) Release() {
	r.device.Release()
	r.adapter.Release()
	r.surface.Release()
	r.instance.Release()
}
