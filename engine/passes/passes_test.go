package passes

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/framegraph"
	"github.com/duskforge/oxyfg/engine/resources"
	"github.com/duskforge/oxyfg/engine/scene"
)

// fakeBatchSource satisfies BatchSource with a fixed batch list, for tests
// that only need a GeometryPass/TransparentPass to compile and declare its
// Info() correctly, not to actually draw.
type fakeBatchSource struct{ batches []scene.DrawBatch }

func (f fakeBatchSource) DrawBatches() []scene.DrawBatch { return f.batches }

// newTestPool builds a pool with no device, matching how passes are
// exercised in these tests: Info() and the nil-device branch of
// CreateResources are pure-Go and checkable without a GPU, while Execute
// requires a real wgpu.CommandEncoder and is left to integration testing.
func newTestPool() *framegraph.Pool {
	return framegraph.NewPool(nil, nil)
}

func findRead(t *testing.T, info framegraph.NodeInfo, h framegraph.LogicalResourceHandle) resources.UsageKind {
	t.Helper()
	for _, rw := range info.Reads {
		if rw.Handle == h {
			return rw.Usage
		}
	}
	t.Fatalf("%s: no read declared for handle %v", info.Name, h)
	return 0
}

func findWrite(t *testing.T, info framegraph.NodeInfo, h framegraph.LogicalResourceHandle) resources.UsageKind {
	t.Helper()
	for _, rw := range info.Writes {
		if rw.Handle == h {
			return rw.Usage
		}
	}
	t.Fatalf("%s: no write declared for handle %v", info.Name, h)
	return 0
}

func TestGeometryPassInfo(t *testing.T) {
	pool := newTestPool()
	camera := pool.AddBuffer("Camera", resources.ComputeReadStorage, framegraph.BufferSpec{})
	instances := pool.AddBuffer("Instances", resources.ComputeReadStorage, framegraph.BufferSpec{})
	attachments := GeometryAttachments{
		Position: pool.AddImage("Position", resources.ColorAttachment, framegraph.ImageSpec{}),
		Normal:   pool.AddImage("Normal", resources.ColorAttachment, framegraph.ImageSpec{}),
		Albedo:   pool.AddImage("Albedo", resources.ColorAttachment, framegraph.ImageSpec{}),
		ARM:      pool.AddImage("ARM", resources.ColorAttachment, framegraph.ImageSpec{}),
		Emissive: pool.AddImage("Emissive", resources.ColorAttachment, framegraph.ImageSpec{}),
		Depth:    pool.AddImage("Depth", resources.DepthStencilAttachment, framegraph.ImageSpec{}),
	}

	pass := NewGeometryPass(attachments, camera, instances, fakeBatchSource{})
	info := pass.Info()

	if info.Name != "Geometry" {
		t.Fatalf("expected name Geometry, got %q", info.Name)
	}
	if len(info.Reads) != 2 {
		t.Fatalf("expected 2 reads, got %d", len(info.Reads))
	}
	if len(info.Writes) != 6 {
		t.Fatalf("expected 6 writes (5 color + depth), got %d", len(info.Writes))
	}
	for _, h := range []framegraph.LogicalResourceHandle{camera, instances} {
		if findRead(t, info, h) != resources.ComputeReadStorage {
			t.Fatalf("expected buffer read to be ComputeReadStorage")
		}
	}
	for _, h := range []framegraph.LogicalResourceHandle{attachments.Position, attachments.Normal, attachments.Albedo, attachments.ARM, attachments.Emissive} {
		if findWrite(t, info, h) != resources.ColorAttachment {
			t.Fatalf("expected G-buffer write to be ColorAttachment")
		}
	}
	if findWrite(t, info, attachments.Depth) != resources.DepthStencilAttachment {
		t.Fatalf("expected depth write to be DepthStencilAttachment")
	}

	if err := pass.CreateResources(pool); err != nil {
		t.Fatalf("CreateResources with nil device: %v", err)
	}
}

func TestSkyboxPassInfo(t *testing.T) {
	pool := newTestPool()
	sceneColor := pool.AddImage("SceneColor", resources.ColorAttachment, framegraph.ImageSpec{})
	depth := pool.AddImage("Depth", resources.DepthStencilAttachment, framegraph.ImageSpec{})

	pass := NewSkyboxPass(sceneColor, depth)
	info := pass.Info()

	if findRead(t, info, depth) != resources.DepthStencilAttachment {
		t.Fatalf("expected depth read to be DepthStencilAttachment")
	}
	if findWrite(t, info, sceneColor) != resources.ColorAttachment {
		t.Fatalf("expected SceneColor write to be ColorAttachment")
	}
	if err := pass.CreateResources(pool); err != nil {
		t.Fatalf("CreateResources with nil device: %v", err)
	}
}

func TestLightingPassInfo(t *testing.T) {
	pool := newTestPool()
	attachments := GeometryAttachments{
		Position: pool.AddImage("Position", resources.ColorAttachment, framegraph.ImageSpec{}),
		Normal:   pool.AddImage("Normal", resources.ColorAttachment, framegraph.ImageSpec{}),
		Albedo:   pool.AddImage("Albedo", resources.ColorAttachment, framegraph.ImageSpec{}),
		ARM:      pool.AddImage("ARM", resources.ColorAttachment, framegraph.ImageSpec{}),
		Emissive: pool.AddImage("Emissive", resources.ColorAttachment, framegraph.ImageSpec{}),
		Depth:    pool.AddImage("Depth", resources.DepthStencilAttachment, framegraph.ImageSpec{}),
	}
	sceneColor := pool.AddImage("SceneColor", resources.ComputeWriteStorage, framegraph.ImageSpec{})
	lights := pool.AddBuffer("Lights", resources.ComputeReadStorage, framegraph.BufferSpec{})

	pass := NewLightingPass(attachments, sceneColor, lights)
	info := pass.Info()

	if len(info.Reads) != 6 {
		t.Fatalf("expected 6 reads (5 G-buffer + lights), got %d", len(info.Reads))
	}
	for _, h := range []framegraph.LogicalResourceHandle{attachments.Position, attachments.Normal, attachments.Albedo, attachments.ARM, attachments.Emissive} {
		if findRead(t, info, h) != resources.ComputeReadSampled {
			t.Fatalf("expected G-buffer read to be ComputeReadSampled")
		}
	}
	if findRead(t, info, lights) != resources.ComputeReadStorage {
		t.Fatalf("expected lights read to be ComputeReadStorage")
	}
	if findWrite(t, info, sceneColor) != resources.ComputeWriteStorage {
		t.Fatalf("expected SceneColor write to be ComputeWriteStorage")
	}
	if err := pass.CreateResources(pool); err != nil {
		t.Fatalf("CreateResources with nil device: %v", err)
	}
}

func TestTransparentPassInfo(t *testing.T) {
	pool := newTestPool()
	sceneColor := pool.AddImage("SceneColor", resources.ColorAttachment, framegraph.ImageSpec{})
	depth := pool.AddImage("Depth", resources.DepthStencilAttachment, framegraph.ImageSpec{})
	camera := pool.AddBuffer("Camera", resources.ComputeReadStorage, framegraph.BufferSpec{})
	instances := pool.AddBuffer("Instances", resources.ComputeReadStorage, framegraph.BufferSpec{})

	pass := NewTransparentPass(sceneColor, depth, camera, instances, fakeBatchSource{})
	info := pass.Info()

	if findRead(t, info, depth) != resources.DepthStencilAttachment {
		t.Fatalf("expected depth read to be DepthStencilAttachment")
	}
	if findWrite(t, info, sceneColor) != resources.ColorAttachment {
		t.Fatalf("expected SceneColor write to be ColorAttachment")
	}
	if err := pass.CreateResources(pool); err != nil {
		t.Fatalf("CreateResources with nil device: %v", err)
	}
}

func TestBloomPassInfo(t *testing.T) {
	pool := newTestPool()
	sceneColor := pool.AddImage("SceneColor", resources.ColorAttachment, framegraph.ImageSpec{})
	bloom := pool.AddImage("Bloom", resources.ComputeWriteStorage, framegraph.ImageSpec{})

	pass := NewBloomPass(sceneColor, bloom)
	info := pass.Info()

	if findRead(t, info, sceneColor) != resources.ComputeReadSampled {
		t.Fatalf("expected SceneColor read to be ComputeReadSampled")
	}
	if findWrite(t, info, bloom) != resources.ComputeWriteStorage {
		t.Fatalf("expected Bloom write to be ComputeWriteStorage")
	}

	// CreateResources needs a real device to build textures and pipelines;
	// with a nil device it must no-op rather than panic.
	if err := pass.CreateResources(pool); err != nil {
		t.Fatalf("CreateResources with nil device: %v", err)
	}
}

func TestPostprocessPassInfo(t *testing.T) {
	pool := newTestPool()
	sceneColor := pool.AddImage("SceneColor", resources.FragmentReadSampled, framegraph.ImageSpec{})
	bloom := pool.AddImage("Bloom", resources.FragmentReadSampled, framegraph.ImageSpec{})
	final := pool.AddImage("Final", resources.ColorAttachment, framegraph.ImageSpec{})

	pass := NewPostprocessPass(sceneColor, bloom, final)
	info := pass.Info()

	if findRead(t, info, sceneColor) != resources.FragmentReadSampled {
		t.Fatalf("expected SceneColor read to be FragmentReadSampled")
	}
	if findRead(t, info, bloom) != resources.FragmentReadSampled {
		t.Fatalf("expected Bloom read to be FragmentReadSampled")
	}
	if findWrite(t, info, final) != resources.ColorAttachment {
		t.Fatalf("expected Final write to be ColorAttachment")
	}
	if err := pass.CreateResources(pool); err != nil {
		t.Fatalf("CreateResources with nil device: %v", err)
	}
}

func TestPresentPassInfo(t *testing.T) {
	pool := newTestPool()
	final := pool.AddImage("Final", resources.TransferSrc, framegraph.ImageSpec{})

	swapchain := func() (*wgpu.Texture, error) { return nil, nil }
	pass := NewPresentPass(final, swapchain, resources.Extent2D{Width: 1920, Height: 1080})
	info := pass.Info()

	if findRead(t, info, final) != resources.TransferSrc {
		t.Fatalf("expected Final read to be TransferSrc")
	}
	if len(info.Writes) != 0 {
		t.Fatalf("expected present pass to declare no writes, got %d", len(info.Writes))
	}
	if err := pass.CreateResources(pool); err != nil {
		t.Fatalf("CreateResources: %v", err)
	}
}

func TestUIPassInfo(t *testing.T) {
	pool := newTestPool()
	final := pool.AddImage("Final", resources.ColorAttachment, framegraph.ImageSpec{})

	pass := NewUIPass(final)
	info := pass.Info()

	if len(info.Reads) != 0 {
		t.Fatalf("expected UI pass to declare no reads (only a write, to avoid tripping the same-pass read/write check), got %d", len(info.Reads))
	}
	if findWrite(t, info, final) != resources.ColorAttachment {
		t.Fatalf("expected Final write to be ColorAttachment")
	}
	if err := pass.CreateResources(pool); err != nil {
		t.Fatalf("CreateResources: %v", err)
	}
}
