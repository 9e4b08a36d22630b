package passes

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/framegraph"
	"github.com/duskforge/oxyfg/engine/renderer/shader"
	"github.com/duskforge/oxyfg/engine/resources"
	"github.com/duskforge/oxyfg/engine/scene"
)

// BatchSource is the subset of engine/scene.InstanceFeed's API the geometry
// and transparent passes need: this frame's per-batch draw parameters.
type BatchSource interface {
	DrawBatches() []scene.DrawBatch
}

// GeometryAttachments names the five G-buffer color attachments the
// geometry pass writes (Position, Normal, Albedo, ARM, Emissive), plus the
// shared depth attachment. All six are cleared on load.
type GeometryAttachments struct {
	Position, Normal, Albedo, ARM, Emissive framegraph.LogicalResourceHandle
	Depth                                   framegraph.LogicalResourceHandle
}

// GeometryPass renders every opaque instance into the G-buffer.
type GeometryPass struct {
	attachments GeometryAttachments
	camera      framegraph.LogicalResourceHandle
	instances   framegraph.LogicalResourceHandle
	batches     BatchSource

	pipeline *wgpu.RenderPipeline
	layouts  map[int]*wgpu.BindGroupLayout
}

var _ framegraph.Pass = (*GeometryPass)(nil)

// NewGeometryPass constructs the geometry pass. camera and instances are
// references to the buffers engine/scene's instance feed writes each
// frame; batches is that same instance feed, consulted each Execute for
// this frame's per-batch draw parameters.
func NewGeometryPass(attachments GeometryAttachments, camera, instances framegraph.LogicalResourceHandle, batches BatchSource) *GeometryPass {
	return &GeometryPass{attachments: attachments, camera: camera, instances: instances, batches: batches}
}

// Info implements framegraph.Pass.
func (p *GeometryPass) Info() framegraph.NodeInfo {
	a := p.attachments
	return framegraph.NodeInfo{
		Name: "Geometry",
		Reads: []framegraph.ReadWrite{
			// The UsageKind table has no dedicated uniform-buffer kind;
			// ComputeReadStorage is the entry that yields a non-zero
			// buffer usage flag, so buffer reads declare it regardless
			// of which shader stage actually reads them.
			{Handle: p.camera, Usage: resources.ComputeReadStorage},
			{Handle: p.instances, Usage: resources.ComputeReadStorage},
		},
		Writes: []framegraph.ReadWrite{
			{Handle: a.Position, Usage: resources.ColorAttachment},
			{Handle: a.Normal, Usage: resources.ColorAttachment},
			{Handle: a.Albedo, Usage: resources.ColorAttachment},
			{Handle: a.ARM, Usage: resources.ColorAttachment},
			{Handle: a.Emissive, Usage: resources.ColorAttachment},
			{Handle: a.Depth, Usage: resources.DepthStencilAttachment},
		},
	}
}

// CreateResources builds the render pipeline against the materialized
// G-buffer formats. Re-invoked after every resize since the swapchain-
// relative G-buffer images may have changed format-compatible but re-created
// textures (the pipeline itself only depends on format, so the rebuild is
// skipped once the pipeline exists).
func (p *GeometryPass) CreateResources(pool *framegraph.Pool) error {
	if p.pipeline != nil {
		return nil
	}
	device := pool.Device()
	if device == nil {
		return nil
	}

	vs := loadShader("geometry_vert", shader.ShaderTypeVertex, "geometry.vert.wgsl")
	fs := loadShader("geometry_frag", shader.ShaderTypeFragment, "geometry.frag.wgsl")

	a := p.attachments
	colors := []colorTarget{
		{Format: pool.Image(a.Position).Format()},
		{Format: pool.Image(a.Normal).Format()},
		{Format: pool.Image(a.Albedo).Format()},
		{Format: pool.Image(a.ARM).Format()},
		{Format: pool.Image(a.Emissive).Format()},
	}

	pipeline, layouts, err := buildRenderPipeline(device, renderPipelineSpec{
		Label:        "Geometry",
		Vertex:       vs,
		Fragment:     fs,
		VertexLayout: []wgpu.VertexBufferLayout{vertexLayout()},
		Colors:       colors,
		DepthFormat:  pool.Image(a.Depth).Format(),
		DepthWrite:   true,
		DepthCompare: wgpu.CompareFunctionLess,
		CullMode:     wgpu.CullModeBack,
	})
	if err != nil {
		return fmt.Errorf("geometry pass: %w", err)
	}
	p.pipeline = pipeline
	p.layouts = layouts
	return nil
}

// Execute records the geometry pass' render pass: after the cleared
// G-buffer attachments are bound, one direct DrawIndexed call per batch
// draws that batch's instance range from engine/scene's instance feed,
// binding each batch's representative mesh's vertex/index buffers in turn.
func (p *GeometryPass) Execute(ctx framegraph.ExecuteContext) error {
	a := p.attachments
	pool := ctx.Pool

	colorAttachments := make([]wgpu.RenderPassColorAttachment, 0, 5)
	for _, h := range []framegraph.LogicalResourceHandle{a.Position, a.Normal, a.Albedo, a.ARM, a.Emissive} {
		colorAttachments = append(colorAttachments, wgpu.RenderPassColorAttachment{
			View:    pool.Image(h).View(),
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
		})
	}

	pass := ctx.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            "Geometry",
		ColorAttachments: colorAttachments,
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            pool.Image(a.Depth).View(),
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	if p.pipeline != nil {
		pass.SetPipeline(p.pipeline)
		if err := bindCameraAndInstances(pass, ctx, p.layouts, "Geometry", p.camera, p.instances); err != nil {
			pass.End()
			return fmt.Errorf("geometry pass: %w", err)
		}
		for _, b := range p.batches.DrawBatches() {
			if b.Mesh == nil || b.InstanceCount == 0 || b.Transparent {
				continue
			}
			pass.SetVertexBuffer(0, b.Mesh.VertexBuffer(), 0, wgpu.WholeSize)
			pass.SetIndexBuffer(b.Mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
			pass.DrawIndexed(b.IndexCount, b.InstanceCount, 0, 0, b.FirstInstance)
		}
	}
	pass.End()
	return nil
}

// bindCameraAndInstances builds and binds the two bind groups the geometry
// and transparent vertex shaders share: group 0 is the current frame slot's
// slice of the camera uniform, group 1 the current slot's slice of the
// dynamic instance buffer.
func bindCameraAndInstances(pass *wgpu.RenderPassEncoder, ctx framegraph.ExecuteContext, layouts map[int]*wgpu.BindGroupLayout, label string, camera, instances framegraph.LogicalResourceHandle) error {
	device := ctx.Pool.Device()

	cam := ctx.Pool.Buffer(camera)
	if layouts[0] != nil {
		group, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  label + " camera",
			Layout: layouts[0],
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: cam.Handle(), Offset: cam.SlotOffset(ctx.Slot), Size: cam.PerSlotSize()},
			},
		})
		if err != nil {
			return fmt.Errorf("camera bind group: %w", err)
		}
		pass.SetBindGroup(0, group, nil)
	}

	inst := ctx.Pool.Buffer(instances)
	if layouts[1] != nil {
		group, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  label + " instances",
			Layout: layouts[1],
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: inst.Handle(), Offset: inst.SlotOffset(ctx.Slot), Size: inst.PerSlotSize()},
			},
		})
		if err != nil {
			return fmt.Errorf("instance bind group: %w", err)
		}
		pass.SetBindGroup(1, group, nil)
	}
	return nil
}

// vertexLayout describes model.GPUVertex's 64-byte layout (position,
// normal, tex_coord, color, tangent), shared by the geometry and
// transparent passes since both consume the same static mesh vertex
// format.
func vertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 64,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 3},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 4},
		},
	}
}
