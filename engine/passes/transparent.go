package passes

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/framegraph"
	"github.com/duskforge/oxyfg/engine/renderer/shader"
	"github.com/duskforge/oxyfg/engine/resources"
)

// TransparentPass forward-renders alpha-blended instances directly into
// SceneColor after the skybox and lighting passes, reading (not writing)
// Depth for occlusion against opaque geometry. It draws exactly the batches
// engine/scene's instance feed partitioned as transparent (engine/renderer/
// material.Material.Transparent); engine/passes.GeometryPass draws the rest,
// so no instance is drawn by both passes.
type TransparentPass struct {
	sceneColor, depth, camera, instances framegraph.LogicalResourceHandle
	batches                              BatchSource

	pipeline *wgpu.RenderPipeline
	layouts  map[int]*wgpu.BindGroupLayout
}

var _ framegraph.Pass = (*TransparentPass)(nil)

// NewTransparentPass constructs the transparent pass. batches is the same
// instance feed GeometryPass draws from; this pass draws only the subset
// of its batches flagged DrawBatch.Transparent.
func NewTransparentPass(sceneColor, depth, camera, instances framegraph.LogicalResourceHandle, batches BatchSource) *TransparentPass {
	return &TransparentPass{sceneColor: sceneColor, depth: depth, camera: camera, instances: instances, batches: batches}
}

// Info implements framegraph.Pass.
func (p *TransparentPass) Info() framegraph.NodeInfo {
	return framegraph.NodeInfo{
		Name: "Transparent",
		Reads: []framegraph.ReadWrite{
			{Handle: p.depth, Usage: resources.DepthStencilAttachment},
			{Handle: p.camera, Usage: resources.ComputeReadStorage},
			{Handle: p.instances, Usage: resources.ComputeReadStorage},
		},
		Writes: []framegraph.ReadWrite{
			{Handle: p.sceneColor, Usage: resources.ColorAttachment},
		},
	}
}

// CreateResources builds the alpha-blended forward pipeline.
func (p *TransparentPass) CreateResources(pool *framegraph.Pool) error {
	if p.pipeline != nil {
		return nil
	}
	device := pool.Device()
	if device == nil {
		return nil
	}

	vs := loadShader("transparent_vert", shader.ShaderTypeVertex, "transparent.vert.wgsl")
	fs := loadShader("transparent_frag", shader.ShaderTypeFragment, "transparent.frag.wgsl")

	pipeline, layouts, err := buildRenderPipeline(device, renderPipelineSpec{
		Label:        "Transparent",
		Vertex:       vs,
		Fragment:     fs,
		VertexLayout: []wgpu.VertexBufferLayout{vertexLayout()},
		Colors: []colorTarget{{
			Format: pool.Image(p.sceneColor).Format(),
			Blend: &wgpu.BlendState{
				Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorSrcAlpha, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
				Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
			},
		}},
		DepthFormat:  pool.Image(p.depth).Format(),
		DepthWrite:   false,
		DepthCompare: wgpu.CompareFunctionLess,
		CullMode:     wgpu.CullModeBack,
	})
	if err != nil {
		return fmt.Errorf("transparent pass: %w", err)
	}
	p.pipeline = pipeline
	p.layouts = layouts
	return nil
}

// Execute records the transparent forward-rendering pass.
func (p *TransparentPass) Execute(ctx framegraph.ExecuteContext) error {
	pool := ctx.Pool
	pass := ctx.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Transparent",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{View: pool.Image(p.sceneColor).View(), LoadOp: wgpu.LoadOpLoad, StoreOp: wgpu.StoreOpStore},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:         pool.Image(p.depth).View(),
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpDiscard,
		},
	})
	if p.pipeline != nil {
		pass.SetPipeline(p.pipeline)
		if err := bindCameraAndInstances(pass, ctx, p.layouts, "Transparent", p.camera, p.instances); err != nil {
			pass.End()
			return fmt.Errorf("transparent pass: %w", err)
		}
		for _, b := range p.batches.DrawBatches() {
			if b.Mesh == nil || b.InstanceCount == 0 || !b.Transparent {
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
