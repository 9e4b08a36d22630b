package passes

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/framegraph"
	"github.com/duskforge/oxyfg/engine/renderer/shader"
	"github.com/duskforge/oxyfg/engine/resources"
)

// SkyboxPass draws the sky into SceneColor behind existing geometry: depth
// test on, depth write off.
type SkyboxPass struct {
	sceneColor, depth framegraph.LogicalResourceHandle

	pipeline *wgpu.RenderPipeline
	layouts  map[int]*wgpu.BindGroupLayout
}

var _ framegraph.Pass = (*SkyboxPass)(nil)

// NewSkyboxPass constructs the skybox pass against the shared SceneColor
// resource and the Depth resource the geometry pass already wrote.
func NewSkyboxPass(sceneColor, depth framegraph.LogicalResourceHandle) *SkyboxPass {
	return &SkyboxPass{sceneColor: sceneColor, depth: depth}
}

// Info implements framegraph.Pass.
func (p *SkyboxPass) Info() framegraph.NodeInfo {
	return framegraph.NodeInfo{
		Name: "Skybox",
		Reads: []framegraph.ReadWrite{
			{Handle: p.depth, Usage: resources.DepthStencilAttachment},
		},
		Writes: []framegraph.ReadWrite{
			{Handle: p.sceneColor, Usage: resources.ColorAttachment},
		},
	}
}

// CreateResources builds the fullscreen-triangle pipeline.
func (p *SkyboxPass) CreateResources(pool *framegraph.Pool) error {
	if p.pipeline != nil {
		return nil
	}
	device := pool.Device()
	if device == nil {
		return nil
	}

	vs := loadShader("skybox_vert", shader.ShaderTypeVertex, "skybox.vert.wgsl")
	fs := loadShader("skybox_frag", shader.ShaderTypeFragment, "skybox.frag.wgsl")

	pipeline, layouts, err := buildRenderPipeline(device, renderPipelineSpec{
		Label:        "Skybox",
		Vertex:       vs,
		Fragment:     fs,
		Colors:       []colorTarget{{Format: pool.Image(p.sceneColor).Format()}},
		DepthFormat:  pool.Image(p.depth).Format(),
		DepthWrite:   false,
		DepthCompare: wgpu.CompareFunctionLessEqual,
		CullMode:     wgpu.CullModeNone,
	})
	if err != nil {
		return fmt.Errorf("skybox pass: %w", err)
	}
	p.pipeline = pipeline
	p.layouts = layouts
	return nil
}

// Execute draws the fullscreen sky triangle against the existing depth
// buffer, loading (not clearing) both attachments: Depth holds the
// geometry pass' output for this frame, and SceneColor keeps whatever it
// already contains.
func (p *SkyboxPass) Execute(ctx framegraph.ExecuteContext) error {
	pool := ctx.Pool
	pass := ctx.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Skybox",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{View: pool.Image(p.sceneColor).View(), LoadOp: wgpu.LoadOpLoad, StoreOp: wgpu.StoreOpStore},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:         pool.Image(p.depth).View(),
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpStore,
		},
	})
	if p.pipeline != nil {
		pass.SetPipeline(p.pipeline)
		pass.Draw(3, 1, 0, 0)
	}
	pass.End()
	return nil
}
