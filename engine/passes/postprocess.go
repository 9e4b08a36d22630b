package passes

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/framegraph"
	"github.com/duskforge/oxyfg/engine/renderer/shader"
	"github.com/duskforge/oxyfg/engine/resources"
)

// PostprocessPass composes SceneColor and the bloom pyramid's base mip into
// Final, tonemapping along the way.
type PostprocessPass struct {
	sceneColor, bloom, final framegraph.LogicalResourceHandle

	pipeline *wgpu.RenderPipeline
	layouts  map[int]*wgpu.BindGroupLayout
	sampler  *resources.Sampler
}

var _ framegraph.Pass = (*PostprocessPass)(nil)

// NewPostprocessPass constructs the post-process pass.
func NewPostprocessPass(sceneColor, bloom, final framegraph.LogicalResourceHandle) *PostprocessPass {
	return &PostprocessPass{sceneColor: sceneColor, bloom: bloom, final: final}
}

// Info implements framegraph.Pass.
func (p *PostprocessPass) Info() framegraph.NodeInfo {
	return framegraph.NodeInfo{
		Name: "Postprocess",
		Reads: []framegraph.ReadWrite{
			{Handle: p.sceneColor, Usage: resources.FragmentReadSampled},
			{Handle: p.bloom, Usage: resources.FragmentReadSampled},
		},
		Writes: []framegraph.ReadWrite{
			{Handle: p.final, Usage: resources.ColorAttachment},
		},
	}
}

// CreateResources builds the compositing pipeline and its sampler.
func (p *PostprocessPass) CreateResources(pool *framegraph.Pool) error {
	device := pool.Device()
	if device == nil {
		return nil
	}
	if p.sampler == nil {
		samp, err := resources.NewSampler(device, &wgpu.SamplerDescriptor{
			Label:        "PostprocessComposite",
			MagFilter:    wgpu.FilterModeLinear,
			MinFilter:    wgpu.FilterModeLinear,
			AddressModeU: wgpu.AddressModeClampToEdge,
			AddressModeV: wgpu.AddressModeClampToEdge,
		})
		if err != nil {
			return fmt.Errorf("postprocess pass: sampler: %w", err)
		}
		p.sampler = samp
	}
	if p.pipeline != nil {
		return nil
	}

	vs := loadShader("postprocess_vert", shader.ShaderTypeVertex, "postprocess.vert.wgsl")
	fs := loadShader("postprocess_frag", shader.ShaderTypeFragment, "postprocess.frag.wgsl")

	pipeline, layouts, err := buildRenderPipeline(device, renderPipelineSpec{
		Label:    "Postprocess",
		Vertex:   vs,
		Fragment: fs,
		Colors:   []colorTarget{{Format: pool.Image(p.final).Format()}},
	})
	if err != nil {
		return fmt.Errorf("postprocess pass: %w", err)
	}
	p.pipeline = pipeline
	p.layouts = layouts
	return nil
}

// Execute composites SceneColor and Bloom into Final.
func (p *PostprocessPass) Execute(ctx framegraph.ExecuteContext) error {
	pool := ctx.Pool
	device := pool.Device()

	var bindGroup *wgpu.BindGroup
	if p.pipeline != nil && p.layouts[0] != nil {
		var err error
		bindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "Postprocess",
			Layout: p.layouts[0],
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: pool.Image(p.sceneColor).View()},
				{Binding: 1, TextureView: pool.Image(p.bloom).View()},
				{Binding: 2, Sampler: p.sampler.Handle()},
			},
		})
		if err != nil {
			return fmt.Errorf("postprocess pass: bind group: %w", err)
		}
	}

	pass := ctx.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Postprocess",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{View: pool.Image(p.final).View(), LoadOp: wgpu.LoadOpClear, StoreOp: wgpu.StoreOpStore},
		},
	})
	if p.pipeline != nil {
		pass.SetPipeline(p.pipeline)
		if bindGroup != nil {
			pass.SetBindGroup(0, bindGroup, nil)
		}
		pass.Draw(3, 1, 0, 0)
	}
	pass.End()
	return nil
}
