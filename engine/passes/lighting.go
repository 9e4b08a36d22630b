package passes

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/framegraph"
	"github.com/duskforge/oxyfg/engine/light"
	"github.com/duskforge/oxyfg/engine/renderer/shader"
	"github.com/duskforge/oxyfg/engine/resources"
)

// tileSize is the lighting compute pass' dispatch granularity; the dispatch
// covers the swapchain extent in 16x16 tiles.
const tileSize = 16

// LightingPass is a compute pass reading the five G-buffer attachments as
// sampled images and writing SceneColor as a storage image.
type LightingPass struct {
	gbuffer    GeometryAttachments
	sceneColor framegraph.LogicalResourceHandle
	lights     framegraph.LogicalResourceHandle

	pipeline *wgpu.ComputePipeline
	layouts  map[int]*wgpu.BindGroupLayout
}

var _ framegraph.Pass = (*LightingPass)(nil)

// NewLightingPass constructs the lighting pass. lights is a reference to
// engine/light's per-frame light header + storage buffer.
func NewLightingPass(gbuffer GeometryAttachments, sceneColor, lights framegraph.LogicalResourceHandle) *LightingPass {
	return &LightingPass{gbuffer: gbuffer, sceneColor: sceneColor, lights: lights}
}

// Info implements framegraph.Pass.
func (p *LightingPass) Info() framegraph.NodeInfo {
	g := p.gbuffer
	return framegraph.NodeInfo{
		Name: "Lighting",
		Reads: []framegraph.ReadWrite{
			{Handle: g.Position, Usage: resources.ComputeReadSampled},
			{Handle: g.Normal, Usage: resources.ComputeReadSampled},
			{Handle: g.Albedo, Usage: resources.ComputeReadSampled},
			{Handle: g.ARM, Usage: resources.ComputeReadSampled},
			{Handle: g.Emissive, Usage: resources.ComputeReadSampled},
			{Handle: p.lights, Usage: resources.ComputeReadStorage},
		},
		Writes: []framegraph.ReadWrite{
			{Handle: p.sceneColor, Usage: resources.ComputeWriteStorage},
		},
	}
}

// CreateResources builds the compute pipeline.
func (p *LightingPass) CreateResources(pool *framegraph.Pool) error {
	if p.pipeline != nil {
		return nil
	}
	device := pool.Device()
	if device == nil {
		return nil
	}

	cs := loadShader("lighting_compute", shader.ShaderTypeCompute, "lighting.comp.wgsl")
	pipeline, layouts, err := buildComputePipeline(device, "Lighting", cs)
	if err != nil {
		return fmt.Errorf("lighting pass: %w", err)
	}
	p.pipeline = pipeline
	p.layouts = layouts
	return nil
}

// Execute dispatches the lighting compute shader across the swapchain
// extent in 16x16 tiles.
func (p *LightingPass) Execute(ctx framegraph.ExecuteContext) error {
	pool := ctx.Pool
	extent := pool.Image(p.sceneColor).Extent()

	pass := ctx.Encoder.BeginComputePass(nil)
	if p.pipeline != nil {
		device := pool.Device()
		g := p.gbuffer

		if p.layouts[0] != nil {
			group, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
				Label:  "Lighting gbuffer",
				Layout: p.layouts[0],
				Entries: []wgpu.BindGroupEntry{
					{Binding: 0, TextureView: pool.Image(g.Position).View()},
					{Binding: 1, TextureView: pool.Image(g.Normal).View()},
					{Binding: 2, TextureView: pool.Image(g.Albedo).View()},
					{Binding: 3, TextureView: pool.Image(g.ARM).View()},
					{Binding: 4, TextureView: pool.Image(g.Emissive).View()},
					{Binding: 5, TextureView: pool.Image(p.sceneColor).View()},
				},
			})
			if err != nil {
				pass.End()
				return fmt.Errorf("lighting pass: gbuffer bind group: %w", err)
			}
			pass.SetBindGroup(0, group, nil)
		}

		if p.layouts[1] != nil {
			lights := pool.Buffer(p.lights)
			group, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
				Label:  "Lighting lights",
				Layout: p.layouts[1],
				Entries: []wgpu.BindGroupEntry{
					{Binding: 0, Buffer: lights.Handle(), Offset: lights.SlotOffset(ctx.Slot), Size: light.GPULightHeaderSize},
					{Binding: 1, Buffer: lights.Handle(), Offset: lights.SlotOffset(ctx.Slot) + light.ArrayOffset, Size: lights.PerSlotSize() - light.ArrayOffset},
				},
			})
			if err != nil {
				pass.End()
				return fmt.Errorf("lighting pass: light bind group: %w", err)
			}
			pass.SetBindGroup(1, group, nil)
		}

		pass.SetPipeline(p.pipeline)
		groupsX := (extent.Width + tileSize - 1) / tileSize
		groupsY := (extent.Height + tileSize - 1) / tileSize
		pass.DispatchWorkgroups(groupsX, groupsY, 1)
	}
	pass.End()
	return nil
}
