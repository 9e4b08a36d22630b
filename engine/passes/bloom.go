package passes

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/framegraph"
	"github.com/duskforge/oxyfg/engine/renderer/shader"
	"github.com/duskforge/oxyfg/engine/resources"
)

// BloomMipLevels is the fixed mip count of the bloom pyramid.
const BloomMipLevels = 6

// BloomPass owns the HDR bloom mip chain and its three compute stages:
// threshold, iterative downsample, iterative upsample. Per-mip ordering is
// handled inside this pass (its dispatches run in order within one compute
// pass) rather than through the frame graph; the frame graph only sees the pass'
// declared read of SceneColor and write of the Bloom logical resource as a
// whole.
type BloomPass struct {
	sceneColor, bloom framegraph.LogicalResourceHandle

	thresholdPipeline  *wgpu.ComputePipeline
	thresholdLayouts   map[int]*wgpu.BindGroupLayout
	downsamplePipeline *wgpu.ComputePipeline
	downsampleLayouts  map[int]*wgpu.BindGroupLayout
	upsamplePipeline   *wgpu.ComputePipeline
	upsampleLayouts    map[int]*wgpu.BindGroupLayout

	mipViews []*wgpu.TextureView
	sampler  *resources.Sampler
}

var _ framegraph.Pass = (*BloomPass)(nil)

// NewBloomPass constructs the bloom pass against the SceneColor it reads
// from and the Bloom logical image (MipLevels: BloomMipLevels) it owns.
func NewBloomPass(sceneColor, bloom framegraph.LogicalResourceHandle) *BloomPass {
	return &BloomPass{sceneColor: sceneColor, bloom: bloom}
}

// Info implements framegraph.Pass.
func (p *BloomPass) Info() framegraph.NodeInfo {
	return framegraph.NodeInfo{
		Name: "Bloom",
		Reads: []framegraph.ReadWrite{
			{Handle: p.sceneColor, Usage: resources.ComputeReadSampled},
		},
		Writes: []framegraph.ReadWrite{
			{Handle: p.bloom, Usage: resources.ComputeWriteStorage},
		},
	}
}

// CreateResources builds the three compute pipelines and rebuilds the
// per-mip texture views, since the bloom texture's underlying wgpu.Texture
// is re-created on every swapchain resize (it is SwapchainRelative-sized
// relative to the scene color buffer).
func (p *BloomPass) CreateResources(pool *framegraph.Pool) error {
	device := pool.Device()
	if device == nil {
		return nil
	}

	if p.thresholdPipeline == nil {
		cs := loadShader("bloom_threshold", shader.ShaderTypeCompute, "bloom_threshold.comp.wgsl")
		pipeline, layouts, err := buildComputePipeline(device, "BloomThreshold", cs)
		if err != nil {
			return fmt.Errorf("bloom pass: threshold: %w", err)
		}
		p.thresholdPipeline, p.thresholdLayouts = pipeline, layouts
	}
	if p.downsamplePipeline == nil {
		cs := loadShader("bloom_downsample", shader.ShaderTypeCompute, "bloom_downsample.comp.wgsl")
		pipeline, layouts, err := buildComputePipeline(device, "BloomDownsample", cs)
		if err != nil {
			return fmt.Errorf("bloom pass: downsample: %w", err)
		}
		p.downsamplePipeline, p.downsampleLayouts = pipeline, layouts
	}
	if p.upsamplePipeline == nil {
		cs := loadShader("bloom_upsample", shader.ShaderTypeCompute, "bloom_upsample.comp.wgsl")
		pipeline, layouts, err := buildComputePipeline(device, "BloomUpsample", cs)
		if err != nil {
			return fmt.Errorf("bloom pass: upsample: %w", err)
		}
		p.upsamplePipeline, p.upsampleLayouts = pipeline, layouts
	}
	if p.sampler == nil {
		samp, err := resources.NewSampler(device, &wgpu.SamplerDescriptor{
			Label:        "BloomLinear",
			MagFilter:    wgpu.FilterModeLinear,
			MinFilter:    wgpu.FilterModeLinear,
			AddressModeU: wgpu.AddressModeClampToEdge,
			AddressModeV: wgpu.AddressModeClampToEdge,
		})
		if err != nil {
			return fmt.Errorf("bloom pass: sampler: %w", err)
		}
		p.sampler = samp
	}

	tex := pool.Image(p.bloom).Texture()
	mipViews := make([]*wgpu.TextureView, BloomMipLevels)
	for i := uint32(0); i < BloomMipLevels; i++ {
		view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
			BaseMipLevel:  i,
			MipLevelCount: 1,
		})
		if err != nil {
			return fmt.Errorf("bloom pass: mip %d view: %w", i, err)
		}
		mipViews[i] = view
	}
	p.mipViews = mipViews
	return nil
}

// Execute runs the threshold stage into mip 0, then downsamples mip i into
// mip i+1 for every remaining mip, then additively upsamples back down to
// mip 0.
func (p *BloomPass) Execute(ctx framegraph.ExecuteContext) error {
	if p.thresholdPipeline == nil || len(p.mipViews) != BloomMipLevels {
		return nil
	}
	device := ctx.Pool.Device()
	sceneColorView := ctx.Pool.Image(p.sceneColor).View()

	pass := ctx.Encoder.BeginComputePass(nil)
	defer pass.End()

	mip0Size := ctx.Pool.Image(p.bloom).Extent()

	thresholdGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "BloomThreshold",
		Layout: p.thresholdLayouts[0],
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: sceneColorView},
			{Binding: 1, TextureView: p.mipViews[0]},
		},
	})
	if err != nil {
		return fmt.Errorf("bloom pass: threshold bind group: %w", err)
	}
	pass.SetPipeline(p.thresholdPipeline)
	pass.SetBindGroup(0, thresholdGroup, nil)
	pass.DispatchWorkgroups(dispatchCount(mip0Size.Width, tileSize), dispatchCount(mip0Size.Height, tileSize), 1)

	for i := 0; i < BloomMipLevels-1; i++ {
		w := mip0Size.Width >> uint(i+1)
		h := mip0Size.Height >> uint(i+1)
		group, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "BloomDownsample",
			Layout: p.downsampleLayouts[0],
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: p.mipViews[i]},
				{Binding: 1, Sampler: p.sampler.Handle()},
				{Binding: 2, TextureView: p.mipViews[i+1]},
			},
		})
		if err != nil {
			return fmt.Errorf("bloom pass: downsample bind group %d: %w", i, err)
		}
		pass.SetPipeline(p.downsamplePipeline)
		pass.SetBindGroup(0, group, nil)
		pass.DispatchWorkgroups(dispatchCount(max32(w, 1), tileSize), dispatchCount(max32(h, 1), tileSize), 1)
	}

	for i := BloomMipLevels - 1; i > 0; i-- {
		w := mip0Size.Width >> uint(i-1)
		h := mip0Size.Height >> uint(i-1)
		group, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "BloomUpsample",
			Layout: p.upsampleLayouts[0],
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: p.mipViews[i]},
				{Binding: 1, Sampler: p.sampler.Handle()},
				{Binding: 2, TextureView: p.mipViews[i-1]},
			},
		})
		if err != nil {
			return fmt.Errorf("bloom pass: upsample bind group %d: %w", i, err)
		}
		pass.SetPipeline(p.upsamplePipeline)
		pass.SetBindGroup(0, group, nil)
		pass.DispatchWorkgroups(dispatchCount(max32(w, 1), tileSize), dispatchCount(max32(h, 1), tileSize), 1)
	}

	return nil
}

func dispatchCount(extent uint32, tile uint32) uint32 {
	return (extent + tile - 1) / tile
}

func max32(v, floor uint32) uint32 {
	if v < floor {
		return floor
	}
	return v
}
