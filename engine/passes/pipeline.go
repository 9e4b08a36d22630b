package passes

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/renderer/shader"
)

// loadShader loads a WGSL shader embedded under shaders/ via ShaderSources.
// Every pass shares this one loader so shader source paths stay relative to
// this package regardless of where the calling code lives.
func loadShader(key string, shaderType shader.ShaderType, path string) shader.Shader {
	return shader.NewShaderFromFS(ShaderSources, key, shaderType, "shaders/"+path)
}

// colorTarget is one color attachment's format and blend configuration for
// buildRenderPipeline.
type colorTarget struct {
	Format wgpu.TextureFormat
	Blend  *wgpu.BlendState
}

// renderPipelineSpec is everything a pass contributes to its render
// pipeline: shaders, vertex layout, color targets with optional blending,
// and depth state. Passes write their own multi-attachment G-buffers, so
// the color target list is arbitrary-length rather than a single
// swapchain-bound target.
type renderPipelineSpec struct {
	Label        string
	Vertex       shader.Shader
	Fragment     shader.Shader
	VertexLayout []wgpu.VertexBufferLayout
	Colors       []colorTarget
	DepthFormat  wgpu.TextureFormat
	DepthWrite   bool
	DepthCompare wgpu.CompareFunction
	Topology     wgpu.PrimitiveTopology
	CullMode     wgpu.CullMode
}

// buildRenderPipeline merges the vertex/fragment bind group layouts, builds
// a pipeline layout, then the render pipeline itself. Returns the pipeline
// and the bind group layouts keyed by group index for the caller to build
// its own per-frame bind groups against.
func buildRenderPipeline(device *wgpu.Device, spec renderPipelineSpec) (*wgpu.RenderPipeline, map[int]*wgpu.BindGroupLayout, error) {
	vs, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          spec.Vertex.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: spec.Vertex.Source()},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("passes: %s: vertex module: %w", spec.Label, err)
	}
	fs, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          spec.Fragment.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: spec.Fragment.Source()},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("passes: %s: fragment module: %w", spec.Label, err)
	}

	merged := mergeLayoutDescriptors(spec.Vertex.BindGroupLayoutDescriptors(), spec.Fragment.BindGroupLayoutDescriptors())
	bindGroupLayouts, layoutsByGroup, err := createLayouts(device, merged)
	if err != nil {
		return nil, nil, fmt.Errorf("passes: %s: %w", spec.Label, err)
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            spec.Label,
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("passes: %s: pipeline layout: %w", spec.Label, err)
	}

	colors := make([]wgpu.ColorTargetState, 0, len(spec.Colors))
	for _, c := range spec.Colors {
		colors = append(colors, wgpu.ColorTargetState{
			Format:    c.Format,
			WriteMask: wgpu.ColorWriteMaskAll,
			Blend:     c.Blend,
		})
	}

	var depthStencil *wgpu.DepthStencilState
	if spec.DepthFormat != wgpu.TextureFormatUndefined {
		depthStencil = &wgpu.DepthStencilState{
			Format:            spec.DepthFormat,
			DepthWriteEnabled: spec.DepthWrite,
			DepthCompare:      spec.DepthCompare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	topology := spec.Topology
	if topology == 0 {
		topology = wgpu.PrimitiveTopologyTriangleList
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  spec.Label + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: spec.Vertex.EntryPoint(),
			Buffers:    spec.VertexLayout,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: spec.Fragment.EntryPoint(),
			Targets:    colors,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  spec.CullMode,
		},
		Multisample:  wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("passes: %s: create render pipeline: %w", spec.Label, err)
	}
	return pipeline, layoutsByGroup, nil
}

// buildComputePipeline is buildRenderPipeline's single-stage counterpart
// for a compute shader.
func buildComputePipeline(device *wgpu.Device, label string, cs shader.Shader) (*wgpu.ComputePipeline, map[int]*wgpu.BindGroupLayout, error) {
	mod, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          cs.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: cs.Source()},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("passes: %s: compute module: %w", label, err)
	}

	bindGroupLayouts, layoutsByGroup, err := createLayouts(device, cs.BindGroupLayoutDescriptors())
	if err != nil {
		return nil, nil, fmt.Errorf("passes: %s: %w", label, err)
	}

	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("passes: %s: pipeline layout: %w", label, err)
	}

	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  label + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     mod,
			EntryPoint: cs.EntryPoint(),
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("passes: %s: create compute pipeline: %w", label, err)
	}
	return pipeline, layoutsByGroup, nil
}

func createLayouts(device *wgpu.Device, descriptors map[int]wgpu.BindGroupLayoutDescriptor) ([]*wgpu.BindGroupLayout, map[int]*wgpu.BindGroupLayout, error) {
	maxGroup := -1
	for g := range descriptors {
		if g > maxGroup {
			maxGroup = g
		}
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	byGroup := make(map[int]*wgpu.BindGroupLayout, len(descriptors))
	for g, desc := range descriptors {
		layout, err := device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, nil, fmt.Errorf("bind group layout for group %d: %w", g, err)
		}
		bindGroupLayouts[g] = layout
		byGroup[g] = layout
	}
	return bindGroupLayouts, byGroup, nil
}

// mergeLayoutDescriptors combines a vertex and fragment shader's per-group
// bind group layout descriptors, concatenating entries for groups declared
// by both.
func mergeLayoutDescriptors(vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(vertex)+len(fragment))
	for g, d := range vertex {
		merged[g] = d
	}
	for g, d := range fragment {
		if existing, ok := merged[g]; ok {
			existing.Entries = append(append([]wgpu.BindGroupLayoutEntry{}, existing.Entries...), d.Entries...)
			merged[g] = existing
		} else {
			merged[g] = d
		}
	}
	return merged
}
