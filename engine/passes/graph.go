package passes

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/framegraph"
	"github.com/duskforge/oxyfg/engine/light"
	"github.com/duskforge/oxyfg/engine/resources"
	"github.com/duskforge/oxyfg/engine/scene"
)

// maxLights bounds the per-frame light storage buffer.
const maxLights = 256

// hdrFormat is the intermediate render target format: the G-buffer,
// SceneColor and the bloom pyramid are all 16-bit float.
const hdrFormat = wgpu.TextureFormatRGBA16Float

// depthFormat is the shared depth attachment format.
const depthFormat = wgpu.TextureFormatDepth32Float

// StandardGraphConfig carries the external collaborators the standard frame
// assembly needs: the scene to feed instances from, the swapchain to
// present into, and the current swapchain extent and format.
type StandardGraphConfig struct {
	Scene           scene.Scene
	Swapchain       SwapchainTexture
	SwapchainFormat wgpu.TextureFormat
	Extent          resources.Extent2D
	CullWorkers     int
}

// StandardGraph is the assembled default frame: scene update feeding a
// deferred G-buffer, sky and lighting into SceneColor, forward-blended
// transparents, a bloom pyramid, tonemapped composition into Final, UI on
// top, and a present blit. The graph itself stays agnostic to this
// arrangement; the ordering falls out of each pass' declared reads and
// writes when the graph compiles.
type StandardGraph struct {
	Feed        *scene.InstanceFeed
	Geometry    *GeometryPass
	Skybox      *SkyboxPass
	Lighting    *LightingPass
	Transparent *TransparentPass
	Bloom       *BloomPass
	Postprocess *PostprocessPass
	UI          *UIPass
	Present     *PresentPass
}

// BuildStandardGraph declares the standard frame's resources and passes
// against fg. The caller still owns compilation: declare any extra passes,
// then fg.Compile().
func BuildStandardGraph(fg *framegraph.FrameGraph, cfg StandardGraphConfig) *StandardGraph {
	pool := fg.Pool()

	feedRes := scene.InstanceFeedResources{
		StaticInstances: pool.AddBuffer("StaticInstances", resources.ComputeWriteStorage, framegraph.BufferSpec{
			Size:     scene.MaxStaticInstances * scene.InstanceRecordSize,
			PerFrame: 1,
		}),
		DynamicInstances: pool.AddBuffer("DynamicInstances", resources.ComputeWriteStorage, framegraph.BufferSpec{
			Size:     scene.MaxDynamicInstances * scene.InstanceRecordSize,
			PerFrame: resources.MaxFramesInFlight,
		}),
		BatchMeta: pool.AddBuffer("BatchMeta", resources.ComputeWriteStorage, framegraph.BufferSpec{
			Size:     scene.BatchMetaSlotSize,
			PerFrame: resources.MaxFramesInFlight,
		}),
		Camera: pool.AddBuffer("Camera", resources.ComputeWriteStorage, framegraph.BufferSpec{
			Size:     80,
			PerFrame: resources.MaxFramesInFlight,
		}),
		// Header slot followed by the light array at light.ArrayOffset;
		// written by the scene update pass, read by the lighting dispatch.
		Lights: pool.AddBuffer("Lights", resources.ComputeWriteStorage, framegraph.BufferSpec{
			Size:     light.ArrayOffset + maxLights*light.GPULightRecordSize,
			PerFrame: resources.MaxFramesInFlight,
		}),
	}

	swapchainImage := func(name string, format wgpu.TextureFormat) framegraph.LogicalResourceHandle {
		return pool.AddImage(name, resources.ColorAttachment, framegraph.ImageSpec{
			Format:       format,
			ResizePolicy: resources.SwapchainRelative,
		})
	}

	attachments := GeometryAttachments{
		Position: swapchainImage("Position", hdrFormat),
		Normal:   swapchainImage("Normal", hdrFormat),
		Albedo:   swapchainImage("Albedo", hdrFormat),
		ARM:      swapchainImage("ARM", hdrFormat),
		Emissive: swapchainImage("Emissive", hdrFormat),
		Depth: pool.AddImage("Depth", resources.DepthStencilAttachment, framegraph.ImageSpec{
			Format:       depthFormat,
			ResizePolicy: resources.SwapchainRelative,
		}),
	}
	sceneColor := swapchainImage("SceneColor", hdrFormat)
	bloom := pool.AddImage("Bloom", resources.ComputeWriteStorage, framegraph.ImageSpec{
		Format:       hdrFormat,
		MipLevels:    BloomMipLevels,
		ResizePolicy: resources.SwapchainRelative,
	})
	final := swapchainImage("Final", cfg.SwapchainFormat)
	finalRef := pool.AddReference("Final", resources.TransferSrc)

	g := &StandardGraph{
		Feed:        scene.NewInstanceFeed(cfg.Scene, feedRes, cfg.CullWorkers),
		Skybox:      NewSkyboxPass(sceneColor, attachments.Depth),
		Bloom:       NewBloomPass(sceneColor, bloom),
		Postprocess: NewPostprocessPass(sceneColor, bloom, final),
		UI:          NewUIPass(final),
		Present:     NewPresentPass(finalRef, cfg.Swapchain, cfg.Extent),
	}
	g.Geometry = NewGeometryPass(attachments, feedRes.Camera, feedRes.DynamicInstances, g.Feed)
	g.Lighting = NewLightingPass(attachments, sceneColor, feedRes.Lights)
	g.Transparent = NewTransparentPass(sceneColor, attachments.Depth, feedRes.Camera, feedRes.DynamicInstances, g.Feed)

	// Insertion order is the tie-break for passes the dependency edges
	// leave unordered; UI is added before Present so Present's read of
	// Final sees UI as its producer.
	fg.Add(g.Feed)
	fg.Add(g.Geometry)
	fg.Add(g.Skybox)
	fg.Add(g.Lighting)
	fg.Add(g.Transparent)
	fg.Add(g.Bloom)
	fg.Add(g.Postprocess)
	fg.Add(g.UI)
	fg.Add(g.Present)
	return g
}
