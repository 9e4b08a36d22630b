package passes

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/framegraph"
	"github.com/duskforge/oxyfg/engine/resources"
)

// SwapchainTexture resolves the swapchain image for the current frame. The
// swapchain is not a frame-graph-owned resource, so the engine supplies it
// out of band rather than the pass declaring it through Pool.AddImage.
type SwapchainTexture func() (*wgpu.Texture, error)

// PresentPass declares a TransferSrc read of "Final" and blits it into the
// current swapchain image via a direct texture-to-texture copy. The
// swapchain image has no frame graph handle and gets no barrier of its own.
type PresentPass struct {
	final     framegraph.LogicalResourceHandle
	swapchain SwapchainTexture
	extent    resources.Extent2D
}

var _ framegraph.Pass = (*PresentPass)(nil)

// NewPresentPass constructs the present pass. extent is the current
// swapchain extent, kept in sync by the engine's resize handler.
func NewPresentPass(final framegraph.LogicalResourceHandle, swapchain SwapchainTexture, extent resources.Extent2D) *PresentPass {
	return &PresentPass{final: final, swapchain: swapchain, extent: extent}
}

// SetExtent updates the extent used to size the blit, called by the
// engine's resize handler alongside CompiledGraph.Resized.
func (p *PresentPass) SetExtent(extent resources.Extent2D) { p.extent = extent }

// Info implements framegraph.Pass.
func (p *PresentPass) Info() framegraph.NodeInfo {
	return framegraph.NodeInfo{
		Name: "Present",
		Reads: []framegraph.ReadWrite{
			{Handle: p.final, Usage: resources.TransferSrc},
		},
	}
}

// CreateResources implements framegraph.Pass; the present pass holds no
// pipeline state.
func (p *PresentPass) CreateResources(pool *framegraph.Pool) error { return nil }

// Execute copies Final into the current swapchain image.
func (p *PresentPass) Execute(ctx framegraph.ExecuteContext) error {
	swapTex, err := p.swapchain()
	if err != nil {
		return fmt.Errorf("present pass: acquire swapchain texture: %w", err)
	}

	finalTex := ctx.Pool.Image(p.final).Texture()

	ctx.Encoder.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{Texture: finalTex},
		&wgpu.ImageCopyTexture{Texture: swapTex},
		&wgpu.Extent3D{Width: p.extent.Width, Height: p.extent.Height, DepthOrArrayLayers: 1},
	)
	return nil
}
