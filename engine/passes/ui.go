package passes

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/framegraph"
	"github.com/duskforge/oxyfg/engine/resources"
)

// UIPass draws the panel overlay onto "Final", declared as a
// color-attachment write so the frame graph schedules it after
// post-processing. It loads (never clears) Final so it never discards the
// composited frame.
type UIPass struct {
	final framegraph.LogicalResourceHandle
}

var _ framegraph.Pass = (*UIPass)(nil)

// NewUIPass constructs the UI pass against the Final resource.
func NewUIPass(final framegraph.LogicalResourceHandle) *UIPass {
	return &UIPass{final: final}
}

// Info implements framegraph.Pass. Final is declared only as a write: a
// read-modify-write color attachment preserves its existing contents via
// LoadOpLoad, not via a declared read, and declaring both would trip the
// compiler's same-pass read+write rejection.
func (p *UIPass) Info() framegraph.NodeInfo {
	return framegraph.NodeInfo{
		Name: "UI",
		Writes: []framegraph.ReadWrite{
			{Handle: p.final, Usage: resources.ColorAttachment},
		},
	}
}

// CreateResources implements framegraph.Pass; the placeholder UI pass holds
// no pipeline state.
func (p *UIPass) CreateResources(pool *framegraph.Pool) error { return nil }

// Execute opens and immediately closes a render pass over Final with
// LoadOpLoad, a no-op placeholder for panel rendering.
func (p *UIPass) Execute(ctx framegraph.ExecuteContext) error {
	pass := ctx.Encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "UI",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{View: ctx.Pool.Image(p.final).View(), LoadOp: wgpu.LoadOpLoad, StoreOp: wgpu.StoreOpStore},
		},
	})
	pass.End()
	return nil
}
