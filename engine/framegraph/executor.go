package framegraph

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/resources"
)

// CompiledGraph is the executable result of Compiler.Compile: a resolved
// node order plus materialized resources, ready to be driven once per
// frame. It is a pure interpreter of the compiled plan; no ordering or
// synchronization decisions happen at execute time.
type CompiledGraph struct {
	pool            *Pool
	order           []NodeHandle
	swapchainExtent resources.Extent2D
}

// Order returns the compiled topological order, for tests and diagnostics.
func (g *CompiledGraph) Order() []NodeHandle { return g.order }

// Pool returns the pool this graph was compiled from.
func (g *CompiledGraph) Pool() *Pool { return g.pool }

// Execute walks the compiled nodes in order, opening a debug label, applying
// each node's precomputed barrier, invoking its pass, and closing the label.
func (g *CompiledGraph) Execute(encoder *wgpu.CommandEncoder, slot int, frameCounter uint64) error {
	ctx := ExecuteContext{Pool: g.pool, Encoder: encoder, Slot: slot, FrameCounter: frameCounter}

	for _, nh := range g.order {
		node := g.pool.nodes[nh]

		encoder.PushDebugGroup(node.Name)

		applyBarriers(node)

		if err := node.Pass.Execute(ctx); err != nil {
			encoder.PopDebugGroup()
			return fmt.Errorf("framegraph: node %q: %w", node.Name, err)
		}

		encoder.PopDebugGroup()
	}
	return nil
}

// applyBarriers is the executor's hook for translating a node's precomputed
// Transition payload into whatever the underlying driver needs. On this
// WebGPU-class driver ordering and visibility between passes fall out of
// command-encoder order and each resource's creation-time usage flags, so
// the (stage, access) payload exists for diagnostics and is not separately
// programmed against the device.
func applyBarriers(node *Node) {}

// Resized resizes every SwapchainRelative image in place and re-invokes
// every pass' CreateResources hook. Materialized handles (and therefore
// bindless handles pointing at them) stay valid across the call.
func (g *CompiledGraph) Resized(device *wgpu.Device, q *resources.DeletionQueue, slot int, w, h uint32) error {
	g.swapchainExtent = resources.Extent2D{Width: w, Height: h}

	for _, lr := range g.pool.resourcesList {
		if !lr.IsImage() || lr.Image.ResizePolicy != resources.SwapchainRelative {
			continue
		}
		img := g.pool.materializedImages[lr.Image.materialized]
		newExtent := g.swapchainExtent.To3D()
		if err := img.Resize(device, q, slot, newExtent, img.Usage()); err != nil {
			return fmt.Errorf("framegraph: resizing image %q: %w", lr.Name, err)
		}
	}

	for _, node := range g.pool.nodes {
		if err := node.Pass.CreateResources(g.pool); err != nil {
			return fmt.Errorf("framegraph: node %q CreateResources after resize: %w", node.Name, err)
		}
	}
	return nil
}
