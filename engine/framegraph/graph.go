package framegraph

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/resources"
)

// FrameGraph is the top-level façade tying the pool, compiler and compiled
// graph together: declare resources and passes against Pool(), Compile()
// once, then Execute() every frame. Replacing passes means building a new
// FrameGraph and compiling it; a compiled graph is immutable apart from
// swapchain resizes.
type FrameGraph struct {
	pool     *Pool
	compiler *Compiler
	compiled *CompiledGraph
	extent   resources.Extent2D
}

// NewFrameGraph creates an empty frame graph materializing against device,
// deferring destruction through q, with the given initial swapchain extent.
func NewFrameGraph(device *wgpu.Device, q *resources.DeletionQueue, extent resources.Extent2D) *FrameGraph {
	return &FrameGraph{
		pool:     NewPool(device, q),
		compiler: NewCompiler(),
		extent:   extent,
	}
}

// Pool returns the graph's resource pool, for declaring logical resources
// before the passes that use them are added.
func (g *FrameGraph) Pool() *Pool { return g.pool }

// Add registers pass with the graph and returns its node handle.
func (g *FrameGraph) Add(pass Pass) NodeHandle {
	return g.pool.AddNode(pass)
}

// Compile resolves references, orders the nodes, materializes every
// declared resource, synthesizes barriers, and then invokes each pass'
// CreateResources hook now that materialized resources exist to look up.
func (g *FrameGraph) Compile() error {
	compiled, err := g.compiler.Compile(g.pool, g.extent)
	if err != nil {
		return err
	}
	for _, node := range g.pool.nodes {
		if err := node.Pass.CreateResources(g.pool); err != nil {
			return fmt.Errorf("framegraph: node %q CreateResources: %w", node.Name, err)
		}
	}
	g.compiled = compiled
	return nil
}

// Compiled returns the compiled graph, or nil before Compile succeeds.
func (g *FrameGraph) Compiled() *CompiledGraph { return g.compiled }

// Execute records one frame's worth of pass commands into encoder.
func (g *FrameGraph) Execute(encoder *wgpu.CommandEncoder, slot int, frameCounter uint64) error {
	if g.compiled == nil {
		return fmt.Errorf("framegraph: execute before compile")
	}
	return g.compiled.Execute(encoder, slot, frameCounter)
}

// SwapchainResized resizes every SwapchainRelative image in place and
// re-invokes every pass' CreateResources hook. slot is the current
// frame-in-flight slot, used to defer destruction of the replaced textures.
func (g *FrameGraph) SwapchainResized(slot int, w, h uint32) error {
	g.extent = resources.Extent2D{Width: w, Height: h}
	if g.compiled == nil {
		return nil
	}
	return g.compiled.Resized(g.pool.Device(), g.pool.DeletionQueue(), slot, w, h)
}
