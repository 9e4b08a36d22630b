package framegraph

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/duskforge/oxyfg/engine/resources"
)

// ReadWrite pairs a logical resource with the UsageKind a pass accesses it
// under, the unit the compiler uses for usage-flag accumulation and barrier
// synthesis.
type ReadWrite struct {
	Handle LogicalResourceHandle
	Usage  resources.UsageKind
}

// NodeInfo is what a Pass declares about itself: its debug name and its
// read/write sets. Declaring the same handle in both Reads and Writes
// within one NodeInfo is rejected at compile time.
type NodeInfo struct {
	Name   string
	Reads  []ReadWrite
	Writes []ReadWrite
}

// ExecuteContext is the per-frame state a Pass needs to record commands:
// the frame-in-flight slot, the command encoder to record into, and the
// compiled graph's owning pool for resource lookups.
type ExecuteContext struct {
	Pool         *Pool
	Encoder      *wgpu.CommandEncoder
	Slot         int
	FrameCounter uint64
}

// Pass is the boundary the frame graph imposes on render systems. A pass
// owns its own pipelines, descriptor layouts, and per-mip view caches; the
// graph never reaches into a pass' internals.
type Pass interface {
	// Info reports this pass' name and declared reads/writes. Called once,
	// when the pass is added to the pool.
	Info() NodeInfo

	// CreateResources is invoked once after the graph compiles (when
	// materialized resources exist to look up), and again after every
	// swapchain resize, so passes holding view-into-resource state (e.g.
	// per-mip views) can rebuild it. The default no-op is satisfied by
	// embedding NoResources.
	CreateResources(pool *Pool) error

	// Execute records this pass' commands for one frame. The executor has
	// already applied this node's precomputed barrier before calling
	// Execute, and will close the debug label after it returns.
	Execute(ctx ExecuteContext) error
}

// NoResources is embeddable by passes with no swapchain-dependent rebuild
// step, satisfying Pass.CreateResources with a no-op.
type NoResources struct{}

// CreateResources implements Pass.
func (NoResources) CreateResources(pool *Pool) error { return nil }
