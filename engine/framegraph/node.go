package framegraph

import "github.com/duskforge/oxyfg/engine/resources"

// ImageBarrier is one resolved transition the executor must apply before
// invoking a node's pass, for a single image-backed logical resource.
type ImageBarrier struct {
	Resource   LogicalResourceHandle
	Transition resources.Transition
}

// BufferBarrier is the buffer-backed equivalent of ImageBarrier.
type BufferBarrier struct {
	Resource   LogicalResourceHandle
	Transition resources.Transition
}

// Node is one compiled step of the frame: a pass, its declared read/write
// sets, and (after compilation) the barrier payload the executor applies
// immediately before calling Execute.
type Node struct {
	Name   string
	Pass   Pass
	Reads  []ReadWrite
	Writes []ReadWrite

	// Barrier payload, populated by the compiler's synthesizeBarriers stage.
	SrcStage       resources.Stage
	DstStage       resources.Stage
	ImageBarriers  []ImageBarrier
	BufferBarriers []BufferBarrier
}
