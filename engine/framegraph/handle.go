// Package framegraph implements the frame graph resource pool (C5),
// compiler (C6) and executor (C7): declarative composition of a frame from
// independent passes, automatic resource materialization, and automatic
// barrier synthesis between them.
package framegraph

import "math"

// NodeHandle indexes into Pool.nodes.
type NodeHandle uint32

// LogicalResourceHandle indexes into Pool.resourcesList.
type LogicalResourceHandle uint32

// ImageHandle indexes into Pool.materializedImages.
type ImageHandle uint32

// BufferHandle indexes into Pool.materializedBuffers.
type BufferHandle uint32

// invalidHandle is the sentinel max-value shared by every handle type in
// this package.
const invalidHandle = math.MaxUint32

// InvalidNode is the sentinel NodeHandle.
const InvalidNode NodeHandle = invalidHandle

// InvalidResource is the sentinel LogicalResourceHandle.
const InvalidResource LogicalResourceHandle = invalidHandle

// InvalidImage is the sentinel ImageHandle.
const InvalidImage ImageHandle = invalidHandle

// InvalidBuffer is the sentinel BufferHandle.
const InvalidBuffer BufferHandle = invalidHandle
