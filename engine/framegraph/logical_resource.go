package framegraph

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/resources"
)

// BufferSpec declares a logical buffer resource: its byte size, how many
// per-frame-in-flight instances it needs (1, or resources.MaxFramesInFlight
// for double-buffered state), and its materialized handle once compiled.
type BufferSpec struct {
	Size     uint64
	PerFrame int

	usage        wgpu.BufferUsage
	materialized BufferHandle
}

// ImageSpec declares a logical image resource: format, extent (fixed or
// swapchain-relative), mip levels, and its materialized handle once
// compiled.
type ImageSpec struct {
	Format       wgpu.TextureFormat
	Extent       resources.Extent2D
	MipLevels    uint32
	ResizePolicy resources.ResizePolicy

	usage        wgpu.TextureUsage
	materialized ImageHandle
}

// resourceKind tags which variant of the closed LogicalResource sum type a
// given entry is.
type resourceKind int

const (
	kindBuffer resourceKind = iota
	kindImage
	kindReference
)

// LogicalResource is the named declaration in the graph: exactly one of
// Buffer, Image or Reference is meaningful, selected by kind. Modeled as a
// closed sum type (a tagged struct) rather than an interface with type
// assertions, since the compiler's stages need to mutate the variant's
// accumulated usage flags and materialized handle in place.
type LogicalResource struct {
	Name string
	kind resourceKind

	Buffer BufferSpec
	Image  ImageSpec

	// Reference fields: resolved is set by the compiler's reference
	// resolution stage to the handle of the non-reference resource sharing
	// Name.
	resolved LogicalResourceHandle

	// usage accumulated from every node read/write that named this
	// resource, including via references.
	declaredUsages []usageDeclaration
}

// usageDeclaration records one read/write/declare-site's UsageKind, so the
// compiler can OR together usage flags and pick per-node transitions.
type usageDeclaration struct {
	kind    resources.UsageKind
	isWrite bool
}

// IsReference reports whether this logical resource is a by-name alias
// rather than a concrete buffer or image declaration.
func (r *LogicalResource) IsReference() bool { return r.kind == kindReference }

// IsBuffer reports whether this logical resource is a BufferSpec.
func (r *LogicalResource) IsBuffer() bool { return r.kind == kindBuffer }

// IsImage reports whether this logical resource is an ImageSpec.
func (r *LogicalResource) IsImage() bool { return r.kind == kindImage }
