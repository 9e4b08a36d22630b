package resources

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// UsageKind is the canonical intent label the frame graph attaches to every
// read or write of a logical resource. It maps deterministically to a
// (stage, access, texture-usage, load-op) tuple, this driver's analog of
// Vulkan's (pipeline-stage mask, access mask, image layout) triple, since
// the underlying WebGPU-class driver has no explicit image layout concept.
type UsageKind int

const (
	ColorAttachment UsageKind = iota
	DepthStencilAttachment
	FragmentReadSampled
	ComputeReadStorage
	ComputeWriteStorage
	ComputeReadSampled
	TransferSrc
	TransferDst
	Present
)

func (k UsageKind) String() string {
	switch k {
	case ColorAttachment:
		return "ColorAttachment"
	case DepthStencilAttachment:
		return "DepthStencilAttachment"
	case FragmentReadSampled:
		return "FragmentReadSampled"
	case ComputeReadStorage:
		return "ComputeReadStorage"
	case ComputeWriteStorage:
		return "ComputeWriteStorage"
	case ComputeReadSampled:
		return "ComputeReadSampled"
	case TransferSrc:
		return "TransferSrc"
	case TransferDst:
		return "TransferDst"
	case Present:
		return "Present"
	default:
		return fmt.Sprintf("UsageKind(%d)", int(k))
	}
}

// Stage is the pipeline-stage-equivalent a usage kind participates in. It is
// used only to order/label barrier payloads for debugging; WebGPU itself
// has no explicit stage mask to program against.
type Stage uint32

const (
	StageNone                  Stage = 0
	StageColorAttachmentOutput Stage = 1 << (iota - 1)
	StageEarlyFragmentTests
	StageFragmentShader
	StageComputeShader
	StageTransfer
	StagePresent
)

// Access is the access-equivalent a usage kind implies, used for barrier
// payload labeling only (see Stage).
type Access uint32

const (
	AccessNone                 Access = 0
	AccessColorAttachmentWrite Access = 1 << (iota - 1)
	AccessDepthStencilAttachmentWrite
	AccessShaderRead
	AccessShaderWrite
	AccessTransferRead
	AccessTransferWrite
)

// LoadOp mirrors WGPU's attachment load operation, which is this driver's
// substitute for an explicit "discard previous contents" layout transition.
type LoadOp int

const (
	LoadOpLoad LoadOp = iota
	LoadOpClear
)

// Transition is the resolved tuple a UsageKind produces: what stage/access
// it executes at, what wgpu usage flag it requires on the resource, and
// (for images only) what load op a render pass targeting it should use when
// arriving at this usage from a previous write.
type Transition struct {
	SrcStage  Stage
	DstStage  Stage
	SrcAccess Access
	DstAccess Access
	Usage     wgpu.TextureUsage
	LoadOp    LoadOp
}

// usageTable is the closed table mapping a UsageKind to its (stage, access,
// wgpu.TextureUsage) triple. Kinds that apply to buffers (ComputeReadStorage
// etc. when applied to a BufferSpec) reuse the same stage/access values and
// carry their wgpu.BufferUsage in bufUse, which BufferUsageFor returns.
var usageTable = map[UsageKind]struct {
	stage   Stage
	access  Access
	texUse  wgpu.TextureUsage
	bufUse  wgpu.BufferUsage
}{
	ColorAttachment: {
		stage:  StageColorAttachmentOutput,
		access: AccessColorAttachmentWrite,
		texUse: wgpu.TextureUsageRenderAttachment,
	},
	DepthStencilAttachment: {
		stage:  StageEarlyFragmentTests,
		access: AccessDepthStencilAttachmentWrite,
		texUse: wgpu.TextureUsageRenderAttachment,
	},
	FragmentReadSampled: {
		stage:  StageFragmentShader,
		access: AccessShaderRead,
		texUse: wgpu.TextureUsageTextureBinding,
	},
	ComputeReadSampled: {
		stage:  StageComputeShader,
		access: AccessShaderRead,
		texUse: wgpu.TextureUsageTextureBinding,
	},
	ComputeReadStorage: {
		stage:  StageComputeShader,
		access: AccessShaderRead,
		texUse: wgpu.TextureUsageStorageBinding,
		bufUse: wgpu.BufferUsageStorage,
	},
	ComputeWriteStorage: {
		stage:  StageComputeShader,
		access: AccessShaderWrite,
		texUse: wgpu.TextureUsageStorageBinding,
		bufUse: wgpu.BufferUsageStorage,
	},
	TransferSrc: {
		stage:  StageTransfer,
		access: AccessTransferRead,
		texUse: wgpu.TextureUsageCopySrc,
		bufUse: wgpu.BufferUsageCopySrc,
	},
	TransferDst: {
		stage:  StageTransfer,
		access: AccessTransferWrite,
		texUse: wgpu.TextureUsageCopyDst,
		bufUse: wgpu.BufferUsageCopyDst,
	},
	Present: {
		stage:  StagePresent,
		access: AccessNone,
		texUse: wgpu.TextureUsageRenderAttachment,
	},
}

// ErrUnsupportedTransition is returned by Transit when no closed-table entry
// covers the (old, new) usage pair. The frame graph compiler treats it as
// fatal.
type ErrUnsupportedTransition struct {
	Old, New UsageKind
	Format   wgpu.TextureFormat
}

func (e *ErrUnsupportedTransition) Error() string {
	return fmt.Sprintf("unsupported usage transition %s -> %s (format %v)", e.Old, e.New, e.Format)
}

// TextureUsageFor returns the wgpu.TextureUsage flag implied by a single
// UsageKind, or an error if the kind has no image-side meaning.
func TextureUsageFor(k UsageKind) (wgpu.TextureUsage, error) {
	e, ok := usageTable[k]
	if !ok {
		return 0, fmt.Errorf("unknown usage kind %s", k)
	}
	return e.texUse, nil
}

// BufferUsageFor returns the wgpu.BufferUsage flag implied by a single
// UsageKind, or an error if the kind has no buffer-side meaning.
func BufferUsageFor(k UsageKind) (wgpu.BufferUsage, error) {
	e, ok := usageTable[k]
	if !ok {
		return 0, fmt.Errorf("unknown usage kind %s", k)
	}
	return e.bufUse, nil
}

// Transit resolves the barrier payload for a resource moving to a new usage
// (the current reader/writer's declared kind) from an old usage (the
// previous writer's declared kind). hasPrevious is false on a resource's
// first use in the schedule, in which case LoadOp is always Clear and
// SrcStage/SrcAccess are the zero value. Image-format-specific restrictions
// (e.g. depth formats cannot become ColorAttachment) are enforced here; any
// other closed-table pair is accepted.
func Transit(old, new UsageKind, hasPrevious bool, format wgpu.TextureFormat) (Transition, error) {
	newE, newOK := usageTable[new]
	if !newOK {
		return Transition{}, &ErrUnsupportedTransition{Old: old, New: new, Format: format}
	}
	if new == DepthStencilAttachment && isColorOnlyFormat(format) {
		return Transition{}, &ErrUnsupportedTransition{Old: old, New: new, Format: format}
	}
	if new == ColorAttachment && isDepthFormat(format) {
		return Transition{}, &ErrUnsupportedTransition{Old: old, New: new, Format: format}
	}

	if !hasPrevious {
		return Transition{
			DstStage:  newE.stage,
			DstAccess: newE.access,
			Usage:     newE.texUse,
			LoadOp:    LoadOpClear,
		}, nil
	}

	oldE, oldOK := usageTable[old]
	if !oldOK {
		return Transition{}, &ErrUnsupportedTransition{Old: old, New: new, Format: format}
	}

	return Transition{
		SrcStage:  oldE.stage,
		DstStage:  newE.stage,
		SrcAccess: oldE.access,
		DstAccess: newE.access,
		Usage:     newE.texUse,
		LoadOp:    LoadOpLoad,
	}, nil
}

func isDepthFormat(f wgpu.TextureFormat) bool {
	switch f {
	case wgpu.TextureFormatDepth32Float, wgpu.TextureFormatDepth24Plus, wgpu.TextureFormatDepth24PlusStencil8, wgpu.TextureFormatDepth16Unorm:
		return true
	default:
		return false
	}
}

func isColorOnlyFormat(f wgpu.TextureFormat) bool {
	return !isDepthFormat(f)
}
