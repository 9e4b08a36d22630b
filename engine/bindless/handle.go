// Package bindless implements the frame graph's bindless descriptor model
// (C2): a single large bind group exposing arrays of sampled images, storage
// images and storage buffers, addressed by stable 32-bit-indexed handles
// instead of per-draw rebinds.
package bindless

import "fmt"

// Kind identifies which array within the bindless table a Handle indexes
// into.
type Kind uint8

const (
	KindSampledImage Kind = iota
	KindStorageImage
	KindStorageBuffer
	KindUniformBuffer
)

func (k Kind) String() string {
	switch k {
	case KindSampledImage:
		return "SampledImage"
	case KindStorageImage:
		return "StorageImage"
	case KindStorageBuffer:
		return "StorageBuffer"
	case KindUniformBuffer:
		return "UniformBuffer"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Access describes whether a handle was allocated for read-only or
// read-write shader access.
type Access uint8

const (
	ReadOnly Access = iota
	ReadWrite
)

// Handle is a packed 64-bit bindless reference: {index:32, version:16,
// kind:8, access:8}. Handles are copyable and non-owning.
type Handle uint64

// Invalid is the sentinel handle, all bits set.
const Invalid Handle = ^Handle(0)

// Pack assembles a Handle from its constituent fields.
func Pack(index uint32, version uint16, kind Kind, access Access) Handle {
	return Handle(uint64(index) | uint64(version)<<32 | uint64(kind)<<48 | uint64(access)<<56)
}

// Index returns the 32-bit array index encoded in the handle.
func (h Handle) Index() uint32 { return uint32(h) }

// Version returns the 16-bit recycle-generation encoded in the handle.
func (h Handle) Version() uint16 { return uint16(h >> 32) }

// Kind returns the resource kind encoded in the handle.
func (h Handle) Kind() Kind { return Kind(h >> 48) }

// Access returns the access mode encoded in the handle.
func (h Handle) Access() Access { return Access(h >> 56) }

// IsValid reports whether h is not the Invalid sentinel.
func (h Handle) IsValid() bool { return h != Invalid }
