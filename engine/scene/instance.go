package scene

import (
	"encoding/binary"
	"math"

	"github.com/duskforge/oxyfg/common"
	"github.com/duskforge/oxyfg/engine/bindless"
)

// Caps enforced on the per-frame instance feed: exceeding either truncates
// the pool and logs a warning rather than failing the frame.
const (
	MaxStaticInstances  = 1 << 16
	MaxDynamicInstances = 1 << 14
)

// instanceSize is the byte size of one marshaled Instance, matching the
// InstanceData struct declared in engine/passes/shaders/geometry.vert.wgsl
// and transparent.vert.wgsl exactly: two mat4x4<f32> (64 bytes each) plus
// two u32 bindless indices, the u32 batch id and the f32 radius.
const instanceSize = 64 + 64 + 4 + 4 + 4 + 4

// Instance is the GPU-side per-draw-instance record read by the geometry
// and transparent passes' vertex shaders (InstanceData in their WGSL). The
// model and normal matrices are full 4x4, column-major (the convention
// common.BuildModelMatrix/common.Invert4 already use), matching WGSL's
// mat4x4<f32> column-major layout directly. The normal matrix rides as its
// own mat4x4 rather than being folded into the model rows' padding, since
// the consuming shaders fix the 144-byte layout.
//
// MeshHandle and MaterialHandle carry only the bindless index portion
// (bindless.Handle.Index()) since the shader addresses the bindless arrays
// by plain u32 index; the version/kind/access bits a Handle also carries
// are a CPU-side safety check that has no GPU-side meaning.
//
// Radius occupies what would otherwise be trailing padding: the world-space
// bounding sphere radius (engine/model's BoundingRadius scaled by the
// instance's max axis scale). It rides along on every GPU-bound instance
// record even though only the CPU-side cullVisible pre-cull reads it today,
// so a future GPU re-test dispatch can consume the same buffer without a
// layout change.
type Instance struct {
	Model          [16]float32
	NormalMat      [16]float32
	MaterialHandle uint32
	MeshHandle     uint32
	BatchID        uint32
	Radius         float32
}

// Size returns the marshaled size of an Instance in bytes.
func (Instance) Size() int { return instanceSize }

// Marshal serializes the Instance into a GPU-upload-ready byte buffer.
func (in *Instance) Marshal() []byte {
	buf := make([]byte, instanceSize)
	off := 0
	put := func(v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	for _, v := range in.Model {
		put(v)
	}
	for _, v := range in.NormalMat {
		put(v)
	}
	binary.LittleEndian.PutUint32(buf[off:], in.MaterialHandle)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], in.MeshHandle)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], in.BatchID)
	off += 4
	put(in.Radius)
	return buf
}

// newInstance builds an Instance from a column-major model matrix (as
// produced by common.BuildModelMatrix), its mesh and material bindless
// handles, the batch it belongs to, and its world-space bounding radius.
// The normal matrix is the inverse-transpose of model's upper-left 3x3,
// correct under non-uniform scale.
func newInstance(model [16]float32, mesh, material bindless.Handle, batchID uint32, radius float32) Instance {
	return Instance{
		Model:          model,
		NormalMat:      normalMatrix(model),
		MaterialHandle: material.Index(),
		MeshHandle:     mesh.Index(),
		BatchID:        batchID,
		Radius:         radius,
	}
}

// normalMatrix computes the inverse-transpose of model's upper-left 3x3 (the
// standard normal-matrix construction) and returns it embedded in a 4x4,
// column-major like model itself, so it marshals the same way a mat4x4<f32>
// does. Translation and the homogeneous row/column are left zero; the
// shaders above only ever read normal_mat's linear part.
func normalMatrix(model [16]float32) [16]float32 {
	var inv [16]float32
	if !common.Invert4(inv[:], model[:]) {
		// Singular model matrix (degenerate scale): fall back to identity
		// so lighting reads a harmless, non-NaN normal matrix rather than
		// propagating Inf/NaN into the shader.
		var id [16]float32
		common.Identity(id[:])
		return id
	}
	// inv is column-major; transpose it (element (r,c) <- inv's (c,r)) by
	// swapping indices, keeping only the upper-left 3x3 block.
	var out [16]float32
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[c*4+r] = inv[r*4+c]
		}
	}
	return out
}
