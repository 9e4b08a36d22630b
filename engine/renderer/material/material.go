// Package material holds per-material surface parameters and their GPU
// representation. Materials are not bound per draw: Upload registers the
// material record (and any textures) in the bindless table once, and draws
// reference it by the 32-bit handle baked into each instance record.
package material

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/common"
	"github.com/duskforge/oxyfg/engine/bindless"
	"github.com/duskforge/oxyfg/engine/resources"
)

// Material is one surface description: PBR factors, optional textures, and
// the bindless handle of its uploaded GPU record.
type Material interface {
	Name() string

	// BindlessHandle returns the handle of the uploaded GPU material
	// record, or bindless.Invalid before Upload.
	BindlessHandle() bindless.Handle
	SetBindlessHandle(h bindless.Handle)

	// Transparent materials are drawn by the forward alpha-blended pass
	// instead of the G-buffer pass.
	Transparent() bool
	SetTransparent(transparent bool)

	BaseColor() [4]float32
	Metallic() float32
	Roughness() float32
	Emissive() [3]float32

	// Upload writes the material's GPU record into a storage buffer and
	// registers it (plus the base color texture, if any) with the bindless
	// table, setting BindlessHandle.
	Upload(device *wgpu.Device, queue *wgpu.Queue, table *bindless.Table) error
}

type material struct {
	name        string
	baseColor   [4]float32
	metallic    float32
	roughness   float32
	emissive    [3]float32
	transparent bool

	baseColorTexture *common.ImportedTexture

	handle        bindless.Handle
	textureHandle bindless.Handle
	buffer        *resources.Buffer
	texture       *resources.Image
}

var _ Material = (*material)(nil)

// NewMaterial creates a material with opaque white defaults.
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		name:          "material",
		baseColor:     [4]float32{1, 1, 1, 1},
		roughness:     1,
		handle:        bindless.Invalid,
		textureHandle: bindless.Invalid,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string                        { return m.name }
func (m *material) BindlessHandle() bindless.Handle     { return m.handle }
func (m *material) SetBindlessHandle(h bindless.Handle) { m.handle = h }
func (m *material) Transparent() bool                   { return m.transparent }
func (m *material) SetTransparent(transparent bool)     { m.transparent = transparent }
func (m *material) BaseColor() [4]float32               { return m.baseColor }
func (m *material) Metallic() float32                   { return m.metallic }
func (m *material) Roughness() float32                  { return m.roughness }
func (m *material) Emissive() [3]float32                { return m.emissive }

// gpuRecordSize is the byte size of the shader-visible material record:
// base color vec4, emissive vec3 + metallic, roughness + base color texture
// index + 2 spare u32 slots, 48 bytes total.
const gpuRecordSize = 48

// marshalGPURecord serializes the shader-visible material record.
func (m *material) marshalGPURecord() []byte {
	buf := make([]byte, gpuRecordSize)
	off := 0
	putF := func(v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	for _, v := range m.baseColor {
		putF(v)
	}
	for _, v := range m.emissive {
		putF(v)
	}
	putF(m.metallic)
	putF(m.roughness)
	binary.LittleEndian.PutUint32(buf[off:], m.textureHandle.Index())
	return buf
}

// Upload implements Material. It is idempotent: a material with a valid
// handle is left untouched.
func (m *material) Upload(device *wgpu.Device, queue *wgpu.Queue, table *bindless.Table) error {
	if m.handle.IsValid() {
		return nil
	}

	if m.baseColorTexture != nil {
		pixels, w, h, err := m.baseColorTexture.Decode()
		if err != nil {
			return fmt.Errorf("material %q: %w", m.name, err)
		}
		img, err := resources.NewImage(device, resources.ImageSpec{
			Format:          wgpu.TextureFormatRGBA8UnormSrgb,
			Extent:          resources.Extent3D{Width: w, Height: h, Depth: 1},
			MipLevels:       1,
			AdditionalUsage: wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("material %q: base color texture: %w", m.name, err)
		}
		if err := img.FillFromHost(device, queue, pixels); err != nil {
			return fmt.Errorf("material %q: base color texture upload: %w", m.name, err)
		}
		handle, err := table.AllocateSampledImage(img.View(), bindless.ReadOnly)
		if err != nil {
			return fmt.Errorf("material %q: %w", m.name, err)
		}
		m.texture = img
		m.textureHandle = handle
	}

	buf, err := resources.NewBuffer(device, resources.BufferSpec{
		Size:            gpuRecordSize,
		PerFrame:        1,
		AdditionalUsage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("material %q: record buffer: %w", m.name, err)
	}
	if err := buf.WriteSlot(queue, 0, m.marshalGPURecord()); err != nil {
		return fmt.Errorf("material %q: record write: %w", m.name, err)
	}

	handle, err := table.AllocateStorageBuffer(buf.Handle(), bindless.ReadOnly)
	if err != nil {
		return fmt.Errorf("material %q: %w", m.name, err)
	}
	m.buffer = buf
	m.handle = handle
	return nil
}
