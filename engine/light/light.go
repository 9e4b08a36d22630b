// Package light holds scene light sources and their GPU records. The scene
// update pass marshals every light into the per-frame lights buffer the
// lighting compute dispatch reads.
package light

import (
	"encoding/binary"
	"math"
)

// Light is one punctual light source.
type Light struct {
	Position  [3]float32
	Color     [3]float32
	Intensity float32

	// Radius is the attenuation cutoff distance.
	Radius float32
}

// ToGPU converts the light to its shader-visible record.
func (l Light) ToGPU() GPULight {
	return GPULight{
		Position:  l.Position,
		Radius:    l.Radius,
		Color:     l.Color,
		Intensity: l.Intensity,
	}
}

// GPULight mirrors the lighting shader's Light struct: position + radius,
// color + intensity, 32 bytes.
type GPULight struct {
	Position  [3]float32
	Radius    float32
	Color     [3]float32
	Intensity float32
}

// GPULightRecordSize is the marshaled size of one GPULight.
const GPULightRecordSize = 32

// Marshal serializes the light record for GPU upload.
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, GPULightRecordSize)
	off := 0
	put := func(v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	for _, v := range g.Position {
		put(v)
	}
	put(g.Radius)
	for _, v := range g.Color {
		put(v)
	}
	put(g.Intensity)
	return buf
}

// GPULightHeader mirrors the lighting shader's LightHeader struct: the live
// light count, then the ambient term at offset 16 (vec3<f32> is 16-byte
// aligned in WGSL), 32 bytes total.
type GPULightHeader struct {
	LightCount uint32
	Ambient    [3]float32
}

// GPULightHeaderSize is the marshaled size of the header.
const GPULightHeaderSize = 32

// Marshal serializes the header for GPU upload.
func (h *GPULightHeader) Marshal() []byte {
	buf := make([]byte, GPULightHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:], h.LightCount)
	for i, v := range h.Ambient {
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(v))
	}
	return buf
}

// ArrayOffset is the byte offset of the light array within the per-frame
// lights buffer. The header sits at offset 0; the array starts at the next
// 256-byte boundary so the shader's two bindings into the same buffer both
// meet the driver's minimum buffer-offset alignment.
const ArrayOffset = 256
