package light

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestGPULightMarshalLayout(t *testing.T) {
	g := GPULight{
		Position:  [3]float32{1, 2, 3},
		Radius:    4,
		Color:     [3]float32{5, 6, 7},
		Intensity: 8,
	}
	buf := g.Marshal()
	if len(buf) != GPULightRecordSize {
		t.Fatalf("marshaled size = %d, want %d", len(buf), GPULightRecordSize)
	}
	for i, want := range []float32{1, 2, 3, 4, 5, 6, 7, 8} {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if got != want {
			t.Errorf("field %d = %v, want %v", i, got, want)
		}
	}
}

func TestGPULightHeaderAmbientAlignment(t *testing.T) {
	h := GPULightHeader{LightCount: 3, Ambient: [3]float32{0.1, 0.2, 0.3}}
	buf := h.Marshal()
	if len(buf) != GPULightHeaderSize {
		t.Fatalf("marshaled size = %d, want %d", len(buf), GPULightHeaderSize)
	}
	if binary.LittleEndian.Uint32(buf[0:]) != 3 {
		t.Errorf("light count not at offset 0")
	}
	// vec3<f32> is 16-byte aligned in WGSL, so ambient starts at 16.
	got := math.Float32frombits(binary.LittleEndian.Uint32(buf[16:]))
	if got != 0.1 {
		t.Errorf("ambient[0] at offset 16 = %v, want 0.1", got)
	}
}
