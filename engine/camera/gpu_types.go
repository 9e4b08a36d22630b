package camera

import (
	"encoding/binary"
	"math"
)

// GPUCameraUniform mirrors the vertex shaders' Camera uniform struct:
// view-projection matrix, then world-space camera position plus padding.
// 80 bytes.
type GPUCameraUniform struct {
	ViewProj       [16]float32
	CameraPosition [3]float32
}

// Size returns the marshaled size of the uniform in bytes.
func (g *GPUCameraUniform) Size() int { return 80 }

// Marshal serializes the uniform for GPU upload.
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i, v := range g.ViewProj {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	for i, v := range g.CameraPosition {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(v))
	}
	return buf
}
