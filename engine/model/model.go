// Package model holds renderable mesh geometry: CPU-side vertex/index data,
// the GPU buffers they upload into, and the materials and bindless handles
// draws reference them by.
package model

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/common"
	"github.com/duskforge/oxyfg/engine/bindless"
	"github.com/duskforge/oxyfg/engine/renderer/material"
	"github.com/duskforge/oxyfg/engine/resources"
)

// GPUVertex is the 64-byte vertex record the geometry and transparent
// vertex shaders consume: position, normal, tex coord, color, tangent.
// Field order and sizes mirror the shaders' VertexInput exactly.
type GPUVertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
	Color    [4]float32
	Tangent  [4]float32
}

// Mesh owns the uploaded GPU vertex and index buffers for one model.
type Mesh struct {
	vertex *resources.Buffer
	index  *resources.Buffer
}

// VertexBuffer returns the GPU vertex buffer.
func (m *Mesh) VertexBuffer() *wgpu.Buffer { return m.vertex.Handle() }

// IndexBuffer returns the GPU index buffer (32-bit indices).
func (m *Mesh) IndexBuffer() *wgpu.Buffer { return m.index.Handle() }

// Release schedules both buffers into the deletion queue under slot.
func (m *Mesh) Release(q *resources.DeletionQueue, slot int) {
	m.vertex.Release(q, slot)
	m.index.Release(q, slot)
}

// Model is one renderable mesh: its geometry, bounding sphere, materials,
// and the bindless handle of its uploaded vertex data.
type Model interface {
	Name() string

	// Mesh returns the uploaded GPU buffers, or nil before Upload.
	Mesh() *Mesh
	IndexCount() int
	BoundingRadius() float32

	// MeshHandle is the bindless storage-buffer handle of the vertex data,
	// for shaders that fetch vertices by handle instead of a vertex buffer
	// bind (bindless.Invalid before Upload).
	MeshHandle() bindless.Handle
	SetMeshHandle(h bindless.Handle)

	RenderMaterials() []material.Material

	// Upload creates the GPU vertex/index buffers from the CPU-side
	// geometry and registers the vertex buffer in the bindless table.
	Upload(device *wgpu.Device, queue *wgpu.Queue, table *bindless.Table) error
}

type model struct {
	name           string
	vertices       []GPUVertex
	indices        []uint32
	indexCount     int
	boundingRadius float32
	materials      []material.Material

	mesh       *Mesh
	meshHandle bindless.Handle
}

var _ Model = (*model)(nil)

// NewModel creates a model from builder options.
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{
		name:       "model",
		meshHandle: bindless.Invalid,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.indexCount == 0 {
		m.indexCount = len(m.indices)
	}
	return m
}

func (m *model) Name() string                         { return m.name }
func (m *model) Mesh() *Mesh                          { return m.mesh }
func (m *model) IndexCount() int                      { return m.indexCount }
func (m *model) BoundingRadius() float32              { return m.boundingRadius }
func (m *model) MeshHandle() bindless.Handle          { return m.meshHandle }
func (m *model) SetMeshHandle(h bindless.Handle)      { m.meshHandle = h }
func (m *model) RenderMaterials() []material.Material { return m.materials }

// Upload implements Model. Idempotent: a model whose mesh already exists is
// left untouched.
func (m *model) Upload(device *wgpu.Device, queue *wgpu.Queue, table *bindless.Table) error {
	if m.mesh != nil {
		return nil
	}
	if len(m.vertices) == 0 || len(m.indices) == 0 {
		return fmt.Errorf("model %q: no geometry to upload", m.name)
	}

	vertexBytes := common.SliceToBytes(m.vertices)
	vertex, err := resources.NewBuffer(device, resources.BufferSpec{
		Size:            uint64(len(vertexBytes)),
		PerFrame:        1,
		AdditionalUsage: wgpu.BufferUsageVertex | wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("model %q: vertex buffer: %w", m.name, err)
	}
	if err := vertex.WriteSlot(queue, 0, vertexBytes); err != nil {
		return fmt.Errorf("model %q: vertex upload: %w", m.name, err)
	}

	indexBytes := common.SliceToBytes(m.indices)
	index, err := resources.NewBuffer(device, resources.BufferSpec{
		Size:            uint64(len(indexBytes)),
		PerFrame:        1,
		AdditionalUsage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("model %q: index buffer: %w", m.name, err)
	}
	if err := index.WriteSlot(queue, 0, indexBytes); err != nil {
		return fmt.Errorf("model %q: index upload: %w", m.name, err)
	}

	handle, err := table.AllocateStorageBuffer(vertex.Handle(), bindless.ReadOnly)
	if err != nil {
		return fmt.Errorf("model %q: %w", m.name, err)
	}

	m.mesh = &Mesh{vertex: vertex, index: index}
	m.meshHandle = handle
	m.indexCount = len(m.indices)

	for _, mat := range m.materials {
		if err := mat.Upload(device, queue, table); err != nil {
			return err
		}
	}
	return nil
}
