package model

import "github.com/duskforge/oxyfg/engine/renderer/material"

// ModelBuilderOption configures a model during NewModel.
type ModelBuilderOption func(*model)

// WithName sets the model's identifier.
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithVertices sets the CPU-side vertex data Upload sends to the GPU.
func WithVertices(vertices []GPUVertex) ModelBuilderOption {
	return func(m *model) {
		m.vertices = vertices
	}
}

// WithIndices sets the CPU-side 32-bit index data.
func WithIndices(indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.indices = indices
	}
}

// WithIndexCount overrides the drawn index count (defaults to
// len(indices)).
func WithIndexCount(count int) ModelBuilderOption {
	return func(m *model) {
		m.indexCount = count
	}
}

// WithBoundingRadius sets the model-space bounding sphere radius used for
// frustum culling.
func WithBoundingRadius(radius float32) ModelBuilderOption {
	return func(m *model) {
		m.boundingRadius = radius
	}
}

// WithRenderMaterials sets the materials drawn with this model; the first
// one keys batch assignment.
func WithRenderMaterials(materials ...material.Material) ModelBuilderOption {
	return func(m *model) {
		m.materials = materials
	}
}
