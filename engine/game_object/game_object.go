// Package game_object holds the engine's renderable scene entities: a
// transform, an optional model, and an enabled flag. The instance feed
// walks these every frame to build the GPU instance buffers.
package game_object

import (
	"sync/atomic"

	"github.com/duskforge/oxyfg/engine/model"
)

// GameObject is one scene entity. Transform state is plain data read by the
// render thread; there is no per-object animation machinery.
type GameObject interface {
	ID() uint64

	Enabled() bool
	SetEnabled(enabled bool)

	Model() model.Model
	SetModel(m model.Model)

	// TransformData returns the current position, scale, Euler rotation
	// (radians) and rotation speed (radians/second, applied by the scene's
	// Update tick).
	TransformData() (pos, scale, rot, rotSpeed [3]float32)

	SetPosition(x, y, z float32)
	SetRotation(rx, ry, rz float32)
}

type gameObject struct {
	id      uint64
	enabled bool
	mdl     model.Model

	position [3]float32
	scale    [3]float32
	rotation [3]float32
	rotSpeed [3]float32
}

var _ GameObject = (*gameObject)(nil)

var nextID atomic.Uint64

// NewGameObject creates a game object from builder options. Scale defaults
// to (1, 1, 1) unless WithScale overrides it.
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	g := &gameObject{
		id:    nextID.Add(1),
		scale: [3]float32{1, 1, 1},
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *gameObject) ID() uint64              { return g.id }
func (g *gameObject) Enabled() bool           { return g.enabled }
func (g *gameObject) SetEnabled(enabled bool) { g.enabled = enabled }
func (g *gameObject) Model() model.Model      { return g.mdl }
func (g *gameObject) SetModel(m model.Model)  { g.mdl = m }

func (g *gameObject) TransformData() (pos, scale, rot, rotSpeed [3]float32) {
	return g.position, g.scale, g.rotation, g.rotSpeed
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.position = [3]float32{x, y, z}
}

func (g *gameObject) SetRotation(rx, ry, rz float32) {
	g.rotation = [3]float32{rx, ry, rz}
}

// GameObjectBuilderOption configures a game object during NewGameObject.
type GameObjectBuilderOption func(*gameObject)

// WithEnabled sets whether the object is rendered.
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.enabled = enabled
	}
}

// WithModel attaches the renderable model.
func WithModel(m model.Model) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.mdl = m
	}
}

// WithPosition sets the world-space position.
func WithPosition(x, y, z float32) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.position = [3]float32{x, y, z}
	}
}

// WithScale sets the per-axis scale.
func WithScale(sx, sy, sz float32) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.scale = [3]float32{sx, sy, sz}
	}
}

// WithRotation sets the Euler rotation in radians.
func WithRotation(rx, ry, rz float32) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.rotation = [3]float32{rx, ry, rz}
	}
}

// WithRotationSpeed sets a constant per-axis angular velocity in
// radians/second, integrated by the scene's Update tick.
func WithRotationSpeed(rx, ry, rz float32) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.rotSpeed = [3]float32{rx, ry, rz}
	}
}
