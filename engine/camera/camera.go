// Package camera holds the scene camera: view/projection state, a movable
// controller, and the GPU uniform record the scene update pass writes every
// frame.
package camera

import (
	"github.com/duskforge/oxyfg/common"
)

// Camera exposes the matrices the renderer consumes. Matrices are
// recomputed lazily whenever the controller or projection changed.
type Camera interface {
	// ViewProjectionMatrix returns projection * view, column-major.
	ViewProjectionMatrix() [16]float32

	// SetPerspective sets the projection. fovY is in radians; aspect is
	// width/height.
	SetPerspective(fovY, aspect, near, far float32)

	Controller() CameraController
}

// CameraController positions and aims the camera.
type CameraController interface {
	Position() (x, y, z float32)
	SetPosition(x, y, z float32)

	Target() (x, y, z float32)
	SetTarget(x, y, z float32)
}

type cameraImpl struct {
	controller *controller

	proj  [16]float32
	dirty bool
	vp    [16]float32
}

var _ Camera = (*cameraImpl)(nil)

// NewCamera creates a camera at the origin looking down -Z with an identity
// projection; callers set a real projection via SetPerspective.
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		controller: &controller{target: [3]float32{0, 0, -1}},
		dirty:      true,
	}
	common.Identity(c.proj[:])
	c.controller.owner = c
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *cameraImpl) Controller() CameraController { return c.controller }

func (c *cameraImpl) SetPerspective(fovY, aspect, near, far float32) {
	common.Perspective(c.proj[:], fovY, aspect, near, far)
	c.dirty = true
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	if c.dirty {
		var view [16]float32
		p := c.controller.position
		t := c.controller.target
		common.LookAt(view[:], p[0], p[1], p[2], t[0], t[1], t[2], 0, 1, 0)
		common.Mul4(c.vp[:], c.proj[:], view[:])
		c.dirty = false
	}
	return c.vp
}

type controller struct {
	owner    *cameraImpl
	position [3]float32
	target   [3]float32
}

var _ CameraController = (*controller)(nil)

func (ct *controller) Position() (x, y, z float32) {
	return ct.position[0], ct.position[1], ct.position[2]
}

func (ct *controller) SetPosition(x, y, z float32) {
	ct.position = [3]float32{x, y, z}
	ct.owner.dirty = true
}

func (ct *controller) Target() (x, y, z float32) {
	return ct.target[0], ct.target[1], ct.target[2]
}

func (ct *controller) SetTarget(x, y, z float32) {
	ct.target = [3]float32{x, y, z}
	ct.owner.dirty = true
}

// CameraBuilderOption configures a camera during NewCamera.
type CameraBuilderOption func(*cameraImpl)

// WithPosition sets the initial camera position.
func WithPosition(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller.position = [3]float32{x, y, z}
	}
}

// WithTarget sets the initial look-at target.
func WithTarget(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller.target = [3]float32{x, y, z}
	}
}

// WithPerspective sets the initial projection.
func WithPerspective(fovY, aspect, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.SetPerspective(fovY, aspect, near, far)
	}
}
