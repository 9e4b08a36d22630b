package scene

import (
	"sync"

	"github.com/duskforge/oxyfg/engine/camera"
	"github.com/duskforge/oxyfg/engine/game_object"
	"github.com/duskforge/oxyfg/engine/light"
)

// Scene is the live object registry the instance feed walks every frame: a
// camera, the renderable game objects, and the light set.
type Scene interface {
	Name() string

	Camera() camera.Camera
	SetCamera(cam camera.Camera)

	// Objects returns the registered game objects in insertion order.
	Objects() []game_object.GameObject
	Add(obj game_object.GameObject)
	Remove(id uint64)

	Lights() []light.Light
	AddLight(l light.Light)

	// Ambient is the constant ambient term written into the lights buffer
	// header.
	Ambient() [3]float32
	SetAmbient(r, g, b float32)

	// Update advances object transforms by dt seconds (rotation speeds
	// integrate here). Called once per frame before the graph executes.
	Update(dt float32)
}

type sceneImpl struct {
	name string

	mu      sync.RWMutex
	cam     camera.Camera
	objects []game_object.GameObject
	lights  []light.Light
	ambient [3]float32
}

var _ Scene = (*sceneImpl)(nil)

// NewScene creates a scene around cam.
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	s := &sceneImpl{
		name:    name,
		cam:     cam,
		ambient: [3]float32{0.03, 0.03, 0.03},
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *sceneImpl) Name() string { return s.name }

func (s *sceneImpl) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *sceneImpl) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *sceneImpl) Objects() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]game_object.GameObject, len(s.objects))
	copy(out, s.objects)
	return out
}

func (s *sceneImpl) Add(obj game_object.GameObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = append(s.objects, obj)
}

func (s *sceneImpl) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, obj := range s.objects {
		if obj.ID() == id {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			return
		}
	}
}

func (s *sceneImpl) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]light.Light, len(s.lights))
	copy(out, s.lights)
	return out
}

func (s *sceneImpl) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *sceneImpl) Ambient() [3]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambient
}

func (s *sceneImpl) SetAmbient(r, g, b float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambient = [3]float32{r, g, b}
}

func (s *sceneImpl) Update(dt float32) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, obj := range s.objects {
		_, _, rot, speed := obj.TransformData()
		if speed == [3]float32{} {
			continue
		}
		obj.SetRotation(rot[0]+speed[0]*dt, rot[1]+speed[1]*dt, rot[2]+speed[2]*dt)
	}
}

// SceneBuilderOption configures a scene during NewScene.
type SceneBuilderOption func(*sceneImpl)

// WithObjects seeds the scene with objects.
func WithObjects(objs ...game_object.GameObject) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.objects = append(s.objects, objs...)
	}
}

// WithLights seeds the scene with lights.
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.lights = append(s.lights, lights...)
	}
}

// WithAmbient sets the ambient light term.
func WithAmbient(r, g, b float32) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.ambient = [3]float32{r, g, b}
	}
}
