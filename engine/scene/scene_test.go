package scene

import (
	"testing"

	"github.com/duskforge/oxyfg/engine/camera"
	"github.com/duskforge/oxyfg/engine/game_object"
	"github.com/duskforge/oxyfg/engine/light"
)

func TestSceneAddRemove(t *testing.T) {
	s := NewScene("test", camera.NewCamera())

	a := game_object.NewGameObject(game_object.WithEnabled(true))
	b := game_object.NewGameObject(game_object.WithEnabled(true))
	s.Add(a)
	s.Add(b)

	if len(s.Objects()) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(s.Objects()))
	}

	s.Remove(a.ID())
	objs := s.Objects()
	if len(objs) != 1 {
		t.Fatalf("expected 1 object after removal, got %d", len(objs))
	}
	if objs[0].ID() != b.ID() {
		t.Errorf("wrong object removed")
	}

	// Removing an unknown id is a no-op.
	s.Remove(999999)
	if len(s.Objects()) != 1 {
		t.Errorf("remove of unknown id changed the object set")
	}
}

func TestSceneUpdateIntegratesRotationSpeed(t *testing.T) {
	s := NewScene("test", camera.NewCamera())
	obj := game_object.NewGameObject(
		game_object.WithEnabled(true),
		game_object.WithRotationSpeed(0, 2, 0),
	)
	s.Add(obj)

	s.Update(0.5)

	_, _, rot, _ := obj.TransformData()
	if rot[1] != 1 {
		t.Errorf("rotation after update = %v, want y = 1", rot)
	}
}

func TestSceneLights(t *testing.T) {
	s := NewScene("test", camera.NewCamera(), WithAmbient(0.1, 0.2, 0.3))
	s.AddLight(light.Light{Intensity: 5, Radius: 10})

	if len(s.Lights()) != 1 {
		t.Fatalf("expected 1 light, got %d", len(s.Lights()))
	}
	if s.Ambient() != [3]float32{0.1, 0.2, 0.3} {
		t.Errorf("ambient = %v", s.Ambient())
	}
}
