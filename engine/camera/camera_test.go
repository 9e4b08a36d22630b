package camera

import (
	"testing"

	"github.com/duskforge/oxyfg/common"
)

func TestViewProjectionTracksController(t *testing.T) {
	cam := NewCamera(WithPosition(0, 0, 5), WithTarget(0, 0, 0))

	var want [16]float32
	common.LookAt(want[:], 0, 0, 5, 0, 0, 0, 0, 1, 0)
	if cam.ViewProjectionMatrix() != want {
		t.Fatalf("identity-projection VP should equal the view matrix")
	}

	// Moving the controller invalidates the cached matrix.
	cam.Controller().SetPosition(0, 0, 10)
	common.LookAt(want[:], 0, 0, 10, 0, 0, 0, 0, 1, 0)
	if cam.ViewProjectionMatrix() != want {
		t.Fatalf("VP not recomputed after controller move")
	}
}

func TestGPUCameraUniformSize(t *testing.T) {
	var u GPUCameraUniform
	if len(u.Marshal()) != u.Size() {
		t.Fatalf("marshal size %d != declared size %d", len(u.Marshal()), u.Size())
	}
	if u.Size() != 80 {
		t.Fatalf("uniform size = %d, want 80", u.Size())
	}
}
