package resources

import "testing"

type fakeReleasable struct {
	released bool
}

func (f *fakeReleasable) releaseNow() { f.released = true }

// TestDeletionQueueContainment checks that an object enqueued under one
// frame-in-flight slot is released only when that slot is drained, never by
// draining another slot.
func TestDeletionQueueContainment(t *testing.T) {
	q := NewDeletionQueue()
	obj := &fakeReleasable{}

	q.Enqueue(0, obj)

	for slot := 1; slot < MaxFramesInFlight; slot++ {
		q.Drain(slot)
		if obj.released {
			t.Fatalf("object enqueued at slot 0 released by draining slot %d", slot)
		}
	}

	q.Drain(0)
	if !obj.released {
		t.Fatal("object not released after its own slot drained")
	}
}

// TestDeletionQueueDrainClears checks that a drained slot does not release
// its objects a second time on the next drain.
func TestDeletionQueueDrainClears(t *testing.T) {
	q := NewDeletionQueue()
	obj := &fakeReleasable{}

	q.Enqueue(1, obj)
	q.Drain(1)
	if !obj.released {
		t.Fatal("object not released on first drain")
	}

	obj.released = false
	q.Drain(1)
	if obj.released {
		t.Fatal("object released again by a second drain of the same slot")
	}
}
