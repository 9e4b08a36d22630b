package batch

import "testing"

// TestBatchChurnScenario: register three templates, add 3 instances to
// batch 1, 2 to batch 0, 1 to batch 2, then remove 1 from batch 1.
func TestBatchChurnScenario(t *testing.T) {
	r := NewRegistry()
	b0 := r.Register("T1")
	b1 := r.Register("T2")
	b2 := r.Register("T3")

	for i := 0; i < 3; i++ {
		r.AddInstance(b1)
	}
	for i := 0; i < 2; i++ {
		r.AddInstance(b0)
	}
	r.AddInstance(b2)
	r.RemoveInstance(b1)

	want := []Batch{
		{ID: 0, FirstInstance: 0, InstanceCount: 2, Key: "T1"},
		{ID: 1, FirstInstance: 2, InstanceCount: 2, Key: "T2"},
		{ID: 2, FirstInstance: 4, InstanceCount: 1, Key: "T3"},
	}
	got := r.Batches()
	if len(got) != len(want) {
		t.Fatalf("got %d batches, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("batch %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
	if total := r.TotalCount(); total != 5 {
		t.Errorf("TotalCount() = %d, want 5", total)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	id1 := r.Register("mat-a")
	id2 := r.Register("mat-a")
	if id1 != id2 {
		t.Errorf("Register returned different ids for the same key: %d != %d", id1, id2)
	}
	if len(r.Batches()) != 1 {
		t.Errorf("expected exactly one batch, got %d", len(r.Batches()))
	}
}

// TestBatchLayoutContiguity checks that after any sequence of
// register/add/remove, the concatenation of
// [firstInstance, firstInstance+instanceCount) ranges is exactly
// [0, totalCount) with no gaps or overlaps.
func TestBatchLayoutContiguity(t *testing.T) {
	r := NewRegistry()
	ids := make([]uint32, 4)
	for i := range ids {
		ids[i] = r.Register(i)
	}

	ops := []struct {
		idx    int
		remove bool
	}{
		{0, false}, {1, false}, {1, false}, {2, false},
		{0, true}, {3, false}, {3, false}, {1, true}, {2, true},
	}
	for _, op := range ops {
		if op.remove {
			r.RemoveInstance(ids[op.idx])
		} else {
			r.AddInstance(ids[op.idx])
		}
	}

	var expected uint32
	for _, b := range r.Batches() {
		if b.FirstInstance != expected {
			t.Fatalf("batch %d: firstInstance = %d, want %d (contiguity broken)", b.ID, b.FirstInstance, expected)
		}
		expected += b.InstanceCount
	}
	if expected != r.TotalCount() {
		t.Errorf("sum of instance counts = %d, TotalCount() = %d", expected, r.TotalCount())
	}
}

func TestRemoveFromEmptyBatchIsNoOp(t *testing.T) {
	r := NewRegistry()
	id := r.Register("solo")
	r.RemoveInstance(id)
	if got := r.Batches()[0].InstanceCount; got != 0 {
		t.Errorf("instanceCount = %d, want 0", got)
	}
}
