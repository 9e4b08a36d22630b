package bindless

import "testing"

func TestPackRoundTrips(t *testing.T) {
	h := Pack(42, 7, KindStorageBuffer, ReadWrite)
	if h.Index() != 42 {
		t.Errorf("Index() = %d, want 42", h.Index())
	}
	if h.Version() != 7 {
		t.Errorf("Version() = %d, want 7", h.Version())
	}
	if h.Kind() != KindStorageBuffer {
		t.Errorf("Kind() = %v, want StorageBuffer", h.Kind())
	}
	if h.Access() != ReadWrite {
		t.Errorf("Access() = %v, want ReadWrite", h.Access())
	}
}

func TestInvalidHandle(t *testing.T) {
	if Invalid.IsValid() {
		t.Error("Invalid.IsValid() should be false")
	}
	h := Pack(0, 0, KindSampledImage, ReadOnly)
	if !h.IsValid() {
		t.Error("a freshly packed handle should be valid")
	}
}

// TestHandleCacheRecycleBumpsVersion reproduces testable property 5: a
// recycled handle index carries a bumped version; a lookup with the old
// version is distinguishable from a valid one.
func TestHandleCacheRecycleBumpsVersion(t *testing.T) {
	c := NewHandleCache(4)
	idx, ver1, ok := c.Allocate()
	if !ok {
		t.Fatal("expected allocation to succeed")
	}
	h1 := Pack(idx, ver1, KindSampledImage, ReadOnly)
	c.Free(idx)

	idx2, ver2, ok := c.Allocate()
	if !ok {
		t.Fatal("expected allocation to succeed")
	}
	if idx2 != idx {
		t.Fatalf("expected the freed index %d to be reused, got %d", idx, idx2)
	}
	if ver2 == ver1 {
		t.Fatal("expected version to bump on recycle")
	}

	if c.Validate(h1.Index(), h1.Version()) {
		t.Error("stale handle should fail validation after recycle")
	}
	h2 := Pack(idx2, ver2, KindSampledImage, ReadOnly)
	if !c.Validate(h2.Index(), h2.Version()) {
		t.Error("freshly recycled handle should pass validation")
	}
}

func TestHandleCacheExhaustion(t *testing.T) {
	c := NewHandleCache(2)
	if _, _, ok := c.Allocate(); !ok {
		t.Fatal("first allocation should succeed")
	}
	if _, _, ok := c.Allocate(); !ok {
		t.Fatal("second allocation should succeed")
	}
	if _, _, ok := c.Allocate(); ok {
		t.Fatal("third allocation should fail: capacity is 2")
	}
}

func TestHandleCacheInUse(t *testing.T) {
	c := NewHandleCache(4)
	idx, _, _ := c.Allocate()
	c.Allocate()
	if got := c.InUse(); got != 2 {
		t.Errorf("InUse() = %d, want 2", got)
	}
	c.Free(idx)
	if got := c.InUse(); got != 1 {
		t.Errorf("InUse() = %d, want 1", got)
	}
}
