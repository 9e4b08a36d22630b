// Package batch implements the draw batch registry (C4): a map from
// material template identity to a stable, insertion-ordered DrawBatch
// whose firstInstance stays contiguous across adds and removes.
package batch

// Batch mirrors the wire-visible DrawBatch record: a stable id, the
// instance-buffer range it currently occupies, and the opaque key it was
// registered under (normally a mesh/material pairing).
type Batch struct {
	ID            uint32
	FirstInstance uint32
	InstanceCount uint32
	Key           any
}

// Registry maps material template keys to DrawBatch entries. IDs are
// assigned in insertion order and never reused; Register is idempotent for
// a key already seen.
type Registry struct {
	ids     map[any]uint32
	batches []Batch
}

// NewRegistry creates an empty batch registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[any]uint32)}
}

// Register returns the stable batch id for key, creating a new zero-count
// batch the first time key is seen.
func (r *Registry) Register(key any) uint32 {
	if id, ok := r.ids[key]; ok {
		return id
	}
	id := uint32(len(r.batches))
	r.ids[key] = id
	r.batches = append(r.batches, Batch{ID: id, Key: key})
	return id
}

// AddInstance increments the instance count of batch id and recomputes
// firstInstance for every batch that follows it, keeping the instance
// buffer contiguous.
func (r *Registry) AddInstance(id uint32) {
	r.batches[id].InstanceCount++
	r.recomputeFrom(id)
}

// RemoveInstance decrements the instance count of batch id and recomputes
// firstInstance for every batch that follows it. Removing from an
// already-empty batch is a no-op.
func (r *Registry) RemoveInstance(id uint32) {
	if r.batches[id].InstanceCount == 0 {
		return
	}
	r.batches[id].InstanceCount--
	r.recomputeFrom(id)
}

// recomputeFrom walks batches with id greater than changed, setting each
// one's firstInstance to the end of the previous batch's range.
func (r *Registry) recomputeFrom(changed uint32) {
	for i := int(changed) + 1; i < len(r.batches); i++ {
		prev := r.batches[i-1]
		r.batches[i].FirstInstance = prev.FirstInstance + prev.InstanceCount
	}
}

// ResetCounts zeroes every batch's instance count and firstInstance,
// keeping registered ids and keys stable, ahead of a fresh per-frame
// AddInstance pass (see engine/scene's instance feed, which rebuilds the
// live instance set from scratch every frame rather than tracking
// incremental adds/removes).
func (r *Registry) ResetCounts() {
	for i := range r.batches {
		r.batches[i].InstanceCount = 0
		r.batches[i].FirstInstance = 0
	}
}

// TotalCount returns the sum of every batch's instance count, equal to the
// high-water mark of the instance buffer.
func (r *Registry) TotalCount() uint32 {
	var total uint32
	for _, b := range r.batches {
		total += b.InstanceCount
	}
	return total
}

// Batches returns the batch table ordered by id.
func (r *Registry) Batches() []Batch {
	return r.batches
}
