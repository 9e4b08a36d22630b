package resources

// DeletionQueue defers GPU object destruction until the in-flight frame
// slot it was scheduled under is known to have finished executing on the
// GPU. One slice per frame-in-flight slot; only one frame occupies a slot
// at a time, and only the render thread touches the queue, so no locking is
// required.
type DeletionQueue struct {
	slots [MaxFramesInFlight][]Releasable
}

// NewDeletionQueue creates an empty deletion queue.
func NewDeletionQueue() *DeletionQueue {
	return &DeletionQueue{}
}

// Enqueue schedules obj for destruction once the given slot's fence (tracked
// by the renderer, see engine/renderer/renderer.go) has signalled on its next
// visit.
func (q *DeletionQueue) Enqueue(slot int, obj Releasable) {
	q.slots[slot] = append(q.slots[slot], obj)
}

// Drain releases everything queued for the given slot and clears it. Called
// once per frame, at the start of recording for that slot, after the
// renderer has confirmed the slot's previous occupant finished on the GPU.
func (q *DeletionQueue) Drain(slot int) {
	for _, obj := range q.slots[slot] {
		obj.releaseNow()
	}
	q.slots[slot] = q.slots[slot][:0]
}
