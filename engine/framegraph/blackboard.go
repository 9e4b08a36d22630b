package framegraph

import (
	"fmt"
	"reflect"
)

// Blackboard is a type-keyed store passes use to share small structs of
// resource handles across Info()/CreateResources() calls without a shared
// global, e.g. the bloom pass publishing its per-mip view handles for the
// post-process pass to read back.
type Blackboard struct {
	storage map[reflect.Type]any
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{storage: make(map[reflect.Type]any)}
}

// BlackboardAdd stores value under its own type, panicking if that type is
// already present; each type has exactly one publisher.
func BlackboardAdd[T any](b *Blackboard, value T) T {
	t := reflect.TypeOf(value)
	if _, ok := b.storage[t]; ok {
		panic(fmt.Sprintf("framegraph: blackboard already contains type %v", t))
	}
	b.storage[t] = value
	return value
}

// BlackboardGet retrieves the value of type T, panicking if none was added —
// a pass reading from the blackboard is expected to know its dependency
// already ran.
func BlackboardGet[T any](b *Blackboard) T {
	var zero T
	t := reflect.TypeOf(zero)
	v, ok := b.storage[t]
	if !ok {
		panic(fmt.Sprintf("framegraph: blackboard does not contain type %v", t))
	}
	return v.(T)
}

// BlackboardHas reports whether a value of type T has been added.
func BlackboardHas[T any](b *Blackboard) bool {
	var zero T
	_, ok := b.storage[reflect.TypeOf(zero)]
	return ok
}
