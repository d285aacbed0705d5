package api

import "sync"

// Owner is a non-owning reference to the entity a routine belongs to.
//
// The scheduler calls Alive on every liveness check; once it reports false
// the routine is evicted without an explicit stop. Owner values are compared
// with == by StopAll, so implementations must be comparable (pointers or
// plain structs).
type Owner interface {
	Alive() bool
}

// Lifetime tracks whether an entity is still valid. References handed out
// by Ref observe the lifetime without extending it; Destroy and Recycle
// invalidate every outstanding reference.
//
// A Lifetime is safe for concurrent use so entities may be destroyed from
// goroutines other than the frame loop; the scheduler observes the change on
// its next pass.
type Lifetime struct {
	mu         sync.RWMutex
	generation uint64
	destroyed  bool
}

// NewLifetime returns a live Lifetime.
func NewLifetime() *Lifetime {
	return &Lifetime{}
}

// Ref returns a reference bound to the current generation.
func (l *Lifetime) Ref() OwnerRef {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return OwnerRef{lifetime: l, generation: l.generation}
}

// Destroy invalidates all references. Calling it twice is harmless.
func (l *Lifetime) Destroy() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.destroyed {
		l.destroyed = true
		l.generation++
	}
}

// Recycle invalidates all outstanding references and makes the lifetime
// usable again, as when a pooled entity is handed to a new user.
func (l *Lifetime) Recycle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.destroyed = false
	l.generation++
}

// Alive reports whether the lifetime has not been destroyed.
func (l *Lifetime) Alive() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return !l.destroyed
}

func (l *Lifetime) valid(gen uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return !l.destroyed && l.generation == gen
}

// OwnerRef is a generation-checked reference to a Lifetime. Two refs are
// equal when they point at the same lifetime generation.
type OwnerRef struct {
	lifetime   *Lifetime
	generation uint64
}

// Alive reports whether the referenced lifetime is still in the generation
// the ref was taken from.
func (r OwnerRef) Alive() bool {
	if r.lifetime == nil {
		return false
	}
	return r.lifetime.valid(r.generation)
}
