// ebr.go: minimal epoch-based reclamation for the idr package
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// Package ebr provides a small epoch-based reclamation facility: a
// stack-scoped Guard, an atomic reference-counted Shared[T] cell, and an
// AtomicShared[T] pointer that the idr package's slots use to publish and
// retire values under concurrent access.
//
// Go's tracing garbage collector already guarantees that a goroutine
// holding any live *T cannot observe freed memory, so this package does
// not need to prevent use-after-free the way a manual-memory-management
// implementation would. Its job is narrower: give Shared[T] an
// independent, observable reference count (so OwnedEntry handles can
// outlive both the Idr and any Guard), and give deterministic timing to
// an optional Close() cleanup hook once a cell's refcount provably drops
// to zero with no Guard still pinned to an epoch that could have
// observed it.
package ebr

import (
	"sync"
	"sync/atomic"
)

// bags is the number of generations tracked by the reclaimer. Three is
// the minimum that lets one bag be "current" (being filled), one be
// "previous" (quarantined), and one be "safe to drain" at any time.
const bags = 3

// Shared is a heap-allocated, reference-counted cell holding one T.
//
// The zero value is not usable; obtain one via NewShared.
type Shared[T any] struct {
	value T
	refs  atomic.Int64
}

// NewShared allocates a new cell with an initial reference count of 1.
func NewShared[T any](v T) *Shared[T] {
	s := &Shared[T]{value: v}
	s.refs.Store(1)
	return s
}

// Get returns a pointer to the contained value. The pointer remains
// valid for as long as the caller holds a reference (via a Guard that
// observed it, or a clone obtained from Upgrade).
func (s *Shared[T]) Get() *T {
	return &s.value
}

// Clone increments the reference count and returns s; it is the
// "upgrade a borrowed pointer to an owned handle" operation used by
// the idr package's BorrowedEntry.Upgrade and Idr.GetOwned.
func (s *Shared[T]) Clone() *Shared[T] {
	s.refs.Add(1)
	return s
}

// Release decrements the reference count. When it reaches zero, the
// cell is retired into the current epoch's garbage bag; it is dropped
// for real (running the optional Close hook) once no Guard remains
// pinned to an epoch old enough to have observed it.
func (s *Shared[T]) Release() {
	if s.refs.Add(-1) == 0 {
		retire(func() {
			if closer, ok := any(&s.value).(interface{ Close() error }); ok {
				_ = closer.Close()
			}
		})
	}
}

// AtomicShared is an atomic, nullable pointer to a Shared[T], integrated
// with the package's epoch reclaimer.
type AtomicShared[T any] struct {
	ptr atomic.Pointer[Shared[T]]
}

// Load reads the current value with acquire ordering under guard. The
// returned pointer, if non-nil, is safe to dereference for the lifetime
// of guard.
func (a *AtomicShared[T]) Load(guard *Guard) *Shared[T] {
	_ = guard // pins the epoch for the caller's stack frame; see Guard docs.
	return a.ptr.Load()
}

// Swap atomically replaces the stored pointer and returns the previous
// value (nil if none was set). It does not itself release the old
// value's reference; callers that own that reference must call
// Release on it explicitly (see Slot.uninit in the idr package).
func (a *AtomicShared[T]) Swap(next *Shared[T]) *Shared[T] {
	return a.ptr.Swap(next)
}

// CompareAndSwap atomically sets the pointer to next if it currently
// equals old, returning whether the swap happened.
func (a *AtomicShared[T]) CompareAndSwap(old, next *Shared[T]) bool {
	return a.ptr.CompareAndSwap(old, next)
}

// Guard pins the calling goroutine to the current global epoch. While a
// Guard is held, any Shared[T] retired during its lifetime is kept in
// quarantine instead of being collected, so pointers obtained via
// AtomicShared.Load(guard) remain valid for as long as guard is held.
//
// A Guard is not safe for concurrent use and must not be shared across
// goroutines; acquire one per goroutine, per operation.
type Guard struct {
	slot int // index into the reclaimer's per-epoch pin counters
	done bool
}

// AcquireGuard pins the caller to the current epoch and returns a Guard.
// The caller must call Release exactly once when done.
func AcquireGuard() *Guard {
	return globalReclaimer.acquire()
}

// Release unpins the guard, allowing its epoch's garbage bag to be
// drained once no other guard remains pinned to it or an older one.
func (g *Guard) Release() {
	if g.done {
		return
	}
	g.done = true
	globalReclaimer.release(g.slot)
}

// retire schedules fn to run once it is safe to reclaim the object it
// closes over (i.e. no pinned guard could still observe it).
func retire(fn func()) {
	globalReclaimer.retire(fn)
}

// reclaimer implements the three-generation garbage-bag scheme: a
// global epoch counter, one pin counter per generation slot, and one
// garbage bag per generation slot. Advancing the epoch and draining the
// oldest bag only happens opportunistically, from Guard.Release, which
// keeps the hot path (Load/Swap/CompareAndSwap) completely lock-free.
type reclaimer struct {
	mu      sync.Mutex
	epoch   uint64
	pinned  [bags]int64
	garbage [bags][]func()
}

var globalReclaimer = &reclaimer{}

func (r *reclaimer) acquire() *Guard {
	r.mu.Lock()
	slot := int(r.epoch % bags)
	r.pinned[slot]++
	r.mu.Unlock()
	return &Guard{slot: slot}
}

func (r *reclaimer) release(slot int) {
	r.mu.Lock()
	r.pinned[slot]--
	r.tryAdvanceLocked()
	r.mu.Unlock()
}

func (r *reclaimer) retire(fn func()) {
	r.mu.Lock()
	slot := int(r.epoch % bags)
	r.garbage[slot] = append(r.garbage[slot], fn)
	r.mu.Unlock()
}

// tryAdvanceLocked advances the global epoch, and drains the bag that
// falls out of quarantine, whenever the two generations behind the
// current one have no pinned guards left. Must be called with r.mu held.
func (r *reclaimer) tryAdvanceLocked() {
	prev := int((r.epoch + bags - 1) % bags)
	prevPrev := int((r.epoch + bags - 2) % bags)

	if r.pinned[prev] != 0 || r.pinned[prevPrev] != 0 {
		return
	}

	drain := r.garbage[prevPrev]
	r.garbage[prevPrev] = nil
	r.epoch++

	if len(drain) == 0 {
		return
	}

	// Run finalizers outside the lock to avoid holding it across
	// arbitrary user Close() calls.
	r.mu.Unlock()
	for _, fn := range drain {
		fn()
	}
	r.mu.Lock()
}
