// slot.go: the per-entry state machine
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package idr

import (
	"sync/atomic"

	"github.com/agilira/idr/internal/ebr"
)

// Slot is the atomic cell owning one optional value. A slot is
// "occupied" iff data holds a non-nil pointer; the generation advances
// only on the occupied -> vacant transition.
type Slot[T any] struct {
	generation atomic.Uint32
	nextFree   atomic.Uint32 // free-list link; sentinel = freeListEnd
	data       ebr.AtomicShared[T]
}

// freeListEnd is the free-list sentinel ("no next"): the maximum
// representable uint32 value.
const freeListEnd = ^uint32(0)

// initSlot prepares a freshly allocated slot, pre-linked into the
// page's free list at construction time: a newly allocated array is
// pre-linked as 0 -> 1 -> ... -> (capacity-1) -> freeListEnd.
func initSlot[T any](next uint32) Slot[T] {
	var s Slot[T]
	s.nextFree.Store(next)
	return s
}

// init installs value into a slot the caller has exclusively reserved
// via the free-list CAS. Because reservation grants exclusivity, a
// plain store would suffice; a swap is used so the old==nil assertion
// below can catch a reservation-protocol bug during development.
func (s *Slot[T]) init(value T) {
	old := s.data.Swap(ebr.NewShared(value))
	if old != nil {
		panic("idr: init on a slot that already held a value")
	}
}

// uninit implements the occupied(g) -> vacant(g+1) transition for a
// remover holding key. It returns false if key's generation does not
// match the slot's, or if another remover (or a reused-slot race)
// already won the transition.
//
// Order is mandatory: the pointer CAS must happen before the
// generation bump, and a losing CAS must never touch the generation.
func (s *Slot[T]) uninit(r resolved, key Key) bool {
	guard := ebr.AcquireGuard()
	defer guard.Release()

	old := s.data.Load(guard)
	if old == nil {
		return false
	}
	if key.generation(r) != s.generation.Load() {
		return false
	}
	if !s.data.CompareAndSwap(old, nil) {
		return false
	}

	old.Release()

	s.bumpGeneration(r)

	return true
}

// bumpGeneration advances the generation counter modulo 2^GENERATION_BITS.
// When GENERATION_BITS == 32, plain uint32 wraparound on overflow already
// implements "modulo 2^32", so no explicit modulus is taken.
func (s *Slot[T]) bumpGeneration(r resolved) {
	gen := s.generation.Load()
	var next uint32
	if r.generationBits >= 32 {
		next = gen + 1
	} else {
		mod := uint32(1) << r.generationBits
		next = (gen + 1) % mod
	}
	s.generation.Store(next)
}

// generationValue reads the slot's current generation counter.
func (s *Slot[T]) generationValue() uint32 {
	return s.generation.Load()
}

// get implements the wait-free read: load the data pointer, then the
// generation, and return the value only if key's generation still
// matches. Pointer-then-generation order is mandatory.
func (s *Slot[T]) get(r resolved, key Key, guard *ebr.Guard) *ebr.Shared[T] {
	data := s.data.Load(guard)
	generation := s.generation.Load()

	if key.generation(r) != generation {
		return nil
	}

	return data
}

// setNextFree stores index as this slot's free-list successor. See
// Page.addFree for the CAS loop; this method only performs the
// next-pointer write for a slot about to be pushed.
func (s *Slot[T]) setNextFree(index uint32) {
	s.nextFree.Store(index)
}

func (s *Slot[T]) loadNextFree() uint32 {
	return s.nextFree.Load()
}
