// control.go: page allocation coordination and load distribution
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package idr

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

// PageControl coordinates first-time page allocation (a single short
// critical section per page) and distributes insertion attempts across
// already-allocated pages.
//
// PageControl itself carries no type parameter: its state (the
// allocation count and the lock) does not depend on the element type
// T. The per-T dispatch that actually allocates a Page[T] lives in
// Idr.getOrAllocatePage (idr.go), which is the generic function that
// calls into this type.
type PageControl struct {
	lock      sync.Mutex
	allocated atomic.Uint32
}

// allocatedCount returns the number of pages whose slot arrays
// currently exist. Relaxed: only used as a performance heuristic by
// choosePageForReserve, never for correctness.
func (pc *PageControl) allocatedCount() uint32 {
	return pc.allocated.Load()
}

// noteAllocated records that one more page has been materialized.
// Relaxed, for the same reason as allocatedCount.
func (pc *PageControl) noteAllocated() {
	pc.allocated.Add(1)
}

// withLock runs alloc while holding the page-allocation lock. The lock
// is the one and only blocking primitive in the whole package; it must
// never be held across anything but the raw array allocation and slot
// pre-linking that alloc performs.
func (pc *PageControl) withLock(alloc func()) {
	pc.lock.Lock()
	defer pc.lock.Unlock()
	alloc()
}

// chooseStart picks a uniformly random starting page index in
// [0, allocated). Go's top-level math/rand/v2 generator is already
// safe for concurrent use without a shared lock (each goroutine's
// calls are served from a fast per-P source): distribution quality
// here is a performance heuristic only, never a correctness
// requirement.
func chooseStart(allocated uint32) uint32 {
	if allocated == 0 {
		return 0
	}
	return uint32(rand.N(int(allocated)))
}
