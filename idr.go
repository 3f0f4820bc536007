// idr.go: the Idr facade — insert, vacant-entry, remove, get, iterate
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package idr

import (
	"runtime"
	"time"

	"github.com/agilira/idr/internal/ebr"
)

// Guard pins the calling goroutine to the current reclamation epoch,
// keeping any value retired during its lifetime alive for as long as
// the Guard is held. Acquire one with AcquireGuard and Release it
// exactly once when done; a Guard must not be shared across goroutines.
type Guard = ebr.Guard

// AcquireGuard pins the caller to the current epoch and returns a Guard
// for use with Get and Iter. The caller must call Release exactly once
// when done.
func AcquireGuard() *Guard {
	return ebr.AcquireGuard()
}

// Idr is a concurrent identifier resolver: a lock-free mapping from
// compact Key handles to heap-allocated values of type T.
//
// All operations are safe for concurrent use by any number of
// goroutines. Get and iteration under a caller-held Guard are
// wait-free; Insert and VacantEntry are lock-free with bounded
// contention, apart from the page-allocation lock, entered at most
// MaxPages times. Contains, GetOwned, and Remove acquire and release a
// Guard internally, and acquiring or releasing a Guard takes the epoch
// reclaimer's mutex, so those three calls are not lock-free.
//
// The zero value is not usable; construct one with New.
type Idr[T any] struct {
	cfg     resolved
	pages   []*Page[T]
	control PageControl

	logger  Logger
	metrics MetricsCollector
}

// New constructs an Idr for element type T from cfg. It validates cfg
// and returns a *go-errors error (see IsConfigError) if validation
// fails — an Idr is never returned in a usable-but-misconfigured state.
func New[T any](cfg Config) (*Idr[T], error) {
	r, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = NoOpLogger{}
	}
	metrics := cfg.MetricsCollector
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}

	pages := make([]*Page[T], r.maxPages)
	for i := range pages {
		pages[i] = newPage[T](r, uint32(i))
	}

	return &Idr[T]{
		cfg:     r,
		pages:   pages,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Capacity returns the total number of addressable slots: (2^MaxPages -
// 1) * InitialPageSize.
func (idx *Idr[T]) Capacity() uint64 {
	return idx.cfg.capacity()
}

// GenerationPeriod returns 2^GenerationBits: the number of distinct
// generations a slot cycles through before a freed slot's next
// generation collides with one already handed out.
func (idx *Idr[T]) GenerationPeriod() uint64 {
	return idx.cfg.generationPeriod()
}

// UsedBits, SlotBits, GenerationBits, and ReservedBits report the
// derived bit-layout constants, for callers that want to pack their
// own tag into a Key's reserved high bits.
func (idx *Idr[T]) UsedBits() uint32       { return idx.cfg.usedBits }
func (idx *Idr[T]) SlotBits() uint32       { return idx.cfg.slotBits }
func (idx *Idr[T]) GenerationBits() uint32 { return idx.cfg.generationBits }
func (idx *Idr[T]) ReservedBits() uint32   { return idx.cfg.reservedBits }

// getOrAllocatePage returns page pageNo, materializing its slot array
// on first demand under the page-allocation lock.
func (idx *Idr[T]) getOrAllocatePage(pageNo uint32) *Page[T] {
	page := idx.pages[pageNo]
	if page.slotsPtr() != nil {
		return page
	}

	idx.control.withLock(func() {
		if page.slotsPtr() != nil {
			return
		}
		page.allocate()
		idx.control.noteAllocated()
		idx.logger.Debug("idr: page allocated", "page_no", pageNo)
		idx.metrics.RecordPageAllocation(int(pageNo))
	})

	return page
}

// choosePageForReserve picks the page to reserve a slot from:
// try a random-start scan over already-allocated pages first, then a
// full linear scan (allocating pages on demand) as a fallback.
func (idx *Idr[T]) choosePageForReserve() (pageNo uint32, slotIdx uint32, ok bool) {
	allocated := idx.control.allocatedCount()
	if allocated > 0 {
		start := chooseStart(allocated)
		for i := start; i < allocated; i++ {
			if slot, ok := idx.pages[i].reserve(); ok {
				return i, slot, true
			}
		}
	}

	for pageNo := uint32(0); pageNo < uint32(len(idx.pages)); pageNo++ {
		page := idx.getOrAllocatePage(pageNo)
		if slotIdx, ok := page.reserve(); ok {
			return pageNo, slotIdx, true
		}
	}

	return 0, 0, false
}

// VacantEntry reserves a slot and constructs a handle exposing the
// prospective Key, committing on Insert and returning the slot to its
// page's free list if abandoned without a commit.
func (idx *Idr[T]) VacantEntry() (*VacantEntry[T], bool) {
	start := time.Now()
	pageNo, slotIdx, ok := idx.choosePageForReserve()
	if !ok {
		idx.metrics.RecordExhausted()
		idx.metrics.RecordInsert(time.Since(start).Nanoseconds(), false)
		return nil, false
	}

	page := idx.pages[pageNo]
	slotID := page.startSlotID + slotIdx
	generation := page.slotAt(slotIdx).generationValue()
	key := newKey(idx.cfg, slotID, generation, 0)

	entry := &VacantEntry[T]{
		idr:       idx,
		page:      page,
		slotIdx:   slotIdx,
		key:       key,
		committed: false,
	}
	runtime.SetFinalizer(entry, vacantEntryFinalizer[T])
	idx.metrics.RecordInsert(time.Since(start).Nanoseconds(), true)
	return entry, true
}

// Insert reserves a slot, installs value, and returns the new Key. It
// returns (zero, false) iff the Idr is full.
func (idx *Idr[T]) Insert(value T) (Key, bool) {
	entry, ok := idx.VacantEntry()
	if !ok {
		return 0, false
	}
	return entry.Insert(value), true
}

// Remove decodes key's page and slot, then runs the slot removal
// protocol. It returns false without side effects
// if key decodes out of range, names a vacant slot, or has a stale
// generation.
func (idx *Idr[T]) Remove(key Key) bool {
	start := time.Now()
	ok := idx.remove(key)
	idx.metrics.RecordRemove(time.Since(start).Nanoseconds(), ok)
	return ok
}

func (idx *Idr[T]) remove(key Key) bool {
	slotID := key.slotID(idx.cfg)
	pageNo, offset := pageForSlot(idx.cfg, slotID)
	if pageNo >= uint32(len(idx.pages)) {
		return false
	}

	page := idx.pages[pageNo]
	slot := page.slotAt(offset)
	if slot == nil {
		return false
	}

	if !slot.uninit(idx.cfg, key) {
		return false
	}

	page.addFree(offset)
	return true
}

// Get returns a guard-scoped, borrowed handle to key's value, or
// (zero-value, false) if key is unknown.
func (idx *Idr[T]) Get(key Key, guard *ebr.Guard) (BorrowedEntry[T], bool) {
	shared, ok := idx.getShared(key, guard)
	if !ok {
		idx.metrics.RecordGet(false)
		return BorrowedEntry[T]{}, false
	}
	idx.metrics.RecordGet(true)
	return BorrowedEntry[T]{guard: guard, shared: shared}, true
}

// GetOwned upgrades key's value (if live) to an independently
// reference-counted OwnedEntry that may outlive both any Guard and the
// Idr itself.
func (idx *Idr[T]) GetOwned(key Key) (OwnedEntry[T], bool) {
	guard := ebr.AcquireGuard()
	defer guard.Release()

	shared, ok := idx.getShared(key, guard)
	if !ok {
		idx.metrics.RecordGet(false)
		return OwnedEntry[T]{}, false
	}
	idx.metrics.RecordGet(true)
	return OwnedEntry[T]{shared: shared.Clone()}, true
}

// Contains reports whether key currently names a live entry. It is a
// thin wrapper over Get.
func (idx *Idr[T]) Contains(key Key) bool {
	guard := ebr.AcquireGuard()
	defer guard.Release()
	_, ok := idx.Get(key, guard)
	return ok
}

// getShared is the shared decode-and-read path behind Get, GetOwned,
// and Contains: decode key's page, bail out on an out-of-range or
// unallocated page, then defer to the slot's wait-free get.
func (idx *Idr[T]) getShared(key Key, guard *ebr.Guard) (*ebr.Shared[T], bool) {
	slotID := key.slotID(idx.cfg)
	pageNo, offset := pageForSlot(idx.cfg, slotID)
	if pageNo >= uint32(len(idx.pages)) {
		return nil, false
	}

	slot := idx.pages[pageNo].slotAt(offset)
	if slot == nil {
		return nil, false
	}

	shared := slot.get(idx.cfg, key, guard)
	if shared == nil {
		return nil, false
	}
	return shared, true
}

// Seq is the finite, non-restartable sequence Iter returns over every
// currently occupied entry, tied to guard's lifetime. It
// matches the shape of iter.Seq2[Key, BorrowedEntry[T]] so callers can use
// slices.Collect-style consumption without this package depending on
// the iter package.
type Seq[T any] func(yield func(Key, BorrowedEntry[T]) bool)

// Iter yields (key, borrowed-value) pairs for all currently occupied
// slots across every materialized page, in page-then-slot order. Entries
// inserted or removed during iteration may or may not be observed,
// depending on whether the iterator has already passed their slot.
func (idx *Idr[T]) Iter(guard *ebr.Guard) Seq[T] {
	return func(yield func(Key, BorrowedEntry[T]) bool) {
		for _, page := range idx.pages {
			cont := page.each(idx.cfg, guard, func(key Key, shared *ebr.Shared[T]) bool {
				return yield(key, BorrowedEntry[T]{guard: guard, shared: shared})
			})
			if !cont {
				return
			}
		}
	}
}
