// page.go: a lazily allocated, power-of-two-sized array of slots
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package idr

import (
	"sync/atomic"

	"github.com/agilira/idr/internal/ebr"
)

// Page holds one power-of-two-sized, lazily allocated array of slots
// plus a lock-free Treiber-style free list over it.
type Page[T any] struct {
	startSlotID uint32
	capacity    uint32

	slots    atomic.Pointer[[]Slot[T]]
	freeHead atomic.Uint32
}

// newPage constructs page pageNo's metadata without allocating its
// slot array; pages exist vacant until first insertion demand.
func newPage[T any](r resolved, pageNo uint32) *Page[T] {
	return &Page[T]{
		startSlotID: r.pageStart(pageNo),
		capacity:    r.pageCapacity(pageNo),
	}
}

// allocate materializes the page's slot array, pre-linking every slot
// into the free list (0 -> 1 -> ... -> capacity-1 -> freeListEnd) before
// publishing the array pointer with a release store. A matching
// acquire load on the read side is guaranteed to observe fully
// initialized slots.
func (p *Page[T]) allocate() {
	arr := make([]Slot[T], p.capacity)
	for i := range arr {
		next := uint32(i) + 1
		if uint32(i) == p.capacity-1 {
			next = freeListEnd
		}
		arr[i] = initSlot[T](next)
	}
	p.freeHead.Store(0)
	p.slots.Store(&arr)
}

// slotsPtr returns the current slot array pointer, or nil if the page
// has not yet been allocated.
func (p *Page[T]) slotsPtr() *[]Slot[T] {
	return p.slots.Load()
}

// reserve pops a free slot index from the page's free list.
// Returns (0, false) if the page is vacant or full.
func (p *Page[T]) reserve() (uint32, bool) {
	arr := p.slotsPtr()
	if arr == nil {
		return 0, false
	}

	for {
		head := p.freeHead.Load()
		if head == freeListEnd {
			return 0, false
		}

		next := (*arr)[head].loadNextFree()
		if p.freeHead.CompareAndSwap(head, next) {
			return head, true
		}
	}
}

// addFree pushes index back onto the page's free list after a
// successful remove.
func (p *Page[T]) addFree(index uint32) {
	arr := p.slotsPtr()
	if arr == nil {
		panic("idr: addFree on an unallocated page")
	}

	for {
		head := p.freeHead.Load()
		(*arr)[index].setNextFree(head)
		if p.freeHead.CompareAndSwap(head, index) {
			return
		}
	}
}

// slotAt returns a pointer to the slot at intra-page offset, or nil if
// the page is unallocated or offset is out of range.
func (p *Page[T]) slotAt(offset uint32) *Slot[T] {
	arr := p.slotsPtr()
	if arr == nil || offset >= uint32(len(*arr)) {
		return nil
	}
	return &(*arr)[offset]
}

// each calls yield for every currently occupied slot on the page, in
// array order, synthesizing each entry's Key from the page's
// startSlotID plus the slot's offset and observed generation.
// Iteration stops early if yield returns false.
func (p *Page[T]) each(r resolved, guard *ebr.Guard, yield func(Key, *ebr.Shared[T]) bool) bool {
	arr := p.slotsPtr()
	if arr == nil {
		return true
	}

	for offset := range *arr {
		slot := &(*arr)[offset]
		data := slot.data.Load(guard)
		if data == nil {
			continue
		}
		generation := slot.generationValue()
		key := newKey(r, p.startSlotID+uint32(offset), generation, 0)
		if !yield(key, data) {
			return false
		}
	}
	return true
}
