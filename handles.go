// handles.go: VacantEntry, BorrowedEntry, and OwnedEntry wrappers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package idr

import (
	"runtime"

	"github.com/agilira/idr/internal/ebr"
)

// VacantEntry is a reserved-but-not-yet-populated slot. Call Insert
// to commit a value and obtain the entry's Key, or Abort to release
// the reservation back to the page's free list without ever
// publishing a value.
//
// Go has no destructors, so an abandoned VacantEntry does not
// automatically free its slot the instant it goes out of scope. A
// finalizer is registered as a safety net (so a forgotten VacantEntry
// still eventually returns its slot instead of leaking it forever),
// but callers that know they won't commit should call Abort explicitly
// rather than relying on GC timing.
type VacantEntry[T any] struct {
	idr       *Idr[T]
	page      *Page[T]
	slotIdx   uint32
	key       Key
	committed bool
}

// Key returns the Key this entry will have once committed.
func (v *VacantEntry[T]) Key() Key {
	return v.key
}

// Insert publishes value into the reserved slot and returns the
// entry's Key. Insert must be called at most once per VacantEntry.
func (v *VacantEntry[T]) Insert(value T) Key {
	if v.committed {
		panic("idr: Insert called twice on the same VacantEntry")
	}
	slot := v.page.slotAt(v.slotIdx)
	slot.init(value)
	v.committed = true
	runtime.SetFinalizer(v, nil)
	return v.key
}

// Abort releases the reservation without publishing a value, returning
// the slot to its page's free list. Calling Abort after Insert is a
// no-op.
func (v *VacantEntry[T]) Abort() {
	if v.committed {
		return
	}
	v.committed = true
	v.page.addFree(v.slotIdx)
	runtime.SetFinalizer(v, nil)
}

func vacantEntryFinalizer[T any](v *VacantEntry[T]) {
	if !v.committed {
		v.page.addFree(v.slotIdx)
	}
}

// BorrowedEntry is a guard-scoped reference to a live value, returned
// by Idr.Get and Idr.Iter. It must not be used after its
// Guard is released, and must not be shared across goroutines.
type BorrowedEntry[T any] struct {
	guard  *ebr.Guard
	shared *ebr.Shared[T]
}

// Value returns a pointer to the borrowed value. The pointer remains
// valid for the lifetime of the BorrowedEntry's Guard, even if the
// entry is concurrently removed.
func (b BorrowedEntry[T]) Value() *T {
	return b.shared.Get()
}

// Upgrade promotes this borrowed reference to an independently
// reference-counted OwnedEntry, detaching it from the Guard's
// lifetime.
func (b BorrowedEntry[T]) Upgrade() OwnedEntry[T] {
	return OwnedEntry[T]{shared: b.shared.Clone()}
}

// OwnedEntry is an independently reference-counted handle returned by
// Idr.GetOwned or BorrowedEntry.Upgrade. Unlike
// BorrowedEntry, it may be freely sent across goroutines and held
// indefinitely, including after the originating Idr goes out of scope.
//
// OwnedEntry must be released exactly once via Release when the caller
// is done with it; failing to do so delays reclamation of the
// underlying value (and, if T implements Close() error, delays that
// Close call) but cannot corrupt the Idr.
type OwnedEntry[T any] struct {
	shared *ebr.Shared[T]
}

// Value returns a pointer to the owned value. It remains valid until
// Release is called.
func (o OwnedEntry[T]) Value() *T {
	return o.shared.Get()
}

// Clone increments the reference count, producing an independent
// OwnedEntry over the same value.
func (o OwnedEntry[T]) Clone() OwnedEntry[T] {
	return OwnedEntry[T]{shared: o.shared.Clone()}
}

// Release decrements the reference count, allowing the value to be
// reclaimed once it reaches zero and no Guard remains pinned to an
// epoch old enough to have observed it.
func (o OwnedEntry[T]) Release() {
	o.shared.Release()
}
