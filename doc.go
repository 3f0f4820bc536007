// doc.go: package documentation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// Package idr provides a high-throughput, lock-free concurrent
// identifier resolver: a mapping from compact, non-zero 64-bit Key
// handles to heap-allocated values of a caller-chosen type T.
//
// An Idr is useful as an identity table for network connections, task
// handles, tracing spans, or any long-lived resource that needs a
// compact, stable, forgery-resistant handle. Workloads are expected to
// be read-dominated: Get and iteration under a caller-held Guard are
// wait-free and perform no writes.
//
// # Basic usage
//
//	table, err := idr.New[*Connection](idr.DefaultConfig())
//	if err != nil {
//	    // cfg violated a compile-time-style invariant; see IsConfigError.
//	}
//
//	key, ok := table.Insert(conn)
//	if !ok {
//	    // table is full across every page.
//	}
//
//	guard := idr.AcquireGuard()
//	if entry, ok := table.Get(key, guard); ok {
//	    use(entry.Value())
//	}
//	guard.Release()
//
//	table.Remove(key)
//
// # Concurrency
//
// All Idr methods are safe for concurrent use by any number of
// goroutines. Get and iteration under a caller-held Guard never block
// or write. Insert and VacantEntry are lock-free with bounded
// contention on a page's free list, apart from the page-allocation
// lock, taken at most once per page over the Idr's entire lifetime.
// AcquireGuard and Guard.Release take a short mutex-protected section
// in the epoch reclaimer; Contains, GetOwned, and Remove acquire and
// release a Guard internally and so pass through that section too.
//
// # Keys
//
// A Key is never zero, and a Key decoded with a stale generation (or
// one that was simply fabricated from an arbitrary integer) is
// rejected silently by every accessor — Get, Contains, and Remove treat
// an unknown or stale Key as a normal "not found" outcome, never a
// panic.
//
// # Handles
//
// VacantEntry, BorrowedEntry, and OwnedEntry mediate access to stored
// values: a VacantEntry reserves a slot before a value exists;
// BorrowedEntry ties a reference to the lifetime of an epoch Guard;
// OwnedEntry carries its own reference count and may be held or sent
// independently of any Guard or of the Idr itself.
package idr
