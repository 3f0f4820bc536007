// ebr_test.go: unit tests for the epoch-based reclamation facility
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package ebr

import (
	"sync"
	"testing"
)

func TestSharedRefcounting(t *testing.T) {
	s := NewShared(42)
	if got := *s.Get(); got != 42 {
		t.Fatalf("Get() = %d, want 42", got)
	}

	clone := s.Clone()
	if clone != s {
		t.Fatalf("Clone() must return the same cell")
	}

	s.Release()
	if got := *s.Get(); got != 42 {
		t.Fatalf("value must survive while a clone reference remains: got %d", got)
	}
	s.Release()
}

func TestAtomicSharedLoadSwapCAS(t *testing.T) {
	var a AtomicShared[string]

	g := AcquireGuard()
	defer g.Release()

	if got := a.Load(g); got != nil {
		t.Fatalf("Load() on empty AtomicShared = %v, want nil", got)
	}

	first := NewShared("one")
	old := a.Swap(first)
	if old != nil {
		t.Fatalf("Swap() on empty AtomicShared returned %v, want nil", old)
	}

	if got := a.Load(g); got != first {
		t.Fatalf("Load() = %v, want %v", got, first)
	}

	second := NewShared("two")
	if ok := a.CompareAndSwap(first, second); !ok {
		t.Fatal("CompareAndSwap with matching old value failed")
	}
	if got := a.Load(g); got != second {
		t.Fatalf("Load() after CompareAndSwap = %v, want %v", got, second)
	}

	if ok := a.CompareAndSwap(first, second); ok {
		t.Fatal("CompareAndSwap with stale old value must fail")
	}
}

type closeRecorder struct {
	closed *bool
}

func (c closeRecorder) Close() error {
	*c.closed = true
	return nil
}

func TestReleaseRunsCloseOnceQuarantineDrains(t *testing.T) {
	var closed bool
	s := NewShared(closeRecorder{closed: &closed})

	g := AcquireGuard()
	s.Release()
	if closed {
		t.Fatal("Close must not run while a guard observing the epoch is still pinned")
	}
	g.Release()

	// Advancing the epoch enough times drains the bag holding our cell.
	for i := 0; i < bags+1; i++ {
		h := AcquireGuard()
		h.Release()
	}

	if !closed {
		t.Fatal("Close must run once the retiring epoch's quarantine drains")
	}
}

func TestGuardReleaseIsIdempotent(t *testing.T) {
	g := AcquireGuard()
	g.Release()
	g.Release() // must not panic or double-decrement
}

func TestConcurrentGuardsAndRetire(t *testing.T) {
	var a AtomicShared[int]
	a.Swap(NewShared(0))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				g := AcquireGuard()
				old := a.Load(g)
				next := NewShared(n*1000 + j)
				if a.CompareAndSwap(old, next) && old != nil {
					old.Release()
				}
				g.Release()
			}
		}(i)
	}
	wg.Wait()
}
