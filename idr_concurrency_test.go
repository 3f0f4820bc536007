// idr_concurrency_test.go: concurrent stress tests covering
// at-most-one-remover-succeeds, reader liveness under concurrent
// remove, and observer completeness under concurrent insert.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package idr

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/agilira/idr/internal/ebr"
)

func TestConcurrentRemoveAtMostOneWinner(t *testing.T) {
	idx, err := New[int](DefaultConfig())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	const rounds = 200
	const racers = 8

	for round := 0; round < rounds; round++ {
		key, ok := idx.Insert(round)
		if !ok {
			t.Fatalf("Insert() failed on round %d", round)
		}

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if idx.Remove(key) {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		if wins.Load() != 1 {
			t.Fatalf("round %d: %d goroutines reported a successful Remove(), want exactly 1", round, wins.Load())
		}
	}
}

func TestConcurrentGetSeesLiveOrAbsentNeverTorn(t *testing.T) {
	idx, err := New[[2]int](DefaultConfig())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	var keys []Key
	for i := 0; i < 64; i++ {
		k, ok := idx.Insert([2]int{i, i})
		if !ok {
			t.Fatalf("Insert() #%d failed", i)
		}
		keys = append(keys, k)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				guard := ebr.AcquireGuard()
				for _, k := range keys {
					if entry, ok := idx.Get(k, guard); ok {
						v := *entry.Value()
						if v[0] != v[1] {
							t.Errorf("observed a torn value %v for key %v", v, k)
						}
					}
				}
				guard.Release()
			}
		}(i)
	}

	var removers sync.WaitGroup
	for _, k := range keys {
		removers.Add(1)
		go func(k Key) {
			defer removers.Done()
			idx.Remove(k)
		}(k)
	}
	removers.Wait()
	close(stop)
	wg.Wait()
}

func TestConcurrentInsertObservedByIterator(t *testing.T) {
	idx, err := New[int](DefaultConfig())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	const n = 500
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if _, ok := idx.Insert(v); !ok {
				t.Errorf("Insert(%d) failed", v)
			}
		}(i)
	}
	wg.Wait()

	guard := ebr.AcquireGuard()
	defer guard.Release()

	count := 0
	idx.Iter(guard)(func(k Key, entry BorrowedEntry[int]) bool {
		count++
		return true
	})

	if count != n {
		t.Fatalf("iterator observed %d entries after %d concurrent inserts completed, want %d", count, n, n)
	}
}

func TestConcurrentVacantEntryNeverDoubleAllocatesASlot(t *testing.T) {
	idx, err := New[int](Config{InitialPageSize: 32, MaxPages: 1, ReservedBits: 32})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	const workers = 16
	results := make(chan Key, workers*4)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				k, ok := idx.Insert(1)
				if !ok {
					return
				}
				results <- k
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := map[Key]bool{}
	for k := range results {
		if seen[k] {
			t.Fatalf("duplicate key %v handed out to two concurrent inserters", k)
		}
		seen[k] = true
	}
	if uint64(len(seen)) != idx.Capacity() {
		t.Fatalf("total successful inserts = %d, want exactly the table's capacity %d", len(seen), idx.Capacity())
	}
}
