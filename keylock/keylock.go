// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

// Package keylock provides a per-fingerprint mutual-exclusion table that
// grows on demand. Two operations on the same fingerprint serialize;
// operations on different fingerprints proceed independently.
package keylock

import "sync"

// Table is a lazily-grown map from fingerprint to a mutex. The zero value
// is ready to use.
//
// First access for a fingerprint creates its mutex atomically via
// sync.Map.LoadOrStore; once an entry has settled, later lookups for that
// fingerprint are lock-free reads against sync.Map's internal read-only
// snapshot. Entries are never removed — bounded growth in exchange for
// O(1) lookup is an accepted trade-off for a store whose keyspace is
// expected to fit in memory as one mutex per distinct key ever touched.
type Table struct {
	entries sync.Map // fingerprint string -> *sync.Mutex
}

// Acquire blocks until the per-fingerprint lock for fp is held by the
// calling goroutine, then returns a function that releases it. The
// returned function must be called exactly once, typically via defer.
//
// Acquire does not support reentrancy: a goroutine that calls Acquire
// again for the same fingerprint before releasing the first guard will
// deadlock, matching the store's contract that lock holders never
// re-enter.
func (t *Table) Acquire(fp string) func() {
	mu := t.mutexFor(fp)
	mu.Lock()
	return mu.Unlock
}

// mutexFor returns the mutex for fp, creating it on first access.
func (t *Table) mutexFor(fp string) *sync.Mutex {
	if v, ok := t.entries.Load(fp); ok {
		return v.(*sync.Mutex)
	}
	v, _ := t.entries.LoadOrStore(fp, &sync.Mutex{})
	return v.(*sync.Mutex)
}
