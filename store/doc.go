// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

// Package store is the durable, crash-consistent, file-backed
// key-value store itself: structured records and binary blobs under a
// single keyspace, fingerprinted by key, serialized through an atomic
// write protocol, and coordinated by a per-fingerprint lock table.
//
// Each core operation has a synchronous form (Exists, GetIn, UpdateIn,
// AssocIn, Dissoc, BAssoc, BGet, ListKeys) and an asynchronous form (the
// AsyncXxx family returning <-chan Result[T]) backed by a small bounded
// worker pool. ListBinaryFingerprints and BGetByFingerprint have a
// synchronous form only. The synchronous methods are the
// primary, fully specified API; the async facade is a thin convenience
// wrapper over them for callers that want to fan out many operations
// without managing their own goroutines.
package store
