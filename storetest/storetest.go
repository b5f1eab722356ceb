// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

// Package storetest provides small test helpers shared across the
// store module's test suites: a timeout-guarded receive for the
// asynchronous facade's Result[T] channels, and a unique-ID generator
// for tests that need distinguishable keys without depending on the
// wall clock.
package storetest

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/filekv/filekv/store"
)

// RequireReceive reads one store.Result[T] from ch within timeout,
// fails the test via t.Fatalf if the result carries an error, and
// returns the delivered value. Every <-chan Result[T] returned by a
// store.AsyncXxx method delivers exactly one result and is never
// closed without sending, so both a closed-without-sending channel and
// a delivered *Error are failures here rather than something the
// caller has to unwrap separately.
func RequireReceive[T any](t interface {
	Helper()
	Fatalf(format string, args ...any)
}, ch <-chan store.Result[T], timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	select {
	case r, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without sending a result: %s", formatMessage(msgAndArgs))
		}
		if r.Err != nil {
			t.Fatalf("async call returned %v: %s", r.Err, formatMessage(msgAndArgs))
		}
		return r.Value
	case <-time.After(timeout):
		t.Fatalf("timed out after %v: %s", timeout, formatMessage(msgAndArgs))
	}
	panic("unreachable")
}

func formatMessage(msgAndArgs []any) string {
	if len(msgAndArgs) == 0 {
		return "(no message)"
	}
	if len(msgAndArgs) == 1 {
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
		return fmt.Sprintf("%v", msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprintf("%v", msgAndArgs)
}

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer, for tests that need distinguishable
// keys across parallel subtests without using time.Now() as a source of
// uniqueness.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
