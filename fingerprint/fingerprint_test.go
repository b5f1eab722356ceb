// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"testing"

	"github.com/filekv/filekv/codec"
)

func TestOfIsDeterministic(t *testing.T) {
	fp1, err := Of(codec.Default, []any{"bar"})
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	fp2, err := Of(codec.Default, []any{"bar"})
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	if fp1 != fp2 {
		t.Errorf("fingerprints differ for equal keys: %s != %s", fp1, fp2)
	}
}

func TestOfMatchesPattern(t *testing.T) {
	fp, err := Of(codec.Default, map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	if !Pattern.MatchString(fp) {
		t.Errorf("fingerprint %q does not match the canonical pattern", fp)
	}
}

func TestOfDiffersForDifferentKeys(t *testing.T) {
	fp1, err := Of(codec.Default, "bar")
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	fp2, err := Of(codec.Default, "baz")
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	if fp1 == fp2 {
		t.Errorf("different keys produced the same fingerprint: %s", fp1)
	}
}

func TestOfStableAcrossEquivalentMapRepresentations(t *testing.T) {
	// CBOR's Core Deterministic Encoding sorts map keys, so two maps
	// built in different insertion order must fingerprint identically.
	a := map[string]any{"bar": 1, "foo": 2}
	b := map[string]any{"foo": 2, "bar": 1}

	fpA, err := Of(codec.Default, a)
	if err != nil {
		t.Fatalf("Of(a): %v", err)
	}
	fpB, err := Of(codec.Default, b)
	if err != nil {
		t.Fatalf("Of(b): %v", err)
	}
	if fpA != fpB {
		t.Errorf("map insertion order affected fingerprint: %s != %s", fpA, fpB)
	}
}

func TestPatternRejectsBinaryPrefix(t *testing.T) {
	if Pattern.MatchString("B_12345678-1234-1234-1234-123456789012") {
		t.Error("pattern must not match binary-record filenames")
	}
}
