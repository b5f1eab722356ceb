// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"os"
	"strings"

	"github.com/filekv/filekv/fingerprint"
)

// ListKeys lists the folder, filters names matching the canonical
// fingerprint shape (excluding B_-prefixed binary records), and for each
// such file, opens it under the per-key lock, decodes it, and collects
// the stored key. The result is an unordered snapshot: entries may
// vanish between the directory listing and the per-file open (silently
// skipped) and entries born after the listing are never reported. Binary
// keys are never included, per spec.md §9's preserved limitation.
func (s *Store) ListKeys() ([]any, error) {
	entries, err := os.ReadDir(s.folder)
	if err != nil {
		return nil, newError(KindReadError, nil, err)
	}

	var keys []any
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !fingerprint.Pattern.MatchString(name) {
			continue
		}

		fp := name
		release := s.locks.Acquire(fp)
		rec, exists, err := s.readStructuredByFingerprint(fp)
		release()
		if err != nil || !exists {
			// A vanished file between listing and open, or a decode
			// failure on one record, is not fatal to enumeration as a
			// whole: skip it and keep going, matching spec.md's
			// "eventually consistent" stance.
			continue
		}
		keys = append(keys, rec.Key)
	}
	return keys, nil
}

// readStructuredByFingerprint is readStructured without a requested key
// to collision-check against, used by enumeration where the key is
// unknown until the record is decoded.
func (s *Store) readStructuredByFingerprint(fp string) (*Record, bool, error) {
	f, err := os.Open(s.structuredPath(fp))
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	rec, err := s.decodeRecord(f)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// ListBinaryFingerprints lists the fingerprints of every binary record
// in the store. Unlike ListKeys, this returns fingerprints rather than
// original keys: a binary record carries no embedded key to recover, so
// there is nothing else to return. This is the documented extension
// hook for spec.md §9's open question "should list-keys include binary
// keys?" — the design preserves the source's limitation for ListKeys
// itself and exposes this as a separate, explicit opt-in instead.
func (s *Store) ListBinaryFingerprints() ([]string, error) {
	entries, err := os.ReadDir(s.folder)
	if err != nil {
		return nil, newError(KindReadError, nil, err)
	}

	var fps []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "B_") {
			continue
		}
		fps = append(fps, strings.TrimPrefix(name, "B_"))
	}
	return fps, nil
}
