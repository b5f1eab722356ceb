// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"io"
	"os"

	"github.com/filekv/filekv/fsutil"
)

// Exists reports whether a structured or binary record exists for key.
// It does not acquire the per-key lock: spec.md classifies exists? as
// an explicitly racy hint, cheaper than a locked read and adequate for
// callers that only need to decide whether to bother reading.
func (s *Store) Exists(key any) (bool, error) {
	fp, err := s.fingerprintOf(key)
	if err != nil {
		return false, newError(KindReadError, key, err)
	}

	if _, err := os.Stat(s.structuredPath(fp)); err == nil {
		return true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, newError(KindReadError, key, err)
	}

	if _, err := os.Stat(s.binaryPath(fp)); err == nil {
		return true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, newError(KindReadError, key, err)
	}

	return false, nil
}

// readStructured opens and decodes the structured record for fp, if one
// exists. It does not acquire the per-key lock; callers that need a
// consistent read across the file-exists check and the decode must hold
// the lock themselves.
func (s *Store) readStructured(key any, fp string) (*Record, bool, error) {
	f, err := os.Open(s.structuredPath(fp))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, newError(KindReadError, key, err)
	}
	defer f.Close()

	rec, err := s.decodeRecord(f)
	if err != nil {
		return nil, false, newError(KindReadError, key, err)
	}

	ok, err := s.sameKey(rec.Key, key)
	if err != nil {
		return nil, false, newError(KindReadError, key, err)
	}
	if !ok {
		return nil, false, newError(KindKeyCollision, key, errFingerprintCollision)
	}

	return rec, true, nil
}

var errFingerprintCollision = errors.New("store: stored key does not match requested key for this fingerprint")

// GetIn reads the value at keyPath, where keyPath is a non-empty ordered
// sequence [k, sub...]; only k is used for fingerprinting. Returns
// found=false if the record does not exist or any intermediate path
// component is absent.
func (s *Store) GetIn(keyPath []any) (value any, found bool, err error) {
	key, sub := splitKeyPath(keyPath)

	fp, err := s.fingerprintOf(key)
	if err != nil {
		return nil, false, newError(KindReadError, key, err)
	}

	rec, exists, err := s.readStructured(key, fp)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	v, found := getSub(rec.Value, sub)
	return v, found, nil
}

// UpdateIn applies f to the sub-value addressed by keyPath under the
// per-key lock, writes the result back, and returns the sub-value before
// and after the update. A nil result from f is stored as-is: unlike the
// prototype this module is descended from, update-in never treats a nil
// result as deletion. dissoc is the sole deletion path.
func (s *Store) UpdateIn(keyPath []any, f func(any) any) (oldSub, newSub any, err error) {
	key, sub := splitKeyPath(keyPath)

	fp, err := s.fingerprintOf(key)
	if err != nil {
		return nil, nil, newError(KindWriteError, key, err)
	}

	release := s.locks.Acquire(fp)
	defer release()

	rec, exists, err := s.readStructured(key, fp)
	if err != nil {
		return nil, nil, err
	}

	var oldValue any
	if exists {
		oldValue = rec.Value
	}
	oldSub, _ = getSub(oldValue, sub)

	newValue := updateSub(oldValue, sub, f)
	newSub, _ = getSub(newValue, sub)

	newRec := &Record{Key: key, Value: newValue}
	if err := fsutil.AtomicWrite(s.structuredPath(fp), s.config.Fsync, func(w io.Writer) error {
		return s.encodeRecord(w, newRec)
	}); err != nil {
		return nil, nil, newError(KindWriteError, key, err)
	}

	return oldSub, newSub, nil
}

// AssocIn is update-in with a function that ignores the old value and
// always returns v: assoc-in(path, v) == update-in(path, func(any) any { return v }).
func (s *Store) AssocIn(keyPath []any, v any) (oldSub, newSub any, err error) {
	return s.UpdateIn(keyPath, func(any) any { return v })
}

// Dissoc deletes the structured record for key, if one exists, under the
// per-key lock. No error if the key is already absent.
func (s *Store) Dissoc(key any) error {
	fp, err := s.fingerprintOf(key)
	if err != nil {
		return newError(KindWriteError, key, err)
	}

	release := s.locks.Acquire(fp)
	defer release()

	path := s.structuredPath(fp)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return newError(KindWriteError, key, err)
	}

	if s.config.Fsync {
		if err := fsutil.FsyncDir(s.folder); err != nil {
			return newError(KindWriteError, key, err)
		}
	}
	return nil
}

// splitKeyPath separates a non-empty key-path into its fingerprinting
// key and the remaining sub-path components.
func splitKeyPath(keyPath []any) (key any, sub []any) {
	if len(keyPath) == 0 {
		return nil, nil
	}
	return keyPath[0], keyPath[1:]
}
