// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bufio"
	"bytes"
	"io"

	"github.com/filekv/filekv/seal"
)

// encodeRecord writes rec to w as the codec's encoding of the pair,
// optionally wrapped in the store's seal layer. Seal wraps the writer
// before the codec, so the bytes that land on disk are ciphertext of the
// codec's output, not the other way around.
func (s *Store) encodeRecord(w io.Writer, rec *Record) error {
	if s.config.Seal == nil {
		return s.codec.Encode(w, rec)
	}

	sealedWriter, err := seal.NewWriter(w, s.config.Seal)
	if err != nil {
		return err
	}
	if err := s.codec.Encode(sealedWriter, rec); err != nil {
		sealedWriter.Close()
		return err
	}
	return sealedWriter.Close()
}

// decodeRecord reads and decodes one Record from r, reversing
// encodeRecord's optional seal layer first.
func (s *Store) decodeRecord(r io.Reader) (*Record, error) {
	if s.config.Seal != nil {
		sealedReader, err := seal.NewReader(r, s.config.Seal)
		if err != nil {
			return nil, err
		}
		r = sealedReader
	}

	// Each record file holds exactly one record, so buffering ahead is
	// harmless here and keeps the codec's small reads off the file.
	var rec Record
	if err := s.codec.Decode(bufio.NewReader(r), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// sameKey reports whether a and b encode to identical bytes under the
// store's codec — equality in the data-model sense, not Go's ==, since a
// and b may be maps or slices that are not comparable with ==.
func (s *Store) sameKey(a, b any) (bool, error) {
	encodedA, err := s.codec.Marshal(a)
	if err != nil {
		return false, err
	}
	encodedB, err := s.codec.Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(encodedA, encodedB), nil
}
