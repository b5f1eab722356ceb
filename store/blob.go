// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/filekv/filekv/blobcodec"
	"github.com/filekv/filekv/fsutil"
	"github.com/filekv/filekv/seal"
)

// BAssoc streams input through the atomic write protocol into the
// binary record for key, under the per-key lock. The payload is opaque
// bytes: no codec involvement. If the store is configured with
// compression and/or sealing, those layers wrap the stream transparently
// between input and the file.
func (s *Store) BAssoc(key any, input io.Reader) error {
	fp, err := s.fingerprintOf(key)
	if err != nil {
		return newError(KindWriteError, key, err)
	}

	release := s.locks.Acquire(fp)
	defer release()

	err = fsutil.AtomicWrite(s.binaryPath(fp), s.config.Fsync, func(w io.Writer) error {
		return s.writeBlobLayers(w, input)
	})
	if err != nil {
		return newError(KindWriteError, key, err)
	}
	return nil
}

// writeBlobLayers copies input into w through the store's configured
// compression and seal layers, innermost (compression) first so that
// what gets encrypted is the already-compressed bytes.
func (s *Store) writeBlobLayers(w io.Writer, input io.Reader) error {
	out := w
	var closers []io.Closer

	if s.config.Seal != nil {
		sealedWriter, err := seal.NewWriter(out, s.config.Seal)
		if err != nil {
			return err
		}
		closers = append(closers, sealedWriter)
		out = sealedWriter
	}

	if s.config.Compression != blobcodec.None {
		compressedWriter, err := blobcodec.NewWriter(out, s.config.Compression)
		if err != nil {
			closeAll(closers)
			return err
		}
		closers = append(closers, compressedWriter)
		out = compressedWriter
	}

	if _, err := io.Copy(out, input); err != nil {
		closeAll(closers)
		return err
	}

	// Close innermost-first: compression must flush before the seal
	// layer finalizes the ciphertext that wraps it.
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			return err
		}
	}
	return nil
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i].Close()
	}
}

// BlobReader is what bget hands to the caller's locked callback: a
// readable stream over the decoded blob bytes, its total size, and an
// opaque handle to the underlying file (exposed for callers that want
// os.File-specific behavior such as ReadAt; most callers only need
// Input and Size).
type BlobReader struct {
	Input io.Reader
	Size  int64
	File  *os.File
}

// BGet reads the binary record for key and invokes cb while holding the
// per-key lock, so the underlying file cannot be rewritten underneath
// the callback. If the record does not exist, BGet returns found=false
// and does not invoke cb. BGet yields no value from the callback; an
// error returned by cb surfaces as a read-error.
func (s *Store) BGet(key any, cb func(*BlobReader) error) (found bool, err error) {
	fp, err := s.fingerprintOf(key)
	if err != nil {
		return false, newError(KindReadError, key, err)
	}
	return s.bget(key, fp, cb)
}

// BGetByFingerprint reads a binary record by its raw fingerprint rather
// than by recomputing one from a key, for tools (such as an inspector)
// that enumerated fp via ListBinaryFingerprints and never had the
// original key to begin with. This is the binary-record counterpart to
// ListBinaryFingerprints's "fingerprint, not key" extension hook.
func (s *Store) BGetByFingerprint(fp string, cb func(*BlobReader) error) (found bool, err error) {
	return s.bget(fp, fp, cb)
}

func (s *Store) bget(key any, fp string, cb func(*BlobReader) error) (found bool, err error) {
	release := s.locks.Acquire(fp)
	defer release()

	f, err := os.Open(s.binaryPath(fp))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, newError(KindReadError, key, err)
	}
	defer f.Close()

	rawSize := int64(0)
	if info, statErr := f.Stat(); statErr == nil {
		rawSize = info.Size()
	}

	plain, err := s.readBlobLayers(f)
	if err != nil {
		return false, newError(KindReadError, key, err)
	}

	size := int64(len(plain))
	if s.config.Compression == blobcodec.None && s.config.Seal == nil {
		size = rawSize
	}

	reader := &BlobReader{
		Input: bytes.NewReader(plain),
		Size:  size,
		File:  f,
	}
	if err := cb(reader); err != nil {
		return false, newError(KindReadError, key, err)
	}
	return true, nil
}

// readBlobLayers reverses writeBlobLayers: unseal first (outermost layer
// written last), then decompress, then the caller has plaintext bytes.
// The full blob is buffered in memory, matching spec.md §4.7's
// "asynchronously read the full file into memory" for bget.
func (s *Store) readBlobLayers(r io.Reader) ([]byte, error) {
	in := r

	if s.config.Seal != nil {
		sealedReader, err := seal.NewReader(in, s.config.Seal)
		if err != nil {
			return nil, err
		}
		in = sealedReader
	}

	if s.config.Compression != blobcodec.None {
		decompressedReader, err := blobcodec.NewReader(in, s.config.Compression)
		if err != nil {
			return nil, err
		}
		defer decompressedReader.Close()
		in = decompressedReader
	}

	return io.ReadAll(in)
}
