// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

// Package store implements a durable, crash-consistent, file-backed
// key-value store supporting structured values and binary blobs under a
// single keyspace, with per-key mutual exclusion and both synchronous
// and asynchronous operations.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/filekv/filekv/blobcodec"
	"github.com/filekv/filekv/codec"
	"github.com/filekv/filekv/fingerprint"
	"github.com/filekv/filekv/fsutil"
	"github.com/filekv/filekv/keylock"
	"github.com/filekv/filekv/seal"
)

// Config holds a store's configuration, assembled once at construction.
type Config struct {
	// Fsync, when true, forces data and directory entries to stable
	// storage after each mutating operation. Defaults to true.
	Fsync bool

	// Compression applies only to binary blob payloads (bassoc/bget).
	// Defaults to blobcodec.None.
	Compression blobcodec.Tag

	// Seal, when non-nil, encrypts every record (structured and binary)
	// to its own public key before it reaches the atomic write protocol,
	// and decrypts with its own private key on read. Defaults to nil
	// (disabled).
	Seal *seal.KeyPair
}

// DefaultConfig returns the recognized options' documented defaults.
func DefaultConfig() Config {
	return Config{Fsync: true, Compression: blobcodec.None, Seal: nil}
}

// Options configures NewStore. Every field has a documented default, per
// the store constructor's recognized options.
type Options struct {
	// Codec is the serializer used for structured records. Defaults to
	// codec.Default (CBOR with no additional type handlers).
	Codec *codec.CBOR
	// Config is the store's runtime configuration. A nil Config defaults
	// to DefaultConfig(); pass an explicit &Config{} to mean "all
	// defaults except fsync", etc.
	Config *Config
}

// Store is a handle bundling a folder path, codec, lock table, and
// config. Create one with NewStore; destroy one with DeleteStore.
type Store struct {
	folder string
	codec  *codec.CBOR
	locks  keylock.Table
	config Config

	dispatcher *dispatcher
}

// Record is the on-disk shape of a structured record: the caller's
// original key alongside the stored value. Storing the key lets
// enumeration recover real keys and lets fingerprint collisions be
// detected on read (see readStructured).
type Record struct {
	Key   any
	Value any
}

// NewStore ensures folder exists, probes it for writability, and returns
// a ready store. The writability probe is the sole fatal construction
// error: a misconfigured read-only directory fails fast here rather than
// surfacing as an opaque write-error on the first mutation.
func NewStore(folder string, opts Options) (*Store, error) {
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	config := DefaultConfig()
	if opts.Config != nil {
		config = *opts.Config
	}

	if err := fsutil.EnsureDir(folder); err != nil {
		return nil, newError(KindNotWritable, nil, err)
	}
	if err := fsutil.ProbeWritable(folder); err != nil {
		return nil, newError(KindNotWritable, nil, err)
	}

	s := &Store{
		folder: folder,
		codec:  opts.Codec,
		config: config,
	}
	s.dispatcher = newDispatcher(defaultWorkerCount)
	return s, nil
}

// DeleteStore unlinks every regular file in folder, unlinks folder
// itself, and best-effort fsyncs the parent directory. Destroying a
// *Store obtained from NewStore does not stop its dispatcher; callers
// that used the asynchronous facade should call Store.Close first.
func DeleteStore(folder string) error {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return fmt.Errorf("store: listing %s for deletion: %w", folder, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(folder, entry.Name())); err != nil {
			return fmt.Errorf("store: removing %s: %w", entry.Name(), err)
		}
	}
	if err := os.Remove(folder); err != nil {
		return fmt.Errorf("store: removing directory %s: %w", folder, err)
	}
	_ = fsutil.FsyncDir(filepath.Dir(folder))
	return nil
}

// Close shuts down the store's asynchronous dispatcher, waiting for
// AsyncXxx jobs already handed to a worker to finish. Synchronous methods
// remain usable after Close; an AsyncXxx call made after Close panics,
// since it sends on the dispatcher's closed job channel.
func (s *Store) Close() {
	s.dispatcher.stop()
}

// fingerprintOf computes the canonical fingerprint of key using the
// store's codec.
func (s *Store) fingerprintOf(key any) (string, error) {
	return fingerprint.Of(s.codec, key)
}

func (s *Store) structuredPath(fp string) string {
	return filepath.Join(s.folder, fp)
}

func (s *Store) binaryPath(fp string) string {
	return filepath.Join(s.folder, "B_"+fp)
}
