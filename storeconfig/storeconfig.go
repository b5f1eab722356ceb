// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

// Package storeconfig loads YAML configuration for the kvctl and
// kvbrowse command-line tools. It is deliberately separate from the
// store package: the store's own constructor takes a store.Config
// struct directly and knows nothing about files, flags, or environment
// variables, matching this system's "no environment variables, no CLI"
// stance for the core library itself. storeconfig exists only for the
// ambient tooling layered outside that core.
//
// Following this lineage's configuration philosophy, there is no
// automatic discovery and no environment-variable fallback: a caller
// names a single file explicitly and that file is the only source of
// truth.
package storeconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/filekv/filekv/blobcodec"
	"github.com/filekv/filekv/seal"
	"github.com/filekv/filekv/store"
)

// Config is the on-disk shape of a kvctl/kvbrowse configuration file.
type Config struct {
	// Folder is the store's data directory. Required.
	Folder string `yaml:"folder"`

	// Fsync mirrors store.Config.Fsync. Defaults to true when the key is
	// absent from the file (see StoreOptions).
	Fsync *bool `yaml:"fsync,omitempty"`

	// Compression names a blobcodec.Tag by its string form ("none",
	// "lz4", "zstd"). Empty means none.
	Compression string `yaml:"compression,omitempty"`

	// SealPublicKeyFile, if set, points to a file containing an age
	// public key (age1...) that binary and structured records are
	// encrypted to on write.
	SealPublicKeyFile string `yaml:"seal_public_key_file,omitempty"`

	// SealPrivateKeyFile, if set, points to a file containing an age
	// private key (AGE-SECRET-KEY-1...) used to decrypt on read. A store
	// opened with only SealPublicKeyFile can write but not read sealed
	// records.
	SealPrivateKeyFile string `yaml:"seal_private_key_file,omitempty"`
}

// Load reads and parses the YAML configuration file at path. There is
// no fallback path and no environment variable: the caller must name
// the file explicitly, per this lineage's "single file, no discovery"
// configuration convention.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storeconfig: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("storeconfig: parsing %s: %w", path, err)
	}
	if cfg.Folder == "" {
		return nil, fmt.Errorf("storeconfig: %s: folder is required", path)
	}
	if !filepath.IsAbs(cfg.Folder) {
		cfg.Folder = filepath.Join(filepath.Dir(path), cfg.Folder)
	}
	return &cfg, nil
}

// StoreOptions turns the loaded file into the store.Options NewStore
// expects, reading any configured seal key files.
func (c *Config) StoreOptions() (store.Options, error) {
	fsync := true
	if c.Fsync != nil {
		fsync = *c.Fsync
	}

	tag, err := blobcodec.ParseTag(c.Compression)
	if err != nil {
		return store.Options{}, fmt.Errorf("storeconfig: %w", err)
	}

	var keyPair *seal.KeyPair
	if c.SealPublicKeyFile != "" || c.SealPrivateKeyFile != "" {
		keyPair = &seal.KeyPair{}
		if c.SealPublicKeyFile != "" {
			publicKey, err := readKeyFile(c.SealPublicKeyFile)
			if err != nil {
				return store.Options{}, err
			}
			keyPair.PublicKey = publicKey
		}
		if c.SealPrivateKeyFile != "" {
			privateKey, err := readKeyFile(c.SealPrivateKeyFile)
			if err != nil {
				return store.Options{}, err
			}
			keyPair.PrivateKey = privateKey
		}
	}

	return store.Options{
		Config: &store.Config{
			Fsync:       fsync,
			Compression: tag,
			Seal:        keyPair,
		},
	}, nil
}

func readKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("storeconfig: reading key file %s: %w", path, err)
	}
	return trimTrailingNewline(string(data)), nil
}

func trimTrailingNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
