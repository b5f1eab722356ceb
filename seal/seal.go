// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

// Package seal provides optional at-rest encryption for store records,
// wrapping filippo.io/age. A store configured with a seal.KeyPair
// encrypts every record it writes to its single recipient and decrypts
// every record it reads with its own private key — this package never
// handles multi-recipient fan-out, since a store has exactly one holder.
//
// Unlike this project's credential-bundle sealing, a KeyPair here holds
// its private key as a plain string rather than mmap-protected memory:
// a store's private key lives in the Config the caller already holds in
// ordinary heap memory for the lifetime of the process, so adding a
// second, differently-protected copy of the same secret gains nothing.
// Callers with stricter key-handling requirements should keep the
// private key out of process memory entirely (e.g. in an HSM) and are
// not well served by this package regardless of which Go type carries
// the key material.
package seal

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"
)

// KeyPair holds an age x25519 keypair used to seal and open store
// records.
type KeyPair struct {
	// PrivateKey is the secret key in AGE-SECRET-KEY-1... format.
	PrivateKey string
	// PublicKey is the corresponding recipient in age1... format.
	PublicKey string
}

// Generate creates a new age x25519 keypair.
func Generate() (*KeyPair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("seal: generating keypair: %w", err)
	}
	return &KeyPair{
		PrivateKey: identity.String(),
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// ParsePublicKey validates an age public key string without constructing
// a full KeyPair, for use when a store is opened in write-only mode with
// only a recipient known.
func ParsePublicKey(publicKey string) error {
	if _, err := age.ParseX25519Recipient(publicKey); err != nil {
		return fmt.Errorf("seal: invalid public key: %w", err)
	}
	return nil
}

// Encrypt seals plaintext to the keypair's own public key and returns
// the resulting ciphertext, buffered in memory. The store itself seals
// records through the streaming NewWriter instead.
func Encrypt(kp *KeyPair, plaintext []byte) ([]byte, error) {
	recipient, err := age.ParseX25519Recipient(kp.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("seal: parsing own public key: %w", err)
	}

	var ciphertext bytes.Buffer
	w, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return nil, fmt.Errorf("seal: creating encryptor: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("seal: writing plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("seal: finalizing ciphertext: %w", err)
	}
	return ciphertext.Bytes(), nil
}

// Decrypt opens ciphertext produced by Encrypt, using the keypair's own
// private key.
func Decrypt(kp *KeyPair, ciphertext []byte) ([]byte, error) {
	identity, err := age.ParseX25519Identity(kp.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("seal: parsing private key: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("seal: opening ciphertext: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("seal: reading plaintext: %w", err)
	}
	return plaintext, nil
}

// NewWriter returns a streaming encryptor over w. The store uses it for
// both structured and binary records, so what lands on disk is
// ciphertext. The caller must Close the returned writer to flush the
// final age frame.
func NewWriter(w io.Writer, kp *KeyPair) (io.WriteCloser, error) {
	recipient, err := age.ParseX25519Recipient(kp.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("seal: parsing own public key: %w", err)
	}
	enc, err := age.Encrypt(w, recipient)
	if err != nil {
		return nil, fmt.Errorf("seal: creating encryptor: %w", err)
	}
	return enc, nil
}

// NewReader returns a streaming decryptor over r, the read-side
// counterpart to NewWriter.
func NewReader(r io.Reader, kp *KeyPair) (io.Reader, error) {
	identity, err := age.ParseX25519Identity(kp.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("seal: parsing private key: %w", err)
	}
	dec, err := age.Decrypt(r, identity)
	if err != nil {
		return nil, fmt.Errorf("seal: opening ciphertext: %w", err)
	}
	return dec, nil
}
