// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

// Package fingerprint maps an arbitrary structured key to a stable
// 128-bit identifier, rendered as lowercase hex in the canonical
// 8-4-4-4-12 dashed form used for both filenames and the enumeration
// regex.
package fingerprint

import (
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/zeebo/blake3"

	"github.com/filekv/filekv/codec"
)

// keyDomain is the domain-separation key for key fingerprinting,
// following the convention of keying every BLAKE3 hash to the purpose it
// serves so that the same bytes hashed for two different reasons never
// collide.
var keyDomain = func() [32]byte {
	var k [32]byte
	copy(k[:], []byte("filekv.store.key\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"))
	return k
}()

// Pattern matches the canonical dashed-hex fingerprint shape. Enumeration
// (package store) uses this to distinguish structured record filenames
// from everything else in the store directory, including binary records
// (which carry a "B_" prefix and never match this pattern).
var Pattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Of computes the fingerprint of key using c to obtain a canonical byte
// encoding first. Two keys that are equal in the data-model sense (equal
// maps, slices, structs with equal fields — not necessarily equal by Go's
// == operator) produce the same fingerprint, because c's deterministic
// encoding mode is required to produce identical bytes for identical
// logical values.
//
// The result is not a version-4 random UUID, even though it is formatted
// like one: it is a content fingerprint of key. Do not confuse the two
// when a key-path value also happens to contain a github.com/google/uuid
// value — that is an unrelated, independently-generated identifier.
func Of(c *codec.CBOR, key any) (string, error) {
	data, err := c.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("fingerprint: encoding key: %w", err)
	}

	hasher, err := blake3.NewKeyed(keyDomain[:])
	if err != nil {
		// keyDomain is a fixed 32-byte array; NewKeyed only rejects
		// wrong-length keys, so this cannot happen.
		panic("fingerprint: blake3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	digest := hasher.Sum(nil)

	return format(digest[:16]), nil
}

// format renders a 16-byte digest as the canonical 8-4-4-4-12 dashed hex
// form. Panics if b is not exactly 16 bytes, which would indicate a bug
// in the caller rather than bad input.
func format(b []byte) string {
	if len(b) != 16 {
		panic(fmt.Sprintf("fingerprint: format requires 16 bytes, got %d", len(b)))
	}
	h := hex.EncodeToString(b)
	return fmt.Sprintf("%s-%s-%s-%s-%s", h[0:8], h[8:12], h[12:16], h[16:20], h[20:32])
}
