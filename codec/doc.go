// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the store's serialization boundary: a small Codec
// interface plus a CBOR-backed default implementation.
//
// The store never depends on github.com/fxamacker/cbor/v2 directly. It
// does depend on the concrete *CBOR type rather than on the Codec
// interface (store.Options.Codec and fingerprint.Of both take a *CBOR),
// so a caller can choose the CBOR handlers the store uses but cannot plug
// a different Codec implementation into the store.
package codec
