// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec defines the pluggable serialization boundary the store
// uses to turn a (key, value) pair into a self-delimiting byte stream
// and back, plus a default implementation backed by CBOR.
package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Codec encodes and decodes values through byte streams. Implementations
// must be self-delimiting: Decode must consume exactly the bytes Encode
// produced for that value and no more, so a Codec can be used to read one
// record from a stream that may contain trailing, unrelated bytes.
//
// The store only ever calls Codec with *Record values; a Codec is free to
// use reflection, struct tags, or registered handlers to support the
// arbitrary value shapes a caller's Record.Value may hold.
type Codec interface {
	Encode(w io.Writer, v any) error
	Decode(r io.Reader, v any) error
}

// CBOR is the default Codec, backed by github.com/fxamacker/cbor/v2 with
// Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys, smallest
// integer encoding, no indefinite-length items. Equal logical values
// always produce identical bytes, which the fingerprint package relies on
// when hashing a key through the same codec.
//
// CBOR round-trips maps, slices, structs, and primitives without a schema,
// which is what lets the store accept arbitrary caller-supplied key and
// value shapes.
type CBOR struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

// NewCBOR builds a CBOR codec. handlers, if non-nil, registers additional
// tag-based encode/decode behavior for concrete types the caller wants
// handled specially; nil uses CBOR's reflection-based defaults for every
// type, which is sufficient for maps, slices, and exported struct fields.
func NewCBOR(handlers *Handlers) (*CBOR, error) {
	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	var encMode cbor.EncMode
	var err error
	if handlers != nil && handlers.tags != nil {
		encMode, err = encOptions.EncModeWithTags(handlers.tags)
	} else {
		encMode, err = encOptions.EncMode()
	}
	if err != nil {
		return nil, err
	}

	decOptions := cbor.DecOptions{
		// The CBOR default for an any-typed target is
		// map[interface{}]interface{}, since CBOR permits non-string map
		// keys. This store never produces non-string keys, and callers
		// generally want map[string]any out of a decode into any.
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}
	var decMode cbor.DecMode
	if handlers != nil && handlers.tags != nil {
		decMode, err = decOptions.DecModeWithTags(handlers.tags)
	} else {
		decMode, err = decOptions.DecMode()
	}
	if err != nil {
		return nil, err
	}

	return &CBOR{encMode: encMode, decMode: decMode}, nil
}

// MustNewCBOR is NewCBOR but panics on error. Used for the package-level
// default codec, whose construction cannot fail for a nil Handlers.
func MustNewCBOR(handlers *Handlers) *CBOR {
	c, err := NewCBOR(handlers)
	if err != nil {
		panic("codec: CBOR initialization failed: " + err.Error())
	}
	return c
}

// Default is the store's zero-configuration codec: CBOR with no
// additional type handlers registered.
var Default = MustNewCBOR(nil)

func (c *CBOR) Encode(w io.Writer, v any) error {
	return c.encMode.NewEncoder(w).Encode(v)
}

func (c *CBOR) Decode(r io.Reader, v any) error {
	return c.decMode.NewDecoder(oneByteReader{r}).Decode(v)
}

// oneByteReader hands the CBOR decoder at most one byte per Read. The
// decoder stops reading as soon as it holds one complete item, so it
// never takes bytes from r that belong to whatever follows that item.
type oneByteReader struct{ r io.Reader }

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return o.r.Read(p)
}

// Marshal encodes v to CBOR bytes using c's encoding mode. Used by the
// fingerprint package to get a canonical byte representation of a key.
func (c *CBOR) Marshal(v any) ([]byte, error) {
	return c.encMode.Marshal(v)
}

// Handlers is a registry of additional CBOR tag numbers for types that
// need encode/decode behavior beyond CBOR's reflection-based defaults.
// This is the "read-handlers"/"write-handlers" collaborator the store's
// design leaves to the caller: the core only consumes Handlers through
// NewCBOR, never inspects its contents.
type Handlers struct {
	tags cbor.TagSet
}

// NewHandlers creates an empty handler registry.
func NewHandlers() *Handlers {
	return &Handlers{tags: cbor.NewTagSet()}
}

// Register associates a CBOR tag number with a concrete Go type so values
// of that type round-trip through Encode/Decode with their type identity
// preserved, instead of decoding back as a generic map or slice.
func (h *Handlers) Register(tag uint64, contentType reflect.Type) error {
	return h.tags.Add(cbor.TagOptions{EncTag: cbor.EncTagRequired, DecTag: cbor.DecTagRequired}, contentType, tag)
}
