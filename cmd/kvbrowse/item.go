// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "fmt"

// entry is one row in the key list: either a structured key (recovered
// from the record itself) or a binary record (identified only by its
// fingerprint, since binary records carry no embedded key).
type entry struct {
	key         any
	fingerprint string
	binary      bool
}

func (e entry) Title() string {
	if e.binary {
		return fmt.Sprintf("[blob] %s", e.fingerprint)
	}
	return fmt.Sprintf("%v", e.key)
}

func (e entry) Description() string {
	if e.binary {
		return "binary record, no recoverable key"
	}
	return fmt.Sprintf("%T", e.key)
}

func (e entry) FilterValue() string {
	return e.Title()
}
