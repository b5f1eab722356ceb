// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package fsutil

// fsyncFile is never called on Windows: FsyncDir short-circuits via
// IsWindowsFamily before opening the directory. This stub exists only
// so the package builds on Windows.
func fsyncFile(f fileDescriptor) error {
	return nil
}
