// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package fsutil

import "golang.org/x/sys/unix"

// fsyncFile forces f's directory entry to stable storage via the raw
// syscall. os.File.Sync refuses directory descriptors on some
// platforms, so FsyncDir goes underneath it here, the same way the
// artifact cache's device fsync does for data files.
func fsyncFile(f fileDescriptor) error {
	return unix.Fsync(int(f.Fd()))
}
