// Package mmap maps snapshot files read-only into memory.
//
// LocalStore blobs are backed by a Mapping so that loading a snapshot
// decodes straight out of the page cache instead of copying the file
// through a read buffer first.
//
//	m, err := mmap.Open("index.vmn")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix platforms use mmap(2) and madvise(2). Windows uses
// CreateFileMapping/MapViewOfFile and ignores access hints.
//
// A Mapping may be read concurrently. Close is idempotent, but slices
// returned by Bytes must not be touched after Close returns.
package mmap
