// Package mmap maps dataset files read-only into memory so vector files of
// several gigabytes can be decoded without an intermediate copy.
//
// Unix uses mmap(2) with madvise(2); Windows uses CreateFileMapping and
// MapViewOfFile, where access advice is a no-op.
package mmap
