// Package mmap provides thin, platform-neutral memory mapping of open files.
//
// A Mapping is a shared (MAP_SHARED / CreateFileMapping) view of a file
// descriptor. Writable mappings support synchronous write-back via Flush and
// FlushRange. The package never owns the file descriptor; the caller keeps
// the file open for the lifetime of the mapping and closes it after Close.
package mmap
