// Package regio implements a relocatable, arena-based object graph store.
//
// A Region is one contiguous block of memory holding a typed root object and
// everything transitively reachable from it. Internal references are stored
// as byte displacements (Rel) or absolute region offsets (Off), never as
// machine addresses, so the whole block can be copied to a new base address,
// memory-mapped at whatever address the OS picks, or written to disk and
// reloaded, without rewriting a single pointer.
//
// # Construction discipline
//
// Objects are built in place inside the region: Alloc and AllocWith hand out
// zeroed, region-resident values; containers grow by allocating from the
// region that is passed to every mutating call. Nothing is ever freed
// individually; the occupation mark only grows until the region itself is
// closed. Types stored in a region must not contain Go pointers, maps,
// slices, strings, channels, or interfaces; use Rel, Off, String and the
// containers instead.
//
// # Copy discipline
//
// A Rel is only meaningful at the address it was assigned at. Copying a
// value that embeds a Rel (or storing such a value by value in a container)
// silently corrupts the reference, which is why Rel assignment is only
// reachable through SetRef and the container internals, and why container
// elements that need references use the copyable Off form. The regiocheck
// build tag enables residency assertions on every dereference.
//
// # Concurrency
//
// Operations on one region must be externally serialized. Distinct regions
// share nothing and may be used concurrently.
package regio
