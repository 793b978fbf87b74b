// Package pmm declares the contract that the virtual-memory core expects
// from a physical frame allocator backing store. The core never inspects an
// allocator's internals; it only ever calls through this interface.
//
// The contract mirrors the allocation/free pairing used by the teacher's
// kernel/mem/pmm/allocator.BitmapAllocator and kernel/mem/physical
// buddyAllocator, generalized from their package-level singletons into an
// interface so multiple allocator strategies (and a borrowed, shared
// allocator) can satisfy it.
package pmm

import "github.com/gopher-os/vmmcore/mem/frame"

// Usage reports how many frames an allocator currently has in use out of its
// total managed capacity. Free is derived, never stored, so it can never
// drift out of sync with Used and Total.
type Usage struct {
	Used  uint64
	Total uint64
}

// Free returns the number of unallocated frames.
func (u Usage) Free() uint64 { return u.Total - u.Used }

// Allocator allocates and frees physically contiguous, page-aligned frames.
//
// Every operation is unsafe in the sense spec.md §4.3 describes: the
// preconditions (that a Free call's base/count pair matches a prior
// Allocate, and that no live references into the freed frames remain) are
// not machine-checked. Implementations are free to track allocations however
// they like internally; the core treats this strictly as a black box.
type Allocator interface {
	// Allocate reserves count physically contiguous, page-aligned frames
	// and returns the base frame of the block, or ok=false if the
	// request cannot be satisfied.
	Allocate(count frame.Count) (base frame.Phys, ok bool)

	// Free returns a previously allocated block of count frames starting
	// at base. Pairing base/count with a prior Allocate call is the
	// caller's responsibility.
	Free(base frame.Phys, count frame.Count)

	// Usage reports the allocator's current utilization.
	Usage() Usage
}

// AllocateOne is a convenience wrapper around Allocate for the common
// count == 1 case.
func AllocateOne(a Allocator) (frame.Phys, bool) {
	return a.Allocate(1)
}

// FreeOne is a convenience wrapper around Free for the common count == 1
// case.
func FreeOne(a Allocator, f frame.Phys) {
	a.Free(f, 1)
}
