// Package frame defines whole-page-aligned frame identities for both
// physical and virtual memory, together with the half-open range iterators
// used to walk a contiguous block of frames one page at a time.
//
// Frame indices are page numbers, not byte addresses: Phys(1) names the
// second page of physical memory, starting at byte offset pageSize. This
// mirrors the teacher's pmm.Frame / vmm.Page types, generalized so the page
// size is a parameter supplied by an arch.Description rather than a build
// constant.
package frame

import (
	"math"

	"github.com/gopher-os/vmmcore/mem/addr"
)

// Count is a plain count of frames. It exists only so that a frame count can
// never be silently confused with a byte count in the allocator API.
type Count uint64

// Phys describes a physical memory page index.
type Phys uint64

// InvalidPhys is returned by allocators when they cannot satisfy a request.
const InvalidPhys = Phys(math.MaxUint64)

// Valid reports whether f is a real frame, as opposed to InvalidPhys.
func (f Phys) Valid() bool { return f != InvalidPhys }

// Address returns the physical byte address of the first byte of this frame.
func (f Phys) Address(pageShift uint) addr.Phys {
	return addr.NewPhys(uint64(f) << pageShift)
}

// Advance returns the frame n positions after f.
func (f Phys) Advance(n Count) Phys { return f + Phys(n) }

// PhysFromAddress truncates a physical address down to the frame that
// contains it.
func PhysFromAddress(a addr.Phys, pageShift uint) Phys {
	return Phys(a.Data() >> pageShift)
}

// Virt describes a virtual memory page index. It is a distinct type from
// Phys: there is no implicit conversion between the two kinds of frame.
type Virt uint64

// Address returns the virtual byte address of the first byte of this page.
func (f Virt) Address(pageShift uint) addr.Virt {
	return addr.NewVirt(uint64(f) << pageShift)
}

// Advance returns the page n positions after f.
func (f Virt) Advance(n Count) Virt { return f + Virt(n) }

// VirtFromAddress truncates a virtual address down to the page that
// contains it, rounding down for unaligned input.
func VirtFromAddress(a addr.Virt, pageShift uint) Virt {
	return Virt(a.Data() >> pageShift)
}

// PhysRange is a finite, single-pass, half-open [start, end) iterator over
// physical frames. A zero-value PhysRange is exhausted.
type PhysRange struct {
	next, end Phys
}

// IterPhysRange returns an iterator yielding every frame in [start, end) in
// ascending order. When start == end the iterator is immediately exhausted.
// Behavior is undefined if start > end.
func IterPhysRange(start, end Phys) *PhysRange {
	return &PhysRange{next: start, end: end}
}

// Next returns the next frame in the range, or (0, false) once exhausted.
func (r *PhysRange) Next() (Phys, bool) {
	if r.next >= r.end {
		return 0, false
	}
	f := r.next
	r.next++
	return f, true
}

// All adapts the iterator for Go 1.23+ range-over-func usage:
//
//	for f := range frame.IterPhysRange(start, end).All() { ... }
func (r *PhysRange) All() func(yield func(Phys) bool) {
	return func(yield func(Phys) bool) {
		for {
			f, ok := r.Next()
			if !ok {
				return
			}
			if !yield(f) {
				return
			}
		}
	}
}

// VirtRange is the Virt-typed counterpart of PhysRange.
type VirtRange struct {
	next, end Virt
}

// IterVirtRange returns an iterator yielding every page in [start, end) in
// ascending order.
func IterVirtRange(start, end Virt) *VirtRange {
	return &VirtRange{next: start, end: end}
}

// Next returns the next page in the range, or (0, false) once exhausted.
func (r *VirtRange) Next() (Virt, bool) {
	if r.next >= r.end {
		return 0, false
	}
	f := r.next
	r.next++
	return f, true
}

// All adapts the iterator for Go 1.23+ range-over-func usage.
func (r *VirtRange) All() func(yield func(Virt) bool) {
	return func(yield func(Virt) bool) {
		for {
			f, ok := r.Next()
			if !ok {
				return
			}
			if !yield(f) {
				return
			}
		}
	}
}
