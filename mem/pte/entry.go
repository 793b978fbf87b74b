// Package pte implements the page-table entry and flags types described by
// spec.md §4.4: a single machine-word cell packing a physical frame address
// and architecture-defined flag bits, plus the functional flag manipulators
// built on top of it.
//
// Grounded on the teacher's (unexported) pageTableEntry type referenced from
// kernel/mem/vmm/map.go ("SetFrame"/"SetFlags"/"HasFlags"/"ClearFlags") and
// the flag bit layout from the deprecated duplicate tree's
// src/gopheros/kernel/mm/vmm/vmm_constants_amd64.go — the non-deprecated
// kernel/mem/vmm/ package in the retrieved corpus has no constants file of
// its own — exported and parameterized over an arch.Description instead of
// being hardcoded to amd64 package constants.
package pte

import (
	"github.com/gopher-os/vmmcore/arch"
	"github.com/gopher-os/vmmcore/mem/addr"
	"github.com/gopher-os/vmmcore/mem/frame"
)

// Entry is one page-table cell: a physical frame address plus flag bits,
// packed into a single machine word per the owning architecture's encoding.
type Entry uint64

// NewEntry constructs an Entry from its already-packed raw word.
func NewEntry(word uint64) Entry { return Entry(word) }

// Raw returns the entry's raw machine word.
func (e Entry) Raw() uint64 { return uint64(e) }

// Present reports whether the entry's presence flag bit is set.
func (e Entry) Present(d arch.Description) bool {
	return uint64(e)&d.FlagPresent() != 0
}

// Address extracts the physical frame address packed into the entry. It
// returns ok=false when the entry is not present; the address is still
// returned (masked out of the raw word) so callers can use it for
// diagnostics even on a non-present entry.
func (e Entry) Address(d arch.Description) (p addr.Phys, ok bool) {
	p = addr.NewPhys(uint64(e) & d.AddressMask())
	return p, e.Present(d)
}

// Frame is a convenience wrapper around Address that returns the packed
// address as a frame.Phys.
func (e Entry) Frame(d arch.Description) (f frame.Phys, ok bool) {
	p, ok := e.Address(d)
	return frame.PhysFromAddress(p, d.PageShift()), ok
}

// Flags extracts the flag sub-word, preserving the address field exactly.
func (e Entry) Flags(d arch.Description) Flags {
	return Flags(uint64(e) & d.FlagsMask())
}

// SetFlags returns a new Entry with its flag bits replaced by f, preserving
// the address field exactly.
func (e Entry) SetFlags(d arch.Description, f Flags) Entry {
	return Entry((uint64(e) &^ d.FlagsMask()) | (uint64(f) & d.FlagsMask()))
}

// WithAddress returns a new Entry with its address field replaced by p,
// preserving the flag bits exactly.
func (e Entry) WithAddress(d arch.Description, p addr.Phys) Entry {
	return Entry((uint64(e) &^ d.AddressMask()) | (p.Data() & d.AddressMask()))
}

// NewLeaf packs a physical frame address and a flag value into a new leaf
// entry.
func NewLeaf(d arch.Description, p addr.Phys, f Flags) Entry {
	return Entry(p.Data()&d.AddressMask() | (uint64(f) & d.FlagsMask()))
}

// Flags is the flag-bit subword of an Entry, manipulated as a whole value.
// Every mutator is functional: it consumes the receiver and returns a new
// Flags, which discourages the accidental half-updates that a pair of
// separate set/clear calls would risk on architectures that encode a
// logical permission as two physical bits (e.g. a W-bit and a read-only
// bit; an X-bit and an NX-bit).
type Flags uint64

// NewFlags wraps an already-packed flag word.
func NewFlags(word uint64) Flags { return Flags(word) }

// Raw returns the flag word.
func (f Flags) Raw() uint64 { return uint64(f) }

// updateFlags sets or clears an arbitrary bitmask, used internally by the
// logical setters below.
func updateFlags(f Flags, mask uint64, set bool) Flags {
	if set {
		return Flags(uint64(f) | mask)
	}
	return Flags(uint64(f) &^ mask)
}

// Present reports whether the presence bit is set.
func (f Flags) Present(d arch.Description) bool {
	return uint64(f)&d.FlagPresent() != 0
}

// SetPresent toggles the presence bit.
func (f Flags) SetPresent(d arch.Description, b bool) Flags {
	return updateFlags(f, d.FlagPresent(), b)
}

// User reports whether the user-accessibility bit is set.
func (f Flags) User(d arch.Description) bool {
	return uint64(f)&d.FlagUser() != 0
}

// SetUser toggles the user-accessibility bit.
func (f Flags) SetUser(d arch.Description, b bool) Flags {
	return updateFlags(f, d.FlagUser(), b)
}

// Write reports whether the page is writable. The positive (read/write) and
// negative (read-only) bits are masked together and compared against the
// positive bit alone, so the predicate degrades correctly when either half
// of the pair is unbacked (reads as 0) on a given architecture: an absent
// negative bit drops out of the mask entirely, and an absent positive bit
// makes the comparison "is the negative bit clear" instead of being
// vacuously false.
func (f Flags) Write(d arch.Description) bool {
	mask := d.FlagReadWrite() | d.FlagReadOnly()
	return uint64(f)&mask == d.FlagReadWrite()
}

// SetWrite sets the read/write bit and clears the read-only bit in one
// operation when b is true, and the reverse when b is false.
func (f Flags) SetWrite(d arch.Description, b bool) Flags {
	f = updateFlags(f, d.FlagReadWrite(), b)
	f = updateFlags(f, d.FlagReadOnly(), !b)
	return f
}

// Execute reports whether the page is executable, using the same
// masked-equality form as Write: on amd64, FlagExec is unbacked (0), so the
// mask collapses to FlagNoExec alone and the comparison reduces to "the NX
// bit is clear", which is the only executability signal amd64 actually has.
func (f Flags) Execute(d arch.Description) bool {
	mask := d.FlagExec() | d.FlagNoExec()
	return uint64(f)&mask == d.FlagExec()
}

// SetExecute manages the X/NX pair analogously to SetWrite.
func (f Flags) SetExecute(d arch.Description, b bool) Flags {
	f = updateFlags(f, d.FlagExec(), b)
	f = updateFlags(f, d.FlagNoExec(), !b)
	return f
}

// NewPageTableFlags produces the canonical flags for a non-leaf table entry:
// present, read-only, kernel, no-execute. The actual executability and
// writability of a mapping is decided when the leaf entry itself is
// installed, never inherited from the entries that merely point at
// intermediate tables.
func NewPageTableFlags(d arch.Description) Flags {
	return Flags(d.FlagDefaultTable())
}
