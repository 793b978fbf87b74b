// Package arch declares the architecture witness that the page-table walker
// and mapper are parameterized over. It is the one boundary spec.md treats
// as an external collaborator: constants, flag encodings, raw memory access,
// and the TLB invalidation primitive all come from a concrete Description.
//
// The core (mem/pte, mem/vmm) only ever calls through this interface, so
// adding a new architecture means writing a new Description implementation,
// never touching the walker/mapper logic itself.
package arch

import "github.com/gopher-os/vmmcore/mem/addr"

// Memory is the raw, unchecked read/write primitive a Description uses to
// access kernel-mapped page-table memory. It is kept separate from
// Description so that hosted tests and tools can supply an mmap-backed
// implementation (see package hostmem) while a future bare-metal build can
// satisfy it with direct pointer dereferences.
type Memory interface {
	// ReadWord reads one machine word from the kernel-mapped virtual
	// address v.
	ReadWord(v addr.Virt) uint64

	// WriteWord writes one machine word to the kernel-mapped virtual
	// address v.
	WriteWord(v addr.Virt, word uint64)
}

// Description exposes everything the virtual-memory core needs to know
// about a concrete CPU architecture: page geometry, table entry flag
// encoding, and the handful of privileged operations (raw memory access,
// the active-table register, TLB invalidation) that differ per ISA.
type Description interface {
	Memory

	// PageSize is the size, in bytes, of a single leaf mapping.
	PageSize() uint64
	// PageShift is log2(PageSize()).
	PageShift() uint
	// PageLevels is the number of levels in the page-table tree, with
	// level 0 the leaf level and PageLevels()-1 the root.
	PageLevels() uint
	// EntryCount is the number of entries in one table node.
	EntryCount() uint
	// EntryShift is log2(EntryCount()); the number of virtual-address
	// bits consumed by one table level.
	EntryShift() uint
	// EntrySize is the size, in bytes, of one table entry (one machine
	// word).
	EntrySize() uint
	// EntryMask isolates the bits of a virtual address that select an
	// index within a single table level.
	EntryMask() uint64
	// AddressMask isolates the physical frame address bits within a raw
	// entry word.
	AddressMask() uint64
	// FlagsMask isolates the flag bits within a raw entry word.
	FlagsMask() uint64

	// FlagPresent is set when the entry is installed and should be
	// honored by the MMU.
	FlagPresent() uint64
	// FlagReadOnly is the negative form of the writable bit, for
	// architectures that encode write permission as a positive/negative
	// pair.
	FlagReadOnly() uint64
	// FlagReadWrite is the positive form of the writable bit.
	FlagReadWrite() uint64
	// FlagUser marks a page as accessible from user mode.
	FlagUser() uint64
	// FlagExec is the positive form of the executable bit.
	FlagExec() uint64
	// FlagNoExec is the negative form of the executable bit, for
	// architectures that encode execute permission as a positive/negative
	// pair.
	FlagNoExec() uint64
	// FlagDefaultTable is the flag combination new, non-leaf table
	// entries are created with: present, read-only, kernel, no-execute.
	FlagDefaultTable() uint64

	// PhysToVirt translates a physical address into its kernel-mapped
	// virtual alias, or ok=false if the architecture has no such mapping
	// for that address.
	PhysToVirt(p addr.Phys) (v addr.Virt, ok bool)

	// KindOf reports whether v falls in the kernel or user half of the
	// address space, per this architecture's canonical split.
	KindOf(v addr.Virt) addr.Kind

	// ActiveTable returns the physical address of the currently
	// installed root table for the given address-space kind.
	ActiveTable(kind addr.Kind) addr.Phys
	// SetActiveTable installs root as the active table for kind.
	SetActiveTable(kind addr.Kind, root addr.Phys)

	// InvalidatePage flushes any cached translation for v from the TLB.
	InvalidatePage(v addr.Virt)
	// InvalidateAll flushes the entire TLB.
	InvalidateAll()
}
