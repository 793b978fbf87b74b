// Package vmm implements the page-table tree and the mapper that walks,
// installs, updates, and removes mappings across it (spec.md §4.5, §4.6).
//
// Grounded on the teacher's kernel/mem/vmm/pdt.go (PageDirectoryTable) and
// the walk()/pageTableEntry helpers referenced from map.go and translate.go,
// generalized from a hardcoded amd64 recursive-mapping scheme to an
// explicit, level-indexed walk over an arch.Description.
package vmm

import (
	"github.com/gopher-os/vmmcore/arch"
	"github.com/gopher-os/vmmcore/mem/addr"
	"github.com/gopher-os/vmmcore/mem/frame"
	"github.com/gopher-os/vmmcore/mem/pte"
)

// Table is one level of the page-table tree. Level 0 is the leaf level,
// whose entries describe mappings; level PageLevels()-1 is the root, whose
// entries point at child tables.
type Table struct {
	d arch.Description

	// baseVirt is the start of the virtual range this node describes.
	baseVirt addr.Virt
	// phys is this node's own physical location.
	phys addr.Phys
	// level is 0 at the leaf level and PageLevels()-1 at the root.
	level uint
}

// NewTable wraps the table node physically located at phys, describing the
// virtual range starting at baseVirt, at the given level.
func NewTable(d arch.Description, baseVirt addr.Virt, phys addr.Phys, level uint) *Table {
	return &Table{d: d, baseVirt: baseVirt, phys: phys, level: level}
}

// Phys returns this node's own physical location.
func (t *Table) Phys() addr.Phys { return t.phys }

// Level returns this node's level (0 == leaf).
func (t *Table) Level() uint { return t.level }

// BaseVirt returns the start of the virtual range this node describes.
func (t *Table) BaseVirt() addr.Virt { return t.baseVirt }

// entryAddr returns the kernel-mapped virtual address of the i-th entry
// slot, or ok=false if phys has no kernel alias.
func (t *Table) entryAddr(i uint) (addr.Virt, bool) {
	base, ok := t.d.PhysToVirt(t.phys)
	if !ok {
		return 0, false
	}
	return addr.NewVirt(base.Data() + uint64(i)*uint64(t.d.EntrySize())), true
}

// Entry reads the i-th entry. It returns ok=false when i is out of bounds or
// the table itself has no kernel-mapped alias.
func (t *Table) Entry(i uint) (pte.Entry, bool) {
	if i >= t.d.EntryCount() {
		return 0, false
	}
	va, ok := t.entryAddr(i)
	if !ok {
		return 0, false
	}
	return pte.NewEntry(t.d.ReadWord(va)), true
}

// SetEntry writes the i-th entry. It is a no-op if i is out of bounds or the
// table has no kernel-mapped alias.
func (t *Table) SetEntry(i uint, e pte.Entry) {
	if i >= t.d.EntryCount() {
		return
	}
	va, ok := t.entryAddr(i)
	if !ok {
		return
	}
	t.d.WriteWord(va, e.Raw())
}

// EntryMapped reports whether the i-th slot holds a nonzero word. A zero
// word is treated as an empty slot: every supported architecture encodes
// "not present" compatibly with an all-zero entry.
func (t *Table) EntryMapped(i uint) (mapped bool, ok bool) {
	e, ok := t.Entry(i)
	if !ok {
		return false, false
	}
	return e.Raw() != 0, true
}

// EntryBase returns the virtual base of the subrange addressed by entry i at
// this table's level.
func (t *Table) EntryBase(i uint) addr.Virt {
	shift := t.d.PageShift() + t.level*t.d.EntryShift()
	return addr.NewVirt(t.baseVirt.Data() + uint64(i)<<shift)
}

// IndexOf extracts the level-appropriate index for v, after masking off any
// bits above this level's slice of the address. It returns ok=false if the
// computed index falls outside the table.
func (t *Table) IndexOf(v addr.Virt) (idx uint, ok bool) {
	shift := t.d.PageShift() + t.level*t.d.EntryShift()
	idx = uint((v.Data() >> shift) & t.d.EntryMask())
	return idx, idx < t.d.EntryCount()
}

// NextLevelTable builds a child Table node from the i-th entry. It returns
// ok=false if this table is already the leaf level, or the entry does not
// point at a valid present child.
func (t *Table) NextLevelTable(i uint) (*Table, bool) {
	if t.level == 0 {
		return nil, false
	}
	e, ok := t.Entry(i)
	if !ok || !e.Present(t.d) {
		return nil, false
	}
	childPhys, ok := e.Address(t.d)
	if !ok {
		return nil, false
	}
	return NewTable(t.d, t.EntryBase(i), childPhys, t.level-1), true
}

// frameOf is a small helper used by the mapper to convert this table's own
// physical location into a frame.Phys, e.g. when returning it to an
// allocator.
func (t *Table) frameOf() frame.Phys {
	return frame.PhysFromAddress(t.phys, t.d.PageShift())
}
