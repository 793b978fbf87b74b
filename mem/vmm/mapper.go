package vmm

import (
	"github.com/gopher-os/vmmcore/arch"
	"github.com/gopher-os/vmmcore/kernel"
	"github.com/gopher-os/vmmcore/kernel/vmmlog"
	"github.com/gopher-os/vmmcore/mem/addr"
	"github.com/gopher-os/vmmcore/mem/frame"
	"github.com/gopher-os/vmmcore/mem/pmm"
	"github.com/gopher-os/vmmcore/mem/pte"
)

var (
	// ErrMisaligned is returned when a virtual or physical address
	// supplied to a Mapper operation is not page-aligned.
	ErrMisaligned = &kernel.Error{Module: "vmm", Message: "address is not page-aligned"}

	// ErrOutOfMemory is returned when the backing allocator cannot
	// satisfy a frame request needed to complete a mapping.
	ErrOutOfMemory = &kernel.Error{Module: "vmm", Message: "frame allocator exhausted"}

	// ErrNotMapped is returned by Remap/Translate/Unmap when no mapping
	// exists for the requested virtual address.
	ErrNotMapped = &kernel.Error{Module: "vmm", Message: "no mapping for address"}

	// ErrNoLinearAlias is returned by MapLinearly when the architecture
	// has no kernel-mapped alias for the requested physical address.
	ErrNoLinearAlias = &kernel.Error{Module: "vmm", Message: "physical address has no linear kernel alias"}

	// errDoubleMap is the fatal condition spec.md §4.6/§7 describes: the
	// leaf slot for MapPhys's target address was already present. This
	// indicates a bookkeeping bug in the caller, not a recoverable
	// runtime condition, so it is routed through kernel.Panic rather
	// than returned as an error.
	errDoubleMap = &kernel.Error{Module: "vmm", Message: "leaf slot already mapped"}
)

// Mapper is the only entry point that mutates a page-table tree. It walks,
// installs, updates, and removes mappings, allocating intermediate nodes as
// needed via its backing allocator, and defers every TLB invalidation
// decision to the Flusher it returns.
//
// Grounded on kernel/mem/vmm/map.go's package-level Map/Unmap functions and
// kernel/mem/vmm/pdt.go's PageDirectoryTable, merged into a single receiver
// type parameterized over an arch.Description so one process can host
// mappers for more than one architecture side by side (useful for tests).
type Mapper struct {
	d     arch.Description
	kind  addr.Kind
	root  addr.Phys
	alloc pmm.Allocator
}

// NewMapper binds a Mapper to an existing address-space root. The Mapper
// owns alloc but never frees root itself: root's lifecycle is the caller's
// responsibility, matching spec.md §3's "the root is never freed by the
// Mapper itself".
func NewMapper(d arch.Description, kind addr.Kind, root addr.Phys, alloc pmm.Allocator) *Mapper {
	return &Mapper{d: d, kind: kind, root: root, alloc: alloc}
}

// Root returns the physical address of this Mapper's page-table root.
func (m *Mapper) Root() addr.Phys { return m.root }

func (m *Mapper) rootTable() *Table {
	return NewTable(m.d, 0, m.root, m.d.PageLevels()-1)
}

// zeroTable clears every entry in t. It is used immediately after a new
// intermediate table frame is allocated, since a freshly allocated frame's
// prior contents must not be interpreted as page-table entries.
func (m *Mapper) zeroTable(t *Table) {
	for i := uint(0); i < m.d.EntryCount(); i++ {
		t.SetEntry(i, pte.NewEntry(0))
	}
}

// MapPhys installs a leaf mapping from virt to phys with the given flags.
// Both addresses must be page-aligned and the leaf slot for virt must
// currently be empty.
func (m *Mapper) MapPhys(virt addr.Virt, phys addr.Phys, flags pte.Flags) (Flusher, error) {
	pageSize := m.d.PageSize()
	if !virt.Aligned(pageSize) || !phys.Aligned(pageSize) {
		vmmlog.Diagnostic("vmm", "address is not page-aligned", "virt", virt, "phys", phys, "page_size", pageSize)
		return nil, ErrMisaligned
	}

	table := m.rootTable()
	for {
		idx, ok := table.IndexOf(virt)
		if !ok {
			vmmlog.Diagnostic("vmm", "address is not page-aligned", "virt", virt, "level", table.level)
			return nil, ErrMisaligned
		}

		if table.level == 0 {
			if mapped, _ := table.EntryMapped(idx); mapped {
				kernel.Panic(errDoubleMap)
			}
			leaf := pte.NewLeaf(m.d, phys, flags.SetPresent(m.d, true))
			table.SetEntry(idx, leaf)
			return NewPageFlusher(virt), nil
		}

		mapped, _ := table.EntryMapped(idx)
		if !mapped {
			newFrame, ok := pmm.AllocateOne(m.alloc)
			if !ok {
				vmmlog.Diagnostic("vmm", "frame allocator exhausted", "virt", virt, "level", table.level)
				return nil, ErrOutOfMemory
			}

			tableFlags := pte.NewPageTableFlags(m.d).SetUser(m.d, m.kind == addr.KindUser)
			tableEntry := pte.NewLeaf(m.d, newFrame.Address(m.d.PageShift()), tableFlags)
			table.SetEntry(idx, tableEntry)
		}

		next, ok := table.NextLevelTable(idx)
		if !ok {
			vmmlog.Diagnostic("vmm", "frame allocator exhausted", "virt", virt, "level", table.level, "reason", "intermediate table frame has no linear alias")
			return nil, ErrOutOfMemory
		}
		if !mapped {
			m.zeroTable(next)
		}
		table = next
	}
}

// Map is MapPhys with a freshly allocated backing frame.
func (m *Mapper) Map(virt addr.Virt, flags pte.Flags) (Flusher, error) {
	f, ok := pmm.AllocateOne(m.alloc)
	if !ok {
		return nil, ErrOutOfMemory
	}
	return m.MapPhys(virt, f.Address(m.d.PageShift()), flags)
}

// MapLinearly computes virt = PhysToVirt(phys) and installs that mapping,
// returning the virtual address it chose.
func (m *Mapper) MapLinearly(phys addr.Phys, flags pte.Flags) (addr.Virt, Flusher, error) {
	v, ok := m.d.PhysToVirt(phys)
	if !ok {
		return 0, nil, ErrNoLinearAlias
	}
	flusher, err := m.MapPhys(v, phys, flags)
	return v, flusher, err
}

// TempSlot returns the reserved virtual address MapTemporary installs its
// mapping at: the last page of the address space, the way the teacher's
// pdt.go reserves the top PDT entry's virtual range for its own bootstrap
// mapping.
func (m *Mapper) TempSlot() addr.Virt {
	mask := m.d.PageSize() - 1
	return addr.NewVirt(^uint64(0) &^ mask)
}

// MapTemporary installs phys at this Mapper's reserved temporary slot. It
// exists for frames with no linear alias (MapLinearly's ErrNoLinearAlias) —
// most notably a freshly allocated, not-yet-active table frame that must be
// zeroed before it can be linked into any tree, mirroring the teacher's
// pdt.go Init/MapTemporary bootstrap sequence. Callers must Unmap the slot
// (via UnmapPhys(m.TempSlot(), false)) once they are done with it before
// reusing it for another frame.
func (m *Mapper) MapTemporary(phys addr.Phys, flags pte.Flags) (addr.Virt, Flusher, error) {
	v := m.TempSlot()
	flusher, err := m.MapPhys(v, phys, flags)
	if err != nil {
		return 0, nil, err
	}
	return v, flusher, nil
}

// visit descends to the leaf table node containing virt without mutating
// anything, and returns the table plus the index of the leaf slot. It is the
// shared walk behind Translate and Remap; UnmapPhys walks through unmapRec
// instead.
func (m *Mapper) visit(virt addr.Virt) (*Table, uint, bool) {
	table := m.rootTable()
	for {
		idx, ok := table.IndexOf(virt)
		if !ok {
			return nil, 0, false
		}
		if table.level == 0 {
			return table, idx, true
		}
		next, ok := table.NextLevelTable(idx)
		if !ok {
			return nil, 0, false
		}
		table = next
	}
}

// Translate walks the tree without mutation, returning the mapped physical
// address and flags for virt.
func (m *Mapper) Translate(virt addr.Virt) (addr.Phys, pte.Flags, error) {
	table, idx, ok := m.visit(virt)
	if !ok {
		return 0, 0, ErrNotMapped
	}
	e, ok := table.Entry(idx)
	if !ok || !e.Present(m.d) {
		return 0, 0, ErrNotMapped
	}
	p, _ := e.Address(m.d)
	return p, e.Flags(m.d), nil
}

// Remap replaces the flags of the existing leaf mapping for virt, preserving
// its physical address exactly.
func (m *Mapper) Remap(virt addr.Virt, flags pte.Flags) (Flusher, error) {
	table, idx, ok := m.visit(virt)
	if !ok {
		return nil, ErrNotMapped
	}
	e, ok := table.Entry(idx)
	if !ok || !e.Present(m.d) {
		return nil, ErrNotMapped
	}
	p, _ := e.Address(m.d)
	table.SetEntry(idx, pte.NewLeaf(m.d, p, flags.SetPresent(m.d, true)))
	return NewPageFlusher(virt), nil
}

// unmapRec implements the recursive descent with back-propagation described
// in spec.md §4.6/§9: the "empty subtree" signal travels back up the call
// stack so that unmapParents can prune each ancestor on the way out.
func (m *Mapper) unmapRec(table *Table, virt addr.Virt, unmapParents bool) (addr.Phys, pte.Flags, bool) {
	idx, ok := table.IndexOf(virt)
	if !ok {
		return 0, 0, false
	}

	if table.level == 0 {
		e, ok := table.Entry(idx)
		if !ok || !e.Present(m.d) {
			return 0, 0, false
		}
		p, _ := e.Address(m.d)
		flags := e.Flags(m.d)
		table.SetEntry(idx, pte.NewEntry(0))
		return p, flags, true
	}

	child, ok := table.NextLevelTable(idx)
	if !ok {
		return 0, 0, false
	}

	p, flags, ok := m.unmapRec(child, virt, unmapParents)
	if !ok {
		return 0, 0, false
	}

	if unmapParents && m.subtreeEmpty(child) {
		table.SetEntry(idx, pte.NewEntry(0))
		m.alloc.Free(child.frameOf(), 1)
	}

	return p, flags, true
}

// subtreeEmpty reports whether none of t's entries are present.
func (m *Mapper) subtreeEmpty(t *Table) bool {
	for i := uint(0); i < m.d.EntryCount(); i++ {
		if mapped, ok := t.EntryMapped(i); ok && mapped {
			return false
		}
	}
	return true
}

// UnmapPhys removes a leaf mapping and returns the physical address and
// flags it carried. When unmapParents is true, any ancestor table left
// empty by the removal is itself unlinked and its frame returned to the
// allocator.
func (m *Mapper) UnmapPhys(virt addr.Virt, unmapParents bool) (addr.Phys, pte.Flags, Flusher, error) {
	p, flags, ok := m.unmapRec(m.rootTable(), virt, unmapParents)
	if !ok {
		return 0, 0, nil, ErrNotMapped
	}
	return p, flags, NewPageFlusher(virt), nil
}

// Unmap is UnmapPhys that additionally returns the leaf's physical frame to
// the allocator.
func (m *Mapper) Unmap(virt addr.Virt, unmapParents bool) (frame.Phys, pte.Flags, Flusher, error) {
	p, flags, flusher, err := m.UnmapPhys(virt, unmapParents)
	if err != nil {
		return 0, 0, nil, err
	}
	f := frame.PhysFromAddress(p, m.d.PageShift())
	m.alloc.Free(f, 1)
	return f, flags, flusher, nil
}

// MakeCurrent installs this Mapper's root into the architecture's active
// root register for its address-space kind.
func (m *Mapper) MakeCurrent() {
	m.d.SetActiveTable(m.kind, m.root)
}

// IsCurrent reports whether this Mapper's root is currently the active one
// for its address-space kind.
func (m *Mapper) IsCurrent() bool {
	return m.d.ActiveTable(m.kind) == m.root
}
