// Package amd64 is the arch.Description implementation for the 4-level,
// 4KiB-page, 512-entry-per-table tree used by the x86-64 MMU.
//
// The bit layout is grounded on the teacher's deprecated duplicate tree's
// src/gopheros/kernel/mm/vmm/vmm_constants_amd64.go (pageLevels,
// pageLevelBits, pageLevelShifts, ptePhysPageMask, FlagPresent..FlagNoExecute)
// — the current, non-deprecated kernel/mem/vmm/ package in the retrieved
// corpus has no constants file of its own, so this is the one place this
// port draws from the deprecated tree instead of treating it as superseded.
// The teacher reaches
// the actual hardware through the TLB invalidation and CR3 primitives
// declared, bodyless, in kernel/mem/vmm/tlb.go and kernel/cpu/cpu_amd64.go,
// with their bodies supplied by assembly files that never made it into the
// reference corpus retrieved for this port (the corpus is Go sources only).
// Rather than fabricate a .s file behind a Go stub — the kind of invented
// dependency this port avoids — Description takes its TLB/CR3 primitives as
// injected functions, so a real kernel build can wire real invlpg/mov-cr3
// sequences while a hosted build (this module's tests, and cmd/vmmtool)
// wires harmless accounting instead.
package amd64

import (
	"github.com/gopher-os/vmmcore/arch"
	"github.com/gopher-os/vmmcore/mem/addr"
)

const (
	pageShift  = 12
	pageSize   = 1 << pageShift
	pageLevels = 4
	entryShift = 9
	entryCount = 1 << entryShift
	entrySize  = 8

	addressMask = uint64(0x000ffffffffff000)

	// Flag bits, in the order the deprecated tree's vmm_constants_amd64.go
	// assigns them starting from FlagPresent = 1<<iota.
	flagPresent = uint64(1) << 0
	flagRW      = uint64(1) << 1
	flagUser    = uint64(1) << 2
	flagNoExec  = uint64(1) << 63

	// flagsMask covers every bit this port interprets; amd64 reserves the
	// remaining bits (accessed/dirty/global/cache-control/huge-page) for
	// hardware bookkeeping this port does not model.
	flagsMask = flagPresent | flagRW | flagUser | flagNoExec
)

// TLB bundles the privileged primitives a real x86-64 kernel reaches through
// inline assembly: invalidating a single TLB entry, and reading/writing the
// CR3 register that names the active top-level table for each address kind.
// Description calls these on every InvalidatePage/InvalidateAll/
// ActiveTable/SetActiveTable; a hosted build supplies bookkeeping
// implementations (see cmd/vmmtool's noopTLB) instead of the real
// instructions.
type TLB struct {
	InvalidatePageFn func(v addr.Virt)
	InvalidateAllFn  func()
	ActiveTableFn    func(kind addr.Kind) addr.Phys
	SetActiveTableFn func(kind addr.Kind, root addr.Phys)
}

// Description is the amd64 arch.Description. It owns no memory itself:
// reads and writes go through the embedded arch.Memory, and physical
// addresses are translated to the virtual addresses the walker dereferences
// through translate.
type Description struct {
	arch.Memory
	translate func(p addr.Phys) (addr.Virt, bool)
	kindOf    func(v addr.Virt) addr.Kind
	tlb       TLB
}

// New builds an amd64 Description. mem backs every ReadWord/WriteWord the
// page-table walker issues; translate maps a table's physical frame address
// to the virtual address the host can dereference to reach it (the
// teacher's recursive self-mapping trick, generalized to an injected
// function so non-amd64 backings — a flat host arena, for instance — can
// supply their own scheme); kindOf classifies a virtual address as kernel-
// or user-half, mirroring the canonical-address split the teacher's PDT
// recursive slot assumes; tlb supplies the CR3/invlpg primitives.
func New(mem arch.Memory, translate func(addr.Phys) (addr.Virt, bool), kindOf func(addr.Virt) addr.Kind, tlb TLB) *Description {
	return &Description{Memory: mem, translate: translate, kindOf: kindOf, tlb: tlb}
}

func (d *Description) PageSize() uint64    { return pageSize }
func (d *Description) PageShift() uint     { return pageShift }
func (d *Description) PageLevels() uint    { return pageLevels }
func (d *Description) EntryCount() uint    { return entryCount }
func (d *Description) EntryShift() uint    { return entryShift }
func (d *Description) EntrySize() uint     { return entrySize }
func (d *Description) EntryMask() uint64   { return entryCount - 1 }
func (d *Description) AddressMask() uint64 { return addressMask }
func (d *Description) FlagsMask() uint64   { return flagsMask }

func (d *Description) FlagPresent() uint64 { return flagPresent }

// FlagReadOnly has no dedicated bit on amd64: a page is read-only exactly
// when flagRW is clear, so the negative half of the composite write pair is
// the empty mask and always reads as clear.
func (d *Description) FlagReadOnly() uint64  { return 0 }
func (d *Description) FlagReadWrite() uint64 { return flagRW }
func (d *Description) FlagUser() uint64      { return flagUser }

// FlagExec is likewise unbacked: amd64 has no positive execute bit, only
// the negative NX bit below.
func (d *Description) FlagExec() uint64   { return 0 }
func (d *Description) FlagNoExec() uint64 { return flagNoExec }

// FlagDefaultTable marks an intermediate (non-leaf) entry present, writable
// and user-accessible regardless of the eventual leaf's own permissions.
// x86-64 ANDs the R/W and U/S bits across every level of the walk, so an
// intermediate entry that is merely as permissive as its narrowest expected
// leaf would silently clamp every other leaf beneath it; the teacher's own
// Map left intermediate entries at FlagPresent|FlagRW for the same reason.
// This port also sets the user bit so a kernel-only leaf further down the
// walk is the thing that actually restricts user access, not an
// accidentally-restrictive ancestor.
func (d *Description) FlagDefaultTable() uint64 {
	return flagPresent | flagRW | flagUser
}

func (d *Description) PhysToVirt(p addr.Phys) (addr.Virt, bool) { return d.translate(p) }
func (d *Description) KindOf(v addr.Virt) addr.Kind             { return d.kindOf(v) }

func (d *Description) ActiveTable(kind addr.Kind) addr.Phys {
	return d.tlb.ActiveTableFn(kind)
}

func (d *Description) SetActiveTable(kind addr.Kind, root addr.Phys) {
	d.tlb.SetActiveTableFn(kind, root)
}

func (d *Description) InvalidatePage(v addr.Virt) { d.tlb.InvalidatePageFn(v) }
func (d *Description) InvalidateAll()             { d.tlb.InvalidateAllFn() }

var _ arch.Description = (*Description)(nil)
