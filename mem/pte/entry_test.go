package pte

import (
	"testing"

	"github.com/gopher-os/vmmcore/mem/addr"
)

// fakeArch is a minimal arch.Description double modeled on the amd64 layout
// (4KiB pages, W/RO and X/NX encoded as independent bit pairs) so these
// tests can exercise the composite-flag semantics without depending on a
// concrete architecture package.
type fakeArch struct{}

const (
	fPresent  = 1 << 0
	fRW       = 1 << 1
	fUser     = 1 << 2
	fReadOnly = 1 << 3
	fExec     = 1 << 4
	fNoExec   = 1 << 5
)

func (fakeArch) PageSize() uint64    { return 4096 }
func (fakeArch) PageShift() uint     { return 12 }
func (fakeArch) PageLevels() uint    { return 4 }
func (fakeArch) EntryCount() uint    { return 512 }
func (fakeArch) EntryShift() uint    { return 9 }
func (fakeArch) EntrySize() uint     { return 8 }
func (fakeArch) EntryMask() uint64   { return 0x1ff }
func (fakeArch) AddressMask() uint64 { return 0x000ffffffffff000 }
func (fakeArch) FlagsMask() uint64   { return ^uint64(0x000ffffffffff000) }

func (fakeArch) FlagPresent() uint64      { return fPresent }
func (fakeArch) FlagReadOnly() uint64     { return fReadOnly }
func (fakeArch) FlagReadWrite() uint64    { return fRW }
func (fakeArch) FlagUser() uint64         { return fUser }
func (fakeArch) FlagExec() uint64         { return fExec }
func (fakeArch) FlagNoExec() uint64       { return fNoExec }
func (fakeArch) FlagDefaultTable() uint64 { return fPresent | fReadOnly | fNoExec }

func (fakeArch) ReadWord(addr.Virt) uint64       { return 0 }
func (fakeArch) WriteWord(addr.Virt, uint64)     {}
func (fakeArch) PhysToVirt(addr.Phys) (addr.Virt, bool) { return 0, false }
func (fakeArch) KindOf(addr.Virt) addr.Kind      { return addr.KindKernel }
func (fakeArch) ActiveTable(addr.Kind) addr.Phys { return 0 }
func (fakeArch) SetActiveTable(addr.Kind, addr.Phys) {}
func (fakeArch) InvalidatePage(addr.Virt)        {}
func (fakeArch) InvalidateAll()                  {}

func TestEntryAddressPresence(t *testing.T) {
	d := fakeArch{}

	leaf := NewLeaf(d, addr.NewPhys(0x8000_0000), Flags(fPresent|fRW))
	p, ok := leaf.Address(d)
	if !ok {
		t.Fatal("expected present entry to report ok")
	}
	if p.Data() != 0x8000_0000 {
		t.Fatalf("expected address 0x8000_0000; got %s", p)
	}

	nonPresent := NewEntry(0x1234000)
	p, ok = nonPresent.Address(d)
	if ok {
		t.Fatal("expected non-present entry to report !ok")
	}
	if p.Data() != 0x1234000 {
		t.Fatalf("expected masked address to still be reported for diagnostics; got %s", p)
	}
}

func TestSetFlagsPreservesAddress(t *testing.T) {
	d := fakeArch{}
	e := NewLeaf(d, addr.NewPhys(0x9000_0000), Flags(fPresent))

	e = e.SetFlags(d, Flags(fPresent|fRW|fUser))

	p, ok := e.Address(d)
	if !ok || p.Data() != 0x9000_0000 {
		t.Fatalf("expected address to survive SetFlags; got %s, ok=%v", p, ok)
	}
	if !e.Flags(d).Write(d) {
		t.Fatal("expected entry to report writable after SetFlags")
	}
}

func TestCompositeWrite(t *testing.T) {
	d := fakeArch{}

	f := Flags(0)
	if f.Write(d) {
		t.Fatal("expected zero-value flags to not be writable")
	}

	f = f.SetWrite(d, true)
	if !f.Write(d) {
		t.Fatal("expected SetWrite(true) to report writable")
	}
	if f.Raw()&fReadOnly != 0 {
		t.Fatal("expected SetWrite(true) to clear the read-only bit")
	}

	f = f.SetWrite(d, false)
	if f.Write(d) {
		t.Fatal("expected SetWrite(false) to report non-writable")
	}
	if f.Raw()&fRW != 0 {
		t.Fatal("expected SetWrite(false) to clear the read/write bit")
	}

	// No intermediate bit combination should report writable unless both
	// conditions hold.
	bothSet := Flags(fRW | fReadOnly)
	if bothSet.Write(d) {
		t.Fatal("expected RW+RO set simultaneously to not report writable")
	}
}

func TestCompositeExecute(t *testing.T) {
	d := fakeArch{}

	f := Flags(0).SetExecute(d, true)
	if !f.Execute(d) {
		t.Fatal("expected SetExecute(true) to report executable")
	}

	f = f.SetExecute(d, false)
	if f.Execute(d) {
		t.Fatal("expected SetExecute(false) to report non-executable")
	}
	if f.Raw()&fNoExec == 0 {
		t.Fatal("expected SetExecute(false) to set the NX bit")
	}
}

func TestNewPageTableFlags(t *testing.T) {
	d := fakeArch{}
	f := NewPageTableFlags(d)

	if !f.Present(d) {
		t.Fatal("expected table flags to be present")
	}
	if f.Write(d) {
		t.Fatal("expected table flags to be read-only")
	}
	if f.Execute(d) {
		t.Fatal("expected table flags to be no-execute")
	}
	if f.User(d) {
		t.Fatal("expected table flags to default to kernel")
	}
}
