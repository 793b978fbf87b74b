package vmm

import (
	"testing"

	"github.com/gopher-os/vmmcore/mem/addr"
	"github.com/gopher-os/vmmcore/mem/pte"
)

func TestTableIndexOf(t *testing.T) {
	ar := newTestArch(4)
	root := NewTable(ar, 0, addr.NewPhys(0), tPageLevels-1)

	// 0x400000 decomposes, for a 4-level/9-bit-per-level/4K-page tree,
	// into indices [0, 0, 2, 0] from root to leaf.
	idx, ok := root.IndexOf(addr.NewVirt(0x400000))
	if !ok || idx != 0 {
		t.Fatalf("expected root index 0; got %d, ok=%v", idx, ok)
	}

	l2, ok := root.NextLevelTable(0)
	if ok {
		t.Fatal("expected NextLevelTable on an empty entry to fail")
	}
	_ = l2
}

func TestTableEntryRoundTrip(t *testing.T) {
	ar := newTestArch(2)
	tbl := NewTable(ar, 0, addr.NewPhys(0), 0)

	if mapped, ok := tbl.EntryMapped(3); !ok || mapped {
		t.Fatalf("expected a freshly zeroed slot to report unmapped; got mapped=%v ok=%v", mapped, ok)
	}

	e := pte.NewLeaf(ar, addr.NewPhys(0x1000), pte.Flags(tFlagPresent|tFlagRW))
	tbl.SetEntry(3, e)

	got, ok := tbl.Entry(3)
	if !ok || got.Raw() != e.Raw() {
		t.Fatalf("expected entry 3 to round-trip; got %x, ok=%v", got.Raw(), ok)
	}

	if mapped, ok := tbl.EntryMapped(3); !ok || !mapped {
		t.Fatalf("expected entry 3 to report mapped after SetEntry; got mapped=%v ok=%v", mapped, ok)
	}
}

func TestTableOutOfBounds(t *testing.T) {
	ar := newTestArch(1)
	tbl := NewTable(ar, 0, addr.NewPhys(0), 0)

	if _, ok := tbl.Entry(tEntryCount); ok {
		t.Fatal("expected out-of-bounds Entry to report ok=false")
	}
	if _, ok := tbl.EntryMapped(tEntryCount); ok {
		t.Fatal("expected out-of-bounds EntryMapped to report ok=false")
	}

	idx, ok := tbl.IndexOf(addr.NewVirt(^uint64(0)))
	_ = idx
	if !ok {
		t.Fatal("expected a fully-set address to still mask down to a valid in-bounds index")
	}
}

func TestTableLeafHasNoChildren(t *testing.T) {
	ar := newTestArch(1)
	leaf := NewTable(ar, 0, addr.NewPhys(0), 0)

	if _, ok := leaf.NextLevelTable(0); ok {
		t.Fatal("expected level-0 table to never report a child")
	}
}
