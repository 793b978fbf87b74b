package vmm

import (
	"testing"

	"github.com/gopher-os/vmmcore/mem/addr"
)

func TestPageFlusherFlush(t *testing.T) {
	ar := newTestArch(1)
	f := NewPageFlusher(addr.NewVirt(0x1000))

	f.Flush(ar)

	if len(ar.invalidatedPages) != 1 || ar.invalidatedPages[0].Data() != 0x1000 {
		t.Fatalf("expected a single page invalidation for 0x1000; got %v", ar.invalidatedPages)
	}
}

func TestPageFlusherDoubleConsumePanics(t *testing.T) {
	ar := newTestArch(1)
	f := NewPageFlusher(addr.NewVirt(0x1000))
	f.Ignore()

	defer func() {
		if recover() == nil {
			t.Fatal("expected consuming an already-consumed Flusher to panic")
		}
	}()
	f.Flush(ar)
}

func TestTableFlusherInvalidatesAll(t *testing.T) {
	ar := newTestArch(1)
	f := NewTableFlusher()

	f.Flush(ar)

	if ar.invalidateAllCount != 1 {
		t.Fatalf("expected exactly one InvalidateAll call; got %d", ar.invalidateAllCount)
	}
}

func TestCollectorAbsorbsPageFlushers(t *testing.T) {
	ar := newTestArch(1)
	c := NewFlusherCollector()

	p1 := NewPageFlusher(addr.NewVirt(0x1000))
	p2 := NewPageFlusher(addr.NewVirt(0x2000))
	c.Absorb(p1)
	c.Absorb(p2)

	c.Flush(ar)

	if len(ar.invalidatedPages) != 0 {
		t.Fatalf("expected absorbed single-page flushers to never individually invalidate; got %v", ar.invalidatedPages)
	}
	if ar.invalidateAllCount != 1 {
		t.Fatalf("expected the collector's own flush to invalidate everything; got %d", ar.invalidateAllCount)
	}

	// Absorbed flushers must already be consumed: flushing them again
	// should panic.
	defer func() {
		if recover() == nil {
			t.Fatal("expected flushing an absorbed Flusher again to panic")
		}
	}()
	p1.Flush(ar)
}
