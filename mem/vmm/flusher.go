package vmm

import (
	"github.com/gopher-os/vmmcore/arch"
	"github.com/gopher-os/vmmcore/mem/addr"
)

// Flusher is a linear token proving that a TLB-sync decision has been made
// for a mapping change. Every mutating Mapper operation returns one; it must
// be consumed through exactly one of Flush or Ignore. Go has no move-only
// types, so the "must consume" discipline is enforced two ways: a consumed
// bool guard that panics on a second Flush/Ignore (always on), and, in
// builds tagged vmmdebug, a runtime.SetFinalizer check that flags a Flusher
// GC'd without ever being consumed at all — see leakcheck.go for why the
// finalizer half is opt-in rather than always-on.
type Flusher interface {
	// Flush invalidates the affected translation(s) and consumes the
	// token.
	Flush(d arch.Description)
	// Ignore explicitly discards the token without touching the TLB.
	Ignore()
}

// leakChecked is implemented by every concrete Flusher so trackLeak can read
// its consumed state from inside a finalizer without capturing an interior
// pointer into the Flusher itself (which would keep it permanently
// reachable and the finalizer would never run).
type leakChecked interface {
	isConsumed() bool
}

// pageFlusher is the single-page Flusher variant: it carries the virtual
// address whose translation changed.
type pageFlusher struct {
	virt     addr.Virt
	consumed bool
}

func (f *pageFlusher) isConsumed() bool { return f.consumed }

// NewPageFlusher returns a Flusher for a single changed translation at v.
func NewPageFlusher(v addr.Virt) Flusher {
	f := &pageFlusher{virt: v}
	trackLeak("page", f)
	return f
}

func (f *pageFlusher) Flush(d arch.Description) {
	if f.consumed {
		panic("vmm: Flusher consumed twice")
	}
	f.consumed = true
	d.InvalidatePage(f.virt)
}

func (f *pageFlusher) Ignore() {
	if f.consumed {
		panic("vmm: Flusher consumed twice")
	}
	f.consumed = true
}

// tableFlusher is the whole-table Flusher variant: it carries nothing and
// invalidates every cached translation.
type tableFlusher struct {
	consumed bool
}

func (f *tableFlusher) isConsumed() bool { return f.consumed }

// NewTableFlusher returns a Flusher that invalidates the entire TLB.
func NewTableFlusher() Flusher {
	f := &tableFlusher{}
	trackLeak("table", f)
	return f
}

func (f *tableFlusher) Flush(d arch.Description) {
	if f.consumed {
		panic("vmm: Flusher consumed twice")
	}
	f.consumed = true
	d.InvalidateAll()
}

func (f *tableFlusher) Ignore() {
	if f.consumed {
		panic("vmm: Flusher consumed twice")
	}
	f.consumed = true
}

// FlusherCollector is a whole-table Flusher that absorbs single-page
// flushers: once a caller knows it will eventually flush everything, every
// individual page-flusher handed to Absorb can be silently discarded,
// because flushing all subsumes flushing one.
type FlusherCollector struct {
	tableFlusher
}

// NewFlusherCollector returns a fresh FlusherCollector.
func NewFlusherCollector() *FlusherCollector {
	c := &FlusherCollector{}
	trackLeak("collector", c)
	return c
}

// Absorb discards a single-page Flusher: its invalidation is subsumed by the
// FlusherCollector's eventual whole-table flush.
func (c *FlusherCollector) Absorb(f Flusher) {
	f.Ignore()
}
