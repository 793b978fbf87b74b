// vmmtool builds a host-backed address space, installs a handful of
// mappings against it, and prints the resulting table statistics. It exists
// as a runnable demonstration of the core: everything it does is also
// exercised by the package test suites, but seeing the numbers change on a
// live allocator is a useful sanity check of its own.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gopher-os/vmmcore/arch/amd64"
	"github.com/gopher-os/vmmcore/hostmem"
	"github.com/gopher-os/vmmcore/kernel/vmmlog"
	"github.com/gopher-os/vmmcore/mem/addr"
	"github.com/gopher-os/vmmcore/mem/frame"
	"github.com/gopher-os/vmmcore/mem/pmm/bitmap"
	"github.com/gopher-os/vmmcore/mem/pte"
	"github.com/gopher-os/vmmcore/mem/vmm"
)

func main() {
	var (
		arenaMB  int
		mappings int
		verbose  bool
	)
	flag.IntVar(&arenaMB, "arena-mb", 16, "size, in MiB, of the host-backed physical arena")
	flag.IntVar(&mappings, "mappings", 8, "number of consecutive pages to map")
	flag.BoolVar(&verbose, "v", false, "enable debug-level logging")
	flag.Parse()

	if verbose {
		vmmlog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if err := run(uint64(arenaMB)<<20, mappings); err != nil {
		fmt.Fprintln(os.Stderr, "vmmtool:", err)
		os.Exit(1)
	}
}

func run(arenaSize uint64, mappings int) error {
	arena, err := hostmem.New(arenaSize)
	if err != nil {
		return fmt.Errorf("reserve arena: %w", err)
	}
	defer arena.Close()

	frameCount := arenaSize / 4096
	alloc := bitmap.New([]bitmap.Region{{Start: 0, End: frame.Phys(frameCount - 1)}})

	kindOf := func(v addr.Virt) addr.Kind {
		if v.Data()>>63 != 0 {
			return addr.KindKernel
		}
		return addr.KindUser
	}
	d := amd64.New(arena, arena.PhysToVirt, kindOf, noopTLB())

	rootFrame, ok := alloc.Allocate(1)
	if !ok {
		return fmt.Errorf("allocate root table frame: out of memory")
	}
	root := rootFrame.Address(d.PageShift())

	mapper := vmm.NewMapper(d, addr.KindKernel, root, alloc)
	zeroRoot(d, root)

	flags := pte.Flags(0).SetPresent(d, true).SetWrite(d, true)
	base := addr.NewVirt(uint64(1)<<63 | 0x0040_0000)
	for i := 0; i < mappings; i++ {
		v := addr.NewVirt(base.Data() + uint64(i)*d.PageSize())
		flusher, err := mapper.Map(v, flags)
		if err != nil {
			return fmt.Errorf("map page %d: %w", i, err)
		}
		flusher.Flush(d)
	}

	usage := alloc.Usage()
	vmmlog.Diagnostic("vmmtool", "mapped pages",
		"count", mappings,
		"frames_used", usage.Used,
		"frames_total", usage.Total,
		"frames_free", usage.Free(),
	)
	fmt.Printf("mapped %d pages: %d/%d frames in use (%d free)\n", mappings, usage.Used, usage.Total, usage.Free())
	return nil
}

func zeroRoot(d interface {
	WriteWord(v addr.Virt, w uint64)
	PhysToVirt(p addr.Phys) (addr.Virt, bool)
	PageSize() uint64
	EntryCount() uint
	EntrySize() uint
}, root addr.Phys) {
	base, ok := d.PhysToVirt(root)
	if !ok {
		return
	}
	for i := uint(0); i < d.EntryCount(); i++ {
		d.WriteWord(addr.NewVirt(base.Data()+uint64(i)*uint64(d.EntrySize())), 0)
	}
}

func noopTLB() amd64.TLB {
	active := map[addr.Kind]addr.Phys{}
	return amd64.TLB{
		InvalidatePageFn: func(addr.Virt) {},
		InvalidateAllFn:  func() {},
		ActiveTableFn:    func(kind addr.Kind) addr.Phys { return active[kind] },
		SetActiveTableFn: func(kind addr.Kind, root addr.Phys) { active[kind] = root },
	}
}
