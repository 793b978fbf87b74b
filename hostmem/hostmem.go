// Package hostmem provides a hosted stand-in for physical memory: a single
// anonymous mmap arena that backs both the raw arch.Memory access the page
// walker needs and the frame pool a pmm.Allocator hands out frames from.
//
// Bare-metal gopher-os has actual physical RAM and maps it 1:1 at a fixed
// kernel-space offset; this module runs as an ordinary process, so it asks
// the host kernel for one large anonymous mapping instead and treats offsets
// into that mapping as "physical" addresses. The grounding for reaching for
// golang.org/x/sys/unix here, rather than the runtime's own allocator, is
// the Mmap/Mprotect/Munmap pattern used by the reference corpus's own
// VM-memory arena (SnellerInc/sneller's vm package maps a fixed-size
// anonymous region with syscall.Mmap and treats offsets into it as
// "virtual machine" addresses); this port uses the x/sys/unix Mmap and
// Munmap calls instead of the older syscall package.
package hostmem

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/gopher-os/vmmcore/mem/addr"
)

// byteOrder is little-endian, matching amd64's native word order; a future
// big-endian Description would need its own arch.Memory implementation
// rather than reusing Arena directly.
var byteOrder = binary.LittleEndian

// Arena is one mmap-backed region of host memory, addressed as if it were
// physical RAM starting at physical address 0.
type Arena struct {
	mem []byte
}

// New reserves size bytes of anonymous, zero-filled memory and returns an
// Arena backed by it. size is rounded up to the host page size by mmap
// itself; callers that need a specific frame count should size accordingly.
func New(size uint64) (*Arena, error) {
	mem, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("hostmem: mmap %d bytes: %w", size, err)
	}
	return &Arena{mem: mem}, nil
}

// Close releases the arena's backing mapping. Using the Arena after Close is
// undefined.
func (a *Arena) Close() error {
	if a.mem == nil {
		return nil
	}
	err := unix.Munmap(a.mem)
	a.mem = nil
	return err
}

// Size returns the arena's capacity in bytes.
func (a *Arena) Size() uint64 { return uint64(len(a.mem)) }

// ReadWord implements arch.Memory by treating v's value as a byte offset
// into the arena. Since the arena is the module's stand-in for an identity
// physical/virtual mapping, callers pass the addresses PhysToVirt produces.
func (a *Arena) ReadWord(v addr.Virt) uint64 {
	off := v.Data()
	return byteOrder.Uint64(a.mem[off : off+8])
}

// WriteWord is the ReadWord counterpart.
func (a *Arena) WriteWord(v addr.Virt, word uint64) {
	off := v.Data()
	byteOrder.PutUint64(a.mem[off:off+8], word)
}

// PhysToVirt implements the identity mapping an hosted arena provides: every
// physical offset is directly addressable, so the "virtual" address used by
// ReadWord/WriteWord is numerically identical to the physical one.
func (a *Arena) PhysToVirt(p addr.Phys) (addr.Virt, bool) {
	if p.Data() >= uint64(len(a.mem)) {
		return addr.Virt(0), false
	}
	return addr.NewVirt(p.Data()), true
}

// KindOf always reports KindKernel: a single flat arena has no user/kernel
// split of its own. Callers that need the split wrap a Description's KindOf
// with their own address-space convention instead of relying on the arena.
func (a *Arena) KindOf(addr.Virt) addr.Kind { return addr.KindKernel }
