package addr

import "testing"

func TestPhysAlignment(t *testing.T) {
	specs := []struct {
		addr    Phys
		modulus uint64
		aligned bool
	}{
		{0, 4096, true},
		{4095, 4096, false},
		{4096, 4096, true},
		{8192, 4096, true},
		{8193, 4096, false},
	}

	for specIndex, spec := range specs {
		if got := spec.addr.Aligned(spec.modulus); got != spec.aligned {
			t.Errorf("[spec %d] expected Phys(%d).Aligned(%d) to return %v; got %v", specIndex, spec.addr, spec.modulus, spec.aligned, got)
		}
	}
}

func TestVirtAlignment(t *testing.T) {
	v := NewVirt(0x400000)
	if !v.Aligned(4096) {
		t.Fatal("expected 0x400000 to be page-aligned")
	}
	if v.Data() != 0x400000 {
		t.Fatalf("expected Data() to round-trip the raw word; got %x", v.Data())
	}
}

func TestRoundDownUp(t *testing.T) {
	const pageSize = 4096

	specs := []struct {
		in       uint64
		down, up uint64
	}{
		{0, 0, 0},
		{1, 0, 4096},
		{4095, 0, 4096},
		{4096, 4096, 4096},
		{4097, 4096, 8192},
	}

	for specIndex, spec := range specs {
		if got := RoundDownToPageSize(spec.in, pageSize); got != spec.down {
			t.Errorf("[spec %d] expected RoundDownToPageSize(%d) to return %d; got %d", specIndex, spec.in, spec.down, got)
		}
		if got := RoundUpToPageSize(spec.in, pageSize); got != spec.up {
			t.Errorf("[spec %d] expected RoundUpToPageSize(%d) to return %d; got %d", specIndex, spec.in, spec.up, got)
		}

		if spec.down%pageSize == 0 {
			if got := RoundUpToPageSize(spec.down, pageSize); got != spec.down {
				t.Errorf("[spec %d] expected RoundUpToPageSize(RoundDownToPageSize(x)) to be idempotent for aligned x; got %d", specIndex, got)
			}
		}
	}
}

func TestKindString(t *testing.T) {
	if KindKernel.String() != "kernel" {
		t.Fatalf("expected KindKernel.String() == kernel; got %q", KindKernel.String())
	}
	if KindUser.String() != "user" {
		t.Fatalf("expected KindUser.String() == user; got %q", KindUser.String())
	}
}
