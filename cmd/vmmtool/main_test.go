package main

import "testing"

func TestRunMapsRequestedPageCount(t *testing.T) {
	if err := run(4<<20, 4); err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func TestRunFailsOnUndersizedArena(t *testing.T) {
	// One page is not enough to hold both a root table and any leaf
	// mappings, so the allocator must eventually report exhaustion.
	if err := run(4096, 8); err == nil {
		t.Fatal("expected run to fail when the arena cannot satisfy every mapping")
	}
}
