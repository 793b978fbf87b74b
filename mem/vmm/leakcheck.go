//go:build !vmmdebug

package vmm

// trackLeak is the default, no-op implementation: a finalizer on every
// Flusher has a real per-mapping-change cost, so only builds tagged
// vmmdebug pay for the dropped-Flusher check (see leakcheck_debug.go).
func trackLeak(label string, obj leakChecked) {}
