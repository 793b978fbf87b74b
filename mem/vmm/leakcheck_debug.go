//go:build vmmdebug

package vmm

import (
	"runtime"

	"github.com/gopher-os/vmmcore/kernel/vmmlog"
)

// trackLeak installs a finalizer that catches a Flusher dropped without ever
// calling Flush or Ignore — the one failure mode the consumed-bool guard in
// flusher.go cannot see, since that guard only fires on a *second* consume.
// The finalizer receives obj itself as its argument rather than closing over
// anything derived from it, so the reference SetFinalizer needs to observe
// obj's collection is the only one that exists; capturing so much as a
// pointer to obj's own consumed field in the closure would keep obj
// reachable forever and the finalizer would never run.
func trackLeak(label string, obj leakChecked) {
	runtime.SetFinalizer(obj, func(o leakChecked) {
		if !o.isConsumed() {
			// Logged, not panicked: finalizers run on their own goroutine,
			// and a panic there is unrecoverable by the caller that leaked
			// the Flusher — it brings down the whole process, unrelated
			// work included, which is worse than the bug it would be
			// reporting. An Error-level diagnostic is the loudest signal
			// this mechanism can responsibly give.
			vmmlog.Fatal("vmm", "flusher garbage collected without Flush or Ignore", "flusher", label)
		}
	})
}
