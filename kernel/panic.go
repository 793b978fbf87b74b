package kernel

import "github.com/gopher-os/vmmcore/kernel/vmmlog"

var errRuntimePanic = &Error{Module: "rt", Message: "unknown cause"}

// Panic logs the supplied error (if not nil) and then panics, aborting the
// calling goroutine. It is the target for the fatal conditions spec.md §7
// calls out as unrecoverable aborts rather than recoverable `nil` returns —
// a double-map of an already-present leaf entry, most notably.
//
// The teacher's Panic halts the CPU after writing to the console, because a
// bare-metal kernel has nothing left to hand control back to; this hosted
// port panics instead, since the caller is an ordinary goroutine a test or
// a surrounding program can recover.
func Panic(e interface{}) {
	var err *Error

	switch t := e.(type) {
	case *Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	if err != nil {
		vmmlog.Fatal(err.Module, err.Message)
		panic(err)
	}

	vmmlog.Fatal("rt", "kernel panic: system halted")
	panic("kernel panic: system halted")
}
