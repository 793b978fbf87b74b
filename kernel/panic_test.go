package kernel

import "testing"

func TestPanicWithError(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected Panic to panic")
		}
		err, ok := r.(*Error)
		if !ok {
			t.Fatalf("expected recovered value to be *Error; got %T", r)
		}
		if err.Module != "test" || err.Message != "panic test" {
			t.Fatalf("expected the original error to propagate; got %+v", err)
		}
	}()

	Panic(&Error{Module: "test", Message: "panic test"})
}

func TestPanicWithoutError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Panic(nil) to still panic")
		}
	}()

	Panic(nil)
}

func TestPanicWithStringCause(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Panic to panic for a bare string cause")
		}
	}()

	Panic("boom")
}
