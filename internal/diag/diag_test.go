package diag

import "testing"

func TestBagReportsAndFails(t *testing.T) {
	b := NewBag()
	defer b.Stop()

	b.Reportf(Error, "t.adb:1:1", "undeclared identifier %q", "Foo")
	b.Reportf(Warning, "t.adb:2:1", "unused variable %q", "Bar")

	if b.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", b.Len())
	}
	if !b.Failed() {
		t.Fatalf("expected Failed to be true after an Error-severity report")
	}
}

func TestBagCapsDiagnostics(t *testing.T) {
	b := NewBag()
	defer b.Stop()

	for i := 0; i < MaxDiagnostics+10; i++ {
		b.Reportf(Error, "t.adb:1:1", "error %d", i)
	}
	if b.Len() != MaxDiagnostics+1 {
		t.Fatalf("expected %d diagnostics (cap plus overflow marker), got %d", MaxDiagnostics+1, b.Len())
	}
}

func TestBagWarningsDoNotFail(t *testing.T) {
	b := NewBag()
	defer b.Stop()

	b.Reportf(Warning, "t.adb:1:1", "cosmetic issue")
	if b.Failed() {
		t.Fatalf("expected Failed to be false with only warnings")
	}
}
