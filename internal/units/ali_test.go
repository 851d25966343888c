package units

import (
	"bytes"
	"testing"
)

func TestALIRoundTrip(t *testing.T) {
	iface := Interface{
		Version: "1.0",
		Unit:    "Stack",
		Withs:   []WithEntry{{Name: "Ada.Text_IO", Mtime: 1700000000}},
		Dependencies: []string{"System"},
		Exports: []Export{
			{MangledName: "_ada_Stack__Push", ReturnType: "void", ParamTypes: []string{"i64"}},
			{MangledName: "_ada_Stack__Pop", ReturnType: "i64"},
		},
		Exceptions: []string{"Constraint_Error"},
		ElabCount:  2,
	}

	var buf bytes.Buffer
	if err := WriteALI(&buf, iface); err != nil {
		t.Fatalf("WriteALI: %v", err)
	}

	got, err := ReadALI(&buf)
	if err != nil {
		t.Fatalf("ReadALI: %v", err)
	}

	if got.Unit != iface.Unit || len(got.Withs) != 1 || len(got.Exports) != 2 || len(got.Exceptions) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Exports[0].MangledName != "_ada_Stack__Push" || len(got.Exports[0].ParamTypes) != 1 {
		t.Errorf("export 0 mismatch: %+v", got.Exports[0])
	}
	if got.ElabCount != 2 {
		t.Errorf("expected elab count 2, got %d", got.ElabCount)
	}
}

func TestALIIgnoresUnknownLines(t *testing.T) {
	src := "V 1.0\nU Foo\nZ this is not a recognized record\nE 1\n"
	got, err := ReadALI(bytes.NewBufferString(src))
	if err != nil {
		t.Fatalf("ReadALI: %v", err)
	}
	if got.Unit != "Foo" || got.ElabCount != 1 {
		t.Fatalf("expected Foo/1 surviving the unknown line, got %+v", got)
	}
}
