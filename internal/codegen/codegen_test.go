package codegen

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/AdaDoom3/Ada83-sub000/internal/diag"
	"github.com/AdaDoom3/Ada83-sub000/internal/parser"
	"github.com/AdaDoom3/Ada83-sub000/internal/sema"
)

// compile lexes, parses, and analyzes src, then lowers the result to an
// LLVM module. It fails the test on any parse error or reported
// diagnostic, the way a fixture helper for a working compiler should.
func compile(t *testing.T, src string) string {
	t.Helper()
	unit, err := parser.Parse("t.adb", src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	bag := diag.NewBag()
	defer bag.Stop()
	a := sema.NewAnalyzer(bag, "t.adb")
	a.Resolve(unit)
	if bag.Failed() {
		for _, d := range bag.All() {
			t.Logf("diagnostic: %s", d.String())
		}
		t.Fatalf("semantic analysis reported %d diagnostic(s)", bag.Len())
	}

	e := NewEmitter("t")
	mod, err := e.Emit(unit)
	if err != nil {
		t.Fatalf("codegen error: %v", err)
	}
	return mod.String()
}

func TestEmitLibraryProcedureSynthesizesMain(t *testing.T) {
	ir := compile(t, `procedure Hello is begin null; end Hello;`)
	if !strings.Contains(ir, "define i32 @main()") {
		t.Fatalf("expected a synthesized @main entry point, got:\n%s", ir)
	}
	if !strings.Contains(ir, "__ada_ss_init") {
		t.Fatalf("expected @main to initialize the scratch stack, got:\n%s", ir)
	}
}

func TestEmitPackageObjectElaboratesViaGlobalCtors(t *testing.T) {
	ir := compile(t, `package Counter is
  Total : Integer := 0;
end Counter;`)
	if !strings.Contains(ir, "@llvm.global_ctors") {
		t.Fatalf("expected package-level initializer registered via global_ctors, got:\n%s", ir)
	}
	if !strings.Contains(ir, "appending global") {
		t.Fatalf("expected the global_ctors array to use appending linkage, got:\n%s", ir)
	}
}

func TestEmitNestedSubprogramThreadsStaticLink(t *testing.T) {
	src := `procedure Outer is
  X : Integer := 1;
  procedure Inner is
  begin
    X := X + 1;
  end Inner;
begin
  Inner;
end Outer;`
	ir := compile(t, src)
	if !strings.Contains(ir, "__static_link") {
		t.Fatalf("expected Inner to carry a static-link parameter, got:\n%s", ir)
	}
}

func TestEmitExceptionHandlerChain(t *testing.T) {
	src := `procedure P is
begin
  null;
exception
  when Constraint_Error =>
    null;
  when others =>
    null;
end P;`
	ir := compile(t, src)
	if !strings.Contains(ir, "@setjmp") {
		t.Fatalf("expected the handler chain to use setjmp, got:\n%s", ir)
	}
	if !strings.Contains(ir, "__ex_cur") {
		t.Fatalf("expected handlers to inspect __ex_cur, got:\n%s", ir)
	}
}

func TestEmitTaskSpawnsPthread(t *testing.T) {
	src := `procedure P is
  task Worker is
  end Worker;
  task body Worker is
  begin
    null;
  end Worker;
begin
  null;
end P;`
	ir := compile(t, src)
	if !strings.Contains(ir, "@pthread_create") {
		t.Fatalf("expected task activation to spawn a pthread, got:\n%s", ir)
	}
	if !strings.Contains(ir, "__task_WORKER") {
		t.Fatalf("expected a compiled task body trampoline, got:\n%s", ir)
	}
}

func TestEmitArithmeticProcedureSnapshot(t *testing.T) {
	ir := compile(t, `procedure Add_One is
  X : Integer := 41;
begin
  X := X + 1;
end Add_One;`)
	snaps.MatchSnapshot(t, "add_one_ir", ir)
}
