package sema

import (
	"testing"

	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
	"github.com/AdaDoom3/Ada83-sub000/internal/diag"
	"github.com/AdaDoom3/Ada83-sub000/internal/parser"
)

func mustResolve(t *testing.T, src string) (*ast.Node, *diag.Bag) {
	t.Helper()
	unit, err := parser.Parse("t.adb", src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	bag := diag.NewBag()
	defer bag.Stop()
	a := NewAnalyzer(bag, "t.adb")
	a.Resolve(unit)
	return unit, bag
}

func TestResolveObjectDeclBindsSymbol(t *testing.T) {
	unit, bag := mustResolve(t, `procedure P is
  X : Integer := 1;
begin
  X := X + 1;
end P;`)
	if bag.Failed() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	decls := unit.Child(1).Child(1)
	obj := decls.Child(0)
	nameNode := obj.Child(0).Child(0)
	if nameNode.Sym == nil {
		t.Fatalf("expected X's declaration to bind a symbol")
	}
}

func TestResolveSubprogramParamsBindSymbols(t *testing.T) {
	unit, bag := mustResolve(t, `procedure P(X : Integer; Y : Integer) is
begin
  X := Y;
end P;`)
	if bag.Failed() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	body := unit.Child(1)
	params := body.Child(0).Child(0)
	for _, p := range params.Children {
		names := p.Child(0)
		for _, nameNode := range names.Children {
			if nameNode.Sym == nil {
				t.Fatalf("expected formal parameter %v to bind a symbol", nameNode.Data)
			}
		}
	}
}

func TestResolveForLoopVariableBindsSymbol(t *testing.T) {
	unit, bag := mustResolve(t, `procedure P is
begin
  for I in 1 .. 10 loop
    null;
  end loop;
end P;`)
	if bag.Failed() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	stmts := unit.Child(1).Child(2)
	loop := stmts.Child(0)
	iter := loop.Child(0)
	varNode := iter.Child(0)
	if varNode.Sym == nil {
		t.Fatalf("expected the for-loop variable to bind a symbol")
	}
}

func TestResolveTaskEntryBindsSymbol(t *testing.T) {
	unit, bag := mustResolve(t, `task T is
  entry E(X : Integer);
end T;`)
	if bag.Failed() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	spec := unit.Child(1)
	entries := spec.Child(0)
	entry := entries.Child(0)
	if entry.Sym == nil {
		t.Fatalf("expected entry E to bind a symbol")
	}
	sym, _ := entry.Sym.(*Symbol)
	if sym == nil || sym.Kind != SymSubprogram {
		t.Fatalf("expected entry E to resolve as SymSubprogram, got %+v", sym)
	}
}

func TestResolveUndefinedIdentifierReportsDiagnostic(t *testing.T) {
	_, bag := mustResolve(t, `procedure P is
begin
  X := 1;
end P;`)
	if !bag.Failed() {
		t.Fatalf("expected an undefined-identifier diagnostic")
	}
}

func TestResolveGenericDeclarationDefersFormals(t *testing.T) {
	unit, bag := mustResolve(t, `generic
  type T is private;
procedure Swap(A, B : in out T);`)
	if bag.Failed() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	if unit.Child(1).Kind != ast.GenericDecl {
		t.Fatalf("expected a GenericDecl, got %s", unit.Child(1).Kind)
	}
}
