package parser

import (
	"testing"

	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.Node {
	t.Helper()
	unit, err := Parse("t.adb", src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return unit
}

func TestParseHelloProcedure(t *testing.T) {
	src := `with Ada.Text_IO; use Ada.Text_IO;
procedure Hello is begin Put_Line("Hello, World!"); end;`

	unit := mustParse(t, src)
	if unit.Kind != ast.CompilationUnit {
		t.Fatalf("expected CompilationUnit, got %s", unit.Kind)
	}
	body := unit.Child(1)
	if body.Kind != ast.ProcBody {
		t.Fatalf("expected ProcBody, got %s", body.Kind)
	}
	if body.Child(0).Data != "Hello" {
		t.Errorf("expected procedure named Hello, got %v", body.Child(0).Data)
	}
}

func TestParsePackageSpecAndBody(t *testing.T) {
	spec := `package Stack is
  procedure Push(X : Integer);
  function Pop return Integer;
end Stack;`
	unit := mustParse(t, spec)
	pkg := unit.Child(1)
	if pkg.Kind != ast.PackageSpec || pkg.Data != "Stack" {
		t.Fatalf("expected PackageSpec Stack, got %s %v", pkg.Kind, pkg.Data)
	}

	body := `package body Stack is
  procedure Push(X : Integer) is begin null; end Push;
  function Pop return Integer is begin return 0; end Pop;
end Stack;`
	unit2 := mustParse(t, body)
	pb := unit2.Child(1)
	if pb.Kind != ast.PackageBody || pb.Data != "Stack" {
		t.Fatalf("expected PackageBody Stack, got %s %v", pb.Kind, pb.Data)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	src := `procedure P is begin X := A + B * C; end;`
	unit := mustParse(t, src)
	body := unit.Child(1)
	stmts := body.Child(2)
	assign := stmts.Child(0)
	if assign.Kind != ast.AssignStmt {
		t.Fatalf("expected AssignStmt, got %s", assign.Kind)
	}
	rhs := assign.Child(1)
	if rhs.Kind != ast.BinaryOp {
		t.Fatalf("expected top-level BinaryOp (+), got %s", rhs.Kind)
	}
	mul := rhs.Child(1)
	if mul.Kind != ast.BinaryOp {
		t.Fatalf("expected nested BinaryOp (*) on the right of +, got %s", mul.Kind)
	}
}

func TestParseExponentRightAssociative(t *testing.T) {
	src := `procedure P is begin X := A ** B ** C; end;`
	unit := mustParse(t, src)
	body := unit.Child(1)
	assign := body.Child(2).Child(0)
	top := assign.Child(1)
	if top.Kind != ast.BinaryOp {
		t.Fatalf("expected BinaryOp, got %s", top.Kind)
	}
	// Right-associative: the right child of the top ** is itself a **.
	if top.Child(1).Kind != ast.BinaryOp {
		t.Fatalf("expected ** to be right-associative, got %s on the right", top.Child(1).Kind)
	}
}

func TestParseIfElsifElse(t *testing.T) {
	src := `procedure P is begin
  if A then X := 1;
  elsif B then X := 2;
  else X := 3;
  end if;
end;`
	unit := mustParse(t, src)
	stmt := unit.Child(1).Child(2).Child(0)
	if stmt.Kind != ast.IfStmt {
		t.Fatalf("expected IfStmt, got %s", stmt.Kind)
	}
	if stmt.Data.(int) != 1 {
		t.Errorf("expected 1 elsif part recorded, got %v", stmt.Data)
	}
}

func TestParseLoopForms(t *testing.T) {
	src := `procedure P is begin
  loop null; end loop;
  while X loop null; end loop;
  for I in 1 .. 10 loop null; end loop;
end;`
	unit := mustParse(t, src)
	stmts := unit.Child(1).Child(2)
	if len(stmts.Children) != 3 {
		t.Fatalf("expected 3 loop statements, got %d", len(stmts.Children))
	}
	for i, s := range stmts.Children {
		if s.Kind != ast.LoopStmt {
			t.Errorf("statement %d: expected LoopStmt, got %s", i, s.Kind)
		}
	}
}

func TestParseAcceptDisambiguatesParamsFromIndex(t *testing.T) {
	// Formal parameter list: contains a top-level colon.
	src1 := `task body T is begin
  accept E(X : Integer) do null; end E;
end T;`
	unit1 := mustParse(t, src1)
	acc1 := unit1.Child(1).Child(1).Child(0)
	if acc1.Kind != ast.AcceptStmt {
		t.Fatalf("expected AcceptStmt, got %s", acc1.Kind)
	}
	if len(acc1.Child(0).Children) != 1 {
		t.Fatalf("expected one formal parameter, got %d", len(acc1.Child(0).Children))
	}

	// Entry family index: no colon before the closing paren.
	src2 := `task body T is begin
  accept E(I) do null; end E;
end T;`
	unit2 := mustParse(t, src2)
	acc2 := unit2.Child(1).Child(1).Child(0)
	if acc2.Kind != ast.AcceptStmt {
		t.Fatalf("expected AcceptStmt, got %s", acc2.Kind)
	}
	if len(acc2.Children) < 3 {
		t.Fatalf("expected an entry-index child distinct from the (empty) formal list, got %d children", len(acc2.Children))
	}
}

func TestParseAggregateVsParenExpr(t *testing.T) {
	src := `procedure P is begin
  X := (1 + 2);
  Y := (1, 2, 3);
  Z := (N => 1, others => 0);
end;`
	unit := mustParse(t, src)
	stmts := unit.Child(1).Child(2)

	rhsX := stmts.Child(0).Child(1)
	if rhsX.Kind != ast.BinaryOp {
		t.Fatalf("expected a plain parenthesized expression for X, got %s", rhsX.Kind)
	}

	rhsY := stmts.Child(1).Child(1)
	if rhsY.Kind != ast.Aggregate || len(rhsY.Children) != 3 {
		t.Fatalf("expected a 3-element Aggregate for Y, got %s with %d children", rhsY.Kind, len(rhsY.Children))
	}

	rhsZ := stmts.Child(2).Child(1)
	if rhsZ.Kind != ast.Aggregate || len(rhsZ.Children) != 2 {
		t.Fatalf("expected a 2-element Aggregate for Z, got %s with %d children", rhsZ.Kind, len(rhsZ.Children))
	}
}

func TestParseGenericSubprogramDeclaration(t *testing.T) {
	src := `generic
  type T is private;
  with function Less_Than(L, R : T) return Boolean;
procedure Sort(A : in out T);`
	unit := mustParse(t, src)
	decl := unit.Child(1)
	if decl.Kind != ast.GenericDecl {
		t.Fatalf("expected GenericDecl, got %s", decl.Kind)
	}
	formals := decl.Child(0)
	if len(formals.Children) != 2 {
		t.Fatalf("expected 2 generic formals, got %d", len(formals.Children))
	}
}

func TestParseSyntaxErrorIsFatal(t *testing.T) {
	_, err := Parse("t.adb", "procedure P is begin X := ; end;")
	if err == nil {
		t.Fatalf("expected a syntax error")
	}
	if _, ok := err.(*FatalError); !ok {
		t.Fatalf("expected *FatalError, got %T", err)
	}
}
