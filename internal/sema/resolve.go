package sema

import (
	"fmt"

	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
	"github.com/AdaDoom3/Ada83-sub000/internal/bignum"
	"github.com/AdaDoom3/Ada83-sub000/internal/diag"
	"github.com/AdaDoom3/Ada83-sub000/internal/lexer"
)

// Analyzer walks a compilation unit's tree, resolving names, assigning
// ast.Node.Type, inserting constraint checks, and folding static
// expressions (spec §4.6-§4.8). It reports problems to a diag.Bag rather
// than stopping at the first one, the way semantic passes in a real
// compiler keep going to surface as many errors as possible in one run.
type Analyzer struct {
	bag   *diag.Bag
	file  string
	root  *Scope
	depth int
}

// NewAnalyzer creates an Analyzer reporting into bag, with the
// predeclared standard scope as its outermost parent.
func NewAnalyzer(bag *diag.Bag, file string) *Analyzer {
	return &Analyzer{bag: bag, file: file, root: NewStandardScope()}
}

func (a *Analyzer) errorf(n *ast.Node, format string, args ...interface{}) {
	a.bag.Reportf(diag.Error, n.Pos(), format, args...)
}

// Resolve analyzes a CompilationUnit node, returning the scope the
// library unit's declarations were entered into.
func (a *Analyzer) Resolve(unit *ast.Node) *Scope {
	if unit == nil || unit.Kind != ast.CompilationUnit {
		return a.root
	}
	libUnit := unit.Child(1)
	scope := NewScope(a.root)
	a.resolveContextClause(unit.Child(0), scope)
	a.resolveLibraryUnit(libUnit, scope)
	return scope
}

// resolveContextClause elaborates a compilation unit's `with`/`use`
// clauses before its library item. A `with` only makes a unit available
// for separate compilation (internal/units); it is the `use` clauses
// here that actually extend visibility (spec §4.5 "find_use").
func (a *Analyzer) resolveContextClause(n *ast.Node, scope *Scope) {
	if n == nil {
		return
	}
	for _, c := range n.Children {
		if c.Kind == ast.UseClause {
			a.resolveUseClause(c, scope)
		}
	}
}

// resolveUseClause marks every declaration of each named package
// use-visible in scope. Ada qualifies library units by their full dotted
// name (Ada.Text_IO); this resolver predeclares and looks such units up
// by their last component only, the same simplification
// resolveTypeMarkOrIndication's SelectedComponent case already makes for
// cross-unit type marks.
func (a *Analyzer) resolveUseClause(n *ast.Node, scope *Scope) {
	for _, nameNode := range n.Children {
		name := lastDottedName(nameNode)
		sym := scope.Find(name)
		if sym == nil {
			a.errorf(nameNode, "undeclared identifier %q", name)
			continue
		}
		if sym.Members != nil {
			scope.Use(sym.Members)
		}
	}
}

func lastDottedName(n *ast.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind == ast.SelectedComponent {
		return lastDottedName(n.Child(1))
	}
	name, _ := n.Data.(string)
	return name
}

func (a *Analyzer) resolveLibraryUnit(n *ast.Node, scope *Scope) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.PackageSpec:
		a.resolvePackageSpec(n, scope)
	case ast.PackageBody:
		a.resolvePackageBody(n, scope)
	case ast.ProcSpec, ast.FuncSpec:
		a.resolveSubprogramSpec(n, scope)
	case ast.ProcBody, ast.FuncBody:
		a.resolveSubprogramBody(n, scope)
	case ast.GenericDecl:
		a.resolveGenericDecl(n, scope)
	case ast.GenericInstantiation:
		a.resolveGenericInstantiation(n, scope)
	case ast.TaskSpec, ast.TaskBody:
		a.resolveTask(n, scope)
	default:
		a.errorf(n, "unsupported library unit kind %s", n.Kind)
	}
}

func (a *Analyzer) resolvePackageSpec(n *ast.Node, scope *Scope) {
	name, _ := n.Data.(string)
	inner := NewScope(scope)
	sym := &Symbol{Name: name, Kind: SymPackage, Node: n, Members: inner}
	scope.AddOverload(sym)
	a.resolveDeclarativePart(n.Child(0), inner)
	if priv := n.Child(1); priv != nil {
		a.resolveDeclarativePart(priv, inner)
	}
	inner.ClearUses()
}

func (a *Analyzer) resolvePackageBody(n *ast.Node, scope *Scope) {
	inner := NewScope(scope)
	a.resolveDeclarativePart(n.Child(0), inner)
	if stmts := n.Child(1); stmts != nil {
		a.resolveStatementSequence(stmts, inner)
	}
	inner.ClearUses()
}

func (a *Analyzer) resolveTask(n *ast.Node, scope *Scope) {
	name, _ := n.Data.(string)
	sym := &Symbol{Name: name, Kind: SymTask, Node: n, Type: &TypeInfo{Name: name, Kind: TypeTask}}
	scope.AddOverload(sym)
	inner := NewScope(scope)
	for _, c := range n.Children {
		if c.Kind == ast.StmtSequence {
			a.resolveStatementSequence(c, inner)
		} else if c.Kind == ast.List {
			a.resolveDeclarativePart(c, inner)
		}
	}
	inner.ClearUses()
}

func (a *Analyzer) resolveDeclarativePart(n *ast.Node, scope *Scope) {
	if n == nil {
		return
	}
	for _, d := range n.Children {
		a.resolveDeclaration(d, scope)
	}
}

func (a *Analyzer) resolveDeclaration(n *ast.Node, scope *Scope) {
	switch n.Kind {
	case ast.ObjectDecl:
		a.resolveObjectDecl(n, scope)
	case ast.TypeDecl:
		a.resolveTypeDecl(n, scope)
	case ast.SubtypeDecl:
		a.resolveSubtypeDecl(n, scope)
	case ast.ExceptionDecl:
		a.resolveExceptionDecl(n, scope)
	case ast.ProcSpec, ast.FuncSpec:
		a.resolveSubprogramSpec(n, scope)
	case ast.ProcBody, ast.FuncBody:
		a.resolveSubprogramBody(n, scope)
	case ast.PackageSpec:
		a.resolvePackageSpec(n, scope)
	case ast.PackageBody:
		a.resolvePackageBody(n, scope)
	case ast.TaskSpec, ast.TaskBody:
		a.resolveTask(n, scope)
	case ast.GenericDecl:
		a.resolveGenericDecl(n, scope)
	case ast.GenericInstantiation:
		a.resolveGenericInstantiation(n, scope)
	case ast.RenamingDecl:
		a.resolveExpr(n.Child(len(n.Children)-1), scope)
	case ast.EntryDecl:
		a.resolveEntryDecl(n, scope)
	case ast.UseClause:
		a.resolveUseClause(n, scope)
	case ast.RepClauseDecl, ast.Pragma:
		// Representation clauses and pragmas do not introduce bindings.
	default:
		a.errorf(n, "unsupported declaration kind %s", n.Kind)
	}
}

func (a *Analyzer) resolveObjectDecl(n *ast.Node, scope *Scope) {
	names := n.Child(0)
	typNode := n.Child(1)
	typ := a.resolveTypeMarkOrIndication(typNode, scope)
	if len(n.Children) > 2 {
		a.resolveExpr(n.Child(2), scope)
	}
	for _, nameNode := range names.Children {
		sym := &Symbol{Name: nameNode.Data.(string), Kind: SymObject, Type: typ, Node: nameNode}
		scope.AddOverload(sym)
		nameNode.Sym = sym
	}
}

func (a *Analyzer) resolveExceptionDecl(n *ast.Node, scope *Scope) {
	names := n.Child(0)
	for _, nameNode := range names.Children {
		sym := &Symbol{Name: nameNode.Data.(string), Kind: SymException, Type: &TypeInfo{Name: nameNode.Data.(string), Kind: TypeException}}
		scope.AddOverload(sym)
	}
}

func (a *Analyzer) resolveTypeDecl(n *ast.Node, scope *Scope) {
	name, _ := n.Data.(string)
	def := n.Child(0)
	if def.Kind == ast.List {
		// Incomplete or private-with-discriminants forward declaration:
		// no type_definition follows `is` yet.
		scope.AddOverload(&Symbol{Name: name, Kind: SymType, Type: &TypeInfo{Name: name, Kind: TypePrivate}, Node: n})
		return
	}
	typ := a.buildTypeInfo(name, def, scope)
	sym := &Symbol{Name: name, Kind: SymType, Type: typ, Node: n}
	scope.AddOverload(sym)
	if typ.Kind == TypeEnum {
		for _, lit := range typ.Literals {
			scope.AddOverload(&Symbol{Name: lit, Kind: SymEnumLiteral, Type: typ})
		}
	}
}

func (a *Analyzer) resolveSubtypeDecl(n *ast.Node, scope *Scope) {
	name, _ := n.Data.(string)
	indication := n.Child(0)
	typ := a.resolveTypeMarkOrIndication(indication, scope)
	sub := &TypeInfo{Name: name, Kind: typ.Kind, Base: typ}
	a.applyRangeConstraint(indication, scope, sub)
	scope.AddOverload(&Symbol{Name: name, Kind: SymSubtype, Type: sub, Node: n})
}

// applyRangeConstraint populates sub's LowBound/HighBound from a
// `range lo..hi` subtype indication when both ends fold to a compile-time
// integer, so later constraint-check insertion (chk, spec §4.7) has
// concrete bounds to test an assignment's value against.
func (a *Analyzer) applyRangeConstraint(indication *ast.Node, scope *Scope, sub *TypeInfo) {
	if indication == nil || indication.Kind != ast.SubtypeIndication {
		return
	}
	kind, _ := indication.Data.(string)
	if kind != "range" || len(indication.Children) < 3 {
		return
	}
	loNode, hiNode := indication.Child(1), indication.Child(2)
	a.resolveExpr(loNode, scope)
	a.resolveExpr(hiNode, scope)
	if lo, ok := staticIntValue(loNode); ok {
		sub.LowBound = lo
	}
	if hi, ok := staticIntValue(hiNode); ok {
		sub.HighBound = hi
	}
}

// staticIntValue folds an integer literal, optionally signed, to its
// int64 value at compile time. Anything else (a non-literal expression)
// is not statically known here and returns false.
func staticIntValue(n *ast.Node) (int64, bool) {
	if n == nil {
		return 0, false
	}
	switch n.Kind {
	case ast.IntegerLiteral:
		v, ok := n.Data.(bignum.Int)
		if !ok {
			return 0, false
		}
		return v.Int64()
	case ast.UnaryOp:
		inner, ok := staticIntValue(n.Child(0))
		if !ok {
			return 0, false
		}
		if op, ok2 := n.Data.(lexer.Kind); ok2 && op == lexer.MINUS {
			return -inner, true
		}
		return inner, true
	default:
		return 0, false
	}
}

// buildTypeInfo constructs a TypeInfo for a type_definition node. Scope
// is needed to resolve type marks a definition refers to (array
// components, access designated types, derived parents).
func (a *Analyzer) buildTypeInfo(name string, def *ast.Node, scope *Scope) *TypeInfo {
	switch def.Kind {
	case ast.IntegerRangeType:
		return &TypeInfo{Name: name, Kind: TypeInteger}
	case ast.FloatType:
		return &TypeInfo{Name: name, Kind: TypeFloat}
	case ast.FixedType:
		return &TypeInfo{Name: name, Kind: TypeFixed}
	case ast.EnumerationType:
		lits := make([]string, 0, len(def.Children))
		for _, c := range def.Children {
			if s, ok := c.Data.(string); ok {
				lits = append(lits, s)
			} else {
				lits = append(lits, fmt.Sprintf("%v", c.Data))
			}
		}
		return &TypeInfo{Name: name, Kind: TypeEnum, Literals: lits}
	case ast.ArrayType:
		idxList := def.Child(0)
		comp := a.resolveTypeMarkOrIndication(def.Child(1), scope)
		var idxTypes []*TypeInfo
		for _, idx := range idxList.Children {
			idxTypes = append(idxTypes, a.resolveTypeMarkOrIndication(idx, scope))
		}
		return &TypeInfo{Name: name, Kind: TypeArray, Element: comp, IndexTypes: idxTypes}
	case ast.RecordType:
		ti := &TypeInfo{Name: name, Kind: TypeRecord}
		for _, comp := range def.Children {
			a.collectRecordFields(comp, scope, ti)
		}
		return ti
	case ast.AccessType:
		designated := a.resolveTypeMarkOrIndication(def.Child(0), scope)
		return &TypeInfo{Name: name, Kind: TypeAccess, Designated: designated}
	case ast.PrivateType:
		return &TypeInfo{Name: name, Kind: TypePrivate}
	case ast.DerivedType:
		parent := a.resolveTypeMarkOrIndication(def.Child(0), scope)
		return &TypeInfo{Name: name, Kind: parent.Kind, Derived: parent}
	default:
		a.errorf(def, "unsupported type definition %s", def.Kind)
		return &TypeInfo{Name: name, Kind: TypePrivate}
	}
}

func (a *Analyzer) collectRecordFields(comp *ast.Node, scope *Scope, ti *TypeInfo) {
	switch comp.Kind {
	case ast.ComponentDecl:
		names := comp.Child(0)
		typ := a.resolveTypeMarkOrIndication(comp.Child(1), scope)
		for _, nameNode := range names.Children {
			ti.Fields = append(ti.Fields, &RecordField{Name: nameNode.Data.(string), Type: typ})
		}
	case ast.VariantPart:
		for _, v := range comp.Children {
			for _, vc := range v.Children[1:] {
				a.collectRecordFields(vc, scope, ti)
			}
		}
	}
}

// resolveTypeMarkOrIndication resolves a type_mark (Identifier or
// SelectedComponent) or a SubtypeIndication wrapping one, returning the
// referenced TypeInfo or a placeholder private type on failure.
func (a *Analyzer) resolveTypeMarkOrIndication(n *ast.Node, scope *Scope) *TypeInfo {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ast.SubtypeIndication:
		return a.resolveTypeMarkOrIndication(n.Child(0), scope)
	case ast.Identifier:
		name, _ := n.Data.(string)
		sym := scope.Find(name)
		if sym == nil {
			a.errorf(n, "undeclared identifier %q", name)
			return &TypeInfo{Name: name, Kind: TypePrivate}
		}
		return sym.Type
	case ast.SelectedComponent:
		// Cross-unit type marks resolve against the separately-compiled
		// unit's exported symbols (internal/units); within a single
		// unit's own analysis this falls back to the selector name.
		rhs := n.Child(1)
		name, _ := rhs.Data.(string)
		if sym := scope.Find(name); sym != nil {
			return sym.Type
		}
		return &TypeInfo{Name: name, Kind: TypePrivate}
	default:
		a.errorf(n, "expected a type mark, got %s", n.Kind)
		return &TypeInfo{Kind: TypePrivate}
	}
}

// resolveEntryDecl binds a task entry the same way a procedure
// specification is bound: an `accept` inside the task body and a call at
// the entry's name both resolve through this Symbol, so genCall's
// straight-line rendezvous lowering treats an entry call exactly like a
// procedure call (spec §5's simplified tasking model).
func (a *Analyzer) resolveEntryDecl(n *ast.Node, scope *Scope) {
	name, _ := n.Data.(string)
	params := n.Child(0)
	var paramTypes []*TypeInfo
	for _, p := range params.Children {
		paramTypes = append(paramTypes, a.resolveTypeMarkOrIndication(p.Child(1), scope))
	}
	sym := &Symbol{Name: name, Kind: SymSubprogram, Node: n, Type: &TypeInfo{
		Name: name, Kind: TypeSubprogram, Params: paramTypes,
	}}
	scope.AddOverload(sym)
	n.Sym = sym
}

// resolveGenericDecl registers a generic template's name without
// resolving its body: a template's formals are not real declarations
// (a formal `type T is private;` names no actual type), so attempting to
// resolve the unit it wraps directly would fail on every reference to a
// formal. The body is only ever resolved once, per instantiation, as a
// substituted clone (resolveGenericInstantiation).
func (a *Analyzer) resolveGenericDecl(n *ast.Node, scope *Scope) {
	unit := n.Child(1)
	name := genericUnitName(unit)
	scope.AddOverload(&Symbol{Name: name, Kind: SymGeneric, Node: n})
}

// genericUnitName extracts the name a generic template declares, whether
// it wraps a subprogram spec/body or a package spec/body.
func genericUnitName(unit *ast.Node) string {
	if unit == nil {
		return ""
	}
	switch unit.Kind {
	case ast.ProcSpec, ast.FuncSpec, ast.PackageSpec, ast.PackageBody:
		name, _ := unit.Data.(string)
		return name
	case ast.ProcBody, ast.FuncBody:
		return genericUnitName(unit.Child(0))
	default:
		return ""
	}
}

// genericFormalNames extracts, in order, the names a generic template's
// formal part declares: a type formal (`type T is private;`, itself a
// nested GenericDecl), a subprogram formal (`with function "<" (...)
// return Boolean;`, a raw ProcSpec/FuncSpec), or an object formal (`X :
// T;`, an ObjectDecl tagged "generic_formal" by the parser).
func genericFormalNames(formals *ast.Node) []string {
	if formals == nil {
		return nil
	}
	var names []string
	for _, f := range formals.Children {
		switch f.Kind {
		case ast.GenericDecl, ast.ProcSpec, ast.FuncSpec:
			if name, ok := f.Data.(string); ok {
				names = append(names, name)
			}
		case ast.ObjectDecl:
			for _, nameNode := range f.Child(0).Children {
				if name, ok := nameNode.Data.(string); ok {
					names = append(names, name)
				}
			}
		}
	}
	return names
}

// renameUnit overwrites the name a cloned generic unit declares with the
// instantiation's own name (`procedure ISort is new Sort(...)` names the
// clone ISort, not Sort).
func renameUnit(n *ast.Node, name string) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.ProcSpec, ast.FuncSpec, ast.PackageSpec, ast.PackageBody:
		n.Data = name
	case ast.ProcBody, ast.FuncBody:
		renameUnit(n.Child(0), name)
	}
}

// resolveGenericInstantiation implements `X is new G(actuals);` (spec §8
// scenario 4): look up G's template, pair its formals positionally with
// the actuals, clone the template's unit with formals substituted for
// actuals, rename the clone to X, and resolve the clone exactly like any
// other declaration. The instantiation node keeps the clone as its final
// child so codegen can lower it the same way.
func (a *Analyzer) resolveGenericInstantiation(n *ast.Node, scope *Scope) {
	name, _ := n.Data.(string)
	if len(n.Children) < 2 {
		a.errorf(n, "malformed generic instantiation")
		return
	}
	genNameNode := n.Child(len(n.Children) - 2)
	actuals := n.Child(len(n.Children) - 1)
	genName := lastDottedName(genNameNode)

	tmplSym := scope.Find(genName)
	if tmplSym == nil || tmplSym.Kind != SymGeneric {
		a.errorf(n, "undeclared generic unit %q", genName)
		return
	}
	tmplDecl, _ := tmplSym.Node.(*ast.Node)
	if tmplDecl == nil {
		return
	}
	formals := genericFormalNames(tmplDecl.Child(0))
	actualsList := actuals
	subst := BuildSubstitution(formals, actualsList)
	clone := CloneSubstitute(tmplDecl.Child(1), subst)
	renameUnit(clone, name)

	switch clone.Kind {
	case ast.ProcSpec, ast.FuncSpec, ast.ProcBody, ast.FuncBody, ast.PackageSpec, ast.PackageBody:
		a.resolveLibraryUnit(clone, scope)
	default:
		a.errorf(n, "unsupported generic instantiation of %s", clone.Kind)
		return
	}
	n.Children = append(n.Children, clone)
}

func (a *Analyzer) resolveSubprogramSpec(n *ast.Node, scope *Scope) *Symbol {
	name, _ := n.Data.(string)
	params := n.Child(0)
	var paramTypes []*TypeInfo
	for _, p := range params.Children {
		typ := a.resolveTypeMarkOrIndication(p.Child(1), scope)
		paramTypes = append(paramTypes, typ)
	}
	var result *TypeInfo
	if n.Kind == ast.FuncSpec && len(n.Children) > 1 && n.Child(1).Kind != ast.List {
		result = a.resolveTypeMarkOrIndication(n.Child(1), scope)
	}
	sym := &Symbol{Name: name, Kind: SymSubprogram, Node: n, Type: &TypeInfo{
		Name: name, Kind: TypeSubprogram, Params: paramTypes, Result: result,
	}}
	scope.AddOverload(sym)
	n.Sym = sym
	n.Type = sym.Type
	return sym
}

func (a *Analyzer) resolveSubprogramBody(n *ast.Node, scope *Scope) {
	spec := n.Child(0)
	sym := a.resolveSubprogramSpec(spec, scope)

	inner := NewScope(scope)
	params := spec.Child(0)
	for _, p := range params.Children {
		typ := a.resolveTypeMarkOrIndication(p.Child(1), scope)
		names := p.Child(0)
		for _, nameNode := range names.Children {
			psym := &Symbol{Name: nameNode.Data.(string), Kind: SymObject, Type: typ}
			inner.AddOverload(psym)
			nameNode.Sym = psym
		}
	}

	a.resolveDeclarativePart(n.Child(1), inner)
	a.resolveStatementSequence(n.Child(2), inner)
	if len(n.Children) > 3 {
		a.resolveExceptionHandlers(n.Child(3), inner)
	}
	inner.ClearUses()
	_ = sym
}

func (a *Analyzer) resolveExceptionHandlers(n *ast.Node, scope *Scope) {
	for _, h := range n.Children {
		a.resolveStatementSequence(h.Child(1), scope)
	}
}

func (a *Analyzer) resolveStatementSequence(n *ast.Node, scope *Scope) {
	if n == nil {
		return
	}
	for _, s := range n.Children {
		a.resolveStatement(s, scope)
	}
}

func (a *Analyzer) resolveStatement(n *ast.Node, scope *Scope) {
	switch n.Kind {
	case ast.AssignStmt:
		lhsT := a.resolveExpr(n.Child(0), scope)
		rhsT := a.resolveExpr(n.Child(1), scope)
		a.checkAssignable(n, lhsT, rhsT)
		n.Children[1] = a.chk(n.Child(1), lhsT)
	case ast.CodeStmt:
		a.resolveExpr(n.Child(0), scope)
	case ast.IfStmt:
		a.resolveIfStmt(n, scope)
	case ast.CaseStmt:
		a.resolveExpr(n.Child(0), scope)
		for _, alt := range n.Children[1:] {
			a.resolveStatementSequence(alt.Child(1), scope)
		}
	case ast.LoopStmt:
		a.resolveLoopStmt(n, scope)
	case ast.Block:
		inner := NewScope(scope)
		a.resolveDeclarativePart(n.Child(0), inner)
		a.resolveStatementSequence(n.Child(1), inner)
		if len(n.Children) > 2 {
			a.resolveExceptionHandlers(n.Child(2), inner)
		}
		inner.ClearUses()
	case ast.ExitStmt, ast.ReturnStmt, ast.GotoStmt, ast.RaiseStmt, ast.NullStmt:
		for _, c := range n.Children {
			a.resolveExpr(c, scope)
		}
	case ast.AcceptStmt:
		a.resolveAcceptStmt(n, scope)
	case ast.SelectStmt:
		for _, alt := range n.Children {
			if alt.Kind == ast.SelectAlt {
				a.resolveSelectAlt(alt, scope)
			}
		}
	case ast.DelayStmt:
		a.resolveExpr(n.Child(0), scope)
	case ast.AbortStmt:
		for _, c := range n.Children {
			a.resolveExpr(c, scope)
		}
	case ast.LabelStmt:
		a.resolveStatement(n.Child(0), scope)
	case ast.Pragma:
		// No semantic effect beyond what codegen chooses to honor.
	default:
		a.errorf(n, "unsupported statement kind %s", n.Kind)
	}
}

func (a *Analyzer) resolveIfStmt(n *ast.Node, scope *Scope) {
	nElsif, _ := n.Data.(int)
	idx := 0
	a.resolveExpr(n.Children[idx], scope)
	idx++
	a.resolveStatementSequence(n.Children[idx], scope)
	idx++
	for i := 0; i < nElsif; i++ {
		elsif := n.Children[idx]
		idx++
		a.resolveExpr(elsif.Child(0), scope)
		a.resolveStatementSequence(elsif.Child(1), scope)
	}
	if idx < len(n.Children) {
		a.resolveStatementSequence(n.Children[idx], scope)
	}
}

func (a *Analyzer) resolveLoopStmt(n *ast.Node, scope *Scope) {
	if len(n.Children) == 1 {
		a.resolveStatementSequence(n.Child(0), scope)
		return
	}
	iter := n.Child(0)
	inner := NewScope(scope)
	switch iter.Kind {
	case ast.IterWhile:
		a.resolveExpr(iter.Child(0), scope)
	case ast.IterFor:
		varNode := iter.Child(0)
		rng := iter.Child(1)
		a.resolveExpr(rng, scope)
		vsym := &Symbol{Name: varNode.Data.(string), Kind: SymObject, Type: StdInteger}
		inner.AddOverload(vsym)
		varNode.Sym = vsym
	}
	a.resolveStatementSequence(n.Child(1), inner)
}

func (a *Analyzer) resolveAcceptStmt(n *ast.Node, scope *Scope) {
	params := n.Child(0)
	inner := NewScope(scope)
	for _, p := range params.Children {
		typ := a.resolveTypeMarkOrIndication(p.Child(1), scope)
		names := p.Child(0)
		for _, nameNode := range names.Children {
			psym := &Symbol{Name: nameNode.Data.(string), Kind: SymObject, Type: typ}
			inner.AddOverload(psym)
			nameNode.Sym = psym
		}
	}
	if len(n.Children) > 1 && n.Child(1).Kind == ast.StmtSequence {
		a.resolveStatementSequence(n.Child(1), inner)
	}
}

func (a *Analyzer) resolveSelectAlt(n *ast.Node, scope *Scope) {
	for _, c := range n.Children {
		if c.Kind == ast.AcceptStmt {
			a.resolveAcceptStmt(c, scope)
		} else if c.Kind == ast.StmtSequence {
			a.resolveStatementSequence(c, scope)
		} else {
			a.resolveExpr(c, scope)
		}
	}
}

// resolveExpr resolves names within an expression tree and returns its
// static type where determinable; unresolved subtrees yield nil rather
// than panicking, so one bad expression does not abort the whole pass.
func (a *Analyzer) resolveExpr(n *ast.Node, scope *Scope) *TypeInfo {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ast.Identifier:
		name, _ := n.Data.(string)
		sym := scope.Find(name)
		if sym == nil {
			a.errorf(n, "undeclared identifier %q", name)
			return nil
		}
		n.Sym = sym
		n.Type = sym.Type
		return sym.Type
	case ast.IntegerLiteral:
		n.Type = Universal_Integer
		return Universal_Integer
	case ast.RealLiteral:
		n.Type = Universal_Real
		return Universal_Real
	case ast.CharLiteral, ast.NullLiteral:
		return nil
	case ast.StringLiteral:
		n.Type = StdString
		return StdString
	case ast.BinaryOp:
		lt := a.resolveExpr(n.Child(0), scope)
		rt := a.resolveExpr(n.Child(1), scope)
		if s, ok := n.Data.(string); ok && s == "in" {
			n.Type = StdBoolean
			return StdBoolean
		}
		if op, ok := n.Data.(lexer.Kind); ok && isRelationalOperator(op) {
			n.Type = StdBoolean
			return StdBoolean
		}
		if lt != nil {
			n.Type = lt
			return lt
		}
		n.Type = rt
		return rt
	case ast.UnaryOp:
		t := a.resolveExpr(n.Child(0), scope)
		n.Type = t
		return t
	case ast.FunctionCall:
		args := n.Child(1)
		var argTypes []*TypeInfo
		for _, assoc := range args.Children {
			v := assoc.Child(1)
			if v == nil {
				continue
			}
			argTypes = append(argTypes, a.resolveExpr(v, scope))
		}
		result := a.resolveCallee(n.Child(0), scope, argTypes)
		n.Type = result
		return result
	case ast.IndexedComponent, ast.Slice:
		t := a.resolveExpr(n.Child(0), scope)
		for _, c := range n.Children[1:] {
			a.resolveExpr(c, scope)
		}
		if t != nil && t.Kind == TypeArray {
			n.Type = t.Element
			return t.Element
		}
		return nil
	case ast.SelectedComponent:
		a.resolveExpr(n.Child(0), scope)
		return nil
	case ast.AttributeRef:
		a.resolveExpr(n.Child(0), scope)
		for _, c := range n.Children[1:] {
			a.resolveExpr(c, scope)
		}
		return a.attributeType(n)
	case ast.QualifiedExpr:
		t := a.resolveTypeMarkOrIndication(n.Child(0), scope)
		a.resolveExpr(n.Child(1), scope)
		n.Type = t
		return t
	case ast.Aggregate:
		for _, c := range n.Children {
			if v := c.Child(1); v != nil {
				a.resolveExpr(v, scope)
			}
		}
		return nil
	case ast.RangeExpr:
		a.resolveExpr(n.Child(0), scope)
		a.resolveExpr(n.Child(1), scope)
		return nil
	case ast.Allocator:
		t := a.resolveTypeMarkOrIndication(n.Child(0), scope)
		return &TypeInfo{Kind: TypeAccess, Designated: t}
	case ast.Dereference:
		t := a.resolveExpr(n.Child(0), scope)
		if t != nil && t.Kind == TypeAccess {
			return t.Designated
		}
		return nil
	case ast.Association:
		if name := n.Child(0); name != nil {
			a.resolveExpr(name, scope)
		}
		return a.resolveExpr(n.Child(1), scope)
	case ast.OthersChoice:
		return nil
	case ast.SubtypeIndication:
		return a.resolveTypeMarkOrIndication(n, scope)
	default:
		a.errorf(n, "unsupported expression kind %s", n.Kind)
		return nil
	}
}

func isRelationalOperator(k lexer.Kind) bool {
	switch k {
	case lexer.EQ, lexer.NE, lexer.LT, lexer.LE, lexer.GT, lexer.GE:
		return true
	}
	return false
}

// checkAssignable reports a Constraint_Error-class diagnostic when an
// assignment's operand types are not cover-compatible (spec §4.7).
func (a *Analyzer) checkAssignable(n *ast.Node, lhs, rhs *TypeInfo) {
	if lhs == nil || rhs == nil {
		return
	}
	if CompatibilityScore(lhs, rhs) == 0 && lhs != rhs {
		a.errorf(n, "incompatible types in assignment: %s and %s", lhs.Name, rhs.Name)
	}
}

// resolveCallee resolves a call's callee name against its overload set,
// scoring each candidate's formal parameters against argTypes with
// argCompatScore and binding the best-scoring one (spec §4.6's overload
// resolution). A callee that is not a plain or dotted name (e.g. an
// indexed or attribute expression standing in for a call) falls back to
// ordinary expression resolution.
func (a *Analyzer) resolveCallee(callee *ast.Node, scope *Scope, argTypes []*TypeInfo) *TypeInfo {
	if callee == nil {
		return nil
	}
	if callee.Kind != ast.Identifier {
		a.resolveExpr(callee, scope)
		if sym, ok := callee.Sym.(*Symbol); ok && sym.Type != nil {
			return sym.Type.Result
		}
		return nil
	}
	name, _ := callee.Data.(string)
	head := scope.Find(name)
	if head == nil {
		a.errorf(callee, "undeclared identifier %q", name)
		return nil
	}
	candidates := append([]*Symbol{head}, head.Overloads...)
	var best *Symbol
	bestScore := -1
	for _, c := range candidates {
		if c.Kind != SymSubprogram || c.Type == nil {
			continue
		}
		if len(c.Type.Params) != len(argTypes) {
			continue
		}
		score := 0
		for i, want := range c.Type.Params {
			score += argCompatScore(want, argTypes[i])
		}
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	if best == nil {
		best = head
	}
	callee.Sym = best
	callee.Type = best.Type
	if best.Type != nil {
		return best.Type.Result
	}
	return nil
}

// argCompatScore extends CompatibilityScore with Ada's universal-type
// convertibility: a Universal_Integer/Universal_Real literal operand is
// compatible with any numeric formal of the matching kind, since the
// literal itself carries no fixed type until context picks one.
func argCompatScore(want, arg *TypeInfo) int {
	if want == nil || arg == nil {
		return 0
	}
	if arg == Universal_Integer && want.Kind == TypeInteger {
		return ScoreSame
	}
	if arg == Universal_Real && want.Kind == TypeFloat {
		return ScoreSame
	}
	return CompatibilityScore(want, arg)
}

// chk wraps val in a CheckExpr when target carries a static range that
// val cannot be proven to satisfy at compile time, so codegen lowers the
// wrapped node to the test-and-raise sequence instead of emitting a bare
// store (spec §4.7's constraint_error for range violations). A literal
// already known to fit needs no runtime test.
func (a *Analyzer) chk(val *ast.Node, target *TypeInfo) *ast.Node {
	if val == nil || target == nil {
		return val
	}
	lo, okLo := target.LowBound.(int64)
	hi, okHi := target.HighBound.(int64)
	if !okLo || !okHi {
		return val
	}
	if val.Kind == ast.IntegerLiteral {
		if v, ok := val.Data.(bignum.Int); ok {
			if n64, fits := v.Int64(); fits && n64 >= lo && n64 <= hi {
				return val
			}
		}
	}
	check := ast.New(ast.CheckExpr, val.File, val.Line, val.Col, nil, val)
	check.Type = target
	return check
}

func (a *Analyzer) attributeType(n *ast.Node) *TypeInfo {
	attr, _ := n.Data.(string)
	switch attr {
	case "First", "Last", "Pos", "Length":
		return StdInteger
	case "Range":
		return nil
	case "Image":
		return StdString
	case "Value", "Succ", "Pred":
		t, _ := n.Child(0).Type.(*TypeInfo)
		return t
	default:
		return nil
	}
}
