package parser

import (
	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
	"github.com/AdaDoom3/Ada83-sub000/internal/lexer"
)

// parseDeclarativePart parses a sequence of declarations up to (but not
// including) one of the given terminator keywords, per the Ada grammar's
// declarative_part production. Declarations recognized match spec §4.4.
func (p *Parser) parseDeclarativePart(terminators ...lexer.Kind) *ast.Node {
	at := p.cur()
	var decls []*ast.Node
	for !p.atTerminator(terminators) {
		decls = append(decls, p.parseDeclaration())
	}
	return p.node(ast.List, at, "declarative_part", decls...)
}

func (p *Parser) atTerminator(terms []lexer.Kind) bool {
	if p.atEOF() {
		return true
	}
	for _, t := range terms {
		if p.kind() == t {
			return true
		}
	}
	return false
}

// parseDeclaration dispatches on the leading keyword of a single
// declaration (spec §4.4 "Declarations recognize").
func (p *Parser) parseDeclaration() *ast.Node {
	switch p.kind() {
	case lexer.TYPE:
		return p.parseTypeDecl()
	case lexer.SUBTYPE:
		return p.parseSubtypeDecl()
	case lexer.PROCEDURE, lexer.FUNCTION:
		return p.parseSubprogram()
	case lexer.PACKAGE:
		return p.parsePackage()
	case lexer.TASK:
		return p.parseTask()
	case lexer.GENERIC:
		return p.parseGenericDecl()
	case lexer.USE:
		return p.parseUseClause()
	case lexer.PRAGMA:
		return p.parsePragma()
	case lexer.FOR:
		return p.parseRepresentationClause()
	case lexer.ENTRY:
		return p.parseEntryDecl()
	case lexer.IDENTIFIER:
		return p.parseIdentifierLedDeclaration()
	default:
		p.fatalf("expected a declaration, got %s", p.describeCur())
		return nil
	}
}

// parseIdentifierLedDeclaration parses the declaration forms that begin
// with an identifier list: object declarations, exception declarations
// (`X : exception;`) and renaming declarations (`X : T renames Y;`).
func (p *Parser) parseIdentifierLedDeclaration() *ast.Node {
	at := p.cur()
	names := []*ast.Node{p.node(ast.Identifier, p.cur(), p.identifierName())}
	for p.accept(lexer.COMMA) {
		names = append(names, p.node(ast.Identifier, p.cur(), p.identifierName()))
	}
	p.expect(lexer.COLON)

	nameList := p.node(ast.List, at, "names", names...)

	constant := p.accept(lexer.CONSTANT)

	if p.kind() == lexer.EXCEPTION {
		p.advance()
		p.expect(lexer.SEMICOLON)
		return p.node(ast.ExceptionDecl, at, nil, nameList)
	}

	typ := p.parseSubtypeIndication()

	if p.kind() == lexer.RENAMES {
		p.advance()
		target := p.parseExpression()
		p.expect(lexer.SEMICOLON)
		return p.node(ast.RenamingDecl, at, nil, nameList, typ, target)
	}

	var init *ast.Node
	if p.accept(lexer.ASSIGN) {
		init = p.parseExpression()
	}
	p.expect(lexer.SEMICOLON)

	data := "variable"
	if constant {
		data = "constant"
	}
	children := []*ast.Node{nameList, typ}
	if init != nil {
		children = append(children, init)
	}
	return p.node(ast.ObjectDecl, at, data, children...)
}

// parseTypeDecl parses `type T [(discriminants)] is type_definition;` and
// the derived-type form `type T is new Parent [range R];`.
func (p *Parser) parseTypeDecl() *ast.Node {
	at := p.advance() // TYPE
	name := p.identifierName()

	var discriminants *ast.Node
	if p.kind() == lexer.LPAREN {
		discriminants = p.parseDiscriminantPart()
	}

	if !p.accept(lexer.IS) {
		// Incomplete/private type declaration with no definition yet.
		p.expect(lexer.SEMICOLON)
		return p.node(ast.TypeDecl, at, name, p.maybeWrap(discriminants))
	}

	def := p.parseTypeDefinition()
	p.expect(lexer.SEMICOLON)
	children := []*ast.Node{def}
	if discriminants != nil {
		children = append(children, discriminants)
	}
	return p.node(ast.TypeDecl, at, name, children...)
}

func (p *Parser) maybeWrap(n *ast.Node) *ast.Node {
	if n == nil {
		return p.node(ast.List, p.cur(), "empty")
	}
	return n
}

func (p *Parser) parseDiscriminantPart() *ast.Node {
	at := p.expect(lexer.LPAREN)
	var specs []*ast.Node
	specs = append(specs, p.parseDiscriminantSpec())
	for p.accept(lexer.SEMICOLON) {
		specs = append(specs, p.parseDiscriminantSpec())
	}
	p.expect(lexer.RPAREN)
	return p.node(ast.List, at, "discriminants", specs...)
}

func (p *Parser) parseDiscriminantSpec() *ast.Node {
	at := p.cur()
	names := []*ast.Node{p.node(ast.Identifier, p.cur(), p.identifierName())}
	for p.accept(lexer.COMMA) {
		names = append(names, p.node(ast.Identifier, p.cur(), p.identifierName()))
	}
	p.expect(lexer.COLON)
	typ := p.parseSubtypeIndication()
	var def *ast.Node
	if p.accept(lexer.ASSIGN) {
		def = p.parseExpression()
	}
	children := []*ast.Node{p.node(ast.List, at, "names", names...), typ}
	if def != nil {
		children = append(children, def)
	}
	return p.node(ast.DiscriminantSpec, at, nil, children...)
}

func (p *Parser) parseSubtypeDecl() *ast.Node {
	at := p.advance() // SUBTYPE
	name := p.identifierName()
	p.expect(lexer.IS)
	typ := p.parseSubtypeIndication()
	p.expect(lexer.SEMICOLON)
	return p.node(ast.SubtypeDecl, at, name, typ)
}

// parseSubprogram parses a procedure or function specification, and
// dispatches to the body/renames/instantiation/separate continuations
// spec §4.4 lists.
func (p *Parser) parseSubprogram() *ast.Node {
	at := p.cur()
	isFunc := p.kind() == lexer.FUNCTION
	p.advance() // PROCEDURE or FUNCTION

	name := p.identifierName()
	params := p.parseOptionalFormalParams()

	var retType *ast.Node
	if isFunc {
		p.expect(lexer.RETURN)
		retType = p.parseTypeMark()
	}

	specKind := ast.ProcSpec
	if isFunc {
		specKind = ast.FuncSpec
	}
	var spec *ast.Node
	if retType != nil {
		spec = p.node(specKind, at, name, params, retType)
	} else {
		spec = p.node(specKind, at, name, params)
	}

	switch p.kind() {
	case lexer.SEMICOLON:
		p.advance()
		return spec
	case lexer.IS:
		p.advance()
		if p.kind() == lexer.NEW {
			// Generic instantiation: `function F is new G(actuals);`
			p.advance()
			generic := p.parseDottedName()
			actuals := p.parseOptionalActualParams()
			p.expect(lexer.SEMICOLON)
			return p.node(ast.GenericInstantiation, at, name, spec, generic, actuals)
		}
		if p.kind() == lexer.SEPARATE {
			p.advance()
			p.expect(lexer.SEMICOLON)
			return p.node(specKind, at, name, append(spec.Children, p.node(ast.List, at, "is_separate"))...)
		}
		body := p.parseSubprogramBody(spec, isFunc)
		return body
	case lexer.RENAMES:
		p.advance()
		target := p.parseExpression()
		p.expect(lexer.SEMICOLON)
		return p.node(ast.RenamingDecl, at, name, spec, target)
	default:
		p.fatalf("expected ';', 'is' or 'renames' after subprogram specification, got %s", p.describeCur())
		return nil
	}
}

func (p *Parser) parseSubprogramBody(spec *ast.Node, isFunc bool) *ast.Node {
	at := p.cur()
	decls := p.parseDeclarativePart(lexer.BEGIN)
	p.expect(lexer.BEGIN)
	stmts := p.parseStatementSequence(lexer.EXCEPTION, lexer.END)
	var handlers *ast.Node
	if p.kind() == lexer.EXCEPTION {
		handlers = p.parseExceptionHandlers()
	}
	p.expect(lexer.END)
	if p.kind() == lexer.IDENTIFIER {
		p.advance() // optional trailing name, not re-verified here.
	}
	p.expect(lexer.SEMICOLON)

	kind := ast.ProcBody
	if isFunc {
		kind = ast.FuncBody
	}
	children := []*ast.Node{spec, decls, stmts}
	if handlers != nil {
		children = append(children, handlers)
	}
	return p.node(kind, at, nil, children...)
}

func (p *Parser) parseOptionalFormalParams() *ast.Node {
	at := p.cur()
	if p.kind() != lexer.LPAREN {
		return p.node(ast.List, at, "params")
	}
	p.advance()
	var params []*ast.Node
	params = append(params, p.parseParameterSpec())
	for p.accept(lexer.SEMICOLON) {
		params = append(params, p.parseParameterSpec())
	}
	p.expect(lexer.RPAREN)
	return p.node(ast.List, at, "params", params...)
}

func (p *Parser) parseParameterSpec() *ast.Node {
	at := p.cur()
	names := []*ast.Node{p.node(ast.Identifier, p.cur(), p.identifierName())}
	for p.accept(lexer.COMMA) {
		names = append(names, p.node(ast.Identifier, p.cur(), p.identifierName()))
	}
	p.expect(lexer.COLON)
	mode := "in"
	switch p.kind() {
	case lexer.IN:
		p.advance()
		if p.accept(lexer.OUT) {
			mode = "in_out"
		}
	case lexer.OUT:
		p.advance()
		mode = "out"
	}
	typ := p.parseTypeMark()
	var def *ast.Node
	if p.accept(lexer.ASSIGN) {
		def = p.parseExpression()
	}
	children := []*ast.Node{p.node(ast.List, at, "names", names...), typ}
	if def != nil {
		children = append(children, def)
	}
	return p.node(ast.ParameterSpec, at, mode, children...)
}

func (p *Parser) parseOptionalActualParams() *ast.Node {
	at := p.cur()
	if p.kind() != lexer.LPAREN {
		return p.node(ast.List, at, "actuals")
	}
	p.advance()
	var actuals []*ast.Node
	actuals = append(actuals, p.parseAssociation())
	for p.accept(lexer.COMMA) {
		actuals = append(actuals, p.parseAssociation())
	}
	p.expect(lexer.RPAREN)
	return p.node(ast.List, at, "actuals", actuals...)
}

// parseAssociation parses `expr` or `name => expr`, used for call
// arguments, aggregates and generic actual parameters alike.
func (p *Parser) parseAssociation() *ast.Node {
	at := p.cur()
	mark := p.mark()
	if p.kind() == lexer.IDENTIFIER {
		name := p.advance()
		if p.kind() == lexer.ARROW {
			p.advance()
			val := p.parseExpression()
			return p.node(ast.Association, at, nil, p.node(ast.Identifier, name, name.Text), val)
		}
		if p.kind() == lexer.VBAR {
			// choice list `A | B => expr` collapses into nested OR on the
			// choice side; reuse Association with a List of choices.
			choices := []*ast.Node{p.node(ast.Identifier, name, name.Text)}
			for p.kind() == lexer.VBAR {
				p.advance()
				choices = append(choices, p.parseChoice())
			}
			if p.kind() == lexer.ARROW {
				p.advance()
				val := p.parseExpression()
				return p.node(ast.Association, at, nil, p.node(ast.List, at, "choices", choices...), val)
			}
		}
		p.reset(mark)
	}
	if p.kind() == lexer.OTHERS {
		p.advance()
		p.expect(lexer.ARROW)
		val := p.parseExpression()
		return p.node(ast.Association, at, nil, p.node(ast.OthersChoice, at, nil), val)
	}
	val := p.parseExpression()
	return p.node(ast.Association, at, nil, nil, val)
}

// parseChoice parses one element of an aggregate/case choice list: an
// expression, a range, or `others`.
func (p *Parser) parseChoice() *ast.Node {
	if p.kind() == lexer.OTHERS {
		at := p.advance()
		return p.node(ast.OthersChoice, at, nil)
	}
	return p.parseExpression()
}

// --- entries, pragmas, representation clauses ---

func (p *Parser) parseEntryDecl() *ast.Node {
	at := p.advance() // ENTRY
	name := p.identifierName()
	params := p.parseOptionalFormalParams()
	p.expect(lexer.SEMICOLON)
	return p.node(ast.EntryDecl, at, name, params)
}

func (p *Parser) parsePragma() *ast.Node {
	at := p.advance() // PRAGMA
	name := p.identifierName()
	args := p.parseOptionalActualParams()
	p.expect(lexer.SEMICOLON)
	return p.node(ast.Pragma, at, name, args)
}

// parseRepresentationClause parses the two `for ... use ...;` forms:
// enumeration/record representation and attribute-definition clauses
// (address, size, etc.), spec §4.4/§3 "Representation clauses".
func (p *Parser) parseRepresentationClause() *ast.Node {
	at := p.advance() // FOR
	name := p.parseDottedName()
	var attr *ast.Node
	if p.accept(lexer.APOSTROPHE) {
		attrName := p.identifierName()
		attr = p.node(ast.Identifier, at, attrName)
	}
	p.expect(lexer.USE)

	if p.kind() == lexer.RECORD {
		p.advance()
		// Optional `at mod N;` alignment clause, folded into the component
		// list as a leading List node tagged "mod".
		var align *ast.Node
		if alignAt := p.cur(); p.accept(lexer.AT) {
			p.expect(lexer.MOD)
			align = p.node(ast.List, alignAt, "mod", p.parseExpression())
			p.expect(lexer.SEMICOLON)
		}
		comps := p.parseRecordRepComponents()
		if align != nil {
			comps.Children = append([]*ast.Node{align}, comps.Children...)
		}
		p.expect(lexer.END)
		p.expect(lexer.RECORD)
		p.expect(lexer.SEMICOLON)
		if attr != nil {
			return p.node(ast.RepClauseDecl, at, "record", name, attr, comps)
		}
		return p.node(ast.RepClauseDecl, at, "record", name, comps)
	}

	val := p.parseExpression()
	p.expect(lexer.SEMICOLON)
	if attr != nil {
		return p.node(ast.RepClauseDecl, at, "attribute", name, attr, val)
	}
	return p.node(ast.RepClauseDecl, at, "enum", name, val)
}

func (p *Parser) parseRecordRepComponents() *ast.Node {
	at := p.cur()
	var comps []*ast.Node
	for p.kind() == lexer.IDENTIFIER {
		compAt := p.cur()
		name := p.identifierName()
		p.expect(lexer.AT)
		offset := p.parseExpression()
		p.expect(lexer.RANGE)
		lo := p.parseExpression()
		p.expect(lexer.DOTDOT)
		hi := p.parseExpression()
		p.expect(lexer.SEMICOLON)
		comps = append(comps, p.node(ast.ComponentDecl, compAt, name, offset, lo, hi))
	}
	return p.node(ast.List, at, "rep_components", comps...)
}

// --- packages and tasks ---

func (p *Parser) parsePackage() *ast.Node {
	at := p.advance() // PACKAGE
	isBody := p.accept(lexer.BODY)
	name := p.identifierName()

	if p.kind() == lexer.IS && !isBody {
		mark := p.mark()
		p.advance()
		if p.kind() == lexer.NEW {
			p.advance()
			generic := p.parseDottedName()
			actuals := p.parseOptionalActualParams()
			p.expect(lexer.SEMICOLON)
			return p.node(ast.GenericInstantiation, at, name, generic, actuals)
		}
		p.reset(mark)
	}

	p.expect(lexer.IS)

	if isBody {
		decls := p.parseDeclarativePart(lexer.BEGIN, lexer.END)
		var stmts, handlers *ast.Node
		if p.accept(lexer.BEGIN) {
			stmts = p.parseStatementSequence(lexer.EXCEPTION, lexer.END)
			if p.kind() == lexer.EXCEPTION {
				handlers = p.parseExceptionHandlers()
			}
		}
		p.expect(lexer.END)
		if p.kind() == lexer.IDENTIFIER {
			p.advance()
		}
		p.expect(lexer.SEMICOLON)
		children := []*ast.Node{decls}
		if stmts != nil {
			children = append(children, stmts)
		}
		if handlers != nil {
			children = append(children, handlers)
		}
		return p.node(ast.PackageBody, at, name, children...)
	}

	decls := p.parseDeclarativePart(lexer.PRIVATE, lexer.END)
	var private *ast.Node
	if p.accept(lexer.PRIVATE) {
		private = p.parseDeclarativePart(lexer.END)
	}
	p.expect(lexer.END)
	if p.kind() == lexer.IDENTIFIER {
		p.advance()
	}
	p.expect(lexer.SEMICOLON)
	children := []*ast.Node{decls}
	if private != nil {
		children = append(children, private)
	}
	return p.node(ast.PackageSpec, at, name, children...)
}

func (p *Parser) parseTask() *ast.Node {
	at := p.advance() // TASK
	isBody := p.accept(lexer.BODY)
	name := p.identifierName()

	if !isBody {
		var entries *ast.Node
		if p.accept(lexer.IS) {
			entries = p.parseDeclarativePart(lexer.END)
			p.expect(lexer.END)
			if p.kind() == lexer.IDENTIFIER {
				p.advance()
			}
		}
		p.expect(lexer.SEMICOLON)
		if entries != nil {
			return p.node(ast.TaskSpec, at, name, entries)
		}
		return p.node(ast.TaskSpec, at, name)
	}

	p.expect(lexer.IS)
	decls := p.parseDeclarativePart(lexer.BEGIN)
	p.expect(lexer.BEGIN)
	stmts := p.parseStatementSequence(lexer.EXCEPTION, lexer.END)
	var handlers *ast.Node
	if p.kind() == lexer.EXCEPTION {
		handlers = p.parseExceptionHandlers()
	}
	p.expect(lexer.END)
	if p.kind() == lexer.IDENTIFIER {
		p.advance()
	}
	p.expect(lexer.SEMICOLON)
	children := []*ast.Node{decls, stmts}
	if handlers != nil {
		children = append(children, handlers)
	}
	return p.node(ast.TaskBody, at, name, children...)
}

// --- generics ---

func (p *Parser) parseGenericDecl() *ast.Node {
	at := p.advance() // GENERIC
	var formals []*ast.Node
	for p.kind() != lexer.PROCEDURE && p.kind() != lexer.FUNCTION && p.kind() != lexer.PACKAGE {
		formals = append(formals, p.parseGenericFormal())
	}
	formalsList := p.node(ast.List, at, "formals", formals...)
	unit := p.parseLibraryUnit()
	return p.node(ast.GenericDecl, at, nil, formalsList, unit)
}

// parseGenericFormal parses one generic formal parameter: a type formal
// (`type T is private;` / `is (<>)` / `is range <>` / `is digits <>`), an
// object formal (`X : T;`), or a subprogram formal
// (`with function "<" (...) return Boolean [is <>];`).
func (p *Parser) parseGenericFormal() *ast.Node {
	at := p.cur()
	switch p.kind() {
	case lexer.WITH:
		p.advance()
		sub := p.parseSubprogram()
		return sub
	case lexer.TYPE:
		p.advance()
		name := p.identifierName()
		p.expect(lexer.IS)
		def := p.parseGenericTypeFormalDef()
		p.expect(lexer.SEMICOLON)
		return p.node(ast.GenericDecl, at, name, def)
	default:
		names := []*ast.Node{p.node(ast.Identifier, p.cur(), p.identifierName())}
		for p.accept(lexer.COMMA) {
			names = append(names, p.node(ast.Identifier, p.cur(), p.identifierName()))
		}
		p.expect(lexer.COLON)
		typ := p.parseSubtypeIndication()
		p.expect(lexer.SEMICOLON)
		return p.node(ast.ObjectDecl, at, "generic_formal", p.node(ast.List, at, "names", names...), typ)
	}
}

func (p *Parser) parseGenericTypeFormalDef() *ast.Node {
	at := p.cur()
	switch p.kind() {
	case lexer.PRIVATE:
		p.advance()
		return p.node(ast.PrivateType, at, nil)
	case lexer.RANGE:
		p.advance()
		p.expect(lexer.BOX)
		return p.node(ast.IntegerRangeType, at, "box")
	case lexer.DIGITS:
		p.advance()
		p.expect(lexer.BOX)
		return p.node(ast.FloatType, at, "box")
	case lexer.LPAREN:
		p.advance()
		p.expect(lexer.BOX)
		p.expect(lexer.RPAREN)
		return p.node(ast.EnumerationType, at, "box")
	default:
		p.fatalf("expected generic formal type definition, got %s", p.describeCur())
		return nil
	}
}
