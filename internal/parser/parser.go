// Package parser implements a recursive-descent parser for Ada 83 (spec
// §4.4), deliberately hand-written rather than generated: unlike the
// teacher's goyacc-based frontend.Parse, spec §4.4 calls for "recursive-
// descent, one-token look-ahead plus saved-state back-track for a single
// ambiguous case". The token-buffer/backtrack shape below is the
// generalization of that requirement; the overall package layout (a
// Parser type draining a lexer.Lexer, building ast.Node trees the way
// frontend.tree.go's nodeInit builds ir.Node trees) keeps the teacher's
// separation between scanning and tree construction.
package parser

import (
	"fmt"

	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
	"github.com/AdaDoom3/Ada83-sub000/internal/lexer"
)

// FatalError is returned by Parse on the first unrecoverable syntax
// error; spec §4.4 says the parser does not attempt recovery.
type FatalError struct {
	Pos string
	Msg string
}

func (e *FatalError) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

// Parser holds a fully-scanned token buffer (simpler to backtrack over
// than the teacher's channel-fed goyacc lexer) plus the current read
// position, which mark and reset save and restore wherever a construct
// needs to back-track (aggregates, associations, ranges and others).
type Parser struct {
	file string
	toks []lexer.Token
	pos  int
}

// Parse lexes src in full and parses a single compilation unit from it,
// matching spec §4.4's "Parser" entry point. The first syntax error (or
// lexer ERR token) stops parsing and is returned as a *FatalError; the
// parser's internal panic is recovered here.
func Parse(file, src string) (unit *ast.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			if fe, ok := r.(*FatalError); ok {
				err = fe
				return
			}
			panic(r)
		}
	}()

	lx := lexer.New(file, src)
	go lx.Run()

	var toks []lexer.Token
	for {
		t := lx.Next()
		if t.Kind == lexer.ERR {
			return nil, &FatalError{Pos: fmt.Sprintf("%s:%d:%d", file, t.Line, t.Col), Msg: t.Text}
		}
		toks = append(toks, t)
		if t.Kind == lexer.EOF {
			break
		}
	}

	p := &Parser{file: file, toks: toks}
	return p.parseCompilationUnit(), nil
}

// --- token cursor helpers ---

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) kind() lexer.Kind  { return p.toks[p.pos].Kind }
func (p *Parser) atEOF() bool       { return p.kind() == lexer.EOF }

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// mark/reset implement the saved-state backtracking spec §4.4 calls for.
func (p *Parser) mark() int        { return p.pos }
func (p *Parser) reset(mark int)   { p.pos = mark }

func (p *Parser) fatalf(format string, args ...interface{}) {
	t := p.cur()
	panic(&FatalError{Pos: fmt.Sprintf("%s:%d:%d", p.file, t.Line, t.Col), Msg: fmt.Sprintf(format, args...)})
}

// expect consumes and returns the current token if it has kind k,
// otherwise raises a fatal "expected token" diagnostic (spec §7).
func (p *Parser) expect(k lexer.Kind) lexer.Token {
	if p.kind() != k {
		p.fatalf("expected %s, got %s", k, p.describeCur())
	}
	return p.advance()
}

func (p *Parser) describeCur() string {
	t := p.cur()
	if t.Text != "" {
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	}
	return t.Kind.String()
}

func (p *Parser) accept(k lexer.Kind) bool {
	if p.kind() == k {
		p.advance()
		return true
	}
	return false
}

// node is a small convenience wrapper around ast.New using the current
// token's position, mirroring nodeInit in the teacher's tree.go.
func (p *Parser) node(kind ast.Kind, at lexer.Token, data interface{}, children ...*ast.Node) *ast.Node {
	return ast.New(kind, p.file, at.Line, at.Col, data, children...)
}

// identifierName reads a single identifier and returns its text.
func (p *Parser) identifierName() string {
	t := p.expect(lexer.IDENTIFIER)
	return t.Text
}

// --- compilation unit ---

// parseCompilationUnit parses the top-level production:
//
//	compilation_unit ::= context_clause (separate_clause)? unit
//
// per spec §3 "Library unit" and §4.4's note on `separate (parent)`. Each
// unit production consumes its own terminating ";".
func (p *Parser) parseCompilationUnit() *ast.Node {
	at := p.cur()
	ctx := p.parseContextClause()

	var parent *ast.Node
	if p.kind() == lexer.SEPARATE {
		p.advance()
		p.expect(lexer.LPAREN)
		parent = p.node(ast.Identifier, p.cur(), p.identifierName())
		p.expect(lexer.RPAREN)
	}

	unit := p.parseLibraryUnit()

	children := []*ast.Node{ctx, unit}
	if parent != nil {
		children = append(children, parent)
	}
	return p.node(ast.CompilationUnit, at, nil, children...)
}

// parseContextClause parses zero or more `with`/`use`/`pragma` items
// preceding the library unit (spec §3 "Structural").
func (p *Parser) parseContextClause() *ast.Node {
	at := p.cur()
	var items []*ast.Node
	for {
		switch p.kind() {
		case lexer.WITH:
			items = append(items, p.parseWithClause())
		case lexer.USE:
			items = append(items, p.parseUseClause())
		case lexer.PRAGMA:
			items = append(items, p.parsePragma())
		default:
			return p.node(ast.ContextClause, at, nil, items...)
		}
	}
}

func (p *Parser) parseWithClause() *ast.Node {
	at := p.advance() // WITH
	var names []*ast.Node
	names = append(names, p.parseDottedName())
	for p.accept(lexer.COMMA) {
		names = append(names, p.parseDottedName())
	}
	p.expect(lexer.SEMICOLON)
	return p.node(ast.WithClause, at, nil, names...)
}

func (p *Parser) parseUseClause() *ast.Node {
	at := p.advance() // USE
	var names []*ast.Node
	names = append(names, p.parseDottedName())
	for p.accept(lexer.COMMA) {
		names = append(names, p.parseDottedName())
	}
	p.expect(lexer.SEMICOLON)
	return p.node(ast.UseClause, at, nil, names...)
}

// parseDottedName parses `A.B.C`, used by with/use clauses and the
// separate-compilation parent name.
func (p *Parser) parseDottedName() *ast.Node {
	at := p.cur()
	n := p.node(ast.Identifier, at, p.identifierName())
	for p.kind() == lexer.DOT {
		p.advance()
		rhs := p.node(ast.Identifier, p.cur(), p.identifierName())
		n = p.node(ast.SelectedComponent, at, nil, n, rhs)
	}
	return n
}

// parseLibraryUnit dispatches on the first token of a library_unit
// production: package, subprogram, generic, task, or a subunit body.
func (p *Parser) parseLibraryUnit() *ast.Node {
	switch p.kind() {
	case lexer.PACKAGE:
		return p.parsePackage()
	case lexer.PROCEDURE, lexer.FUNCTION:
		return p.parseSubprogram()
	case lexer.GENERIC:
		return p.parseGenericDecl()
	case lexer.TASK:
		return p.parseTask()
	default:
		p.fatalf("expected package, procedure, function, generic or task, got %s", p.describeCur())
		return nil
	}
}
