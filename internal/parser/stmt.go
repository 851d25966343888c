package parser

import (
	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
	"github.com/AdaDoom3/Ada83-sub000/internal/lexer"
)

// parseStatementSequence parses statements up to one of the terminator
// keywords, handling the optional `<<Label>>` prefix each statement may
// carry (spec §4.4 "goto targets").
func (p *Parser) parseStatementSequence(terminators ...lexer.Kind) *ast.Node {
	at := p.cur()
	var stmts []*ast.Node
	for !p.atTerminator(terminators) {
		stmts = append(stmts, p.parseStatement())
	}
	return p.node(ast.StmtSequence, at, nil, stmts...)
}

func (p *Parser) parseStatement() *ast.Node {
	at := p.cur()
	if p.kind() == lexer.LLT {
		p.advance()
		label := p.identifierName()
		p.expect(lexer.GGT)
		inner := p.parseStatement()
		return p.node(ast.LabelStmt, at, label, inner)
	}

	switch p.kind() {
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.CASE:
		return p.parseCaseStmt()
	case lexer.LOOP, lexer.WHILE, lexer.FOR:
		return p.parseLoopStmt()
	case lexer.DECLARE:
		return p.parseBlockStmt()
	case lexer.BEGIN:
		return p.parseBareBlockStmt()
	case lexer.EXIT:
		return p.parseExitStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.GOTO:
		return p.parseGotoStmt()
	case lexer.RAISE:
		return p.parseRaiseStmt()
	case lexer.NULL:
		p.advance()
		p.expect(lexer.SEMICOLON)
		return p.node(ast.NullStmt, at, nil)
	case lexer.ACCEPT:
		return p.parseAcceptStmt()
	case lexer.SELECT:
		return p.parseSelectStmt()
	case lexer.DELAY:
		return p.parseDelayStmt()
	case lexer.ABORT:
		return p.parseAbortStmt()
	case lexer.PRAGMA:
		return p.parsePragma()
	case lexer.IDENTIFIER:
		return p.parseSimpleOrCallOrAssignStmt()
	default:
		p.fatalf("expected a statement, got %s", p.describeCur())
		return nil
	}
}

// parseSimpleOrCallOrAssignStmt parses either an assignment
// (`name := expr;`) or a procedure call statement (`name [(args)];`),
// distinguished by whether `:=` follows the parsed name.
func (p *Parser) parseSimpleOrCallOrAssignStmt() *ast.Node {
	at := p.cur()
	target := p.parseNameTail(p.node(ast.Identifier, at, p.identifierName()))
	if p.kind() == lexer.ASSIGN {
		p.advance()
		val := p.parseExpression()
		p.expect(lexer.SEMICOLON)
		return p.node(ast.AssignStmt, at, nil, target, val)
	}
	p.expect(lexer.SEMICOLON)
	return p.node(ast.CodeStmt, at, nil, target)
}

func (p *Parser) parseIfStmt() *ast.Node {
	at := p.advance() // IF
	cond := p.parseExpression()
	p.expect(lexer.THEN)
	thenStmts := p.parseStatementSequence(lexer.ELSIF, lexer.ELSE, lexer.END)

	var elsifs []*ast.Node
	for p.kind() == lexer.ELSIF {
		eat := p.advance()
		ec := p.parseExpression()
		p.expect(lexer.THEN)
		eseq := p.parseStatementSequence(lexer.ELSIF, lexer.ELSE, lexer.END)
		elsifs = append(elsifs, p.node(ast.ElsifPart, eat, nil, ec, eseq))
	}

	var elseSeq *ast.Node
	if p.accept(lexer.ELSE) {
		elseSeq = p.parseStatementSequence(lexer.END)
	}

	p.expect(lexer.END)
	p.expect(lexer.IF)
	p.expect(lexer.SEMICOLON)

	children := []*ast.Node{cond, thenStmts}
	children = append(children, elsifs...)
	if elseSeq != nil {
		children = append(children, elseSeq)
	}
	return p.node(ast.IfStmt, at, len(elsifs), children...)
}

func (p *Parser) parseCaseStmt() *ast.Node {
	at := p.advance() // CASE
	sel := p.parseExpression()
	p.expect(lexer.IS)
	var alts []*ast.Node
	for p.kind() == lexer.WHEN {
		alts = append(alts, p.parseCaseAlt())
	}
	p.expect(lexer.END)
	p.expect(lexer.CASE)
	p.expect(lexer.SEMICOLON)
	return p.node(ast.CaseStmt, at, nil, append([]*ast.Node{sel}, alts...)...)
}

func (p *Parser) parseCaseAlt() *ast.Node {
	at := p.advance() // WHEN
	var choices []*ast.Node
	choices = append(choices, p.parseChoice())
	for p.accept(lexer.VBAR) {
		choices = append(choices, p.parseChoice())
	}
	p.expect(lexer.ARROW)
	stmts := p.parseStatementSequence(lexer.WHEN, lexer.END)
	choiceList := p.node(ast.List, at, "choices", choices...)
	return p.node(ast.CaseAlt, at, nil, choiceList, stmts)
}

// parseLoopStmt parses the three loop forms: bare `loop ... end loop;`,
// `while cond loop ...`, and `for I in [reverse] range loop ...`. A
// `<<Name>>` label before the loop is handled by the caller via LabelStmt;
// the Ada `Name: loop` form is not recognized by this parser. An
// identifier after `end loop` is accepted and discarded.
func (p *Parser) parseLoopStmt() *ast.Node {
	at := p.cur()
	switch p.kind() {
	case lexer.LOOP:
		p.advance()
		body := p.parseStatementSequence(lexer.END)
		p.expect(lexer.END)
		p.expect(lexer.LOOP)
		if p.kind() == lexer.IDENTIFIER {
			p.advance()
		}
		p.expect(lexer.SEMICOLON)
		return p.node(ast.LoopStmt, at, nil, body)
	case lexer.WHILE:
		p.advance()
		cond := p.parseExpression()
		p.expect(lexer.LOOP)
		body := p.parseStatementSequence(lexer.END)
		p.expect(lexer.END)
		p.expect(lexer.LOOP)
		if p.kind() == lexer.IDENTIFIER {
			p.advance()
		}
		p.expect(lexer.SEMICOLON)
		iter := p.node(ast.IterWhile, at, nil, cond)
		return p.node(ast.LoopStmt, at, nil, iter, body)
	case lexer.FOR:
		p.advance()
		varName := p.identifierName()
		p.expect(lexer.IN)
		reverse := p.accept(lexer.REVERSE)
		rng := p.parseDiscreteRange()
		p.expect(lexer.LOOP)
		body := p.parseStatementSequence(lexer.END)
		p.expect(lexer.END)
		p.expect(lexer.LOOP)
		if p.kind() == lexer.IDENTIFIER {
			p.advance()
		}
		p.expect(lexer.SEMICOLON)
		data := "forward"
		if reverse {
			data = "reverse"
		}
		iter := p.node(ast.IterFor, at, data, p.node(ast.Identifier, at, varName), rng)
		return p.node(ast.LoopStmt, at, nil, iter, body)
	default:
		p.fatalf("expected a loop statement, got %s", p.describeCur())
		return nil
	}
}

func (p *Parser) parseBlockStmt() *ast.Node {
	at := p.advance() // DECLARE
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
	return p.node(ast.Block, at, nil, children...)
}

func (p *Parser) parseBareBlockStmt() *ast.Node {
	at := p.advance() // BEGIN
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
	decls := p.node(ast.List, at, "declarative_part")
	children := []*ast.Node{decls, stmts}
	if handlers != nil {
		children = append(children, handlers)
	}
	return p.node(ast.Block, at, nil, children...)
}

func (p *Parser) parseExitStmt() *ast.Node {
	at := p.advance() // EXIT
	var label *ast.Node
	if p.kind() == lexer.IDENTIFIER {
		label = p.node(ast.Identifier, p.cur(), p.identifierName())
	}
	var cond *ast.Node
	if p.accept(lexer.WHEN) {
		cond = p.parseExpression()
	}
	p.expect(lexer.SEMICOLON)
	var children []*ast.Node
	if label != nil {
		children = append(children, label)
	}
	if cond != nil {
		children = append(children, cond)
	}
	return p.node(ast.ExitStmt, at, nil, children...)
}

func (p *Parser) parseReturnStmt() *ast.Node {
	at := p.advance() // RETURN
	var val *ast.Node
	if p.kind() != lexer.SEMICOLON {
		val = p.parseExpression()
	}
	p.expect(lexer.SEMICOLON)
	if val != nil {
		return p.node(ast.ReturnStmt, at, nil, val)
	}
	return p.node(ast.ReturnStmt, at, nil)
}

func (p *Parser) parseGotoStmt() *ast.Node {
	at := p.advance() // GOTO
	label := p.identifierName()
	p.expect(lexer.SEMICOLON)
	return p.node(ast.GotoStmt, at, label)
}

func (p *Parser) parseRaiseStmt() *ast.Node {
	at := p.advance() // RAISE
	var name *ast.Node
	if p.kind() != lexer.SEMICOLON {
		name = p.parseDottedName()
	}
	p.expect(lexer.SEMICOLON)
	if name != nil {
		return p.node(ast.RaiseStmt, at, nil, name)
	}
	return p.node(ast.RaiseStmt, at, nil)
}

func (p *Parser) parseExceptionHandlers() *ast.Node {
	at := p.advance() // EXCEPTION
	var handlers []*ast.Node
	for p.kind() == lexer.WHEN {
		handlers = append(handlers, p.parseExceptionHandler())
	}
	return p.node(ast.List, at, "handlers", handlers...)
}

func (p *Parser) parseExceptionHandler() *ast.Node {
	at := p.advance() // WHEN
	var choices []*ast.Node
	if p.kind() == lexer.OTHERS {
		choices = append(choices, p.parseChoice())
	} else {
		choices = append(choices, p.parseDottedName())
		for p.accept(lexer.VBAR) {
			choices = append(choices, p.parseDottedName())
		}
	}
	p.expect(lexer.ARROW)
	stmts := p.parseStatementSequence(lexer.WHEN, lexer.END, lexer.EXCEPTION)
	choiceList := p.node(ast.List, at, "choices", choices...)
	return p.node(ast.ExceptionHandler, at, nil, choiceList, stmts)
}

// --- tasking statements ---

// parseAcceptStmt handles the one backtracking ambiguity spec §4.4 names:
// after `accept Entry`, a following `(` may open either a formal
// parameter list or an entry-family index expression. We try the formal
// parameter parse first and fall back to an index expression if it does
// not look like one (no colon before the first `)`/`;`).
func (p *Parser) parseAcceptStmt() *ast.Node {
	at := p.advance() // ACCEPT
	entry := p.identifierName()

	var index *ast.Node
	if p.kind() == lexer.LPAREN {
		mark := p.mark()
		if !p.looksLikeFormalParams() {
			p.advance()
			index = p.parseExpression()
			p.expect(lexer.RPAREN)
		} else {
			p.reset(mark)
		}
	}

	params := p.parseOptionalFormalParams()

	if p.accept(lexer.SEMICOLON) {
		children := []*ast.Node{params}
		if index != nil {
			children = append(children, index)
		}
		return p.node(ast.AcceptStmt, at, entry, children...)
	}

	p.expect(lexer.DO)
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

	children := []*ast.Node{params, stmts}
	if index != nil {
		children = append(children, index)
	}
	if handlers != nil {
		children = append(children, handlers)
	}
	return p.node(ast.AcceptStmt, at, entry, children...)
}

// looksLikeFormalParams scans ahead from the current '(' to its matching
// ')' (tracking nesting) and reports whether a top-level ':' appears
// before it, which only a parameter_specification list can contain.
func (p *Parser) looksLikeFormalParams() bool {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			depth--
			if depth == 0 {
				return false
			}
		case lexer.COLON:
			if depth == 1 {
				return true
			}
		case lexer.EOF:
			return false
		}
	}
	return false
}

func (p *Parser) parseSelectStmt() *ast.Node {
	at := p.advance() // SELECT
	var alts []*ast.Node
	alts = append(alts, p.parseSelectAlt())
	for p.accept(lexer.OR) {
		alts = append(alts, p.parseSelectAlt())
	}
	var elsePart *ast.Node
	if p.accept(lexer.ELSE) {
		elsePart = p.parseStatementSequence(lexer.END)
	}
	p.expect(lexer.END)
	p.expect(lexer.SELECT)
	p.expect(lexer.SEMICOLON)
	children := alts
	if elsePart != nil {
		children = append(children, elsePart)
	}
	return p.node(ast.SelectStmt, at, nil, children...)
}

func (p *Parser) parseSelectAlt() *ast.Node {
	at := p.cur()
	var guard *ast.Node
	if p.accept(lexer.WHEN) {
		guard = p.parseExpression()
		p.expect(lexer.ARROW)
	}

	var body *ast.Node
	switch p.kind() {
	case lexer.ACCEPT:
		body = p.parseAcceptStmt()
	case lexer.DELAY:
		body = p.parseDelayStmt()
	case lexer.TERMINATE:
		p.advance()
		p.expect(lexer.SEMICOLON)
		body = p.node(ast.NullStmt, at, "terminate")
	default:
		p.fatalf("expected accept, delay or terminate in select alternative, got %s", p.describeCur())
	}

	rest := p.parseStatementSequence(lexer.OR, lexer.ELSE, lexer.END)

	children := []*ast.Node{body, rest}
	if guard != nil {
		children = append([]*ast.Node{guard}, children...)
	}
	return p.node(ast.SelectAlt, at, guard != nil, children...)
}

func (p *Parser) parseDelayStmt() *ast.Node {
	at := p.advance() // DELAY
	d := p.parseExpression()
	p.expect(lexer.SEMICOLON)
	return p.node(ast.DelayStmt, at, nil, d)
}

func (p *Parser) parseAbortStmt() *ast.Node {
	at := p.advance() // ABORT
	var names []*ast.Node
	names = append(names, p.parseDottedName())
	for p.accept(lexer.COMMA) {
		names = append(names, p.parseDottedName())
	}
	p.expect(lexer.SEMICOLON)
	return p.node(ast.AbortStmt, at, nil, names...)
}
