package parser

import (
	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
	"github.com/AdaDoom3/Ada83-sub000/internal/lexer"
)

// parseExpression implements the precedence ladder spec §4.4 lists, from
// lowest to highest:
//
//	expression     ::= relation {and relation} | {and then relation}
//	                  | {or relation} | {or else relation} | {xor relation}
//	relation       ::= simple_expression [relational_op simple_expression]
//	                  | simple_expression [not] in range
//	simple_expr    ::= [unary +/-] term {(+/-/&) term}
//	term           ::= factor {(* / mod rem) factor}
//	factor         ::= primary [** factor] | abs primary | not primary
//	primary        ::= name | literal | aggregate | (expression) | allocator
//
// in that order, each level calling the next tighter level.
func (p *Parser) parseExpression() *ast.Node {
	return p.parseLogical()
}

func (p *Parser) parseLogical() *ast.Node {
	at := p.cur()
	lhs := p.parseRelation()
	switch p.kind() {
	case lexer.AND:
		for p.kind() == lexer.AND {
			op := p.advance()
			rhs := p.parseRelation()
			lhs = p.node(ast.BinaryOp, at, op.Kind, lhs, rhs)
		}
	case lexer.OR:
		for p.kind() == lexer.OR {
			op := p.advance()
			rhs := p.parseRelation()
			lhs = p.node(ast.BinaryOp, at, op.Kind, lhs, rhs)
		}
	case lexer.XOR:
		for p.kind() == lexer.XOR {
			op := p.advance()
			rhs := p.parseRelation()
			lhs = p.node(ast.BinaryOp, at, op.Kind, lhs, rhs)
		}
	case lexer.AND_THEN:
		for p.kind() == lexer.AND_THEN {
			p.advance()
			rhs := p.parseRelation()
			lhs = p.node(ast.BinaryOp, at, lexer.AND_THEN, lhs, rhs)
		}
	case lexer.OR_ELSE:
		for p.kind() == lexer.OR_ELSE {
			p.advance()
			rhs := p.parseRelation()
			lhs = p.node(ast.BinaryOp, at, lexer.OR_ELSE, lhs, rhs)
		}
	}
	return lhs
}

func isRelationalOp(k lexer.Kind) bool {
	switch k {
	case lexer.EQ, lexer.NE, lexer.LT, lexer.LE, lexer.GT, lexer.GE:
		return true
	}
	return false
}

func (p *Parser) parseRelation() *ast.Node {
	at := p.cur()
	lhs := p.parseSimpleExpression()

	if isRelationalOp(p.kind()) {
		op := p.advance()
		rhs := p.parseSimpleExpression()
		return p.node(ast.BinaryOp, at, op.Kind, lhs, rhs)
	}

	negated := false
	if p.kind() == lexer.NOT {
		mark := p.mark()
		p.advance()
		if p.kind() == lexer.IN {
			negated = true
		} else {
			p.reset(mark)
			return lhs
		}
	}
	if p.kind() == lexer.IN {
		p.advance()
		rng := p.parseMembershipChoice()
		n := p.node(ast.BinaryOp, at, "in", lhs, rng)
		if negated {
			return p.node(ast.UnaryOp, at, "not", n)
		}
		return n
	}
	return lhs
}

// parseMembershipChoice parses the right-hand side of `in`/`not in`: a
// range, or a type mark used as a membership test.
func (p *Parser) parseMembershipChoice() *ast.Node {
	at := p.cur()
	mark := p.mark()
	e := p.parseSimpleExpression()
	if p.kind() == lexer.DOTDOT {
		p.advance()
		hi := p.parseSimpleExpression()
		return p.node(ast.RangeExpr, at, nil, e, hi)
	}
	if p.kind() == lexer.RANGE {
		p.reset(mark)
		return p.parseSubtypeIndication()
	}
	return e
}

func (p *Parser) parseSimpleExpression() *ast.Node {
	at := p.cur()
	var lhs *ast.Node
	if p.kind() == lexer.PLUS || p.kind() == lexer.MINUS {
		op := p.advance()
		operand := p.parseTerm()
		lhs = p.node(ast.UnaryOp, at, op.Kind, operand)
	} else {
		lhs = p.parseTerm()
	}
	for p.kind() == lexer.PLUS || p.kind() == lexer.MINUS || p.kind() == lexer.AMP {
		op := p.advance()
		rhs := p.parseTerm()
		lhs = p.node(ast.BinaryOp, at, op.Kind, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseTerm() *ast.Node {
	at := p.cur()
	lhs := p.parseFactor()
	for p.kind() == lexer.STAR || p.kind() == lexer.SLASH || p.kind() == lexer.MOD || p.kind() == lexer.REM {
		op := p.advance()
		rhs := p.parseFactor()
		lhs = p.node(ast.BinaryOp, at, op.Kind, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseFactor() *ast.Node {
	at := p.cur()
	switch p.kind() {
	case lexer.ABS:
		p.advance()
		return p.node(ast.UnaryOp, at, lexer.ABS, p.parsePrimary())
	case lexer.NOT:
		p.advance()
		return p.node(ast.UnaryOp, at, lexer.NOT, p.parsePrimary())
	}
	lhs := p.parsePrimary()
	if p.kind() == lexer.EXPON {
		p.advance()
		rhs := p.parseFactor() // right-associative
		return p.node(ast.BinaryOp, at, lexer.EXPON, lhs, rhs)
	}
	return lhs
}

// parsePrimary parses a primary and then folds in any trailing name
// continuations (selected component, call/index, slice, attribute,
// qualification), since Ada's name grammar is naturally left-recursive.
func (p *Parser) parsePrimary() *ast.Node {
	at := p.cur()
	var n *ast.Node
	switch p.kind() {
	case lexer.INTEGER_LITERAL, lexer.BASED_LITERAL:
		t := p.advance()
		n = p.node(ast.IntegerLiteral, at, t.BigValue)
	case lexer.REAL_LITERAL:
		t := p.advance()
		n = p.node(ast.RealLiteral, at, t.Text)
	case lexer.CHARACTER_LITERAL:
		t := p.advance()
		n = p.node(ast.CharLiteral, at, t.CodePoint)
	case lexer.STRING_LITERAL:
		t := p.advance()
		n = p.node(ast.StringLiteral, at, t.Text)
	case lexer.NULL:
		p.advance()
		n = p.node(ast.NullLiteral, at, nil)
	case lexer.LPAREN:
		n = p.parseParenExprOrAggregate()
	case lexer.NEW:
		p.advance()
		typ := p.parseTypeMark()
		var qual *ast.Node
		if p.kind() == lexer.LPAREN {
			qual = p.parseOptionalActualParams()
		}
		if qual != nil {
			n = p.node(ast.Allocator, at, nil, typ, qual)
		} else {
			n = p.node(ast.Allocator, at, nil, typ)
		}
	case lexer.IDENTIFIER:
		n = p.node(ast.Identifier, at, p.identifierName())
	default:
		p.fatalf("expected an expression, got %s", p.describeCur())
		return nil
	}
	return p.parseNameTail(n)
}

// parseNameTail folds `.Sel`, `'Attr`, `(args)` and qualified-expression
// continuations onto a primary/name, left to right.
func (p *Parser) parseNameTail(n *ast.Node) *ast.Node {
	at := p.cur()
	for {
		switch p.kind() {
		case lexer.DOT:
			p.advance()
			if p.kind() == lexer.ALL {
				p.advance()
				n = p.node(ast.Dereference, at, nil, n)
				continue
			}
			rhs := p.node(ast.Identifier, p.cur(), p.identifierName())
			n = p.node(ast.SelectedComponent, at, nil, n, rhs)
		case lexer.APOSTROPHE:
			mark := p.mark()
			p.advance()
			if p.kind() == lexer.LPAREN {
				// qualified expression: T'(expr)
				p.advance()
				val := p.parseExpression()
				p.expect(lexer.RPAREN)
				n = p.node(ast.QualifiedExpr, at, nil, n, val)
				continue
			}
			if p.kind() != lexer.IDENTIFIER {
				p.reset(mark)
				return n
			}
			attr := p.identifierName()
			var args *ast.Node
			if p.kind() == lexer.LPAREN {
				args = p.parseOptionalActualParams()
			}
			if args != nil {
				n = p.node(ast.AttributeRef, at, attr, n, args)
			} else {
				n = p.node(ast.AttributeRef, at, attr, n)
			}
		case lexer.LPAREN:
			// Call, index, or slice; disambiguated semantically later
			// (spec §4.4's deferred call-vs-index ambiguity).
			mark := p.mark()
			p.advance()
			if p.kind() == lexer.RPAREN {
				p.reset(mark)
				return n
			}
			first := p.parseDiscreteRangeOrAssociation()
			if first.Kind == ast.RangeExpr {
				p.expect(lexer.RPAREN)
				n = p.node(ast.Slice, at, nil, n, first)
				continue
			}
			actuals := []*ast.Node{first}
			for p.accept(lexer.COMMA) {
				actuals = append(actuals, p.parseAssociation())
			}
			p.expect(lexer.RPAREN)
			argsList := p.node(ast.List, at, "actuals", actuals...)
			n = p.node(ast.FunctionCall, at, nil, n, argsList)
		default:
			return n
		}
	}
}

// parseDiscreteRangeOrAssociation distinguishes a slice bound (`lo..hi`)
// from a plain call argument/association inside a trailing `(...)`.
func (p *Parser) parseDiscreteRangeOrAssociation() *ast.Node {
	at := p.cur()
	if p.kind() == lexer.IDENTIFIER {
		peekMark := p.mark()
		assoc := p.parseAssociation()
		if assoc.Kind == ast.Association {
			return assoc
		}
		p.reset(peekMark)
	}
	e := p.parseExpression()
	if p.kind() == lexer.DOTDOT {
		p.advance()
		hi := p.parseExpression()
		return p.node(ast.RangeExpr, at, nil, e, hi)
	}
	return p.node(ast.Association, at, nil, nil, e)
}

// parseParenExprOrAggregate disambiguates `(expr)` from an aggregate:
// aggregates contain a comma, an arrow, or the `others` keyword directly
// inside the parens; a bare parenthesized expression does not.
func (p *Parser) parseParenExprOrAggregate() *ast.Node {
	at := p.expect(lexer.LPAREN)

	if p.kind() == lexer.OTHERS {
		return p.finishAggregate(at, nil)
	}

	mark := p.mark()
	first := p.parseAssociation()
	if first.Kind == ast.Association && (first.Child(0) != nil || p.kind() == lexer.COMMA) {
		return p.finishAggregate(at, first)
	}
	p.reset(mark)

	e := p.parseExpression()
	if p.kind() == lexer.COMMA || p.kind() == lexer.ARROW {
		p.reset(mark)
		assoc := p.parseAssociation()
		return p.finishAggregate(at, assoc)
	}
	p.expect(lexer.RPAREN)
	return e
}

func (p *Parser) finishAggregate(at lexer.Token, first *ast.Node) *ast.Node {
	var elems []*ast.Node
	if first != nil {
		elems = append(elems, first)
	} else {
		elems = append(elems, p.parseAssociation())
	}
	for p.accept(lexer.COMMA) {
		elems = append(elems, p.parseAssociation())
	}
	p.expect(lexer.RPAREN)
	return p.node(ast.Aggregate, at, nil, elems...)
}
