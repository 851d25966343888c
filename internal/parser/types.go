package parser

import (
	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
	"github.com/AdaDoom3/Ada83-sub000/internal/lexer"
)

// parseTypeMark parses a (possibly dotted) type name, used wherever the
// grammar calls for a type_mark rather than a full subtype_indication.
func (p *Parser) parseTypeMark() *ast.Node {
	return p.parseDottedName()
}

// parseSubtypeIndication parses `type_mark [constraint]`, where a
// constraint is a range, digits/delta spec, index constraint, or a
// discriminant constraint (spec §4.6 "Subtype constraints").
func (p *Parser) parseSubtypeIndication() *ast.Node {
	at := p.cur()
	mark := p.parseTypeMark()

	switch p.kind() {
	case lexer.RANGE:
		p.advance()
		lo := p.parseExpression()
		p.expect(lexer.DOTDOT)
		hi := p.parseExpression()
		return p.node(ast.SubtypeIndication, at, "range", mark, lo, hi)
	case lexer.DIGITS:
		p.advance()
		d := p.parseExpression()
		var rng *ast.Node
		if p.accept(lexer.RANGE) {
			lo := p.parseExpression()
			p.expect(lexer.DOTDOT)
			hi := p.parseExpression()
			rng = p.node(ast.RangeExpr, at, nil, lo, hi)
		}
		if rng != nil {
			return p.node(ast.SubtypeIndication, at, "digits", mark, d, rng)
		}
		return p.node(ast.SubtypeIndication, at, "digits", mark, d)
	case lexer.DELTA:
		p.advance()
		d := p.parseExpression()
		var rng *ast.Node
		if p.accept(lexer.RANGE) {
			lo := p.parseExpression()
			p.expect(lexer.DOTDOT)
			hi := p.parseExpression()
			rng = p.node(ast.RangeExpr, at, nil, lo, hi)
		}
		if rng != nil {
			return p.node(ast.SubtypeIndication, at, "delta", mark, d, rng)
		}
		return p.node(ast.SubtypeIndication, at, "delta", mark, d)
	case lexer.LPAREN:
		// Index constraint: `T(lo .. hi, lo2 .. hi2)`.
		p.advance()
		var ranges []*ast.Node
		ranges = append(ranges, p.parseDiscreteRange())
		for p.accept(lexer.COMMA) {
			ranges = append(ranges, p.parseDiscreteRange())
		}
		p.expect(lexer.RPAREN)
		return p.node(ast.SubtypeIndication, at, "index_constraint", append([]*ast.Node{mark}, ranges...)...)
	default:
		return p.node(ast.SubtypeIndication, at, "plain", mark)
	}
}

// parseDiscreteRange parses `expr .. expr` or a bare type_mark used as a
// range (e.g. an unconstrained index subtype in a constraint list).
func (p *Parser) parseDiscreteRange() *ast.Node {
	at := p.cur()
	mark := p.mark()
	e := p.parseSimpleExpressionOrName()
	if p.kind() == lexer.DOTDOT {
		p.advance()
		hi := p.parseExpression()
		return p.node(ast.RangeExpr, at, nil, e, hi)
	}
	if p.kind() == lexer.RANGE {
		// T range lo..hi
		p.reset(mark)
		return p.parseSubtypeIndication()
	}
	return e
}

// parseSimpleExpressionOrName parses an expression without consuming a
// trailing ".." so parseDiscreteRange can decide how to continue.
func (p *Parser) parseSimpleExpressionOrName() *ast.Node {
	return p.parseExpression()
}

// parseTypeDefinition dispatches on the type_definition's leading token
// (spec §4.6 "Type and subtype declarations").
func (p *Parser) parseTypeDefinition() *ast.Node {
	at := p.cur()
	switch p.kind() {
	case lexer.LPAREN:
		return p.parseEnumerationType()
	case lexer.RANGE:
		p.advance()
		lo := p.parseExpression()
		p.expect(lexer.DOTDOT)
		hi := p.parseExpression()
		return p.node(ast.IntegerRangeType, at, nil, lo, hi)
	case lexer.MOD:
		p.advance()
		m := p.parseExpression()
		return p.node(ast.IntegerRangeType, at, "mod", m)
	case lexer.DIGITS:
		p.advance()
		d := p.parseExpression()
		var rng *ast.Node
		if p.accept(lexer.RANGE) {
			lo := p.parseExpression()
			p.expect(lexer.DOTDOT)
			hi := p.parseExpression()
			rng = p.node(ast.RangeExpr, at, nil, lo, hi)
		}
		if rng != nil {
			return p.node(ast.FloatType, at, nil, d, rng)
		}
		return p.node(ast.FloatType, at, nil, d)
	case lexer.DELTA:
		p.advance()
		d := p.parseExpression()
		p.expect(lexer.RANGE)
		lo := p.parseExpression()
		p.expect(lexer.DOTDOT)
		hi := p.parseExpression()
		return p.node(ast.FixedType, at, nil, d, lo, hi)
	case lexer.ARRAY:
		return p.parseArrayType()
	case lexer.RECORD:
		return p.parseRecordType()
	case lexer.ACCESS:
		p.advance()
		designated := p.parseTypeMark()
		return p.node(ast.AccessType, at, nil, designated)
	case lexer.PRIVATE:
		p.advance()
		return p.node(ast.PrivateType, at, nil)
	case lexer.NEW:
		p.advance()
		parent := p.parseTypeMark()
		var rng *ast.Node
		if p.kind() == lexer.RANGE {
			p.advance()
			lo := p.parseExpression()
			p.expect(lexer.DOTDOT)
			hi := p.parseExpression()
			rng = p.node(ast.RangeExpr, at, nil, lo, hi)
		}
		if rng != nil {
			return p.node(ast.DerivedType, at, nil, parent, rng)
		}
		return p.node(ast.DerivedType, at, nil, parent)
	default:
		p.fatalf("expected a type definition, got %s", p.describeCur())
		return nil
	}
}

func (p *Parser) parseEnumerationType() *ast.Node {
	at := p.expect(lexer.LPAREN)
	var lits []*ast.Node
	lits = append(lits, p.parseEnumerationLiteral())
	for p.accept(lexer.COMMA) {
		lits = append(lits, p.parseEnumerationLiteral())
	}
	p.expect(lexer.RPAREN)
	return p.node(ast.EnumerationType, at, nil, lits...)
}

func (p *Parser) parseEnumerationLiteral() *ast.Node {
	at := p.cur()
	if p.kind() == lexer.CHARACTER_LITERAL {
		t := p.advance()
		return p.node(ast.CharLiteral, at, t.CodePoint)
	}
	return p.node(ast.Identifier, at, p.identifierName())
}

func (p *Parser) parseArrayType() *ast.Node {
	at := p.advance() // ARRAY
	p.expect(lexer.LPAREN)

	var indices []*ast.Node
	indices = append(indices, p.parseArrayIndex())
	for p.accept(lexer.COMMA) {
		indices = append(indices, p.parseArrayIndex())
	}
	p.expect(lexer.RPAREN)
	p.expect(lexer.OF)
	comp := p.parseSubtypeIndication()

	idxList := p.node(ast.List, at, "indices", indices...)
	return p.node(ast.ArrayType, at, nil, idxList, comp)
}

// parseArrayIndex parses one index subtype: either `T range <>` (the
// unconstrained form) or a discrete range/subtype for a constrained
// array.
func (p *Parser) parseArrayIndex() *ast.Node {
	at := p.cur()
	mark := p.mark()
	if p.kind() == lexer.IDENTIFIER {
		name := p.parseTypeMark()
		if p.kind() == lexer.RANGE {
			p.advance()
			if p.kind() == lexer.BOX {
				p.advance()
				return p.node(ast.SubtypeIndication, at, "unconstrained", name)
			}
			p.reset(mark)
		} else {
			return p.node(ast.SubtypeIndication, at, "plain", name)
		}
	}
	return p.parseDiscreteRange()
}

func (p *Parser) parseRecordType() *ast.Node {
	at := p.advance() // RECORD
	var comps []*ast.Node
	for p.kind() != lexer.END {
		if p.kind() == lexer.CASE {
			comps = append(comps, p.parseVariantPart())
			continue
		}
		comps = append(comps, p.parseComponentDecl())
	}
	p.expect(lexer.END)
	p.expect(lexer.RECORD)
	return p.node(ast.RecordType, at, nil, comps...)
}

func (p *Parser) parseComponentDecl() *ast.Node {
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
	p.expect(lexer.SEMICOLON)
	children := []*ast.Node{p.node(ast.List, at, "names", names...), typ}
	if def != nil {
		children = append(children, def)
	}
	return p.node(ast.ComponentDecl, at, nil, children...)
}

func (p *Parser) parseVariantPart() *ast.Node {
	at := p.advance() // CASE
	disc := p.identifierName()
	p.expect(lexer.IS)
	var variants []*ast.Node
	for p.kind() == lexer.WHEN {
		variants = append(variants, p.parseVariant())
	}
	p.expect(lexer.END)
	p.expect(lexer.CASE)
	p.expect(lexer.SEMICOLON)
	return p.node(ast.VariantPart, at, disc, variants...)
}

func (p *Parser) parseVariant() *ast.Node {
	at := p.advance() // WHEN
	var choices []*ast.Node
	choices = append(choices, p.parseChoice())
	for p.accept(lexer.VBAR) {
		choices = append(choices, p.parseChoice())
	}
	p.expect(lexer.ARROW)
	var comps []*ast.Node
	for p.kind() != lexer.WHEN && p.kind() != lexer.END {
		if p.kind() == lexer.CASE {
			comps = append(comps, p.parseVariantPart())
			continue
		}
		comps = append(comps, p.parseComponentDecl())
	}
	choiceList := p.node(ast.List, at, "choices", choices...)
	return p.node(ast.Variant, at, nil, append([]*ast.Node{choiceList}, comps...)...)
}
