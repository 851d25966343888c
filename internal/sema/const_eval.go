package sema

import (
	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
	"github.com/AdaDoom3/Ada83-sub000/internal/bignum"
	"github.com/AdaDoom3/Ada83-sub000/internal/lexer"
)

// EvalStatic attempts to fold n to a compile-time constant, the way
// spec §4.7 requires for range bounds, array lengths, and `constant`
// object initializers. It returns ok=false for anything involving a
// variable, a function call, or an operator this evaluator does not
// model (string/record/array aggregates are left to codegen).
func EvalStatic(n *ast.Node) (value bignum.Int, ok bool) {
	if n == nil {
		return bignum.Zero, false
	}
	switch n.Kind {
	case ast.IntegerLiteral:
		if v, ok := n.Data.(bignum.Int); ok {
			return v, true
		}
		return bignum.Zero, false
	case ast.UnaryOp:
		v, ok := EvalStatic(n.Child(0))
		if !ok {
			return bignum.Zero, false
		}
		switch n.Data {
		case lexer.MINUS:
			return v.Neg(), true
		case lexer.PLUS:
			return v, true
		case lexer.ABS:
			if v.Sign() < 0 {
				return v.Neg(), true
			}
			return v, true
		default:
			return bignum.Zero, false
		}
	case ast.BinaryOp:
		lv, lok := EvalStatic(n.Child(0))
		rv, rok := EvalStatic(n.Child(1))
		if !lok || !rok {
			return bignum.Zero, false
		}
		op, ok := n.Data.(lexer.Kind)
		if !ok {
			return bignum.Zero, false
		}
		switch op {
		case lexer.PLUS:
			return lv.Add(rv), true
		case lexer.MINUS:
			return lv.Sub(rv), true
		case lexer.STAR:
			return lv.Multiply(rv), true
		default:
			// Division, mod, rem and exponentiation are not folded:
			// an expression using them is treated as non-static here
			// and is evaluated at run time by the emitted code.
			return bignum.Zero, false
		}
	case ast.QualifiedExpr:
		return EvalStatic(n.Child(1))
	default:
		return bignum.Zero, false
	}
}

// InRange reports whether v falls within [lo, hi], both given as
// statically-evaluable expressions; ok is false if either bound could
// not be folded.
func InRange(v bignum.Int, lo, hi *ast.Node) (inRange bool, ok bool) {
	loV, lok := EvalStatic(lo)
	hiV, hok := EvalStatic(hi)
	if !lok || !hok {
		return false, false
	}
	return v.Sub(loV).Sign() >= 0 && v.Sub(hiV).Sign() <= 0, true
}
