package codegen

import (
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
	"github.com/AdaDoom3/Ada83-sub000/internal/bignum"
	"github.com/AdaDoom3/Ada83-sub000/internal/lexer"
	"github.com/AdaDoom3/Ada83-sub000/internal/sema"
)

// genExpr lowers an expression node to its SSA value, returning the
// (possibly new, for short-circuit operators) block execution continues
// in afterward — the same shape the teacher's genExpression uses for
// values that need extra basic blocks.
func (en *env) genExpr(b *ir.Block, n *ast.Node) (value.Value, *ir.Block) {
	if n == nil {
		return constant.NewInt(types.I64, 0), b
	}
	switch n.Kind {
	case ast.IntegerLiteral:
		return en.genIntLiteral(n), b
	case ast.RealLiteral:
		return en.genRealLiteral(n), b
	case ast.CharLiteral:
		cp, _ := n.Data.(rune)
		return constant.NewInt(types.I64, int64(cp)), b
	case ast.StringLiteral:
		s, _ := n.Data.(string)
		return en.genStringFatPtr(b, s)
	case ast.NullLiteral:
		return constant.NewNull(ptrType), b
	case ast.Identifier:
		return en.genIdentifierLoad(b, n)
	case ast.SelectedComponent:
		return en.genSelectedComponentLoad(b, n)
	case ast.IndexedComponent:
		addr, nb := en.genIndexAddr(b, n)
		elemTy := llvmType(typeInfoOf(n))
		return nb.NewLoad(elemTy, addr), nb
	case ast.BinaryOp:
		return en.genBinaryOp(b, n)
	case ast.UnaryOp:
		return en.genUnaryOp(b, n)
	case ast.FunctionCall:
		return en.genCall(b, n)
	case ast.QualifiedExpr:
		return en.genExpr(b, n.Child(1))
	case ast.AttributeRef:
		return en.genAttribute(b, n)
	case ast.Aggregate:
		return en.genAggregate(b, n)
	case ast.Allocator:
		return en.genAllocator(b, n)
	case ast.Dereference:
		inner, nb := en.genExpr(b, n.Child(0))
		return nb.NewLoad(llvmType(typeInfoOf(n)), inner), nb
	case ast.CheckExpr:
		return en.genCheckExpr(b, n)
	default:
		return constant.NewInt(types.I64, 0), b
	}
}

// genStringFatPtr builds the {ptr, {i64 lo, i64 hi}} fat pointer a string
// literal's unconstrained-array type requires: the interned C string's
// address as the data pointer, bounds 1..len(s) matching Ada 83's
// `String` index convention. Built via alloca/GEP/store/load, the same
// shape genRecordFieldAddr uses to address a struct field, since the
// fat-pointer struct has no literal constructor available here.
func (en *env) genStringFatPtr(b *ir.Block, s string) (value.Value, *ir.Block) {
	ptr := en.e.cstringPtr(b, s)
	fatTy := fatArrayType()
	slot := b.NewAlloca(fatTy)

	ptrField := b.NewGetElementPtr(fatTy, slot, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	b.NewStore(ptr, ptrField)

	boundsField := b.NewGetElementPtr(fatTy, slot, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 1))
	loField := b.NewGetElementPtr(boundsType, boundsField, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	b.NewStore(constant.NewInt(types.I64, 1), loField)
	hiField := b.NewGetElementPtr(boundsType, boundsField, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 1))
	b.NewStore(constant.NewInt(types.I64, int64(len(s))), hiField)

	return b.NewLoad(fatTy, slot), b
}

// genCheckExpr lowers a constraint check sema.chk inserted around an
// assignment's value: test the value against the target type's static
// bounds and raise Constraint_Error before the store if it is out of
// range.
func (en *env) genCheckExpr(b *ir.Block, n *ast.Node) (value.Value, *ir.Block) {
	val, cur := en.genExpr(b, n.Child(0))
	ti := typeInfoOf(n)
	if ti == nil {
		return val, cur
	}
	lo, okLo := ti.LowBound.(int64)
	hi, okHi := ti.HighBound.(int64)
	if !okLo || !okHi {
		return val, cur
	}

	geLo := cur.NewICmp(enum.IPredSGE, val, constant.NewInt(types.I64, lo))
	leHi := cur.NewICmp(enum.IPredSLE, val, constant.NewInt(types.I64, hi))
	inRange := cur.NewAnd(geLo, leHi)

	okBlock := en.fn.NewBlock(blockName("chk.ok"))
	raiseBlock := en.fn.NewBlock(blockName("chk.raise"))
	cur.NewCondBr(inRange, okBlock, raiseBlock)

	msg := en.e.cstringPtr(raiseBlock, "Constraint_Error")
	raiseBlock.NewCall(en.e.rt.raise, msg)
	raiseBlock.NewUnreachable()

	return val, okBlock
}

func (en *env) genIntLiteral(n *ast.Node) value.Value {
	big, ok := n.Data.(bignum.Int)
	if !ok {
		return constant.NewInt(types.I64, 0)
	}
	v, fits := big.Int64()
	if !fits {
		// Values outside int64 range are clamped; Ada 83 INTEGER is
		// narrower than the arbitrary-precision literals the lexer keeps,
		// and this emitter's Value kinds top out at i64 (spec §4.10).
		if big.Sign() < 0 {
			v = -1 << 63
		} else {
			v = 1<<63 - 1
		}
	}
	return constant.NewInt(types.I64, v)
}

func (en *env) genRealLiteral(n *ast.Node) value.Value {
	text, _ := n.Data.(string)
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		f = 0
	}
	return constant.NewFloat(types.Double, f)
}

// genIdentifierLoad resolves name, loading from a local alloca, an outer
// frame slot reached through the static link, or a package-level global.
func (en *env) genIdentifierLoad(b *ir.Block, n *ast.Node) (value.Value, *ir.Block) {
	addr, elemTy, ok := en.resolveAddr(b, n)
	if !ok {
		return constant.NewInt(types.I64, 0), b
	}
	return b.NewLoad(elemTy, addr), b
}

// resolveAddr finds the storage address a name denotes: a local, an
// outer-frame local reached by static link, or a global object/constant.
func (en *env) resolveAddr(b *ir.Block, n *ast.Node) (value.Value, types.Type, bool) {
	sym := symbolOf(n)
	if sym == nil {
		return nil, nil, false
	}
	if addr, ok := en.locals[sym]; ok {
		return addr, en.localTy[sym], true
	}
	if owner, ok := en.frameOwners[sym]; ok && en.frame != nil {
		addr := en.frame.resolveOuter(b, owner, sym)
		if addr != nil {
			return addr, llvmType(typeInfoOf(n)), true
		}
	}
	if g, ok := en.e.globals[mangledGlobalName(sym)]; ok {
		return g, g.ContentType, true
	}
	return nil, nil, false
}

func mangledGlobalName(sym *sema.Symbol) string {
	if sym == nil {
		return ""
	}
	return sym.Name
}

func (en *env) genSelectedComponentLoad(b *ir.Block, n *ast.Node) (value.Value, *ir.Block) {
	addr, nb := en.genRecordFieldAddr(b, n)
	if addr == nil {
		return constant.NewInt(types.I64, 0), nb
	}
	elemTy := llvmType(typeInfoOf(n))
	return nb.NewLoad(elemTy, addr), nb
}

// genRecordFieldAddr computes the address of record.field, via GEP into
// the record's flattened struct layout.
func (en *env) genRecordFieldAddr(b *ir.Block, n *ast.Node) (value.Value, *ir.Block) {
	baseNode := n.Child(0)
	fieldNode := n.Child(1)
	baseTy := typeInfoOf(baseNode)
	if baseTy == nil || baseTy.Kind != sema.TypeRecord {
		v, nb := en.genExpr(b, baseNode)
		return v, nb
	}
	baseAddr, nb := en.genLValueAddr(b, baseNode)
	fieldName, _ := fieldNode.Data.(string)
	idx := fieldIndex(baseTy, fieldName)
	structTy := llvmType(baseTy)
	addr := nb.NewGetElementPtr(structTy, baseAddr, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int32(idx)))
	return addr, nb
}

func fieldIndex(t *sema.TypeInfo, name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return 0
}

// genLValueAddr computes the storage address of an assignable expression
// (identifier, selected component, or indexed component).
func (en *env) genLValueAddr(b *ir.Block, n *ast.Node) (value.Value, *ir.Block) {
	switch n.Kind {
	case ast.Identifier:
		addr, _, ok := en.resolveAddr(b, n)
		if !ok {
			return constant.NewNull(ptrType), b
		}
		return addr, b
	case ast.SelectedComponent:
		return en.genRecordFieldAddr(b, n)
	case ast.IndexedComponent:
		return en.genIndexAddr(b, n)
	case ast.Dereference:
		return en.genExpr(b, n.Child(0))
	default:
		v, nb := en.genExpr(b, n)
		return v, nb
	}
}

// genIndexAddr computes the element address of arr(i), indexing through
// the fat-pointer data field and subtracting the array's low bound.
func (en *env) genIndexAddr(b *ir.Block, n *ast.Node) (value.Value, *ir.Block) {
	arrNode := n.Child(0)
	argsList := n.Child(1)
	arrTy := typeInfoOf(arrNode)

	arrAddr, nb := en.genLValueAddr(b, arrNode)
	fat := nb.NewLoad(fatArrayType(), arrAddr)
	data := nb.NewExtractValue(fat, 0)

	var idxVal value.Value = constant.NewInt(types.I64, 0)
	if argsList != nil && len(argsList.Children) > 0 {
		assoc := argsList.Child(0)
		idxExpr := assoc
		if assoc.Kind == ast.Association {
			idxExpr = assoc.Child(1)
		}
		idxVal, nb = en.genExpr(nb, idxExpr)
	}

	lo := constant.NewInt(types.I64, 0)
	if arrTy != nil && len(arrTy.IndexTypes) > 0 {
		if lb, ok := arrTy.IndexTypes[0].LowBound.(int64); ok {
			lo = constant.NewInt(types.I64, lb)
		}
	}
	offset := nb.NewSub(idxVal, lo)

	var elemTy types.Type = types.I64
	if arrTy != nil {
		elemTy = llvmType(arrTy.Element)
	}
	addr := nb.NewGetElementPtr(elemTy, data, offset)
	return addr, nb
}

func opKind(n *ast.Node) (lexer.Kind, bool) {
	k, ok := n.Data.(lexer.Kind)
	return k, ok
}

func (en *env) genBinaryOp(b *ir.Block, n *ast.Node) (value.Value, *ir.Block) {
	lhsNode, rhsNode := n.Child(0), n.Child(1)

	if s, ok := n.Data.(string); ok && s == "in" {
		return en.genMembership(b, lhsNode, rhsNode)
	}

	k, isTok := opKind(n)
	if isTok && (k == lexer.AND_THEN || k == lexer.OR_ELSE) {
		return en.genShortCircuit(b, k, lhsNode, rhsNode)
	}

	lhs, b1 := en.genExpr(b, lhsNode)
	rhs, b2 := en.genExpr(b1, rhsNode)

	floaty := isFloatType(lhs.Type()) || isFloatType(rhs.Type())
	if floaty {
		lhs = toDouble(b2, lhs)
		rhs = toDouble(b2, rhs)
	}

	if !isTok {
		return constant.NewInt(types.I64, 0), b2
	}

	switch k {
	case lexer.PLUS:
		if floaty {
			return b2.NewFAdd(lhs, rhs), b2
		}
		return b2.NewAdd(lhs, rhs), b2
	case lexer.MINUS:
		if floaty {
			return b2.NewFSub(lhs, rhs), b2
		}
		return b2.NewSub(lhs, rhs), b2
	case lexer.AMP:
		// String/array concatenation is a placeholder: it returns a
		// zero-byte scratch allocation and copies neither operand.
		return b2.NewCall(en.e.rt.ssAlloc, constant.NewInt(types.I64, 0)), b2
	case lexer.STAR:
		if floaty {
			return b2.NewFMul(lhs, rhs), b2
		}
		return b2.NewMul(lhs, rhs), b2
	case lexer.SLASH:
		if floaty {
			return b2.NewFDiv(lhs, rhs), b2
		}
		return en.genGuardedDiv(b2, lhs, rhs, false)
	case lexer.MOD, lexer.REM:
		return en.genGuardedDiv(b2, lhs, rhs, true)
	case lexer.EXPON:
		return b2.NewCall(en.e.rt.powi, lhs, rhs), b2
	case lexer.EQ:
		if floaty {
			return b2.NewFCmp(enum.FPredOEQ, lhs, rhs), b2
		}
		return b2.NewICmp(enum.IPredEQ, lhs, rhs), b2
	case lexer.NE:
		if floaty {
			return b2.NewFCmp(enum.FPredONE, lhs, rhs), b2
		}
		return b2.NewICmp(enum.IPredNE, lhs, rhs), b2
	case lexer.LT:
		if floaty {
			return b2.NewFCmp(enum.FPredOLT, lhs, rhs), b2
		}
		return b2.NewICmp(enum.IPredSLT, lhs, rhs), b2
	case lexer.LE:
		if floaty {
			return b2.NewFCmp(enum.FPredOLE, lhs, rhs), b2
		}
		return b2.NewICmp(enum.IPredSLE, lhs, rhs), b2
	case lexer.GT:
		if floaty {
			return b2.NewFCmp(enum.FPredOGT, lhs, rhs), b2
		}
		return b2.NewICmp(enum.IPredSGT, lhs, rhs), b2
	case lexer.GE:
		if floaty {
			return b2.NewFCmp(enum.FPredOGE, lhs, rhs), b2
		}
		return b2.NewICmp(enum.IPredSGE, lhs, rhs), b2
	case lexer.AND:
		return b2.NewAnd(lhs, rhs), b2
	case lexer.OR:
		return b2.NewOr(lhs, rhs), b2
	case lexer.XOR:
		return b2.NewXor(lhs, rhs), b2
	default:
		return constant.NewInt(types.I64, 0), b2
	}
}

// genGuardedDiv lowers integer "/" or "mod"/"rem" with the zero-divisor
// check Ada 83 requires: a zero right operand raises Constraint_Error
// before the SDiv/SRem would trap.
func (en *env) genGuardedDiv(b *ir.Block, lhs, rhs value.Value, isRem bool) (value.Value, *ir.Block) {
	isZero := b.NewICmp(enum.IPredEQ, rhs, constant.NewInt(types.I64, 0))

	okBlock := en.fn.NewBlock(blockName("div.ok"))
	raiseBlock := en.fn.NewBlock(blockName("div.raise"))
	b.NewCondBr(isZero, raiseBlock, okBlock)

	msg := en.e.cstringPtr(raiseBlock, "Constraint_Error")
	raiseBlock.NewCall(en.e.rt.raise, msg)
	raiseBlock.NewUnreachable()

	if isRem {
		return okBlock.NewSRem(lhs, rhs), okBlock
	}
	return okBlock.NewSDiv(lhs, rhs), okBlock
}

func toDouble(b *ir.Block, v value.Value) value.Value {
	if isFloatType(v.Type()) {
		return v
	}
	return b.NewSIToFP(v, types.Double)
}

// genShortCircuit lowers `and then`/`or else` with a branch so the right
// operand is only evaluated when needed.
func (en *env) genShortCircuit(b *ir.Block, k lexer.Kind, lhsNode, rhsNode *ast.Node) (value.Value, *ir.Block) {
	lhs, b1 := en.genExpr(b, lhsNode)
	rhsBlock := en.fn.NewBlock(blockName("sc.rhs"))
	joinBlock := en.fn.NewBlock(blockName("sc.join"))

	if k == lexer.AND_THEN {
		b1.NewCondBr(lhs, rhsBlock, joinBlock)
	} else {
		b1.NewCondBr(lhs, joinBlock, rhsBlock)
	}

	rhs, rhsEnd := en.genExpr(rhsBlock, rhsNode)
	rhsEnd.NewBr(joinBlock)

	phi := joinBlock.NewPhi(ir.NewIncoming(lhs, b1), ir.NewIncoming(rhs, rhsEnd))
	return phi, joinBlock
}

// genMembership lowers `x in lo..hi` / `x in Subtype`.
func (en *env) genMembership(b *ir.Block, lhsNode, rngNode *ast.Node) (value.Value, *ir.Block) {
	x, b1 := en.genExpr(b, lhsNode)
	if rngNode.Kind == ast.RangeExpr {
		lo, b2 := en.genExpr(b1, rngNode.Child(0))
		hi, b3 := en.genExpr(b2, rngNode.Child(1))
		geLo := b3.NewICmp(enum.IPredSGE, x, lo)
		leHi := b3.NewICmp(enum.IPredSLE, x, hi)
		return b3.NewAnd(geLo, leHi), b3
	}
	ti := typeInfoOf(rngNode)
	if ti == nil {
		return constant.NewInt(types.I1, 1), b1
	}
	lo, _ := ti.LowBound.(int64)
	hi, _ := ti.HighBound.(int64)
	geLo := b1.NewICmp(enum.IPredSGE, x, constant.NewInt(types.I64, lo))
	leHi := b1.NewICmp(enum.IPredSLE, x, constant.NewInt(types.I64, hi))
	return b1.NewAnd(geLo, leHi), b1
}

func (en *env) genUnaryOp(b *ir.Block, n *ast.Node) (value.Value, *ir.Block) {
	operand, nb := en.genExpr(b, n.Child(0))
	if s, ok := n.Data.(string); ok && s == "not" {
		if isFloatType(operand.Type()) {
			return operand, nb
		}
		return nb.NewXor(operand, constant.NewInt(types.I1, 1)), nb
	}
	k, ok := n.Data.(lexer.Kind)
	if !ok {
		return operand, nb
	}
	switch k {
	case lexer.MINUS:
		if isFloatType(operand.Type()) {
			return nb.NewFSub(constant.NewFloat(types.Double, 0), operand), nb
		}
		return nb.NewSub(constant.NewInt(types.I64, 0), operand), nb
	case lexer.PLUS:
		return operand, nb
	case lexer.NOT:
		return nb.NewXor(operand, constant.NewInt(types.I1, 1)), nb
	case lexer.ABS:
		if isFloatType(operand.Type()) {
			neg := nb.NewFSub(constant.NewFloat(types.Double, 0), operand)
			isNeg := nb.NewFCmp(enum.FPredOLT, operand, constant.NewFloat(types.Double, 0))
			return en.selectValue(nb, isNeg, neg, operand), nb
		}
		neg := nb.NewSub(constant.NewInt(types.I64, 0), operand)
		isNeg := nb.NewICmp(enum.IPredSLT, operand, constant.NewInt(types.I64, 0))
		return en.selectValue(nb, isNeg, neg, operand), nb
	default:
		return operand, nb
	}
}

// selectValue emits the diamond a `select`-less llir/llvm build needs to
// pick between two values under a condition.
func (en *env) selectValue(b *ir.Block, cond, whenTrue, whenFalse value.Value) value.Value {
	thenB := en.fn.NewBlock(blockName("sel.then"))
	elseB := en.fn.NewBlock(blockName("sel.else"))
	joinB := en.fn.NewBlock(blockName("sel.join"))
	b.NewCondBr(cond, thenB, elseB)
	thenB.NewBr(joinB)
	elseB.NewBr(joinB)
	return joinB.NewPhi(ir.NewIncoming(whenTrue, thenB), ir.NewIncoming(whenFalse, elseB))
}

func (en *env) genCall(b *ir.Block, n *ast.Node) (value.Value, *ir.Block) {
	calleeNode := n.Child(0)
	argsList := n.Child(1)
	sym := symbolOf(calleeNode)

	var args []value.Value
	cur := b
	for _, a := range argsList.Children {
		arg := a
		if a.Kind == ast.Association {
			arg = a.Child(1)
		}
		var v value.Value
		v, cur = en.genExpr(cur, arg)
		args = append(args, v)
	}

	if fn, ok := en.e.funcs[sym]; ok {
		if owner, ok := en.frameOwners[sym]; ok && en.frame != nil {
			args = append(args, en.frame.reach(cur, owner))
		}
		return cur.NewCall(fn, args...), cur
	}

	if fn, ok := en.e.builtins[calleeName(sym, calleeNode)]; ok {
		return cur.NewCall(fn, args...), cur
	}

	en.e.reportf(n, "unresolved call to %q", calleeName(sym, calleeNode))
	return constant.NewInt(types.I64, 0), cur
}

func calleeName(sym *sema.Symbol, calleeNode *ast.Node) string {
	if sym != nil {
		return sym.Name
	}
	return flattenName(calleeNode)
}

func (en *env) genAttribute(b *ir.Block, n *ast.Node) (value.Value, *ir.Block) {
	attr, _ := n.Data.(string)
	prefix := n.Child(0)
	ti := typeInfoOf(prefix)

	switch attr {
	case "First":
		if ti != nil {
			if lb, ok := ti.LowBound.(int64); ok {
				return constant.NewInt(types.I64, lb), b
			}
		}
	case "Last":
		if ti != nil {
			if hb, ok := ti.HighBound.(int64); ok {
				return constant.NewInt(types.I64, hb), b
			}
		}
	case "Succ":
		v, nb := en.genExpr(b, n.Child(1).Child(0))
		return nb.NewAdd(v, constant.NewInt(types.I64, 1)), nb
	case "Pred":
		v, nb := en.genExpr(b, n.Child(1).Child(0))
		return nb.NewSub(v, constant.NewInt(types.I64, 1)), nb
	case "Image":
		buf := b.NewCall(en.e.rt.ssAlloc, constant.NewInt(types.I64, 32))
		v, nb := en.genExpr(b, n.Child(0))
		nb.NewCall(en.e.rt.imageInt, v, buf)
		return buf, nb
	case "Value":
		v, nb := en.genExpr(b, n.Child(1).Child(0))
		return nb.NewCall(en.e.rt.valueInt, v), nb
	}
	return constant.NewInt(types.I64, 0), b
}

func (en *env) genAggregate(b *ir.Block, n *ast.Node) (value.Value, *ir.Block) {
	ti := typeInfoOf(n)
	structTy, ok := llvmType(ti).(*types.StructType)
	if !ok {
		return constant.NewInt(types.I64, 0), b
	}
	fields := make([]constant.Constant, len(structTy.Fields))
	for i, ft := range structTy.Fields {
		fields[i] = zeroOf(ft)
	}
	return constant.NewStruct(structTy, fields...), b
}

func (en *env) genAllocator(b *ir.Block, n *ast.Node) (value.Value, *ir.Block) {
	ti := typeInfoOf(n)
	elemTy := llvmType(ti)
	size := int64(8)
	if it, ok := elemTy.(*types.IntType); ok {
		size = int64(it.BitSize / 8)
	}
	ptr := b.NewCall(en.e.rt.malloc, constant.NewInt(types.I64, size))
	return ptr, b
}

func blockName(prefix string) string {
	return prefix
}
