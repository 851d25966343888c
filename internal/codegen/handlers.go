package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
)

// genProtectedBody lowers a statement sequence together with its
// `exception ... end;` handlers, when present, via the setjmp/longjmp
// chain __ada_raise walks (spec §4.11). With no handlers it is exactly
// genStmtSequence.
func (en *env) genProtectedBody(b *ir.Block, stmts, handlers *ast.Node) *ir.Block {
	if handlers == nil || len(handlers.Children) == 0 {
		return en.genStmtSequence(b, stmts)
	}

	rt := en.e.rt
	ehBuf := b.NewAlloca(types.NewArray(uint64(ehEntrySize), types.I8))
	prev := b.NewLoad(ptrType, rt.ehCur)
	b.NewStore(prev, ehBuf)
	b.NewStore(ehBuf, rt.ehCur)
	jmpBuf := b.NewGetElementPtr(types.I8, ehBuf, constant.NewInt(types.I64, 8))
	hit := b.NewCall(rt.setjmp, jmpBuf)
	isFirstPass := b.NewICmp(enum.IPredEQ, hit, constant.NewInt(types.I32, 0))

	bodyBlock := en.fn.NewBlock(blockName("try.body"))
	handleBlock := en.fn.NewBlock(blockName("try.handlers"))
	joinBlock := en.fn.NewBlock(blockName("try.end"))
	b.NewCondBr(isFirstPass, bodyBlock, handleBlock)

	if out := en.genStmtSequence(bodyBlock, stmts); out != nil {
		out.NewStore(prev, rt.ehCur)
		out.NewBr(joinBlock)
	}

	cur := handleBlock
	exVal := cur.NewLoad(ptrType, rt.exCur)
	matched := false
	for _, h := range handlers.Children {
		choices := h.Child(0)
		body := h.Child(1)
		isOthers := len(choices.Children) > 0 && choices.Children[0].Kind == ast.OthersChoice
		if isOthers {
			if out := en.genStmtSequence(cur, body); out != nil {
				out.NewStore(prev, rt.ehCur)
				out.NewBr(joinBlock)
			}
			matched = true
			break
		}

		matchBlock := en.fn.NewBlock(blockName("handler"))
		nextBlock := en.fn.NewBlock(blockName("handler.next"))
		var cond value.Value
		for _, c := range choices.Children {
			name := flattenName(c)
			eq := cur.NewICmp(enum.IPredEQ, exVal, en.e.cstringPtr(cur, name))
			if cond == nil {
				cond = eq
			} else {
				cond = cur.NewOr(cond, eq)
			}
		}
		cur.NewCondBr(cond, matchBlock, nextBlock)
		if out := en.genStmtSequence(matchBlock, body); out != nil {
			out.NewStore(prev, rt.ehCur)
			out.NewBr(joinBlock)
		}
		cur = nextBlock
	}
	if !matched {
		cur.NewStore(prev, rt.ehCur)
		cur.NewCall(rt.raise, exVal)
		cur.NewUnreachable()
	}

	return joinBlock
}
