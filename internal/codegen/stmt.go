package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
	"github.com/AdaDoom3/Ada83-sub000/internal/sema"
)

// exitTarget is one enclosing loop's exit block, named when the loop
// carries a label so a labeled `exit Name;` can reach past inner loops.
type exitTarget struct {
	label string
	block *ir.Block
}

// genStmtSequence lowers every statement in seq in order, stopping early
// if a statement terminates its block (return/exit/goto/raise). It
// returns the block later statements of the surrounding construct should
// continue emitting into, or nil if control cannot fall through.
func (en *env) genStmtSequence(b *ir.Block, seq *ast.Node) *ir.Block {
	if seq == nil {
		return b
	}
	cur := b
	for _, stmt := range seq.Children {
		if cur == nil {
			break
		}
		cur = en.genStmt(cur, stmt)
	}
	return cur
}

func (en *env) genStmt(b *ir.Block, n *ast.Node) *ir.Block {
	switch n.Kind {
	case ast.NullStmt:
		return b
	case ast.AssignStmt:
		return en.genAssign(b, n)
	case ast.CodeStmt:
		_, nb := en.genExpr(b, n.Child(0))
		return nb
	case ast.IfStmt:
		return en.genIf(b, n)
	case ast.CaseStmt:
		return en.genCase(b, n)
	case ast.LoopStmt:
		return en.genLoop(b, n, "")
	case ast.LabelStmt:
		return en.genLabel(b, n)
	case ast.Block:
		return en.genBlock(b, n)
	case ast.ExitStmt:
		return en.genExit(b, n)
	case ast.ReturnStmt:
		return en.genReturn(b, n)
	case ast.GotoStmt:
		name, _ := n.Data.(string)
		b.NewBr(en.ensureLabel(name))
		return nil
	case ast.RaiseStmt:
		return en.genRaise(b, n)
	case ast.AcceptStmt:
		return en.genAccept(b, n)
	case ast.SelectStmt:
		return en.genSelect(b, n)
	case ast.DelayStmt:
		return en.genDelay(b, n)
	case ast.AbortStmt:
		return b
	default:
		return b
	}
}

func (en *env) genAssign(b *ir.Block, n *ast.Node) *ir.Block {
	targetNode, valNode := n.Child(0), n.Child(1)
	addr, b1 := en.genLValueAddr(b, targetNode)
	val, b2 := en.genExpr(b1, valNode)
	b2.NewStore(val, addr)
	return b2
}

func (en *env) genIf(b *ir.Block, n *ast.Node) *ir.Block {
	nElsif, _ := n.Data.(int)
	cond := n.Child(0)
	thenSeq := n.Child(1)
	elsifs := n.Children[2 : 2+nElsif]
	hasElse := len(n.Children) > 2+nElsif
	var elseSeq *ast.Node
	if hasElse {
		elseSeq = n.Children[len(n.Children)-1]
	}

	joinBlock := en.fn.NewBlock(blockName("if.end"))

	condVal, b1 := en.genExpr(b, cond)
	thenBlock := en.fn.NewBlock(blockName("if.then"))
	nextCondBlock := en.fn.NewBlock(blockName("if.next"))
	b1.NewCondBr(condVal, thenBlock, nextCondBlock)

	if out := en.genStmtSequence(thenBlock, thenSeq); out != nil {
		out.NewBr(joinBlock)
	}

	cur := nextCondBlock
	for _, ei := range elsifs {
		ec, eseq := ei.Child(0), ei.Child(1)
		ecVal, curAfter := en.genExpr(cur, ec)
		eThen := en.fn.NewBlock(blockName("if.then"))
		eNext := en.fn.NewBlock(blockName("if.next"))
		curAfter.NewCondBr(ecVal, eThen, eNext)
		if out := en.genStmtSequence(eThen, eseq); out != nil {
			out.NewBr(joinBlock)
		}
		cur = eNext
	}

	if elseSeq != nil {
		if out := en.genStmtSequence(cur, elseSeq); out != nil {
			out.NewBr(joinBlock)
		}
	} else {
		cur.NewBr(joinBlock)
	}

	return joinBlock
}

// genCase lowers a case statement as a chain of equality tests against
// each alternative's choices, falling through to an `others` alternative
// when present. Ranges and discrete-choice lists beyond a literal value
// compare against the first choice only.
func (en *env) genCase(b *ir.Block, n *ast.Node) *ir.Block {
	sel := n.Child(0)
	alts := n.Children[1:]
	selVal, cur := en.genExpr(b, sel)
	joinBlock := en.fn.NewBlock(blockName("case.end"))

	for _, alt := range alts {
		choices := alt.Child(0)
		body := alt.Child(1)

		isOthers := false
		for _, c := range choices.Children {
			if c.Kind == ast.OthersChoice {
				isOthers = true
			}
		}
		if isOthers {
			if out := en.genStmtSequence(cur, body); out != nil {
				out.NewBr(joinBlock)
			}
			cur = nil
			break
		}

		matchBlock := en.fn.NewBlock(blockName("case.alt"))
		nextBlock := en.fn.NewBlock(blockName("case.next"))
		choiceVal, curAfter := en.genExpr(cur, choices.Child(0))
		eq := curAfter.NewICmp(enum.IPredEQ, selVal, choiceVal)
		curAfter.NewCondBr(eq, matchBlock, nextBlock)
		if out := en.genStmtSequence(matchBlock, body); out != nil {
			out.NewBr(joinBlock)
		}
		cur = nextBlock
	}

	if cur != nil {
		cur.NewBr(joinBlock)
	}
	return joinBlock
}

// genLoop lowers the bare/while/for loop forms into a head/body/exit
// block triple, pushing the exit block so a nested `exit` can reach it.
func (en *env) genLoop(b *ir.Block, n *ast.Node, label string) *ir.Block {
	var iter, body *ast.Node
	if len(n.Children) == 2 {
		iter, body = n.Child(0), n.Child(1)
	} else {
		body = n.Child(0)
	}

	headBlock := en.fn.NewBlock(blockName("loop.head"))
	bodyBlock := en.fn.NewBlock(blockName("loop.body"))
	exitBlock := en.fn.NewBlock(blockName("loop.exit"))

	b.NewBr(headBlock)
	en.exitStack = append(en.exitStack, exitTarget{label: label, block: exitBlock})
	defer func() { en.exitStack = en.exitStack[:len(en.exitStack)-1] }()

	switch {
	case iter == nil:
		headBlock.NewBr(bodyBlock)
		if out := en.genStmtSequence(bodyBlock, body); out != nil {
			out.NewBr(headBlock)
		}
	case iter.Kind == ast.IterWhile:
		condVal, condEnd := en.genExpr(headBlock, iter.Child(0))
		condEnd.NewCondBr(condVal, bodyBlock, exitBlock)
		if out := en.genStmtSequence(bodyBlock, body); out != nil {
			out.NewBr(headBlock)
		}
	case iter.Kind == ast.IterFor:
		en.genForLoop(headBlock, bodyBlock, exitBlock, iter, body)
	}

	return exitBlock
}

// genForLoop lowers `for I in [reverse] lo..hi loop`: I is a fresh i64
// slot, tested and stepped in a dedicated check block so `exit` can jump
// straight to exitBlock without re-entering the step.
func (en *env) genForLoop(headBlock, bodyBlock, exitBlock *ir.Block, iter, body *ast.Node) {
	varNode := iter.Child(0)
	rng := iter.Child(1)
	reverse := iter.Data == "reverse"

	sym := symbolOf(varNode)
	slot := headBlock.NewAlloca(types.I64)
	if sym != nil {
		en.locals[sym] = slot
		en.localTy[sym] = types.I64
	}

	lo, b1 := en.genExpr(headBlock, rng.Child(0))
	hi, b2 := en.genExpr(b1, rng.Child(1))
	if reverse {
		b2.NewStore(hi, slot)
	} else {
		b2.NewStore(lo, slot)
	}

	checkBlock := en.fn.NewBlock(blockName("for.check"))
	stepBlock := en.fn.NewBlock(blockName("for.step"))
	b2.NewBr(checkBlock)

	cur := checkBlock.NewLoad(types.I64, slot)
	var inRange value.Value
	if reverse {
		inRange = checkBlock.NewICmp(enum.IPredSGE, cur, lo)
	} else {
		inRange = checkBlock.NewICmp(enum.IPredSLE, cur, hi)
	}
	checkBlock.NewCondBr(inRange, bodyBlock, exitBlock)

	if out := en.genStmtSequence(bodyBlock, body); out != nil {
		out.NewBr(stepBlock)
	}

	cur2 := stepBlock.NewLoad(types.I64, slot)
	if reverse {
		stepBlock.NewStore(stepBlock.NewSub(cur2, constant.NewInt(types.I64, 1)), slot)
	} else {
		stepBlock.NewStore(stepBlock.NewAdd(cur2, constant.NewInt(types.I64, 1)), slot)
	}
	stepBlock.NewBr(checkBlock)
}

// ensureLabel returns the block a goto/label name branches to, creating
// it the first time either a GotoStmt or a LabelStmt mentions it so
// forward jumps resolve without a separate label-collection pass.
func (en *env) ensureLabel(name string) *ir.Block {
	if blk, ok := en.labels[name]; ok {
		return blk
	}
	blk := en.fn.NewBlock("L_" + name)
	en.labels[name] = blk
	return blk
}

func (en *env) genLabel(b *ir.Block, n *ast.Node) *ir.Block {
	name, _ := n.Data.(string)
	target := en.ensureLabel(name)
	if b != nil {
		b.NewBr(target)
	}
	return en.genStmt(target, n.Child(0))
}

// genBlock lowers a `declare ... begin ... end;` block: its declarations
// extend the current frame's locals for the duration of the block.
func (en *env) genBlock(b *ir.Block, n *ast.Node) *ir.Block {
	decls, stmts := n.Child(0), n.Child(1)
	cur := en.genDeclarativePart(b, decls)
	return en.genStmtSequence(cur, stmts)
}

// genExit lowers `exit [Name] [when Cond];`, branching to the named (or
// innermost) loop's exit block, conditionally when a when-clause is
// present.
func (en *env) genExit(b *ir.Block, n *ast.Node) *ir.Block {
	var label string
	var condNode *ast.Node
	for _, c := range n.Children {
		if c.Kind == ast.Identifier {
			label, _ = c.Data.(string)
		} else {
			condNode = c
		}
	}

	target := en.findExitTarget(label)
	if target == nil {
		return b
	}

	if condNode == nil {
		b.NewBr(target)
		return nil
	}

	condVal, b1 := en.genExpr(b, condNode)
	contBlock := en.fn.NewBlock(blockName("exit.cont"))
	b1.NewCondBr(condVal, target, contBlock)
	return contBlock
}

func (en *env) findExitTarget(label string) *ir.Block {
	for i := len(en.exitStack) - 1; i >= 0; i-- {
		if label == "" || en.exitStack[i].label == label {
			return en.exitStack[i].block
		}
	}
	return nil
}

func (en *env) genReturn(b *ir.Block, n *ast.Node) *ir.Block {
	if len(n.Children) == 0 {
		b.NewRet(nil)
		return nil
	}
	val, b1 := en.genExpr(b, n.Child(0))
	b1.NewRet(val)
	return nil
}

// genRaise lowers `raise [Name];`: an explicit name interns its spelling
// as the exception message; a bare re-raise propagates whatever
// __ex_cur already holds.
func (en *env) genRaise(b *ir.Block, n *ast.Node) *ir.Block {
	if len(n.Children) == 0 {
		cur := b.NewLoad(ptrType, en.e.rt.exCur)
		b.NewCall(en.e.rt.raise, cur)
		return nil
	}
	name := flattenName(n.Child(0))
	msg := en.e.cstringPtr(b, name)
	b.NewCall(en.e.rt.raise, msg)
	return nil
}

func flattenName(n *ast.Node) string {
	if n == nil {
		return "?"
	}
	switch n.Kind {
	case ast.Identifier:
		s, _ := n.Data.(string)
		return s
	case ast.SelectedComponent:
		return flattenName(n.Child(0)) + "." + flattenName(n.Child(1))
	default:
		return "?"
	}
}

// genAccept lowers `accept Entry ... do ... end;` to a straight-line
// execution of its body: this emitter targets single-threaded elaboration
// order for rendezvous bodies rather than a full blocking protocol,
// documented in DESIGN.md as a simplification of spec §5's tasking model.
func (en *env) genAccept(b *ir.Block, n *ast.Node) *ir.Block {
	for _, c := range n.Children {
		if c.Kind == ast.StmtSequence {
			return en.genStmtSequence(b, c)
		}
	}
	return b
}

// genSelect lowers `select ... or delay T ... end select;` to the delay
// alternative's body unconditionally, per spec §5's "select ... or delay
// T lowers to a straight delay (no race)" rule. A select with no delay
// alternative lowers to its first alternative.
func (en *env) genSelect(b *ir.Block, n *ast.Node) *ir.Block {
	var chosen *ast.Node
	for _, alt := range n.Children {
		if alt.Kind != ast.SelectAlt {
			continue
		}
		if chosen == nil {
			chosen = alt
		}
		if alt.Child(len(alt.Children)-2).Kind == ast.DelayStmt {
			chosen = alt
			break
		}
	}
	if chosen == nil {
		return b
	}
	body := chosen.Child(len(chosen.Children) - 2)
	rest := chosen.Child(len(chosen.Children) - 1)
	cur := en.genStmt(b, body)
	if cur == nil {
		return nil
	}
	return en.genStmtSequence(cur, rest)
}

// genDelay lowers `delay D;` to usleep(D * 1_000_000) (spec §5: "delay
// lowers to usleep").
func (en *env) genDelay(b *ir.Block, n *ast.Node) *ir.Block {
	d, b1 := en.genExpr(b, n.Child(0))
	micros := b1.NewFMul(toDouble(b1, d), constant.NewFloat(types.Double, 1_000_000))
	b1.NewCall(en.e.rt.usleep, b1.NewFPToSI(micros, types.I32))
	return b1
}

// genDeclarativePart allocates storage for every ObjectDecl in decls,
// threading initializers through b, and returns the block subsequent
// statements continue in.
func (en *env) genDeclarativePart(b *ir.Block, decls *ast.Node) *ir.Block {
	if decls == nil {
		return b
	}
	cur := b
	for _, d := range decls.Children {
		cur = en.genLocalDecl(cur, d)
	}
	return cur
}

func (en *env) genLocalDecl(b *ir.Block, n *ast.Node) *ir.Block {
	switch n.Kind {
	case ast.ObjectDecl:
		return en.genObjectDecl(b, n)
	case ast.ProcBody, ast.FuncBody:
		en.e.emitNestedSubprogram(n, en.frame, en.frameOwners)
		return b
	case ast.TaskSpec:
		en.e.emitTaskSpec(n)
		return b
	case ast.TaskBody:
		en.e.emitTaskBody(n)
		return en.spawnLocalTask(b, n)
	case ast.GenericInstantiation:
		en.e.emitGenericInstantiation(n)
		return b
	default:
		return b
	}
}

// spawnLocalTask activates a task declared directly inside a subprogram's
// declarative part (as opposed to an ObjectDecl of a task type): its
// trampoline is spawned as soon as the body's elaboration completes,
// matching the singleton-object semantics a bare `task ... is end;` /
// `task body ... is ... end;` pair declares.
func (en *env) spawnLocalTask(b *ir.Block, n *ast.Node) *ir.Block {
	name, _ := n.Data.(string)
	fn, ok := en.e.taskFuncs[name]
	if !ok {
		return b
	}
	handle := b.NewAlloca(ptrType)
	b.NewCall(en.e.rt.pthreadCreate, handle, constant.NewNull(ptrType), fn, constant.NewNull(ptrType))
	return b
}

func (en *env) genObjectDecl(b *ir.Block, n *ast.Node) *ir.Block {
	names := n.Child(0)
	typeNode := n.Child(1)
	var initNode *ast.Node
	if len(n.Children) > 2 {
		initNode = n.Child(2)
	}
	ti := typeInfoOf(typeNode)
	ty := llvmType(ti)

	cur := b
	for _, nameNode := range names.Children {
		sym := symbolOf(nameNode)
		addr := cur.NewAlloca(ty)
		if sym != nil {
			en.locals[sym] = addr
			en.localTy[sym] = ty
		}
		if initNode != nil {
			v, nb := en.genExpr(cur, initNode)
			cur = nb
			cur.NewStore(v, addr)
		} else {
			cur.NewStore(zeroOf(ty), addr)
		}
		if en.frame != nil && sym != nil {
			en.frame.publish(cur, sym, addr)
			en.frameOwners[sym] = en.frame
		}
		if ti != nil && ti.Kind == sema.TypeTask {
			cur = en.spawnTask(cur, ti.Name, addr)
		}
	}
	return cur
}

// spawnTask starts taskTypeName's activation function on its own thread,
// storing the pthread handle at handle. Task activation at object
// elaboration is the one piece of spec §5's tasking model this emitter
// implements eagerly rather than on a `task ... is begin select` schedule.
func (en *env) spawnTask(b *ir.Block, taskTypeName string, handle value.Value) *ir.Block {
	fn, ok := en.e.taskFuncs[taskTypeName]
	if !ok {
		return b
	}
	b.NewCall(en.e.rt.pthreadCreate, handle, constant.NewNull(ptrType), fn, constant.NewNull(ptrType))
	return b
}
