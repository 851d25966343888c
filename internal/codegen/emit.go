package codegen

import (
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
	"github.com/AdaDoom3/Ada83-sub000/internal/sema"
)

// paramInfo is one formal parameter's codegen-relevant shape: its resolved
// symbol (for locals/frame bookkeeping) and LLVM type.
type paramInfo struct {
	sym *sema.Symbol
	ty  types.Type
}

func paramsFromList(paramsList *ast.Node) []paramInfo {
	var out []paramInfo
	if paramsList == nil {
		return out
	}
	for _, p := range paramsList.Children {
		namesList := p.Child(0)
		typeNode := p.Child(1)
		ty := llvmType(typeInfoOf(typeNode))
		for _, nameNode := range namesList.Children {
			out = append(out, paramInfo{sym: symbolOf(nameNode), ty: ty})
		}
	}
	return out
}

// emitPackageSpec lowers a package specification's visible declarations:
// subprogram specs become external declarations, objects become globals,
// nested subprogram/task bodies are emitted in full.
func (e *Emitter) emitPackageSpec(n *ast.Node) error {
	if err := e.emitPackageDecls(n.Child(0)); err != nil {
		return err
	}
	if priv := n.Child(1); priv != nil {
		return e.emitPackageDecls(priv)
	}
	return nil
}

func (e *Emitter) emitPackageDecls(decls *ast.Node) error {
	if decls == nil {
		return nil
	}
	for _, d := range decls.Children {
		switch d.Kind {
		case ast.ObjectDecl:
			e.emitPackageObject(d)
		case ast.ProcSpec, ast.FuncSpec:
			if err := e.emitSubprogramSpec(d); err != nil {
				return err
			}
		case ast.ProcBody, ast.FuncBody:
			if _, err := e.emitSubprogramBody(d, nil); err != nil {
				return err
			}
		case ast.TaskSpec:
			if err := e.emitTaskSpec(d); err != nil {
				return err
			}
		case ast.TaskBody:
			if err := e.emitTaskBody(d); err != nil {
				return err
			}
		case ast.GenericInstantiation:
			if err := e.emitGenericInstantiation(d); err != nil {
				return err
			}
		}
	}
	return nil
}

// emitGenericInstantiation lowers the substituted clone resolveGenericInstantiation
// attached as the instantiation node's trailing child, the same way any
// other declaration of that clone's kind would be lowered.
func (e *Emitter) emitGenericInstantiation(n *ast.Node) error {
	clone := n.Child(len(n.Children) - 1)
	switch clone.Kind {
	case ast.ProcSpec, ast.FuncSpec:
		return e.emitSubprogramSpec(clone)
	case ast.ProcBody, ast.FuncBody:
		_, err := e.emitSubprogramBody(clone, nil)
		return err
	case ast.PackageSpec:
		return e.emitPackageSpec(clone)
	case ast.PackageBody:
		return e.emitPackageBody(clone)
	}
	return nil
}

// emitPackageObject declares a package-level object as a module global,
// zero-initialized, with a non-constant initializer deferred to a
// generated elaboration function run from @llvm.global_ctors.
func (e *Emitter) emitPackageObject(n *ast.Node) {
	names := n.Child(0)
	typeNode := n.Child(1)
	var initNode *ast.Node
	if len(n.Children) > 2 {
		initNode = n.Child(2)
	}
	ti := typeInfoOf(typeNode)
	ty := llvmType(ti)

	for _, nameNode := range names.Children {
		sym := symbolOf(nameNode)
		if sym == nil {
			continue
		}
		gname := mangledGlobalName(sym)
		g := e.m.NewGlobalDef(gname, zeroOf(ty))
		e.globals[gname] = g
		if initNode != nil {
			e.addElabInit(gname, g, initNode)
		}
		if ti != nil && ti.Kind == sema.TypeTask {
			e.addTaskSpawn(gname, g, ti.Name)
		}
	}
}

// addElabInit builds a void() function that evaluates initNode and stores
// it into g, queued to run in elaboration order (spec §4.10's
// "@llvm.global_ctors priority 65535 elaboration").
func (e *Emitter) addElabInit(name string, g *ir.Global, initNode *ast.Node) {
	fn := defineHelper(e.m, "__elab_"+strings.ToUpper(name), types.Void)
	b := fn.NewBlock("entry")
	en := newEnv(e, fn, nil)
	v, nb := en.genExpr(b, initNode)
	nb.NewStore(v, g)
	nb.NewRet(nil)
	e.elabOrder = append(e.elabOrder, fn)
}

// addTaskSpawn queues a pthread_create call activating the task object g
// at elaboration time, for task objects declared at library level.
func (e *Emitter) addTaskSpawn(name string, g *ir.Global, taskTypeName string) {
	fn := defineHelper(e.m, "__elab_spawn_"+strings.ToUpper(name), types.Void)
	b := fn.NewBlock("entry")
	taskFn, ok := e.taskFuncs[taskTypeName]
	if ok {
		b.NewCall(e.rt.pthreadCreate, g, constant.NewNull(ptrType), taskFn, constant.NewNull(ptrType))
	}
	b.NewRet(nil)
	e.elabOrder = append(e.elabOrder, fn)
}

// emitPackageBody lowers a package body's declarations and, when present,
// its own elaboration statement sequence.
func (e *Emitter) emitPackageBody(n *ast.Node) error {
	if err := e.emitPackageDecls(n.Child(0)); err != nil {
		return err
	}
	if len(n.Children) < 2 {
		return nil
	}
	stmts := n.Child(1)
	var handlers *ast.Node
	if len(n.Children) > 2 {
		handlers = n.Child(2)
	}
	name, _ := n.Data.(string)
	fn := defineHelper(e.m, "__elab_body_"+strings.ToUpper(name), types.Void)
	b := fn.NewBlock("entry")
	en := newEnv(e, fn, nil)
	cur := en.genProtectedBody(b, stmts, handlers)
	if cur != nil {
		cur.NewRet(nil)
	}
	e.elabOrder = append(e.elabOrder, fn)
	return nil
}

// emitSubprogramSpec declares a subprogram with no body: the shape a
// separately-compiled spec, or a forward declaration inside a package
// spec, produces.
func (e *Emitter) emitSubprogramSpec(n *ast.Node) error {
	sym := symbolOf(n)
	name, _ := n.Data.(string)
	retType := e.resultType(n, sym)
	pinfos := paramsFromList(n.Child(0))

	var irParams []*ir.Param
	for _, pi := range pinfos {
		nm := ""
		if pi.sym != nil {
			nm = pi.sym.Name
		}
		irParams = append(irParams, ir.NewParam(nm, pi.ty))
	}

	fn := e.m.NewFunc(e.mangleName(name, sym, pinfos), retType, irParams...)
	if sym != nil {
		e.funcs[sym] = fn
	}
	return nil
}

func (e *Emitter) resultType(spec *ast.Node, sym *sema.Symbol) types.Type {
	if spec.Kind != ast.FuncSpec {
		return types.Void
	}
	if sym != nil && sym.Type != nil && sym.Type.Result != nil {
		return llvmType(sym.Type.Result)
	}
	return types.I64
}

func (e *Emitter) mangleName(name string, sym *sema.Symbol, pinfos []paramInfo) string {
	var paramNames []string
	for _, pi := range pinfos {
		if pi.sym != nil {
			paramNames = append(paramNames, pi.sym.Name)
		}
	}
	return e.mangler.Mangle(e.unitName, 0, 0, name, sym, paramNames)
}

// emitSubprogramBody lowers a procedure or function body into a defined
// *ir.Func, threading parent as the enclosing static-link frame (nil at
// library level) and appending the trailing %__static_link parameter
// spec §4.10 names whenever this body is itself nested.
func (e *Emitter) emitSubprogramBody(n *ast.Node, parent *frame) (*ir.Func, error) {
	spec := n.Child(0)
	decls := n.Child(1)
	stmts := n.Child(2)
	var handlers *ast.Node
	if len(n.Children) > 3 {
		handlers = n.Child(3)
	}

	sym := symbolOf(spec)
	name, _ := spec.Data.(string)
	retType := e.resultType(spec, sym)
	pinfos := paramsFromList(spec.Child(0))

	var irParams []*ir.Param
	for _, pi := range pinfos {
		nm := ""
		if pi.sym != nil {
			nm = pi.sym.Name
		}
		irParams = append(irParams, ir.NewParam(nm, pi.ty))
	}
	hasLink := parent != nil
	if hasLink {
		irParams = append(irParams, ir.NewParam("__static_link", ptrType))
	}

	fn := e.m.NewFunc(e.mangleName(name, sym, pinfos), retType, irParams...)
	if sym != nil {
		e.funcs[sym] = fn
	}

	entry := fn.NewBlock("entry")
	var link value.Value
	if hasLink {
		link = fn.Params[len(fn.Params)-1]
	}
	fr := newFrame(entry, parent, sym, link)
	en := newEnv(e, fn, fr)
	en.retType = retType

	cur := entry
	for i, pi := range pinfos {
		p := fn.Params[i]
		addr := cur.NewAlloca(pi.ty)
		cur.NewStore(p, addr)
		if pi.sym != nil {
			en.locals[pi.sym] = addr
			en.localTy[pi.sym] = pi.ty
			fr.publish(cur, pi.sym, addr)
			en.frameOwners[pi.sym] = fr
		}
	}

	cur = en.genDeclarativePart(cur, decls)
	cur = en.genProtectedBody(cur, stmts, handlers)
	if cur != nil {
		if retType == types.Void {
			cur.NewRet(nil)
		} else {
			cur.NewUnreachable()
		}
	}

	if sym != nil && parent != nil {
		e.frameOwners[sym] = parent
	}
	return fn, nil
}

// emitNestedSubprogram lowers a ProcBody/FuncBody declared inside another
// subprogram's declarative part, linking it to the enclosing frame so
// calls to it (and its own references to outer locals) resolve through
// the static-link chain.
func (e *Emitter) emitNestedSubprogram(n *ast.Node, parent *frame, _ map[*sema.Symbol]*frame) {
	e.emitSubprogramBody(n, parent)
}

// emitTaskSpec declares every entry of a task type as a callable
// procedure with an empty body: spec §5's simplified rendezvous model
// runs an `accept`'s statements inline where the task body executes them,
// so a call to the entry itself is a no-op stand-in kept only so call
// sites type-check and link.
func (e *Emitter) emitTaskSpec(n *ast.Node) error {
	for _, c := range n.Children {
		if c.Kind != ast.List {
			continue
		}
		for _, d := range c.Children {
			if d.Kind != ast.EntryDecl {
				continue
			}
			sym := symbolOf(d)
			if sym == nil {
				continue
			}
			pinfos := paramsFromList(d.Child(0))
			var irParams []*ir.Param
			for _, pi := range pinfos {
				irParams = append(irParams, ir.NewParam("", pi.ty))
			}
			fn := defineHelper(e.m, "__entry_"+strings.ToUpper(sym.Name), types.Void, irParams...)
			b := fn.NewBlock("entry")
			b.NewRet(nil)
			e.funcs[sym] = fn
		}
	}
	return nil
}

// emitTaskBody lowers a task body to a pthread-compatible trampoline
// function, `void *(*)(void *)`, registered so object declarations of its
// task type can spawn it (spec §5: "tasking via pthread").
func (e *Emitter) emitTaskBody(n *ast.Node) error {
	name, _ := n.Data.(string)
	decls := n.Child(0)
	stmts := n.Child(1)
	var handlers *ast.Node
	if len(n.Children) > 2 {
		handlers = n.Child(2)
	}

	fn := defineHelper(e.m, "__task_"+strings.ToUpper(name), ptrType, ir.NewParam("arg", ptrType))
	b := fn.NewBlock("entry")
	en := newEnv(e, fn, nil)
	cur := en.genDeclarativePart(b, decls)
	cur = en.genProtectedBody(cur, stmts, handlers)
	if cur != nil {
		cur.NewRet(constant.NewNull(ptrType))
	}
	e.taskFuncs[name] = fn
	return nil
}

// emitElaboration registers every queued package-level elaboration
// function under @llvm.global_ctors at priority 65535, and — when this
// unit's library item is a procedure body — synthesizes @main, matching
// spec §4.10's "always emitted" elaboration surface.
func (e *Emitter) emitElaboration() {
	if len(e.elabOrder) > 0 {
		e.registerGlobalCtors()
	}
	if e.libProcFn == nil {
		return
	}
	main := e.m.NewFunc("main", types.I32)
	b := main.NewBlock("entry")
	b.NewCall(e.rt.ssInit)
	b.NewCall(e.libProcFn)
	b.NewRet(constant.NewInt(types.I32, 0))
}

// ctorEntryType is one @llvm.global_ctors element: {i32 priority, ptr
// ctor, ptr data}.
func ctorEntryType() *types.StructType {
	return types.NewStruct(types.I32, ptrType, ptrType)
}

func (e *Emitter) registerGlobalCtors() {
	entryTy := ctorEntryType()
	elems := make([]constant.Constant, len(e.elabOrder))
	for i, fn := range e.elabOrder {
		elems[i] = constant.NewStruct(entryTy, constant.NewInt(types.I32, 65535), fn, constant.NewNull(ptrType))
	}
	arrTy := types.NewArray(uint64(len(elems)), entryTy)
	g := e.m.NewGlobalDef("llvm.global_ctors", constant.NewArray(arrTy, elems...))
	g.Linkage = enum.LinkageAppending
}
