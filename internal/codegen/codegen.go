// Package codegen lowers a semantically analyzed compilation unit into an
// LLVM IR module, following spec §4.10.
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/pkg/errors"

	"github.com/AdaDoom3/Ada83-sub000/internal/ast"
	"github.com/AdaDoom3/Ada83-sub000/internal/sema"
)

// Emitter walks one compilation unit's analyzed tree and produces the
// module's LLVM IR, one *ir.Module per unit as spec §6 describes.
type Emitter struct {
	m       *ir.Module
	rt      *runtime
	mangler *mangler

	strs    map[string]*ir.Global      // interned C-string globals, keyed by content
	globals map[string]*ir.Global      // package-level object globals, keyed by mangled name
	funcs   map[*sema.Symbol]*ir.Func  // emitted subprogram definitions, keyed by resolved symbol (distinguishes overloads sharing one Ada name)
	builtins map[string]*ir.Func       // runtime-backed subprograms with no sema.Symbol (Ada.Text_IO etc.), keyed by Ada name

	frameOwners map[*sema.Symbol]*frame // shared with every env: symbol -> frame it was published into
	taskFuncs   map[string]*ir.Func     // task body activation functions, keyed by task type name

	elabOrder []*ir.Func // package-level elaboration statements, run as global_ctors
	libProcFn *ir.Func   // this unit's library-level procedure body, if it has one

	errs []error // diagnostics accumulated during lowering, surfaced by Emit

	unitName string
}

// NewEmitter creates an Emitter that will lower unitName into a fresh LLVM
// module named after it.
func NewEmitter(unitName string) *Emitter {
	e := &Emitter{
		m:           ir.NewModule(),
		mangler:     newMangler(),
		strs:        make(map[string]*ir.Global),
		globals:     make(map[string]*ir.Global),
		funcs:       make(map[*sema.Symbol]*ir.Func),
		builtins:    make(map[string]*ir.Func),
		frameOwners: make(map[*sema.Symbol]*frame),
		taskFuncs:   make(map[string]*ir.Func),
		unitName:    unitName,
	}
	e.m.SourceFilename = unitName
	e.declareRuntime()
	return e
}

// Emit lowers tree, a CompilationUnit node whose declarations already
// carry resolved Sym/Type attachments from semantic analysis, into this
// Emitter's module.
func (e *Emitter) Emit(tree *ast.Node) (*ir.Module, error) {
	if tree == nil || tree.Kind != ast.CompilationUnit {
		return nil, errors.New("codegen: expected a compilation unit root")
	}
	lib := tree.Child(1)
	if lib == nil {
		return nil, errors.New("codegen: compilation unit has no library item")
	}

	switch lib.Kind {
	case ast.PackageSpec:
		if err := e.emitPackageSpec(lib); err != nil {
			return nil, errors.Wrap(err, "package spec")
		}
	case ast.PackageBody:
		if err := e.emitPackageBody(lib); err != nil {
			return nil, errors.Wrap(err, "package body")
		}
	case ast.ProcSpec, ast.FuncSpec:
		if err := e.emitSubprogramSpec(lib); err != nil {
			return nil, errors.Wrap(err, "subprogram spec")
		}
	case ast.ProcBody, ast.FuncBody:
		fn, err := e.emitSubprogramBody(lib, nil)
		if err != nil {
			return nil, errors.Wrap(err, "subprogram body")
		}
		if lib.Kind == ast.ProcBody {
			e.libProcFn = fn
		}
	case ast.GenericDecl:
		if inner := lib.Child(1); inner != nil {
			return e.Emit(&ast.Node{Kind: ast.CompilationUnit, Children: []*ast.Node{tree.Child(0), inner}})
		}
	case ast.GenericInstantiation:
		if clone := lib.Child(len(lib.Children) - 1); clone != nil {
			return e.Emit(&ast.Node{Kind: ast.CompilationUnit, Children: []*ast.Node{tree.Child(0), clone}})
		}
	case ast.TaskSpec:
		if err := e.emitTaskSpec(lib); err != nil {
			return nil, errors.Wrap(err, "task spec")
		}
	case ast.TaskBody:
		if err := e.emitTaskBody(lib); err != nil {
			return nil, errors.Wrap(err, "task body")
		}
	default:
		return nil, errors.Errorf("codegen: unsupported library unit kind %v", lib.Kind)
	}

	e.emitElaboration()
	if len(e.errs) > 0 {
		return e.m, e.errs[0]
	}
	return e.m, nil
}

// reportf records a lowering failure without aborting the walk, so one
// unresolved call site does not stop the rest of the unit from lowering;
// Emit surfaces the first one recorded.
func (e *Emitter) reportf(n *ast.Node, format string, args ...interface{}) {
	pos := "?"
	if n != nil {
		pos = n.Pos()
	}
	e.errs = append(e.errs, errors.Errorf("%s: "+format, append([]interface{}{pos}, args...)...))
}

// internCString returns the pointer to a global, nul-terminated constant
// string holding s, creating it the first time s is requested. Strings
// are deduplicated by content, the way the teacher's generator prefixes
// and caches every literal it lifts to a global.
func (e *Emitter) internCString(s string) *ir.Global {
	if g, ok := e.strs[s]; ok {
		return g
	}
	data := constant.NewCharArrayFromString(s + "\x00")
	name := fmt.Sprintf(".str.%d", len(e.strs))
	g := e.m.NewGlobalDef(name, data)
	e.strs[s] = g
	return g
}

// cstringPtr loads the i8* to the first byte of an interned string
// constant, the shape every libc call in the runtime shim expects.
func (e *Emitter) cstringPtr(b *ir.Block, s string) *ir.InstGetElementPtr {
	g := e.internCString(s)
	elemType := g.ContentType
	return b.NewGetElementPtr(elemType, g, constant.NewInt(types.I64, 0), constant.NewInt(types.I64, 0))
}

func symbolOf(n *ast.Node) *sema.Symbol {
	if n == nil {
		return nil
	}
	sym, _ := n.Sym.(*sema.Symbol)
	return sym
}

func typeInfoOf(n *ast.Node) *sema.TypeInfo {
	if n == nil {
		return nil
	}
	ti, _ := n.Type.(*sema.TypeInfo)
	return ti
}
