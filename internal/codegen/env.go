package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/AdaDoom3/Ada83-sub000/internal/sema"
)

// env is the per-subprogram compilation context threaded through
// statement and expression emission: the function being built, its
// static-link frame, and the local/label tables that only make sense
// inside one body.
type env struct {
	e   *Emitter
	fn  *ir.Func
	frame *frame

	locals  map[*sema.Symbol]value.Value
	localTy map[*sema.Symbol]types.Type
	labels  map[string]*ir.Block

	frameOwners map[*sema.Symbol]*frame // shared with Emitter: symbol -> frame it was published into
	exitStack   []exitTarget

	retType types.Type
}

func newEnv(e *Emitter, fn *ir.Func, fr *frame) *env {
	return &env{
		e:           e,
		fn:          fn,
		frame:       fr,
		locals:      make(map[*sema.Symbol]value.Value),
		localTy:     make(map[*sema.Symbol]types.Type),
		labels:      make(map[string]*ir.Block),
		frameOwners: e.frameOwners,
	}
}
