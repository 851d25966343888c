package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

// runtime holds the handles to every shim function and global spec §4.10
// says is "always emitted": the scratch allocator, the exception
// jump-buffer chain, and the attribute/Text_IO helpers. Helpers are
// linkonce_odr so two translation units that both pull this shim in link
// together without a duplicate-symbol error (spec "Emitted IR surface").
type runtime struct {
	ssBuf, ssOff, ssCap *ir.Global
	ehCur, exCur        *ir.Global

	malloc, realloc   *ir.Func
	setjmp, longjmp   *ir.Func
	putchar, getchar  *ir.Func
	puts, sprintf     *ir.Func
	strtoll           *ir.Func
	usleep            *ir.Func
	pthreadCreate     *ir.Func
	pthreadJoin       *ir.Func
	pthreadMutexLock  *ir.Func
	pthreadMutexUnlk  *ir.Func

	ssInit     *ir.Func
	ssAlloc    *ir.Func
	raise      *ir.Func
	powi       *ir.Func
	imageInt   *ir.Func
	valueInt   *ir.Func
	tioPutChar *ir.Func
	tioGetChar *ir.Func
	tioPutStr  *ir.Func
	tioPutLine *ir.Func
}

// jmpBufBytes is the size, in bytes, this emitter reserves for a jmp_buf.
// Real jmp_buf layouts are target specific; 192 bytes covers every libc
// this compiler is expected to link against (x86_64, aarch64, riscv64).
const jmpBufBytes = 192

// ehEntrySize is one exception-handler-chain node: {ptr prev, jmp_buf}.
const ehEntrySize = 8 + jmpBufBytes

func declareExternal(m *ir.Module, name string, ret types.Type, variadic bool, params ...types.Type) *ir.Func {
	var irParams []*ir.Param
	for i, p := range params {
		irParams = append(irParams, ir.NewParam("", p))
		_ = i
	}
	fn := m.NewFunc(name, ret, irParams...)
	fn.Sig.Variadic = variadic
	return fn
}

func defineHelper(m *ir.Module, name string, ret types.Type, params ...*ir.Param) *ir.Func {
	fn := m.NewFunc(name, ret, params...)
	fn.Linkage = enum.LinkageLinkOnceODR
	return fn
}

// declareRuntime populates e.rt with every external C declaration and
// runtime-shim definition the emitted program may call, whether or not
// the particular source compiled ends up using all of them.
func (e *Emitter) declareRuntime() {
	m := e.m
	rt := &runtime{}

	rt.ssBuf = m.NewGlobalDef("__ss_buf", constant.NewNull(ptrType))
	rt.ssOff = m.NewGlobalDef("__ss_off", constant.NewInt(types.I64, 0))
	rt.ssCap = m.NewGlobalDef("__ss_cap", constant.NewInt(types.I64, 0))
	rt.ehCur = m.NewGlobalDef("__eh_cur", constant.NewNull(ptrType))
	rt.exCur = m.NewGlobalDef("__ex_cur", constant.NewNull(ptrType))

	rt.malloc = declareExternal(m, "malloc", ptrType, false, types.I64)
	rt.realloc = declareExternal(m, "realloc", ptrType, false, ptrType, types.I64)
	rt.setjmp = declareExternal(m, "setjmp", types.I32, false, ptrType)
	rt.longjmp = declareExternal(m, "longjmp", types.Void, false, ptrType, types.I32)
	rt.putchar = declareExternal(m, "putchar", types.I32, false, types.I32)
	rt.getchar = declareExternal(m, "getchar", types.I32, false)
	rt.puts = declareExternal(m, "puts", types.I32, false, ptrType)
	rt.sprintf = declareExternal(m, "sprintf", types.I32, true, ptrType, ptrType)
	rt.strtoll = declareExternal(m, "strtoll", types.I64, false, ptrType, ptrType, types.I32)
	rt.usleep = declareExternal(m, "usleep", types.I32, false, types.I32)
	rt.pthreadCreate = declareExternal(m, "pthread_create", types.I32, false, ptrType, ptrType, ptrType, ptrType)
	rt.pthreadJoin = declareExternal(m, "pthread_join", types.I32, false, ptrType, ptrType)
	rt.pthreadMutexLock = declareExternal(m, "pthread_mutex_lock", types.I32, false, ptrType)
	rt.pthreadMutexUnlk = declareExternal(m, "pthread_mutex_unlock", types.I32, false, ptrType)

	e.rt = rt
	e.defineScratchAllocator()
	e.defineRaise()
	e.definePowi()
	e.defineImageValue()
	e.defineTextIO()
}

// defineScratchAllocator emits __ada_ss_init and __ada_ss_alloc, the
// doubling-buffer bump allocator spec §4.10 names.
func (e *Emitter) defineScratchAllocator() {
	m, rt := e.m, e.rt

	init := defineHelper(m, "__ada_ss_init", types.Void)
	b := init.NewBlock("entry")
	buf := b.NewCall(rt.malloc, constant.NewInt(types.I64, 4096))
	b.NewStore(buf, rt.ssBuf)
	b.NewStore(constant.NewInt(types.I64, 0), rt.ssOff)
	b.NewStore(constant.NewInt(types.I64, 4096), rt.ssCap)
	b.NewRet(nil)
	rt.ssInit = init

	alloc := defineHelper(m, "__ada_ss_alloc", ptrType, ir.NewParam("size", types.I64))
	size := alloc.Params[0]
	entry := alloc.NewBlock("entry")
	grow := alloc.NewBlock("grow")
	take := alloc.NewBlock("take")

	off := entry.NewLoad(types.I64, rt.ssOff)
	cap := entry.NewLoad(types.I64, rt.ssCap)
	need := entry.NewAdd(off, size)
	overflow := entry.NewICmp(enum.IPredSGT, need, cap)
	entry.NewCondBr(overflow, grow, take)

	newCap := grow.NewMul(need, constant.NewInt(types.I64, 2))
	oldBuf := grow.NewLoad(ptrType, rt.ssBuf)
	grown := grow.NewCall(rt.realloc, oldBuf, newCap)
	grow.NewStore(grown, rt.ssBuf)
	grow.NewStore(newCap, rt.ssCap)
	grow.NewBr(take)

	base := take.NewLoad(ptrType, rt.ssBuf)
	ptr := take.NewGetElementPtr(types.I8, base, off)
	take.NewStore(take.NewAdd(off, size), rt.ssOff)
	take.NewRet(ptr)
	rt.ssAlloc = alloc
}

// defineRaise emits __ada_raise(msg), which records the exception string
// and longjmps to the innermost handler, matching spec §4.11's
// "exception handler chain" description.
func (e *Emitter) defineRaise() {
	m, rt := e.m, e.rt
	fn := defineHelper(m, "__ada_raise", types.Void, ir.NewParam("msg", ptrType))
	msg := fn.Params[0]

	entry := fn.NewBlock("entry")
	unhandled := fn.NewBlock("unhandled")
	jump := fn.NewBlock("jump")

	entry.NewStore(msg, rt.exCur)
	cur := entry.NewLoad(ptrType, rt.ehCur)
	isNull := entry.NewICmp(enum.IPredEQ, cur, constant.NewNull(ptrType))
	entry.NewCondBr(isNull, unhandled, jump)

	unhandled.NewCall(rt.puts, msg)
	unhandled.NewUnreachable()

	jmpBufOff := jump.NewGetElementPtr(types.I8, cur, constant.NewInt(types.I64, 8))
	jump.NewCall(rt.longjmp, jmpBufOff, constant.NewInt(types.I32, 1))
	jump.NewUnreachable()
	rt.raise = fn
}

// definePowi emits __ada_powi, integer exponentiation by repeated
// multiplication (spec §4.10's "__ada_powi computes integer
// exponentiation").
func (e *Emitter) definePowi() {
	m := e.m
	fn := defineHelper(m, "__ada_powi", types.I64, ir.NewParam("base", types.I64), ir.NewParam("exp", types.I64))
	base, exp := fn.Params[0], fn.Params[1]

	entry := fn.NewBlock("entry")
	head := fn.NewBlock("head")
	body := fn.NewBlock("body")
	done := fn.NewBlock("done")

	accSlot := entry.NewAlloca(types.I64)
	iSlot := entry.NewAlloca(types.I64)
	entry.NewStore(constant.NewInt(types.I64, 1), accSlot)
	entry.NewStore(constant.NewInt(types.I64, 0), iSlot)
	entry.NewBr(head)

	i := head.NewLoad(types.I64, iSlot)
	cond := head.NewICmp(enum.IPredSLT, i, exp)
	head.NewCondBr(cond, body, done)

	acc := body.NewLoad(types.I64, accSlot)
	body.NewStore(body.NewMul(acc, base), accSlot)
	body.NewStore(body.NewAdd(i, constant.NewInt(types.I64, 1)), iSlot)
	body.NewBr(head)

	done.NewRet(done.NewLoad(types.I64, accSlot))
	e.rt.powi = fn
}

// defineImageValue emits __ada_image_int and __ada_value_int, the
// runtime half of the IMAGE/VALUE attributes (spec §4.10).
func (e *Emitter) defineImageValue() {
	m, rt := e.m, e.rt

	image := defineHelper(m, "__ada_image_int", types.I64, ir.NewParam("v", types.I64), ir.NewParam("out", ptrType))
	v, out := image.Params[0], image.Params[1]
	b := image.NewBlock("entry")
	fmtStr := e.internCString(" %lld")
	n := b.NewCall(rt.sprintf, out, fmtStr, v)
	b.NewRet(b.NewSExt(n, types.I64))
	rt.imageInt = image

	value := defineHelper(m, "__ada_value_int", types.I64, ir.NewParam("s", ptrType))
	s := value.Params[0]
	b2 := value.NewBlock("entry")
	r := b2.NewCall(rt.strtoll, s, constant.NewNull(ptrType), constant.NewInt(types.I32, 10))
	b2.NewRet(r)
	rt.valueInt = value
}

// defineTextIO emits the Ada.Text_IO-adjacent __text_io_* wrappers spec
// §4.10 names, thin shims over putchar/getchar/puts.
func (e *Emitter) defineTextIO() {
	m, rt := e.m, e.rt

	putChar := defineHelper(m, "__text_io_put_char", types.Void, ir.NewParam("c", types.I32))
	b := putChar.NewBlock("entry")
	b.NewCall(rt.putchar, putChar.Params[0])
	b.NewRet(nil)
	rt.tioPutChar = putChar

	getChar := defineHelper(m, "__text_io_get_char", types.I32)
	b2 := getChar.NewBlock("entry")
	b2.NewRet(b2.NewCall(rt.getchar))
	rt.tioGetChar = getChar

	putStr := defineHelper(m, "__text_io_put_string", types.Void, ir.NewParam("s", ptrType))
	b3 := putStr.NewBlock("entry")
	b3.NewCall(rt.puts, putStr.Params[0])
	b3.NewRet(nil)
	rt.tioPutStr = putStr

	// __text_io_put_line accepts a fat pointer {ptr, {i64 lo, i64 hi}}, the
	// representation every String value (Ada.Text_IO.Put_Line's parameter
	// type) carries once use-visibility lets a call site resolve to it.
	putLine := defineHelper(m, "__text_io_put_line", types.Void, ir.NewParam("s", fatArrayType()))
	b4 := putLine.NewBlock("entry")
	data := b4.NewExtractValue(putLine.Params[0], 0)
	b4.NewCall(rt.puts, data)
	b4.NewRet(nil)
	rt.tioPutLine = putLine
	e.builtins["Put_Line"] = putLine
}
