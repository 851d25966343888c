package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/AdaDoom3/Ada83-sub000/internal/sema"
)

// frame is one subprogram activation's static-link frame: a flat array of
// opaque i8* slots, slot 0 reserved as the link to the immediately
// enclosing frame (spec §4.10's nested-subprogram lowering). Every
// subprogram body gets a frame, and every parameter and object local of
// it gets a slot, so a nested body can reach an outer local by chasing
// slot 0 outward and
// indexing the target's slot, without this emitter having to compute
// precise capture sets the way a fuller front end would.
type frame struct {
	parent *frame
	self   *sema.Symbol

	arr   *ir.InstAlloca
	link  value.Value // incoming %__static_link parameter, nil at library level
	slots map[*sema.Symbol]int
	next  int
	depth int
}

const frameSlotCount = 32

func frameArrayType() *types.ArrayType {
	return types.NewArray(frameSlotCount, ptrType)
}

// newFrame allocates fr's frame array in b and threads link (the caller's
// static-link argument, or nil at the outermost level) through it.
func newFrame(b *ir.Block, parent *frame, self *sema.Symbol, link value.Value) *frame {
	depth := 0
	if parent != nil {
		depth = parent.depth + 1
	}
	fr := &frame{
		parent: parent,
		self:   self,
		arr:    b.NewAlloca(frameArrayType()),
		link:   link,
		slots:  make(map[*sema.Symbol]int),
		next:   1,
		depth:  depth,
	}
	if link != nil {
		slot0 := b.NewGetElementPtr(frameArrayType(), fr.arr, constant.NewInt(types.I64, 0), constant.NewInt(types.I64, 0))
		b.NewStore(link, slot0)
	}
	return fr
}

// slotFor reserves (or returns the existing) frame slot index for sym.
func (fr *frame) slotFor(sym *sema.Symbol) int {
	if idx, ok := fr.slots[sym]; ok {
		return idx
	}
	idx := fr.next
	fr.next++
	fr.slots[sym] = idx
	return idx
}

// publish stores addr (the local's own typed alloca, cast to i8*) into
// sym's frame slot, making it reachable from a nested subprogram.
func (fr *frame) publish(b *ir.Block, sym *sema.Symbol, addr value.Value) {
	idx := fr.slotFor(sym)
	slot := b.NewGetElementPtr(frameArrayType(), fr.arr, constant.NewInt(types.I64, 0), constant.NewInt(types.I64, int64(idx)))
	b.NewStore(addr, slot)
}

// reach returns owner's frame array pointer as seen from fr: fr.arr itself
// when owner is fr, otherwise the static link chased outward "lv_outer -
// lv_self - 1" hops through successive slot-0 links (spec §4.10).
func (fr *frame) reach(b *ir.Block, owner *frame) value.Value {
	if owner == fr {
		return fr.arr
	}
	hops := fr.depth - owner.depth
	cur := fr.link
	for i := 1; i < hops; i++ {
		slot0 := b.NewGetElementPtr(frameArrayType(), cur, constant.NewInt(types.I64, 0), constant.NewInt(types.I64, 0))
		cur = b.NewLoad(ptrType, slot0)
	}
	return cur
}

// resolveOuter finds sym's storage address by reaching the frame that
// owns sym and loading its assigned slot.
func (fr *frame) resolveOuter(b *ir.Block, owner *frame, sym *sema.Symbol) value.Value {
	idx, ok := owner.slots[sym]
	if !ok {
		return nil
	}
	base := fr.reach(b, owner)
	slot := b.NewGetElementPtr(frameArrayType(), base, constant.NewInt(types.I64, 0), constant.NewInt(types.I64, int64(idx)))
	return b.NewLoad(ptrType, slot)
}
