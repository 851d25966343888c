package codegen

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/AdaDoom3/Ada83-sub000/internal/sema"
)

// ptrType is the generic opaque pointer every Ada access value, task
// handle and runtime buffer is represented as.
var ptrType = types.NewPointer(types.I8)

// boundsType is the fat-pointer bounds record spec §4.10 names: {i64 lo,
// i64 hi}.
var boundsType = types.NewStruct(types.I64, types.I64)

// fatArrayType is the two-field fat pointer backing every unconstrained
// array: {ptr data, {i64,i64} bounds}. The element type does not appear
// in the struct itself (data is untyped); it is only needed to compute
// element strides when indexing, so llvmType ignores it here.
func fatArrayType() *types.StructType {
	return types.NewStruct(ptrType, boundsType)
}

// llvmType lowers a resolved Ada type to its LLVM representation. A nil
// type defaults to INTEGER, matching spec §7's "missing types default to
// INTEGER and emit placeholder IR" rule for the emitter.
func llvmType(t *sema.TypeInfo) types.Type {
	if t == nil {
		return types.I64
	}
	switch t.Kind {
	case sema.TypeInteger, sema.TypeFixed:
		return types.I64
	case sema.TypeFloat:
		return types.Double
	case sema.TypeEnum:
		if t.Name == "Boolean" {
			return types.I1
		}
		return types.I64
	case sema.TypeArray:
		return fatArrayType()
	case sema.TypeRecord:
		fields := make([]types.Type, 0, len(t.Fields))
		for _, f := range t.Fields {
			fields = append(fields, llvmType(f.Type))
		}
		if len(fields) == 0 {
			return types.I8
		}
		return types.NewStruct(fields...)
	case sema.TypeAccess, sema.TypeTask, sema.TypePrivate, sema.TypeSubprogram:
		return ptrType
	case sema.TypeException:
		return ptrType
	default:
		return types.I64
	}
}

// zeroOf returns a zero-initialized constant for t, used to default
// uninitialized object declarations.
func zeroOf(t types.Type) constant.Constant {
	switch tt := t.(type) {
	case *types.IntType:
		return constant.NewInt(tt, 0)
	case *types.FloatType:
		return constant.NewFloat(tt, 0)
	case *types.PointerType:
		return constant.NewNull(tt)
	case *types.StructType:
		fields := make([]constant.Constant, len(tt.Fields))
		for i, f := range tt.Fields {
			fields[i] = zeroOf(f)
		}
		return constant.NewStruct(tt, fields...)
	default:
		return constant.NewInt(types.I64, 0)
	}
}

// isFloatType reports whether t is the LLVM double type this emitter uses
// for every Ada floating-point value (fixed-point values are i64).
func isFloatType(t types.Type) bool {
	return t.Equal(types.Double)
}
