package inproc

import (
	"strconv"

	"github.com/llir/llvm/ir/types"

	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/errors"
)

// maxIntWidth is the widest integer type the library creates.
const maxIntWidth = 1<<23 - 1

// canonicalType returns the context's unique object for t, creating it on first use.
func (l *Library) canonicalType(ctx *object, t types.Type) *object {
	key := t.String()
	if p, ok := ctx.ctx.types[key]; ok {
		if o, live := l.objs[p]; live {
			return o
		}
	}
	o := l.alloc(&object{kind: kindType, owner: ctx.ptr, typ: t})
	ctx.ctx.types[key] = o.ptr
	return o
}

// contextOf returns the context object owning o.
func (l *Library) contextOf(o *object) *object {
	for o != nil && o.kind != kindContext {
		o = l.objs[o.owner]
	}
	return o
}

func (l *Library) IntType(c capi.ContextRef, bits uint) (capi.TypeRef, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ctx, err := l.lookup("LLVMIntTypeInContext", c.Ptr(), kindContext)
	if err != nil {
		return capi.TypeRef{}, err
	}
	if bits == 0 || bits > maxIntWidth {
		return capi.TypeRef{}, errors.New(errors.PhaseBuild, errors.KindInvalidInput).
			Value(bits).
			Detail("integer width %d out of range [1, %d]", bits, maxIntWidth).
			Build()
	}
	return capi.TypeRefOf(l.handOut(l.canonicalType(ctx, types.NewInt(uint64(bits))))), nil
}

func (l *Library) simpleType(op string, c capi.ContextRef, t types.Type) capi.TypeRef {
	l.mu.Lock()
	defer l.mu.Unlock()
	ctx, err := l.lookup(op, c.Ptr(), kindContext)
	if err != nil {
		return capi.TypeRef{}
	}
	return capi.TypeRefOf(l.handOut(l.canonicalType(ctx, t)))
}

func (l *Library) FloatType(c capi.ContextRef) capi.TypeRef {
	return l.simpleType("LLVMFloatTypeInContext", c, types.Float)
}

func (l *Library) DoubleType(c capi.ContextRef) capi.TypeRef {
	return l.simpleType("LLVMDoubleTypeInContext", c, types.Double)
}

func (l *Library) VoidType(c capi.ContextRef) capi.TypeRef {
	return l.simpleType("LLVMVoidTypeInContext", c, types.Void)
}

func (l *Library) FunctionType(ret capi.TypeRef, params []capi.TypeRef, variadic bool) (capi.TypeRef, error) {
	const op = "LLVMFunctionType"
	l.mu.Lock()
	defer l.mu.Unlock()
	r, err := l.lookup(op, ret.Ptr(), kindType)
	if err != nil {
		return capi.TypeRef{}, err
	}
	if _, ok := r.typ.(*types.FuncType); ok {
		return capi.TypeRef{}, errors.TypeMismatch(errors.PhaseBuild, []string{"return"}, "first-class type", r.typ.String())
	}
	pts := make([]types.Type, len(params))
	for i, p := range params {
		po, err := l.lookup(op, p.Ptr(), kindType)
		if err != nil {
			return capi.TypeRef{}, err
		}
		if po.owner != r.owner {
			return capi.TypeRef{}, errors.InvalidInput(errors.PhaseBuild, "parameter and return types belong to different contexts")
		}
		switch po.typ.(type) {
		case *types.VoidType, *types.FuncType:
			return capi.TypeRef{}, errors.TypeMismatch(errors.PhaseBuild,
				[]string{"param", strconv.Itoa(i)}, "first-class type", po.typ.String())
		}
		pts[i] = po.typ
	}
	ft := types.NewFunc(r.typ, pts...)
	ft.Variadic = variadic
	return capi.TypeRefOf(l.handOut(l.canonicalType(l.objs[r.owner], ft))), nil
}

func (l *Library) typeOf(op string, t capi.TypeRef) types.Type {
	o, err := l.lookup(op, t.Ptr(), kindType)
	if err != nil {
		return nil
	}
	return o.typ
}

func (l *Library) GetTypeKind(t capi.TypeRef) capi.TypeKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	return kindOfType(l.typeOf("LLVMGetTypeKind", t))
}

func kindOfType(t types.Type) capi.TypeKind {
	switch t := t.(type) {
	case *types.VoidType:
		return capi.VoidTypeKind
	case *types.IntType:
		return capi.IntegerTypeKind
	case *types.FloatType:
		if t.Kind == types.FloatKindDouble {
			return capi.DoubleTypeKind
		}
		return capi.FloatTypeKind
	case *types.FuncType:
		return capi.FunctionTypeKind
	case *types.PointerType:
		return capi.PointerTypeKind
	default:
		return capi.OtherTypeKind
	}
}

func (l *Library) GetIntTypeWidth(t capi.TypeRef) uint {
	l.mu.Lock()
	defer l.mu.Unlock()
	if it, ok := l.typeOf("LLVMGetIntTypeWidth", t).(*types.IntType); ok {
		return uint(it.BitSize)
	}
	return 0
}

func (l *Library) funcType(op string, t capi.TypeRef) (*object, *types.FuncType) {
	o, err := l.lookup(op, t.Ptr(), kindType)
	if err != nil {
		return nil, nil
	}
	ft, ok := o.typ.(*types.FuncType)
	if !ok {
		l.fault(op, t.Ptr(), "%s is not a function type", o.typ)
		return nil, nil
	}
	return o, ft
}

func (l *Library) GetReturnType(t capi.TypeRef) capi.TypeRef {
	const op = "LLVMGetReturnType"
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ft := l.funcType(op, t)
	if ft == nil {
		return capi.TypeRef{}
	}
	return capi.TypeRefOf(l.handOut(l.canonicalType(l.objs[o.owner], ft.RetType)))
}

func (l *Library) GetParamTypes(t capi.TypeRef) []capi.TypeRef {
	const op = "LLVMGetParamTypes"
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ft := l.funcType(op, t)
	if ft == nil {
		return nil
	}
	out := make([]capi.TypeRef, len(ft.Params))
	for i, p := range ft.Params {
		out[i] = capi.TypeRefOf(l.handOut(l.canonicalType(l.objs[o.owner], p)))
	}
	return out
}

func (l *Library) IsFunctionVarArg(t capi.TypeRef) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ft := l.funcType("LLVMIsFunctionVarArg", t)
	return ft != nil && ft.Variadic
}

func (l *Library) PrintTypeToString(t capi.TypeRef) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ty := l.typeOf("LLVMPrintTypeToString", t); ty != nil {
		return ty.String()
	}
	return ""
}
