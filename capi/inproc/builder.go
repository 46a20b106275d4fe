package inproc

import (
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/errors"
)

func (l *Library) PositionBuilderAtEnd(b capi.BuilderRef, bb capi.BasicBlockRef) error {
	const op = "LLVMPositionBuilderAtEnd"
	l.mu.Lock()
	defer l.mu.Unlock()
	bo, err := l.lookup(op, b.Ptr(), kindBuilder)
	if err != nil {
		return err
	}
	blk, err := l.lookup(op, bb.Ptr(), kindBlock)
	if err != nil {
		return err
	}
	if l.objs[blk.owner].mod.ctx != bo.bld.ctx {
		return errors.InvalidInput(errors.PhaseBuild, "block belongs to another context")
	}
	bo.bld.block = blk.ptr
	return nil
}

// GetInsertBlock returns the block the builder appends to without handing it out
// again; the caller already holds it.
func (l *Library) GetInsertBlock(b capi.BuilderRef) capi.BasicBlockRef {
	l.mu.Lock()
	defer l.mu.Unlock()
	bo, err := l.lookup("LLVMGetInsertBlock", b.Ptr(), kindBuilder)
	if err != nil {
		return capi.BasicBlockRef{}
	}
	return capi.BasicBlockRefOf(bo.bld.block)
}

// insertion resolves the block a build call appends to.
func (l *Library) insertion(op string, b capi.BuilderRef) (*object, error) {
	bo, err := l.lookup(op, b.Ptr(), kindBuilder)
	if err != nil {
		return nil, err
	}
	if bo.bld.block == 0 {
		return nil, errors.InvalidInput(errors.PhaseBuild, "builder is not positioned")
	}
	blk, err := l.lookup(op, bo.bld.block, kindBlock)
	if err != nil {
		return nil, err
	}
	if blk.blk.Term != nil {
		return nil, errors.New(errors.PhaseBuild, errors.KindInvalidInput).
			Path(l.funcName(blk), blk.blk.LocalName).
			Detail("block already has a terminator").
			Build()
	}
	return blk, nil
}

func (l *Library) funcName(o *object) string {
	if f, ok := l.objs[o.fn].val.(*ir.Func); ok {
		return f.Name()
	}
	return ""
}

// operand resolves v for use in the function that owns blk.
func (l *Library) operand(op string, blk *object, v capi.ValueRef) (value.Value, error) {
	o, err := l.lookup(op, v.Ptr(), kindValue)
	if err != nil {
		return nil, err
	}
	if o.val == nil {
		return nil, errors.InvalidInput(errors.PhaseBuild, "a terminator is not a value")
	}
	if o.fn != 0 && o.fn != blk.fn {
		return nil, errors.InvalidInput(errors.PhaseBuild, "operand belongs to another function")
	}
	if l.contextOf(o) != l.contextOf(blk) {
		return nil, errors.InvalidInput(errors.PhaseBuild, "operand belongs to another context")
	}
	if types.Equal(o.val.Type(), types.Void) {
		return nil, errors.TypeMismatch(errors.PhaseBuild, nil, "non-void operand", "void")
	}
	return o.val, nil
}

// emit registers inst as a new instruction of blk, naming it when asked.
func (l *Library) emit(blk *object, inst value.Named, name string) capi.ValueRef {
	if name != "" && !types.Equal(inst.Type(), types.Void) {
		inst.SetName(name)
	}
	return capi.ValueRefOf(l.handOut(l.register(inst, blk.owner, blk.fn, blk.ptr)))
}

func (l *Library) BuildBinOp(b capi.BuilderRef, op capi.Opcode, lhs, rhs capi.ValueRef, name string) (capi.ValueRef, error) {
	const fn = "LLVMBuildBinOp"
	l.mu.Lock()
	defer l.mu.Unlock()
	blk, err := l.insertion(fn, b)
	if err != nil {
		return capi.ValueRef{}, err
	}
	x, err := l.operand(fn, blk, lhs)
	if err != nil {
		return capi.ValueRef{}, err
	}
	y, err := l.operand(fn, blk, rhs)
	if err != nil {
		return capi.ValueRef{}, err
	}
	if !types.Equal(x.Type(), y.Type()) {
		return capi.ValueRef{}, errors.TypeMismatch(errors.PhaseBuild, []string{op.String(), "rhs"}, x.Type().String(), y.Type().String())
	}
	if op.IsFloat() {
		if _, ok := x.Type().(*types.FloatType); !ok {
			return capi.ValueRef{}, errors.TypeMismatch(errors.PhaseBuild, []string{op.String()}, "floating point", x.Type().String())
		}
	} else if _, ok := x.Type().(*types.IntType); !ok {
		return capi.ValueRef{}, errors.TypeMismatch(errors.PhaseBuild, []string{op.String()}, "integer", x.Type().String())
	}

	bb := blk.blk
	var inst value.Named
	switch op {
	case capi.OpAdd:
		inst = bb.NewAdd(x, y)
	case capi.OpSub:
		inst = bb.NewSub(x, y)
	case capi.OpMul:
		inst = bb.NewMul(x, y)
	case capi.OpSDiv:
		inst = bb.NewSDiv(x, y)
	case capi.OpUDiv:
		inst = bb.NewUDiv(x, y)
	case capi.OpSRem:
		inst = bb.NewSRem(x, y)
	case capi.OpURem:
		inst = bb.NewURem(x, y)
	case capi.OpAnd:
		inst = bb.NewAnd(x, y)
	case capi.OpOr:
		inst = bb.NewOr(x, y)
	case capi.OpXor:
		inst = bb.NewXor(x, y)
	case capi.OpShl:
		inst = bb.NewShl(x, y)
	case capi.OpLShr:
		inst = bb.NewLShr(x, y)
	case capi.OpAShr:
		inst = bb.NewAShr(x, y)
	case capi.OpFAdd:
		inst = bb.NewFAdd(x, y)
	case capi.OpFSub:
		inst = bb.NewFSub(x, y)
	case capi.OpFMul:
		inst = bb.NewFMul(x, y)
	case capi.OpFDiv:
		inst = bb.NewFDiv(x, y)
	default:
		return capi.ValueRef{}, errors.Unsupported(errors.PhaseBuild, "opcode "+op.String())
	}
	return l.emit(blk, inst, name), nil
}

var predicates = map[capi.IntPredicate]enum.IPred{
	capi.IntEQ:  enum.IPredEQ,
	capi.IntNE:  enum.IPredNE,
	capi.IntUGT: enum.IPredUGT,
	capi.IntUGE: enum.IPredUGE,
	capi.IntULT: enum.IPredULT,
	capi.IntULE: enum.IPredULE,
	capi.IntSGT: enum.IPredSGT,
	capi.IntSGE: enum.IPredSGE,
	capi.IntSLT: enum.IPredSLT,
	capi.IntSLE: enum.IPredSLE,
}

func (l *Library) BuildICmp(b capi.BuilderRef, pred capi.IntPredicate, lhs, rhs capi.ValueRef, name string) (capi.ValueRef, error) {
	const fn = "LLVMBuildICmp"
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := predicates[pred]
	if !ok {
		return capi.ValueRef{}, errors.InvalidInput(errors.PhaseBuild, "unknown integer predicate")
	}
	blk, err := l.insertion(fn, b)
	if err != nil {
		return capi.ValueRef{}, err
	}
	x, err := l.operand(fn, blk, lhs)
	if err != nil {
		return capi.ValueRef{}, err
	}
	y, err := l.operand(fn, blk, rhs)
	if err != nil {
		return capi.ValueRef{}, err
	}
	if _, ok := x.Type().(*types.IntType); !ok {
		return capi.ValueRef{}, errors.TypeMismatch(errors.PhaseBuild, []string{"icmp"}, "integer", x.Type().String())
	}
	if !types.Equal(x.Type(), y.Type()) {
		return capi.ValueRef{}, errors.TypeMismatch(errors.PhaseBuild, []string{"icmp", "rhs"}, x.Type().String(), y.Type().String())
	}
	return l.emit(blk, blk.blk.NewICmp(p, x, y), name), nil
}

func (l *Library) BuildCall(b capi.BuilderRef, callee capi.ValueRef, args []capi.ValueRef, name string) (capi.ValueRef, error) {
	const fn = "LLVMBuildCall2"
	l.mu.Lock()
	defer l.mu.Unlock()
	blk, err := l.insertion(fn, b)
	if err != nil {
		return capi.ValueRef{}, err
	}
	co, f, err := l.function(fn, callee)
	if err != nil {
		return capi.ValueRef{}, err
	}
	if co.owner != blk.owner {
		return capi.ValueRef{}, errors.InvalidInput(errors.PhaseBuild, "callee belongs to another module")
	}
	sig := f.Sig
	if len(args) < len(sig.Params) || (!sig.Variadic && len(args) > len(sig.Params)) {
		return capi.ValueRef{}, errors.New(errors.PhaseBuild, errors.KindTypeMismatch).
			Path(f.Name()).
			Want(itoaParams(len(sig.Params), sig.Variadic)).
			Got(itoaParams(len(args), false)).
			Detail("argument count").
			Build()
	}
	vals := make([]value.Value, len(args))
	for i, a := range args {
		v, err := l.operand(fn, blk, a)
		if err != nil {
			return capi.ValueRef{}, err
		}
		if i < len(sig.Params) && !types.Equal(v.Type(), sig.Params[i]) {
			return capi.ValueRef{}, errors.TypeMismatch(errors.PhaseBuild,
				[]string{f.Name(), "arg", strconv.Itoa(i)}, sig.Params[i].String(), v.Type().String())
		}
		vals[i] = v
	}
	return l.emit(blk, blk.blk.NewCall(f, vals...), name), nil
}

func itoaParams(n int, variadic bool) string {
	s := strconv.Itoa(n) + " arguments"
	if n == 1 {
		s = "1 argument"
	}
	if variadic {
		return "at least " + s
	}
	return s
}

func (l *Library) returnType(blk *object) types.Type {
	return l.objs[blk.fn].val.(*ir.Func).Sig.RetType
}

func (l *Library) BuildRet(b capi.BuilderRef, v capi.ValueRef) (capi.ValueRef, error) {
	const fn = "LLVMBuildRet"
	l.mu.Lock()
	defer l.mu.Unlock()
	blk, err := l.insertion(fn, b)
	if err != nil {
		return capi.ValueRef{}, err
	}
	x, err := l.operand(fn, blk, v)
	if err != nil {
		return capi.ValueRef{}, err
	}
	if want := l.returnType(blk); !types.Equal(want, x.Type()) {
		return capi.ValueRef{}, errors.TypeMismatch(errors.PhaseBuild, []string{l.funcName(blk), "ret"}, want.String(), x.Type().String())
	}
	t := blk.blk.NewRet(x)
	return capi.ValueRefOf(l.handOut(l.registerTerm(t, blk.owner, blk.fn, blk.ptr))), nil
}

func (l *Library) BuildRetVoid(b capi.BuilderRef) (capi.ValueRef, error) {
	const fn = "LLVMBuildRetVoid"
	l.mu.Lock()
	defer l.mu.Unlock()
	blk, err := l.insertion(fn, b)
	if err != nil {
		return capi.ValueRef{}, err
	}
	if want := l.returnType(blk); !types.Equal(want, types.Void) {
		return capi.ValueRef{}, errors.TypeMismatch(errors.PhaseBuild, []string{l.funcName(blk), "ret"}, want.String(), "void")
	}
	t := blk.blk.NewRet(nil)
	return capi.ValueRefOf(l.handOut(l.registerTerm(t, blk.owner, blk.fn, blk.ptr))), nil
}

func (l *Library) target(op string, blk *object, dest capi.BasicBlockRef) (*ir.Block, error) {
	d, err := l.lookup(op, dest.Ptr(), kindBlock)
	if err != nil {
		return nil, err
	}
	if d.fn != blk.fn {
		return nil, errors.InvalidInput(errors.PhaseBuild, "branch target belongs to another function")
	}
	return d.blk, nil
}

func (l *Library) BuildBr(b capi.BuilderRef, dest capi.BasicBlockRef) (capi.ValueRef, error) {
	const fn = "LLVMBuildBr"
	l.mu.Lock()
	defer l.mu.Unlock()
	blk, err := l.insertion(fn, b)
	if err != nil {
		return capi.ValueRef{}, err
	}
	d, err := l.target(fn, blk, dest)
	if err != nil {
		return capi.ValueRef{}, err
	}
	t := blk.blk.NewBr(d)
	return capi.ValueRefOf(l.handOut(l.registerTerm(t, blk.owner, blk.fn, blk.ptr))), nil
}

func (l *Library) BuildCondBr(b capi.BuilderRef, cond capi.ValueRef, then, els capi.BasicBlockRef) (capi.ValueRef, error) {
	const fn = "LLVMBuildCondBr"
	l.mu.Lock()
	defer l.mu.Unlock()
	blk, err := l.insertion(fn, b)
	if err != nil {
		return capi.ValueRef{}, err
	}
	c, err := l.operand(fn, blk, cond)
	if err != nil {
		return capi.ValueRef{}, err
	}
	if !types.Equal(c.Type(), types.I1) {
		return capi.ValueRef{}, errors.TypeMismatch(errors.PhaseBuild, []string{"br", "cond"}, "i1", c.Type().String())
	}
	t1, err := l.target(fn, blk, then)
	if err != nil {
		return capi.ValueRef{}, err
	}
	t2, err := l.target(fn, blk, els)
	if err != nil {
		return capi.ValueRef{}, err
	}
	t := blk.blk.NewCondBr(c, t1, t2)
	return capi.ValueRefOf(l.handOut(l.registerTerm(t, blk.owner, blk.fn, blk.ptr))), nil
}
