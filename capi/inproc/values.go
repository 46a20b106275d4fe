package inproc

import (
	"fmt"
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/errors"
)

// register returns the object for v, allocating it on first sight.
func (l *Library) register(v value.Value, owner, fn, block capi.Pointer) *object {
	if p, ok := l.addrs[v]; ok {
		return l.objs[p]
	}
	o := l.alloc(&object{kind: kindValue, owner: owner, val: v, fn: fn, block: block})
	l.addrs[v] = o.ptr
	return o
}

func (l *Library) registerTerm(t ir.Terminator, owner, fn, block capi.Pointer) *object {
	o := l.alloc(&object{kind: kindValue, owner: owner, term: t, fn: fn, block: block})
	l.addrs[t] = o.ptr
	return o
}

func (l *Library) function(op string, v capi.ValueRef) (*object, *ir.Func, error) {
	o, err := l.lookup(op, v.Ptr(), kindValue)
	if err != nil {
		return nil, nil, err
	}
	f, ok := o.val.(*ir.Func)
	if !ok {
		return nil, nil, errors.TypeMismatch(phaseOf(op), nil, "function", describe(o))
	}
	return o, f, nil
}

func describe(o *object) string {
	switch {
	case o.term != nil:
		return "terminator"
	case o.val != nil:
		return kindOfValue(o).String()
	default:
		return o.kind.String()
	}
}

func (l *Library) AddFunction(m capi.ModuleRef, name string, fnType capi.TypeRef) (capi.ValueRef, error) {
	const op = "LLVMAddFunction"
	l.mu.Lock()
	defer l.mu.Unlock()
	mo, err := l.lookup(op, m.Ptr(), kindModule)
	if err != nil {
		return capi.ValueRef{}, err
	}
	to, err := l.lookup(op, fnType.Ptr(), kindType)
	if err != nil {
		return capi.ValueRef{}, err
	}
	sig, ok := to.typ.(*types.FuncType)
	if !ok {
		return capi.ValueRef{}, errors.TypeMismatch(errors.PhaseBuild, []string{name}, "function type", to.typ.String())
	}
	if to.owner != mo.mod.ctx {
		return capi.ValueRef{}, errors.InvalidInput(errors.PhaseBuild, "function type belongs to another context")
	}
	if name == "" {
		return capi.ValueRef{}, errors.InvalidInput(errors.PhaseBuild, "function name is empty")
	}
	if findFunc(mo.mod.ir, name) != nil {
		return capi.ValueRef{}, errors.Duplicate(errors.PhaseBuild, "function", name)
	}
	params := make([]*ir.Param, len(sig.Params))
	for i, pt := range sig.Params {
		params[i] = ir.NewParam("", pt)
	}
	f := mo.mod.ir.NewFunc(name, sig.RetType, params...)
	f.Sig.Variadic = sig.Variadic
	fo := l.register(f, mo.ptr, 0, 0)
	for _, p := range params {
		l.register(p, mo.ptr, fo.ptr, 0)
	}
	return capi.ValueRefOf(l.handOut(fo)), nil
}

func findFunc(m *ir.Module, name string) *ir.Func {
	for _, f := range m.Funcs {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func (l *Library) GetNamedFunction(m capi.ModuleRef, name string) capi.ValueRef {
	l.mu.Lock()
	defer l.mu.Unlock()
	mo, err := l.lookup("LLVMGetNamedFunction", m.Ptr(), kindModule)
	if err != nil {
		return capi.ValueRef{}
	}
	f := findFunc(mo.mod.ir, name)
	if f == nil {
		return capi.ValueRef{}
	}
	return capi.ValueRefOf(l.handOut(l.objs[l.addrs[f]]))
}

func (l *Library) GetFunctions(m capi.ModuleRef) []capi.ValueRef {
	l.mu.Lock()
	defer l.mu.Unlock()
	mo, err := l.lookup("LLVMGetFunctions", m.Ptr(), kindModule)
	if err != nil {
		return nil
	}
	out := make([]capi.ValueRef, 0, len(mo.mod.ir.Funcs))
	for _, f := range mo.mod.ir.Funcs {
		out = append(out, capi.ValueRefOf(l.handOut(l.objs[l.addrs[f]])))
	}
	return out
}

func (l *Library) CountParams(fn capi.ValueRef) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, f, err := l.function("LLVMCountParams", fn)
	if err != nil {
		return 0
	}
	return len(f.Params)
}

func (l *Library) GetParam(fn capi.ValueRef, index int) (capi.ValueRef, error) {
	const op = "LLVMGetParam"
	l.mu.Lock()
	defer l.mu.Unlock()
	_, f, err := l.function(op, fn)
	if err != nil {
		return capi.ValueRef{}, err
	}
	if index < 0 || index >= len(f.Params) {
		return capi.ValueRef{}, errors.OutOfBounds(errors.PhaseLookup, []string{f.Name(), "params"}, index, len(f.Params))
	}
	return capi.ValueRefOf(l.handOut(l.objs[l.addrs[f.Params[index]]])), nil
}

func (l *Library) TypeOf(v capi.ValueRef) capi.TypeRef {
	const op = "LLVMTypeOf"
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup(op, v.Ptr(), kindValue)
	if err != nil {
		return capi.TypeRef{}
	}
	ctx := l.contextOf(o)
	var t types.Type
	switch v := o.val.(type) {
	case nil:
		t = types.Void
	case *ir.Func:
		t = v.Sig
	default:
		t = v.Type()
	}
	return capi.TypeRefOf(l.handOut(l.canonicalType(ctx, t)))
}

func kindOfValue(o *object) capi.ValueKind {
	if o.term != nil {
		return capi.InstructionValueKind
	}
	switch o.val.(type) {
	case *ir.Func:
		return capi.FunctionValueKind
	case *ir.Param:
		return capi.ArgumentValueKind
	case *constant.Int:
		return capi.ConstantIntValueKind
	case ir.Instruction:
		return capi.InstructionValueKind
	default:
		return capi.OtherValueKind
	}
}

func (l *Library) GetValueKind(v capi.ValueRef) capi.ValueKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMGetValueKind", v.Ptr(), kindValue)
	if err != nil {
		return capi.OtherValueKind
	}
	return kindOfValue(o)
}

func (l *Library) GetValueName(v capi.ValueRef) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMGetValueName", v.Ptr(), kindValue)
	if err != nil {
		return ""
	}
	switch v := o.val.(type) {
	case *ir.Func:
		return v.Name()
	case *ir.Param:
		return v.LocalName
	case value.Named:
		if _, isConst := o.val.(constant.Constant); isConst {
			return ""
		}
		if local, ok := o.val.(interface{ IsUnnamed() bool }); ok && local.IsUnnamed() {
			return ""
		}
		return v.Name()
	}
	return ""
}

func (l *Library) SetValueName(v capi.ValueRef, name string) error {
	const op = "LLVMSetValueName"
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup(op, v.Ptr(), kindValue)
	if err != nil {
		return err
	}
	if _, numeric := strconv.Atoi(name); numeric == nil {
		return errors.InvalidInput(errors.PhaseBuild, fmt.Sprintf("name %q is reserved for numbering", name))
	}
	switch val := o.val.(type) {
	case *ir.Func:
		if name == "" {
			return errors.InvalidInput(errors.PhaseBuild, "function name is empty")
		}
		if other := findFunc(l.objs[o.owner].mod.ir, name); other != nil && other != val {
			return errors.Duplicate(errors.PhaseBuild, "function", name)
		}
		val.SetName(name)
		return nil
	case *constant.Int:
		return errors.Unsupported(errors.PhaseBuild, "naming a constant")
	case value.Named:
		if types.Equal(val.Type(), types.Void) {
			return errors.InvalidInput(errors.PhaseBuild, "cannot name a void value")
		}
		val.SetName(name)
		return nil
	}
	return errors.Unsupported(errors.PhaseBuild, "naming a "+describe(o))
}

func (l *Library) ConstInt(t capi.TypeRef, v int64) (capi.ValueRef, error) {
	const op = "LLVMConstInt"
	l.mu.Lock()
	defer l.mu.Unlock()
	to, err := l.lookup(op, t.Ptr(), kindType)
	if err != nil {
		return capi.ValueRef{}, err
	}
	it, ok := to.typ.(*types.IntType)
	if !ok {
		return capi.ValueRef{}, errors.TypeMismatch(errors.PhaseBuild, nil, "integer type", to.typ.String())
	}
	ctx := l.objs[to.owner]
	key := fmt.Sprintf("%s %d", it, v)
	if p, ok := ctx.ctx.consts[key]; ok {
		if o, live := l.objs[p]; live {
			return capi.ValueRefOf(l.handOut(o)), nil
		}
	}
	o := l.register(constant.NewInt(it, v), ctx.ptr, 0, 0)
	ctx.ctx.consts[key] = o.ptr
	return capi.ValueRefOf(l.handOut(o)), nil
}

func (l *Library) ConstIntGetSExtValue(v capi.ValueRef) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMConstIntGetSExtValue", v.Ptr(), kindValue)
	if err != nil {
		return 0, false
	}
	c, ok := o.val.(*constant.Int)
	if !ok || !c.X.IsInt64() {
		return 0, false
	}
	return c.X.Int64(), true
}

func (l *Library) GetInstructionOpcode(v capi.ValueRef) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMGetInstructionOpcode", v.Ptr(), kindValue)
	if err != nil {
		return ""
	}
	if o.term != nil {
		return opcodeOf(o.term)
	}
	return opcodeOf(o.val)
}

func (l *Library) GetInstructionParentFunction(v capi.ValueRef) capi.ValueRef {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMGetInstructionParent", v.Ptr(), kindValue)
	if err != nil || o.fn == 0 {
		return capi.ValueRef{}
	}
	return capi.ValueRefOf(l.handOut(l.objs[o.fn]))
}

func (l *Library) PrintValueToString(v capi.ValueRef) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMPrintValueToString", v.Ptr(), kindValue)
	if err != nil {
		return ""
	}
	if o.term != nil {
		return o.term.LLString()
	}
	switch val := o.val.(type) {
	case *ir.Func:
		return val.Ident()
	case ir.Instruction:
		if s, ok := val.(interface{ LLString() string }); ok {
			return s.LLString()
		}
	}
	return o.val.String()
}

func opcodeOf(x any) string {
	switch x.(type) {
	case *ir.InstAdd:
		return "add"
	case *ir.InstSub:
		return "sub"
	case *ir.InstMul:
		return "mul"
	case *ir.InstSDiv:
		return "sdiv"
	case *ir.InstUDiv:
		return "udiv"
	case *ir.InstSRem:
		return "srem"
	case *ir.InstURem:
		return "urem"
	case *ir.InstAnd:
		return "and"
	case *ir.InstOr:
		return "or"
	case *ir.InstXor:
		return "xor"
	case *ir.InstShl:
		return "shl"
	case *ir.InstLShr:
		return "lshr"
	case *ir.InstAShr:
		return "ashr"
	case *ir.InstFAdd:
		return "fadd"
	case *ir.InstFSub:
		return "fsub"
	case *ir.InstFMul:
		return "fmul"
	case *ir.InstFDiv:
		return "fdiv"
	case *ir.InstICmp:
		return "icmp"
	case *ir.InstCall:
		return "call"
	case *ir.TermRet:
		return "ret"
	case *ir.TermBr:
		return "br"
	case *ir.TermCondBr:
		return "condbr"
	default:
		return ""
	}
}

func (l *Library) AppendBasicBlock(fn capi.ValueRef, name string) (capi.BasicBlockRef, error) {
	const op = "LLVMAppendBasicBlock"
	l.mu.Lock()
	defer l.mu.Unlock()
	fo, f, err := l.function(op, fn)
	if err != nil {
		return capi.BasicBlockRef{}, err
	}
	if _, numeric := strconv.Atoi(name); numeric == nil {
		return capi.BasicBlockRef{}, errors.InvalidInput(errors.PhaseBuild, fmt.Sprintf("name %q is reserved for numbering", name))
	}
	blk := f.NewBlock(name)
	o := l.alloc(&object{kind: kindBlock, owner: fo.owner, blk: blk, fn: fo.ptr})
	l.addrs[blk] = o.ptr
	return capi.BasicBlockRefOf(l.handOut(o)), nil
}

func (l *Library) GetBasicBlockParent(b capi.BasicBlockRef) capi.ValueRef {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMGetBasicBlockParent", b.Ptr(), kindBlock)
	if err != nil {
		return capi.ValueRef{}
	}
	return capi.ValueRefOf(l.handOut(l.objs[o.fn]))
}

func (l *Library) GetBasicBlockName(b capi.BasicBlockRef) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMGetBasicBlockName", b.Ptr(), kindBlock)
	if err != nil {
		return ""
	}
	return o.blk.LocalName
}

func (l *Library) GetBasicBlockTerminator(b capi.BasicBlockRef) capi.ValueRef {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMGetBasicBlockTerminator", b.Ptr(), kindBlock)
	if err != nil || o.blk.Term == nil {
		return capi.ValueRef{}
	}
	return capi.ValueRefOf(l.handOut(l.objs[l.addrs[o.blk.Term]]))
}

func (l *Library) CountBasicBlocks(fn capi.ValueRef) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, f, err := l.function("LLVMCountBasicBlocks", fn)
	if err != nil {
		return 0
	}
	return len(f.Blocks)
}

func (l *Library) CountInstructions(b capi.BasicBlockRef) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("CountInstructions", b.Ptr(), kindBlock)
	if err != nil {
		return 0
	}
	n := len(o.blk.Insts)
	if o.blk.Term != nil {
		n++
	}
	return n
}
