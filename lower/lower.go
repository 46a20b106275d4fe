package lower

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/wippyai/irbind/errors"
)

const importModule = "env"

// wasm opcodes used by the lowering.
const (
	opEnd      byte = 0x0B
	opCall     byte = 0x10
	opLocalGet byte = 0x20
	opLocalSet byte = 0x21
	opI32Const byte = 0x41
	opI64Const byte = 0x42
)

// binaryOps maps an IR opcode to its i32, i64, f32 and f64 encodings. Zero means the
// combination does not exist.
var binaryOps = map[string][4]byte{
	"add":  {0x6A, 0x7C, 0, 0},
	"sub":  {0x6B, 0x7D, 0, 0},
	"mul":  {0x6C, 0x7E, 0, 0},
	"sdiv": {0x6D, 0x7F, 0, 0},
	"udiv": {0x6E, 0x80, 0, 0},
	"srem": {0x6F, 0x81, 0, 0},
	"urem": {0x70, 0x82, 0, 0},
	"and":  {0x71, 0x83, 0, 0},
	"or":   {0x72, 0x84, 0, 0},
	"xor":  {0x73, 0x85, 0, 0},
	"shl":  {0x74, 0x86, 0, 0},
	"ashr": {0x75, 0x87, 0, 0},
	"lshr": {0x76, 0x88, 0, 0},
	"fadd": {0, 0, 0x92, 0xA0},
	"fsub": {0, 0, 0x93, 0xA1},
	"fmul": {0, 0, 0x94, 0xA2},
	"fdiv": {0, 0, 0x95, 0xA3},
}

// compareOps maps an integer predicate to its i32 and i64 encodings.
var compareOps = map[enum.IPred][2]byte{
	enum.IPredEQ:  {0x46, 0x51},
	enum.IPredNE:  {0x47, 0x52},
	enum.IPredSLT: {0x48, 0x53},
	enum.IPredULT: {0x49, 0x54},
	enum.IPredSGT: {0x4A, 0x55},
	enum.IPredUGT: {0x4B, 0x56},
	enum.IPredSLE: {0x4C, 0x57},
	enum.IPredULE: {0x4D, 0x58},
	enum.IPredSGE: {0x4E, 0x59},
	enum.IPredUGE: {0x4F, 0x5A},
}

// Module lowers m to a wasm binary.
func Module(m *ir.Module) ([]byte, error) {
	bm := &binaryModule{}
	funcIdx := make(map[*ir.Func]uint32)

	for _, f := range m.Funcs {
		if len(f.Blocks) > 0 {
			continue
		}
		ft, err := signature(f)
		if err != nil {
			return nil, err
		}
		funcIdx[f] = uint32(len(bm.imports))
		bm.imports = append(bm.imports, importFunc{module: importModule, name: f.Name(), typeIdx: bm.internType(ft)})
	}
	bm.firstDef = uint32(len(bm.imports))

	var defined []*ir.Func
	for _, f := range m.Funcs {
		if len(f.Blocks) == 0 {
			continue
		}
		ft, err := signature(f)
		if err != nil {
			return nil, err
		}
		funcIdx[f] = bm.firstDef + uint32(len(defined))
		defined = append(defined, f)
		bm.funcs = append(bm.funcs, bm.internType(ft))
		bm.exports = append(bm.exports, f.Name())
	}

	for _, f := range defined {
		b, err := lowerFunc(f, funcIdx)
		if err != nil {
			return nil, err
		}
		bm.bodies = append(bm.bodies, b)
	}
	return bm.encode(), nil
}

func unsupported(f *ir.Func, format string, args ...any) error {
	return errors.New(errors.PhaseLower, errors.KindUnsupported).
		Path(f.Name()).
		Detail(format, args...).
		Build()
}

func signature(f *ir.Func) (funcType, error) {
	if f.Sig.Variadic {
		return funcType{}, unsupported(f, "variadic functions")
	}
	var ft funcType
	for _, p := range f.Sig.Params {
		vt, err := valTypeOf(p)
		if err != nil {
			return funcType{}, unsupported(f, "parameter type %s", p)
		}
		ft.params = append(ft.params, vt)
	}
	if !types.Equal(f.Sig.RetType, types.Void) {
		vt, err := valTypeOf(f.Sig.RetType)
		if err != nil {
			return funcType{}, unsupported(f, "return type %s", f.Sig.RetType)
		}
		ft.results = []valType{vt}
	}
	return ft, nil
}

func valTypeOf(t types.Type) (valType, error) {
	switch t := t.(type) {
	case *types.IntType:
		switch t.BitSize {
		case 1, 32:
			return valI32, nil
		case 64:
			return valI64, nil
		}
	case *types.FloatType:
		switch t.Kind {
		case types.FloatKindFloat:
			return valF32, nil
		case types.FloatKindDouble:
			return valF64, nil
		}
	}
	return 0, fmt.Errorf("no wasm type for %s", t)
}

// funcLowering holds the state of one function body.
type funcLowering struct {
	f       *ir.Func
	funcIdx map[*ir.Func]uint32
	locals  map[value.Value]uint32
	nparams uint32
	extra   []valType
	code    []byte
}

func lowerFunc(f *ir.Func, funcIdx map[*ir.Func]uint32) (body, error) {
	if len(f.Blocks) != 1 {
		return body{}, unsupported(f, "control flow across %d blocks", len(f.Blocks))
	}
	fl := &funcLowering{
		f:       f,
		funcIdx: funcIdx,
		locals:  make(map[value.Value]uint32),
		nparams: uint32(len(f.Params)),
	}
	for i, p := range f.Params {
		fl.locals[p] = uint32(i)
	}

	blk := f.Blocks[0]
	for _, inst := range blk.Insts {
		if err := fl.instruction(inst); err != nil {
			return body{}, err
		}
	}
	if err := fl.terminator(blk.Term); err != nil {
		return body{}, err
	}
	fl.code = append(fl.code, opEnd)
	return body{locals: fl.extra, code: fl.code}, nil
}

// push emits the instructions that leave v on the operand stack.
func (fl *funcLowering) push(v value.Value) error {
	if idx, ok := fl.locals[v]; ok {
		fl.code = append(fl.code, opLocalGet)
		fl.code = appendU32(fl.code, idx)
		return nil
	}
	c, ok := v.(*constant.Int)
	if !ok {
		return unsupported(fl.f, "operand %s", v.Ident())
	}
	vt, err := valTypeOf(c.Typ)
	if err != nil {
		return unsupported(fl.f, "constant of type %s", c.Typ)
	}
	if !c.X.IsInt64() {
		return unsupported(fl.f, "constant %s exceeds 64 bits", c.X)
	}
	if vt == valI64 {
		fl.code = append(fl.code, opI64Const)
		fl.code = appendS64(fl.code, c.X.Int64())
		return nil
	}
	x := c.X.Int64()
	if c.Typ.BitSize == 1 {
		x &= 1
	}
	fl.code = append(fl.code, opI32Const)
	fl.code = appendS64(fl.code, int64(int32(x)))
	return nil
}

// define stores the top of the stack into a fresh local for v.
func (fl *funcLowering) define(v value.Value) error {
	vt, err := valTypeOf(v.Type())
	if err != nil {
		return unsupported(fl.f, "result type %s", v.Type())
	}
	idx := fl.nparams + uint32(len(fl.extra))
	fl.extra = append(fl.extra, vt)
	fl.locals[v] = idx
	fl.code = append(fl.code, opLocalSet)
	fl.code = appendU32(fl.code, idx)
	return nil
}

func (fl *funcLowering) instruction(inst ir.Instruction) error {
	switch inst := inst.(type) {
	case *ir.InstICmp:
		return fl.compare(inst)
	case *ir.InstCall:
		return fl.call(inst)
	}
	name, x, y, ok := binaryOperands(inst)
	if !ok {
		return unsupported(fl.f, "instruction %T", inst)
	}
	return fl.binary(inst.(value.Value), name, x, y)
}

func binaryOperands(inst ir.Instruction) (string, value.Value, value.Value, bool) {
	switch i := inst.(type) {
	case *ir.InstAdd:
		return "add", i.X, i.Y, true
	case *ir.InstSub:
		return "sub", i.X, i.Y, true
	case *ir.InstMul:
		return "mul", i.X, i.Y, true
	case *ir.InstSDiv:
		return "sdiv", i.X, i.Y, true
	case *ir.InstUDiv:
		return "udiv", i.X, i.Y, true
	case *ir.InstSRem:
		return "srem", i.X, i.Y, true
	case *ir.InstURem:
		return "urem", i.X, i.Y, true
	case *ir.InstAnd:
		return "and", i.X, i.Y, true
	case *ir.InstOr:
		return "or", i.X, i.Y, true
	case *ir.InstXor:
		return "xor", i.X, i.Y, true
	case *ir.InstShl:
		return "shl", i.X, i.Y, true
	case *ir.InstLShr:
		return "lshr", i.X, i.Y, true
	case *ir.InstAShr:
		return "ashr", i.X, i.Y, true
	case *ir.InstFAdd:
		return "fadd", i.X, i.Y, true
	case *ir.InstFSub:
		return "fsub", i.X, i.Y, true
	case *ir.InstFMul:
		return "fmul", i.X, i.Y, true
	case *ir.InstFDiv:
		return "fdiv", i.X, i.Y, true
	}
	return "", nil, nil, false
}

func (fl *funcLowering) binary(result value.Value, name string, x, y value.Value) error {
	if it, ok := x.Type().(*types.IntType); ok && it.BitSize == 1 {
		return unsupported(fl.f, "%s on i1", name)
	}
	vt, err := valTypeOf(x.Type())
	if err != nil {
		return unsupported(fl.f, "%s on %s", name, x.Type())
	}
	var op byte
	switch vt {
	case valI32:
		op = binaryOps[name][0]
	case valI64:
		op = binaryOps[name][1]
	case valF32:
		op = binaryOps[name][2]
	case valF64:
		op = binaryOps[name][3]
	}
	if op == 0 {
		return unsupported(fl.f, "%s on %s", name, vt)
	}
	if err := fl.push(x); err != nil {
		return err
	}
	if err := fl.push(y); err != nil {
		return err
	}
	fl.code = append(fl.code, op)
	return fl.define(result)
}

func (fl *funcLowering) compare(inst *ir.InstICmp) error {
	vt, err := valTypeOf(inst.X.Type())
	if err != nil || (vt != valI32 && vt != valI64) {
		return unsupported(fl.f, "icmp on %s", inst.X.Type())
	}
	ops, ok := compareOps[inst.Pred]
	if !ok {
		return unsupported(fl.f, "icmp predicate %s", inst.Pred)
	}
	if err := fl.push(inst.X); err != nil {
		return err
	}
	if err := fl.push(inst.Y); err != nil {
		return err
	}
	if vt == valI64 {
		fl.code = append(fl.code, ops[1])
	} else {
		fl.code = append(fl.code, ops[0])
	}
	return fl.define(inst)
}

func (fl *funcLowering) call(inst *ir.InstCall) error {
	callee, ok := inst.Callee.(*ir.Func)
	if !ok {
		return unsupported(fl.f, "indirect call")
	}
	idx, ok := fl.funcIdx[callee]
	if !ok {
		return unsupported(fl.f, "call to %s outside the module", callee.Ident())
	}
	for _, a := range inst.Args {
		if err := fl.push(a); err != nil {
			return err
		}
	}
	fl.code = append(fl.code, opCall)
	fl.code = appendU32(fl.code, idx)
	if types.Equal(inst.Type(), types.Void) {
		return nil
	}
	return fl.define(inst)
}

func (fl *funcLowering) terminator(term ir.Terminator) error {
	ret, ok := term.(*ir.TermRet)
	if !ok {
		return unsupported(fl.f, "terminator %T", term)
	}
	if ret.X == nil {
		return nil
	}
	return fl.push(ret.X)
}
