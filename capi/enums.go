package capi

// TypeKind classifies a foreign type.
type TypeKind uint8

const (
	VoidTypeKind TypeKind = iota
	IntegerTypeKind
	FloatTypeKind
	DoubleTypeKind
	FunctionTypeKind
	PointerTypeKind
	OtherTypeKind
)

func (k TypeKind) String() string {
	switch k {
	case VoidTypeKind:
		return "void"
	case IntegerTypeKind:
		return "integer"
	case FloatTypeKind:
		return "float"
	case DoubleTypeKind:
		return "double"
	case FunctionTypeKind:
		return "function"
	case PointerTypeKind:
		return "pointer"
	default:
		return "other"
	}
}

// ValueKind classifies a foreign value.
type ValueKind uint8

const (
	FunctionValueKind ValueKind = iota
	ArgumentValueKind
	ConstantIntValueKind
	InstructionValueKind
	OtherValueKind
)

func (k ValueKind) String() string {
	switch k {
	case FunctionValueKind:
		return "function"
	case ArgumentValueKind:
		return "argument"
	case ConstantIntValueKind:
		return "constant"
	case InstructionValueKind:
		return "instruction"
	default:
		return "other"
	}
}

// Opcode selects a binary instruction.
type Opcode uint8

const (
	OpAdd Opcode = iota + 1
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpSRem
	OpURem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
)

var opcodeNames = map[Opcode]string{
	OpAdd:  "add",
	OpSub:  "sub",
	OpMul:  "mul",
	OpSDiv: "sdiv",
	OpUDiv: "udiv",
	OpSRem: "srem",
	OpURem: "urem",
	OpAnd:  "and",
	OpOr:   "or",
	OpXor:  "xor",
	OpShl:  "shl",
	OpLShr: "lshr",
	OpAShr: "ashr",
	OpFAdd: "fadd",
	OpFSub: "fsub",
	OpFMul: "fmul",
	OpFDiv: "fdiv",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "unknown"
}

// IsFloat reports whether op operates on floating point operands.
func (op Opcode) IsFloat() bool {
	return op >= OpFAdd && op <= OpFDiv
}

// OpcodeForName returns the opcode spelled name in textual IR.
func OpcodeForName(name string) (Opcode, bool) {
	for op, n := range opcodeNames {
		if n == name {
			return op, true
		}
	}
	return 0, false
}

// IntPredicate selects the comparison of an icmp instruction.
type IntPredicate uint8

const (
	IntEQ IntPredicate = iota + 32
	IntNE
	IntUGT
	IntUGE
	IntULT
	IntULE
	IntSGT
	IntSGE
	IntSLT
	IntSLE
)

var predicateNames = map[IntPredicate]string{
	IntEQ:  "eq",
	IntNE:  "ne",
	IntUGT: "ugt",
	IntUGE: "uge",
	IntULT: "ult",
	IntULE: "ule",
	IntSGT: "sgt",
	IntSGE: "sge",
	IntSLT: "slt",
	IntSLE: "sle",
}

func (p IntPredicate) String() string {
	if name, ok := predicateNames[p]; ok {
		return name
	}
	return "unknown"
}

// IntPredicateForName returns the predicate spelled name in textual IR.
func IntPredicateForName(name string) (IntPredicate, bool) {
	for p, n := range predicateNames {
		if n == name {
			return p, true
		}
	}
	return 0, false
}

// AttributeIndex selects where an attribute applies: the function, its return value,
// or parameter i at index i+1.
type AttributeIndex int

const (
	AttributeReturnIndex   AttributeIndex = 0
	AttributeFunctionIndex AttributeIndex = -1
)

// ParamIndex returns the attribute index of parameter i.
func ParamIndex(i int) AttributeIndex {
	return AttributeIndex(i + 1)
}
