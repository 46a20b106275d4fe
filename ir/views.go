package ir

import (
	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/entity"
)

// ID kinds issued by a Module. IDs of different kinds are distinct types.
type (
	TypeID      = entity.ID[*Type]
	ValueID     = entity.ID[*Value]
	BlockID     = entity.ID[*BasicBlock]
	AttributeID = entity.ID[*Attribute]
)

// Type is the view of a borrowed type.
type Type struct {
	entity.NoCopy
	lib capi.Library
	ref capi.TypeRef
}

// Ref returns the borrowed reference.
func (t *Type) Ref() capi.TypeRef { return t.ref }

// Kind classifies the type.
func (t *Type) Kind() capi.TypeKind { return t.lib.GetTypeKind(t.ref) }

// Width returns the bit width of an integer type and 0 otherwise.
func (t *Type) Width() uint {
	if t.Kind() != capi.IntegerTypeKind {
		return 0
	}
	return t.lib.GetIntTypeWidth(t.ref)
}

// Variadic reports whether a function type accepts extra arguments.
func (t *Type) Variadic() bool {
	return t.Kind() == capi.FunctionTypeKind && t.lib.IsFunctionVarArg(t.ref)
}

func (t *Type) String() string { return t.lib.PrintTypeToString(t.ref) }

// Value is the view of a borrowed value.
type Value struct {
	entity.NoCopy
	lib capi.Library
	ref capi.ValueRef
}

// Ref returns the borrowed reference.
func (v *Value) Ref() capi.ValueRef { return v.ref }

// Kind classifies the value.
func (v *Value) Kind() capi.ValueKind { return v.lib.GetValueKind(v.ref) }

// Name returns the value's name, empty when unnamed.
func (v *Value) Name() string { return v.lib.GetValueName(v.ref) }

// SetName renames the value.
func (v *Value) SetName(name string) error { return v.lib.SetValueName(v.ref, name) }

// Opcode returns the opcode of an instruction, empty for other values.
func (v *Value) Opcode() string {
	if v.Kind() != capi.InstructionValueKind {
		return ""
	}
	return v.lib.GetInstructionOpcode(v.ref)
}

// Int returns the value of an integer constant.
func (v *Value) Int() (int64, bool) {
	if v.Kind() != capi.ConstantIntValueKind {
		return 0, false
	}
	return v.lib.ConstIntGetSExtValue(v.ref)
}

// ParamCount returns the parameter count of a function, 0 for other values.
func (v *Value) ParamCount() int {
	if v.Kind() != capi.FunctionValueKind {
		return 0
	}
	return v.lib.CountParams(v.ref)
}

// BlockCount returns the number of basic blocks of a function.
func (v *Value) BlockCount() int {
	if v.Kind() != capi.FunctionValueKind {
		return 0
	}
	return v.lib.CountBasicBlocks(v.ref)
}

func (v *Value) String() string { return v.lib.PrintValueToString(v.ref) }

// BasicBlock is the view of a borrowed basic block.
type BasicBlock struct {
	entity.NoCopy
	lib capi.Library
	ref capi.BasicBlockRef
}

// Ref returns the borrowed reference.
func (b *BasicBlock) Ref() capi.BasicBlockRef { return b.ref }

// Name returns the block label, empty when unnamed.
func (b *BasicBlock) Name() string { return b.lib.GetBasicBlockName(b.ref) }

// Len returns the number of instructions including the terminator.
func (b *BasicBlock) Len() int { return b.lib.CountInstructions(b.ref) }

// Attribute is the view of a borrowed attribute.
type Attribute struct {
	entity.NoCopy
	lib capi.Library
	ref capi.AttributeRef
}

// Ref returns the borrowed reference.
func (a *Attribute) Ref() capi.AttributeRef { return a.ref }

// Kind returns the enum kind of the attribute.
func (a *Attribute) Kind() uint { return a.lib.GetEnumAttributeKind(a.ref) }

// Name returns the attribute's spelling in textual IR.
func (a *Attribute) Name() string { return a.lib.GetAttributeName(a.ref) }
