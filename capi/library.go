package capi

import "io"

// Library is the function table of the foreign IR library.
//
// Functions that can fail on well-formed pointers return an error. Passing a pointer
// the library has already freed is undefined behavior in a native library; an
// implementation may report it as an error but callers must not rely on that.
type Library interface {
	ContextCreate() ContextRef
	ContextDispose(ContextRef)

	ModuleCreateWithName(name string, ctx ContextRef) ModuleRef
	DisposeModule(ModuleRef)
	GetModuleIdentifier(ModuleRef) string
	SetSourceFileName(ModuleRef, string)
	SetTarget(ModuleRef, string) error
	GetTarget(ModuleRef) string

	CreateBuilder(ContextRef) BuilderRef
	DisposeBuilder(BuilderRef)
	PositionBuilderAtEnd(BuilderRef, BasicBlockRef) error
	GetInsertBlock(BuilderRef) BasicBlockRef

	IntType(ctx ContextRef, bits uint) (TypeRef, error)
	FloatType(ContextRef) TypeRef
	DoubleType(ContextRef) TypeRef
	VoidType(ContextRef) TypeRef
	FunctionType(ret TypeRef, params []TypeRef, variadic bool) (TypeRef, error)
	GetTypeKind(TypeRef) TypeKind
	GetIntTypeWidth(TypeRef) uint
	GetReturnType(TypeRef) TypeRef
	GetParamTypes(TypeRef) []TypeRef
	IsFunctionVarArg(TypeRef) bool
	PrintTypeToString(TypeRef) string

	AddFunction(mod ModuleRef, name string, fnType TypeRef) (ValueRef, error)
	GetNamedFunction(mod ModuleRef, name string) ValueRef
	GetFunctions(ModuleRef) []ValueRef
	CountParams(fn ValueRef) int
	GetParam(fn ValueRef, index int) (ValueRef, error)
	TypeOf(ValueRef) TypeRef
	GetValueKind(ValueRef) ValueKind
	GetValueName(ValueRef) string
	SetValueName(ValueRef, string) error
	ConstInt(ty TypeRef, v int64) (ValueRef, error)
	ConstIntGetSExtValue(ValueRef) (int64, bool)
	GetInstructionOpcode(ValueRef) string
	GetInstructionParentFunction(ValueRef) ValueRef
	PrintValueToString(ValueRef) string

	AppendBasicBlock(fn ValueRef, name string) (BasicBlockRef, error)
	GetBasicBlockParent(BasicBlockRef) ValueRef
	GetBasicBlockName(BasicBlockRef) string
	GetBasicBlockTerminator(BasicBlockRef) ValueRef
	CountBasicBlocks(fn ValueRef) int
	CountInstructions(BasicBlockRef) int

	BuildBinOp(b BuilderRef, op Opcode, lhs, rhs ValueRef, name string) (ValueRef, error)
	BuildICmp(b BuilderRef, pred IntPredicate, lhs, rhs ValueRef, name string) (ValueRef, error)
	BuildCall(b BuilderRef, fn ValueRef, args []ValueRef, name string) (ValueRef, error)
	BuildRet(b BuilderRef, v ValueRef) (ValueRef, error)
	BuildRetVoid(b BuilderRef) (ValueRef, error)
	BuildBr(b BuilderRef, dest BasicBlockRef) (ValueRef, error)
	BuildCondBr(b BuilderRef, cond ValueRef, then, els BasicBlockRef) (ValueRef, error)

	GetEnumAttributeKindForName(name string) uint
	CreateEnumAttribute(ctx ContextRef, kind uint) (AttributeRef, error)
	GetEnumAttributeKind(AttributeRef) uint
	GetAttributeName(AttributeRef) string
	AddAttributeAtIndex(fn ValueRef, idx AttributeIndex, attr AttributeRef) error
	GetAttributeCountAtIndex(fn ValueRef, idx AttributeIndex) int

	VerifyModule(ModuleRef) error
	PrintModule(ModuleRef, io.Writer) error
	EmitWasm(ModuleRef, io.Writer) error

	// Release functions drop the host's hold on an object handed out by a creation
	// or query function. A pointer is released at most once until it is handed out
	// again.
	ReleaseType(TypeRef)
	ReleaseValue(ValueRef)
	ReleaseBasicBlock(BasicBlockRef)
	ReleaseAttribute(AttributeRef)
}
