package capi

import "fmt"

// Pointer is an opaque address in the foreign library's heap.
type Pointer uintptr

func (p Pointer) String() string {
	return fmt.Sprintf("0x%x", uintptr(p))
}

// ContextRef references a foreign context, the owner of types and attributes.
type ContextRef struct{ ptr Pointer }

// ContextRefOf wraps p.
func ContextRefOf(p Pointer) ContextRef { return ContextRef{ptr: p} }

// Ptr returns the wrapped pointer.
func (r ContextRef) Ptr() Pointer { return r.ptr }

// IsNil reports whether r is the null pointer.
func (r ContextRef) IsNil() bool { return r.ptr == 0 }

// ModuleRef references a foreign module, the owner of functions and their bodies.
type ModuleRef struct{ ptr Pointer }

// ModuleRefOf wraps p.
func ModuleRefOf(p Pointer) ModuleRef { return ModuleRef{ptr: p} }

// Ptr returns the wrapped pointer.
func (r ModuleRef) Ptr() Pointer { return r.ptr }

// IsNil reports whether r is the null pointer.
func (r ModuleRef) IsNil() bool { return r.ptr == 0 }

// BuilderRef references a foreign instruction builder.
type BuilderRef struct{ ptr Pointer }

// BuilderRefOf wraps p.
func BuilderRefOf(p Pointer) BuilderRef { return BuilderRef{ptr: p} }

// Ptr returns the wrapped pointer.
func (r BuilderRef) Ptr() Pointer { return r.ptr }

// IsNil reports whether r is the null pointer.
func (r BuilderRef) IsNil() bool { return r.ptr == 0 }

// TypeRef references a foreign type.
type TypeRef struct{ ptr Pointer }

// TypeRefOf wraps p.
func TypeRefOf(p Pointer) TypeRef { return TypeRef{ptr: p} }

// Ptr returns the wrapped pointer.
func (r TypeRef) Ptr() Pointer { return r.ptr }

// IsNil reports whether r is the null pointer.
func (r TypeRef) IsNil() bool { return r.ptr == 0 }

// ValueRef references a foreign value: a function, parameter, constant or instruction.
type ValueRef struct{ ptr Pointer }

// ValueRefOf wraps p.
func ValueRefOf(p Pointer) ValueRef { return ValueRef{ptr: p} }

// Ptr returns the wrapped pointer.
func (r ValueRef) Ptr() Pointer { return r.ptr }

// IsNil reports whether r is the null pointer.
func (r ValueRef) IsNil() bool { return r.ptr == 0 }

// BasicBlockRef references a foreign basic block.
type BasicBlockRef struct{ ptr Pointer }

// BasicBlockRefOf wraps p.
func BasicBlockRefOf(p Pointer) BasicBlockRef { return BasicBlockRef{ptr: p} }

// Ptr returns the wrapped pointer.
func (r BasicBlockRef) Ptr() Pointer { return r.ptr }

// IsNil reports whether r is the null pointer.
func (r BasicBlockRef) IsNil() bool { return r.ptr == 0 }

// AttributeRef references a foreign attribute.
type AttributeRef struct{ ptr Pointer }

// AttributeRefOf wraps p.
func AttributeRefOf(p Pointer) AttributeRef { return AttributeRef{ptr: p} }

// Ptr returns the wrapped pointer.
func (r AttributeRef) Ptr() Pointer { return r.ptr }

// IsNil reports whether r is the null pointer.
func (r AttributeRef) IsNil() bool { return r.ptr == 0 }
