// Package capi describes the C ABI of the foreign IR construction library.
//
// Every foreign object is reached through an opaque pointer. The reference types in
// this package (ContextRef, ModuleRef, BuilderRef, TypeRef, ValueRef, BasicBlockRef,
// AttributeRef) each wrap exactly one pointer, are comparable, and carry no ownership:
// two references are equal exactly when their pointers are. The zero value of every
// reference is the null pointer.
//
// Library is the function table of the native library. Creation functions return a
// fresh pointer; query functions return a pointer created earlier, which callers must
// reconcile with the identity they already issued for it; dispose and release
// functions must be called exactly once per owned object, modules before their
// context.
//
// A binding over a shared library implements Library with cgo. Package inproc
// implements it in process.
package capi
