// Package inproc implements capi.Library in process on top of github.com/llir/llvm.
//
// Objects live in a heap of fake addresses. Addresses are never reused, so a pointer
// that outlives its object is always recognised. The library behaves like a native
// one towards well-formed callers and records a Fault for every misuse a native
// library would punish with undefined behavior: releasing a pointer twice, using a
// freed pointer, disposing a module while the host still holds its objects, or
// disposing a context before its modules.
//
// Types and integer constants are uniqued per context. Attributes are not: every
// CreateEnumAttribute call returns a fresh object.
package inproc
