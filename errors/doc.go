// Package errors provides structured error types for failures reported by the foreign
// IR library and the layers built on it.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the path of the IR construct involved (function, block,
// instruction), the expected and actual IR types for mismatches, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBuild, errors.KindTypeMismatch).
//		Path("add", "entry").
//		Want("i32").
//		Got("i64").
//		Detail("operands of add must share a type").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseBuild, path, "i32", "i64")
//	err := errors.OutOfBounds(errors.PhaseLookup, path, 3, 2)
//
// These errors are recoverable results. Broken borrow contracts are not reported
// here; they panic in package entity.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
