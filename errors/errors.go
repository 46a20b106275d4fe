package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseBuild   Phase = "build"   // instruction and type construction
	PhaseLookup  Phase = "lookup"  // queries by name or index
	PhaseVerify  Phase = "verify"  // module verification
	PhaseEmit    Phase = "emit"    // textual IR emission
	PhaseLower   Phase = "lower"   // lowering to a wasm binary
	PhaseExecute Phase = "execute" // running emitted code
	PhaseConfig  Phase = "config"  // recipes and options
	PhaseDispose Phase = "dispose" // foreign teardown
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch Kind = "type_mismatch"
	KindOutOfBounds  Kind = "out_of_bounds"
	KindNotFound     Kind = "not_found"
	KindInvalidInput Kind = "invalid_input"
	KindUnsupported  Kind = "unsupported"
	KindVerification Kind = "verification"
	KindInvalidRef   Kind = "invalid_ref"
	KindDuplicate    Kind = "duplicate"
	KindForeign      Kind = "foreign"
	KindInstantiate  Kind = "instantiate"
	KindTrap         Kind = "trap"
	KindIO           Kind = "io"
)

// Error is the structured error type used throughout the binding
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Want   string
	Got    string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Want != "" || e.Got != "" {
		b.WriteString(": ")
		switch {
		case e.Want != "" && e.Got != "":
			b.WriteString("want ")
			b.WriteString(e.Want)
			b.WriteString(", got ")
			b.WriteString(e.Got)
		case e.Want != "":
			b.WriteString("want ")
			b.WriteString(e.Want)
		default:
			b.WriteString("got ")
			b.WriteString(e.Got)
		}
	}

	if e.Detail != "" {
		if e.Want != "" || e.Got != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the IR path (function, block, instruction)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Want sets the expected IR type
func (b *Builder) Want(t string) *Builder {
	b.err.Want = t
	return b
}

// Got sets the actual IR type
func (b *Builder) Got(t string) *Builder {
	b.err.Got = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, want, got string) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindTypeMismatch,
		Path:  path,
		Want:  want,
		Got:   got,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidRef creates an error for a pointer the foreign library does not recognize
func InvalidRef(phase Phase, what string, ptr uintptr) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidRef,
		Detail: fmt.Sprintf("%s pointer 0x%x is not live", what, ptr),
		Value:  ptr,
	}
}

// Duplicate creates an error for a name that is already defined
func Duplicate(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicate,
		Detail: fmt.Sprintf("%s %q already defined", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Problem is a single finding of module verification
type Problem struct {
	Function string
	Block    string
	Detail   string
}

// VerificationError is returned when a module fails verification
type VerificationError struct {
	Module   string
	Problems []Problem
}

func (e *VerificationError) Error() string {
	if len(e.Problems) == 0 {
		return "[verify] verification: no problems recorded"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("module %q failed verification with %d problem(s):\n", e.Module, len(e.Problems)))

	// Group by function for cleaner output
	byFunc := make(map[string][]Problem)
	var order []string
	for _, p := range e.Problems {
		if _, exists := byFunc[p.Function]; !exists {
			order = append(order, p.Function)
		}
		byFunc[p.Function] = append(byFunc[p.Function], p)
	}

	for _, fn := range order {
		b.WriteString("\n  @")
		b.WriteString(fn)
		b.WriteString(":\n")
		for _, p := range byFunc[fn] {
			b.WriteString("    - ")
			if p.Block != "" {
				b.WriteString(p.Block)
				b.WriteString(": ")
			}
			b.WriteString(p.Detail)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target is a verification failure
func (e *VerificationError) Is(target error) bool {
	switch t := target.(type) {
	case *VerificationError:
		return true
	case *Error:
		return t.Phase == PhaseVerify && t.Kind == KindVerification
	}
	return false
}

// Instantiation creates an error for emitted code the engine could not instantiate
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseExecute,
		Kind:   KindInstantiate,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
