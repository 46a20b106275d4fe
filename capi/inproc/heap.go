package inproc

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"go.uber.org/zap"

	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/errors"
)

const (
	heapBase   capi.Pointer = 0x10000
	heapStride capi.Pointer = 0x10
)

type kind uint8

const (
	kindContext kind = iota + 1
	kindModule
	kindBuilder
	kindType
	kindValue
	kindBlock
	kindAttribute
)

func (k kind) String() string {
	switch k {
	case kindContext:
		return "context"
	case kindModule:
		return "module"
	case kindBuilder:
		return "builder"
	case kindType:
		return "type"
	case kindValue:
		return "value"
	case kindBlock:
		return "basic block"
	case kindAttribute:
		return "attribute"
	default:
		return "object"
	}
}

// Fault records a misuse of the library that a native implementation would not
// survive.
type Fault struct {
	Op     string
	Ptr    capi.Pointer
	Detail string
}

func (f Fault) String() string {
	return fmt.Sprintf("%s(%s): %s", f.Op, f.Ptr, f.Detail)
}

type context struct {
	types  map[string]capi.Pointer
	consts map[string]capi.Pointer
}

type module struct {
	ir   *ir.Module
	ctx  capi.Pointer
	name string
}

type builder struct {
	ctx   capi.Pointer
	block capi.Pointer
}

type attribute struct {
	kind uint
	name string
}

// object is one heap cell. owner is the context for types, attributes, constants,
// modules and builders, and the module for everything reachable from a function.
type object struct {
	kind   kind
	ptr    capi.Pointer
	owner  capi.Pointer
	pinned bool

	ctx  *context
	mod  *module
	bld  *builder
	typ  types.Type
	val  value.Value
	term ir.Terminator
	blk  *ir.Block
	attr *attribute

	fn    capi.Pointer // enclosing function of params, blocks and instructions
	block capi.Pointer // enclosing block of instructions
}

func (l *Library) alloc(o *object) *object {
	l.next += heapStride
	o.ptr = heapBase + l.next
	l.objs[o.ptr] = o
	return o
}

// handOut pins o for the host and returns its address.
func (l *Library) handOut(o *object) capi.Pointer {
	o.pinned = true
	return o.ptr
}

func (l *Library) free(o *object) {
	delete(l.objs, o.ptr)
	l.freed[o.ptr] = o.kind
	switch {
	case o.val != nil:
		delete(l.addrs, o.val)
	case o.term != nil:
		delete(l.addrs, o.term)
	case o.blk != nil:
		delete(l.addrs, o.blk)
	}
}

func (l *Library) fault(op string, p capi.Pointer, detail string, args ...any) {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	f := Fault{Op: op, Ptr: p, Detail: detail}
	l.faults = append(l.faults, f)
	Logger().Warn("foreign library fault",
		zap.String("op", op),
		zap.Stringer("ptr", p),
		zap.String("detail", detail),
	)
}

// lookup resolves p to a live object of kind k. Unknown, freed and mistyped pointers
// record a fault and yield an InvalidRef error.
func (l *Library) lookup(op string, p capi.Pointer, k kind) (*object, error) {
	if p == 0 {
		return nil, errors.InvalidRef(phaseOf(op), k.String(), uintptr(p))
	}
	o, ok := l.objs[p]
	if !ok {
		if was, freed := l.freed[p]; freed {
			l.fault(op, p, "use of freed %s", was)
		} else {
			l.fault(op, p, "unknown %s pointer", k)
		}
		return nil, errors.InvalidRef(phaseOf(op), k.String(), uintptr(p))
	}
	if o.kind != k {
		l.fault(op, p, "%s pointer passed where %s expected", o.kind, k)
		return nil, errors.InvalidRef(phaseOf(op), k.String(), uintptr(p))
	}
	return o, nil
}

func (l *Library) release(op string, p capi.Pointer, k kind) {
	o, err := l.lookup(op, p, k)
	if err != nil {
		return
	}
	if !o.pinned {
		l.fault(op, p, "%s released twice", k)
		return
	}
	o.pinned = false
}

// owned returns the live objects whose owner is p.
func (l *Library) owned(p capi.Pointer) []*object {
	var out []*object
	for _, o := range l.objs {
		if o.owner == p {
			out = append(out, o)
		}
	}
	return out
}

func phaseOf(op string) errors.Phase {
	switch op {
	case "LLVMVerifyModule":
		return errors.PhaseVerify
	case "LLVMPrintModule":
		return errors.PhaseEmit
	case "EmitWasm":
		return errors.PhaseLower
	case "LLVMDisposeModule", "LLVMContextDispose", "LLVMDisposeBuilder":
		return errors.PhaseDispose
	case "LLVMGetNamedFunction", "LLVMGetParam", "LLVMGetFunctions":
		return errors.PhaseLookup
	default:
		return errors.PhaseBuild
	}
}
