package inproc

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/llir/llvm/ir"
	"go.uber.org/zap"

	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/errors"
	"github.com/wippyai/irbind/lower"
)

var _ capi.Library = (*Library)(nil)

// Library is an in-process capi.Library. It is safe for concurrent use; objects of
// different modules never interact.
type Library struct {
	mu     sync.Mutex
	next   capi.Pointer
	objs   map[capi.Pointer]*object
	freed  map[capi.Pointer]kind
	addrs  map[any]capi.Pointer
	faults []Fault
}

// New creates an empty library.
func New() *Library {
	return &Library{
		objs:  make(map[capi.Pointer]*object),
		freed: make(map[capi.Pointer]kind),
		addrs: make(map[any]capi.Pointer),
	}
}

// Faults returns every misuse recorded so far.
func (l *Library) Faults() []Fault {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Fault, len(l.faults))
	copy(out, l.faults)
	return out
}

// Live returns the number of objects not yet freed.
func (l *Library) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.objs)
}

// Pinned returns the number of objects the host holds and has not released.
func (l *Library) Pinned() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, o := range l.objs {
		if o.pinned && o.kind != kindContext && o.kind != kindModule && o.kind != kindBuilder {
			n++
		}
	}
	return n
}

func (l *Library) ContextCreate() capi.ContextRef {
	l.mu.Lock()
	defer l.mu.Unlock()
	o := l.alloc(&object{kind: kindContext, ctx: &context{
		types:  make(map[string]capi.Pointer),
		consts: make(map[string]capi.Pointer),
	}})
	Logger().Debug("context created", zap.Stringer("ptr", o.ptr))
	return capi.ContextRefOf(l.handOut(o))
}

func (l *Library) ContextDispose(c capi.ContextRef) {
	const op = "LLVMContextDispose"
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup(op, c.Ptr(), kindContext)
	if err != nil {
		return
	}
	held := 0
	for _, child := range l.owned(o.ptr) {
		switch child.kind {
		case kindModule:
			l.fault(op, o.ptr, "context disposed before module %q", child.mod.name)
			l.freeModule(child)
		case kindBuilder:
			l.fault(op, o.ptr, "context disposed before builder %s", child.ptr)
			l.free(child)
		default:
			if child.pinned {
				held++
			}
			l.free(child)
		}
	}
	if held > 0 {
		l.fault(op, o.ptr, "context disposed while the host holds %d of its objects", held)
	}
	l.free(o)
	Logger().Debug("context disposed", zap.Stringer("ptr", o.ptr))
}

func (l *Library) ModuleCreateWithName(name string, c capi.ContextRef) capi.ModuleRef {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.lookup("LLVMModuleCreateWithNameInContext", c.Ptr(), kindContext); err != nil {
		return capi.ModuleRef{}
	}
	m := ir.NewModule()
	o := l.alloc(&object{kind: kindModule, owner: c.Ptr(), mod: &module{ir: m, ctx: c.Ptr(), name: name}})
	return capi.ModuleRefOf(l.handOut(o))
}

func (l *Library) DisposeModule(m capi.ModuleRef) {
	const op = "LLVMDisposeModule"
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup(op, m.Ptr(), kindModule)
	if err != nil {
		return
	}
	held := 0
	for _, child := range l.owned(o.ptr) {
		if child.pinned {
			held++
		}
	}
	if held > 0 {
		l.fault(op, o.ptr, "module %q disposed while the host holds %d of its objects", o.mod.name, held)
	}
	l.freeModule(o)
}

func (l *Library) freeModule(o *object) {
	for _, child := range l.owned(o.ptr) {
		l.free(child)
	}
	// Builders positioned inside the module lose their insertion point.
	for _, b := range l.objs {
		if b.kind == kindBuilder && b.bld.block != 0 {
			if _, live := l.objs[b.bld.block]; !live {
				b.bld.block = 0
			}
		}
	}
	l.free(o)
}

func (l *Library) GetModuleIdentifier(m capi.ModuleRef) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMGetModuleIdentifier", m.Ptr(), kindModule)
	if err != nil {
		return ""
	}
	return o.mod.name
}

func (l *Library) SetSourceFileName(m capi.ModuleRef, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMSetSourceFileName", m.Ptr(), kindModule)
	if err != nil {
		return
	}
	o.mod.ir.SourceFilename = name
}

// knownArches are the target architectures the library accepts in a triple.
var knownArches = map[string]bool{
	"wasm32":  true,
	"wasm64":  true,
	"x86_64":  true,
	"i386":    true,
	"i686":    true,
	"aarch64": true,
	"arm":     true,
	"riscv32": true,
	"riscv64": true,
}

func (l *Library) SetTarget(m capi.ModuleRef, triple string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMSetTarget", m.Ptr(), kindModule)
	if err != nil {
		return err
	}
	parts := strings.Split(triple, "-")
	if len(parts) < 2 || !knownArches[parts[0]] {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(triple).
			Detail("unknown target triple %q", triple).
			Build()
	}
	o.mod.ir.TargetTriple = triple
	return nil
}

func (l *Library) GetTarget(m capi.ModuleRef) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMGetTarget", m.Ptr(), kindModule)
	if err != nil {
		return ""
	}
	return o.mod.ir.TargetTriple
}

func (l *Library) CreateBuilder(c capi.ContextRef) capi.BuilderRef {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.lookup("LLVMCreateBuilderInContext", c.Ptr(), kindContext); err != nil {
		return capi.BuilderRef{}
	}
	o := l.alloc(&object{kind: kindBuilder, owner: c.Ptr(), bld: &builder{ctx: c.Ptr()}})
	return capi.BuilderRefOf(l.handOut(o))
}

func (l *Library) DisposeBuilder(b capi.BuilderRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMDisposeBuilder", b.Ptr(), kindBuilder)
	if err != nil {
		return
	}
	l.free(o)
}

func (l *Library) VerifyModule(m capi.ModuleRef) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMVerifyModule", m.Ptr(), kindModule)
	if err != nil {
		return err
	}
	if problems := verify(o.mod.ir); len(problems) > 0 {
		return &errors.VerificationError{Module: o.mod.name, Problems: problems}
	}
	return nil
}

func (l *Library) PrintModule(m capi.ModuleRef, w io.Writer) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("LLVMPrintModule", m.Ptr(), kindModule)
	if err != nil {
		return err
	}
	// Printing assigns local IDs and panics on an inconsistent numbering.
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.PhaseEmit, errors.KindForeign).
				Detail("print module %q: %v", o.mod.name, r).
				Build()
		}
	}()
	text := fmt.Sprintf("; ModuleID = '%s'\n%s", o.mod.name, o.mod.ir.String())
	if _, werr := io.WriteString(w, text); werr != nil {
		return errors.Wrap(errors.PhaseEmit, errors.KindIO, werr, "write module text")
	}
	return nil
}

func (l *Library) EmitWasm(m capi.ModuleRef, w io.Writer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, err := l.lookup("EmitWasm", m.Ptr(), kindModule)
	if err != nil {
		return err
	}
	bin, err := lower.Module(o.mod.ir)
	if err != nil {
		return err
	}
	if _, werr := w.Write(bin); werr != nil {
		return errors.Wrap(errors.PhaseLower, errors.KindIO, werr, "write wasm binary")
	}
	return nil
}

func (l *Library) ReleaseType(t capi.TypeRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.release("ReleaseType", t.Ptr(), kindType)
}

func (l *Library) ReleaseValue(v capi.ValueRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.release("ReleaseValue", v.Ptr(), kindValue)
}

func (l *Library) ReleaseBasicBlock(b capi.BasicBlockRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.release("ReleaseBasicBlock", b.Ptr(), kindBlock)
}

func (l *Library) ReleaseAttribute(a capi.AttributeRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.release("ReleaseAttribute", a.Ptr(), kindAttribute)
}
