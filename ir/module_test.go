package ir

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/capi/inproc"
	"github.com/wippyai/irbind/engine"
	"github.com/wippyai/irbind/entity"
	"github.com/wippyai/irbind/errors"
)

func newModule(t *testing.T, lib *inproc.Library, opts Options) *Module {
	t.Helper()
	m, err := NewModule(lib, opts)
	require.NoError(t, err)
	return m
}

type addFunc struct {
	fn, a, b, sum ValueID
	i32, sig      TypeID
	entry         BlockID
}

func buildAdd(t *testing.T, m *Module) addFunc {
	t.Helper()
	var f addFunc
	var err error

	f.i32, err = m.IntType(32)
	require.NoError(t, err)
	f.sig, err = m.FunctionType(f.i32, []TypeID{f.i32, f.i32}, false)
	require.NoError(t, err)
	f.fn, err = m.AddFunction("add", f.sig)
	require.NoError(t, err)
	f.entry, err = m.AppendBlock(f.fn, "entry")
	require.NoError(t, err)
	require.NoError(t, m.PositionAtEnd(f.entry))

	f.a, err = m.Param(f.fn, 0)
	require.NoError(t, err)
	f.b, err = m.Param(f.fn, 1)
	require.NoError(t, err)
	require.NoError(t, m.SetName(f.a, "a"))
	require.NoError(t, m.SetName(f.b, "b"))

	f.sum, err = m.Add(f.a, f.b, "sum")
	require.NoError(t, err)
	_, err = m.Ret(f.sum)
	require.NoError(t, err)
	return f
}

func requireViolation(t *testing.T, op string, fn func()) *entity.Violation {
	t.Helper()
	var got any
	func() {
		defer func() { got = recover() }()
		fn()
	}()
	v, ok := got.(*entity.Violation)
	require.Truef(t, ok, "expected *entity.Violation panic, got %v", got)
	require.Equal(t, op, v.Op)
	return v
}

func requireClean(t *testing.T, lib *inproc.Library) {
	t.Helper()
	require.Empty(t, lib.Faults())
	require.Zero(t, lib.Live(), "foreign objects left after dispose")
}

func TestModule_BuildAndEmit(t *testing.T) {
	lib := inproc.New()
	m := newModule(t, lib, Options{
		Name:           "demo",
		SourceFilename: "demo.c",
		TargetTriple:   "wasm32-unknown-unknown",
	})
	assert.Equal(t, StateEmpty, m.State())

	buildAdd(t, m)
	assert.Equal(t, StatePopulated, m.State())
	require.NoError(t, m.Verify())

	var buf bytes.Buffer
	require.NoError(t, m.WriteIR(&buf))
	text := buf.String()
	assert.Contains(t, text, "; ModuleID = 'demo'")
	assert.Contains(t, text, `source_filename = "demo.c"`)
	assert.Contains(t, text, `target triple = "wasm32-unknown-unknown"`)
	assert.Contains(t, text, "define i32 @add(i32 %a, i32 %b)")
	assert.Contains(t, text, "%sum = add i32 %a, %b")
	assert.Contains(t, text, "ret i32 %sum")
	assert.Equal(t, "wasm32-unknown-unknown", m.Target())

	m.Dispose()
	assert.Equal(t, StateDisposed, m.State())
	requireClean(t, lib)
}

func TestModule_IdentityIsStable(t *testing.T) {
	lib := inproc.New()
	m := newModule(t, lib, Options{})
	defer m.Dispose()
	f := buildAdd(t, m)

	again, err := m.IntType(32)
	require.NoError(t, err)
	assert.Equal(t, f.i32, again)

	named, err := m.NamedFunction("add")
	require.NoError(t, err)
	assert.Equal(t, f.fn, named)

	a, err := m.Param(f.fn, 0)
	require.NoError(t, err)
	assert.Equal(t, f.a, a)

	assert.Equal(t, f.i32, m.TypeOf(f.sum))
	assert.Equal(t, f.sig, m.TypeOf(f.fn))
	assert.Equal(t, f.fn, m.BlockParent(f.entry))
	assert.Equal(t, []ValueID{f.fn}, m.Functions())

	ret, err := m.ReturnType(f.sig)
	require.NoError(t, err)
	assert.Equal(t, f.i32, ret)
	params, err := m.ParamTypes(f.sig)
	require.NoError(t, err)
	assert.Equal(t, []TypeID{f.i32, f.i32}, params)

	c1, err := m.ConstInt(f.i32, 7)
	require.NoError(t, err)
	c2, err := m.ConstInt(f.i32, 7)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)

	term, ok := m.Terminator(f.entry)
	require.True(t, ok)
	assert.NoError(t, m.WithValue(term, func(v *Value) error {
		assert.Equal(t, "ret", v.Opcode())
		return nil
	}))

	assert.Equal(t, Stats{Types: 2, Values: 6, Blocks: 1}, m.Stats())
}

func TestModule_Views(t *testing.T) {
	lib := inproc.New()
	m := newModule(t, lib, Options{})
	defer m.Dispose()
	f := buildAdd(t, m)

	require.NoError(t, m.WithType(f.i32, func(ty *Type) error {
		assert.Equal(t, capi.IntegerTypeKind, ty.Kind())
		assert.Equal(t, uint(32), ty.Width())
		assert.Equal(t, "i32", ty.String())
		assert.False(t, ty.Ref().IsNil())
		return nil
	}))
	assert.Equal(t, "i32 (i32, i32)", m.TypeString(f.sig))

	require.NoError(t, m.WithValue(f.fn, func(v *Value) error {
		assert.Equal(t, capi.FunctionValueKind, v.Kind())
		assert.Equal(t, "add", v.Name())
		assert.Equal(t, 2, v.ParamCount())
		assert.Equal(t, 1, v.BlockCount())
		return nil
	}))
	assert.Equal(t, "sum", m.ValueName(f.sum))

	c, err := m.ConstInt(f.i32, -3)
	require.NoError(t, err)
	require.NoError(t, m.WithValue(c, func(v *Value) error {
		n, ok := v.Int()
		assert.True(t, ok)
		assert.Equal(t, int64(-3), n)
		return nil
	}))

	require.NoError(t, m.WithBlock(f.entry, func(b *BasicBlock) error {
		assert.Equal(t, "entry", b.Name())
		assert.Equal(t, 2, b.Len())
		return nil
	}))
}

func TestModule_ForeignErrors(t *testing.T) {
	lib := inproc.New()
	m := newModule(t, lib, Options{})
	f := buildAdd(t, m)

	i64, err := m.IntType(64)
	require.NoError(t, err)
	wide, err := m.ConstInt(i64, 1)
	require.NoError(t, err)

	other, err := m.AppendBlock(f.fn, "other")
	require.NoError(t, err)
	require.NoError(t, m.PositionAtEnd(other))

	_, err = m.Add(f.a, wide, "bad")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseBuild, Kind: errors.KindTypeMismatch}))
	assert.True(t, m.values.Contains(f.a), "operand restored after failure")
	assert.True(t, m.values.Contains(wide), "operand restored after failure")

	_, err = m.NamedFunction("missing")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLookup, Kind: errors.KindNotFound}))

	_, err = m.Param(f.fn, 5)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLookup, Kind: errors.KindOutOfBounds}))

	_, err = m.AddFunction("add", f.sig)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseBuild, Kind: errors.KindDuplicate}))

	_, err = m.IntType(0)
	assert.Error(t, err)

	_, err = m.Param(f.sum, 0)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLookup, Kind: errors.KindTypeMismatch}))

	_, err = m.RetVoid()
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseBuild, Kind: errors.KindTypeMismatch}))

	m.Dispose()
	requireClean(t, lib)
}

func TestModule_ProjectErrorRestores(t *testing.T) {
	lib := inproc.New()
	m := newModule(t, lib, Options{})
	f := buildAdd(t, m)

	sentinel := stderrors.New("stop")
	err := m.WithValue(f.fn, func(*Value) error {
		assert.False(t, m.values.Contains(f.fn))
		return sentinel
	})
	assert.Same(t, sentinel, err)
	assert.True(t, m.values.Contains(f.fn))

	m.Dispose()
	requireClean(t, lib)
}

func TestModule_ReentrantBorrowPanics(t *testing.T) {
	lib := inproc.New()
	m := newModule(t, lib, Options{})
	f := buildAdd(t, m)

	requireViolation(t, entity.OpExtract, func() {
		_ = m.WithType(f.i32, func(*Type) error {
			return m.WithType(f.i32, func(*Type) error { return nil })
		})
	})
	assert.True(t, m.types.Contains(f.i32))

	// The function is on loan, so the library handing its pointer back must not
	// mint a second identity.
	requireViolation(t, entity.OpDemand, func() {
		_ = m.WithValue(f.fn, func(*Value) error {
			_, err := m.NamedFunction("add")
			return err
		})
	})
	assert.True(t, m.values.Contains(f.fn))

	m.Dispose()
	requireClean(t, lib)
}

func TestModule_RepeatedOperands(t *testing.T) {
	lib := inproc.New()
	m := newModule(t, lib, Options{})
	f := buildAdd(t, m)

	other, err := m.AppendBlock(f.fn, "twice")
	require.NoError(t, err)
	require.NoError(t, m.PositionAtEnd(other))

	double, err := m.Add(f.a, f.a, "double")
	require.NoError(t, err)
	cmp, err := m.ICmp(capi.IntSGT, double, double, "")
	require.NoError(t, err)

	i1, err := m.IntType(1)
	require.NoError(t, err)
	assert.Equal(t, i1, m.TypeOf(cmp))

	_, err = m.CondBr(cmp, f.entry, f.entry)
	require.NoError(t, err)
	require.NoError(t, m.Verify())

	m.Dispose()
	requireClean(t, lib)
}

func TestModule_VerifyFailure(t *testing.T) {
	lib := inproc.New()
	m := newModule(t, lib, Options{Name: "broken"})
	i32, err := m.IntType(32)
	require.NoError(t, err)
	sig, err := m.FunctionType(i32, nil, false)
	require.NoError(t, err)
	fn, err := m.AddFunction("unfinished", sig)
	require.NoError(t, err)
	_, err = m.AppendBlock(fn, "entry")
	require.NoError(t, err)

	err = m.Verify()
	require.Error(t, err)
	var verr *errors.VerificationError
	require.True(t, stderrors.As(err, &verr))
	assert.Equal(t, "broken", verr.Module)
	require.Len(t, verr.Problems, 1)
	assert.Equal(t, "unfinished", verr.Problems[0].Function)
	assert.Equal(t, "entry", verr.Problems[0].Block)

	assert.True(t, stderrors.Is(m.WriteWasm(&bytes.Buffer{}), &errors.VerificationError{}))

	m.Dispose()
	requireClean(t, lib)
}

func TestModule_Attributes(t *testing.T) {
	lib := inproc.New()
	m := newModule(t, lib, Options{})
	f := buildAdd(t, m)

	nounwind, err := m.EnumAttribute("nounwind")
	require.NoError(t, err)
	zext, err := m.EnumAttribute("zeroext")
	require.NoError(t, err)

	require.NoError(t, m.AddAttribute(f.fn, capi.AttributeFunctionIndex, nounwind))
	require.NoError(t, m.AddAttribute(f.fn, capi.ParamIndex(0), zext))
	require.NoError(t, m.AddAttribute(f.fn, capi.AttributeReturnIndex, zext))
	assert.Equal(t, 1, m.AttributeCount(f.fn, capi.AttributeFunctionIndex))
	assert.Equal(t, 1, m.AttributeCount(f.fn, capi.ParamIndex(0)))

	err = m.AddAttribute(f.fn, capi.ParamIndex(0), nounwind)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseBuild, Kind: errors.KindInvalidInput}))

	_, err = m.EnumAttribute("fastest")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLookup, Kind: errors.KindNotFound}))

	require.NoError(t, m.WithAttribute(nounwind, func(a *Attribute) error {
		assert.Equal(t, "nounwind", a.Name())
		assert.NotZero(t, a.Kind())
		return nil
	}))

	var buf bytes.Buffer
	require.NoError(t, m.WriteIR(&buf))
	assert.Contains(t, buf.String(), "nounwind")
	assert.Contains(t, buf.String(), "zeroext")

	m.Dispose()
	requireClean(t, lib)
}

func TestModule_WasmRoundTrip(t *testing.T) {
	lib := inproc.New()
	m := newModule(t, lib, Options{Name: "arith"})
	defer m.Dispose()
	buildAdd(t, m)

	var bin bytes.Buffer
	require.NoError(t, m.WriteWasm(&bin))

	ctx := context.Background()
	e := engine.New(ctx, nil)
	defer e.Close(ctx)
	mod, err := e.Load(ctx, bin.Bytes())
	require.NoError(t, err)

	res, err := mod.Call(ctx, "add", api.EncodeI32(19), api.EncodeI32(23))
	require.NoError(t, err)
	assert.Equal(t, int32(42), api.DecodeI32(res[0]))
}

func TestModule_Dispose(t *testing.T) {
	lib := inproc.New()
	var destroyed int
	m := newModule(t, lib, Options{Observers: []entity.Observer{
		entity.ObserverFunc(func(e entity.Event) {
			if e.Type == entity.EventDestroyed {
				destroyed++
			}
		}),
	}})
	buildAdd(t, m)

	m.Dispose()
	m.Dispose()
	assert.Equal(t, 8, destroyed)
	requireClean(t, lib)

	v := requireViolation(t, "int type", func() {
		_, _ = m.IntType(8)
	})
	assert.Contains(t, v.Error(), "module is disposed")
}

func TestModule_DisposeWithLoan(t *testing.T) {
	lib := inproc.New()
	m := newModule(t, lib, Options{Name: "leaky"})
	f := buildAdd(t, m)

	var got any
	func() {
		defer func() { got = recover() }()
		_ = m.WithBlock(f.entry, func(*BasicBlock) error {
			m.Dispose()
			return nil
		})
	}()
	_, ok := got.(*entity.Violation)
	require.Truef(t, ok, "expected *entity.Violation panic, got %v", got)
	assert.Equal(t, StateDisposed, m.State())

	// Every foreign object is gone even though a block was on loan.
	assert.Zero(t, lib.Live())
	faults := lib.Faults()
	require.Len(t, faults, 1)
	assert.Contains(t, faults[0].Detail, "holds 1 of its objects")
}

func TestModule_InsertBlock(t *testing.T) {
	lib := inproc.New()
	m := newModule(t, lib, Options{})
	defer m.Dispose()

	_, ok := m.InsertBlock()
	assert.False(t, ok, "builder is not positioned yet")

	f := buildAdd(t, m)
	got, ok := m.InsertBlock()
	require.True(t, ok)
	assert.Equal(t, f.entry, got)

	_ = m.WithBlock(f.entry, func(*BasicBlock) error {
		_, ok := m.InsertBlock()
		assert.False(t, ok, "block on loan must not resolve")
		return nil
	})

	next, err := m.AppendBlock(f.fn, "next")
	require.NoError(t, err)
	require.NoError(t, m.PositionAtEnd(next))
	got, ok = m.InsertBlock()
	require.True(t, ok)
	assert.Equal(t, next, got)
}

func TestModule_BadTarget(t *testing.T) {
	lib := inproc.New()
	_, err := NewModule(lib, Options{TargetTriple: "pdp11-dec-unix"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target triple")
	requireClean(t, lib)
}

func TestModule_OnePerGoroutine(t *testing.T) {
	lib := inproc.New()
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		i := i
		g.Go(func() error {
			m, err := NewModule(lib, Options{Name: fmt.Sprintf("worker-%d", i)})
			if err != nil {
				return err
			}
			defer m.Dispose()

			i64, err := m.IntType(64)
			if err != nil {
				return err
			}
			sig, err := m.FunctionType(i64, []TypeID{i64}, false)
			if err != nil {
				return err
			}
			fn, err := m.AddFunction("scale", sig)
			if err != nil {
				return err
			}
			entry, err := m.AppendBlock(fn, "entry")
			if err != nil {
				return err
			}
			if err := m.PositionAtEnd(entry); err != nil {
				return err
			}
			x, err := m.Param(fn, 0)
			if err != nil {
				return err
			}
			k, err := m.ConstInt(i64, int64(i))
			if err != nil {
				return err
			}
			y, err := m.Mul(x, k, "y")
			if err != nil {
				return err
			}
			if _, err := m.Ret(y); err != nil {
				return err
			}
			return m.Verify()
		})
	}
	require.NoError(t, g.Wait())
	requireClean(t, lib)
}
