package engine

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/irbind/errors"
	"github.com/wippyai/irbind/lower"
)

func arithModule(t *testing.T) []byte {
	t.Helper()
	m := ir.NewModule()

	a := ir.NewParam("a", types.I32)
	b := ir.NewParam("b", types.I32)
	add := m.NewFunc("add", types.I32, a, b)
	entry := add.NewBlock("entry")
	entry.NewRet(entry.NewAdd(a, b))

	x := ir.NewParam("x", types.I32)
	y := ir.NewParam("y", types.I32)
	div := m.NewFunc("div", types.I32, x, y)
	body := div.NewBlock("entry")
	body.NewRet(body.NewSDiv(x, y))

	n := ir.NewParam("n", types.I64)
	sq := m.NewFunc("square_plus_one", types.I64, n)
	sb := sq.NewBlock("entry")
	sb.NewRet(sb.NewAdd(sb.NewMul(n, n), constant.NewInt(types.I64, 1)))

	bin, err := lower.Module(m)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	return bin
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		cfg  *Config
		name string
	}{
		{nil, "nil config"},
		{&Config{}, "default config"},
		{&Config{MemoryLimitPages: 256}, "16MB limit"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := New(ctx, tc.cfg)
			defer e.Close(ctx)
			if e.runtime == nil {
				t.Error("engine runtime should not be nil")
			}
		})
	}
}

func TestModule_Call(t *testing.T) {
	ctx := context.Background()
	e := New(ctx, nil)
	defer e.Close(ctx)

	m, err := e.Load(ctx, arithModule(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer m.Close(ctx)

	res, err := m.Call(ctx, "add", api.EncodeI32(2), api.EncodeI32(40))
	if err != nil {
		t.Fatalf("Call add: %v", err)
	}
	if got := api.DecodeI32(res[0]); got != 42 {
		t.Errorf("add(2, 40) = %d, want 42", got)
	}

	res, err = m.Call(ctx, "div", api.EncodeI32(-9), api.EncodeI32(2))
	if err != nil {
		t.Fatalf("Call div: %v", err)
	}
	if got := api.DecodeI32(res[0]); got != -4 {
		t.Errorf("div(-9, 2) = %d, want -4", got)
	}

	res, err = m.Call(ctx, "square_plus_one", api.EncodeI64(12))
	if err != nil {
		t.Fatalf("Call square_plus_one: %v", err)
	}
	if got := int64(res[0]); got != 145 {
		t.Errorf("square_plus_one(12) = %d, want 145", got)
	}
}

func TestModule_CallErrors(t *testing.T) {
	ctx := context.Background()
	e := New(ctx, nil)
	defer e.Close(ctx)

	m, err := e.Load(ctx, arithModule(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		fn   string
		args []uint64
		kind errors.Kind
	}{
		{"missing export", "mul", nil, errors.KindNotFound},
		{"wrong arity", "add", []uint64{1}, errors.KindTypeMismatch},
		{"divide by zero", "div", []uint64{api.EncodeI32(1), api.EncodeI32(0)}, errors.KindTrap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Call(ctx, tt.fn, tt.args...)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Phase != errors.PhaseExecute || e.Kind != tt.kind {
				t.Errorf("got %s/%s, want execute/%s", e.Phase, e.Kind, tt.kind)
			}
		})
	}
}

func TestModule_Exports(t *testing.T) {
	ctx := context.Background()
	e := New(ctx, nil)
	defer e.Close(ctx)

	m, err := e.Load(ctx, arithModule(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	exports := m.Exports()
	if len(exports) != 3 {
		t.Fatalf("expected 3 exports, got %d", len(exports))
	}
	if exports[0].Name != "add" || exports[1].Name != "div" || exports[2].Name != "square_plus_one" {
		t.Errorf("exports not sorted: %v", exports)
	}
	if got := exports[0].Signature(); got != "func add(i32, i32) -> i32" {
		t.Errorf("Signature = %q", got)
	}
	if _, ok := m.Export("nope"); ok {
		t.Error("Export should miss an unknown name")
	}
}

func TestLoad_Invalid(t *testing.T) {
	ctx := context.Background()
	e := New(ctx, nil)
	defer e.Close(ctx)

	_, err := e.Load(ctx, []byte("not wasm"))
	var ee *errors.Error
	if !stderrors.As(err, &ee) || ee.Kind != errors.KindInstantiate {
		t.Fatalf("expected instantiate error, got %v", err)
	}
}

func TestHostFunc(t *testing.T) {
	ctx := context.Background()
	e := New(ctx, nil)
	defer e.Close(ctx)

	err := e.RegisterHostFunc(HostFunc{
		Name:    "host_double",
		Params:  []api.ValueType{api.ValueTypeI32},
		Results: []api.ValueType{api.ValueTypeI32},
		Fn: func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(api.DecodeI32(stack[0]) * 2)
		},
	})
	if err != nil {
		t.Fatalf("RegisterHostFunc: %v", err)
	}

	m := ir.NewModule()
	double := m.NewFunc("host_double", types.I32, ir.NewParam("", types.I32))
	x := ir.NewParam("x", types.I32)
	quad := m.NewFunc("quad", types.I32, x)
	b := quad.NewBlock("entry")
	b.NewRet(b.NewCall(double, b.NewCall(double, x)))

	bin, err := lower.Module(m)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	mod, err := e.Load(ctx, bin)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	res, err := mod.Call(ctx, "quad", api.EncodeI32(5))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got := api.DecodeI32(res[0]); got != 20 {
		t.Errorf("quad(5) = %d, want 20", got)
	}

	if err := e.RegisterHostFunc(HostFunc{Name: "late"}); err == nil {
		t.Error("expected error registering after Load")
	}
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		vt   api.ValueType
		in   string
		want string
	}{
		{api.ValueTypeI32, "-7", "-7"},
		{api.ValueTypeI32, "0x10", "16"},
		{api.ValueTypeI64, "9000000000", "9000000000"},
		{api.ValueTypeF32, "1.5", "1.5"},
		{api.ValueTypeF64, "-0.25", "-0.25"},
	}
	for _, tt := range tests {
		v, err := ParseArg(tt.vt, tt.in)
		if err != nil {
			t.Errorf("ParseArg(%s, %q): %v", api.ValueTypeName(tt.vt), tt.in, err)
			continue
		}
		if got := FormatResult(tt.vt, v); got != tt.want {
			t.Errorf("round trip of %q = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseArg(api.ValueTypeI32, "abc"); err == nil {
		t.Error("expected error for non-numeric i32")
	}
	if _, err := ParseArg(api.ValueTypeI32, "99999999999"); err == nil {
		t.Error("expected error for i32 overflow")
	}
}
