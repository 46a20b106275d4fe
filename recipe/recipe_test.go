package recipe

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/capi/inproc"
	"github.com/wippyai/irbind/engine"
	"github.com/wippyai/irbind/errors"
)

func TestLoad(t *testing.T) {
	r, err := Load("testdata/arith.yaml")
	require.NoError(t, err)

	assert.Equal(t, "arith", r.Name)
	assert.Equal(t, "wasm32-unknown-unknown", r.Target)
	require.Len(t, r.Functions, 5)
	assert.True(t, r.Functions[0].IsDeclaration())
	assert.Equal(t, "i32", r.Functions[0].ResultType())
	assert.Equal(t, []string{"nounwind", "norecurse"}, r.Functions[1].Attributes)
	assert.Equal(t, Step{Op: OpConst, Type: "i32", Value: 1, Name: "one"}, r.Functions[2].Body[2])
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("testdata/missing.yaml")
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindIO}))

	tests := []struct {
		name string
		yaml string
		kind errors.Kind
	}{
		{"unknown field", "name: x\nfunctionz: []\n", errors.KindInvalidInput},
		{"no name", "functions: [{name: f}]\n", errors.KindInvalidInput},
		{"no functions", "name: x\n", errors.KindInvalidInput},
		{"unnamed function", "name: x\nfunctions: [{result: i32}]\n", errors.KindInvalidInput},
		{"duplicate function", "name: x\nfunctions: [{name: f}, {name: f}]\n", errors.KindDuplicate},
		{"untyped param", "name: x\nfunctions: [{name: f, params: [{name: a}]}]\n", errors.KindInvalidInput},
		{"missing op", "name: x\nfunctions: [{name: f, body: [{name: a}]}]\n", errors.KindInvalidInput},
		{"no ret", "name: x\nfunctions: [{name: f, body: [{op: const, type: i32}]}]\n", errors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: tt.kind}), err.Error())
		})
	}

	_, err = Parse([]byte("name: x\nfunctions: [{name: f, body: [{op: const, type: i32}]}]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "body must end with ret")
}

func TestBuild(t *testing.T) {
	r, err := Load("testdata/arith.yaml")
	require.NoError(t, err)

	lib := inproc.New()
	m, err := Build(lib, r)
	require.NoError(t, err)
	require.NoError(t, m.Verify())
	assert.Equal(t, "wasm32-unknown-unknown", m.Target())
	assert.Len(t, m.Functions(), 5)

	add, err := m.NamedFunction("add")
	require.NoError(t, err)
	assert.Equal(t, 2, m.AttributeCount(add, capi.AttributeFunctionIndex))
	quad, err := m.NamedFunction("quad_plus_one")
	require.NoError(t, err)
	assert.Equal(t, 1, m.AttributeCount(quad, capi.ParamIndex(0)))

	var text bytes.Buffer
	require.NoError(t, m.WriteIR(&text))
	assert.Contains(t, text.String(), "define i32 @add(i32 %a, i32 %b)")
	assert.Contains(t, text.String(), "declare i32 @host_double(i32")
	assert.Contains(t, text.String(), "%lt = icmp slt i64 %a, %b")

	m.Dispose()
	assert.Empty(t, lib.Faults())
	assert.Zero(t, lib.Live())
}

func TestBuild_Run(t *testing.T) {
	r, err := Load("testdata/arith.yaml")
	require.NoError(t, err)
	lib := inproc.New()
	m, err := Build(lib, r)
	require.NoError(t, err)
	defer m.Dispose()

	var bin bytes.Buffer
	require.NoError(t, m.WriteWasm(&bin))

	ctx := context.Background()
	e := engine.New(ctx, nil)
	defer e.Close(ctx)
	require.NoError(t, e.RegisterHostFunc(engine.HostFunc{
		Name:    "host_double",
		Params:  []api.ValueType{api.ValueTypeI32},
		Results: []api.ValueType{api.ValueTypeI32},
		Fn: func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(api.DecodeI32(stack[0]) * 2)
		},
	}))
	mod, err := e.Load(ctx, bin.Bytes())
	require.NoError(t, err)

	res, err := mod.Call(ctx, "add", api.EncodeI32(40), api.EncodeI32(2))
	require.NoError(t, err)
	assert.Equal(t, int32(42), api.DecodeI32(res[0]))

	res, err = mod.Call(ctx, "quad_plus_one", api.EncodeI32(5))
	require.NoError(t, err)
	assert.Equal(t, int32(21), api.DecodeI32(res[0]))

	res, err = mod.Call(ctx, "less", api.EncodeI64(-3), api.EncodeI64(2))
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.DecodeI32(res[0]))

	res, err = mod.Call(ctx, "scale", api.EncodeF64(1.5), api.EncodeF64(4))
	require.NoError(t, err)
	assert.Equal(t, 7.5, api.DecodeF64(res[0]))
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		phase errors.Phase
		kind  errors.Kind
	}{
		{
			"unknown type",
			"name: x\nfunctions: [{name: f, result: i32x}]\n",
			errors.PhaseConfig, errors.KindUnsupported,
		},
		{
			"unknown op",
			"name: x\nfunctions: [{name: f, body: [{op: frob}, {op: ret}]}]\n",
			errors.PhaseConfig, errors.KindUnsupported,
		},
		{
			"undefined operand",
			"name: x\nfunctions: [{name: f, result: i32, body: [{op: ret, args: [nope]}]}]\n",
			errors.PhaseConfig, errors.KindNotFound,
		},
		{
			"undeclared callee",
			"name: x\nfunctions: [{name: f, body: [{op: call, callee: g}, {op: ret}]}]\n",
			errors.PhaseConfig, errors.KindNotFound,
		},
		{
			"wrong arity",
			"name: x\nfunctions: [{name: f, params: [{name: a, type: i32}], result: i32, body: [{op: add, args: [a], name: s}, {op: ret, args: [s]}]}]\n",
			errors.PhaseConfig, errors.KindInvalidInput,
		},
		{
			"mismatched operands",
			"name: x\nfunctions: [{name: f, params: [{name: a, type: i32}, {name: b, type: i64}], result: i32, body: [{op: add, args: [a, b], name: s}, {op: ret, args: [s]}]}]\n",
			errors.PhaseBuild, errors.KindTypeMismatch,
		},
		{
			"wrong return type",
			"name: x\nfunctions: [{name: f, params: [{name: a, type: i64}], result: i32, body: [{op: ret, args: [a]}]}]\n",
			errors.PhaseBuild, errors.KindTypeMismatch,
		},
		{
			"duplicate local",
			"name: x\nfunctions: [{name: f, params: [{name: a, type: i32}], result: i32, body: [{op: const, type: i32, value: 1, name: a}, {op: ret, args: [a]}]}]\n",
			errors.PhaseConfig, errors.KindDuplicate,
		},
		{
			"misplaced attribute",
			"name: x\nfunctions: [{name: f, attributes: [zeroext]}]\n",
			errors.PhaseBuild, errors.KindInvalidInput,
		},
		{
			"bad target",
			"name: x\ntarget: z80\nfunctions: [{name: f}]\n",
			errors.PhaseConfig, errors.KindInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)

			lib := inproc.New()
			m, err := Build(lib, r)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, stderrors.Is(err, &errors.Error{Phase: tt.phase, Kind: tt.kind}), err.Error())
			assert.Empty(t, lib.Faults())
			assert.Zero(t, lib.Live())
		})
	}
}
