package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/irbind/engine"
)

type funcInfo struct {
	name       string
	result     wit.Type // nil for void
	resultType string
	params     []paramInfo
}

type paramInfo struct {
	name    string
	witType wit.Type
	typeStr string
}

func (f funcInfo) signature() string {
	params := make([]string, len(f.params))
	for i, p := range f.params {
		params[i] = p.name + ": " + p.typeStr
	}
	s := f.name + "(" + strings.Join(params, ", ") + ")"
	if f.resultType != "" {
		s += " -> " + f.resultType
	}
	return s
}

// witType maps an IR type to the WIT type used to show and parse its values. IR
// integers carry no sign; they are presented as signed.
func witType(irType string) (wit.Type, error) {
	switch irType {
	case "i1":
		return wit.Bool{}, nil
	case "i8":
		return wit.S8{}, nil
	case "i16":
		return wit.S16{}, nil
	case "i32":
		return wit.S32{}, nil
	case "i64":
		return wit.S64{}, nil
	case "float":
		return wit.F32{}, nil
	case "double":
		return wit.F64{}, nil
	}
	return nil, fmt.Errorf("type %s has no WIT counterpart", irType)
}

// coreType maps an IR type to the wasm value type it lowers to.
func coreType(irType string) (api.ValueType, error) {
	switch irType {
	case "i1", "i32":
		return api.ValueTypeI32, nil
	case "i64":
		return api.ValueTypeI64, nil
	case "float":
		return api.ValueTypeF32, nil
	case "double":
		return api.ValueTypeF64, nil
	}
	return 0, fmt.Errorf("type %s cannot cross the wasm boundary", irType)
}

func witTypeStr(t wit.Type) string {
	switch t.(type) {
	case wit.Bool:
		return "bool"
	case wit.S8:
		return "s8"
	case wit.S16:
		return "s16"
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// convertArg parses s as a value of t and encodes it for the wasm stack.
func convertArg(s string, t wit.Type) (uint64, error) {
	s = strings.TrimSpace(s)
	switch t.(type) {
	case wit.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return 0, fmt.Errorf("parse %q as bool: %w", s, err)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case wit.S8, wit.S16:
		bits := 8
		if _, ok := t.(wit.S16); ok {
			bits = 16
		}
		v, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			return 0, fmt.Errorf("parse %q as %s: %w", s, witTypeStr(t), err)
		}
		return api.EncodeI32(int32(v)), nil
	case wit.S32:
		return engine.ParseArg(api.ValueTypeI32, s)
	case wit.S64:
		return engine.ParseArg(api.ValueTypeI64, s)
	case wit.F32:
		return engine.ParseArg(api.ValueTypeF32, s)
	case wit.F64:
		return engine.ParseArg(api.ValueTypeF64, s)
	}
	return 0, fmt.Errorf("cannot pass a %s argument", witTypeStr(t))
}

// formatResult renders a wasm result as a value of t.
func formatResult(t wit.Type, v uint64) string {
	switch t.(type) {
	case wit.Bool:
		return strconv.FormatBool(api.DecodeI32(v) != 0)
	case wit.S8, wit.S16, wit.S32:
		return engine.FormatResult(api.ValueTypeI32, v)
	case wit.S64:
		return engine.FormatResult(api.ValueTypeI64, v)
	case wit.F32:
		return engine.FormatResult(api.ValueTypeF32, v)
	case wit.F64:
		return engine.FormatResult(api.ValueTypeF64, v)
	}
	return strconv.FormatUint(v, 10)
}
