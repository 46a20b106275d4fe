package engine

import (
	"fmt"
	"strconv"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/irbind/errors"
)

// ParseArg encodes the text form of an argument of type vt.
func ParseArg(vt api.ValueType, s string) (uint64, error) {
	switch vt {
	case api.ValueTypeI32:
		v, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			return 0, parseErr(vt, s, err)
		}
		return api.EncodeI32(int32(v)), nil
	case api.ValueTypeI64:
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0, parseErr(vt, s, err)
		}
		return api.EncodeI64(v), nil
	case api.ValueTypeF32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0, parseErr(vt, s, err)
		}
		return api.EncodeF32(float32(v)), nil
	case api.ValueTypeF64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, parseErr(vt, s, err)
		}
		return api.EncodeF64(v), nil
	}
	return 0, errors.Unsupported(errors.PhaseExecute, "argument of type "+api.ValueTypeName(vt))
}

func parseErr(vt api.ValueType, s string, cause error) error {
	return errors.New(errors.PhaseExecute, errors.KindInvalidInput).
		Want(api.ValueTypeName(vt)).
		Got(strconv.Quote(s)).
		Cause(cause).
		Build()
}

// FormatResult renders an encoded result of type vt.
func FormatResult(vt api.ValueType, v uint64) string {
	switch vt {
	case api.ValueTypeI32:
		return strconv.FormatInt(int64(api.DecodeI32(v)), 10)
	case api.ValueTypeI64:
		return strconv.FormatInt(int64(v), 10)
	case api.ValueTypeF32:
		return strconv.FormatFloat(float64(api.DecodeF32(v)), 'g', -1, 32)
	case api.ValueTypeF64:
		return strconv.FormatFloat(api.DecodeF64(v), 'g', -1, 64)
	}
	return fmt.Sprintf("0x%x", v)
}
