package ir

import (
	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/errors"
)

// IntType returns the integer type of the given width.
func (m *Module) IntType(bits uint) (TypeID, error) {
	m.live("int type")
	ref, err := m.lib.IntType(m.ctx, bits)
	if err != nil {
		return TypeID{}, err
	}
	return m.demandType(ref), nil
}

// FloatType returns the 32-bit floating point type.
func (m *Module) FloatType() TypeID {
	m.live("float type")
	return m.demandType(m.lib.FloatType(m.ctx))
}

// DoubleType returns the 64-bit floating point type.
func (m *Module) DoubleType() TypeID {
	m.live("double type")
	return m.demandType(m.lib.DoubleType(m.ctx))
}

// VoidType returns the void type.
func (m *Module) VoidType() TypeID {
	m.live("void type")
	return m.demandType(m.lib.VoidType(m.ctx))
}

// FunctionType returns the type of functions taking params and returning ret.
// params may repeat an ID.
func (m *Module) FunctionType(ret TypeID, params []TypeID, variadic bool) (TypeID, error) {
	m.live("function type")
	ref, err := func() (capi.TypeRef, error) {
		refs, release := m.types.BorrowMany(append([]TypeID{ret}, params...))
		defer release()
		return m.lib.FunctionType(refs[0], refs[1:], variadic)
	}()
	if err != nil {
		return TypeID{}, err
	}
	return m.demandType(ref), nil
}

// TypeOf returns the type of v. For a function this is its signature.
func (m *Module) TypeOf(v ValueID) TypeID {
	m.live("type of")
	var ref capi.TypeRef
	_ = m.values.Project(v, func(val *Value) error {
		ref = m.lib.TypeOf(val.ref)
		return nil
	})
	return m.demandType(ref)
}

// ReturnType returns the result type of a function type.
func (m *Module) ReturnType(fnType TypeID) (TypeID, error) {
	m.live("return type")
	var ref capi.TypeRef
	err := m.types.Project(fnType, func(t *Type) error {
		if t.Kind() != capi.FunctionTypeKind {
			return errors.TypeMismatch(errors.PhaseLookup, nil, "function type", t.String())
		}
		ref = m.lib.GetReturnType(t.ref)
		return nil
	})
	if err != nil {
		return TypeID{}, err
	}
	return m.demandType(ref), nil
}

// ParamTypes returns the parameter types of a function type.
func (m *Module) ParamTypes(fnType TypeID) ([]TypeID, error) {
	m.live("param types")
	var refs []capi.TypeRef
	err := m.types.Project(fnType, func(t *Type) error {
		if t.Kind() != capi.FunctionTypeKind {
			return errors.TypeMismatch(errors.PhaseLookup, nil, "function type", t.String())
		}
		refs = m.lib.GetParamTypes(t.ref)
		return nil
	})
	if err != nil {
		return nil, err
	}
	ids := make([]TypeID, len(refs))
	for i, r := range refs {
		ids[i] = m.demandType(r)
	}
	return ids, nil
}

// WithType calls fn with a view of the type. The view is valid only during fn.
func (m *Module) WithType(id TypeID, fn func(*Type) error) error {
	m.live("with type")
	return m.types.Project(id, fn)
}

// TypeString renders a type in textual IR.
func (m *Module) TypeString(id TypeID) string {
	var s string
	_ = m.WithType(id, func(t *Type) error {
		s = t.String()
		return nil
	})
	return s
}

func (m *Module) demandType(ref capi.TypeRef) TypeID {
	if ref.IsNil() {
		m.nullRef(TypesStore)
	}
	m.populated()
	return m.types.DemandID(ref)
}
