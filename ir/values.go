package ir

import (
	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/errors"
)

// AddFunction declares a function of type fnType. It has no body until a block is
// appended.
func (m *Module) AddFunction(name string, fnType TypeID) (ValueID, error) {
	m.live("add function")
	var ref capi.ValueRef
	err := m.types.Project(fnType, func(t *Type) error {
		var err error
		ref, err = m.lib.AddFunction(m.mod, name, t.ref)
		return err
	})
	if err != nil {
		return ValueID{}, err
	}
	return m.demandValue(ref), nil
}

// NamedFunction looks a function up by name. The ID is the one issued when the
// function was added.
func (m *Module) NamedFunction(name string) (ValueID, error) {
	m.live("named function")
	ref := m.lib.GetNamedFunction(m.mod, name)
	if ref.IsNil() {
		return ValueID{}, errors.NotFound(errors.PhaseLookup, "function", name)
	}
	return m.demandValue(ref), nil
}

// Functions returns every function of the module in definition order.
func (m *Module) Functions() []ValueID {
	m.live("functions")
	refs := m.lib.GetFunctions(m.mod)
	ids := make([]ValueID, len(refs))
	for i, r := range refs {
		ids[i] = m.demandValue(r)
	}
	return ids
}

// Param returns parameter i of fn.
func (m *Module) Param(fn ValueID, i int) (ValueID, error) {
	m.live("param")
	var ref capi.ValueRef
	err := m.values.Project(fn, func(f *Value) error {
		if f.Kind() != capi.FunctionValueKind {
			return errors.TypeMismatch(errors.PhaseLookup, nil, "function", f.Kind().String())
		}
		var err error
		ref, err = m.lib.GetParam(f.ref, i)
		return err
	})
	if err != nil {
		return ValueID{}, err
	}
	return m.demandValue(ref), nil
}

// Params returns every parameter of fn.
func (m *Module) Params(fn ValueID) ([]ValueID, error) {
	m.live("params")
	var n int
	err := m.values.Project(fn, func(f *Value) error {
		if f.Kind() != capi.FunctionValueKind {
			return errors.TypeMismatch(errors.PhaseLookup, nil, "function", f.Kind().String())
		}
		n = f.ParamCount()
		return nil
	})
	if err != nil {
		return nil, err
	}
	ids := make([]ValueID, n)
	for i := range ids {
		if ids[i], err = m.Param(fn, i); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// ConstInt returns the integer constant v of type ty.
func (m *Module) ConstInt(ty TypeID, v int64) (ValueID, error) {
	m.live("const int")
	var ref capi.ValueRef
	err := m.types.Project(ty, func(t *Type) error {
		var err error
		ref, err = m.lib.ConstInt(t.ref, v)
		return err
	})
	if err != nil {
		return ValueID{}, err
	}
	return m.demandValue(ref), nil
}

// SetName renames v.
func (m *Module) SetName(v ValueID, name string) error {
	m.live("set name")
	return m.values.Project(v, func(val *Value) error {
		return val.SetName(name)
	})
}

// ValueName returns the name of v.
func (m *Module) ValueName(v ValueID) string {
	var name string
	_ = m.WithValue(v, func(val *Value) error {
		name = val.Name()
		return nil
	})
	return name
}

// WithValue calls fn with a view of the value. The view is valid only during fn.
func (m *Module) WithValue(id ValueID, fn func(*Value) error) error {
	m.live("with value")
	return m.values.Project(id, fn)
}

func (m *Module) demandValue(ref capi.ValueRef) ValueID {
	if ref.IsNil() {
		m.nullRef(ValuesStore)
	}
	m.populated()
	return m.values.DemandID(ref)
}
