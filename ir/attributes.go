package ir

import (
	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/errors"
)

// EnumAttribute creates an attribute from its textual IR spelling, such as
// "nounwind" or "zeroext".
func (m *Module) EnumAttribute(name string) (AttributeID, error) {
	m.live("enum attribute")
	kind := m.lib.GetEnumAttributeKindForName(name)
	if kind == 0 {
		return AttributeID{}, errors.NotFound(errors.PhaseLookup, "attribute", name)
	}
	ref, err := m.lib.CreateEnumAttribute(m.ctx, kind)
	if err != nil {
		return AttributeID{}, err
	}
	if ref.IsNil() {
		m.nullRef(AttributesStore)
	}
	m.populated()
	return m.attrs.Insert(ref), nil
}

// AddAttribute attaches attr to fn at idx: capi.AttributeFunctionIndex,
// capi.AttributeReturnIndex or capi.ParamIndex(i).
func (m *Module) AddAttribute(fn ValueID, idx capi.AttributeIndex, attr AttributeID) error {
	m.live("add attribute")
	return m.values.Project(fn, func(f *Value) error {
		if f.Kind() != capi.FunctionValueKind {
			return errors.TypeMismatch(errors.PhaseBuild, nil, "function", f.Kind().String())
		}
		return m.attrs.Project(attr, func(a *Attribute) error {
			return m.lib.AddAttributeAtIndex(f.ref, idx, a.ref)
		})
	})
}

// AttributeCount returns the number of attributes of fn at idx.
func (m *Module) AttributeCount(fn ValueID, idx capi.AttributeIndex) int {
	m.live("attribute count")
	var n int
	_ = m.values.Project(fn, func(f *Value) error {
		n = m.lib.GetAttributeCountAtIndex(f.ref, idx)
		return nil
	})
	return n
}

// WithAttribute calls fn with a view of the attribute. The view is valid only during
// fn.
func (m *Module) WithAttribute(id AttributeID, fn func(*Attribute) error) error {
	m.live("with attribute")
	return m.attrs.Project(id, fn)
}
