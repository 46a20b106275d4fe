package ir

import (
	"github.com/wippyai/irbind/capi"
	"github.com/wippyai/irbind/errors"
)

// AppendBlock adds a basic block at the end of fn.
func (m *Module) AppendBlock(fn ValueID, name string) (BlockID, error) {
	m.live("append block")
	var ref capi.BasicBlockRef
	err := m.values.Project(fn, func(f *Value) error {
		if f.Kind() != capi.FunctionValueKind {
			return errors.TypeMismatch(errors.PhaseBuild, nil, "function", f.Kind().String())
		}
		var err error
		ref, err = m.lib.AppendBasicBlock(f.ref, name)
		return err
	})
	if err != nil {
		return BlockID{}, err
	}
	if ref.IsNil() {
		m.nullRef(BlocksStore)
	}
	m.populated()
	return m.blocks.Insert(ref), nil
}

// PositionAtEnd makes the builder append to bb.
func (m *Module) PositionAtEnd(bb BlockID) error {
	m.live("position at end")
	return m.blocks.Project(bb, func(b *BasicBlock) error {
		return m.lib.PositionBuilderAtEnd(m.builder, b.ref)
	})
}

// InsertBlock returns the block the builder appends to. It reports false when the
// builder is not positioned or its block is on loan.
func (m *Module) InsertBlock() (BlockID, bool) {
	m.live("insert block")
	ref := m.lib.GetInsertBlock(m.builder)
	if ref.IsNil() {
		return BlockID{}, false
	}
	var id BlockID
	found := false
	m.blocks.Each(func(bb BlockID, r capi.BasicBlockRef) bool {
		if r == ref {
			id, found = bb, true
		}
		return !found
	})
	return id, found
}

// BlockParent returns the function that contains bb.
func (m *Module) BlockParent(bb BlockID) ValueID {
	m.live("block parent")
	var ref capi.ValueRef
	_ = m.blocks.Project(bb, func(b *BasicBlock) error {
		ref = m.lib.GetBasicBlockParent(b.ref)
		return nil
	})
	return m.demandValue(ref)
}

// Terminator returns the terminator of bb, if it has one.
func (m *Module) Terminator(bb BlockID) (ValueID, bool) {
	m.live("terminator")
	var ref capi.ValueRef
	_ = m.blocks.Project(bb, func(b *BasicBlock) error {
		ref = m.lib.GetBasicBlockTerminator(b.ref)
		return nil
	})
	if ref.IsNil() {
		return ValueID{}, false
	}
	return m.demandValue(ref), true
}

// WithBlock calls fn with a view of the block. The view is valid only during fn.
func (m *Module) WithBlock(id BlockID, fn func(*BasicBlock) error) error {
	m.live("with block")
	return m.blocks.Project(id, fn)
}
