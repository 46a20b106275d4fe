package ir

import (
	"github.com/wippyai/irbind/capi"
)

// BinOp appends a binary instruction at the builder position. lhs and rhs may be the
// same ID.
func (m *Module) BinOp(op capi.Opcode, lhs, rhs ValueID, name string) (ValueID, error) {
	m.live("build " + op.String())
	ref, err := func() (capi.ValueRef, error) {
		refs, release := m.values.BorrowMany([]ValueID{lhs, rhs})
		defer release()
		return m.lib.BuildBinOp(m.builder, op, refs[0], refs[1], name)
	}()
	if err != nil {
		return ValueID{}, err
	}
	return m.demandValue(ref), nil
}

// Add appends an integer addition.
func (m *Module) Add(lhs, rhs ValueID, name string) (ValueID, error) {
	return m.BinOp(capi.OpAdd, lhs, rhs, name)
}

// Sub appends an integer subtraction.
func (m *Module) Sub(lhs, rhs ValueID, name string) (ValueID, error) {
	return m.BinOp(capi.OpSub, lhs, rhs, name)
}

// Mul appends an integer multiplication.
func (m *Module) Mul(lhs, rhs ValueID, name string) (ValueID, error) {
	return m.BinOp(capi.OpMul, lhs, rhs, name)
}

// SDiv appends a signed integer division.
func (m *Module) SDiv(lhs, rhs ValueID, name string) (ValueID, error) {
	return m.BinOp(capi.OpSDiv, lhs, rhs, name)
}

// FAdd appends a floating point addition.
func (m *Module) FAdd(lhs, rhs ValueID, name string) (ValueID, error) {
	return m.BinOp(capi.OpFAdd, lhs, rhs, name)
}

// ICmp appends an integer comparison producing an i1.
func (m *Module) ICmp(pred capi.IntPredicate, lhs, rhs ValueID, name string) (ValueID, error) {
	m.live("build icmp")
	ref, err := func() (capi.ValueRef, error) {
		refs, release := m.values.BorrowMany([]ValueID{lhs, rhs})
		defer release()
		return m.lib.BuildICmp(m.builder, pred, refs[0], refs[1], name)
	}()
	if err != nil {
		return ValueID{}, err
	}
	return m.demandValue(ref), nil
}

// Call appends a call of fn. The result of a void call is still a value; it cannot
// be named or used as an operand.
func (m *Module) Call(fn ValueID, args []ValueID, name string) (ValueID, error) {
	m.live("build call")
	ref, err := func() (capi.ValueRef, error) {
		refs, release := m.values.BorrowMany(append([]ValueID{fn}, args...))
		defer release()
		return m.lib.BuildCall(m.builder, refs[0], refs[1:], name)
	}()
	if err != nil {
		return ValueID{}, err
	}
	return m.demandValue(ref), nil
}

// Ret appends a return of v.
func (m *Module) Ret(v ValueID) (ValueID, error) {
	m.live("build ret")
	var ref capi.ValueRef
	err := m.values.Project(v, func(val *Value) error {
		var err error
		ref, err = m.lib.BuildRet(m.builder, val.ref)
		return err
	})
	if err != nil {
		return ValueID{}, err
	}
	return m.demandValue(ref), nil
}

// RetVoid appends a return from a void function.
func (m *Module) RetVoid() (ValueID, error) {
	m.live("build ret void")
	ref, err := m.lib.BuildRetVoid(m.builder)
	if err != nil {
		return ValueID{}, err
	}
	return m.demandValue(ref), nil
}

// Br appends an unconditional branch to dest.
func (m *Module) Br(dest BlockID) (ValueID, error) {
	m.live("build br")
	var ref capi.ValueRef
	err := m.blocks.Project(dest, func(b *BasicBlock) error {
		var err error
		ref, err = m.lib.BuildBr(m.builder, b.ref)
		return err
	})
	if err != nil {
		return ValueID{}, err
	}
	return m.demandValue(ref), nil
}

// CondBr appends a branch to then when cond is true and to els otherwise. then and
// els may be the same block.
func (m *Module) CondBr(cond ValueID, then, els BlockID) (ValueID, error) {
	m.live("build condbr")
	ref, err := func() (capi.ValueRef, error) {
		c := m.values.Borrow(cond)
		defer c.Release()
		targets, release := m.blocks.BorrowMany([]BlockID{then, els})
		defer release()
		return m.lib.BuildCondBr(m.builder, c.Ref(), targets[0], targets[1])
	}()
	if err != nil {
		return ValueID{}, err
	}
	return m.demandValue(ref), nil
}
