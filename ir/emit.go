package ir

import (
	"io"

	"go.uber.org/zap"
)

// Verify checks the module. Problems come back as an *errors.VerificationError.
func (m *Module) Verify() error {
	m.live("verify")
	err := m.lib.VerifyModule(m.mod)
	if err != nil {
		Logger().Debug("module failed verification", zap.String("module", m.name), zap.Error(err))
	}
	return err
}

// WriteIR writes the module as textual IR.
func (m *Module) WriteIR(w io.Writer) error {
	m.live("write ir")
	return m.lib.PrintModule(m.mod, w)
}

// WriteWasm verifies the module and writes it as a WebAssembly binary.
func (m *Module) WriteWasm(w io.Writer) error {
	m.live("write wasm")
	if err := m.Verify(); err != nil {
		return err
	}
	return m.lib.EmitWasm(m.mod, w)
}
