// Package engine runs WebAssembly binaries lowered from IR modules.
//
// The engine wraps a wazero runtime. Lowered modules import their declared functions
// from the "env" module; RegisterHostFunc provides them before the first Load.
//
//	e, err := engine.New(ctx, &engine.Config{MemoryLimitPages: 16})
//	defer e.Close(ctx)
//	m, err := e.Load(ctx, wasmBytes)
//	results, err := m.Call(ctx, "add", api.EncodeI32(2), api.EncodeI32(3))
//
// Failures are reported as *errors.Error values in the execute phase: compile and
// instantiation problems with KindInstantiate, traps with KindTrap.
package engine
