// Package irbind is a Go binding layer over a C-ABI IR construction library.
//
// The foreign library hands out raw pointers to objects whose ownership graph it keeps
// to itself: instructions alias their block, blocks alias their function, and types
// are shared by everything in a context. The binding never lets Go code hold those
// pointers directly. Each pointer lives in a per-kind store slot and callers hold a
// typed integer ID for it instead. Using an object means borrowing it out of its slot
// for the length of one call.
//
// # Architecture Overview
//
//	irbind/
//	├── entity/          Store, BiStore, Guard and typed IDs; contract violations panic
//	├── capi/            The foreign function table and pointer reference types
//	│   └── inproc/      In-process implementation over llir with misuse detection
//	├── ir/              Module: owns the stores and foreign handles, wraps operations
//	├── lower/           Straight-line functions to a wasm binary
//	├── engine/          wazero runner for emitted wasm
//	├── observe/         zap and prometheus lifecycle observers
//	├── recipe/          YAML module descriptions
//	├── errors/          Structured errors for recoverable foreign failures
//	└── cmd/irkit/       build, inspect and run recipes
//
// # Quick Start
//
// Build a function and emit it:
//
//	m, err := ir.NewModule(inproc.New(), ir.Options{Name: "demo"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Dispose()
//
//	i32, _ := m.IntType(32)
//	sig, _ := m.FunctionType(i32, []ir.TypeID{i32, i32}, false)
//	fn, _ := m.AddFunction("add", sig)
//	entry, _ := m.AppendBlock(fn, "entry")
//	_ = m.PositionAtEnd(entry)
//	a, _ := m.Param(fn, 0)
//	b, _ := m.Param(fn, 1)
//	sum, _ := m.Add(a, b, "sum")
//	_, _ = m.Ret(sum)
//
//	err = m.WriteIR(os.Stdout)
//
// # Borrowing
//
// A view such as *ir.Value exists only inside a borrow:
//
//	err := m.WithValue(fn, func(v *ir.Value) error {
//	    fmt.Println(v.Name(), v.ParamCount())
//	    return nil
//	})
//
// While the borrow is open the slot is empty, so borrowing the same ID again panics
// with an *entity.Violation. Operations whose operands repeat an ID, such as add x, x,
// borrow each distinct ID once.
//
// # Errors
//
// Failures reported by the foreign library, such as a type mismatch or an unknown
// target triple, are returned as *errors.Error and leave every store intact. Misuse of
// the binding itself panics with *entity.Violation.
//
// # Thread Safety
//
// A Module and its stores are not safe for concurrent use; use one module per
// goroutine. The inproc library and the engine are safe for concurrent use.
package irbind
