// Package ir is the owning container over a foreign IR construction library.
//
// A Module owns one foreign context, module and builder plus four entity stores:
// types and values are BiStores, so a pointer the library returns again resolves to
// the ID issued the first time; basic blocks and attributes are plain Stores. Every
// operation takes and returns IDs. Internally it borrows the entities it needs, calls
// the library, restores the borrows on every exit path and files any new pointer in
// the right store.
//
//	m, err := ir.NewModule(inproc.New(), ir.Options{Name: "demo"})
//	defer m.Dispose()
//
//	i32, _ := m.IntType(32)
//	sig, _ := m.FunctionType(i32, []ir.TypeID{i32, i32}, false)
//	add, _ := m.AddFunction("add", sig)
//	entry, _ := m.AppendBlock(add, "entry")
//	_ = m.PositionAtEnd(entry)
//	a, _ := m.Param(add, 0)
//	b, _ := m.Param(add, 1)
//	sum, _ := m.Add(a, b, "sum")
//	_, _ = m.Ret(sum)
//
// Views (Type, Value, BasicBlock, Attribute) exist only inside WithType, WithValue,
// WithBlock and WithAttribute callbacks and must not escape them.
//
// Foreign failures come back as *errors.Error values. Misuse of the container itself,
// such as calling it after Dispose or nesting a borrow of the same ID, panics with an
// *entity.Violation.
//
// A Module is not safe for concurrent use. Distinct modules may be used from distinct
// goroutines.
package ir
