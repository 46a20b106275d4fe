// Package entity provides identity stores for objects owned by a foreign library.
//
// A foreign object is reachable only through an opaque pointer, wrapped in a small
// comparable reference type. A store hands out an ID for every reference it is given
// and keeps the reference in a slot. Client code holds IDs, never pointers:
//
//	types := entity.NewBiStore("types", wrapType, releaseType)
//	i32 := types.DemandID(ref)
//
// # Borrowing
//
// To operate on an entity, its reference is taken out of the slot for the length of one
// borrow and wrapped in a temporary view. While the entity is out, the slot is empty:
// Contains reports false and a second borrow of the same ID is a contract violation.
//
//	err := types.Project(i32, func(t *Type) error {
//	    return t.SetName("word")
//	})
//
// Project restores the slot on every exit path, including panics, and returns the
// callback's error unchanged. Borrow returns a Guard for code that needs the view across
// several statements:
//
//	g := values.Borrow(fn)
//	defer g.Release()
//
// UnsafeExtract and UnsafeRestore are the primitives underneath. Pairing them is the
// caller's obligation.
//
// # Reverse lookup
//
// BiStore adds a reference-to-ID index, so a pointer returned by the foreign library
// resolves to the ID issued earlier for the same object instead of a new one. A
// reference on loan is absent from the index as well.
//
// # Contract violations
//
// Misuse of the protocol (extracting twice, restoring a present slot, using an ID the
// store never issued, demanding an ID for a reference on loan, closing a store with
// entities on loan) panics with a *Violation after logging it. These are defects in the
// calling code, not input errors.
//
// # Teardown
//
// Close destroys every entity still in its slot exactly once, through the destroy
// function supplied at construction.
//
// # Thread Safety
//
// Stores are not synchronized. Use one store, and the container that owns it, per
// goroutine.
package entity
