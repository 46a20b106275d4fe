package entity

// BiStore is a Store with a reverse index from reference to ID, so a pointer handed
// back by the foreign library resolves to the ID issued for it earlier.
//
// The index holds exactly the references currently in their slots. References on loan
// are tracked separately so they cannot be given a second ID.
type BiStore[V any, R comparable] struct {
	base   *Store[V, R]
	index  map[R]ID[V]
	loaned map[R]ID[V]
}

// NewBiStore creates an empty bidirectional store.
func NewBiStore[V any, R comparable](name string, wrap func(R) V, destroy func(R)) *BiStore[V, R] {
	return &BiStore[V, R]{
		base:   NewStore[V, R](name, wrap, destroy),
		index:  make(map[R]ID[V]),
		loaned: make(map[R]ID[V]),
	}
}

// Name returns the name used in diagnostics.
func (b *BiStore[V, R]) Name() string {
	return b.base.name
}

// Insert is DemandID.
func (b *BiStore[V, R]) Insert(ref R) ID[V] {
	return b.DemandID(ref)
}

// DemandID returns the ID already issued for ref, or inserts ref and returns a new one.
// Demanding a reference that is on loan is a violation.
func (b *BiStore[V, R]) DemandID(ref R) ID[V] {
	if id, ok := b.index[ref]; ok {
		return id
	}
	if id, ok := b.loaned[ref]; ok {
		violate(b.base.name, OpDemand, id.Index(), "reference is on loan; it would get a second identity")
	}
	id := b.base.Insert(ref)
	b.index[ref] = id
	return id
}

// ID returns the ID issued for ref. References on loan are not found.
func (b *BiStore[V, R]) ID(ref R) (ID[V], bool) {
	id, ok := b.index[ref]
	return id, ok
}

// UnsafeExtract takes id out of the store and the reverse index.
func (b *BiStore[V, R]) UnsafeExtract(id ID[V]) R {
	ref := b.base.UnsafeExtract(id)
	delete(b.index, ref)
	b.loaned[ref] = id
	return ref
}

// UnsafeRestore puts ref back into the store and the reverse index.
// ref must be the reference extracted for id.
func (b *BiStore[V, R]) UnsafeRestore(id ID[V], ref R) {
	if owner, ok := b.loaned[ref]; ok && owner == id {
		b.base.UnsafeRestore(id, ref)
		delete(b.loaned, ref)
		b.index[ref] = id
		return
	}
	if b.base.slotFor(OpRestore, id).present {
		violate(b.base.name, OpRestore, id.Index(), "entity is not extracted")
	}
	violate(b.base.name, OpRestore, id.Index(), "reference does not match the one extracted for this identity")
}

// Contains reports whether id is in its slot.
func (b *BiStore[V, R]) Contains(id ID[V]) bool {
	return b.base.Contains(id)
}

// Borrow takes id out of the store and returns a guard holding its view.
func (b *BiStore[V, R]) Borrow(id ID[V]) *Guard[V, R] {
	return borrow[V, R](b, id)
}

// Project borrows id for the duration of fn. See Store.Project.
func (b *BiStore[V, R]) Project(id ID[V], fn func(V) error) error {
	return project[V, R](b, id, fn)
}

// BorrowMany borrows every distinct ID in ids. See Store.BorrowMany.
func (b *BiStore[V, R]) BorrowMany(ids []ID[V]) ([]R, func()) {
	return borrowMany[V, R](b, ids)
}

// Len returns the number of IDs issued.
func (b *BiStore[V, R]) Len() int {
	return b.base.Len()
}

// Live returns the number of entities currently in their slots.
func (b *BiStore[V, R]) Live() int {
	return b.base.Live()
}

// Each calls fn for every entity in its slot, in ID order, until fn returns false.
func (b *BiStore[V, R]) Each(fn func(ID[V], R) bool) {
	b.base.Each(fn)
}

// Subscribe adds an observer for lifecycle events.
func (b *BiStore[V, R]) Subscribe(o Observer) {
	b.base.Subscribe(o)
}

// Close destroys every entity in its slot and empties the index.
func (b *BiStore[V, R]) Close() {
	clear(b.index)
	b.base.Close()
}

func (b *BiStore[V, R]) view(ref R) V {
	return b.base.wrap(ref)
}

func (b *BiStore[V, R]) storeName() string {
	return b.base.name
}
