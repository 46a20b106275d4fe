package entity

type slot[R comparable] struct {
	ref     R
	present bool
}

// Store is an append-only table of references to foreign objects.
// A slot is empty exactly while its entity is on loan.
type Store[V any, R comparable] struct {
	wrap      func(R) V
	destroy   func(R)
	name      string
	slots     []slot[R]
	observers []Observer
	live      int
	closed    bool
}

// NewStore creates an empty store. wrap builds the temporary view for a borrow;
// destroy releases a foreign object at teardown and may be nil when the foreign
// library owns the object's lifetime.
func NewStore[V any, R comparable](name string, wrap func(R) V, destroy func(R)) *Store[V, R] {
	return &Store[V, R]{
		name:    name,
		wrap:    wrap,
		destroy: destroy,
		slots:   make([]slot[R], 0, 16),
	}
}

// Name returns the name used in diagnostics.
func (s *Store[V, R]) Name() string {
	return s.name
}

// Insert appends ref in a new slot and returns its ID.
func (s *Store[V, R]) Insert(ref R) ID[V] {
	if s.closed {
		violate(s.name, OpInsert, -1, "store is closed")
	}
	s.slots = append(s.slots, slot[R]{ref: ref, present: true})
	s.live++
	id := makeID[V](len(s.slots) - 1)
	s.notify(Event{Type: EventCreated, Store: s.name, Index: id.Index(), Ref: ref})
	return id
}

// UnsafeExtract takes the reference out of its slot and leaves the slot empty.
// The caller must hand it back with UnsafeRestore.
func (s *Store[V, R]) UnsafeExtract(id ID[V]) R {
	sl := s.slotFor(OpExtract, id)
	if !sl.present {
		violate(s.name, OpExtract, id.Index(), "entity is already extracted")
	}
	ref := sl.ref
	var zero R
	sl.ref = zero
	sl.present = false
	s.live--
	s.notify(Event{Type: EventBorrowed, Store: s.name, Index: id.Index(), Ref: ref})
	return ref
}

// UnsafeRestore puts ref back into the empty slot of id.
// The store checks vacancy only; ref must be the reference extracted for id.
func (s *Store[V, R]) UnsafeRestore(id ID[V], ref R) {
	sl := s.slotFor(OpRestore, id)
	if sl.present {
		violate(s.name, OpRestore, id.Index(), "entity is not extracted")
	}
	sl.ref = ref
	sl.present = true
	s.live++
	s.notify(Event{Type: EventReturned, Store: s.name, Index: id.Index(), Ref: ref})
}

// Contains reports whether id is in its slot. Entities on loan are not contained.
func (s *Store[V, R]) Contains(id ID[V]) bool {
	i := id.Index()
	return i < len(s.slots) && s.slots[i].present
}

// Borrow takes id out of the store and returns a guard holding its view.
func (s *Store[V, R]) Borrow(id ID[V]) *Guard[V, R] {
	return borrow[V, R](s, id)
}

// Project borrows id, calls fn with its view, and restores the slot afterwards,
// including when fn returns an error or panics. fn's error is returned unchanged.
func (s *Store[V, R]) Project(id ID[V], fn func(V) error) error {
	return project[V, R](s, id, fn)
}

// BorrowMany takes every distinct ID in ids out of the store once and returns their
// references in the order of ids. Repeated IDs share a reference. The returned
// function restores all of them.
func (s *Store[V, R]) BorrowMany(ids []ID[V]) ([]R, func()) {
	return borrowMany[V, R](s, ids)
}

// Len returns the number of IDs issued.
func (s *Store[V, R]) Len() int {
	return len(s.slots)
}

// Live returns the number of entities currently in their slots.
func (s *Store[V, R]) Live() int {
	return s.live
}

// Each calls fn for every entity in its slot, in ID order, until fn returns false.
func (s *Store[V, R]) Each(fn func(ID[V], R) bool) {
	for i, sl := range s.slots {
		if sl.present {
			if !fn(makeID[V](i), sl.ref) {
				return
			}
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (s *Store[V, R]) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

// Close destroys every entity still in its slot. Entities on loan at this point are
// leaked and reported as a violation once the others are destroyed.
// Calling Close more than once has no effect.
func (s *Store[V, R]) Close() {
	if s.closed {
		return
	}
	s.closed = true

	var leaked []int
	var zero R
	for i := range s.slots {
		sl := &s.slots[i]
		if !sl.present {
			leaked = append(leaked, i)
			continue
		}
		if s.destroy != nil {
			s.destroy(sl.ref)
		}
		s.notify(Event{Type: EventDestroyed, Store: s.name, Index: i, Ref: sl.ref})
		sl.ref = zero
		sl.present = false
	}
	s.live = 0

	if len(leaked) > 0 {
		violate(s.name, OpClose, leaked[0], "%d entities still on loan at teardown: %v", len(leaked), leaked)
	}
}

func (s *Store[V, R]) slotFor(op string, id ID[V]) *slot[R] {
	if s.closed {
		violate(s.name, op, id.Index(), "store is closed")
	}
	i := id.Index()
	if i >= len(s.slots) {
		violate(s.name, op, i, "identity was never issued by this store (%d issued)", len(s.slots))
	}
	return &s.slots[i]
}

func (s *Store[V, R]) view(ref R) V {
	return s.wrap(ref)
}

func (s *Store[V, R]) storeName() string {
	return s.name
}

func (s *Store[V, R]) notify(e Event) {
	for _, o := range s.observers {
		o.OnEntityEvent(e)
	}
}
