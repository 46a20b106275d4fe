package entity

// lender is the extract/restore surface shared by Store and BiStore.
type lender[V any, R comparable] interface {
	UnsafeExtract(ID[V]) R
	UnsafeRestore(ID[V], R)
	view(R) V
	storeName() string
}

// Guard is one outstanding borrow. Release restores the entity; the view must not be
// used after that.
type Guard[V any, R comparable] struct {
	src      lender[V, R]
	view     V
	ref      R
	id       ID[V]
	released bool
}

func borrow[V any, R comparable](src lender[V, R], id ID[V]) *Guard[V, R] {
	ref := src.UnsafeExtract(id)
	return &Guard[V, R]{
		src:  src,
		id:   id,
		ref:  ref,
		view: src.view(ref),
	}
}

// ID returns the borrowed ID.
func (g *Guard[V, R]) ID() ID[V] {
	return g.id
}

// View returns the temporary view of the borrowed entity.
func (g *Guard[V, R]) View() V {
	g.check()
	return g.view
}

// Ref returns the borrowed reference.
func (g *Guard[V, R]) Ref() R {
	g.check()
	return g.ref
}

// Release restores the entity to its store. Further calls have no effect.
func (g *Guard[V, R]) Release() {
	if g.released {
		return
	}
	g.released = true
	var zero V
	g.view = zero
	g.src.UnsafeRestore(g.id, g.ref)
}

func (g *Guard[V, R]) check() {
	if g.released {
		violate(g.src.storeName(), OpView, g.id.Index(), "guard already released")
	}
}

func project[V any, R comparable](src lender[V, R], id ID[V], fn func(V) error) error {
	g := borrow(src, id)
	defer g.Release()
	return fn(g.view)
}

func borrowMany[V any, R comparable](src lender[V, R], ids []ID[V]) ([]R, func()) {
	refs := make([]R, len(ids))
	taken := make(map[ID[V]]R, len(ids))
	order := make([]ID[V], 0, len(ids))

	release := func() {
		for i := len(order) - 1; i >= 0; i-- {
			src.UnsafeRestore(order[i], taken[order[i]])
		}
		order = nil
	}

	done := false
	defer func() {
		if !done {
			release()
		}
	}()

	for i, id := range ids {
		if ref, ok := taken[id]; ok {
			refs[i] = ref
			continue
		}
		ref := src.UnsafeExtract(id)
		taken[id] = ref
		order = append(order, id)
		refs[i] = ref
	}
	done = true
	return refs, release
}
