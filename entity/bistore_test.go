package entity

import (
	"testing"
)

func TestBiStore_DemandID(t *testing.T) {
	b := NewBiStore[*testView]("types", wrapTest, nil)
	p1 := testRef{0x10}

	id := b.Insert(p1)
	if id.Index() != 0 {
		t.Fatalf("expected id 0, got %d", id.Index())
	}

	again := b.DemandID(p1)
	if again != id {
		t.Fatalf("DemandID returned %v, want %v", again, id)
	}
	if b.Len() != 1 {
		t.Fatalf("expected 1 slot, got %d", b.Len())
	}
}

func TestBiStore_ReverseLookup(t *testing.T) {
	b := NewBiStore[*testView]("types", wrapTest, nil)
	p1, p2 := testRef{0x10}, testRef{0x20}
	b.Insert(p1)
	id2 := b.Insert(p2)

	got, ok := b.ID(p2)
	if !ok || got != id2 {
		t.Fatalf("ID(p2) = %v, %v", got, ok)
	}
	if _, ok := b.ID(testRef{0x99}); ok {
		t.Fatal("unknown reference must not resolve")
	}
}

func TestBiStore_ExtractHidesReference(t *testing.T) {
	b := NewBiStore[*testView]("values", wrapTest, nil)
	p := testRef{0x10}
	id := b.Insert(p)

	ref := b.UnsafeExtract(id)
	if b.Contains(id) {
		t.Fatal("extracted entity must not be contained")
	}
	if _, ok := b.ID(ref); ok {
		t.Fatal("extracted reference must not resolve")
	}

	b.UnsafeRestore(id, ref)
	got, ok := b.ID(p)
	if !ok || got != id || !b.Contains(id) {
		t.Fatal("restore must bring back forward and reverse lookup")
	}
	if b.Len() != 1 || b.Live() != 1 {
		t.Fatalf("round trip changed counts: %d/%d", b.Len(), b.Live())
	}
}

func TestBiStore_DemandOnLoan(t *testing.T) {
	b := NewBiStore[*testView]("values", wrapTest, nil)
	p := testRef{0x10}
	id := b.Insert(p)

	expectViolation(t, OpDemand, func() {
		_ = b.Project(id, func(v *testView) error {
			b.DemandID(v.ref)
			return nil
		})
	})
	if b.Len() != 1 {
		t.Fatalf("no identity may be minted for a loaned reference, got %d slots", b.Len())
	}
	if got, ok := b.ID(p); !ok || got != id {
		t.Fatal("reverse index must be restored after the violation unwinds")
	}
}

func TestBiStore_RestoreMismatch(t *testing.T) {
	b := NewBiStore[*testView]("values", wrapTest, nil)
	id := b.Insert(testRef{0x10})
	b.Insert(testRef{0x20})
	b.UnsafeExtract(id)

	v := expectViolation(t, OpRestore, func() {
		b.UnsafeRestore(id, testRef{0x20})
	})
	if v.Index != id.Index() {
		t.Fatalf("unexpected violation %+v", v)
	}
}

func TestBiStore_RestorePresent(t *testing.T) {
	b := NewBiStore[*testView]("values", wrapTest, nil)
	id := b.Insert(testRef{0x10})

	expectViolation(t, OpRestore, func() {
		b.UnsafeRestore(id, testRef{0x10})
	})
}

func TestBiStore_ProjectAndBorrowMany(t *testing.T) {
	b := NewBiStore[*testView]("values", wrapTest, nil)
	a := b.Insert(testRef{0x10})
	c := b.Insert(testRef{0x20})

	err := b.Project(a, func(v *testView) error {
		if _, ok := b.ID(v.ref); ok {
			t.Fatal("projected reference must not resolve")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	refs, release := b.BorrowMany([]ID[*testView]{c, c})
	if refs[0] != refs[1] {
		t.Fatal("repeated id must share its reference")
	}
	if _, ok := b.ID(refs[0]); ok {
		t.Fatal("borrowed reference must not resolve")
	}
	release()

	if id, ok := b.ID(testRef{0x20}); !ok || id != c {
		t.Fatal("release must restore the reverse index")
	}
}

func TestBiStore_Close(t *testing.T) {
	d := newDestroyCounter()
	b := NewBiStore[*testView]("types", wrapTest, d.destroy)
	b.Insert(testRef{0x10})
	b.Insert(testRef{0x20})
	b.Insert(testRef{0x10})

	b.Close()

	if d.total() != 2 {
		t.Fatalf("expected 2 destroy calls, got %d", d.total())
	}
	if _, ok := b.ID(testRef{0x10}); ok {
		t.Fatal("closed store must not resolve references")
	}
}
