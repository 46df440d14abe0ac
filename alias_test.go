package sharedref

import "testing"

type pair struct {
	first  widget
	second widget
	drops  *int
}

func (p *pair) Drop() {
	if p.drops != nil {
		*p.drops++
	}
}

func TestAlias_SharesOwnership(t *testing.T) {
	drops := 0
	parent := Make(pair{first: widget{n: 1}, second: widget{n: 2}, drops: &drops})

	field := Alias(parent, &parent.Get().second)
	if field.Get() != &parent.Get().second {
		t.Fatal("alias must report the given pointer")
	}
	if field.UseCount() != parent.UseCount() || field.UseCount() != 2 {
		t.Fatalf("alias must share ownership accounting, got %d/%d",
			field.UseCount(), parent.UseCount())
	}

	parent.Release()
	if drops != 0 {
		t.Fatal("alias must keep the parent alive")
	}
	if field.Get().n != 2 {
		t.Fatal("aliased field unreadable after parent handle release")
	}

	field.Release()
	if drops != 1 {
		t.Fatalf("expected exactly one drop, got %d", drops)
	}
}

func TestAlias_CompareUnequalDespiteSharedBlock(t *testing.T) {
	parent := Make(pair{})
	defer parent.Release()

	a := Alias(parent, &parent.Get().first)
	defer a.Release()
	b := Alias(parent, &parent.Get().second)
	defer b.Release()

	if a.Equal(b) {
		t.Fatal("aliases of different sub-objects must compare unequal")
	}
}

func TestAlias_EmptySourceKeepsPointer(t *testing.T) {
	var src Strong[pair]
	w := widget{n: 3}

	h := Alias(src, &w)
	if h.Get() != &w {
		t.Fatal("alias of an empty source still caches the given pointer")
	}
	if h.UseCount() != 0 {
		t.Fatal("alias of an empty source owns nothing")
	}
	h.Release()
}
