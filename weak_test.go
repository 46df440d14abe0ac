package sharedref

import (
	"errors"
	"testing"
)

func TestWeak_ExpiresAtLastStrongRelease(t *testing.T) {
	drops := 0
	h := Make(widget{n: 1, drops: &drops})
	w := WeakOf(h)
	defer w.Release()

	if w.Expired() || w.UseCount() != 1 {
		t.Fatalf("weak handle expired while strong handle alive (count %d)", w.UseCount())
	}

	h.Release()
	if drops != 1 {
		t.Fatal("weak handle must not keep the value alive")
	}
	if !w.Expired() || w.UseCount() != 0 {
		t.Fatal("weak handle must expire when the last strong handle drops")
	}

	// Copies taken after expiry stay expired.
	w2 := w.Clone()
	defer w2.Release()
	if !w2.Expired() {
		t.Fatal("clone of an expired weak handle must be expired")
	}
}

func TestWeak_LockWhileAlive(t *testing.T) {
	h := Make(widget{n: 1})
	defer h.Release()
	w := WeakOf(h)
	defer w.Release()

	before := h.UseCount()
	s := w.Lock()
	if s.IsNil() {
		t.Fatal("lock on a live value must succeed")
	}
	if s.UseCount() != before+1 {
		t.Fatalf("lock must add exactly one reference: %d -> %d", before, s.UseCount())
	}
	if s.Get() != h.Get() {
		t.Fatal("locked handle must see the same value")
	}
	s.Release()
	if h.UseCount() != before {
		t.Fatal("releasing the locked handle must restore the count")
	}
}

func TestWeak_LockAfterExpiryIsEmpty(t *testing.T) {
	h := Make(widget{n: 1})
	w := WeakOf(h)
	defer w.Release()
	h.Release()

	s := w.Lock()
	if !s.IsNil() || s.UseCount() != 0 {
		t.Fatal("lock on an expired weak handle must yield an empty handle")
	}
}

func TestFromWeak(t *testing.T) {
	h := Make(widget{n: 1})
	w := WeakOf(h)
	defer w.Release()

	s, err := FromWeak(w)
	if err != nil {
		t.Fatalf("promotion of a live value failed: %v", err)
	}
	if s.UseCount() != 2 {
		t.Fatalf("expected use count 2 after promotion, got %d", s.UseCount())
	}
	s.Release()
	h.Release()

	if _, err := FromWeak(w); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestFromWeak_EmptyHandle(t *testing.T) {
	var w Weak[widget]
	if _, err := FromWeak(w); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired for an empty weak handle, got %v", err)
	}
}

func TestWeak_BlockOutlivesValue(t *testing.T) {
	blocks := LiveBlocks()

	h := Make(widget{n: 1})
	w := WeakOf(h)
	if LiveBlocks() != blocks+1 {
		t.Fatal("creation must register one block")
	}

	h.Release()
	if LiveBlocks() != blocks+1 {
		t.Fatal("block must survive while a weak handle observes it")
	}

	w.Release()
	if LiveBlocks() != blocks {
		t.Fatal("block must be freed with the last weak handle")
	}
}

func TestWeak_SelfAssign(t *testing.T) {
	h := Make(widget{n: 1})
	defer h.Release()
	w := WeakOf(h)
	defer w.Release()

	w.Assign(w)
	if w.Expired() || w.UseCount() != 1 {
		t.Fatal("self-assignment changed weak handle state")
	}
}

func TestWeak_TakeAndMoveFrom(t *testing.T) {
	h := Make(widget{n: 1})
	defer h.Release()

	w := WeakOf(h)
	moved := w.Take()
	if !w.Expired() || moved.Expired() {
		t.Fatal("take must leave the source empty and the target live")
	}

	var dst Weak[widget]
	dst.MoveFrom(&moved)
	defer dst.Release()
	if !moved.Expired() || dst.Expired() {
		t.Fatal("move-from must transfer the reference")
	}

	dst.MoveFrom(&dst)
	if dst.Expired() {
		t.Fatal("self-move destabilized the weak handle")
	}
}

func TestWeak_SwapAndUseCount(t *testing.T) {
	h1 := Make(widget{n: 1})
	h2c := h1.Clone()
	defer h2c.Release()
	h3 := Make(widget{n: 3})
	defer h3.Release()

	wa := WeakOf(h1)
	defer wa.Release()
	wb := WeakOf(h3)
	defer wb.Release()
	h1.Release()

	if wa.UseCount() != 1 || wb.UseCount() != 1 {
		t.Fatalf("unexpected counts before swap: %d/%d", wa.UseCount(), wb.UseCount())
	}
	wa.Swap(&wb)
	locked := wa.Lock()
	defer locked.Release()
	if locked.Get() != h3.Get() {
		t.Fatal("swap did not exchange observed values")
	}
}
