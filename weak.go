package sharedref

// Weak observes a value owned by strong handles without keeping it alive.
// A weak handle can outlive the value: it keeps only the control block
// around, so Expired and Lock still answer after the value is gone.
//
// The zero value is an empty handle.
type Weak[T any] struct {
	cb  block
	ptr *T
}

// WeakOf starts observing the value behind s. The strong count is not
// affected; an empty s yields an empty weak handle.
func WeakOf[T any](s Strong[T]) Weak[T] {
	if s.cb != nil {
		addWeak(s.cb)
	}
	return Weak[T]{cb: s.cb, ptr: s.ptr}
}

// Clone returns a new weak handle observing the same value.
func (w Weak[T]) Clone() Weak[T] {
	if w.cb != nil {
		addWeak(w.cb)
	}
	return Weak[T]{cb: w.cb, ptr: w.ptr}
}

// Take moves the reference out of w: the returned handle owns it and w
// becomes empty. No counts change.
func (w *Weak[T]) Take() Weak[T] {
	out := Weak[T]{cb: w.cb, ptr: w.ptr}
	w.cb, w.ptr = nil, nil
	return out
}

// Assign replaces w with a copy of o; self-assignment leaves w unchanged.
func (w *Weak[T]) Assign(o Weak[T]) {
	tmp := o.Clone()
	tmp.Swap(w)
	tmp.Release()
}

// MoveFrom moves o's reference into w, releasing whatever w held. Moving a
// handle into itself is a no-op.
func (w *Weak[T]) MoveFrom(o *Weak[T]) {
	if w == o {
		return
	}
	tmp := o.Take()
	tmp.Swap(w)
	tmp.Release()
}

// UseCount reports the number of strong handles keeping the observed value
// alive; 0 when w is empty or the value is gone.
func (w Weak[T]) UseCount() int {
	if w.cb == nil {
		return 0
	}
	return int(w.cb.refs().strong)
}

// Expired reports whether the observed value has been destroyed. Once true
// it stays true, including for weak handles cloned afterwards.
func (w Weak[T]) Expired() bool { return w.UseCount() == 0 }

// Lock returns a strong handle when the value is still alive, or an empty
// handle when it is not. Expiry is a normal outcome here, never an error;
// FromWeak is the failing variant.
func (w Weak[T]) Lock() Strong[T] {
	if w.Expired() {
		return Strong[T]{}
	}
	addStrong(w.cb)
	return Strong[T]{cb: w.cb, ptr: w.ptr}
}

// Swap exchanges the contents of two weak handles without touching counts.
func (w *Weak[T]) Swap(o *Weak[T]) {
	w.cb, o.cb = o.cb, w.cb
	w.ptr, o.ptr = o.ptr, w.ptr
}

// Release drops the weak reference and empties the handle. The managed
// value is never touched; the control block is freed if this was the last
// reference of either kind. Releasing an empty handle is a no-op.
func (w *Weak[T]) Release() {
	if w.cb == nil {
		w.ptr = nil
		return
	}
	cb := w.cb
	w.cb, w.ptr = nil, nil
	releaseWeak(cb)
	maybeFree(cb)
}
