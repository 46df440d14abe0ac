package sharedref

import "errors"

// ErrExpired is returned by FromWeak when the observed value is already
// destroyed. Lock is the non-failing alternative.
var ErrExpired = errors.New("sharedref: weak handle is expired")

// Strong is an owning handle. Every strong handle sharing a control block
// keeps the managed value alive; the value is destroyed when the last of
// them is released.
//
// The zero value is an empty handle. Strong values are copied with Clone,
// never by plain assignment of a handle that will be released twice.
type Strong[T any] struct {
	cb  block
	ptr *T
}

// Adopt takes ownership of a value that was created elsewhere. del disposes
// of the value when the last strong handle is released; a nil del means the
// default Dropper-aware deleter. Adopting a nil pointer yields an empty
// handle and the deleter is never run.
func Adopt[T any](ptr *T, del Deleter[T]) Strong[T] {
	if ptr == nil {
		return Strong[T]{}
	}
	if del == nil {
		del = defaultDeleter[T]
	}
	return Strong[T]{cb: newAdoptedBlock(ptr, del), ptr: ptr}
}

// Make constructs the managed value in place: one allocation holds both the
// counts and the value. This is the preferred creation path. If T
// implements Dropper, Drop runs when the last strong handle is released.
func Make[T any](v T) Strong[T] {
	b := &inlineBlock[T]{counts: newCounts(), val: v}
	registerBlock(b.id)
	return Strong[T]{cb: b, ptr: &b.val}
}

// MakeWith constructs the managed value in place using ctor. A ctor error
// propagates and nothing is retained: the handle is empty, no lifecycle
// events fire, and the partially built block is unwound.
func MakeWith[T any](ctor func(*T) error) (Strong[T], error) {
	b := &inlineBlock[T]{counts: newCounts()}
	if err := ctor(&b.val); err != nil {
		return Strong[T]{}, err
	}
	registerBlock(b.id)
	return Strong[T]{cb: b, ptr: &b.val}, nil
}

// Alias returns a handle that shares src's ownership accounting but reports
// ptr from Get. Typical use: a handle to a field that keeps its whole
// parent alive. An empty src yields a handle with no ownership but the
// given cached pointer.
func Alias[T, Y any](src Strong[Y], ptr *T) Strong[T] {
	if src.cb != nil {
		addStrong(src.cb)
	}
	return Strong[T]{cb: src.cb, ptr: ptr}
}

// FromWeak promotes w to a strong handle. It fails with ErrExpired when the
// value is already destroyed (or w is empty); callers that treat expiry as
// a normal outcome should use Lock instead.
func FromWeak[T any](w Weak[T]) (Strong[T], error) {
	if w.Expired() {
		return Strong[T]{}, ErrExpired
	}
	addStrong(w.cb)
	return Strong[T]{cb: w.cb, ptr: w.ptr}, nil
}

// Clone returns a new handle sharing ownership. Cloning an empty handle
// yields an empty handle.
func (s Strong[T]) Clone() Strong[T] {
	if s.cb != nil {
		addStrong(s.cb)
	}
	return Strong[T]{cb: s.cb, ptr: s.ptr}
}

// Take moves the reference out of s: the returned handle owns it and s
// becomes empty. No counts change.
func (s *Strong[T]) Take() Strong[T] {
	out := Strong[T]{cb: s.cb, ptr: s.ptr}
	s.cb, s.ptr = nil, nil
	return out
}

// Assign replaces s with a copy of o. The copy is built first and then
// swapped in, so assigning a handle to itself leaves it unchanged.
func (s *Strong[T]) Assign(o Strong[T]) {
	tmp := o.Clone()
	tmp.Swap(s)
	tmp.Release()
}

// MoveFrom moves o's reference into s, releasing whatever s held. Moving a
// handle into itself is a no-op.
func (s *Strong[T]) MoveFrom(o *Strong[T]) {
	if s == o {
		return
	}
	tmp := o.Take()
	tmp.Swap(s)
	tmp.Release()
}

// Get returns the cached pointer, which is nil for an empty handle.
func (s Strong[T]) Get() *T { return s.ptr }

// IsNil reports whether Get would return nil.
func (s Strong[T]) IsNil() bool { return s.ptr == nil }

// UseCount reports how many strong handles currently share ownership with
// s; 0 for an empty handle.
func (s Strong[T]) UseCount() int {
	if s.cb == nil {
		return 0
	}
	return int(s.cb.refs().strong)
}

// Equal compares by managed pointer identity, not control block identity:
// two aliases of one block can compare unequal, and that is intended.
func (s Strong[T]) Equal(o Strong[T]) bool { return s.ptr == o.ptr }

// Swap exchanges the contents of two handles without touching any counts.
func (s *Strong[T]) Swap(o *Strong[T]) {
	s.cb, o.cb = o.cb, s.cb
	s.ptr, o.ptr = o.ptr, s.ptr
}

// Release drops s's strong reference and empties the handle. The managed
// value is destroyed when this was the last strong reference; the control
// block goes away once no weak handle observes it either. Releasing an
// empty handle is a no-op, so Release is safe to defer unconditionally.
func (s *Strong[T]) Release() {
	if s.cb == nil {
		s.ptr = nil
		return
	}
	cb := s.cb
	s.cb, s.ptr = nil, nil
	releaseStrong(cb)
	maybeFree(cb)
}

// ResetTo releases the current reference and adopts ptr with del, with the
// same build-then-swap shape as Assign.
func (s *Strong[T]) ResetTo(ptr *T, del Deleter[T]) {
	tmp := Adopt(ptr, del)
	tmp.Swap(s)
	tmp.Release()
}
