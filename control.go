package sharedref

import "sync/atomic"

// Dropper is optionally implemented by managed values that need cleanup
// when the last strong handle releases them.
type Dropper interface {
	Drop()
}

// Deleter disposes of a managed value once the last strong handle is
// released. It runs exactly once per managed value.
type Deleter[T any] func(*T)

// defaultDeleter is the analog of plain heap deallocation: it runs the
// value's Drop hook when it has one and otherwise just lets go. Reclaiming
// the memory is the collector's job.
func defaultDeleter[T any](p *T) {
	if d, ok := any(p).(Dropper); ok {
		d.Drop()
	}
}

// block is the control side of a handle pair: two reference counts plus a
// variant-specific destroy operation. There are two variants, adoptedBlock
// and inlineBlock.
type block interface {
	refs() *counts

	// destroy tears down the managed value. It is invoked exactly once,
	// on the 1->0 transition of the strong count, and never again.
	destroy()

	// free releases whatever the block still holds once both counts are
	// zero. The managed value is already destroyed by then.
	free()
}

// counts carries the reference counts shared by every block variant. The
// counters are plain integers: handles sharing one block belong to a single
// goroutine (see the package documentation).
//
// A block starts with one strong reference. The handle that allocates it is
// not a separate add event.
type counts struct {
	strong uint32
	weak   uint32
	id     uint64
}

var nextBlockID atomic.Uint64

func newCounts() counts {
	return counts{strong: 1, id: nextBlockID.Add(1)}
}

// Count mutation happens only through the helpers below. Handles never
// write the fields directly, so the dual zero-crossing rules live in one
// place.

func addStrong(b block) {
	b.refs().strong++
}

// releaseStrong drops one strong reference and destroys the managed value
// on the 1->0 transition. It does not free the block: the releasing handle
// still needs the counts afterwards, and weak handles may remain.
func releaseStrong(b block) {
	c := b.refs()
	c.strong--
	if c.strong == 0 {
		b.destroy()
		liveValues.Add(-1)
		notify(Event{Type: EventDestroyed, Block: c.id})
	}
}

func addWeak(b block) {
	b.refs().weak++
}

func releaseWeak(b block) {
	b.refs().weak--
}

// maybeFree deallocates the block once no handle of either kind remains.
// Callers run it after releaseStrong or releaseWeak; whichever release
// zeroes the second count performs the free, so it happens exactly once.
func maybeFree(b block) {
	c := b.refs()
	if c.strong == 0 && c.weak == 0 {
		b.free()
		liveBlocks.Add(-1)
		notify(Event{Type: EventFreed, Block: c.id})
	}
}

// adoptedBlock manages a value that was allocated independently of the
// block: a caller-provided pointer plus the deleter that disposes of it.
type adoptedBlock[T any] struct {
	counts
	ptr *T
	del Deleter[T]
}

func newAdoptedBlock[T any](ptr *T, del Deleter[T]) *adoptedBlock[T] {
	b := &adoptedBlock[T]{counts: newCounts(), ptr: ptr, del: del}
	registerBlock(b.id)
	return b
}

func (b *adoptedBlock[T]) refs() *counts { return &b.counts }

func (b *adoptedBlock[T]) destroy() {
	ptr := b.ptr
	b.ptr = nil // the deleter owns it now; the block never touches it again
	b.del(ptr)
}

func (b *adoptedBlock[T]) free() {
	b.del = nil
}

// inlineBlock stores the managed value in the same allocation as the
// counts, so a single heap object serves both metadata and storage.
// destroy ends the value's lifetime; the storage itself is reclaimed only
// when the block is freed.
type inlineBlock[T any] struct {
	counts
	val T
}

func (b *inlineBlock[T]) refs() *counts { return &b.counts }

func (b *inlineBlock[T]) destroy() {
	if d, ok := any(&b.val).(Dropper); ok {
		d.Drop()
	}
	var zero T
	b.val = zero
}

func (b *inlineBlock[T]) free() {}
