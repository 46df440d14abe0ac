package table

import (
	"sync"

	"github.com/wippyai/sharedref"
	rcerr "github.com/wippyai/sharedref/errors"
)

// Handle is an opaque reference to an entry in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Event types for table lifecycle notifications.
type EventType uint8

const (
	EventInserted EventType = iota
	EventBorrowed
	EventRemoved
)

// Event represents a table lifecycle event.
type Event struct {
	Handle Handle
	Type   EventType
}

// Observer receives notifications about table lifecycle events.
type Observer interface {
	OnTableEvent(Event)
}

type entry[T any] struct {
	ref   sharedref.Strong[T]
	valid bool
}

// Table maps small integer handles to shared values. Each entry holds its
// own strong reference, so a value stays alive at least as long as its
// handle is in the table, and exactly as long when no caller keeps a clone.
//
// A mutex serializes every table operation, including the reference count
// updates the table performs on behalf of its entries, so Insert, Borrow,
// WeakRef and Remove may be called from multiple goroutines. The references
// the table hands out still keep the core package's single-goroutine
// contract: a borrowed handle must be cloned and released on one goroutine,
// and handles held outside the table must not be manipulated concurrently
// with table calls on the same value.
type Table[T any] struct {
	entries   []entry[T]
	freeList  []Handle
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

// New creates an empty table.
func New[T any]() *Table[T] {
	return &Table[T]{
		entries:  make([]entry[T], 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Insert stores a clone of ref and returns its handle. The caller keeps
// its own reference. Insert fails once the table is closed.
func (t *Table[T]) Insert(ref sharedref.Strong[T]) (Handle, error) {
	if ref.IsNil() {
		return 0, rcerr.NilPointer(rcerr.PhaseTable, "reference")
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, rcerr.Closed(rcerr.PhaseTable, "table")
	}

	e := entry[T]{ref: ref.Clone(), valid: true}

	var handle Handle
	if n := len(t.freeList); n > 0 {
		handle = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.entries[handle-1] = e
	} else {
		t.entries = append(t.entries, e)
		handle = Handle(len(t.entries))
	}
	t.mu.Unlock()

	t.notify(Event{Handle: handle, Type: EventInserted})
	return handle, nil
}

// Borrow returns a new strong reference to the entry's value. The caller
// owns the returned reference and must release it. Cloning mutates the
// entry's counts, so this takes the exclusive lock.
func (t *Table[T]) Borrow(handle Handle) (sharedref.Strong[T], bool) {
	t.mu.Lock()
	e, ok := t.lookup(handle)
	if !ok {
		t.mu.Unlock()
		return sharedref.Strong[T]{}, false
	}
	ref := e.ref.Clone()
	t.mu.Unlock()

	t.notify(Event{Handle: handle, Type: EventBorrowed})
	return ref, true
}

// WeakRef returns a weak reference to the entry's value. The reference
// does not keep the value alive; it expires when the entry is removed and
// no other strong handles remain.
func (t *Table[T]) WeakRef(handle Handle) (sharedref.Weak[T], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.lookup(handle)
	if !ok {
		return sharedref.Weak[T]{}, false
	}
	return sharedref.WeakOf(e.ref), true
}

// Remove drops the table's reference and frees the handle for reuse. The
// value is destroyed here only if no other strong references remain. The
// release runs under the lock so a value's deleter must not call back into
// the table.
func (t *Table[T]) Remove(handle Handle) bool {
	t.mu.Lock()
	e, ok := t.lookup(handle)
	if !ok {
		t.mu.Unlock()
		return false
	}

	ref := e.ref
	*e = entry[T]{}
	t.freeList = append(t.freeList, handle)
	ref.Release()
	t.mu.Unlock()

	t.notify(Event{Handle: handle, Type: EventRemoved})
	return true
}

// Len returns the number of live entries.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for i := range t.entries {
		if t.entries[i].valid {
			n++
		}
	}
	return n
}

// Each calls fn for every live entry until fn returns false. The value
// pointer is only valid for the duration of the call.
func (t *Table[T]) Each(fn func(Handle, *T) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := range t.entries {
		if !t.entries[i].valid {
			continue
		}
		if !fn(Handle(i+1), t.entries[i].ref.Get()) {
			return
		}
	}
}

// Clear removes all entries.
func (t *Table[T]) Clear() {
	var handles []Handle
	t.mu.RLock()
	for i := range t.entries {
		if t.entries[i].valid {
			handles = append(handles, Handle(i+1))
		}
	}
	t.mu.RUnlock()

	for _, h := range handles {
		t.Remove(h)
	}
}

// Close removes all entries and stops accepting inserts. Closing twice
// is a no-op.
func (t *Table[T]) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true

	for i := range t.entries {
		if t.entries[i].valid {
			ref := t.entries[i].ref
			t.entries[i] = entry[T]{}
			ref.Release()
		}
	}
	t.entries = nil
	t.freeList = nil
	t.mu.Unlock()
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (t *Table[T]) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table[T]) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// lookup resolves a handle to its entry. Callers hold t.mu.
func (t *Table[T]) lookup(handle Handle) (*entry[T], bool) {
	if handle == 0 || int(handle) > len(t.entries) {
		return nil, false
	}
	e := &t.entries[handle-1]
	if !e.valid {
		return nil, false
	}
	return e, true
}

func (t *Table[T]) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnTableEvent(e)
	}
}
