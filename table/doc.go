// Package table maps small integer handles to shared values.
//
// A table is the bridge between handle-oriented code (wire protocols, ABIs,
// anything that cannot carry a Go pointer) and the reference-counted values
// of the core package. Inserting clones the caller's strong reference, so
// the table co-owns the value; removing releases the table's share, and the
// value is destroyed only when the last reference anywhere goes away.
//
//	tbl := table.New[Session]()
//	h, err := tbl.Insert(sess) // table takes its own reference
//	...
//	ref, ok := tbl.Borrow(h)   // caller gets a co-owning reference
//	defer ref.Release()
//
// Handles are dense and reused from a free list; handle 0 is never valid.
// Observers see insert, borrow and remove events, which pairs with the
// core package's lifecycle events for leak hunting.
package table
