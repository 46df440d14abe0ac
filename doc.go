// Package sharedref provides reference-counted, shared-ownership handles
// over values whose lifetime must end deterministically: foreign memory,
// guest allocations inside a WASM instance, pooled resources, anything the
// garbage collector cannot release for you.
//
// # Architecture Overview
//
// The library is organized into a small core plus backends and tooling:
//
//	sharedref/        Root package: Strong and Weak handles, control blocks
//	├── errors/       Structured error types shared by the backends
//	├── guest/        Shared ownership of WASM linear-memory allocations (wazero)
//	├── native/       Shared ownership of libc-allocated memory (purego)
//	├── table/        Dense handle table storing strong handles by integer slot
//	└── cmd/rcmon     Scenario replay and interactive lifecycle monitor
//
// # Handles
//
// A Strong[T] owns one reference. Copies are explicit:
//
//	a := sharedref.Make(widget{n: 42}) // one allocation: counts + value
//	b := a.Clone()                     // use count 2
//	a.Release()                        // use count 1, widget alive
//	b.Release()                        // widget dropped, block freed
//
// A Weak[T] observes without owning:
//
//	w := sharedref.WeakOf(b)
//	if s := w.Lock(); !s.IsNil() {
//	    // value was still alive; s owns a reference now
//	    s.Release()
//	}
//
// Values created elsewhere are adopted together with a deleter:
//
//	buf := sharedref.Adopt(ptr, func(p *Buffer) { free(p) })
//
// The deleter runs exactly once, when the last strong handle is released.
// Weak handles never delay it: they keep only the control block alive, so
// Expired and Lock still answer after the value is gone.
//
// # Ownership discipline
//
// Handles are not garbage-collection magic. Every handle obtained from
// Make, Adopt, Clone, Alias, Lock or a table must be Released exactly once;
// Release on an empty handle is a no-op, so a deferred Release is always
// safe. LiveBlocks and LiveValues expose global gauges for leak checks.
//
// # Concurrency
//
// Reference counts are plain integers. All handles sharing one control
// block must be created, cloned and released on a single goroutine, or the
// caller must serialize those operations externally. Handles of distinct
// control blocks are independent.
package sharedref
