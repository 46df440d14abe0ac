// Package errors provides the structured error type shared by the
// sharedref backends.
//
// Every error carries a Phase (which layer failed) and a Kind (what went
// wrong), so callers can match errors without parsing messages:
//
//	_, err := guest.New(mem, alloc, size, align)
//	if errors.Is(err, &rcerr.Error{Phase: rcerr.PhaseAlloc, Kind: rcerr.KindAllocation}) {
//	    // the guest allocator is out of memory
//	}
//
// The core handle types in the root package do not use this type; their
// only failure mode, promoting an expired weak handle, is the sentinel
// sharedref.ErrExpired.
package errors
