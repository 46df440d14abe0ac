// Package guest applies sharedref ownership to spans of WASM linear
// memory.
//
// A guest allocation has no garbage collector watching it: once the host
// stops using a span, someone must hand it back to the guest's allocator
// or it is pinned for the life of the instance. This package makes the
// "someone" a strong handle:
//
//	alloc := guest.WrapAllocator(ctx, inst.ExportedFunction("cabi_realloc"))
//	mem := guest.WrapMemory(inst.Memory())
//
//	h, err := guest.New(mem, alloc, 64, 8)
//	if err != nil {
//	    return err // the guest allocator refused; nothing was retained
//	}
//	defer h.Release() // span returns to the guest with the last handle
//
//	shared := h.Clone() // both handles keep the span alive
//
// Regions can also be sized for a WIT type (NewFor), initialized with a
// rollback-on-error hook (NewInit), or adopted from a pointer the guest
// produced itself (AdoptPtr).
//
// SliceMemory and BumpAllocator are host-side stand-ins for tests and
// tools; WrapMemory and WrapAllocator bind a real wazero instance.
//
// Handles follow the core package's single-goroutine contract.
package guest
