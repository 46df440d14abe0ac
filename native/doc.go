// Package native backs strong handles with libc heap memory.
//
// The Go heap cannot refuse an allocation in a way a program can observe,
// so this package is where out-of-memory behavior becomes real on the host
// side: Alloc calls malloc through purego and a NULL return is reported as
// an error instead of a panic.
//
//	buf, err := native.Alloc(4096)
//	if err != nil {
//	    return err
//	}
//	defer buf.Release()
//	copy(buf.Get().Bytes(), payload)
//
// The libc handle is resolved lazily on first use. On platforms purego
// does not cover, Alloc fails with an unsupported error and no buffer is
// created.
//
// Buffers follow the same single-goroutine contract as the core package.
package native
