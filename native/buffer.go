package native

import (
	"unsafe"

	"github.com/wippyai/sharedref"
	rcerr "github.com/wippyai/sharedref/errors"
)

// Buffer is a span of libc-allocated memory. Buffers are handed out behind
// strong handles; the span is returned to libc free when the last strong
// handle is released, so a buffer pointer obtained from Bytes must not
// outlive the handle it came from.
type Buffer struct {
	ptr  unsafe.Pointer
	size uintptr
}

// Ptr returns the raw allocation pointer.
func (b *Buffer) Ptr() unsafe.Pointer { return b.ptr }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uintptr { return b.size }

// Bytes returns the buffer contents as a byte slice. The slice aliases the
// native allocation; it is valid only while a strong handle is held.
func (b *Buffer) Bytes() []byte {
	if b.ptr == nil || b.size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.ptr), b.size)
}

func freeBuffer(b *Buffer) {
	free(b.ptr)
	b.ptr = nil
}

// Alloc requests size bytes from libc malloc and returns a strong handle
// to the buffer. A NULL return from malloc surfaces as an allocation error
// and nothing is retained.
func Alloc(size uintptr) (sharedref.Strong[Buffer], error) {
	if size == 0 {
		return sharedref.Strong[Buffer]{}, rcerr.New(rcerr.PhaseNative, rcerr.KindInvalidInput).
			Detail("zero-size allocation").
			Build()
	}
	ptr, err := malloc(size)
	if err != nil {
		return sharedref.Strong[Buffer]{}, err
	}
	return sharedref.Adopt(&Buffer{ptr: ptr, size: size}, freeBuffer), nil
}

// AdoptPtr wraps memory that was already allocated with libc malloc. The
// pointer is freed when the last strong handle is released. A nil pointer
// yields an empty handle.
func AdoptPtr(ptr unsafe.Pointer, size uintptr) sharedref.Strong[Buffer] {
	if ptr == nil {
		return sharedref.Strong[Buffer]{}
	}
	return sharedref.Adopt(&Buffer{ptr: ptr, size: size}, freeBuffer)
}
