//go:build !((linux || darwin) && (amd64 || arm64))

package native

import (
	"unsafe"

	rcerr "github.com/wippyai/sharedref/errors"
)

func malloc(size uintptr) (unsafe.Pointer, error) {
	return nil, rcerr.Unsupported(rcerr.PhaseNative, "libc allocator is not available on this platform")
}

func free(ptr unsafe.Pointer) {}
