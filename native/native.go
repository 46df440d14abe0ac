//go:build (linux || darwin) && (amd64 || arm64)

package native

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	rcerr "github.com/wippyai/sharedref/errors"
)

var (
	libcMalloc func(size uintptr) unsafe.Pointer
	libcFree   func(ptr unsafe.Pointer)

	loadOnce sync.Once
	loadErr  error
)

func libcPath() string {
	if runtime.GOOS == "darwin" {
		return "/usr/lib/libSystem.B.dylib"
	}
	return "libc.so.6"
}

func load() error {
	loadOnce.Do(func() {
		lib, err := purego.Dlopen(libcPath(), purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			loadErr = rcerr.New(rcerr.PhaseNative, rcerr.KindNotLoaded).
				Cause(err).
				Detail("opening %s", libcPath()).
				Build()
			return
		}
		purego.RegisterLibFunc(&libcMalloc, lib, "malloc")
		purego.RegisterLibFunc(&libcFree, lib, "free")
	})
	return loadErr
}

func malloc(size uintptr) (unsafe.Pointer, error) {
	if err := load(); err != nil {
		return nil, err
	}
	ptr := libcMalloc(size)
	if ptr == nil {
		return nil, rcerr.AllocationFailed(rcerr.PhaseNative, uint32(size), 0, nil)
	}
	return ptr, nil
}

func free(ptr unsafe.Pointer) {
	if ptr == nil || libcFree == nil {
		return
	}
	libcFree(ptr)
}
