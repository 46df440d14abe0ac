package guest

import (
	rcerr "github.com/wippyai/sharedref/errors"
)

// Memory is read/write access to WASM linear memory. All multi-byte values
// are little-endian, per the WebAssembly memory model.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// Allocator allocates spans of linear memory. Alloc is fallible: a guest
// allocator can refuse, trap, or run out of pages, which is why region
// creation in this package returns errors where the core package does not.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}

// SliceMemory is a Memory backed by a host byte slice. It exists for
// tests, examples, and tools that exercise region ownership without a
// WASM instance.
type SliceMemory struct {
	data []byte
}

// NewSliceMemory returns a zeroed memory of the given size.
func NewSliceMemory(size uint32) *SliceMemory {
	return &SliceMemory{data: make([]byte, size)}
}

// Size returns the memory size in bytes.
func (m *SliceMemory) Size() uint32 { return uint32(len(m.data)) }

func (m *SliceMemory) check(offset, length uint32) error {
	size := uint32(len(m.data))
	if offset > size || length > size-offset {
		return rcerr.OutOfBounds(rcerr.PhaseGuest, offset, length, size)
	}
	return nil
}

func (m *SliceMemory) Read(offset uint32, length uint32) ([]byte, error) {
	if err := m.check(offset, length); err != nil {
		return nil, err
	}
	return m.data[offset : offset+length], nil
}

func (m *SliceMemory) Write(offset uint32, data []byte) error {
	if err := m.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *SliceMemory) ReadU8(offset uint32) (uint8, error) {
	if err := m.check(offset, 1); err != nil {
		return 0, err
	}
	return m.data[offset], nil
}

func (m *SliceMemory) ReadU16(offset uint32) (uint16, error) {
	if err := m.check(offset, 2); err != nil {
		return 0, err
	}
	return uint16(m.data[offset]) | uint16(m.data[offset+1])<<8, nil
}

func (m *SliceMemory) ReadU32(offset uint32) (uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return 0, err
	}
	return uint32(m.data[offset]) | uint32(m.data[offset+1])<<8 |
		uint32(m.data[offset+2])<<16 | uint32(m.data[offset+3])<<24, nil
}

func (m *SliceMemory) ReadU64(offset uint32) (uint64, error) {
	lo, err := m.ReadU32(offset)
	if err != nil {
		return 0, err
	}
	hi, err := m.ReadU32(offset + 4)
	if err != nil {
		return 0, err
	}
	return uint64(lo) | uint64(hi)<<32, nil
}

func (m *SliceMemory) WriteU8(offset uint32, value uint8) error {
	if err := m.check(offset, 1); err != nil {
		return err
	}
	m.data[offset] = value
	return nil
}

func (m *SliceMemory) WriteU16(offset uint32, value uint16) error {
	if err := m.check(offset, 2); err != nil {
		return err
	}
	m.data[offset] = byte(value)
	m.data[offset+1] = byte(value >> 8)
	return nil
}

func (m *SliceMemory) WriteU32(offset uint32, value uint32) error {
	if err := m.check(offset, 4); err != nil {
		return err
	}
	m.data[offset] = byte(value)
	m.data[offset+1] = byte(value >> 8)
	m.data[offset+2] = byte(value >> 16)
	m.data[offset+3] = byte(value >> 24)
	return nil
}

func (m *SliceMemory) WriteU64(offset uint32, value uint64) error {
	if err := m.WriteU32(offset, uint32(value)); err != nil {
		return err
	}
	return m.WriteU32(offset+4, uint32(value>>32))
}

// BumpAllocator hands out monotonically increasing addresses and never
// reuses freed spans. Good enough for tests and short-lived tools; frees
// are counted so leak checks can compare allocs against frees.
type BumpAllocator struct {
	next   uint32
	limit  uint32
	allocs int
	frees  int
}

// NewBumpAllocator allocates addresses in [start, limit). Address 0 is
// conventionally a null pointer; pass a non-zero start to keep it free.
func NewBumpAllocator(start, limit uint32) *BumpAllocator {
	return &BumpAllocator{next: start, limit: limit}
}

func (a *BumpAllocator) Alloc(size, align uint32) (uint32, error) {
	addr := AlignTo(a.next, align)
	if addr > a.limit || size > a.limit-addr {
		return 0, rcerr.AllocationFailed(rcerr.PhaseAlloc, size, align, nil)
	}
	a.next = addr + size
	a.allocs++
	return addr, nil
}

func (a *BumpAllocator) Free(ptr, size, align uint32) {
	a.frees++
}

// Allocs returns the number of successful allocations.
func (a *BumpAllocator) Allocs() int { return a.allocs }

// Frees returns the number of Free calls.
func (a *BumpAllocator) Frees() int { return a.frees }
