package guest

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	rcerr "github.com/wippyai/sharedref/errors"
)

// WrapMemory adapts a wazero api.Memory to the Memory interface.
func WrapMemory(mem api.Memory) Memory {
	if mem == nil {
		return nil
	}
	return &wazeroMemory{mem: mem}
}

// WrapAllocator adapts a guest cabi_realloc export to the Allocator
// interface. The function must follow the canonical ABI realloc signature
// (old_ptr, old_size, align, new_size) -> ptr.
func WrapAllocator(ctx context.Context, realloc api.Function) Allocator {
	if realloc == nil {
		return nil
	}
	return &reallocAllocator{ctx: ctx, realloc: realloc}
}

type wazeroMemory struct {
	mem api.Memory
}

func (m *wazeroMemory) oob(offset, length uint32) error {
	return rcerr.OutOfBounds(rcerr.PhaseGuest, offset, length, m.mem.Size())
}

func (m *wazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, m.oob(offset, length)
	}
	return data, nil
}

func (m *wazeroMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return m.oob(offset, uint32(len(data)))
	}
	return nil
}

func (m *wazeroMemory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, m.oob(offset, 1)
	}
	return v, nil
}

func (m *wazeroMemory) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, m.oob(offset, 2)
	}
	return v, nil
}

func (m *wazeroMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, m.oob(offset, 4)
	}
	return v, nil
}

func (m *wazeroMemory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, m.oob(offset, 8)
	}
	return v, nil
}

func (m *wazeroMemory) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return m.oob(offset, 1)
	}
	return nil
}

func (m *wazeroMemory) WriteU16(offset uint32, value uint16) error {
	if !m.mem.WriteUint16Le(offset, value) {
		return m.oob(offset, 2)
	}
	return nil
}

func (m *wazeroMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return m.oob(offset, 4)
	}
	return nil
}

func (m *wazeroMemory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return m.oob(offset, 8)
	}
	return nil
}

type reallocAllocator struct {
	ctx     context.Context
	realloc api.Function
}

func (a *reallocAllocator) Alloc(size, align uint32) (uint32, error) {
	results, err := a.realloc.Call(a.ctx, 0, 0, uint64(align), uint64(size))
	if err != nil {
		return 0, rcerr.AllocationFailed(rcerr.PhaseAlloc, size, align, err)
	}
	if len(results) == 0 {
		return 0, rcerr.New(rcerr.PhaseAlloc, rcerr.KindAllocation).
			Detail("realloc returned no result").Build()
	}
	return uint32(results[0]), nil
}

func (a *reallocAllocator) Free(ptr, size, align uint32) {
	// cabi_realloc to size 0 is the canonical free. A trap here cannot be
	// surfaced through the Deleter contract; the span just leaks inside
	// the instance.
	_, _ = a.realloc.Call(a.ctx, uint64(ptr), uint64(size), uint64(align), 0)
}
