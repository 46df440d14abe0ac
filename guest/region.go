package guest

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/sharedref"
	rcerr "github.com/wippyai/sharedref/errors"
)

// Region is a span of guest linear memory. Regions are created through the
// functions below, which hand them out behind strong handles; when the last
// strong handle is released the span goes back to its allocator.
type Region struct {
	mem   Memory
	ptr   uint32
	size  uint32
	align uint32
}

// Ptr returns the guest address of the region.
func (r *Region) Ptr() uint32 { return r.ptr }

// Size returns the region size in bytes.
func (r *Region) Size() uint32 { return r.size }

// Align returns the alignment the region was allocated with.
func (r *Region) Align() uint32 { return r.align }

func (r *Region) check(offset, length uint32) error {
	if offset > r.size || length > r.size-offset {
		return rcerr.OutOfBounds(rcerr.PhaseGuest, offset, length, r.size)
	}
	return nil
}

// Bytes returns the whole region contents.
func (r *Region) Bytes() ([]byte, error) {
	return r.mem.Read(r.ptr, r.size)
}

// Read returns length bytes at the region-relative offset.
func (r *Region) Read(offset, length uint32) ([]byte, error) {
	if err := r.check(offset, length); err != nil {
		return nil, err
	}
	return r.mem.Read(r.ptr+offset, length)
}

// Write copies data to the region-relative offset.
func (r *Region) Write(offset uint32, data []byte) error {
	if err := r.check(offset, uint32(len(data))); err != nil {
		return err
	}
	return r.mem.Write(r.ptr+offset, data)
}

func (r *Region) ReadU8(offset uint32) (uint8, error) {
	if err := r.check(offset, 1); err != nil {
		return 0, err
	}
	return r.mem.ReadU8(r.ptr + offset)
}

func (r *Region) ReadU32(offset uint32) (uint32, error) {
	if err := r.check(offset, 4); err != nil {
		return 0, err
	}
	return r.mem.ReadU32(r.ptr + offset)
}

func (r *Region) ReadU64(offset uint32) (uint64, error) {
	if err := r.check(offset, 8); err != nil {
		return 0, err
	}
	return r.mem.ReadU64(r.ptr + offset)
}

func (r *Region) WriteU8(offset uint32, value uint8) error {
	if err := r.check(offset, 1); err != nil {
		return err
	}
	return r.mem.WriteU8(r.ptr+offset, value)
}

func (r *Region) WriteU32(offset uint32, value uint32) error {
	if err := r.check(offset, 4); err != nil {
		return err
	}
	return r.mem.WriteU32(r.ptr+offset, value)
}

func (r *Region) WriteU64(offset uint32, value uint64) error {
	if err := r.check(offset, 8); err != nil {
		return err
	}
	return r.mem.WriteU64(r.ptr+offset, value)
}

// freeTo builds the deleter that returns a region to its allocator.
func freeTo(alloc Allocator) sharedref.Deleter[Region] {
	return func(r *Region) {
		alloc.Free(r.ptr, r.size, r.align)
	}
}

// New allocates size bytes in guest memory and returns a strong handle to
// the region. Allocation failure propagates and nothing is retained. The
// span is freed back to alloc when the last strong handle is released.
func New(mem Memory, alloc Allocator, size, align uint32) (sharedref.Strong[Region], error) {
	if mem == nil {
		return sharedref.Strong[Region]{}, rcerr.NilPointer(rcerr.PhaseGuest, "memory")
	}
	if alloc == nil {
		return sharedref.Strong[Region]{}, rcerr.NilPointer(rcerr.PhaseGuest, "allocator")
	}
	ptr, err := alloc.Alloc(size, align)
	if err != nil {
		return sharedref.Strong[Region]{}, err
	}
	r := &Region{mem: mem, ptr: ptr, size: size, align: align}
	return sharedref.Adopt(r, freeTo(alloc)), nil
}

// NewInit allocates like New and then runs init on the fresh region. An
// init error frees the span back to the allocator before propagating, so
// a failed initialization never leaks guest memory.
func NewInit(mem Memory, alloc Allocator, size, align uint32, init func(*Region) error) (sharedref.Strong[Region], error) {
	h, err := New(mem, alloc, size, align)
	if err != nil {
		return h, err
	}
	if err := init(h.Get()); err != nil {
		h.Release() // runs the deleter: the span goes straight back
		return sharedref.Strong[Region]{}, err
	}
	return h, nil
}

// NewFor allocates a region sized and aligned for a WIT type per the
// canonical ABI. One guest allocation serves the whole value.
func NewFor(mem Memory, alloc Allocator, t wit.Type) (sharedref.Strong[Region], error) {
	info := Layout(t)
	return New(mem, alloc, info.Size, info.Align)
}

// AdoptPtr wraps a span that the guest already allocated. When alloc is
// non-nil the span is freed back to it on the last strong release; a nil
// alloc adopts the span as a borrowed view that is never freed.
func AdoptPtr(mem Memory, alloc Allocator, ptr, size, align uint32) sharedref.Strong[Region] {
	if mem == nil {
		return sharedref.Strong[Region]{}
	}
	r := &Region{mem: mem, ptr: ptr, size: size, align: align}
	if alloc == nil {
		return sharedref.Adopt(r, func(*Region) {})
	}
	return sharedref.Adopt(r, freeTo(alloc))
}
