package guest

import (
	"errors"
	"testing"

	"github.com/wippyai/sharedref"
	rcerr "github.com/wippyai/sharedref/errors"
)

// recordAlloc wraps an allocator and records every Alloc/Free pair so
// tests can assert exact free behavior.
type recordAlloc struct {
	inner  Allocator
	failAt int // fail the n-th Alloc (1-based); 0 never fails
	allocs []uint32
	frees  []uint32
}

func (a *recordAlloc) Alloc(size, align uint32) (uint32, error) {
	if a.failAt > 0 && len(a.allocs)+1 == a.failAt {
		return 0, rcerr.AllocationFailed(rcerr.PhaseAlloc, size, align, nil)
	}
	ptr, err := a.inner.Alloc(size, align)
	if err != nil {
		return 0, err
	}
	a.allocs = append(a.allocs, ptr)
	return ptr, nil
}

func (a *recordAlloc) Free(ptr, size, align uint32) {
	a.frees = append(a.frees, ptr)
}

func newHarness(size uint32) (*SliceMemory, *recordAlloc) {
	return NewSliceMemory(size), &recordAlloc{inner: NewBumpAllocator(8, size)}
}

func TestNew_RoundTrip(t *testing.T) {
	mem, alloc := newHarness(1024)

	h, err := New(mem, alloc, 64, 8)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	r := h.Get()
	if r.Size() != 64 || r.Ptr()%8 != 0 {
		t.Fatalf("bad region: ptr=%d size=%d", r.Ptr(), r.Size())
	}

	if err := r.WriteU32(0, 0xdeadbeef); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	if err := r.WriteU64(8, 1<<40); err != nil {
		t.Fatalf("WriteU64: %v", err)
	}
	v32, err := r.ReadU32(0)
	if err != nil || v32 != 0xdeadbeef {
		t.Fatalf("ReadU32: %v %x", err, v32)
	}
	v64, err := r.ReadU64(8)
	if err != nil || v64 != 1<<40 {
		t.Fatalf("ReadU64: %v %x", err, v64)
	}

	h.Release()
	if len(alloc.frees) != 1 || alloc.frees[0] != alloc.allocs[0] {
		t.Fatalf("span not freed exactly once: %v", alloc.frees)
	}
}

func TestNew_SharedAcrossHandles(t *testing.T) {
	mem, alloc := newHarness(1024)

	h, err := New(mem, alloc, 16, 4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	clone := h.Clone()
	w := sharedref.WeakOf(h)
	defer w.Release()

	h.Release()
	if len(alloc.frees) != 0 {
		t.Fatal("span freed while a strong handle remains")
	}
	if w.Expired() {
		t.Fatal("weak handle expired while the clone is alive")
	}

	clone.Release()
	if len(alloc.frees) != 1 {
		t.Fatalf("span must be freed with the last strong handle, frees=%d", len(alloc.frees))
	}
	if !w.Expired() {
		t.Fatal("weak handle must expire once the span is freed")
	}
	if s := w.Lock(); !s.IsNil() {
		t.Fatal("lock after free must return an empty handle")
	}
}

func TestNew_AllocFailurePropagates(t *testing.T) {
	mem, alloc := newHarness(1024)
	alloc.failAt = 1
	blocks := sharedref.LiveBlocks()

	h, err := New(mem, alloc, 16, 4)
	if !errors.Is(err, &rcerr.Error{Phase: rcerr.PhaseAlloc, Kind: rcerr.KindAllocation}) {
		t.Fatalf("expected allocation error, got %v", err)
	}
	if !h.IsNil() {
		t.Fatal("failed allocation produced a live handle")
	}
	if sharedref.LiveBlocks() != blocks {
		t.Fatal("failed allocation leaked a control block")
	}
	if len(alloc.frees) != 0 {
		t.Fatal("nothing was allocated, nothing should be freed")
	}
}

func TestNewInit_FailureFreesSpan(t *testing.T) {
	mem, alloc := newHarness(1024)
	initErr := errors.New("bad header")

	h, err := NewInit(mem, alloc, 32, 4, func(r *Region) error {
		if err := r.WriteU8(0, 1); err != nil {
			return err
		}
		return initErr
	})
	if !errors.Is(err, initErr) {
		t.Fatalf("expected init error, got %v", err)
	}
	if !h.IsNil() {
		t.Fatal("failed init produced a live handle")
	}
	if len(alloc.frees) != 1 || alloc.frees[0] != alloc.allocs[0] {
		t.Fatalf("failed init must free the span exactly once, frees=%v", alloc.frees)
	}
}

func TestNewInit_Success(t *testing.T) {
	mem, alloc := newHarness(1024)

	h, err := NewInit(mem, alloc, 8, 4, func(r *Region) error {
		return r.WriteU32(0, 77)
	})
	if err != nil {
		t.Fatalf("NewInit failed: %v", err)
	}
	defer h.Release()

	v, err := h.Get().ReadU32(0)
	if err != nil || v != 77 {
		t.Fatalf("init not visible: %v %d", err, v)
	}
}

func TestAdoptPtr_BorrowedViewNeverFrees(t *testing.T) {
	mem, alloc := newHarness(1024)

	h := AdoptPtr(mem, nil, 100, 8, 1)
	if err := h.Get().WriteU8(0, 42); err != nil {
		t.Fatalf("borrowed view write: %v", err)
	}
	h.Release()
	if len(alloc.frees) != 0 {
		t.Fatal("borrowed view must not free anything")
	}
}

func TestAdoptPtr_OwnedFreesOnRelease(t *testing.T) {
	mem, alloc := newHarness(1024)
	ptr, err := alloc.Alloc(24, 8)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	h := AdoptPtr(mem, alloc, ptr, 24, 8)
	h.Release()
	if len(alloc.frees) != 1 || alloc.frees[0] != ptr {
		t.Fatalf("adopted span must be freed on release, frees=%v", alloc.frees)
	}
}

func TestRegion_Bounds(t *testing.T) {
	mem, alloc := newHarness(1024)
	h, err := New(mem, alloc, 16, 4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer h.Release()
	r := h.Get()

	oob := &rcerr.Error{Phase: rcerr.PhaseGuest, Kind: rcerr.KindOutOfBounds}
	if _, err := r.ReadU32(13); !errors.Is(err, oob) {
		t.Fatalf("expected out-of-bounds read error, got %v", err)
	}
	if err := r.WriteU64(9, 1); !errors.Is(err, oob) {
		t.Fatalf("expected out-of-bounds write error, got %v", err)
	}
	if _, err := r.Read(0, 17); !errors.Is(err, oob) {
		t.Fatalf("expected out-of-bounds slice error, got %v", err)
	}
	// Offsets near the uint32 edge must not wrap.
	if _, err := r.Read(0xffffffff, 2); !errors.Is(err, oob) {
		t.Fatalf("expected wrap-around to be rejected, got %v", err)
	}
}

func TestSliceMemory_Bounds(t *testing.T) {
	mem := NewSliceMemory(8)
	oob := &rcerr.Error{Phase: rcerr.PhaseGuest, Kind: rcerr.KindOutOfBounds}

	if err := mem.WriteU64(1, 5); !errors.Is(err, oob) {
		t.Fatalf("expected out-of-bounds error, got %v", err)
	}
	if _, err := mem.Read(8, 1); !errors.Is(err, oob) {
		t.Fatalf("expected out-of-bounds error, got %v", err)
	}
	if err := mem.WriteU64(0, 5); err != nil {
		t.Fatalf("in-bounds write failed: %v", err)
	}
}

func TestBumpAllocator_Exhaustion(t *testing.T) {
	alloc := NewBumpAllocator(0, 32)

	if _, err := alloc.Alloc(24, 8); err != nil {
		t.Fatalf("first allocation should fit: %v", err)
	}
	if _, err := alloc.Alloc(16, 8); !errors.Is(err, &rcerr.Error{Phase: rcerr.PhaseAlloc, Kind: rcerr.KindAllocation}) {
		t.Fatalf("expected exhaustion error, got %v", err)
	}
}
