package guest

import (
	"testing"

	"go.bytecodealliance.org/wit"
)

func manyFlags(n int) []wit.Flag {
	flags := make([]wit.Flag, n)
	for i := range flags {
		flags[i] = wit.Flag{Name: "f"}
	}
	return flags
}

func TestLayout(t *testing.T) {
	tests := []struct {
		name string
		typ  wit.Type
		want Info
	}{
		{"bool", wit.Bool{}, Info{1, 1}},
		{"u8", wit.U8{}, Info{1, 1}},
		{"u16", wit.U16{}, Info{2, 2}},
		{"u32", wit.U32{}, Info{4, 4}},
		{"u64", wit.U64{}, Info{8, 8}},
		{"f32", wit.F32{}, Info{4, 4}},
		{"f64", wit.F64{}, Info{8, 8}},
		{"char", wit.Char{}, Info{4, 4}},
		{"string", wit.String{}, Info{8, 4}},
		{
			"record u8 then u32 pads to 8",
			&wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
				{Name: "a", Type: wit.U8{}},
				{Name: "b", Type: wit.U32{}},
			}}},
			Info{8, 4},
		},
		{
			"empty record",
			&wit.TypeDef{Kind: &wit.Record{}},
			Info{0, 1},
		},
		{
			"tuple u64 u8",
			&wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U64{}, wit.U8{}}}},
			Info{16, 8},
		},
		{
			"list is ptr+len",
			&wit.TypeDef{Kind: &wit.List{Type: wit.U64{}}},
			Info{8, 4},
		},
		{
			"enum three cases",
			&wit.TypeDef{Kind: &wit.Enum{Cases: []wit.EnumCase{
				{Name: "a"}, {Name: "b"}, {Name: "c"},
			}}},
			Info{1, 1},
		},
		{
			"option u32 is tag plus padded payload",
			&wit.TypeDef{Kind: &wit.Option{Type: wit.U32{}}},
			Info{8, 4},
		},
		{
			"result u64 or u8",
			&wit.TypeDef{Kind: &wit.Result{OK: wit.U64{}, Err: wit.U8{}}},
			Info{16, 8},
		},
		{
			"result with no payloads",
			&wit.TypeDef{Kind: &wit.Result{}},
			Info{1, 1},
		},
		{
			"variant mixed payloads",
			&wit.TypeDef{Kind: &wit.Variant{Cases: []wit.Case{
				{Name: "none"},
				{Name: "small", Type: wit.U8{}},
				{Name: "big", Type: wit.U64{}},
			}}},
			Info{16, 8},
		},
		{
			"flags up to 8 fit a byte",
			&wit.TypeDef{Kind: &wit.Flags{Flags: manyFlags(5)}},
			Info{1, 1},
		},
		{
			"flags up to 32 fit a word",
			&wit.TypeDef{Kind: &wit.Flags{Flags: manyFlags(17)}},
			Info{4, 4},
		},
		{
			"flags beyond 64 pack into u32 words",
			&wit.TypeDef{Kind: &wit.Flags{Flags: manyFlags(70)}},
			Info{12, 4},
		},
		{
			"alias resolves through typedef",
			&wit.TypeDef{Kind: wit.U16{}},
			Info{2, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Layout(tt.typ)
			if got != tt.want {
				t.Fatalf("Layout(%s) = %+v, want %+v", tt.name, got, tt.want)
			}
		})
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct {
		offset, align, want uint32
	}{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 8, 8},
		{13, 1, 13},
		{7, 0, 7},
	}
	for _, tt := range tests {
		if got := AlignTo(tt.offset, tt.align); got != tt.want {
			t.Fatalf("AlignTo(%d, %d) = %d, want %d", tt.offset, tt.align, got, tt.want)
		}
	}
}

func TestNewFor_SizesFromLayout(t *testing.T) {
	mem, alloc := newHarness(1024)
	rec := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "id", Type: wit.U32{}},
		{Name: "value", Type: wit.U64{}},
	}}}

	h, err := NewFor(mem, alloc, rec)
	if err != nil {
		t.Fatalf("NewFor failed: %v", err)
	}
	defer h.Release()

	r := h.Get()
	if r.Size() != 16 || r.Align() != 8 {
		t.Fatalf("region footprint = %d/%d, want 16/8", r.Size(), r.Align())
	}
	if r.Ptr()%8 != 0 {
		t.Fatalf("region not aligned: ptr=%d", r.Ptr())
	}
}
