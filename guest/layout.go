package guest

import "go.bytecodealliance.org/wit"

// Info describes the canonical-ABI footprint of a WIT type.
type Info struct {
	Size  uint32
	Align uint32
}

// AlignTo rounds offset up to the next multiple of align.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// Layout computes the size and alignment of a WIT type per the Component
// Model canonical ABI, so NewFor can size a region with one allocation.
func Layout(t wit.Type) Info {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Info{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return Info{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return Info{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return Info{Size: 8, Align: 8}
	case wit.String:
		return Info{Size: 8, Align: 4} // [ptr: u32, len: u32]
	case *wit.TypeDef:
		return layoutTypeDef(typ)
	default:
		return Info{Size: 0, Align: 1}
	}
}

func layoutTypeDef(t *wit.TypeDef) Info {
	switch kind := t.Kind.(type) {
	case *wit.Record:
		return layoutFields(recordTypes(kind))
	case *wit.Tuple:
		return layoutFields(kind.Types)
	case *wit.List:
		return Info{Size: 8, Align: 4}
	case *wit.Enum:
		d := discriminantSize(len(kind.Cases))
		return Info{Size: d, Align: d}
	case *wit.Variant:
		return layoutVariant(kind)
	case *wit.Option:
		return layoutTagged(1, []wit.Type{kind.Type})
	case *wit.Result:
		var payloads []wit.Type
		if kind.OK != nil {
			payloads = append(payloads, kind.OK)
		}
		if kind.Err != nil {
			payloads = append(payloads, kind.Err)
		}
		return layoutTagged(1, payloads)
	case *wit.Flags:
		return layoutFlags(len(kind.Flags))
	case wit.Type:
		return Layout(kind)
	default:
		return Info{Size: 0, Align: 1}
	}
}

func recordTypes(r *wit.Record) []wit.Type {
	types := make([]wit.Type, len(r.Fields))
	for i, f := range r.Fields {
		types[i] = f.Type
	}
	return types
}

// layoutFields packs a sequence of fields with natural alignment and pads
// the total size to the widest alignment.
func layoutFields(types []wit.Type) Info {
	if len(types) == 0 {
		return Info{Size: 0, Align: 1}
	}
	maxAlign := uint32(1)
	offset := uint32(0)
	for _, ft := range types {
		fi := Layout(ft)
		offset = AlignTo(offset, fi.Align) + fi.Size
		if fi.Align > maxAlign {
			maxAlign = fi.Align
		}
	}
	return Info{Size: AlignTo(offset, maxAlign), Align: maxAlign}
}

func layoutVariant(v *wit.Variant) Info {
	if len(v.Cases) == 0 {
		return Info{Size: 0, Align: 1}
	}
	var payloads []wit.Type
	for _, c := range v.Cases {
		if c.Type != nil {
			payloads = append(payloads, c.Type)
		}
	}
	return layoutTagged(discriminantSize(len(v.Cases)), payloads)
}

// layoutTagged lays out a discriminant followed by the widest payload.
func layoutTagged(discSize uint32, payloads []wit.Type) Info {
	maxAlign := discSize
	maxSize := uint32(0)
	for _, p := range payloads {
		pi := Layout(p)
		if pi.Align > maxAlign {
			maxAlign = pi.Align
		}
		if pi.Size > maxSize {
			maxSize = pi.Size
		}
	}
	payloadOffset := AlignTo(discSize, maxAlign)
	return Info{Size: AlignTo(payloadOffset+maxSize, maxAlign), Align: maxAlign}
}

// discriminantSize: 1 byte for <=256 cases, 2 for <=65536, else 4.
func discriminantSize(numCases int) uint32 {
	if numCases <= 256 {
		return 1
	}
	if numCases <= 65536 {
		return 2
	}
	return 4
}

func layoutFlags(numFlags int) Info {
	switch {
	case numFlags == 0:
		return Info{Size: 0, Align: 1}
	case numFlags <= 8:
		return Info{Size: 1, Align: 1}
	case numFlags <= 16:
		return Info{Size: 2, Align: 2}
	case numFlags <= 32:
		return Info{Size: 4, Align: 4}
	case numFlags <= 64:
		return Info{Size: 8, Align: 8}
	default:
		// >64 flags: packed u32 words per the canonical ABI.
		return Info{Size: uint32((numFlags + 31) / 32 * 4), Align: 4}
	}
}
