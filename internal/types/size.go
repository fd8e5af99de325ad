package types

import "fmt"

// AggregateReferent is implemented by symbol-table entries for struct
// and union types: it exposes the field types needed for layout.
type AggregateReferent interface {
	Referent
	FieldTypes() []*Type
}

// EnumReferent is implemented by symbol-table entries for enum types.
type EnumReferent interface {
	Referent
	BackingType() *Type
}

// TypedefReferent is implemented by symbol-table entries for typedefs.
type TypedefReferent interface {
	Referent
	Underlying() *Type
}

// Sizeof returns the size in bytes of t. t must be Complete.
func Sizeof(t *Type) (uint64, error) {
	switch t.kind {
	case KKeyword:
		return keywordWidth(t.keyword), nil
	case KQualified:
		return Sizeof(t.base)
	case KPointer, KFunPtr:
		return 8, nil
	case KArray:
		elemSize, err := Sizeof(t.base)
		if err != nil {
			return 0, err
		}
		return t.length * elemSize, nil
	case KAggregate:
		return aggregateSize(t.members)
	case KReference:
		r := t.referent
		switch r.ReferentKind() {
		case RefTypedef:
			return Sizeof(r.(TypedefReferent).Underlying())
		case RefEnum:
			return Sizeof(r.(EnumReferent).BackingType())
		case RefUnion:
			return unionSize(r.(AggregateReferent).FieldTypes())
		case RefStruct:
			return structSize(r.(AggregateReferent).FieldTypes())
		default:
			return 0, fmt.Errorf("sizeof: opaque type %q has no definition", t.referent.ReferentName())
		}
	default:
		panic("ICE: unhandled type kind in Sizeof")
	}
}

// Alignof returns the alignment in bytes of t. t must be Complete.
func Alignof(t *Type) (uint64, error) {
	switch t.kind {
	case KKeyword:
		w := keywordWidth(t.keyword)
		if w == 0 {
			w = 1
		}
		return w, nil
	case KQualified:
		return Alignof(t.base)
	case KPointer, KFunPtr:
		return 8, nil
	case KArray:
		return Alignof(t.base)
	case KAggregate:
		return aggregateAlign(t.members)
	case KReference:
		r := t.referent
		switch r.ReferentKind() {
		case RefTypedef:
			return Alignof(r.(TypedefReferent).Underlying())
		case RefEnum:
			return Alignof(r.(EnumReferent).BackingType())
		case RefStruct, RefUnion:
			return aggregateAlign(r.(AggregateReferent).FieldTypes())
		default:
			return 0, fmt.Errorf("alignof: opaque type %q has no definition", t.referent.ReferentName())
		}
	default:
		panic("ICE: unhandled type kind in Alignof")
	}
}

func aggregateAlign(members []*Type) (uint64, error) {
	var max uint64 = 1
	for _, m := range members {
		a, err := Alignof(m)
		if err != nil {
			return 0, err
		}
		if a > max {
			max = a
		}
	}
	return max, nil
}

// structSize computes a struct's size: each field is padded forward to
// the alignment of the *next* field, and the whole struct is trailing-
// padded to its own alignment.
func structSize(fields []*Type) (uint64, error) {
	var offset uint64
	for i, f := range fields {
		falign, err := Alignof(f)
		if err != nil {
			return 0, err
		}
		offset = alignUp(offset, falign)
		fsize, err := Sizeof(f)
		if err != nil {
			return 0, err
		}
		offset += fsize
		if i+1 < len(fields) {
			nextAlign, err := Alignof(fields[i+1])
			if err != nil {
				return 0, err
			}
			offset = alignUp(offset, nextAlign)
		}
	}
	structAlign, err := aggregateAlign(fields)
	if err != nil {
		return 0, err
	}
	return alignUp(offset, structAlign), nil
}

func unionSize(fields []*Type) (uint64, error) {
	var max uint64
	for _, f := range fields {
		s, err := Sizeof(f)
		if err != nil {
			return 0, err
		}
		if s > max {
			max = s
		}
	}
	unionAlign, err := aggregateAlign(fields)
	if err != nil {
		return 0, err
	}
	return alignUp(max, unionAlign), nil
}

// aggregateSize lays out a synthetic aggregate (from an aggregate
// initializer) the same way a struct would be laid out.
func aggregateSize(members []*Type) (uint64, error) {
	return structSize(members)
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	rem := v % align
	if rem == 0 {
		return v
	}
	return v + (align - rem)
}

// Complete reports whether t has a definition sizeof/alignof can use —
// false only for an opaque (forward-declared, undefined) reference.
func Complete(t *Type) bool {
	if t.kind != KReference {
		return true
	}
	switch t.referent.ReferentKind() {
	case RefTypedef:
		return Complete(t.referent.(TypedefReferent).Underlying())
	case RefEnum, RefStruct, RefUnion:
		return true
	default:
		return false
	}
}

// AllocationHint classifies where a value of type t should live: in a
// general-purpose register, a floating-point register, or on the stack
// because it is address-taken or an aggregate.
type AllocationHint int

const (
	HintGP AllocationHint = iota
	HintFP
	HintMem
)

func (h AllocationHint) String() string {
	switch h {
	case HintGP:
		return "GP"
	case HintFP:
		return "FP"
	case HintMem:
		return "MEM"
	default:
		return "hint(?)"
	}
}

// Hint returns the natural allocation hint for t, ignoring any
// escape analysis the caller should apply on top (a variable whose
// address escapes always forces HintMem regardless of this result).
func Hint(t *Type) AllocationHint {
	switch t.kind {
	case KQualified:
		return Hint(t.base)
	case KKeyword:
		if isFloatKeyword(t.keyword) {
			return HintFP
		}
		return HintGP
	case KPointer, KFunPtr:
		return HintGP
	case KArray, KAggregate:
		return HintMem
	case KReference:
		switch t.referent.ReferentKind() {
		case RefStruct, RefUnion:
			return HintMem
		case RefEnum:
			return HintGP
		case RefTypedef:
			if r, ok := t.referent.(TypedefReferent); ok {
				return Hint(r.Underlying())
			}
			return HintGP
		default:
			return HintGP
		}
	default:
		panic("ICE: unhandled type kind in Hint")
	}
}
