package types

// cvAtLeastAsQualified reports whether to is at least as const/volatile
// qualified as from (Y must be >= X in qualification).
func cvAtLeastAsQualified(from, to *Type) bool {
	fc, fv := from.kind == KQualified && from.constQ, from.kind == KQualified && from.volatileQ
	tc, tv := to.kind == KQualified && to.constQ, to.kind == KQualified && to.volatileQ
	if fc && !tc {
		return false
	}
	if fv && !tv {
		return false
	}
	return true
}

// keywordImplicitlyPromotes reports whether values of keyword `from` may
// be implicitly converted to keyword `to`, per the promotion table.
func keywordImplicitlyPromotes(from, to Keyword) bool {
	if from == to {
		return true
	}
	switch {
	case isUnsignedKeyword(from):
		// unsigned -> any larger unsigned
		return isUnsignedKeyword(to) && keywordWidth(to) >= keywordWidth(from)
	case from == KwBool:
		return to == KwBool
	case from == KwChar:
		// char -> char only
		return to == KwChar
	case isSignedKeyword(from):
		// signed -> s16/s32/s64 of >= width
		return isSignedKeyword(to) && keywordWidth(to) >= keywordWidth(from)
	case isFloatKeyword(from):
		// float widens
		return isFloatKeyword(to) && keywordWidth(to) >= keywordWidth(from)
	default:
		return false
	}
}

// ImplicitConvertible reports whether a value of type from may be
// implicitly converted to type to.
func ImplicitConvertible(from, to *Type) bool {
	if !cvAtLeastAsQualified(from, to) {
		return false
	}
	fu, tu := from.Unqualified(), to.Unqualified()

	if sameType(fu, tu) {
		return true
	}

	if fu.kind == KKeyword && tu.kind == KKeyword {
		return keywordImplicitlyPromotes(fu.keyword, tu.keyword)
	}

	// void* widening: any object pointer converts to/from void*, pointee
	// CV-qualification must still be respected.
	if fu.kind == KPointer && tu.kind == KPointer {
		if tu.base.Unqualified().kind == KKeyword && tu.base.Unqualified().keyword == KwVoid {
			return cvAtLeastAsQualified(fu.base, tu.base)
		}
		if fu.base.Unqualified().kind == KKeyword && fu.base.Unqualified().keyword == KwVoid {
			return false
		}
		if sameType(fu.base.Unqualified(), tu.base.Unqualified()) {
			return cvAtLeastAsQualified(fu.base, tu.base)
		}
		return false
	}

	// array-to-pointer decay, with at-least-as-CV pointee
	if fu.kind == KArray && tu.kind == KPointer {
		if sameType(fu.base.Unqualified(), tu.base.Unqualified()) {
			return cvAtLeastAsQualified(fu.base, tu.base)
		}
		return false
	}

	// aggregate -> array when lengths match and elements convert
	if fu.kind == KAggregate && tu.kind == KArray {
		if uint64(len(fu.members)) != tu.length {
			return false
		}
		for _, m := range fu.members {
			if !ImplicitConvertible(m, tu.base) {
				return false
			}
		}
		return true
	}

	// aggregate -> struct when field count matches and elements convert
	if fu.kind == KAggregate && tu.kind == KReference && tu.referent.ReferentKind() == RefStruct {
		agg, ok := tu.referent.(AggregateReferent)
		if !ok {
			return false
		}
		fields := agg.FieldTypes()
		if len(fu.members) != len(fields) {
			return false
		}
		for i, m := range fu.members {
			if !ImplicitConvertible(m, fields[i]) {
				return false
			}
		}
		return true
	}

	return false
}

// sameType reports structural equality, ignoring qualifiers (callers
// compare unqualified types).
func sameType(a, b *Type) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KKeyword:
		return a.keyword == b.keyword
	case KPointer:
		return sameType(a.base.Unqualified(), b.base.Unqualified()) && cvEqual(a.base, b.base)
	case KArray:
		return a.length == b.length && sameType(a.base.Unqualified(), b.base.Unqualified())
	case KFunPtr:
		if len(a.args) != len(b.args) {
			return false
		}
		for i := range a.args {
			if !sameType(a.args[i].Unqualified(), b.args[i].Unqualified()) {
				return false
			}
		}
		if (a.ret == nil) != (b.ret == nil) {
			return false
		}
		if a.ret != nil && !sameType(a.ret.Unqualified(), b.ret.Unqualified()) {
			return false
		}
		return true
	case KAggregate:
		if len(a.members) != len(b.members) {
			return false
		}
		for i := range a.members {
			if !sameType(a.members[i].Unqualified(), b.members[i].Unqualified()) {
				return false
			}
		}
		return true
	case KReference:
		return a.referent == b.referent
	default:
		return false
	}
}

func cvEqual(a, b *Type) bool {
	ac, av := a.kind == KQualified && a.constQ, a.kind == KQualified && a.volatileQ
	bc, bv := b.kind == KQualified && b.constQ, b.kind == KQualified && b.volatileQ
	return ac == bc && av == bv
}

// ExplicitConvertible reports whether a cast from `from` to `to` is
// permitted: implicit conversions, plus numeric<->numeric,
// numeric<->character, integral<->pointer, bool<->numeric, enum<->numeric,
// with typedefs unwrapped on either side.
func ExplicitConvertible(from, to *Type, resolveTypedef func(Referent) *Type) bool {
	if ImplicitConvertible(from, to) {
		return true
	}
	fu := unwrapTypedef(from.Unqualified(), resolveTypedef)
	tu := unwrapTypedef(to.Unqualified(), resolveTypedef)

	fScalar := scalarClass(fu)
	tScalar := scalarClass(tu)
	if fScalar == scalarNone || tScalar == scalarNone {
		return false
	}
	fIntegral := fScalar == scalarNumeric && scalarIsIntegral(fu)
	tIntegral := tScalar == scalarNumeric && scalarIsIntegral(tu)
	switch {
	case fScalar == scalarNumeric && tScalar == scalarNumeric:
		return true
	case fScalar == scalarNumeric && tScalar == scalarChar:
		return true
	case fScalar == scalarChar && tScalar == scalarNumeric:
		return true
	case fIntegral && tScalar == scalarPointer:
		return true
	case fScalar == scalarPointer && tIntegral:
		return true
	case fScalar == scalarBool && tScalar == scalarNumeric:
		return true
	case fScalar == scalarNumeric && tScalar == scalarBool:
		return true
	case fScalar == scalarEnum && tScalar == scalarNumeric:
		return true
	case fScalar == scalarNumeric && tScalar == scalarEnum:
		return true
	default:
		return false
	}
}

type scalarKind int

const (
	scalarNone scalarKind = iota
	scalarNumeric
	scalarChar
	scalarBool
	scalarPointer
	scalarEnum
)

func scalarClass(t *Type) scalarKind {
	switch t.kind {
	case KKeyword:
		switch {
		case t.keyword == KwChar:
			return scalarChar
		case t.keyword == KwBool:
			return scalarBool
		case isIntegerKeyword(t.keyword) || isFloatKeyword(t.keyword):
			return scalarNumeric
		default:
			return scalarNone
		}
	case KPointer:
		return scalarPointer
	case KReference:
		if t.referent.ReferentKind() == RefEnum {
			return scalarEnum
		}
		return scalarNone
	default:
		return scalarNone
	}
}

func scalarIsIntegral(t *Type) bool {
	if t.kind != KKeyword {
		return false
	}
	return isIntegerKeyword(t.keyword)
}
