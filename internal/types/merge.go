package types

import "fmt"

// ArithmeticMerge implements the keyword-type promotion table:
// double absorbs anything, float absorbs anything integer, otherwise a
// signed/unsigned x width matrix picks the smallest type that
// represents both operands. char and bool never merge arithmetically.
// The only hard failure in the integer matrix is u64 paired with any
// signed type, which has no safe common representation.
func ArithmeticMerge(a, b *Type) (*Type, error) {
	if a.kind != KKeyword || b.kind != KKeyword {
		return nil, fmt.Errorf("arithmetic merge: operands must be keyword types, got %s and %s", a, b)
	}
	ka, kb := a.keyword, b.keyword
	merged, err := arithmeticMergeKeyword(ka, kb)
	if err != nil {
		return nil, err
	}
	return NewKeyword(merged), nil
}

func arithmeticMergeKeyword(a, b Keyword) (Keyword, error) {
	if a == KwChar || b == KwChar {
		return 0, fmt.Errorf("incompatible: char does not merge arithmetically")
	}
	if a == KwBool || b == KwBool {
		return 0, fmt.Errorf("incompatible: bool does not merge arithmetically")
	}
	if a == KwVoid || b == KwVoid {
		return 0, fmt.Errorf("incompatible: void does not merge arithmetically")
	}
	if a == KwF64 || b == KwF64 {
		return KwF64, nil
	}
	if a == KwF32 || b == KwF32 {
		return KwF32, nil
	}
	// both integers
	if a == b {
		return a, nil
	}
	au, bu := isUnsignedKeyword(a), isUnsignedKeyword(b)
	if au == bu {
		// same signedness: widest wins; equal widths (u32 and wchar)
		// settle on the lower keyword so the merge stays commutative
		if keywordWidth(a) > keywordWidth(b) || (keywordWidth(a) == keywordWidth(b) && a < b) {
			return a, nil
		}
		return b, nil
	}
	var unsigned, signed Keyword
	if au {
		unsigned, signed = a, b
	} else {
		unsigned, signed = b, a
	}
	if unsigned == KwU64 {
		return 0, fmt.Errorf("incompatible: u64 has no safe merge with a signed type")
	}
	uw, sw := keywordWidth(unsigned), keywordWidth(signed)
	if sw > uw {
		return signed, nil
	}
	// signed type is not wide enough to cover the unsigned range: widen.
	widerWidth, ok := nextWiderWidth(uw)
	if !ok {
		return 0, fmt.Errorf("incompatible: no signed type wide enough to merge with %s", unsigned)
	}
	widerSigned, ok := signedAtWidth(widerWidth)
	if !ok {
		return 0, fmt.Errorf("incompatible: no signed type at width %d", widerWidth)
	}
	return widerSigned, nil
}

// ComparisonMerge computes the common type two operands of a relational
// or equality comparison must be converted to. Arithmetic operands use
// ArithmeticMerge; pointer operands merge the way ImplicitConvertible
// allows (one widens to the other, preferring void* on either side).
func ComparisonMerge(a, b *Type) (*Type, error) {
	au, bu := a.Unqualified(), b.Unqualified()
	if au.kind == KKeyword && bu.kind == KKeyword {
		return ArithmeticMerge(au, bu)
	}
	if au.kind == KPointer && bu.kind == KPointer {
		return mergePointers(au, bu)
	}
	return nil, fmt.Errorf("incompatible: cannot merge %s and %s for comparison", a, b)
}

// TernaryMerge computes the common type of the two branches of a `?:`
// expression: identical types merge trivially, arithmetic operands use
// ArithmeticMerge, and pointer operands merge the way ComparisonMerge
// does.
func TernaryMerge(a, b *Type) (*Type, error) {
	au, bu := a.Unqualified(), b.Unqualified()
	if sameType(au, bu) {
		return au, nil
	}
	if au.kind == KKeyword && bu.kind == KKeyword {
		return ArithmeticMerge(au, bu)
	}
	if au.kind == KPointer && bu.kind == KPointer {
		return mergePointers(au, bu)
	}
	return nil, fmt.Errorf("incompatible: cannot merge %s and %s", a, b)
}

func mergePointers(a, b *Type) (*Type, error) {
	if ImplicitConvertible(a, b) {
		return b, nil
	}
	if ImplicitConvertible(b, a) {
		return a, nil
	}
	return nil, fmt.Errorf("incompatible pointer types: %s and %s", a, b)
}
