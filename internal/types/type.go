package types

import "fmt"

// Kind tags the variant a Type value holds.
type Kind int

const (
	KKeyword Kind = iota
	KQualified
	KPointer
	KArray
	KFunPtr
	KAggregate
	KReference
)

func (k Kind) String() string {
	switch k {
	case KKeyword:
		return "keyword"
	case KQualified:
		return "qualified"
	case KPointer:
		return "pointer"
	case KArray:
		return "array"
	case KFunPtr:
		return "funptr"
	case KAggregate:
		return "aggregate"
	case KReference:
		return "reference"
	default:
		return "kind(?)"
	}
}

// ReferentKind is the subset of symbol-table entry kinds a Reference type
// may legally point at.
type ReferentKind int

const (
	RefStruct ReferentKind = iota
	RefUnion
	RefEnum
	RefTypedef
	RefOpaque
)

func (k ReferentKind) String() string {
	switch k {
	case RefStruct:
		return "struct"
	case RefUnion:
		return "union"
	case RefEnum:
		return "enum"
	case RefTypedef:
		return "typedef"
	case RefOpaque:
		return "opaque"
	default:
		return "referent(?)"
	}
}

// Referent is the minimal view of a symbol-table entry the type model
// needs. internal/symtab.Entry implements this; types never imports
// symtab directly so the two packages don't form a cycle.
type Referent interface {
	ReferentKind() ReferentKind
	ReferentName() string
}

// Type is a tagged variant over the compiler's type grammar.
//
// Only the fields relevant to Kind are meaningful; constructors below
// are the only supported way to build a Type so that invariants
// (qualified wraps an unqualified base, aggregate is synthetic, reference
// targets a type-like entry) always hold.
type Type struct {
	kind Kind

	keyword Keyword // KKeyword

	constQ    bool  // KQualified
	volatileQ bool  // KQualified
	base      *Type // KQualified, KPointer, KArray

	length uint64 // KArray

	ret  *Type   // KFunPtr
	args []*Type // KFunPtr

	members []*Type // KAggregate (synthetic; member types in order)

	referent Referent // KReference
}

func (t *Type) Kind() Kind { return t.kind }

// Keyword returns the keyword tag. Valid only when Kind() == KKeyword.
func (t *Type) Keyword() Keyword { return t.keyword }

// Const reports whether a KQualified type carries const.
func (t *Type) Const() bool { return t.constQ }

// Volatile reports whether a KQualified type carries volatile.
func (t *Type) Volatile() bool { return t.volatileQ }

// Base returns the wrapped/pointee/element type for KQualified, KPointer
// and KArray.
func (t *Type) Base() *Type { return t.base }

// Length returns the element count of a KArray type.
func (t *Type) Length() uint64 { return t.length }

// Return returns the return type of a KFunPtr type.
func (t *Type) Return() *Type { return t.ret }

// Args returns the parameter types of a KFunPtr type.
func (t *Type) Args() []*Type { return t.args }

// Members returns the synthetic member types of a KAggregate type.
func (t *Type) Members() []*Type { return t.members }

// Referent returns the symbol-table entry a KReference type names.
func (t *Type) Referent() Referent { return t.referent }

// NewKeyword builds a keyword type.
func NewKeyword(kw Keyword) *Type {
	return &Type{kind: KKeyword, keyword: kw}
}

// NewQualified wraps base in a const/volatile qualifier. base must not
// itself be KQualified — qualifiers never nest.
func NewQualified(constQ, volatileQ bool, base *Type) *Type {
	if base == nil {
		panic("ICE: qualified type with nil base")
	}
	if base.kind == KQualified {
		panic("ICE: nested qualified type")
	}
	if !constQ && !volatileQ {
		return base
	}
	return &Type{kind: KQualified, constQ: constQ, volatileQ: volatileQ, base: base}
}

// NewPointer builds a pointer-to-base type.
func NewPointer(base *Type) *Type {
	if base == nil {
		panic("ICE: pointer type with nil base")
	}
	return &Type{kind: KPointer, base: base}
}

// NewArray builds a length-element array of base.
func NewArray(length uint64, base *Type) *Type {
	if base == nil {
		panic("ICE: array type with nil base")
	}
	return &Type{kind: KArray, length: length, base: base}
}

// NewFunPtr builds a function-pointer type.
func NewFunPtr(ret *Type, args []*Type) *Type {
	return &Type{kind: KFunPtr, ret: ret, args: args}
}

// NewAggregate builds a synthetic aggregate type. Aggregates are only
// ever produced by aggregate-initializer literals, never declared
// directly — callers outside internal/translate should
// not normally construct one.
func NewAggregate(members []*Type) *Type {
	return &Type{kind: KAggregate, members: members}
}

// NewReference builds a reference to a struct/union/enum/typedef/opaque
// symbol-table entry.
func NewReference(entry Referent) *Type {
	if entry == nil {
		panic("ICE: reference type with nil entry")
	}
	switch entry.ReferentKind() {
	case RefStruct, RefUnion, RefEnum, RefTypedef, RefOpaque:
	default:
		panic(fmt.Sprintf("ICE: reference type target %q is not struct/union/enum/typedef/opaque", entry.ReferentName()))
	}
	return &Type{kind: KReference, referent: entry}
}

// Unqualified strips a single layer of KQualified, if present.
func (t *Type) Unqualified() *Type {
	if t.kind == KQualified {
		return t.base
	}
	return t
}

// unwrapTypedef follows KReference(typedef) chains to the underlying type.
// Returns t unchanged if it is not a typedef reference, or if the
// referent does not expose an underlying type (resolve is nil, e.g. an
// opaque type with no definition yet).
func unwrapTypedef(t *Type, resolve func(Referent) *Type) *Type {
	for t != nil && t.kind == KReference && t.referent.ReferentKind() == RefTypedef && resolve != nil {
		next := resolve(t.referent)
		if next == nil || next == t {
			break
		}
		t = next
	}
	return t
}

func (t *Type) String() string {
	switch t.kind {
	case KKeyword:
		return t.keyword.String()
	case KQualified:
		s := ""
		if t.constQ {
			s += "const "
		}
		if t.volatileQ {
			s += "volatile "
		}
		return s + t.base.String()
	case KPointer:
		return t.base.String() + "*"
	case KArray:
		return fmt.Sprintf("%s[%d]", t.base.String(), t.length)
	case KFunPtr:
		s := "("
		for i, a := range t.args {
			if i > 0 {
				s += ", "
			}
			s += a.String()
		}
		s += ") -> "
		if t.ret != nil {
			s += t.ret.String()
		} else {
			s += "void"
		}
		return s
	case KAggregate:
		return "{aggregate}"
	case KReference:
		return t.referent.ReferentName()
	default:
		return "<?>"
	}
}
