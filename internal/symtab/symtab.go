// Package symtab implements the compiler's symbol table: one Entry per
// declared name, kinded over variable/function/opaque/struct/union/enum/
// enum-constant/typedef. Entry implements types.Referent (and the
// narrower AggregateReferent/EnumReferent/TypedefReferent interfaces) so
// internal/types can size and classify struct, union, enum and typedef
// references without importing symtab back.
package symtab

import (
	"fmt"

	"github.com/tcompiler-project/backend/internal/types"
)

// Kind tags what an Entry names.
type Kind int

const (
	KindVariable Kind = iota
	KindFunction
	KindOpaque
	KindStruct
	KindUnion
	KindEnum
	KindEnumConstant
	KindTypedef
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindFunction:
		return "function"
	case KindOpaque:
		return "opaque"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindEnumConstant:
		return "enum-constant"
	case KindTypedef:
		return "typedef"
	default:
		return "kind(?)"
	}
}

// Entry is one symbol table row. Only the fields relevant to Kind are
// meaningful; use the New* constructors rather than building an Entry
// by hand.
type Entry struct {
	name string
	kind Kind

	// KindVariable
	varType *types.Type
	escapes bool
	tempID  int
	hasTemp bool

	// KindFunction
	retType  *types.Type
	argTypes []*types.Type

	// KindStruct, KindUnion
	fieldTypes []*types.Type
	fieldNames []string

	// KindEnum
	constants   []string
	backingType *types.Type

	// KindEnumConstant
	ownerEnum *Entry
	value     int64

	// KindTypedef
	underlying *types.Type
}

// Name returns the symbol's declared name.
func (e *Entry) Name() string { return e.name }

// Kind returns the symbol's kind.
func (e *Entry) Kind() Kind { return e.kind }

// ReferentKind implements types.Referent.
func (e *Entry) ReferentKind() types.ReferentKind {
	switch e.kind {
	case KindStruct:
		return types.RefStruct
	case KindUnion:
		return types.RefUnion
	case KindEnum:
		return types.RefEnum
	case KindTypedef:
		return types.RefTypedef
	case KindOpaque:
		return types.RefOpaque
	default:
		panic(fmt.Sprintf("ICE: %s is not a type-like symbol", e.kind))
	}
}

// ReferentName implements types.Referent.
func (e *Entry) ReferentName() string { return e.name }

// NewVariable declares a variable of the given type. escapes marks
// whether its address is taken anywhere in the function (forcing a
// HintMem allocation regardless of types.Hint); tempID/hasTemp record
// the IR temp assigned to it once translation runs.
func NewVariable(name string, t *types.Type) *Entry {
	return &Entry{name: name, kind: KindVariable, varType: t}
}

func (e *Entry) Type() *types.Type {
	if e.kind != KindVariable {
		panic("ICE: Type() called on a non-variable symbol")
	}
	return e.varType
}

func (e *Entry) SetEscapes(escapes bool) {
	if e.kind != KindVariable {
		panic("ICE: SetEscapes() called on a non-variable symbol")
	}
	e.escapes = escapes
}

func (e *Entry) Escapes() bool { return e.kind == KindVariable && e.escapes }

func (e *Entry) SetTemp(id int) {
	if e.kind != KindVariable {
		panic("ICE: SetTemp() called on a non-variable symbol")
	}
	e.tempID = id
	e.hasTemp = true
}

func (e *Entry) Temp() (int, bool) {
	if e.kind != KindVariable {
		return 0, false
	}
	return e.tempID, e.hasTemp
}

// NewFunction declares a function symbol with its return type (nil for
// void) and argument types in declaration order.
func NewFunction(name string, ret *types.Type, args []*types.Type) *Entry {
	return &Entry{name: name, kind: KindFunction, retType: ret, argTypes: args}
}

func (e *Entry) ReturnType() *types.Type {
	if e.kind != KindFunction {
		panic("ICE: ReturnType() called on a non-function symbol")
	}
	return e.retType
}

func (e *Entry) ArgTypes() []*types.Type {
	if e.kind != KindFunction {
		panic("ICE: ArgTypes() called on a non-function symbol")
	}
	return e.argTypes
}

// NewOpaque declares a forward-referenced struct/union/enum with no
// definition yet. Complete() in internal/types reports false for it.
func NewOpaque(name string) *Entry {
	return &Entry{name: name, kind: KindOpaque}
}

// NewStruct declares a struct with parallel field type/name vectors,
// ordered as declared.
func NewStruct(name string, fieldTypes []*types.Type, fieldNames []string) *Entry {
	if len(fieldTypes) != len(fieldNames) {
		panic("ICE: struct field type/name vectors must be parallel")
	}
	return &Entry{name: name, kind: KindStruct, fieldTypes: fieldTypes, fieldNames: fieldNames}
}

// NewUnion declares a union with parallel field type/name vectors.
func NewUnion(name string, fieldTypes []*types.Type, fieldNames []string) *Entry {
	if len(fieldTypes) != len(fieldNames) {
		panic("ICE: union field type/name vectors must be parallel")
	}
	return &Entry{name: name, kind: KindUnion, fieldTypes: fieldTypes, fieldNames: fieldNames}
}

// FieldTypes implements types.AggregateReferent for KindStruct/KindUnion.
func (e *Entry) FieldTypes() []*types.Type {
	if e.kind != KindStruct && e.kind != KindUnion {
		panic("ICE: FieldTypes() called on a non-aggregate symbol")
	}
	return e.fieldTypes
}

// FieldNames returns the declared field names, parallel to FieldTypes.
func (e *Entry) FieldNames() []string {
	if e.kind != KindStruct && e.kind != KindUnion {
		panic("ICE: FieldNames() called on a non-aggregate symbol")
	}
	return e.fieldNames
}

// FieldIndex returns the index of a named field, or -1 if absent.
func (e *Entry) FieldIndex(name string) int {
	for i, n := range e.FieldNames() {
		if n == name {
			return i
		}
	}
	return -1
}

// NewEnum declares an enum with its constant names (in declaration
// order) and backing integer keyword type.
func NewEnum(name string, constants []string, backing *types.Type) *Entry {
	return &Entry{name: name, kind: KindEnum, constants: constants, backingType: backing}
}

// BackingType implements types.EnumReferent.
func (e *Entry) BackingType() *types.Type {
	if e.kind != KindEnum {
		panic("ICE: BackingType() called on a non-enum symbol")
	}
	return e.backingType
}

// Constants returns the enum's constant names in declaration order.
func (e *Entry) Constants() []string {
	if e.kind != KindEnum {
		panic("ICE: Constants() called on a non-enum symbol")
	}
	return e.constants
}

// NewEnumConstant declares one named constant belonging to owner, with
// its assigned integer value.
func NewEnumConstant(name string, owner *Entry, value int64) *Entry {
	if owner.kind != KindEnum {
		panic("ICE: enum constant owner must be an enum symbol")
	}
	return &Entry{name: name, kind: KindEnumConstant, ownerEnum: owner, value: value}
}

func (e *Entry) OwnerEnum() *Entry {
	if e.kind != KindEnumConstant {
		panic("ICE: OwnerEnum() called on a non-enum-constant symbol")
	}
	return e.ownerEnum
}

func (e *Entry) Value() int64 {
	if e.kind != KindEnumConstant {
		panic("ICE: Value() called on a non-enum-constant symbol")
	}
	return e.value
}

// NewTypedef declares a typedef aliasing underlying.
func NewTypedef(name string, underlying *types.Type) *Entry {
	return &Entry{name: name, kind: KindTypedef, underlying: underlying}
}

// Underlying implements types.TypedefReferent.
func (e *Entry) Underlying() *types.Type {
	if e.kind != KindTypedef {
		panic("ICE: Underlying() called on a non-typedef symbol")
	}
	return e.underlying
}

var (
	_ types.Referent          = (*Entry)(nil)
	_ types.AggregateReferent = (*Entry)(nil)
	_ types.EnumReferent      = (*Entry)(nil)
	_ types.TypedefReferent   = (*Entry)(nil)
)
