package ir

import "fmt"

// === Datums ===

// DatumKind tags the variant a Datum holds.
type DatumKind int

const (
	DByte DatumKind = iota
	DShort
	DInt
	DLong
	DPadding
	DString
	DWString
	DLocal
	DGlobal
)

func (k DatumKind) String() string {
	switch k {
	case DByte:
		return "byte"
	case DShort:
		return "short"
	case DInt:
		return "int"
	case DLong:
		return "long"
	case DPadding:
		return "padding"
	case DString:
		return "string"
	case DWString:
		return "wstring"
	case DLocal:
		return "local"
	case DGlobal:
		return "global"
	default:
		return "datum(?)"
	}
}

// Datum is the payload unit of a Constant operand and of Bss/RoData/Data
// fragments.
type Datum struct {
	kind DatumKind

	u8  uint8  // DByte
	u16 uint16 // DShort
	u32 uint32 // DInt
	u64 uint64 // DLong

	padding uint64 // DPadding, bytes

	bytes []byte   // DString, nul-terminated
	runes []uint32 // DWString, nul-terminated

	localID int    // DLocal
	global  string // DGlobal
}

func (d Datum) Kind() DatumKind { return d.kind }

func NewByte(v uint8) Datum   { return Datum{kind: DByte, u8: v} }
func NewShort(v uint16) Datum { return Datum{kind: DShort, u16: v} }
func NewInt(v uint32) Datum   { return Datum{kind: DInt, u32: v} }
func NewLong(v uint64) Datum  { return Datum{kind: DLong, u64: v} }

// NewPadding reserves n zero bytes.
func NewPadding(n uint64) Datum { return Datum{kind: DPadding, padding: n} }

// NewString stores s with an implicit trailing NUL, one byte per
// character. Callers should not include the NUL in s.
func NewString(s string) Datum {
	b := append([]byte(s), 0)
	return Datum{kind: DString, bytes: b}
}

// NewWString stores s as nul-terminated UTF-32 code points.
func NewWString(runes []rune) Datum {
	out := make([]uint32, len(runes)+1)
	for i, r := range runes {
		out[i] = uint32(r)
	}
	return Datum{kind: DWString, runes: out}
}

// NewLocal references a block label (or rodata fragment) within the
// same text/rodata fragment by numeric id, e.g. a jumptable entry.
func NewLocal(id int) Datum { return Datum{kind: DLocal, localID: id} }

// NewGlobal references a mangled global symbol name.
func NewGlobal(name string) Datum { return Datum{kind: DGlobal, global: name} }

func (d Datum) Byte() uint8 {
	if d.kind != DByte {
		panic("ICE: Byte() on a non-DByte datum")
	}
	return d.u8
}

func (d Datum) Short() uint16 {
	if d.kind != DShort {
		panic("ICE: Short() on a non-DShort datum")
	}
	return d.u16
}

func (d Datum) Int() uint32 {
	if d.kind != DInt {
		panic("ICE: Int() on a non-DInt datum")
	}
	return d.u32
}

func (d Datum) Long() uint64 {
	if d.kind != DLong {
		panic("ICE: Long() on a non-DLong datum")
	}
	return d.u64
}

func (d Datum) PaddingBytes() uint64 {
	if d.kind != DPadding {
		panic("ICE: PaddingBytes() on a non-DPadding datum")
	}
	return d.padding
}

func (d Datum) StringBytes() []byte {
	if d.kind != DString {
		panic("ICE: StringBytes() on a non-DString datum")
	}
	return d.bytes
}

func (d Datum) WStringRunes() []uint32 {
	if d.kind != DWString {
		panic("ICE: WStringRunes() on a non-DWString datum")
	}
	return d.runes
}

func (d Datum) LocalID() int {
	if d.kind != DLocal {
		panic("ICE: LocalID() on a non-DLocal datum")
	}
	return d.localID
}

func (d Datum) GlobalName() string {
	if d.kind != DGlobal {
		panic("ICE: GlobalName() on a non-DGlobal datum")
	}
	return d.global
}

// Sizeof returns a datum's size in bytes, used when laying out bss/data
// fragments and when computing a Constant operand's total width.
func (d Datum) Sizeof() uint64 {
	switch d.kind {
	case DByte:
		return 1
	case DShort:
		return 2
	case DInt:
		return 4
	case DLong:
		return 8
	case DPadding:
		return d.padding
	case DString:
		return uint64(len(d.bytes))
	case DWString:
		return uint64(len(d.runes)) * 4
	case DLocal, DGlobal:
		return 8
	default:
		panic("ICE: unhandled datum kind in Sizeof")
	}
}

func (d Datum) String() string {
	switch d.kind {
	case DByte:
		return fmt.Sprintf("byte(%d)", d.u8)
	case DShort:
		return fmt.Sprintf("short(%d)", d.u16)
	case DInt:
		return fmt.Sprintf("int(%d)", d.u32)
	case DLong:
		return fmt.Sprintf("long(%d)", d.u64)
	case DPadding:
		return fmt.Sprintf("padding(%d)", d.padding)
	case DString:
		return fmt.Sprintf("string(%q)", d.bytes)
	case DWString:
		return fmt.Sprintf("wstring(%d runes)", len(d.runes))
	case DLocal:
		return fmt.Sprintf("local(%d)", d.localID)
	case DGlobal:
		return fmt.Sprintf("global(%s)", d.global)
	default:
		return "<?>"
	}
}
