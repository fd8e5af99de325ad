// Package abi implements the System V x86_64 argument/return
// classification: every argument and return type is classified into
// INTEGER/SSE/MEMORY eightbytes and assigned registers or stack slots
// accordingly.
package abi

import (
	"github.com/samber/lo"

	"github.com/tcompiler-project/backend/internal/types"
)

// Class is the System V eightbyte class (AMD64 ABI §3.2.3).
type Class int

const (
	ClassInteger Class = iota
	ClassSSE
	ClassMemory
)

func (c Class) String() string {
	switch c {
	case ClassInteger:
		return "INTEGER"
	case ClassSSE:
		return "SSE"
	case ClassMemory:
		return "MEMORY"
	default:
		return "class(?)"
	}
}

// maxIntRegs/maxSSERegs are the number of argument-passing registers
// of each bank available before the caller must spill to the stack
// (rdi,rsi,rdx,rcx,r8,r9 / xmm0-xmm7).
const (
	maxIntArgRegs = 6
	maxSSEArgRegs = 8
)

// Eightbyte is one classified 8-byte chunk of an argument or return
// value.
type Eightbyte struct {
	Class  Class
	Offset uint64 // offset within the aggregate, multiple of 8
}

// Classify splits t into eightbytes per the System V algorithm: scalar
// INTEGER/pointer types are one INTEGER eightbyte; scalar float/double
// are one SSE eightbyte; a struct/union/array larger than two
// eightbytes (16 bytes) or containing any unaligned field is classified
// MEMORY outright; otherwise each 8-byte chunk is INTEGER unless every
// field overlapping it is SSE, in which case the chunk is SSE.
func Classify(t *types.Type) ([]Eightbyte, error) {
	size, err := types.Sizeof(t)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	if size > 16 {
		return memoryEightbytes(size), nil
	}
	hint := types.Hint(t)
	switch hint {
	case types.HintGP:
		return []Eightbyte{{Class: ClassInteger, Offset: 0}}, nil
	case types.HintFP:
		return []Eightbyte{{Class: ClassSSE, Offset: 0}}, nil
	case types.HintMem:
		fields, offsets, err := flattenFields(t, 0)
		if err != nil {
			return nil, err
		}
		align, err := types.Alignof(t)
		if err != nil {
			return nil, err
		}
		if align > 16 {
			return memoryEightbytes(size), nil
		}
		n := (size + 7) / 8
		classes := make([]Class, n)
		for i := range classes {
			classes[i] = ClassSSE // merges to INTEGER below if any overlapping field is INTEGER
		}
		for i, f := range fields {
			fHint := types.Hint(f)
			fOffset := offsets[i]
			fSize, err := types.Sizeof(f)
			if err != nil {
				return nil, err
			}
			eb := fOffset / 8
			eb2 := (fOffset + fSize - 1) / 8
			fClass := ClassSSE
			if fHint != types.HintFP {
				fClass = ClassInteger
			}
			for j := eb; j <= eb2 && j < n; j++ {
				if fClass == ClassInteger {
					classes[j] = ClassInteger
				}
			}
		}
		out := make([]Eightbyte, n)
		for i, c := range classes {
			out[i] = Eightbyte{Class: c, Offset: uint64(i) * 8}
		}
		return out, nil
	default:
		return memoryEightbytes(size), nil
	}
}

func memoryEightbytes(size uint64) []Eightbyte {
	n := (size + 7) / 8
	out := make([]Eightbyte, n)
	for i := range out {
		out[i] = Eightbyte{Class: ClassMemory, Offset: uint64(i) * 8}
	}
	return out
}

// flattenFields walks a struct/union reference's fields (non-recursively
// into nested aggregates beyond one level is not needed for eightbyte
// classification, since only the overlapping offset range matters) and
// returns each field's type alongside its byte offset within t.
func flattenFields(t *types.Type, base uint64) ([]*types.Type, []uint64, error) {
	u := t.Unqualified()
	if u.Kind() != types.KReference {
		return []*types.Type{u}, []uint64{base}, nil
	}
	agg, ok := u.Referent().(types.AggregateReferent)
	if !ok {
		return []*types.Type{u}, []uint64{base}, nil
	}
	var ftypes []*types.Type
	var foffsets []uint64
	var offset uint64
	fields := agg.FieldTypes()
	for i, f := range fields {
		falign, err := types.Alignof(f)
		if err != nil {
			return nil, nil, err
		}
		offset = alignUp(offset, falign)
		ftypes = append(ftypes, f)
		foffsets = append(foffsets, base+offset)
		fsize, err := types.Sizeof(f)
		if err != nil {
			return nil, nil, err
		}
		if u.Referent().ReferentKind() != types.RefUnion {
			offset += fsize
			if i+1 < len(fields) {
				nextAlign, err := types.Alignof(fields[i+1])
				if err != nil {
					return nil, nil, err
				}
				offset = alignUp(offset, nextAlign)
			}
		}
	}
	return ftypes, foffsets, nil
}

func alignUp(v, align uint64) uint64 {
	if align == 0 || v%align == 0 {
		return v
	}
	return v + (align - v%align)
}

// ArgPlacement says where one function argument lands: in one or two
// registers of the given class, or on the stack. An argument with a
// MEMORY eightbyte or larger than 16 bytes goes by reference: a hidden
// pointer in the next INTEGER register, or in a stack slot once those
// run out. Any other argument whose eightbytes do not all fit the
// remaining registers goes on the stack by value.
type ArgPlacement struct {
	ByReference bool
	IntRegs     []int   // indices into the INTEGER arg-register order
	SSERegs     []int   // indices into the SSE arg-register order
	Classes     []Class // class per eightbyte, in offset order, for register-passed aggregates
	StackOffset int64   // valid when neither register list is used; 16, 24, ...
	Size        uint64
}

// PlaceArgs assigns registers and stack offsets to a function's
// argument types in order, per System V: each argument's eightbytes
// consume INTEGER/SSE registers while any remain in that bank, and fall
// back to the stack (by reference for MEMORY-classified aggregates,
// lowered to "pointer passed in an INTEGER register/stack slot") the
// moment a bank is exhausted for that argument's full set of eightbytes.
// Overflow arguments are pushed by the caller in reverse order, landing
// at 16(%rbp), 24(%rbp), ... in the callee's frame.
func PlaceArgs(argTypes []*types.Type) ([]ArgPlacement, error) {
	intUsed, sseUsed := 0, 0
	var stackOffset int64 = 16
	out := make([]ArgPlacement, 0, len(argTypes))
	for _, t := range argTypes {
		size, err := types.Sizeof(t)
		if err != nil {
			return nil, err
		}
		ebs, err := Classify(t)
		if err != nil {
			return nil, err
		}
		memory := lo.SomeBy(ebs, func(e Eightbyte) bool { return e.Class == ClassMemory })
		if memory || size > 16 {
			// Passed by reference: one hidden pointer argument.
			if intUsed < maxIntArgRegs {
				out = append(out, ArgPlacement{IntRegs: []int{intUsed}, Size: size, ByReference: true})
				intUsed++
			} else {
				out = append(out, ArgPlacement{StackOffset: stackOffset, Size: size, ByReference: true})
				stackOffset += 8
			}
			continue
		}
		needInt := lo.CountBy(ebs, func(e Eightbyte) bool { return e.Class == ClassInteger })
		needSSE := lo.CountBy(ebs, func(e Eightbyte) bool { return e.Class == ClassSSE })
		if intUsed+needInt <= maxIntArgRegs && sseUsed+needSSE <= maxSSEArgRegs {
			var ints, sses []int
			classes := make([]Class, 0, len(ebs))
			for _, e := range ebs {
				classes = append(classes, e.Class)
				if e.Class == ClassInteger {
					ints = append(ints, intUsed)
					intUsed++
				} else {
					sses = append(sses, sseUsed)
					sseUsed++
				}
			}
			out = append(out, ArgPlacement{IntRegs: ints, SSERegs: sses, Classes: classes, Size: size})
			continue
		}
		slots := (size + 7) / 8
		out = append(out, ArgPlacement{StackOffset: stackOffset, Size: size})
		stackOffset += int64(slots) * 8
	}
	return out, nil
}

// ReturnPlacement says how a function's return value is routed: small
// values in rax/xmm0 (and rdx/xmm1 for a second eightbyte), larger
// values through a caller-supplied hidden pointer (passed as an
// implicit first INTEGER argument, returned again in rax by
// convention).
type ReturnPlacement struct {
	ByHiddenPointer bool
	Eightbytes      []Eightbyte
	Size            uint64
}

// PlaceReturn classifies a function's return type. A nil ret means void.
func PlaceReturn(ret *types.Type) (ReturnPlacement, error) {
	if ret == nil {
		return ReturnPlacement{}, nil
	}
	size, err := types.Sizeof(ret)
	if err != nil {
		return ReturnPlacement{}, err
	}
	ebs, err := Classify(ret)
	if err != nil {
		return ReturnPlacement{}, err
	}
	if size > 16 || lo.SomeBy(ebs, func(e Eightbyte) bool { return e.Class == ClassMemory }) {
		return ReturnPlacement{ByHiddenPointer: true, Size: size}, nil
	}
	return ReturnPlacement{Eightbytes: ebs, Size: size}, nil
}
