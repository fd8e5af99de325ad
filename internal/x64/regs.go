// Package x64 implements the x86_64 back end: instruction selection
// from linearized IR to an abstract assembly form, 3→2 operand arity
// reduction, graph-coloring register allocation with spilling, and
// NASM-style textual emission.
package x64

// Reg is a physical register id. GP registers are numbered per the
// System V / NASM convention (rax=0 ... r15=15); XMM registers reuse
// the same numeric range (xmm0=0 ... xmm15=15) distinguished by the FP
// flag wherever a register id appears without its own bank marker.
type Reg int

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// gpNames8/4/2/1 give the NASM register name for each GP register at a
// given operand width.
var gpNames8 = [16]string{"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi", "r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}
var gpNames4 = [16]string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi", "r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d"}
var gpNames2 = [16]string{"ax", "cx", "dx", "bx", "sp", "bp", "si", "di", "r8w", "r9w", "r10w", "r11w", "r12w", "r13w", "r14w", "r15w"}
var gpNames1 = [16]string{"al", "cl", "dl", "bl", "spl", "bpl", "sil", "dil", "r8b", "r9b", "r10b", "r11b", "r12b", "r13b", "r14b", "r15b"}

// GPName returns reg's NASM name at the given byte size.
func GPName(reg Reg, size uint64) string {
	switch size {
	case 1:
		return gpNames1[reg]
	case 2:
		return gpNames2[reg]
	case 4:
		return gpNames4[reg]
	default:
		return gpNames8[reg]
	}
}

// XMMName returns the NASM name of xmm register id.
func XMMName(id int) string {
	return "xmm" + itoa(id)
}

// gpArgOrder is rdi,rsi,rdx,rcx,r8,r9 — the System V integer
// argument-passing order internal/abi.PlaceArgs indexes into.
var gpArgOrder = []Reg{RDI, RSI, RDX, RCX, R8, R9}

// GPArgReg returns the physical GP register for argument-register
// index i (0-based), per the System V calling convention.
func GPArgReg(i int) Reg { return gpArgOrder[i] }

// SSEArgReg returns the xmm register id for SSE argument-register
// index i (0-based): xmm0-xmm7.
func SSEArgReg(i int) int { return i }

// gpPreference is the allocator's GP coloring preference order:
// caller-saves first (cheap to use, nothing to preserve),
// then callee-saves, then the remaining argument/return registers.
var gpPreference = []Reg{RAX, R11, R10, RBX, R12, R13, R14, R15, R9, R8, RCX, RDX, RSI, RDI}

// ssePreference is the allocator's FP coloring preference order.
var ssePreference = []int{0, 1, 8, 9, 10, 11, 12, 13, 14, 15, 7, 6, 5, 4, 3, 2}

// calleeSave reports whether reg must be preserved across calls per
// the System V ABI.
func calleeSave(reg Reg) bool {
	switch reg {
	case RBX, RBP, R12, R13, R14, R15:
		return true
	}
	return false
}
