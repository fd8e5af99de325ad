package validate

import (
	"fmt"

	"github.com/tcompiler-project/backend/internal/ir"
	"github.com/tcompiler-project/backend/internal/perr"
)

// X64 runs the x86_64-specific checks: every Reg operand's size
// is one of 1/2/4/8 bytes; every GP temp has size in {1,2,4,8} with
// alignment == size; every FP temp has size in {4,8} with
// alignment == size; every MEM temp has alignment <= 16.
func X64(file *ir.File, fileName, phase string) *perr.Collector {
	c := perr.NewCollector()
	for _, f := range file.Frags {
		if f.Kind != ir.FragText {
			continue
		}
		f.Blocks.Each(func(b *ir.Block) {
			for _, in := range b.Instructions {
				for _, op := range in.Args() {
					checkOperandX64(c, f, b, op, fileName, phase)
				}
			}
		})
	}
	return c
}

var validRegSizes = map[uint64]bool{1: true, 2: true, 4: true, 8: true}
var validFPSizes = map[uint64]bool{4: true, 8: true}

func checkOperandX64(c *perr.Collector, f *ir.Frag, b *ir.Block, op ir.Operand, fileName, phase string) {
	switch op.Kind() {
	case ir.OReg:
		if !validRegSizes[op.Size()] {
			c.Add(perr.IRError(fileName, phase, fmt.Sprintf("reg operand in block %d of %q has invalid size %d", b.Label, f.Name, op.Size())))
		}
	case ir.OTemp:
		switch op.Hint() {
		case ir.HintGP:
			if !validRegSizes[op.Size()] {
				c.Add(perr.IRError(fileName, phase, fmt.Sprintf("GP temp t%d in block %d of %q has invalid size %d", op.TempID(), b.Label, f.Name, op.Size())))
			} else if op.Alignment() != op.Size() {
				c.Add(perr.IRError(fileName, phase, fmt.Sprintf("GP temp t%d in block %d of %q has alignment %d != size %d", op.TempID(), b.Label, f.Name, op.Alignment(), op.Size())))
			}
		case ir.HintFP:
			if !validFPSizes[op.Size()] {
				c.Add(perr.IRError(fileName, phase, fmt.Sprintf("FP temp t%d in block %d of %q has invalid size %d", op.TempID(), b.Label, f.Name, op.Size())))
			} else if op.Alignment() != op.Size() {
				c.Add(perr.IRError(fileName, phase, fmt.Sprintf("FP temp t%d in block %d of %q has alignment %d != size %d", op.TempID(), b.Label, f.Name, op.Alignment(), op.Size())))
			}
		case ir.HintMem:
			if op.Alignment() > 16 {
				c.Add(perr.IRError(fileName, phase, fmt.Sprintf("MEM temp t%d in block %d of %q has alignment %d > 16", op.TempID(), b.Label, f.Name, op.Alignment())))
			}
		}
	}
}
