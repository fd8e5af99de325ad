// Package validate implements the two architecture-neutral and
// x86_64-specific IR well-formedness passes. Both are pure
// readers: they never mutate the IR they inspect,
// and report every problem they find through a perr.Collector rather
// than stopping at the first one, the same "report everything, then
// let the driver decide whether to abort" shape internal/translate
// uses for user-facing diagnostics.
package validate

import (
	"fmt"

	"github.com/tcompiler-project/backend/internal/ir"
	"github.com/tcompiler-project/backend/internal/perr"
)

// Neutral runs the architecture-neutral checks over every
// fragment of file, tagging diagnostics with fileName and phase.
func Neutral(file *ir.File, fileName, phase string) *perr.Collector {
	c := perr.NewCollector()
	for _, f := range file.Frags {
		if f.Kind != ir.FragText {
			continue
		}
		neutralText(c, file, f, fileName, phase)
	}
	return c
}

func neutralText(c *perr.Collector, file *ir.File, f *ir.Frag, fileName, phase string) {
	if f.Blocks == nil || f.Blocks.Len() == 0 {
		c.Add(perr.IRError(fileName, phase, fmt.Sprintf("fragment %q has no blocks", f.Name)))
		return
	}
	f.Blocks.Each(func(b *ir.Block) {
		neutralBlock(c, file, f, b, fileName, phase)
	})
}

func neutralBlock(c *perr.Collector, file *ir.File, f *ir.Frag, b *ir.Block, fileName, phase string) {
	if len(b.Instructions) == 0 {
		c.Add(perr.IRError(fileName, phase, fmt.Sprintf("block %d of %q is empty", b.Label, f.Name)))
		return
	}
	for i, in := range b.Instructions {
		isLast := i == len(b.Instructions)-1
		if in.Op.IsTerminator() && !isLast {
			c.Add(perr.IRError(fileName, phase, fmt.Sprintf("terminator %s is not the last instruction of block %d in %q", in.Op, b.Label, f.Name)))
		}
		if !in.Op.IsTerminator() && isLast {
			c.Add(perr.IRError(fileName, phase, fmt.Sprintf("block %d of %q does not end in a terminator (ends in %s)", b.Label, f.Name, in.Op)))
		}
		checkOperandKinds(c, f, b, in, fileName, phase)
		checkLocalRefs(c, file, f, in, fileName, phase)
	}
}

// checkOperandKinds enforces the admissible-operand-kind rule: a
// destination slot is always Temp or Reg, a jump-family target is
// always a Label, and a Call callee is Label, Temp or Reg.
func checkOperandKinds(c *perr.Collector, f *ir.Frag, b *ir.Block, in ir.Instruction, fileName, phase string) {
	args := in.Args()
	if dst, ok := in.Dest(); ok {
		if dst.Kind() != ir.OTemp && dst.Kind() != ir.OReg {
			c.Add(perr.IRError(fileName, phase, fmt.Sprintf("%s destination in block %d of %q is not a temp/reg (%s)", in.Op, b.Label, f.Name, dst.Kind())))
		}
	}
	switch in.Op {
	case ir.OpJump:
		if args[0].Kind() != ir.OLabel {
			c.Add(perr.IRError(fileName, phase, fmt.Sprintf("jump target in block %d of %q is not a label (%s)", b.Label, f.Name, args[0].Kind())))
		}
	case ir.OpJumptable:
		if args[1].Kind() != ir.OLabel {
			c.Add(perr.IRError(fileName, phase, fmt.Sprintf("jumptable rodata operand in block %d of %q is not a label (%s)", b.Label, f.Name, args[1].Kind())))
		}
	case ir.OpCall:
		switch args[0].Kind() {
		case ir.OLabel, ir.OTemp, ir.OReg:
		default:
			c.Add(perr.IRError(fileName, phase, fmt.Sprintf("call callee in block %d of %q is not label/temp/reg (%s)", b.Label, f.Name, args[0].Kind())))
		}
	case ir.OpMove:
		switch args[1].Kind() {
		case ir.OTemp, ir.OReg, ir.OConstant, ir.OOffset:
		default:
			c.Add(perr.IRError(fileName, phase, fmt.Sprintf("move source in block %d of %q has unexpected kind %s", b.Label, f.Name, args[1].Kind())))
		}
	}
	if in.Op.IsTwoArgJump() {
		trueL, falseL := args[0], args[1]
		if trueL.Kind() != ir.OLabel || falseL.Kind() != ir.OLabel {
			c.Add(perr.IRError(fileName, phase, fmt.Sprintf("two-arg conditional jump %s in block %d of %q has non-label target", in.Op, b.Label, f.Name)))
		}
	}
	if in.Op.IsOneArgJump() {
		if args[0].Kind() != ir.OLabel {
			c.Add(perr.IRError(fileName, phase, fmt.Sprintf("one-arg conditional jump %s in block %d of %q has non-label target", in.Op, b.Label, f.Name)))
		}
	}
}

// checkLocalRefs enforces that a Local label operand inside a text
// fragment targets a block of that same fragment, and that jumptable
// rodata fragments contain only Local datums referring to blocks of
// the function that references them.
func checkLocalRefs(c *perr.Collector, file *ir.File, f *ir.Frag, in ir.Instruction, fileName, phase string) {
	args := in.Args()
	for _, l := range args {
		var id int
		if (in.Op != ir.OpJump && !in.Op.IsTwoArgJump()) || l.Kind() != ir.OLabel {
			continue
		}
		if _, err := fmt.Sscanf(l.Label(), "L%d", &id); err == nil {
			if _, ok := f.Blocks.Find(id); !ok {
				c.Add(perr.IRError(fileName, phase, fmt.Sprintf("%s in %q targets block %d not present in the fragment", in.Op, f.Name, id)))
			}
		}
	}
	if in.Op != ir.OpJumptable {
		return
	}
	roName := args[1].Label()
	ro, ok := file.FindFrag(roName)
	if !ok {
		c.Add(perr.IRError(fileName, phase, fmt.Sprintf("jumptable in %q references unknown rodata fragment %q", f.Name, roName)))
		return
	}
	if ro.Kind != ir.FragRoData {
		c.Add(perr.IRError(fileName, phase, fmt.Sprintf("jumptable in %q references fragment %q which is not rodata", f.Name, roName)))
		return
	}
	for _, d := range ro.Datums {
		if d.Kind() != ir.DLocal {
			c.Add(perr.IRError(fileName, phase, fmt.Sprintf("jumptable rodata %q contains a non-Local datum %s", roName, d)))
			continue
		}
		if _, ok := f.Blocks.Find(d.LocalID()); !ok {
			c.Add(perr.IRError(fileName, phase, fmt.Sprintf("jumptable rodata %q references block %d not present in %q", roName, d.LocalID(), f.Name)))
		}
	}
}
