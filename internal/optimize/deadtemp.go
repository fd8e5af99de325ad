package optimize

import "github.com/tcompiler-project/backend/internal/ir"

// deadTemp implements dead-temp elimination: a temp is live if
// it appears as a read operand in any instruction. An instruction whose
// single writable destination (Dest()) writes a temp that is never
// read anywhere, and which has no effect beyond that write, is replaced
// with a nop. OpVolatile and OpAddrof need no special case: their
// operand is itself a read (the sole arg for Volatile, the source slot
// for Addrof), so the generic read scan already keeps it live.
func deadTemp(f *ir.Frag) bool {
	live := map[int]bool{}
	f.Blocks.Each(func(b *ir.Block) {
		for _, in := range b.Instructions {
			args := in.Args()
			destIdx := -1
			if _, ok := in.Dest(); ok {
				destIdx = 0
			}
			for i, a := range args {
				if i == destIdx {
					continue
				}
				if a.Kind() == ir.OTemp {
					live[a.TempID()] = true
				}
			}
		}
	})

	changed := false
	f.Blocks.Each(func(b *ir.Block) {
		for i, in := range b.Instructions {
			dst, ok := in.Dest()
			if !ok || dst.Kind() != ir.OTemp {
				continue
			}
			if !live[dst.TempID()] {
				if in.Op != ir.OpNop {
					b.Instructions[i] = ir.NewInstruction(ir.OpNop)
					changed = true
				}
			}
		}
	})
	return changed
}
