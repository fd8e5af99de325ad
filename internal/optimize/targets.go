// Package optimize implements the blocked-form fixpoint optimizer
// (short-circuit jumps, dead-block elimination, dead-temp elimination)
// and the linear-form dead-label pass. Every transform here is a pure
// rewrite of the IR it's handed; none allocates new temps or blocks,
// keeping each pass a plain function from state to state.
package optimize

import (
	"strconv"
	"strings"

	"github.com/tcompiler-project/backend/internal/ir"
)

// blockIDFromLabel parses the translator's "L<id>" local-label
// convention (internal/translate.localLabelName) back into a block id.
// A label that doesn't match (e.g. a global mangled symbol) reports ok=false.
func blockIDFromLabel(label string) (int, bool) {
	if !strings.HasPrefix(label, "L") {
		return 0, false
	}
	id, err := strconv.Atoi(label[1:])
	if err != nil {
		return 0, false
	}
	return id, true
}

// labelTargets returns every local-block label an instruction's
// terminator may jump to, used by both dead-block elimination and the
// linear dead-label pass so they agree on what "reachable" means.
func labelTargets(in ir.Instruction) []string {
	args := in.Args()
	switch {
	case in.Op == ir.OpJump:
		return []string{args[0].Label()}
	case in.Op == ir.OpJumptable:
		return nil // rodata-mediated; handled separately via the referenced fragment
	case in.Op.IsTwoArgJump():
		return []string{args[0].Label(), args[1].Label()}
	case in.Op.IsOneArgJump():
		return []string{args[0].Label()}
	default:
		return nil
	}
}

// isShortcutBlock reports whether b consists of exactly one
// instruction that is itself an unconditional jump, a two-arg
// conditional jump, or a bjump. Jumptable-reachable blocks qualify
// like any other — there is nothing jumptable-specific about the
// block's own instruction shape.
func isShortcutBlock(b *ir.Block) bool {
	if len(b.Instructions) != 1 {
		return false
	}
	op := b.Instructions[0].Op
	return op == ir.OpJump || op.IsTwoArgJump()
}
