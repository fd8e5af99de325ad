package optimize

import "github.com/tcompiler-project/backend/internal/ir"

// Blocked runs the blocked-form fixpoint optimizer over every
// text fragment of file: short-circuit jumps, dead-block elimination,
// dead-temp elimination, repeated until no pass reports a change.
func Blocked(file *ir.File) {
	for _, f := range file.Frags {
		if f.Kind != ir.FragText {
			continue
		}
		for {
			c1 := shortCircuit(f)
			c2 := deadBlock(file, f)
			c3 := deadTemp(f)
			if !c1 && !c2 && !c3 {
				break
			}
		}
	}
}
