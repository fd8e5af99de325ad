// Package perr implements the compiler's three error classes —
// UserError, IRError and ICE — and accumulates per-file diagnostics
// as a typed github.com/hashicorp/go-multierror.Error instead of a
// raw string list.
package perr

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Class distinguishes the three diagnostic severities: a
// UserError means the input program is invalid and compilation of the
// file stops; an IRError means a pass produced or observed
// ill-formed IR and compilation of the file stops; an ICE means an
// internal invariant was violated and the whole process should abort.
type Class int

const (
	ClassUser Class = iota
	ClassIR
	ClassICE
)

func (c Class) String() string {
	switch c {
	case ClassUser:
		return "error"
	case ClassIR:
		return "internal compiler error"
	case ClassICE:
		return "ICE"
	default:
		return "error(?)"
	}
}

// Diagnostic is one reported problem, tagged with the file and phase
// that produced it; the "<file>: internal compiler error: ..." report
// shape is kept as structured fields rather than a pre-formatted
// string.
type Diagnostic struct {
	Class  Class
	File   string
	Phase  string
	Reason string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.File, d.Class, d.Reason)
}

// UserError reports invalid input. This package never constructs one:
// parsing/typechecking live upstream of this module, so every
// UserError this compiler would ever see has already been raised by
// that collaborator before the AST reaches internal/translate.
func UserError(file, phase, reason string) *Diagnostic {
	return &Diagnostic{Class: ClassUser, File: file, Phase: phase, Reason: reason}
}

// IRError reports ill-formed IR observed by internal/validate or
// produced by a pass — the file's compilation aborts, the process
// continues to the next file.
func IRError(file, phase, reason string) *Diagnostic {
	return &Diagnostic{Class: ClassIR, File: file, Phase: phase, Reason: reason}
}

// ICEError reports a violated compiler invariant — the process aborts.
// Most ICEs in this codebase are raised as "ICE:"-prefixed panics;
// ICEError
// exists for the rarer case where a caller wants to accumulate one
// alongside ordinary diagnostics before deciding whether to abort.
func ICEError(file, phase, reason string) *Diagnostic {
	return &Diagnostic{Class: ClassICE, File: file, Phase: phase, Reason: reason}
}

// Collector accumulates diagnostics for one file across a pass,
// backed by go-multierror so callers get proper Is/As/Unwrap support.
type Collector struct {
	errs *multierror.Error
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records a diagnostic. A nil diagnostic is ignored, so callers can
// write `c.Add(checkThing())` without an extra nil check.
func (c *Collector) Add(d *Diagnostic) {
	if d == nil {
		return
	}
	c.errs = multierror.Append(c.errs, d)
}

// HasErrors reports whether any diagnostic has been recorded.
func (c *Collector) HasErrors() bool {
	return c.errs != nil && c.errs.Len() > 0
}

// HasClass reports whether any recorded diagnostic has the given class.
func (c *Collector) HasClass(class Class) bool {
	if c.errs == nil {
		return false
	}
	for _, e := range c.errs.Errors {
		if d, ok := e.(*Diagnostic); ok && d.Class == class {
			return true
		}
	}
	return false
}

// Err returns the accumulated error, or nil if none were recorded.
func (c *Collector) Err() error {
	if !c.HasErrors() {
		return nil
	}
	return c.errs.ErrorOrNil()
}

// Diagnostics returns every recorded diagnostic in report order.
func (c *Collector) Diagnostics() []*Diagnostic {
	if c.errs == nil {
		return nil
	}
	out := make([]*Diagnostic, 0, len(c.errs.Errors))
	for _, e := range c.errs.Errors {
		if d, ok := e.(*Diagnostic); ok {
			out = append(out, d)
		}
	}
	return out
}
