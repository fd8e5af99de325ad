// Package driver orchestrates the per-file compilation pipeline:
// translate, blocked optimization, validation, trace scheduling,
// linear optimization, instruction selection, arity reduction,
// register allocation, emission. The file list and options live on an
// explicit Context threaded through the pipeline rather than as
// process globals.
package driver

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/tcompiler-project/backend/internal/ast"
	"github.com/tcompiler-project/backend/internal/clog"
	"github.com/tcompiler-project/backend/internal/ir"
	"github.com/tcompiler-project/backend/internal/optimize"
	"github.com/tcompiler-project/backend/internal/perr"
	"github.com/tcompiler-project/backend/internal/schedule"
	"github.com/tcompiler-project/backend/internal/translate"
	"github.com/tcompiler-project/backend/internal/validate"
	"github.com/tcompiler-project/backend/internal/x64"
)

// Arch selects the target architecture. x86_64 Linux is the only one
// specified.
type Arch int

const (
	X8664Linux Arch = iota
)

func (a Arch) String() string {
	switch a {
	case X8664Linux:
		return "x86_64-linux"
	default:
		return "arch(?)"
	}
}

// Options is the process-wide configuration record. The embedding
// caller populates it once before Run; passes read it and never mutate
// it. CLI parsing is out of scope, so there is no flag surface
// here.
type Options struct {
	Arch  Arch
	Debug bool
}

// FileEntry is one translation unit moving through the pipeline: its
// name, its typechecked AST, the IR it lowers to, and the errored flag
// the abort rule consults after every pass.
type FileEntry struct {
	Name    string
	Module  *ast.Module
	Errored bool

	ir *ir.File
}

// Context carries the file list and options through the pipeline.
type Context struct {
	Options Options
	Files   []*FileEntry
	Log     *zap.Logger
}

// NewContext builds a pipeline context over the given files,
// constructing a logger per Options.Debug.
func NewContext(opts Options, files []*FileEntry) (*Context, error) {
	log, err := clog.New(opts.Debug)
	if err != nil {
		return nil, err
	}
	return &Context{Options: opts, Files: files, Log: log}, nil
}

// Sink maps a file name to the writer its assembly is emitted to. The
// emitter writes to a caller-provided sink; the driver never
// touches the filesystem itself.
type Sink func(fileName string) (io.Writer, error)

// Run drives every file through the full pipeline. After any pass an
// errored file aborts the whole run: passes never see IR a previous
// pass flagged.
func (ctx *Context) Run(sink Sink) error {
	if ctx.Options.Arch != X8664Linux {
		return fmt.Errorf("driver: unsupported architecture %s", ctx.Options.Arch)
	}

	if err := ctx.eachFile("translate", ctx.translateFile); err != nil {
		return err
	}
	if err := ctx.eachFile("blocked optimization", ctx.optimizeBlocked); err != nil {
		return err
	}
	if err := ctx.eachFile("trace scheduling", ctx.schedule); err != nil {
		return err
	}
	if err := ctx.eachFile("linear optimization", ctx.optimizeLinear); err != nil {
		return err
	}
	return ctx.eachFile("emit", func(f *FileEntry) error {
		return ctx.backend(f, sink)
	})
}

// eachFile runs one pass over every file; if any file errored, the
// pipeline stops.
func (ctx *Context) eachFile(phase string, pass func(*FileEntry) error) error {
	for _, f := range ctx.Files {
		log := clog.Phase(ctx.Log, f.Name, phase)
		log.Debug("pass start")
		if err := pass(f); err != nil {
			f.Errored = true
			log.Error("pass failed", zap.Error(err))
		}
		log.Debug("pass done")
	}
	for _, f := range ctx.Files {
		if f.Errored {
			return fmt.Errorf("driver: %s failed during %s, aborting pipeline", f.Name, phase)
		}
	}
	return nil
}

func (ctx *Context) translateFile(f *FileEntry) error {
	tr := translate.New(f.Name, f.Module.Name)
	f.ir = tr.Translate(f.Module)
	if err := tr.Errors().Err(); err != nil {
		return err
	}
	return ctx.validateFile(f, "translation")
}

func (ctx *Context) optimizeBlocked(f *FileEntry) error {
	optimize.Blocked(f.ir)
	return ctx.validateFile(f, "blocked optimization")
}

func (ctx *Context) schedule(f *FileEntry) error {
	schedule.Trace(f.ir)
	return nil
}

func (ctx *Context) optimizeLinear(f *FileEntry) error {
	optimize.Linear(f.ir)
	return nil
}

// validateFile runs both validation passes after a blocked-form
// phase, logging each diagnostic's "<file>: internal compiler error:
// ... after <phase>" content as structured fields.
func (ctx *Context) validateFile(f *FileEntry, phase string) error {
	neutral := validate.Neutral(f.ir, f.Name, phase)
	archErrs := validate.X64(f.ir, f.Name, phase)
	log := clog.Phase(ctx.Log, f.Name, phase)
	for _, d := range append(neutral.Diagnostics(), archErrs.Diagnostics()...) {
		log.Error("IR validation failed", zap.String("reason", d.Reason))
	}
	if neutral.HasErrors() {
		return fmt.Errorf("%s: internal compiler error: neutral IR validation after %s failed: %w", f.Name, phase, neutral.Err())
	}
	if archErrs.HasErrors() {
		return fmt.Errorf("%s: internal compiler error: x86_64 IR validation after %s failed: %w", f.Name, phase, archErrs.Err())
	}
	return nil
}

// backend runs selection, arity reduction, allocation and emission for
// one file and writes the assembly to its sink.
func (ctx *Context) backend(f *FileEntry, sink Sink) error {
	prog, err := x64.Select(f.ir)
	if err != nil {
		return err
	}
	x64.Reduce(prog)
	if err := x64.Allocate(prog); err != nil {
		return err
	}
	w, err := sink(f.Name)
	if err != nil {
		return err
	}
	return x64.Emit(w, prog)
}

// ClassifyError maps an error back to the three diagnostic classes
// for callers that need to distinguish abort-file from abort-process.
func ClassifyError(err error) perr.Class {
	var d *perr.Diagnostic
	if errors.As(err, &d) {
		return d.Class
	}
	return perr.ClassIR
}
