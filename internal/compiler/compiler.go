// Package compiler turns a patch into a linked, scheduled program.
//
// Passes run in a fixed order, each consuming the snapshot built by the one
// before:
//
//	normalize -> typegraph -> timetopo -> depgraph -> cycles + lower -> link -> schedule
//
// typegraph, timetopo and depgraph are fatal: the first of them that reports
// an error ends the compile with only its diagnostics. cycles and lower both
// run and accumulate; link runs only when they were clean, schedule only when
// link was. Compile never panics.
package compiler

import (
	"context"
	"fmt"

	"patchc/internal/adapter"
	"patchc/internal/blocks"
	"patchc/internal/diag"
	"patchc/internal/ir"
	"patchc/internal/observ"
	"patchc/internal/patch"
	"patchc/internal/program"
	"patchc/internal/trace"
	"patchc/internal/types"
)

// CompilerContext holds the registries a compile reads. They are immutable
// snapshots, so one context may serve concurrent compiles.
type CompilerContext struct {
	Types    *types.Registry
	Adapters *adapter.Registry
	Blocks   *blocks.Registry
	Seed     uint64
}

// NewContext builds a context over the built-in registries.
func NewContext(seed uint64) *CompilerContext {
	return &CompilerContext{
		Types:    types.NewRegistry(),
		Adapters: adapter.Default(),
		Blocks:   blocks.Default(),
		Seed:     seed,
	}
}

// Fingerprint identifies the registry contents, not the seed.
func (cc *CompilerContext) Fingerprint() string {
	return fmt.Sprintf("t%d-a%s-b%s", cc.Types.Len(), cc.Adapters.Fingerprint(), cc.Blocks.Fingerprint())
}

// Options tune one compile. The tracer comes from the context passed to
// Compile.
type Options struct {
	MaxDiagnostics int
	Timer          *observ.Timer
}

// Result is the outcome of a compile. On failure Errors is non-empty and
// Program is nil.
type Result struct {
	OK        bool
	Program   *program.Program
	TimeModel *ir.TimeModel
	IR        *ir.Program
	Errors    []diag.Diagnostic
	Warnings  []diag.Diagnostic
	Bag       *diag.Bag
}

// abort unwinds a fatal pass; it never escapes runPass.
type abort struct{}

type compilation struct {
	ctx  context.Context
	cc   *CompilerContext
	opts Options
	bag  *diag.Bag
	rep  *diag.CountingReporter

	resolver *adapter.Resolver
	src      *patch.CompilerPatch

	norm   *normalized
	typed  *typedGraph
	time   *timeTopology
	deps   *depGraph
	frags  []*ir.Fragment
	linked *linker
	prog   *ir.Program
}

// Compile runs the pipeline over p.
func Compile(ctx context.Context, p *patch.CompilerPatch, cc *CompilerContext, opts Options) *Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if cc == nil {
		cc = NewContext(0)
	}
	bag := diag.NewBag(opts.MaxDiagnostics)
	c := &compilation{
		ctx:      ctx,
		cc:       cc,
		opts:     opts,
		bag:      bag,
		rep:      &diag.CountingReporter{Next: diag.NewDedupReporter(diag.BagReporter{Bag: bag})},
		resolver: adapter.NewResolver(cc.Adapters),
		src:      p,
	}

	ctx, span := trace.BeginCtx(ctx, trace.ScopeDriver, "compile")
	c.ctx = ctx
	res := c.run()
	span.WithExtra("blocks", fmt.Sprint(len(c.blocksOrEmpty()))).
		WithExtra("errors", fmt.Sprint(len(res.Errors)))
	if res.OK {
		span.End("ok")
	} else {
		span.End("failed")
	}
	return res
}

func (c *compilation) blocksOrEmpty() []patch.Block {
	if c.src == nil {
		return nil
	}
	return c.src.Blocks
}

func (c *compilation) run() *Result {
	ok := c.runPass("normalize", c.normalize) &&
		c.runPass("typegraph", c.buildTypeGraph) &&
		c.runPass("timetopo", c.resolveTimeTopology) &&
		c.runPass("depgraph", c.buildDepGraph)
	if ok {
		// both accumulate before the compile stops
		cyclesOK := c.runPass("cycles", c.validateCycles)
		lowerOK := c.runPass("lower", c.lowerBlocks)
		ok = cyclesOK && lowerOK
	}
	ok = ok && c.runPass("link", c.link) && c.runPass("schedule", c.schedule)

	res := &Result{Bag: c.bag}
	var prog *program.Program
	if ok {
		var err error
		prog, err = program.New(c.prog, c.cc.Adapters)
		if err != nil {
			diag.ReportError(c.rep, diag.ScheduleFailed, diag.Location{}, "linked program is inconsistent").
				WithNote(diag.Location{}, err.Error()).Emit()
			ok = false
		}
	}

	c.bag.Sort()
	res.Errors = c.bag.Errors()
	res.Warnings = c.bag.Warnings()
	res.OK = ok && c.rep.Errors == 0
	if res.OK {
		res.Program = prog
		res.IR = c.prog
		tm := c.prog.Time
		res.TimeModel = &tm
	}
	return res
}

// runPass runs fn as one pass. It reports whether the pass finished without
// new errors. Panics are converted to diagnostics here.
func (c *compilation) runPass(name string, fn func()) (ok bool) {
	ctx, span := trace.BeginCtx(c.ctx, trace.ScopePass, name)
	outer := c.ctx
	c.ctx = ctx
	idx := c.opts.Timer.Begin(name)
	before := c.rep.Errors

	defer func() {
		if r := recover(); r != nil {
			if _, isAbort := r.(abort); !isAbort {
				diag.ReportError(c.rep, diag.LoweringFailed, diag.Location{},
					fmt.Sprintf("internal error in pass %s: %v", name, r)).Emit()
			}
		}
		ok = c.rep.Errors == before
		note := fmt.Sprintf("errors=%d", c.rep.Errors-before)
		c.opts.Timer.End(idx, note)
		span.WithExtra("errors", fmt.Sprint(c.rep.Errors-before))
		if ok {
			span.End("")
		} else {
			span.End("failed")
		}
		c.ctx = outer
	}()

	fn()
	return
}

// stopOnErrors ends a fatal pass once it has reported anything.
func (c *compilation) stopOnErrors() {
	if c.rep.Errors > 0 {
		panic(abort{})
	}
}

func (c *compilation) errorf(code diag.Code, loc diag.Location, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportError(c.rep, code, loc, fmt.Sprintf(format, args...))
}

func (c *compilation) warnf(code diag.Code, loc diag.Location, format string, args ...any) *diag.ReportBuilder {
	return diag.ReportWarning(c.rep, code, loc, fmt.Sprintf(format, args...))
}
