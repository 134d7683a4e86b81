// Package driver compiles patch files: loading, caching, batch parallelism
// and progress reporting around the compiler.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/hashicorp/hcl/v2"
	"golang.org/x/sync/errgroup"

	"patchc/internal/compiler"
	"patchc/internal/diag"
	"patchc/internal/observ"
	"patchc/internal/patch"
	"patchc/internal/patchfile"
	"patchc/internal/program"
	"patchc/internal/trace"
)

// Options configure CompileFile and CompileAll.
type Options struct {
	Context        *compiler.CompilerContext // nil means compiler.NewContext(Seed)
	Seed           uint64
	MaxDiagnostics int
	Cache          *DiskCache // nil disables caching
	Timings        bool       // append an OBS7001 timings diagnostic
	Jobs           int        // CompileAll workers; <= 0 means GOMAXPROCS
	Sink           ProgressSink
}

func (o *Options) context() *compiler.CompilerContext {
	if o.Context != nil {
		return o.Context
	}
	return compiler.NewContext(o.Seed)
}

func (o *Options) sink() ProgressSink {
	if o.Sink != nil {
		return o.Sink
	}
	return nopSink{}
}

// FileResult is the outcome for one file. Result is nil when the file could
// not be loaded; Bag always holds every diagnostic for the file.
type FileResult struct {
	Path    string
	Patch   *patch.CompilerPatch
	Result  *compiler.Result
	Bag     *diag.Bag
	Cached  bool
	Elapsed time.Duration
}

// OK reports whether the file compiled.
func (r *FileResult) OK() bool { return r.Result != nil && r.Result.OK }

// CompileFile loads and compiles one patch file.
func CompileFile(ctx context.Context, path string, opts Options) *FileResult {
	return compileFile(ctx, path, opts, opts.context())
}

func compileFile(ctx context.Context, path string, opts Options, cc *compiler.CompilerContext) *FileResult {
	start := time.Now()
	sink := opts.sink()
	ctx, span := trace.BeginCtx(ctx, trace.ScopeDriver, "file")
	span.WithExtra("path", path)

	fr := &FileResult{Path: path, Bag: diag.NewBag(opts.MaxDiagnostics)}
	emit(sink, path, StageLoad, StatusWorking, nil, 0)
	p, err := patchfile.Load(path)
	if err != nil {
		reportLoadError(fr.Bag, path, err)
		emit(sink, path, StageLoad, StatusError, err, time.Since(start))
		fr.Elapsed = time.Since(start)
		span.End("load failed")
		return fr
	}
	emit(sink, path, StageLoad, StatusDone, nil, time.Since(start))

	fr.Patch = p
	compilePatch(ctx, fr, opts, cc)
	fr.Elapsed = time.Since(start)
	if fr.OK() {
		span.End("ok")
	} else {
		span.End("failed")
	}
	return fr
}

// CompilePatch compiles an in-memory patch under name, with the same cache
// and timing behaviour as CompileFile.
func CompilePatch(ctx context.Context, name string, p *patch.CompilerPatch, opts Options) *FileResult {
	start := time.Now()
	fr := &FileResult{Path: name, Patch: p, Bag: diag.NewBag(opts.MaxDiagnostics)}
	compilePatch(ctx, fr, opts, opts.context())
	fr.Elapsed = time.Since(start)
	return fr
}

func compilePatch(ctx context.Context, fr *FileResult, opts Options, cc *compiler.CompilerContext) {
	sink := opts.sink()
	var timer *observ.Timer
	if opts.Timings {
		timer = observ.NewTimer()
	}

	key := ""
	if opts.Cache != nil {
		start := time.Now()
		emit(sink, fr.Path, StageCache, StatusWorking, nil, 0)
		var err error
		key, err = CacheKey(fr.Patch, cc)
		if err == nil {
			if res, ok := fromCache(opts.Cache, key, cc); ok {
				fr.Result, fr.Cached = res, true
				fr.Bag.Merge(res.Bag)
				emit(sink, fr.Path, StageCache, StatusDone, nil, time.Since(start))
				if timer != nil {
					timer.Time("cache", func() string { return "hit" })
					appendTimingDiagnostic(fr.Bag, timingPayload{Path: fr.Path, Cached: true, TotalMS: timer.Report().TotalMS, Phases: timer.Report().Phases})
				}
				return
			}
		}
	}

	start := time.Now()
	emit(sink, fr.Path, StageCompile, StatusWorking, nil, 0)
	res := compiler.Compile(ctx, fr.Patch, cc, compiler.Options{MaxDiagnostics: opts.MaxDiagnostics, Timer: timer})
	fr.Result = res
	fr.Bag.Merge(res.Bag)
	if res.OK {
		emit(sink, fr.Path, StageCompile, StatusDone, nil, time.Since(start))
		if key != "" {
			if err := opts.Cache.Put(key, toPayload(res)); err != nil {
				diag.ReportWarning(diag.BagReporter{Bag: fr.Bag}, diag.IOLoadFileError, diag.Location{},
					fmt.Sprintf("cache write failed: %v", err)).Emit()
			}
		}
	} else {
		emit(sink, fr.Path, StageCompile, StatusError, fmt.Errorf("%d errors", len(res.Errors)), time.Since(start))
	}
	if timer != nil {
		report := timer.Report()
		appendTimingDiagnostic(fr.Bag, timingPayload{Path: fr.Path, TotalMS: report.TotalMS, Phases: report.Phases})
	}
}

func toPayload(res *compiler.Result) *CachePayload {
	payload := &CachePayload{Program: res.IR}
	for _, w := range res.Warnings {
		payload.Warnings = append(payload.Warnings, CachedWarning{
			Code:    uint16(w.Code),
			Message: w.Message,
			Block:   w.Location.Block,
			Port:    w.Location.Port,
			Edge:    w.Location.Edge,
			Bus:     w.Location.Bus,
		})
	}
	return payload
}

// fromCache rebuilds a result from a cache entry. A stale or unreadable
// entry is a miss.
func fromCache(c *DiskCache, key string, cc *compiler.CompilerContext) (*compiler.Result, bool) {
	payload, ok, err := c.Get(key)
	if err != nil || !ok {
		return nil, false
	}
	prog, err := program.New(payload.Program, cc.Adapters)
	if err != nil {
		return nil, false
	}
	bag := diag.NewBag(0)
	for _, w := range payload.Warnings {
		bag.Add(diag.New(diag.SevWarning, diag.Code(w.Code),
			diag.Location{Block: w.Block, Port: w.Port, Edge: w.Edge, Bus: w.Bus}, w.Message))
	}
	tm := payload.Program.Time
	return &compiler.Result{
		OK:        true,
		Program:   prog,
		TimeModel: &tm,
		IR:        payload.Program,
		Warnings:  bag.Warnings(),
		Bag:       bag,
	}, true
}

// reportLoadError turns a load failure into IO diagnostics: one per HCL
// error, or a single one for read and decode failures.
func reportLoadError(bag *diag.Bag, path string, err error) {
	rep := diag.BagReporter{Bag: bag}
	var pe *patchfile.ParseError
	if !errors.As(err, &pe) {
		diag.ReportError(rep, diag.IOLoadFileError, diag.Location{}, fmt.Sprintf("%s: %v", path, err)).Emit()
		return
	}
	if len(pe.Diags) == 0 {
		diag.ReportError(rep, diag.IOParseError, diag.Location{}, pe.Error()).Emit()
		return
	}
	for _, d := range pe.Diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		diag.ReportError(rep, diag.IOParseError, diag.Location{}, hclMessage(path, d)).Emit()
	}
}

func hclMessage(path string, d *hcl.Diagnostic) string {
	pos := path
	if d.Subject != nil {
		pos = fmt.Sprintf("%s:%d:%d", d.Subject.Filename, d.Subject.Start.Line, d.Subject.Start.Column)
	}
	if d.Detail == "" {
		return pos + ": " + d.Summary
	}
	return fmt.Sprintf("%s: %s; %s", pos, d.Summary, d.Detail)
}

// CompileAll compiles every file in paths with at most opts.Jobs files in
// flight. Results keep the order of paths. The error is non-nil only when
// ctx is cancelled; compile failures are reported per file.
func CompileAll(ctx context.Context, paths []string, opts Options) ([]*FileResult, error) {
	results := make([]*FileResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	cc := opts.context()
	sink := opts.sink()
	for _, path := range paths {
		emit(sink, path, StageLoad, StatusQueued, nil, 0)
	}

	ctx, span := trace.BeginCtx(ctx, trace.ScopeDriver, "compile-all")
	defer span.End("")
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = compileFile(gctx, path, opts, cc)
			return nil
		})
	}
	err := g.Wait()
	status := StatusDone
	if err != nil {
		status = StatusError
	}
	emit(sink, "", StageCompile, status, err, time.Since(start))
	return results, err
}
