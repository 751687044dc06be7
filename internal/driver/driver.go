package driver

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"hasheq/internal/diag"
	"hasheq/internal/extract"
	"hasheq/internal/model"
	"hasheq/internal/observ"
	"hasheq/internal/policy"
	"hasheq/internal/project"
	"hasheq/internal/render"
	"hasheq/internal/source"
	"hasheq/internal/synth"
	"hasheq/internal/trace"
	"hasheq/internal/version"
)

// Options configures one run of the generator over a package directory.
type Options struct {
	Config         project.Config
	MaxDiagnostics int
	// Jobs bounds per-type parallelism; 0 means GOMAXPROCS.
	Jobs int
	// Cache is optional. Runs that need plans (not just output) leave it nil.
	Cache *DiskCache
	// Progress receives a working event per stage. May be nil.
	Progress ProgressSink
}

// Result is everything a run produced. Output is nil whenever Bag has errors.
type Result struct {
	Package    string
	Dir        string
	FileSet    *source.FileSet
	Bag        *diag.Bag
	Types      []string      // types with generated methods, declaration order
	Plans      []*synth.Plan // nil when Cached
	Output     []byte
	OutputPath string
	Cached     bool
	Timing     observ.Report
}

// GeneratePackage runs load, extract, synth and render over dir. Returned errors are
// IO failures and cancellation; problems in the source end up in Result.Bag.
func GeneratePackage(ctx context.Context, dir string, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg.Output.File == "" {
		cfg.Output.File = project.DefaultOutputFile
	}
	if cfg.Output.Runtime == "" {
		cfg.Output.Runtime = project.DefaultRuntimeImport
	}

	tracer := trace.FromContext(ctx)
	rootSpan := trace.Begin(tracer, trace.ScopeDriver, "generate_package", trace.ParentID(ctx))
	defer rootSpan.End(dir)
	ctx = trace.WithSpan(ctx, rootSpan)

	timer := observ.NewTimer()
	fileSet := source.NewFileSetWithBase(dir)
	bag := diag.NewBag(opts.MaxDiagnostics)
	res := &Result{
		Dir:        dir,
		FileSet:    fileSet,
		Bag:        bag,
		OutputPath: filepath.Join(dir, cfg.Output.File),
	}
	defer func() { res.Timing = timer.Report() }()

	// load
	emit(opts.Progress, Event{Dir: dir, Stage: StageLoad, Status: StatusWorking})
	loadIdx := timer.Begin("load")
	loadSpan := trace.Begin(tracer, trace.ScopePass, "load", rootSpan.ID())
	ids, err := extract.LoadDir(ctx, fileSet, diag.BagReporter{Bag: bag}, dir, cfg.Output.File)
	loadSpan.WithExtra("files", strconv.Itoa(len(ids))).End("")
	timer.End(loadIdx, fmt.Sprintf("%d files", len(ids)))
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		trace.Point(tracer, trace.ScopeFile, "file", fileSet.Get(id).Path, loadSpan.ID())
	}
	if len(ids) == 0 {
		if !bag.HasErrors() {
			diag.ReportError(diag.BagReporter{Bag: bag}, diag.InpNoGoFiles, source.NoSpan,
				fmt.Sprintf("no Go files in %s", dir)).Emit()
		}
		return res, nil
	}

	key := cacheKey(fileSet, ids, cfg)
	if opts.Cache != nil {
		var payload DiskPayload
		hit, err := opts.Cache.Get(key, &payload)
		if err != nil {
			trace.Point(tracer, trace.ScopePass, "cache_error", err.Error(), rootSpan.ID())
		}
		if hit {
			trace.Point(tracer, trace.ScopePass, "cache_hit", dir, rootSpan.ID())
			res.Package = payload.Package
			res.Types = payload.Types
			res.Output = payload.Output
			res.Cached = true
			decodeDiagnostics(payload.Diagnostics, ids, bag)
			return res, nil
		}
	}

	// extract
	emit(opts.Progress, Event{Dir: dir, Stage: StageExtract, Status: StatusWorking})
	extractIdx := timer.Begin("extract")
	extractSpan := trace.Begin(tracer, trace.ScopePass, "extract", rootSpan.ID())
	vocab := cfg.Vocabulary()
	x := extract.New(fileSet, diag.BagReporter{Bag: bag}, extract.Options{Vocab: vocab, OutputFile: cfg.Output.File})
	pkg := x.Source(ids...)
	pkg.Dir = dir
	res.Package = pkg.Name

	candidates := make([]*model.ValueType, 0, len(pkg.Types))
	for i := range pkg.Types {
		if policy.Applicable(&pkg.Types[i]) {
			candidates = append(candidates, &pkg.Types[i])
		}
	}
	extractSpan.WithExtra("types", strconv.Itoa(len(pkg.Types))).
		WithExtra("candidates", strconv.Itoa(len(candidates))).End("")
	timer.End(extractIdx, fmt.Sprintf("%d candidates", len(candidates)))
	if len(candidates) == 0 && !bag.HasErrors() {
		diag.ReportInfo(diag.BagReporter{Bag: bag}, diag.ExtNoCandidates, source.NoSpan,
			fmt.Sprintf("package %s has no value types to generate", pkg.Name)).Emit()
	}

	// synth
	emit(opts.Progress, Event{Dir: dir, Stage: StageSynth, Status: StatusWorking})
	synthIdx := timer.Begin("synth")
	synthSpan := trace.Begin(tracer, trace.ScopePass, "synth", rootSpan.ID())
	plans, bags, err := synthesizeAll(ctx, pkg, candidates, vocab, opts, synthSpan.ID())
	synthSpan.End("")
	timer.End(synthIdx, fmt.Sprintf("%d types", len(candidates)))
	if err != nil {
		return nil, err
	}
	for i, b := range bags {
		// Merge would lift the bag limit
		for _, d := range b.Items() {
			bag.Add(d)
		}
		if plans[i] != nil {
			res.Plans = append(res.Plans, plans[i])
			res.Types = append(res.Types, plans[i].Type)
		}
	}

	// render
	if !bag.HasErrors() && len(res.Plans) > 0 {
		emit(opts.Progress, Event{Dir: dir, Stage: StageRender, Status: StatusWorking})
		renderIdx := timer.Begin("render")
		renderSpan := trace.Begin(tracer, trace.ScopePass, "render", rootSpan.ID())
		out, err := render.File(pkg.Name, res.Plans, render.Options{RuntimeImport: cfg.Output.Runtime})
		var fe *render.FormatError
		switch {
		case errors.As(err, &fe):
			diag.ReportError(diag.BagReporter{Bag: bag}, diag.GenFormatFailure, source.NoSpan,
				fmt.Sprintf("generated code for package %s does not format: %v", pkg.Name, fe.Err)).Emit()
		case err != nil:
			renderSpan.End("error")
			timer.End(renderIdx, "error")
			return nil, err
		default:
			res.Output = out
		}
		renderSpan.WithExtra("bytes", strconv.Itoa(len(out))).End("")
		timer.End(renderIdx, fmt.Sprintf("%d bytes", len(out)))
	}
	if bag.HasErrors() {
		res.Output = nil
	}

	if opts.Cache != nil {
		payload := &DiskPayload{
			Schema:      diskCacheSchemaVersion,
			Package:     res.Package,
			Types:       res.Types,
			Output:      res.Output,
			Diagnostics: encodeDiagnostics(bag.Items(), ids),
		}
		if err := opts.Cache.Put(key, payload); err != nil {
			trace.Point(tracer, trace.ScopePass, "cache_error", err.Error(), rootSpan.ID())
		}
	}
	return res, nil
}

// synthesizeAll classifies and synthesizes every candidate in parallel. Both returned
// slices are indexed like candidates.
func synthesizeAll(
	ctx context.Context,
	pkg *extract.Package,
	candidates []*model.ValueType,
	vocab *model.Vocabulary,
	opts Options,
	parent uint64,
) ([]*synth.Plan, []*diag.Bag, error) {
	plans := make([]*synth.Plan, len(candidates))
	bags := make([]*diag.Bag, len(candidates))
	if len(candidates) == 0 {
		return plans, bags, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	tracer := trace.FromContext(ctx)

	// индексы уникальны для каждой горутины, мьютекс не нужен
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(candidates)))
	for i, vt := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			span := trace.Begin(tracer, trace.ScopeType, "type", parent).WithExtra("type", vt.Name)
			bag := diag.NewBag(opts.MaxDiagnostics)
			bags[i] = bag
			plan, outcome := synthesizeType(pkg, vt, vocab, diag.BagReporter{Bag: bag})
			plans[i] = plan
			span.End(outcome)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return plans, bags, nil
}

// synthesizeType returns the plan for vt, or nil after reporting why there is none.
// The string is a short outcome for tracing.
func synthesizeType(pkg *extract.Package, vt *model.ValueType, vocab *model.Vocabulary, r diag.Reporter) (*synth.Plan, string) {
	existing := false
	for _, name := range []string{"Equal", "HashCode"} {
		m, ok := pkg.HasMethod(vt.Name, name)
		if !ok {
			continue
		}
		existing = true
		diag.ReportError(r, diag.ExtMethodExists, vt.Span,
			fmt.Sprintf("%s already declares %s; remove it or drop the hasheq markers", vt.Name, name)).
			WithNote(m.Span, name+" is declared here").Emit()
	}
	if existing {
		return nil, "method-exists"
	}

	plan, err := synth.Synthesize(vt, vocab)
	var ce *policy.ConflictError
	if errors.As(err, &ce) {
		b := diag.ReportError(r, diag.PolConflictingAnnotations, vt.Span, ce.Error())
		if ce.IncludedBy != nil {
			b.WithNote(ce.IncludedBy.Span, fmt.Sprintf("%s is marked @%s", ce.IncludedBy.Name, ce.Include))
		}
		if ce.ExcludedBy != nil {
			b.WithNote(ce.ExcludedBy.Span, fmt.Sprintf("%s is marked @%s", ce.ExcludedBy.Name, ce.Exclude))
		}
		b.Emit()
		return nil, policy.Conflict.String()
	}
	return plan, plan.Outcome.String()
}

// cacheKey hashes the inputs, their names, the output-relevant config and the
// generator version.
func cacheKey(fs *source.FileSet, ids []source.FileID, cfg project.Config) project.Digest {
	names := make([]string, 0, len(ids))
	deps := make([]project.Digest, 0, len(ids)+2)
	for _, id := range ids {
		f := fs.Get(id)
		names = append(names, filepath.Base(f.Path))
		deps = append(deps, project.Digest(f.Hash))
	}
	deps = append(deps,
		project.Digest(sha256.Sum256([]byte(strings.Join(names, "\n")))),
		project.Digest(sha256.Sum256([]byte(version.Version))))
	return project.Combine(cfg.Fingerprint(), deps...)
}
