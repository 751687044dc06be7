package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"hasheq/internal/trace"
)

// Job is one package directory together with the options to run it with.
type Job struct {
	Dir     string
	Options Options
}

// ExpandPatterns turns command-line package arguments into a sorted list of
// absolute directories. An argument ending in "/..." selects the directory and
// every subdirectory below it that holds Go files.
func ExpandPatterns(ctx context.Context, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	seen := make(map[string]struct{})
	var dirs []string
	add := func(dir string) {
		if _, ok := seen[dir]; ok {
			return
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}

	for _, p := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		root, recursive := strings.CutSuffix(filepath.ToSlash(p), "/...")
		if root == "..." {
			root, recursive = ".", true
		}
		abs, err := filepath.Abs(filepath.FromSlash(root))
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, &fs.PathError{Op: "expand", Path: p, Err: fs.ErrInvalid}
		}
		if !recursive {
			add(abs)
			continue
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != abs && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			ok, err := hasGoFiles(path)
			if err != nil {
				return err
			}
			if ok {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(dirs)
	return dirs, nil
}

// skipDir mirrors the go tool: testdata, vendor and names starting with . or _
// are not packages.
func skipDir(name string) bool {
	return name == "testdata" || name == "vendor" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func hasGoFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".go") {
			return true, nil
		}
	}
	return false, nil
}

// GenerateAll runs GeneratePackage for every job, at most parallel at a time.
// Results are indexed like jobs. Every job gets a queued event up front and a
// done or error event when it finishes; a package whose bag has errors counts
// as an error.
func GenerateAll(ctx context.Context, jobs []Job, parallel int, sink ProgressSink) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}
	for _, job := range jobs {
		emit(sink, Event{Dir: job.Dir, Status: StatusQueued})
	}

	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "generate_all", trace.ParentID(ctx))
	span.WithExtra("packages", strconv.Itoa(len(jobs)))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	// индексы уникальны для каждой горутины, мьютекс не нужен
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(parallel, len(jobs)))
	for i, job := range jobs {
		g.Go(func() error {
			start := time.Now()
			opts := job.Options
			if opts.Progress == nil {
				opts.Progress = sink
			}
			res, err := GeneratePackage(gctx, job.Dir, opts)
			evt := Event{Dir: job.Dir, Status: StatusDone, Elapsed: time.Since(start)}
			switch {
			case err != nil:
				evt.Status, evt.Err = StatusError, err
			case res.Bag.HasErrors():
				evt.Status = StatusError
			}
			emit(sink, evt)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
