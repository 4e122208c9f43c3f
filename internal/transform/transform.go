// Package transform turns a Deno module graph into a tree of files that
// resolve by relative path.
package transform

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"dnt/internal/graph"
	"dnt/internal/loader"
	"dnt/internal/mappings"
	"dnt/internal/media"
	"dnt/internal/observ"
	"dnt/internal/specifier"
	"dnt/internal/textchange"
	"dnt/internal/trace"
	"dnt/internal/visitors"
)

// DefaultShimPackageName is imported when Options.ShimPackageName is empty.
const DefaultShimPackageName = "shim-package-name"

var ErrNoEntryPoint = errors.New("no entry point")

// OutputFile is one emitted module. Path is slash-separated and relative to
// the output directory.
type OutputFile struct {
	Path string
	Text string
}

type Options struct {
	EntryPoint      *specifier.Specifier
	KeepExtensions  bool
	ShimPackageName string
	// Loader defaults to loader.NewDefaultLoader().
	Loader loader.Loader
	// Jobs bounds concurrent loads and rewrites; <= 0 means GOMAXPROCS.
	Jobs int

	Progress ProgressSink
	Notice   loader.Notice
	Timer    *observ.Timer
}

// Transform loads the graph reachable from the entry point and returns the
// rewritten modules: local files first, then remote ones, then declaration
// files. The first error aborts the run and no files are returned.
func Transform(ctx context.Context, opts Options) ([]OutputFile, error) {
	if opts.EntryPoint == nil {
		return nil, ErrNoEntryPoint
	}
	if opts.ShimPackageName == "" {
		opts.ShimPackageName = DefaultShimPackageName
	}
	if opts.Loader == nil {
		opts.Loader = loader.NewDefaultLoader()
	}
	if opts.Progress == nil {
		opts.Progress = nopSink{}
	}
	if opts.Timer == nil {
		opts.Timer = observ.NewTimer()
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	span := trace.Start(ctx, trace.ScopeDriver, "transform")
	defer span.End("")
	ctx = trace.WithParent(ctx, span)

	sl := loader.NewSourceLoader(opts.Loader).WithNotice(opts.Notice)

	// load
	idx := opts.Timer.Begin(string(StageLoad))
	opts.Progress.OnEvent(Event{Stage: StageLoad, Status: StatusWorking})
	g, err := graph.Build(ctx, []*specifier.Specifier{opts.EntryPoint}, sl, graph.Options{
		Jobs: jobs,
		OnLoaded: func(spec *specifier.Specifier, err error) {
			ev := Event{Module: spec.String(), Stage: StageLoad, Status: StatusDone, Err: err}
			if err != nil {
				ev.Status = StatusError
			}
			opts.Progress.OnEvent(ev)
		},
	})
	if err != nil {
		opts.Timer.End(idx, "failed")
		return nil, err
	}
	opts.Timer.EndCount(idx, "", g.Len())

	// map
	idx = opts.Timer.Begin(string(StageMap))
	opts.Progress.OnEvent(Event{Stage: StageMap, Status: StatusWorking})
	specs, err := collectSpecifiers(sl.Recorder(), g)
	if err != nil {
		opts.Timer.End(idx, "failed")
		return nil, err
	}
	mapped, err := mappings.New(specs, func(s *specifier.Specifier) (media.Type, bool) {
		if m := g.Get(s); m != nil {
			return m.MediaType, true
		}
		return media.Unknown, false
	})
	if err != nil {
		opts.Timer.End(idx, "failed")
		return nil, err
	}
	opts.Timer.EndCount(idx, "", mapped.Len())

	// rewrite
	idx = opts.Timer.Begin(string(StageRewrite))
	opts.Progress.OnEvent(Event{Stage: StageRewrite, Status: StatusWorking})
	out, err := rewriteAll(ctx, g, mapped, specs.All(), opts, jobs)
	if err != nil {
		opts.Timer.End(idx, "failed")
		return nil, err
	}
	opts.Timer.EndCount(idx, "", len(out))

	span.WithExtra("files", fmt.Sprint(len(out)))
	return out, nil
}

// collectSpecifiers checks every recorded module and gathers the types
// pairs. Any module that failed to load aborts the run here.
func collectSpecifiers(rec *loader.Recorder, g *graph.Graph) (mappings.Specifiers, error) {
	local, remote := rec.Local(), rec.Remote()
	types := make(map[string]mappings.TypesPair)
	for _, list := range [][]*specifier.Specifier{local, remote} {
		for _, s := range list {
			m, err := g.MustGet(s)
			if err != nil {
				return mappings.Specifiers{}, err
			}
			if m.Types == nil {
				continue
			}
			if !m.Types.Resolved.Ok() {
				return mappings.Specifiers{}, fmt.Errorf("error resolving types for %s with reference %s: %w",
					s, m.Types.Text, m.Types.Resolved.Err)
			}
			types[s.String()] = mappings.TypesPair{Code: s, Types: m.Types.Resolved.Specifier}
		}
	}
	return mappings.NewSpecifiers(local, remote, types), nil
}

func rewriteAll(ctx context.Context, g *graph.Graph, mapped *mappings.Mappings, order []*specifier.Specifier, opts Options, jobs int) ([]OutputFile, error) {
	span := trace.Start(ctx, trace.ScopeStage, "rewrite")
	defer span.End("")
	ctx = trace.WithParent(ctx, span)

	results := make([]OutputFile, len(order))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for i, s := range order {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			opts.Progress.OnEvent(Event{Module: s.String(), Stage: StageRewrite, Status: StatusWorking})
			file, err := rewriteModule(egctx, g, mapped, s, opts)
			ev := Event{Module: s.String(), Stage: StageRewrite, Status: StatusDone, Err: err, Elapsed: time.Since(start)}
			if err != nil {
				ev.Status = StatusError
			}
			opts.Progress.OnEvent(ev)
			if err != nil {
				return err
			}
			// слот принадлежит только этой горутине
			results[i] = file
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func rewriteModule(ctx context.Context, g *graph.Graph, mapped *mappings.Mappings, s *specifier.Specifier, opts Options) (OutputFile, error) {
	span := trace.Start(ctx, trace.ScopeModule, "rewrite:"+s.String())
	defer span.End("")

	m, err := g.MustGet(s)
	if err != nil {
		return OutputFile{}, err
	}
	changes, err := visitors.ModuleSpecifierChanges(visitors.ModuleSpecifierParams{
		Module:         m,
		Graph:          g,
		Mappings:       mapped,
		KeepExtensions: opts.KeepExtensions,
	})
	if err != nil {
		return OutputFile{}, err
	}
	changes = append(changes, visitors.DenoGlobalChanges(visitors.DenoGlobalParams{
		Source:          m.Source,
		ShimPackageName: opts.ShimPackageName,
	})...)

	text, err := textchange.Apply(m.Text(), changes)
	if err != nil {
		return OutputFile{}, fmt.Errorf("%s: %w", s, err)
	}
	span.WithExtra("changes", fmt.Sprint(len(changes)))
	return OutputFile{Path: mapped.Get(s), Text: text}, nil
}
