package graph

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"dnt/internal/loader"
	"dnt/internal/media"
	"dnt/internal/parser"
	"dnt/internal/source"
	"dnt/internal/specifier"
	"dnt/internal/trace"
)

// Options tunes Build.
type Options struct {
	// Jobs bounds concurrent loads; <= 0 means GOMAXPROCS.
	Jobs int
	// OnLoaded is called once per module after its load and parse, from the
	// coordinating goroutine, in load order.
	OnLoaded func(spec *specifier.Specifier, err error)
}

type loaded struct {
	module *Module
	err    error
}

// Build loads every module reachable from roots. Modules are discovered in
// waves: each wave is recorded in order by a single goroutine, then loaded
// and parsed concurrently. The recorded order is therefore the same on
// every run, whatever the network does.
//
// Per-module failures are kept in the graph (see TryGet). Build itself only
// fails for invalid roots or cancellation.
func Build(ctx context.Context, roots []*specifier.Specifier, sl *loader.SourceLoader, opts Options) (*Graph, error) {
	span := trace.Start(ctx, trace.ScopeStage, "load")
	defer span.End("")
	ctx = trace.WithParent(ctx, span)

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g := &Graph{
		modules: make(map[string]*Module),
		errs:    make(map[string]error),
	}
	seen := make(map[string]struct{})
	var wave []*specifier.Specifier
	for _, r := range roots {
		if r.Kind() == specifier.KindUnsupported {
			return nil, fmt.Errorf("%w: %s", specifier.ErrUnsupportedScheme, r)
		}
		if _, ok := seen[r.String()]; ok {
			continue
		}
		seen[r.String()] = struct{}{}
		g.roots = append(g.roots, r)
		wave = append(wave, r)
	}

	for len(wave) > 0 {
		for _, s := range wave {
			if _, err := sl.Record(s); err != nil {
				return nil, err
			}
			g.order = append(g.order, s)
		}

		results := make([]loaded, len(wave))
		eg, egctx := errgroup.WithContext(ctx)
		eg.SetLimit(min(jobs, len(wave)))
		for i, s := range wave {
			eg.Go(func() error {
				if err := egctx.Err(); err != nil {
					return err
				}
				m, err := loadModule(egctx, sl, s)
				// индекс уникален для горутины, мьютекс не нужен
				results[i] = loaded{module: m, err: err}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var next []*specifier.Specifier
		enqueue := func(r Resolved) {
			if !r.Ok() {
				return
			}
			key := r.Specifier.String()
			if _, ok := seen[key]; ok {
				return
			}
			seen[key] = struct{}{}
			next = append(next, r.Specifier)
		}
		for i, s := range wave {
			res := results[i]
			if opts.OnLoaded != nil {
				opts.OnLoaded(s, res.err)
			}
			if res.err != nil {
				g.errs[s.String()] = res.err
				continue
			}
			g.modules[s.String()] = res.module
			for _, d := range res.module.Dependencies() {
				enqueue(d.Resolved)
			}
			if res.module.Types != nil {
				enqueue(res.module.Types.Resolved)
			}
		}
		wave = next
	}

	modules := g.Modules()
	g.index = BuildIndex(modules)
	g.topo = ToposortKahn(BuildEdges(g.index, modules))
	if cycles := g.Cycles(); len(cycles) > 0 {
		trace.Point(ctx, trace.ScopeStage, "cycle", strings.Join(cycles, ", "))
	}
	span.WithExtra("modules", fmt.Sprint(len(g.order)))
	return g, nil
}

func loadModule(ctx context.Context, sl *loader.SourceLoader, spec *specifier.Specifier) (*Module, error) {
	span := trace.Start(ctx, trace.ScopeModule, "module:"+spec.String())
	defer span.End("")

	resp, err := sl.Load(ctx, spec)
	if err != nil {
		return nil, err
	}

	mt := media.FromPath(spec.Path())
	if spec.Kind() == specifier.KindRemote {
		mt = media.FromHeaders(spec.Path(), resp.Headers)
	}
	if mt == media.Unknown {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMediaType, spec)
	}

	ps, err := parser.Parse(ctx, spec, mt, resp.Content)
	if err != nil {
		return nil, err
	}

	m := &Module{
		Specifier: spec,
		MediaType: mt,
		Source:    ps,
		deps:      make(map[string]*Dependency),
	}
	if text, ok := headerValue(resp.Headers, "x-typescript-types"); ok {
		m.Types = &TypesDependency{Text: text, Resolved: resolve(text, spec)}
	}

	for _, ref := range ps.Imports() {
		// the first reference types in JavaScript names its declaration file,
		// any further ones are ordinary dependencies
		if ref.Kind == parser.ImportReferenceTypes && mt.IsJavaScript() && m.Types == nil {
			r := resolve(ref.Specifier, spec)
			r.Span = ref.Span
			m.Types = &TypesDependency{Text: ref.Specifier, Resolved: r}
			continue
		}
		if d, ok := m.deps[ref.Specifier]; ok {
			d.Spans = append(d.Spans, ref.Span)
			d.IsDynamic = d.IsDynamic && ref.Kind == parser.ImportDynamic
			d.TypeOnly = d.TypeOnly && ref.TypeOnly
			continue
		}
		r := resolve(ref.Specifier, spec)
		r.Span = ref.Span
		m.deps[ref.Specifier] = &Dependency{
			Text:      ref.Specifier,
			Kind:      ref.Kind,
			IsDynamic: ref.Kind == parser.ImportDynamic,
			TypeOnly:  ref.TypeOnly,
			Resolved:  r,
			Spans:     []source.Span{ref.Span},
		}
		m.depOrder = append(m.depOrder, ref.Specifier)
	}
	return m, nil
}

// resolve never fails hard: errors are kept on the dependency so one bad
// import does not stop unrelated branches from loading.
func resolve(text string, referrer *specifier.Specifier) Resolved {
	s, err := specifier.Resolve(text, referrer)
	if err != nil {
		return Resolved{Err: err}
	}
	if s.Kind() == specifier.KindUnsupported {
		return Resolved{Err: fmt.Errorf("%w: %s", specifier.ErrUnsupportedScheme, s)}
	}
	return Resolved{Specifier: s}
}

func headerValue(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
