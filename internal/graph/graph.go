// Package graph resolves the module graph reachable from a set of roots.
package graph

import (
	"errors"
	"fmt"

	"dnt/internal/media"
	"dnt/internal/parser"
	"dnt/internal/source"
	"dnt/internal/specifier"
)

var (
	// ErrUnknownMediaType is stored for modules whose content type cannot be
	// classified.
	ErrUnknownMediaType = errors.New("unknown media type")
	// ErrNotFound is returned by Graph.TryGet callers that expect a module.
	ErrNotFound = errors.New("module not found in graph")
)

// Resolved is the outcome of resolving one module reference.
type Resolved struct {
	Specifier *specifier.Specifier
	Err       error
	Span      source.Span // where the reference text sits in the referrer
}

// Ok reports whether resolution produced a specifier.
func (r Resolved) Ok() bool { return r.Err == nil && r.Specifier != nil }

// Dependency is one distinct reference text inside a module. The same text
// may appear several times; Spans lists all of them.
type Dependency struct {
	Text      string
	Kind      parser.ImportKind // kind of the first occurrence
	IsDynamic bool
	TypeOnly  bool
	Resolved  Resolved
	Spans     []source.Span
}

// TypesDependency points a JavaScript module at its declaration file.
type TypesDependency struct {
	Text     string
	Resolved Resolved
}

// Module is a successfully loaded and parsed module.
type Module struct {
	Specifier *specifier.Specifier
	MediaType media.Type
	Source    *parser.ParsedSource

	deps     map[string]*Dependency
	depOrder []string

	// Types is set from an X-TypeScript-Types header or a
	// `/// <reference types>` directive in a JavaScript module.
	Types *TypesDependency
}

// Text returns the module text that parser spans refer to.
func (m *Module) Text() string { return m.Source.Text() }

// Dependency returns the dependency written as text.
func (m *Module) Dependency(text string) (*Dependency, bool) {
	d, ok := m.deps[text]
	return d, ok
}

// Dependencies returns dependencies in first-occurrence order.
func (m *Module) Dependencies() []*Dependency {
	out := make([]*Dependency, len(m.depOrder))
	for i, text := range m.depOrder {
		out[i] = m.deps[text]
	}
	return out
}

// Resolve returns the resolution of a reference text, falling back to the
// types dependency for `/// <reference types>` in JavaScript.
func (m *Module) Resolve(text string) (Resolved, bool) {
	if d, ok := m.deps[text]; ok {
		return d.Resolved, true
	}
	if m.Types != nil && m.Types.Text == text {
		return m.Types.Resolved, true
	}
	return Resolved{}, false
}

// Graph is the result of Build. It is read-only after Build returns.
type Graph struct {
	roots   []*specifier.Specifier
	order   []*specifier.Specifier // load order
	modules map[string]*Module
	errs    map[string]error

	index ModuleIndex
	topo  *Topo
}

func (g *Graph) Roots() []*specifier.Specifier { return g.roots }

// Get returns the module for spec, or nil if it is unknown or failed.
func (g *Graph) Get(spec *specifier.Specifier) *Module {
	return g.modules[spec.String()]
}

// TryGet returns the module or its load error. Unknown specifiers return
// (nil, nil).
func (g *Graph) TryGet(spec *specifier.Specifier) (*Module, error) {
	key := spec.String()
	if err, ok := g.errs[key]; ok {
		return nil, err
	}
	return g.modules[key], nil
}

// MustGet is TryGet for callers that require the module to exist.
func (g *Graph) MustGet(spec *specifier.Specifier) (*Module, error) {
	m, err := g.TryGet(spec)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, spec)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, spec)
	}
	return m, nil
}

// Modules returns every loaded module in load order.
func (g *Graph) Modules() []*Module {
	out := make([]*Module, 0, len(g.modules))
	for _, s := range g.order {
		if m, ok := g.modules[s.String()]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Len counts loaded and failed modules.
func (g *Graph) Len() int { return len(g.order) }

// Cycles lists modules that take part in import cycles, sorted.
func (g *Graph) Cycles() []string {
	if g.topo == nil || !g.topo.Cyclic {
		return nil
	}
	out := make([]string, len(g.topo.Cycles))
	for i, id := range g.topo.Cycles {
		out[i] = g.index.IDToName[id]
	}
	return out
}
