// Package parser turns one JavaScript or TypeScript module into plain Go
// data: the module references it contains, its scope tree, and every
// identifier occurrence resolved to a syntax context.
//
// The tree-sitter tree is walked once and released before Parse returns,
// so a ParsedSource can be shared between goroutines.
package parser

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"dnt/internal/media"
	"dnt/internal/source"
	"dnt/internal/specifier"
)

var (
	// ErrSyntax reports a module tree-sitter could not parse cleanly.
	ErrSyntax = errors.New("syntax error")
	// ErrUnsupportedMedia reports content that is not a parsable module.
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// ParsedSource is the parse result for one module.
type ParsedSource struct {
	spec      *specifier.Specifier
	mediaType media.Type
	text      *source.Text

	imports []ImportRef
	scopes  []Scope
	idents  []Ident
	events  []event

	topLevel map[string]struct{}
	names    map[string]struct{}
}

// Parse parses text as a module of media type mt. JSON modules produce an
// empty result without invoking a grammar.
func Parse(ctx context.Context, spec *specifier.Specifier, mt media.Type, text string) (*ParsedSource, error) {
	ps := &ParsedSource{
		spec:      spec,
		mediaType: mt,
		text:      source.NewText(spec.String(), text),
		topLevel:  make(map[string]struct{}),
		names:     make(map[string]struct{}),
	}
	ps.scopes = []Scope{{ID: ModuleScope, Parent: ModuleScope, Kind: ScopeModule, Bindings: make(map[string]struct{})}}

	if mt == media.Json {
		return ps, nil
	}
	lang := languageFor(mt)
	if lang == nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedMedia, mt, spec)
	}

	src := []byte(ps.text.Content)
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(lang)

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", spec, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(ps.text, root)
	}

	ps.scopes[0].Span = source.Span{Start: root.StartByte(), End: root.EndByte()}
	b := &builder{src: src, ps: ps}
	b.program(root)
	b.resolve()
	return ps, nil
}

func languageFor(mt media.Type) *sitter.Language {
	switch mt {
	case media.JavaScript, media.Jsx, media.Mjs, media.Cjs:
		return javascript.GetLanguage()
	case media.Tsx:
		return tsx.GetLanguage()
	case media.TypeScript, media.Mts, media.Cts, media.Dts, media.Dmts, media.Dcts:
		return typescript.GetLanguage()
	default:
		return nil
	}
}

func syntaxError(text *source.Text, root *sitter.Node) error {
	bad := firstError(root)
	if bad == nil {
		return fmt.Errorf("%w: %s", ErrSyntax, text.Name)
	}
	span := source.Span{Start: bad.StartByte(), End: bad.EndByte()}
	what := "unexpected token"
	if bad.IsMissing() {
		what = fmt.Sprintf("expected %q", bad.Type())
	}
	return fmt.Errorf("%w: %s at %s", ErrSyntax, what, text.Position(span))
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsMissing() || n.Type() == "ERROR" {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !c.HasError() && !c.IsMissing() {
			continue
		}
		if bad := firstError(c); bad != nil {
			return bad
		}
	}
	return nil
}

func (p *ParsedSource) Specifier() *specifier.Specifier { return p.spec }
func (p *ParsedSource) MediaType() media.Type             { return p.mediaType }

// Text returns the module text the spans refer to (BOM removed).
func (p *ParsedSource) Text() string { return p.text.Content }

// Source returns the text with its line index.
func (p *ParsedSource) Source() *source.Text { return p.text }

// Imports returns module references in source order.
func (p *ParsedSource) Imports() []ImportRef { return p.imports }

func (p *ParsedSource) Scopes() []Scope { return p.scopes }

func (p *ParsedSource) Scope(id ScopeID) *Scope { return &p.scopes[id] }

// Idents returns every identifier occurrence in source order.
func (p *ParsedSource) Idents() []Ident { return p.idents }

// TopLevelDecls returns the names bound in the module scope, including
// hoisted `var` declarations.
func (p *ParsedSource) TopLevelDecls() map[string]struct{} { return p.topLevel }

// HasTopLevelDecl reports whether name is bound in the module scope.
func (p *ParsedSource) HasTopLevelDecl(name string) bool {
	_, ok := p.topLevel[name]
	return ok
}

// AllIdentNames returns the text of every identifier-like token, whatever
// its role.
func (p *ParsedSource) AllIdentNames() map[string]struct{} { return p.names }
