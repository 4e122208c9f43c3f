// Package visitors computes the text changes that turn one module of the
// graph into its output form.
package visitors

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"dnt/internal/graph"
	"dnt/internal/mappings"
	"dnt/internal/media"
	"dnt/internal/textchange"
)

// ErrResolution reports a module reference that did not resolve.
var ErrResolution = errors.New("could not resolve module reference")

type ModuleSpecifierParams struct {
	Module   *graph.Module
	Graph    *graph.Graph
	Mappings *mappings.Mappings
	// KeepExtensions writes runtime extensions (./x.js) instead of
	// extension-less specifiers (./x).
	KeepExtensions bool
}

// ModuleSpecifierChanges rewrites every module reference in the module to
// point at the output path of its target, relative to the module's own
// output path.
func ModuleSpecifierChanges(p ModuleSpecifierParams) ([]textchange.TextChange, error) {
	m := p.Module
	from := p.Mappings.Get(m.Specifier)
	text := m.Source.Source()

	var changes []textchange.TextChange
	for _, ref := range m.Source.Imports() {
		r, ok := m.Resolve(ref.Specifier)
		if !ok || !r.Ok() {
			cause := r.Err
			if cause == nil {
				cause = graph.ErrNotFound
			}
			return nil, fmt.Errorf("%w %q at %s: %w", ErrResolution, ref.Specifier, text.Position(ref.Span), cause)
		}
		target, err := p.Graph.MustGet(r.Specifier)
		if err != nil {
			return nil, fmt.Errorf("%w %q at %s: %w", ErrResolution, ref.Specifier, text.Position(ref.Span), err)
		}

		to := p.Mappings.Get(target.Specifier)
		rel, err := relativeSpecifier(from, to)
		if err != nil {
			return nil, fmt.Errorf("%w %q at %s: %w", ErrResolution, ref.Specifier, text.Position(ref.Span), err)
		}
		rel = withExtensionPolicy(rel, target.MediaType, p.KeepExtensions)
		if rel == ref.Specifier {
			continue
		}
		changes = append(changes, textchange.Replace(ref.Span, rel))
	}
	return changes, nil
}

// relativeSpecifier returns to relative to the directory of from, as an
// import specifier.
func relativeSpecifier(from, to string) (string, error) {
	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(from)), filepath.FromSlash(to))
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel, nil
}

// withExtensionPolicy strips or rewrites the extension of a specifier to a
// code module. JSON and declaration files are never resolved without their
// full extension.
func withExtensionPolicy(spec string, mt media.Type, keep bool) string {
	if mt == media.Json || mt.IsDeclaration() {
		return spec
	}
	stem, ext := media.SplitExt(spec)
	if keep {
		return stem + media.RuntimeExtension(ext)
	}
	return stem
}
