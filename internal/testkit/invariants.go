package testkit

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"dnt/internal/parser"
	"dnt/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed module:
// 1) every identifier span is non-empty, within the text and spells its name
// 2) every import span is within the text and sits between matching quotes
// 3) every nested scope span is contained in its parent scope span
func CheckSpanInvariants(ps *parser.ParsedSource) error {
	if ps == nil {
		return fmt.Errorf("nil parsed source")
	}
	text := ps.Text()
	n, err := safecast.Conv[uint32](len(text))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	within := func(sp source.Span) bool {
		return sp.Start <= sp.End && sp.End <= n
	}

	// 1) identifiers
	for _, id := range ps.Idents() {
		sp := id.Span
		if sp.Empty() {
			return fmt.Errorf("empty span for identifier %q", id.Name)
		}
		if !within(sp) {
			return fmt.Errorf("identifier %q span %v beyond content %d", id.Name, sp, n)
		}
		got := text[sp.Start:sp.End]
		if got != id.Name && got != "#"+id.Name {
			return fmt.Errorf("identifier span %v spells %q, want %q", sp, got, id.Name)
		}
	}

	// 2) imports
	for _, ref := range ps.Imports() {
		sp := ref.Span
		if !within(sp) || sp.Start == 0 || sp.End >= n {
			return fmt.Errorf("import %q span %v has no room for quotes", ref.Specifier, sp)
		}
		open, closing := text[sp.Start-1], text[sp.End]
		if open != closing || (open != '"' && open != '\'') {
			return fmt.Errorf("import %q span %v is not quoted", ref.Specifier, sp)
		}
		// escapes are unquoted, so only plain bodies must match verbatim
		if body := text[sp.Start:sp.End]; !strings.Contains(body, `\`) && body != ref.Specifier {
			return fmt.Errorf("import span %v spells %q, want %q", sp, body, ref.Specifier)
		}
	}

	// 3) scopes nest
	scopes := ps.Scopes()
	for i := range scopes {
		sc := &scopes[i]
		if sc.Parent == sc.ID {
			continue
		}
		parent := &scopes[sc.Parent]
		if sc.Span.Empty() || parent.Span.Empty() {
			continue
		}
		if sc.Span.Start < parent.Span.Start || sc.Span.End > parent.Span.End {
			return fmt.Errorf("%s scope %v is outside %s scope %v", sc.Kind, sc.Span, parent.Kind, parent.Span)
		}
	}
	return nil
}
