package visitors

import (
	"fmt"
	"strconv"

	"dnt/internal/parser"
	"dnt/internal/source"
	"dnt/internal/textchange"
)

const (
	denoGlobal  = "Deno"
	globalThis  = "globalThis"
	shimAliasID = "denoShim"
)

type DenoGlobalParams struct {
	Source          *parser.ParsedSource
	ShimPackageName string
}

// shimContext accumulates state while walking one module.
type shimContext struct {
	alias          string
	declaresDeno   bool
	declaresGlobal bool
	importShim     bool
	exportsDeno    bool // `export { Deno }` needs a local binding
	changes        []textchange.TextChange
}

// DenoGlobalChanges routes references to the Deno global through an
// import of the shim package. References shadowed by a local binding are
// left alone, and so is everything when the module declares Deno itself.
func DenoGlobalChanges(p DenoGlobalParams) []textchange.TextChange {
	ps := p.Source
	ctx := &shimContext{
		alias:          uniqueName(shimAliasID, ps.AllIdentNames()),
		declaresDeno:   ps.HasTopLevelDecl(denoGlobal),
		declaresGlobal: ps.HasTopLevelDecl(globalThis),
	}
	ps.Walk(parser.Visitor{Ident: ctx.ident})

	if !ctx.importShim {
		return ctx.changes
	}
	imp := fmt.Sprintf("import * as %s from %s;\n", ctx.alias, strconv.Quote(p.ShimPackageName))
	if ctx.exportsDeno {
		imp += fmt.Sprintf("const %s = %s.Deno;\n", denoGlobal, ctx.alias)
	}
	return append(ctx.changes, textchange.Insert(0, imp))
}

func (c *shimContext) ident(id *parser.Ident) {
	switch id.Kind {
	case parser.IdentReference, parser.IdentShorthand:
	case parser.IdentExport:
		// an export list names bindings, not expressions
		if id.IsTopLevel() && id.Name == denoGlobal && !c.declaresDeno {
			c.exportsDeno = true
			c.importShim = true
		}
		return
	case parser.IdentTypeQuery:
		// `typeof denoShim.Deno` is a valid type, a spread object is not
		if id.Name != denoGlobal {
			return
		}
	default:
		return
	}
	if !id.IsTopLevel() {
		return
	}

	var expr string
	switch {
	case id.Name == denoGlobal && !c.declaresDeno:
		expr = c.alias + ".Deno"
	case id.Name == globalThis && !c.declaresGlobal:
		expr = fmt.Sprintf("({ ...globalThis, Deno: %s.Deno })", c.alias)
	default:
		return
	}
	if id.Kind == parser.IdentShorthand {
		// { Deno } -> { Deno: denoShim.Deno }
		expr = id.Name + ": " + expr
	}
	c.replace(id.Span, expr)
}

func (c *shimContext) replace(span source.Span, text string) {
	c.changes = append(c.changes, textchange.Replace(span, text))
	c.importShim = true
}

// uniqueName returns base, or base followed by the first counter from 1
// that is not already used in the module. Counting starts at 1 so the
// first collision yields denoShim1, the name existing dnt output uses.
func uniqueName(base string, taken map[string]struct{}) string {
	name := base
	for n := 1; ; n++ {
		if _, ok := taken[name]; !ok {
			return name
		}
		name = base + strconv.Itoa(n)
	}
}
