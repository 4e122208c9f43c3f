package parser

import (
	"context"
	"errors"
	"testing"

	"dnt/internal/media"
	"dnt/internal/specifier"
)

func mustParse(t *testing.T, mt media.Type, text string) *ParsedSource {
	t.Helper()
	ps, err := Parse(context.Background(), specifier.MustParse("file:///mod.ts"), mt, text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ps
}

// find returns the n-th occurrence (0-based) of name.
func find(t *testing.T, ps *ParsedSource, name string, n int) Ident {
	t.Helper()
	for _, id := range ps.Idents() {
		if id.Name != name {
			continue
		}
		if n == 0 {
			return id
		}
		n--
	}
	t.Fatalf("identifier %q not found", name)
	return Ident{}
}

func TestImports(t *testing.T) {
	text := `// @deno-types="./types.d.ts"
import def, { a as b, c } from "./a.ts";
export * from './b.ts';
export { x } from "https://deno.land/x/mod.ts";
const m = await import("./dyn.ts");
import type { T } from "./types.ts";
`
	ps := mustParse(t, media.TypeScript, text)

	want := []struct {
		kind     ImportKind
		spec     string
		typeOnly bool
	}{
		{ImportDenoTypes, "./types.d.ts", false},
		{ImportStatic, "./a.ts", false},
		{ImportExport, "./b.ts", false},
		{ImportExport, "https://deno.land/x/mod.ts", false},
		{ImportDynamic, "./dyn.ts", false},
		{ImportStatic, "./types.ts", true},
	}
	got := ps.Imports()
	if len(got) != len(want) {
		t.Fatalf("got %d imports, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		g := got[i]
		if g.Kind != w.kind || g.Specifier != w.spec || g.TypeOnly != w.typeOnly {
			t.Errorf("import %d = {%s %q %v}, want {%s %q %v}", i, g.Kind, g.Specifier, g.TypeOnly, w.kind, w.spec, w.typeOnly)
		}
		if inner := text[g.Span.Start:g.Span.End]; inner != w.spec {
			t.Errorf("import %d span covers %q, want %q", i, inner, w.spec)
		}
	}
}

func TestTripleSlashReference(t *testing.T) {
	text := "/// <reference types=\"./mod.d.ts\" />\nexport const a = 1;\n"
	ps := mustParse(t, media.JavaScript, text)
	imports := ps.Imports()
	if len(imports) != 1 {
		t.Fatalf("got %d imports, want 1", len(imports))
	}
	if imports[0].Kind != ImportReferenceTypes || imports[0].Specifier != "./mod.d.ts" {
		t.Fatalf("unexpected import: %+v", imports[0])
	}
	if !imports[0].Kind.IsTypeOnly() {
		t.Fatal("reference types should be type only")
	}
}

func TestScopeResolution(t *testing.T) {
	ps := mustParse(t, media.TypeScript,
		"const Deno = {}; function f(Deno) { return Deno; } Deno.x; globalThis.y;")

	tests := []struct {
		name     string
		nth      int
		kind     IdentKind
		topLevel bool
	}{
		{"Deno", 0, IdentBinding, true},
		{"f", 0, IdentBinding, true},
		{"Deno", 1, IdentBinding, false},
		{"Deno", 2, IdentReference, false},
		{"Deno", 3, IdentReference, true},
		{"x", 0, IdentProperty, false},
		{"globalThis", 0, IdentReference, true},
	}
	for _, tt := range tests {
		id := find(t, ps, tt.name, tt.nth)
		if id.Kind != tt.kind || id.IsTopLevel() != tt.topLevel {
			t.Errorf("%s#%d = {%s top=%v}, want {%s top=%v}", tt.name, tt.nth, id.Kind, id.IsTopLevel(), tt.kind, tt.topLevel)
		}
	}
	if find(t, ps, "Deno", 1).Ctxt != find(t, ps, "Deno", 2).Ctxt {
		t.Error("parameter and its use should share a context")
	}
	if find(t, ps, "x", 0).Ctxt != NoContext {
		t.Error("property names have no context")
	}

	decls := ps.TopLevelDecls()
	for _, name := range []string{"Deno", "f"} {
		if _, ok := decls[name]; !ok {
			t.Errorf("top-level decls missing %q", name)
		}
	}
	if ps.HasTopLevelDecl("globalThis") {
		t.Error("globalThis is not declared")
	}
}

func TestVarHoisting(t *testing.T) {
	ps := mustParse(t, media.JavaScript, "{ var a = 1; let b = 2; } function g() { var c; } a; b;")
	if !ps.HasTopLevelDecl("a") {
		t.Error("var should hoist to module scope")
	}
	if ps.HasTopLevelDecl("b") || ps.HasTopLevelDecl("c") {
		t.Error("block and function bindings must not be top-level")
	}
	if id := find(t, ps, "b", 0); id.IsTopLevel() {
		t.Error("block-scoped binding should not carry the top-level context")
	}
}

func TestPatternsAndShorthand(t *testing.T) {
	ps := mustParse(t, media.TypeScript,
		"const { Deno: Deno2 } = globalThis; const o = { Deno }; try {} catch (e) { e; }")

	if id := find(t, ps, "Deno", 0); id.Kind != IdentProperty {
		t.Errorf("pattern key kind = %s, want property", id.Kind)
	}
	if id := find(t, ps, "Deno2", 0); id.Kind != IdentBinding || !id.IsTopLevel() {
		t.Errorf("Deno2 = {%s top=%v}", id.Kind, id.IsTopLevel())
	}
	if id := find(t, ps, "Deno", 1); id.Kind != IdentShorthand || !id.IsTopLevel() {
		t.Errorf("shorthand Deno = {%s top=%v}", id.Kind, id.IsTopLevel())
	}
	if id := find(t, ps, "e", 1); id.IsTopLevel() {
		t.Error("catch parameter should resolve to the catch scope")
	}
}

func TestExportAndTypeQueryKinds(t *testing.T) {
	ps := mustParse(t, media.TypeScript,
		"let x: typeof globalThis; let y: typeof Deno.env; export { Deno, x as z };")

	if id := find(t, ps, "globalThis", 0); id.Kind != IdentTypeQuery || !id.IsTopLevel() {
		t.Errorf("globalThis = {%s top=%v}, want type query", id.Kind, id.IsTopLevel())
	}
	if id := find(t, ps, "Deno", 0); id.Kind != IdentTypeQuery || !id.IsTopLevel() {
		t.Errorf("typeof Deno = {%s top=%v}, want type query", id.Kind, id.IsTopLevel())
	}
	if id := find(t, ps, "env", 0); id.Kind != IdentProperty {
		t.Errorf("env kind = %s, want property", id.Kind)
	}
	if id := find(t, ps, "Deno", 1); id.Kind != IdentExport || !id.IsTopLevel() {
		t.Errorf("exported Deno = {%s top=%v}, want export", id.Kind, id.IsTopLevel())
	}
	if id := find(t, ps, "x", 1); id.Kind != IdentExport || !id.IsTopLevel() {
		t.Errorf("exported x = {%s top=%v}", id.Kind, id.IsTopLevel())
	}
	if id := find(t, ps, "z", 0); id.Kind != IdentProperty {
		t.Errorf("export alias kind = %s, want property", id.Kind)
	}
}

func TestAllIdentNames(t *testing.T) {
	ps := mustParse(t, media.TypeScript, "Deno.readTextFile(); const denoShim = {};")
	names := ps.AllIdentNames()
	for _, want := range []string{"Deno", "readTextFile", "denoShim"} {
		if _, ok := names[want]; !ok {
			t.Errorf("AllIdentNames missing %q", want)
		}
	}
}

func TestWalkOrder(t *testing.T) {
	ps := mustParse(t, media.JavaScript, "a; function f(b) { c; } d;")
	var trace []string
	ps.Walk(Visitor{
		EnterScope: func(s *Scope) { trace = append(trace, "enter:"+s.Kind.String()) },
		ExitScope:  func(s *Scope) { trace = append(trace, "exit:"+s.Kind.String()) },
		Ident:      func(id *Ident) { trace = append(trace, id.Name) },
	})
	want := []string{"enter:module", "a", "f", "enter:function", "b", "c", "exit:function", "d", "exit:module"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestSyntaxError(t *testing.T) {
	_, err := Parse(context.Background(), specifier.MustParse("file:///bad.ts"), media.TypeScript, "const = ;")
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}
}

func TestJSONIsNotParsed(t *testing.T) {
	ps := mustParse(t, media.Json, `{"import": "./x.ts"}`)
	if len(ps.Imports()) != 0 || len(ps.Idents()) != 0 {
		t.Fatal("JSON modules have no imports or identifiers")
	}
}

func TestUnsupportedMedia(t *testing.T) {
	_, err := Parse(context.Background(), specifier.MustParse("file:///a.wasm"), media.Wasm, "")
	if !errors.Is(err, ErrUnsupportedMedia) {
		t.Fatalf("expected ErrUnsupportedMedia, got %v", err)
	}
}
