package visitors

import (
	"context"
	"testing"

	"dnt/internal/media"
	"dnt/internal/parser"
	"dnt/internal/specifier"
	"dnt/internal/testkit"
	"dnt/internal/textchange"
)

func shim(t *testing.T, text, pkg string) string {
	t.Helper()
	ps, err := parser.Parse(context.Background(), specifier.MustParse("file:///mod.ts"), media.TypeScript, text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := testkit.CheckSpanInvariants(ps); err != nil {
		t.Fatalf("span invariants: %v", err)
	}
	changes := DenoGlobalChanges(DenoGlobalParams{Source: ps, ShimPackageName: pkg})
	out, err := textchange.Apply(text, changes)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return out
}

func TestDenoGlobalChanges(t *testing.T) {
	tests := []struct {
		name string
		pkg  string
		in   string
		want string
	}{
		{
			name: "no globals",
			in:   "test;",
			want: "test;",
		},
		{
			name: "simple",
			pkg:  "shim-package-name",
			in:   "Deno.readTextFile();",
			want: "import * as denoShim from \"shim-package-name\";\ndenoShim.Deno.readTextFile();",
		},
		{
			name: "alias collision",
			pkg:  "test-shim",
			in:   "Deno.readTextFile(); const denoShim = {};",
			want: "import * as denoShim1 from \"test-shim\";\ndenoShim1.Deno.readTextFile(); const denoShim = {};",
		},
		{
			name: "alias collision twice",
			pkg:  "s",
			in:   "Deno; denoShim; denoShim1;",
			want: "import * as denoShim2 from \"s\";\ndenoShim2.Deno; denoShim; denoShim1;",
		},
		{
			name: "globalThis",
			pkg:  "test-shim",
			in:   "globalThis.Deno.readTextFile();",
			want: "import * as denoShim from \"test-shim\";\n({ ...globalThis, Deno: denoShim.Deno }).Deno.readTextFile();",
		},
		{
			name: "top level Deno declaration",
			pkg:  "test-shim",
			in:   "const Deno = {};const { Deno: Deno2 } = globalThis;Deno2.readTextFile();Deno.test;",
			want: "import * as denoShim from \"test-shim\";\nconst Deno = {};const { Deno: Deno2 } = ({ ...globalThis, Deno: denoShim.Deno });Deno2.readTextFile();Deno.test;",
		},
		{
			name: "parameter shadows",
			pkg:  "s",
			in:   "function f(Deno: any) { return Deno.x; } Deno.y;",
			want: "import * as denoShim from \"s\";\nfunction f(Deno: any) { return Deno.x; } denoShim.Deno.y;",
		},
		{
			name: "block binding shadows",
			pkg:  "s",
			in:   "{ const Deno = 1; Deno; } Deno;",
			want: "import * as denoShim from \"s\";\n{ const Deno = 1; Deno; } denoShim.Deno;",
		},
		{
			name: "shorthand property",
			pkg:  "s",
			in:   "const o = { Deno };",
			want: "import * as denoShim from \"s\";\nconst o = { Deno: denoShim.Deno };",
		},
		{
			name: "property names untouched",
			pkg:  "s",
			in:   "x.Deno; const o = { Deno: 1 };",
			want: "x.Deno; const o = { Deno: 1 };",
		},
		{
			name: "declared globalThis",
			pkg:  "s",
			in:   "const globalThis = {}; globalThis.x;",
			want: "const globalThis = {}; globalThis.x;",
		},
		{
			name: "export list binds Deno locally",
			pkg:  "s",
			in:   "export { Deno };",
			want: "import * as denoShim from \"s\";\nconst Deno = denoShim.Deno;\nexport { Deno };",
		},
		{
			name: "export list with alias and references",
			pkg:  "s",
			in:   "Deno.x; export { Deno as D };",
			want: "import * as denoShim from \"s\";\nconst Deno = denoShim.Deno;\ndenoShim.Deno.x; export { Deno as D };",
		},
		{
			name: "typeof in type position",
			pkg:  "s",
			in:   "let x: typeof globalThis; let y: typeof Deno;",
			want: "import * as denoShim from \"s\";\nlet x: typeof globalThis; let y: typeof denoShim.Deno;",
		},
		{
			name: "typeof globalThis alone",
			pkg:  "s",
			in:   "let x: typeof globalThis;",
			want: "let x: typeof globalThis;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shim(t, tt.in, tt.pkg); got != tt.want {
				t.Fatalf("got\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestDenoGlobalChangesSourceOrder(t *testing.T) {
	text := "Deno.a; globalThis.b; Deno.c;"
	ps, err := parser.Parse(context.Background(), specifier.MustParse("file:///mod.ts"), media.TypeScript, text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	changes := DenoGlobalChanges(DenoGlobalParams{Source: ps, ShimPackageName: "s"})
	if len(changes) != 4 {
		t.Fatalf("got %d changes, want 4", len(changes))
	}
	for i := 1; i < 3; i++ {
		if changes[i-1].Span.Start >= changes[i].Span.Start {
			t.Fatalf("changes out of order: %v", changes)
		}
	}
	if last := changes[3]; !last.Span.Empty() || last.Span.Start != 0 {
		t.Fatalf("import insertion should come last at offset 0: %v", last)
	}
}

func TestUniqueName(t *testing.T) {
	taken := map[string]struct{}{"a": {}, "a1": {}, "a3": {}}
	if got := uniqueName("a", taken); got != "a2" {
		t.Fatalf("uniqueName = %q", got)
	}
	if got := uniqueName("b", taken); got != "b" {
		t.Fatalf("uniqueName = %q", got)
	}
}
