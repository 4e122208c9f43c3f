package visitors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dnt/internal/graph"
	"dnt/internal/loader"
	"dnt/internal/mappings"
	"dnt/internal/media"
	"dnt/internal/specifier"
	"dnt/internal/textchange"
)

type fixture struct {
	g *graph.Graph
	m *mappings.Mappings
}

func newFixture(t *testing.T, mem *loader.MemoryLoader, root string) fixture {
	t.Helper()
	sl := loader.NewSourceLoader(mem)
	g, err := graph.Build(context.Background(), []*specifier.Specifier{specifier.MustParse(root)}, sl, graph.Options{Jobs: 2})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rec := sl.Recorder()
	m, err := mappings.New(mappings.NewSpecifiers(rec.Local(), rec.Remote(), nil), func(s *specifier.Specifier) (media.Type, bool) {
		if mod := g.Get(s); mod != nil {
			return mod.MediaType, true
		}
		return media.Unknown, false
	})
	if err != nil {
		t.Fatalf("mappings.New: %v", err)
	}
	return fixture{g: g, m: m}
}

func (f fixture) rewrite(t *testing.T, spec string, keep bool) string {
	t.Helper()
	mod := f.g.Get(specifier.MustParse(spec))
	if mod == nil {
		t.Fatalf("%s not in graph", spec)
	}
	changes, err := ModuleSpecifierChanges(ModuleSpecifierParams{Module: mod, Graph: f.g, Mappings: f.m, KeepExtensions: keep})
	if err != nil {
		t.Fatalf("ModuleSpecifierChanges: %v", err)
	}
	out, err := textchange.Apply(mod.Text(), changes)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return out
}

func TestModuleSpecifierChanges(t *testing.T) {
	mem := loader.NewMemoryLoader().
		AddLocalFile("/src/mod.ts", strings.Join([]string{
			`import * as other from './other.ts';`,
			`export * from "./other.ts";`,
			`import data from "../data.json";`,
			`// @deno-types="./lib.d.ts"`,
			`import lib from "./lib.js";`,
			`const b = await import("../util/b.ts");`,
		}, "\n")).
		AddLocalFile("/src/other.ts", `export const o = 1;`).
		AddLocalFile("/data.json", `{"a": 1}`).
		AddLocalFile("/src/lib.js", `export default 1;`).
		AddLocalFile("/src/lib.d.ts", `declare const x: number; export default x;`).
		AddLocalFile("/util/b.ts", `export const b = 2;`)
	f := newFixture(t, mem, "file:///src/mod.ts")

	tests := []struct {
		name string
		keep bool
		want []string
	}{
		{
			name: "strip extensions",
			want: []string{
				`import * as other from './other';`,
				`export * from "./other";`,
				`import data from "../data.json";`,
				`// @deno-types="./lib.d.ts"`,
				`import lib from "./lib";`,
				`const b = await import("../util/b");`,
			},
		},
		{
			name: "keep extensions",
			keep: true,
			want: []string{
				`import * as other from './other.js';`,
				`export * from "./other.js";`,
				`import data from "../data.json";`,
				`// @deno-types="./lib.d.ts"`,
				`import lib from "./lib.js";`,
				`const b = await import("../util/b.js");`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.rewrite(t, "file:///src/mod.ts", tt.keep)
			if want := strings.Join(tt.want, "\n"); got != want {
				t.Fatalf("got\n%s\nwant\n%s", got, want)
			}
		})
	}
}

func TestModuleSpecifierChangesRemote(t *testing.T) {
	mem := loader.NewMemoryLoader().
		AddLocalFile("/mod.ts", `import * as other from 'http://localhost/mod.ts';`).
		AddRemoteFile("http://localhost/mod.ts", `import * as myOther from './other.ts';`).
		AddRemoteFile("http://localhost/other.ts", `5`)
	f := newFixture(t, mem, "file:///mod.ts")

	if got, want := f.rewrite(t, "file:///mod.ts", false), `import * as other from './deps/0';`; got != want {
		t.Fatalf("mod.ts: got %q, want %q", got, want)
	}
	if got, want := f.rewrite(t, "http://localhost/mod.ts", false), `import * as myOther from './0/other';`; got != want {
		t.Fatalf("deps/0.ts: got %q, want %q", got, want)
	}
}

func TestModuleSpecifierChangesUnresolved(t *testing.T) {
	mem := loader.NewMemoryLoader().
		AddLocalFile("/mod.ts", `import x from "lodash";`)
	f := newFixture(t, mem, "file:///mod.ts")

	mod := f.g.Get(specifier.MustParse("file:///mod.ts"))
	_, err := ModuleSpecifierChanges(ModuleSpecifierParams{Module: mod, Graph: f.g, Mappings: f.m})
	if !errors.Is(err, ErrResolution) {
		t.Fatalf("expected ErrResolution, got %v", err)
	}
	for _, part := range []string{`"lodash"`, "file:///mod.ts:1:"} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("error %q should contain %q", err, part)
		}
	}
}

func TestRelativeSpecifier(t *testing.T) {
	tests := []struct{ from, to, want string }{
		{"mod.ts", "other.ts", "./other.ts"},
		{"mod.ts", "deps/0.ts", "./deps/0.ts"},
		{"deps/0.ts", "deps/0/other.ts", "./0/other.ts"},
		{"deps/0/a/b.ts", "deps/1.ts", "../../1.ts"},
		{"src/mod.ts", "lib/x.ts", "../lib/x.ts"},
	}
	for _, tt := range tests {
		got, err := relativeSpecifier(tt.from, tt.to)
		if err != nil || got != tt.want {
			t.Errorf("relativeSpecifier(%q, %q) = %q, %v; want %q", tt.from, tt.to, got, err, tt.want)
		}
	}
}
