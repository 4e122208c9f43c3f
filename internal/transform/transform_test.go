package transform

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"dnt/internal/loader"
	"dnt/internal/observ"
	"dnt/internal/specifier"
	"dnt/internal/visitors"
)

type testBuilder struct {
	loader   *loader.MemoryLoader
	entry    string
	keepExts bool
	shim     string
	jobs     int
}

func newBuilder() *testBuilder {
	return &testBuilder{loader: loader.NewMemoryLoader(), entry: "file:///mod.ts"}
}

func (b *testBuilder) transform(t *testing.T) ([]OutputFile, error) {
	t.Helper()
	return Transform(context.Background(), Options{
		EntryPoint:      specifier.MustParse(b.entry),
		KeepExtensions:  b.keepExts,
		ShimPackageName: b.shim,
		Loader:          b.loader,
		Jobs:            b.jobs,
	})
}

func (b *testBuilder) mustTransform(t *testing.T) []OutputFile {
	t.Helper()
	files, err := b.transform(t)
	require.NoError(t, err)
	return files
}

func files(pairs ...string) []OutputFile {
	out := make([]OutputFile, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, OutputFile{Path: pairs[i], Text: pairs[i+1]})
	}
	return out
}

func TestTransformStandaloneFile(t *testing.T) {
	b := newBuilder()
	b.loader.AddLocalFile("/mod.ts", "test;")
	require.Equal(t, files("mod.ts", "test;"), b.mustTransform(t))
}

func TestTransformDenoShim(t *testing.T) {
	b := newBuilder()
	b.loader.AddLocalFile("/mod.ts", "Deno.readTextFile();")
	require.Equal(t, files("mod.ts",
		"import * as denoShim from \"shim-package-name\";\ndenoShim.Deno.readTextFile();",
	), b.mustTransform(t))
}

func TestTransformDenoShimNameCollision(t *testing.T) {
	b := newBuilder()
	b.shim = "test-shim"
	b.loader.AddLocalFile("/mod.ts", "Deno.readTextFile(); const denoShim = {};")
	require.Equal(t, files("mod.ts",
		"import * as denoShim1 from \"test-shim\";\ndenoShim1.Deno.readTextFile(); const denoShim = {};",
	), b.mustTransform(t))
}

func TestTransformGlobalThisDeno(t *testing.T) {
	b := newBuilder()
	b.shim = "test-shim"
	b.loader.AddLocalFile("/mod.ts", "globalThis.Deno.readTextFile();")
	require.Equal(t, files("mod.ts",
		"import * as denoShim from \"test-shim\";\n({ ...globalThis, Deno: denoShim.Deno }).Deno.readTextFile();",
	), b.mustTransform(t))
}

func TestTransformDenoCollision(t *testing.T) {
	b := newBuilder()
	b.shim = "test-shim"
	b.loader.AddLocalFile("/mod.ts",
		"const Deno = {};const { Deno: Deno2 } = globalThis;Deno2.readTextFile();Deno.test;")
	require.Equal(t, files("mod.ts",
		"import * as denoShim from \"test-shim\";\n"+
			"const Deno = {};const { Deno: Deno2 } = ({ ...globalThis, Deno: denoShim.Deno });Deno2.readTextFile();Deno.test;",
	), b.mustTransform(t))
}

func TestTransformOtherFileNoExtensions(t *testing.T) {
	b := newBuilder()
	b.loader.
		AddLocalFile("/mod.ts", "import * as other from './other.ts';").
		AddLocalFile("/other.ts", "5;")
	require.Equal(t, files(
		"mod.ts", "import * as other from './other';",
		"other.ts", "5;",
	), b.mustTransform(t))
}

func TestTransformOtherFileKeepExtensions(t *testing.T) {
	b := newBuilder()
	b.keepExts = true
	b.loader.
		AddLocalFile("/mod.ts", "import * as other from './other.ts';").
		AddLocalFile("/other.ts", "5;")
	require.Equal(t, files(
		"mod.ts", "import * as other from './other.js';",
		"other.ts", "5;",
	), b.mustTransform(t))
}

func TestTransformRemoteFiles(t *testing.T) {
	b := newBuilder()
	b.loader.
		AddLocalFile("/mod.ts", "import * as other from 'http://localhost/mod.ts';").
		AddRemoteFile("http://localhost/mod.ts", "import * as myOther from './other.ts';").
		AddRemoteFile("http://localhost/other.ts", "5")
	require.Equal(t, files(
		"mod.ts", "import * as other from './deps/0';",
		"deps/0.ts", "import * as myOther from './0/other';",
		"deps/0/other.ts", "5",
	), b.mustTransform(t))
}

func TestTransformTwoOrigins(t *testing.T) {
	b := newBuilder()
	b.loader.
		AddLocalFile("/mod.ts", "export * from 'https://a.example/lib/mod.ts';").
		AddRemoteFile("https://a.example/lib/mod.ts",
			"import './util/fmt.ts';\nimport '/shared.ts';\nimport 'https://b.example/x/dep.ts';").
		AddRemoteFile("https://a.example/lib/util/fmt.ts", "export {};").
		AddRemoteFile("https://a.example/shared.ts", "export {};").
		AddRemoteFile("https://b.example/x/dep.ts", "Deno.env;")

	require.Equal(t, files(
		"mod.ts", "export * from './deps/0/lib/mod';",
		"deps/0/lib/mod.ts", "import './util/fmt';\nimport '../shared';\nimport '../../1';",
		"deps/0/lib/util/fmt.ts", "export {};",
		"deps/0/shared.ts", "export {};",
		"deps/1.ts", "import * as denoShim from \"shim-package-name\";\ndenoShim.Deno.env;",
	), b.mustTransform(t))
}

func TestTransformTypesDependency(t *testing.T) {
	b := newBuilder()
	b.loader.
		AddLocalFile("/mod.ts", "import lib from 'https://x.example/lib.js';").
		AddRemoteFile("https://x.example/lib.js", "export default 1;",
			"content-type", "application/javascript",
			"x-typescript-types", "./lib.d.ts").
		AddRemoteFile("https://x.example/lib.d.ts", "declare const v: number;\nexport default v;",
			"content-type", "application/typescript")

	got := b.mustTransform(t)
	require.Equal(t, files(
		"mod.ts", "import lib from './deps/0';",
		"deps/0.js", "export default 1;",
		"deps/0/lib.d.ts", "declare const v: number;\nexport default v;",
	), got)
}

func TestTransformIsDeterministic(t *testing.T) {
	mk := func(jobs int) *testBuilder {
		b := newBuilder()
		b.jobs = jobs
		b.loader.
			AddLocalFile("/mod.ts", "import './a.ts'; import './b.ts'; import 'https://r.example/x.ts';").
			AddLocalFile("/a.ts", "import 'https://r.example/a.ts'; Deno.exit();").
			AddLocalFile("/b.ts", "import 'https://s.example/b.ts';").
			AddRemoteFile("https://r.example/x.ts", "export {};").
			AddRemoteFile("https://r.example/a.ts", "import './x.ts';").
			AddRemoteFile("https://s.example/b.ts", "globalThis;")
		return b
	}
	first := mk(1).mustTransform(t)
	for range 5 {
		require.Equal(t, first, mk(8).mustTransform(t))
	}
}

func TestTransformFailsOnMissingModule(t *testing.T) {
	b := newBuilder()
	b.loader.AddLocalFile("/mod.ts", "import './missing.ts';")
	out, err := b.transform(t)
	require.Error(t, err)
	require.Nil(t, out)
	require.Contains(t, err.Error(), "file:///missing.ts")
}

func TestTransformFailsOnBareSpecifier(t *testing.T) {
	b := newBuilder()
	b.loader.AddLocalFile("/mod.ts", "import x from 'lodash';")
	_, err := b.transform(t)
	require.ErrorIs(t, err, visitors.ErrResolution)
	require.ErrorIs(t, err, specifier.ErrBareSpecifier)
}

func TestTransformFailsOnUnresolvedTypes(t *testing.T) {
	b := newBuilder()
	b.loader.
		AddLocalFile("/mod.ts", "import 'https://x.example/lib.js';").
		AddRemoteFile("https://x.example/lib.js", "1;",
			"content-type", "application/javascript",
			"x-typescript-types", "bare-types")
	_, err := b.transform(t)
	require.ErrorIs(t, err, specifier.ErrBareSpecifier)
	require.Contains(t, err.Error(), "error resolving types for https://x.example/lib.js with reference bare-types")
}

func TestTransformRequiresEntryPoint(t *testing.T) {
	_, err := Transform(context.Background(), Options{Loader: loader.NewMemoryLoader()})
	require.True(t, errors.Is(err, ErrNoEntryPoint))
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func TestTransformReportsProgress(t *testing.T) {
	mem := loader.NewMemoryLoader().
		AddLocalFile("/mod.ts", "import './other.ts';").
		AddLocalFile("/other.ts", "1;")
	sink := &recordingSink{}
	timer := observ.NewTimer()
	var notices []string
	var mu sync.Mutex

	_, err := Transform(context.Background(), Options{
		EntryPoint: specifier.MustParse("file:///mod.ts"),
		Loader:     mem,
		Progress:   sink,
		Timer:      timer,
		Notice: func(verb string, spec *specifier.Specifier) {
			mu.Lock()
			defer mu.Unlock()
			notices = append(notices, verb+" "+spec.String())
		},
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Loading file:///mod.ts", "Loading file:///other.ts"}, notices)

	done := map[Stage]int{}
	for _, ev := range sink.events {
		if ev.Module != "" && ev.Status == StatusDone {
			done[ev.Stage]++
		}
	}
	require.Equal(t, 2, done[StageLoad])
	require.Equal(t, 2, done[StageRewrite])

	report := timer.Report()
	require.Len(t, report.Phases, 3)
	require.Equal(t, "load", report.Phases[0].Name)
}
