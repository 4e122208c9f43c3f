package media

import "testing"

func TestFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Type
	}{
		{"/mod.ts", TypeScript},
		{"/mod.tsx", Tsx},
		{"/mod.d.ts", Dts},
		{"/types.d.mts", Dmts},
		{"/mod.js", JavaScript},
		{"/mod.MJS", Mjs},
		{"/data.json", Json},
		{"/mod", Unknown},
		{"/dir.v1/mod", Unknown},
	}
	for _, tt := range tests {
		if got := FromPath(tt.path); got != tt.want {
			t.Errorf("FromPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFromContentType(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		contentType string
		want        Type
	}{
		{"typescript header no extension", "/mod", "application/typescript", TypeScript},
		{"typescript header wrong extension", "/mod.js", "application/typescript; charset=utf-8", TypeScript},
		{"typescript header keeps tsx", "/mod.tsx", "text/typescript", Tsx},
		{"typescript header keeps d.ts", "/mod.d.ts", "application/typescript", Dts},
		{"javascript header", "/mod.ts", "application/javascript", JavaScript},
		{"javascript header keeps mjs", "/mod.mjs", "text/javascript", Mjs},
		{"plain text falls back to path", "/mod.ts", "text/plain", TypeScript},
		{"json", "/x", "application/json", Json},
		{"no header", "/mod.ts", "", TypeScript},
		{"unknown header", "/mod.ts", "text/html", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromContentType(tt.path, tt.contentType); got != tt.want {
				t.Fatalf("FromContentType(%q, %q) = %v, want %v", tt.path, tt.contentType, got, tt.want)
			}
		})
	}
}

func TestFromHeadersIsCaseInsensitive(t *testing.T) {
	got := FromHeaders("/mod", map[string]string{"Content-Type": "application/typescript"})
	if got != TypeScript {
		t.Fatalf("FromHeaders = %v, want TypeScript", got)
	}
}

func TestSplitExt(t *testing.T) {
	tests := []struct {
		in, stem, ext string
	}{
		{"deps/0/mod.ts", "deps/0/mod", ".ts"},
		{"deps/0/mod.d.ts", "deps/0/mod", ".d.ts"},
		{"deps/0/mod", "deps/0/mod", ""},
		{"deps/v1.2/mod", "deps/v1.2/mod", ""},
		{".hidden", ".hidden", ""},
		{"deps/0", "deps/0", ""},
	}
	for _, tt := range tests {
		stem, ext := SplitExt(tt.in)
		if stem != tt.stem || ext != tt.ext {
			t.Errorf("SplitExt(%q) = (%q, %q), want (%q, %q)", tt.in, stem, ext, tt.stem, tt.ext)
		}
	}
}

func TestRuntimeExtension(t *testing.T) {
	for in, want := range map[string]string{
		".ts": ".js", ".tsx": ".js", ".mts": ".mjs", ".cts": ".cjs", ".js": ".js", ".json": ".json",
	} {
		if got := RuntimeExtension(in); got != want {
			t.Errorf("RuntimeExtension(%q) = %q, want %q", in, got, want)
		}
	}
}
