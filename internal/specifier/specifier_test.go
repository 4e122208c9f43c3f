package specifier

import (
	"errors"
	"testing"
)

func TestParseNormalizes(t *testing.T) {
	tests := []struct {
		in   string
		want string
		kind Kind
	}{
		{"file:///mod.ts", "file:///mod.ts", KindLocal},
		{"HTTPS://Deno.Land:443/std/mod.ts", "https://deno.land/std/mod.ts", KindRemote},
		{"http://localhost:80/mod.ts", "http://localhost/mod.ts", KindRemote},
		{"http://localhost:8080/mod.ts", "http://localhost:8080/mod.ts", KindRemote},
		{"https://example.com", "https://example.com/", KindRemote},
		{"npm:react", "npm:react", KindUnsupported},
	}
	for _, tt := range tests {
		s, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if s.String() != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, s, tt.want)
		}
		if s.Kind() != tt.kind {
			t.Errorf("Parse(%q).Kind() = %v, want %v", tt.in, s.Kind(), tt.kind)
		}
	}
}

func TestParseRejectsRelative(t *testing.T) {
	if _, err := Parse("./mod.ts"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	local := MustParse("file:///project/src/mod.ts")
	remote := MustParse("https://deno.land/std/fs/mod.ts")

	tests := []struct {
		name     string
		ref      string
		referrer *Specifier
		want     string
		wantErr  error
	}{
		{"sibling", "./other.ts", local, "file:///project/src/other.ts", nil},
		{"parent", "../lib/a.ts", local, "file:///project/lib/a.ts", nil},
		{"root relative local", "/x.ts", local, "file:///x.ts", nil},
		{"root relative remote", "/std/path/mod.ts", remote, "https://deno.land/std/path/mod.ts", nil},
		{"absolute remote", "http://localhost/mod.ts", local, "http://localhost/mod.ts", nil},
		{"bare", "react", local, "", ErrBareSpecifier},
		{"query kept", "./a.ts?v=1", remote, "https://deno.land/std/fs/a.ts?v=1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.ref, tt.referrer)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got.String() != tt.want {
				t.Fatalf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestFilePath(t *testing.T) {
	p, err := MustParse("file:///C:/work/mod.ts").FilePath()
	if err != nil {
		t.Fatalf("FilePath: %v", err)
	}
	if p != "C:/work/mod.ts" {
		t.Fatalf("FilePath = %q", p)
	}

	p, err = MustParse("file:///home/me/a%20b.ts").FilePath()
	if err != nil {
		t.Fatalf("FilePath: %v", err)
	}
	if p != "/home/me/a b.ts" {
		t.Fatalf("FilePath = %q", p)
	}

	if _, err := MustParse("https://x/a.ts").FilePath(); !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestJoinParentWidensDirectory(t *testing.T) {
	s := MustParse("http://a/b/c/mod.ts")
	up, err := s.Join("../")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if up.String() != "http://a/b/" {
		t.Fatalf("Join(../) = %q", up)
	}
	top, _ := MustParse("http://a/").Join("../")
	if top.String() != "http://a/" {
		t.Fatalf("Join(../) at root = %q", top)
	}
}
