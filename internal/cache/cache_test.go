package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	const url = "https://deno.land/x/mod.ts"
	if _, ok, err := c.Get(url); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	entry := &Entry{
		URL:     url,
		Headers: map[string]string{"content-type": "application/typescript"},
		Content: []byte("export const a = 1;"),
	}
	if err := c.Put(url, entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// fresh cache over the same dir forces a disk read
	c2, err := Open(c.Dir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, ok, err := c2.Get(url)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got.Content) != "export const a = 1;" {
		t.Fatalf("content = %q", got.Content)
	}
	if ct, ok := got.Header("Content-Type"); !ok || ct != "application/typescript" {
		t.Fatalf("header = %q, %v", ct, ok)
	}
	if got.FetchedAt.IsZero() {
		t.Fatal("FetchedAt not set")
	}
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	const url = "https://deno.land/x/broken.ts"
	if err := os.MkdirAll(filepath.Dir(c.pathFor(url)), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(c.pathFor(url), []byte{0xde, 0xad}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, ok, err := c.Get(url); err != nil || ok {
		t.Fatalf("corrupt entry: ok=%v err=%v, want a miss", ok, err)
	}

	if err := c.Put(url, &Entry{URL: url, Content: []byte("export {};")}); err != nil {
		t.Fatalf("Put over corrupt entry: %v", err)
	}
	c2, err := Open(c.Dir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, ok, err := c2.Get(url)
	if err != nil || !ok || string(got.Content) != "export {};" {
		t.Fatalf("after rewrite: ok=%v err=%v", ok, err)
	}
}

func TestDropAll(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "dnt"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	const url = "https://example.com/a.js"
	if err := c.Put(url, &Entry{URL: url, Content: []byte("a")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, ok, _ := c.Get(url); ok {
		t.Fatal("entry survived DropAll")
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Fatalf("cache dir missing after DropAll: %v", err)
	}
}

func TestNilCache(t *testing.T) {
	var c *DiskCache
	if err := c.Put("x", &Entry{}); err != nil {
		t.Fatalf("Put on nil: %v", err)
	}
	if _, ok, err := c.Get("x"); ok || err != nil {
		t.Fatalf("Get on nil: ok=%v err=%v", ok, err)
	}
}

func TestDefaultDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir("dnt")
	if err != nil {
		t.Fatalf("DefaultDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg", "dnt") {
		t.Fatalf("dir = %q", dir)
	}
}
