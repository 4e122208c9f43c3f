package ui

import (
	"errors"
	"strings"
	"testing"

	"dnt/internal/transform"
)

func TestProgressModelTracksModules(t *testing.T) {
	m := NewProgressModel("dnt", nil).(*progressModel)

	m.applyEvent(transform.Event{Stage: transform.StageLoad, Status: transform.StatusWorking})
	m.applyEvent(transform.Event{Module: "file:///mod.ts", Stage: transform.StageLoad, Status: transform.StatusDone})
	m.applyEvent(transform.Event{Module: "https://x/a.ts", Stage: transform.StageLoad, Status: transform.StatusDone})
	m.applyEvent(transform.Event{Module: "file:///mod.ts", Stage: transform.StageRewrite, Status: transform.StatusDone})

	if len(m.items) != 2 {
		t.Fatalf("got %d items, want 2", len(m.items))
	}
	if m.items[0].status != "done" || m.items[1].status != "loaded" {
		t.Fatalf("statuses = %q, %q", m.items[0].status, m.items[1].status)
	}
	if got := m.percent(); got != 0.75 {
		t.Fatalf("percent = %v, want 0.75", got)
	}
	if m.stageLabel != "loading" {
		t.Fatalf("stage label = %q", m.stageLabel)
	}

	view := m.View()
	for _, want := range []string{"file:///mod.ts", "https://x/a.ts", "loading"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestProgressModelMarksFailure(t *testing.T) {
	m := NewProgressModel("dnt", nil).(*progressModel)
	m.applyEvent(transform.Event{Module: "file:///mod.ts", Stage: transform.StageLoad, Status: transform.StatusError, Err: errors.New("boom")})
	m.done = true
	if !strings.Contains(m.View(), "failed: dnt") {
		t.Fatalf("view should report failure:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"abcdefghij", 8, "ab..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
