package source

import (
	"fmt"

	"fortio.org/safecast"
)

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}

func (lc LineCol) String() string {
	return fmt.Sprintf("%d:%d", lc.Line, lc.Col)
}

// Text is the loaded content of one module together with its line index.
type Text struct {
	Name    string
	Content string
	LineIdx []uint32
	Flags   Flags
}

// Flags encodes what normalization was applied while loading.
type Flags uint8

const (
	HadBOM Flags = 1 << iota
)

// NewText strips a leading BOM and indexes line starts.
func NewText(name, content string) *Text {
	var flags Flags
	if stripped, ok := removeBOM(content); ok {
		content = stripped
		flags |= HadBOM
	}
	return &Text{
		Name:    name,
		Content: content,
		LineIdx: buildLineIndex(content),
		Flags:   flags,
	}
}

// Len returns the content length as a span offset.
func (t *Text) Len() uint32 {
	n, err := safecast.Conv[uint32](len(t.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return n
}

// Slice returns the text covered by span, clamped to the content.
func (t *Text) Slice(span Span) string {
	end := span.End
	if end > t.Len() {
		end = t.Len()
	}
	if span.Start >= end {
		return ""
	}
	return t.Content[span.Start:end]
}

// Resolve converts a span into line and column positions.
func (t *Text) Resolve(span Span) (start, end LineCol) {
	return toLineCol(t.LineIdx, span.Start), toLineCol(t.LineIdx, span.End)
}

// Position formats "name:line:col" for the start of span.
func (t *Text) Position(span Span) string {
	start, _ := t.Resolve(span)
	return fmt.Sprintf("%s:%s", t.Name, start)
}
