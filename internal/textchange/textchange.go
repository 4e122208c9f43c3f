// Package textchange composes span-based replacements over one module's
// original text.
package textchange

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"fortio.org/safecast"

	"dnt/internal/source"
)

var (
	// ErrOverlap indicates two changes touch the same bytes. It always points
	// at a defect in whoever produced the change list.
	ErrOverlap = errors.New("overlapping text changes")
	// ErrOutOfRange indicates a span past the end of the text.
	ErrOutOfRange = errors.New("text change out of range")
)

// TextChange replaces the bytes covered by Span with NewText. A zero-length
// span is a pure insertion.
type TextChange struct {
	Span    source.Span
	NewText string
}

// Insert creates a zero-length change at off.
func Insert(off uint32, text string) TextChange {
	return TextChange{Span: source.At(off), NewText: text}
}

// Replace creates a change over span.
func Replace(span source.Span, text string) TextChange {
	return TextChange{Span: span, NewText: text}
}

func (c TextChange) String() string {
	return fmt.Sprintf("[%s] %q", c.Span, c.NewText)
}

// Apply returns text with all changes applied. Changes are sorted by start
// offset; insertions at the same offset keep their relative order and go
// before a replacement starting there.
func Apply(text string, changes []TextChange) (string, error) {
	if len(changes) == 0 {
		return text, nil
	}

	sorted := make([]TextChange, len(changes))
	copy(sorted, changes)
	Sort(sorted)

	size, err := safecast.Conv[uint32](len(text))
	if err != nil {
		return "", fmt.Errorf("text length overflow: %w", err)
	}
	var b strings.Builder
	b.Grow(len(text) + growHint(sorted))

	var last uint32
	var prev *TextChange
	for i := range sorted {
		change := &sorted[i]
		if change.Span.End < change.Span.Start || change.Span.End > size {
			return "", fmt.Errorf("%w: %s (text length %d)", ErrOutOfRange, change.Span, size)
		}
		if prev != nil && Conflicts(*prev, *change) {
			return "", fmt.Errorf("%w: %s and %s", ErrOverlap, prev, change)
		}
		if change.Span.Start < last {
			return "", fmt.Errorf("%w: %s starts before offset %d", ErrOverlap, change, last)
		}
		b.WriteString(text[last:change.Span.Start])
		b.WriteString(change.NewText)
		last = change.Span.End
		if !change.Span.Empty() {
			prev = change
		}
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// Sort orders changes by start; zero-length changes come before a
// non-empty change at the same offset; ties keep input order.
func Sort(changes []TextChange) {
	sort.SliceStable(changes, func(i, j int) bool {
		a, b := changes[i].Span, changes[j].Span
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Empty() && !b.Empty()
	})
}

// Conflicts reports whether two changes' spans overlap.
// Spans are half-open [Start, End). Two zero-length changes never conflict.
// A zero-length change conflicts with a non-zero span only if it falls
// strictly inside it (Start < pos < End); inserting at the start or end of a
// replacement is well defined.
func Conflicts(a, b TextChange) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart < aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart < bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

func growHint(changes []TextChange) int {
	n := 0
	for _, c := range changes {
		n += len(c.NewText)
	}
	return n
}
