// Package loader fetches module text for the graph and records, in the order
// they were first requested, every specifier that was loaded.
package loader

import (
	"context"

	"dnt/internal/specifier"
)

// LoadResponse is the content of one remote module.
type LoadResponse struct {
	Content string
	// Headers use lower-case names; nil when the transport has none.
	Headers map[string]string
}

// Loader is the I/O collaborator. Implementations must be safe for
// concurrent use.
type Loader interface {
	// ReadFile returns the text of a local module. path uses OS separators.
	ReadFile(ctx context.Context, path string) (string, error)
	// MakeRequest fetches a remote module.
	MakeRequest(ctx context.Context, spec *specifier.Specifier) (*LoadResponse, error)
}
