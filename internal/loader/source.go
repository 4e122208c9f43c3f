package loader

import (
	"context"
	"fmt"

	"dnt/internal/specifier"
	"dnt/internal/trace"
)

// Notice is called before each load with "Loading" or "Downloading".
type Notice func(verb string, spec *specifier.Specifier)

// SourceLoader records every specifier it is asked for and delegates the
// actual read to a Loader.
type SourceLoader struct {
	loader   Loader
	recorder *Recorder
	notice   Notice
}

func NewSourceLoader(l Loader) *SourceLoader {
	return &SourceLoader{loader: l, recorder: NewRecorder()}
}

// WithNotice sets a callback for user-facing load messages.
func (s *SourceLoader) WithNotice(fn Notice) *SourceLoader {
	s.notice = fn
	return s
}

// Recorder exposes the specifiers recorded so far.
func (s *SourceLoader) Recorder() *Recorder { return s.recorder }

// Record registers spec without loading it. The graph records a whole wave
// up front so the order does not depend on goroutine scheduling.
func (s *SourceLoader) Record(spec *specifier.Specifier) (specifier.Kind, error) {
	return s.recorder.Record(spec)
}

// Load records spec and fetches its content. Local files come back with
// nil headers.
func (s *SourceLoader) Load(ctx context.Context, spec *specifier.Specifier) (*LoadResponse, error) {
	kind, err := s.recorder.Record(spec)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch kind {
	case specifier.KindRemote:
		s.announce(ctx, "Downloading", spec)
		resp, err := s.loader.MakeRequest(ctx, spec)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			return nil, fmt.Errorf("no response for %s", spec)
		}
		return resp, nil
	default:
		s.announce(ctx, "Loading", spec)
		path, err := spec.OSPath()
		if err != nil {
			return nil, err
		}
		text, err := s.loader.ReadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		return &LoadResponse{Content: text}, nil
	}
}

func (s *SourceLoader) announce(ctx context.Context, verb string, spec *specifier.Specifier) {
	trace.Point(ctx, trace.ScopeModule, verb, spec.String())
	if s.notice != nil {
		s.notice(verb, spec)
	}
}
