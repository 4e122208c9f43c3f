package loader

import (
	"fmt"
	"sync"

	"dnt/internal/specifier"
)

// Recorder keeps the first-seen order of loaded specifiers, split by kind.
// Recording the same specifier twice is a no-op.
type Recorder struct {
	mu     sync.Mutex
	local  []*specifier.Specifier
	remote []*specifier.Specifier
	seen   map[string]specifier.Kind
}

func NewRecorder() *Recorder {
	return &Recorder{seen: make(map[string]specifier.Kind)}
}

// Record adds spec to the local or remote list and returns its kind.
func (r *Recorder) Record(spec *specifier.Specifier) (specifier.Kind, error) {
	kind := spec.Kind()
	if kind == specifier.KindUnsupported {
		return kind, fmt.Errorf("%w: %s", specifier.ErrUnsupportedScheme, spec)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[spec.String()]; ok {
		return kind, nil
	}
	r.seen[spec.String()] = kind
	if kind == specifier.KindLocal {
		r.local = append(r.local, spec)
	} else {
		r.remote = append(r.remote, spec)
	}
	return kind, nil
}

// Local returns a copy of the recorded local specifiers.
func (r *Recorder) Local() []*specifier.Specifier {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*specifier.Specifier(nil), r.local...)
}

// Remote returns a copy of the recorded remote specifiers.
func (r *Recorder) Remote() []*specifier.Specifier {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*specifier.Specifier(nil), r.remote...)
}

// Len returns the number of distinct specifiers recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
