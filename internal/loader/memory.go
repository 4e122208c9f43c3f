package loader

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"dnt/internal/specifier"
)

// MemoryLoader serves modules from maps. Used by tests and by callers that
// already hold the sources.
type MemoryLoader struct {
	mu     sync.RWMutex
	files  map[string]string
	remote map[string]*LoadResponse
}

func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{
		files:  make(map[string]string),
		remote: make(map[string]*LoadResponse),
	}
}

// AddLocalFile registers text under a slash-separated absolute path.
func (m *MemoryLoader) AddLocalFile(path, text string) *MemoryLoader {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[normalizePath(path)] = text
	return m
}

// AddRemoteFile registers text under url. headers are "name", "value" pairs.
func (m *MemoryLoader) AddRemoteFile(url, text string, headers ...string) *MemoryLoader {
	resp := &LoadResponse{Content: text}
	if len(headers) > 0 {
		resp.Headers = make(map[string]string, len(headers)/2)
		for i := 0; i+1 < len(headers); i += 2 {
			resp.Headers[strings.ToLower(headers[i])] = headers[i+1]
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remote[specifier.MustParse(url).String()] = resp
	return m
}

func (m *MemoryLoader) ReadFile(_ context.Context, path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.files[normalizePath(path)]
	if !ok {
		return "", &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return text, nil
}

func (m *MemoryLoader) MakeRequest(_ context.Context, spec *specifier.Specifier) (*LoadResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp, ok := m.remote[spec.String()]
	if !ok {
		return nil, fmt.Errorf("not found: %s", spec)
	}
	out := *resp
	return &out, nil
}

func normalizePath(p string) string {
	p = filepath.ToSlash(p)
	// C:/x and /C:/x name the same file
	if len(p) >= 2 && p[1] == ':' {
		p = "/" + p
	}
	return p
}
