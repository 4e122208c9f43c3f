package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"dnt/internal/cache"
	"dnt/internal/specifier"
)

// maxModuleSize bounds a single download.
const maxModuleSize = 64 << 20

// DefaultLoader reads local modules from disk and fetches remote ones over
// HTTP(S). Remote responses are stored in an optional DiskCache.
type DefaultLoader struct {
	client *http.Client
	cache  *cache.DiskCache
	reload bool
	group  singleflight.Group
}

// Option configures a DefaultLoader.
type Option func(*DefaultLoader)

// WithCache stores remote responses in c.
func WithCache(c *cache.DiskCache) Option {
	return func(l *DefaultLoader) { l.cache = c }
}

// WithReload ignores cached entries but still refreshes them.
func WithReload(reload bool) Option {
	return func(l *DefaultLoader) { l.reload = reload }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *DefaultLoader) { l.client = c }
}

func NewDefaultLoader(opts ...Option) *DefaultLoader {
	l := &DefaultLoader{client: &http.Client{Timeout: 60 * time.Second}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *DefaultLoader) ReadFile(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (l *DefaultLoader) MakeRequest(ctx context.Context, spec *specifier.Specifier) (*LoadResponse, error) {
	key := spec.String()
	if !l.reload {
		entry, ok, err := l.cache.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			return &LoadResponse{Content: string(entry.Content), Headers: entry.Headers}, nil
		}
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		return l.fetch(ctx, spec)
	})
	if err != nil {
		return nil, err
	}
	resp := *v.(*LoadResponse)
	return &resp, nil
}

func (l *DefaultLoader) fetch(ctx context.Context, spec *specifier.Specifier) (*LoadResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/typescript, application/javascript, */*;q=0.8")

	res, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %s", res.Status, spec)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxModuleSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxModuleSize {
		return nil, errors.New("module too large: " + spec.String())
	}

	headers := make(map[string]string, len(res.Header))
	for name, values := range res.Header {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}

	if err := l.cache.Put(spec.String(), &cache.Entry{
		URL:     res.Request.URL.String(),
		Headers: headers,
		Content: body,
	}); err != nil {
		return nil, fmt.Errorf("cache %s: %w", spec, err)
	}
	return &LoadResponse{Content: string(body), Headers: headers}, nil
}
