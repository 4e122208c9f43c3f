// Package specifier models absolute, scheme-qualified module identifiers.
package specifier

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedScheme is returned for schemes other than file, http and https.
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	// ErrBareSpecifier is returned for references that are neither relative nor absolute URLs.
	ErrBareSpecifier = errors.New("relative import path not prefixed with / or ./ or ../")
	// ErrInvalid is returned when a specifier cannot be parsed as a URL.
	ErrInvalid = errors.New("invalid module specifier")
)

// Kind classifies a specifier by where its content lives.
type Kind uint8

const (
	KindUnsupported Kind = iota
	KindLocal
	KindRemote
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	default:
		return "unsupported"
	}
}

// Specifier is an immutable absolute module URL. Equality is by String().
type Specifier struct {
	u *url.URL
	s string
}

// Parse parses and normalizes an absolute specifier.
func Parse(raw string) (*Specifier, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, raw, err)
	}
	if !isAbsoluteScheme(u.Scheme) {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, raw)
	}
	return fromURL(u), nil
}

// MustParse is Parse for literals in tests and defaults.
func MustParse(raw string) *Specifier {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// FromFilePath converts an OS path into a file specifier.
func FromFilePath(p string) (*Specifier, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, err
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		// C:/dir -> /C:/dir
		slashed = "/" + slashed
	}
	return fromURL(&url.URL{Scheme: "file", Path: slashed}), nil
}

func fromURL(u *url.URL) *Specifier {
	n := *u
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)
	switch {
	case n.Scheme == "http" && strings.HasSuffix(n.Host, ":80"):
		n.Host = strings.TrimSuffix(n.Host, ":80")
	case n.Scheme == "https" && strings.HasSuffix(n.Host, ":443"):
		n.Host = strings.TrimSuffix(n.Host, ":443")
	}
	if n.Opaque == "" && n.Path == "" && (n.Scheme == "http" || n.Scheme == "https") {
		n.Path = "/"
	}
	return &Specifier{u: &n, s: n.String()}
}

func isAbsoluteScheme(scheme string) bool {
	// "C:" is a drive letter, not a scheme.
	return len(scheme) > 1
}

func (s *Specifier) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.s
}

// Equal compares normalized forms.
func (s *Specifier) Equal(other *Specifier) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.s == other.s
}

// Scheme returns the lower-cased scheme.
func (s *Specifier) Scheme() string {
	return s.u.Scheme
}

// Kind classifies the specifier by scheme.
func (s *Specifier) Kind() Kind {
	return KindOf(s.u.Scheme)
}

// KindOf classifies a scheme.
func KindOf(scheme string) Kind {
	switch scheme {
	case "file":
		return KindLocal
	case "http", "https":
		return KindRemote
	default:
		return KindUnsupported
	}
}

// Path returns the decoded URL path.
func (s *Specifier) Path() string {
	return s.u.Path
}

// FilePath returns the slash-separated filesystem path of a local specifier.
func (s *Specifier) FilePath() (string, error) {
	if s.Kind() != KindLocal {
		return "", fmt.Errorf("%w: not a file specifier: %s", ErrUnsupportedScheme, s)
	}
	p := s.u.Path
	if hasDrivePrefix(p) {
		p = p[1:]
	}
	if p == "" {
		return "", fmt.Errorf("%w: empty file path: %s", ErrInvalid, s)
	}
	return p, nil
}

// OSPath returns FilePath with platform separators.
func (s *Specifier) OSPath() (string, error) {
	p, err := s.FilePath()
	if err != nil {
		return "", err
	}
	return filepath.FromSlash(p), nil
}

// "/C:/..." form used by file URLs on windows.
func hasDrivePrefix(p string) bool {
	return len(p) >= 3 && p[0] == '/' && p[2] == ':' &&
		(('a' <= p[1] && p[1] <= 'z') || ('A' <= p[1] && p[1] <= 'Z'))
}

// Join resolves ref against s using RFC 3986 reference resolution.
func (s *Specifier) Join(ref string) (*Specifier, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, ref, err)
	}
	return fromURL(s.u.ResolveReference(r)), nil
}

// Resolve turns an import reference found in referrer into an absolute specifier.
func Resolve(ref string, referrer *Specifier) (*Specifier, error) {
	if strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../") || strings.HasPrefix(ref, "/") {
		if referrer == nil {
			return nil, fmt.Errorf("%w: %q has no referrer", ErrInvalid, ref)
		}
		return referrer.Join(ref)
	}
	u, err := url.Parse(ref)
	if err == nil && isAbsoluteScheme(u.Scheme) {
		return fromURL(u), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrBareSpecifier, ref)
}
