// Package mappings assigns every visited module a relative output path.
package mappings

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"dnt/internal/media"
	"dnt/internal/specifier"
)

var (
	ErrMissingMediaType = errors.New("missing media type")
	ErrNotRelative      = errors.New("cannot make url relative")
	ErrNoCommonBase     = errors.New("local files have no common base directory")
)

// DepsDir holds remote modules, one numbered directory per root group.
const DepsDir = "deps"

// Entry is one row of the table.
type Entry struct {
	Specifier *specifier.Specifier
	Path      string
}

// Mappings is the frozen specifier → output path table. Paths are
// slash-separated and relative to the output directory.
type Mappings struct {
	paths   map[string]string
	entries []Entry
	taken   map[string]struct{} // collision keys
}

// New builds the table for specs. Local files keep their layout relative
// to their deepest common directory; remote files are clustered into root
// groups under deps/<i>.
func New(specs Specifiers, lookup MediaTypeLookup) (*Mappings, error) {
	m := &Mappings{
		paths: make(map[string]string),
		taken: make(map[string]struct{}),
	}

	var local, remote []*specifier.Specifier
	local = append(local, specs.Local...)
	remote = append(remote, specs.Remote...)
	for _, t := range specs.TypeSpecifiers() {
		switch t.Kind() {
		case specifier.KindLocal:
			local = append(local, t)
		case specifier.KindRemote:
			remote = append(remote, t)
		default:
			return nil, fmt.Errorf("%w: %s", specifier.ErrUnsupportedScheme, t)
		}
	}

	if err := m.mapLocal(local); err != nil {
		return nil, err
	}
	if err := m.mapRemote(remote, lookup); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mappings) mapLocal(local []*specifier.Specifier) error {
	if len(local) == 0 {
		return nil
	}
	files := make([]string, len(local))
	for i, s := range local {
		p, err := s.FilePath()
		if err != nil {
			return err
		}
		files[i] = p
	}
	base, err := commonDir(files)
	if err != nil {
		return err
	}
	for i, s := range local {
		rel := strings.TrimPrefix(files[i], base)
		rel = strings.TrimPrefix(rel, "/")
		m.insert(s, norm.NFC.String(rel))
	}
	return nil
}

// commonDir returns the deepest directory containing every file.
func commonDir(files []string) (string, error) {
	common := strings.Split(path.Dir(files[0]), "/")
	for _, f := range files[1:] {
		segs := strings.Split(path.Dir(f), "/")
		n := 0
		for n < len(common) && n < len(segs) && common[n] == segs[n] {
			n++
		}
		common = common[:n]
	}
	switch {
	case len(common) == 0:
		// C:/a и D:/b
		return "", fmt.Errorf("%w: %s, ...", ErrNoCommonBase, files[0])
	case len(common) == 1 && common[0] == "":
		return "/", nil
	}
	return strings.Join(common, "/"), nil
}

type rootGroup struct {
	root    *specifier.Specifier
	members []*specifier.Specifier
}

// clusterRemote folds remotes, in order, into root groups. A specifier
// joins the first group whose root it can be expressed relative to; when
// that expression ascends, the root is widened until it no longer does.
func clusterRemote(remote []*specifier.Specifier) ([]rootGroup, error) {
	var groups []rootGroup
next:
	for _, s := range remote {
		for gi := range groups {
			g := &groups[gi]
			rel, ok := specifier.MakeRelative(g.root, s)
			if !ok {
				continue
			}
			for strings.HasPrefix(rel, "../") {
				rel = rel[len("../"):]
				wider, err := g.root.Join("../")
				if err != nil {
					return nil, err
				}
				g.root = wider
			}
			g.members = append(g.members, s)
			continue next
		}
		groups = append(groups, rootGroup{root: s, members: []*specifier.Specifier{s}})
	}
	return groups, nil
}

func (m *Mappings) mapRemote(remote []*specifier.Specifier, lookup MediaTypeLookup) error {
	groups, err := clusterRemote(remote)
	if err != nil {
		return err
	}
	for i, g := range groups {
		dir := fmt.Sprintf("%s/%d", DepsDir, i)
		for _, s := range g.members {
			mt, ok := lookup(s)
			if !ok || mt == media.Unknown {
				return fmt.Errorf("%w: %s", ErrMissingMediaType, s)
			}
			rel, ok := specifier.MakeRelative(g.root, s)
			if !ok {
				return fmt.Errorf("%w: %s relative to root %s", ErrNotRelative, s, g.root)
			}
			rel, err := cleanRelative(rel)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrNotRelative, s, err)
			}
			p := path.Join(dir, rel)
			stem, _ := media.SplitExt(p)
			m.insert(s, m.unique(stem, mt.Extension()))
		}
	}
	return nil
}

// cleanRelative drops query and fragment and decodes the path so it can be
// used on disk.
func cleanRelative(rel string) (string, error) {
	if i := strings.IndexAny(rel, "?#"); i >= 0 {
		rel = rel[:i]
	}
	rel = strings.TrimSuffix(rel, "/")
	dec, err := url.PathUnescape(rel)
	if err != nil {
		return "", err
	}
	return norm.NFC.String(dec), nil
}

// unique appends _2, _3, ... to stem until its collision key is free.
func (m *Mappings) unique(stem, ext string) string {
	candidate := stem
	for n := 2; ; n++ {
		if _, ok := m.taken[collisionKey(candidate, ext)]; !ok {
			return candidate + ext
		}
		candidate = fmt.Sprintf("%s_%d", stem, n)
	}
}

// collisionKey ignores code extensions, so x.ts and x.js cannot coexist,
// but keeps the declaration marker so x.js and x.d.ts can.
func collisionKey(stem, ext string) string {
	key := strings.ToLower(stem)
	if strings.HasPrefix(ext, ".d.") {
		key += ".d"
	}
	return key
}

func (m *Mappings) insert(s *specifier.Specifier, p string) {
	if _, ok := m.paths[s.String()]; ok {
		return
	}
	stem, ext := media.SplitExt(p)
	m.taken[collisionKey(stem, ext)] = struct{}{}
	m.paths[s.String()] = p
	m.entries = append(m.entries, Entry{Specifier: s, Path: p})
}

// Get returns the output path of s. Every module reaching the edit stage
// was mapped first, so a miss is a bug.
func (m *Mappings) Get(s *specifier.Specifier) string {
	p, ok := m.paths[s.String()]
	if !ok {
		panic(fmt.Sprintf("Programming error. Could not find file path for specifier: %s", s))
	}
	return p
}

func (m *Mappings) Lookup(s *specifier.Specifier) (string, bool) {
	p, ok := m.paths[s.String()]
	return p, ok
}

// Paths returns the table in mapping order: local, then remote by group.
func (m *Mappings) Paths() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Mappings) Len() int { return len(m.entries) }
