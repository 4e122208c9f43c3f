package mappings

import (
	"slices"
	"strings"

	"dnt/internal/media"
	"dnt/internal/specifier"
)

// TypesPair links a JavaScript module to its declaration file.
type TypesPair struct {
	Code  *specifier.Specifier
	Types *specifier.Specifier
}

// Specifiers is everything a transform run visited, in first-seen order.
// Declaration files referenced through Types are left out of Local and
// Remote but are still mapped.
type Specifiers struct {
	Local  []*specifier.Specifier
	Remote []*specifier.Specifier
	Types  []TypesPair // sorted by code specifier
}

// NewSpecifiers partitions the recorded specifiers. types maps a code
// specifier to its declaration file.
func NewSpecifiers(local, remote []*specifier.Specifier, types map[string]TypesPair) Specifiers {
	pairs := make([]TypesPair, 0, len(types))
	excluded := make(map[string]struct{}, len(types))
	for _, p := range types {
		pairs = append(pairs, p)
		excluded[p.Types.String()] = struct{}{}
	}
	slices.SortFunc(pairs, func(a, b TypesPair) int {
		return strings.Compare(a.Code.String(), b.Code.String())
	})

	keep := func(list []*specifier.Specifier) []*specifier.Specifier {
		out := make([]*specifier.Specifier, 0, len(list))
		for _, s := range list {
			if _, ok := excluded[s.String()]; !ok {
				out = append(out, s)
			}
		}
		return out
	}
	return Specifiers{Local: keep(local), Remote: keep(remote), Types: pairs}
}

// TypeSpecifiers returns the distinct declaration specifiers in Types order.
func (s Specifiers) TypeSpecifiers() []*specifier.Specifier {
	seen := make(map[string]struct{}, len(s.Types))
	var out []*specifier.Specifier
	for _, p := range s.Types {
		if _, ok := seen[p.Types.String()]; ok {
			continue
		}
		seen[p.Types.String()] = struct{}{}
		out = append(out, p.Types)
	}
	return out
}

// All returns Local, Remote and then the declaration files: the order in
// which modules are emitted.
func (s Specifiers) All() []*specifier.Specifier {
	out := make([]*specifier.Specifier, 0, len(s.Local)+len(s.Remote)+len(s.Types))
	out = append(out, s.Local...)
	out = append(out, s.Remote...)
	return append(out, s.TypeSpecifiers()...)
}

// MediaTypeLookup reports the media type of a loaded module.
type MediaTypeLookup func(*specifier.Specifier) (media.Type, bool)
