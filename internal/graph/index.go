package graph

import "sort"

type ModuleID uint32

// ModuleIndex maps specifiers to dense IDs in sorted order, so IDs do not
// depend on load order.
type ModuleIndex struct {
	NameToID map[string]ModuleID
	IDToName []string
}

// BuildIndex indexes every module and every resolved dependency target.
func BuildIndex(modules []*Module) ModuleIndex {
	uniq := make(map[string]struct{}, len(modules))
	for _, m := range modules {
		uniq[m.Specifier.String()] = struct{}{}
		for _, d := range m.Dependencies() {
			if d.Resolved.Ok() {
				uniq[d.Resolved.Specifier.String()] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(uniq))
	for name := range uniq {
		names = append(names, name)
	}
	sort.Strings(names)

	nameToID := make(map[string]ModuleID, len(names))
	for i, name := range names {
		nameToID[name] = ModuleID(i)
	}
	return ModuleIndex{NameToID: nameToID, IDToName: names}
}

// Edges is an adjacency list over a ModuleIndex.
type Edges struct {
	Out     [][]ModuleID
	Indeg   []int
	Present []bool // loaded, as opposed to only referenced
}

// BuildEdges links each module to its code dependencies. Type-only
// references do not order evaluation and are left out.
func BuildEdges(idx ModuleIndex, modules []*Module) Edges {
	n := len(idx.IDToName)
	e := Edges{
		Out:     make([][]ModuleID, n),
		Indeg:   make([]int, n),
		Present: make([]bool, n),
	}
	for _, m := range modules {
		from := idx.NameToID[m.Specifier.String()]
		e.Present[from] = true
	}
	for _, m := range modules {
		from := idx.NameToID[m.Specifier.String()]
		seen := make(map[ModuleID]struct{})
		for _, d := range m.Dependencies() {
			if !d.Resolved.Ok() || d.TypeOnly || d.Kind.IsTypeOnly() {
				continue
			}
			to, ok := idx.NameToID[d.Resolved.Specifier.String()]
			if !ok || !e.Present[to] {
				continue
			}
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			e.Out[from] = append(e.Out[from], to)
			e.Indeg[to]++
		}
	}
	return e
}
