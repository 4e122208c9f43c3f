package specifier

import "strings"

// MakeRelative expresses target relative to base. It fails when the two
// specifiers do not share scheme, host and port, or base cannot be a base.
// Two identical paths yield the empty string.
func MakeRelative(base, target *Specifier) (string, bool) {
	if base.u.Opaque != "" || target.u.Opaque != "" {
		return "", false
	}
	if base.u.Scheme != target.u.Scheme ||
		base.u.Hostname() != target.u.Hostname() ||
		base.u.Port() != target.u.Port() {
		return "", false
	}

	basePath, baseFilename := splitFilename(escapedPath(base))
	targetPath, targetFilename := splitFilename(escapedPath(target))

	baseSegs := strings.Split(basePath, "/")
	targetSegs := strings.Split(targetPath, "/")

	// общий префикс
	i := 0
	for i < len(baseSegs) && i < len(targetSegs) && baseSegs[i] == targetSegs[i] {
		i++
	}

	var b strings.Builder
	push := func(seg string) {
		if b.Len() > 0 {
			b.WriteByte('/')
		}
		b.WriteString(seg)
	}
	for _, seg := range baseSegs[i:] {
		if seg == "" {
			break
		}
		push("..")
	}
	for _, seg := range targetSegs[i:] {
		push(seg)
	}

	if b.Len() > 0 || baseFilename != targetFilename {
		if targetFilename == "" {
			b.WriteByte('/')
		} else {
			push(targetFilename)
		}
	}

	if target.u.RawQuery != "" || target.u.ForceQuery {
		b.WriteByte('?')
		b.WriteString(target.u.RawQuery)
	}
	if target.u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(target.u.EscapedFragment())
	}
	return b.String(), true
}

func escapedPath(s *Specifier) string {
	p := s.u.EscapedPath()
	if p == "" {
		return "/"
	}
	return p
}

func splitFilename(p string) (dir, filename string) {
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return "", p
	}
	return p[:idx], p[idx+1:]
}
