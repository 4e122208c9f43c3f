// Package media classifies module content and maps it to output extensions.
package media

import (
	"path"
	"strings"
)

// Type is the classification of a module's content.
type Type uint8

const (
	Unknown Type = iota
	JavaScript
	Jsx
	Mjs
	Cjs
	TypeScript
	Mts
	Cts
	Dts
	Dmts
	Dcts
	Tsx
	Json
	Wasm
)

// String returns the string representation of Type.
func (t Type) String() string {
	switch t {
	case JavaScript:
		return "JavaScript"
	case Jsx:
		return "JSX"
	case Mjs:
		return "Mjs"
	case Cjs:
		return "Cjs"
	case TypeScript:
		return "TypeScript"
	case Mts:
		return "Mts"
	case Cts:
		return "Cts"
	case Dts:
		return "Dts"
	case Dmts:
		return "Dmts"
	case Dcts:
		return "Dcts"
	case Tsx:
		return "TSX"
	case Json:
		return "Json"
	case Wasm:
		return "Wasm"
	default:
		return "Unknown"
	}
}

// Extension is the output file extension for content of this type,
// including the leading dot. Declaration types keep the ".d" marker.
func (t Type) Extension() string {
	switch t {
	case JavaScript:
		return ".js"
	case Jsx:
		return ".jsx"
	case Mjs:
		return ".mjs"
	case Cjs:
		return ".cjs"
	case TypeScript:
		return ".ts"
	case Mts:
		return ".mts"
	case Cts:
		return ".cts"
	case Dts:
		return ".d.ts"
	case Dmts:
		return ".d.mts"
	case Dcts:
		return ".d.cts"
	case Tsx:
		return ".tsx"
	case Json:
		return ".json"
	case Wasm:
		return ".wasm"
	default:
		return ".js"
	}
}

// IsDeclaration reports whether t is a type-declaration file.
func (t Type) IsDeclaration() bool {
	return t == Dts || t == Dmts || t == Dcts
}

// IsTypeScript reports whether the content is TypeScript syntax.
func (t Type) IsTypeScript() bool {
	switch t {
	case TypeScript, Mts, Cts, Dts, Dmts, Dcts, Tsx:
		return true
	}
	return false
}

// IsJavaScript reports whether the content is JavaScript syntax.
func (t Type) IsJavaScript() bool {
	switch t {
	case JavaScript, Jsx, Mjs, Cjs:
		return true
	}
	return false
}

// IsParsable reports whether modules of this type carry imports and identifiers.
func (t Type) IsParsable() bool {
	return t.IsJavaScript() || t.IsTypeScript()
}

// HasJSX reports whether the grammar needs JSX support.
func (t Type) HasJSX() bool {
	return t == Jsx || t == Tsx
}

// RuntimeExtension is the extension a specifier should carry when the
// output is consumed by a runtime that resolves compiled JavaScript.
func RuntimeExtension(ext string) string {
	switch ext {
	case ".ts", ".tsx", ".jsx":
		return ".js"
	case ".mts":
		return ".mjs"
	case ".cts":
		return ".cjs"
	default:
		return ext
	}
}

// declarationSuffixes are checked before the plain extension table.
var declarationSuffixes = []struct {
	suffix string
	typ    Type
}{
	{".d.ts", Dts},
	{".d.mts", Dmts},
	{".d.cts", Dcts},
}

var extensions = map[string]Type{
	".js":   JavaScript,
	".jsx":  Jsx,
	".mjs":  Mjs,
	".cjs":  Cjs,
	".ts":   TypeScript,
	".mts":  Mts,
	".cts":  Cts,
	".tsx":  Tsx,
	".json": Json,
	".wasm": Wasm,
}

// FromPath classifies by file extension only.
func FromPath(p string) Type {
	lower := strings.ToLower(p)
	for _, d := range declarationSuffixes {
		if strings.HasSuffix(lower, d.suffix) {
			return d.typ
		}
	}
	if t, ok := extensions[path.Ext(lower)]; ok {
		return t
	}
	return Unknown
}

// SplitExt splits p into its stem and extension, treating declaration
// suffixes as a single extension.
func SplitExt(p string) (stem, ext string) {
	lower := strings.ToLower(p)
	for _, d := range declarationSuffixes {
		if strings.HasSuffix(lower, d.suffix) {
			return p[:len(p)-len(d.suffix)], p[len(p)-len(d.suffix):]
		}
	}
	base := path.Base(p)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		cut := len(p) - (len(base) - i)
		return p[:cut], p[cut:]
	}
	return p, ""
}
