package parser

import (
	"regexp"
	"strconv"
	"strings"

	"dnt/internal/source"
)

type ImportKind uint8

const (
	ImportStatic         ImportKind = iota // import ... from "x"; import "x"
	ImportExport                           // export ... from "x"
	ImportDynamic                          // import("x")
	ImportRequire                          // import x = require("x")
	ImportDenoTypes                        // // @deno-types="x"
	ImportReferenceTypes                   // /// <reference types="x" />
	ImportReferencePath                    // /// <reference path="x" />
)

func (k ImportKind) String() string {
	switch k {
	case ImportStatic:
		return "import"
	case ImportExport:
		return "export"
	case ImportDynamic:
		return "dynamic import"
	case ImportRequire:
		return "require"
	case ImportDenoTypes:
		return "@deno-types"
	case ImportReferenceTypes:
		return "reference types"
	case ImportReferencePath:
		return "reference path"
	default:
		return "unknown"
	}
}

// IsTypeOnly reports whether the reference only matters to the type checker.
func (k ImportKind) IsTypeOnly() bool {
	return k == ImportDenoTypes || k == ImportReferenceTypes
}

// ImportRef is a module reference found in the source.
type ImportRef struct {
	Kind      ImportKind
	Specifier string
	// Span covers the specifier text between the quotes.
	Span     source.Span
	TypeOnly bool // `import type`, `export type`
}

var (
	denoTypesRe   = regexp.MustCompile(`^//\s*@deno-types\s*=\s*(?:"([^"]+)"|'([^']+)')`)
	tripleSlashRe = regexp.MustCompile(`^///\s*<reference\s+(types|path)\s*=\s*(?:"([^"]+)"|'([^']+)')`)
)

// commentImport matches a directive comment starting at off. Triple-slash
// directives only count at the top level of the module.
func commentImport(text string, off uint32, topLevel bool) (ImportRef, bool) {
	if m := denoTypesRe.FindStringSubmatchIndex(text); m != nil {
		start, end := group(m, 1, 2)
		return ImportRef{
			Kind:      ImportDenoTypes,
			Specifier: text[start:end],
			Span:      source.Span{Start: off + uint32(start), End: off + uint32(end)},
		}, true
	}
	if !topLevel {
		return ImportRef{}, false
	}
	if m := tripleSlashRe.FindStringSubmatchIndex(text); m != nil {
		kind := ImportReferencePath
		if text[m[2]:m[3]] == "types" {
			kind = ImportReferenceTypes
		}
		start, end := group(m, 2, 3)
		return ImportRef{
			Kind:      kind,
			Specifier: text[start:end],
			Span:      source.Span{Start: off + uint32(start), End: off + uint32(end)},
		}, true
	}
	return ImportRef{}, false
}

// group returns the bounds of whichever alternative group matched.
func group(m []int, groups ...int) (start, end int) {
	for _, g := range groups {
		if m[2*g] >= 0 {
			return m[2*g], m[2*g+1]
		}
	}
	return 0, 0
}

// unquote decodes escapes inside a string literal body. Bodies without
// escapes are returned as is.
func unquote(body string) string {
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	quoted := `"` + strings.ReplaceAll(body, `"`, `\"`) + `"`
	if s, err := strconv.Unquote(quoted); err == nil {
		return s
	}
	return body
}
