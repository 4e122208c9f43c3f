package parser

import "dnt/internal/source"

// SyntaxContext identifies the scope an identifier resolves to. Two
// identifiers with the same name and context refer to the same binding.
type SyntaxContext uint32

const (
	// NoContext is used for names that never resolve: property keys,
	// member names, labels and type names.
	NoContext SyntaxContext = 0
	// TopLevelContext covers module-scope bindings and unresolved globals.
	TopLevelContext SyntaxContext = 1
)

// ScopeID indexes ParsedSource.Scopes. The module scope is always 0.
type ScopeID uint32

const ModuleScope ScopeID = 0

type ScopeKind uint8

const (
	ScopeModule ScopeKind = iota
	ScopeFunction
	ScopeBlock
	ScopeCatch
	ScopeClass
	ScopeFor
	ScopeNamespace
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeCatch:
		return "catch"
	case ScopeClass:
		return "class"
	case ScopeFor:
		return "for"
	case ScopeNamespace:
		return "namespace"
	default:
		return "unknown"
	}
}

// Scope is one lexical scope.
type Scope struct {
	ID       ScopeID
	Parent   ScopeID // equal to ID for the module scope
	Kind     ScopeKind
	Span     source.Span
	Bindings map[string]struct{}
}

// Context returns the syntax context of bindings declared in s.
func (s *Scope) Context() SyntaxContext {
	return TopLevelContext + SyntaxContext(s.ID)
}

// Declares reports whether name is bound directly in s.
func (s *Scope) Declares(name string) bool {
	_, ok := s.Bindings[name]
	return ok
}

// hoists reports whether `var` declarations stop at this scope.
func (s *Scope) hoists() bool {
	switch s.Kind {
	case ScopeModule, ScopeFunction, ScopeNamespace:
		return true
	}
	return false
}

type IdentKind uint8

const (
	// IdentReference reads or writes a binding.
	IdentReference IdentKind = iota
	// IdentBinding declares a binding.
	IdentBinding
	// IdentProperty is a member, key or export name.
	IdentProperty
	// IdentShorthand is `{ name }`: both a key and a reference.
	IdentShorthand
	// IdentType names a type.
	IdentType
	// IdentLabel is a statement label.
	IdentLabel
	// IdentExport is the local name in `export { name }`; it reads a
	// binding but cannot be replaced by an expression.
	IdentExport
	// IdentTypeQuery is the head of `typeof name` in a type position.
	IdentTypeQuery
)

func (k IdentKind) String() string {
	switch k {
	case IdentReference:
		return "reference"
	case IdentBinding:
		return "binding"
	case IdentProperty:
		return "property"
	case IdentShorthand:
		return "shorthand"
	case IdentType:
		return "type"
	case IdentLabel:
		return "label"
	case IdentExport:
		return "export"
	case IdentTypeQuery:
		return "type query"
	default:
		return "unknown"
	}
}

// Ident is one identifier occurrence.
type Ident struct {
	Name  string
	Span  source.Span
	Kind  IdentKind
	Scope ScopeID // innermost enclosing scope
	Ctxt  SyntaxContext
}

// IsTopLevel reports whether the identifier refers to a module binding or
// an unresolved global.
func (id *Ident) IsTopLevel() bool {
	return id.Ctxt == TopLevelContext
}
