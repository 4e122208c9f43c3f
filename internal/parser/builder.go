package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"dnt/internal/source"
)

// builder walks the CST once, creating scopes, bindings and identifier
// occurrences. References are resolved afterwards so hoisting needs no
// special pass.
type builder struct {
	src []byte
	ps  *ParsedSource
	cur ScopeID
}

type fnKind uint8

const (
	fnDeclaration fnKind = iota // name binds in the enclosing scope
	fnExpression                // name binds in the function's own scope
	fnMethod                    // name is a property
	fnArrow
)

func (b *builder) program(root *sitter.Node) {
	b.eachChild(root, func(_ string, c *sitter.Node) {
		if c.Type() == "comment" {
			b.comment(c, true)
			return
		}
		b.visit(c)
	})
}

func (b *builder) visit(n *sitter.Node) {
	switch n.Type() {
	case "comment":
		b.comment(n, false)
	case "identifier":
		b.ident(n, IdentReference)
	case "property_identifier", "private_property_identifier":
		b.ident(n, IdentProperty)
	case "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		b.ident(n, IdentShorthand)
	case "type_identifier":
		b.ident(n, IdentType)
	case "statement_identifier":
		b.ident(n, IdentLabel)
	case "string", "number", "regex":
		// no identifiers inside

	case "import_statement":
		b.importStatement(n)
	case "export_statement":
		b.exportStatement(n)
	case "call_expression":
		b.callExpression(n)
	case "import_alias":
		b.importAlias(n)

	case "variable_declaration":
		b.declaration(n, b.hoistTarget())
	case "lexical_declaration":
		b.declaration(n, b.cur)

	case "function_declaration", "generator_function_declaration", "function_signature":
		b.function(n, fnDeclaration)
	case "function_expression", "function", "generator_function":
		b.function(n, fnExpression)
	case "arrow_function":
		b.function(n, fnArrow)
	case "method_definition", "method_signature", "abstract_method_signature",
		"call_signature", "construct_signature":
		b.function(n, fnMethod)

	case "class_declaration", "abstract_class_declaration":
		b.class(n, true)
	case "class":
		b.class(n, false)

	case "statement_block", "switch_body":
		b.push(ScopeBlock, n)
		b.children(n)
		b.pop()
	case "for_statement":
		b.push(ScopeFor, n)
		b.children(n)
		b.pop()
	case "for_in_statement":
		b.forIn(n)
	case "catch_clause":
		b.catchClause(n)

	case "enum_declaration":
		b.eachChild(n, func(field string, c *sitter.Node) {
			if field == "name" {
				b.bind(c, b.cur)
				return
			}
			b.visit(c)
		})
	case "internal_module", "module":
		b.namespace(n)

	case "jsx_opening_element", "jsx_self_closing_element", "jsx_closing_element":
		b.jsxElement(n)
	case "jsx_namespace_name", "namespace_export":
		b.propertyNames(n)
	case "type_query":
		b.eachChild(n, func(_ string, c *sitter.Node) { b.typeQuery(c) })

	default:
		b.children(n)
	}
}

func (b *builder) children(n *sitter.Node) {
	b.eachChild(n, func(_ string, c *sitter.Node) { b.visit(c) })
}

// eachChild calls fn for every named child with its field name.
func (b *builder) eachChild(n *sitter.Node, fn func(field string, c *sitter.Node)) {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c == nil || !c.IsNamed() {
			continue
		}
		fn(n.FieldNameForChild(i), c)
	}
}

func (b *builder) push(kind ScopeKind, n *sitter.Node) {
	id := ScopeID(len(b.ps.scopes))
	b.ps.scopes = append(b.ps.scopes, Scope{
		ID:       id,
		Parent:   b.cur,
		Kind:     kind,
		Span:     b.span(n),
		Bindings: make(map[string]struct{}),
	})
	b.ps.events = append(b.ps.events, event{kind: evEnter, idx: uint32(id)})
	b.cur = id
}

func (b *builder) pop() {
	b.ps.events = append(b.ps.events, event{kind: evExit, idx: uint32(b.cur)})
	b.cur = b.ps.scopes[b.cur].Parent
}

// hoistTarget is where a `var` declared in the current scope lands.
func (b *builder) hoistTarget() ScopeID {
	id := b.cur
	for !b.ps.scopes[id].hoists() {
		id = b.ps.scopes[id].Parent
	}
	return id
}

func (b *builder) span(n *sitter.Node) source.Span {
	return source.Span{Start: n.StartByte(), End: n.EndByte()}
}

func (b *builder) text(n *sitter.Node) string {
	return string(b.src[n.StartByte():n.EndByte()])
}

func (b *builder) ident(n *sitter.Node, kind IdentKind) {
	name := strings.TrimPrefix(b.text(n), "#")
	b.record(Ident{Name: name, Span: b.span(n), Kind: kind, Scope: b.cur})
}

func (b *builder) record(id Ident) {
	b.ps.names[id.Name] = struct{}{}
	b.ps.events = append(b.ps.events, event{kind: evIdent, idx: uint32(len(b.ps.idents))})
	b.ps.idents = append(b.ps.idents, id)
}

// bind declares the identifier n in target.
func (b *builder) bind(n *sitter.Node, target ScopeID) {
	switch n.Type() {
	case "identifier", "type_identifier", "shorthand_property_identifier_pattern":
	default:
		b.visit(n)
		return
	}
	name := b.text(n)
	scope := &b.ps.scopes[target]
	scope.Bindings[name] = struct{}{}
	if target == ModuleScope {
		b.ps.topLevel[name] = struct{}{}
	}
	b.record(Ident{Name: name, Span: b.span(n), Kind: IdentBinding, Scope: b.cur, Ctxt: scope.Context()})
}

// pattern declares every name in a binding pattern.
func (b *builder) pattern(n *sitter.Node, target ScopeID) {
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		b.bind(n, target)
	case "object_pattern", "array_pattern", "rest_pattern":
		b.eachChild(n, func(_ string, c *sitter.Node) { b.pattern(c, target) })
	case "pair_pattern":
		b.eachChild(n, func(field string, c *sitter.Node) {
			if field == "value" {
				b.pattern(c, target)
				return
			}
			b.visit(c)
		})
	case "assignment_pattern", "object_assignment_pattern":
		b.eachChild(n, func(field string, c *sitter.Node) {
			if field == "left" {
				b.pattern(c, target)
				return
			}
			b.visit(c)
		})
	case "required_parameter", "optional_parameter":
		b.eachChild(n, func(field string, c *sitter.Node) {
			if field == "pattern" {
				b.pattern(c, target)
				return
			}
			b.visit(c)
		})
	case "comment":
	default:
		b.visit(n)
	}
}

func (b *builder) declaration(n *sitter.Node, target ScopeID) {
	b.eachChild(n, func(_ string, c *sitter.Node) {
		if c.Type() != "variable_declarator" {
			b.visit(c)
			return
		}
		b.eachChild(c, func(field string, part *sitter.Node) {
			if field == "name" {
				b.pattern(part, target)
				return
			}
			b.visit(part)
		})
	})
}

func (b *builder) function(n *sitter.Node, kind fnKind) {
	pushed := false
	enter := func() {
		if !pushed {
			b.push(ScopeFunction, n)
			pushed = true
		}
	}
	if kind == fnExpression {
		enter()
	}
	b.eachChild(n, func(field string, c *sitter.Node) {
		switch field {
		case "name":
			if kind == fnMethod {
				b.visit(c)
			} else {
				b.bind(c, b.cur)
			}
		case "parameters":
			enter()
			b.eachChild(c, func(_ string, p *sitter.Node) { b.pattern(p, b.cur) })
		case "parameter":
			enter()
			b.pattern(c, b.cur)
		case "body":
			enter()
			if c.Type() == "statement_block" {
				b.children(c)
			} else {
				b.visit(c)
			}
		case "type_parameters", "return_type":
			enter()
			b.visit(c)
		default:
			b.visit(c)
		}
	})
	if pushed {
		b.pop()
	}
}

func (b *builder) class(n *sitter.Node, declaration bool) {
	pushed := false
	enter := func() {
		if !pushed {
			b.push(ScopeClass, n)
			pushed = true
		}
	}
	if !declaration {
		enter()
	}
	b.eachChild(n, func(field string, c *sitter.Node) {
		switch field {
		case "name":
			b.bind(c, b.cur)
		case "decorator":
			b.visit(c)
		default:
			enter()
			b.visit(c)
		}
	})
	if pushed {
		b.pop()
	}
}

func (b *builder) forIn(n *sitter.Node) {
	b.push(ScopeFor, n)
	kind := n.ChildByFieldName("kind")
	b.eachChild(n, func(field string, c *sitter.Node) {
		if field != "left" || kind == nil {
			b.visit(c)
			return
		}
		target := b.cur
		if b.text(kind) == "var" {
			target = b.hoistTarget()
		}
		b.pattern(c, target)
	})
	b.pop()
}

func (b *builder) catchClause(n *sitter.Node) {
	b.push(ScopeCatch, n)
	b.eachChild(n, func(field string, c *sitter.Node) {
		switch field {
		case "parameter":
			b.pattern(c, b.cur)
		case "body":
			b.children(c)
		default:
			b.visit(c)
		}
	})
	b.pop()
}

func (b *builder) namespace(n *sitter.Node) {
	b.eachChild(n, func(field string, c *sitter.Node) {
		switch field {
		case "name":
			b.namespaceName(c)
		case "body":
			b.push(ScopeNamespace, c)
			b.children(c)
			b.pop()
		default:
			b.visit(c)
		}
	})
}

// namespaceName binds the leftmost name of `namespace A.B.C`.
func (b *builder) namespaceName(n *sitter.Node) {
	switch n.Type() {
	case "identifier":
		b.bind(n, b.cur)
	case "nested_identifier":
		first := true
		b.eachChild(n, func(_ string, c *sitter.Node) {
			if first {
				first = false
				b.namespaceName(c)
				return
			}
			b.propertyNames(c)
		})
	}
}

// propertyNames records every identifier under n as a property name.
func (b *builder) propertyNames(n *sitter.Node) {
	switch n.Type() {
	case "identifier", "property_identifier", "type_identifier":
		b.ident(n, IdentProperty)
	case "string", "comment":
	default:
		b.eachChild(n, func(_ string, c *sitter.Node) { b.propertyNames(c) })
	}
}

func (b *builder) jsxElement(n *sitter.Node) {
	b.eachChild(n, func(field string, c *sitter.Node) {
		if field == "name" && c.Type() == "identifier" && isIntrinsicTag(b.text(c)) {
			b.ident(c, IdentProperty)
			return
		}
		b.visit(c)
	})
}

// <div> names an element, <Div> names a binding.
func isIntrinsicTag(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsLower(r) || strings.ContainsRune(name, '-')
}

func (b *builder) importStatement(n *sitter.Node) {
	typeOnly := hasToken(n, "type")
	b.eachChild(n, func(field string, c *sitter.Node) {
		switch {
		case field == "source":
			b.addImport(ImportStatic, c, typeOnly)
		case c.Type() == "import_clause":
			b.importClause(c)
		case c.Type() == "import_require_clause":
			b.eachChild(c, func(field string, part *sitter.Node) {
				switch {
				case field == "source":
					b.addImport(ImportRequire, part, typeOnly)
				case part.Type() == "identifier":
					b.bind(part, b.cur)
				default:
					b.visit(part)
				}
			})
		default:
			b.visit(c)
		}
	})
}

func (b *builder) importClause(n *sitter.Node) {
	b.eachChild(n, func(_ string, c *sitter.Node) {
		switch c.Type() {
		case "identifier":
			b.bind(c, b.cur)
		case "namespace_import":
			b.eachChild(c, func(_ string, id *sitter.Node) { b.bind(id, b.cur) })
		case "named_imports":
			b.eachChild(c, func(_ string, spec *sitter.Node) {
				if spec.Type() != "import_specifier" {
					return
				}
				alias := spec.ChildByFieldName("alias")
				b.eachChild(spec, func(field string, part *sitter.Node) {
					switch {
					case field == "alias":
						b.bind(part, b.cur)
					case field == "name" && alias != nil:
						b.propertyNames(part)
					case field == "name":
						b.bind(part, b.cur)
					}
				})
			})
		}
	})
}

// `import foo = Bar.baz`
func (b *builder) importAlias(n *sitter.Node) {
	first := true
	b.eachChild(n, func(_ string, c *sitter.Node) {
		if first && c.Type() == "identifier" {
			first = false
			b.bind(c, b.cur)
			return
		}
		b.visit(c)
	})
}

func (b *builder) exportStatement(n *sitter.Node) {
	src := n.ChildByFieldName("source")
	typeOnly := hasToken(n, "type")
	b.eachChild(n, func(field string, c *sitter.Node) {
		switch {
		case field == "source":
			b.addImport(ImportExport, c, typeOnly)
		case c.Type() == "export_clause":
			b.eachChild(c, func(_ string, spec *sitter.Node) {
				if spec.Type() != "export_specifier" {
					return
				}
				b.eachChild(spec, func(field string, part *sitter.Node) {
					if field == "name" && src == nil {
						// local binding being exported
						if part.Type() == "identifier" {
							b.ident(part, IdentExport)
						} else {
							b.visit(part)
						}
						return
					}
					b.propertyNames(part)
				})
			})
		default:
			b.visit(c)
		}
	})
}

// typeQuery records the operand of `typeof` in a type. Only the head of a
// dotted name reads a binding.
func (b *builder) typeQuery(n *sitter.Node) {
	switch n.Type() {
	case "identifier":
		b.ident(n, IdentTypeQuery)
	case "member_expression", "nested_identifier":
		head := true
		b.eachChild(n, func(_ string, c *sitter.Node) {
			if head {
				head = false
				b.typeQuery(c)
				return
			}
			b.propertyNames(c)
		})
	default:
		b.visit(n)
	}
}

func (b *builder) callExpression(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn != nil && fn.Type() == "import" {
		if args := n.ChildByFieldName("arguments"); args != nil {
			if arg := firstNamed(args); arg != nil && isPlainString(arg) {
				b.addImport(ImportDynamic, arg, false)
			}
		}
	}
	b.children(n)
}

func (b *builder) addImport(kind ImportKind, lit *sitter.Node, typeOnly bool) {
	start, end := lit.StartByte(), lit.EndByte()
	if end-start < 2 {
		return
	}
	inner := source.Span{Start: start + 1, End: end - 1}
	b.ps.imports = append(b.ps.imports, ImportRef{
		Kind:      kind,
		Specifier: unquote(string(b.src[inner.Start:inner.End])),
		Span:      inner,
		TypeOnly:  typeOnly,
	})
}

func (b *builder) comment(n *sitter.Node, topLevel bool) {
	if ref, ok := commentImport(b.text(n), n.StartByte(), topLevel); ok {
		b.ps.imports = append(b.ps.imports, ref)
	}
}

// resolve assigns syntax contexts to references by walking up the scope
// chain from where each one appears.
func (b *builder) resolve() {
	scopes := b.ps.scopes
	for i := range b.ps.idents {
		id := &b.ps.idents[i]
		switch id.Kind {
		case IdentReference, IdentShorthand, IdentExport, IdentTypeQuery:
		default:
			continue
		}
		id.Ctxt = TopLevelContext
		for s := id.Scope; ; s = scopes[s].Parent {
			if scopes[s].Declares(id.Name) {
				id.Ctxt = scopes[s].Context()
				break
			}
			if s == ModuleScope {
				break
			}
		}
	}
}

func firstNamed(n *sitter.Node) *sitter.Node {
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		if c := n.NamedChild(i); c != nil && c.Type() != "comment" {
			return c
		}
	}
	return nil
}

// isPlainString accepts string literals and templates without substitutions.
func isPlainString(n *sitter.Node) bool {
	switch n.Type() {
	case "string":
		return true
	case "template_string":
		count := int(n.NamedChildCount())
		for i := 0; i < count; i++ {
			if n.NamedChild(i).Type() == "template_substitution" {
				return false
			}
		}
		return true
	}
	return false
}

// hasToken reports whether n has an anonymous child token with the given text.
func hasToken(n *sitter.Node, tok string) bool {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		if c := n.Child(i); c != nil && !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}
