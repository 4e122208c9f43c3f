package parser

type eventKind uint8

const (
	evEnter eventKind = iota
	evExit
	evIdent
)

type event struct {
	kind eventKind
	idx  uint32
}

// Visitor receives scopes and identifiers in source order. Nil callbacks
// are skipped.
type Visitor struct {
	EnterScope func(*Scope)
	ExitScope  func(*Scope)
	Ident      func(*Ident)
}

// Walk replays the module for v. The module scope is entered first and
// exited last.
func (p *ParsedSource) Walk(v Visitor) {
	if v.EnterScope != nil {
		v.EnterScope(&p.scopes[ModuleScope])
	}
	for _, ev := range p.events {
		switch ev.kind {
		case evEnter:
			if v.EnterScope != nil {
				v.EnterScope(&p.scopes[ev.idx])
			}
		case evExit:
			if v.ExitScope != nil {
				v.ExitScope(&p.scopes[ev.idx])
			}
		case evIdent:
			if v.Ident != nil {
				v.Ident(&p.idents[ev.idx])
			}
		}
	}
	if v.ExitScope != nil {
		v.ExitScope(&p.scopes[ModuleScope])
	}
}
