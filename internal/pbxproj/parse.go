package pbxproj

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// manifest is the participle grammar root: a single top-level dictionary.
//
//nolint:govet // participle grammar tags are not standard struct tags
type manifest struct {
	Root *dict `@@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type dict struct {
	Entries []*entry `"{" @@* "}"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type entry struct {
	Tokens []lexer.Token

	Key   string `@(Ident | String) "="`
	Value *value `@@ ";"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type value struct {
	Dict   *dict   `  @@`
	Array  *array  `| @@`
	Scalar *string `| @(Ident | String)`
}

// array items are separated by commas; Xcode always writes a trailing one.
//
//nolint:govet // participle grammar tags are not standard struct tags
type array struct {
	Items []*value `"(" ( @@ ","? )* ")"`
}

var manifestParser = participle.MustBuild[manifest](
	participle.Lexer(manifestLexer),
	participle.Elide("Whitespace", "Comment", "LineComment"),
)

// Object is one entry of the manifest's objects section.
type Object struct {
	ID        string   `json:"id"`
	ISA       string   `json:"isa"`
	StartLine int      `json:"start_line"` // 1-based, line of the identifier
	EndLine   int      `json:"end_line"`   // 1-based, line of the closing ";"
	Refs      []string `json:"refs,omitempty"`

	// Links are the object's own fields that hold a single identifier.
	Links []Link `json:"links,omitempty"`

	// Remote is the remoteGlobalIDString of a container item proxy. It names
	// an object in the project containerPortal points at, which need not be
	// this one.
	Remote string `json:"-"`
	Portal string `json:"-"`
}

// Link is a field of an object whose value is one object identifier, such
// as "target = ID;" or "remoteGlobalIDString = ID;". Unlike an array entry it
// cannot be dropped on its own: the object would lose a required field.
type Link struct {
	Key  string `json:"key"`
	ID   string `json:"id"`
	Line int    `json:"line"`
}

// Project is the parsed index of a manifest.
type Project struct {
	RootObject string
	Objects    []Object // in document order

	byID map[string]int
}

// Parse parses a complete manifest.
// filename is used only in error messages.
func Parse(filename string, src []byte) (*Project, error) {
	m, err := manifestParser.ParseBytes(filename, src)
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	p := &Project{byID: make(map[string]int)}
	for _, e := range m.Root.Entries {
		switch e.Key {
		case "rootObject":
			if e.Value.Scalar != nil {
				p.RootObject = *e.Value.Scalar
			}
		case "objects":
			if e.Value.Dict == nil {
				return nil, fmt.Errorf("parse manifest: objects is not a dictionary")
			}
			for _, obj := range e.Value.Dict.Entries {
				p.add(obj)
			}
		}
	}
	return p, nil
}

func (p *Project) add(e *entry) {
	obj := Object{ID: e.Key}
	obj.StartLine, obj.EndLine = lineSpan(e.Tokens)

	if e.Value.Dict != nil {
		for _, field := range e.Value.Dict.Entries {
			if field.Value.Scalar != nil {
				if IsIdentifier(*field.Value.Scalar) {
					line, _ := lineSpan(field.Tokens)
					obj.Links = append(obj.Links, Link{Key: field.Key, ID: *field.Value.Scalar, Line: line})
				}
				switch field.Key {
				case "isa":
					obj.ISA = *field.Value.Scalar
				case "remoteGlobalIDString":
					obj.Remote = *field.Value.Scalar
				case "containerPortal":
					obj.Portal = *field.Value.Scalar
				}
			}
			collectRefs(field.Value, &obj.Refs)
		}
	}

	p.byID[obj.ID] = len(p.Objects)
	p.Objects = append(p.Objects, obj)
}

// Object returns the object with the given identifier.
func (p *Project) Object(id string) (Object, bool) {
	i, ok := p.byID[id]
	if !ok {
		return Object{}, false
	}
	return p.Objects[i], true
}

// ObjectAt returns the object whose line span contains line.
func (p *Project) ObjectAt(line int) (Object, bool) {
	for _, obj := range p.Objects {
		if line >= obj.StartLine && line <= obj.EndLine {
			return obj, true
		}
	}
	return Object{}, false
}

// LinkAt returns the link defined on line and the object that holds it.
// A one-line object's links share its definition line and are not reported.
func (p *Project) LinkAt(line int) (Object, Link, bool) {
	obj, ok := p.ObjectAt(line)
	if !ok || obj.StartLine == line {
		return Object{}, Link{}, false
	}
	for _, link := range obj.Links {
		if link.Line == line {
			return obj, link, true
		}
	}
	return Object{}, Link{}, false
}

// ReferencesTo returns the identifiers of objects that reference id.
func (p *Project) ReferencesTo(id string) []string {
	var referrers []string
	for _, obj := range p.Objects {
		for _, ref := range obj.Refs {
			if ref == id {
				referrers = append(referrers, obj.ID)
				break
			}
		}
	}
	return referrers
}

// DanglingRef is a reference to an identifier no object defines.
type DanglingRef struct {
	From string `json:"from"` // referring object, empty for rootObject
	ISA  string `json:"isa,omitempty"`
	Line int    `json:"line"`
	ID   string `json:"id"`
}

// Dangling returns references to undefined objects, in document order.
// A proxy's remote identifier is skipped unless the proxy points at this
// project, since other projects define their own objects.
func (p *Project) Dangling() []DanglingRef {
	var out []DanglingRef
	if p.RootObject != "" {
		if _, ok := p.byID[p.RootObject]; !ok {
			out = append(out, DanglingRef{ID: p.RootObject})
		}
	}
	for _, obj := range p.Objects {
		seen := make(map[string]bool)
		for _, ref := range obj.Refs {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			if ref == obj.Remote && obj.Portal != "" && obj.Portal != p.RootObject {
				continue
			}
			if _, ok := p.byID[ref]; !ok {
				out = append(out, DanglingRef{From: obj.ID, ISA: obj.ISA, Line: obj.StartLine, ID: ref})
			}
		}
	}
	return out
}

func collectRefs(v *value, refs *[]string) {
	switch {
	case v == nil:
	case v.Scalar != nil:
		if IsIdentifier(*v.Scalar) {
			*refs = append(*refs, *v.Scalar)
		}
	case v.Dict != nil:
		for _, e := range v.Dict.Entries {
			collectRefs(e.Value, refs)
		}
	case v.Array != nil:
		for _, item := range v.Array.Items {
			collectRefs(item, refs)
		}
	}
}

// lineSpan returns the first and last lines holding significant tokens.
// The token range may include elided whitespace and comments at its edges.
func lineSpan(tokens []lexer.Token) (start, end int) {
	for _, tok := range tokens {
		if tok.Type != tokIdent && tok.Type != tokString && tok.Type != tokPunct {
			continue
		}
		if start == 0 || tok.Pos.Line < start {
			start = tok.Pos.Line
		}
		if tok.Pos.Line > end {
			end = tok.Pos.Line
		}
	}
	return start, end
}
