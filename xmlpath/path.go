// Package xmlpath implements the element path grammar used by processor
// declarations.
//
// A path is either the self reference "." (operate on the context element
// itself, typically to reach its attributes) or one or more element names
// joined by "/" naming a descendant of the context element. Read side
// resolution uses XPath expressions compiled once at declaration time;
// the write side walks the parsed steps creating elements as needed.
package xmlpath

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/pkg/errors"
)

// Path is a parsed element path. A Path is immutable once constructed
// and safe for shared use.
type Path struct {
	raw   string
	steps []string // nil for the self path
	expr  *xpath.Expr
}

// Parse parses a path expression. An empty expression, an empty step or
// a "." combined with other steps is an error.
func Parse(s string) (*Path, error) {
	if s == "" {
		return nil, errors.New("empty element path")
	}
	if s == "." {
		return &Path{raw: s}, nil
	}
	steps := strings.Split(s, "/")
	for _, step := range steps {
		if step == "" {
			return nil, errors.Errorf("empty step in element path %q", s)
		}
		if step == "." {
			return nil, errors.Errorf("self reference must be the entire path, got %q", s)
		}
	}
	expr, err := xpath.Compile(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid element path %q", s)
	}
	return &Path{raw: s, steps: steps, expr: expr}, nil
}

// IsSelf reports whether p is the self reference ".".
func (p *Path) IsSelf() bool { return p.steps == nil }

// Steps returns the element names of p, or nil for the self path.
func (p *Path) Steps() []string { return p.steps }

// Last returns the final element name of p, or "." for the self path.
func (p *Path) Last() string {
	if p.IsSelf() {
		return "."
	}
	return p.steps[len(p.steps)-1]
}

func (p *Path) String() string { return p.raw }

// Resolve returns the element p refers to relative to ctx, or nil if
// any step is missing. The self path resolves to ctx itself. When
// multiple elements match, the first in document order is returned.
func (p *Path) Resolve(ctx *xmlquery.Node) *xmlquery.Node {
	if p.IsSelf() {
		return ctx
	}
	return xmlquery.QuerySelector(ctx, p.expr)
}

// ResolveAll returns every element matching p relative to ctx in
// document order.
func (p *Path) ResolveAll(ctx *xmlquery.Node) []*xmlquery.Node {
	if p.IsSelf() {
		return []*xmlquery.Node{ctx}
	}
	return xmlquery.QuerySelectorAll(ctx, p.expr)
}

// GetOrCreate returns the element p refers to relative to ctx, creating
// any missing elements along the way. Existing elements are reused so
// that multiple values may target the same element, as happens when an
// element carries both attributes and text or child content.
func (p *Path) GetOrCreate(ctx *xmlquery.Node) *xmlquery.Node {
	cur := ctx
	for _, step := range p.steps {
		next := cur.SelectElement(step)
		if next == nil {
			next = NewElement(step)
			xmlquery.AddChild(cur, next)
		}
		cur = next
	}
	return cur
}

// CreateIn creates a new element for the final step of p under ctx and
// returns it. Intermediate steps reuse existing elements; the final
// element is always fresh, which is what array item emission needs.
// CreateIn must not be called on the self path.
func (p *Path) CreateIn(ctx *xmlquery.Node) *xmlquery.Node {
	cur := ctx
	for _, step := range p.steps[:len(p.steps)-1] {
		next := cur.SelectElement(step)
		if next == nil {
			next = NewElement(step)
			xmlquery.AddChild(cur, next)
		}
		cur = next
	}
	leaf := NewElement(p.Last())
	xmlquery.AddChild(cur, leaf)
	return leaf
}

// MatchRoot matches p against a document root element. The first step
// must equal the root element's name; any remaining steps descend from
// it. Returns nil if the root does not match or a step is missing.
func (p *Path) MatchRoot(root *xmlquery.Node) *xmlquery.Node {
	if p.IsSelf() || root == nil || root.Data != p.steps[0] {
		return nil
	}
	cur := root
	for _, step := range p.steps[1:] {
		if cur = cur.SelectElement(step); cur == nil {
			return nil
		}
	}
	return cur
}

// CreateRoot creates the element chain for p and returns the root
// element along with the final element of the chain.
func (p *Path) CreateRoot() (root, leaf *xmlquery.Node) {
	root = NewElement(p.steps[0])
	leaf = root
	for _, step := range p.steps[1:] {
		next := NewElement(step)
		xmlquery.AddChild(leaf, next)
		leaf = next
	}
	return root, leaf
}

// NewElement returns a new element node with the given name.
func NewElement(name string) *xmlquery.Node {
	return &xmlquery.Node{Type: xmlquery.ElementNode, Data: name}
}

// SetText appends a text node holding text to n. Empty text adds no
// node, matching the absence of text in an empty element.
func SetText(n *xmlquery.Node, text string) {
	if text == "" {
		return
	}
	xmlquery.AddChild(n, &xmlquery.Node{Type: xmlquery.TextNode, Data: text})
}
