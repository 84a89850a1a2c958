package declxml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andaru/declxml/xmlpath"
	"github.com/antchfx/xmlquery"
)

// Processor describes how one value, scalar or aggregate, maps to and
// from a location in an XML document. Processors are built once with
// the package constructor functions, are immutable thereafter and may
// be shared freely between concurrent Parse and Serialize calls.
//
// The method set is unexported, so the set of processor kinds is closed
// to this package.
type Processor interface {
	alias() string
	isRequired() bool
	// elementPath returns the path of the element the processor owns,
	// or nil for processors without one (embedded arrays).
	elementPath() *xmlpath.Path
	// check reports declaration-time misuse, independent of any document.
	check() error

	parseFromParent(st *state, parent *xmlquery.Node) (interface{}, error)
	parseAtElement(st *state, element *xmlquery.Node) (interface{}, error)
	serializeOnParent(st *state, parent *xmlquery.Node, value interface{}) error
	// serializeAppend emits value as a fresh element under container,
	// used for array item emission.
	serializeAppend(st *state, container *xmlquery.Node, value interface{}) error
}

// rootProcessor is implemented by processors which may sit at the root
// of a document: dictionaries, records and nested arrays.
type rootProcessor interface {
	Processor
	parseAtRoot(st *state, root *xmlquery.Node) (interface{}, error)
	serializeAtRoot(st *state, value interface{}) (*xmlquery.Node, error)
}

// Option configures a processor at construction time
type Option func(*options)

type options struct {
	attribute          string
	required           bool
	requiredSet        bool
	aliasName          string
	defaultValue       interface{}
	defaultSet         bool
	omitEmpty          bool
	nested             string
	hooks              Hooks
	preserveWhitespace bool
}

func newOptions(opts []Option) options {
	o := options{required: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Attribute names an attribute on the resolved element to carry the
// value instead of the element's text. Valid on primitive processors.
func Attribute(name string) Option { return func(o *options) { o.attribute = name } }

// Required controls whether the value must be present when parsing and
// serializing. Processors are required by default.
func Required(required bool) Option {
	return func(o *options) { o.required, o.requiredSet = required, true }
}

// Alias sets the name used for the value in the parsed representation.
// If not set, the attribute name or the final path segment is used.
func Alias(name string) Option { return func(o *options) { o.aliasName = name } }

// Default sets the value produced when an optional value is absent.
// Only valid together with Required(false).
func Default(value interface{}) Option {
	return func(o *options) { o.defaultValue, o.defaultSet = value, true }
}

// OmitEmpty omits empty values entirely when serializing. Only valid
// together with Required(false); for arrays, only when nested.
func OmitEmpty() Option { return func(o *options) { o.omitEmpty = true } }

// Nested places array items under an intermediate container element
// with the given path. Valid on array processors.
func Nested(path string) Option { return func(o *options) { o.nested = path } }

// WithHooks attaches value interception hooks to the processor.
func WithHooks(h Hooks) Option { return func(o *options) { o.hooks = h } }

// PreserveWhitespace disables the stripping of leading and trailing
// whitespace from parsed string values.
func PreserveWhitespace() Option { return func(o *options) { o.preserveWhitespace = true } }

// meta carries the metadata shared by every processor kind
type meta struct {
	aliasName string
	required  bool
	hooks     Hooks
	cfgErr    error
}

func (m *meta) alias() string    { return m.aliasName }
func (m *meta) isRequired() bool { return m.required }

// Location identifies one step of the document path a processor walk
// has descended through. ArrayIndex is -1 except for array items.
type Location struct {
	ElementPath string
	ArrayIndex  int
}

func (l Location) String() string {
	if l.ArrayIndex < 0 {
		return l.ElementPath
	}
	return l.ElementPath + "[" + strconv.Itoa(l.ArrayIndex) + "]"
}

// state tracks the document location of an in-flight parse or
// serialize walk. Locations are pushed descending into an element and
// popped on return; an error captures the location string at the point
// of failure and is never enriched again on the way out.
type state struct {
	locations []Location
}

func (st *state) push(path string)                { st.locations = append(st.locations, Location{ElementPath: path, ArrayIndex: -1}) }
func (st *state) pushIndexed(path string, i int)  { st.locations = append(st.locations, Location{ElementPath: path, ArrayIndex: i}) }
func (st *state) pop()                            { st.locations = st.locations[:len(st.locations)-1] }

func (st *state) location() string {
	parts := make([]string, len(st.locations))
	for i, l := range st.locations {
		parts[i] = l.String()
	}
	return strings.Join(parts, "/")
}

func (st *state) view() *State { return &State{st: st} }

// State is the read-only view of the processing location passed to
// hook callbacks.
type State struct {
	st *state
}

// Location returns the current document location as a slash-joined
// path string, e.g. "authors/author[1]/birth-year".
func (s *State) Location() string { return s.st.location() }

// Locations returns a copy of the individual location steps.
func (s *State) Locations() []Location {
	out := make([]Location, len(s.st.locations))
	copy(out, s.st.locations)
	return out
}

// isEmpty reports whether a value counts as empty for OmitEmpty and
// aggregate presence purposes: nil, false, zero numbers, empty strings
// and empty collections are empty; everything else is not.
func isEmpty(v interface{}) bool {
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		return !v
	case int:
		return v == 0
	case int64:
		return v == 0
	case float64:
		return v == 0
	case string:
		return v == ""
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	case *Tuple:
		return v == nil || len(v.values) == 0
	}
	return false
}

// checkChildren runs check on each child, returning the first error.
func checkChildren(children []Processor) error {
	for _, c := range children {
		if err := c.check(); err != nil {
			return err
		}
	}
	return nil
}

// defaultAlias picks the value name for a processor: explicit alias,
// then attribute name, then the final path segment.
func defaultAlias(o options, path *xmlpath.Path) string {
	switch {
	case o.aliasName != "":
		return o.aliasName
	case o.attribute != "":
		return o.attribute
	case path != nil:
		return path.Last()
	}
	return ""
}

func describeProcessor(p Processor) string {
	if ep := p.elementPath(); ep != nil {
		return fmt.Sprintf("%q", ep.String())
	}
	return fmt.Sprintf("%q", p.alias())
}
