package declxml

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"

	"github.com/andaru/declxml/xmlerr"
	"github.com/andaru/declxml/xmlpath"
)

// Record is a user defined value assembled field by field while
// parsing. Implementations provide field assignment and lookup by the
// child processor's alias; no reflection is involved.
type Record interface {
	SetField(name string, value interface{}) error
	GetField(name string) (interface{}, bool)
}

// RecordFactory constructs an empty Record ready for field assignment.
type RecordFactory func() Record

// UserObject returns a processor producing and consuming Record values
// built by factory. Traversal is identical to Dictionary; the parsed
// child values are assigned to the record's fields instead of map keys.
func UserObject(path string, factory RecordFactory, children []Processor, opts ...Option) Processor {
	a := newAggregate(path, children, opts)
	if factory == nil {
		a.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("user object %q requires a record factory", path)))
		return a
	}
	aliases := childAliases(children)
	a.conv = converter{
		fromMap: func(st *state, m map[string]interface{}) (interface{}, error) {
			// fields are assigned in child declaration order
			rec := factory()
			for _, name := range aliases {
				v, ok := m[name]
				if !ok {
					continue
				}
				if err := rec.SetField(name, v); err != nil {
					return nil, userError(st, err)
				}
			}
			return rec, nil
		},
		toMap: func(st *state, value interface{}) (map[string]interface{}, error) {
			rec, ok := value.(Record)
			if !ok {
				return nil, errors.Errorf("cannot serialize %T as a record at %s", value, st.location())
			}
			m := make(map[string]interface{}, len(aliases))
			for _, name := range aliases {
				if v, ok := rec.GetField(name); ok {
					m[name] = v
				}
			}
			return m, nil
		},
	}
	return a
}

// NamedTuple returns a processor producing and consuming *Tuple values
// with the given fixed field set. Child aliases must name fields of
// the tuple.
func NamedTuple(path string, fields []string, children []Processor, opts ...Option) Processor {
	a := newAggregate(path, children, opts)
	if len(fields) == 0 {
		a.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("named tuple %q requires at least one field", path)))
		return a
	}
	aliases := childAliases(children)
	a.conv = converter{
		fromMap: func(st *state, m map[string]interface{}) (interface{}, error) {
			t := NewTuple(fields...)
			for _, name := range aliases {
				v, ok := m[name]
				if !ok {
					continue
				}
				if err := t.Set(name, v); err != nil {
					return nil, userError(st, err)
				}
			}
			return t, nil
		},
		toMap: func(st *state, value interface{}) (map[string]interface{}, error) {
			t, ok := value.(*Tuple)
			if !ok {
				return nil, errors.Errorf("cannot serialize %T as a tuple at %s", value, st.location())
			}
			m := make(map[string]interface{}, len(fields))
			for _, name := range t.Fields() {
				if v, ok := t.Get(name); ok {
					m[name] = v
				}
			}
			return m, nil
		},
	}
	return a
}

// Tuple is a fixed, ordered field set with by-name access, the value
// produced by NamedTuple processors.
type Tuple struct {
	fields []string
	values map[string]interface{}
}

// NewTuple returns an empty Tuple with the given field set.
func NewTuple(fields ...string) *Tuple {
	return &Tuple{fields: fields, values: make(map[string]interface{}, len(fields))}
}

// Fields returns the tuple's field names in declaration order.
func (t *Tuple) Fields() []string { return t.fields }

// Get returns the value of the named field and whether it is set.
func (t *Tuple) Get(name string) (interface{}, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Set assigns the named field. Unknown field names are an error.
func (t *Tuple) Set(name string, value interface{}) error {
	for _, f := range t.fields {
		if f == name {
			t.values[name] = value
			return nil
		}
	}
	return errors.Errorf("tuple has no field %q", name)
}

func (t *Tuple) String() string {
	parts := make([]string, 0, len(t.fields))
	for _, f := range t.fields {
		if v, ok := t.values[f]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", f, v))
		}
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// converter maps between the dictionary form of an aggregate and its
// final value form.
type converter struct {
	fromMap func(st *state, m map[string]interface{}) (interface{}, error)
	toMap   func(st *state, value interface{}) (map[string]interface{}, error)
}

// aggregate is a dictionary traversal whose value passes through a
// converter, backing the UserObject and NamedTuple processors.
type aggregate struct {
	meta
	dict *dictionary
	conv converter
}

func newAggregate(path string, children []Processor, opts []Option) *aggregate {
	o := newOptions(opts)
	// the inner dictionary drives traversal only; hooks and the alias
	// stay on the aggregate, which owns the converted value
	dict, _ := Dictionary(path, children, Required(o.required)).(*dictionary)
	a := &aggregate{dict: dict}
	a.required = o.required
	a.hooks = o.hooks
	a.cfgErr = dict.cfgErr
	a.aliasName = defaultAlias(o, dict.path)
	if a.cfgErr == nil && o.attribute != "" {
		a.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("attribute option is not valid for record %q", path)))
	}
	return a
}

func (a *aggregate) elementPath() *xmlpath.Path { return a.dict.path }

func (a *aggregate) check() error {
	if a.cfgErr != nil {
		return a.cfgErr
	}
	if a.conv.fromMap == nil || a.conv.toMap == nil {
		return xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("record %q has no converter", a.dict.path.String())))
	}
	return checkChildren(a.dict.children)
}

func (a *aggregate) parseFromParent(st *state, parent *xmlquery.Node) (interface{}, error) {
	st.push(a.dict.path.String())
	defer st.pop()
	return a.parseAtElement(st, a.dict.path.Resolve(parent))
}

func (a *aggregate) parseAtRoot(st *state, root *xmlquery.Node) (interface{}, error) {
	st.push(a.dict.path.String())
	defer st.pop()
	return a.parseAtElement(st, a.dict.path.MatchRoot(root))
}

func (a *aggregate) parseAtElement(st *state, element *xmlquery.Node) (interface{}, error) {
	if element == nil {
		if a.required {
			return nil, xmlerr.MissingValue(
				xmlerr.WithMessage(fmt.Sprintf("missing required aggregate %q", a.dict.path.String())),
				xmlerr.WithPath(st.location()))
		}
		// an absent optional record converts from an empty mapping so
		// callers still receive a value of the declared shape
		return a.conv.fromMap(st, map[string]interface{}{})
	}
	m, err := a.dict.parseChildren(st, element)
	if err != nil {
		return nil, err
	}
	value, err := a.conv.fromMap(st, m)
	if err != nil {
		return nil, err
	}
	return a.hooks.afterParse(st, value)
}

func (a *aggregate) serializeOnParent(st *state, parent *xmlquery.Node, value interface{}) error {
	st.push(a.dict.path.String())
	defer st.pop()

	// hooks never observe absent values, as on the primitive side
	var err error
	if value != nil {
		if value, err = a.hooks.beforeSerialize(st, value); err != nil {
			return err
		}
	}
	if value == nil {
		if a.required {
			return xmlerr.MissingValue(
				xmlerr.WithMessage(fmt.Sprintf("missing required aggregate %q", a.dict.path.String())),
				xmlerr.WithPath(st.location()))
		}
		return nil
	}
	m, err := a.conv.toMap(st, value)
	if err != nil {
		return err
	}
	return a.dict.serializeChildren(st, a.dict.path.GetOrCreate(parent), m)
}

func (a *aggregate) serializeAtRoot(st *state, value interface{}) (*xmlquery.Node, error) {
	st.push(a.dict.path.String())
	defer st.pop()

	var err error
	if value != nil {
		if value, err = a.hooks.beforeSerialize(st, value); err != nil {
			return nil, err
		}
	}
	if value == nil && a.required {
		return nil, xmlerr.MissingValue(
			xmlerr.WithMessage(fmt.Sprintf("missing required aggregate %q", a.dict.path.String())),
			xmlerr.WithPath(st.location()))
	}
	m := map[string]interface{}{}
	if value != nil {
		if m, err = a.conv.toMap(st, value); err != nil {
			return nil, err
		}
	}
	root, leaf := a.dict.path.CreateRoot()
	if err := a.dict.serializeChildren(st, leaf, m); err != nil {
		return nil, err
	}
	return root, nil
}

func (a *aggregate) serializeAppend(st *state, container *xmlquery.Node, value interface{}) error {
	var err error
	if value != nil {
		if value, err = a.hooks.beforeSerialize(st, value); err != nil {
			return err
		}
	}
	m, err := a.conv.toMap(st, value)
	if err != nil {
		return err
	}
	return a.dict.serializeChildren(st, a.dict.path.CreateIn(container), m)
}

func childAliases(children []Processor) []string {
	out := make([]string, len(children))
	for i, c := range children {
		out[i] = c.alias()
	}
	return out
}
