package declxml

import (
	"fmt"

	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"

	"github.com/andaru/declxml/xmlerr"
	"github.com/andaru/declxml/xmlpath"
)

// Dictionary returns a processor producing and consuming a
// map[string]interface{} keyed by each child processor's alias. The
// path names the element containing the children and may span several
// segments ("root/places").
func Dictionary(path string, children []Processor, opts ...Option) Processor {
	o := newOptions(opts)
	d := &dictionary{children: children}
	d.required = o.required
	d.hooks = o.hooks

	parsed, err := xmlpath.Parse(path)
	switch {
	case err != nil:
		d.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(err.Error()))
		return d
	case parsed.IsSelf():
		d.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage("dictionary requires a named element path"))
		return d
	case o.attribute != "":
		d.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("attribute option is not valid for dictionary %q", path)))
	case o.nested != "":
		d.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("nested option is not valid for dictionary %q", path)))
	}
	d.path = parsed
	d.aliasName = defaultAlias(o, parsed)
	return d
}

type dictionary struct {
	meta
	path     *xmlpath.Path
	children []Processor
}

func (d *dictionary) elementPath() *xmlpath.Path { return d.path }

func (d *dictionary) check() error {
	if d.cfgErr != nil {
		return d.cfgErr
	}
	return checkChildren(d.children)
}

func (d *dictionary) parseFromParent(st *state, parent *xmlquery.Node) (interface{}, error) {
	st.push(d.path.String())
	defer st.pop()
	return d.parseAtElement(st, d.path.Resolve(parent))
}

func (d *dictionary) parseAtRoot(st *state, root *xmlquery.Node) (interface{}, error) {
	st.push(d.path.String())
	defer st.pop()
	return d.parseAtElement(st, d.path.MatchRoot(root))
}

func (d *dictionary) parseAtElement(st *state, element *xmlquery.Node) (interface{}, error) {
	if element == nil {
		if d.required {
			return nil, xmlerr.MissingValue(
				xmlerr.WithMessage(fmt.Sprintf("missing required aggregate %q", d.path.String())),
				xmlerr.WithPath(st.location()))
		}
		return map[string]interface{}{}, nil
	}
	value, err := d.parseChildren(st, element)
	if err != nil {
		return nil, err
	}
	return d.hooks.afterParse(st, value)
}

// parseChildren decodes every child processor against element in
// declaration order, keyed by alias. The first failure aborts the walk.
func (d *dictionary) parseChildren(st *state, element *xmlquery.Node) (map[string]interface{}, error) {
	value := make(map[string]interface{}, len(d.children))
	for _, child := range d.children {
		v, err := child.parseFromParent(st, element)
		if err != nil {
			return nil, err
		}
		value[child.alias()] = v
	}
	return value, nil
}

func (d *dictionary) serializeOnParent(st *state, parent *xmlquery.Node, value interface{}) error {
	st.push(d.path.String())
	defer st.pop()

	// hooks never observe absent values, as on the primitive side
	var err error
	if value != nil {
		if value, err = d.hooks.beforeSerialize(st, value); err != nil {
			return err
		}
	}
	if isEmpty(value) {
		if d.required {
			return xmlerr.MissingValue(
				xmlerr.WithMessage(fmt.Sprintf("missing required aggregate %q", d.path.String())),
				xmlerr.WithPath(st.location()))
		}
		return nil
	}
	m, err := valueAsMap(st, value)
	if err != nil {
		return err
	}
	return d.serializeChildren(st, d.path.GetOrCreate(parent), m)
}

func (d *dictionary) serializeAtRoot(st *state, value interface{}) (*xmlquery.Node, error) {
	st.push(d.path.String())
	defer st.pop()

	var err error
	if value != nil {
		if value, err = d.hooks.beforeSerialize(st, value); err != nil {
			return nil, err
		}
	}
	if isEmpty(value) && d.required {
		return nil, xmlerr.MissingValue(
			xmlerr.WithMessage(fmt.Sprintf("missing required aggregate %q", d.path.String())),
			xmlerr.WithPath(st.location()))
	}
	m := map[string]interface{}{}
	if value != nil {
		if m, err = valueAsMap(st, value); err != nil {
			return nil, err
		}
	}
	root, leaf := d.path.CreateRoot()
	if err := d.serializeChildren(st, leaf, m); err != nil {
		return nil, err
	}
	return root, nil
}

func (d *dictionary) serializeAppend(st *state, container *xmlquery.Node, value interface{}) error {
	var err error
	if value != nil {
		if value, err = d.hooks.beforeSerialize(st, value); err != nil {
			return err
		}
	}
	m, err := valueAsMap(st, value)
	if err != nil {
		return err
	}
	return d.serializeChildren(st, d.path.CreateIn(container), m)
}

func (d *dictionary) serializeChildren(st *state, element *xmlquery.Node, value map[string]interface{}) error {
	for _, child := range d.children {
		if err := child.serializeOnParent(st, element, value[child.alias()]); err != nil {
			return err
		}
	}
	return nil
}

func valueAsMap(st *state, value interface{}) (map[string]interface{}, error) {
	if value == nil {
		return map[string]interface{}{}, nil
	}
	m, ok := value.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("cannot serialize %T as a mapping at %s", value, st.location())
	}
	return m, nil
}
