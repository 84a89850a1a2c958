package declxml

import (
	"fmt"

	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"

	"github.com/andaru/declxml/xmlerr"
	"github.com/andaru/declxml/xmlpath"
)

// Array returns a processor producing and consuming []interface{}
// values, one entry per item decoded by the item processor.
//
// Without the Nested option the array is embedded: its items appear as
// direct repeated children of the parent element. With Nested, items
// live under an intermediate container element, whose presence is
// governed by the array's own Required setting. An array is required
// when its item processor is, unless Required is set on the array
// itself. Arrays ignore the Default option; an absent optional array
// parses to an empty sequence.
func Array(item Processor, opts ...Option) Processor {
	o := newOptions(opts)
	a := &array{item: item, omitEmpty: o.omitEmpty}
	a.hooks = o.hooks
	if o.requiredSet {
		a.required = o.required
	} else {
		a.required = item.isRequired()
	}

	if o.nested != "" {
		nested, err := xmlpath.Parse(o.nested)
		switch {
		case err != nil:
			a.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(err.Error()))
			return a
		case nested.IsSelf():
			a.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
				"nested array requires a named container path"))
			return a
		}
		a.nested = nested
	}

	switch {
	case o.attribute != "":
		a.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("attribute option is not valid for array %q", a.aliasFallback(o))))
	case o.omitEmpty && a.nested == nil:
		a.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			"omit-empty is only valid for nested arrays"))
	case o.omitEmpty && a.required:
		a.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			"omit-empty requires Required(false) on the array"))
	case item.elementPath() == nil:
		a.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			"array item processor must have an element path of its own"))
	case item.elementPath().IsSelf():
		a.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			"array item processor cannot use the self path"))
	}
	a.aliasName = a.aliasFallback(o)
	return a
}

type array struct {
	meta
	item      Processor
	nested    *xmlpath.Path // nil for embedded arrays
	omitEmpty bool
}

func (a *array) aliasFallback(o options) string {
	switch {
	case o.aliasName != "":
		return o.aliasName
	case a.nested != nil:
		return a.nested.Last()
	default:
		return a.item.alias()
	}
}

func (a *array) elementPath() *xmlpath.Path { return a.nested }

func (a *array) check() error {
	if a.cfgErr != nil {
		return a.cfgErr
	}
	return a.item.check()
}

func (a *array) parseFromParent(st *state, parent *xmlquery.Node) (interface{}, error) {
	if a.nested == nil {
		return a.parseItems(st, parent)
	}
	st.push(a.nested.String())
	defer st.pop()
	container := a.nested.Resolve(parent)
	if container == nil {
		return a.finishParse(st, []interface{}{})
	}
	return a.parseItems(st, container)
}

func (a *array) parseAtRoot(st *state, root *xmlquery.Node) (interface{}, error) {
	if a.nested == nil {
		return nil, xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("embedded array %q cannot be a root processor", a.aliasName)))
	}
	st.push(a.nested.String())
	defer st.pop()
	container := a.nested.MatchRoot(root)
	if container == nil {
		return a.finishParse(st, []interface{}{})
	}
	return a.parseItems(st, container)
}

// parseAtElement parses a (nested) array which is itself an array item;
// the container element has already been resolved by the outer array.
func (a *array) parseAtElement(st *state, element *xmlquery.Node) (interface{}, error) {
	return a.parseItems(st, element)
}

func (a *array) parseItems(st *state, container *xmlquery.Node) (interface{}, error) {
	itemPath := a.item.elementPath()
	elements := itemPath.ResolveAll(container)
	out := make([]interface{}, 0, len(elements))
	for i, el := range elements {
		st.pushIndexed(itemPath.String(), i)
		v, err := a.item.parseAtElement(st, el)
		st.pop()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return a.finishParse(st, out)
}

func (a *array) finishParse(st *state, out []interface{}) (interface{}, error) {
	if len(out) == 0 && a.required {
		return nil, a.missing(st)
	}
	return a.hooks.afterParse(st, out)
}

func (a *array) serializeOnParent(st *state, parent *xmlquery.Node, value interface{}) error {
	if a.nested != nil {
		st.push(a.nested.String())
		defer st.pop()
	}
	items, err := a.serializeValue(st, value)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		if a.required {
			return a.missing(st)
		}
		if a.omitEmpty || a.nested == nil {
			return nil
		}
		// an optional empty nested array still emits its container so
		// the sequence is not lost on a later parse
	}
	container := parent
	if a.nested != nil {
		container = a.nested.GetOrCreate(parent)
	}
	return a.serializeItems(st, container, items)
}

func (a *array) serializeAtRoot(st *state, value interface{}) (*xmlquery.Node, error) {
	if a.nested == nil {
		return nil, xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("embedded array %q cannot be a root processor", a.aliasName)))
	}
	st.push(a.nested.String())
	defer st.pop()
	items, err := a.serializeValue(st, value)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 && a.required {
		return nil, a.missing(st)
	}
	root, leaf := a.nested.CreateRoot()
	if err := a.serializeItems(st, leaf, items); err != nil {
		return nil, err
	}
	return root, nil
}

// serializeAppend emits a nested array which is itself an array item;
// its container is created fresh under the outer array's container.
func (a *array) serializeAppend(st *state, container *xmlquery.Node, value interface{}) error {
	items, err := a.serializeValue(st, value)
	if err != nil {
		return err
	}
	// empty inner arrays always serialize their container, otherwise
	// the outer sequence would lose entries on a round trip
	if len(items) == 0 && a.required {
		return a.missing(st)
	}
	return a.serializeItems(st, a.nested.CreateIn(container), items)
}

// serializeValue applies hooks and coerces the incoming value to the
// item slice.
func (a *array) serializeValue(st *state, value interface{}) ([]interface{}, error) {
	if value == nil {
		return nil, nil
	}
	value, err := a.hooks.beforeSerialize(st, value)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	items, ok := value.([]interface{})
	if !ok {
		return nil, errors.Errorf("cannot serialize %T as an array at %s", value, st.location())
	}
	return items, nil
}

func (a *array) serializeItems(st *state, container *xmlquery.Node, items []interface{}) error {
	itemPath := a.item.elementPath()
	for i, item := range items {
		st.pushIndexed(itemPath.String(), i)
		err := a.item.serializeAppend(st, container, item)
		st.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *array) missing(st *state) error {
	return xmlerr.MissingValue(
		xmlerr.WithMessage(fmt.Sprintf("missing required array %q", a.aliasName)),
		xmlerr.WithPath(st.location()))
}
