package declxml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/andaru/declxml/xmlerr"
	"github.com/andaru/declxml/xmlpath"
)

// Boolean returns a processor for boolean values. The accepted token
// set is "true", "false", "1", "0", "yes" and "no", case-insensitive;
// values serialize as "true" or "false".
func Boolean(path string, opts ...Option) Processor {
	return newPrimitive(booleanValue, path, opts)
}

// Integer returns a processor for base-10 integer values.
func Integer(path string, opts ...Option) Processor {
	return newPrimitive(integerValue, path, opts)
}

// Float returns a processor for floating point values.
func Float(path string, opts ...Option) Processor {
	return newPrimitive(floatValue, path, opts)
}

// String returns a processor for string values. Leading and trailing
// whitespace is stripped unless the PreserveWhitespace option is given.
func String(path string, opts ...Option) Processor {
	return newPrimitive(stringValue, path, opts)
}

type primitiveKind int

const (
	booleanValue primitiveKind = iota
	integerValue
	floatValue
	stringValue
)

func (k primitiveKind) String() string {
	switch k {
	case booleanValue:
		return "boolean"
	case integerValue:
		return "integer"
	case floatValue:
		return "float"
	case stringValue:
		return "string"
	default:
		return fmt.Sprintf("primitiveKind(%d)", int(k))
	}
}

// zero returns the kind's zero value, used as the implicit default for
// optional values without an explicit Default.
func (k primitiveKind) zero() interface{} {
	switch k {
	case booleanValue:
		return false
	case integerValue:
		return 0
	case floatValue:
		return 0.0
	case stringValue:
		return ""
	}
	return nil
}

type primitive struct {
	meta
	kind               primitiveKind
	path               *xmlpath.Path
	attribute          string
	defaultValue       interface{}
	omitEmpty          bool
	preserveWhitespace bool
}

func newPrimitive(kind primitiveKind, rawPath string, opts []Option) Processor {
	o := newOptions(opts)
	p := &primitive{
		kind:               kind,
		attribute:          o.attribute,
		omitEmpty:          o.omitEmpty,
		preserveWhitespace: o.preserveWhitespace,
	}
	p.required = o.required
	p.hooks = o.hooks

	path, err := xmlpath.Parse(rawPath)
	if err != nil {
		p.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(err.Error()))
		return p
	}
	p.path = path
	p.aliasName = defaultAlias(o, path)

	switch {
	case o.nested != "":
		p.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("nested option is not valid for %s processor %q", kind, rawPath)))
	case o.omitEmpty && o.required:
		p.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("omit-empty requires Required(false) on processor %q", rawPath)))
	case o.preserveWhitespace && kind != stringValue:
		p.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("preserve-whitespace is not valid for %s processor %q", kind, rawPath)))
	case path.IsSelf() && o.attribute == "" && o.aliasName == "":
		p.cfgErr = xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("self path %s processor requires an attribute or alias", kind)))
	}

	if o.defaultSet {
		p.defaultValue = o.defaultValue
	} else {
		p.defaultValue = kind.zero()
	}
	return p
}

func (p *primitive) elementPath() *xmlpath.Path { return p.path }

func (p *primitive) check() error { return p.cfgErr }

func (p *primitive) parseFromParent(st *state, parent *xmlquery.Node) (interface{}, error) {
	if !p.path.IsSelf() {
		st.push(p.path.String())
		defer st.pop()
	}
	return p.parseAtElement(st, p.path.Resolve(parent))
}

func (p *primitive) parseAtElement(st *state, element *xmlquery.Node) (interface{}, error) {
	if element == nil {
		if p.required {
			return nil, xmlerr.MissingValue(
				xmlerr.WithMessage(fmt.Sprintf("required element %q has no value", p.path.String())),
				xmlerr.WithPath(st.location()))
		}
		// substituted defaults bypass hooks: nothing was parsed
		return p.defaultValue, nil
	}

	var raw string
	if p.attribute != "" {
		// an empty attribute value counts as absent
		if raw = element.SelectAttr(p.attribute); raw == "" {
			if p.required {
				return nil, xmlerr.MissingValue(
					xmlerr.WithMessage(fmt.Sprintf("required attribute %q has no value on element %q",
						p.attribute, element.Data)),
					xmlerr.WithPath(st.location()))
			}
			return p.defaultValue, nil
		}
	} else {
		raw = element.InnerText()
	}

	value, err := p.parseText(st, raw)
	if err != nil {
		return nil, err
	}
	return p.hooks.afterParse(st, value)
}

func (p *primitive) serializeOnParent(st *state, parent *xmlquery.Node, value interface{}) error {
	if !p.path.IsSelf() {
		st.push(p.path.String())
		defer st.pop()
	}
	if value == nil {
		if p.required {
			return xmlerr.MissingValue(
				xmlerr.WithMessage(fmt.Sprintf("no value for required element %q", p.path.String())),
				xmlerr.WithPath(st.location()))
		}
		if p.omitEmpty {
			return nil
		}
		value = p.defaultValue
	} else {
		var err error
		if value, err = p.hooks.beforeSerialize(st, value); err != nil {
			return err
		}
		if p.omitEmpty && isEmpty(value) {
			return nil
		}
	}

	target := parent
	if !p.path.IsSelf() {
		target = p.path.GetOrCreate(parent)
	}
	p.write(target, value)
	return nil
}

func (p *primitive) serializeAppend(st *state, container *xmlquery.Node, value interface{}) error {
	// array items are never omitted or treated as missing; an absent
	// value falls back to the default so no item is lost
	if value == nil {
		p.write(p.path.CreateIn(container), p.defaultValue)
		return nil
	}
	value, err := p.hooks.beforeSerialize(st, value)
	if err != nil {
		return err
	}
	p.write(p.path.CreateIn(container), value)
	return nil
}

func (p *primitive) write(element *xmlquery.Node, value interface{}) {
	text := serializeText(value)
	if p.attribute != "" {
		element.SetAttr(p.attribute, text)
		return
	}
	xmlpath.SetText(element, text)
}

func (p *primitive) parseText(st *state, raw string) (interface{}, error) {
	switch p.kind {
	case booleanValue:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
	case integerValue:
		if v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			return int(v), nil
		}
	case floatValue:
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return v, nil
		}
	case stringValue:
		if p.preserveWhitespace {
			return raw, nil
		}
		return strings.TrimSpace(raw), nil
	}
	return nil, xmlerr.InvalidPrimitiveValue(
		xmlerr.WithMessage(fmt.Sprintf("invalid %s value %q", p.kind, raw)),
		xmlerr.WithPath(st.location()))
}

// serializeText converts a well typed value to document text. It is
// total: values outside the primitive type set fall back to their fmt
// representation.
func serializeText(value interface{}) string {
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
