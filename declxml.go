package declxml

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"

	"github.com/andaru/declxml/logger"
	"github.com/andaru/declxml/xmlerr"
)

// Parse parses the XML document read from r using the processor,
// starting from the root of the document.
func Parse(p Processor, r io.Reader) (interface{}, error) {
	rp, err := prepareRoot(p)
	if err != nil {
		return nil, err
	}
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "parsing XML document")
	}
	root := firstElement(doc)
	if root == nil {
		return nil, xmlerr.MissingValue(xmlerr.WithMessage("document has no root element"))
	}
	logger.TraceMessage("declxml: parsing document with root <%s>", root.Data)
	return rp.parseAtRoot(&state{}, root)
}

// ParseString parses the XML document in s using the processor.
func ParseString(p Processor, s string) (interface{}, error) {
	return Parse(p, strings.NewReader(s))
}

// ParseFile parses the XML document in the named file using the
// processor.
func ParseFile(p Processor, path string) (interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return Parse(p, f)
}

// SerializeOption configures document output
type SerializeOption func(*serializeOptions)

type serializeOptions struct {
	indent string
}

// Indent pretty-prints the serialized document with the given
// indentation string.
func Indent(indent string) SerializeOption {
	return func(o *serializeOptions) { o.indent = indent }
}

// Serialize writes value as an XML document to w using the processor.
func Serialize(p Processor, value interface{}, w io.Writer, opts ...SerializeOption) error {
	var o serializeOptions
	for _, opt := range opts {
		opt(&o)
	}
	rp, err := prepareRoot(p)
	if err != nil {
		return err
	}
	logger.TraceMessage("declxml: serializing value %v", value)
	root, err := rp.serializeAtRoot(&state{}, value)
	if err != nil {
		return err
	}
	return writeDocument(w, root, o.indent)
}

// SerializeString returns value serialized as an XML document string.
func SerializeString(p Processor, value interface{}, opts ...SerializeOption) (string, error) {
	var buf bytes.Buffer
	if err := Serialize(p, value, &buf, opts...); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SerializeFile writes value as an XML document to the named file.
func SerializeFile(p Processor, value interface{}, path string, opts ...SerializeOption) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := Serialize(p, value, f, opts...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// prepareRoot validates the processor declaration eagerly and confirms
// it can drive a whole document.
func prepareRoot(p Processor) (rootProcessor, error) {
	if p == nil {
		return nil, xmlerr.InvalidRootProcessor(xmlerr.WithMessage("nil processor"))
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	rp, ok := p.(rootProcessor)
	if !ok {
		return nil, xmlerr.InvalidRootProcessor(xmlerr.WithMessage(
			fmt.Sprintf("%s cannot be a root processor", describeProcessor(p))))
	}
	return rp, nil
}

// firstElement returns the first element child of a document node,
// skipping the XML declaration and any comments.
func firstElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}
