package declxml

import (
	"encoding/xml"
	"io"

	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"
)

// writeDocument emits the built element tree as XML tokens. Attributes
// and child elements are written in the order they were added.
func writeDocument(w io.Writer, root *xmlquery.Node, indent string) error {
	enc := xml.NewEncoder(w)
	if indent != "" {
		enc.Indent("", indent)
	}
	if err := writeElement(enc, root); err != nil {
		return errors.Wrap(err, "writing XML document")
	}
	return errors.Wrap(enc.Flush(), "writing XML document")
}

func writeElement(enc *xml.Encoder, n *xmlquery.Node) error {
	se := xml.StartElement{Name: xml.Name{Local: n.Data}}
	for _, a := range n.Attr {
		se.Attr = append(se.Attr, xml.Attr{Name: xml.Name{Local: a.Name.Local}, Value: a.Value})
	}
	if err := enc.EncodeToken(se); err != nil {
		return err
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			if err := writeElement(enc, c); err != nil {
				return err
			}
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if err := enc.EncodeToken(xml.CharData(c.Data)); err != nil {
				return err
			}
		}
	}
	return enc.EncodeToken(se.End())
}
