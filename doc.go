/*
Package declxml processes XML documents declaratively.

A tree of processors describes the shape of a document once; the same
tree then drives both parsing (XML to values) and serialization (values
to XML), keeping the two directions in lock-step.

Primitive processors (Boolean, Integer, Float, String) convert element
text or attribute values to typed Go values. Aggregate processors
(Dictionary, Array, UserObject, NamedTuple) compose other processors
into mappings, sequences and record values.

	p := declxml.Dictionary("author", []declxml.Processor{
		declxml.String("name"),
		declxml.Integer("birth-year"),
		declxml.Array(declxml.String("book/title"), declxml.Alias("titles")),
	})
	v, err := declxml.ParseString(p, doc)

Element paths may name a descendant ("coordinates/lat") or the context
element itself ("."), which is how attributes of an element are grouped
with its children's values. Every processor carries required/optional
semantics with defaults and omit-empty behaviour, and hooks may
intercept values to transform or validate them with full location
context for error reporting.

Processor trees are immutable once constructed and safe for concurrent
use.
*/
package declxml
