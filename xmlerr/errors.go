package xmlerr

import (
	"bytes"
	"errors"
	"fmt"
)

// Kind represents the category of an XML processing error
type Kind int

const (
	// KindMissingValue indicates a required element, attribute or value
	// was absent during parsing or serialization
	KindMissingValue Kind = iota
	// KindInvalidPrimitive indicates text was present but failed
	// conversion to the declared primitive type
	KindInvalidPrimitive
	// KindInvalidRootProcessor indicates a structural misuse of the
	// processor declaration itself, independent of any document
	KindInvalidRootProcessor
	// KindUser indicates an error raised by a user supplied hook or
	// record capability
	KindUser
)

func (k Kind) String() string {
	switch k {
	case KindMissingValue:
		return "missing-value"
	case KindInvalidPrimitive:
		return "invalid-primitive-value"
	case KindInvalidRootProcessor:
		return "invalid-root-processor"
	case KindUser:
		return "user-error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "missing-value":
		*k = KindMissingValue
	case "invalid-primitive-value":
		*k = KindInvalidPrimitive
	case "invalid-root-processor":
		*k = KindInvalidRootProcessor
	case "user-error":
		*k = KindUser
	default:
		return errors.New("unknown value")
	}
	return nil
}

// Error represents an XML processing error.
//
// Path, when set, is the document location the error was detected at,
// rendered as slash-joined element path segments with array indices,
// e.g. "authors/author[1]/birth-year".
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`

	cause error
}

func (e Error) Error() string {
	s := e.Kind.String()
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	if e.Path != "" {
		s += " at " + e.Path
	}
	return s
}

// Unwrap returns the underlying cause, if any. This allows callers to
// match user hook errors with errors.Is and errors.As.
func (e Error) Unwrap() error { return e.cause }

// Cause returns the underlying cause, for github.com/pkg/errors callers.
func (e Error) Cause() error { return e.cause }

// IsKind reports whether err is an Error of the given kind.
func IsKind(err error, k Kind) bool {
	var e Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

func MissingValue(opts ...Option) Error {
	e := Error{Kind: KindMissingValue}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func InvalidPrimitiveValue(opts ...Option) Error {
	e := Error{Kind: KindInvalidPrimitive}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func InvalidRootProcessor(opts ...Option) Error {
	e := Error{Kind: KindInvalidRootProcessor}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func User(cause error, opts ...Option) Error {
	e := Error{Kind: KindUser, cause: cause}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}
