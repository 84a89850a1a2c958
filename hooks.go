package declxml

import (
	"github.com/pkg/errors"

	"github.com/andaru/declxml/xmlerr"
)

// HookFunc intercepts a value during processing. It receives a
// read-only view of the current document location and the value as
// already typed by the engine, and returns the value to continue
// processing with. Returning an error aborts the walk; the engine
// reports it together with the location it occurred at.
type HookFunc func(s *State, value interface{}) (interface{}, error)

// Hooks intercepts values passing through a processor. AfterParse runs
// on the parsed value immediately after it is produced; BeforeSerialize
// runs on the input value immediately before it is written. A nil
// callback passes the value through unchanged. Hooks never observe
// substituted default values or absent (nil) values, since no parse or
// serialization of document text occurs for those.
type Hooks struct {
	AfterParse      HookFunc
	BeforeSerialize HookFunc
}

func (h Hooks) afterParse(st *state, value interface{}) (interface{}, error) {
	return runHook(h.AfterParse, st, value)
}

func (h Hooks) beforeSerialize(st *state, value interface{}) (interface{}, error) {
	return runHook(h.BeforeSerialize, st, value)
}

func runHook(fn HookFunc, st *state, value interface{}) (interface{}, error) {
	if fn == nil {
		return value, nil
	}
	out, err := fn(st.view(), value)
	if err != nil {
		return nil, userError(st, err)
	}
	return out, nil
}

// userError wraps a caller-raised error with the current location.
// Errors already carrying a location are propagated untouched.
func userError(st *state, err error) error {
	var xe xmlerr.Error
	if errors.As(err, &xe) && xe.Path != "" {
		return err
	}
	return xmlerr.User(err, xmlerr.WithPath(st.location()))
}
