package declxml

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andaru/declxml/xmlerr"
)

func TestHooksTransform(t *testing.T) {
	// store doubled on disk, halve on the way back in
	hooks := Hooks{
		AfterParse: func(_ *State, v interface{}) (interface{}, error) {
			return v.(int) / 2, nil
		},
		BeforeSerialize: func(_ *State, v interface{}) (interface{}, error) {
			return v.(int) * 2, nil
		},
	}
	p := Dictionary("data", []Processor{
		Integer("value", WithHooks(hooks)),
	})

	v, err := ParseString(p, `<data><value>6</value></data>`)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"value": 3}, v)

	out, err := SerializeString(p, map[string]interface{}{"value": 3})
	require.NoError(t, err)
	assert.Equal(t, `<data><value>6</value></data>`, out)
}

func TestHooksValidationError(t *testing.T) {
	errNegative := errors.New("value must not be negative")
	hooks := Hooks{
		AfterParse: func(_ *State, v interface{}) (interface{}, error) {
			if v.(int) < 0 {
				return nil, errNegative
			}
			return v, nil
		},
	}
	p := Dictionary("data", []Processor{
		Array(Integer("value", WithHooks(hooks)), Nested("values")),
	})

	check := assert.New(t)
	_, err := ParseString(p, `<data><values><value>1</value><value>-2</value></values></data>`)
	if check.True(xmlerr.IsKind(err, xmlerr.KindUser), "got %v", err) {
		check.True(errors.Is(err, errNegative), err.Error())
		check.True(strings.HasSuffix(err.Error(), "data/values/value[1]"), err.Error())
	}
}

func TestHooksErrorNotEnrichedTwice(t *testing.T) {
	// a hook propagating an engine error keeps its original location
	hooks := Hooks{
		AfterParse: func(_ *State, v interface{}) (interface{}, error) {
			return nil, xmlerr.MissingValue(
				xmlerr.WithMessage("rejected"),
				xmlerr.WithPath("some/other/place"))
		},
	}
	p := Dictionary("data", []Processor{
		Integer("value", WithHooks(hooks)),
	})

	check := assert.New(t)
	_, err := ParseString(p, `<data><value>1</value></data>`)
	if check.Error(err) {
		check.True(strings.HasSuffix(err.Error(), "some/other/place"), err.Error())
	}
}

func TestHooksStateLocations(t *testing.T) {
	var got []Location
	var path string
	hooks := Hooks{
		AfterParse: func(s *State, v interface{}) (interface{}, error) {
			got = s.Locations()
			path = s.Location()
			return v, nil
		},
	}
	p := Dictionary("data", []Processor{
		Array(Integer("value", WithHooks(hooks)), Nested("values")),
	})

	_, err := ParseString(p, `<data><values><value>9</value></values></data>`)
	require.NoError(t, err)
	assert.Equal(t, []Location{
		{ElementPath: "data", ArrayIndex: -1},
		{ElementPath: "values", ArrayIndex: -1},
		{ElementPath: "value", ArrayIndex: 0},
	}, got)
	assert.Equal(t, "data/values/value[0]", path)
}

func TestHooksOnAggregates(t *testing.T) {
	// aggregate hooks observe the whole assembled value
	hooks := Hooks{
		AfterParse: func(_ *State, v interface{}) (interface{}, error) {
			m := v.(map[string]interface{})
			m["seen"] = true
			return m, nil
		},
	}
	p := Dictionary("data", []Processor{
		Dictionary("user", []Processor{String("name")}, WithHooks(hooks)),
	})

	v, err := ParseString(p, `<data><user><name>Bob</name></user></data>`)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"user": map[string]interface{}{"name": "Bob", "seen": true},
	}, v)
}

func TestHooksOnArrays(t *testing.T) {
	hooks := Hooks{
		AfterParse: func(_ *State, v interface{}) (interface{}, error) {
			items := v.([]interface{})
			sum := 0
			for _, it := range items {
				sum += it.(int)
			}
			return sum, nil
		},
		BeforeSerialize: func(_ *State, v interface{}) (interface{}, error) {
			// expand a total back into a single-item sequence
			return []interface{}{v.(int)}, nil
		},
	}
	p := Dictionary("data", []Processor{
		Array(Integer("value"), Nested("values"), WithHooks(hooks)),
	})

	v, err := ParseString(p, `<data><values><value>1</value><value>2</value><value>3</value></values></data>`)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"values": 6}, v)

	out, err := SerializeString(p, map[string]interface{}{"values": 6})
	require.NoError(t, err)
	assert.Equal(t, `<data><values><value>6</value></values></data>`, out)
}

func TestHooksSkippedForDefaults(t *testing.T) {
	// substituted defaults never pass through hooks
	hooks := Hooks{
		AfterParse: func(_ *State, v interface{}) (interface{}, error) {
			return nil, errors.New("hook must not run")
		},
		BeforeSerialize: func(_ *State, v interface{}) (interface{}, error) {
			return nil, errors.New("hook must not run")
		},
	}
	p := Dictionary("data", []Processor{
		Integer("value", Required(false), Default(42), WithHooks(hooks)),
	})

	check := assert.New(t)
	v, err := ParseString(p, `<data />`)
	if check.NoError(err) {
		check.Equal(map[string]interface{}{"value": 42}, v)
	}

	out, err := SerializeString(p, map[string]interface{}{"value": nil})
	if check.NoError(err) {
		check.Equal(`<data><value>42</value></data>`, out)
	}
}

func TestHooksSkippedForAbsentAggregates(t *testing.T) {
	// serialize hooks see only present values, matching the primitives
	hooks := Hooks{
		BeforeSerialize: func(_ *State, v interface{}) (interface{}, error) {
			return nil, errors.New("hook must not run")
		},
	}
	p := Dictionary("data", []Processor{
		Dictionary("extra", []Processor{
			String("note", Required(false)),
		}, Required(false), WithHooks(hooks)),
		UserObject("person", func() Record { return &person{} }, []Processor{
			String("name", Required(false)),
		}, Required(false), WithHooks(hooks)),
	})

	check := assert.New(t)
	out, err := SerializeString(p, map[string]interface{}{
		"extra":  nil,
		"person": nil,
	})
	if check.NoError(err) {
		check.Equal(`<data></data>`, out)
	}
}

func TestHooksSerializeValidation(t *testing.T) {
	errTooLong := errors.New("name too long")
	hooks := Hooks{
		BeforeSerialize: func(_ *State, v interface{}) (interface{}, error) {
			if len(v.(string)) > 8 {
				return nil, errTooLong
			}
			return v, nil
		},
	}
	p := Dictionary("data", []Processor{
		String("name", WithHooks(hooks)),
	})

	check := assert.New(t)
	_, err := SerializeString(p, map[string]interface{}{"name": "altogether too long"})
	if check.True(errors.Is(err, errTooLong), "got %v", err) {
		check.True(strings.HasSuffix(err.Error(), "data/name"), err.Error())
	}
}
