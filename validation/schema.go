package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"contacts-service/httperr"
)

// Type enumerates the JSON types a field may carry.
type Type int

const (
	String Type = iota
	Bool
)

// Field describes one request-body field. Fields are checked in the order
// they are declared in a Schema; the first failure produces the response
// message, so declaration order is part of the external contract.
type Field struct {
	Name  string // JSON key
	Label string // name used in error messages, e.g. "Password"
	Type  Type

	Required        bool
	RequiredMessage string // overrides the default `"<Label>" is required`

	MinLen int
	MaxLen int

	Pattern        *regexp.Regexp
	PatternMessage string

	Enum []string

	// Default is applied when an optional field is absent.
	Default interface{}
}

// Schema is a declarative description of a request body.
type Schema struct {
	Fields []Field

	// MinPresent rejects bodies carrying fewer than this many known fields
	// (used by partial updates).
	MinPresent        int
	MinPresentMessage string
}

// Validate checks body against the schema and returns the coerced and
// defaulted values keyed by field name. The error, if any, is a 400 with
// the message of the first failing field.
func (s *Schema) Validate(body []byte) (map[string]interface{}, *httperr.Error) {
	raw := map[string]json.RawMessage{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, httperr.BadRequest("Invalid JSON")
		}
	}

	out := make(map[string]interface{}, len(s.Fields))
	present := 0

	for _, f := range s.Fields {
		value, ok := raw[f.Name]
		if !ok {
			if f.Required {
				return nil, httperr.BadRequest(f.requiredMessage())
			}
			if f.Default != nil {
				out[f.Name] = f.Default
			}
			continue
		}
		present++

		switch f.Type {
		case String:
			v, ferr := f.checkString(value)
			if ferr != nil {
				return nil, ferr
			}
			out[f.Name] = v
		case Bool:
			var v bool
			if err := json.Unmarshal(value, &v); err != nil {
				return nil, httperr.BadRequest(fmt.Sprintf("%q must be boolean", f.Label))
			}
			out[f.Name] = v
		}
	}

	if s.MinPresent > 0 && present < s.MinPresent {
		return nil, httperr.BadRequest(s.MinPresentMessage)
	}

	return out, nil
}

func (f *Field) requiredMessage() string {
	if f.RequiredMessage != "" {
		return f.RequiredMessage
	}
	return fmt.Sprintf("%q is required", f.Label)
}

func (f *Field) checkString(raw json.RawMessage) (string, *httperr.Error) {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", httperr.BadRequest(fmt.Sprintf("%q must be string", f.Label))
	}
	if v == "" {
		return "", httperr.BadRequest(fmt.Sprintf("%q cannot be empty", f.Label))
	}
	if n := utf8.RuneCountInString(v); f.MinLen > 0 && n < f.MinLen {
		return "", httperr.BadRequest(fmt.Sprintf("%q length must be at least %d characters long", f.Label, f.MinLen))
	} else if f.MaxLen > 0 && n > f.MaxLen {
		return "", httperr.BadRequest(fmt.Sprintf("%q length must be less than or equal to %d characters long", f.Label, f.MaxLen))
	}
	if f.Pattern != nil && !f.Pattern.MatchString(v) {
		return "", httperr.BadRequest(f.PatternMessage)
	}
	if len(f.Enum) > 0 && !contains(f.Enum, v) {
		return "", httperr.BadRequest(fmt.Sprintf("%q must be one of [%s]", f.Label, strings.Join(f.Enum, ", ")))
	}
	return v, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
