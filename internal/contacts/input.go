package contacts

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"addressbook/internal/apierr"
)

// Column widths of the contact and contact_method tables.
const (
	MaxNameLen  = 100
	MaxTypeLen  = 30
	MaxValueLen = 200
)

type MethodInput struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Input struct {
	Name    string        `json:"name"`
	Methods []MethodInput `json:"methods"`
}

// Pairs zips parallel type/value lists the way HTML forms submit them.
// Extra entries on the longer side are ignored.
func Pairs(types, values []string) []MethodInput {
	n := len(types)
	if len(values) < n {
		n = len(values)
	}
	out := make([]MethodInput, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, MethodInput{Type: types[i], Value: values[i]})
	}
	return out
}

// Normalize trims the name, trims and lower-cases method types, trims
// values and drops any pair left with an empty type or value.
func Normalize(in Input) Input {
	out := Input{Name: strings.TrimSpace(in.Name)}
	for _, m := range in.Methods {
		t := strings.ToLower(strings.TrimSpace(m.Type))
		v := strings.TrimSpace(m.Value)
		if t == "" || v == "" {
			continue
		}
		out.Methods = append(out.Methods, MethodInput{Type: t, Value: v})
	}
	return out
}

// Result is the outcome of Validate. The zero value is OK.
type Result struct {
	Errors []apierr.FieldError
}

func (r Result) OK() bool { return len(r.Errors) == 0 }

// Err converts a failed Result into a validation error, nil when OK.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return apierr.Validation(r.Errors...)
}

func (r *Result) add(field, msg string) {
	r.Errors = append(r.Errors, apierr.FieldError{Field: field, Message: msg})
}

// Validate checks an already normalized Input.
func Validate(in Input) Result {
	var res Result
	switch {
	case in.Name == "":
		res.add("name", "name is required")
	case utf8.RuneCountInString(in.Name) > MaxNameLen:
		res.add("name", fmt.Sprintf("name must be at most %d characters", MaxNameLen))
	}
	for i, m := range in.Methods {
		if utf8.RuneCountInString(m.Type) > MaxTypeLen {
			res.add(fmt.Sprintf("methods[%d].type", i), fmt.Sprintf("type must be at most %d characters", MaxTypeLen))
		}
		if utf8.RuneCountInString(m.Value) > MaxValueLen {
			res.add(fmt.Sprintf("methods[%d].value", i), fmt.Sprintf("value must be at most %d characters", MaxValueLen))
		}
	}
	return res
}

// Prepare normalizes then validates.
func Prepare(in Input) (Input, error) {
	norm := Normalize(in)
	if err := Validate(norm).Err(); err != nil {
		return Input{}, err
	}
	return norm, nil
}
