package contacts

import (
	"errors"
	"strings"
	"testing"

	"addressbook/internal/apierr"
)

func TestNormalizeDropsEmptyPairs(t *testing.T) {
	got := Normalize(Input{
		Name: "  Bob  ",
		Methods: []MethodInput{
			{Type: " Phone ", Value: " 123 "},
			{Type: "email", Value: ""},
			{Type: "   ", Value: "orphan"},
			{Type: "SOCIAL", Value: "@bob"},
		},
	})
	if got.Name != "Bob" {
		t.Fatalf("name: want=%q got=%q", "Bob", got.Name)
	}
	want := []MethodInput{{Type: "phone", Value: "123"}, {Type: "social", Value: "@bob"}}
	if len(got.Methods) != len(want) {
		t.Fatalf("methods: want=%v got=%v", want, got.Methods)
	}
	for i := range want {
		if got.Methods[i] != want[i] {
			t.Fatalf("methods[%d]: want=%v got=%v", i, want[i], got.Methods[i])
		}
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		in     Input
		fields []string
	}{
		{"ok", Input{Name: "Alice"}, nil},
		{"blank name", Input{Name: ""}, []string{"name"}},
		{"long name", Input{Name: strings.Repeat("x", MaxNameLen+1)}, []string{"name"}},
		{"name at limit", Input{Name: strings.Repeat("é", MaxNameLen)}, nil},
		{"long value", Input{Name: "A", Methods: []MethodInput{{Type: "phone", Value: strings.Repeat("1", MaxValueLen+1)}}}, []string{"methods[0].value"}},
		{"long type", Input{Name: "A", Methods: []MethodInput{{Type: strings.Repeat("t", MaxTypeLen+1), Value: "v"}}}, []string{"methods[0].type"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Validate(tc.in)
			if len(res.Errors) != len(tc.fields) {
				t.Fatalf("errors: want=%v got=%v", tc.fields, res.Errors)
			}
			for i, f := range tc.fields {
				if res.Errors[i].Field != f {
					t.Fatalf("field[%d]: want=%q got=%q", i, f, res.Errors[i].Field)
				}
			}
			if res.OK() != (len(tc.fields) == 0) {
				t.Fatalf("OK mismatch")
			}
		})
	}
}

func TestPrepareBlankNameIsValidationError(t *testing.T) {
	_, err := Prepare(Input{Name: " \t\n"})
	if !errors.Is(err, apierr.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestPairsUsesShortestList(t *testing.T) {
	got := Pairs([]string{"phone", "email", "social"}, []string{"1", "a@b"})
	if len(got) != 2 || got[1] != (MethodInput{Type: "email", Value: "a@b"}) {
		t.Fatalf("got=%v", got)
	}
}
