// Package schema declares the shape of a property submission: every field
// path, its type, whether it is required, its bounds and the rules that span
// several fields. It holds data only; the validation package interprets it.
package schema

import (
	"regexp"

	"property_submission/internal/domain"
)

type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
	KindEnum    Kind = "enum"
	KindURL     Kind = "url"
)

// Each is the index placeholder in field paths declared per collection element,
// e.g. "publicContacts[].value".
const Each = "[]"

// Predicate decides a conditional rule. i is the element index for paths
// under a collection and -1 otherwise.
type Predicate func(c *domain.Candidate, i int) bool

// Field declares one leaf path.
type Field struct {
	Path     string
	Label    string
	Kind     Kind
	Required bool
	// When, if set, makes the field required only when it returns true.
	When Predicate
	// Skip, if set and true, ignores the field entirely (value absent or irrelevant).
	Skip Predicate

	Min, Max       *float64
	MinLen, MaxLen int
	Pattern        *regexp.Regexp
	PatternMessage string
	Allowed        []string

	// Format runs after the built-in checks and returns a message or "".
	Format func(c *domain.Candidate, i int, value string) string
}

// Collection declares cardinality for a list-valued path.
type Collection struct {
	Path       string
	Min, Max   int
	MinMessage string
	MaxMessage string
}

// Rule checks something no single leaf can express and reports it on a path
// of its choosing.
type Rule struct {
	Name  string
	Apply func(c *domain.Candidate, report func(path, msg string))
}

// CrossRule is a form-level constraint; failures land on domain.GlobalKey.
type CrossRule struct {
	Name  string
	Check func(c *domain.Candidate) string
}

type Schema struct {
	Fields      []Field
	Collections []Collection
	Rules       []Rule
	Cross       []CrossRule
}

// Field returns the declaration for a concrete path such as "publicContacts[1].value".
func (s *Schema) Field(path string) (Field, bool) {
	generic := GenericPath(path)
	for _, f := range s.Fields {
		if f.Path == generic {
			return f, true
		}
	}
	return Field{}, false
}

var indexRe = regexp.MustCompile(`\[\d+\]`)

// GenericPath replaces concrete indexes with the Each placeholder.
func GenericPath(path string) string {
	return indexRe.ReplaceAllString(path, Each)
}

func ptr(f float64) *float64 { return &f }
