// Package validation applies a schema.Schema to a possibly partial candidate
// and reports every violation at once, keyed by field path.
package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"property_submission/internal/domain"
	"property_submission/internal/schema"
)

type Validator struct {
	s *schema.Schema
}

func New(s *schema.Schema) *Validator { return &Validator{s: s} }

// Default validates against the property schema as of now.
func Default() *Validator { return New(schema.Property(time.Now())) }

func (v *Validator) Schema() *schema.Schema { return v.s }

// ValidateAll walks every declared path and collects all violations; cross
// field rules run last. It never panics and always returns a non-nil map.
func (v *Validator) ValidateAll(c *domain.Candidate) (errs domain.ErrorMap) {
	errs = domain.ErrorMap{}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("validator panicked")
			errs[domain.GlobalKey] = "The form could not be checked, please review your input"
		}
	}()
	if c == nil {
		c = domain.NewCandidate()
	}

	for _, f := range v.s.Fields {
		coll, rest, each := strings.Cut(f.Path, schema.Each)
		if !each {
			checkField(c, f, -1, f.Path, errs)
			continue
		}
		rest = strings.TrimPrefix(rest, ".")
		for i := 0; i < c.Len(coll); i++ {
			checkField(c, f, i, domain.IndexedPath(coll, i, rest), errs)
		}
	}

	for _, col := range v.s.Collections {
		n := c.Len(col.Path)
		switch {
		case n < col.Min:
			errs[col.Path] = col.MinMessage
		case col.Max > 0 && n > col.Max:
			errs[col.Path] = col.MaxMessage
		}
	}

	for _, r := range v.s.Rules {
		r.Apply(c, func(path, msg string) {
			if _, taken := errs[path]; !taken {
				errs[path] = msg
			}
		})
	}

	if msg := v.cross(c); msg != "" {
		errs[domain.GlobalKey] = msg
	}
	return errs
}

// ValidateField re-validates the whole candidate with path overwritten by
// value and returns only the entries at or below path. Conditional rules read
// sibling fields, so nothing narrower than ValidateAll is run.
func (v *Validator) ValidateField(c *domain.Candidate, path, value string) domain.ErrorMap {
	clone := c.Clone()
	if err := clone.Assign(path, value); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("validate field: unknown path")
		return domain.ErrorMap{}
	}
	return v.ValidateAll(clone).Under(path)
}

// cross returns the combined form-level message, or "".
func (v *Validator) cross(c *domain.Candidate) string {
	var msgs []string
	for _, r := range v.s.Cross {
		if m := r.Check(c); m != "" {
			msgs = append(msgs, m)
		}
	}
	return strings.Join(msgs, "; ")
}

func checkField(c *domain.Candidate, f schema.Field, i int, path string, errs domain.ErrorMap) {
	if f.Skip != nil && f.Skip(c, i) {
		return
	}
	raw, _ := c.Lookup(path)
	val := strings.TrimSpace(raw)
	required := f.Required || (f.When != nil && f.When(c, i))
	if val == "" {
		if required {
			errs[path] = f.Label + " is required"
		}
		return
	}
	if msg := checkValue(f, val); msg != "" {
		errs[path] = msg
		return
	}
	if f.Format != nil {
		if msg := f.Format(c, i, val); msg != "" {
			errs[path] = msg
		}
	}
}

func checkValue(f schema.Field, val string) string {
	switch f.Kind {
	case schema.KindNumber, schema.KindInteger:
		n, _, err := domain.ParseNumber(val)
		if err != nil {
			return f.Label + " must be a number"
		}
		if f.Kind == schema.KindInteger && n != math.Trunc(n) {
			return f.Label + " must be a whole number"
		}
		if f.Min != nil && n < *f.Min {
			return fmt.Sprintf("%s must be at least %s", f.Label, domain.FormatNumber(*f.Min))
		}
		if f.Max != nil && n > *f.Max {
			return fmt.Sprintf("%s must be at most %s", f.Label, domain.FormatNumber(*f.Max))
		}
	case schema.KindBoolean:
		if val != "true" && val != "false" {
			return f.Label + " must be yes or no"
		}
	case schema.KindDate:
		if _, err := time.Parse(time.DateOnly, val); err != nil {
			return f.Label + " must be a date (YYYY-MM-DD)"
		}
	case schema.KindEnum:
		for _, a := range f.Allowed {
			if a == val {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of: %s", f.Label, strings.Join(f.Allowed, ", "))
	case schema.KindURL:
		if !schema.IsURL(val) {
			return f.Label + " must be a valid link"
		}
	}

	if f.Kind == schema.KindString || f.Kind == schema.KindURL {
		n := len([]rune(val))
		if f.MinLen > 0 && n < f.MinLen {
			return fmt.Sprintf("%s must be at least %d characters", f.Label, f.MinLen)
		}
		if f.MaxLen > 0 && n > f.MaxLen {
			return fmt.Sprintf("%s must be at most %d characters", f.Label, f.MaxLen)
		}
	}
	if f.Pattern != nil && !f.Pattern.MatchString(val) {
		if f.PatternMessage != "" {
			return f.PatternMessage
		}
		return f.Label + " has an invalid format"
	}
	return ""
}
