package payload

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"property_submission/internal/domain"
)

//go:embed property.schema.json
var contractSchema string

const (
	contractURL      = "property.schema.json"
	draftContractURL = "property.draft.schema.json"
)

// Contract checks the shape of raw payload bodies: types, enums and sizes.
// Business rules stay with the validator so drafts are never rejected for
// being incomplete.
type Contract struct {
	schema *jsonschema.Schema
	draft  *jsonschema.Schema
}

func NewContract() (*Contract, error) {
	draftSchema, err := relaxForDraft(contractSchema)
	if err != nil {
		return nil, fmt.Errorf("derive draft contract: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	c.AssertFormat = true
	if err := c.AddResource(contractURL, strings.NewReader(contractSchema)); err != nil {
		return nil, fmt.Errorf("add contract resource: %w", err)
	}
	if err := c.AddResource(draftContractURL, strings.NewReader(draftSchema)); err != nil {
		return nil, fmt.Errorf("add draft contract resource: %w", err)
	}
	s, err := c.Compile(contractURL)
	if err != nil {
		return nil, fmt.Errorf("compile contract: %w", err)
	}
	d, err := c.Compile(draftContractURL)
	if err != nil {
		return nil, fmt.Errorf("compile draft contract: %w", err)
	}
	return &Contract{schema: s, draft: d}, nil
}

// relaxForDraft drops value formats and required keys on contact rows, so a
// half-typed date or a contact without a chosen type still saves as a draft.
// Types, enums and sizes stay enforced.
func relaxForDraft(src string) (string, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(src), &doc); err != nil {
		return "", err
	}
	stripKey(doc, "format")
	if props, ok := doc["properties"].(map[string]any); ok {
		if contacts, ok := props["publicContacts"].(map[string]any); ok {
			if items, ok := contacts["items"].(map[string]any); ok {
				delete(items, "required")
			}
		}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func stripKey(node any, key string) {
	switch n := node.(type) {
	case map[string]any:
		if _, ok := n[key].(string); ok {
			delete(n, key)
		}
		for _, child := range n {
			stripKey(child, key)
		}
	case []any:
		for _, child := range n {
			stripKey(child, key)
		}
	}
}

// Check validates a JSON body against the full contract. It returns nil when
// the body conforms, and errors keyed by field path otherwise.
func (c *Contract) Check(body []byte) domain.ErrorMap {
	return check(c.schema, body)
}

// CheckDraft validates a body headed for draft status. Malformed leaf values
// the validator reports as field errors are let through.
func (c *Contract) CheckDraft(body []byte) domain.ErrorMap {
	return check(c.draft, body)
}

func check(schema *jsonschema.Schema, body []byte) domain.ErrorMap {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return domain.ErrorMap{domain.GlobalKey: "body is not valid JSON"}
	}
	err := schema.Validate(v)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return domain.ErrorMap{domain.GlobalKey: err.Error()}
	}
	out := domain.ErrorMap{}
	collectLeaves(ve, out)
	if len(out) == 0 {
		out[domain.GlobalKey] = ve.Message
	}
	return out
}

func collectLeaves(ve *jsonschema.ValidationError, out domain.ErrorMap) {
	if len(ve.Causes) == 0 {
		p := pointerToPath(ve.InstanceLocation)
		if _, seen := out[p]; !seen {
			out[p] = ve.Message
		}
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

// pointerToPath turns "/publicContacts/0/value" into "publicContacts[0].value".
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.Trim(ptr, "/")
	if ptr == "" {
		return domain.GlobalKey
	}
	var b strings.Builder
	for i, seg := range strings.Split(ptr, "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		if _, err := strconv.Atoi(seg); err == nil && i > 0 {
			b.WriteString("[" + seg + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}
