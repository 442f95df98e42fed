package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrTransport         = errors.New("transport failure")
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnknownPath       = errors.New("unknown field path")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrTooManyImages     = errors.New("too many images")
	ErrTooManyContacts   = errors.New("too many contacts")
	ErrStepInvalid       = errors.New("current step has errors")
	ErrNotPublishable    = errors.New("record does not validate")
	ErrFinished          = errors.New("wizard already published")
	ErrConflict          = errors.New("conflicting write")
)

// ValidationError carries field errors reported by the Property API.
type ValidationError struct {
	Fields ErrorMap
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Fields.Keys(), ", ")
}

// ErrorMap maps a field path (or GlobalKey) to a message. A missing key means valid.
type ErrorMap map[string]string

// Keys returns the paths in sorted order.
func (m ErrorMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Under returns the entries at or below any of the given base paths.
func (m ErrorMap) Under(bases ...string) ErrorMap {
	out := ErrorMap{}
	for k, v := range m {
		for _, b := range bases {
			if WithinPath(k, b) {
				out[k] = v
				break
			}
		}
	}
	return out
}

// Merge returns a new map holding m overlaid with other; other wins on conflicts.
func (m ErrorMap) Merge(other ErrorMap) ErrorMap {
	out := make(ErrorMap, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Forget drops every entry on the branch of path (ancestors and descendants).
func (m ErrorMap) Forget(path string) {
	for k := range m {
		if WithinPath(k, path) || WithinPath(path, k) {
			delete(m, k)
		}
	}
}

func trimmed(s string) string { return strings.TrimSpace(s) }
