package domain

import "fmt"

type IdentityKind string

const (
	IdentityNone             IdentityKind = "none"
	IdentityDraft            IdentityKind = "draft"
	IdentityEditingPublished IdentityKind = "editing-published"
)

// Identity records which backend record, if any, represents the in-progress
// submission. Only the reconciler moves it forward.
type Identity struct {
	Kind IdentityKind `json:"kind"`
	ID   string       `json:"id,omitempty"`
}

func NoIdentity() Identity { return Identity{Kind: IdentityNone} }

func (i Identity) IsNone() bool { return i.Kind == IdentityNone || i.Kind == "" || i.ID == "" }

func (i Identity) String() string {
	if i.IsNone() {
		return string(IdentityNone)
	}
	return fmt.Sprintf("%s(%s)", i.Kind, i.ID)
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

const (
	StatusDraft  = "draft"
	StatusActive = "active"
)

// PublishStatus is the status a publish action targets for the role.
func PublishStatus(r Role) string {
	switch r {
	case RoleAdmin, RoleAgent:
		return StatusActive
	}
	return StatusDraft
}

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAgent, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
