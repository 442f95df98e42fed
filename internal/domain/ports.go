package domain

import "context"

// PropertyAPI is the backend collaborator the reconciler talks to.
type PropertyAPI interface {
	// CreateDraft issues POST /properties/draft.
	CreateDraft(ctx context.Context, p Payload, idempotencyKey string) (Record, error)
	// Create issues POST /properties (create-and-publish, no prior draft).
	Create(ctx context.Context, p Payload, idempotencyKey string) (Record, error)
	// Update issues PUT /properties/:id; p.Status drives the resulting state.
	Update(ctx context.Context, id string, p Payload) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
}

// IdentityStore caches the most recent draft id per owner so a reload resumes
// the same record. Only the reconciler reads or writes it.
type IdentityStore interface {
	Load(ctx context.Context, owner string) (id string, ok bool, err error)
	Save(ctx context.Context, owner, id string) error
	Clear(ctx context.Context, owner string) error
}

// PropertyRepository persists records on the server side.
type PropertyRepository interface {
	Insert(ctx context.Context, rec Record, idempotencyKey string) error
	Update(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	// FindByIdempotencyKey returns ErrNotFound when the key was never used by owner.
	FindByIdempotencyKey(ctx context.Context, owner, key string) (Record, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// EventPublisher announces lifecycle transitions to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev LifecycleEvent) error
}

type LifecycleEvent struct {
	Type       string `json:"type"` // property.draft_saved|property.published
	PropertyID string `json:"propertyId"`
	OwnerID    string `json:"ownerId"`
	Status     string `json:"status"`
}

const (
	EventDraftSaved = "property.draft_saved"
	EventPublished  = "property.published"
)
