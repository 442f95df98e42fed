package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"property_submission/internal/adapters/observability"
	"property_submission/internal/domain"
	"property_submission/internal/payload"
)

const pendingReviewNotice = "Saved for review: an agent must approve it before the listing goes live"

// Outcome describes a successful save or publish.
type Outcome struct {
	Identity domain.Identity
	Record   domain.Record
	Status   string
	Created  bool
	// PendingReview is set when a publish landed as a draft because the role
	// may not publish directly. Notice carries the text to show the user.
	PendingReview bool
	Notice        string
}

// Reconciler owns the identity of the in-progress record and is the only
// place that creates, reuses or forgets a record id. Calls are serialized so
// an older autosave can never land after a newer publish.
type Reconciler struct {
	api   domain.PropertyAPI
	store domain.IdentityStore
	owner string
	role  domain.Role

	mu         sync.Mutex
	identity   domain.Identity
	pendingKey string
	newKey     func() string
}

func NewReconciler(api domain.PropertyAPI, store domain.IdentityStore, owner string, role domain.Role) *Reconciler {
	return &Reconciler{
		api:      api,
		store:    store,
		owner:    owner,
		role:     role,
		identity: domain.NoIdentity(),
		newKey:   uuid.NewString,
	}
}

func (r *Reconciler) Identity() domain.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.identity
}

func (r *Reconciler) Role() domain.Role { return r.role }

// SaveDraft persists c with status draft. The first successful call creates
// the record; every later call updates it. On failure the identity is left
// as it was so the next attempt retries against the same record.
func (r *Reconciler) SaveDraft(ctx context.Context, c *domain.Candidate) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	body := payload.Build(c, domain.StatusDraft)
	if r.identity.IsNone() {
		rec, err := r.api.CreateDraft(ctx, body, r.idempotencyKey())
		if err != nil {
			observability.ObserveSave("draft", "failed")
			return Outcome{Identity: r.identity}, fmt.Errorf("create draft: %w", err)
		}
		if rec.ID == "" {
			observability.ObserveSave("draft", "failed")
			return Outcome{Identity: r.identity}, fmt.Errorf("create draft: %w: missing id", domain.ErrMalformedResponse)
		}
		r.pendingKey = ""
		r.identity = domain.Identity{Kind: domain.IdentityDraft, ID: rec.ID}
		r.remember(ctx, rec.ID)
		observability.ObserveSave("draft", "created")
		log.Info().Str("identity", r.identity.String()).Msg("draft created")
		return Outcome{Identity: r.identity, Record: rec, Status: rec.Status, Created: true}, nil
	}

	rec, err := r.update(ctx, body)
	if err != nil {
		observability.ObserveSave("draft", "failed")
		return Outcome{Identity: r.identity}, fmt.Errorf("update draft %s: %w", r.identity.ID, err)
	}
	observability.ObserveSave("draft", "updated")
	log.Debug().Str("identity", r.identity.String()).Msg("draft updated")
	return Outcome{Identity: r.identity, Record: rec, Status: rec.Status}, nil
}

// Publish moves the record to the role's publish status: active for agents
// and admins, draft (pending review) for plain users. With an existing id it
// always updates that record; it creates only when no id was ever assigned.
func (r *Reconciler) Publish(ctx context.Context, c *domain.Candidate) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := domain.PublishStatus(r.role)
	body := payload.Build(c, target)

	var (
		rec     domain.Record
		err     error
		created bool
	)
	if r.identity.IsNone() {
		rec, err = r.api.Create(ctx, body, r.idempotencyKey())
		if err == nil && rec.ID == "" {
			err = fmt.Errorf("%w: missing id", domain.ErrMalformedResponse)
		}
		created = true
	} else {
		rec, err = r.update(ctx, body)
	}
	if err != nil {
		observability.ObserveSave("publish", "failed")
		return Outcome{Identity: r.identity}, fmt.Errorf("publish: %w", err)
	}

	status := rec.Status
	if status == "" {
		status = target
	}
	if created {
		r.pendingKey = ""
	}
	kind := domain.IdentityDraft
	if status == domain.StatusActive {
		kind = domain.IdentityEditingPublished
	}
	r.identity = domain.Identity{Kind: kind, ID: rec.ID}
	r.forget(ctx)

	out := Outcome{Identity: r.identity, Record: rec, Status: status, Created: created}
	if status != domain.StatusActive {
		out.PendingReview = true
		out.Notice = pendingReviewNotice
	}
	if created {
		observability.ObserveSave("publish", "created")
	} else {
		observability.ObserveSave("publish", "updated")
	}
	log.Info().
		Str("identity", r.identity.String()).
		Str("status", status).
		Bool("pending_review", out.PendingReview).
		Msg("publish completed")
	return out, nil
}

// Resume picks up the draft id cached for the owner, if any, and returns
// its content. A cached id whose record is gone or no longer a draft is
// dropped and the identity stays none.
func (r *Reconciler) Resume(ctx context.Context) (*domain.Candidate, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store == nil || !r.identity.IsNone() {
		return nil, false, nil
	}
	id, ok, err := r.store.Load(ctx, r.owner)
	if err != nil {
		return nil, false, fmt.Errorf("load draft id: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	rec, err := r.api.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
		log.Info().Str("id", id).Msg("cached draft is gone; starting fresh")
		r.forget(ctx)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fetch draft %s: %w", id, err)
	}
	if rec.Status != domain.StatusDraft {
		r.forget(ctx)
		return nil, false, nil
	}
	r.identity = domain.Identity{Kind: domain.IdentityDraft, ID: rec.ID}
	return payload.ToCandidate(rec.Payload), true, nil
}

// OpenForEdit loads an existing record and adopts its id.
func (r *Reconciler) OpenForEdit(ctx context.Context, id string) (*domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.identity.IsNone() && r.identity.ID != id {
		return nil, fmt.Errorf("already editing %s", r.identity)
	}
	rec, err := r.api.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}
	kind := domain.IdentityEditingPublished
	if rec.Status == domain.StatusDraft {
		kind = domain.IdentityDraft
	}
	r.identity = domain.Identity{Kind: kind, ID: rec.ID}
	return payload.ToCandidate(rec.Payload), nil
}

func (r *Reconciler) update(ctx context.Context, body domain.Payload) (domain.Record, error) {
	rec, err := r.api.Update(ctx, r.identity.ID, body)
	if err != nil {
		return domain.Record{}, err
	}
	if rec.ID != "" && rec.ID != r.identity.ID {
		return domain.Record{}, fmt.Errorf("%w: id %q, want %q", domain.ErrMalformedResponse, rec.ID, r.identity.ID)
	}
	rec.ID = r.identity.ID
	return rec, nil
}

// idempotencyKey is reused until a create succeeds, so a create whose
// response was lost resolves to the same record when retried.
func (r *Reconciler) idempotencyKey() string {
	if r.pendingKey == "" {
		r.pendingKey = r.newKey()
	}
	return r.pendingKey
}

func (r *Reconciler) remember(ctx context.Context, id string) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, r.owner, id); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("draft id not cached")
	}
}

func (r *Reconciler) forget(ctx context.Context) {
	if r.store == nil {
		return
	}
	if err := r.store.Clear(ctx, r.owner); err != nil {
		log.Warn().Err(err).Msg("draft id cache not cleared")
	}
}
