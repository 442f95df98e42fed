package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"property_submission/internal/adapters/observability"
	"property_submission/internal/domain"
	"property_submission/internal/payload"
	"property_submission/internal/validation"
)

// Caller identifies who is acting on the reference API.
type Caller struct {
	Owner string
	Role  domain.Role
}

func (c Caller) canTouch(rec domain.Record) bool {
	return c.Role == domain.RoleAdmin || rec.OwnerID == c.Owner
}

// PropertyService backs the reference Property API: it checks payload shape,
// validates anything going live, enforces ownership and the role's publish
// ceiling, and keeps caches and subscribers in step with writes.
type PropertyService struct {
	repo     domain.PropertyRepository
	cache    domain.Cache
	events   domain.EventPublisher
	contract *payload.Contract
	v        *validation.Validator
	cacheTTL time.Duration

	now   func() time.Time
	newID func() string
}

func NewPropertyService(r domain.PropertyRepository, c domain.Cache, ev domain.EventPublisher,
	contract *payload.Contract, v *validation.Validator, ttl time.Duration) *PropertyService {
	return &PropertyService{
		repo:     r,
		cache:    c,
		events:   ev,
		contract: contract,
		v:        v,
		cacheTTL: ttl,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// CreateDraft answers POST /properties/draft. The status is always draft.
func (s *PropertyService) CreateDraft(ctx context.Context, who Caller, body []byte, key string) (domain.Record, bool, error) {
	p, err := s.decode(body, domain.StatusDraft)
	if err != nil {
		return domain.Record{}, false, err
	}
	return s.create(ctx, who, p, key)
}

// Create answers POST /properties: create and publish in one call. A plain
// user's publish lands as a draft.
func (s *PropertyService) Create(ctx context.Context, who Caller, body []byte, key string) (domain.Record, bool, error) {
	p, err := s.decode(body, domain.PublishStatus(who.Role))
	if err != nil {
		return domain.Record{}, false, err
	}
	return s.create(ctx, who, p, key)
}

// Update answers PUT /properties/{id}. The body's status drives the result,
// clamped to what the caller's role may publish.
func (s *PropertyService) Update(ctx context.Context, who Caller, id string, body []byte) (domain.Record, error) {
	status, err := requestedStatus(body)
	if err != nil {
		return domain.Record{}, err
	}
	p, err := s.decode(body, clampStatus(status, who.Role))
	if err != nil {
		return domain.Record{}, err
	}
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Record{}, err
	}
	if !who.canTouch(cur) {
		return domain.Record{}, fmt.Errorf("property %s: %w", id, domain.ErrForbidden)
	}
	return s.apply(ctx, cur, p)
}

func (s *PropertyService) create(ctx context.Context, who Caller, p domain.Payload, key string) (domain.Record, bool, error) {
	if key != "" {
		prev, err := s.repo.FindByIdempotencyKey(ctx, who.Owner, key)
		switch {
		case err == nil:
			// replayed create: the first request landed, apply this one on top
			log.Info().Str("id", prev.ID).Str("key", key).Msg("idempotent create replayed as update")
			rec, err := s.apply(ctx, prev, p)
			return rec, false, err
		case !errors.Is(err, domain.ErrNotFound):
			return domain.Record{}, false, err
		}
	}

	now := s.now()
	rec := newRecord(s.newID(), who.Owner, now, p)
	if err := s.repo.Insert(ctx, rec, key); err != nil {
		if errors.Is(err, domain.ErrConflict) && key != "" {
			// a concurrent request with the same key won the insert
			if prev, ferr := s.repo.FindByIdempotencyKey(ctx, who.Owner, key); ferr == nil {
				rec, err := s.apply(ctx, prev, p)
				return rec, false, err
			}
		}
		return domain.Record{}, false, fmt.Errorf("insert property: %w", err)
	}
	s.announce(ctx, rec)
	return rec, true, nil
}

func (s *PropertyService) apply(ctx context.Context, cur domain.Record, p domain.Payload) (domain.Record, error) {
	rec := newRecord(cur.ID, cur.OwnerID, cur.CreatedAt, p)
	rec.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, rec); err != nil {
		return domain.Record{}, fmt.Errorf("update property %s: %w", rec.ID, err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, cacheKey(rec.ID))
	}
	s.announce(ctx, rec)
	return rec, nil
}

// decode checks the body against the wire contract, normalizes it and, when
// the record is going live, runs the full business validation. Drafts are
// checked against the relaxed contract only.
func (s *PropertyService) decode(body []byte, status string) (domain.Payload, error) {
	check := s.contract.Check
	if status == domain.StatusDraft {
		check = s.contract.CheckDraft
	}
	if errs := check(body); len(errs) > 0 {
		return domain.Payload{}, &domain.ValidationError{Fields: errs}
	}
	var p domain.Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.Payload{}, &domain.ValidationError{Fields: domain.ErrorMap{domain.GlobalKey: "body is not a property payload"}}
	}
	p.Status = status
	p = payload.Normalize(p)
	if status == domain.StatusActive {
		if errs := s.v.ValidateAll(payload.ToCandidate(p)); len(errs) > 0 {
			return domain.Payload{}, &domain.ValidationError{Fields: errs}
		}
	}
	return p, nil
}

func (s *PropertyService) announce(ctx context.Context, rec domain.Record) {
	if s.events == nil {
		return
	}
	typ := domain.EventDraftSaved
	if rec.Status == domain.StatusActive {
		typ = domain.EventPublished
	}
	err := s.events.Publish(ctx, domain.LifecycleEvent{Type: typ, PropertyID: rec.ID, OwnerID: rec.OwnerID, Status: rec.Status})
	observability.ObserveLifecycle(typ, err)
	if err != nil {
		log.Warn().Err(err).Str("id", rec.ID).Str("event", typ).Msg("lifecycle event not published")
	}
}

func requestedStatus(body []byte) (string, error) {
	var head struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return "", &domain.ValidationError{Fields: domain.ErrorMap{domain.GlobalKey: "body is not valid JSON"}}
	}
	if head.Status == "" {
		return domain.StatusDraft, nil
	}
	return head.Status, nil
}

func clampStatus(status string, r domain.Role) string {
	if status == domain.StatusActive {
		return domain.PublishStatus(r)
	}
	return domain.StatusDraft
}
