package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"property_submission/internal/app"
	"property_submission/internal/domain"
	"property_submission/internal/payload"
	"property_submission/internal/storage/memory"
	"property_submission/internal/validation"
)

type serviceRig struct {
	repo   *memory.Repo
	cache  *mapCache
	events *recordingEvents
	s      *app.PropertyService
}

func newServiceRig(t *testing.T) *serviceRig {
	t.Helper()
	contract, err := payload.NewContract()
	if err != nil {
		t.Fatal(err)
	}
	rig := &serviceRig{repo: memory.New(), cache: newMapCache(), events: &recordingEvents{}}
	rig.s = app.NewPropertyService(rig.repo, rig.cache, rig.events, contract, validation.Default(), time.Minute)
	return rig
}

func body(t *testing.T, c *domain.Candidate, status string) []byte {
	t.Helper()
	b, err := json.Marshal(payload.Build(c, status))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

var (
	owner = app.Caller{Owner: "u1", Role: domain.RoleUser}
	agent = app.Caller{Owner: "u2", Role: domain.RoleAgent}
	admin = app.Caller{Owner: "root", Role: domain.RoleAdmin}
)

func TestService_CreateDraftAcceptsPartialForm(t *testing.T) {
	rig := newServiceRig(t)
	c := domain.NewCandidate()
	c.Title = "Flat"

	rec, created, err := rig.s.CreateDraft(context.Background(), owner, body(t, c, domain.StatusDraft), "k1")
	if err != nil {
		t.Fatal(err)
	}
	if !created || rec.ID == "" || rec.Status != domain.StatusDraft || rec.OwnerID != "u1" {
		t.Fatalf("record: %+v", rec)
	}
	if got := rig.events.types(); len(got) != 1 || got[0] != domain.EventDraftSaved {
		t.Fatalf("events: %v", got)
	}
}

func TestService_CreateDraftIgnoresRequestedStatus(t *testing.T) {
	rig := newServiceRig(t)
	rec, _, err := rig.s.CreateDraft(context.Background(), agent, body(t, validCandidate(), domain.StatusActive), "")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != domain.StatusDraft {
		t.Fatalf("status: %q", rec.Status)
	}
}

func TestService_IdempotentCreateReplay(t *testing.T) {
	rig := newServiceRig(t)
	ctx := context.Background()
	c := validCandidate()

	first, created, err := rig.s.CreateDraft(ctx, owner, body(t, c, domain.StatusDraft), "k1")
	if err != nil || !created {
		t.Fatalf("created=%v err=%v", created, err)
	}
	c.Title = "Bright two-room flat, updated"
	second, created, err := rig.s.CreateDraft(ctx, owner, body(t, c, domain.StatusDraft), "k1")
	if err != nil {
		t.Fatal(err)
	}
	if created || second.ID != first.ID || second.Title != c.Title {
		t.Fatalf("replay: created=%v %+v", created, second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created time changed")
	}
	if rig.repo.Len() != 1 {
		t.Fatalf("records: %d", rig.repo.Len())
	}

	// another owner with the same key gets their own record
	if _, created, err := rig.s.CreateDraft(ctx, agent, body(t, c, domain.StatusDraft), "k1"); err != nil || !created {
		t.Fatalf("created=%v err=%v", created, err)
	}
}

func TestService_PublishStatusFollowsRole(t *testing.T) {
	rig := newServiceRig(t)
	ctx := context.Background()

	rec, _, err := rig.s.Create(ctx, owner, body(t, validCandidate(), domain.StatusActive), "")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != domain.StatusDraft {
		t.Fatalf("user publish landed as %q", rec.Status)
	}

	rec, _, err = rig.s.Create(ctx, agent, body(t, validCandidate(), domain.StatusActive), "")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != domain.StatusActive {
		t.Fatalf("agent publish landed as %q", rec.Status)
	}
	if len(rec.Geohash) != 9 || rec.Geohash[:2] != "u9" {
		t.Fatalf("geohash: %q", rec.Geohash)
	}
	events := rig.events.types()
	if events[len(events)-1] != domain.EventPublished {
		t.Fatalf("events: %v", events)
	}
}

func TestService_ActiveRequiresValidRecord(t *testing.T) {
	rig := newServiceRig(t)
	c := validCandidate()
	c.PublicContacts = nil
	c.Details.Floor, c.Details.TotalFloors = "10", "5"

	_, _, err := rig.s.Create(context.Background(), agent, body(t, c, domain.StatusActive), "")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err: %v", err)
	}
	if ve.Fields["publicContacts"] == "" || ve.Fields[domain.GlobalKey] == "" {
		t.Fatalf("fields: %v", ve.Fields)
	}
	if rig.repo.Len() != 0 {
		t.Fatalf("invalid record stored")
	}
}

func TestService_RejectsMalformedBody(t *testing.T) {
	rig := newServiceRig(t)
	_, _, err := rig.s.CreateDraft(context.Background(), owner, []byte(`{"virtualTour":{"type":"NO"},"price":{"amount":"cheap"}}`), "")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["price.amount"] == "" {
		t.Fatalf("err: %v", err)
	}
}

func TestService_UpdateOwnership(t *testing.T) {
	rig := newServiceRig(t)
	ctx := context.Background()
	rec, _, err := rig.s.CreateDraft(ctx, owner, body(t, validCandidate(), domain.StatusDraft), "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := rig.s.Update(ctx, agent, rec.ID, body(t, validCandidate(), domain.StatusDraft)); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign update: %v", err)
	}
	if _, err := rig.s.Update(ctx, admin, rec.ID, body(t, validCandidate(), domain.StatusActive)); err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if _, err := rig.s.Update(ctx, owner, "missing", body(t, validCandidate(), domain.StatusDraft)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
}

func TestService_UpdateClampsUserPublish(t *testing.T) {
	rig := newServiceRig(t)
	ctx := context.Background()
	rec, _, err := rig.s.CreateDraft(ctx, owner, body(t, validCandidate(), domain.StatusDraft), "")
	if err != nil {
		t.Fatal(err)
	}
	got, err := rig.s.Update(ctx, owner, rec.ID, body(t, validCandidate(), domain.StatusActive))
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusDraft || got.ID != rec.ID {
		t.Fatalf("record: %+v", got)
	}
	if rig.repo.Len() != 1 {
		t.Fatalf("records: %d", rig.repo.Len())
	}
}

func TestService_GetVisibilityAndCache(t *testing.T) {
	rig := newServiceRig(t)
	ctx := context.Background()
	rec, _, err := rig.s.CreateDraft(ctx, owner, body(t, validCandidate(), domain.StatusDraft), "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := rig.s.Get(ctx, agent, rec.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("draft visible to others: %v", err)
	}
	got, err := rig.s.Get(ctx, owner, rec.ID)
	if err != nil || got.ID != rec.ID {
		t.Fatalf("owner get: %v %+v", err, got)
	}
	got.PublicContacts[0].Value = "mutated"
	again, _ := rig.s.Get(ctx, owner, rec.ID)
	if again.PublicContacts[0].Value == "mutated" {
		t.Fatalf("returned record shares memory with the cache")
	}

	c := validCandidate()
	c.Title = "Bright two-room flat, now published"
	if _, err := rig.s.Update(ctx, admin, rec.ID, body(t, c, domain.StatusActive)); err != nil {
		t.Fatal(err)
	}
	got, err = rig.s.Get(ctx, agent, rec.ID)
	if err != nil {
		t.Fatalf("published record hidden: %v", err)
	}
	if got.Title != c.Title {
		t.Fatalf("stale cache: %q", got.Title)
	}
	if _, err := rig.s.Get(ctx, owner, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
}
