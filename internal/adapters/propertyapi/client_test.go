package propertyapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"property_submission/internal/adapters/propertyapi"
	"property_submission/internal/domain"
)

func newClient(t *testing.T, url string, role domain.Role) *propertyapi.Client {
	t.Helper()
	cl, err := propertyapi.New(url, "owner-1", role, propertyapi.Options{RPS: 100}) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl
}

func TestClient_Update_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(503)
		default:
			if r.Method != http.MethodPut || r.URL.Path != "/properties/abc" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			_ = json.NewEncoder(w).Encode(domain.Record{ID: "abc", Payload: domain.Payload{Status: "draft"}})
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec, err := newClient(t, ts.URL, domain.RoleUser).Update(ctx, "abc", domain.Payload{Title: "x", Status: "draft"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.ID != "abc" || rec.Status != "draft" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_CreateDraft_SendsHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/properties/draft" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Idempotency-Key"); got != "key-1" {
			t.Errorf("idempotency key: %q", got)
		}
		if got := r.Header.Get("X-User-ID"); got != "owner-1" {
			t.Errorf("owner header: %q", got)
		}
		if got := r.Header.Get("X-User-Role"); got != "agent" {
			t.Errorf("role header: %q", got)
		}
		var p domain.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Title != "Sunny flat" {
			t.Errorf("body: %+v, %v", p, err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.Record{ID: "new-id", Payload: p})
	}))
	defer ts.Close()

	rec, err := newClient(t, ts.URL, domain.RoleAgent).CreateDraft(context.Background(), domain.Payload{Title: "Sunny flat", Status: "draft"}, "key-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.ID != "new-id" {
		t.Fatalf("id: %q", rec.ID)
	}
}

func TestClient_ValidationErrorCarriesFields(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"title":  "Unprocessable Entity",
			"status": 422,
			"fields": map[string]string{"publicContacts[0].value": "Enter a valid email address"},
		})
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL, domain.RoleAgent).Update(context.Background(), "abc", domain.Payload{Status: "active"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if ve.Fields["publicContacts[0].value"] != "Enter a valid email address" {
		t.Fatalf("fields: %+v", ve.Fields)
	}
}

func TestClient_Get_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := newClient(t, ts.URL, domain.RoleUser).Get(context.Background(), "gone")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_CreateWithoutKeyIsNotRetried(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL, domain.RoleAgent).Create(context.Background(), domain.Payload{Status: "active"}, "")
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("unkeyed create sent %d times", n)
	}
	if !propertyapi.IsRetryable(err) {
		t.Fatalf("transport errors should be retryable")
	}
}

func TestClient_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL, domain.RoleUser).Get(context.Background(), "abc")
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}
