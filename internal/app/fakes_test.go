package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"property_submission/internal/app"
	"property_submission/internal/domain"
)

func validCandidate() *domain.Candidate {
	c := domain.NewCandidate()
	c.Title = "Bright two-room flat"
	c.Description = "Renovated flat on a quiet street, five minutes from the metro."
	c.PropertyType = "apartment"
	c.TransactionType = "rent"
	c.Price = domain.Price{Amount: "650", Currency: "USD", Period: "month"}
	c.Location = domain.Location{
		Address:     "Nezavisimosti Ave 95",
		City:        "Minsk",
		Coordinates: domain.Coordinates{Latitude: "53.9271", Longitude: "27.6316"},
	}
	c.Details = domain.Details{Area: "54,5", Rooms: "2", Bedrooms: "1", Floor: "4", TotalFloors: "9"}
	c.PublicContacts = []domain.Contact{{Type: "phone", Value: "+375291234567"}}
	return c
}

// errLost makes the fake store the record and then fail, like a response
// lost after the server committed.
var errLost = errors.New("response lost")

type fakeAPI struct {
	mu    sync.Mutex
	calls []string
	keys  []string
	recs  map[string]domain.Record
	byKey map[string]string
	ids   []string
	seq   int
	fail  []error
}

func newFakeAPI(ids ...string) *fakeAPI {
	return &fakeAPI{recs: map[string]domain.Record{}, byKey: map[string]string{}, ids: ids}
}

func (f *fakeAPI) failNext(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = append(f.fail, errs...)
}

func (f *fakeAPI) nextErr() error {
	if len(f.fail) == 0 {
		return nil
	}
	err := f.fail[0]
	f.fail = f.fail[1:]
	return err
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) records() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recs)
}

func (f *fakeAPI) create(path string, p domain.Payload, key string) (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "POST "+path)
	f.keys = append(f.keys, key)
	err := f.nextErr()
	if err != nil && !errors.Is(err, errLost) {
		return domain.Record{}, err
	}
	if id, ok := f.byKey[key]; ok {
		rec := domain.Record{ID: id, Payload: p}
		f.recs[id] = rec
		return rec, nil
	}
	f.seq++
	id := fmt.Sprintf("p%d", f.seq)
	if len(f.ids) > 0 {
		id, f.ids = f.ids[0], f.ids[1:]
	}
	rec := domain.Record{ID: id, Payload: p}
	f.recs[id] = rec
	if key != "" {
		f.byKey[key] = id
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return rec, nil
}

func (f *fakeAPI) CreateDraft(_ context.Context, p domain.Payload, key string) (domain.Record, error) {
	return f.create("/properties/draft", p, key)
}

func (f *fakeAPI) Create(_ context.Context, p domain.Payload, key string) (domain.Record, error) {
	return f.create("/properties", p, key)
}

func (f *fakeAPI) Update(_ context.Context, id string, p domain.Payload) (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "PUT /"+id)
	if err := f.nextErr(); err != nil {
		return domain.Record{}, err
	}
	if _, ok := f.recs[id]; !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	rec := domain.Record{ID: id, Payload: p}
	f.recs[id] = rec
	return rec, nil
}

func (f *fakeAPI) Get(_ context.Context, id string) (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "GET /"+id)
	rec, ok := f.recs[id]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	return rec, nil
}

type fakeStore struct {
	mu  sync.Mutex
	ids map[string]string
}

func newFakeStore() *fakeStore { return &fakeStore{ids: map[string]string{}} }

func (s *fakeStore) Load(_ context.Context, owner string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.ids[owner]
	return id, ok, nil
}

func (s *fakeStore) Save(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[owner] = id
	return nil
}

func (s *fakeStore) Clear(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, owner)
	return nil
}

// manualClock collects scheduled callbacks until Fire runs them.
type manualClock struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
	c       *manualClock
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *manualClock) After(_ time.Duration, f func()) app.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f, c: c}
	c.pending = append(c.pending, t)
	return t
}

// Fire runs every live timer and returns how many ran.
func (c *manualClock) Fire() int {
	c.mu.Lock()
	due := c.pending
	c.pending = nil
	var run []func()
	for _, t := range due {
		if !t.stopped {
			t.stopped = true
			run = append(run, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range run {
		f()
	}
	return len(run)
}

func (c *manualClock) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

type recordingEvents struct {
	mu     sync.Mutex
	events []domain.LifecycleEvent
}

func (e *recordingEvents) Publish(_ context.Context, ev domain.LifecycleEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func (e *recordingEvents) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

type mapCache struct {
	mu   sync.Mutex
	recs map[string]domain.Record
}

func newMapCache() *mapCache { return &mapCache{recs: map[string]domain.Record{}} }

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.recs[key]
	if ok {
		*dst.(*domain.Record) = rec
	}
	return ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, v any, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs[key] = v.(domain.Record)
	return nil
}

func (c *mapCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.recs, key)
	return nil
}
