// Package memory is a process-local PropertyRepository for development
// servers and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"property_submission/internal/domain"
)

type Repo struct {
	mu   sync.RWMutex
	recs map[string]domain.Record
	keys map[string]string // owner + "\x00" + key -> id
}

func New() *Repo {
	return &Repo{recs: map[string]domain.Record{}, keys: map[string]string{}}
}

func keyOf(owner, key string) string { return owner + "\x00" + key }

func (r *Repo) Insert(_ context.Context, rec domain.Record, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recs[rec.ID]; ok {
		return fmt.Errorf("property %s: %w", rec.ID, domain.ErrConflict)
	}
	if key != "" {
		if _, ok := r.keys[keyOf(rec.OwnerID, key)]; ok {
			return fmt.Errorf("idempotency key %s: %w", key, domain.ErrConflict)
		}
		r.keys[keyOf(rec.OwnerID, key)] = rec.ID
	}
	r.recs[rec.ID] = rec
	return nil
}

func (r *Repo) Update(_ context.Context, rec domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recs[rec.ID]; !ok {
		return domain.ErrNotFound
	}
	r.recs[rec.ID] = rec
	return nil
}

func (r *Repo) Get(_ context.Context, id string) (domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.recs[id]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	return rec, nil
}

func (r *Repo) FindByIdempotencyKey(_ context.Context, owner, key string) (domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.keys[keyOf(owner, key)]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	return r.recs[id], nil
}

// Len reports how many records exist.
func (r *Repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.recs)
}
