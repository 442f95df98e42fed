package app

import (
	"context"
	"fmt"

	"property_submission/internal/domain"
)

// Get answers GET /properties/{id}. Drafts are private to their owner;
// published records are readable by anyone.
func (s *PropertyService) Get(ctx context.Context, who Caller, id string) (domain.Record, error) {
	key := cacheKey(id)
	var rec domain.Record
	hit := false
	if s.cache != nil {
		hit, _ = s.cache.Get(ctx, key, &rec)
	}
	if !hit {
		var err error
		rec, err = s.repo.Get(ctx, id)
		if err != nil {
			return domain.Record{}, err
		}
		if s.cache != nil {
			_ = s.cache.Set(ctx, key, rec, int(s.cacheTTL.Seconds()))
		}
	}
	if rec.Status != domain.StatusActive && !who.canTouch(rec) {
		return domain.Record{}, fmt.Errorf("property %s: %w", id, domain.ErrForbidden)
	}
	return deepCopyRecord(rec), nil
}
