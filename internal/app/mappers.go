package app

import (
	"time"

	"github.com/mmcloughlin/geohash"

	"property_submission/internal/domain"
)

// 9 characters is roughly a 5m cell.
const geohashPrecision = 9

func cacheKey(id string) string { return "property:" + id }

func newRecord(id, owner string, created time.Time, p domain.Payload) domain.Record {
	return domain.Record{
		ID:        id,
		OwnerID:   owner,
		Geohash:   geohashOf(p),
		CreatedAt: created,
		UpdatedAt: created,
		Payload:   p,
	}
}

func geohashOf(p domain.Payload) string {
	if p.Location == nil || p.Location.Coordinates == nil {
		return ""
	}
	lat, lng := p.Location.Coordinates.Latitude, p.Location.Coordinates.Longitude
	if lat == nil || lng == nil || *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return ""
	}
	return geohash.EncodeWithPrecision(*lat, *lng, geohashPrecision)
}

// deepCopyRecord keeps callers from mutating slices and maps shared with a
// cached or repository-owned value.
func deepCopyRecord(in domain.Record) domain.Record {
	out := in
	if in.Features != nil {
		out.Features = make(map[string]bool, len(in.Features))
		for k, v := range in.Features {
			out.Features[k] = v
		}
	}
	if n := len(in.Images); n > 0 {
		out.Images = make([]domain.Image, n)
		copy(out.Images, in.Images)
	}
	if n := len(in.PublicContacts); n > 0 {
		out.PublicContacts = make([]domain.Contact, n)
		copy(out.PublicContacts, in.PublicContacts)
	}
	return out
}
