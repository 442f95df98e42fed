// Package payload turns form state into the wire body the Property API
// accepts, and back.
package payload

import (
	"strings"

	"property_submission/internal/domain"
)

// Build converts form state into a pruned, typed payload. Numeric strings are
// parsed or dropped, empty groups are omitted, never-uploaded images are
// removed and the virtual tour collapses to NO without a real url.
// Build(ToCandidate(Build(c, s)), s) equals Build(c, s).
func Build(c *domain.Candidate, status string) domain.Payload {
	p := domain.Payload{
		Title:           clean(c.Title),
		Description:     clean(c.Description),
		PropertyType:    clean(c.PropertyType),
		TransactionType: clean(c.TransactionType),
		AvailableFrom:   clean(c.AvailableFrom),
		Status:          status,
	}

	price := domain.WirePrice{
		Amount:   num(c.Price.Amount),
		Currency: clean(c.Price.Currency),
	}
	if p.TransactionType == "rent" {
		price.Period = clean(c.Price.Period)
	}
	if price != (domain.WirePrice{}) {
		p.Price = &price
	}

	loc := domain.WireLocation{
		Address:     clean(c.Location.Address),
		Street:      clean(c.Location.Street),
		HouseNumber: clean(c.Location.HouseNumber),
		City:        clean(c.Location.City),
		District:    clean(c.Location.District),
	}
	coords := domain.WireCoordinates{
		Latitude:  num(c.Location.Coordinates.Latitude),
		Longitude: num(c.Location.Coordinates.Longitude),
	}
	if coords != (domain.WireCoordinates{}) {
		loc.Coordinates = &coords
	}
	if loc != (domain.WireLocation{}) {
		p.Location = &loc
	}

	det := domain.WireDetails{
		Area:        num(c.Details.Area),
		Rooms:       num(c.Details.Rooms),
		Bedrooms:    num(c.Details.Bedrooms),
		Bathrooms:   num(c.Details.Bathrooms),
		Floor:       num(c.Details.Floor),
		TotalFloors: num(c.Details.TotalFloors),
		BuildYear:   num(c.Details.BuildYear),
		Condition:   clean(c.Details.Condition),
	}
	if det != (domain.WireDetails{}) {
		p.Details = &det
	}

	for k, on := range c.Features {
		if !on || strings.TrimSpace(k) == "" {
			continue
		}
		if p.Features == nil {
			p.Features = map[string]bool{}
		}
		p.Features[k] = true
	}

	for _, img := range c.Images {
		img.URL = clean(img.URL)
		img.PublicID = clean(img.PublicID)
		img.Alt = clean(img.Alt)
		if img.URL == "" && img.PublicID == "" {
			continue
		}
		p.Images = append(p.Images, img)
	}
	domain.NormalizeImageList(p.Images)

	p.VirtualTour = domain.VirtualTour{Type: domain.TourNone}
	if u := clean(c.VirtualTour.URL); u != "" {
		switch t := clean(c.VirtualTour.Type); t {
		case domain.TourVideo, domain.Tour360, domain.TourVR:
			p.VirtualTour = domain.VirtualTour{Type: t, URL: u}
		}
	}

	costs := domain.WireCosts{
		Utilities:   num(c.AdditionalCosts.Utilities),
		Maintenance: num(c.AdditionalCosts.Maintenance),
		Parking:     num(c.AdditionalCosts.Parking),
		Internet:    num(c.AdditionalCosts.Internet),
	}
	if costs != (domain.WireCosts{}) {
		p.AdditionalCosts = &costs
	}

	for _, ct := range c.PublicContacts {
		ct = domain.Contact{
			Type:  clean(ct.Type),
			Value: clean(ct.Value),
			Name:  clean(ct.Name),
			Label: clean(ct.Label),
		}
		if ct.Type == "" && ct.Value == "" {
			continue
		}
		p.PublicContacts = append(p.PublicContacts, ct)
	}
	return p
}

// Normalize applies Build to a payload that arrived over the wire.
func Normalize(p domain.Payload) domain.Payload {
	return Build(ToCandidate(p), p.Status)
}

// ToCandidate hydrates form state from a payload or a fetched record.
func ToCandidate(p domain.Payload) *domain.Candidate {
	c := domain.NewCandidate()
	c.Title = p.Title
	c.Description = p.Description
	c.PropertyType = p.PropertyType
	c.TransactionType = p.TransactionType
	c.AvailableFrom = p.AvailableFrom

	if p.Price != nil {
		c.Price = domain.Price{Amount: str(p.Price.Amount), Currency: p.Price.Currency, Period: p.Price.Period}
	}
	if l := p.Location; l != nil {
		c.Location = domain.Location{
			Address:     l.Address,
			Street:      l.Street,
			HouseNumber: l.HouseNumber,
			City:        l.City,
			District:    l.District,
		}
		if l.Coordinates != nil {
			c.Location.Coordinates = domain.Coordinates{
				Latitude:  str(l.Coordinates.Latitude),
				Longitude: str(l.Coordinates.Longitude),
			}
		}
	}
	if d := p.Details; d != nil {
		c.Details = domain.Details{
			Area:        str(d.Area),
			Rooms:       str(d.Rooms),
			Bedrooms:    str(d.Bedrooms),
			Bathrooms:   str(d.Bathrooms),
			Floor:       str(d.Floor),
			TotalFloors: str(d.TotalFloors),
			BuildYear:   str(d.BuildYear),
			Condition:   d.Condition,
		}
	}
	for k, on := range p.Features {
		if on {
			c.Features[k] = true
		}
	}
	if len(p.Images) > 0 {
		c.Images = append([]domain.Image(nil), p.Images...)
		c.NormalizeImages()
	}
	if p.VirtualTour.Type != "" {
		c.VirtualTour = p.VirtualTour
	}
	if a := p.AdditionalCosts; a != nil {
		c.AdditionalCosts = domain.AdditionalCosts{
			Utilities:   str(a.Utilities),
			Maintenance: str(a.Maintenance),
			Parking:     str(a.Parking),
			Internet:    str(a.Internet),
		}
	}
	if len(p.PublicContacts) > 0 {
		c.PublicContacts = append([]domain.Contact(nil), p.PublicContacts...)
	}
	return c
}

func clean(s string) string { return strings.TrimSpace(s) }

func num(raw string) *float64 {
	f, present, err := domain.ParseNumber(raw)
	if !present || err != nil {
		return nil
	}
	return &f
}

func str(f *float64) string {
	if f == nil {
		return ""
	}
	return domain.FormatNumber(*f)
}
