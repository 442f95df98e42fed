package payload_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"property_submission/internal/domain"
	"property_submission/internal/payload"
)

func candidate() *domain.Candidate {
	c := domain.NewCandidate()
	c.Title = "  Bright two-room flat "
	c.Description = "Renovated flat on a quiet street, five minutes from the metro."
	c.PropertyType = "apartment"
	c.TransactionType = "rent"
	c.Price = domain.Price{Amount: "1 200,50", Currency: "USD", Period: "month"}
	c.Location = domain.Location{Address: "Nezavisimosti Ave 95", City: "Minsk"}
	c.Details = domain.Details{Area: "54,5", Rooms: "2", Floor: "4", TotalFloors: "9"}
	c.Features["balcony"] = true
	c.Features["parking"] = false
	c.Images = []domain.Image{
		{URL: "https://cdn.example.com/1.jpg"},
		{Alt: "still uploading"},
		{PublicID: "listing/2", IsMain: true},
	}
	c.PublicContacts = []domain.Contact{{Type: "phone", Value: "+375291234567"}, {}}
	return c
}

func TestBuild_Idempotent(t *testing.T) {
	first := payload.Build(candidate(), domain.StatusDraft)
	second := payload.Build(payload.ToCandidate(first), domain.StatusDraft)
	if !reflect.DeepEqual(first, second) {
		a, _ := json.Marshal(first)
		b, _ := json.Marshal(second)
		t.Fatalf("not idempotent:\n%s\n%s", a, b)
	}
}

func TestBuild_CoercesAndPrunes(t *testing.T) {
	p := payload.Build(candidate(), domain.StatusActive)

	if p.Title != "Bright two-room flat" {
		t.Fatalf("title not trimmed: %q", p.Title)
	}
	if p.Price == nil || p.Price.Amount == nil || *p.Price.Amount != 1200.5 {
		t.Fatalf("price: %+v", p.Price)
	}
	if p.Details == nil || *p.Details.Area != 54.5 || p.Details.Bedrooms != nil {
		t.Fatalf("details: %+v", p.Details)
	}
	if p.AdditionalCosts != nil {
		t.Fatalf("empty costs should be omitted: %+v", p.AdditionalCosts)
	}
	if p.Location.Coordinates != nil {
		t.Fatalf("empty coordinates should be omitted")
	}
	if !reflect.DeepEqual(p.Features, map[string]bool{"balcony": true}) {
		t.Fatalf("features: %v", p.Features)
	}
	if len(p.PublicContacts) != 1 {
		t.Fatalf("blank contact kept: %+v", p.PublicContacts)
	}
	if p.Status != domain.StatusActive {
		t.Fatalf("status: %q", p.Status)
	}
}

func TestBuild_DropsLocalOnlyImages(t *testing.T) {
	p := payload.Build(candidate(), domain.StatusDraft)
	if len(p.Images) != 2 {
		t.Fatalf("images: %+v", p.Images)
	}
	mains := 0
	for i, img := range p.Images {
		if img.Order != i {
			t.Fatalf("order %d at %d", img.Order, i)
		}
		if img.IsMain {
			mains++
		}
	}
	if mains != 1 || !p.Images[1].IsMain {
		t.Fatalf("main image not preserved: %+v", p.Images)
	}
}

func TestBuild_PeriodOnlyForRent(t *testing.T) {
	c := candidate()
	c.TransactionType = "sale"
	p := payload.Build(c, domain.StatusDraft)
	if p.Price.Period != "" {
		t.Fatalf("period kept for sale: %q", p.Price.Period)
	}
}

func TestBuild_TourWithoutURLCollapsesToNO(t *testing.T) {
	c := candidate()
	c.VirtualTour = domain.VirtualTour{Type: domain.TourVideo}
	p := payload.Build(c, domain.StatusDraft)
	if p.VirtualTour != (domain.VirtualTour{Type: domain.TourNone}) {
		t.Fatalf("tour: %+v", p.VirtualTour)
	}

	c.VirtualTour = domain.VirtualTour{Type: domain.TourNone, URL: "https://tour.example.com/1"}
	p = payload.Build(c, domain.StatusDraft)
	body, _ := json.Marshal(p)
	if strings.Contains(string(body), "tour.example.com") {
		t.Fatalf("NO tour carries a url: %s", body)
	}
	if !strings.Contains(string(body), `"virtualTour":{"type":"NO"}`) {
		t.Fatalf("tour missing from body: %s", body)
	}

	c.VirtualTour = domain.VirtualTour{Type: domain.Tour360, URL: " https://tour.example.com/360 "}
	p = payload.Build(c, domain.StatusDraft)
	if p.VirtualTour.URL != "https://tour.example.com/360" || p.VirtualTour.Type != domain.Tour360 {
		t.Fatalf("tour: %+v", p.VirtualTour)
	}
}

func TestBuild_EmptyCandidate(t *testing.T) {
	p := payload.Build(domain.NewCandidate(), domain.StatusDraft)
	body, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(body); got != `{"virtualTour":{"type":"NO"},"status":"draft"}` {
		t.Fatalf("body: %s", got)
	}
}

func TestToCandidate_RoundTripsNumbers(t *testing.T) {
	c := payload.ToCandidate(payload.Build(candidate(), domain.StatusDraft))
	if c.Price.Amount != "1200.5" || c.Details.Area != "54.5" || c.Details.Bedrooms != "" {
		t.Fatalf("numbers: %+v %+v", c.Price, c.Details)
	}
	if c.Features == nil {
		t.Fatalf("features map must be usable")
	}
}
