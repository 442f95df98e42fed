package schema

import (
	"regexp"
	"time"

	"property_submission/internal/domain"
)

var (
	PropertyTypes    = []string{"apartment", "house", "room", "commercial", "land", "garage"}
	TransactionTypes = []string{"sale", "rent"}
	Currencies       = []string{"USD", "EUR", "BYN"}
	RentPeriods      = []string{"month", "week", "day"}
	Conditions       = []string{"new", "renovated", "good", "needs_repair"}
	TourTypes        = []string{domain.TourNone, domain.TourVideo, domain.Tour360, domain.TourVR}
	ContactTypes     = []string{ContactPhone, ContactEmail, ContactWhatsApp, ContactViber, ContactTelegram, ContactWebsite}
)

var featureKeyRe = regexp.MustCompile(`^[a-z][a-zA-Z0-9_]{0,39}$`)

// Property returns the submission schema. now bounds the build year.
func Property(now time.Time) *Schema {
	maxYear := float64(now.Year() + 5)

	isRent := func(c *domain.Candidate, _ int) bool { return c.TransactionType == "rent" }
	notRent := func(c *domain.Candidate, i int) bool { return !isRent(c, i) }
	tourNeedsURL := func(c *domain.Candidate, _ int) bool {
		switch c.VirtualTour.Type {
		case domain.TourVideo, domain.Tour360, domain.TourVR:
			return true
		}
		return false
	}
	tourHasNoURL := func(c *domain.Candidate, i int) bool { return !tourNeedsURL(c, i) }

	return &Schema{
		Fields: []Field{
			{Path: "title", Label: "Title", Kind: KindString, Required: true, MinLen: 10, MaxLen: 120},
			{Path: "description", Label: "Description", Kind: KindString, Required: true, MinLen: 30, MaxLen: 5000},
			{Path: "propertyType", Label: "Property type", Kind: KindEnum, Required: true, Allowed: PropertyTypes},
			{Path: "transactionType", Label: "Transaction type", Kind: KindEnum, Required: true, Allowed: TransactionTypes},

			{Path: "price.amount", Label: "Price", Kind: KindNumber, Required: true, Min: ptr(1), Max: ptr(1e10)},
			{Path: "price.currency", Label: "Currency", Kind: KindEnum, Required: true, Allowed: Currencies},
			{Path: "price.period", Label: "Rent period", Kind: KindEnum, When: isRent, Skip: notRent, Allowed: RentPeriods},

			{Path: "location.address", Label: "Address", Kind: KindString, Required: true, MinLen: 3, MaxLen: 200},
			{Path: "location.street", Label: "Street", Kind: KindString, MaxLen: 120},
			{Path: "location.houseNumber", Label: "House number", Kind: KindString, MaxLen: 20},
			{Path: "location.city", Label: "City", Kind: KindString, Required: true, MinLen: 2, MaxLen: 100},
			{Path: "location.district", Label: "District", Kind: KindString, MaxLen: 100},
			{Path: "location.coordinates.latitude", Label: "Latitude", Kind: KindNumber, Min: ptr(-90), Max: ptr(90)},
			{Path: "location.coordinates.longitude", Label: "Longitude", Kind: KindNumber, Min: ptr(-180), Max: ptr(180)},

			{Path: "details.area", Label: "Area", Kind: KindNumber, Required: true, Min: ptr(1), Max: ptr(100000)},
			{Path: "details.rooms", Label: "Rooms", Kind: KindInteger, Min: ptr(0), Max: ptr(100)},
			{Path: "details.bedrooms", Label: "Bedrooms", Kind: KindInteger, Min: ptr(0), Max: ptr(50)},
			{Path: "details.bathrooms", Label: "Bathrooms", Kind: KindInteger, Min: ptr(0), Max: ptr(50)},
			{Path: "details.floor", Label: "Floor", Kind: KindInteger, Min: ptr(-5), Max: ptr(200)},
			{Path: "details.totalFloors", Label: "Total floors", Kind: KindInteger, Min: ptr(1), Max: ptr(200)},
			{Path: "details.buildYear", Label: "Build year", Kind: KindInteger, Min: ptr(1800), Max: ptr(maxYear)},
			{Path: "details.condition", Label: "Condition", Kind: KindEnum, Allowed: Conditions},

			{Path: "images[].url", Label: "Image URL", Kind: KindURL},
			{Path: "images[].alt", Label: "Image description", Kind: KindString, MaxLen: 200},

			{Path: "virtualTour.type", Label: "Virtual tour type", Kind: KindEnum, Required: true, Allowed: TourTypes},
			{Path: "virtualTour.url", Label: "Virtual tour URL", Kind: KindURL, When: tourNeedsURL, Skip: tourHasNoURL},

			{Path: "additionalCosts.utilities", Label: "Utilities", Kind: KindNumber, Min: ptr(0), Max: ptr(1e9)},
			{Path: "additionalCosts.maintenance", Label: "Maintenance", Kind: KindNumber, Min: ptr(0), Max: ptr(1e9)},
			{Path: "additionalCosts.parking", Label: "Parking", Kind: KindNumber, Min: ptr(0), Max: ptr(1e9)},
			{Path: "additionalCosts.internet", Label: "Internet", Kind: KindNumber, Min: ptr(0), Max: ptr(1e9)},
			{Path: "availableFrom", Label: "Available from", Kind: KindDate},

			{Path: "publicContacts[].type", Label: "Contact type", Kind: KindEnum, Required: true, Allowed: ContactTypes},
			{Path: "publicContacts[].value", Label: "Contact", Kind: KindString, Required: true, MaxLen: 200, Format: contactValueFormat},
			{Path: "publicContacts[].name", Label: "Contact name", Kind: KindString, MaxLen: 100},
			{Path: "publicContacts[].label", Label: "Contact label", Kind: KindString, MaxLen: 50},
		},
		Collections: []Collection{
			{Path: "images", Max: domain.MaxImages, MaxMessage: "At most 20 images allowed"},
			{Path: "publicContacts", Min: 1, Max: domain.MaxContacts,
				MinMessage: "At least one contact required", MaxMessage: "At most 2 contacts allowed"},
		},
		Rules: []Rule{
			{Name: "single main image", Apply: func(c *domain.Candidate, report func(string, string)) {
				if len(c.Images) == 0 {
					return
				}
				mains := 0
				for _, img := range c.Images {
					if img.IsMain {
						mains++
					}
				}
				if mains != 1 {
					report("images", "Exactly one image must be marked as main")
				}
			}},
			{Name: "feature keys", Apply: func(c *domain.Candidate, report func(string, string)) {
				for k := range c.Features {
					if !featureKeyRe.MatchString(k) {
						report("features."+k, "Unknown feature")
					}
				}
			}},
		},
		Cross: []CrossRule{
			{Name: "floor within building", Check: func(c *domain.Candidate) string {
				floor, okF := number(c.Details.Floor)
				total, okT := number(c.Details.TotalFloors)
				if okF && okT && floor > total {
					return "Floor cannot be higher than the total number of floors"
				}
				return ""
			}},
			{Name: "bedrooms within rooms", Check: func(c *domain.Candidate) string {
				bedrooms, okB := number(c.Details.Bedrooms)
				rooms, okR := number(c.Details.Rooms)
				if okB && okR && bedrooms > rooms {
					return "Bedrooms cannot exceed the number of rooms"
				}
				return ""
			}},
		},
	}
}

func number(raw string) (float64, bool) {
	v, present, err := domain.ParseNumber(raw)
	return v, present && err == nil
}
