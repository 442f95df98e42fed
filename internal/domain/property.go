package domain

// Candidate is the in-memory form state of a property submission.
// Numeric inputs are kept as the raw strings the user typed; coercion
// happens in the validator and the payload builder.
type Candidate struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	PropertyType    string          `json:"propertyType"`
	TransactionType string          `json:"transactionType"`
	Price           Price           `json:"price"`
	Location        Location        `json:"location"`
	Details         Details         `json:"details"`
	Features        map[string]bool `json:"features"`
	Images          []Image         `json:"images"`
	VirtualTour     VirtualTour     `json:"virtualTour"`
	AdditionalCosts AdditionalCosts `json:"additionalCosts"`
	AvailableFrom   string          `json:"availableFrom"` // YYYY-MM-DD
	PublicContacts  []Contact       `json:"publicContacts"`
}

type Price struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Period   string `json:"period"` // month|week|day, rent only
}

type Location struct {
	Address     string      `json:"address"`
	Street      string      `json:"street"`
	HouseNumber string      `json:"houseNumber"`
	City        string      `json:"city"`
	District    string      `json:"district"`
	Coordinates Coordinates `json:"coordinates"`
}

type Coordinates struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

type Details struct {
	Area        string `json:"area"`
	Rooms       string `json:"rooms"`
	Bedrooms    string `json:"bedrooms"`
	Bathrooms   string `json:"bathrooms"`
	Floor       string `json:"floor"`
	TotalFloors string `json:"totalFloors"`
	BuildYear   string `json:"buildYear"`
	Condition   string `json:"condition"`
}

type Image struct {
	URL      string `json:"url,omitempty"`
	PublicID string `json:"publicId,omitempty"`
	Alt      string `json:"alt"`
	IsMain   bool   `json:"isMain"`
	Order    int    `json:"order"`
}

type VirtualTour struct {
	Type string `json:"type"` // NO|video|360|vr
	URL  string `json:"url,omitempty"`
}

type AdditionalCosts struct {
	Utilities   string `json:"utilities"`
	Maintenance string `json:"maintenance"`
	Parking     string `json:"parking"`
	Internet    string `json:"internet"`
}

type Contact struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
	Label string `json:"label,omitempty"`
}

const (
	TourNone  = "NO"
	TourVideo = "video"
	Tour360   = "360"
	TourVR    = "vr"

	MaxContacts = 2
)

// NewCandidate returns an empty candidate as the wizard shows it on mount.
func NewCandidate() *Candidate {
	return &Candidate{
		Features:    map[string]bool{},
		VirtualTour: VirtualTour{Type: TourNone},
	}
}

// HasContent reports whether the candidate carries enough to be worth a draft.
func (c *Candidate) HasContent() bool {
	return trimmed(c.Title) != "" || trimmed(c.Description) != ""
}

// Clone returns a deep copy.
func (c *Candidate) Clone() *Candidate {
	out := *c
	if c.Features != nil {
		out.Features = make(map[string]bool, len(c.Features))
		for k, v := range c.Features {
			out.Features[k] = v
		}
	}
	if c.Images != nil {
		out.Images = append([]Image(nil), c.Images...)
	}
	if c.PublicContacts != nil {
		out.PublicContacts = append([]Contact(nil), c.PublicContacts...)
	}
	return &out
}

// SetVirtualTourType switches the tour type; NO drops any url.
func (c *Candidate) SetVirtualTourType(t string) {
	c.VirtualTour.Type = t
	if t == TourNone {
		c.VirtualTour.URL = ""
	}
}

// AddContact appends an empty contact of the given type.
func (c *Candidate) AddContact(typ string) error {
	if len(c.PublicContacts) >= MaxContacts {
		return ErrTooManyContacts
	}
	c.PublicContacts = append(c.PublicContacts, Contact{Type: typ})
	return nil
}

func (c *Candidate) RemoveContact(i int) error {
	if i < 0 || i >= len(c.PublicContacts) {
		return ErrIndexOutOfRange
	}
	c.PublicContacts = append(c.PublicContacts[:i:i], c.PublicContacts[i+1:]...)
	return nil
}
