package domain

import "time"

// Payload is the pruned, typed body sent to the Property API.
type Payload struct {
	Title           string          `json:"title,omitempty"`
	Description     string          `json:"description,omitempty"`
	PropertyType    string          `json:"propertyType,omitempty"`
	TransactionType string          `json:"transactionType,omitempty"`
	Price           *WirePrice      `json:"price,omitempty"`
	Location        *WireLocation   `json:"location,omitempty"`
	Details         *WireDetails    `json:"details,omitempty"`
	Features        map[string]bool `json:"features,omitempty"`
	Images          []Image         `json:"images,omitempty"`
	VirtualTour     VirtualTour     `json:"virtualTour"`
	AdditionalCosts *WireCosts      `json:"additionalCosts,omitempty"`
	AvailableFrom   string          `json:"availableFrom,omitempty"`
	PublicContacts  []Contact       `json:"publicContacts,omitempty"`
	Status          string          `json:"status,omitempty"`
}

type WirePrice struct {
	Amount   *float64 `json:"amount,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Period   string   `json:"period,omitempty"`
}

type WireLocation struct {
	Address     string           `json:"address,omitempty"`
	Street      string           `json:"street,omitempty"`
	HouseNumber string           `json:"houseNumber,omitempty"`
	City        string           `json:"city,omitempty"`
	District    string           `json:"district,omitempty"`
	Coordinates *WireCoordinates `json:"coordinates,omitempty"`
}

type WireCoordinates struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type WireDetails struct {
	Area        *float64 `json:"area,omitempty"`
	Rooms       *float64 `json:"rooms,omitempty"`
	Bedrooms    *float64 `json:"bedrooms,omitempty"`
	Bathrooms   *float64 `json:"bathrooms,omitempty"`
	Floor       *float64 `json:"floor,omitempty"`
	TotalFloors *float64 `json:"totalFloors,omitempty"`
	BuildYear   *float64 `json:"buildYear,omitempty"`
	Condition   string   `json:"condition,omitempty"`
}

type WireCosts struct {
	Utilities   *float64 `json:"utilities,omitempty"`
	Maintenance *float64 `json:"maintenance,omitempty"`
	Parking     *float64 `json:"parking,omitempty"`
	Internet    *float64 `json:"internet,omitempty"`
}

// Record is the server-side property as the API returns it.
type Record struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId,omitempty"`
	Geohash   string    `json:"geohash,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Payload
}
