package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// GlobalKey holds form-level errors that belong to no single field.
const GlobalKey = "_global"

// WithinPath reports whether p is base itself or a dotted/indexed descendant of it.
func WithinPath(p, base string) bool {
	if p == base {
		return true
	}
	if !strings.HasPrefix(p, base) {
		return false
	}
	next := p[len(base)]
	return next == '.' || next == '['
}

// IndexedPath builds "collection[i].field".
func IndexedPath(collection string, i int, field string) string {
	p := collection + "[" + strconv.Itoa(i) + "]"
	if field != "" {
		p += "." + field
	}
	return p
}

// splitIndexed parses "publicContacts[1].value" into ("publicContacts", 1, "value").
func splitIndexed(path string) (string, int, string, bool) {
	open := strings.IndexByte(path, '[')
	if open <= 0 {
		return "", 0, "", false
	}
	end := strings.IndexByte(path[open:], ']')
	if end < 0 {
		return "", 0, "", false
	}
	end += open
	idx, err := strconv.Atoi(path[open+1 : end])
	if err != nil || idx < 0 {
		return "", 0, "", false
	}
	rest := path[end+1:]
	if rest != "" {
		if rest[0] != '.' {
			return "", 0, "", false
		}
		rest = rest[1:]
	}
	return path[:open], idx, rest, true
}

func (c *Candidate) scalar(path string) *string {
	switch path {
	case "title":
		return &c.Title
	case "description":
		return &c.Description
	case "propertyType":
		return &c.PropertyType
	case "transactionType":
		return &c.TransactionType
	case "availableFrom":
		return &c.AvailableFrom
	case "price.amount":
		return &c.Price.Amount
	case "price.currency":
		return &c.Price.Currency
	case "price.period":
		return &c.Price.Period
	case "location.address":
		return &c.Location.Address
	case "location.street":
		return &c.Location.Street
	case "location.houseNumber":
		return &c.Location.HouseNumber
	case "location.city":
		return &c.Location.City
	case "location.district":
		return &c.Location.District
	case "location.coordinates.latitude":
		return &c.Location.Coordinates.Latitude
	case "location.coordinates.longitude":
		return &c.Location.Coordinates.Longitude
	case "details.area":
		return &c.Details.Area
	case "details.rooms":
		return &c.Details.Rooms
	case "details.bedrooms":
		return &c.Details.Bedrooms
	case "details.bathrooms":
		return &c.Details.Bathrooms
	case "details.floor":
		return &c.Details.Floor
	case "details.totalFloors":
		return &c.Details.TotalFloors
	case "details.buildYear":
		return &c.Details.BuildYear
	case "details.condition":
		return &c.Details.Condition
	case "virtualTour.url":
		return &c.VirtualTour.URL
	case "additionalCosts.utilities":
		return &c.AdditionalCosts.Utilities
	case "additionalCosts.maintenance":
		return &c.AdditionalCosts.Maintenance
	case "additionalCosts.parking":
		return &c.AdditionalCosts.Parking
	case "additionalCosts.internet":
		return &c.AdditionalCosts.Internet
	}
	return nil
}

func (ct *Contact) field(name string) *string {
	switch name {
	case "type":
		return &ct.Type
	case "value":
		return &ct.Value
	case "name":
		return &ct.Name
	case "label":
		return &ct.Label
	}
	return nil
}

func (im *Image) field(name string) *string {
	switch name {
	case "url":
		return &im.URL
	case "publicId":
		return &im.PublicID
	case "alt":
		return &im.Alt
	}
	return nil
}

// Lookup returns the raw value at a leaf path. Booleans render as "true"/"false".
func (c *Candidate) Lookup(path string) (string, bool) {
	if p := c.scalar(path); p != nil {
		return *p, true
	}
	switch {
	case path == "virtualTour.type":
		return c.VirtualTour.Type, true
	case strings.HasPrefix(path, "features."):
		return strconv.FormatBool(c.Features[strings.TrimPrefix(path, "features.")]), true
	}
	coll, i, field, ok := splitIndexed(path)
	if !ok {
		return "", false
	}
	switch coll {
	case "publicContacts":
		if i >= len(c.PublicContacts) {
			return "", false
		}
		if p := c.PublicContacts[i].field(field); p != nil {
			return *p, true
		}
	case "images":
		if i >= len(c.Images) {
			return "", false
		}
		if field == "isMain" {
			return strconv.FormatBool(c.Images[i].IsMain), true
		}
		if p := c.Images[i].field(field); p != nil {
			return *p, true
		}
	}
	return "", false
}

// Assign overwrites the leaf at path. Mutations that carry list or tour
// invariants go through the same helpers the wizard uses.
func (c *Candidate) Assign(path, value string) error {
	if p := c.scalar(path); p != nil {
		*p = value
		return nil
	}
	switch {
	case path == "virtualTour.type":
		c.SetVirtualTourType(value)
		return nil
	case strings.HasPrefix(path, "features."):
		key := strings.TrimPrefix(path, "features.")
		if key == "" {
			return fmt.Errorf("%w: %s", ErrUnknownPath, path)
		}
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("features.%s: %w", key, err)
		}
		if c.Features == nil {
			c.Features = map[string]bool{}
		}
		if on {
			c.Features[key] = true
		} else {
			delete(c.Features, key)
		}
		return nil
	}
	coll, i, field, ok := splitIndexed(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
	switch coll {
	case "publicContacts":
		if i >= len(c.PublicContacts) {
			return fmt.Errorf("%w: %s", ErrIndexOutOfRange, path)
		}
		if p := c.PublicContacts[i].field(field); p != nil {
			*p = value
			return nil
		}
	case "images":
		if i >= len(c.Images) {
			return fmt.Errorf("%w: %s", ErrIndexOutOfRange, path)
		}
		if field == "isMain" {
			if on, _ := strconv.ParseBool(value); on {
				return c.SetMainImage(i)
			}
			return nil
		}
		if p := c.Images[i].field(field); p != nil {
			*p = value
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownPath, path)
}

// Len returns the element count of a list-valued path.
func (c *Candidate) Len(collection string) int {
	switch collection {
	case "publicContacts":
		return len(c.PublicContacts)
	case "images":
		return len(c.Images)
	}
	return 0
}
