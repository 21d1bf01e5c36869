// Package book holds the canonical book summary shape served from the
// gateway cache and the normalizer that projects upstream records onto it.
package book

import (
	"strconv"
	"strings"
)

// Summary is the canonical projection of an upstream book record. Fields
// the upstream record did not carry stay nil and are omitted from JSON.
type Summary struct {
	ID       *int64   `json:"id,omitempty"`
	Title    *string  `json:"title,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Quantity *int64   `json:"quantity,omitempty"`
}

// Field names of Summary as they appear in JSON.
const (
	FieldID       = "id"
	FieldTitle    = "title"
	FieldPrice    = "price"
	FieldQuantity = "quantity"
)

// HasID reports whether the summary carries the given identifier. The
// identifier is compared in its decimal string form, so "42" and 42 match.
func (s Summary) HasID(id string) bool {
	return s.ID != nil && strconv.FormatInt(*s.ID, 10) == id
}

// CanonicalID returns the form identifiers are compared in: surrounding
// whitespace is dropped and a decimal integer loses leading zeros and a
// plus sign. Anything else is returned trimmed.
func CanonicalID(id string) string {
	id = strings.TrimSpace(id)
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return id
}

// MissingFields lists the canonical fields the summary lacks.
func (s Summary) MissingFields() []string {
	var missing []string
	if s.ID == nil {
		missing = append(missing, FieldID)
	}
	if s.Title == nil {
		missing = append(missing, FieldTitle)
	}
	if s.Price == nil {
		missing = append(missing, FieldPrice)
	}
	if s.Quantity == nil {
		missing = append(missing, FieldQuantity)
	}
	return missing
}

// Complete reports whether every canonical field is set.
func (s Summary) Complete() bool {
	return len(s.MissingFields()) == 0
}
