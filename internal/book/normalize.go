package book

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNotObject is returned when a record to normalize is not a JSON object.
var ErrNotObject = errors.New("book record is not an object")

// ErrNotList is returned when a search payload is not a JSON array.
var ErrNotList = errors.New("book search result is not a list")

// Accepted key variants per canonical field, in lookup order. The
// upstream camelCase spelling comes first, then PascalCase, then the
// canonical name so that normalizing a Summary again is a no-op.
var (
	idKeys       = []string{"id", "Id"}
	titleKeys    = []string{"bookName", "BookName", FieldTitle}
	priceKeys    = []string{"cost", "Cost", FieldPrice}
	quantityKeys = []string{"numberOfItems", "NumberOfItems", FieldQuantity}
)

// Normalize projects a loosely-typed upstream record onto a Summary. It
// never fails: for each field the first present, non-null key variant
// wins, and a value of an unusable type leaves the field unset.
func Normalize(raw map[string]any) Summary {
	var s Summary
	if v, ok := lookup(raw, idKeys); ok {
		s.ID = toInt(v)
	}
	if v, ok := lookup(raw, titleKeys); ok {
		s.Title = toString(v)
	}
	if v, ok := lookup(raw, priceKeys); ok {
		s.Price = toFloat(v)
	}
	if v, ok := lookup(raw, quantityKeys); ok {
		s.Quantity = toInt(v)
	}
	return s
}

// NormalizeObject normalizes a single decoded JSON document.
func NormalizeObject(doc any) (Summary, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return Summary{}, ErrNotObject
	}
	return Normalize(obj), nil
}

// NormalizeList normalizes every element of a decoded JSON array,
// preserving order. An element that is not an object yields an error.
func NormalizeList(doc any) ([]Summary, error) {
	items, ok := doc.([]any)
	if !ok {
		return nil, ErrNotList
	}
	out := make([]Summary, 0, len(items))
	for i, item := range items {
		s, err := NormalizeObject(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// DecodeDocument parses a JSON payload, keeping numbers as json.Number so
// large identifiers survive without float rounding.
func DecodeDocument(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON document")
	}
	return doc, nil
}

func lookup(raw map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func toInt(v any) *int64 {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return &i
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt(f)
		}
	case float64:
		return floatToInt(n)
	case int64:
		return &n
	case int:
		i := int64(n)
		return &i
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return &i
		}
	}
	return nil
}

func floatToInt(f float64) *int64 {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	i := int64(f)
	return &i
}

func toFloat(v any) *float64 {
	switch n := v.(type) {
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return &f
		}
	case float64:
		return &n
	case int64:
		f := float64(n)
		return &f
	case int:
		f := float64(n)
		return &f
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return &f
		}
	}
	return nil
}

func toString(v any) *string {
	switch s := v.(type) {
	case string:
		return &s
	case json.Number:
		str := s.String()
		return &str
	case float64:
		str := strconv.FormatFloat(s, 'f', -1, 64)
		return &str
	case bool:
		str := strconv.FormatBool(s)
		return &str
	}
	return nil
}
