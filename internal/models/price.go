package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Price is a decimal-odds value as it arrived from the feed.
//
// The feed normally sends a JSON number, but a price can also be missing, null, or a value
// that does not parse as a number. Raw keeps the original text so callers can show it
// unchanged when it cannot be converted.
type Price struct {
	Raw     string  // Original textual form
	Value   float64 // Parsed value; meaningful only when Valid
	Present bool    // Field was present and not null
	Valid   bool    // Value is a finite number
}

// PriceOf builds a present price from a number.
func PriceOf(v float64) Price {
	return Price{
		Raw:     strconv.FormatFloat(v, 'f', -1, 64),
		Value:   v,
		Present: true,
		Valid:   !math.IsNaN(v) && !math.IsInf(v, 0),
	}
}

// ParsePrice builds a present price from its textual form.
func ParsePrice(raw string) Price {
	p := Price{Raw: raw, Present: true}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		p.Value = v
		p.Valid = true
	}
	return p
}

// SortValue returns the value used to order prices; anything that is not a valid number
// sorts as 0.
func (p Price) SortValue() float64 {
	if !p.Valid {
		return 0
	}
	return p.Value
}

// UnmarshalJSON accepts numbers, strings and null.
func (p *Price) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*p = Price{}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*p = ParsePrice(s)
		return nil
	}
	*p = ParsePrice(string(trimmed))
	return nil
}

// MarshalJSON writes the price back in the shape it was read.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Present {
		return []byte("null"), nil
	}
	if p.Valid {
		return strconv.AppendFloat(nil, p.Value, 'f', -1, 64), nil
	}
	return json.Marshal(p.Raw)
}
