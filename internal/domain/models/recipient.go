package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Recipient is a contact targeted by a broadcast.
type Recipient struct {
	Phone             string         `json:"phone"`
	CountryCode       string         `json:"countryCode,omitempty"`
	FirstName         string         `json:"firstName,omitempty"`
	LastName          string         `json:"lastName,omitempty"`
	Email             string         `json:"email,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	PlaceholderValues map[string]any `json:"placeholderValues,omitempty"`
}

// Field looks up an attribute by name: the well-known contact fields first, then
// metadata. Empty values count as absent.
func (r Recipient) Field(name string) (string, bool) {
	if name == "" {
		return "", false
	}

	var v string
	switch strings.ToLower(strings.ReplaceAll(name, "_", "")) {
	case "phone":
		v = r.Phone
	case "countrycode":
		v = r.CountryCode
	case "firstname":
		v = r.FirstName
	case "lastname":
		v = r.LastName
	case "email":
		v = r.Email
	}
	if v != "" {
		return v, true
	}

	return lookup(r.Metadata, name)
}

// PlaceholderValue looks up a caller-supplied runtime value by key.
func (r Recipient) PlaceholderValue(key string) (string, bool) {
	return lookup(r.PlaceholderValues, key)
}

func lookup(m map[string]any, key string) (string, bool) {
	if len(m) == 0 {
		return "", false
	}
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", false
	}

	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	if s == "" {
		return "", false
	}
	return s, true
}
