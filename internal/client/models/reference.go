package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Domain tags a reference collection.
type Domain string

const (
	DomainDoctors   Domain = "doctors"
	DomainHospitals Domain = "hospitals"
	DomainNGOs      Domain = "ngos"
)

// Domains lists every reference domain mirrored on the device.
func Domains() []Domain {
	return []Domain{DomainDoctors, DomainHospitals, DomainNGOs}
}

func ParseDomain(s string) (Domain, error) {
	for _, d := range Domains() {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown reference domain %q", s)
}

var ErrMissingEntityID = errors.New("reference entity has no id")

// ReferenceEntity is one doctor, hospital or NGO as sent by the remote service.
// Fields is kept as an opaque bag; only the id and, for doctors, the
// specialization are interpreted locally.
type ReferenceEntity struct {
	ID     string
	Domain Domain
	Fields map[string]any
}

// ParseReferenceEntity decodes a remote JSON object. Numeric ids are rendered
// in decimal so the local key is stable regardless of how the remote types it.
func ParseReferenceEntity(domain Domain, raw json.RawMessage) (ReferenceEntity, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ReferenceEntity{}, fmt.Errorf("decode %s entity: %w", domain, err)
	}

	var id string
	switch v := fields["id"].(type) {
	case string:
		id = v
	case float64:
		id = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if id == "" {
		return ReferenceEntity{}, ErrMissingEntityID
	}

	return ReferenceEntity{ID: id, Domain: domain, Fields: fields}, nil
}

// Str returns a string field, or "" when absent or not a string.
func (e ReferenceEntity) Str(name string) string {
	s, _ := e.Fields[name].(string)
	return s
}

func (e ReferenceEntity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Fields)
}
