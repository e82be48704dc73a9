package model

import (
	"fmt"
	"strings"
)

// Gender is the enumerated sex of a fish
type Gender string

const (
	GenderMale        Gender = "MALE"
	GenderFemale      Gender = "FEMALE"
	GenderUnspecified Gender = "UNSPECIFIED"
)

// ParseGender normalizes free-form input: blank becomes UNSPECIFIED and
// everything else is upper-cased before it is checked against the enum.
func ParseGender(s string) (Gender, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return GenderUnspecified, nil
	}

	g := Gender(strings.ToUpper(s))
	switch g {
	case GenderMale, GenderFemale, GenderUnspecified:
		return g, nil
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// NewFish is the creation payload: every field except id and enrichment
type NewFish struct {
	Genus        string `json:"genus"`
	Species      string `json:"species"`
	CommonName   string `json:"commonName"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	Gender       Gender `json:"gender"`
	PurchaseDate string `json:"purchaseDate"`
	Count        int32  `json:"count"`
}

// Enrichment is populated server-side from the Fishbase taxonomy service
type Enrichment struct {
	EcosystemName     string `json:"ecosystemName,omitempty"`
	EcosystemType     string `json:"ecosystemType,omitempty"`
	EcosystemLocation string `json:"ecosystemLocation,omitempty"`
	Salinity          string `json:"salinity,omitempty"`
	Climate           string `json:"climate,omitempty"`
}

// Fish is a stored inventory record
type Fish struct {
	ID ID `json:"id"`
	NewFish
	Enrichment
}

// EntityID implements Entity
func (f Fish) EntityID() ID {
	return f.ID
}

// DisplayGender renders UNSPECIFIED as blank, the way the fish table shows it
func (f Fish) DisplayGender() string {
	if f.Gender == GenderUnspecified {
		return ""
	}
	return string(f.Gender)
}
