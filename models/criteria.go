package models

import (
	"fmt"
	"strings"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// SearchCriteria describes one directory search: where to look, which
// client-side filters to apply, and how much to return.
type SearchCriteria struct {
	// Location, at least one is required.
	State        string
	City         string
	ZipCode      string
	LocationSlug string

	// Filters
	RatingMin          *float64
	ReviewCountMin     *int
	SalesMin           *int
	SalesMax           *int
	YearsExperienceMin *int
	Specialties        []string
	Languages          []string
	TopAgentOnly       bool
	ExcludeTeams       bool
	AgentType          *AgentType

	// Control
	Limit         int
	Offset        int
	FetchProfiles bool
	SortBy        string
	SortAscending bool
}

// HasLocation reports whether any location selector is set.
func (c SearchCriteria) HasLocation() bool {
	return strings.TrimSpace(c.State) != "" ||
		strings.TrimSpace(c.City) != "" ||
		strings.TrimSpace(c.ZipCode) != "" ||
		strings.TrimSpace(c.LocationSlug) != ""
}

// Slug returns the location token used in directory URLs.
// An explicit LocationSlug wins, then "city-state", then the ZIP code.
func (c SearchCriteria) Slug() string {
	if s := strings.TrimSpace(c.LocationSlug); s != "" {
		return s
	}

	var parts []string
	if city := slugify(c.City); city != "" {
		parts = append(parts, city)
	}
	if state := slugify(c.State); state != "" {
		parts = append(parts, state)
	}
	if len(parts) > 0 {
		return strings.Join(parts, "-")
	}

	return strings.TrimSpace(c.ZipCode)
}

func slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// WithDefaults returns a copy with a zero Limit replaced by DefaultLimit.
func (c SearchCriteria) WithDefaults() SearchCriteria {
	if c.Limit == 0 {
		c.Limit = DefaultLimit
	}
	return c
}

// Validate checks the criteria before any network activity happens.
// Every failure is an InvalidCriteria error.
func (c SearchCriteria) Validate() error {
	if !c.HasLocation() {
		return NewError(KindInvalidCriteria, "validate",
			fmt.Errorf("at least one location is required: state, city, zip code or location slug"))
	}
	if c.Limit < 1 || c.Limit > MaxLimit {
		return NewError(KindInvalidCriteria, "validate",
			fmt.Errorf("limit must be between 1 and %d, got %d", MaxLimit, c.Limit))
	}
	if c.Offset < 0 {
		return NewError(KindInvalidCriteria, "validate",
			fmt.Errorf("offset must be >= 0, got %d", c.Offset))
	}
	if c.RatingMin != nil && (*c.RatingMin < 0 || *c.RatingMin > 5) {
		return NewError(KindInvalidCriteria, "validate",
			fmt.Errorf("rating minimum must be within 0-5, got %.2f", *c.RatingMin))
	}
	floors := []struct {
		name  string
		value *int
	}{
		{"review count minimum", c.ReviewCountMin},
		{"sales minimum", c.SalesMin},
		{"sales maximum", c.SalesMax},
		{"years of experience minimum", c.YearsExperienceMin},
	}
	for _, f := range floors {
		if f.value != nil && *f.value < 0 {
			return NewError(KindInvalidCriteria, "validate",
				fmt.Errorf("%s must be >= 0, got %d", f.name, *f.value))
		}
	}
	if c.AgentType != nil {
		if _, ok := ParseAgentType(string(*c.AgentType)); !ok {
			return NewError(KindInvalidCriteria, "validate",
				fmt.Errorf("agent type must be solo, team or broker, got %q", *c.AgentType))
		}
	}
	return nil
}
