package models

import (
	"strings"
	"time"
)

// AgentType classifies a profile as an individual, a team, or a brokerage.
type AgentType string

const (
	AgentTypeSolo   AgentType = "solo"
	AgentTypeTeam   AgentType = "team"
	AgentTypeBroker AgentType = "broker"
)

// ParseAgentType maps user input onto an AgentType. The second return value is
// false for anything other than solo, team or broker.
func ParseAgentType(s string) (AgentType, bool) {
	t := AgentType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case AgentTypeSolo, AgentTypeTeam, AgentTypeBroker:
		return t, true
	}
	return "", false
}

// Sale is one closed transaction shown on a profile page.
type Sale struct {
	Address         string
	SaleDate        *time.Time
	SalePrice       *int
	PropertyType    string
	TransactionType string
	City            string
	State           string
	ZipCode         string
}

// Review is one client review shown on a profile page.
type Review struct {
	ReviewerName    string
	Rating          float64
	Date            *time.Time
	Text            string
	TransactionType string
	Verified        *bool
}

// Agent is a single directory entry.
//
// The summary tier is filled from a listing page card and is always present
// after extraction. The profile tier stays nil until a profile page has been
// fetched and merged in.
type Agent struct {
	// Identity
	AgentID    string
	ProfileURL string

	// Summary tier
	Name               string
	BrokerageName      *string
	PhotoURL           *string
	LogoURL            *string
	IsTopAgent         bool
	IsTeam             bool
	Rating             *float64
	RatingText         *string
	ReviewCount        int
	PriceRange         *string
	PriceRangeMin      *string
	PriceRangeMax      *string
	SalesLast12Months  *int
	TotalSales         *int
	Tags               []string
	YearsExperienceMin *int

	// Profile tier
	AgentType           *AgentType
	Phone               *string
	Email               *string
	Website             *string
	Address             *string
	City                *string
	State               *string
	ZipCode             *string
	Title               *string
	YearsExperience     *int
	Specialties         []string
	Languages           []string
	Certifications      []string
	Licenses            []string
	Biography           *string
	BrokeragePhone      *string
	BrokerageAddress    *string
	RecentSales         []Sale
	Reviews             []Review
	NeighborhoodsServed []string
	MarketExpertise     []string
	ActiveListings      *int
	ForSaleListings     *int
	ForRentListings     *int
	TotalListings       *int
}

// HasProfile reports whether any profile-tier field has been populated.
func (a *Agent) HasProfile() bool {
	return a.AgentType != nil || a.Phone != nil || a.Email != nil || a.Website != nil ||
		a.Address != nil || a.City != nil || a.State != nil || a.ZipCode != nil ||
		a.Title != nil || a.YearsExperience != nil || a.Biography != nil ||
		a.BrokeragePhone != nil || a.BrokerageAddress != nil ||
		len(a.Specialties) > 0 || len(a.Languages) > 0 ||
		len(a.Certifications) > 0 || len(a.Licenses) > 0 ||
		len(a.RecentSales) > 0 || len(a.Reviews) > 0 ||
		len(a.NeighborhoodsServed) > 0 || len(a.MarketExpertise) > 0 ||
		a.ActiveListings != nil || a.ForSaleListings != nil ||
		a.ForRentListings != nil || a.TotalListings != nil
}

// Ptr returns a pointer to v. Handy for building optional fields.
func Ptr[T any](v T) *T {
	return &v
}
