package services

import "agentharvest/models"

// Merge combines a summary record with a profile overlay and returns a new
// Agent. Every non-nil overlay field replaces the summary value; nil or empty
// overlay fields leave the summary untouched. Identity and the plain-valued
// summary fields (name, flags, review count, tags) are never changed.
//
// Merge does not modify its arguments, and Merge(Merge(s, o), o) == Merge(s, o).
func Merge(summary, overlay models.Agent) models.Agent {
	out := summary

	// Summary tier fields the profile page may refine.
	out.BrokerageName = pick(overlay.BrokerageName, summary.BrokerageName)
	out.PhotoURL = pick(overlay.PhotoURL, summary.PhotoURL)
	out.LogoURL = pick(overlay.LogoURL, summary.LogoURL)
	out.Rating = pick(overlay.Rating, summary.Rating)
	out.RatingText = pick(overlay.RatingText, summary.RatingText)
	out.PriceRange = pick(overlay.PriceRange, summary.PriceRange)
	out.PriceRangeMin = pick(overlay.PriceRangeMin, summary.PriceRangeMin)
	out.PriceRangeMax = pick(overlay.PriceRangeMax, summary.PriceRangeMax)
	out.SalesLast12Months = pick(overlay.SalesLast12Months, summary.SalesLast12Months)
	out.TotalSales = pick(overlay.TotalSales, summary.TotalSales)
	out.YearsExperienceMin = pick(overlay.YearsExperienceMin, summary.YearsExperienceMin)

	// Profile tier
	out.AgentType = pick(overlay.AgentType, summary.AgentType)
	out.Phone = pick(overlay.Phone, summary.Phone)
	out.Email = pick(overlay.Email, summary.Email)
	out.Website = pick(overlay.Website, summary.Website)
	out.Address = pick(overlay.Address, summary.Address)
	out.City = pick(overlay.City, summary.City)
	out.State = pick(overlay.State, summary.State)
	out.ZipCode = pick(overlay.ZipCode, summary.ZipCode)
	out.Title = pick(overlay.Title, summary.Title)
	out.YearsExperience = pick(overlay.YearsExperience, summary.YearsExperience)
	out.Biography = pick(overlay.Biography, summary.Biography)
	out.BrokeragePhone = pick(overlay.BrokeragePhone, summary.BrokeragePhone)
	out.BrokerageAddress = pick(overlay.BrokerageAddress, summary.BrokerageAddress)
	out.ActiveListings = pick(overlay.ActiveListings, summary.ActiveListings)
	out.ForSaleListings = pick(overlay.ForSaleListings, summary.ForSaleListings)
	out.ForRentListings = pick(overlay.ForRentListings, summary.ForRentListings)
	out.TotalListings = pick(overlay.TotalListings, summary.TotalListings)

	out.Specialties = pickSlice(overlay.Specialties, summary.Specialties)
	out.Languages = pickSlice(overlay.Languages, summary.Languages)
	out.Certifications = pickSlice(overlay.Certifications, summary.Certifications)
	out.Licenses = pickSlice(overlay.Licenses, summary.Licenses)
	out.RecentSales = pickSlice(overlay.RecentSales, summary.RecentSales)
	out.Reviews = pickSlice(overlay.Reviews, summary.Reviews)
	out.NeighborhoodsServed = pickSlice(overlay.NeighborhoodsServed, summary.NeighborhoodsServed)
	out.MarketExpertise = pickSlice(overlay.MarketExpertise, summary.MarketExpertise)

	return out
}

func pick[T any](override, fallback *T) *T {
	if override != nil {
		return override
	}
	return fallback
}

func pickSlice[T any](override, fallback []T) []T {
	if len(override) > 0 {
		return override
	}
	return fallback
}
