package services

import (
	"cmp"
	"slices"
	"strings"

	"agentharvest/models"
	"agentharvest/utils"
)

// Sort keys understood by Sort.
const (
	SortByRating      = "rating"
	SortByReviewCount = "review_count"
	SortBySales       = "sales_last_12_months"
	SortByTotalSales  = "total_sales"
	SortByName        = "name"
)

// Filter keeps the agents that pass every criterion that is set. A nil field
// fails any predicate that reads it, e.g. an unrated agent fails RatingMin.
func Filter(agents []models.Agent, c models.SearchCriteria) []models.Agent {
	out := make([]models.Agent, 0, len(agents))
	for _, a := range agents {
		if matches(&a, c) {
			out = append(out, a)
		}
	}
	return out
}

func matches(a *models.Agent, c models.SearchCriteria) bool {
	if c.RatingMin != nil && (a.Rating == nil || *a.Rating < *c.RatingMin) {
		return false
	}
	if c.ReviewCountMin != nil && a.ReviewCount < *c.ReviewCountMin {
		return false
	}
	if c.SalesMin != nil && (a.SalesLast12Months == nil || *a.SalesLast12Months < *c.SalesMin) {
		return false
	}
	if c.SalesMax != nil && (a.SalesLast12Months == nil || *a.SalesLast12Months > *c.SalesMax) {
		return false
	}
	if c.YearsExperienceMin != nil && (a.YearsExperienceMin == nil || *a.YearsExperienceMin < *c.YearsExperienceMin) {
		return false
	}
	if c.TopAgentOnly && !a.IsTopAgent {
		return false
	}
	if c.ExcludeTeams && a.IsTeam {
		return false
	}
	if c.AgentType != nil && (a.AgentType == nil || *a.AgentType != *c.AgentType) {
		return false
	}
	if len(c.Specialties) > 0 && !containsAny(a.Specialties, c.Specialties) {
		return false
	}
	if len(c.Languages) > 0 && !containsAny(a.Languages, c.Languages) {
		return false
	}
	return true
}

// containsAny reports whether any wanted value is a case-insensitive
// substring of the joined haystack.
func containsAny(haystack, wanted []string) bool {
	joined := strings.ToLower(strings.Join(haystack, " "))
	for _, w := range wanted {
		if strings.Contains(joined, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// Dedup drops every agent whose ID was already seen, keeping the first
// occurrence and the input order.
func Dedup(agents []models.Agent) []models.Agent {
	seen := utils.NewIDSet()
	out := make([]models.Agent, 0, len(agents))
	for _, a := range agents {
		if seen.Add(a.AgentID) {
			out = append(out, a)
		}
	}
	return out
}

// Sort returns a stably sorted copy. Unknown keys fall back to rating,
// highest first, whatever descending says. Agents whose sort field is nil
// always come last, in their original order.
func Sort(agents []models.Agent, key string, descending bool) []models.Agent {
	out := slices.Clone(agents)

	var compare func(a, b *models.Agent) int
	switch key {
	case SortByReviewCount:
		compare = func(a, b *models.Agent) int { return cmp.Compare(a.ReviewCount, b.ReviewCount) }
	case SortBySales:
		compare = nilsLast(func(a *models.Agent) *int { return a.SalesLast12Months })
	case SortByTotalSales:
		compare = nilsLast(func(a *models.Agent) *int { return a.TotalSales })
	case SortByName:
		compare = func(a, b *models.Agent) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortByRating:
		compare = nilsLast(func(a *models.Agent) *float64 { return a.Rating })
	default:
		compare = nilsLast(func(a *models.Agent) *float64 { return a.Rating })
		descending = true
	}

	slices.SortStableFunc(out, func(a, b models.Agent) int {
		if c, decided := nilOrder(&a, &b, key); decided {
			return c
		}
		c := compare(&a, &b)
		if descending {
			return -c
		}
		return c
	})
	return out
}

// nilsLast compares two optional values; nil handling is done by nilOrder.
func nilsLast[T cmp.Ordered](field func(*models.Agent) *T) func(a, b *models.Agent) int {
	return func(a, b *models.Agent) int {
		return cmp.Compare(*field(a), *field(b))
	}
}

// nilOrder settles comparisons involving a nil sort field, independent of
// direction. decided is false when both values are present.
func nilOrder(a, b *models.Agent, key string) (result int, decided bool) {
	var aNil, bNil bool
	switch key {
	case SortByReviewCount, SortByName:
		return 0, false
	case SortBySales:
		aNil, bNil = a.SalesLast12Months == nil, b.SalesLast12Months == nil
	case SortByTotalSales:
		aNil, bNil = a.TotalSales == nil, b.TotalSales == nil
	default:
		aNil, bNil = a.Rating == nil, b.Rating == nil
	}
	switch {
	case aNil && bNil:
		return 0, true
	case aNil:
		return 1, true
	case bNil:
		return -1, true
	}
	return 0, false
}

// Paginate returns agents[offset:offset+limit], clamped to the slice bounds.
func Paginate(agents []models.Agent, limit, offset int) []models.Agent {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 || offset >= len(agents) {
		return []models.Agent{}
	}
	end := offset + limit
	if end > len(agents) {
		end = len(agents)
	}
	return agents[offset:end]
}
