package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	// priceBoundRegexp captures abbreviated dollar amounts such as "$78K" or "$2.4M"
	priceBoundRegexp = regexp.MustCompile(`\$[\d.,]+[KMB]?`)
	// firstNumberRegexp captures the first integer in a string
	firstNumberRegexp = regexp.MustCompile(`\d+`)
	// yearsTagRegexp matches badge text that carries an experience figure
	yearsTagRegexp = regexp.MustCompile(`(?i)(YRS|YEARS?)`)
)

// Ratings are on a five-star scale.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// ValidRating reports whether r is a finite rating within MinRating-MaxRating.
func ValidRating(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0) && r >= MinRating && r <= MaxRating
}

// ParseReviewCount turns review count text such as "(123)" or "1,024 reviews"
// into an integer. Text without digits yields 0.
func ParseReviewCount(text string) int {
	if n := ParseCount(text); n != nil {
		return *n
	}
	return 0
}

// ParseCount keeps only the digits of text and parses them.
// "12 sales" → 12, "1,204" → 1204, "N/A" → nil.
func ParseCount(text string) *int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

// ParsePriceRange extracts the lower and upper bound from a price range such
// as "$78K - $2.4M". Both bounds are nil unless two amounts are present.
func ParsePriceRange(text string) (min, max *string) {
	bounds := priceBoundRegexp.FindAllString(text, -1)
	if len(bounds) < 2 {
		return nil, nil
	}
	lo, hi := bounds[0], bounds[1]
	return &lo, &hi
}

// ParseYearsFromTags returns the first experience figure found in badge text,
// e.g. "LICENSED 10+ YRS" → 10.
func ParseYearsFromTags(tags []string) *int {
	for _, tag := range tags {
		if !yearsTagRegexp.MatchString(tag) {
			continue
		}
		m := firstNumberRegexp.FindString(tag)
		if m == "" {
			continue
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		return &n
	}
	return nil
}

// HasTeamTag reports whether any badge marks the card as a team.
func HasTeamTag(tags []string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToUpper(tag), "TEAM") {
			return true
		}
	}
	return false
}

// NormaliseText strips leading/trailing whitespace and collapses internal whitespace.
func NormaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
