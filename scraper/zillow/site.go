// Package zillow extracts agent records from the Zillow agent directory and
// agent profile pages. Both page types embed their data as JSON in the
// __NEXT_DATA__ script tag.
package zillow

import (
	"fmt"
	"strings"
	"time"

	"agentharvest/models"
	"agentharvest/utils"
)

const (
	baseURL      = "https://www.zillow.com"
	directoryURL = baseURL + "/professionals/real-estate-agent-reviews"
)

// Site implements scraper.Site for Zillow.
type Site struct {
	logger *utils.Logger
	now    func() time.Time
}

// New returns a Site. A nil logger discards dropped-card messages.
func New(logger *utils.Logger) *Site {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Site{logger: logger, now: time.Now}
}

// ListingURL builds the directory URL for one results page. Page 1 is the
// bare directory URL, like a browser landing on it.
func (s *Site) ListingURL(c models.SearchCriteria, page int) string {
	url := directoryURL + "/"
	if slug := c.Slug(); slug != "" {
		url += slug + "/"
	}
	if page > 1 {
		url += fmt.Sprintf("?page=%d", page)
	}
	return url
}

// ProfileURL returns the absolute profile URL of a.
func (s *Site) ProfileURL(a models.Agent) string {
	return absoluteURL(a.ProfileURL)
}

func absoluteURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return baseURL + u
}
