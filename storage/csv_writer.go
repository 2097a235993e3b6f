package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"agentharvest/models"
)

// ListSeparator joins list-valued fields into one cell.
const ListSeparator = ", "

// Columns is the fixed export schema, in order.
var Columns = []string{
	"agent_id", "profile_url", "name", "brokerage_name", "photo_url",
	"logo_url", "agent_badge", "is_team", "agent_type", "rating", "rating_text",
	"review_count", "sales_last_12_months", "total_sales", "price_range",
	"price_range_min", "price_range_max", "tags", "years_experience_min",
	"phone", "email", "website", "address", "city", "state", "zip_code",
	"title", "years_experience", "specialties", "languages", "certifications",
	"licenses", "biography", "brokerage_phone", "brokerage_address", "active_listings",
	"for_sale_listings", "for_rent_listings", "total_listings",
	"recent_sales_count", "reviews_count", "neighborhoods_served",
	"market_expertise",
}

// Row renders a in Columns order. Absent values are empty cells.
func Row(a models.Agent) []string {
	badge := ""
	if a.IsTopAgent {
		badge = "Top Agent"
	}
	agentType := ""
	if a.AgentType != nil {
		agentType = string(*a.AgentType)
	}
	return []string{
		a.AgentID,
		a.ProfileURL,
		a.Name,
		optString(a.BrokerageName),
		optString(a.PhotoURL),
		optString(a.LogoURL),
		badge,
		strconv.FormatBool(a.IsTeam),
		agentType,
		optFloat(a.Rating),
		optString(a.RatingText),
		strconv.Itoa(a.ReviewCount),
		optInt(a.SalesLast12Months),
		optInt(a.TotalSales),
		optString(a.PriceRange),
		optString(a.PriceRangeMin),
		optString(a.PriceRangeMax),
		strings.Join(a.Tags, ListSeparator),
		optInt(a.YearsExperienceMin),
		optString(a.Phone),
		optString(a.Email),
		optString(a.Website),
		optString(a.Address),
		optString(a.City),
		optString(a.State),
		optString(a.ZipCode),
		optString(a.Title),
		optInt(a.YearsExperience),
		strings.Join(a.Specialties, ListSeparator),
		strings.Join(a.Languages, ListSeparator),
		strings.Join(a.Certifications, ListSeparator),
		strings.Join(a.Licenses, ListSeparator),
		optString(a.Biography),
		optString(a.BrokeragePhone),
		optString(a.BrokerageAddress),
		optInt(a.ActiveListings),
		optInt(a.ForSaleListings),
		optInt(a.ForRentListings),
		optInt(a.TotalListings),
		strconv.Itoa(len(a.RecentSales)),
		strconv.Itoa(len(a.Reviews)),
		strings.Join(a.NeighborhoodsServed, ListSeparator),
		strings.Join(a.MarketExpertise, ListSeparator),
	}
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// CSVWriter exports agents to a CSV file. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one row per agent.
func (c *CSVWriter) Write(agents []models.Agent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range agents {
		if err := c.writer.Write(Row(a)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
