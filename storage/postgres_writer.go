package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"agentharvest/models"
)

const upsertBatchSize = 50

// agentColumns are the agents table columns written by Write, in order.
var agentColumns = []string{
	"agent_id", "profile_url", "name", "brokerage_name", "photo_url", "logo_url",
	"is_top_agent", "is_team", "agent_type", "rating", "review_count",
	"sales_last_12_months", "total_sales", "price_range", "price_range_min",
	"price_range_max", "tags", "years_experience_min", "phone", "email",
	"website", "address", "city", "state", "zip_code", "title",
	"years_experience", "specialties", "languages", "certifications",
	"licenses", "biography", "brokerage_phone", "brokerage_address",
	"active_listings", "for_sale_listings", "for_rent_listings",
	"total_listings", "neighborhoods_served", "market_expertise",
	"recent_sales", "reviews",
}

// PostgresWriter upserts harvested agents into PostgreSQL.
type PostgresWriter struct {
	db *sqlx.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := openPostgres(dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresWriter{db: db}, nil
}

// Write upserts agents in batches keyed on agent_id; a re-harvested agent
// replaces its earlier row.
func (pw *PostgresWriter) Write(agents []models.Agent) error {
	for i := 0; i < len(agents); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(agents))
		query, args, err := upsertQuery(agents[i:end])
		if err != nil {
			return err
		}
		if _, err := pw.db.Exec(query, args...); err != nil {
			return fmt.Errorf("postgres: upsert agents: %w", err)
		}
	}
	return nil
}

func upsertQuery(batch []models.Agent) (string, []any, error) {
	n := len(agentColumns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*n)

	for idx, a := range batch {
		placeholders := make([]string, n)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", idx*n+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		args, err := agentArgs(a)
		if err != nil {
			return "", nil, err
		}
		valueArgs = append(valueArgs, args...)
	}

	updates := make([]string, 0, n)
	for _, col := range agentColumns[1:] {
		updates = append(updates, col+" = EXCLUDED."+col)
	}
	updates = append(updates, "updated_at = NOW()")

	query := fmt.Sprintf(`
		INSERT INTO agents (%s)
		VALUES %s
		ON CONFLICT (agent_id) DO UPDATE SET %s
	`, strings.Join(agentColumns, ", "), strings.Join(valueStrings, ","), strings.Join(updates, ", "))
	return query, valueArgs, nil
}

func agentArgs(a models.Agent) ([]any, error) {
	sales, err := json.Marshal(a.RecentSales)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode sales for %s: %w", a.AgentID, err)
	}
	reviews, err := json.Marshal(a.Reviews)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode reviews for %s: %w", a.AgentID, err)
	}
	var agentType *string
	if a.AgentType != nil {
		agentType = models.Ptr(string(*a.AgentType))
	}
	return []any{
		a.AgentID, a.ProfileURL, a.Name, a.BrokerageName, a.PhotoURL, a.LogoURL,
		a.IsTopAgent, a.IsTeam, agentType, a.Rating, a.ReviewCount,
		a.SalesLast12Months, a.TotalSales, a.PriceRange, a.PriceRangeMin,
		a.PriceRangeMax, pq.Array(a.Tags), a.YearsExperienceMin, a.Phone, a.Email,
		a.Website, a.Address, a.City, a.State, a.ZipCode, a.Title,
		a.YearsExperience, pq.Array(a.Specialties), pq.Array(a.Languages), pq.Array(a.Certifications),
		pq.Array(a.Licenses), a.Biography, a.BrokeragePhone, a.BrokerageAddress,
		a.ActiveListings, a.ForSaleListings, a.ForRentListings,
		a.TotalListings, pq.Array(a.NeighborhoodsServed), pq.Array(a.MarketExpertise),
		string(sales), string(reviews),
	}, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// Count returns the number of stored agents.
func (pw *PostgresWriter) Count() (int, error) {
	var n int
	if err := pw.db.Get(&n, `SELECT COUNT(*) FROM agents`); err != nil {
		return 0, fmt.Errorf("postgres: count agents: %w", err)
	}
	return n, nil
}
