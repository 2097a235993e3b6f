package storage

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentharvest/models"
	"agentharvest/utils"
)

func sampleAgent() models.Agent {
	broker := models.AgentTypeBroker
	return models.Agent{
		AgentID:             "X1-abc",
		ProfileURL:          "/profile/jane/",
		Name:                "Jane Doe",
		BrokerageName:       models.Ptr("Pacific Realty"),
		LogoURL:             models.Ptr("https://photos.example.com/logo.png"),
		IsTopAgent:          true,
		AgentType:           &broker,
		Rating:              models.Ptr(4.9),
		ReviewCount:         47,
		SalesLast12Months:   models.Ptr(12),
		Tags:                []string{"TOP AGENT", "LICENSED 10+ YRS"},
		Languages:           []string{"English", "Spanish"},
		Phone:               models.Ptr("(619) 555-0100"),
		Licenses:            []string{"CA #01234567", "NV #S.0187"},
		RecentSales:         []models.Sale{{Address: "1 Ocean Ave"}},
		NeighborhoodsServed: []string{"La Jolla"},
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "agents.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write([]models.Agent{sampleAgent(), {AgentID: "X1-def", Name: "Bob", ProfileURL: "/p/bob"}}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Columns, records[0])

	row := map[string]string{}
	for i, col := range Columns {
		row[col] = records[1][i]
	}
	assert.Equal(t, "X1-abc", row["agent_id"])
	assert.Equal(t, "Top Agent", row["agent_badge"])
	assert.Equal(t, "broker", row["agent_type"])
	assert.Equal(t, "4.9", row["rating"])
	assert.Equal(t, "47", row["review_count"])
	assert.Equal(t, "TOP AGENT, LICENSED 10+ YRS", row["tags"])
	assert.Equal(t, "English, Spanish", row["languages"])
	assert.Equal(t, "1", row["recent_sales_count"])
	assert.Equal(t, "", row["email"], "absent values render empty")
	assert.Equal(t, "https://photos.example.com/logo.png", row["logo_url"])
	assert.Equal(t, "CA #01234567, NV #S.0187", row["licenses"])

	var ratingIdx int
	for i, col := range Columns {
		if col == "rating" {
			ratingIdx = i
		}
	}
	assert.Equal(t, "", records[2][ratingIdx], "unrated agent has an empty rating cell")
}

func TestColumnsCoverStoredFields(t *testing.T) {
	rendered := map[string]string{
		"is_top_agent": "agent_badge",
		"recent_sales": "recent_sales_count",
		"reviews":      "reviews_count",
	}
	for _, col := range agentColumns {
		want := col
		if alt, ok := rendered[col]; ok {
			want = alt
		}
		assert.Contains(t, Columns, want, "stored column %s has no CSV column", col)
	}
}

func TestRowMatchesColumns(t *testing.T) {
	assert.Len(t, Row(models.Agent{}), len(Columns))
}

func TestUpsertQuery(t *testing.T) {
	query, args, err := upsertQuery([]models.Agent{sampleAgent(), sampleAgent()})
	require.NoError(t, err)
	assert.Len(t, args, 2*len(agentColumns))
	assert.Contains(t, query, "ON CONFLICT (agent_id) DO UPDATE SET")
	assert.Contains(t, query, "$84)")
	assert.NotContains(t, query, "$85")
	assert.NotContains(t, query, "agent_id = EXCLUDED.agent_id")
}

func TestFileHistoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	h := OpenFileHistory(path, utils.NewNopLogger())
	assert.Equal(t, 0, h.Count())
	assert.Equal(t, 2, h.AddMany([]string{"a", "b", "a"}))
	assert.Equal(t, 1, h.AddMany([]string{"b", "c"}))
	require.NoError(t, h.Save())

	reloaded := OpenFileHistory(path, utils.NewNopLogger())
	assert.Equal(t, 3, reloaded.Count())
	assert.True(t, reloaded.Contains("c"))
	assert.False(t, reloaded.Contains("z"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"total_count": 3`))
}

func TestFileHistoryReadsZonelessTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	legacy := `{"agent_ids": ["x", "y"], "last_updated": "2025-01-02T10:11:12.123456", "total_count": 2}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	h := OpenFileHistory(path, utils.NewNopLogger())
	assert.Equal(t, 2, h.Count())
}

func TestFileHistoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	h := OpenFileHistory(path, utils.NewNopLogger())
	assert.Equal(t, 0, h.Count())
}

func TestFileHistoryClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	h := OpenFileHistory(path, utils.NewNopLogger())
	h.AddMany([]string{"a"})
	require.NoError(t, h.Save())

	require.NoError(t, h.Clear())
	assert.Equal(t, 0, h.Count())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, h.Clear(), "clearing a missing file is not an error")
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	up, _, err := src.ReadUp(next)
	require.NoError(t, err)
	defer up.Close()
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	assert.Contains(t, string(body), "harvested_agent_ids")

	schema, err := migrationFiles.ReadFile("migrations/000001_create_agents.up.sql")
	require.NoError(t, err)
	for _, col := range agentColumns {
		assert.Contains(t, string(schema), col, "agents table is missing a written column")
	}
}
