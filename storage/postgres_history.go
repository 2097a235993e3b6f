package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"agentharvest/utils"
)

// PostgresHistory keeps the seen-set in the harvested_agent_ids table. IDs
// are loaded once at open; new IDs are buffered until Save.
type PostgresHistory struct {
	db      *sqlx.DB
	ids     *utils.IDSet
	pending []string
	logger  *utils.Logger
}

// OpenPostgresHistory connects, migrates the schema and loads every stored ID.
func OpenPostgresHistory(dsn string, logger *utils.Logger) (*PostgresHistory, error) {
	db, err := openPostgres(dsn)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	h := &PostgresHistory{db: db, ids: utils.NewIDSet(), logger: logger}
	if err := h.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return h, nil
}

func (h *PostgresHistory) load() error {
	var ids []string
	if err := h.db.Select(&ids, `SELECT agent_id FROM harvested_agent_ids`); err != nil {
		return fmt.Errorf("postgres history: load: %w", err)
	}
	for _, id := range ids {
		h.ids.Add(id)
	}
	h.logger.Info("[history] loaded %d previously harvested agent IDs from postgres", h.ids.Size())
	return nil
}

func (h *PostgresHistory) Contains(id string) bool {
	return h.ids.Contains(id)
}

func (h *PostgresHistory) AddMany(ids []string) int {
	added := 0
	for _, id := range ids {
		if h.ids.Add(id) {
			h.pending = append(h.pending, id)
			added++
		}
	}
	return added
}

func (h *PostgresHistory) Count() int {
	return h.ids.Size()
}

// Save inserts the buffered IDs in one statement.
func (h *PostgresHistory) Save() error {
	if len(h.pending) == 0 {
		return nil
	}
	_, err := h.db.Exec(`
		INSERT INTO harvested_agent_ids (agent_id)
		SELECT unnest($1::text[])
		ON CONFLICT (agent_id) DO NOTHING
	`, pq.Array(h.pending))
	if err != nil {
		return fmt.Errorf("postgres history: save: %w", err)
	}
	h.logger.Info("[history] saved %d new agent IDs to postgres", len(h.pending))
	h.pending = nil
	return nil
}

func (h *PostgresHistory) Clear() error {
	if _, err := h.db.Exec(`DELETE FROM harvested_agent_ids`); err != nil {
		return fmt.Errorf("postgres history: clear: %w", err)
	}
	h.ids.Reset()
	h.pending = nil
	h.logger.Info("[history] cleared all harvest history")
	return nil
}

func (h *PostgresHistory) Close() error {
	return h.db.Close()
}
