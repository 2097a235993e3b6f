package storage

import "agentharvest/models"

// AgentWriter is the interface any export backend must satisfy.
type AgentWriter interface {
	Write(agents []models.Agent) error
	Close() error
}

// History is the persisted seen-set of harvested agent IDs. It is owned by
// one run at a time.
type History interface {
	Contains(id string) bool
	// AddMany records ids and returns how many were new.
	AddMany(ids []string) int
	Count() int
	// Save persists everything added since the last Save.
	Save() error
	// Clear forgets every ID, including the persisted copy.
	Clear() error
	Close() error
}
