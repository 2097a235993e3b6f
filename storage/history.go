package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"agentharvest/utils"
)

// DefaultHistoryFile is the history location when none is configured.
const DefaultHistoryFile = ".agentharvest_history.json"

type historyFile struct {
	AgentIDs []string `json:"agent_ids"`
	// LastUpdated stays a string so files written by other tools with
	// zone-less timestamps still load.
	LastUpdated string `json:"last_updated"`
	TotalCount  int    `json:"total_count"`
}

// FileHistory keeps the seen-set in a JSON file.
type FileHistory struct {
	path   string
	ids    *utils.IDSet
	logger *utils.Logger
	now    func() time.Time
}

// DefaultHistoryPath returns DefaultHistoryFile inside the user's home
// directory, or the working directory when home is unknown.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultHistoryFile
	}
	return filepath.Join(home, DefaultHistoryFile)
}

// OpenFileHistory loads the history at path. A missing file is an empty
// history; an unreadable one is logged and treated as empty.
func OpenFileHistory(path string, logger *utils.Logger) *FileHistory {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	h := &FileHistory{path: path, ids: utils.NewIDSet(), logger: logger, now: time.Now}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("[history] no previous history at %s (first run)", path)
		return h
	case err != nil:
		logger.Warn("[history] could not read %s: %v", path, err)
		return h
	}

	var f historyFile
	if err := json.Unmarshal(data, &f); err != nil {
		logger.Warn("[history] could not parse %s, starting empty: %v", path, err)
		return h
	}
	h.ids.AddMany(f.AgentIDs)
	logger.Info("[history] loaded %d previously harvested agent IDs", h.ids.Size())
	return h
}

// Path returns the history file location.
func (h *FileHistory) Path() string {
	return h.path
}

func (h *FileHistory) Contains(id string) bool {
	return h.ids.Contains(id)
}

func (h *FileHistory) AddMany(ids []string) int {
	added := h.ids.AddMany(ids)
	if added > 0 {
		h.logger.Info("[history] added %d new agent IDs", added)
	}
	return added
}

func (h *FileHistory) Count() int {
	return h.ids.Size()
}

// Save writes the file through a temporary sibling so a crash never leaves
// a truncated history behind.
func (h *FileHistory) Save() error {
	ids := h.ids.Slice()
	sort.Strings(ids)
	data, err := json.MarshalIndent(historyFile{
		AgentIDs:    ids,
		LastUpdated: h.now().Format(time.RFC3339),
		TotalCount:  len(ids),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}

	if dir := filepath.Dir(h.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("history: create dir: %w", err)
		}
	}
	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("history: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, h.path); err != nil {
		return fmt.Errorf("history: replace %q: %w", h.path, err)
	}
	h.logger.Info("[history] saved %d agent IDs to %s", len(ids), h.path)
	return nil
}

func (h *FileHistory) Clear() error {
	h.ids.Reset()
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("history: remove %q: %w", h.path, err)
	}
	h.logger.Info("[history] cleared all harvest history")
	return nil
}

func (h *FileHistory) Close() error {
	return nil
}
