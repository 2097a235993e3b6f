// Package harvest is the single entry point that turns search criteria into
// a list of merged agent records.
package harvest

import (
	"context"

	"agentharvest/models"
	"agentharvest/scraper"
	"agentharvest/storage"
	"agentharvest/utils"
)

// Result is what a harvest returns to its caller.
type Result struct {
	Agents []models.Agent
	// SkippedSeen counts candidates dropped because an earlier run already
	// harvested them.
	SkippedSeen int
	Failures    []scraper.Failure
	Pages       int
	// TotalAvailable is the directory's own result count for the location.
	TotalAvailable int
	RunID          string
}

// Harvester wires a crawl scheduler to the seen-set history.
type Harvester struct {
	opts    scraper.Options
	history storage.History
	logger  *utils.Logger
}

// New returns a Harvester. history may be nil to disable cross-run dedup.
func New(opts scraper.Options, history storage.History) *Harvester {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Harvester{opts: opts, history: history, logger: logger}
}

// Run validates c, crawls, and on success records the returned agents in the
// history. Invalid criteria fail before any page is fetched.
//
// On a Blocked error or cancellation the partial result is returned with the
// error and the history is left untouched.
func (h *Harvester) Run(ctx context.Context, c models.SearchCriteria) (*Result, error) {
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	opts := h.opts
	if h.history != nil {
		opts.Seen = h.history
	}
	res, err := scraper.New(opts).Run(ctx, c)

	out := &Result{}
	if res != nil {
		out = &Result{
			Agents:         res.Agents,
			SkippedSeen:    res.SkippedSeen,
			Failures:       res.Failures,
			Pages:          res.Pages,
			TotalAvailable: res.TotalAvailable,
			RunID:          res.RunID,
		}
	}
	if err != nil {
		return out, err
	}

	if len(out.Agents) == 0 {
		h.logger.Warn("[harvest] no agents matched for %q", c.Slug())
	}

	if h.history != nil && len(out.Agents) > 0 {
		ids := make([]string, len(out.Agents))
		for i, a := range out.Agents {
			ids[i] = a.AgentID
		}
		h.history.AddMany(ids)
		if err := h.history.Save(); err != nil {
			h.logger.Error("[harvest] could not save history: %v", err)
		}
	}

	h.logger.Info("[harvest] %d agents harvested, %d skipped as already seen, %d profile failures",
		len(out.Agents), out.SkippedSeen, len(out.Failures))
	return out, nil
}
