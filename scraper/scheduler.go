// Package scraper drives a polite crawl of an agent directory: sequential
// listing pages first, then profile pages in shuffled batches with randomized
// delays and breaks.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"agentharvest/fetcher"
	"agentharvest/models"
	"agentharvest/services"
	"agentharvest/utils"
)

// Site knows the URLs and page formats of one directory.
type Site interface {
	ListingURL(c models.SearchCriteria, page int) string
	ParseListing(html string) ([]models.Agent, models.PageMeta, error)
	ProfileURL(a models.Agent) string
	// ParseProfile returns an overlay holding only profile-page fields.
	ParseProfile(html string, a models.Agent) (models.Agent, error)
}

// SeenSet answers whether an agent was harvested by an earlier run.
type SeenSet interface {
	Contains(id string) bool
}

// Failure records a profile that could not be fetched or parsed.
type Failure struct {
	AgentID string
	Err     error
}

// Result is the outcome of one run.
type Result struct {
	RunID          string
	Agents         []models.Agent
	SkippedSeen    int
	Failures       []Failure
	Pages          int
	TotalAvailable int
}

// Options wires a Scheduler.
type Options struct {
	Site     Site
	Fetcher  fetcher.PageFetcher
	Pacing   Pacing
	Logger   *utils.Logger
	Observer Observer
	Seen     SeenSet
	Rand     *rand.Rand
	Sleep    SleepFunc
	Now      func() time.Time
}

// Scheduler runs crawls. A Scheduler is single-use per run at a time: its
// fetcher is one browsing session.
type Scheduler struct {
	site     Site
	fetcher  fetcher.PageFetcher
	pacing   Pacing
	logger   *utils.Logger
	observer Observer
	seen     SeenSet
	rng      *rand.Rand
	sleep    SleepFunc
	now      func() time.Time
	retry    *utils.RetryConfig

	runID string
	state State
}

// New creates a Scheduler. Site and Fetcher are required; everything else
// has a default.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		site:     opts.Site,
		fetcher:  opts.Fetcher,
		pacing:   opts.Pacing,
		logger:   opts.Logger,
		observer: opts.Observer,
		seen:     opts.Seen,
		rng:      opts.Rand,
		sleep:    opts.Sleep,
		now:      opts.Now,
		state:    StateIdle,
	}
	if s.pacing == (Pacing{}) {
		s.pacing = DefaultPacing()
	}
	if s.logger == nil {
		s.logger = utils.NewNopLogger()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.sleep == nil {
		s.sleep = Sleep
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.retry = &utils.RetryConfig{
		MaxAttempts: s.pacing.MaxRetries,
		BaseDelay:   s.pacing.RetryDelay,
		Logger:      s.logger,
		Retryable: func(err error) bool {
			return models.IsKind(err, models.KindNetworkError)
		},
	}
	return s
}

// needsProfiles reports whether some filter reads profile-tier fields and so
// can only be applied after profiles are fetched.
func needsProfiles(c models.SearchCriteria) bool {
	return c.AgentType != nil || len(c.Specialties) > 0 || len(c.Languages) > 0
}

// Run executes one crawl for c.
//
// On a Blocked error or cancellation Run returns the error together with
// whatever was gathered so far; unfetched profiles keep their summary data.
// Profile-only filters and the limit still apply to that partial result.
func (s *Scheduler) Run(ctx context.Context, c models.SearchCriteria) (*Result, error) {
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s.runID = uuid.NewString()
	res := &Result{RunID: s.runID}

	deferred := needsProfiles(c)
	if deferred && !c.FetchProfiles {
		s.logger.Warn("[scraper] profile-only filters set, enabling profile fetching")
		c.FetchProfiles = true
	}
	window := c.Limit
	if deferred {
		window = c.Limit * max(s.pacing.ProfileFilterMultiplier, 1)
	}

	all, err := s.collectListings(ctx, c, c.Offset+window, res)
	if err != nil {
		return res, err
	}

	// Summary-tier filters now; profile-tier filters after the profile phase.
	summaryCriteria := c
	summaryCriteria.AgentType = nil
	summaryCriteria.Specialties = nil
	summaryCriteria.Languages = nil

	candidates := services.Dedup(services.Filter(all, summaryCriteria))
	s.logger.Info("[scraper] %d agents after filters and dedup (from %d)", len(candidates), len(all))

	if s.seen != nil {
		fresh := candidates[:0:0]
		for _, a := range candidates {
			if s.seen.Contains(a.AgentID) {
				res.SkippedSeen++
				continue
			}
			fresh = append(fresh, a)
		}
		if res.SkippedSeen > 0 {
			s.logger.Info("[scraper] skipped %d previously harvested agents", res.SkippedSeen)
		}
		candidates = fresh
	}

	sorted := services.Sort(candidates, c.SortBy, !c.SortAscending)
	selected := services.Paginate(sorted, window, c.Offset)

	if c.FetchProfiles && len(selected) > 0 {
		selected, err = s.fetchProfiles(ctx, selected, res)
	}

	// A partial profile phase still goes through the profile filters: agents
	// whose profile was never fetched cannot match them and are dropped.
	if deferred {
		before := len(selected)
		profileCriteria := models.SearchCriteria{
			AgentType:   c.AgentType,
			Specialties: c.Specialties,
			Languages:   c.Languages,
		}
		selected = services.Paginate(services.Filter(selected, profileCriteria), c.Limit, 0)
		s.logger.Info("[scraper] profile filters: %d → %d agents", before, len(selected))
	}

	res.Agents = selected
	if err != nil {
		return res, err
	}
	s.transition(StateIdle)
	return res, nil
}

func (s *Scheduler) transition(to State) {
	if s.state != to {
		s.logger.Debug("[scraper] state %s → %s", s.state, to)
	}
	s.state = to
}

func (s *Scheduler) emit(ev Event) {
	if s.observer == nil {
		return
	}
	ev.RunID = s.runID
	ev.State = s.state
	ev.At = s.now()
	s.observer(ev)
}

// collectListings walks listing pages strictly in order until target agents
// are collected, a page comes back empty, every available result is covered,
// or the page ceiling is hit.
func (s *Scheduler) collectListings(ctx context.Context, c models.SearchCriteria, target int, res *Result) ([]models.Agent, error) {
	var (
		all  []models.Agent
		page = 1
		html string
	)

	s.transition(StatePagingListings)
	s.logger.Info("[scraper] collecting up to %d agents for %q", target, c.Slug())

	s.transition(StateFetchPage)
	for s.state != StateListingsDone {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		switch s.state {
		case StateFetchPage:
			url := s.site.ListingURL(c, page)
			var body string
			err := s.retry.Do(ctx, fmt.Sprintf("listing-page-%d", page), func() error {
				var ferr error
				body, ferr = s.fetcher.Fetch(ctx, url)
				return ferr
			})
			if err != nil {
				if stop, ferr := s.pageFailed(page, err); stop {
					return all, ferr
				}
				s.transition(StateListingsDone)
				continue
			}
			html = body
			s.transition(StateParsePage)

		case StateParsePage:
			agents, meta, err := s.site.ParseListing(html)
			if err != nil {
				if stop, ferr := s.pageFailed(page, err); stop {
					return all, ferr
				}
				s.transition(StateListingsDone)
				continue
			}
			res.Pages = page
			if meta.TotalResults > 0 {
				res.TotalAvailable = meta.TotalResults
			}
			all = append(all, agents...)

			s.logger.Info("[scraper] page %d: %d agents (collected %d, available %d)",
				page, len(agents), len(all), meta.TotalResults)
			s.emit(Event{
				Stage:        StagePageFetched,
				Page:         page,
				PageResults:  len(agents),
				Collected:    len(all),
				TotalResults: meta.TotalResults,
			})

			switch {
			case len(agents) == 0:
				s.logger.Warn("[scraper] page %d returned 0 agents, stopping", page)
				s.transition(StateListingsDone)
			case len(all) >= target:
				s.logger.Info("[scraper] reached target of %d agents", target)
				s.transition(StateListingsDone)
			case meta.TotalResults > 0 && len(all) >= meta.TotalResults:
				s.logger.Info("[scraper] fetched all %d available agents", meta.TotalResults)
				s.transition(StateListingsDone)
			case page >= s.pacing.MaxPages:
				s.logger.Warn("[scraper] page ceiling %d reached, stopping", s.pacing.MaxPages)
				s.transition(StateListingsDone)
			default:
				s.transition(StatePageDelay)
			}

		case StatePageDelay:
			d := s.pacing.PageDelay.Draw(s.rng)
			s.emit(Event{Stage: StagePageDelay, Page: page, Delay: d})
			if err := sleepChunked(ctx, s.sleep, d, s.pacing.SleepChunk, nil); err != nil {
				return all, err
			}
			page++
			s.transition(StateFetchPage)
		}
	}

	s.emit(Event{Stage: StageListingsDone, Page: res.Pages, Collected: len(all), TotalResults: res.TotalAvailable})
	return all, nil
}

// pageFailed applies the page error policy. Blocked always ends the run, as
// does any failure on the first page. Later pages just end pagination.
func (s *Scheduler) pageFailed(page int, err error) (stop bool, ret error) {
	if models.IsKind(err, models.KindBlocked) {
		s.logger.Error("[scraper] blocked on listing page %d: %v", page, err)
		return true, err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true, err
	}
	if page == 1 {
		s.logger.Error("[scraper] first listing page failed: %v", err)
		return true, fmt.Errorf("listing page 1: %w", err)
	}
	s.logger.Warn("[scraper] listing page %d failed, keeping %d earlier pages: %v", page, page-1, err)
	return false, nil
}

// fetchProfiles fetches the profile page of every agent in shuffled order,
// merges each overlay, and returns the agents in their original order.
func (s *Scheduler) fetchProfiles(ctx context.Context, agents []models.Agent, res *Result) ([]models.Agent, error) {
	total := len(agents)
	merged := make(map[string]models.Agent, total)

	restore := func() []models.Agent {
		out := make([]models.Agent, len(agents))
		for i, a := range agents {
			if m, ok := merged[a.AgentID]; ok {
				out[i] = m
			} else {
				out[i] = a
			}
		}
		return out
	}

	s.transition(StateShuffleQueue)
	queue := make([]models.Agent, total)
	copy(queue, agents)
	s.rng.Shuffle(total, func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })

	estimate := s.pacing.EstimateProfilePhase(total)
	s.logger.Info("[scraper] fetching %d profiles in random order, estimated %s", total, estimate.Round(time.Second))
	s.emit(Event{Stage: StageProfileFetchStart, Total: total, Estimated: estimate})

	var (
		i        int
		batch    int
		batchEnd int
	)

	s.transition(StateProcessBatch)
	for s.state != StateComplete {
		if err := ctx.Err(); err != nil {
			return restore(), err
		}

		switch s.state {
		case StateProcessBatch:
			if i >= total {
				s.transition(StateComplete)
				continue
			}
			batch++
			size := s.pacing.BatchSize.Draw(s.rng, total-i)
			batchEnd = i + size
			s.logger.Info("[scraper] batch %d: agents %d-%d of %d", batch, i+1, batchEnd, total)
			s.emit(Event{Stage: StageBatchStart, Batch: batch, BatchSize: size, Current: i, Total: total})
			s.transition(StateFetchProfile)

		case StateFetchProfile:
			a := queue[i]
			s.emit(Event{Stage: StageFetchingAgent, Batch: batch, Current: i + 1, Total: total, AgentID: a.AgentID, AgentName: a.Name})

			overlay, err := s.fetchProfile(ctx, a)
			i++
			switch {
			case err == nil:
				merged[a.AgentID] = services.Merge(a, overlay)
				s.emit(Event{Stage: StageAgentFetched, Batch: batch, Current: i, Total: total, AgentID: a.AgentID, AgentName: a.Name})
			case models.IsKind(err, models.KindBlocked):
				s.logger.Error("[scraper] blocked while fetching profile of %s: %v", a.Name, err)
				return restore(), err
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				return restore(), err
			default:
				failure := models.NewError(models.KindPerRecordFetchFailure, "profile "+a.AgentID, err)
				s.logger.Warn("[scraper] profile of %s failed, keeping summary data: %v", a.Name, err)
				res.Failures = append(res.Failures, Failure{AgentID: a.AgentID, Err: failure})
				s.emit(Event{Stage: StageAgentFailed, Batch: batch, Current: i, Total: total, AgentID: a.AgentID, AgentName: a.Name, Err: failure})
			}

			switch {
			case i >= total:
				s.transition(StateComplete)
			case i >= batchEnd:
				s.transition(StateBreak)
			default:
				s.transition(StateDelay)
			}

		case StateDelay:
			d := s.pacing.RequestDelay.Draw(s.rng)
			s.emit(Event{Stage: StageDelay, Batch: batch, Current: i, Total: total, Delay: d})
			if err := sleepChunked(ctx, s.sleep, d, s.pacing.SleepChunk, nil); err != nil {
				return restore(), err
			}
			s.transition(StateFetchProfile)

		case StateBreak:
			d := s.pacing.BatchBreak.Draw(s.rng)
			resumeAt := s.now().Add(d)
			s.logger.Info("[scraper] batch %d done, breaking for %s (resume at %s, %d remaining)",
				batch, d.Round(time.Second), resumeAt.Format("15:04:05"), total-i)
			s.emit(Event{Stage: StageBreakStart, Batch: batch, Current: i, Total: total, Delay: d, ResumeAt: resumeAt})
			err := sleepChunked(ctx, s.sleep, d, s.pacing.SleepChunk, func(elapsed, remaining time.Duration) {
				s.emit(Event{
					Stage:     StageBreakProgress,
					Batch:     batch,
					Current:   i,
					Total:     total,
					Delay:     d,
					Elapsed:   elapsed,
					Remaining: remaining,
					ResumeAt:  resumeAt,
				})
			})
			if err != nil {
				return restore(), err
			}
			s.transition(StateProcessBatch)
		}
	}

	out := restore()
	var withPhone, withEmail int
	for _, a := range out {
		if a.Phone != nil {
			withPhone++
		}
		if a.Email != nil {
			withEmail++
		}
	}
	s.logger.Info("[scraper] profiles complete: %d fetched, %d failed, %d with phone, %d with email",
		total-len(res.Failures), len(res.Failures), withPhone, withEmail)
	s.emit(Event{
		Stage:     StageComplete,
		Total:     total,
		Failed:    len(res.Failures),
		WithPhone: withPhone,
		WithEmail: withEmail,
	})
	return out, nil
}

func (s *Scheduler) fetchProfile(ctx context.Context, a models.Agent) (models.Agent, error) {
	url := s.site.ProfileURL(a)
	if url == "" {
		return models.Agent{}, fmt.Errorf("no profile URL for %s", a.Name)
	}
	html, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return models.Agent{}, err
	}
	return s.site.ParseProfile(html, a)
}
