package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"agentharvest/config"
	"agentharvest/fetcher"
	"agentharvest/harvest"
	"agentharvest/models"
	"agentharvest/scraper"
	"agentharvest/scraper/zillow"
	"agentharvest/services"
	"agentharvest/storage"
)

type searchFlags struct {
	state, city, zip, slug string

	ratingMin      float64
	reviewCountMin int
	salesMin       int
	salesMax       int
	yearsMin       int
	specialties    []string
	languages      []string
	topAgentOnly   bool
	excludeTeams   bool
	agentType      string

	limit         int
	offset        int
	fetchProfiles bool
	sortBy        string
	ascending     bool

	noHistory bool
	insights  bool
	output    string
}

var search searchFlags

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Harvest agents for a location and export them to CSV.",
	Example: `  agentharvest search --city "San Diego" --state CA --limit 50
  agentharvest search --zip 89101 --rating-min 4.5 --profiles --agent-type broker`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := search.criteria(cmd)
		if err != nil {
			return err
		}
		return runSearch(cmd.Context(), c)
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&search.state, "state", "", "state name or abbreviation")
	f.StringVar(&search.city, "city", "", "city name")
	f.StringVar(&search.zip, "zip", "", "ZIP code")
	f.StringVar(&search.slug, "slug", "", "precomputed directory location slug, e.g. san-diego-ca")

	f.Float64Var(&search.ratingMin, "rating-min", 0, "minimum rating (0-5)")
	f.IntVar(&search.reviewCountMin, "reviews-min", 0, "minimum review count")
	f.IntVar(&search.salesMin, "sales-min", 0, "minimum sales in the last 12 months")
	f.IntVar(&search.salesMax, "sales-max", 0, "maximum sales in the last 12 months")
	f.IntVar(&search.yearsMin, "years-min", 0, "minimum years of experience")
	f.StringSliceVar(&search.specialties, "specialty", nil, "specialty substring, repeatable (needs profiles)")
	f.StringSliceVar(&search.languages, "language", nil, "language substring, repeatable (needs profiles)")
	f.BoolVar(&search.topAgentOnly, "top-only", false, "only agents marked as top agents")
	f.BoolVar(&search.excludeTeams, "exclude-teams", false, "drop team listings")
	f.StringVar(&search.agentType, "agent-type", "", "solo, team or broker (needs profiles)")

	f.IntVar(&search.limit, "limit", models.DefaultLimit, "maximum agents to return (1-1000)")
	f.IntVar(&search.offset, "offset", 0, "agents to skip after sorting")
	f.BoolVar(&search.fetchProfiles, "profiles", false, "fetch every agent's profile page for contact details")
	f.StringVar(&search.sortBy, "sort", services.SortByRating, "sort key: rating, review_count, sales_last_12_months, total_sales, name")
	f.BoolVar(&search.ascending, "asc", false, "sort ascending")

	f.BoolVar(&search.noHistory, "no-history", false, "ignore and do not update the harvest history")
	f.BoolVar(&search.insights, "insights", true, "print a summary report")
	f.StringVarP(&search.output, "output", "o", "", "CSV output path (default $CSV_OUTPUT_PATH)")
}

// criteria maps flags to search criteria. Numeric filters are only set when
// their flag was given, so 0 stays distinguishable from "no filter".
func (s *searchFlags) criteria(cmd *cobra.Command) (models.SearchCriteria, error) {
	changed := cmd.Flags().Changed
	c := models.SearchCriteria{
		State:         s.state,
		City:          s.city,
		ZipCode:       s.zip,
		LocationSlug:  s.slug,
		Specialties:   s.specialties,
		Languages:     s.languages,
		TopAgentOnly:  s.topAgentOnly,
		ExcludeTeams:  s.excludeTeams,
		Limit:         s.limit,
		Offset:        s.offset,
		FetchProfiles: s.fetchProfiles,
		SortBy:        s.sortBy,
		SortAscending: s.ascending,
	}
	if changed("rating-min") {
		c.RatingMin = models.Ptr(s.ratingMin)
	}
	if changed("reviews-min") {
		c.ReviewCountMin = models.Ptr(s.reviewCountMin)
	}
	if changed("sales-min") {
		c.SalesMin = models.Ptr(s.salesMin)
	}
	if changed("sales-max") {
		c.SalesMax = models.Ptr(s.salesMax)
	}
	if changed("years-min") {
		c.YearsExperienceMin = models.Ptr(s.yearsMin)
	}
	if s.agentType != "" {
		t, ok := models.ParseAgentType(s.agentType)
		if !ok {
			return c, models.NewError(models.KindInvalidCriteria, "parse flags",
				fmt.Errorf("unknown agent type %q, want solo, team or broker", s.agentType))
		}
		c.AgentType = &t
	}
	return c, nil
}

func runSearch(parent context.Context, c models.SearchCriteria) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Agent harvest starting: %q ===", c.Slug())

	pacing, err := cfg.Pacing()
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	pageFetcher, closeFetcher, err := newFetcher(rng)
	if err != nil {
		return err
	}
	defer closeFetcher()

	var history storage.History
	if !search.noHistory {
		history, err = openHistory()
		if err != nil {
			return err
		}
		defer history.Close()
	}

	h := harvest.New(scraper.Options{
		Site:     zillow.New(logger),
		Fetcher:  pageFetcher,
		Pacing:   pacing,
		Logger:   logger,
		Observer: logProgress,
		Rand:     rng,
	}, history)

	res, runErr := h.Run(ctx, c)
	if runErr != nil && (res == nil || len(res.Agents) == 0) {
		return runErr
	}
	if runErr != nil {
		logger.Error("Harvest stopped early: %v. Exporting %d agents gathered so far.", runErr, len(res.Agents))
	}

	if len(res.Agents) == 0 {
		logger.Warn("No agents found for %q. Loosen the filters, or pass --no-history if every agent was harvested before.", c.Slug())
		return nil
	}

	if err := export(res.Agents); err != nil {
		return err
	}

	if search.insights {
		svc := services.NewInsightService(logger)
		svc.Print(svc.Generate(res.Agents))
	}
	return runErr
}

func newFetcher(rng *rand.Rand) (fetcher.PageFetcher, func(), error) {
	switch cfg.Fetcher {
	case config.FetcherChrome:
		f := fetcher.NewChromeFetcher(fetcher.ChromeOptions{
			ChromeBin: cfg.ChromeBin,
			Proxy:     cfg.Proxy,
			Timeout:   cfg.Timeout,
			Logger:    logger,
		})
		return f, f.Close, nil
	case config.FetcherHTTP:
		f, err := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			Timeout:          cfg.Timeout,
			Proxy:            cfg.Proxy,
			DesktopAgents:    cfg.DesktopAgents,
			CloudflareBypass: cfg.CloudflareBypass,
			Rand:             rng,
			Logger:           logger,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("[fetcher] session user agent: %s", f.UserAgent())
		return f, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown fetcher %q, want %s or %s", cfg.Fetcher, config.FetcherHTTP, config.FetcherChrome)
}

func export(agents []models.Agent) error {
	path := search.output
	if path == "" {
		path = cfg.CSVOutputPath
	}
	csvWriter, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	defer csvWriter.Close()
	if err := csvWriter.Write(agents); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	logger.Info("%d agents saved to %s", len(agents), path)

	if !cfg.PostgresExport {
		return nil
	}
	pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		return err
	}
	defer pgWriter.Close()
	if err := pgWriter.Write(agents); err != nil {
		return err
	}
	if n, err := pgWriter.Count(); err == nil {
		logger.Info("Agents stored in PostgreSQL (table: agents, %d rows)", n)
	}
	return nil
}

func logProgress(e scraper.Event) {
	switch e.Stage {
	case scraper.StageProfileFetchStart:
		logger.Info("Fetching %d profiles, estimated %s", e.Total, e.Estimated.Round(time.Minute))
	case scraper.StageAgentFetched:
		logger.Info("[%d/%d] %s", e.Current, e.Total, e.AgentName)
	case scraper.StageBreakProgress:
		logger.Debug("Break: %s remaining (resume at %s)", e.Remaining.Round(time.Second), e.ResumeAt.Format("15:04:05"))
	case scraper.StageComplete:
		logger.Info("Profiles done: %d with phone, %d with email, %d failed", e.WithPhone, e.WithEmail, e.Failed)
	}
}
