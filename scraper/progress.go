package scraper

import "time"

// State names a step of the crawl state machine.
type State string

const (
	StateIdle           State = "idle"
	StatePagingListings State = "paging_listings"
	StateFetchPage      State = "fetch_page"
	StateParsePage      State = "parse_page"
	StatePageDelay      State = "page_delay"
	StateListingsDone   State = "listings_done"
	StateShuffleQueue   State = "shuffle_queue"
	StateProcessBatch   State = "process_batch"
	StateFetchProfile   State = "fetch_profile"
	StateDelay          State = "delay"
	StateBreak          State = "break"
	StateComplete       State = "complete"
)

// Stage identifies a progress event.
type Stage string

const (
	StagePageFetched       Stage = "page_fetched"
	StagePageDelay         Stage = "page_delay"
	StageListingsDone      Stage = "listings_done"
	StageProfileFetchStart Stage = "profile_fetch_start"
	StageBatchStart        Stage = "batch_start"
	StageFetchingAgent     Stage = "fetching_agent"
	StageAgentFetched      Stage = "agent_fetched"
	StageAgentFailed       Stage = "agent_failed"
	StageDelay             Stage = "delay"
	StageBreakStart        Stage = "break_start"
	StageBreakProgress     Stage = "break_progress"
	StageComplete          Stage = "complete"
)

// Event is one progress notification. Only the fields relevant to Stage are set.
type Event struct {
	RunID string
	Stage Stage
	State State
	At    time.Time

	Page         int
	PageResults  int
	Collected    int
	TotalResults int

	Batch     int
	BatchSize int
	Current   int
	Total     int
	AgentID   string
	AgentName string

	Delay     time.Duration
	Elapsed   time.Duration
	Remaining time.Duration
	ResumeAt  time.Time
	Estimated time.Duration

	WithPhone int
	WithEmail int
	Failed    int
	Err       error
}

// Observer receives progress events. It runs on the crawl goroutine and
// should return quickly.
type Observer func(Event)
