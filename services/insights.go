package services

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"agentharvest/models"
	"agentharvest/utils"
)

const topRatedCount = 5

type InsightService struct {
	logger *utils.Logger
	out    io.Writer
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, out: os.Stdout}
}

// WithOutput redirects Print, mainly for tests.
func (s *InsightService) WithOutput(w io.Writer) *InsightService {
	s.out = w
	return s
}

func (s *InsightService) Generate(agents []models.Agent) *models.InsightReport {
	report := &models.InsightReport{
		AgentsByBrokerage: make(map[string]int),
		AgentsByType:      make(map[string]int),
	}

	if len(agents) == 0 {
		return report
	}

	report.TotalAgents = len(agents)

	var (
		rated       []*models.Agent
		ratingSum   float64
		salesSum    int
		salesCount  int
		mostReviews = -1
	)

	for i := range agents {
		a := &agents[i]
		if a.IsTopAgent {
			report.TopAgents++
		}
		if a.IsTeam {
			report.Teams++
		}
		if a.Phone != nil {
			report.WithPhone++
		}
		if a.Email != nil {
			report.WithEmail++
		}
		if a.HasProfile() {
			report.WithProfile++
		}
		if a.Rating != nil {
			rated = append(rated, a)
			ratingSum += *a.Rating
		}
		if a.SalesLast12Months != nil {
			salesSum += *a.SalesLast12Months
			salesCount++
		}
		if a.ReviewCount > mostReviews {
			mostReviews = a.ReviewCount
			report.MostReviewed = a
		}
		if a.BrokerageName != nil && *a.BrokerageName != "" {
			report.AgentsByBrokerage[*a.BrokerageName]++
		}
		if a.AgentType != nil {
			report.AgentsByType[string(*a.AgentType)]++
		}
	}

	if len(rated) > 0 {
		report.AverageRating = round2(ratingSum / float64(len(rated)))
	}
	if salesCount > 0 {
		report.AverageSales = round2(float64(salesSum) / float64(salesCount))
	}

	sort.SliceStable(rated, func(i, j int) bool {
		if *rated[i].Rating != *rated[j].Rating {
			return *rated[i].Rating > *rated[j].Rating
		}
		return rated[i].ReviewCount > rated[j].ReviewCount
	})
	if len(rated) > topRatedCount {
		rated = rated[:topRatedCount]
	}
	report.TopRated = rated

	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	overview := s.newTable("Agent Harvest Insights")
	overview.AppendRows([]table.Row{
		{"Total agents", r.TotalAgents},
		{"Top agents", r.TopAgents},
		{"Teams", r.Teams},
		{"With profile data", r.WithProfile},
		{"With phone", r.WithPhone},
		{"With email", r.WithEmail},
		{"Average rating", fmt.Sprintf("%.2f", r.AverageRating)},
		{"Average sales (12 mo)", fmt.Sprintf("%.2f", r.AverageSales)},
	})
	if r.MostReviewed != nil {
		overview.AppendRow(table.Row{"Most reviewed", fmt.Sprintf("%s (%d)", truncate(r.MostReviewed.Name, 40), r.MostReviewed.ReviewCount)})
	}
	overview.Render()

	top := s.newTable(fmt.Sprintf("Top %d Highest Rated", topRatedCount))
	top.AppendHeader(table.Row{"#", "Agent", "Brokerage", "Rating", "Reviews"})
	for i, a := range r.TopRated {
		brokerage := ""
		if a.BrokerageName != nil {
			brokerage = *a.BrokerageName
		}
		top.AppendRow(table.Row{i + 1, truncate(a.Name, 38), truncate(brokerage, 30), fmt.Sprintf("%.1f ★", *a.Rating), a.ReviewCount})
	}
	if len(r.TopRated) == 0 {
		top.AppendRow(table.Row{"", "No rated agents found", "", "", ""})
	}
	top.Render()

	if len(r.AgentsByBrokerage) > 0 {
		type brokerCount struct {
			name  string
			count int
		}
		var brokers []brokerCount
		for name, cnt := range r.AgentsByBrokerage {
			brokers = append(brokers, brokerCount{name, cnt})
		}
		sort.Slice(brokers, func(i, j int) bool {
			if brokers[i].count != brokers[j].count {
				return brokers[i].count > brokers[j].count
			}
			return brokers[i].name < brokers[j].name
		})
		bt := s.newTable("Agents by Brokerage")
		bt.AppendHeader(table.Row{"Brokerage", "Agents"})
		for _, b := range brokers {
			bt.AppendRow(table.Row{truncate(b.name, 40), b.count})
		}
		bt.Render()
	}
}

func (s *InsightService) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(s.out)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	t.Style().Title.Colors = text.Colors{text.Bold, text.FgMagenta}
	return t
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
