package models

// PageMeta is the metadata a listing page reports alongside its records.
type PageMeta struct {
	TotalResults  int
	CurrentPage   int
	ResultsOnPage int
	Location      string
}

// InsightReport holds the computed analytics over a harvested agent set.
type InsightReport struct {
	TotalAgents       int
	TopAgents         int
	Teams             int
	WithPhone         int
	WithEmail         int
	WithProfile       int
	AverageRating     float64
	AverageSales      float64
	MostReviewed      *Agent
	TopRated          []*Agent
	AgentsByBrokerage map[string]int
	AgentsByType      map[string]int
}
