package services

import (
	"bytes"
	"testing"

	"agentharvest/models"
	"agentharvest/utils"
)

func sampleAgents() []models.Agent {
	solo := models.AgentTypeSolo
	return []models.Agent{
		{AgentID: "1", Name: "Ann Lee", BrokerageName: models.Ptr("Compass"), Rating: models.Ptr(4.9), ReviewCount: 120, SalesLast12Months: models.Ptr(30), IsTopAgent: true, Phone: models.Ptr("555"), AgentType: &solo},
		{AgentID: "2", Name: "Bob Ray", BrokerageName: models.Ptr("Compass"), Rating: models.Ptr(4.5), ReviewCount: 10, SalesLast12Months: models.Ptr(10)},
		{AgentID: "3", Name: "Cy Team", BrokerageName: models.Ptr("Redfin"), Rating: models.Ptr(5.0), ReviewCount: 3, IsTeam: true, Email: models.Ptr("a@b.c")},
		{AgentID: "4", Name: "Di Novak", ReviewCount: 0},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	r := svc.Generate(sampleAgents())
	if r.TotalAgents != 4 {
		t.Errorf("TotalAgents: got %d, want 4", r.TotalAgents)
	}
	if r.TopAgents != 1 || r.Teams != 1 {
		t.Errorf("TopAgents/Teams: got %d/%d, want 1/1", r.TopAgents, r.Teams)
	}
	if r.WithPhone != 1 || r.WithEmail != 1 {
		t.Errorf("WithPhone/WithEmail: got %d/%d, want 1/1", r.WithPhone, r.WithEmail)
	}
	if r.WithProfile != 2 {
		t.Errorf("WithProfile: got %d, want 2", r.WithProfile)
	}
	if r.AgentsByType["solo"] != 1 {
		t.Errorf("AgentsByType[solo]: got %d, want 1", r.AgentsByType["solo"])
	}
}

func TestInsightAverages(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	r := svc.Generate(sampleAgents())
	if r.AverageRating != 4.8 {
		t.Errorf("AverageRating: got %.2f, want 4.80", r.AverageRating)
	}
	if r.AverageSales != 20 {
		t.Errorf("AverageSales: got %.2f, want 20", r.AverageSales)
	}
}

func TestInsightMostReviewed(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	r := svc.Generate(sampleAgents())
	if r.MostReviewed == nil {
		t.Fatal("MostReviewed should not be nil")
	}
	if r.MostReviewed.Name != "Ann Lee" {
		t.Errorf("MostReviewed: got %q, want %q", r.MostReviewed.Name, "Ann Lee")
	}
}

func TestInsightTopRated(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	r := svc.Generate(sampleAgents())
	if len(r.TopRated) != 3 {
		t.Fatalf("TopRated len: got %d, want 3", len(r.TopRated))
	}
	if r.TopRated[0].Name != "Cy Team" {
		t.Errorf("TopRated[0]: got %q, want Cy Team", r.TopRated[0].Name)
	}
}

func TestInsightBrokerageGrouping(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	r := svc.Generate(sampleAgents())
	if r.AgentsByBrokerage["Compass"] != 2 {
		t.Errorf("Compass count: got %d, want 2", r.AgentsByBrokerage["Compass"])
	}
	if r.AgentsByBrokerage["Redfin"] != 1 {
		t.Errorf("Redfin count: got %d, want 1", r.AgentsByBrokerage["Redfin"])
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	r := svc.Generate(nil)
	if r.TotalAgents != 0 {
		t.Errorf("expected 0 total agents for empty input")
	}
}

func TestInsightPrint(t *testing.T) {
	var buf bytes.Buffer
	svc := NewInsightService(utils.NewNopLogger()).WithOutput(&buf)
	svc.Print(svc.Generate(sampleAgents()))
	out := buf.String()
	for _, want := range []string{"Total agents", "Ann Lee", "Compass"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("Print output missing %q", want)
		}
	}
}
