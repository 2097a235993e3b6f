package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"agentharvest/models"
)

func summaryAgent() models.Agent {
	return models.Agent{
		AgentID:           "42",
		ProfileURL:        "https://www.zillow.com/profile/jdoe/",
		Name:              "Jane Doe",
		BrokerageName:     models.Ptr("Coastal Realty"),
		Rating:            models.Ptr(4.8),
		ReviewCount:       57,
		SalesLast12Months: models.Ptr(12),
		IsTopAgent:        true,
		Tags:              []string{"TOP AGENT"},
	}
}

func TestMergeOverlayWins(t *testing.T) {
	solo := models.AgentTypeSolo
	overlay := models.Agent{
		AgentID:       "other",
		Name:          "Someone Else",
		BrokerageName: models.Ptr("Coastal Realty Group"),
		AgentType:     &solo,
		Phone:         models.Ptr("(619) 555-0100"),
		Languages:     []string{"English", "Spanish"},
		ReviewCount:   3,
	}

	got := Merge(summaryAgent(), overlay)

	want := summaryAgent()
	want.BrokerageName = models.Ptr("Coastal Realty Group")
	want.AgentType = &solo
	want.Phone = models.Ptr("(619) 555-0100")
	want.Languages = []string{"English", "Spanish"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeKeepsSummaryWhenOverlayEmpty(t *testing.T) {
	got := Merge(summaryAgent(), models.Agent{Specialties: []string{}})
	if diff := cmp.Diff(summaryAgent(), got); diff != "" {
		t.Errorf("empty overlay changed the record (-want +got):\n%s", diff)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	overlay := models.Agent{
		Phone:          models.Ptr("555"),
		Rating:         models.Ptr(4.9),
		Specialties:    []string{"Buyer's agent"},
		ActiveListings: models.Ptr(4),
	}

	once := Merge(summaryAgent(), overlay)
	twice := Merge(once, overlay)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second merge changed the record (-once +twice):\n%s", diff)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	summary := summaryAgent()
	overlay := models.Agent{Rating: models.Ptr(3.0), Languages: []string{"French"}}

	_ = Merge(summary, overlay)

	if diff := cmp.Diff(summaryAgent(), summary); diff != "" {
		t.Errorf("summary mutated (-want +got):\n%s", diff)
	}
	if *overlay.Rating != 3.0 || len(overlay.Languages) != 1 {
		t.Errorf("overlay mutated: %+v", overlay)
	}
}
