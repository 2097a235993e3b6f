package services

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"agentharvest/models"
)

func ids(agents []models.Agent) []string {
	out := make([]string, len(agents))
	for i, a := range agents {
		out[i] = a.AgentID
	}
	return out
}

func filterFixture() []models.Agent {
	team := models.AgentTypeTeam
	solo := models.AgentTypeSolo
	return []models.Agent{
		{AgentID: "a", Rating: models.Ptr(4.9), ReviewCount: 80, SalesLast12Months: models.Ptr(25), YearsExperienceMin: models.Ptr(10), IsTopAgent: true, AgentType: &solo, Languages: []string{"English", "Spanish"}},
		{AgentID: "b", Rating: models.Ptr(4.2), ReviewCount: 12, SalesLast12Months: models.Ptr(4), IsTeam: true, AgentType: &team, Specialties: []string{"Buyer's Agent", "Relocation"}},
		{AgentID: "c", ReviewCount: 0},
		{AgentID: "d", Rating: models.Ptr(5.0), ReviewCount: 3, SalesLast12Months: models.Ptr(60), YearsExperienceMin: models.Ptr(3)},
	}
}

func TestFilter(t *testing.T) {
	team := models.AgentTypeTeam
	tests := []struct {
		name string
		c    models.SearchCriteria
		want []string
	}{
		{"no filters", models.SearchCriteria{}, []string{"a", "b", "c", "d"}},
		{"rating floor drops unrated", models.SearchCriteria{RatingMin: models.Ptr(4.5)}, []string{"a", "d"}},
		{"review floor", models.SearchCriteria{ReviewCountMin: models.Ptr(10)}, []string{"a", "b"}},
		{"sales window", models.SearchCriteria{SalesMin: models.Ptr(5), SalesMax: models.Ptr(30)}, []string{"a"}},
		{"experience floor", models.SearchCriteria{YearsExperienceMin: models.Ptr(5)}, []string{"a"}},
		{"top agents", models.SearchCriteria{TopAgentOnly: true}, []string{"a"}},
		{"exclude teams", models.SearchCriteria{ExcludeTeams: true}, []string{"a", "c", "d"}},
		{"agent type", models.SearchCriteria{AgentType: &team}, []string{"b"}},
		{"specialty substring", models.SearchCriteria{Specialties: []string{"buyer"}}, []string{"b"}},
		{"any language", models.SearchCriteria{Languages: []string{"french", "SPANISH"}}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(filterFixture(), tt.c))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Filter (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterIsMonotonic(t *testing.T) {
	agents := filterFixture()
	prev := len(agents) + 1
	for _, floor := range []float64{0, 4.0, 4.5, 4.95, 5.0} {
		n := len(Filter(agents, models.SearchCriteria{RatingMin: models.Ptr(floor)}))
		if n > prev {
			t.Errorf("raising rating floor to %.2f grew the result from %d to %d", floor, prev, n)
		}
		prev = n
	}

	prev = len(agents) + 1
	for _, floor := range []int{0, 5, 20, 100} {
		n := len(Filter(agents, models.SearchCriteria{ReviewCountMin: models.Ptr(floor)}))
		if n > prev {
			t.Errorf("raising review floor to %d grew the result from %d to %d", floor, prev, n)
		}
		prev = n
	}
}

func TestDedup(t *testing.T) {
	in := []models.Agent{
		{AgentID: "1", Name: "first"},
		{AgentID: "2"},
		{AgentID: "1", Name: "second"},
		{AgentID: "3"},
		{AgentID: "2"},
	}

	once := Dedup(in)
	assert.Equal(t, []string{"1", "2", "3"}, ids(once))
	assert.Equal(t, "first", once[0].Name, "first occurrence wins")
	assert.LessOrEqual(t, len(once), len(in))

	twice := Dedup(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("Dedup is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestSort(t *testing.T) {
	agents := []models.Agent{
		{AgentID: "unrated-1", Name: "zed"},
		{AgentID: "mid", Name: "Amy", Rating: models.Ptr(4.5), ReviewCount: 9, SalesLast12Months: models.Ptr(10)},
		{AgentID: "top", Name: "bo", Rating: models.Ptr(5.0), ReviewCount: 2},
		{AgentID: "unrated-2", Name: "Cy", ReviewCount: 30, SalesLast12Months: models.Ptr(3)},
		{AgentID: "low", Name: "dee", Rating: models.Ptr(3.9), ReviewCount: 9},
	}

	tests := []struct {
		key        string
		descending bool
		want       []string
	}{
		{SortByRating, true, []string{"top", "mid", "low", "unrated-1", "unrated-2"}},
		{SortByRating, false, []string{"low", "mid", "top", "unrated-1", "unrated-2"}},
		{"bogus", true, []string{"top", "mid", "low", "unrated-1", "unrated-2"}},
		{"bogus", false, []string{"top", "mid", "low", "unrated-1", "unrated-2"}},
		{"", false, []string{"top", "mid", "low", "unrated-1", "unrated-2"}},
		{SortByReviewCount, true, []string{"unrated-2", "mid", "low", "top", "unrated-1"}},
		{SortBySales, true, []string{"mid", "unrated-2", "unrated-1", "top", "low"}},
		{SortBySales, false, []string{"unrated-2", "mid", "unrated-1", "top", "low"}},
		{SortByName, false, []string{"mid", "top", "unrated-2", "low", "unrated-1"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/desc=%v", tt.key, tt.descending), func(t *testing.T) {
			got := ids(Sort(agents, tt.key, tt.descending))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Sort (-want +got):\n%s", diff)
			}
		})
	}

	assert.Equal(t, "unrated-1", agents[0].AgentID, "Sort must not reorder its input")
}

func TestPaginate(t *testing.T) {
	list := make([]models.Agent, 7)
	for i := range list {
		list[i].AgentID = fmt.Sprint(i)
	}

	for _, k := range []int{0, 1, 3, 7, 10} {
		for _, o := range []int{0, 2, 6, 7, 9} {
			got := Paginate(list, k, o)
			want := max(0, min(k, len(list)-o))
			if len(got) != want {
				t.Errorf("Paginate(limit=%d, offset=%d) len = %d; want %d", k, o, len(got), want)
				continue
			}
			for i, a := range got {
				if a.AgentID != list[o+i].AgentID {
					t.Errorf("Paginate(limit=%d, offset=%d)[%d] = %s; want %s", k, o, i, a.AgentID, list[o+i].AgentID)
				}
			}
		}
	}
}
