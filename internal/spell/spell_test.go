package spell

import "testing"

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"solar", "solar", 0},
		{"solar", "", 5},
		{"", "wind", 4},
		{"solar", "solr", 1},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

type staticDict []Entry

func (d staticDict) Terms() ([]Entry, error) { return d, nil }

func testChecker() *Checker {
	return NewChecker(staticDict{
		{Term: "solar", Count: 12},
		{Term: "sonar", Count: 3},
		{Term: "wind", Count: 7},
		{Term: "windy", Count: 1},
		{Term: "turbine", Count: 5},
	})
}

func TestSuggestRanksByFrequencyAndDistance(t *testing.T) {
	c := testChecker()
	sugg := c.Suggest("solr")
	if len(sugg) == 0 {
		t.Fatal("expected suggestions for solr")
	}
	if sugg[0].Term != "solar" {
		t.Errorf("best suggestion = %q, want solar", sugg[0].Term)
	}
	for _, s := range sugg {
		if s.Distance > 2 {
			t.Errorf("suggestion %q has distance %d, want <= 2", s.Term, s.Distance)
		}
	}
}

func TestSuggestSkipsExactTerm(t *testing.T) {
	c := testChecker()
	for _, s := range c.Suggest("wind") {
		if s.Term == "wind" {
			t.Error("suggestions should not include the term itself")
		}
	}
}

func TestSuggestHonorsMinCount(t *testing.T) {
	c := NewChecker(staticDict{
		{Term: "windy", Count: 1},
		{Term: "wind", Count: 7},
	}, WithMinCount(2))
	for _, s := range c.Suggest("winds") {
		if s.Term == "windy" {
			t.Error("low-frequency term should be filtered out")
		}
	}
}

func TestCorrect(t *testing.T) {
	c := testChecker()
	tests := []struct {
		name        string
		query       string
		want        string
		wantChanged bool
	}{
		{"misspelled term", "solr panels", "solar panels", true},
		{"all known", "solar wind", "solar wind", false},
		{"no candidate", "zzzzzzzz", "zzzzzzzz", false},
		{"mixed", "windd turbine", "wind turbine", true},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := c.Correct(tt.query)
			if got != tt.want || changed != tt.wantChanged {
				t.Errorf("Correct(%q) = (%q, %v), want (%q, %v)",
					tt.query, got, changed, tt.want, tt.wantChanged)
			}
		})
	}
}

func TestRefreshPicksUpNewTerms(t *testing.T) {
	dict := &struct{ staticDict }{staticDict{{Term: "solar", Count: 1}}}
	c := NewChecker(dict)
	if !c.Known("solar") {
		t.Fatal("solar should be known")
	}
	dict.staticDict = append(dict.staticDict, Entry{Term: "wind", Count: 1})
	if c.Known("wind") {
		t.Fatal("wind should not be known before Refresh")
	}
	if err := c.Refresh(); err != nil {
		t.Fatal(err)
	}
	if !c.Known("wind") {
		t.Error("wind should be known after Refresh")
	}
}
