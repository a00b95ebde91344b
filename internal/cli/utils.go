// Package cli provides CLI utilities for Sakuin.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d matches in %dms (query: %s)\n\n",
		response.Total, response.QueryTimeMS, response.ParsedQuery)
	if response.Suggestion != "" {
		fmt.Fprintf(w, "Did you mean: %s\n\n", response.Suggestion)
	}
	for rank, m := range response.Matches {
		writeOneMatch(w, rank+1, m)
	}
}

func writeOneMatch(w io.Writer, rank int, m *models.MatchResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", rank, m.Score)
	fmt.Fprintf(w, "%s #%s (%s)\n", m.Type, m.PrimaryKey, m.UID)
	if len(m.Values) > 0 {
		names := make([]string, 0, len(m.Values))
		for name := range m.Values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, utils.Truncate(m.Values[name], 80))
		}
	}
	fmt.Fprintln(w)
}

// WriteRelatedResults writes a related-query response to w.
func WriteRelatedResults(w io.Writer, response *models.RelatedResponse, format SearchOutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}
	if response.ExpandedQuery == "" {
		fmt.Fprintln(w, "No expansion terms found.")
		return nil
	}
	fmt.Fprintf(w, "\nExpanded query: %s\n", response.ExpandedQuery)
	fmt.Fprintf(w, "Found %d related matches\n\n", response.Total)
	for rank, m := range response.Matches {
		writeOneMatch(w, rank+1, m)
	}
	return nil
}
