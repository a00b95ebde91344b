package models

import "fmt"

// SearchRequest is a search over one indexer's documents.
type SearchRequest struct {
	Type    string            `json:"type"`
	Query   string            `json:"query"`
	Offset  int               `json:"offset,omitempty"`
	Limit   int               `json:"limit,omitempty"`
	OrderBy string            `json:"order_by,omitempty"` // "relevance" or "[+|-]tagname"
	Lang    string            `json:"lang,omitempty"`     // stemming language override
	Filter  map[string]string `json:"filter,omitempty"`
	Exclude map[string]string `json:"exclude,omitempty"`
}

// Validate normalizes pagination and checks required fields.
func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if r.Type == "" {
		return fmt.Errorf("record type cannot be empty")
	}
	if r.Limit <= 0 {
		r.Limit = 10
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
	return nil
}

// MatchResult is one ranked match in a response.
type MatchResult struct {
	UID        string            `json:"uid"`
	PrimaryKey string            `json:"primary_key"`
	Type       string            `json:"type"`
	Score      float64           `json:"score"`
	Values     map[string]string `json:"values,omitempty"` // tag name -> encoded sort value
}

// SearchResponse carries the matches plus the query the engine actually ran
// (after alias resolution, stemming, and sort translation).
type SearchResponse struct {
	Matches     []*MatchResult `json:"matches"`
	Total       uint64         `json:"total"`
	ParsedQuery string         `json:"parsed_query"`
	QueryTimeMS int64          `json:"query_time_ms"`
	// Suggestion holds a spelling-corrected query when the search found
	// nothing and the query's terms miss the index's term dictionary.
	Suggestion string `json:"suggestion,omitempty"`
}

// RelatedRequest asks for documents similar to a prior match set, named
// either by the query that produced it or by explicit document UIDs.
type RelatedRequest struct {
	Type   string   `json:"type"`
	Query  string   `json:"query,omitempty"`
	UIDs   []string `json:"uids,omitempty"`
	Offset int      `json:"offset,omitempty"`
	Limit  int      `json:"limit,omitempty"`
}

// RelatedResponse carries the expanded query and its matches.
type RelatedResponse struct {
	ExpandedQuery string         `json:"expanded_query"`
	Matches       []*MatchResult `json:"matches"`
	Total         uint64         `json:"total"`
}

// ReindexRequest triggers a rebuild of one or all indexers.
type ReindexRequest struct {
	Type        string `json:"type,omitempty"` // empty = all
	Transaction bool   `json:"transaction,omitempty"`
	FlushEach   bool   `json:"flush_each,omitempty"`
}

// IndexStatus reports one indexer's document count next to its record count.
type IndexStatus struct {
	Type      string `json:"type"`
	Documents uint64 `json:"documents"`
	Records   int64  `json:"records"`
}
