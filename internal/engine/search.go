package engine

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Hit is one ranked match with its decoded value slots.
type Hit struct {
	UID    string
	Score  float64
	Values map[int]string
}

// Value returns the hit's encoded value for a slot.
func (h *Hit) Value(slot int) string { return h.Values[slot] }

// MatchSet is the result of one match retrieval.
type MatchSet struct {
	Hits []*Hit
	// Total estimates how many documents match. When a decider is in
	// play it counts only the accepted candidates seen so far.
	Total uint64
}

// Request describes one match retrieval: a parsed query, pagination over the
// ranked stream, an optional sort order (field names, "-" prefix for
// descending, bleve syntax), and an optional per-candidate decider.
type Request struct {
	Query  query.Query
	Offset int
	Limit  int
	Sort   []string
	// Accept, when set, is evaluated against every candidate during match
	// retrieval; rejected candidates do not consume offset/limit, so
	// pagination and ranking stay correct under filtering.
	Accept func(*Hit) bool
}

// deciderPage is how many ranked candidates are pulled per page while
// filtering with a decider.
const deciderPage = 100

// Search executes the request and returns the accepted, paginated matches.
func (ix *Index) Search(req Request) (*MatchSet, error) {
	if req.Accept == nil {
		return ix.searchPlain(req)
	}
	return ix.searchDecided(req)
}

func (ix *Index) searchPlain(req Request) (*MatchSet, error) {
	sr := bleve.NewSearchRequestOptions(req.Query, req.Limit, req.Offset, false)
	sr.Fields = []string{"*"}
	if len(req.Sort) > 0 {
		sr.SortBy(req.Sort)
	}
	res, err := ix.idx.Search(sr)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	ms := &MatchSet{Total: res.Total}
	for _, h := range res.Hits {
		ms.Hits = append(ms.Hits, toHit(h.ID, h.Score, h.Fields))
	}
	return ms, nil
}

// searchDecided streams ranked candidates from the top and applies the
// decider before pagination, so offset and limit count accepted hits only.
func (ix *Index) searchDecided(req Request) (*MatchSet, error) {
	ms := &MatchSet{}
	skipped := 0
	for from := 0; ; from += deciderPage {
		sr := bleve.NewSearchRequestOptions(req.Query, deciderPage, from, false)
		sr.Fields = []string{"*"}
		if len(req.Sort) > 0 {
			sr.SortBy(req.Sort)
		}
		res, err := ix.idx.Search(sr)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		for _, h := range res.Hits {
			hit := toHit(h.ID, h.Score, h.Fields)
			if !req.Accept(hit) {
				continue
			}
			ms.Total++
			if skipped < req.Offset {
				skipped++
				continue
			}
			if len(ms.Hits) < req.Limit {
				ms.Hits = append(ms.Hits, hit)
			}
		}
		if uint64(from+deciderPage) >= res.Total || len(ms.Hits) >= req.Limit {
			return ms, nil
		}
	}
}

func toHit(id string, score float64, fields map[string]interface{}) *Hit {
	hit := &Hit{UID: id, Score: score, Values: make(map[int]string)}
	for name, v := range fields {
		slot, ok := valueSlot(name)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			hit.Values[slot] = s
		}
	}
	return hit
}
