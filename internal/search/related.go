package search

import (
	"fmt"
	"strings"

	"github.com/hyperjump/sakuin/internal/engine"
	"github.com/hyperjump/sakuin/internal/schema"
)

// Expansion-term counts are clamped so a single match still yields a usable
// relevance set and a huge match set does not blow up expansion cost.
const (
	minExpansionTerms = 10
	maxExpansionTerms = 40
)

// RelatedFinder turns a match set into a "more like these" query via
// term-frequency expansion over the matches' indexed text.
type RelatedFinder struct {
	schema *schema.Schema
	index  *engine.Index
}

// NewRelatedFinder creates a finder over idx using s to recognize tag fields.
func NewRelatedFinder(s *schema.Schema, idx *engine.Index) *RelatedFinder {
	return &RelatedFinder{schema: s, index: idx}
}

// Find computes a disjunctive query string approximating "more documents
// like hits". Terms indexed under a tag field contribute their bare token;
// terms from unrecognized fields are dropped. Returns "" when the match set
// yields no expansion terms.
func (f *RelatedFinder) Find(hits []*engine.Hit) (string, error) {
	uids := make([]string, 0, len(hits))
	for _, h := range hits {
		uids = append(uids, h.UID)
	}
	return f.FindByUID(uids)
}

// FindByUID is Find over raw document identifiers.
func (f *RelatedFinder) FindByUID(uids []string) (string, error) {
	terms, err := f.index.ExpandTerms(uids, ClampExpansion(len(uids)))
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", f.schema.TypeName(), err)
	}

	seen := make(map[string]struct{}, len(terms))
	tokens := make([]string, 0, len(terms))
	for _, t := range terms {
		if t.Field != engine.FieldText && !f.schema.HasTag(t.Field) {
			continue
		}
		if _, dup := seen[t.Term]; dup {
			continue
		}
		seen[t.Term] = struct{}{}
		tokens = append(tokens, t.Term)
	}
	return strings.Join(tokens, " OR "), nil
}

// ClampExpansion bounds the number of expansion terms requested for a match
// set of size n to [10, 40].
func ClampExpansion(n int) int {
	if n < minExpansionTerms {
		return minExpansionTerms
	}
	if n > maxExpansionTerms {
		return maxExpansionTerms
	}
	return n
}
