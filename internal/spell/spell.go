// Package spell suggests corrections for query terms absent from an index's
// term dictionary. Candidates are dictionary terms within a bounded edit
// distance, ranked by distance and document frequency.
package spell

import (
	"sort"
	"strings"
	"sync"

	"github.com/hyperjump/sakuin/pkg/utils"
)

// Entry is one dictionary term with its document frequency.
type Entry struct {
	Term  string
	Count uint64
}

// Dictionary supplies the terms a Checker corrects against.
type Dictionary interface {
	Terms() ([]Entry, error)
}

// Suggestion is one correction candidate for a term.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency uint64
	Score     float64
}

// Checker corrects query terms against a term dictionary. The dictionary is
// loaded lazily and cached; call Refresh after the index changes.
type Checker struct {
	dict           Dictionary
	maxDistance    int
	minCount       uint64
	maxSuggestions int

	mu      sync.RWMutex
	entries []Entry
	known   map[string]struct{}
	loaded  bool
}

// Option configures a Checker.
type Option func(*Checker)

// WithMaxDistance bounds the edit distance of suggestions.
func WithMaxDistance(d int) Option {
	return func(c *Checker) {
		if d > 0 {
			c.maxDistance = d
		}
	}
}

// WithMinCount drops candidate terms with a lower document frequency. Rare
// terms are usually noise, not corrections.
func WithMinCount(n uint64) Option {
	return func(c *Checker) { c.minCount = n }
}

// WithMaxSuggestions caps how many candidates Suggest returns per term.
func WithMaxSuggestions(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.maxSuggestions = n
		}
	}
}

// NewChecker returns a Checker over dict.
func NewChecker(dict Dictionary, opts ...Option) *Checker {
	c := &Checker{
		dict:           dict,
		maxDistance:    2,
		minCount:       1,
		maxSuggestions: 5,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh reloads the term dictionary.
func (c *Checker) Refresh() error {
	entries, err := c.dict.Terms()
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		known[e.Term] = struct{}{}
	}

	c.mu.Lock()
	c.entries = entries
	c.known = known
	c.loaded = true
	c.mu.Unlock()
	return nil
}

func (c *Checker) ensureLoaded() error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Refresh()
}

// Known reports whether term is in the dictionary.
func (c *Checker) Known(term string) bool {
	if err := c.ensureLoaded(); err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.known[strings.ToLower(term)]
	return ok
}

// Suggest returns correction candidates for term, best first. A term already
// in the dictionary gets no suggestions.
func (c *Checker) Suggest(term string) []Suggestion {
	if err := c.ensureLoaded(); err != nil {
		return nil
	}
	term = strings.ToLower(term)

	c.mu.RLock()
	entries := c.entries
	c.mu.RUnlock()

	var out []Suggestion
	for _, e := range entries {
		if e.Term == term || e.Count < c.minCount {
			continue
		}
		// Length difference is a lower bound on edit distance.
		if abs(len(e.Term)-len(term)) > c.maxDistance {
			continue
		}
		d := Distance(term, e.Term)
		if d > c.maxDistance {
			continue
		}
		out = append(out, Suggestion{
			Term:      e.Term,
			Distance:  d,
			Frequency: e.Count,
			Score:     float64(e.Count) / float64(d+1),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > c.maxSuggestions {
		out = out[:c.maxSuggestions]
	}
	return out
}

// Correct rewrites the unknown terms of query to their best suggestion and
// reports whether anything changed. Known terms and terms with no candidate
// pass through untouched.
func (c *Checker) Correct(query string) (string, bool) {
	tokens := utils.Tokens(query)
	if len(tokens) == 0 {
		return query, false
	}
	corrected := make([]string, 0, len(tokens))
	changed := false
	for _, tok := range tokens {
		if c.Known(tok) {
			corrected = append(corrected, tok)
			continue
		}
		if sugg := c.Suggest(tok); len(sugg) > 0 {
			corrected = append(corrected, sugg[0].Term)
			changed = true
			continue
		}
		corrected = append(corrected, tok)
	}
	if !changed {
		return query, false
	}
	return strings.Join(corrected, " "), true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
