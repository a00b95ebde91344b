package search

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/sakuin/internal/engine"
	"github.com/hyperjump/sakuin/internal/schema"
	"github.com/hyperjump/sakuin/internal/spell"
)

// DefaultLimit is the page size used when a query does not set one.
const DefaultLimit = 10

// Result is one executed search: the accepted ranked matches, the engine's
// total estimate, and the rewritten query string the engine parsed. The
// parsed query is what feeds back into "more like this" expansion.
type Result struct {
	Hits        []*engine.Hit
	Total       uint64
	ParsedQuery string
}

// Searcher runs queries for one schema against one index.
type Searcher struct {
	schema  *schema.Schema
	index   *engine.Index
	builder *Builder
	related *RelatedFinder
	spell   *spell.Checker
	logger  *zap.Logger
}

// textDictionary exposes the catch-all field's term dictionary for spell
// checking. Prefixed tag terms are left out: corrections target free text.
type textDictionary struct {
	index *engine.Index
}

func (d textDictionary) Terms() ([]spell.Entry, error) {
	entries, err := d.index.FieldTerms(engine.FieldText)
	if err != nil {
		return nil, err
	}
	out := make([]spell.Entry, len(entries))
	for i, e := range entries {
		out[i] = spell.Entry{Term: e.Term, Count: e.Count}
	}
	return out, nil
}

// SearcherOption configures optional searcher behavior.
type SearcherOption func(*Searcher)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) SearcherOption {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultLang sets the stemming language applied when a query does not
// carry its own.
func WithDefaultLang(lang string) SearcherOption {
	return func(s *Searcher) {
		s.builder = NewBuilder(s.schema, lang)
	}
}

// NewSearcher creates a searcher over idx using s for prefix, alias, slot,
// and stemming resolution.
func NewSearcher(s *schema.Schema, idx *engine.Index, opts ...SearcherOption) *Searcher {
	sr := &Searcher{
		schema:  s,
		index:   idx,
		builder: NewBuilder(s, schema.StemNone),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(sr)
	}
	sr.related = NewRelatedFinder(s, idx)
	sr.spell = spell.NewChecker(textDictionary{index: idx})
	return sr
}

// Search executes q and returns the accepted, paginated matches.
func (s *Searcher) Search(q Query) (*Result, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	req, parsed, err := s.builder.Build(q)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("executing search",
		zap.String("type", s.schema.TypeName()),
		zap.String("parsed_query", parsed))

	ms, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.schema.TypeName(), err)
	}
	return &Result{Hits: ms.Hits, Total: ms.Total, ParsedQuery: parsed}, nil
}

// Suggest proposes a corrected query when q's terms miss the index's term
// dictionary. It returns the rewritten query and true, or "" and false when
// no correction applies. The dictionary is re-read on every call; callers
// should reserve this for queries that came back empty.
func (s *Searcher) Suggest(q string) (string, bool) {
	if err := s.spell.Refresh(); err != nil {
		s.logger.Warn("spell dictionary refresh failed", zap.Error(err))
		return "", false
	}
	corrected, changed := s.spell.Correct(q)
	if !changed {
		return "", false
	}
	return corrected, true
}

// Related builds a "more like these" query string from a prior match set.
// The returned string is a fresh disjunctive query to run through Search.
func (s *Searcher) Related(hits []*engine.Hit) (string, error) {
	return s.related.Find(hits)
}

// RelatedByUID is Related over raw document identifiers.
func (s *Searcher) RelatedByUID(uids []string) (string, error) {
	return s.related.FindByUID(uids)
}
