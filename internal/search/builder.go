// Package search is the read path: it translates free-text queries with
// field prefixes, aliases, and sort specifications into engine requests,
// applies structural filter/exclude constraints during match retrieval, and
// expands match sets into "more like these" queries.
package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/sakuin/internal/engine"
	"github.com/hyperjump/sakuin/internal/schema"
)

// Flags select which parts of the query grammar the parser honors.
type Flags uint

const (
	// FlagBoolean honors AND/OR/NOT operators between clauses.
	FlagBoolean Flags = 1 << iota
	// FlagPhrase honors quoted phrases.
	FlagPhrase
	// FlagLovehate honors leading +/- on clauses.
	FlagLovehate
	// FlagWildcard honors trailing-* wildcards (wildcard terms are not
	// stemmed).
	FlagWildcard
)

// DefaultFlags is the grammar honored when a query passes no flags.
const DefaultFlags = FlagBoolean | FlagPhrase | FlagLovehate

// Query is one search over an indexer's documents.
type Query struct {
	Text   string
	Offset int
	Limit  int
	// OrderBy is "" or "relevance" for the engine's ranking, or a tag
	// name optionally prefixed with + or - for ascending/descending.
	OrderBy string
	Flags   Flags
	// StemLang overrides the stemming language; "none" disables stemming
	// and "" falls back to the configured default.
	StemLang string
	Filter   map[string]string
	Exclude  map[string]string
}

// SortRelevance requests the engine's default ranking.
const SortRelevance = "relevance"

// ErrUnknownSortField is returned when OrderBy names a field that is not a
// declared tag. Sorting never silently falls back to relevance.
var ErrUnknownSortField = errors.New("search: unknown sort field")

// Builder translates queries for one schema: it registers every tag prefix
// and alias as a queryable field name, applies the conjunctive default,
// stems terms, and translates the sort specification.
type Builder struct {
	schema      *schema.Schema
	defaultLang string
}

// NewBuilder creates a query builder for s. defaultLang is the global
// stemming language ("none" disables; "multi" means per-record at index
// time, which at query time falls back to no stemming).
func NewBuilder(s *schema.Schema, defaultLang string) *Builder {
	return &Builder{schema: s, defaultLang: defaultLang}
}

// Build translates q into an engine request plus the rewritten query string
// the engine actually parses (the parser state consumed by RelatedFinder).
func (b *Builder) Build(q Query) (engine.Request, string, error) {
	sort, err := b.translateSort(q.OrderBy)
	if err != nil {
		return engine.Request{}, "", err
	}
	decider, err := CompileDecider(b.schema, q.Filter, q.Exclude)
	if err != nil {
		return engine.Request{}, "", err
	}

	rewritten := b.Rewrite(q.Text, q.Flags, b.stemmer(q.StemLang))

	var parsed query.Query
	if rewritten == "" {
		parsed = bleve.NewMatchAllQuery()
	} else {
		parsed = bleve.NewQueryStringQuery(rewritten)
	}
	req := engine.Request{
		Query:  parsed,
		Offset: q.Offset,
		Limit:  q.Limit,
		Sort:   sort,
	}
	if decider != nil {
		req.Accept = decider.Accept
	}
	return req, rewritten, nil
}

func (b *Builder) stemmer(override string) *schema.Stemmer {
	lang := override
	if lang == "" {
		lang = b.defaultLang
	}
	return schema.NewStemmer(lang) // nil for "none", "multi", unknown
}

// translateSort maps an order-by specification to engine sort fields. A tag
// sort orders primarily by the tag's value slot with relevance as the
// secondary tie-break.
func (b *Builder) translateSort(orderBy string) ([]string, error) {
	if orderBy == "" || strings.EqualFold(orderBy, SortRelevance) {
		return nil, nil
	}
	dir := ""
	name := orderBy
	switch name[0] {
	case '-':
		dir = "-"
		name = name[1:]
	case '+':
		name = name[1:]
	}
	canonical, ok := b.schema.CanonicalTag(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not indexed for %s", ErrUnknownSortField, name, b.schema.TypeName())
	}
	slot, _ := b.schema.TagSlot(canonical)
	return []string{dir + engine.ValueField(slot), "-_score"}, nil
}

// Rewrite translates the user's query text into the engine's query-string
// grammar: aliases resolve to canonical tag prefixes, the default clause
// combination is conjunctive (AND), boolean operators and phrases are
// honored per flags, and bare terms are stemmed.
func (b *Builder) Rewrite(text string, flags Flags, stem *schema.Stemmer) string {
	if flags == 0 {
		flags = DefaultFlags
	}
	clauses := splitClauses(text)

	var out []string
	for i, c := range clauses {
		if flags&FlagBoolean != 0 && isOperator(c) {
			continue
		}
		required := true
		negated := false

		if flags&FlagBoolean != 0 {
			// A clause adjacent to OR is optional; NOT negates the next one.
			if (i > 0 && strings.EqualFold(clauses[i-1], "OR")) ||
				(i+1 < len(clauses) && strings.EqualFold(clauses[i+1], "OR")) {
				required = false
			}
			if i > 0 && strings.EqualFold(clauses[i-1], "NOT") {
				negated = true
			}
		}
		if flags&FlagLovehate != 0 {
			switch {
			case strings.HasPrefix(c, "+"):
				c = c[1:]
			case strings.HasPrefix(c, "-"):
				c = c[1:]
				negated = true
			}
		}
		if c == "" {
			continue
		}

		clause := b.rewriteClause(c, flags, stem)
		if clause == "" {
			continue
		}
		switch {
		case negated:
			clause = "-" + clause
		case required:
			clause = "+" + clause
		}
		out = append(out, clause)
	}
	return strings.Join(out, " ")
}

// rewriteClause handles one clause: optional field scope, phrase, wildcard,
// or bare term.
func (b *Builder) rewriteClause(c string, flags Flags, stem *schema.Stemmer) string {
	field := ""
	if idx := strings.Index(c, ":"); idx > 0 {
		name := c[:idx]
		if canonical, ok := b.schema.CanonicalTag(name); ok {
			field = canonical + ":"
			c = c[idx+1:]
		}
	}
	if c == "" {
		return ""
	}

	if flags&FlagPhrase != 0 && strings.HasPrefix(c, `"`) {
		// Phrase terms go through the same stemmer as indexing, otherwise
		// quoted phrases can never match a stemmed posting list.
		inner := stem.Text(strings.Trim(c, `"`))
		if inner == "" {
			return ""
		}
		return field + `"` + inner + `"`
	}
	if flags&FlagWildcard != 0 && strings.HasSuffix(c, "*") {
		return field + strings.ToLower(c)
	}
	toks := strings.Fields(stem.Text(c))
	if len(toks) == 0 {
		return ""
	}
	if len(toks) == 1 {
		return field + toks[0]
	}
	// A clause that tokenizes into several terms (punctuation splits)
	// becomes a phrase to keep it one clause.
	return field + `"` + strings.Join(toks, " ") + `"`
}

// splitClauses splits query text on whitespace, keeping quoted phrases
// together (the closing quote may be absent at end of input).
func splitClauses(text string) []string {
	var clauses []string
	var cur strings.Builder
	inPhrase := false
	flush := func() {
		if cur.Len() > 0 {
			clauses = append(clauses, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == '"':
			inPhrase = !inPhrase
			cur.WriteRune(r)
			if !inPhrase {
				flush()
			}
		case !inPhrase && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inPhrase {
		cur.WriteRune('"')
	}
	flush()
	return clauses
}

func isOperator(c string) bool {
	return strings.EqualFold(c, "AND") || strings.EqualFold(c, "OR") || strings.EqualFold(c, "NOT")
}
