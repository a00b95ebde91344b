package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/hyperjump/sakuin/pkg/utils"
)

// ExpansionTerm is one candidate term derived from a relevance set, with the
// field it was indexed under and its expansion weight.
type ExpansionTerm struct {
	Field string
	Term  string
	Score float64
}

// ExpandTerms computes the top-weighted expansion terms for the documents in
// uids: term frequencies are aggregated over the relevance set's stored text
// fields and weighted by inverse document frequency over the whole index.
// At most limit terms are returned, highest score first with the term as the
// tie-break so expansion stays deterministic.
func (ix *Index) ExpandTerms(uids []string, limit int) ([]ExpansionTerm, error) {
	type key struct{ field, term string }
	tf := make(map[key]int)
	for _, uid := range uids {
		_, err := ix.VisitStoredFields(uid, func(field, value string) {
			if strings.HasPrefix(field, valueFieldPrefix) {
				return
			}
			for _, tok := range utils.Tokens(value) {
				tf[key{field, tok}]++
			}
		})
		if err != nil {
			return nil, err
		}
	}
	if len(tf) == 0 {
		return nil, nil
	}

	total, err := ix.DocCount()
	if err != nil {
		return nil, err
	}

	terms := make([]ExpansionTerm, 0, len(tf))
	for k, freq := range tf {
		df, err := ix.docFreq(k.field, k.term)
		if err != nil {
			return nil, err
		}
		idf := math.Log(1 + float64(total)/float64(1+df))
		terms = append(terms, ExpansionTerm{Field: k.field, Term: k.term, Score: float64(freq) * idf})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Score != terms[j].Score {
			return terms[i].Score > terms[j].Score
		}
		if terms[i].Term != terms[j].Term {
			return terms[i].Term < terms[j].Term
		}
		return terms[i].Field < terms[j].Field
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms, nil
}

// docFreq counts the documents containing term in field.
func (ix *Index) docFreq(field, term string) (uint64, error) {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	req := bleve.NewSearchRequestOptions(q, 0, 0, false)
	res, err := ix.idx.Search(req)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}
