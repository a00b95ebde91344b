package schema

import (
	"strings"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/danish"
	"github.com/blevesearch/snowballstem/dutch"
	"github.com/blevesearch/snowballstem/english"
	"github.com/blevesearch/snowballstem/finnish"
	"github.com/blevesearch/snowballstem/french"
	"github.com/blevesearch/snowballstem/german"
	"github.com/blevesearch/snowballstem/hungarian"
	"github.com/blevesearch/snowballstem/italian"
	"github.com/blevesearch/snowballstem/norwegian"
	"github.com/blevesearch/snowballstem/portuguese"
	"github.com/blevesearch/snowballstem/romanian"
	"github.com/blevesearch/snowballstem/russian"
	"github.com/blevesearch/snowballstem/spanish"
	"github.com/blevesearch/snowballstem/swedish"
	"github.com/blevesearch/snowballstem/turkish"
	"github.com/hyperjump/sakuin/pkg/utils"
)

// StemNone disables stemming; StemMulti selects the language per record via
// the schema's stem accessor.
const (
	StemNone  = "none"
	StemMulti = "multi"
)

var stemmers = map[string]func(*snowballstem.Env) bool{
	"da": danish.Stem,
	"nl": dutch.Stem,
	"en": english.Stem,
	"fi": finnish.Stem,
	"fr": french.Stem,
	"de": german.Stem,
	"hu": hungarian.Stem,
	"it": italian.Stem,
	"no": norwegian.Stem,
	"pt": portuguese.Stem,
	"ro": romanian.Stem,
	"ru": russian.Stem,
	"es": spanish.Stem,
	"sv": swedish.Stem,
	"tr": turkish.Stem,
}

// Stemmer stems single tokens for one language.
type Stemmer struct {
	stem func(*snowballstem.Env) bool
}

// NewStemmer returns a stemmer for the given language code, or nil when lang
// is "none", empty, or unknown. A nil *Stemmer is safe to use and stems
// nothing.
func NewStemmer(lang string) *Stemmer {
	fn, ok := stemmers[strings.ToLower(strings.TrimSpace(lang))]
	if !ok {
		return nil
	}
	return &Stemmer{stem: fn}
}

// KnownLanguage reports whether lang has a registered stemmer.
func KnownLanguage(lang string) bool {
	_, ok := stemmers[strings.ToLower(strings.TrimSpace(lang))]
	return ok
}

// Token stems one lowercase token. Tokens shorter than three runes pass
// through unchanged.
func (s *Stemmer) Token(tok string) string {
	if s == nil || len(tok) < 3 {
		return tok
	}
	env := snowballstem.NewEnv(tok)
	s.stem(env)
	return env.Current()
}

// Text tokenizes s, stems every token, and joins the result with single
// spaces. With a nil stemmer the text is only tokenized and lowercased.
func (s *Stemmer) Text(text string) string {
	toks := utils.Tokens(text)
	if s != nil {
		for i, tok := range toks {
			toks[i] = s.Token(tok)
		}
	}
	return strings.Join(toks, " ")
}
