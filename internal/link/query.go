package link

import (
	"sort"
	"strings"

	"github.com/hurttlocker/vdlink/internal/normalize"
)

// Query is the ephemeral, fully derived form of one noisy input string.
// Everything here is computed once per Link call and shared by all
// strategies; nothing survives the pipeline invocation.
type Query struct {
	Raw    string
	Author string // asserted author fragment, may be empty
	Place  string // asserted place fragment, may be empty
	Year   int    // asserted or extracted from Raw, 0 = unknown

	Index    string   // index-grade normalized text
	Fuzz     string   // fuzzy-grade normalized text
	Tokens   []string // salient tokens, longest first
	Entities []string // capitalized words from the raw text, normalized
}

func newQuery(raw, author, place string, year int, cfg Config) Query {
	q := Query{
		Raw:    raw,
		Author: author,
		Place:  place,
		Year:   year,
		Index:  normalize.Index(raw),
		Fuzz:   normalize.Text(raw),
	}
	if q.Year == 0 {
		q.Year = normalize.ExtractYear(raw)
	}
	q.Tokens = salientTokens(q.Index, cfg.MinTokenLen)
	for _, e := range normalize.Entities(raw) {
		if norm := normalize.Index(e); len(norm) >= cfg.MinTokenLen {
			q.Entities = append(q.Entities, norm)
		}
	}
	return q
}

// salientTokens filters stopwords, bare numbers and short fragments out
// of normalized text and orders the rest longest first (longer tokens
// are rarer and more discriminating), ties broken alphabetically so the
// ordering is deterministic.
func salientTokens(normalized string, minLen int) []string {
	seen := map[string]bool{}
	var toks []string
	for _, t := range strings.Fields(normalized) {
		if len(t) < minLen || seen[t] || normalize.IsStopword(t) || isDigits(t) {
			continue
		}
		seen[t] = true
		toks = append(toks, t)
	}
	sort.Slice(toks, func(i, j int) bool {
		if len(toks[i]) != len(toks[j]) {
			return len(toks[i]) > len(toks[j])
		}
		return toks[i] < toks[j]
	})
	return toks
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
