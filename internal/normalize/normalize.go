// Package normalize canonicalizes raw bibliographic text for vdlink.
//
// The same transform is applied at index-build time and at query time;
// a divergence between the two silently degrades recall, so both the
// ingest pipeline and the linker must go through this package.
//
// Two grades share one base transform:
//   - Text: the base transform, used for fuzzy comparisons and for the
//     stored clean_author / clean_title fields.
//   - Index: Text plus abbreviation expansion, used for search_text and
//     for building FTS match expressions.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// decomposer strips diacritics: NFKD decomposition followed by removal
// of all combining marks (ü -> u, é -> e).
var decomposer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// ligatures folds historical glyphs that survive decomposition.
var ligatures = strings.NewReplacer(
	"ſ", "s",
	"ß", "ss",
	"æ", "ae",
	"œ", "oe",
)

var (
	punctRe    = regexp.MustCompile(`[-–—.,:;]`)
	suffixRe   = regexp.MustCompile(`\b([a-z]{5,})(ns|s)\b`)
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9\s]`)
	spaceRe    = regexp.MustCompile(`\s+`)
	yearRe     = regexp.MustCompile(`\b(1[4-9]\d{2})\b`)
	idRe       = regexp.MustCompile(`[^a-zA-Z0-9]`)
	entityRe   = regexp.MustCompile(`\b\p{Lu}\p{Ll}{3,}\b`)
)

// abbreviations expands common catalog shorthand so that an abbreviated
// query token can still hit the full word in search_text. Applied only
// in the Index grade; fuzzy comparison works on the literal text.
var abbreviations = map[string]string{
	"evangel": "evangelische",
	"hist":    "historie",
	"math":    "mathematik",
	"theol":   "theologie",
	"jur":     "juristische",
	"med":     "medizin",
	"phil":    "philosophie",
	"bot":     "botschaft",
}

// Text normalizes s for fuzzy matching: decompose, drop combining marks,
// lowercase, fold ligatures, strip punctuation, trim genitive/plural
// suffixes on long words, keep only [a-z0-9 ], collapse whitespace.
// Pure and total: empty input yields empty output, and the result is a
// fixed point (Text(Text(s)) == Text(s)).
func Text(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(decomposer, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	out = ligatures.Replace(out)
	out = punctRe.ReplaceAllString(out, " ")
	out = stripSuffixes(out)
	out = nonAlnumRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(out, " "))
}

// Index normalizes s for FTS indexing and match expressions: Text plus
// abbreviation expansion.
func Index(s string) string {
	text := Text(s)
	if text == "" {
		return ""
	}
	toks := strings.Fields(text)
	changed := false
	for i, t := range toks {
		if full, ok := abbreviations[t]; ok {
			toks[i] = full
			changed = true
		}
	}
	if !changed {
		return text
	}
	return strings.Join(toks, " ")
}

// stripSuffixes removes trailing "ns"/"s" from words of five or more
// letters, repeating until stable so the overall transform stays
// idempotent ("addressens" and "address" both settle on "addres").
func stripSuffixes(s string) string {
	for {
		next := suffixRe.ReplaceAllString(s, "$1")
		if next == s {
			return s
		}
		s = next
	}
}

// CanonicalID normalizes a registry identifier for comparison: strips
// everything but letters and digits and lowercases ("VD18 10234567" and
// "vd18:10234567" compare equal).
func CanonicalID(id string) string {
	if id == "" {
		return ""
	}
	return strings.ToLower(idRe.ReplaceAllString(id, ""))
}

// ExtractYear returns the first plausible early-modern print year
// (1400-1999) found in s, or 0 if none.
func ExtractYear(s string) int {
	m := yearRe.FindString(s)
	if m == "" {
		return 0
	}
	year := 0
	for _, d := range m {
		year = year*10 + int(d-'0')
	}
	return year
}

// Entities returns the capitalized words of four or more letters in the
// raw, pre-normalization text, lowercased, with stopwords dropped.
// OCR tends to preserve capitalization of names and places even when
// the surrounding text is corrupted.
func Entities(raw string) []string {
	var out []string
	seen := map[string]bool{}
	for _, w := range entityRe.FindAllString(raw, -1) {
		lw := strings.ToLower(w)
		if IsStopword(lw) || seen[lw] {
			continue
		}
		seen[lw] = true
		out = append(out, lw)
	}
	return out
}
