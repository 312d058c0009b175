// Package eval runs the linking pipeline against an annotated test set
// and reports hit rates. The test set is the TEI-derived JSON export:
// bibliography items nested under json_representation.item.bibl, paired
// positionally with ground-truth registry ids.
package eval

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/hurttlocker/vdlink/internal/normalize"
)

// Case is one query with its expected registry id.
type Case struct {
	Query  string // assembled citation text
	Author string // author fragment, may be empty
	Place  string // place fragment, may be empty
	Target string // canonical ground-truth id, e.g. "vd1810234567"
	Label  string // display form of the ground truth
}

// ParseTestSet decodes the annotated test set. Entries whose bibl or
// ground truth is missing or unusable are dropped, matching the
// annotation tool's loose export format: both bibl and the request
// list may be a single object instead of a list.
func ParseTestSet(r io.Reader) ([]Case, error) {
	var entries []map[string]any
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding test set: %w", err)
	}

	var cases []Case
	for _, entry := range entries {
		bibls := asList(dig(entry, "json_representation", "item", "bibl"))
		gts := asList(entry["VD18 request"])

		n := len(bibls)
		if len(gts) < n {
			n = len(gts)
		}
		for i := 0; i < n; i++ {
			b, _ := bibls[i].(map[string]any)
			gt, _ := gts[i].(map[string]any)
			if b == nil || gt == nil {
				continue
			}

			label := asText(gt["VD18_ID"])
			target := GroundTruthID(label)
			query, author, place := buildQuery(b)
			if target == "" || strings.TrimSpace(query) == "" {
				continue
			}
			cases = append(cases, Case{
				Query:  query,
				Author: author,
				Place:  place,
				Target: target,
				Label:  strings.ReplaceAll(label, " ", ""),
			})
		}
	}
	return cases, nil
}

var gtPattern = regexp.MustCompile(`(?i)vd188?\s*:?\s*([0-9a-z]+)`)

// GroundTruthID canonicalizes a ground-truth annotation. Annotators
// write the registry number in many shapes ("VD18 12345678",
// "VD18:12345678", bare numbers); all collapse to the same canonical
// id the pipeline produces.
func GroundTruthID(s string) string {
	if s == "" {
		return ""
	}
	if m := gtPattern.FindStringSubmatch(s); m != nil {
		return "vd18" + strings.ToLower(m[1])
	}
	return normalize.CanonicalID(s)
}

// buildQuery assembles the citation text the way a catalog entry reads:
// author, title, year, then place kept aside as a separate hint.
func buildQuery(bibl map[string]any) (query, author, place string) {
	var parts []string
	if v, ok := bibl["author"]; ok {
		author = asText(v)
		parts = append(parts, author)
	}
	if v, ok := bibl["title"]; ok {
		parts = append(parts, asText(v))
	}
	if v, ok := bibl["year"]; ok {
		parts = append(parts, asText(v))
	}
	if v, ok := bibl["place"]; ok {
		place = asText(v)
	}
	return strings.TrimSpace(strings.Join(parts, " ")), author, place
}

func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[k]
	}
	return cur
}

func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

func asText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		var parts []string
		for _, e := range t {
			if s := asText(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
