package link

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/hurttlocker/vdlink/internal/index"
	"github.com/hurttlocker/vdlink/internal/normalize"
)

// scoreThresholds below which the fuzzy scorer treats a lexical hit as
// too weak to deserve a year bonus, and above which a record is so
// textually convincing that a year mismatch is forgiven.
const (
	yearBonusFloor   = 60
	yearPenaltyCeil  = 92
	authorPartialMin = 90
	placePartialMin  = 85
)

// score computes the composite fuzzy score for one candidate on a
// 0-100(+corroboration) scale. Deterministic and side-effect free.
//
// The base is the token-set similarity between the normalized query and
// the record's author+title label; year, author, place and entity
// agreement add fixed bonuses on top, a year mismatch far outside the
// temporal window subtracts a bounded penalty (never eliminates), and
// every strategy corroborating the record beyond the first adds a small
// monotone bonus after the 100-point cap.
func score(c *Candidate, q *Query, cfg Config) float64 {
	label := recordLabel(c.Record)
	s := float64(fuzzy.TokenSetRatio(q.Fuzz, label))

	if q.Year != 0 && c.Record.Year != 0 {
		dy := q.Year - c.Record.Year
		if dy < 0 {
			dy = -dy
		}
		if s > yearBonusFloor {
			switch dy {
			case 0:
				s += cfg.YearBonusExact
			case 1:
				s += cfg.YearBonusClose
			}
		}
		if dy > cfg.YearWindow && s < yearPenaltyCeil {
			penalty := float64(dy)
			if penalty > cfg.YearPenaltyMax {
				penalty = cfg.YearPenaltyMax
			}
			s -= penalty
		}
	}

	if c.Record.CleanAuthor != "" && authorAgrees(c.Record.CleanAuthor, q) {
		s += cfg.AuthorBonus
	}
	if q.Place != "" && c.Record.Place != "" {
		if fuzzy.PartialRatio(normalize.Text(q.Place), c.Record.Place) > placePartialMin {
			s += cfg.PlaceBonus
		}
	}

	for _, ent := range q.Entities {
		if strings.Contains(label, ent) {
			s += cfg.EntityBonus
		}
	}

	if s > 100 {
		s = 100
	}
	if s < 0 {
		s = 0
	}

	// Corroboration is added after the cap so that an extra contributing
	// strategy can never lower, and always raises, the composite score.
	if n := len(c.Strategies); n > 1 {
		s += cfg.CorroborationBonus * float64(n-1)
	}
	return s
}

// authorAgrees reports whether the record's author appears in the query
// text or matches the asserted author fragment.
func authorAgrees(cleanAuthor string, q *Query) bool {
	if fuzzy.PartialRatio(cleanAuthor, q.Fuzz) >= authorPartialMin {
		return true
	}
	if q.Author == "" {
		return false
	}
	return fuzzy.PartialRatio(cleanAuthor, normalize.Text(q.Author)) >= authorPartialMin
}

// recordLabel is the normalized author+title text a candidate is
// compared against. Stored fields are already normalized at build time;
// this only joins them.
func recordLabel(r index.Record) string {
	return strings.TrimSpace(strings.TrimSpace(r.CleanAuthor) + " " + strings.TrimSpace(r.CleanTitle))
}
