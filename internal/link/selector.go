package link

import (
	"math"
	"sort"

	"github.com/hurttlocker/vdlink/internal/normalize"
)

// Shortlist is the bounded, ranked candidate set for one query.
type Shortlist []Candidate

// selectShortlist orders candidates by composite score and truncates to
// the configured size. Candidates below the accept threshold are
// dropped. Near ties (within TieEpsilon) are broken by registry family,
// newest first; the family preference never overrides a clearly higher
// score. Remaining ties fall back to the canonical record id so the
// ordering is fully deterministic.
func selectShortlist(merged map[string]*Candidate, cfg Config) Shortlist {
	out := make(Shortlist, 0, len(merged))
	for _, c := range merged {
		if c.Score >= cfg.MinAcceptScore {
			out = append(out, *c)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		delta := out[i].Score - out[j].Score
		if math.Abs(delta) <= cfg.TieEpsilon {
			ri, rj := familyRank(out[i].Record.RecordID), familyRank(out[j].Record.RecordID)
			if ri != rj {
				return ri > rj
			}
			return normalize.CanonicalID(out[i].Record.RecordID) < normalize.CanonicalID(out[j].Record.RecordID)
		}
		return delta > 0
	})

	if cfg.ShortlistSize > 0 && len(out) > cfg.ShortlistSize {
		out = out[:cfg.ShortlistSize]
	}
	return out
}

// confident reports whether the shortlist head is strong enough to
// return without escalation: it must clear the high-confidence
// threshold and lead the runner-up by the configured margin.
func (s Shortlist) confident(cfg Config) bool {
	if len(s) == 0 {
		return false
	}
	if s[0].Score < cfg.HighConfidence {
		return false
	}
	if len(s) == 1 {
		return true
	}
	return s[0].Score-s[1].Score >= cfg.MinMargin
}

// promote moves the candidate with the given canonical id to the head
// of the shortlist, pinning its score. Used when the disambiguation
// gateway picks a winner.
func (s Shortlist) promote(canonicalID string, score float64) Shortlist {
	for i := range s {
		if normalize.CanonicalID(s[i].Record.RecordID) == canonicalID {
			winner := s[i]
			winner.Score = score
			rest := append(Shortlist{}, s[:i]...)
			rest = append(rest, s[i+1:]...)
			return append(Shortlist{winner}, rest...)
		}
	}
	return s
}
