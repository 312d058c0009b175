package link

import (
	"testing"

	"github.com/hurttlocker/vdlink/internal/index"
)

func scoredCandidate(t *testing.T, c Candidate, raw, author, place string, year int, cfg Config) float64 {
	t.Helper()
	q := newQuery(raw, author, place, year, cfg)
	return score(&c, &q, cfg)
}

func TestScoreIdenticalTextIsFull(t *testing.T) {
	cfg := DefaultConfig()
	c := Candidate{
		Record:     index.Record{RecordID: "VD18 1", CleanTitle: "historie der natur"},
		Strategies: []string{StrategyStrict},
	}
	got := scoredCandidate(t, c, "Historie der Natur", "", "", 0, cfg)
	if got != 100 {
		t.Errorf("score = %v, want 100 for identical text", got)
	}
}

func TestScoreYearAgreement(t *testing.T) {
	cfg := DefaultConfig()
	base := Candidate{
		Record:     index.Record{RecordID: "VD18 1", CleanTitle: "beschreibung der stadt leipzig nebst anmerkungen"},
		Strategies: []string{StrategyStrict},
	}
	const raw = "beschreibung der stadt anno domini" // mid-range similarity, bonuses stay visible below the cap

	noYear := base
	noYear.Record.Year = 0
	sNoYear := scoredCandidate(t, noYear, raw, "", "", 1732, cfg)

	exact := base
	exact.Record.Year = 1732
	sExact := scoredCandidate(t, exact, raw, "", "", 1732, cfg)

	near := base
	near.Record.Year = 1733
	sClose := scoredCandidate(t, near, raw, "", "", 1732, cfg)

	far := base
	far.Record.Year = 1712
	sFar := scoredCandidate(t, far, raw, "", "", 1732, cfg)

	if sExact <= sClose {
		t.Errorf("exact year (%v) must outscore ±1 year (%v)", sExact, sClose)
	}
	if sClose <= sNoYear {
		t.Errorf("±1 year (%v) must outscore unknown year (%v)", sClose, sNoYear)
	}
	if sFar >= sNoYear {
		t.Errorf("year 20 off (%v) must be penalized below unknown year (%v)", sFar, sNoYear)
	}
	if sExact-sNoYear != cfg.YearBonusExact {
		t.Errorf("exact bonus = %v, want %v", sExact-sNoYear, cfg.YearBonusExact)
	}
}

func TestScoreYearInsideWindowNotPenalized(t *testing.T) {
	cfg := DefaultConfig()
	c := Candidate{
		Record:     index.Record{RecordID: "VD18 1", CleanTitle: "beschreibung der stadt leipzig nebst anmerkungen", Year: 1734},
		Strategies: []string{StrategyStrict},
	}
	inWindow := scoredCandidate(t, c, "beschreibung der stadt anno domini", "", "", 1732, cfg)

	c.Record.Year = 0
	unknown := scoredCandidate(t, c, "beschreibung der stadt anno domini", "", "", 1732, cfg)

	if inWindow != unknown {
		t.Errorf("year inside window must be neutral: got %v, want %v", inWindow, unknown)
	}
}

func TestScoreOverwhelmingTextEscapesYearPenalty(t *testing.T) {
	cfg := DefaultConfig()
	c := Candidate{
		Record: index.Record{
			RecordID:   "VD18 1",
			CleanTitle: "historie der natur",
			Year:       1732,
		},
		Strategies: []string{StrategyBroad},
	}
	// Query tokens are a subset of the title, so token-set similarity is
	// maximal; the 16-year mismatch must not drag the record down.
	got := scoredCandidate(t, c, "Historie der Natur", "", "", 1748, cfg)
	if got != 100 {
		t.Errorf("score = %v, want 100 (no penalty above the text-similarity ceiling)", got)
	}
}

func TestScoreAuthorBonus(t *testing.T) {
	cfg := DefaultConfig()
	with := Candidate{
		Record: index.Record{
			RecordID:    "VD18 1",
			CleanAuthor: "gottsched",
			CleanTitle:  "beschreibung der stadt leipzig nebst anmerkungen",
		},
		Strategies: []string{StrategyStrict},
	}
	without := with
	without.Record.CleanAuthor = ""

	sWith := scoredCandidate(t, with, "gottsched beschreibung der stadt anno domini", "", "", 0, cfg)
	sWithout := scoredCandidate(t, without, "gottsched beschreibung der stadt anno domini", "", "", 0, cfg)

	if sWith-sWithout < cfg.AuthorBonus {
		t.Errorf("author agreement bonus = %v, want at least %v", sWith-sWithout, cfg.AuthorBonus)
	}
}

func TestScorePlaceBonus(t *testing.T) {
	cfg := DefaultConfig()
	c := Candidate{
		Record: index.Record{
			RecordID:   "VD18 1",
			CleanTitle: "beschreibung der stadt nebst anmerkungen",
			Place:      "leipzig",
		},
		Strategies: []string{StrategyStrict},
	}

	sWith := scoredCandidate(t, c, "beschreibung der stadt anno domini", "", "Leipzig", 0, cfg)
	sWithout := scoredCandidate(t, c, "beschreibung der stadt anno domini", "", "", 0, cfg)

	if sWith-sWithout != cfg.PlaceBonus {
		t.Errorf("place bonus = %v, want %v", sWith-sWithout, cfg.PlaceBonus)
	}
}

func TestScoreCorroborationMonotone(t *testing.T) {
	cfg := DefaultConfig()
	record := index.Record{RecordID: "VD18 1", CleanTitle: "historie der natur"}

	single := Candidate{Record: record, Strategies: []string{StrategyStrict}}
	double := Candidate{Record: record, Strategies: []string{StrategyBroad, StrategyStrict}}
	triple := Candidate{Record: record, Strategies: []string{StrategyBroad, StrategyRare, StrategyStrict}}

	s1 := scoredCandidate(t, single, "Historie der Natur", "", "", 0, cfg)
	s2 := scoredCandidate(t, double, "Historie der Natur", "", "", 0, cfg)
	s3 := scoredCandidate(t, triple, "Historie der Natur", "", "", 0, cfg)

	if s2 <= s1 {
		t.Errorf("adding a corroborating strategy lowered the score: %v <= %v", s2, s1)
	}
	if s3 <= s2 {
		t.Errorf("adding a third strategy lowered the score: %v <= %v", s3, s2)
	}
	if s2-s1 != cfg.CorroborationBonus {
		t.Errorf("corroboration increment = %v, want %v", s2-s1, cfg.CorroborationBonus)
	}
}

func TestScoreEntityBonus(t *testing.T) {
	cfg := DefaultConfig()
	c := Candidate{
		Record:     index.Record{RecordID: "VD18 1", CleanTitle: "entrevue im reiche derer todten"},
		Strategies: []string{StrategyEntity},
	}
	// "Entrevue" appears capitalized in the raw query and inside the title.
	sWith := scoredCandidate(t, c, "Eine neue Entrevue zwischen zwey grossen herren", "", "", 0, cfg)

	c2 := c
	c2.Record.CleanTitle = "gespräch im reiche derer todten"
	sWithout := scoredCandidate(t, c2, "Eine neue Entrevue zwischen zwey grossen herren", "", "", 0, cfg)

	if sWith <= sWithout {
		t.Errorf("entity hit must raise the score: %v <= %v", sWith, sWithout)
	}
}
