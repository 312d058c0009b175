package link

import (
	"testing"

	"github.com/hurttlocker/vdlink/internal/index"
)

func candidateMap(cands ...Candidate) map[string]*Candidate {
	m := make(map[string]*Candidate, len(cands))
	for i := range cands {
		m[cands[i].Record.RecordID] = &cands[i]
	}
	return m
}

func TestSelectOrdersByScore(t *testing.T) {
	cfg := DefaultConfig()
	s := selectShortlist(candidateMap(
		Candidate{Record: index.Record{RecordID: "VD18 1"}, Score: 70},
		Candidate{Record: index.Record{RecordID: "VD18 2"}, Score: 90},
		Candidate{Record: index.Record{RecordID: "VD18 3"}, Score: 80},
	), cfg)

	want := []string{"VD18 2", "VD18 3", "VD18 1"}
	for i, id := range want {
		if s[i].Record.RecordID != id {
			t.Errorf("rank %d = %s, want %s", i, s[i].Record.RecordID, id)
		}
	}
}

func TestSelectDropsBelowAcceptThreshold(t *testing.T) {
	cfg := DefaultConfig()
	s := selectShortlist(candidateMap(
		Candidate{Record: index.Record{RecordID: "VD18 1"}, Score: cfg.MinAcceptScore},
		Candidate{Record: index.Record{RecordID: "VD18 2"}, Score: cfg.MinAcceptScore - 1},
	), cfg)

	if len(s) != 1 {
		t.Fatalf("shortlist size = %d, want 1", len(s))
	}
	if s[0].Record.RecordID != "VD18 1" {
		t.Errorf("survivor = %s, want VD18 1", s[0].Record.RecordID)
	}
}

func TestSelectTruncates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShortlistSize = 2
	s := selectShortlist(candidateMap(
		Candidate{Record: index.Record{RecordID: "VD18 1"}, Score: 70},
		Candidate{Record: index.Record{RecordID: "VD18 2"}, Score: 90},
		Candidate{Record: index.Record{RecordID: "VD18 3"}, Score: 80},
	), cfg)

	if len(s) != 2 {
		t.Fatalf("shortlist size = %d, want 2", len(s))
	}
}

func TestSelectFamilyTieBreak(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("within epsilon newer family wins", func(t *testing.T) {
		s := selectShortlist(candidateMap(
			Candidate{Record: index.Record{RecordID: "VD17 9"}, Score: 86},
			Candidate{Record: index.Record{RecordID: "VD18 1"}, Score: 85},
		), cfg)
		if s[0].Record.RecordID != "VD18 1" {
			t.Errorf("head = %s, want the vd18 record", s[0].Record.RecordID)
		}
	})

	t.Run("beyond epsilon higher score wins regardless of family", func(t *testing.T) {
		s := selectShortlist(candidateMap(
			Candidate{Record: index.Record{RecordID: "VD17 9"}, Score: 90},
			Candidate{Record: index.Record{RecordID: "VD18 1"}, Score: 85},
		), cfg)
		if s[0].Record.RecordID != "VD17 9" {
			t.Errorf("head = %s, want the higher-scoring vd17 record", s[0].Record.RecordID)
		}
	})

	t.Run("same family ties break on record id", func(t *testing.T) {
		s := selectShortlist(candidateMap(
			Candidate{Record: index.Record{RecordID: "VD18 7"}, Score: 85},
			Candidate{Record: index.Record{RecordID: "VD18 3"}, Score: 85},
		), cfg)
		if s[0].Record.RecordID != "VD18 3" {
			t.Errorf("head = %s, want VD18 3", s[0].Record.RecordID)
		}
	})
}

func TestConfident(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name string
		s    Shortlist
		want bool
	}{
		{"empty", Shortlist{}, false},
		{"single high", Shortlist{{Score: 96}}, true},
		{"single low", Shortlist{{Score: 80}}, false},
		{"high with margin", Shortlist{{Score: 97}, {Score: 80}}, true},
		{"high without margin", Shortlist{{Score: 97}, {Score: 96}}, false},
		{"at thresholds", Shortlist{{Score: cfg.HighConfidence}, {Score: cfg.HighConfidence - cfg.MinMargin}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.confident(cfg); got != tt.want {
				t.Errorf("confident = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPromote(t *testing.T) {
	s := Shortlist{
		{Record: index.Record{RecordID: "VD18 1"}, Score: 90},
		{Record: index.Record{RecordID: "VD18 2"}, Score: 80},
		{Record: index.Record{RecordID: "VD17 3"}, Score: 70},
	}
	got := s.promote("vd182", 100)
	if got[0].Record.RecordID != "VD18 2" || got[0].Score != 100 {
		t.Errorf("head = %s (%v), want VD18 2 (100)", got[0].Record.RecordID, got[0].Score)
	}
	if len(got) != 3 {
		t.Errorf("promote changed shortlist length: %d", len(got))
	}

	unchanged := s.promote("vd999", 100)
	if unchanged[0].Record.RecordID != "VD18 1" {
		t.Errorf("promoting an absent id must not reorder the shortlist")
	}
}

func TestFamilyRank(t *testing.T) {
	tests := []struct {
		id   string
		want int
	}{
		{"VD18 10234567", familyVD18},
		{"vd17 23:000456R", familyVD17},
		{"VD16 A 1234", familyVD16},
		{"GBV 123456", familyUnknown},
		{"", familyUnknown},
	}
	for _, tt := range tests {
		if got := familyRank(tt.id); got != tt.want {
			t.Errorf("familyRank(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}
