package link

import (
	"context"
	"reflect"
	"testing"

	"github.com/hurttlocker/vdlink/internal/index"
)

// scriptedSearcher returns a fixed hit list per match expression.
type scriptedSearcher struct {
	hits map[string][]index.Hit
}

func (s *scriptedSearcher) Search(_ context.Context, q index.Query) ([]index.Hit, error) {
	return s.hits[q.Match], nil
}

func rec(id string, year int) index.Record {
	return index.Record{RecordID: id, CleanTitle: "historie", Year: year}
}

func TestAggregateMergesByMaxScore(t *testing.T) {
	searcher := &scriptedSearcher{hits: map[string][]index.Hit{
		"a": {
			{Record: rec("VD18 1", 1732), Score: 3.0},
			{Record: rec("VD18 2", 1740), Score: 2.0},
		},
		"b": {
			{Record: rec("vd18-1", 1732), Score: 5.0}, // same record, punctuation variant
			{Record: rec("VD18 3", 1700), Score: 1.0},
		},
	}}
	forms := []formulation{
		{Strategy: StrategyStrict, Query: index.Query{Match: "a"}},
		{Strategy: StrategyBroad, Query: index.Query{Match: "b"}},
	}

	merged, err := aggregate(context.Background(), searcher, forms, 0, DefaultConfig())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged candidates, got %d", len(merged))
	}

	c := merged["vd181"]
	if c == nil {
		t.Fatal("missing merged candidate vd181")
	}
	if c.Lexical != 5.0 {
		t.Errorf("best score = %v, want 5.0 (max across strategies)", c.Lexical)
	}
	if want := []string{"broad", "strict"}; !reflect.DeepEqual(c.Strategies, want) {
		t.Errorf("strategies = %v, want %v", c.Strategies, want)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	searcher := &scriptedSearcher{hits: map[string][]index.Hit{
		"a": {{Record: rec("VD18 1", 1732), Score: 3.0}},
		"b": {{Record: rec("VD18 1", 1732), Score: 5.0}},
		"c": {{Record: rec("VD17 9", 1689), Score: 4.0}},
	}}
	forward := []formulation{
		{Strategy: StrategyStrict, Query: index.Query{Match: "a"}},
		{Strategy: StrategyBroad, Query: index.Query{Match: "b"}},
		{Strategy: StrategyRare, Query: index.Query{Match: "c"}},
	}
	backward := []formulation{forward[2], forward[1], forward[0]}

	m1, err := aggregate(context.Background(), searcher, forward, 0, DefaultConfig())
	if err != nil {
		t.Fatalf("aggregate forward: %v", err)
	}
	m2, err := aggregate(context.Background(), searcher, backward, 0, DefaultConfig())
	if err != nil {
		t.Fatalf("aggregate backward: %v", err)
	}

	for id, c1 := range m1 {
		c2 := m2[id]
		if c2 == nil {
			t.Fatalf("candidate %s missing from reversed merge", id)
		}
		if c1.Lexical != c2.Lexical {
			t.Errorf("candidate %s: best score %v vs %v depending on order", id, c1.Lexical, c2.Lexical)
		}
		if !reflect.DeepEqual(c1.Strategies, c2.Strategies) {
			t.Errorf("candidate %s: strategies %v vs %v depending on order", id, c1.Strategies, c2.Strategies)
		}
	}
}

func TestAggregateFamilyCutoff(t *testing.T) {
	searcher := &scriptedSearcher{hits: map[string][]index.Hit{
		"a": {
			{Record: rec("VD18 1", 1732), Score: 3.0},
			{Record: rec("VD17 2", 1732), Score: 3.0},
			{Record: rec("VD16 3", 1732), Score: 3.0},
		},
	}}
	forms := []formulation{{Strategy: StrategyStrict, Query: index.Query{Match: "a"}}}

	t.Run("query year past cutoff drops older families", func(t *testing.T) {
		merged, err := aggregate(context.Background(), searcher, forms, 1732, DefaultConfig())
		if err != nil {
			t.Fatalf("aggregate: %v", err)
		}
		if len(merged) != 1 {
			t.Fatalf("expected only the vd18 candidate, got %d", len(merged))
		}
		if merged["vd181"] == nil {
			t.Error("vd18 candidate missing")
		}
	})

	t.Run("no query year keeps all families", func(t *testing.T) {
		merged, err := aggregate(context.Background(), searcher, forms, 0, DefaultConfig())
		if err != nil {
			t.Fatalf("aggregate: %v", err)
		}
		if len(merged) != 3 {
			t.Fatalf("expected 3 candidates, got %d", len(merged))
		}
	})

	t.Run("cutoff disabled keeps all families", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.FamilyCutoffYear = 0
		merged, err := aggregate(context.Background(), searcher, forms, 1732, cfg)
		if err != nil {
			t.Fatalf("aggregate: %v", err)
		}
		if len(merged) != 3 {
			t.Fatalf("expected 3 candidates, got %d", len(merged))
		}
	})
}
