package link

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hurttlocker/vdlink/internal/index"
	"github.com/hurttlocker/vdlink/internal/normalize"
)

// Searcher is the read-only capability the pipeline needs from the
// lexical index. *index.Index satisfies it; tests supply fakes.
type Searcher interface {
	Search(ctx context.Context, q index.Query) ([]index.Hit, error)
}

// Candidate is one record surviving retrieval for one query. Created by
// the aggregator, scored by the fuzzy scorer, consumed by the selector;
// never persisted.
type Candidate struct {
	Record index.Record `json:"record"`
	// Lexical is the best raw relevance score across all strategies
	// that returned this record.
	Lexical float64 `json:"lexical"`
	// Strategies lists the formulations that independently retrieved
	// the record; corroboration from several raises confidence.
	Strategies []string `json:"strategies"`
	// Score is the composite fuzzy score, filled by the scorer.
	Score float64 `json:"score"`
}

// aggregate executes every formulation against the index concurrently
// and merges the hits by canonical record id, keeping the maximum raw
// score and the set of contributing strategies. The merge is a fold
// over max, so the result is independent of completion order.
func aggregate(ctx context.Context, searcher Searcher, forms []formulation, queryYear int, cfg Config) (map[string]*Candidate, error) {
	hitsByForm := make([][]index.Hit, len(forms))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range forms {
		g.Go(func() error {
			hits, err := searcher.Search(gctx, f.Query)
			if err != nil {
				return fmt.Errorf("%s strategy: %w", f.Strategy, err)
			}
			hitsByForm[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dropOldFamilies := cfg.FamilyCutoffYear > 0 && queryYear > cfg.FamilyCutoffYear

	merged := make(map[string]*Candidate)
	for i, hits := range hitsByForm {
		name := forms[i].Strategy
		for _, h := range hits {
			id := normalize.CanonicalID(h.Record.RecordID)
			if id == "" {
				continue
			}
			if dropOldFamilies {
				if r := familyRank(h.Record.RecordID); r > familyUnknown && r < familyVD18 {
					continue
				}
			}
			c, ok := merged[id]
			if !ok {
				merged[id] = &Candidate{
					Record:     h.Record,
					Lexical:    h.Score,
					Strategies: []string{name},
				}
				continue
			}
			if h.Score > c.Lexical {
				c.Lexical = h.Score
			}
			if !containsString(c.Strategies, name) {
				c.Strategies = append(c.Strategies, name)
				sort.Strings(c.Strategies)
			}
		}
	}
	return merged, nil
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
