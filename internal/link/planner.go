package link

import (
	"strings"

	"github.com/hurttlocker/vdlink/internal/index"
)

// Strategy names, also surfaced in Result.Strategies as provenance.
const (
	StrategyStrict   = "strict"
	StrategyBroad    = "broad"
	StrategyTemporal = "temporal"
	StrategyEntity   = "entity"
	StrategyRare     = "rare"
)

type yearFilter int

const (
	yearNone   yearFilter = iota // ignore the year entirely
	yearPrefer                   // order exact/±1 year matches first, exclude nothing
	yearWindow                   // hard filter to query year ± Config.YearWindow
)

// strategy is one declarative query formulation rule: a token selection
// rule, a join operator and a year filter rule. The planner iterates the
// fixed strategy list uniformly; adding a formulation means adding an
// entry here, not a new code path.
type strategy struct {
	name   string
	join   string // "AND" or "OR"
	filter yearFilter
	limit  func(cfg Config) int
	tokens func(q *Query, cfg Config) []string
	// needsYear skips the strategy when the query has no year.
	needsYear bool
}

var strategies = []strategy{
	{
		name:   StrategyStrict,
		join:   "AND",
		filter: yearPrefer,
		limit:  func(cfg Config) int { return cfg.StrictLimit },
		tokens: func(q *Query, cfg Config) []string { return headTokens(q.Tokens, cfg.StrictMaxTokens) },
	},
	{
		name:   StrategyBroad,
		join:   "OR",
		filter: yearNone,
		limit:  func(cfg Config) int { return cfg.BroadLimit },
		tokens: func(q *Query, cfg Config) []string { return headTokens(q.Tokens, cfg.BroadMaxTokens) },
	},
	{
		name:      StrategyTemporal,
		join:      "OR",
		filter:    yearWindow,
		needsYear: true,
		limit:     func(cfg Config) int { return cfg.TemporalLimit },
		tokens:    func(q *Query, cfg Config) []string { return headTokens(q.Tokens, cfg.BroadMaxTokens) },
	},
	{
		name:   StrategyEntity,
		join:   "OR",
		filter: yearNone,
		limit:  func(cfg Config) int { return cfg.EntityLimit },
		tokens: func(q *Query, cfg Config) []string { return q.Entities },
	},
	{
		name:   StrategyRare,
		join:   "OR",
		filter: yearNone,
		limit:  func(cfg Config) int { return cfg.RareLimit },
		tokens: func(q *Query, cfg Config) []string {
			var rare []string
			for _, t := range q.Tokens {
				if len(t) >= cfg.RareMinTokenLen {
					rare = append(rare, t)
				}
				if len(rare) == cfg.RareMaxTokens {
					break
				}
			}
			return rare
		},
	},
}

// formulation is one planned index query tagged with its strategy name.
type formulation struct {
	Strategy string
	Query    index.Query
}

// plan derives every query formulation for q. All strategies are always
// planned (weak strict results widen the merged pool downstream, they
// never short-circuit later stages); strategies with no usable tokens
// plan to nothing.
func plan(q *Query, cfg Config) []formulation {
	var forms []formulation
	for _, s := range strategies {
		if s.needsYear && q.Year == 0 {
			continue
		}
		toks := s.tokens(q, cfg)
		if len(toks) == 0 {
			continue
		}
		iq := index.Query{
			Match: matchExpr(toks, s.join),
			Limit: s.limit(cfg),
		}
		switch s.filter {
		case yearPrefer:
			iq.PreferYear = q.Year
		case yearWindow:
			iq.YearMin = q.Year - cfg.YearWindow
			iq.YearMax = q.Year + cfg.YearWindow
		}
		forms = append(forms, formulation{Strategy: s.name, Query: iq})
	}
	return forms
}

// matchExpr renders tokens as a quoted FTS5 boolean expression,
// e.g. `"basel" AND "historie"`.
func matchExpr(tokens []string, join string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, "") + `"`
	}
	return strings.Join(quoted, " "+join+" ")
}

func headTokens(tokens []string, n int) []string {
	if len(tokens) > n {
		return tokens[:n]
	}
	return tokens
}
