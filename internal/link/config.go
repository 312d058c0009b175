package link

import "time"

// Config holds every tunable of the retrieval and scoring pipeline.
// All thresholds are explicit so evaluation runs are reproducible and
// boundary values are unit-testable; nothing is read from process-wide
// state.
type Config struct {
	// Token selection.
	MinTokenLen     int `yaml:"min_token_len"`
	StrictMaxTokens int `yaml:"strict_max_tokens"`
	BroadMaxTokens  int `yaml:"broad_max_tokens"`
	RareMaxTokens   int `yaml:"rare_max_tokens"`
	RareMinTokenLen int `yaml:"rare_min_token_len"`

	// Temporal matching.
	YearWindow int `yaml:"year_window"`

	// Per-strategy lexical result caps.
	StrictLimit   int `yaml:"strict_limit"`
	BroadLimit    int `yaml:"broad_limit"`
	TemporalLimit int `yaml:"temporal_limit"`
	EntityLimit   int `yaml:"entity_limit"`
	RareLimit     int `yaml:"rare_limit"`

	// Composite score weights (0-100 scale).
	YearBonusExact     float64 `yaml:"year_bonus_exact"`
	YearBonusClose     float64 `yaml:"year_bonus_close"`
	YearPenaltyMax     float64 `yaml:"year_penalty_max"`
	AuthorBonus        float64 `yaml:"author_bonus"`
	PlaceBonus         float64 `yaml:"place_bonus"`
	EntityBonus        float64 `yaml:"entity_bonus"`
	CorroborationBonus float64 `yaml:"corroboration_bonus"`

	// Shortlist selection.
	MinAcceptScore float64 `yaml:"min_accept_score"`
	HighConfidence float64 `yaml:"high_confidence"`
	MinMargin      float64 `yaml:"min_margin"`
	TieEpsilon     float64 `yaml:"tie_epsilon"`
	ShortlistSize  int     `yaml:"shortlist_size"`

	// FamilyCutoffYear drops vd17/vd16 candidates outright when the query
	// year is later than this; those registries cannot contain the work.
	// 0 disables the cutoff.
	FamilyCutoffYear int `yaml:"family_cutoff_year"`

	// GatewayTimeout bounds a single disambiguation call.
	GatewayTimeout time.Duration `yaml:"gateway_timeout"`
}

// DefaultConfig returns the tuned production defaults.
func DefaultConfig() Config {
	return Config{
		MinTokenLen:     3,
		StrictMaxTokens: 4,
		BroadMaxTokens:  8,
		RareMaxTokens:   3,
		RareMinTokenLen: 5,

		YearWindow: 3,

		StrictLimit:   500,
		BroadLimit:    500,
		TemporalLimit: 300,
		EntityLimit:   200,
		RareLimit:     100,

		YearBonusExact:     15,
		YearBonusClose:     5,
		YearPenaltyMax:     15,
		AuthorBonus:        15,
		PlaceBonus:         10,
		EntityBonus:        5,
		CorroborationBonus: 2,

		MinAcceptScore: 50,
		HighConfidence: 95,
		MinMargin:      5,
		TieEpsilon:     2,
		ShortlistSize:  10,

		FamilyCutoffYear: 1700,

		GatewayTimeout: 60 * time.Second,
	}
}
