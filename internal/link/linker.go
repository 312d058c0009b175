// Package link implements the multi-stage candidate retrieval and
// scoring pipeline: plan query formulations, aggregate lexical hits,
// rescore them fuzzily, select a shortlist and, when local confidence
// is insufficient, escalate to a disambiguation gateway.
package link

import (
	"context"
	"fmt"
	"strings"

	"github.com/hurttlocker/vdlink/internal/normalize"
)

// Disambiguator is the external reasoning collaborator: given the
// original query and the shortlist it returns the chosen record id, or
// "" for an explicit no-match. Implementations may fail; the pipeline
// then degrades to the best local candidate instead of aborting.
type Disambiguator interface {
	Choose(ctx context.Context, query string, shortlist Shortlist) (string, error)
}

// TopCandidate is the deterministic fallback Disambiguator: it simply
// confirms the selector's top candidate. Useful in tests and when no
// reasoning service is configured.
type TopCandidate struct{}

func (TopCandidate) Choose(_ context.Context, _ string, shortlist Shortlist) (string, error) {
	if len(shortlist) == 0 {
		return "", nil
	}
	return shortlist[0].Record.RecordID, nil
}

// Confidence bands of a Result.
const (
	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"
	BandNone   = "none"
)

// Result is the declared output shape of one Link call. Confidence,
// Band and Reason are always populated.
type Result struct {
	RecordID   string    `json:"record_id,omitempty"`
	Matched    bool      `json:"matched"`
	Confidence float64   `json:"confidence"`
	Band       string    `json:"band"`
	Degraded   bool      `json:"degraded,omitempty"`
	Reason     string    `json:"reason"`
	Strategies []string  `json:"strategies,omitempty"`
	Shortlist  Shortlist `json:"shortlist,omitempty"`
}

// Linker runs the pipeline. Construct with New; the index and gateway
// are injected dependencies, never looked up from process-wide state.
// A Linker is safe for concurrent Link calls: the index is read-only
// and all per-query state is local to the invocation.
type Linker struct {
	searcher Searcher
	gateway  Disambiguator // nil disables escalation
	cfg      Config
}

// New creates a Linker. gateway may be nil, in which case unconfident
// results are returned with a sub-high band instead of escalating.
func New(searcher Searcher, gateway Disambiguator, cfg Config) *Linker {
	return &Linker{searcher: searcher, gateway: gateway, cfg: cfg}
}

// Link resolves one noisy query string to a record identifier.
// year = 0 means no asserted year; one is still extracted from the text
// when present.
func (l *Linker) Link(ctx context.Context, text string, year int) (Result, error) {
	return l.LinkFields(ctx, text, "", "", year)
}

// LinkFields is Link with optional asserted author and place fragments,
// as supplied by structured bibliography entries.
func (l *Linker) LinkFields(ctx context.Context, text, author, place string, year int) (Result, error) {
	q := newQuery(text, author, place, year, l.cfg)
	if strings.TrimSpace(text) == "" || (q.Index == "" && q.Fuzz == "") {
		return noMatch(fmt.Sprintf("%v: empty input", ErrMalformedQuery)), nil
	}

	forms := plan(&q, l.cfg)
	if len(forms) == 0 {
		return noMatch(fmt.Sprintf("%v: no usable tokens", ErrMalformedQuery)), nil
	}

	merged, err := aggregate(ctx, l.searcher, forms, q.Year, l.cfg)
	if err != nil {
		return Result{}, fmt.Errorf("aggregating candidates: %w", err)
	}
	for _, c := range merged {
		c.Score = score(c, &q, l.cfg)
	}

	shortlist := selectShortlist(merged, l.cfg)
	if len(shortlist) == 0 {
		return noMatch(ErrNoCandidates.Error()), nil
	}

	top := shortlist[0]
	if shortlist.confident(l.cfg) || l.gateway == nil {
		return l.localResult(top, shortlist), nil
	}

	gctx, cancel := context.WithTimeout(ctx, l.cfg.GatewayTimeout)
	defer cancel()

	chosen, gerr := l.gateway.Choose(gctx, text, shortlist)
	if gerr != nil {
		res := l.localResult(top, shortlist)
		res.Degraded = true
		res.Band = BandLow
		res.Reason = fmt.Sprintf("%v: %v; returning best local candidate", ErrGatewayUnavailable, gerr)
		return res, nil
	}
	if chosen == "" {
		res := l.localResult(top, shortlist)
		res.Reason = "gateway declined all candidates; returning best local candidate"
		return res, nil
	}

	id := normalize.CanonicalID(chosen)
	promoted := shortlist.promote(id, 100)
	winner := promoted[0]
	if normalize.CanonicalID(winner.Record.RecordID) != id {
		// Winner outside the shortlist is treated as a declined choice.
		res := l.localResult(top, shortlist)
		res.Reason = "gateway chose an unknown record; returning best local candidate"
		return res, nil
	}
	return Result{
		RecordID:   winner.Record.RecordID,
		Matched:    true,
		Confidence: winner.Score,
		Band:       BandHigh,
		Reason:     "chosen by disambiguation gateway",
		Strategies: winner.Strategies,
		Shortlist:  promoted,
	}, nil
}

func (l *Linker) localResult(top Candidate, shortlist Shortlist) Result {
	band := BandLow
	reason := "best local candidate below confidence threshold"
	switch {
	case shortlist.confident(l.cfg):
		band = BandHigh
		reason = "high-confidence local match"
	case top.Score >= l.cfg.MinAcceptScore+20:
		band = BandMedium
		reason = "plausible local match, not escalated"
	}
	return Result{
		RecordID:   top.Record.RecordID,
		Matched:    true,
		Confidence: top.Score,
		Band:       band,
		Reason:     reason,
		Strategies: top.Strategies,
		Shortlist:  shortlist,
	}
}

func noMatch(reason string) Result {
	return Result{
		Matched:    false,
		Confidence: 0,
		Band:       BandNone,
		Reason:     reason,
	}
}
