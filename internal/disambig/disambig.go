// Package disambig implements the LLM-backed disambiguation gateway:
// it presents a shortlist of candidate records to a language model and
// asks it to pick the best match for a noisy catalog citation, or to
// decline when none fits.
package disambig

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hurttlocker/vdlink/internal/link"
	"github.com/hurttlocker/vdlink/internal/llm"
	"github.com/hurttlocker/vdlink/internal/normalize"
)

const systemPrompt = `You are an expert bibliographer for early modern German prints (VD16, VD17, VD18).
You match noisy, OCR-damaged catalog citations to canonical registry records.
OCR errors, abbreviations and spelling variants of the period are expected; judge by the work, not the letters.
When two candidates describe the same work, prefer the VD18 record over VD17 and VD16.
If no candidate plausibly describes the cited work, say so instead of guessing.`

// responseSchema constrains the model output where the provider
// supports schema enforcement.
var responseSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "best_match_record_id": {"type": "string", "nullable": true},
    "confidence": {"type": "string", "enum": ["high", "medium", "low"]},
    "reasoning": {"type": "string"}
  },
  "required": ["best_match_record_id"]
}`)

// verdict is the model's structured answer.
type verdict struct {
	BestMatchRecordID *string `json:"best_match_record_id"`
	Confidence        string  `json:"confidence"`
	Reasoning         string  `json:"reasoning"`
}

// Gateway adapts an llm.Provider to the pipeline's Disambiguator
// interface. Safe for concurrent use.
type Gateway struct {
	provider  llm.Provider
	maxTokens int
}

// New creates a Gateway on the given provider.
func New(provider llm.Provider) *Gateway {
	return &Gateway{provider: provider, maxTokens: 1024}
}

// Name reports the underlying provider identity, for logs.
func (g *Gateway) Name() string {
	return g.provider.Name()
}

// Choose asks the model to pick one record from the shortlist. It
// returns the chosen record id, "" when the model declines or names a
// record that was never offered, or an error when the provider call or
// its answer is unusable. A returned id is always one of the
// shortlist's ids.
func (g *Gateway) Choose(ctx context.Context, query string, shortlist link.Shortlist) (string, error) {
	if len(shortlist) == 0 {
		return "", nil
	}

	raw, err := g.provider.Complete(ctx, buildPrompt(query, shortlist), llm.CompletionOpts{
		MaxTokens: g.maxTokens,
		Format:    "json",
		Schema:    responseSchema,
		System:    systemPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("disambiguation call: %w", err)
	}

	var v verdict
	if err := json.Unmarshal([]byte(stripFences(raw)), &v); err != nil {
		return "", fmt.Errorf("unparseable disambiguation verdict %q: %w", raw, err)
	}

	if v.BestMatchRecordID == nil || strings.TrimSpace(*v.BestMatchRecordID) == "" {
		return "", nil
	}

	want := normalize.CanonicalID(*v.BestMatchRecordID)
	for _, c := range shortlist {
		if normalize.CanonicalID(c.Record.RecordID) == want {
			return c.Record.RecordID, nil
		}
	}
	// An id outside the shortlist is a hallucination; treat it as a
	// decline so the caller keeps its local ordering.
	return "", nil
}

// buildPrompt renders the citation and the numbered shortlist. Record
// metadata is presented in the stored normalized form; the model sees
// exactly what the scorer saw.
func buildPrompt(query string, shortlist link.Shortlist) string {
	var b strings.Builder
	b.WriteString("Citation to identify:\n")
	b.WriteString(query)
	b.WriteString("\n\nCandidate records:\n")
	for i, c := range shortlist {
		fmt.Fprintf(&b, "%d. id=%s", i+1, c.Record.RecordID)
		if c.Record.CleanAuthor != "" {
			fmt.Fprintf(&b, " | author: %s", c.Record.CleanAuthor)
		}
		if c.Record.CleanTitle != "" {
			fmt.Fprintf(&b, " | title: %s", c.Record.CleanTitle)
		}
		if c.Record.Year != 0 {
			fmt.Fprintf(&b, " | year: %d", c.Record.Year)
		}
		if c.Record.Place != "" {
			fmt.Fprintf(&b, " | place: %s", c.Record.Place)
		}
		fmt.Fprintf(&b, " | retrieval score: %.0f\n", c.Score)
	}
	b.WriteString(`
Answer with JSON: {"best_match_record_id": "<id or null>", "confidence": "high|medium|low", "reasoning": "<one sentence>"}.
Use null for best_match_record_id when no candidate is the cited work.`)
	return b.String()
}

// stripFences tolerates models that wrap JSON in a markdown code fence
// despite the response format instruction.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
