package eval

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hurttlocker/vdlink/internal/link"
	"github.com/hurttlocker/vdlink/internal/normalize"
)

// Resolver is the piece of the pipeline the runner exercises.
// *link.Linker satisfies it.
type Resolver interface {
	LinkFields(ctx context.Context, text, author, place string, year int) (link.Result, error)
}

// Options configures a run.
type Options struct {
	// HitDepth is how deep in the shortlist a ground truth still counts
	// as found. 0 means DefaultHitDepth.
	HitDepth int
	// ProgressFn is called after every case, optional.
	ProgressFn func(done, total int)
}

// DefaultHitDepth counts a hit anywhere in the top five.
const DefaultHitDepth = 5

// Row is the outcome of one case.
type Row struct {
	Case   Case
	Result link.Result
	Hit    bool
	Err    error
}

// Report aggregates a full run.
type Report struct {
	Total  int
	Found  int
	Errors int
	Rows   []Row
}

// HitRate is Found over Total, 0 for an empty run.
func (r Report) HitRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Found) / float64(r.Total)
}

// Run resolves every case sequentially. Per-case failures are recorded
// in the report, not returned; only context cancellation aborts.
func Run(ctx context.Context, cases []Case, resolver Resolver, opts Options) (Report, error) {
	depth := opts.HitDepth
	if depth <= 0 {
		depth = DefaultHitDepth
	}

	rep := Report{Total: len(cases), Rows: make([]Row, 0, len(cases))}
	for i, c := range cases {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		row := Row{Case: c}
		res, err := resolver.LinkFields(ctx, c.Query, c.Author, c.Place, 0)
		if err != nil {
			row.Err = err
			rep.Errors++
		} else {
			row.Result = res
			row.Hit = shortlistHas(res.Shortlist, c.Target, depth)
			if row.Hit {
				rep.Found++
			}
		}
		rep.Rows = append(rep.Rows, row)
		if opts.ProgressFn != nil {
			opts.ProgressFn(i+1, len(cases))
		}
	}
	return rep, nil
}

func shortlistHas(s link.Shortlist, target string, depth int) bool {
	if depth > len(s) {
		depth = len(s)
	}
	for _, c := range s[:depth] {
		if normalize.CanonicalID(c.Record.RecordID) == target {
			return true
		}
	}
	return false
}

// WriteTable renders the per-case status table.
func (r Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tQUERY\tTARGET\tFINAL\tBAND\tCONF")
	for _, row := range r.Rows {
		status := "MISS"
		switch {
		case row.Err != nil:
			status = "ERR"
		case row.Hit:
			status = "HIT"
		}
		final := row.Result.RecordID
		if final == "" {
			final = "-"
		}
		band := row.Result.Band
		if row.Err != nil {
			band = row.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.0f\n",
			status, truncate(row.Case.Query, 40), row.Case.Label, final, band, row.Result.Confidence)
	}
	fmt.Fprintf(tw, "\nScore: %d/%d (%.1f%%), %d errors\n", r.Found, r.Total, r.HitRate()*100, r.Errors)
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-2]) + ".."
}
