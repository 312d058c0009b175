// Package ingest streams registry work dumps (JSON Lines) into the
// lexical index. It tolerates the dump's schema drift: scalar fields
// that are sometimes lists, lists that are sometimes scalars, and
// registry numbers spread across half a dozen keys.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hurttlocker/vdlink/internal/index"
	"github.com/hurttlocker/vdlink/internal/normalize"
)

// Sink receives batches of prepared records. *index.Index satisfies it.
type Sink interface {
	AddBatch(ctx context.Context, records []index.Record) (int, error)
}

// Options configures one load run.
type Options struct {
	BatchSize  int                      // records per sink batch, 0 = DefaultBatchSize
	ProgressFn func(lines, indexed int) // called every batch, optional
}

// DefaultBatchSize matches the index layer's transaction chunk.
const DefaultBatchSize = 10000

// maxLineBytes bounds a single dump line. Records are small; anything
// near this size is corrupt.
const maxLineBytes = 4 * 1024 * 1024

// Result summarizes one load run.
type Result struct {
	LinesRead int
	Indexed   int
	Skipped   int // unusable records: no registry id or no searchable text
	Errors    []LineError
}

// LineError records a non-fatal parse failure.
type LineError struct {
	Line    int
	Message string
}

// maxErrors caps the error list so a wholly corrupt file does not
// balloon the result.
const maxErrors = 100

// Load streams the JSONL dump at path into sink. Malformed lines are
// recorded and skipped; only I/O and sink failures abort the run.
func Load(ctx context.Context, path string, sink Sink, opts Options) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening dump: %w", err)
	}
	defer f.Close()
	return load(ctx, f, sink, opts)
}

func load(ctx context.Context, r io.Reader, sink Sink, opts Options) (Result, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var res Result
	batch := make([]index.Record, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := sink.AddBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("indexing batch: %w", err)
		}
		res.Indexed += n
		res.Skipped += len(batch) - n
		batch = batch[:0]
		if opts.ProgressFn != nil {
			opts.ProgressFn(res.LinesRead, res.Indexed)
		}
		return nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.LinesRead++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var w work
		if err := json.Unmarshal([]byte(line), &w); err != nil {
			if len(res.Errors) < maxErrors {
				res.Errors = append(res.Errors, LineError{Line: res.LinesRead, Message: err.Error()})
			}
			continue
		}

		rec, ok := w.record()
		if !ok {
			res.Skipped++
			continue
		}
		batch = append(batch, rec)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("reading dump: %w", err)
	}
	if err := flush(); err != nil {
		return res, err
	}
	return res, nil
}

// work mirrors one dump line. Every field uses a lenient decoder.
type work struct {
	Title             string      `json:"title"`
	NormalizedTitle   string      `json:"normalized_title"`
	AuthorPrimary     string      `json:"author_primary"`
	Authors           flexStrings `json:"authors"`
	Year              flexString  `json:"year"`
	PublicationPlaces flexStrings `json:"publication_places"`
	Place             flexStrings `json:"place"`
	VDIDs             flexStrings `json:"vd_ids"`
	VD18Number        flexString  `json:"vd18_number"`
	VD18              flexString  `json:"vd18"`
	VD17Number        flexString  `json:"vd17_number"`
	VD17              flexString  `json:"vd17"`
	VD16Number        flexString  `json:"vd16_number"`
	VD16              flexString  `json:"vd16"`
}

// record prepares the normalized index record, or reports the work
// unusable: no registry id, or nothing searchable after normalization.
func (w *work) record() (index.Record, bool) {
	id := w.recordID()
	if id == "" {
		return index.Record{}, false
	}

	title := w.Title
	if title == "" {
		title = w.NormalizedTitle
	}
	author := w.AuthorPrimary
	if author == "" {
		author = strings.Join(w.Authors, " ")
	}
	place := ""
	if len(w.PublicationPlaces) > 0 {
		place = w.PublicationPlaces[0]
	} else if len(w.Place) > 0 {
		place = w.Place[0]
	}

	cleanTitle := normalize.Text(title)
	cleanAuthor := normalize.Text(author)
	cleanPlace := normalize.Text(place)
	year := normalize.ExtractYear(string(w.Year))

	// search_text carries the index grade, the same grade match
	// expressions are built with; the clean_* fields keep the fuzzy
	// grade for the scorer.
	parts := []string{normalize.Index(cleanAuthor), normalize.Index(cleanTitle)}
	if year != 0 {
		parts = append(parts, fmt.Sprintf("%d", year))
	}
	parts = append(parts, normalize.Index(cleanPlace))
	searchText := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if len(searchText) < 3 {
		return index.Record{}, false
	}

	return index.Record{
		RecordID:    id,
		CleanAuthor: cleanAuthor,
		CleanTitle:  cleanTitle,
		Year:        year,
		Place:       cleanPlace,
		SearchText:  searchText,
	}, true
}

// recordID picks the registry identifier: a vd18 entry from the id
// list when present, otherwise the first id, otherwise the first
// populated registry-number field, newest registry first.
func (w *work) recordID() string {
	if len(w.VDIDs) > 0 {
		for _, id := range w.VDIDs {
			if strings.Contains(id, "VD18") {
				return id
			}
		}
		return w.VDIDs[0]
	}
	for _, v := range []flexString{w.VD18Number, w.VD18, w.VD17Number, w.VD17, w.VD16Number, w.VD16} {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return ""
}
