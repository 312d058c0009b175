package ingest

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hurttlocker/vdlink/internal/index"
	"github.com/hurttlocker/vdlink/internal/link"
)

// memSink collects batches in memory.
type memSink struct {
	records []index.Record
	batches int
}

func (s *memSink) AddBatch(_ context.Context, records []index.Record) (int, error) {
	s.records = append(s.records, records...)
	s.batches++
	return len(records), nil
}

func TestLoadTypicalDump(t *testing.T) {
	dump := strings.Join([]string{
		`{"title": "Historie der Natur", "author_primary": "Gottsched, Johann Christoph", "year": "1732", "publication_places": ["Basel"], "vd_ids": ["VD18 10234567"]}`,
		`{"normalized_title": "entrevue des herrn leibniz", "authors": ["Anonym"], "year": 1748, "place": "Hannover", "vd18_number": "90555555"}`,
		``,
		`{"title": "Ohne Nummer", "year": "1700"}`,
		`not json at all`,
		`{"title": "Disputatio", "vd_ids": ["GBV 1234", "VD18 77777777"], "year": ["1755", "1756"]}`,
	}, "\n")

	sink := &memSink{}
	res, err := load(context.Background(), strings.NewReader(dump), sink, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if res.LinesRead != 6 {
		t.Errorf("LinesRead = %d, want 6", res.LinesRead)
	}
	if res.Indexed != 3 {
		t.Errorf("Indexed = %d, want 3", res.Indexed)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 (record without registry id)", res.Skipped)
	}
	if len(res.Errors) != 1 || res.Errors[0].Line != 5 {
		t.Fatalf("Errors = %+v, want one parse error on line 5", res.Errors)
	}

	byID := map[string]index.Record{}
	for _, r := range sink.records {
		byID[r.RecordID] = r
	}

	first, ok := byID["VD18 10234567"]
	if !ok {
		t.Fatal("VD18 10234567 not indexed")
	}
	if first.Year != 1732 || first.Place != "basel" {
		t.Errorf("first record = %+v", first)
	}
	if first.CleanAuthor != "gottsched johann christoph" {
		t.Errorf("CleanAuthor = %q", first.CleanAuthor)
	}
	if !strings.Contains(first.SearchText, "historie der natur") || !strings.Contains(first.SearchText, "1732") {
		t.Errorf("SearchText = %q", first.SearchText)
	}

	second, ok := byID["90555555"]
	if !ok {
		t.Fatal("record keyed by vd18_number not indexed")
	}
	if second.Year != 1748 || second.Place != "hannover" {
		t.Errorf("second record = %+v", second)
	}

	third, ok := byID["VD18 77777777"]
	if !ok {
		t.Fatal("vd18 id not preferred from the id list")
	}
	if third.Year != 1755 {
		t.Errorf("year from list = %d, want 1755", third.Year)
	}
}

func TestLoadBatching(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 5; i++ {
		b.WriteString(`{"title": "Werk Nummer `)
		b.WriteByte(byte('a' + i))
		b.WriteString(`", "vd18_number": "1000000`)
		b.WriteByte(byte('0' + i))
		b.WriteString("\"}\n")
	}

	sink := &memSink{}
	progress := 0
	res, err := load(context.Background(), strings.NewReader(b.String()), sink, Options{
		BatchSize:  2,
		ProgressFn: func(lines, indexed int) { progress++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Indexed != 5 {
		t.Errorf("Indexed = %d, want 5", res.Indexed)
	}
	if sink.batches != 3 {
		t.Errorf("batches = %d, want 3", sink.batches)
	}
	if progress != 3 {
		t.Errorf("progress calls = %d, want 3", progress)
	}
}

func TestLoadCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := load(ctx, strings.NewReader(`{"title": "x", "vd18_number": "1"}`), &memSink{}, Options{})
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestLoadIntoIndex(t *testing.T) {
	dump := `{"title": "Historie der Natur", "author_primary": "Gottsched", "year": "1732", "publication_places": ["Basel"], "vd_ids": ["VD18 10234567"]}`

	path := t.TempDir() + "/works.db"
	ix, err := index.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ix.Close()

	res, err := load(context.Background(), strings.NewReader(dump), ix, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Indexed != 1 {
		t.Fatalf("Indexed = %d, want 1", res.Indexed)
	}

	hits, err := ix.Search(context.Background(), index.Query{Match: `"historie"`, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Record.RecordID != "VD18 10234567" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestLoadAbbreviatedTitleReachable(t *testing.T) {
	line := `{"title": "Hist. Theol.", "vd18_number": "VD18 12345678", "year": "1732"}`

	var w work
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		t.Fatal(err)
	}
	rec, ok := w.record()
	if !ok {
		t.Fatal("record unusable")
	}
	if rec.CleanTitle != "hist theol" {
		t.Errorf("CleanTitle = %q, want the literal fuzzy grade", rec.CleanTitle)
	}
	if !strings.Contains(rec.SearchText, "historie theologie") {
		t.Errorf("SearchText = %q, want the expanded index grade", rec.SearchText)
	}

	ix, err := index.Create(t.TempDir() + "/works.db")
	if err != nil {
		t.Fatal(err)
	}
	defer ix.Close()

	res, err := load(context.Background(), strings.NewReader(line), ix, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Indexed != 1 {
		t.Fatalf("Indexed = %d, want 1", res.Indexed)
	}

	// The abbreviated citation must come back through the same pipeline
	// that tokenizes queries.
	l := link.New(ix, nil, link.DefaultConfig())
	out, err := l.Link(context.Background(), "Hist. Theol. 1732", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Matched || out.RecordID != "VD18 12345678" {
		t.Errorf("result = %+v, want match on VD18 12345678", out)
	}
}

func TestFlexDecoding(t *testing.T) {
	var w work
	raw := `{"title": "T", "authors": "Einzelautor", "year": 1699.0, "place": ["Leipzig", ""], "vd_ids": []}`
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatal(err)
	}
	if len(w.Authors) != 1 || w.Authors[0] != "Einzelautor" {
		t.Errorf("Authors = %v", w.Authors)
	}
	if string(w.Year) != "1699" {
		t.Errorf("Year = %q", w.Year)
	}
	if len(w.Place) != 1 || w.Place[0] != "Leipzig" {
		t.Errorf("Place = %v", w.Place)
	}
	if w.recordID() != "" {
		t.Errorf("recordID = %q, want empty", w.recordID())
	}
}
