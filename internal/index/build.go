package index

import (
	"context"
	"fmt"
)

// AddBatch inserts records in chunked transactions. Records with an
// empty RecordID or a search text shorter than one trigram are skipped;
// the number of records actually inserted is returned.
func (ix *Index) AddBatch(ctx context.Context, records []Record) (int, error) {
	inserted := 0
	for start := 0; start < len(records); start += DefaultBatchSize {
		end := start + DefaultBatchSize
		if end > len(records) {
			end = len(records)
		}
		n, err := ix.insertChunk(ctx, records[start:end])
		inserted += n
		if err != nil {
			return inserted, fmt.Errorf("batch insert %d-%d: %w", start, end, err)
		}
	}
	return inserted, nil
}

func (ix *Index) insertChunk(ctx context.Context, records []Record) (int, error) {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (search_text, clean_author, clean_title, year, place, record_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		if r.RecordID == "" || len(r.SearchText) < minSearchTextLen {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			r.SearchText, r.CleanAuthor, r.CleanTitle, r.Year, r.Place, r.RecordID,
		); err != nil {
			return inserted, fmt.Errorf("inserting record %s: %w", r.RecordID, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("committing batch: %w", err)
	}
	return inserted, nil
}

// Optimize merges the FTS b-trees after a bulk build. Call once, after
// the last AddBatch and before the snapshot is served read-only.
func (ix *Index) Optimize(ctx context.Context) error {
	if _, err := ix.db.ExecContext(ctx, "INSERT INTO records(records) VALUES('optimize')"); err != nil {
		return fmt.Errorf("optimizing index: %w", err)
	}
	return nil
}
