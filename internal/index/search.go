package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Search executes one boolean term query and returns hits ranked by
// relevance. Safe for concurrent use: the index is read-only.
func (ix *Index) Search(ctx context.Context, q Query) ([]Hit, error) {
	if strings.TrimSpace(q.Match) == "" {
		return nil, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	var sb strings.Builder
	sb.WriteString(`SELECT clean_author, clean_title, year, place, record_id, rank
		 FROM records WHERE records MATCH ?`)
	args := []any{q.Match}

	switch {
	case q.YearEq != 0:
		sb.WriteString(" AND CAST(year AS INTEGER) = ?")
		args = append(args, q.YearEq)
	case q.YearMin != 0 || q.YearMax != 0:
		sb.WriteString(" AND CAST(year AS INTEGER) BETWEEN ? AND ?")
		args = append(args, q.YearMin, q.YearMax)
	}

	if q.PreferYear != 0 {
		// Exact-year matches first, then ±1, then everything else by bm25.
		sb.WriteString(` ORDER BY CASE CAST(year AS INTEGER)
			WHEN ? THEN 2 WHEN ? THEN 1 WHEN ? THEN 1 ELSE 0 END DESC, rank`)
		args = append(args, q.PreferYear, q.PreferYear-1, q.PreferYear+1)
	} else {
		sb.WriteString(" ORDER BY rank")
	}
	sb.WriteString(" LIMIT ?")
	args = append(args, limit)

	rows, err := ix.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: fts query: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var year sql.NullString
		var rank float64
		if err := rows.Scan(&h.Record.CleanAuthor, &h.Record.CleanTitle, &year,
			&h.Record.Place, &h.Record.RecordID, &rank); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		h.Record.Year = parseYear(year)
		// bm25 rank is negative, more negative is better.
		h.Score = -rank
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// GetByIDs fetches the stored fields for a set of record identifiers.
// Ids are matched exactly as stored.
func (ix *Index) GetByIDs(ctx context.Context, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := ix.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT clean_author, clean_title, year, place, record_id
			 FROM records WHERE record_id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching records: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var year sql.NullString
		if err := rows.Scan(&r.CleanAuthor, &r.CleanTitle, &year, &r.Place, &r.RecordID); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.Year = parseYear(year)
		records = append(records, r)
	}
	return records, rows.Err()
}

func parseYear(v sql.NullString) int {
	if !v.Valid {
		return 0
	}
	year := 0
	for _, d := range v.String {
		if d < '0' || d > '9' {
			return 0
		}
		year = year*10 + int(d-'0')
	}
	return year
}
