package report

import (
	"encoding/json"
	"fmt"
	"time"

	"StarReport/internal/domain"
)

// Column names understood by chart directives and the embedded blob.
const (
	ColumnWeekStart = "week_start"
	ColumnReal      = "real_count"
	ColumnFake      = "fake_count"
	ColumnTotal     = "total_count"
)

// ChartDirective describes one rendering instruction embedded in the
// artifact: a bar chart of column Y over ColumnWeekStart, limited to the
// trailing number of buckets (0 means the full series).
type ChartDirective struct {
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	X        string `json:"x"`
	Y        string `json:"y"`
	Trailing int    `json:"trailing"`
}

// seriesBlob is the self-describing payload embedded in the artifact. A
// downstream viewer can reconstruct the exact bucket table from it without
// re-running the pipeline.
type seriesBlob struct {
	Schema []string    `json:"schema"`
	Rows   []seriesRow `json:"rows"`
}

type seriesRow struct {
	WeekStart string `json:"week_start"`
	Real      int    `json:"real_count"`
	Fake      int    `json:"fake_count"`
	Total     int    `json:"total_count"`
}

func encodeSeries(buckets []domain.WeekBucket) ([]byte, error) {
	blob := seriesBlob{
		Schema: []string{ColumnWeekStart, ColumnReal, ColumnFake, ColumnTotal},
		Rows:   make([]seriesRow, 0, len(buckets)),
	}
	for _, b := range buckets {
		blob.Rows = append(blob.Rows, seriesRow{
			WeekStart: b.WeekStart.UTC().Format(time.RFC3339),
			Real:      b.Real,
			Fake:      b.Fake,
			Total:     b.Total,
		})
	}
	return json.MarshalIndent(blob, "", "  ")
}

func decodeSeries(raw []byte) ([]domain.WeekBucket, error) {
	var blob seriesBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, fmt.Errorf("decode series blob: %w", err)
	}

	buckets := make([]domain.WeekBucket, 0, len(blob.Rows))
	for _, row := range blob.Rows {
		weekStart, err := time.Parse(time.RFC3339, row.WeekStart)
		if err != nil {
			return nil, fmt.Errorf("decode week start %q: %w", row.WeekStart, err)
		}
		buckets = append(buckets, domain.WeekBucket{
			WeekStart: weekStart,
			Real:      row.Real,
			Fake:      row.Fake,
			Total:     row.Total,
		})
	}
	return buckets, nil
}

// columnValue maps a directive Y column to a bucket field accessor.
func columnValue(column string) (func(domain.WeekBucket) int, error) {
	switch column {
	case ColumnReal:
		return func(b domain.WeekBucket) int { return b.Real }, nil
	case ColumnFake:
		return func(b domain.WeekBucket) int { return b.Fake }, nil
	case ColumnTotal:
		return func(b domain.WeekBucket) int { return b.Total }, nil
	default:
		return nil, fmt.Errorf("unknown chart column %q", column)
	}
}
