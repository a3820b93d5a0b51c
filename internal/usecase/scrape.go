package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/sourcegraph/conc/panics"
)

// ScrapeReport summarises one orchestrator run. Skipped counts entities the
// existence gate abandoned; Failed counts fetch or shaping failures.
type ScrapeReport struct {
	Fetched int
	Skipped int
	Failed  int
	Rows    table.BatchResult
}

func (r *ScrapeReport) Merge(other ScrapeReport) {
	r.Fetched += other.Fetched
	r.Skipped += other.Skipped
	r.Failed += other.Failed
	for _, res := range other.Rows.Results {
		r.Rows.Add(res)
	}
}

// LogArgs renders the report as logger key/value pairs.
func (r ScrapeReport) LogArgs() []any {
	return []any{
		"fetched", r.Fetched,
		"skipped", r.Skipped,
		"failed", r.Failed,
		"created", r.Rows.Created,
		"upserted", r.Rows.Upserted,
		"dropped", r.Rows.Dropped,
		"write_failed", r.Rows.Failed,
	}
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// shapeSafely turns a panicking shaper into an error for the current item.
func shapeSafely(shape func() []table.Row) (rows []table.Row, err error) {
	var catcher panics.Catcher
	catcher.Try(func() {
		rows = shape()
	})
	if recovered := catcher.Recovered(); recovered != nil {
		return nil, fmt.Errorf("shape rows: %w", recovered.AsError())
	}
	return rows, nil
}

// writeRows persists rows through writer. A single row skips the pool.
func writeRows(ctx context.Context, writer table.Writer, rows []table.Row) table.BatchResult {
	var batch table.BatchResult
	switch len(rows) {
	case 0:
		return batch
	case 1:
		batch.Add(writer.WriteRow(ctx, rows[0]))
		return batch
	}

	batch, err := writer.WriteBatch(ctx, rows)
	if err != nil {
		for _, row := range rows {
			batch.Add(table.WriteResult{Key: row.Key(), Err: err})
		}
	}
	return batch
}
