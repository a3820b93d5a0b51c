package usecase

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("clash-tables/internal/usecase")

func startScrapeSpan(ctx context.Context, name, tableName string) (context.Context, trace.Span) {
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attribute.String("table.name", tableName)))
}

// endScrapeSpan records the report counters on span and ends it. A disabled
// scrape is not an error.
func endScrapeSpan(span trace.Span, report ScrapeReport, err error) {
	span.SetAttributes(
		attribute.Int("scrape.fetched", report.Fetched),
		attribute.Int("scrape.skipped", report.Skipped),
		attribute.Int("scrape.failed", report.Failed),
		attribute.Int("rows.created", report.Rows.Created),
		attribute.Int("rows.upserted", report.Rows.Upserted),
		attribute.Int("rows.dropped", report.Rows.Dropped),
		attribute.Int("rows.failed", report.Rows.Failed),
	)
	if err != nil && !errors.Is(err, ErrDisabled) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
