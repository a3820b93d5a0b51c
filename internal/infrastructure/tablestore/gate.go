package tablestore

import (
	"context"
	"errors"

	"github.com/riskibarqy/clash-tables/internal/domain/table"
)

// Gate short-circuits scrapes whose rows already exist. Lookup errors fail
// open: the caller re-scrapes rather than silently losing data.
type Gate struct {
	handler *Handler
	enabled bool
}

func NewGate(handler *Handler, enabled bool) *Gate {
	return &Gate{handler: handler, enabled: enabled}
}

func (g *Gate) Enabled() bool {
	return g != nil && g.enabled && g.handler != nil
}

var _ table.ExistenceChecker = (*Gate)(nil)

func (g *Gate) ShouldAbandon(ctx context.Context, lookup table.Lookup) bool {
	if !g.Enabled() {
		return false
	}
	if key, ok := lookup.Point(); ok {
		return g.exists(ctx, key)
	}
	return g.matches(ctx, lookup.Filter())
}

func (g *Gate) exists(ctx context.Context, key table.Key) bool {
	if g.handler.Known(ctx, key) {
		return true
	}

	_, err := g.handler.GetRow(ctx, key.PartitionKey, key.RowKey, table.ColumnPartitionKey)
	switch {
	case err == nil:
		g.handler.remember(ctx, key)
		g.handler.logger.DebugContext(ctx, "entity exists, abandoning scrape", "key", key.String())
		return true
	case errors.Is(err, table.ErrNotFound):
		return false
	default:
		g.handler.logger.WarnContext(ctx, "existence check failed, scraping anyway", "key", key.String(), "error", err)
		return false
	}
}

func (g *Gate) matches(ctx context.Context, filter table.Filter) bool {
	if len(filter) == 0 {
		return false
	}
	for row, err := range g.handler.QueryRows(ctx, filter, table.ColumnPartitionKey) {
		if err != nil {
			g.handler.logger.WarnContext(ctx, "existence query failed, scraping anyway", "filter", filter.String(), "error", err)
			return false
		}
		g.handler.logger.DebugContext(ctx, "matching entity exists, abandoning scrape", "filter", filter.String(), "partition_key", row.PartitionKey)
		return true
	}
	return false
}
