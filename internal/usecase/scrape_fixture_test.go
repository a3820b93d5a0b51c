package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/infrastructure/tablestore"
	"github.com/riskibarqy/clash-tables/internal/infrastructure/tablestore/memory"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
)

var scrapeTime = time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() clock {
	return func() time.Time { return scrapeTime }
}

func intPtr(v int) *int { return &v }

// newTable binds a handler and an enabled gate to one memory table.
func newTable(t *testing.T, store *memory.Store, name string) (*tablestore.Handler, *tablestore.Gate) {
	t.Helper()
	h := tablestore.NewHandler(
		context.Background(),
		store,
		table.Credentials{ConnectionString: "memory"},
		tablestore.Config{TableName: name, UpsertEnabled: true, Workers: 4},
		logging.NewNop(),
	)
	t.Cleanup(func() { _ = h.Close() })
	return h, tablestore.NewGate(h, true)
}

func seed(t *testing.T, store *memory.Store, name string, rows ...table.Row) {
	t.Helper()
	client, err := store.CreateTableIfNotExists(context.Background(), name)
	if err != nil {
		t.Fatalf("create table %s: %v", name, err)
	}
	for _, row := range rows {
		if err := client.CreateEntity(context.Background(), row); err != nil {
			t.Fatalf("seed %s: %v", row.Key().String(), err)
		}
	}
}

func tableLen(t *testing.T, store *memory.Store, name string) int {
	t.Helper()
	tbl, ok := store.Table(name)
	if !ok {
		return 0
	}
	return tbl.Len()
}
