package app

import (
	"context"

	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/infrastructure/tablestore/memory"
)

// sharedDialer hands every handler the same in-memory store. Handlers may
// close their service on reconnect, so the store is flushed only by the
// scraper.
type sharedDialer struct {
	store *memory.Store
}

func (d sharedDialer) DialConnectionString(context.Context, string) (table.Service, error) {
	return sharedService{Service: d.store}, nil
}

func (d sharedDialer) DialSharedKey(context.Context, string, string) (table.Service, error) {
	return sharedService{Service: d.store}, nil
}

type sharedService struct {
	table.Service
}

func (sharedService) Close() error {
	return nil
}
