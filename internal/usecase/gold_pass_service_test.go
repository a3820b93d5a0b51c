package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/infrastructure/tablestore/memory"
	gamedatamock "github.com/riskibarqy/clash-tables/internal/mocks/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

var currentSeason = gamedata.Season{
	StartTime: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	EndTime:   time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
}

func newGoldPassService(t *testing.T, store *memory.Store, opener gamedata.SessionOpener, cfg GoldPassConfig) *GoldPassService {
	t.Helper()
	h, gate := newTable(t, store, "goldpass")
	svc := NewGoldPassService(opener, h, gate, cfg, logging.NewNop())
	svc.clock = fixedClock()
	return svc
}

func TestGoldPassService_Process_WritesCurrentSeason(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	opener := gamedatamock.NewSessionOpener(t)
	session := gamedatamock.NewOwnedSession(t)

	opener.On("Open", mock.Anything).Return(session, nil).Once()
	session.On("GoldPassSeason", mock.Anything).Return(currentSeason, nil).Once()
	session.On("Close").Return(nil).Once()

	svc := newGoldPassService(t, store, opener, GoldPassConfig{Enabled: true})
	report, err := svc.Process(ctx)
	if err != nil {
		t.Fatalf("process gold pass: %v", err)
	}
	if report.Rows.Created != 1 {
		t.Fatalf("expected one created row, got %+v", report.Rows)
	}

	tbl, _ := store.Table("goldpass")
	row, err := tbl.GetEntity(ctx, "2024", "05", nil)
	if err != nil {
		t.Fatalf("get season row: %v", err)
	}
	if row.Columns["SeasonId"] != "2024-05" || !table.ValuesEqual(row.Columns["Duration"], 31.0) {
		t.Fatalf("unexpected season row: %+v", row.Columns)
	}
}

func TestGoldPassService_Process_RestartsSessionAfterFailure(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	opener := gamedatamock.NewSessionOpener(t)
	broken := gamedatamock.NewOwnedSession(t)
	healthy := gamedatamock.NewOwnedSession(t)

	opener.On("Open", mock.Anything).Return(broken, nil).Once()
	opener.On("Open", mock.Anything).Return(healthy, nil).Once()
	broken.On("GoldPassSeason", mock.Anything).Return(gamedata.Season{}, errors.New("session expired")).Once()
	broken.On("Close").Return(nil).Once()
	healthy.On("GoldPassSeason", mock.Anything).Return(currentSeason, nil).Once()
	healthy.On("Close").Return(nil).Once()

	svc := newGoldPassService(t, store, opener, GoldPassConfig{Enabled: true, RetryCount: 2})
	report, err := svc.Process(context.Background())
	if err != nil {
		t.Fatalf("process gold pass: %v", err)
	}
	if report.Fetched != 1 || tableLen(t, store, "goldpass") != 1 {
		t.Fatalf("expected season to be stored after restart, report=%+v", report)
	}
}

func TestGoldPassService_Process_GivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	opener := gamedatamock.NewSessionOpener(t)
	opener.On("Open", mock.Anything).Return(nil, errors.New("login rejected")).Times(2)

	svc := newGoldPassService(t, store, opener, GoldPassConfig{Enabled: true, RetryCount: 1})
	if _, err := svc.Process(context.Background()); err == nil {
		t.Fatalf("expected error after retries")
	}
	if tableLen(t, store, "goldpass") != 0 {
		t.Fatalf("expected nothing to be written")
	}
}

func TestGoldPassService_Process_SkipsStoredSeason(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seed(t, store, "goldpass", table.Row{PartitionKey: "2024", RowKey: "05", Columns: map[string]any{"SeasonId": "2024-05"}})
	opener := gamedatamock.NewSessionOpener(t)

	svc := newGoldPassService(t, store, opener, GoldPassConfig{Enabled: true})
	report, err := svc.Process(context.Background())
	if err != nil {
		t.Fatalf("process gold pass: %v", err)
	}
	if report.Skipped != 1 {
		t.Fatalf("expected stored season to be skipped, got %+v", report)
	}
}

func TestGoldPassService_Process_Disabled(t *testing.T) {
	t.Parallel()

	svc := newGoldPassService(t, memory.NewStore(), gamedatamock.NewSessionOpener(t), GoldPassConfig{})
	if _, err := svc.Process(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
