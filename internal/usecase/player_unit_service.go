package usecase

import (
	"context"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
	"github.com/riskibarqy/clash-tables/internal/shaper"
)

type PlayerUnitConfig struct {
	Enabled bool
	// ValidationUnitID is the unit whose row stands in for the whole player
	// when checking whether today's units are already stored.
	ValidationUnitID int
}

// PlayerUnitService records every unit a fetched player owns.
type PlayerUnitService struct {
	writer table.Writer
	gate   table.ExistenceChecker
	cfg    PlayerUnitConfig
	logger *logging.Logger
	clock  clock
}

func NewPlayerUnitService(writer table.Writer, gate table.ExistenceChecker, cfg PlayerUnitConfig, logger *logging.Logger) *PlayerUnitService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayerUnitService{
		writer: writer,
		gate:   gate,
		cfg:    cfg,
		logger: logger.Named("player_units"),
	}
}

func (s *PlayerUnitService) Process(ctx context.Context, player gamedata.Player) ScrapeReport {
	var report ScrapeReport
	if s == nil || !s.cfg.Enabled {
		return report
	}

	now := s.clock.now()
	key := shaper.PlayerUnitKey(player.Tag, s.cfg.ValidationUnitID, now)
	if s.gate.ShouldAbandon(ctx, table.PointLookup(key.PartitionKey, key.RowKey)) {
		report.Skipped++
		return report
	}

	rows, err := shapeSafely(func() []table.Row { return shaper.PlayerUnits(player, now) })
	if err != nil {
		report.Failed++
		s.logger.WarnContext(ctx, "player units could not be shaped", "tag", player.Tag, "error", err)
		return report
	}
	report.Fetched++
	report.Rows = writeRows(ctx, s.writer, rows)
	s.logger.DebugContext(ctx, "player units written", append([]any{"tag", player.Tag}, report.LogArgs()...)...)
	return report
}
