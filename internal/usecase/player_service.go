package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
	"github.com/riskibarqy/clash-tables/internal/shaper"
)

type PlayerConfig struct {
	Enabled bool
	// Players are scraped by Process; clan members go through ScrapeMembers.
	Players []string
}

// PlayerService records one row per player per day and hands each fetched
// player to the unit service.
type PlayerService struct {
	opener  gamedata.SessionOpener
	catalog gamedata.Catalog
	writer  table.Writer
	gate    table.ExistenceChecker
	units   *PlayerUnitService
	cfg     PlayerConfig
	logger  *logging.Logger
	clock   clock
}

func NewPlayerService(
	opener gamedata.SessionOpener,
	catalog gamedata.Catalog,
	writer table.Writer,
	gate table.ExistenceChecker,
	units *PlayerUnitService,
	cfg PlayerConfig,
	logger *logging.Logger,
) *PlayerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayerService{
		opener:  opener,
		catalog: catalog,
		writer:  writer,
		gate:    gate,
		units:   units,
		cfg:     cfg,
		logger:  logger.Named("players"),
	}
}

// Process scrapes the configured players on a session it owns.
func (s *PlayerService) Process(ctx context.Context) (report ScrapeReport, err error) {
	ctx, span := startScrapeSpan(ctx, "usecase.PlayerService.Process", s.writer.TableName())
	defer func() { endScrapeSpan(span, report, err) }()

	if !s.cfg.Enabled {
		return ScrapeReport{}, fmt.Errorf("%w: players", ErrDisabled)
	}
	if len(s.cfg.Players) == 0 {
		return ScrapeReport{}, nil
	}

	session, err := s.opener.Open(ctx)
	if err != nil {
		return ScrapeReport{}, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			s.logger.WarnContext(ctx, "close clash api session", "error", closeErr)
		}
	}()

	report = s.ScrapeMembers(ctx, session, s.cfg.Players)
	s.logger.InfoContext(ctx, "player scrape finished", report.LogArgs()...)
	return report, nil
}

// ScrapeMembers scrapes tags on a borrowed session. A disabled service
// returns an empty report.
func (s *PlayerService) ScrapeMembers(ctx context.Context, session gamedata.Session, tags []string) ScrapeReport {
	var report ScrapeReport
	if s == nil || !s.cfg.Enabled {
		return report
	}

	now := s.clock.now()
	for _, tag := range tags {
		if ctx.Err() != nil {
			break
		}
		report.Merge(s.scrapePlayer(ctx, session, tag, now))
	}
	return report
}

func (s *PlayerService) scrapePlayer(ctx context.Context, session gamedata.Session, tag string, now time.Time) ScrapeReport {
	var report ScrapeReport
	key := shaper.PlayerKey(tag, now)
	if s.gate.ShouldAbandon(ctx, table.PointLookup(key.PartitionKey, key.RowKey)) {
		report.Skipped++
		return report
	}

	player, err := session.Player(ctx, tag)
	if err != nil {
		report.Failed++
		s.logger.WarnContext(ctx, "player fetch failed", "tag", tag, "error", err)
		return report
	}
	report.Fetched++
	if s.catalog != nil {
		s.catalog.Enrich(ctx, &player)
	}

	rows, err := shapeSafely(func() []table.Row { return shaper.Player(player, now) })
	if err != nil {
		report.Failed++
		s.logger.WarnContext(ctx, "player could not be shaped", "tag", tag, "error", err)
		return report
	}
	report.Rows = writeRows(ctx, s.writer, rows)
	report.Merge(s.units.Process(ctx, player))
	return report
}
