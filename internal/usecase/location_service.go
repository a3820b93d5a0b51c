package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
	"github.com/riskibarqy/clash-tables/internal/shaper"
)

type LocationConfig struct {
	Enabled bool
	// RankedLocations are location ids whose clan leaderboards are scraped
	// through the clan service.
	RankedLocations []int
	RankedClanLimit int
}

// LocationService records every location once per month.
type LocationService struct {
	opener gamedata.SessionOpener
	writer table.Writer
	gate   table.ExistenceChecker
	clans  *ClanService
	cfg    LocationConfig
	logger *logging.Logger
	clock  clock
}

func NewLocationService(
	opener gamedata.SessionOpener,
	writer table.Writer,
	gate table.ExistenceChecker,
	clans *ClanService,
	cfg LocationConfig,
	logger *logging.Logger,
) *LocationService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LocationService{
		opener: opener,
		writer: writer,
		gate:   gate,
		clans:  clans,
		cfg:    cfg,
		logger: logger.Named("locations"),
	}
}

func (s *LocationService) Process(ctx context.Context) (report ScrapeReport, err error) {
	ctx, span := startScrapeSpan(ctx, "usecase.LocationService.Process", s.writer.TableName())
	defer func() { endScrapeSpan(span, report, err) }()

	if !s.cfg.Enabled {
		return report, fmt.Errorf("%w: locations", ErrDisabled)
	}

	session, err := s.opener.Open(ctx)
	if err != nil {
		return report, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			s.logger.WarnContext(ctx, "close clash api session", "error", closeErr)
		}
	}()

	locations, err := session.Locations(ctx)
	if err != nil {
		return report, fmt.Errorf("list locations: %w", err)
	}

	now := s.clock.now()
	var rows []table.Row
	for _, location := range locations {
		key := shaper.LocationKey(location.ID, now)
		if s.gate.ShouldAbandon(ctx, table.PointLookup(key.PartitionKey, key.RowKey)) {
			report.Skipped++
			continue
		}
		shaped, err := shapeSafely(func() []table.Row { return shaper.Location(location, now) })
		if err != nil {
			report.Failed++
			s.logger.WarnContext(ctx, "location could not be shaped", "location_id", location.ID, "error", err)
			continue
		}
		report.Fetched++
		rows = append(rows, shaped...)
	}
	report.Merge(ScrapeReport{Rows: writeRows(ctx, s.writer, rows)})

	for _, id := range s.cfg.RankedLocations {
		if ctx.Err() != nil {
			break
		}
		ranked, err := session.LocationClanRankings(ctx, id, s.cfg.RankedClanLimit)
		if err != nil {
			report.Failed++
			s.logger.WarnContext(ctx, "clan rankings fetch failed", "location_id", id, "error", err)
			continue
		}
		report.Merge(s.clans.ScrapeRankedClans(ctx, session, ranked))
	}

	s.logger.InfoContext(ctx, "location scrape finished", report.LogArgs()...)
	return report, nil
}
