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

type ClanConfig struct {
	Enabled             bool
	Clans               []string
	MemberScrapeEnabled bool
}

// ClanService records one row per watched clan per day and optionally
// drives the player scrape over each clan's members.
type ClanService struct {
	opener  gamedata.SessionOpener
	writer  table.Writer
	gate    table.ExistenceChecker
	players *PlayerService
	cfg     ClanConfig
	logger  *logging.Logger
	clock   clock
}

func NewClanService(
	opener gamedata.SessionOpener,
	writer table.Writer,
	gate table.ExistenceChecker,
	players *PlayerService,
	cfg ClanConfig,
	logger *logging.Logger,
) *ClanService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ClanService{
		opener:  opener,
		writer:  writer,
		gate:    gate,
		players: players,
		cfg:     cfg,
		logger:  logger.Named("clans"),
	}
}

func (s *ClanService) Process(ctx context.Context) (report ScrapeReport, err error) {
	ctx, span := startScrapeSpan(ctx, "usecase.ClanService.Process", s.writer.TableName())
	defer func() { endScrapeSpan(span, report, err) }()

	if !s.cfg.Enabled {
		return report, fmt.Errorf("%w: clans", ErrDisabled)
	}

	now := s.clock.now()
	pending := s.pending(ctx, s.cfg.Clans, now, &report)
	if len(pending) == 0 {
		s.logger.InfoContext(ctx, "every watched clan is already stored", "clans", len(s.cfg.Clans))
		return report, nil
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

	report.Merge(s.scrapeClans(ctx, session, pending, now))
	s.logger.InfoContext(ctx, "clan scrape finished", report.LogArgs()...)
	return report, nil
}

// ScrapeRankedClans scrapes a location leaderboard on a borrowed session.
func (s *ClanService) ScrapeRankedClans(ctx context.Context, session gamedata.Session, ranked []gamedata.RankedClan) ScrapeReport {
	var report ScrapeReport
	if s == nil || !s.cfg.Enabled {
		return report
	}

	tags := make([]string, 0, len(ranked))
	for _, clan := range ranked {
		tags = append(tags, clan.Tag)
	}
	now := s.clock.now()
	pending := s.pending(ctx, tags, now, &report)
	report.Merge(s.scrapeClans(ctx, session, pending, now))
	return report
}

func (s *ClanService) pending(ctx context.Context, tags []string, now time.Time, report *ScrapeReport) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		key := shaper.ClanKey(tag, now)
		if s.gate.ShouldAbandon(ctx, table.PointLookup(key.PartitionKey, key.RowKey)) {
			report.Skipped++
			continue
		}
		out = append(out, tag)
	}
	return out
}

func (s *ClanService) scrapeClans(ctx context.Context, session gamedata.Session, tags []string, now time.Time) ScrapeReport {
	var report ScrapeReport
	for _, tag := range tags {
		if ctx.Err() != nil {
			break
		}

		clan, err := session.Clan(ctx, tag)
		if err != nil {
			report.Failed++
			s.logger.WarnContext(ctx, "clan fetch failed", "tag", tag, "error", err)
			continue
		}
		report.Fetched++

		rows, err := shapeSafely(func() []table.Row { return shaper.Clan(clan, now) })
		if err != nil {
			report.Failed++
			s.logger.WarnContext(ctx, "clan could not be shaped", "tag", tag, "error", err)
			continue
		}
		report.Merge(ScrapeReport{Rows: writeRows(ctx, s.writer, rows)})

		if s.cfg.MemberScrapeEnabled {
			report.Merge(s.players.ScrapeMembers(ctx, session, shaper.MemberTags(clan)))
		}
	}
	return report
}
