package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
	"github.com/riskibarqy/clash-tables/internal/platform/resilience"
	"github.com/riskibarqy/clash-tables/internal/shaper"
)

type GoldPassConfig struct {
	Enabled bool
	// RetryCount bounds session restarts when the season fetch fails.
	RetryCount       int
	RestartSleepTime time.Duration
}

// GoldPassService records the current gold pass season once per month.
type GoldPassService struct {
	opener gamedata.SessionOpener
	writer table.Writer
	gate   table.ExistenceChecker
	cfg    GoldPassConfig
	logger *logging.Logger
	clock  clock
}

func NewGoldPassService(
	opener gamedata.SessionOpener,
	writer table.Writer,
	gate table.ExistenceChecker,
	cfg GoldPassConfig,
	logger *logging.Logger,
) *GoldPassService {
	if logger == nil {
		logger = logging.Default()
	}
	return &GoldPassService{
		opener: opener,
		writer: writer,
		gate:   gate,
		cfg:    cfg,
		logger: logger.Named("gold_pass"),
	}
}

func (s *GoldPassService) Process(ctx context.Context) (report ScrapeReport, err error) {
	ctx, span := startScrapeSpan(ctx, "usecase.GoldPassService.Process", s.writer.TableName())
	defer func() { endScrapeSpan(span, report, err) }()

	if !s.cfg.Enabled {
		return report, fmt.Errorf("%w: gold pass", ErrDisabled)
	}

	now := s.clock.now()
	key := shaper.SeasonKey(now)
	if s.gate.ShouldAbandon(ctx, table.PointLookup(key.PartitionKey, key.RowKey)) {
		s.logger.InfoContext(ctx, "gold pass season already stored", "key", key.String())
		report.Skipped++
		return report, nil
	}

	season, err := s.fetchSeason(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch gold pass season: %w", err)
	}
	report.Fetched++

	rows, err := shapeSafely(func() []table.Row { return shaper.Season(season, now) })
	if err != nil {
		report.Failed++
		return report, err
	}
	report.Rows = writeRows(ctx, s.writer, rows)
	s.logger.InfoContext(ctx, "gold pass scrape finished", report.LogArgs()...)
	return report, nil
}

// fetchSeason opens a fresh session per attempt so a broken login is
// replaced rather than reused.
func (s *GoldPassService) fetchSeason(ctx context.Context) (gamedata.Season, error) {
	var season gamedata.Season
	retrier := resilience.Retrier{
		Retries: s.cfg.RetryCount,
		Backoff: func(int) time.Duration { return s.cfg.RestartSleepTime },
		Retryable: func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
		OnRetry: func(ctx context.Context, attempt int, err error) {
			s.logger.WarnContext(ctx, "restarting clash api session",
				"attempt", attempt+1,
				"sleep", s.cfg.RestartSleepTime.String(),
				"error", err,
			)
		},
	}

	err := retrier.Do(ctx, func(ctx context.Context, _ int) error {
		session, err := s.opener.Open(ctx)
		if err != nil {
			return fmt.Errorf("open session: %w", err)
		}
		defer func() {
			if closeErr := session.Close(); closeErr != nil {
				s.logger.WarnContext(ctx, "close clash api session", "error", closeErr)
			}
		}()

		season, err = session.GoldPassSeason(ctx)
		return err
	})
	return season, err
}
