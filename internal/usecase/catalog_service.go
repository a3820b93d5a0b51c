package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
	"github.com/riskibarqy/clash-tables/internal/shaper"
	"github.com/sourcegraph/conc/pool"
)

type CatalogConfig struct {
	Enabled     bool
	Categories  []gamedata.Category
	AllowNullID bool
	Workers     int
	// Items overrides the default item order of a category.
	Items map[gamedata.Category][]string
}

// CatalogService records the static unit catalog once per month, one row
// per unit level.
type CatalogService struct {
	catalog gamedata.Catalog
	writer  table.Writer
	gate    table.ExistenceChecker
	cfg     CatalogConfig
	shaper  shaper.Catalog
	logger  *logging.Logger
	clock   clock
}

func NewCatalogService(
	catalog gamedata.Catalog,
	writer table.Writer,
	gate table.ExistenceChecker,
	cfg CatalogConfig,
	logger *logging.Logger,
) *CatalogService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &CatalogService{
		catalog: catalog,
		writer:  writer,
		gate:    gate,
		cfg:     cfg,
		shaper:  shaper.Catalog{AllowNullID: cfg.AllowNullID},
		logger:  logger.Named("catalog"),
	}
}

type itemOutcome struct {
	name    string
	rows    []table.Row
	skipped bool
	err     error
}

func (s *CatalogService) Process(ctx context.Context) (report ScrapeReport, err error) {
	ctx, span := startScrapeSpan(ctx, "usecase.CatalogService.Process", s.writer.TableName())
	defer func() { endScrapeSpan(span, report, err) }()

	if !s.cfg.Enabled {
		return report, fmt.Errorf("%w: catalog", ErrDisabled)
	}

	now := s.clock.now()
	var rows []table.Row
	for _, category := range s.cfg.Categories {
		if !category.Valid() {
			s.logger.ErrorContext(ctx, "skipping invalid category", "category", int(category))
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		categoryRows, categoryReport := s.scrapeCategory(ctx, category, now)
		rows = append(rows, categoryRows...)
		report.Merge(categoryReport)
	}

	if len(rows) > 0 {
		batch, err := s.writer.WriteBatch(ctx, rows)
		if err != nil {
			return report, fmt.Errorf("write catalog rows: %w", err)
		}
		report.Rows = batch
	}
	s.logger.InfoContext(ctx, "catalog scrape finished", report.LogArgs()...)
	return report, nil
}

func (s *CatalogService) items(category gamedata.Category) []string {
	if items, ok := s.cfg.Items[category]; ok {
		return items
	}
	return category.Items()
}

func (s *CatalogService) scrapeCategory(ctx context.Context, category gamedata.Category, now time.Time) ([]table.Row, ScrapeReport) {
	p := pool.NewWithResults[itemOutcome]().WithMaxGoroutines(s.cfg.Workers)
	for _, name := range s.items(category) {
		p.Go(func() itemOutcome {
			return s.scrapeItem(ctx, category, name, now)
		})
	}

	var (
		rows   []table.Row
		report ScrapeReport
	)
	for _, outcome := range p.Wait() {
		switch {
		case outcome.skipped:
			report.Skipped++
		case outcome.err != nil:
			report.Failed++
			s.logger.WarnContext(ctx, "catalog item scrape failed", "category", category.String(), "item", outcome.name, "error", outcome.err)
		default:
			report.Fetched++
			rows = append(rows, outcome.rows...)
		}
	}
	s.logger.DebugContext(ctx, "catalog category scraped", append([]any{"category", category.String(), "rows", len(rows)}, report.LogArgs()...)...)
	return rows, report
}

func (s *CatalogService) scrapeItem(ctx context.Context, category gamedata.Category, name string, now time.Time) itemOutcome {
	outcome := itemOutcome{name: name}
	if err := ctx.Err(); err != nil {
		outcome.err = err
		return outcome
	}

	filter := shaper.CatalogFilter(name, category.IsHomeVillage(name), now)
	if s.gate.ShouldAbandon(ctx, table.RangeLookup(filter)) {
		outcome.skipped = true
		return outcome
	}

	item, err := s.catalog.Item(ctx, category, name)
	if err != nil {
		outcome.err = err
		return outcome
	}
	if item.ID == nil && !s.cfg.AllowNullID {
		s.logger.DebugContext(ctx, "skipping catalog item without id", "category", category.String(), "item", name)
		outcome.skipped = true
		return outcome
	}

	outcome.rows, outcome.err = shapeSafely(func() []table.Row { return s.shaper.Shape(item, now) })
	if outcome.err == nil && len(outcome.rows) == 0 {
		s.logger.DebugContext(ctx, "catalog item has no levels", "category", category.String(), "item", name)
		outcome.skipped = true
	}
	return outcome
}
