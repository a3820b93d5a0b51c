package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/clash-tables/external/clashapi"
	"github.com/riskibarqy/clash-tables/external/staticdata"
	"github.com/riskibarqy/clash-tables/internal/config"
	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/infrastructure/tablestore"
	"github.com/riskibarqy/clash-tables/internal/infrastructure/tablestore/dynamo"
	"github.com/riskibarqy/clash-tables/internal/infrastructure/tablestore/memory"
	"github.com/riskibarqy/clash-tables/internal/infrastructure/tablestore/postgres"
	idgen "github.com/riskibarqy/clash-tables/internal/platform/id"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
	"github.com/riskibarqy/clash-tables/internal/platform/resilience"
	"github.com/riskibarqy/clash-tables/internal/usecase"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("clash-tables/internal/app")

type step struct {
	name string
	run  func(context.Context) (usecase.ScrapeReport, error)
}

// Scraper runs every table scrape once, in dependency order.
type Scraper struct {
	logger   *logging.Logger
	steps    []step
	handlers []*tablestore.Handler
	store    *memory.Store
}

// Deps lets tests replace the upstream API and the table store.
type Deps struct {
	Opener  gamedata.SessionOpener
	Dialer  table.Dialer
	Catalog gamedata.Catalog
	RunIDs  idgen.Generator
}

func NewScraper(ctx context.Context, cfg config.Config, settings config.Settings, logger *logging.Logger) (*Scraper, error) {
	if logger == nil {
		logger = logging.Default()
	}

	catalog, err := staticdata.Load(cfg.GameDataPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load game data: %w", err)
	}

	client := clashapi.NewClient(clashapi.ClientConfig{
		BaseURL:      cfg.ClashBaseURL,
		DeveloperURL: cfg.ClashDeveloperURL,
		Token:        cfg.ClashToken,
		Email:        cfg.ClashEmail,
		Password:     cfg.ClashPassword,
		KeyName:      cfg.ClashKeyName,
		Timeout:      cfg.ClashTimeout,
		MaxRetries:   cfg.ClashMaxRetries,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ClashCircuitEnabled,
			FailureThreshold: cfg.ClashCircuitFailures,
			OpenTimeout:      cfg.ClashCircuitOpen,
			HalfOpenMaxReq:   cfg.ClashCircuitHalfOpen,
		},
	})

	deps := Deps{Opener: client, Catalog: catalog, RunIDs: idgen.NewRunGenerator()}
	var store *memory.Store
	switch cfg.Backend {
	case config.BackendDynamo:
		deps.Dialer = dynamo.NewDialer(cfg.DynamoRegion, cfg.DynamoEndpoint, logger)
	case config.BackendPostgres:
		deps.Dialer = postgres.NewDialer(cfg.PostgresAppName, cfg.PostgresPageSize, logger)
	case config.BackendMemory:
		var opts []memory.Option
		if cfg.MemoryDumpEnabled {
			opts = append(opts, memory.WithOutputDir(cfg.OutputDir))
		}
		store = memory.NewStore(opts...)
		deps.Dialer = sharedDialer{store: store}
	default:
		return nil, fmt.Errorf("unsupported table backend %q", cfg.Backend)
	}

	creds := table.Credentials{
		ConnectionString: cfg.TableConnection,
		AccountName:      cfg.TableAccountName,
		AccessKey:        cfg.TableAccessKey,
	}
	if cfg.Backend == config.BackendMemory && !creds.HasConnectionString() {
		creds.ConnectionString = config.BackendMemory
	}

	s := Build(ctx, deps, creds, settings, logger)
	s.store = store
	return s, nil
}

// Build wires one handler and gate per table and the orchestrators over
// them.
func Build(ctx context.Context, deps Deps, creds table.Credentials, settings config.Settings, logger *logging.Logger) *Scraper {
	if logger == nil {
		logger = logging.Default()
	}
	if deps.RunIDs != nil {
		runID, err := deps.RunIDs.NewID()
		if err != nil {
			logger.Warn("generate run id", "error", err)
		} else {
			logger = logger.With("run_id", runID)
		}
	}
	s := &Scraper{logger: logger.Named("scraper")}

	open := func(ts config.TableSettings) (*tablestore.Handler, *tablestore.Gate) {
		h := tablestore.NewHandler(ctx, deps.Dialer, creds, tablestore.Config{
			TableName:     ts.TableName,
			UpsertEnabled: settings.Storage.UpsertEnabled,
			RetryCount:    settings.Storage.RetryCount,
			RetryBackoff:  settings.Storage.RetryBackoff,
			Workers:       settings.Storage.Workers,
		}, logger)
		s.handlers = append(s.handlers, h)
		return h, tablestore.NewGate(h, ts.AbandonScrapeIfEntityExists)
	}

	goldPassTable, goldPassGate := open(settings.GoldPass.TableSettings)
	troopTable, troopGate := open(settings.Troops.TableSettings)
	unitTable, unitGate := open(settings.PlayerUnits.TableSettings)
	playerTable, playerGate := open(settings.Players.TableSettings)
	clanTable, clanGate := open(settings.Clans.TableSettings)
	locationTable, locationGate := open(settings.Locations.TableSettings)

	goldPass := usecase.NewGoldPassService(deps.Opener, goldPassTable, goldPassGate, usecase.GoldPassConfig{
		Enabled:          settings.GoldPass.ScrapeEnabled,
		RetryCount:       settings.CocClient.RetryCount,
		RestartSleepTime: settings.CocClient.RestartSleepTime,
	}, logger)
	catalog := usecase.NewCatalogService(deps.Catalog, troopTable, troopGate, usecase.CatalogConfig{
		Enabled:     settings.Troops.ScrapeEnabled,
		Categories:  settings.Troops.Categories,
		AllowNullID: settings.Troops.NullIDScrapeEnabled,
		Workers:     settings.Troops.Workers,
		Items:       settings.Troops.Items,
	}, logger)
	units := usecase.NewPlayerUnitService(unitTable, unitGate, usecase.PlayerUnitConfig{
		Enabled:          settings.PlayerUnits.ScrapeEnabled,
		ValidationUnitID: settings.PlayerUnits.ValidationTroopID,
	}, logger)
	players := usecase.NewPlayerService(deps.Opener, deps.Catalog, playerTable, playerGate, units, usecase.PlayerConfig{
		Enabled: settings.Players.ScrapeEnabled,
		Players: settings.Players.Players,
	}, logger)
	clans := usecase.NewClanService(deps.Opener, clanTable, clanGate, players, usecase.ClanConfig{
		Enabled:             settings.Clans.ScrapeEnabled,
		Clans:               settings.Clans.Clans,
		MemberScrapeEnabled: settings.Clans.MemberScrapeEnabled,
	}, logger)
	locations := usecase.NewLocationService(deps.Opener, locationTable, locationGate, clans, usecase.LocationConfig{
		Enabled:         settings.Locations.ScrapeEnabled,
		RankedLocations: settings.Locations.RankedLocations,
		RankedClanLimit: settings.Locations.RankedClanLimit,
	}, logger)

	s.steps = []step{
		{name: "gold_pass", run: goldPass.Process},
		{name: "catalog", run: catalog.Process},
		{name: "locations", run: locations.Process},
		{name: "clans", run: clans.Process},
		{name: "players", run: players.Process},
	}
	return s
}

// Run executes every step. A failing step is logged and the run moves on;
// only cancellation stops it early.
func (s *Scraper) Run(ctx context.Context) (usecase.ScrapeReport, error) {
	ctx, span := tracer.Start(ctx, "scraper.Run")
	defer span.End()

	var total usecase.ScrapeReport
	var failed []string
	for _, st := range s.steps {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		report, err := st.run(ctx)
		switch {
		case errors.Is(err, usecase.ErrDisabled):
			s.logger.InfoContext(ctx, "scrape disabled", "step", st.name)
			continue
		case err != nil:
			failed = append(failed, st.name)
			s.logger.ErrorContext(ctx, "scrape step failed", "step", st.name, "error", err)
		}
		total.Merge(report)
	}

	span.SetAttributes(attribute.StringSlice("scrape.failed_steps", failed))
	s.logger.InfoContext(ctx, "scrape finished", append([]any{"failed_steps", failed}, total.LogArgs()...)...)
	return total, nil
}

// Close releases every table handle and flushes the memory store.
func (s *Scraper) Close() error {
	var errs []error
	for _, h := range s.handlers {
		if err := h.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close table %s: %w", h.TableName(), err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
