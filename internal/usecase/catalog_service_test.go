package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/infrastructure/tablestore/memory"
	gamedatamock "github.com/riskibarqy/clash-tables/internal/mocks/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

var catalogItems = []string{"Barbarian", "Archer", "Giant", "Goblin", "Wall Breaker"}

func catalogItem(_ context.Context, category gamedata.Category, name string) (gamedata.Item, error) {
	for i, candidate := range catalogItems {
		if candidate == name {
			return gamedata.Item{
				ID:       intPtr(4000000 + i),
				Name:     name,
				Category: category,
				Village:  gamedata.VillageHome,
				Level:    []int{1, 2},
				DPS:      []float64{8, 11},
			}, nil
		}
	}
	return gamedata.Item{}, errors.New("unknown item")
}

func newCatalogService(t *testing.T, store *memory.Store, catalog gamedata.Catalog, cfg CatalogConfig) *CatalogService {
	t.Helper()
	h, gate := newTable(t, store, "troops")
	svc := NewCatalogService(catalog, h, gate, cfg, logging.NewNop())
	svc.clock = fixedClock()
	return svc
}

func TestCatalogService_Process_GateShortCircuitsStoredItems(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seed(t, store, "troops", table.Row{
		PartitionKey: "4000002_1",
		RowKey:       "2024-05",
		Columns:      map[string]any{"Name": "Giant", "IsHomeVillage": true},
	})

	catalog := gamedatamock.NewCatalog(t)
	catalog.On("Item", mock.Anything, gamedata.CategoryHomeTroop, mock.AnythingOfType("string")).Return(catalogItem).Times(4)

	svc := newCatalogService(t, store, catalog, CatalogConfig{
		Enabled:    true,
		Categories: []gamedata.Category{gamedata.CategoryHomeTroop},
		Workers:    3,
		Items:      map[gamedata.Category][]string{gamedata.CategoryHomeTroop: catalogItems},
	})
	report, err := svc.Process(context.Background())
	if err != nil {
		t.Fatalf("process catalog: %v", err)
	}

	catalog.AssertNotCalled(t, "Item", mock.Anything, gamedata.CategoryHomeTroop, "Giant")
	if report.Skipped != 1 || report.Fetched != 4 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Rows.Created != 8 {
		t.Fatalf("expected 8 level rows, got %+v", report.Rows)
	}
	if got := tableLen(t, store, "troops"); got != 9 {
		t.Fatalf("expected 9 rows in table, got %d", got)
	}
}

func TestCatalogService_Process_IsolatesItemFailures(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	catalog := gamedatamock.NewCatalog(t)
	catalog.On("Item", mock.Anything, gamedata.CategoryHomeTroop, mock.AnythingOfType("string")).Return(catalogItem).Times(3)

	svc := newCatalogService(t, store, catalog, CatalogConfig{
		Enabled:    true,
		Categories: []gamedata.Category{gamedata.CategoryHomeTroop},
		Items:      map[gamedata.Category][]string{gamedata.CategoryHomeTroop: {"Barbarian", "Mystery", "Archer"}},
	})
	report, err := svc.Process(context.Background())
	if err != nil {
		t.Fatalf("process catalog: %v", err)
	}
	if report.Failed != 1 || report.Fetched != 2 || tableLen(t, store, "troops") != 4 {
		t.Fatalf("expected the unknown item to fail alone, got %+v", report)
	}
}

func TestCatalogService_Process_NullIDPolicy(t *testing.T) {
	t.Parallel()

	nameless := func(_ context.Context, category gamedata.Category, name string) (gamedata.Item, error) {
		return gamedata.Item{Name: name, Category: category, Village: gamedata.VillageHome, Level: []int{1}}, nil
	}

	for _, tc := range []struct {
		name      string
		allowNull bool
		wantRows  int
	}{
		{name: "skipped", allowNull: false, wantRows: 0},
		{name: "scraped", allowNull: true, wantRows: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := memory.NewStore()
			catalog := gamedatamock.NewCatalog(t)
			catalog.On("Item", mock.Anything, gamedata.CategoryPet, "Unicorn").Return(nameless).Once()

			svc := newCatalogService(t, store, catalog, CatalogConfig{
				Enabled:     true,
				AllowNullID: tc.allowNull,
				Categories:  []gamedata.Category{gamedata.CategoryPet},
				Items:       map[gamedata.Category][]string{gamedata.CategoryPet: {"Unicorn"}},
			})
			if _, err := svc.Process(context.Background()); err != nil {
				t.Fatalf("process catalog: %v", err)
			}
			if got := tableLen(t, store, "troops"); got != tc.wantRows {
				t.Fatalf("expected %d rows, got %d", tc.wantRows, got)
			}
		})
	}
}

func TestCatalogService_Process_ItemWithoutLevelsIsSkipped(t *testing.T) {
	t.Parallel()

	levelless := func(_ context.Context, category gamedata.Category, name string) (gamedata.Item, error) {
		return gamedata.Item{ID: intPtr(73000000), Name: name, Category: category, Village: gamedata.VillageHome}, nil
	}

	store := memory.NewStore()
	catalog := gamedatamock.NewCatalog(t)
	catalog.On("Item", mock.Anything, gamedata.CategoryPet, "Spirit Fox").Return(levelless).Once()

	svc := newCatalogService(t, store, catalog, CatalogConfig{
		Enabled:    true,
		Categories: []gamedata.Category{gamedata.CategoryPet},
		Items:      map[gamedata.Category][]string{gamedata.CategoryPet: {"Spirit Fox"}},
	})
	report, err := svc.Process(context.Background())
	if err != nil {
		t.Fatalf("process catalog: %v", err)
	}
	if report.Failed != 0 || report.Skipped != 1 || report.Fetched != 0 {
		t.Fatalf("expected level-less item to be skipped, got %+v", report)
	}
	if got := tableLen(t, store, "troops"); got != 0 {
		t.Fatalf("expected no rows, got %d", got)
	}
}

func TestCatalogService_Process_Disabled(t *testing.T) {
	t.Parallel()

	svc := newCatalogService(t, memory.NewStore(), gamedatamock.NewCatalog(t), CatalogConfig{})
	if _, err := svc.Process(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
