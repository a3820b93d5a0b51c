package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"gopkg.in/yaml.v3"
)

// TableSettings is shared by every scraped table.
type TableSettings struct {
	TableName                   string `yaml:"table_name" validate:"required,max=63"`
	ScrapeEnabled               bool   `yaml:"scrape_enabled"`
	AbandonScrapeIfEntityExists bool   `yaml:"abandon_scrape_if_entity_exists"`
}

type StorageSettings struct {
	UpsertEnabled bool          `yaml:"upsert_enabled"`
	RetryCount    int           `yaml:"retry_count" validate:"gte=0,lte=10"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" validate:"gte=0"`
	Workers       int           `yaml:"workers" validate:"gte=1,lte=64"`
}

type ClientSettings struct {
	RestartSleepTime time.Duration `yaml:"restart_sleep_time" validate:"gte=0"`
	RetryCount       int           `yaml:"retry_count" validate:"gte=0,lte=20"`
}

type GoldPassSettings struct {
	TableSettings `yaml:",inline"`
}

type TroopSettings struct {
	TableSettings       `yaml:",inline"`
	Categories          []gamedata.Category            `yaml:"categories" validate:"dive,required"`
	NullIDScrapeEnabled bool                           `yaml:"null_id_scrape_enabled"`
	Workers             int                            `yaml:"workers" validate:"gte=1,lte=64"`
	Items               map[gamedata.Category][]string `yaml:"items" validate:"dive,dive,required"`
}

type ClanSettings struct {
	TableSettings       `yaml:",inline"`
	Clans               []string `yaml:"clans" validate:"max=500,dive,required"`
	MemberScrapeEnabled bool     `yaml:"member_scrape_enabled"`
}

type PlayerSettings struct {
	TableSettings `yaml:",inline"`
	Players       []string `yaml:"players" validate:"max=500,dive,required"`
}

type PlayerUnitSettings struct {
	TableSettings     `yaml:",inline"`
	ValidationTroopID int `yaml:"validation_troop_id" validate:"gt=0"`
}

type LocationSettings struct {
	TableSettings   `yaml:",inline"`
	RankedLocations []int `yaml:"ranked_locations" validate:"dive,gt=0"`
	RankedClanLimit int   `yaml:"ranked_clan_limit" validate:"gte=1,lte=200"`
}

// Settings is the per-table scrape configuration. It is read once at
// startup and passed by value into constructors.
type Settings struct {
	Storage     StorageSettings    `yaml:"storage"`
	CocClient   ClientSettings     `yaml:"coc_client"`
	GoldPass    GoldPassSettings   `yaml:"gold_pass"`
	Troops      TroopSettings      `yaml:"troops"`
	Clans       ClanSettings       `yaml:"clans"`
	Players     PlayerSettings     `yaml:"players"`
	PlayerUnits PlayerUnitSettings `yaml:"player_units"`
	Locations   LocationSettings   `yaml:"locations"`
}

var settingsValidator = validator.New()

// DefaultSettings returns the settings used when a field is absent from the
// settings file.
func DefaultSettings() Settings {
	return Settings{
		Storage: StorageSettings{
			UpsertEnabled: true,
			RetryCount:    3,
			RetryBackoff:  2 * time.Second,
			Workers:       8,
		},
		CocClient: ClientSettings{
			RestartSleepTime: 30 * time.Second,
			RetryCount:       3,
		},
		GoldPass: GoldPassSettings{TableSettings{TableName: "goldpass", ScrapeEnabled: true, AbandonScrapeIfEntityExists: true}},
		Troops: TroopSettings{
			TableSettings: TableSettings{TableName: "troops", ScrapeEnabled: true, AbandonScrapeIfEntityExists: true},
			Categories:    gamedata.AllCategories(),
			Workers:       4,
		},
		Clans:       ClanSettings{TableSettings: TableSettings{TableName: "clans", ScrapeEnabled: true, AbandonScrapeIfEntityExists: true}},
		Players:     PlayerSettings{TableSettings: TableSettings{TableName: "players", ScrapeEnabled: true, AbandonScrapeIfEntityExists: true}},
		PlayerUnits: PlayerUnitSettings{TableSettings: TableSettings{TableName: "playertroops", ScrapeEnabled: true, AbandonScrapeIfEntityExists: true}, ValidationTroopID: 4000000},
		Locations: LocationSettings{
			TableSettings:   TableSettings{TableName: "locations", ScrapeEnabled: true, AbandonScrapeIfEntityExists: true},
			RankedClanLimit: 50,
		},
	}
}

// LoadSettings reads a YAML settings file. A missing file yields the
// defaults.
func LoadSettings(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	settings, err := ParseSettings(raw)
	if err != nil {
		return Settings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	return settings, nil
}

// ParseSettings decodes raw over the defaults and validates the result.
func ParseSettings(raw []byte) (Settings, error) {
	settings := DefaultSettings()
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&settings); err != nil {
			return Settings{}, fmt.Errorf("parse settings: %w", err)
		}
	}
	if err := settings.Validate(context.Background()); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s Settings) Validate(ctx context.Context) error {
	if err := settingsValidator.StructCtx(ctx, s); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}
	for category := range s.Troops.Items {
		if !category.Valid() {
			return fmt.Errorf("validate settings: troops.items has invalid category %d", int(category))
		}
	}
	return nil
}
