package staticdata

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
)

var ErrItemNotFound = crerr.New("static catalog: item not found")

type itemKey struct {
	village gamedata.Village
	name    string
}

// Catalog is the static game data, loaded once and read-only afterwards.
type Catalog struct {
	items         map[itemKey]gamedata.Item
	labToTownhall map[int]int
	logger        *logging.Logger
}

var _ gamedata.Catalog = (*Catalog)(nil)

func Load(path string, logger *logging.Logger) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game data %s: %w", path, err)
	}
	return Parse(raw, logger)
}

func Parse(raw []byte, logger *logging.Logger) (*Catalog, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var file catalogFile
	if err := sonic.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode game data: %w", err)
	}

	labToTownhall, err := intKeys(file.LabToTownhall)
	if err != nil {
		return nil, fmt.Errorf("labToTownhall: %w", err)
	}

	c := &Catalog{
		items:         make(map[itemKey]gamedata.Item, len(file.Items)),
		labToTownhall: labToTownhall,
		logger:        logger.Named("staticdata"),
	}
	for _, rec := range file.Items {
		item, err := toItem(rec, labToTownhall)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", rec.Name, err)
		}
		key := itemKey{village: item.Village, name: normalizeName(item.Name)}
		if _, dup := c.items[key]; dup {
			return nil, fmt.Errorf("duplicate item %q in village %s", item.Name, item.Village)
		}
		c.items[key] = item
	}
	c.logger.Debug("static catalog loaded", "items", len(c.items))
	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// Item returns a copy of the named item tagged with category. The lookup
// village follows the category.
func (c *Catalog) Item(_ context.Context, category gamedata.Category, name string) (gamedata.Item, error) {
	if !category.Valid() {
		return gamedata.Item{}, fmt.Errorf("invalid category %d", int(category))
	}
	item, ok := c.items[itemKey{village: category.Village(name), name: normalizeName(name)}]
	if !ok {
		return gamedata.Item{}, fmt.Errorf("%w: %s %q", ErrItemNotFound, category, name)
	}
	item.Category = category
	return item, nil
}

// Enrich fills unit ids and town hall caps from the catalog. Units the
// catalog does not know keep a nil id and are skipped by the shaper.
func (c *Catalog) Enrich(ctx context.Context, player *gamedata.Player) {
	if player == nil {
		return
	}
	lists := [][]gamedata.PlayerUnit{
		player.Heroes,
		player.Pets,
		player.Spells,
		player.HomeTroops,
		player.BuilderTroops,
		player.SuperTroops,
	}
	missing := 0
	for _, units := range lists {
		for i := range units {
			if !c.enrichUnit(&units[i]) {
				missing++
			}
		}
	}
	if missing > 0 {
		c.logger.DebugContext(ctx, "units missing from static catalog", "tag", player.Tag, "count", missing)
	}
}

func (c *Catalog) enrichUnit(u *gamedata.PlayerUnit) bool {
	village := u.Village
	if village == "" {
		village = gamedata.VillageHome
	}
	item, ok := c.items[itemKey{village: village, name: normalizeName(u.Name)}]
	if !ok {
		return false
	}
	if item.ID != nil {
		id := *item.ID
		u.ID = &id
	}
	u.TownhallMaxLevels = item.TownhallMaxLevels
	return true
}

func toItem(rec itemRecord, labToTownhall map[int]int) (gamedata.Item, error) {
	village := gamedata.Village(strings.TrimSpace(rec.Village))
	switch village {
	case "":
		village = gamedata.VillageHome
	case gamedata.VillageHome, gamedata.VillageBuilderBase:
	default:
		return gamedata.Item{}, fmt.Errorf("unknown village %q", rec.Village)
	}

	caps, err := intKeys(rec.TownhallMaxLevels)
	if err != nil {
		return gamedata.Item{}, fmt.Errorf("townhallMaxLevels: %w", err)
	}

	item := gamedata.Item{
		ID:                    rec.ID,
		Name:                  strings.TrimSpace(rec.Name),
		Village:               village,
		Level:                 rec.Level,
		Range:                 rec.Range,
		DPS:                   rec.DPS,
		Hitpoints:             rec.Hitpoints,
		LabLevel:              rec.LabLevel,
		Speed:                 rec.Speed,
		UpgradeCost:           rec.UpgradeCost,
		UpgradeTime:           seconds(rec.UpgradeTime),
		TrainingCost:          rec.TrainingCost,
		TrainingTime:          rec.TrainingTime,
		AbilityTime:           rec.AbilityTime,
		AbilityTroopCount:     rec.AbilityTroopCount,
		RequiredTownhallLevel: rec.RequiredTownhallLevel,
		RegenerationTime:      seconds(rec.RegenerationTime),
		Cooldown:              seconds(rec.Cooldown),
		Duration:              seconds(rec.Duration),
		LabToTownhall:         labToTownhall,
		TownhallMaxLevels:     caps,
		GroundTarget:          rec.GroundTarget,
		HousingSpace:          rec.HousingSpace,
		IsElixirSpell:         rec.IsElixirSpell,
		IsDarkSpell:           rec.IsDarkSpell,
		IsElixirTroop:         rec.IsElixirTroop,
		IsDarkTroop:           rec.IsDarkTroop,
		IsSiegeMachine:        rec.IsSiegeMachine,
		IsSuperTroop:          rec.IsSuperTroop,
		MinOriginalLevel:      rec.MinOriginalLevel,
		OriginalTroopID:       rec.OriginalTroopID,
	}
	if item.Name == "" {
		return gamedata.Item{}, fmt.Errorf("name is required")
	}
	if rec.UpgradeResource != nil {
		resource := gamedata.Resource(*rec.UpgradeResource)
		item.UpgradeResource = &resource
	}
	return item, nil
}

func seconds(values []int64) []time.Duration {
	if values == nil {
		return nil
	}
	out := make([]time.Duration, len(values))
	for i, v := range values {
		out[i] = time.Duration(v) * time.Second
	}
	return out
}

func intKeys(in map[string]int) (map[int]int, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[int]int, len(in))
	for k, v := range in {
		n, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("invalid level key %q", k)
		}
		out[n] = v
	}
	return out, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
