package shaper

import (
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/platform/attr"
)

var itemFields = attr.Fields[gamedata.Item]{
	"level":               func(it gamedata.Item) (any, bool) { return it.Level, true },
	"range":               func(it gamedata.Item) (any, bool) { return it.Range, true },
	"dps":                 func(it gamedata.Item) (any, bool) { return it.DPS, true },
	"hitpoints":           func(it gamedata.Item) (any, bool) { return it.Hitpoints, true },
	"lab_level":           func(it gamedata.Item) (any, bool) { return it.LabLevel, true },
	"speed":               func(it gamedata.Item) (any, bool) { return it.Speed, true },
	"upgrade_cost":        func(it gamedata.Item) (any, bool) { return it.UpgradeCost, true },
	"upgrade_time":        func(it gamedata.Item) (any, bool) { return it.UpgradeTime, true },
	"training_cost":       func(it gamedata.Item) (any, bool) { return it.TrainingCost, true },
	"training_time":       func(it gamedata.Item) (any, bool) { return it.TrainingTime, true },
	"ability_time":        func(it gamedata.Item) (any, bool) { return it.AbilityTime, true },
	"ability_troop_count": func(it gamedata.Item) (any, bool) { return it.AbilityTroopCount, true },
	"required_th_level":   func(it gamedata.Item) (any, bool) { return it.RequiredTownhallLevel, true },
	"regeneration_time":   func(it gamedata.Item) (any, bool) { return it.RegenerationTime, true },
	"cooldown":            func(it gamedata.Item) (any, bool) { return it.Cooldown, true },
	"duration":            func(it gamedata.Item) (any, bool) { return it.Duration, true },
}

// Catalog fans a leveled item out into one row per level. The level count is
// the longest list attribute; items without level numbers get 1..N.
type Catalog struct {
	AllowNullID bool
}

func (c Catalog) Shape(item gamedata.Item, now time.Time) []table.Row {
	if item.ID == nil && !c.AllowNullID {
		return nil
	}

	count := itemFields.MaxLen(item)
	rows := make([]table.Row, 0, count)
	for i := range count {
		rows = append(rows, catalogRow(item, i, now))
	}
	return rows
}

func catalogRow(item gamedata.Item, i int, now time.Time) table.Row {
	level := itemFields.Get(item, "level", attr.At(i), attr.Default(i+1)).(int)

	var townhall any
	if lab, ok := attr.Index(item.LabLevel, i); ok {
		if th, ok := item.LabToTownhall[lab]; ok {
			townhall = int64(th)
		}
	}

	var upgradeResource any
	if item.UpgradeResource != nil {
		upgradeResource = string(*item.UpgradeResource)
	}

	at := func(field string) any {
		return attr.Number(itemFields.Get(item, field, attr.At(i)))
	}

	return table.Row{
		PartitionKey: CatalogPartitionKey(item, level),
		RowKey:       MonthKey(now),
		Columns: map[string]any{
			"SeasonId": MonthKey(now),
			"Id":       attr.Int(item.ID),
			"Name":     item.Name,

			"Range":           at("range"),
			"Dps":             at("dps"),
			"GroundTarget":    attr.Bool(item.GroundTarget),
			"Hitpoints":       at("hitpoints"),
			"HousingSpace":    attr.Int(item.HousingSpace),
			"LabLevel":        at("lab_level"),
			"TownhallLevel":   townhall,
			"Speed":           at("speed"),
			"Level":           int64(level),
			"UpgradeCost":     at("upgrade_cost"),
			"UpgradeResource": upgradeResource,
			"UpgradeTime":     attr.Seconds(itemFields.Get(item, "upgrade_time", attr.At(i))),
			"IsHomeVillage":   item.IsHomeVillage(),

			"TrainingCost":     at("training_cost"),
			"TrainingTime":     at("training_time"),
			"IsElixirSpell":    attr.Bool(item.IsElixirSpell),
			"IsDarkSpell":      attr.Bool(item.IsDarkSpell),
			"IsElixirTroop":    attr.Bool(item.IsElixirTroop),
			"IsDarkTroop":      attr.Bool(item.IsDarkTroop),
			"IsSiegeMachine":   attr.Bool(item.IsSiegeMachine),
			"IsSuperTroop":     attr.Bool(item.IsSuperTroop),
			"Cooldown":         attr.Seconds(itemFields.Get(item, "cooldown", attr.At(0))),
			"Duration":         attr.Seconds(itemFields.Get(item, "duration", attr.At(0))),
			"MinOriginalLevel": attr.Int(item.MinOriginalLevel),
			"OriginalTroopId":  attr.Int(item.OriginalTroopID),

			"AbilityTime":           at("ability_time"),
			"AbilityTroopCount":     at("ability_troop_count"),
			"RequiredTownhallLevel": at("required_th_level"),
			"RegenerationTime":      attr.Seconds(itemFields.Get(item, "regeneration_time", attr.At(i))),
		},
	}
}
