package shaper

import (
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/platform/attr"
)

// OwnedUnits is heroes, pets, spells, home troops and builder troops, plus
// the unlocked super troops that are not currently active.
func OwnedUnits(player gamedata.Player) []gamedata.PlayerUnit {
	active := make(map[string]struct{}, len(player.HomeTroops))
	for _, u := range player.HomeTroops {
		active[u.Name] = struct{}{}
	}

	units := make([]gamedata.PlayerUnit, 0,
		len(player.Heroes)+len(player.Pets)+len(player.Spells)+
			len(player.HomeTroops)+len(player.BuilderTroops)+len(player.SuperTroops))
	units = append(units, player.Heroes...)
	units = append(units, player.Pets...)
	units = append(units, player.Spells...)
	units = append(units, player.HomeTroops...)
	units = append(units, player.BuilderTroops...)
	for _, u := range player.SuperTroops {
		if _, ok := active[u.Name]; !ok {
			units = append(units, u)
		}
	}
	return units
}

// PlayerUnits shapes one row per owned unit. Units missing an id or a level
// are skipped.
func PlayerUnits(player gamedata.Player, now time.Time) []table.Row {
	active := make(map[string]struct{}, len(player.HomeTroops))
	for _, u := range player.HomeTroops {
		if u.IsSuperTroop {
			active[u.Name] = struct{}{}
		}
	}

	units := OwnedUnits(player)
	rows := make([]table.Row, 0, len(units))
	for _, unit := range units {
		if unit.ID == nil || unit.Level == nil {
			continue
		}
		key := PlayerUnitKey(player.Tag, *unit.ID, now)

		var townhallMax any
		if limit, ok := unit.MaxLevelForTownhall(player.TownHallLevel); ok {
			townhallMax = int64(limit)
		}

		var isActive any
		if unit.IsSuperTroop {
			_, on := active[unit.Name]
			isActive = on
		}

		rows = append(rows, table.Row{
			PartitionKey: key.PartitionKey,
			RowKey:       key.RowKey,
			Columns: map[string]any{
				"TroopId":               int64(*unit.ID),
				"TroopLevel":            int64(*unit.Level),
				"TroopVillage":          string(unit.Village),
				"TroopTownhallMaxLevel": townhallMax,
				"TroopIsMaxForTownhall": attr.Bool(unit.IsMaxForTownhall(player.TownHallLevel)),
				"TroopIsActive":         isActive,
			},
		})
	}
	return rows
}
