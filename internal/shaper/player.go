package shaper

import (
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/platform/attr"
)

// Player shapes one profile row. Clan linkage columns are null for players
// outside a clan.
func Player(player gamedata.Player, now time.Time) []table.Row {
	key := PlayerKey(player.Tag, now)

	columns := map[string]any{
		"Name":               player.Name,
		"Tag":                player.Tag,
		"ExpLevel":           int64(player.ExpLevel),
		"LeagueId":           nil,
		"ClanTag":            nil,
		"ClanRole":           nil,
		"ClanRank":           nil,
		"ClanPreviousRank":   nil,
		"Donations":          nil,
		"Received":           nil,
		"Trophies":           int64(player.Trophies),
		"VersusTrophies":     int64(player.VersusTrophies),
		"BestTrophies":       int64(player.BestTrophies),
		"BestVersusTrophies": int64(player.BestVersusTrophies),
		"AttackWins":         int64(player.AttackWins),
		"DefenseWins":        int64(player.DefenseWins),
		"VersusAttackWins":   int64(player.VersusAttackWins),
		"WarStars":           int64(player.WarStars),
		"WarOptedIn":         attr.Bool(player.WarOptedIn),
		"TownHallLevel":      int64(player.TownHallLevel),
		"TownHallWeapon":     attr.Int(player.TownHallWeapon),
		"BuilderHallLevel":   attr.Int(player.BuilderHallLevel),
	}
	if player.League != nil {
		columns["LeagueId"] = int64(player.League.ID)
	}
	if player.Clan != nil {
		columns["ClanTag"] = player.Clan.Tag
		columns["ClanRole"] = player.Role
		columns["ClanRank"] = int64(player.ClanRank)
		columns["ClanPreviousRank"] = int64(player.ClanPreviousRank)
		columns["Donations"] = int64(player.Donations)
		columns["Received"] = int64(player.Received)
	}

	return []table.Row{{
		PartitionKey: key.PartitionKey,
		RowKey:       key.RowKey,
		Columns:      columns,
	}}
}
