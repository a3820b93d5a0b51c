package shaper

import (
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/platform/attr"
)

func Clan(clan gamedata.Clan, now time.Time) []table.Row {
	key := ClanKey(clan.Tag, now)

	var location any
	if clan.Location != nil {
		location = int64(clan.Location.ID)
	}

	return []table.Row{{
		PartitionKey: key.PartitionKey,
		RowKey:       key.RowKey,
		Columns: map[string]any{
			"Name":             clan.Name,
			"Tag":              clan.Tag,
			"Level":            int64(clan.Level),
			"Type":             clan.Type,
			"Description":      clan.Description,
			"Location":         location,
			"Points":           int64(clan.Points),
			"VersusPoints":     int64(clan.VersusPoints),
			"RequiredTrophies": int64(clan.RequiredTrophies),
			"WarFrequency":     clan.WarFrequency,
			"WarWinStreak":     int64(clan.WarWinStreak),
			"WarWins":          int64(clan.WarWins),
			"WarTies":          attr.Int(clan.WarTies),
			"WarLosses":        attr.Int(clan.WarLosses),
			"IsWarLogPublic":   clan.IsWarLogPublic,
			"MemberCount":      int64(clan.MemberCount),
		},
	}}
}

// MemberTags lists the member tags of a clan in roster order.
func MemberTags(clan gamedata.Clan) []string {
	tags := make([]string, 0, len(clan.Members))
	for _, m := range clan.Members {
		if m.Tag != "" {
			tags = append(tags, m.Tag)
		}
	}
	return tags
}
