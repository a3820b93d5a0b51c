package shaper

import (
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
)

const hoursPerDay = 24

// Season shapes the current gold pass season. Duration is stored in days.
func Season(season gamedata.Season, now time.Time) []table.Row {
	key := SeasonKey(now)
	return []table.Row{{
		PartitionKey: key.PartitionKey,
		RowKey:       key.RowKey,
		Columns: map[string]any{
			"SeasonId":  MonthKey(now),
			"StartTime": season.StartTime,
			"EndTime":   season.EndTime,
			"Duration":  season.Duration().Hours() / hoursPerDay,
		},
	}}
}
