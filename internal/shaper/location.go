package shaper

import (
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/platform/attr"
)

func Location(location gamedata.Location, now time.Time) []table.Row {
	key := LocationKey(location.ID, now)
	return []table.Row{{
		PartitionKey: key.PartitionKey,
		RowKey:       key.RowKey,
		Columns: map[string]any{
			"Id":            int64(location.ID),
			"Name":          location.Name,
			"IsCountry":     location.IsCountry,
			"CountryCode":   attr.StringOr(location.CountryCode, ""),
			"LocalizedName": attr.StringOr(location.LocalizedName, ""),
		},
	}}
}
