// Package shaper turns domain records into table rows. Shapers are pure:
// the same record and capture time always produce the same rows.
//
// Partition keys name the entity, row keys name the capture period.
package shaper

import (
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

func DateKey(now time.Time) string {
	return now.Format(dateLayout)
}

func MonthKey(now time.Time) string {
	return now.Format(monthLayout)
}

func SeasonKey(now time.Time) table.Key {
	return table.Key{
		PartitionKey: now.Format("2006"),
		RowKey:       now.Format("01"),
	}
}

func ClanKey(tag string, now time.Time) table.Key {
	return table.Key{PartitionKey: gamedata.StripTag(tag), RowKey: DateKey(now)}
}

func PlayerKey(tag string, now time.Time) table.Key {
	return table.Key{PartitionKey: gamedata.StripTag(tag), RowKey: DateKey(now)}
}

func PlayerUnitKey(tag string, unitID int, now time.Time) table.Key {
	return table.Key{
		PartitionKey: gamedata.StripTag(tag) + "-" + strconv.Itoa(unitID),
		RowKey:       DateKey(now),
	}
}

func LocationKey(id int, now time.Time) table.Key {
	return table.Key{PartitionKey: strconv.Itoa(id), RowKey: MonthKey(now)}
}

// CatalogPartitionKey is "{id}_{level}". Items without an id fall back to
// their name with spaces removed.
func CatalogPartitionKey(item gamedata.Item, level int) string {
	identity := strings.ReplaceAll(item.Name, " ", "")
	if item.ID != nil {
		identity = strconv.Itoa(*item.ID)
	}
	return identity + "_" + strconv.Itoa(level)
}

// CatalogFilter finds any row of the item captured in the current month.
func CatalogFilter(name string, isHomeVillage bool, now time.Time) table.Filter {
	return table.Where(
		table.Eq(table.ColumnRowKey, MonthKey(now)),
		table.Eq("Name", name),
		table.Eq("IsHomeVillage", isHomeVillage),
	)
}
