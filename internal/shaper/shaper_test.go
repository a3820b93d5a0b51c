package shaper

import (
	"reflect"
	"testing"
	"time"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

var captured = time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)

func TestSeason_EndToEnd(t *testing.T) {
	t.Parallel()

	season := gamedata.Season{
		StartTime: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	rows := Season(season, captured)
	require.Len(t, rows, 1)
	require.Equal(t, "2024", rows[0].PartitionKey)
	require.Equal(t, "05", rows[0].RowKey)
	require.Equal(t, "2024-05", rows[0].Columns["SeasonId"])
	require.Equal(t, 31.0, rows[0].Columns["Duration"])
	require.Equal(t, season.StartTime, rows[0].Columns["StartTime"])
}

func barbarian() gamedata.Item {
	resource := gamedata.ResourceElixir
	return gamedata.Item{
		ID:              intPtr(4000000),
		Name:            "Barbarian",
		Category:        gamedata.CategoryHomeTroop,
		Village:         gamedata.VillageHome,
		DPS:             []float64{8, 11, 14},
		Hitpoints:       []int{45, 54, 65},
		LabLevel:        []int{0, 1, 3},
		UpgradeCost:     []int{0, 20000, 60000},
		UpgradeTime:     []time.Duration{0, 2 * time.Hour, 5 * time.Hour},
		LabToTownhall:   map[int]int{1: 3, 3: 5},
		HousingSpace:    intPtr(1),
		GroundTarget:    boolPtr(true),
		UpgradeResource: &resource,
		IsElixirTroop:   boolPtr(true),
	}
}

func TestCatalog_LeveledFanOut(t *testing.T) {
	t.Parallel()

	rows := Catalog{}.Shape(barbarian(), captured)
	require.Len(t, rows, 3)

	for i, row := range rows {
		wantLevel := int64(i + 1)
		require.Equal(t, wantLevel, row.Columns["Level"])
		require.Equal(t, "2024-05", row.RowKey)
		require.Equal(t, "2024-05", row.Columns["SeasonId"])
	}
	require.Equal(t, "4000000_1", rows[0].PartitionKey)
	require.Equal(t, "4000000_3", rows[2].PartitionKey)

	require.Equal(t, int64(54), rows[1].Columns["Hitpoints"])
	require.Equal(t, 7200.0, rows[1].Columns["UpgradeTime"])
	require.Equal(t, int64(3), rows[1].Columns["TownhallLevel"])
	require.Nil(t, rows[0].Columns["TownhallLevel"])
	require.Equal(t, "Elixir", rows[2].Columns["UpgradeResource"])
	require.Equal(t, true, rows[2].Columns["IsHomeVillage"])
	require.Nil(t, rows[0].Columns["Cooldown"])
	require.Nil(t, rows[0].Columns["IsSuperTroop"])
}

func TestCatalog_UsesExplicitLevelsAndFixedCooldownIndex(t *testing.T) {
	t.Parallel()

	item := gamedata.Item{
		ID:           intPtr(26),
		Name:         "Super Barbarian",
		Level:        []int{1, 2},
		Hitpoints:    []int{500, 550, 600},
		Cooldown:     []time.Duration{72 * time.Hour},
		Duration:     []time.Duration{72 * time.Hour},
		IsSuperTroop: boolPtr(true),
	}

	rows := Catalog{}.Shape(item, captured)
	require.Len(t, rows, 3)
	require.Equal(t, "26_2", rows[1].PartitionKey)
	require.Equal(t, "26_3", rows[2].PartitionKey, "levels past the level list fall back to i+1")
	for _, row := range rows {
		require.Equal(t, 259200.0, row.Columns["Cooldown"])
		require.Equal(t, 259200.0, row.Columns["Duration"])
	}
}

func TestCatalog_NullIDPolicy(t *testing.T) {
	t.Parallel()

	pet := gamedata.Item{Name: "Mighty Yak", Hitpoints: []int{2000, 2200}}

	require.Empty(t, Catalog{}.Shape(pet, captured))

	rows := Catalog{AllowNullID: true}.Shape(pet, captured)
	require.Len(t, rows, 2)
	require.Equal(t, "MightyYak_1", rows[0].PartitionKey)
	require.Nil(t, rows[0].Columns["Id"])
}

func TestShapers_AreIdempotent(t *testing.T) {
	t.Parallel()

	first := Catalog{}.Shape(barbarian(), captured)
	second := Catalog{}.Shape(barbarian(), captured)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical rows on repeated calls")
	}

	p := samplePlayer()
	if !reflect.DeepEqual(PlayerUnits(p, captured), PlayerUnits(p, captured)) {
		t.Fatalf("expected identical player unit rows on repeated calls")
	}
}

func TestKeys_StableAcrossCaptures(t *testing.T) {
	t.Parallel()

	later := captured.AddDate(0, 1, 3)
	clan := gamedata.Clan{Tag: "#2PP"}

	a, b := Clan(clan, captured)[0], Clan(clan, later)[0]
	require.Equal(t, a.PartitionKey, b.PartitionKey)
	require.Equal(t, "2PP", a.PartitionKey)
	require.NotEqual(t, a.RowKey, b.RowKey)
	require.Equal(t, "2024-05-15", a.RowKey)

	loc := gamedata.Location{ID: 32000006, Name: "International"}
	l1, l2 := Location(loc, captured)[0], Location(loc, captured.AddDate(0, 0, 10))[0]
	require.Equal(t, l1.Key(), l2.Key(), "locations are monthly")
	require.Equal(t, "", l1.Columns["CountryCode"])

	s1, s2 := SeasonKey(captured), SeasonKey(later)
	require.Equal(t, s1.PartitionKey, s2.PartitionKey)
	require.Equal(t, "06", s2.RowKey)
}

func samplePlayer() gamedata.Player {
	return gamedata.Player{
		Tag:           "#9YQ8RJ",
		Name:          "chief",
		TownHallLevel: 12,
		Heroes: []gamedata.PlayerUnit{
			{ID: intPtr(28000000), Name: "Barbarian King", Level: intPtr(60), Village: gamedata.VillageHome, TownhallMaxLevels: map[int]int{12: 65}},
		},
		HomeTroops: []gamedata.PlayerUnit{
			{ID: intPtr(4000000), Name: "Barbarian", Level: intPtr(9), Village: gamedata.VillageHome, TownhallMaxLevels: map[int]int{12: 9}},
			{ID: intPtr(26000000), Name: "Super Barbarian", Level: intPtr(9), Village: gamedata.VillageHome, IsSuperTroop: true},
			{Name: "Unknown Troop", Level: intPtr(1), Village: gamedata.VillageHome},
		},
		BuilderTroops: []gamedata.PlayerUnit{
			{ID: intPtr(4000031), Name: "Raged Barbarian", Village: gamedata.VillageBuilderBase},
		},
		SuperTroops: []gamedata.PlayerUnit{
			{ID: intPtr(26000000), Name: "Super Barbarian", Level: intPtr(9), Village: gamedata.VillageHome, IsSuperTroop: true},
			{ID: intPtr(26000001), Name: "Super Archer", Level: intPtr(8), Village: gamedata.VillageHome, IsSuperTroop: true},
		},
	}
}

func TestPlayerUnits(t *testing.T) {
	t.Parallel()

	rows := PlayerUnits(samplePlayer(), captured)
	byKey := make(map[string]table.Row, len(rows))
	for _, row := range rows {
		byKey[row.PartitionKey] = row
	}

	require.Len(t, rows, 4, "unit without id and unit without level are dropped, active super troop is not duplicated")

	king := byKey["9YQ8RJ-28000000"]
	require.Equal(t, "2024-05-15", king.RowKey)
	require.Equal(t, int64(65), king.Columns["TroopTownhallMaxLevel"])
	require.Equal(t, false, king.Columns["TroopIsMaxForTownhall"])
	require.Nil(t, king.Columns["TroopIsActive"])

	barb := byKey["9YQ8RJ-4000000"]
	require.Equal(t, true, barb.Columns["TroopIsMaxForTownhall"])

	require.Equal(t, true, byKey["9YQ8RJ-26000000"].Columns["TroopIsActive"])
	archer := byKey["9YQ8RJ-26000001"]
	require.Equal(t, false, archer.Columns["TroopIsActive"])
	require.Nil(t, archer.Columns["TroopTownhallMaxLevel"])
}

func TestPlayer_ClanLinkage(t *testing.T) {
	t.Parallel()

	p := samplePlayer()
	row := Player(p, captured)[0]
	require.Equal(t, "9YQ8RJ", row.PartitionKey)
	require.Nil(t, row.Columns["ClanTag"])
	require.Nil(t, row.Columns["Donations"])
	require.Nil(t, row.Columns["LeagueId"])

	p.Clan = &gamedata.ClanRef{Tag: "#2PP", Name: "clan"}
	p.Role = "coLeader"
	p.Donations = 120
	p.League = &gamedata.League{ID: 29000022, Name: "Legend League"}
	p.WarOptedIn = boolPtr(true)
	row = Player(p, captured)[0]
	require.Equal(t, "#2PP", row.Columns["ClanTag"])
	require.Equal(t, "coLeader", row.Columns["ClanRole"])
	require.Equal(t, int64(120), row.Columns["Donations"])
	require.Equal(t, int64(29000022), row.Columns["LeagueId"])
	require.Equal(t, true, row.Columns["WarOptedIn"])
}

func TestClan_Columns(t *testing.T) {
	t.Parallel()

	clan := gamedata.Clan{
		Tag:       "#2PP",
		Name:      "Clan",
		Level:     10,
		Location:  &gamedata.Location{ID: 32000006},
		WarLosses: intPtr(3),
		Members:   []gamedata.ClanMember{{Tag: "#A"}, {Tag: ""}, {Tag: "#B"}},
	}
	row := Clan(clan, captured)[0]
	require.Equal(t, int64(32000006), row.Columns["Location"])
	require.Equal(t, int64(3), row.Columns["WarLosses"])
	require.Nil(t, row.Columns["WarTies"])
	require.Equal(t, []string{"#A", "#B"}, MemberTags(clan))
}

func TestCatalogFilter(t *testing.T) {
	t.Parallel()

	filter := CatalogFilter("Baby Dragon", false, captured)
	require.Equal(t, "RowKey eq '2024-05' and Name eq 'Baby Dragon' and IsHomeVillage eq false", filter.String())
	require.Equal(t, "CC", gamedata.StripTag(gamedata.NormalizeTag("cc")))
}
