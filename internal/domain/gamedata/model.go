package gamedata

import (
	"strings"
	"time"
)

type Village string

const (
	VillageHome        Village = "home"
	VillageBuilderBase Village = "builderBase"
)

type Resource string

const (
	ResourceElixir        Resource = "Elixir"
	ResourceDarkElixir    Resource = "Dark Elixir"
	ResourceGold          Resource = "Gold"
	ResourceBuilderGold   Resource = "Builder Gold"
	ResourceBuilderElixir Resource = "Builder Elixir"
)

// Season is the current gold pass season.
type Season struct {
	StartTime time.Time
	EndTime   time.Time
}

func (s Season) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Item is a catalog entry for a troop, spell, hero, pet, siege machine or
// super troop. List fields are indexed by level - 1; nil pointers and nil
// lists mean the item does not carry the attribute.
type Item struct {
	ID       *int
	Name     string
	Category Category
	Village  Village

	Level                 []int
	Range                 []float64
	DPS                   []float64
	Hitpoints             []int
	LabLevel              []int
	Speed                 []float64
	UpgradeCost           []int
	UpgradeTime           []time.Duration
	TrainingCost          []int
	TrainingTime          []int
	AbilityTime           []int
	AbilityTroopCount     []int
	RequiredTownhallLevel []int
	RegenerationTime      []time.Duration
	Cooldown              []time.Duration
	Duration              []time.Duration

	// LabToTownhall maps a laboratory level to the town hall that unlocks it.
	LabToTownhall map[int]int
	// TownhallMaxLevels maps a town hall level to the highest unit level
	// reachable there.
	TownhallMaxLevels map[int]int

	GroundTarget     *bool
	HousingSpace     *int
	UpgradeResource  *Resource
	IsElixirSpell    *bool
	IsDarkSpell      *bool
	IsElixirTroop    *bool
	IsDarkTroop      *bool
	IsSiegeMachine   *bool
	IsSuperTroop     *bool
	MinOriginalLevel *int
	OriginalTroopID  *int
}

func (i Item) IsHomeVillage() bool {
	return i.Village != VillageBuilderBase
}

type League struct {
	ID   int
	Name string
}

type ClanRef struct {
	Tag   string
	Name  string
	Level int
}

// Player is a profile snapshot. Clan linkage fields are only meaningful when
// Clan is set.
type Player struct {
	Tag      string
	Name     string
	ExpLevel int
	League   *League
	Clan     *ClanRef

	Role             string
	ClanRank         int
	ClanPreviousRank int
	Donations        int
	Received         int

	Trophies           int
	VersusTrophies     int
	BestTrophies       int
	BestVersusTrophies int
	AttackWins         int
	DefenseWins        int
	VersusAttackWins   int
	WarStars           int
	WarOptedIn         *bool

	TownHallLevel    int
	TownHallWeapon   *int
	BuilderHallLevel *int

	Heroes        []PlayerUnit
	Pets          []PlayerUnit
	Spells        []PlayerUnit
	HomeTroops    []PlayerUnit
	BuilderTroops []PlayerUnit
	// SuperTroops lists every unlocked super troop. Active ones also appear
	// in HomeTroops.
	SuperTroops []PlayerUnit
}

// PlayerUnit is one unit a player owns. ID and TownhallMaxLevels come from
// the static catalog and stay empty when the unit is unknown to it.
type PlayerUnit struct {
	ID                *int
	Name              string
	Level             *int
	MaxLevel          int
	Village           Village
	IsSuperTroop      bool
	TownhallMaxLevels map[int]int
}

// MaxLevelForTownhall reports the level cap at the given town hall.
func (u PlayerUnit) MaxLevelForTownhall(townhall int) (int, bool) {
	if len(u.TownhallMaxLevels) == 0 {
		return 0, false
	}
	level, ok := u.TownhallMaxLevels[townhall]
	return level, ok
}

func (u PlayerUnit) IsMaxForTownhall(townhall int) *bool {
	if u.Level == nil {
		return nil
	}
	limit, ok := u.MaxLevelForTownhall(townhall)
	if !ok {
		return nil
	}
	maxed := *u.Level >= limit
	return &maxed
}

type Location struct {
	ID            int
	Name          string
	IsCountry     bool
	CountryCode   *string
	LocalizedName *string
}

type ClanMember struct {
	Tag      string
	Name     string
	Role     string
	ExpLevel int
	Trophies int
}

type Clan struct {
	Tag              string
	Name             string
	Type             string
	Description      string
	Level            int
	Location         *Location
	Points           int
	VersusPoints     int
	RequiredTrophies int
	WarFrequency     string
	WarWinStreak     int
	WarWins          int
	WarTies          *int
	WarLosses        *int
	IsWarLogPublic   bool
	MemberCount      int
	Members          []ClanMember
}

// RankedClan is an entry of a location's clan leaderboard.
type RankedClan struct {
	Tag          string
	Name         string
	Level        int
	Rank         int
	PreviousRank int
	Points       int
	MemberCount  int
	Location     *Location
}

// StripTag removes the leading '#' of a player or clan tag.
func StripTag(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "#")
}

// NormalizeTag returns the canonical upper-case '#'-prefixed form.
func NormalizeTag(tag string) string {
	stripped := strings.ToUpper(StripTag(tag))
	if stripped == "" {
		return ""
	}
	return "#" + stripped
}
