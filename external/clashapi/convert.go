package clashapi

import (
	"strings"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
)

func mapLocation(item locationResponse) gamedata.Location {
	loc := gamedata.Location{
		ID:        item.ID,
		Name:      item.Name,
		IsCountry: item.IsCountry,
	}
	if item.CountryCode != "" {
		loc.CountryCode = &item.CountryCode
	}
	if item.LocalizedName != "" {
		loc.LocalizedName = &item.LocalizedName
	}
	return loc
}

func mapLocationPtr(item *locationResponse) *gamedata.Location {
	if item == nil {
		return nil
	}
	loc := mapLocation(*item)
	return &loc
}

func mapClan(item clanResponse) gamedata.Clan {
	members := make([]gamedata.ClanMember, 0, len(item.MemberList))
	for _, m := range item.MemberList {
		members = append(members, gamedata.ClanMember{
			Tag:      m.Tag,
			Name:     m.Name,
			Role:     m.Role,
			ExpLevel: m.ExpLevel,
			Trophies: m.Trophies,
		})
	}

	return gamedata.Clan{
		Tag:              item.Tag,
		Name:             item.Name,
		Type:             item.Type,
		Description:      item.Description,
		Level:            item.ClanLevel,
		Location:         mapLocationPtr(item.Location),
		Points:           item.ClanPoints,
		VersusPoints:     firstNonZero(item.ClanVersusPoints, item.ClanBuilderBase),
		RequiredTrophies: item.RequiredTrophies,
		WarFrequency:     item.WarFrequency,
		WarWinStreak:     item.WarWinStreak,
		WarWins:          item.WarWins,
		WarTies:          item.WarTies,
		WarLosses:        item.WarLosses,
		IsWarLogPublic:   item.IsWarLogPublic,
		MemberCount:      item.Members,
		Members:          members,
	}
}

func mapRankedClan(item rankedClanResponse) gamedata.RankedClan {
	return gamedata.RankedClan{
		Tag:          item.Tag,
		Name:         item.Name,
		Level:        item.ClanLevel,
		Rank:         item.Rank,
		PreviousRank: item.PreviousRank,
		Points:       item.ClanPoints,
		MemberCount:  item.Members,
		Location:     mapLocationPtr(item.Location),
	}
}

// mapPlayer splits the API's flat troop list into pets, home troops,
// builder troops and super troops. Unit ids are left for the catalog.
func mapPlayer(item playerResponse) gamedata.Player {
	p := gamedata.Player{
		Tag:                item.Tag,
		Name:               item.Name,
		ExpLevel:           item.ExpLevel,
		Role:               item.Role,
		ClanRank:           item.ClanRank,
		ClanPreviousRank:   item.PreviousClanRank,
		Donations:          item.Donations,
		Received:           item.DonationsReceived,
		Trophies:           item.Trophies,
		VersusTrophies:     firstNonZero(item.VersusTrophies, item.BuilderBaseTrophies),
		BestTrophies:       item.BestTrophies,
		BestVersusTrophies: item.BestVersusTrophies,
		AttackWins:         item.AttackWins,
		DefenseWins:        item.DefenseWins,
		VersusAttackWins:   item.VersusBattleWins,
		WarStars:           item.WarStars,
		TownHallLevel:      item.TownHallLevel,
		TownHallWeapon:     item.TownHallWeaponLevel,
		BuilderHallLevel:   item.BuilderHallLevel,
	}
	if item.League != nil {
		p.League = &gamedata.League{ID: item.League.ID, Name: item.League.Name}
	}
	if item.Clan != nil {
		p.Clan = &gamedata.ClanRef{Tag: item.Clan.Tag, Name: item.Clan.Name, Level: item.Clan.ClanLevel}
	}
	if pref := strings.TrimSpace(item.WarPreference); pref != "" {
		optedIn := pref == "in"
		p.WarOptedIn = &optedIn
	}

	for _, u := range item.Heroes {
		p.Heroes = append(p.Heroes, mapUnit(u))
	}
	for _, u := range item.Spells {
		p.Spells = append(p.Spells, mapUnit(u))
	}
	for _, u := range item.Troops {
		unit := mapUnit(u)
		switch {
		case gamedata.IsPet(u.Name):
			p.Pets = append(p.Pets, unit)
		case gamedata.IsSuperTroop(u.Name):
			unit.IsSuperTroop = true
			p.SuperTroops = append(p.SuperTroops, unit)
			if u.SuperTroopIsActive {
				p.HomeTroops = append(p.HomeTroops, unit)
			}
		case unit.Village == gamedata.VillageBuilderBase:
			p.BuilderTroops = append(p.BuilderTroops, unit)
		default:
			p.HomeTroops = append(p.HomeTroops, unit)
		}
	}
	return p
}

func mapUnit(u unitResponse) gamedata.PlayerUnit {
	village := gamedata.Village(u.Village)
	if village == "" {
		village = gamedata.VillageHome
	}
	return gamedata.PlayerUnit{
		Name:     u.Name,
		Level:    u.Level,
		MaxLevel: u.MaxLevel,
		Village:  village,
	}
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
