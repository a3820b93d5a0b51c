package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/clash-tables/internal/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/infrastructure/tablestore/memory"
	gamedatamock "github.com/riskibarqy/clash-tables/internal/mocks/domain/gamedata"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

const validationUnitID = 4000000

type scrapeStack struct {
	store   *memory.Store
	opener  *gamedatamock.SessionOpener
	session *gamedatamock.OwnedSession
	catalog *gamedatamock.Catalog

	units     *PlayerUnitService
	players   *PlayerService
	clans     *ClanService
	locations *LocationService
}

func newScrapeStack(t *testing.T, clanCfg ClanConfig, locationCfg LocationConfig) *scrapeStack {
	t.Helper()

	s := &scrapeStack{
		store:   memory.NewStore(),
		opener:  gamedatamock.NewSessionOpener(t),
		session: gamedatamock.NewOwnedSession(t),
		catalog: gamedatamock.NewCatalog(t),
	}
	nop := logging.NewNop()

	unitTable, unitGate := newTable(t, s.store, "player_units")
	s.units = NewPlayerUnitService(unitTable, unitGate, PlayerUnitConfig{Enabled: true, ValidationUnitID: validationUnitID}, nop)
	s.units.clock = fixedClock()

	playerTable, playerGate := newTable(t, s.store, "players")
	s.players = NewPlayerService(s.opener, s.catalog, playerTable, playerGate, s.units, PlayerConfig{Enabled: true}, nop)
	s.players.clock = fixedClock()

	clanTable, clanGate := newTable(t, s.store, "clans")
	s.clans = NewClanService(s.opener, clanTable, clanGate, s.players, clanCfg, nop)
	s.clans.clock = fixedClock()

	locationTable, locationGate := newTable(t, s.store, "locations")
	s.locations = NewLocationService(s.opener, locationTable, locationGate, s.clans, locationCfg, nop)
	s.locations.clock = fixedClock()
	return s
}

func (s *scrapeStack) expectSession() {
	s.opener.On("Open", mock.Anything).Return(s.session, nil).Once()
	s.session.On("Close").Return(nil).Once()
}

func clanFixture(tag string, members ...string) gamedata.Clan {
	clan := gamedata.Clan{Tag: tag, Name: "clan " + tag, Level: 10, MemberCount: len(members)}
	for _, m := range members {
		clan.Members = append(clan.Members, gamedata.ClanMember{Tag: m})
	}
	return clan
}

func playerFixture(tag string) gamedata.Player {
	return gamedata.Player{
		Tag:           tag,
		Name:          "player " + tag,
		TownHallLevel: 12,
		Clan:          &gamedata.ClanRef{Tag: "#2PP"},
		HomeTroops: []gamedata.PlayerUnit{
			{ID: intPtr(validationUnitID), Name: "Barbarian", Level: intPtr(9), Village: gamedata.VillageHome},
			{ID: intPtr(4000001), Name: "Archer", Level: intPtr(9), Village: gamedata.VillageHome},
		},
		Heroes: []gamedata.PlayerUnit{
			{ID: intPtr(28000000), Name: "Barbarian King", Level: intPtr(60), Village: gamedata.VillageHome},
		},
	}
}

func TestClanService_Process_ScrapesClanAndMembers(t *testing.T) {
	t.Parallel()

	s := newScrapeStack(t, ClanConfig{Enabled: true, Clans: []string{"#2PP"}, MemberScrapeEnabled: true}, LocationConfig{})
	s.expectSession()
	s.session.On("Clan", mock.Anything, "#2PP").Return(clanFixture("#2PP", "#AAA", "#BBB"), nil).Once()
	s.session.On("Player", mock.Anything, "#AAA").Return(playerFixture("#AAA"), nil).Once()
	s.session.On("Player", mock.Anything, "#BBB").Return(gamedata.Player{}, errors.New("maintenance")).Once()
	s.catalog.On("Enrich", mock.Anything, mock.AnythingOfType("*gamedata.Player")).Return().Once()

	report, err := s.clans.Process(context.Background())
	if err != nil {
		t.Fatalf("process clans: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("expected the failing member to be isolated, got %+v", report)
	}
	if got := tableLen(t, s.store, "clans"); got != 1 {
		t.Fatalf("expected 1 clan row, got %d", got)
	}
	if got := tableLen(t, s.store, "players"); got != 1 {
		t.Fatalf("expected 1 player row, got %d", got)
	}
	if got := tableLen(t, s.store, "player_units"); got != 3 {
		t.Fatalf("expected 3 unit rows, got %d", got)
	}
}

func TestClanService_Process_SkipsLoginWhenEveryClanIsStored(t *testing.T) {
	t.Parallel()

	s := newScrapeStack(t, ClanConfig{Enabled: true, Clans: []string{"#2PP", "#8QU"}}, LocationConfig{})
	seed(t, s.store, "clans",
		table.Row{PartitionKey: "2PP", RowKey: "2024-05-15"},
		table.Row{PartitionKey: "8QU", RowKey: "2024-05-15"},
	)

	report, err := s.clans.Process(context.Background())
	if err != nil {
		t.Fatalf("process clans: %v", err)
	}
	if report.Skipped != 2 {
		t.Fatalf("expected both clans to be skipped, got %+v", report)
	}
}

func TestClanService_Process_MembersDisabled(t *testing.T) {
	t.Parallel()

	s := newScrapeStack(t, ClanConfig{Enabled: true, Clans: []string{"#2PP"}}, LocationConfig{})
	s.expectSession()
	s.session.On("Clan", mock.Anything, "#2PP").Return(clanFixture("#2PP", "#AAA"), nil).Once()

	if _, err := s.clans.Process(context.Background()); err != nil {
		t.Fatalf("process clans: %v", err)
	}
	s.session.AssertNotCalled(t, "Player", mock.Anything, mock.Anything)
}

func TestPlayerService_ScrapeMembers_GatesOnPlayerAndValidationUnit(t *testing.T) {
	t.Parallel()

	s := newScrapeStack(t, ClanConfig{}, LocationConfig{})
	seed(t, s.store, "players", table.Row{PartitionKey: "AAA", RowKey: "2024-05-15"})
	seed(t, s.store, "player_units", table.Row{PartitionKey: "BBB-4000000", RowKey: "2024-05-15"})

	s.session.On("Player", mock.Anything, "#BBB").Return(playerFixture("#BBB"), nil).Once()
	s.catalog.On("Enrich", mock.Anything, mock.Anything).Return().Once()

	report := s.players.ScrapeMembers(context.Background(), s.session, []string{"#AAA", "#BBB"})
	if report.Skipped != 2 || report.Fetched != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if got := tableLen(t, s.store, "player_units"); got != 1 {
		t.Fatalf("expected units to be gated by the validation unit, got %d rows", got)
	}
}

func TestPlayerService_Process_OwnsSession(t *testing.T) {
	t.Parallel()

	s := newScrapeStack(t, ClanConfig{}, LocationConfig{})
	s.players.cfg.Players = []string{"#AAA"}
	s.expectSession()
	s.session.On("Player", mock.Anything, "#AAA").Return(playerFixture("#AAA"), nil).Once()
	s.catalog.On("Enrich", mock.Anything, mock.Anything).Return().Once()

	report, err := s.players.Process(context.Background())
	if err != nil {
		t.Fatalf("process players: %v", err)
	}
	if report.Fetched != 2 {
		t.Fatalf("expected player and units to be processed, got %+v", report)
	}
}

func TestLocationService_Process_WritesLocationsAndRankedClans(t *testing.T) {
	t.Parallel()

	s := newScrapeStack(t,
		ClanConfig{Enabled: true},
		LocationConfig{Enabled: true, RankedLocations: []int{32000006}, RankedClanLimit: 1},
	)
	seed(t, s.store, "locations", table.Row{PartitionKey: "32000007", RowKey: "2024-05"})

	code := "AF"
	s.expectSession()
	s.session.On("Locations", mock.Anything).Return([]gamedata.Location{
		{ID: 32000006, Name: "International"},
		{ID: 32000007, Name: "Afghanistan", IsCountry: true, CountryCode: &code},
		{ID: 32000008, Name: "Albania", IsCountry: true},
	}, nil).Once()
	s.session.On("LocationClanRankings", mock.Anything, 32000006, 1).Return([]gamedata.RankedClan{{Tag: "#2PP", Rank: 1}}, nil).Once()
	s.session.On("Clan", mock.Anything, "#2PP").Return(clanFixture("#2PP"), nil).Once()

	report, err := s.locations.Process(context.Background())
	if err != nil {
		t.Fatalf("process locations: %v", err)
	}
	if report.Skipped != 1 {
		t.Fatalf("expected the stored location to be skipped, got %+v", report)
	}
	if got := tableLen(t, s.store, "locations"); got != 3 {
		t.Fatalf("expected 3 location rows, got %d", got)
	}
	if got := tableLen(t, s.store, "clans"); got != 1 {
		t.Fatalf("expected ranked clan to be stored, got %d", got)
	}
}

func TestLocationService_Process_ListFailure(t *testing.T) {
	t.Parallel()

	s := newScrapeStack(t, ClanConfig{}, LocationConfig{Enabled: true})
	s.expectSession()
	s.session.On("Locations", mock.Anything).Return(nil, errors.New("maintenance")).Once()

	if _, err := s.locations.Process(context.Background()); err == nil {
		t.Fatalf("expected list failure to surface")
	}
}
