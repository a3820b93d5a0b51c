package clashapi

type paging struct {
	Cursors struct {
		After  string `json:"after"`
		Before string `json:"before"`
	} `json:"cursors"`
}

type goldPassSeasonResponse struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type locationResponse struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	IsCountry     bool   `json:"isCountry"`
	CountryCode   string `json:"countryCode"`
	LocalizedName string `json:"localizedName"`
}

type locationListResponse struct {
	Items  []locationResponse `json:"items"`
	Paging paging             `json:"paging"`
}

type clanMemberResponse struct {
	Tag      string `json:"tag"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	ExpLevel int    `json:"expLevel"`
	Trophies int    `json:"trophies"`
}

type clanResponse struct {
	Tag              string               `json:"tag"`
	Name             string               `json:"name"`
	Type             string               `json:"type"`
	Description      string               `json:"description"`
	ClanLevel        int                  `json:"clanLevel"`
	Location         *locationResponse    `json:"location"`
	ClanPoints       int                  `json:"clanPoints"`
	ClanVersusPoints int                  `json:"clanVersusPoints"`
	ClanBuilderBase  int                  `json:"clanBuilderBasePoints"`
	RequiredTrophies int                  `json:"requiredTrophies"`
	WarFrequency     string               `json:"warFrequency"`
	WarWinStreak     int                  `json:"warWinStreak"`
	WarWins          int                  `json:"warWins"`
	WarTies          *int                 `json:"warTies"`
	WarLosses        *int                 `json:"warLosses"`
	IsWarLogPublic   bool                 `json:"isWarLogPublic"`
	Members          int                  `json:"members"`
	MemberList       []clanMemberResponse `json:"memberList"`
}

type rankedClanResponse struct {
	Tag          string            `json:"tag"`
	Name         string            `json:"name"`
	ClanLevel    int               `json:"clanLevel"`
	Rank         int               `json:"rank"`
	PreviousRank int               `json:"previousRank"`
	ClanPoints   int               `json:"clanPoints"`
	Members      int               `json:"members"`
	Location     *locationResponse `json:"location"`
}

type rankedClanListResponse struct {
	Items  []rankedClanResponse `json:"items"`
	Paging paging               `json:"paging"`
}

type leagueResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type playerClanResponse struct {
	Tag       string `json:"tag"`
	Name      string `json:"name"`
	ClanLevel int    `json:"clanLevel"`
}

type unitResponse struct {
	Name               string `json:"name"`
	Level              *int   `json:"level"`
	MaxLevel           int    `json:"maxLevel"`
	Village            string `json:"village"`
	SuperTroopIsActive bool   `json:"superTroopIsActive"`
}

type playerResponse struct {
	Tag                 string              `json:"tag"`
	Name                string              `json:"name"`
	ExpLevel            int                 `json:"expLevel"`
	League              *leagueResponse     `json:"league"`
	Clan                *playerClanResponse `json:"clan"`
	Role                string              `json:"role"`
	ClanRank            int                 `json:"clanRank"`
	PreviousClanRank    int                 `json:"previousClanRank"`
	Donations           int                 `json:"donations"`
	DonationsReceived   int                 `json:"donationsReceived"`
	Trophies            int                 `json:"trophies"`
	VersusTrophies      int                 `json:"versusTrophies"`
	BuilderBaseTrophies int                 `json:"builderBaseTrophies"`
	BestTrophies        int                 `json:"bestTrophies"`
	BestVersusTrophies  int                 `json:"bestVersusTrophies"`
	AttackWins          int                 `json:"attackWins"`
	DefenseWins         int                 `json:"defenseWins"`
	VersusBattleWins    int                 `json:"versusBattleWins"`
	WarStars            int                 `json:"warStars"`
	WarPreference       string              `json:"warPreference"`
	TownHallLevel       int                 `json:"townHallLevel"`
	TownHallWeaponLevel *int                `json:"townHallWeaponLevel"`
	BuilderHallLevel    *int                `json:"builderHallLevel"`
	Heroes              []unitResponse      `json:"heroes"`
	Troops              []unitResponse      `json:"troops"`
	Spells              []unitResponse      `json:"spells"`
}

type errorResponse struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type portalLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type portalLoginResponse struct {
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	TemporaryAPIToken string `json:"temporaryAPIToken"`
}

type portalKey struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Key        string   `json:"key"`
	CidrRanges []string `json:"cidrRanges"`
}

type portalKeyListResponse struct {
	Keys []portalKey `json:"keys"`
}

type portalKeyCreateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CidrRanges  []string `json:"cidrRanges"`
	Scopes      []string `json:"scopes"`
}

type portalKeyCreateResponse struct {
	Key portalKey `json:"key"`
}

type temporaryTokenClaims struct {
	Limits []struct {
		Type  string   `json:"type"`
		Cidrs []string `json:"cidrs"`
	} `json:"limits"`
}
