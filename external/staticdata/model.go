package staticdata

// catalogFile is the on-disk layout of the game data file. Times are whole
// seconds; list attributes are indexed by level - 1.
type catalogFile struct {
	LabToTownhall map[string]int `json:"labToTownhall"`
	Items         []itemRecord   `json:"items"`
}

type itemRecord struct {
	ID      *int   `json:"id"`
	Name    string `json:"name"`
	Village string `json:"village"`

	Level                 []int     `json:"level"`
	Range                 []float64 `json:"range"`
	DPS                   []float64 `json:"dps"`
	Hitpoints             []int     `json:"hitpoints"`
	LabLevel              []int     `json:"labLevel"`
	Speed                 []float64 `json:"speed"`
	UpgradeCost           []int     `json:"upgradeCost"`
	UpgradeTime           []int64   `json:"upgradeTime"`
	TrainingCost          []int     `json:"trainingCost"`
	TrainingTime          []int     `json:"trainingTime"`
	AbilityTime           []int     `json:"abilityTime"`
	AbilityTroopCount     []int     `json:"abilityTroopCount"`
	RequiredTownhallLevel []int     `json:"requiredTownhallLevel"`
	RegenerationTime      []int64   `json:"regenerationTime"`
	Cooldown              []int64   `json:"cooldown"`
	Duration              []int64   `json:"duration"`

	TownhallMaxLevels map[string]int `json:"townhallMaxLevels"`

	GroundTarget     *bool   `json:"groundTarget"`
	HousingSpace     *int    `json:"housingSpace"`
	UpgradeResource  *string `json:"upgradeResource"`
	IsElixirSpell    *bool   `json:"isElixirSpell"`
	IsDarkSpell      *bool   `json:"isDarkSpell"`
	IsElixirTroop    *bool   `json:"isElixirTroop"`
	IsDarkTroop      *bool   `json:"isDarkTroop"`
	IsSiegeMachine   *bool   `json:"isSiegeMachine"`
	IsSuperTroop     *bool   `json:"isSuperTroop"`
	MinOriginalLevel *int    `json:"minOriginalLevel"`
	OriginalTroopID  *int    `json:"originalTroopId"`
}
