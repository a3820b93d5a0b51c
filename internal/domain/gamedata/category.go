package gamedata

import (
	"fmt"
	"slices"
	"strings"
)

// Category is a closed set of catalog groupings. Each one carries its item
// order, lookup village and home-village predicate.
type Category int

const (
	CategoryHero Category = iota + 1
	CategoryPet
	CategoryTroop
	CategorySuperTroop
	CategorySiegeMachine
	CategoryHomeTroop
	CategoryBuilderTroop
	CategorySpell
	CategoryElixirSpell
	CategoryDarkElixirSpell
)

type categoryInfo struct {
	name  string
	items []string
}

var categories = map[Category]categoryInfo{
	CategoryHero:            {name: "hero", items: HeroOrder},
	CategoryPet:             {name: "pet", items: PetOrder},
	CategoryTroop:           {name: "troop", items: slices.Concat(ElixirTroopOrder, DarkElixirTroopOrder)},
	CategorySuperTroop:      {name: "super_troop", items: SuperTroopOrder},
	CategorySiegeMachine:    {name: "siege_machine", items: SiegeMachineOrder},
	CategoryHomeTroop:       {name: "home_troop", items: HomeTroopOrder},
	CategoryBuilderTroop:    {name: "builder_troop", items: BuilderTroopOrder},
	CategorySpell:           {name: "spell", items: SpellOrder},
	CategoryElixirSpell:     {name: "elixir_spell", items: ElixirSpellOrder},
	CategoryDarkElixirSpell: {name: "dark_elixir_spell", items: DarkElixirSpellOrder},
}

func AllCategories() []Category {
	return []Category{
		CategoryHero,
		CategoryPet,
		CategoryTroop,
		CategorySuperTroop,
		CategorySiegeMachine,
		CategoryHomeTroop,
		CategoryBuilderTroop,
		CategorySpell,
		CategoryElixirSpell,
		CategoryDarkElixirSpell,
	}
}

func ParseCategory(raw string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for c, info := range categories {
		if info.name == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%s is not a valid category", raw)
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

func (c Category) String() string {
	if info, ok := categories[c]; ok {
		return info.name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Items is the scrape order of the category's items.
func (c Category) Items() []string {
	return slices.Clone(categories[c].items)
}

// Village is where the catalog lookup for item happens.
func (c Category) Village(item string) Village {
	switch c {
	case CategoryBuilderTroop:
		return VillageBuilderBase
	case CategoryHero:
		if slices.Contains(BuilderHeroes, item) {
			return VillageBuilderBase
		}
	}
	return VillageHome
}

func (c Category) IsHomeVillage(item string) bool {
	return c.Village(item) == VillageHome
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}
