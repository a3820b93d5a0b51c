package gamedata

import "slices"

var (
	HeroOrder = []string{
		"Barbarian King",
		"Archer Queen",
		"Grand Warden",
		"Royal Champion",
		"Battle Machine",
		"Battle Copter",
	}

	BuilderHeroes = []string{
		"Battle Machine",
		"Battle Copter",
	}

	PetOrder = []string{
		"L.A.S.S.I",
		"Electro Owl",
		"Mighty Yak",
		"Unicorn",
		"Frosty",
		"Diggy",
		"Poison Lizard",
		"Phoenix",
		"Spirit Fox",
		"Angry Jelly",
	}

	ElixirTroopOrder = []string{
		"Barbarian",
		"Archer",
		"Giant",
		"Goblin",
		"Wall Breaker",
		"Balloon",
		"Wizard",
		"Healer",
		"Dragon",
		"P.E.K.K.A",
		"Baby Dragon",
		"Miner",
		"Electro Dragon",
		"Yeti",
		"Dragon Rider",
		"Electro Titan",
		"Root Rider",
	}

	DarkElixirTroopOrder = []string{
		"Minion",
		"Hog Rider",
		"Valkyrie",
		"Golem",
		"Witch",
		"Lava Hound",
		"Bowler",
		"Ice Golem",
		"Headhunter",
		"Apprentice Warden",
	}

	SiegeMachineOrder = []string{
		"Wall Wrecker",
		"Battle Blimp",
		"Stone Slammer",
		"Siege Barracks",
		"Log Launcher",
		"Flame Flinger",
		"Battle Drill",
	}

	SuperTroopOrder = []string{
		"Super Barbarian",
		"Super Archer",
		"Super Giant",
		"Sneaky Goblin",
		"Super Wall Breaker",
		"Rocket Balloon",
		"Super Wizard",
		"Super Dragon",
		"Inferno Dragon",
		"Super Minion",
		"Super Valkyrie",
		"Super Witch",
		"Ice Hound",
		"Super Bowler",
		"Super Miner",
		"Super Hog Rider",
	}

	BuilderTroopOrder = []string{
		"Raged Barbarian",
		"Sneaky Archer",
		"Boxer Giant",
		"Beta Minion",
		"Bomber",
		"Baby Dragon",
		"Cannon Cart",
		"Night Witch",
		"Drop Ship",
		"Power P.E.K.K.A",
		"Hog Glider",
		"Electrofire Wizard",
	}

	ElixirSpellOrder = []string{
		"Lightning Spell",
		"Healing Spell",
		"Rage Spell",
		"Jump Spell",
		"Freeze Spell",
		"Clone Spell",
		"Invisibility Spell",
		"Recall Spell",
	}

	DarkElixirSpellOrder = []string{
		"Poison Spell",
		"Earthquake Spell",
		"Haste Spell",
		"Skeleton Spell",
		"Bat Spell",
		"Overgrowth Spell",
	}

	HomeTroopOrder = slices.Concat(ElixirTroopOrder, DarkElixirTroopOrder, SiegeMachineOrder)
	SpellOrder     = slices.Concat(ElixirSpellOrder, DarkElixirSpellOrder)
)

func IsSuperTroop(name string) bool {
	return slices.Contains(SuperTroopOrder, name)
}

func IsPet(name string) bool {
	return slices.Contains(PetOrder, name)
}
