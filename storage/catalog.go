package storage

import (
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/varkas/emberwake"
	"github.com/varkas/emberwake/structs"
)

// Catalog holds the static world data the signup dialogue is driven by:
// the realm name, the reserved-name list, and the race/class archetypes.
// It is immutable once loaded.
type Catalog struct {
	Name          string           `json:"name"`
	ReservedNames []string         `json:"reservedNames"`
	Races         []*structs.Race  `json:"races"`
	Classes       []*structs.Class `json:"classes"`
}

// LoadCatalog reads a catalog from a JSON file and resolves class
// references.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, emberwake.WithStack(err)
	}
	catalog := &Catalog{}
	if err := json.Unmarshal(b, catalog); err != nil {
		return nil, emberwake.WithStack(err)
	}
	if err := catalog.resolve(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// resolve links each race's class-name list to the shared class entries.
func (c *Catalog) resolve() error {
	byName := map[string]*structs.Class{}
	for _, class := range c.Classes {
		byName[class.Name] = class
	}
	for _, race := range c.Races {
		race.Classes = race.Classes[:0]
		for _, name := range race.ClassNames {
			class, found := byName[name]
			if !found {
				return errors.Errorf("race %q references unknown class %q", race.Name, name)
			}
			race.Classes = append(race.Classes, class)
		}
	}
	return nil
}

// PlayableRaces returns the races a new character may pick.
func (c *Catalog) PlayableRaces() []*structs.Race {
	res := []*structs.Race{}
	for _, race := range c.Races {
		if race.PlayerSelectable {
			res = append(res, race)
		}
	}
	return res
}

func (c *Catalog) IsReserved(name string) bool {
	for _, reserved := range c.ReservedNames {
		if strings.EqualFold(name, reserved) {
			return true
		}
	}
	return false
}

// DefaultCatalog returns the built-in world data. A JSON catalog file, if
// configured, replaces it wholesale.
func DefaultCatalog() *Catalog {
	knight := &structs.Class{
		Name:            "knight",
		Description:     "Knights are oathbound heavy fighters. Their armor and training make them hard to bring down, at the cost of mobility.",
		Stats:           structs.Stats{structs.Strength: 2, structs.Vitality: 2, structs.Endurance: 2, structs.Faith: 1},
		StatsSuggestion: structs.Stats{structs.Strength: 2, structs.Vitality: 1, structs.Endurance: 2},
	}
	soldier := &structs.Class{
		Name:            "soldier",
		Description:     "Soldiers are disciplined all-round fighters, drilled to hold a line and to march long days under full pack.",
		Stats:           structs.Stats{structs.Strength: 2, structs.Dexterity: 1, structs.Vitality: 2, structs.Endurance: 1},
		StatsSuggestion: structs.Stats{structs.Strength: 2, structs.Dexterity: 1, structs.Vitality: 1, structs.Endurance: 1},
	}
	warrior := &structs.Class{
		Name:            "warrior",
		Description:     "Warriors live for the fight itself. They hit harder than anyone, and prefer to end battles before endurance matters.",
		Stats:           structs.Stats{structs.Strength: 3, structs.Dexterity: 1, structs.Vitality: 1, structs.Endurance: 1},
		StatsSuggestion: structs.Stats{structs.Strength: 3, structs.Dexterity: 1, structs.Vitality: 1},
	}
	barbarian := &structs.Class{
		Name:            "barbarian",
		Description:     "Barbarians trade book-learning for fury and faith in the old spirits. No barbarian ever cast a spell from a scroll.",
		Stats:           structs.Stats{structs.Strength: 3, structs.Dexterity: 1, structs.Vitality: 2, structs.Endurance: 1},
		StatsSuggestion: structs.Stats{structs.Strength: 2, structs.Dexterity: 1, structs.Vitality: 1, structs.Intelligence: 1},
	}
	mage := &structs.Class{
		Name:            "mage",
		Description:     "Mages bend raw magic to their will. Physically frail, they make up for it once their spells start landing.",
		Stats:           structs.Stats{structs.Dexterity: 1, structs.Vitality: 1, structs.Intelligence: 3, structs.Faith: 2},
		StatsSuggestion: structs.Stats{structs.Dexterity: 1, structs.Intelligence: 3, structs.Faith: 1},
	}
	cleric := &structs.Class{
		Name:            "cleric",
		Description:     "Clerics channel the favor of their gods into healing and protection. Their faith is their shield.",
		Stats:           structs.Stats{structs.Strength: 1, structs.Vitality: 1, structs.Endurance: 1, structs.Intelligence: 1, structs.Faith: 3},
		StatsSuggestion: structs.Stats{structs.Vitality: 1, structs.Intelligence: 1, structs.Faith: 3},
	}
	ranger := &structs.Class{
		Name:            "ranger",
		Description:     "Rangers roam the wild borders, striking from cover and vanishing again. Speed is their armor.",
		Stats:           structs.Stats{structs.Strength: 1, structs.Dexterity: 3, structs.Vitality: 1, structs.Endurance: 1, structs.Faith: 1},
		StatsSuggestion: structs.Stats{structs.Strength: 1, structs.Dexterity: 2, structs.Vitality: 1, structs.Endurance: 1},
	}

	catalog := &Catalog{
		Name: "Emberwake",
		ReservedNames: []string{
			"admin", "administrator", "root", "system", "emberwake", "god",
		},
		Classes: []*structs.Class{knight, soldier, warrior, barbarian, mage, cleric, ranger},
		Races: []*structs.Race{
			{
				Name:             "human",
				Adjective:        "human",
				Description:      "Humans are the most numerous folk of Emberwake, found in every trade and every trouble. They adapt to any calling.",
				PlayerSelectable: true,
				Stats:            structs.Stats{structs.Strength: 2, structs.Dexterity: 2, structs.Vitality: 2, structs.Endurance: 2, structs.Intelligence: 2, structs.Faith: 2},
				StatsSuggestion:  structs.Stats{structs.Strength: 1, structs.Dexterity: 1, structs.Vitality: 1, structs.Intelligence: 1},
				Height:           170,
				Weight:           70,
				StartingLocation: "ember-square",
				ClassNames:       []string{"knight", "soldier", "warrior", "barbarian", "mage"},
			},
			{
				Name:             "elf",
				Adjective:        "elven",
				Description:      "Elves of the Silverwood live long enough to master whatever they set their minds to, and their minds wander far.",
				PlayerSelectable: true,
				Stats:            structs.Stats{structs.Strength: 1, structs.Dexterity: 3, structs.Vitality: 1, structs.Endurance: 1, structs.Intelligence: 3, structs.Faith: 2},
				StatsSuggestion:  structs.Stats{structs.Dexterity: 2, structs.Intelligence: 1, structs.Faith: 1},
				Height:           180,
				Weight:           60,
				StartingLocation: "silverwood-glade",
				ClassNames:       []string{"ranger", "mage", "cleric"},
			},
			{
				Name:             "dwarf",
				Adjective:        "dwarven",
				Description:      "Dwarves of the Deepvault are stubborn as the stone they mine. What they lack in reach they repay in grit.",
				PlayerSelectable: true,
				Stats:            structs.Stats{structs.Strength: 3, structs.Dexterity: 1, structs.Vitality: 3, structs.Endurance: 3, structs.Intelligence: 1, structs.Faith: 1},
				StatsSuggestion:  structs.Stats{structs.Strength: 2, structs.Vitality: 1, structs.Endurance: 1},
				Height:           140,
				Weight:           80,
				StartingLocation: "deepvault-gate",
				ClassNames:       []string{"warrior", "barbarian", "cleric", "soldier"},
			},
		},
	}
	if err := catalog.resolve(); err != nil {
		// The built-in data is internally consistent; a failure here is a
		// programming error.
		panic(err)
	}
	return catalog
}
