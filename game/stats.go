package game

import (
	"fmt"
	"strconv"

	"github.com/buildkite/shellwords"
	"github.com/varkas/emberwake/structs"
)

// extraStatPoints is the discretionary pool the player distributes on top
// of the archetype-derived base stats.
const extraStatPoints = 9

const (
	classKnight    = "knight"
	classWarrior   = "warrior"
	classSoldier   = "soldier"
	classBarbarian = "barbarian"
)

// computeBaseline derives the base character sheet from the chosen race,
// class and gender, before the player allocates the extra points. Runs
// once on entry to AskingExtraStats.
func computeBaseline(su *signupData) {
	su.stats = su.race.Stats.Plus(su.class.Stats)
	su.suggestion = su.race.StatsSuggestion.Plus(su.class.StatsSuggestion)
	su.height = su.race.Height
	su.weight = su.race.Weight

	switch su.class.Name {
	case classKnight:
		su.weight += 10
	case classWarrior, classSoldier:
		su.weight += 5
	case classBarbarian:
		// Barbarians trade intelligence for faith: the INT base is
		// zeroed, its suggested allocation folds into FAI, and the INT
		// column disappears from the allocation entirely.
		su.stats[structs.Intelligence] = 0
		su.weight += 5
		su.suggestion[structs.Faith] += su.suggestion[structs.Intelligence]
		delete(su.suggestion, structs.Intelligence)
	}

	if su.gender == structs.Male {
		su.stats[structs.Strength]++
		su.height += 10
		su.weight += 10
	} else {
		su.stats[structs.Dexterity]++
		su.weight -= 10
	}
}

// allocColumns is the entry order for the distribution: the fixed stat
// order, minus INT for barbarians.
func (su *signupData) allocColumns() []structs.Stat {
	columns := make([]structs.Stat, 0, len(structs.StatOrder))
	for _, stat := range structs.StatOrder {
		if stat == structs.Intelligence && su.class.Name == classBarbarian {
			continue
		}
		columns = append(columns, stat)
	}
	return columns
}

var (
	// errAllocationUnrecognized means the line wasn't an allocation at
	// all; per the dialogue's policy for stray input it is silently
	// ignored.
	errAllocationUnrecognized = fmt.Errorf("unrecognized allocation")
	errAllocationTotal        = fmt.Errorf("The total of attributes should be 9.")
)

// parseAllocation turns a player answer into a stat allocation. The
// accept synonyms take the suggestion verbatim; otherwise the answer must
// contain one number per column, negatives and non-numbers clamp to 0,
// and the total must be exactly extraStatPoints.
func parseAllocation(answer string, columns []structs.Stat, suggestion structs.Stats) (structs.Stats, error) {
	var alloc structs.Stats
	if answer == "accept suggestion" || answer == "accept" || answer == "a" {
		alloc = suggestion.Clone()
	} else {
		fields, err := shellwords.SplitPosix(answer)
		if err != nil || len(fields) != len(columns) {
			return nil, errAllocationUnrecognized
		}
		alloc = structs.Stats{}
		for idx, stat := range columns {
			value, err := strconv.Atoi(fields[idx])
			if err != nil || value < 0 {
				value = 0
			}
			alloc[stat] = value
		}
	}
	if alloc.Total() != extraStatPoints {
		return nil, errAllocationTotal
	}
	return alloc, nil
}

// applyAllocation folds a valid allocation into the working set: stats
// add up elementwise, and the physique shifts with the choices (smart
// characters grow taller, nimble ones leaner, strong ones heavier).
func applyAllocation(su *signupData, alloc structs.Stats) {
	su.stats.Add(alloc)
	su.height += alloc[structs.Intelligence] - alloc[structs.Dexterity]/2
	su.weight += alloc[structs.Strength]
}
