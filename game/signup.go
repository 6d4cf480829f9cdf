package game

import (
	"sort"

	"github.com/varkas/emberwake/structs"
)

// signupData accumulates registration answers across conversation turns.
// It only carries meaning while the session is in the signup branch and
// is reset the moment a character is persisted or the session closes.
// Fields are unset (nil pointer, empty map, zero value) until the player
// reaches the state that fills them in.
type signupData struct {
	userName string
	password string

	// races is cached on first entry to AskingRace and kept for the rest
	// of the signup attempt; the catalog is static per session. classes
	// is recomputed on every entry to AskingClass, because the player can
	// go back and change race.
	race    *structs.Race
	races   map[string]*structs.Race
	class   *structs.Class
	classes map[string]*structs.Class

	gender structs.Gender

	stats      structs.Stats
	suggestion structs.Stats
	height     int
	weight     int
}

func (su *signupData) reset() {
	*su = signupData{}
}

func (su *signupData) raceNames() []string {
	return sortedKeys(su.races)
}

func (su *signupData) classNames() []string {
	return sortedKeys(su.classes)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make(sort.StringSlice, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Sort(names)
	return names
}
