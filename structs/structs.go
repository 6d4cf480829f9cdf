package structs

import (
	"database/sql/driver"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/varkas/emberwake"
	"github.com/varkas/emberwake/crypto"
)

// Stat identifies one character attribute. Stat vectors are maps keyed by
// Stat rather than positional slices: the barbarian class removes the INT
// column entirely, and index arithmetic doesn't survive that.
type Stat string

const (
	Strength     Stat = "STR"
	Dexterity    Stat = "DEX"
	Vitality     Stat = "VIT"
	Endurance    Stat = "END"
	Intelligence Stat = "INT"
	Faith        Stat = "FAI"
)

// StatOrder is the fixed column order used for display and for parsing
// player-entered distributions.
var StatOrder = []Stat{Strength, Dexterity, Vitality, Endurance, Intelligence, Faith}

type Stats map[Stat]int

// Plus returns a new vector with the elementwise sum of s and o.
func (s Stats) Plus(o Stats) Stats {
	res := s.Clone()
	res.Add(o)
	return res
}

// Add adds o into s elementwise. Keys absent from s are created.
func (s Stats) Add(o Stats) {
	for stat, value := range o {
		s[stat] += value
	}
}

func (s Stats) Total() int {
	total := 0
	for _, value := range s {
		total += value
	}
	return total
}

func (s Stats) Clone() Stats {
	res := make(Stats, len(s))
	for stat, value := range s {
		res[stat] = value
	}
	return res
}

// Value and Scan store the vector as a JSON column.
func (s Stats) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, emberwake.WithStack(err)
	}
	return string(b), nil
}

func (s *Stats) Scan(src any) error {
	switch t := src.(type) {
	case string:
		return emberwake.WithStack(json.Unmarshal([]byte(t), s))
	case []byte:
		return emberwake.WithStack(json.Unmarshal(t, s))
	}
	return errors.Errorf("can't scan %#v into Stats", src)
}

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Class is a catalog archetype contributing base stats and a suggested
// extra allocation.
type Class struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Stats           Stats  `json:"stats"`
	StatsSuggestion Stats  `json:"statsSuggestion"`
}

// Race is a catalog archetype. Its class list limits which classes a
// character of that race may pick.
type Race struct {
	Name             string   `json:"name"`
	Adjective        string   `json:"adjective"`
	Description      string   `json:"description"`
	PlayerSelectable bool     `json:"playerSelectable"`
	Stats            Stats    `json:"stats"`
	StatsSuggestion  Stats    `json:"statsSuggestion"`
	Height           int      `json:"height"`
	Weight           int      `json:"weight"`
	StartingLocation string   `json:"startingLocation"`
	ClassNames       []string `json:"classes"`

	// Resolved from ClassNames when the catalog is loaded.
	Classes []*Class `json:"-"`
}

// Character is a persisted player record.
type Character struct {
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	Race         string    `db:"race"`
	Class        string    `db:"class"`
	Gender       Gender    `db:"gender"`
	Stats        Stats     `db:"stats"`
	Height       int       `db:"height"`
	Weight       int       `db:"weight"`
	Location     string    `db:"location"`
	HP           int       `db:"hp"`
	MP           int       `db:"mp"`
	Gold         int64     `db:"gold"`
	Admin        bool      `db:"admin"`
	CreatedAt    time.Time `db:"created_at"`
}

// SetPassword stores an Argon2id hash of the new password.
func (c *Character) SetPassword(newPassword string) error {
	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return emberwake.WithStack(err)
	}
	c.PasswordHash = hash
	return nil
}

// VerifyPassword reports whether candidate matches the stored hash.
func (c *Character) VerifyPassword(candidate string) bool {
	return crypto.VerifyPassword(candidate, c.PasswordHash)
}

// MaxHP is derived from the final stat vector; vitality is the main
// contributor.
func (c *Character) MaxHP() int {
	return 2*c.Stats[Vitality] + c.Stats[Endurance]
}

// MaxMP is derived from the final stat vector; intelligence is the main
// contributor.
func (c *Character) MaxMP() int {
	return 2*c.Stats[Intelligence] + c.Stats[Faith]
}
