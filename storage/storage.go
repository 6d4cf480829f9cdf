package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/varkas/emberwake"
	"github.com/varkas/emberwake/structs"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

func init() {
	// modernc registers itself as "sqlite"; teach sqlx its bindvar style.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

var (
	// ErrCharacterExists is returned by CreateCharacter when the name is
	// already claimed. Creation relies on the PRIMARY KEY constraint, so
	// two concurrent signups for the same name get exactly one success.
	ErrCharacterExists = fmt.Errorf("character already exists")
)

const schema = `
CREATE TABLE IF NOT EXISTS characters (
	name TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	race TEXT NOT NULL,
	class TEXT NOT NULL,
	gender TEXT NOT NULL,
	stats TEXT NOT NULL,
	height INTEGER NOT NULL,
	weight INTEGER NOT NULL,
	location TEXT NOT NULL,
	hp INTEGER NOT NULL,
	mp INTEGER NOT NULL,
	gold INTEGER NOT NULL,
	admin INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// Storage is the shared world/account store: character records in SQLite
// plus the immutable catalog and the session event log.
type Storage struct {
	db      *sqlx.DB
	catalog *Catalog
	events  *EventLogger
}

func New(dir string, catalog *Catalog) (*Storage, error) {
	dsn := filepath.Join(dir, "emberwake.db") + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, emberwake.WithStack(err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, emberwake.WithStack(err)
	}
	return &Storage{
		db:      db,
		catalog: catalog,
		events:  NewEventLogger(filepath.Join(dir, "sessions.log")),
	}, nil
}

func (s *Storage) Close() error {
	s.events.Close()
	return emberwake.WithStack(s.db.Close())
}

// RealmName returns the name of the world, used in prompts.
func (s *Storage) RealmName() string {
	return s.catalog.Name
}

// FindCharacter loads a character by (already normalized) name. Absence is
// reported as os.ErrNotExist.
func (s *Storage) FindCharacter(ctx context.Context, name string) (*structs.Character, error) {
	character := &structs.Character{}
	if err := s.db.GetContext(ctx, character, "SELECT * FROM characters WHERE name = ?", name); errors.Is(err, sql.ErrNoRows) {
		return nil, emberwake.WithStack(os.ErrNotExist)
	} else if err != nil {
		return nil, emberwake.WithStack(err)
	}
	return character, nil
}

// CreateCharacter inserts a new character record. The INSERT itself is the
// uniqueness check: a primary key conflict means someone else claimed the
// name first, and surfaces as ErrCharacterExists.
func (s *Storage) CreateCharacter(ctx context.Context, character *structs.Character) error {
	character.CreatedAt = time.Now().UTC()
	if _, err := s.db.NamedExecContext(ctx, `
INSERT INTO characters (name, password_hash, race, class, gender, stats, height, weight, location, hp, mp, gold, admin, created_at)
VALUES (:name, :password_hash, :race, :class, :gender, :stats, :height, :weight, :location, :hp, :mp, :gold, :admin, :created_at)`,
		character); err != nil {
		if isConstraintErr(err) {
			return emberwake.WithStack(ErrCharacterExists)
		}
		return emberwake.WithStack(err)
	}
	return nil
}

func isConstraintErr(err error) bool {
	serr := &msqlite.Error{}
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

// AnyCharactersExist reports whether the world has any characters at all.
// The first character ever created is granted admin rights.
func (s *Storage) AnyCharactersExist(ctx context.Context) (bool, error) {
	count := 0
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM characters"); err != nil {
		return false, emberwake.WithStack(err)
	}
	return count > 0, nil
}

func (s *Storage) IsReservedName(name string) bool {
	return s.catalog.IsReserved(name)
}

// Races returns the player-selectable race catalog.
func (s *Storage) Races() []*structs.Race {
	return s.catalog.PlayableRaces()
}

// LogSessionEvent records a security-relevant session event. Fire and
// forget: it never blocks or fails the conversation.
func (s *Storage) LogSessionEvent(sessionID, source, message string) {
	s.events.Log(sessionID, source, message)
}
