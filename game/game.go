package game

import (
	"context"
	"sort"

	"github.com/varkas/emberwake"
	"github.com/varkas/emberwake/structs"
)

// WorldStore is the shared world/account store boundary the conversation
// depends on. *storage.Storage implements it; tests substitute fakes.
type WorldStore interface {
	RealmName() string
	FindCharacter(ctx context.Context, name string) (*structs.Character, error)
	IsReservedName(name string) bool
	Races() []*structs.Race
	CreateCharacter(ctx context.Context, character *structs.Character) error
	AnyCharactersExist(ctx context.Context) (bool, error)
	LogSessionEvent(sessionID, source, message string)
}

// Game is the per-process root shared by all sessions: the store, the
// registry of online characters, and the login throttle.
type Game struct {
	store    WorldStore
	online   *emberwake.SyncMap[string, *Session]
	throttle *loginThrottle
}

func New(store WorldStore) *Game {
	return &Game{
		store:    store,
		online:   emberwake.NewSyncMap[string, *Session](),
		throttle: newLoginThrottle(),
	}
}

// NewSession creates the sequential actor for one connection. The context
// is the connection's and cancels with it.
func (g *Game) NewSession(ctx context.Context, source string) *Session {
	return &Session{
		game:   g,
		ctx:    ctx,
		id:     emberwake.NextUniqueID(),
		source: source,
		states: stateTable(),
	}
}

func (g *Game) IsOnline(name string) bool {
	return g.online.Has(name)
}

// OnlineNames returns the names of all signed-in characters, sorted.
func (g *Game) OnlineNames() []string {
	names := sort.StringSlice{}
	for name := range g.online.Keys() {
		names = append(names, name)
	}
	sort.Sort(names)
	return names
}

// logout releases the online registration if this session holds it. Safe
// to call for sessions that never signed in.
func (g *Game) logout(ses *Session) {
	if ses.character == nil {
		return
	}
	if current, found := g.online.GetHas(ses.character.Name); found && current == ses {
		g.online.Del(ses.character.Name)
		g.store.LogSessionEvent(ses.id, ses.source, "Session ended for character "+ses.character.Name)
	}
}
