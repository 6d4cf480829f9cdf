package game

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/varkas/emberwake/storage"
	"github.com/varkas/emberwake/structs"
)

type testTransport struct {
	sends []string
	echo  EchoMode
	state SessionState
	bound *structs.Character
}

func (tt *testTransport) Send(text string) {
	tt.sends = append(tt.sends, text)
}

func (tt *testTransport) SetEchoMode(mode EchoMode) {
	tt.echo = mode
}

func (tt *testTransport) SetSessionState(state SessionState) {
	tt.state = state
}

func (tt *testTransport) BindCharacter(character *structs.Character) {
	tt.bound = character
}

func (tt *testTransport) output() string {
	return strings.Join(tt.sends, "")
}

// outputSince returns everything sent since the last call.
func (tt *testTransport) outputSince(mark *int) string {
	res := strings.Join(tt.sends[*mark:], "")
	*mark = len(tt.sends)
	return res
}

type testStore struct {
	mu         sync.Mutex
	catalog    *storage.Catalog
	characters map[string]*structs.Character
	events     []string
}

func newTestStore() *testStore {
	return &testStore{
		catalog:    storage.DefaultCatalog(),
		characters: map[string]*structs.Character{},
	}
}

func (s *testStore) RealmName() string {
	return s.catalog.Name
}

func (s *testStore) FindCharacter(_ context.Context, name string) (*structs.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if character, found := s.characters[name]; found {
		return character, nil
	}
	return nil, os.ErrNotExist
}

func (s *testStore) IsReservedName(name string) bool {
	return s.catalog.IsReserved(name)
}

func (s *testStore) Races() []*structs.Race {
	return s.catalog.PlayableRaces()
}

func (s *testStore) CreateCharacter(_ context.Context, character *structs.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.characters[character.Name]; found {
		return storage.ErrCharacterExists
	}
	s.characters[character.Name] = character
	return nil
}

func (s *testStore) AnyCharactersExist(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.characters) > 0, nil
}

func (s *testStore) LogSessionEvent(_, _, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, message)
}

func newTestSession(t *testing.T, g *Game) (*Session, *testTransport) {
	t.Helper()
	transport := &testTransport{state: SigningIn}
	ses := g.NewSession(context.Background(), "test")
	ses.Initialize(transport)
	return ses, transport
}

func drive(ses *Session, lines ...string) {
	for _, line := range lines {
		ses.HandleLine(line)
	}
}

// signUpLines is a complete happy-path registration for a human knight
// named Rowan who accepts the suggested stat distribution.
var signUpLines = []string{
	"Rowan", "yes",
	"hunter2horse", "hunter2horse",
	"human", "knight", "male",
	"accept", "yes",
}

func TestSignUpWalk(t *testing.T) {
	store := newTestStore()
	g := New(store)
	ses, transport := newTestSession(t, g)

	drive(ses, signUpLines...)

	if got := ses.Current(); got != signedIn {
		t.Fatalf("session state = %v, want %v", got, signedIn)
	}
	if transport.state != SignedIn {
		t.Errorf("transport state = %v, want %v", transport.state, SignedIn)
	}

	character, found := store.characters["rowan"]
	if !found {
		t.Fatal("character rowan was not created")
	}
	if transport.bound != character {
		t.Error("transport was not bound to the created character")
	}

	// human base (2 everywhere) + knight + male STR bonus + suggested
	// allocation (human 1/1/1/-/1/- plus knight 2/-/1/2/-/-).
	wantStats := structs.Stats{
		structs.Strength:     8,
		structs.Dexterity:    3,
		structs.Vitality:     6,
		structs.Endurance:    6,
		structs.Intelligence: 3,
		structs.Faith:        3,
	}
	for stat, want := range wantStats {
		if got := character.Stats[stat]; got != want {
			t.Errorf("stats[%s] = %d, want %d", stat, got, want)
		}
	}
	if character.Height != 181 {
		t.Errorf("height = %d, want 181", character.Height)
	}
	if character.Weight != 93 {
		t.Errorf("weight = %d, want 93", character.Weight)
	}
	if character.HP != character.MaxHP() || character.MP != character.MaxMP() {
		t.Errorf("HP/MP = %d/%d, want %d/%d", character.HP, character.MP, character.MaxHP(), character.MaxMP())
	}
	if character.Gold != 100 {
		t.Errorf("gold = %d, want 100", character.Gold)
	}
	if character.Location != "ember-square" {
		t.Errorf("location = %q, want %q", character.Location, "ember-square")
	}
	if !character.Admin {
		t.Error("first character ever should be admin")
	}
	if !character.VerifyPassword("hunter2horse") {
		t.Error("stored password hash does not verify")
	}
	if !g.IsOnline("rowan") {
		t.Error("rowan should be registered online after signup")
	}
}

func TestSecondCharacterIsNotAdmin(t *testing.T) {
	store := newTestStore()
	g := New(store)

	ses1, _ := newTestSession(t, g)
	drive(ses1, signUpLines...)

	ses2, _ := newTestSession(t, g)
	lines := append([]string{}, signUpLines...)
	lines[0] = "Brona"
	drive(ses2, lines...)

	if character := store.characters["brona"]; character == nil {
		t.Fatal("character brona was not created")
	} else if character.Admin {
		t.Error("second character should not be admin")
	}
}

func TestSignInWalk(t *testing.T) {
	store := newTestStore()
	g := New(store)

	ses1, _ := newTestSession(t, g)
	drive(ses1, signUpLines...)
	g.logout(ses1)

	ses2, transport := newTestSession(t, g)
	mark := len(transport.sends)
	drive(ses2, "Rowan")
	if ses2.Current() != askingPassword {
		t.Fatalf("state after existing name = %v, want %v", ses2.Current(), askingPassword)
	}
	if transport.echo != EchoMasked {
		t.Error("echo should be masked while asking for the password")
	}
	drive(ses2, "hunter2horse")
	if got := transport.outputSince(&mark); !strings.Contains(got, "Welcome back, Rowan") {
		t.Errorf("missing welcome back message, got %q", got)
	}
	if ses2.Current() != signedIn {
		t.Errorf("state = %v, want %v", ses2.Current(), signedIn)
	}
	if transport.echo != EchoPlain {
		t.Error("echo should be plain again after the password state")
	}
}

func TestWrongPasswordThenThrottled(t *testing.T) {
	store := newTestStore()
	g := New(store)

	ses1, _ := newTestSession(t, g)
	drive(ses1, signUpLines...)
	g.logout(ses1)

	ses2, transport := newTestSession(t, g)
	drive(ses2, "Rowan")
	mark := len(transport.sends)

	drive(ses2, "wrongpassword")
	if got := transport.outputSince(&mark); !strings.Contains(got, "Password incorrect.") {
		t.Errorf("missing password incorrect message, got %q", got)
	}
	if ses2.Current() != askingPassword {
		t.Errorf("state = %v, want %v", ses2.Current(), askingPassword)
	}

	// The failure is fresh, so even the correct password is refused.
	drive(ses2, "hunter2horse")
	if got := transport.outputSince(&mark); !strings.Contains(got, "Not so fast") {
		t.Errorf("missing throttle message, got %q", got)
	}
	if ses2.Current() != askingPassword {
		t.Errorf("state = %v, want %v", ses2.Current(), askingPassword)
	}
}

func TestDuplicateSignInRefused(t *testing.T) {
	store := newTestStore()
	g := New(store)

	ses1, _ := newTestSession(t, g)
	drive(ses1, signUpLines...)

	ses2, transport := newTestSession(t, g)
	drive(ses2, "Rowan", "hunter2horse")
	if ses2.Current() != sessionClosed {
		t.Errorf("state = %v, want %v", ses2.Current(), sessionClosed)
	}
	if transport.state != Closed {
		t.Errorf("transport state = %v, want %v", transport.state, Closed)
	}
	if !strings.Contains(transport.output(), "already signed in from another location") {
		t.Error("missing duplicate sign-in message")
	}
}

func TestConcurrentNameClaim(t *testing.T) {
	store := newTestStore()
	g := New(store)

	walkToConfirmation := signUpLines[:len(signUpLines)-1]

	ses1, _ := newTestSession(t, g)
	ses2, transport2 := newTestSession(t, g)
	drive(ses1, walkToConfirmation...)
	drive(ses2, walkToConfirmation...)

	drive(ses1, "yes")
	drive(ses2, "yes")

	if ses1.Current() != signedIn {
		t.Errorf("first session state = %v, want %v", ses1.Current(), signedIn)
	}
	if ses2.Current() != sessionClosed {
		t.Errorf("second session state = %v, want %v", ses2.Current(), sessionClosed)
	}
	if !strings.Contains(transport2.output(), "someone has claimed your character name") {
		t.Error("missing claimed-name message on the losing session")
	}
	if len(store.characters) != 1 {
		t.Errorf("characters created = %d, want 1", len(store.characters))
	}
}

func TestShortAndReservedUserNames(t *testing.T) {
	store := newTestStore()
	g := New(store)
	ses, transport := newTestSession(t, g)
	mark := len(transport.sends)

	drive(ses, "Al")
	if got := transport.outputSince(&mark); !strings.Contains(got, "at least 3 letters") {
		t.Errorf("missing short-name message, got %q", got)
	}

	// A blank line just reprompts.
	drive(ses, "")
	if got := transport.outputSince(&mark); got != "What is your name? " {
		t.Errorf("blank line output = %q, want bare prompt", got)
	}

	drive(ses, "admin")
	if got := transport.outputSince(&mark); !strings.Contains(got, "Yeah right") {
		t.Errorf("missing reserved-name message, got %q", got)
	}
	if ses.Current() != askingUserName {
		t.Errorf("state = %v, want %v", ses.Current(), askingUserName)
	}
}

func TestAbortedSignUp(t *testing.T) {
	store := newTestStore()
	g := New(store)
	ses, transport := newTestSession(t, g)

	drive(ses, "Rowan", "no")
	if ses.Current() != sessionClosed {
		t.Errorf("state = %v, want %v", ses.Current(), sessionClosed)
	}
	if transport.state != Closed {
		t.Errorf("transport state = %v, want %v", transport.state, Closed)
	}
	if !strings.Contains(transport.output(), "Okay, bye.") {
		t.Error("missing goodbye message")
	}
	if ses.signup.userName != "" {
		t.Error("signup accumulator should be reset when the session closes")
	}
}

func TestPasswordMismatchRestartsPasswordEntry(t *testing.T) {
	store := newTestStore()
	g := New(store)
	ses, transport := newTestSession(t, g)

	drive(ses, "Rowan", "yes", "hunter2horse", "different")
	if !strings.Contains(transport.output(), "Passwords don't match.") {
		t.Error("missing mismatch message")
	}
	if ses.Current() != askingSignUpPassword {
		t.Errorf("state = %v, want %v", ses.Current(), askingSignUpPassword)
	}
	if transport.echo != EchoMasked {
		t.Error("echo should be masked again for the retried password")
	}
}

func TestBackRefreshesClassList(t *testing.T) {
	store := newTestStore()
	g := New(store)
	ses, transport := newTestSession(t, g)

	drive(ses, "Rowan", "yes", "hunter2horse", "hunter2horse", "elf")
	if _, found := ses.signup.classes["ranger"]; !found {
		t.Fatal("elf class list should offer ranger")
	}

	mark := len(transport.sends)
	drive(ses, "back")
	if ses.Current() != askingRace {
		t.Fatalf("state after back = %v, want %v", ses.Current(), askingRace)
	}

	drive(ses, "dwarf")
	if ses.Current() != askingClass {
		t.Fatalf("state = %v, want %v", ses.Current(), askingClass)
	}
	if _, found := ses.signup.classes["ranger"]; found {
		t.Error("dwarf class list should not offer ranger")
	}
	if _, found := ses.signup.classes["warrior"]; !found {
		t.Error("dwarf class list should offer warrior")
	}
	if got := transport.outputSince(&mark); !strings.Contains(got, "Warrior") {
		t.Errorf("class listing should be re-rendered after changing race, got %q", got)
	}
}

func TestRaceInfo(t *testing.T) {
	store := newTestStore()
	g := New(store)
	ses, transport := newTestSession(t, g)
	drive(ses, "Rowan", "yes", "hunter2horse", "hunter2horse")
	mark := len(transport.sends)

	tests := []struct {
		name  string
		line  string
		want  string
		state Name
	}{
		{"known race", "info human", "Humans are the most numerous", askingRace},
		{"placeholder", "info <race>", "replace <race> with the name", askingRace},
		{"unknown race", "info gnome", `I don't know anything about the "gnome" race.`, askingRace},
		{"stray input", "what?", "", askingRace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drive(ses, tt.line)
			got := transport.outputSince(&mark)
			if tt.want != "" && !strings.Contains(got, tt.want) {
				t.Errorf("output %q does not contain %q", got, tt.want)
			}
			if tt.want == "" && !strings.HasPrefix(got, "\nPlease select the race") {
				t.Errorf("stray input should only reprompt, got %q", got)
			}
			if ses.Current() != tt.state {
				t.Errorf("state = %v, want %v", ses.Current(), tt.state)
			}
		})
	}
}

func TestRejectedAllocationKeepsState(t *testing.T) {
	store := newTestStore()
	g := New(store)
	ses, transport := newTestSession(t, g)
	drive(ses, "Rowan", "yes", "hunter2horse", "hunter2horse", "human", "knight", "male")
	if ses.Current() != askingExtraStats {
		t.Fatalf("state = %v, want %v", ses.Current(), askingExtraStats)
	}
	mark := len(transport.sends)

	drive(ses, "3 3 3 3 3 3")
	if got := transport.outputSince(&mark); !strings.Contains(got, "The total of attributes should be 9.") {
		t.Errorf("missing total message, got %q", got)
	}
	if ses.Current() != askingExtraStats {
		t.Errorf("state = %v, want %v", ses.Current(), askingExtraStats)
	}

	drive(ses, "info stats")
	if got := transport.outputSince(&mark); !strings.Contains(got, "*Strength* (STR)") {
		t.Errorf("missing stats overview, got %q", got)
	}

	drive(ses, "0 0 9 0 0 0")
	if ses.Current() != askingSignUpConfirmation {
		t.Errorf("state = %v, want %v", ses.Current(), askingSignUpConfirmation)
	}
}

type hookCounts struct {
	enter, exit, prompt, input int
}

type countingState struct {
	c *hookCounts
}

func (s countingState) enter(ses *Session)  { s.c.enter++ }
func (s countingState) exit(ses *Session)   { s.c.exit++ }
func (s countingState) prompt(ses *Session) { s.c.prompt++ }

func (s countingState) processInput(ses *Session, _ string) { s.c.input++ }

type jumpState struct {
	c  *hookCounts
	to Name
}

func (s jumpState) exit(ses *Session)   { s.c.exit++ }
func (s jumpState) prompt(ses *Session) { s.c.prompt++ }
func (s jumpState) processInput(ses *Session, _ string) {
	s.c.input++
	ses.transitionTo(s.to)
}

func TestHookCounts(t *testing.T) {
	g := New(newTestStore())
	ses := g.NewSession(context.Background(), "test")
	ses.transport = &testTransport{}

	a, b := &hookCounts{}, &hookCounts{}
	ses.states = map[Name]state{
		"a": jumpState{c: a, to: "b"},
		"b": countingState{c: b},
	}
	ses.current = "a"

	// The input transitions a -> b, so b gets the prompt, not a.
	ses.HandleLine("go")
	if a.input != 1 || a.exit != 1 || a.prompt != 0 {
		t.Errorf("a counts = %+v, want input 1, exit 1, prompt 0", *a)
	}
	if b.enter != 1 || b.prompt != 1 {
		t.Errorf("b counts = %+v, want enter 1, prompt 1", *b)
	}

	// Transitioning to the already-active state runs no hooks.
	ses.transitionTo("b")
	if b.enter != 1 || b.exit != 0 {
		t.Errorf("self-transition ran hooks: %+v", *b)
	}

	// A line in a state without processInput still produces a prompt.
	ses.HandleLine("noop")
	if b.input != 1 || b.prompt != 2 {
		t.Errorf("b counts = %+v, want input 1, prompt 2", *b)
	}
}

func TestLogoutReleasesOnlineRegistration(t *testing.T) {
	store := newTestStore()
	g := New(store)
	ses, _ := newTestSession(t, g)
	drive(ses, signUpLines...)

	if !g.IsOnline("rowan") {
		t.Fatal("rowan should be online")
	}
	g.logout(ses)
	if g.IsOnline("rowan") {
		t.Error("rowan should be offline after logout")
	}
	// Logging out twice is harmless.
	g.logout(ses)

	found := false
	for _, event := range store.events {
		if event == "Session ended for character rowan" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing session-ended event, got %v", store.events)
	}
}
