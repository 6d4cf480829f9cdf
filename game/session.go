package game

import (
	"context"
	"fmt"

	"github.com/varkas/emberwake/structs"
)

// SessionState is the coarse lifecycle the transport tracks. The machine
// signals a change at most once per actual change: SignedIn on success,
// Closed on abort or failure.
type SessionState int

const (
	Closed SessionState = iota
	SigningIn
	SignedIn
)

// EchoMode selects whether the transport echoes typed input. Password
// states switch to EchoMasked while active.
type EchoMode int

const (
	EchoPlain EchoMode = iota
	EchoMasked
)

// Transport is the session adapter boundary: everything the conversation
// may do to the outside of its own machine. All calls are synchronous and
// fire-and-forget from the conversation's perspective.
type Transport interface {
	Send(text string)
	SetEchoMode(mode EchoMode)
	SetSessionState(state SessionState)
	BindCharacter(character *structs.Character)
}

// Name identifies one conversation state.
type Name string

const (
	askingUserName                   Name = "AskingUserName"
	askingPassword                   Name = "AskingPassword"
	askingUserNameConfirmation       Name = "AskingUserNameConfirmation"
	askingSignUpPassword             Name = "AskingSignUpPassword"
	askingSignUpPasswordConfirmation Name = "AskingSignUpPasswordConfirmation"
	askingRace                       Name = "AskingRace"
	askingClass                      Name = "AskingClass"
	askingGender                     Name = "AskingGender"
	askingExtraStats                 Name = "AskingExtraStats"
	askingSignUpConfirmation         Name = "AskingSignUpConfirmation"
	signedIn                         Name = "SignedIn"
	signInAborted                    Name = "SignInAborted"
	sessionClosed                    Name = "SessionClosed"
)

// Each conversation state is a stateless handler value in the session's
// state table. Hooks are optional: the engine probes for each capability
// with a type assertion. All mutable data lives on the Session itself,
// which every hook receives.
type state any

type enterer interface {
	enter(ses *Session)
}

type exiter interface {
	exit(ses *Session)
}

type prompter interface {
	prompt(ses *Session)
}

type inputHandler interface {
	processInput(ses *Session, line string)
}

// Session is the per-connection dialogue controller. It is a sequential
// actor: the transport delivers one line at a time and each line is
// processed to completion before the next, so no locking happens here.
type Session struct {
	game      *Game
	ctx       context.Context
	id        string
	source    string
	transport Transport

	// character is the authentication candidate while AskingPassword is
	// active, and the signed-in character afterwards.
	character *structs.Character
	signup    signupData

	current Name
	states  map[Name]state
}

// Initialize attaches the transport and enters the first state, producing
// the opening prompt.
func (ses *Session) Initialize(transport Transport) {
	ses.transport = transport
	ses.transitionTo(askingUserName)
	ses.promptCurrent()
}

// HandleLine is the single entry point per inbound line: the active
// state's processInput runs first (a no-op if the state defines none),
// then whatever state is active afterwards gets to prompt.
func (ses *Session) HandleLine(line string) {
	if handler, ok := ses.states[ses.current].(inputHandler); ok {
		handler.processInput(ses, line)
	}
	ses.promptCurrent()
}

// Current returns the active state name.
func (ses *Session) Current() Name {
	return ses.current
}

// transitionTo switches the active state: previous state's exit, pointer
// swap, new state's enter. Transitioning to the already-active state is a
// no-op with no hook calls.
func (ses *Session) transitionTo(name Name) {
	if name == ses.current {
		return
	}
	if ex, ok := ses.states[ses.current].(exiter); ok {
		ex.exit(ses)
	}
	ses.current = name
	if en, ok := ses.states[name].(enterer); ok {
		en.enter(ses)
	}
}

func (ses *Session) promptCurrent() {
	if p, ok := ses.states[ses.current].(prompter); ok {
		p.prompt(ses)
	}
}

func (ses *Session) send(format string, args ...any) {
	if len(args) == 0 {
		ses.transport.Send(format)
		return
	}
	ses.transport.Send(fmt.Sprintf(format, args...))
}

func (ses *Session) logEvent(message string) {
	ses.game.store.LogSessionEvent(ses.id, ses.source, message)
}
