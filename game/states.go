package game

import (
	"bytes"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rodaine/table"
	"github.com/varkas/emberwake/lang"
	"github.com/varkas/emberwake/storage"
	"github.com/varkas/emberwake/structs"
)

const startingGold = 100

func stateTable() map[Name]state {
	return map[Name]state{
		askingUserName:                   userNameState{},
		askingPassword:                   passwordState{},
		askingUserNameConfirmation:       userNameConfirmationState{},
		askingSignUpPassword:             signUpPasswordState{},
		askingSignUpPasswordConfirmation: signUpPasswordConfirmationState{},
		askingRace:                       raceState{},
		askingClass:                      classState{},
		askingGender:                     genderState{},
		askingExtraStats:                 extraStatsState{},
		askingSignUpConfirmation:         signUpConfirmationState{},
		signedIn:                         signedInState{},
		signInAborted:                    signInAbortedState{},
		sessionClosed:                    sessionClosedState{},
	}
}

// sendStoreError reports a world-store failure to the player without
// leaking internals, and logs the real cause. The state stays put so the
// player may simply try again.
func (ses *Session) sendStoreError(err error) {
	log.Printf("world store error for session %s: %v", ses.id, err)
	ses.send("Something went wrong on our side. Please try again.\n")
}

// infoTopic extracts the argument of an "info <topic>" command.
func infoTopic(answer string) (string, bool) {
	if !strings.HasPrefix(answer, "info ") {
		return "", false
	}
	return strings.TrimSpace(answer[len("info "):]), true
}

// placeholderTopic detects a literally typed "<race>"-style placeholder.
func placeholderTopic(topic string) bool {
	return strings.HasPrefix(topic, "<") && strings.HasSuffix(topic, ">")
}

func describeArchetype(name, description string) string {
	return "\n" + lang.Capitalize(name) + "\n  " +
		strings.Join(lang.Wrap(description, 78), "\n  ") + "\n"
}

type userNameState struct{}

func (userNameState) prompt(ses *Session) {
	ses.send("What is your name? ")
}

func (userNameState) processInput(ses *Session, line string) {
	name := normalizeUserName(line)
	if len(name) < minUserNameLen {
		// A bare newline stays silent; an actual attempt gets the rule.
		if name != "" {
			ses.send("I'm sorry, but your name should consist of at least %s.\n", lang.Count(minUserNameLen, "letter"))
		}
		return
	}

	character, err := ses.game.store.FindCharacter(ses.ctx, name)
	if err == nil {
		ses.character = character
		ses.transitionTo(askingPassword)
		return
	}
	if !errors.Is(err, os.ErrNotExist) {
		ses.sendStoreError(err)
		return
	}
	if ses.game.store.IsReservedName(name) {
		ses.send("Yeah right, like I believe that...\n")
		return
	}
	ses.signup.userName = name
	ses.transitionTo(askingUserNameConfirmation)
}

type passwordState struct{}

func (passwordState) enter(ses *Session) {
	ses.transport.SetEchoMode(EchoMasked)
}

func (passwordState) exit(ses *Session) {
	ses.transport.SetEchoMode(EchoPlain)
}

func (passwordState) prompt(ses *Session) {
	ses.send("Please enter your password: ")
}

func (passwordState) processInput(ses *Session, line string) {
	name := ses.character.Name
	if ses.game.throttle.throttled(name) {
		ses.send("Not so fast. Wait a few seconds before trying again.\n")
		return
	}
	if !ses.character.VerifyPassword(line) {
		ses.logEvent("Authentication failed for character " + name)
		ses.game.throttle.recordFailure(name)
		ses.send("Password incorrect.\n")
		return
	}
	ses.logEvent("Authentication success for character " + name)
	ses.game.throttle.clear(name)

	if ses.game.IsOnline(name) {
		ses.send("Cannot sign you in because you're already signed in from another location.\n")
		ses.transitionTo(sessionClosed)
		return
	}
	ses.send("Welcome back, %s. Type *help* if you're feeling lost.\n", lang.Capitalize(name))
	ses.transitionTo(signedIn)
}

type userNameConfirmationState struct{}

func (userNameConfirmationState) prompt(ses *Session) {
	ses.send("%s, did I get that right? ", lang.Capitalize(ses.signup.userName))
}

func (userNameConfirmationState) processInput(ses *Session, line string) {
	answer := strings.ToLower(strings.TrimSpace(line))
	switch {
	case answersYes(answer):
		ses.transitionTo(askingSignUpPassword)
	case answersNo(answer):
		ses.transitionTo(signInAborted)
	default:
		ses.send("Please answer with yes or no.\n")
	}
}

type signUpPasswordState struct{}

func (signUpPasswordState) enter(ses *Session) {
	ses.transport.SetEchoMode(EchoMasked)
}

func (signUpPasswordState) prompt(ses *Session) {
	ses.send("Please choose a password: ")
}

func (signUpPasswordState) processInput(ses *Session, line string) {
	if err := checkSignUpPassword(ses.signup.userName, line); err != nil {
		ses.send("%s\n", err.Error())
		return
	}
	ses.signup.password = line
	ses.transitionTo(askingSignUpPasswordConfirmation)
}

type signUpPasswordConfirmationState struct{}

func (signUpPasswordConfirmationState) exit(ses *Session) {
	ses.transport.SetEchoMode(EchoPlain)
}

func (signUpPasswordConfirmationState) prompt(ses *Session) {
	ses.send("Please confirm your password: ")
}

func (signUpPasswordConfirmationState) processInput(ses *Session, line string) {
	if ses.signup.password == line {
		ses.send("Password confirmed.\n")
		ses.transitionTo(askingRace)
	} else {
		ses.send("Passwords don't match.\n")
		ses.transitionTo(askingSignUpPassword)
	}
}

type raceState struct{}

func (raceState) enter(ses *Session) {
	su := &ses.signup
	if su.races == nil {
		su.races = map[string]*structs.Race{}
		for _, race := range ses.game.store.Races() {
			su.races[strings.ToLower(race.Name)] = race
		}
	}

	realm := ses.game.store.RealmName()
	ses.send("\n"+
		"Please select which race you would like your character to be.\n"+
		"\n"+
		"Your race determines some attributes of the physique of your character, "+
		"as well as where in %s you will start your journey.\n"+
		"\n"+
		"These are the major races in %s:\n"+
		"\n"+
		"%s", realm, realm, lang.FormatColumns(su.raceNames()))
}

func (raceState) prompt(ses *Session) {
	ses.send("\n" +
		"Please select the race you would like to use, or type *info <race>* to get " +
		"more information about a race.\n")
}

func (raceState) processInput(ses *Session, line string) {
	su := &ses.signup
	answer := strings.ToLower(strings.TrimSpace(line))
	if race, found := su.races[answer]; found {
		ses.send("\nYou have chosen to become a %s.\n", answer)
		su.race = race
		ses.transitionTo(askingClass)
		return
	}
	if topic, ok := infoTopic(answer); ok {
		if race, found := su.races[topic]; found {
			ses.send(describeArchetype(topic, race.Description))
		} else if placeholderTopic(topic) {
			ses.send("\nSorry, you are supposed to replace <race> with the name of an " +
				"actual race. For example: *info human*.\n")
		} else {
			ses.send("\nI don't know anything about the %q race.\n", topic)
		}
	}
}

type classState struct{}

func (classState) enter(ses *Session) {
	su := &ses.signup

	// Recomputed on every entry: the class list depends on the chosen
	// race, and the player may have gone back and changed it.
	su.classes = map[string]*structs.Class{}
	for _, class := range su.race.Classes {
		su.classes[strings.ToLower(class.Name)] = class
	}

	ses.send("\n"+
		"Please select which class you would like your character to be specialized in.\n"+
		"Your class determines additional attributes of the physique of your "+
		"character, and also can influence your choice to be good or evil.\n"+
		"\n"+
		"Note that the available classes are dependent on your choice of race. To "+
		"revisit your choice of race, type *back*.\n"+
		"\n"+
		"These are the classes you may choose from:\n"+
		"\n"+
		"%s", lang.FormatColumns(su.classNames()))
}

func (classState) prompt(ses *Session) {
	ses.send("\n" +
		"Please select the class you would like to use, or type *info <class>* to " +
		"get more information about a class.\n")
}

func (classState) processInput(ses *Session, line string) {
	su := &ses.signup
	answer := strings.ToLower(strings.TrimSpace(line))
	if class, found := su.classes[answer]; found {
		ses.send("\nYou have chosen to become a %s.\n", answer)
		su.class = class
		ses.transitionTo(askingGender)
		return
	}
	if topic, ok := infoTopic(answer); ok {
		if class, found := su.classes[topic]; found {
			ses.send(describeArchetype(topic, class.Description))
		} else if placeholderTopic(topic) {
			ses.send("\nSorry, you are supposed to replace <class> with the name of an " +
				"actual class. For example: *info knight*.\n")
		} else {
			ses.send("\nI don't know anything about the %q class.\n", topic)
		}
		return
	}
	if answersBack(answer) {
		ses.transitionTo(askingRace)
	}
}

type genderState struct{}

func (genderState) enter(ses *Session) {
	ses.send("\n" +
		"Please select which gender you would like your character to be.\n" +
		"Your gender has a minor influence on the physique of your character.")
}

func (genderState) prompt(ses *Session) {
	ses.send("\n" +
		"Please choose *male* or *female*.\n" +
		"\n" +
		"To revisit your choice of class, type *back*.\n")
}

func (genderState) processInput(ses *Session, line string) {
	answer := strings.ToLower(strings.TrimSpace(line))
	switch {
	case answer == "male" || answer == "m":
		ses.send("\nYou have chosen to be male.\n")
		ses.signup.gender = structs.Male
		ses.transitionTo(askingExtraStats)
	case answer == "female" || answer == "f":
		ses.send("\nYou have chosen to be female.\n")
		ses.signup.gender = structs.Female
		ses.transitionTo(askingExtraStats)
	case answersBack(answer):
		ses.transitionTo(askingClass)
	}
}

type extraStatsState struct{}

func (extraStatsState) enter(ses *Session) {
	su := &ses.signup
	computeBaseline(su)

	ses.send("\n"+
		"You have selected to become a %s %s %s.\n"+
		"Your base character stats are:\n"+
		"\n"+
		"  %s\n"+
		"\n"+
		"You may assign an additional %s freely over your various attributes.\n",
		su.gender, su.race.Adjective, su.class.Name,
		statLine(su.stats), lang.Count(extraStatPoints, "point"))
}

func (extraStatsState) prompt(ses *Session) {
	su := &ses.signup
	form := []string{}
	suggestion := []string{}
	for _, stat := range su.allocColumns() {
		form = append(form, "<"+strings.ToLower(string(stat))+">")
		suggestion = append(suggestion, strconv.Itoa(su.suggestion[stat]))
	}

	ses.send("\n"+
		"Please enter the distribution you would like to use in the following form:\n"+
		"\n"+
		"  *%s*\n"+
		"  (Replace every part with a number, for a total of %d. Suggestion: %s)\n"+
		"\n"+
		"To revisit your choice of gender, type *back*. If you want more information "+
		"about character stats, type *info stats*. If you just want to accept the "+
		"suggested stats, type *accept*.\n",
		strings.Join(form, " "), extraStatPoints, strings.Join(suggestion, " "))
}

func (extraStatsState) processInput(ses *Session, line string) {
	su := &ses.signup
	answer := strings.ToLower(strings.TrimSpace(line))
	if answer == "info stats" {
		ses.send(statsOverview)
		return
	}
	if answersBack(answer) {
		ses.transitionTo(askingGender)
		return
	}
	alloc, err := parseAllocation(answer, su.allocColumns(), su.suggestion)
	if errors.Is(err, errAllocationUnrecognized) {
		return
	}
	if err != nil {
		ses.send("\n%s\n", err.Error())
		return
	}
	applyAllocation(su, alloc)
	ses.send("\nYour character stats have been recorded.\n")
	ses.transitionTo(askingSignUpConfirmation)
}

const statsOverview = "\n" +
	"Your character has several attributes, each of which will have a value " +
	"assigned. Collectively, we call these your character stats. Here is an " +
	"overview:\n" +
	"\n" +
	"*Strength* (STR)\n" +
	"  Strength primarily determines the power of your physical attacks. When\n" +
	"  wielding a shield, it also gives a small defense power up.\n" +
	"\n" +
	"*Dexterity* (DEX)\n" +
	"  Dexterity determines the speed with which attacks can be dealt. It also\n" +
	"  improves your chances of evading enemy attacks, and the chance of success\n" +
	"  when fleeing.\n" +
	"\n" +
	"*Vitality* (VIT)\n" +
	"  Vitality primarily determines your max. health points (HP).\n" +
	"\n" +
	"*Endurance* (END)\n" +
	"  Endurance primarily determines your physical defense power.\n" +
	"\n" +
	"*Intelligence* (INT)\n" +
	"  Intelligence determines your max. magic points (MP).\n" +
	"\n" +
	"*Faith* (FAI)\n" +
	"  Faith determines the magical defense power. It also decreases the chance\n" +
	"  that a spell will fail when cast.\n"

type signUpConfirmationState struct{}

func (signUpConfirmationState) enter(ses *Session) {
	su := &ses.signup
	buf := &bytes.Buffer{}
	sheet := table.New("Stat", "Value").WithWriter(buf)
	for _, stat := range structs.StatOrder {
		sheet.AddRow(string(stat), su.stats[stat])
	}
	sheet.AddRow("Height", su.height)
	sheet.AddRow("Weight", su.weight)
	sheet.Print()

	ses.send("\n"+
		"You have selected to become a %s %s %s.\n"+
		"Your final character stats are:\n"+
		"\n"+
		"%s", su.gender, su.race.Adjective, su.class.Name, buf.String())
}

func (signUpConfirmationState) prompt(ses *Session) {
	ses.send("\nAre you ready to create a character with these stats?\n")
}

func (signUpConfirmationState) processInput(ses *Session, line string) {
	answer := strings.ToLower(strings.TrimSpace(line))
	switch {
	case answersYes(answer):
		ses.createCharacter()
	case answersNo(answer) || answersBack(answer):
		ses.transitionTo(askingExtraStats)
	default:
		ses.send("Please answer with yes or no.\n")
	}
}

const nameClaimedMessage = "Uh-oh, it appears someone has claimed your character name while " +
	"you were creating yours. I'm terribly sorry, but it appears you will " +
	"have to start over.\n"

// createCharacter runs the final uniqueness re-check and persists the new
// character. The INSERT is the authoritative check: if another session
// claimed the name between the lookup and the INSERT, the store reports
// the conflict and this session is closed instead.
func (ses *Session) createCharacter() {
	su := &ses.signup

	if _, err := ses.game.store.FindCharacter(ses.ctx, su.userName); err == nil {
		ses.send(nameClaimedMessage)
		ses.transitionTo(sessionClosed)
		return
	} else if !errors.Is(err, os.ErrNotExist) {
		ses.sendStoreError(err)
		return
	}

	anyExist, err := ses.game.store.AnyCharactersExist(ses.ctx)
	if err != nil {
		ses.sendStoreError(err)
		return
	}

	character := &structs.Character{
		Name:     su.userName,
		Race:     su.race.Name,
		Class:    su.class.Name,
		Gender:   su.gender,
		Stats:    su.stats,
		Height:   su.height,
		Weight:   su.weight,
		Location: su.race.StartingLocation,
		Gold:     startingGold,
		// An empty world makes its first inhabitant the administrator.
		Admin: !anyExist,
	}
	character.HP = character.MaxHP()
	character.MP = character.MaxMP()
	if err := character.SetPassword(su.password); err != nil {
		ses.sendStoreError(err)
		return
	}

	if err := ses.game.store.CreateCharacter(ses.ctx, character); errors.Is(err, storage.ErrCharacterExists) {
		ses.send(nameClaimedMessage)
		ses.transitionTo(sessionClosed)
		return
	} else if err != nil {
		ses.sendStoreError(err)
		return
	}

	ses.signup.reset()
	ses.logEvent("Character created for character " + character.Name)
	ses.send("\nWelcome to %s, %s.\n", ses.game.store.RealmName(), lang.Capitalize(character.Name))

	ses.character = character
	ses.transitionTo(signedIn)
}

type signedInState struct{}

func (signedInState) enter(ses *Session) {
	// First-wins registration: if another session for the same character
	// got here in the meantime, this one loses and closes.
	if !ses.game.online.SetIfMissing(ses.character.Name, ses) {
		ses.send("Cannot sign you in because you're already signed in from another location.\n")
		ses.transitionTo(sessionClosed)
		return
	}
	ses.transport.BindCharacter(ses.character)
	ses.transport.SetSessionState(SignedIn)
}

type signInAbortedState struct{}

func (signInAbortedState) enter(ses *Session) {
	ses.send("Okay, bye.\n")
	ses.transitionTo(sessionClosed)
}

type sessionClosedState struct{}

func (sessionClosedState) enter(ses *Session) {
	ses.signup.reset()
	ses.transport.SetSessionState(Closed)
}

func statLine(stats structs.Stats) string {
	parts := []string{}
	for _, stat := range structs.StatOrder {
		parts = append(parts, "*"+string(stat)+": "+strconv.Itoa(stats[stat])+"*")
	}
	return strings.Join(parts, ", ")
}
