package game

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gliderlabs/ssh"
	"github.com/pkg/errors"
	"github.com/varkas/emberwake"
	"github.com/varkas/emberwake/lang"
	"github.com/varkas/emberwake/structs"
	"golang.org/x/term"
)

// Connection adapts one SSH session to the conversation machine and,
// after sign-in, runs the command loop. It implements Transport.
type Connection struct {
	game *Game
	sess ssh.Session
	term *term.Terminal
	ses  *Session

	echo      EchoMode
	state     SessionState
	character *structs.Character
}

func (g *Game) HandleSession(sess ssh.Session) {
	conn := &Connection{
		game: g,
		sess: sess,
		term: term.NewTerminal(sess, ""),
	}
	if err := conn.Run(); err != nil {
		if !errors.Is(err, io.EOF) {
			fmt.Fprintf(conn.term, "InternalServerError: %v\n", err)
			log.Println(err)
			log.Println(emberwake.StackTrace(err))
		}
	}
}

func (c *Connection) Send(text string) {
	fmt.Fprint(c.term, text)
}

func (c *Connection) SetEchoMode(mode EchoMode) {
	c.echo = mode
}

func (c *Connection) SetSessionState(state SessionState) {
	c.state = state
}

func (c *Connection) BindCharacter(character *structs.Character) {
	c.character = character
}

// readLine reads one line of player input, masked if a password state is
// active.
func (c *Connection) readLine() (string, error) {
	if c.echo == EchoMasked {
		line, err := c.term.ReadPassword("")
		return line, emberwake.WithStack(err)
	}
	line, err := c.term.ReadLine()
	return line, emberwake.WithStack(err)
}

// Run drives the sign-in dialogue line by line, then hands the
// connection to the signed-in command loop.
func (c *Connection) Run() error {
	c.ses = c.game.NewSession(c.sess.Context(), c.sess.RemoteAddr().String())
	defer c.game.logout(c.ses)

	c.state = SigningIn
	c.ses.Initialize(c)
	for c.state == SigningIn {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		c.ses.HandleLine(line)
	}
	if c.state != SignedIn {
		return nil
	}
	return c.process()
}

func (c *Connection) process() error {
	c.term.SetPrompt("> ")
	for {
		line, err := c.term.ReadLine()
		if err != nil {
			return emberwake.WithStack(err)
		}
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		switch words[0] {
		case "help":
			fmt.Fprint(c.term, "Available commands:\n"+
				"  *who*   List who is currently signed in.\n"+
				"  *help*  Show this text.\n"+
				"  *quit*  Leave the realm.\n")
		case "who":
			names := c.game.OnlineNames()
			for idx, name := range names {
				names[idx] = lang.Capitalize(name)
			}
			fmt.Fprintf(c.term, "%s online: %s.\n",
				lang.Count(len(names), "character"), lang.Enumerator{}.Do(names...))
		case "quit":
			fmt.Fprintf(c.term, "Goodbye, %s.\n", lang.Capitalize(c.character.Name))
			return nil
		default:
			fmt.Fprintf(c.term, "Unknown command: %q\n", words[0])
		}
	}
}
