package shrike

import (
	"context"
	"fmt"
	"strings"

	"github.com/sylphlabs/shrike/sasl"
)

// AuthCommand negotiates AUTH PLAIN or AUTH LOGIN. The plaintext
// credentials live only for the duration of Execute.
type AuthCommand struct {
	Mechanism string
	Parameter string
}

func (c *AuthCommand) Verb() string { return "AUTH" }

func (c *AuthCommand) Execute(ctx context.Context, sc *SessionContext) (bool, error) {
	var user, password string
	var ok bool
	var err error

	switch c.Mechanism {
	case sasl.Plain:
		user, password, ok, err = c.plain(sc)
	case sasl.Login:
		user, password, ok, err = c.login(sc)
	default:
		ok = false
	}
	if err != nil {
		return false, err
	}
	if !ok {
		if err := sc.Reply(ReplyAuthenticationFailed); err != nil {
			return false, err
		}
		return false, nil
	}

	if !sc.authenticator.Authenticate(ctx, sc, user, password) {
		if err := sc.Reply(ReplyAuthenticationFailed); err != nil {
			return false, err
		}
		return false, nil
	}

	sc.Authenticated = true
	sc.raiseSessionAuthenticated(user)
	if err := sc.Reply(ReplyAuthenticationSuccessful); err != nil {
		return false, err
	}
	return true, nil
}

// plain resolves the PLAIN response, prompting for it when no inline
// parameter was given.
func (c *AuthCommand) plain(sc *SessionContext) (user, password string, ok bool, err error) {
	response := c.Parameter
	if response == "" {
		response, err = c.prompt(sc, " ")
		if err != nil {
			return "", "", false, err
		}
	}
	user, password, derr := sasl.DecodePlain(response)
	if derr != nil {
		return "", "", false, nil
	}
	return user, password, true, nil
}

// login resolves the LOGIN exchange. The username may arrive inline;
// the password is always prompted for.
func (c *AuthCommand) login(sc *SessionContext) (user, password string, ok bool, err error) {
	encodedUser := c.Parameter
	if encodedUser == "" {
		encodedUser, err = c.prompt(sc, sasl.ChallengeUsername)
		if err != nil {
			return "", "", false, err
		}
	}
	user, derr := sasl.Decode(encodedUser)
	if derr != nil {
		return "", "", false, nil
	}

	encodedPassword, err := c.prompt(sc, sasl.ChallengePassword)
	if err != nil {
		return "", "", false, err
	}
	password, derr = sasl.Decode(encodedPassword)
	if derr != nil {
		return "", "", false, nil
	}
	return user, password, true, nil
}

// prompt issues a 334 continue reply and reads the client's next line.
func (c *AuthCommand) prompt(sc *SessionContext, challenge string) (string, error) {
	if err := sc.Reply(Reply{CodeAuthContinue, challenge}); err != nil {
		return "", err
	}
	segments, err := sc.Client.ReadLine()
	if err != nil {
		return "", fmt.Errorf("reading auth response: %w", err)
	}
	return segments.String(), nil
}

func makeAuth(sc *SessionContext, t *Tokenizer) (Command, Reply, bool) {
	tok := t.Next()
	if tok.Kind != TokenText {
		return nil, Reply{CodeSyntaxError, "missing authentication mechanism"}, false
	}
	mechanism := strings.ToUpper(tok.Text)
	if mechanism != sasl.Plain && mechanism != sasl.Login {
		return nil, Reply{CodeSyntaxError, "unsupported authentication mechanism"}, false
	}
	return &AuthCommand{Mechanism: mechanism, Parameter: t.Remainder()}, Reply{}, true
}
