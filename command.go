package shrike

import (
	"context"
	"fmt"
)

// Command is one parsed SMTP command. Execute runs it against the
// session and reports whether the state machine should advance. An
// error return is fatal to the session unless it is a *ReplyError,
// which carries its own reply.
type Command interface {
	Verb() string
	Execute(ctx context.Context, sc *SessionContext) (bool, error)
}

// HeloCommand records the client identity. EHLO is a synonym.
type HeloCommand struct {
	Domain string
}

func (c *HeloCommand) Verb() string { return "HELO" }

func (c *HeloCommand) Execute(ctx context.Context, sc *SessionContext) (bool, error) {
	sc.ClientDomain = c.Domain
	greeting := fmt.Sprintf("Hello %s, haven't we met before?", c.Domain)
	if err := sc.Reply(Reply{CodeOK, greeting}); err != nil {
		return false, err
	}
	return true, nil
}

func makeHelo(sc *SessionContext, t *Tokenizer) (Command, Reply, bool) {
	domain := t.Remainder()
	if domain == "" {
		return nil, Reply{CodeSyntaxError, "missing domain or address"}, false
	}
	return &HeloCommand{Domain: domain}, Reply{}, true
}

// QuitCommand ends the session.
type QuitCommand struct{}

func (QuitCommand) Verb() string { return "QUIT" }

func (QuitCommand) Execute(ctx context.Context, sc *SessionContext) (bool, error) {
	sc.QuitRequested = true
	if err := sc.Reply(ReplyServiceClosing); err != nil {
		return false, err
	}
	return true, nil
}

func makeQuit(sc *SessionContext, t *Tokenizer) (Command, Reply, bool) {
	return QuitCommand{}, Reply{}, true
}

// NoopCommand does nothing.
type NoopCommand struct{}

func (NoopCommand) Verb() string { return "NOOP" }

func (NoopCommand) Execute(ctx context.Context, sc *SessionContext) (bool, error) {
	if err := sc.Reply(ReplyOK); err != nil {
		return false, err
	}
	return true, nil
}

func makeNoop(sc *SessionContext, t *Tokenizer) (Command, Reply, bool) {
	return NoopCommand{}, Reply{}, true
}

// RsetCommand abandons the pending transaction.
type RsetCommand struct{}

func (RsetCommand) Verb() string { return "RSET" }

func (RsetCommand) Execute(ctx context.Context, sc *SessionContext) (bool, error) {
	sc.Transaction.Reset()
	if err := sc.Reply(ReplyOK); err != nil {
		return false, err
	}
	return true, nil
}

func makeRset(sc *SessionContext, t *Tokenizer) (Command, Reply, bool) {
	return RsetCommand{}, Reply{}, true
}

// StartTlsCommand upgrades the connection to TLS in place.
type StartTlsCommand struct{}

func (StartTlsCommand) Verb() string { return "STARTTLS" }

func (StartTlsCommand) Execute(ctx context.Context, sc *SessionContext) (bool, error) {
	if err := sc.Reply(Reply{CodeServiceReady, "ready when you are"}); err != nil {
		return false, err
	}
	if err := sc.Client.Upgrade(sc.Options.TLSConfig); err != nil {
		return false, fmt.Errorf("tls upgrade: %w", err)
	}
	return true, nil
}

func makeStartTls(sc *SessionContext, t *Tokenizer) (Command, Reply, bool) {
	return StartTlsCommand{}, Reply{}, true
}
