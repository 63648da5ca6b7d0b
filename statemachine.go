package shrike

import (
	"strings"

	"github.com/sylphlabs/shrike/io"
)

// SessionState is the protocol state of one session.
type SessionState int

const (
	// StateInitial is the state before HELO/EHLO.
	StateInitial SessionState = iota
	// StateReady follows HELO; no transaction is open.
	StateReady
	// StateHaveSender follows a successful MAIL.
	StateHaveSender
	// StateHaveRecipient follows at least one successful RCPT.
	StateHaveRecipient
)

func (s SessionState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateReady:
		return "ready"
	case StateHaveSender:
		return "have-sender"
	case StateHaveRecipient:
		return "have-recipient"
	default:
		return "unknown"
	}
}

// makerFunc parses a verb's arguments into a command. A false return
// carries the diagnostic reply for the client.
type makerFunc func(sc *SessionContext, t *Tokenizer) (Command, Reply, bool)

type transition struct {
	guard func(sc *SessionContext) (Reply, bool)
	make  makerFunc
	next  SessionState
}

func guardAuth(sc *SessionContext) (Reply, bool) {
	if sc.authenticator == nil {
		return Reply{CodeCommandNotImplemented, "authentication not enabled"}, false
	}
	if sc.Authenticated {
		return Reply{CodeBadSequence, "already authenticated"}, false
	}
	return Reply{}, true
}

func guardStartTls(sc *SessionContext) (Reply, bool) {
	if sc.Options.TLSConfig == nil {
		return Reply{CodeCommandNotImplemented, "tls not available"}, false
	}
	if sc.Client.Secure() {
		return Reply{CodeBadSequence, "session already secure"}, false
	}
	return Reply{}, true
}

// anyState holds the verbs legal in every state. The next state is the
// current state; these verbs never advance past it.
var anyState = map[string]transition{
	"QUIT":     {make: makeQuit},
	"NOOP":     {make: makeNoop},
	"AUTH":     {guard: guardAuth, make: makeAuth},
	"STARTTLS": {guard: guardStartTls, make: makeStartTls},
}

var stateTable = map[SessionState]map[string]transition{
	StateInitial: {
		"HELO": {make: makeHelo, next: StateReady},
		"EHLO": {make: makeHelo, next: StateReady},
	},
	StateReady: {
		"MAIL": {make: makeMail, next: StateHaveSender},
		"RSET": {make: makeRset, next: StateReady},
	},
	StateHaveSender: {
		"MAIL": {make: makeMail, next: StateHaveSender},
		"RCPT": {make: makeRcpt, next: StateHaveRecipient},
		"RSET": {make: makeRset, next: StateReady},
	},
	StateHaveRecipient: {
		"MAIL": {make: makeMail, next: StateHaveSender},
		"RCPT": {make: makeRcpt, next: StateHaveRecipient},
		"DATA": {make: makeData, next: StateReady},
		"RSET": {make: makeRset, next: StateReady},
	},
}

// knownVerbs separates a 500 (unrecognized) from a 503 (recognized but
// illegal in the current state).
var knownVerbs = map[string]bool{
	"HELO": true, "EHLO": true, "MAIL": true, "RCPT": true,
	"DATA": true, "AUTH": true, "STARTTLS": true, "QUIT": true,
	"NOOP": true, "RSET": true,
}

// StateMachine resolves incoming lines against the session state and
// advances the state after commands that report success.
type StateMachine struct {
	sc    *SessionContext
	state SessionState
	next  SessionState
}

func NewStateMachine(sc *SessionContext) *StateMachine {
	return &StateMachine{sc: sc}
}

func (m *StateMachine) State() SessionState {
	return m.state
}

// TryMake tokenizes one line and resolves it to a command. A false
// return is a client-input failure carrying its diagnostic reply; it
// is never an engine error.
func (m *StateMachine) TryMake(segments io.SegmentList) (Command, Reply, bool) {
	t := NewTokenizer(segments)
	tok := t.Next()
	if tok.Kind != TokenText {
		return nil, Reply{CodeCommandUnrecognized, "unrecognized command"}, false
	}
	verb := strings.ToUpper(tok.Text)

	tr, ok := stateTable[m.state][verb]
	if !ok {
		tr, ok = anyState[verb]
		tr.next = m.state
	}
	if !ok {
		if knownVerbs[verb] {
			return nil, Reply{CodeBadSequence, "bad sequence of commands"}, false
		}
		return nil, Reply{CodeCommandUnrecognized, "unrecognized command"}, false
	}

	if tr.guard != nil {
		if reply, permitted := tr.guard(m.sc); !permitted {
			return nil, reply, false
		}
	}

	cmd, reply, ok := tr.make(m.sc, t)
	if !ok {
		return nil, reply, false
	}
	m.next = tr.next
	return cmd, Reply{}, true
}

// Transition advances the state after a command execution that
// reported advance.
func (m *StateMachine) Transition() {
	m.state = m.next
}
