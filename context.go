package shrike

import (
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/sylphlabs/shrike/io"
)

// SessionContext is the shared mutable state of one connection. It is
// owned by the session's goroutine for the session's lifetime and
// passed into each command's Execute.
type SessionContext struct {
	ID      string
	Client  *io.NetworkClient
	Options *ServerOptions

	// ClientDomain is the identity announced by HELO/EHLO.
	ClientDomain  string
	Authenticated bool
	QuitRequested bool

	Transaction *Transaction

	filter        MailboxFilter
	store         MessageStore
	authenticator Authenticator
}

// NewSessionContext prepares the per-session state for one connection,
// creating the session's collaborator instances from the configured
// factories.
func NewSessionContext(client *io.NetworkClient, options *ServerOptions) *SessionContext {
	sc := &SessionContext{
		ID:          ulid.Make().String(),
		Client:      client,
		Options:     options,
		Transaction: NewTransaction(),
	}
	sc.filter = options.filterFor(sc)
	sc.store = options.storeFor(sc)
	sc.authenticator = options.authenticatorFor(sc)
	return sc
}

// Reply writes one reply line and flushes it to the client.
func (sc *SessionContext) Reply(r Reply) error {
	sc.Client.WriteLine(r.String())
	if err := sc.Client.Flush(); err != nil {
		return fmt.Errorf("writing reply %d: %w", r.Code, err)
	}
	return nil
}

func (sc *SessionContext) raiseCommandExecuting(cmd Command) {
	if fn := sc.Options.OnCommandExecuting; fn != nil {
		fn(sc, cmd)
	}
}

func (sc *SessionContext) raiseSessionAuthenticated(user string) {
	if fn := sc.Options.OnSessionAuthenticated; fn != nil {
		fn(sc, user)
	}
}
