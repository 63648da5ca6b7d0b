package shrike

import (
	"crypto/tls"
	"log/slog"
	"time"
)

// Version reported in the session greeting.
const Version = "1.0.0"

// ServerOptions contains the immutable per-server settings. Prefer
// building one via shrike.New().
type ServerOptions struct {
	ServerName         string
	Addr               string
	MaxMessageSize     int
	MaxRetryCount      int
	CommandWaitTimeout time.Duration
	TLSConfig          *tls.Config
	Logger             *slog.Logger

	FilterFactory        MailboxFilterFactory
	StoreFactory         MessageStoreFactory
	AuthenticatorFactory AuthenticatorFactory
	Serializer           MessageSerializer

	// OnCommandExecuting fires before each parsed command runs.
	OnCommandExecuting func(session *SessionContext, command Command)
	// OnSessionAuthenticated fires after a successful AUTH.
	OnSessionAuthenticated func(session *SessionContext, user string)
}

func (o *ServerOptions) filterFor(session *SessionContext) MailboxFilter {
	if o.FilterFactory == nil {
		return AllowAllFilter()
	}
	return o.FilterFactory.CreateFilter(session)
}

func (o *ServerOptions) storeFor(session *SessionContext) MessageStore {
	if o.StoreFactory == nil {
		return DiscardStore()
	}
	return o.StoreFactory.CreateStore(session)
}

func (o *ServerOptions) authenticatorFor(session *SessionContext) Authenticator {
	if o.AuthenticatorFactory == nil {
		return nil
	}
	return o.AuthenticatorFactory.CreateAuthenticator(session)
}

// OptionsBuilder provides a fluent API for configuring a server.
type OptionsBuilder struct {
	options ServerOptions
}

// New creates a new OptionsBuilder for the given server name. The name
// appears in the session greeting.
func New(serverName string) *OptionsBuilder {
	return &OptionsBuilder{
		options: ServerOptions{
			ServerName:         serverName,
			Addr:               ":25",
			MaxRetryCount:      5,
			CommandWaitTimeout: 1 * time.Minute,
			Logger:             slog.Default(),
		},
	}
}

// Addr sets the address to listen on (e.g., ":25", "0.0.0.0:587").
func (b *OptionsBuilder) Addr(addr string) *OptionsBuilder {
	b.options.Addr = addr
	return b
}

// Logger sets the structured logger.
func (b *OptionsBuilder) Logger(logger *slog.Logger) *OptionsBuilder {
	b.options.Logger = logger
	return b
}

// TLS supplies the certificate set used for STARTTLS upgrades.
func (b *OptionsBuilder) TLS(config *tls.Config) *OptionsBuilder {
	b.options.TLSConfig = config
	return b
}

// MaxMessageSize rejects MAIL commands declaring a larger SIZE and
// received bodies exceeding it. Zero means unlimited.
func (b *OptionsBuilder) MaxMessageSize(size int) *OptionsBuilder {
	b.options.MaxMessageSize = size
	return b
}

// MaxRetryCount bounds consecutive invalid commands before the session
// is dropped.
func (b *OptionsBuilder) MaxRetryCount(n int) *OptionsBuilder {
	b.options.MaxRetryCount = n
	return b
}

// CommandWaitTimeout bounds the wait for each command line.
func (b *OptionsBuilder) CommandWaitTimeout(d time.Duration) *OptionsBuilder {
	b.options.CommandWaitTimeout = d
	return b
}

// Filter installs a mailbox filter factory.
func (b *OptionsBuilder) Filter(factory MailboxFilterFactory) *OptionsBuilder {
	b.options.FilterFactory = factory
	return b
}

// Store installs a message store factory.
func (b *OptionsBuilder) Store(factory MessageStoreFactory) *OptionsBuilder {
	b.options.StoreFactory = factory
	return b
}

// Authenticator installs an authenticator factory and enables AUTH.
func (b *OptionsBuilder) Authenticator(factory AuthenticatorFactory) *OptionsBuilder {
	b.options.AuthenticatorFactory = factory
	return b
}

// Serializer replaces the message body serializer.
func (b *OptionsBuilder) Serializer(s MessageSerializer) *OptionsBuilder {
	b.options.Serializer = s
	return b
}

// OnCommandExecuting registers the command-executing hook.
func (b *OptionsBuilder) OnCommandExecuting(fn func(session *SessionContext, command Command)) *OptionsBuilder {
	b.options.OnCommandExecuting = fn
	return b
}

// OnSessionAuthenticated registers the session-authenticated hook.
func (b *OptionsBuilder) OnSessionAuthenticated(fn func(session *SessionContext, user string)) *OptionsBuilder {
	b.options.OnSessionAuthenticated = fn
	return b
}

// Build finalizes the options.
func (b *OptionsBuilder) Build() *ServerOptions {
	options := b.options
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Serializer == nil {
		options.Serializer = TextMessageSerializer{MaxMessageSize: options.MaxMessageSize}
	}
	if options.MaxRetryCount <= 0 {
		options.MaxRetryCount = 5
	}
	if options.CommandWaitTimeout <= 0 {
		options.CommandWaitTimeout = 1 * time.Minute
	}
	return &options
}
