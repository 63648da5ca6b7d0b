// Shrike is an embeddable SMTP protocol server engine for Go.
//
// It conducts the wire-level conversation with a connecting mail
// client: CRLF framing, command tokenizing, the session state machine
// with its retry and timeout policy, AUTH and STARTTLS negotiation,
// and the hand-off of accept/reject decisions and completed messages
// to pluggable filter, store, and authenticator collaborators.
//
// # Server
//
// Configure a server through the fluent builder:
//
//	store := shrike.NewMemoryStore()
//
//	options := shrike.New("mail.example.com").
//	    Addr(":587").
//	    TLS(tlsConfig).
//	    MaxMessageSize(25 * 1024 * 1024).
//	    Store(shrike.SharedStore(store)).
//	    Filter(shrike.SharedFilter(shrike.AllowAllFilter())).
//	    Authenticator(shrike.SharedAuthenticator(
//	        shrike.StaticAuthenticator{User: "user", Password: "pass"},
//	    )).
//	    Build()
//
//	server := shrike.NewServer(options)
//	if err := server.ListenAndServe(); err != shrike.ErrServerClosed {
//	    log.Fatal(err)
//	}
//
// # Embedding
//
// The engine does not require the accept loop. A session can run over
// any net.Conn:
//
//	session := shrike.NewSession(conn, options)
//	if err := session.Run(ctx); err != nil {
//	    log.Printf("session failed: %v", err)
//	}
//
// # Collaborators
//
// Every policy decision is delegated through a small interface with a
// per-session factory: MailboxFilter judges senders and recipients,
// MessageStore receives the completed transaction, Authenticator
// validates AUTH credentials, and MessageSerializer turns the DATA
// block into a Message. Shared implementations can serve all sessions
// through the SharedFilter, SharedStore, and SharedAuthenticator
// adapters; they must then be safe for concurrent use.
//
// Completed transactions can be encoded as MessagePack snapshots via
// Transaction.Snapshot for queueing or persistence, and decoded again
// with DecodeSnapshot.
package shrike
