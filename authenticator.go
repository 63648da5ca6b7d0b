package shrike

import (
	"context"
	"crypto/subtle"
)

// Authenticator validates AUTH credentials. The engine never retains
// the plaintext password beyond the authenticating command.
type Authenticator interface {
	Authenticate(ctx context.Context, session *SessionContext, user, password string) bool
}

// AuthenticatorFactory creates the authenticator for a new session.
type AuthenticatorFactory interface {
	CreateAuthenticator(session *SessionContext) Authenticator
}

// AuthenticatorFactoryFunc adapts a function to AuthenticatorFactory.
type AuthenticatorFactoryFunc func(session *SessionContext) Authenticator

func (f AuthenticatorFactoryFunc) CreateAuthenticator(session *SessionContext) Authenticator {
	return f(session)
}

// SharedAuthenticator returns a factory handing the same authenticator
// to every session.
func SharedAuthenticator(a Authenticator) AuthenticatorFactory {
	return AuthenticatorFactoryFunc(func(*SessionContext) Authenticator {
		return a
	})
}

// StaticAuthenticator accepts exactly one user/password pair.
type StaticAuthenticator struct {
	User     string
	Password string
}

func (a StaticAuthenticator) Authenticate(_ context.Context, _ *SessionContext, user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.User)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.Password)) == 1
	return userOK && passOK
}
