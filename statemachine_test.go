package shrike

import (
	"crypto/tls"
	"net"
	"testing"

	shrikeio "github.com/sylphlabs/shrike/io"
)

// newTestContext builds a session context over an unused pipe. Command
// construction never touches the transport.
func newTestContext(t *testing.T, options *ServerOptions) *SessionContext {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() {
		serverConn.Close()
		clientConn.Close()
	})
	return NewSessionContext(shrikeio.NewNetworkClient(serverConn), options)
}

func TestTryMakeVerbResolution(t *testing.T) {
	tests := []struct {
		name         string
		state        SessionState
		line         string
		expectedCode ReplyCode // 0 means the command must be made
		expectedVerb string
	}{
		{name: "unknown verb", state: StateInitial, line: "FROB x", expectedCode: CodeCommandUnrecognized},
		{name: "empty line", state: StateInitial, line: "", expectedCode: CodeCommandUnrecognized},
		{name: "mail before helo", state: StateInitial, line: "MAIL FROM:<a@b.com>", expectedCode: CodeBadSequence},
		{name: "rcpt before mail", state: StateReady, line: "RCPT TO:<a@b.com>", expectedCode: CodeBadSequence},
		{name: "data before rcpt", state: StateHaveSender, line: "DATA", expectedCode: CodeBadSequence},
		{name: "helo repeated", state: StateReady, line: "HELO again.example.com", expectedCode: CodeBadSequence},
		{name: "rset before helo", state: StateInitial, line: "RSET", expectedCode: CodeBadSequence},

		{name: "helo", state: StateInitial, line: "HELO mail.example.com", expectedVerb: "HELO"},
		{name: "ehlo is a synonym", state: StateInitial, line: "EHLO mail.example.com", expectedVerb: "HELO"},
		{name: "verb is case insensitive", state: StateInitial, line: "helo mail.example.com", expectedVerb: "HELO"},
		{name: "mail", state: StateReady, line: "MAIL FROM:<a@b.com>", expectedVerb: "MAIL"},
		{name: "null reverse-path", state: StateReady, line: "MAIL FROM:<>", expectedVerb: "MAIL"},
		{name: "mail restarts from have-sender", state: StateHaveSender, line: "MAIL FROM:<a@b.com>", expectedVerb: "MAIL"},
		{name: "rcpt", state: StateHaveSender, line: "RCPT TO:<c@d.com>", expectedVerb: "RCPT"},
		{name: "data", state: StateHaveRecipient, line: "DATA", expectedVerb: "DATA"},
		{name: "quit anywhere", state: StateInitial, line: "QUIT", expectedVerb: "QUIT"},
		{name: "noop anywhere", state: StateHaveRecipient, line: "NOOP", expectedVerb: "NOOP"},
		{name: "rset after mail", state: StateHaveSender, line: "RSET", expectedVerb: "RSET"},

		{name: "mail missing colon", state: StateReady, line: "MAIL FROM <a@b.com>", expectedCode: CodeSyntaxError},
		{name: "mail missing path", state: StateReady, line: "MAIL FROM:", expectedCode: CodeSyntaxError},
		{name: "mail unclosed path", state: StateReady, line: "MAIL FROM:<a@b.com", expectedCode: CodeSyntaxError},
		{name: "rcpt null forward-path", state: StateHaveSender, line: "RCPT TO:<>", expectedCode: CodeSyntaxError},
		{name: "helo without domain", state: StateInitial, line: "HELO", expectedCode: CodeSyntaxError},
	}

	options := New("test.example.com").Logger(discardLogger()).Build()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := NewStateMachine(newTestContext(t, options))
			machine.state = tt.state

			cmd, reply, ok := machine.TryMake(line(tt.line))
			if tt.expectedCode != 0 {
				if ok {
					t.Fatalf("TryMake(%q) succeeded, want reply %d", tt.line, tt.expectedCode)
				}
				if reply.Code != tt.expectedCode {
					t.Errorf("TryMake(%q) reply = %v, want code %d", tt.line, reply, tt.expectedCode)
				}
				return
			}
			if !ok {
				t.Fatalf("TryMake(%q) failed with %v", tt.line, reply)
			}
			if cmd.Verb() != tt.expectedVerb {
				t.Errorf("TryMake(%q) verb = %q, want %q", tt.line, cmd.Verb(), tt.expectedVerb)
			}
		})
	}
}

func TestTryMakeParsesMailArguments(t *testing.T) {
	options := New("test.example.com").Logger(discardLogger()).Build()
	machine := NewStateMachine(newTestContext(t, options))
	machine.state = StateReady

	cmd, reply, ok := machine.TryMake(line("MAIL FROM:<sender@example.com> SIZE=2048 BODY=8BITMIME"))
	if !ok {
		t.Fatalf("TryMake failed with %v", reply)
	}
	mail, isMail := cmd.(*MailCommand)
	if !isMail {
		t.Fatalf("TryMake returned %T, want *MailCommand", cmd)
	}
	if mail.From.String() != "sender@example.com" {
		t.Errorf("From = %q, want sender@example.com", mail.From)
	}
	if mail.Parameters["SIZE"] != "2048" {
		t.Errorf("SIZE parameter = %q, want 2048", mail.Parameters["SIZE"])
	}
	if mail.Parameters["BODY"] != "8BITMIME" {
		t.Errorf("BODY parameter = %q, want 8BITMIME", mail.Parameters["BODY"])
	}
}

func TestTransitionAdvancesState(t *testing.T) {
	options := New("test.example.com").Logger(discardLogger()).Build()
	machine := NewStateMachine(newTestContext(t, options))

	steps := []struct {
		line     string
		expected SessionState
	}{
		{line: "HELO mail.example.com", expected: StateReady},
		{line: "MAIL FROM:<a@b.com>", expected: StateHaveSender},
		{line: "RCPT TO:<c@d.com>", expected: StateHaveRecipient},
		{line: "RCPT TO:<e@f.com>", expected: StateHaveRecipient},
		{line: "DATA", expected: StateReady},
	}

	for _, step := range steps {
		_, reply, ok := machine.TryMake(line(step.line))
		if !ok {
			t.Fatalf("TryMake(%q) failed with %v", step.line, reply)
		}
		machine.Transition()
		if machine.State() != step.expected {
			t.Fatalf("after %q state = %v, want %v", step.line, machine.State(), step.expected)
		}
	}
}

func TestAuthGuards(t *testing.T) {
	t.Run("not enabled", func(t *testing.T) {
		options := New("test.example.com").Logger(discardLogger()).Build()
		machine := NewStateMachine(newTestContext(t, options))

		_, reply, ok := machine.TryMake(line("AUTH PLAIN"))
		if ok || reply.Code != CodeCommandNotImplemented {
			t.Errorf("AUTH without authenticator = (%v, %v), want 502", reply, ok)
		}
	})

	t.Run("already authenticated", func(t *testing.T) {
		options := New("test.example.com").
			Logger(discardLogger()).
			Authenticator(SharedAuthenticator(StaticAuthenticator{User: "u", Password: "p"})).
			Build()
		sc := newTestContext(t, options)
		sc.Authenticated = true
		machine := NewStateMachine(sc)

		_, reply, ok := machine.TryMake(line("AUTH PLAIN"))
		if ok || reply.Code != CodeBadSequence {
			t.Errorf("repeated AUTH = (%v, %v), want 503", reply, ok)
		}
	})

	t.Run("unsupported mechanism", func(t *testing.T) {
		options := New("test.example.com").
			Logger(discardLogger()).
			Authenticator(SharedAuthenticator(StaticAuthenticator{User: "u", Password: "p"})).
			Build()
		machine := NewStateMachine(newTestContext(t, options))

		_, reply, ok := machine.TryMake(line("AUTH CRAM-MD5"))
		if ok || reply.Code != CodeSyntaxError {
			t.Errorf("AUTH CRAM-MD5 = (%v, %v), want 501", reply, ok)
		}
	})
}

func TestStartTlsGuards(t *testing.T) {
	t.Run("no tls config", func(t *testing.T) {
		options := New("test.example.com").Logger(discardLogger()).Build()
		machine := NewStateMachine(newTestContext(t, options))

		_, reply, ok := machine.TryMake(line("STARTTLS"))
		if ok || reply.Code != CodeCommandNotImplemented {
			t.Errorf("STARTTLS without config = (%v, %v), want 502", reply, ok)
		}
	})

	t.Run("already secure", func(t *testing.T) {
		options := New("test.example.com").
			Logger(discardLogger()).
			TLS(&tls.Config{}).
			Build()

		serverConn, clientConn := net.Pipe()
		t.Cleanup(func() {
			serverConn.Close()
			clientConn.Close()
		})
		// A *tls.Conn transport counts as secure from the start.
		sc := NewSessionContext(shrikeio.NewNetworkClient(tls.Server(serverConn, &tls.Config{})), options)
		machine := NewStateMachine(sc)

		_, reply, ok := machine.TryMake(line("STARTTLS"))
		if ok || reply.Code != CodeBadSequence {
			t.Errorf("repeated STARTTLS = (%v, %v), want 503", reply, ok)
		}
	})
}
