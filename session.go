package shrike

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	shrikeio "github.com/sylphlabs/shrike/io"
)

// Session runs the protocol conversation for one connection. A session
// can be driven over any net.Conn; the server accept loop is optional.
type Session struct {
	sc      *SessionContext
	machine *StateMachine
	logger  *slog.Logger
}

// NewSession wraps an accepted connection in a session.
func NewSession(conn net.Conn, options *ServerOptions) *Session {
	client := shrikeio.NewNetworkClient(conn)
	sc := NewSessionContext(client, options)
	logger := options.Logger.With(
		slog.String("session", sc.ID),
		slog.String("remote", conn.RemoteAddr().String()),
	)
	return &Session{
		sc:      sc,
		machine: NewStateMachine(sc),
		logger:  logger,
	}
}

// Context exposes the session's shared state, for hooks and embedders.
func (s *Session) Context() *SessionContext {
	return s.sc
}

// Run conducts the session until quit, retry exhaustion, timeout,
// cancellation, or a transport fault. The connection is not closed;
// that stays with the caller.
func (s *Session) Run(ctx context.Context) error {
	// Wake any blocked read when the context is cancelled.
	stop := context.AfterFunc(ctx, func() {
		s.sc.Client.SetReadDeadline(time.Now())
	})
	defer stop()

	greeting := fmt.Sprintf("%s v%s ESMTP ready", s.sc.Options.ServerName, Version)
	if err := s.sc.Reply(Reply{CodeServiceReady, greeting}); err != nil {
		return err
	}

	retries := s.sc.Options.MaxRetryCount
	for retries > 0 && !s.sc.QuitRequested {
		retries--

		segments, err := s.readCommandInput()
		if err != nil {
			return s.terminate(ctx, err)
		}
		s.clearCommandDeadline(ctx)

		cmd, errReply, ok := s.machine.TryMake(segments)
		if ok {
			s.sc.raiseCommandExecuting(cmd)
			advance, err := cmd.Execute(ctx, s.sc)
			if err == nil {
				if advance {
					s.machine.Transition()
				}
				// Every successful command buys back the full budget.
				retries = s.sc.Options.MaxRetryCount
				continue
			}
			var re *ReplyError
			if !errors.As(err, &re) {
				if ctx.Err() != nil || errors.Is(err, shrikeio.ErrTooLong) {
					return s.terminate(ctx, err)
				}
				s.logger.Error("command failed", slog.String("verb", cmd.Verb()), slog.Any("error", err))
				return err
			}
			if re.Quit {
				s.sc.QuitRequested = true
			}
			errReply = re.Reply
		}

		if err := s.sc.Reply(annotate(errReply, retries)); err != nil {
			return err
		}
	}

	// Exhausting the budget tears the session down without a reply.
	return nil
}

func (s *Session) readCommandInput() (shrikeio.SegmentList, error) {
	if d := s.sc.Options.CommandWaitTimeout; d > 0 {
		s.sc.Client.SetReadDeadline(time.Now().Add(d))
	}
	return s.sc.Client.ReadLine()
}

// clearCommandDeadline lifts the command-wait deadline once the command
// line has arrived; the wait timeout bounds command input only, not
// reads the command makes itself (message bodies, AUTH continuations).
// A cancellation may already have poked the deadline; re-arm it so the
// command's reads still observe it.
func (s *Session) clearCommandDeadline(ctx context.Context) {
	_ = s.sc.Client.SetReadDeadline(time.Time{})
	if ctx.Err() != nil {
		_ = s.sc.Client.SetReadDeadline(time.Now())
	}
}

// terminate classifies a read failure and sends the best-effort
// closing reply where one is owed.
func (s *Session) terminate(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		_ = s.sc.Client.SetReadDeadline(time.Time{})
		_ = s.sc.Reply(Reply{CodeServiceClosing, "the session has been cancelled, service closing transmission channel"})
		return nil
	}
	if errors.Is(err, shrikeio.ErrTooLong) {
		_ = s.sc.Reply(Reply{CodeCommandUnrecognized, "line too long, service closing transmission channel"})
		return nil
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		_ = s.sc.Reply(Reply{CodeServiceClosing, "timeout whilst waiting for input, service closing transmission channel"})
		return nil
	}
	return fmt.Errorf("reading command: %w", err)
}

// annotate appends the remaining retry count to a diagnostic reply.
func annotate(reply Reply, retries int) Reply {
	return Reply{
		Code:    reply.Code,
		Message: fmt.Sprintf("%s, %d retry(ies) remaining.", reply.Message, retries),
	}
}
