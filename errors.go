package shrike

import (
	"errors"
	"fmt"
)

var (
	// ErrServerClosed is returned by Serve after Shutdown or Close.
	ErrServerClosed = errors.New("shrike: server closed")

	// ErrInvalidVerdict is returned when a mailbox filter produces a
	// verdict outside the known set. This is a defect in the filter,
	// not a client error, and terminates the session.
	ErrInvalidVerdict = errors.New("shrike: filter returned an unrecognized verdict")
)

// ReplyError carries a protocol reply out of a command as an error.
// The session engine unwraps it, sends the reply, and terminates the
// session when Quit is set.
type ReplyError struct {
	Reply Reply
	Quit  bool
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("shrike: %s", e.Reply)
}

func replyError(reply Reply, quit bool) *ReplyError {
	return &ReplyError{Reply: reply, Quit: quit}
}
