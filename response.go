package shrike

import "fmt"

// ReplyCode is a three-digit SMTP reply code (RFC 5321).
// 2yz: Success, 3yz: Continue, 4yz: Transient failure, 5yz: Permanent failure.
type ReplyCode int

const (
	// 2xx - Success
	CodeServiceReady   ReplyCode = 220
	CodeServiceClosing ReplyCode = 221
	CodeAuthSuccess    ReplyCode = 235
	CodeOK             ReplyCode = 250

	// 3xx - Intermediate
	CodeAuthContinue   ReplyCode = 334
	CodeStartMailInput ReplyCode = 354

	// 4xx - Transient Failure
	CodeMailboxUnavailable ReplyCode = 450
	CodeLocalError         ReplyCode = 451

	// 5xx - Permanent Failure
	CodeCommandUnrecognized   ReplyCode = 500
	CodeSyntaxError           ReplyCode = 501
	CodeCommandNotImplemented ReplyCode = 502
	CodeBadSequence           ReplyCode = 503
	CodeAuthFailed            ReplyCode = 535
	CodeMailboxNameNotAllowed ReplyCode = 550
	CodeExceededStorage       ReplyCode = 552
	CodeTransactionFailed     ReplyCode = 554
)

// Reply is a single SMTP reply line: a code and its human-readable text.
// Two replies are equal when both the code and the text match.
type Reply struct {
	Code    ReplyCode
	Message string
}

// String renders the reply as it appears on the wire, without the trailing CRLF.
func (r Reply) String() string {
	return fmt.Sprintf("%d %s", r.Code, r.Message)
}

// IsError reports whether the reply signals a failure (4xx or 5xx).
func (r Reply) IsError() bool {
	return r.Code >= 400
}

// Canned replies shared across the command set.
var (
	ReplyOK                       = Reply{CodeOK, "Ok"}
	ReplyServiceClosing           = Reply{CodeServiceClosing, "bye"}
	ReplyAuthenticationSuccessful = Reply{CodeAuthSuccess, "go ahead"}
	ReplyAuthenticationFailed     = Reply{CodeAuthFailed, "authentication failed"}
	ReplyMailboxUnavailable       = Reply{CodeMailboxUnavailable, "mailbox unavailable"}
	ReplyMailboxDeferred          = Reply{CodeLocalError, "mailbox unavailable"}
	ReplyMailboxNameNotAllowed    = Reply{CodeMailboxNameNotAllowed, "mailbox name not allowed"}
	ReplySizeLimitExceeded        = Reply{CodeExceededStorage, "size limit exceeded"}
	ReplyTransactionFailed        = Reply{CodeTransactionFailed, "transaction failed"}
	ReplyNoValidRecipients        = Reply{CodeBadSequence, "no valid recipients were given"}
)
