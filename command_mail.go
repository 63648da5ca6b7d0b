package shrike

import (
	"context"
	"errors"
	"strconv"
	"strings"

	shrikeio "github.com/sylphlabs/shrike/io"
)

// MailCommand opens a new transaction with the reverse-path and any
// ESMTP parameters from the client.
type MailCommand struct {
	From       Mailbox
	Parameters map[string]string
}

func (c *MailCommand) Verb() string { return "MAIL" }

func (c *MailCommand) Execute(ctx context.Context, sc *SessionContext) (bool, error) {
	sc.Transaction.Reset()
	sc.Transaction.Parameters = c.Parameters

	size := c.estimatedSize()
	if max := sc.Options.MaxMessageSize; max > 0 && size > max {
		if err := sc.Reply(ReplySizeLimitExceeded); err != nil {
			return false, err
		}
		return false, nil
	}

	switch verdict := sc.filter.CanAcceptFrom(ctx, sc, c.From, size); verdict {
	case VerdictYes:
		sc.Transaction.From = c.From
		if err := sc.Reply(ReplyOK); err != nil {
			return false, err
		}
		return true, nil

	case VerdictNoTemporarily:
		if err := sc.Reply(ReplyMailboxDeferred); err != nil {
			return false, err
		}
		return false, nil

	case VerdictNoPermanently:
		if err := sc.Reply(ReplyMailboxNameNotAllowed); err != nil {
			return false, err
		}
		return false, nil

	case VerdictSizeLimitExceeded:
		if err := sc.Reply(ReplySizeLimitExceeded); err != nil {
			return false, err
		}
		return false, nil

	default:
		return false, ErrInvalidVerdict
	}
}

// estimatedSize reads the SIZE parameter. Absent or non-numeric
// declarations count as zero.
func (c *MailCommand) estimatedSize() int {
	value, ok := c.Parameters["SIZE"]
	if !ok {
		return 0
	}
	size, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return size
}

func makeMail(sc *SessionContext, t *Tokenizer) (Command, Reply, bool) {
	if !takeKeyword(t, "FROM") {
		return nil, Reply{CodeSyntaxError, "missing the FROM:<address> argument"}, false
	}
	from, ok := takePath(t)
	if !ok {
		return nil, Reply{CodeSyntaxError, "malformed reverse-path"}, false
	}
	params, ok := takeParameters(t)
	if !ok {
		return nil, Reply{CodeSyntaxError, "malformed parameter list"}, false
	}
	return &MailCommand{From: from, Parameters: params}, Reply{}, true
}

// RcptCommand adds one recipient to the open transaction.
type RcptCommand struct {
	To Mailbox
}

func (c *RcptCommand) Verb() string { return "RCPT" }

func (c *RcptCommand) Execute(ctx context.Context, sc *SessionContext) (bool, error) {
	switch verdict := sc.filter.CanDeliverTo(ctx, sc, c.To, sc.Transaction.From); verdict {
	case VerdictYes:
		sc.Transaction.To = append(sc.Transaction.To, c.To)
		if err := sc.Reply(ReplyOK); err != nil {
			return false, err
		}
		return true, nil

	case VerdictNoTemporarily:
		if err := sc.Reply(ReplyMailboxUnavailable); err != nil {
			return false, err
		}
		return false, nil

	case VerdictNoPermanently:
		if err := sc.Reply(ReplyMailboxNameNotAllowed); err != nil {
			return false, err
		}
		return false, nil

	default:
		return false, ErrInvalidVerdict
	}
}

func makeRcpt(sc *SessionContext, t *Tokenizer) (Command, Reply, bool) {
	if !takeKeyword(t, "TO") {
		return nil, Reply{CodeSyntaxError, "missing the TO:<address> argument"}, false
	}
	to, ok := takePath(t)
	if !ok || to.IsNull() {
		return nil, Reply{CodeSyntaxError, "malformed forward-path"}, false
	}
	return &RcptCommand{To: to}, Reply{}, true
}

// DataCommand receives the message body and hands the completed
// transaction to the store.
type DataCommand struct{}

func (DataCommand) Verb() string { return "DATA" }

func (DataCommand) Execute(ctx context.Context, sc *SessionContext) (bool, error) {
	if len(sc.Transaction.To) == 0 {
		if err := sc.Reply(ReplyNoValidRecipients); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := sc.Reply(Reply{CodeStartMailInput, "end with <CRLF>.<CRLF>"}); err != nil {
		return false, err
	}

	message, err := sc.Options.Serializer.Deserialize(ctx, sc.Client)
	if err != nil {
		// A body cut off mid-stream leaves the input out of sync, so
		// the size rejection also closes the session.
		if errors.Is(err, shrikeio.ErrTooLong) {
			return false, replyError(ReplySizeLimitExceeded, true)
		}
		return false, err
	}
	if max := sc.Options.MaxMessageSize; max > 0 && len(message.Bytes()) > max {
		return false, replyError(ReplySizeLimitExceeded, false)
	}
	sc.Transaction.Message = message

	// A store failure frees the transaction slot anyway; the client
	// may retry with a fresh MAIL.
	reply, err := sc.store.Save(ctx, sc, sc.Transaction)
	if err != nil {
		reply = ReplyTransactionFailed
	}
	if err := sc.Reply(reply); err != nil {
		return false, err
	}
	return true, nil
}

func makeData(sc *SessionContext, t *Tokenizer) (Command, Reply, bool) {
	return DataCommand{}, Reply{}, true
}

// takeKeyword consumes "<keyword>:" case-insensitively.
func takeKeyword(t *Tokenizer, keyword string) bool {
	tok := t.Next()
	if tok.Kind != TokenText || !strings.EqualFold(tok.Text, keyword) {
		return false
	}
	tok = t.Next()
	return tok.Kind == TokenSymbol && tok.Text == ":"
}

// takePath consumes "<user@host>" or the null path "<>".
func takePath(t *Tokenizer) (Mailbox, bool) {
	tok := t.Next()
	if tok.Kind != TokenSymbol || tok.Text != "<" {
		return Mailbox{}, false
	}
	var sb strings.Builder
	for {
		tok = t.Next()
		if tok.Kind == TokenNone {
			return Mailbox{}, false
		}
		if tok.Kind == TokenSymbol && tok.Text == ">" {
			break
		}
		sb.WriteString(tok.Text)
	}
	mailbox, err := ParseMailbox(sb.String())
	if err != nil {
		return Mailbox{}, false
	}
	return mailbox, true
}

// takeParameters consumes trailing "KEY=VALUE" or bare "KEY" ESMTP
// parameters. Keys are stored uppercase.
func takeParameters(t *Tokenizer) (map[string]string, bool) {
	params := make(map[string]string)
	for {
		tok := t.Next()
		if tok.Kind == TokenNone {
			return params, true
		}
		if tok.Kind != TokenText && tok.Kind != TokenNumber {
			return nil, false
		}
		key := strings.ToUpper(tok.Text)
		if t.Peek().Kind == TokenSymbol && t.Peek().Text == "=" {
			t.Next()
			value := t.Next()
			if value.Kind != TokenText && value.Kind != TokenNumber {
				return nil, false
			}
			params[key] = value.Text
		} else {
			params[key] = ""
		}
	}
}
