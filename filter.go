package shrike

import "context"

// Verdict is a mailbox filter's acceptance result. Members are
// ordered: later members denote stricter rejection, and composing
// filters keeps the maximum.
type Verdict int

const (
	VerdictYes Verdict = iota
	VerdictNoTemporarily
	VerdictNoPermanently
	VerdictSizeLimitExceeded
)

func (v Verdict) String() string {
	switch v {
	case VerdictYes:
		return "yes"
	case VerdictNoTemporarily:
		return "no-temporarily"
	case VerdictNoPermanently:
		return "no-permanently"
	case VerdictSizeLimitExceeded:
		return "size-limit-exceeded"
	default:
		return "invalid"
	}
}

// MailboxFilter decides whether a sender or a recipient is permitted.
// Implementations must be safe for concurrent use when shared across
// sessions.
type MailboxFilter interface {
	// CanAcceptFrom judges the reverse-path of a new transaction.
	// estimatedSize is the client's SIZE declaration, 0 when absent.
	CanAcceptFrom(ctx context.Context, session *SessionContext, from Mailbox, estimatedSize int) Verdict

	// CanDeliverTo judges one recipient against the accepted sender.
	CanDeliverTo(ctx context.Context, session *SessionContext, to Mailbox, from Mailbox) Verdict
}

// MailboxFilterFactory creates the filter for a new session.
type MailboxFilterFactory interface {
	CreateFilter(session *SessionContext) MailboxFilter
}

// MailboxFilterFactoryFunc adapts a function to MailboxFilterFactory.
type MailboxFilterFactoryFunc func(session *SessionContext) MailboxFilter

func (f MailboxFilterFactoryFunc) CreateFilter(session *SessionContext) MailboxFilter {
	return f(session)
}

// SharedFilter returns a factory handing the same filter to every
// session. The filter must be safe for concurrent use.
func SharedFilter(filter MailboxFilter) MailboxFilterFactory {
	return MailboxFilterFactoryFunc(func(*SessionContext) MailboxFilter {
		return filter
	})
}

type allowAll struct{}

func (allowAll) CanAcceptFrom(context.Context, *SessionContext, Mailbox, int) Verdict {
	return VerdictYes
}

func (allowAll) CanDeliverTo(context.Context, *SessionContext, Mailbox, Mailbox) Verdict {
	return VerdictYes
}

// AllowAllFilter accepts every sender and recipient.
func AllowAllFilter() MailboxFilter {
	return allowAll{}
}

// CompositeFilter runs an ordered list of filters and keeps the most
// restrictive verdict. Every filter is invoked; there is no
// short-circuit, so filters may rely on seeing each address.
type CompositeFilter struct {
	filters []MailboxFilter
}

// NewCompositeFilter composes filters. With no filters every request
// is accepted.
func NewCompositeFilter(filters ...MailboxFilter) *CompositeFilter {
	return &CompositeFilter{filters: filters}
}

func (c *CompositeFilter) CanAcceptFrom(ctx context.Context, session *SessionContext, from Mailbox, estimatedSize int) Verdict {
	verdict := VerdictYes
	for _, f := range c.filters {
		if v := f.CanAcceptFrom(ctx, session, from, estimatedSize); v > verdict {
			verdict = v
		}
	}
	return verdict
}

func (c *CompositeFilter) CanDeliverTo(ctx context.Context, session *SessionContext, to Mailbox, from Mailbox) Verdict {
	verdict := VerdictYes
	for _, f := range c.filters {
		if v := f.CanDeliverTo(ctx, session, to, from); v > verdict {
			verdict = v
		}
	}
	return verdict
}
