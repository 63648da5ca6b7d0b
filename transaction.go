package shrike

import "github.com/oklog/ulid/v2"

// Transaction is the mutable envelope for one message submission:
// sender, recipients in RCPT order, ESMTP parameters, and the message
// body once DATA completes.
type Transaction struct {
	ID         string
	From       Mailbox
	To         []Mailbox
	Parameters map[string]string
	Message    Message
}

// NewTransaction returns an empty transaction with a fresh ID.
func NewTransaction() *Transaction {
	tx := &Transaction{}
	tx.Reset()
	return tx
}

// Reset clears every field and assigns a new transaction ID. MAIL
// calls this before populating the envelope, so each MAIL discards any
// prior transaction in progress.
func (t *Transaction) Reset() {
	t.ID = ulid.Make().String()
	t.From = Mailbox{}
	t.To = nil
	t.Parameters = make(map[string]string)
	t.Message = nil
}
