package shrike

import (
	"fmt"
	"strings"
)

// Mailbox is a parsed email address. The zero value is the null
// mailbox (MAIL FROM:<>).
type Mailbox struct {
	User string
	Host string
}

// IsNull reports whether the mailbox is the null reverse-path.
func (m Mailbox) IsNull() bool {
	return m.User == "" && m.Host == ""
}

func (m Mailbox) String() string {
	if m.IsNull() {
		return ""
	}
	return m.User + "@" + m.Host
}

// ParseMailbox parses "user@host" into a Mailbox. The empty string
// parses to the null mailbox.
func ParseMailbox(address string) (Mailbox, error) {
	if address == "" {
		return Mailbox{}, nil
	}
	at := strings.LastIndexByte(address, '@')
	if at <= 0 || at == len(address)-1 {
		return Mailbox{}, fmt.Errorf("malformed mailbox %q", address)
	}
	return Mailbox{User: address[:at], Host: address[at+1:]}, nil
}
