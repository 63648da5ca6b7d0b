package shrike

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMailbox(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    Mailbox
		wantErr bool
	}{
		{name: "simple", address: "user@example.com", want: Mailbox{User: "user", Host: "example.com"}},
		{name: "dotted local part", address: "first.last@example.com", want: Mailbox{User: "first.last", Host: "example.com"}},
		{name: "at sign in local part", address: `"a@b"@example.com`, want: Mailbox{User: `"a@b"`, Host: "example.com"}},
		{name: "null path", address: "", want: Mailbox{}},
		{name: "missing host", address: "user@", wantErr: true},
		{name: "missing user", address: "@example.com", wantErr: true},
		{name: "no separator", address: "user", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMailbox(tt.address)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMailboxString(t *testing.T) {
	assert.Equal(t, "user@example.com", Mailbox{User: "user", Host: "example.com"}.String())
	assert.Equal(t, "", Mailbox{}.String())
	assert.True(t, Mailbox{}.IsNull())
	assert.False(t, Mailbox{User: "u", Host: "h"}.IsNull())
}
