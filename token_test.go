package shrike

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shrikeio "github.com/sylphlabs/shrike/io"
)

func line(parts ...string) shrikeio.SegmentList {
	var s shrikeio.SegmentList
	for _, p := range parts {
		s = append(s, []byte(p))
	}
	return s
}

func TestTokenizer(t *testing.T) {
	tests := []struct {
		name     string
		input    shrikeio.SegmentList
		expected []Token
	}{
		{
			name:  "command with path",
			input: line("MAIL FROM:<a@b.com>"),
			expected: []Token{
				{TokenText, "MAIL"},
				{TokenText, "FROM"},
				{TokenSymbol, ":"},
				{TokenSymbol, "<"},
				{TokenText, "a"},
				{TokenSymbol, "@"},
				{TokenText, "b"},
				{TokenSymbol, "."},
				{TokenText, "com"},
				{TokenSymbol, ">"},
			},
		},
		{
			name:  "parameter with numeric value",
			input: line("SIZE=1024"),
			expected: []Token{
				{TokenText, "SIZE"},
				{TokenSymbol, "="},
				{TokenNumber, "1024"},
			},
		},
		{
			name:     "mixed run is text",
			input:    line("8BITMIME"),
			expected: []Token{{TokenText, "8BITMIME"}},
		},
		{
			name:     "digits are a number",
			input:    line("42"),
			expected: []Token{{TokenNumber, "42"}},
		},
		{
			name:     "whitespace separates and is dropped",
			input:    line("  spaced \t  out  "),
			expected: []Token{{TokenText, "spaced"}, {TokenText, "out"}},
		},
		{
			name:  "runs spanning segment boundaries",
			input: line("HE", "LO exam", "ple"),
			expected: []Token{
				{TokenText, "HELO"},
				{TokenText, "example"},
			},
		},
		{
			name:     "empty line",
			input:    line(""),
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := NewTokenizer(tt.input)
			var got []Token
			for {
				next := tok.Next()
				if next.Kind == TokenNone {
					break
				}
				got = append(got, next)
			}
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, EOL, tok.Next(), "tokenizer should stay exhausted")
		})
	}
}

func TestTokenizerPeek(t *testing.T) {
	tok := NewTokenizer(line("AUTH PLAIN"))

	require.Equal(t, Token{TokenText, "AUTH"}, tok.Peek())
	require.Equal(t, Token{TokenText, "AUTH"}, tok.Peek(), "Peek must not consume")
	require.Equal(t, Token{TokenText, "AUTH"}, tok.Next())
	require.Equal(t, Token{TokenText, "PLAIN"}, tok.Next())
	require.Equal(t, EOL, tok.Peek())
}

func TestTokenizerRemainder(t *testing.T) {
	t.Run("after verb", func(t *testing.T) {
		tok := NewTokenizer(line("HELO mail.example.com"))
		require.Equal(t, Token{TokenText, "HELO"}, tok.Next())
		assert.Equal(t, "mail.example.com", tok.Remainder())
	})

	t.Run("keeps inner spaces", func(t *testing.T) {
		tok := NewTokenizer(line("HELO a b  c"))
		tok.Next()
		assert.Equal(t, "a b  c", tok.Remainder())
	})

	t.Run("includes a peeked token", func(t *testing.T) {
		tok := NewTokenizer(line("AUTH PLAIN dGVzdA=="))
		tok.Next()
		require.Equal(t, Token{TokenText, "PLAIN"}, tok.Peek())
		assert.Equal(t, "PLAIN dGVzdA==", tok.Remainder())
	})

	t.Run("empty when exhausted", func(t *testing.T) {
		tok := NewTokenizer(line("QUIT"))
		tok.Next()
		assert.Equal(t, "", tok.Remainder())
	})
}

func FuzzTokenizer(f *testing.F) {
	seeds := []string{
		"MAIL FROM:<test@example.com> SIZE=100",
		"RCPT TO:<user@example.com>",
		"AUTH PLAIN AHVzZXIAcGFzcw==",
		"", " ", "\t",
		"EHLO \x00hostname",
		"MAIL FROM:<\xff@example.com>",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		tok := NewTokenizer(line(input))
		// Every token consumes at least one byte, so the line must be
		// exhausted within len(input) steps.
		for i := 0; i <= len(input); i++ {
			if tok.Next().Kind == TokenNone {
				return
			}
		}
		t.Errorf("tokenizer did not terminate for %q", input)
	})
}
