package shrike

import (
	"strings"

	"github.com/sylphlabs/shrike/io"
)

// TokenKind classifies a lexed byte run.
type TokenKind int

const (
	// TokenNone marks the end of the input line.
	TokenNone TokenKind = iota
	// TokenText is a contiguous run of letters and digits containing
	// at least one letter. Case is preserved.
	TokenText
	// TokenNumber is a contiguous run of digits.
	TokenNumber
	// TokenSymbol is a single byte that is neither alphanumeric nor
	// whitespace.
	TokenSymbol
)

// Token is one lexed unit of a command line.
type Token struct {
	Kind TokenKind
	Text string
}

// EOL is the token returned once a line is exhausted.
var EOL = Token{Kind: TokenNone}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

// Tokenizer lexes one command line held as a segment list. A
// tokenizer is single use; construct a new one per line.
type Tokenizer struct {
	segments io.SegmentList
	seg      int
	off      int
	peeked   *Token
}

func NewTokenizer(segments io.SegmentList) *Tokenizer {
	return &Tokenizer{segments: segments}
}

func (t *Tokenizer) current() (byte, bool) {
	for t.seg < len(t.segments) && t.off >= len(t.segments[t.seg]) {
		t.seg++
		t.off = 0
	}
	if t.seg >= len(t.segments) {
		return 0, false
	}
	return t.segments[t.seg][t.off], true
}

func (t *Tokenizer) advance() {
	t.off++
}

// Next returns the next token, consuming it. Whitespace separates
// tokens and is never emitted.
func (t *Tokenizer) Next() Token {
	if t.peeked != nil {
		tok := *t.peeked
		t.peeked = nil
		return tok
	}
	return t.lex()
}

// Peek returns the next token without consuming it.
func (t *Tokenizer) Peek() Token {
	if t.peeked == nil {
		tok := t.lex()
		t.peeked = &tok
	}
	return *t.peeked
}

func (t *Tokenizer) lex() Token {
	b, ok := t.current()
	for ok && isSpace(b) {
		t.advance()
		b, ok = t.current()
	}
	if !ok {
		return EOL
	}
	if isLetter(b) || isDigit(b) {
		var sb strings.Builder
		digitsOnly := true
		for ok && (isLetter(b) || isDigit(b)) {
			if !isDigit(b) {
				digitsOnly = false
			}
			sb.WriteByte(b)
			t.advance()
			b, ok = t.current()
		}
		kind := TokenText
		if digitsOnly {
			kind = TokenNumber
		}
		return Token{Kind: kind, Text: sb.String()}
	}
	t.advance()
	return Token{Kind: TokenSymbol, Text: string(b)}
}

// Remainder returns everything left on the line, with leading
// whitespace skipped, as a string. The tokenizer is exhausted
// afterwards.
func (t *Tokenizer) Remainder() string {
	var sb strings.Builder
	if t.peeked != nil {
		sb.WriteString(t.peeked.Text)
		t.peeked = nil
	}
	b, ok := t.current()
	if sb.Len() == 0 {
		for ok && isSpace(b) {
			t.advance()
			b, ok = t.current()
		}
	}
	for ok {
		sb.WriteByte(b)
		t.advance()
		b, ok = t.current()
	}
	return sb.String()
}
