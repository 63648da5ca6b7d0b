// Package io implements the framing layer of the SMTP engine: segmented
// reads from the transport, predicate-driven consumption, CRLF line and
// block framing with dot-transparency removal, buffered writes, and the
// in-place STARTTLS upgrade.
package io

import (
	"crypto/tls"
	"errors"
	"math"
	"net"
	"time"
)

var (
	// ErrPendingInput is returned by Upgrade when plaintext bytes have
	// been read but not yet consumed. Replaying them into the encrypted
	// stream would corrupt the handshake.
	ErrPendingInput = errors.New("smtp: unread plaintext input pending before TLS upgrade")

	// ErrAlreadySecure is returned by Upgrade when the transport has
	// already been upgraded.
	ErrAlreadySecure = errors.New("smtp: transport already upgraded")

	// ErrTooLong is returned by the framing reads when the terminator
	// has not appeared within the read's length allowance.
	ErrTooLong = errors.New("smtp: input exceeds length limit")
)

var (
	crlf        = []byte{13, 10}
	crlfcrlf    = []byte{13, 10, 13, 10}
	crlfDotCRLF = []byte{13, 10, 46, 13, 10}
)

const defaultChunkSize = 4096

// maxLineLength bounds a single CRLF-terminated line, terminator
// included.
const maxLineLength = 8192

// NetworkClient frames reads and writes over a single SMTP connection.
// Reads fill fixed-size chunks and hand out views into them, so the
// segments returned from one read stay valid across later reads. Writes
// are buffered until Flush.
type NetworkClient struct {
	conn      net.Conn
	chunkSize int

	chunk []byte
	pos   int

	pending SegmentList
	secure  bool
}

// NewNetworkClient returns a client framing the given connection. A
// connection that is already encrypted (implicit TLS) is reported as
// secure.
func NewNetworkClient(conn net.Conn) *NetworkClient {
	return NewNetworkClientSize(conn, defaultChunkSize)
}

// NewNetworkClientSize returns a client with the given fill-chunk size.
func NewNetworkClientSize(conn net.Conn, chunkSize int) *NetworkClient {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	_, secure := conn.(*tls.Conn)
	return &NetworkClient{
		conn:      conn,
		chunkSize: chunkSize,
		secure:    secure,
	}
}

// ReadWhile consumes bytes from the transport, appending to a growing
// segment list, until the predicate returns false for the most recently
// read byte or max bytes have been consumed. The terminating byte is
// included in the result.
func (c *NetworkClient) ReadWhile(pred func(byte) bool, max int64) (SegmentList, error) {
	var segments SegmentList
	var count int64

	start := c.pos
	for {
		if c.pos >= len(c.chunk) {
			if start < c.pos {
				segments = append(segments, c.chunk[start:c.pos])
			}
			if err := c.fill(); err != nil {
				return nil, err
			}
			start = 0
		}

		b := c.chunk[c.pos]
		c.pos++
		count++

		if !pred(b) || count >= max {
			segments = append(segments, c.chunk[start:c.pos])
			return segments, nil
		}
	}
}

// ReadUntil consumes bytes until the given sequence has been matched,
// using a rolling-match counter over the most recently read byte. The
// matched sequence is included in the result. A positive max bounds
// the bytes consumed; reaching it without a match returns ErrTooLong.
func (c *NetworkClient) ReadUntil(sequence []byte, max int64) (SegmentList, error) {
	if max <= 0 {
		max = math.MaxInt64
	}
	found := 0
	segments, err := c.ReadWhile(func(b byte) bool {
		if b == sequence[found] {
			found++
		} else if b == sequence[0] {
			found = 1
		} else {
			found = 0
		}
		return found < len(sequence)
	}, max)
	if err != nil {
		return nil, err
	}
	if found < len(sequence) {
		return nil, ErrTooLong
	}
	return segments, nil
}

// ReadLine reads a CRLF-terminated line. The terminating CRLF is
// trimmed from the result. A line longer than maxLineLength returns
// ErrTooLong.
func (c *NetworkClient) ReadLine() (SegmentList, error) {
	segments, err := c.ReadUntil(crlf, maxLineLength)
	if err != nil {
		return nil, err
	}
	return segments.trimSequence(crlf), nil
}

// ReadBlock reads a blank-line terminated block. The terminating
// CRLF CRLF is trimmed from the result. A positive max bounds the
// bytes taken from the wire.
func (c *NetworkClient) ReadBlock(max int64) (SegmentList, error) {
	segments, err := c.ReadUntil(crlfcrlf, max)
	if err != nil {
		return nil, err
	}
	return segments.trimSequence(crlfcrlf), nil
}

// ReadDotBlock reads a dot-terminated message body. The terminating
// CRLF '.' CRLF is trimmed and the dot-stuffing transparency is removed
// from the result.
//
// A positive max bounds the bytes taken from the wire, not the exact
// body size; transparency stuffing can at worst double the text, so
// the wire allowance is twice max plus the terminator. Callers enforce
// exact body limits on the result.
func (c *NetworkClient) ReadDotBlock(max int64) (SegmentList, error) {
	var wire int64
	if max > 0 && max < math.MaxInt64/2-int64(len(crlfDotCRLF)) {
		wire = 2*max + int64(len(crlfDotCRLF))
	}
	segments, err := c.ReadUntil(crlfDotCRLF, wire)
	if err != nil {
		return nil, err
	}
	return unstuff(segments.trimSequence(crlfDotCRLF)), nil
}

// fill reads the next chunk from the transport. Each fill allocates a
// fresh buffer so segments handed out earlier remain valid.
func (c *NetworkClient) fill() error {
	buf := make([]byte, c.chunkSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.chunk = buf[:n]
			c.pos = 0
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Write buffers the given segments for a later Flush.
func (c *NetworkClient) Write(segments SegmentList) {
	c.pending = append(c.pending, segments...)
}

// WriteLine buffers a CRLF-terminated line for a later Flush.
func (c *NetworkClient) WriteLine(text string) {
	c.pending = append(c.pending, append([]byte(text), crlf...))
}

// Flush commits the buffered writes to the transport. Callers flush
// after every reply so the client observes it before the next read
// blocks.
func (c *NetworkClient) Flush() error {
	for len(c.pending) > 0 {
		segment := c.pending[0]
		if _, err := c.conn.Write(segment); err != nil {
			return err
		}
		c.pending = c.pending[1:]
	}
	c.pending = nil
	return nil
}

// Upgrade replaces the underlying transport with a TLS server-side
// transport negotiated with the given configuration. Bytes read during
// the plaintext phase must all have been consumed; buffered writes are
// flushed before the handshake.
func (c *NetworkClient) Upgrade(config *tls.Config) error {
	if c.secure {
		return ErrAlreadySecure
	}
	if c.pos < len(c.chunk) {
		return ErrPendingInput
	}
	if err := c.Flush(); err != nil {
		return err
	}

	tlsConn := tls.Server(c.conn, config)
	if err := tlsConn.Handshake(); err != nil {
		return err
	}

	c.conn = tlsConn
	c.chunk = nil
	c.pos = 0
	c.secure = true

	return nil
}

// Secure reports whether the transport has been upgraded to TLS.
func (c *NetworkClient) Secure() bool {
	return c.secure
}

// SetReadDeadline sets the read deadline on the underlying transport.
func (c *NetworkClient) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// RemoteAddr returns the remote address of the underlying transport.
func (c *NetworkClient) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the underlying transport.
func (c *NetworkClient) Close() error {
	return c.conn.Close()
}
