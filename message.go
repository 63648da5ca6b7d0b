package shrike

import (
	"context"
	"sync"

	"github.com/sylphlabs/shrike/io"
)

// Message is a received message body.
type Message interface {
	// Bytes returns the body with framing and transparency removed.
	Bytes() []byte
}

// MessageSerializer turns the dot-terminated block following a DATA
// command into a Message.
type MessageSerializer interface {
	Deserialize(ctx context.Context, client *io.NetworkClient) (Message, error)
}

type textMessage struct {
	segments io.SegmentList

	once sync.Once
	flat []byte
}

func (m *textMessage) Bytes() []byte {
	m.once.Do(func() {
		m.flat = m.segments.Bytes()
	})
	return m.flat
}

// TextMessageSerializer reads the body as opaque text. It is the
// default serializer.
type TextMessageSerializer struct {
	// MaxMessageSize bounds the bytes taken from the wire while the
	// body streams in, so an oversized body fails before it is fully
	// buffered. Zero means unbounded.
	MaxMessageSize int
}

func (s TextMessageSerializer) Deserialize(ctx context.Context, client *io.NetworkClient) (Message, error) {
	segments, err := client.ReadDotBlock(int64(s.MaxMessageSize))
	if err != nil {
		return nil, err
	}
	return &textMessage{segments: segments}, nil
}
