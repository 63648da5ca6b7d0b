package shrike

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// TransactionSnapshot is a decoded MessagePack snapshot of a completed
// transaction, the form a store can persist or queue.
type TransactionSnapshot struct {
	ID         string
	From       string
	To         []string
	Parameters map[string]string
	Message    []byte
}

// Snapshot encodes the transaction as a MessagePack map. The message
// field is empty when no body has been received yet.
func (t *Transaction) Snapshot() ([]byte, error) {
	b := make([]byte, 0, 256)
	b = msgp.AppendMapHeader(b, 5)

	b = msgp.AppendString(b, "id")
	b = msgp.AppendString(b, t.ID)

	b = msgp.AppendString(b, "from")
	b = msgp.AppendString(b, t.From.String())

	b = msgp.AppendString(b, "to")
	b = msgp.AppendArrayHeader(b, uint32(len(t.To)))
	for _, to := range t.To {
		b = msgp.AppendString(b, to.String())
	}

	b = msgp.AppendString(b, "params")
	b = msgp.AppendMapHeader(b, uint32(len(t.Parameters)))
	for k, v := range t.Parameters {
		b = msgp.AppendString(b, k)
		b = msgp.AppendString(b, v)
	}

	b = msgp.AppendString(b, "message")
	var body []byte
	if t.Message != nil {
		body = t.Message.Bytes()
	}
	b = msgp.AppendBytes(b, body)

	return b, nil
}

// DecodeSnapshot decodes a snapshot produced by Snapshot.
func DecodeSnapshot(data []byte) (*TransactionSnapshot, error) {
	fields, o, err := msgp.ReadMapHeaderBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	snap := &TransactionSnapshot{Parameters: make(map[string]string)}
	for i := uint32(0); i < fields; i++ {
		var key string
		key, o, err = msgp.ReadStringBytes(o)
		if err != nil {
			return nil, fmt.Errorf("decoding snapshot key: %w", err)
		}
		switch key {
		case "id":
			snap.ID, o, err = msgp.ReadStringBytes(o)
		case "from":
			snap.From, o, err = msgp.ReadStringBytes(o)
		case "to":
			var n uint32
			n, o, err = msgp.ReadArrayHeaderBytes(o)
			if err != nil {
				break
			}
			snap.To = make([]string, 0, n)
			for j := uint32(0); j < n; j++ {
				var to string
				to, o, err = msgp.ReadStringBytes(o)
				if err != nil {
					break
				}
				snap.To = append(snap.To, to)
			}
		case "params":
			var n uint32
			n, o, err = msgp.ReadMapHeaderBytes(o)
			if err != nil {
				break
			}
			for j := uint32(0); j < n; j++ {
				var k, v string
				k, o, err = msgp.ReadStringBytes(o)
				if err != nil {
					break
				}
				v, o, err = msgp.ReadStringBytes(o)
				if err != nil {
					break
				}
				snap.Parameters[k] = v
			}
		case "message":
			snap.Message, o, err = msgp.ReadBytesBytes(o, nil)
		default:
			o, err = msgp.Skip(o)
		}
		if err != nil {
			return nil, fmt.Errorf("decoding snapshot field %q: %w", key, err)
		}
	}
	return snap, nil
}
