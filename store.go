package shrike

import (
	"context"
	"sync"
)

// MessageStore receives the completed transaction after DATA. The
// returned reply is forwarded to the client verbatim; an error is
// translated into a transaction-failed reply by the DATA command.
type MessageStore interface {
	Save(ctx context.Context, session *SessionContext, tx *Transaction) (Reply, error)
}

// MessageStoreFactory creates the store for a new session.
type MessageStoreFactory interface {
	CreateStore(session *SessionContext) MessageStore
}

// MessageStoreFactoryFunc adapts a function to MessageStoreFactory.
type MessageStoreFactoryFunc func(session *SessionContext) MessageStore

func (f MessageStoreFactoryFunc) CreateStore(session *SessionContext) MessageStore {
	return f(session)
}

// SharedStore returns a factory handing the same store to every
// session. The store must be safe for concurrent use.
func SharedStore(store MessageStore) MessageStoreFactory {
	return MessageStoreFactoryFunc(func(*SessionContext) MessageStore {
		return store
	})
}

type discardStore struct{}

func (discardStore) Save(context.Context, *SessionContext, *Transaction) (Reply, error) {
	return ReplyOK, nil
}

// DiscardStore accepts and forgets every message.
func DiscardStore() MessageStore {
	return discardStore{}
}

// MemoryStore keeps MessagePack snapshots of saved transactions in
// memory. Intended for embedding and tests.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots [][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(ctx context.Context, session *SessionContext, tx *Transaction) (Reply, error) {
	snapshot, err := tx.Snapshot()
	if err != nil {
		return Reply{}, err
	}
	s.mu.Lock()
	s.snapshots = append(s.snapshots, snapshot)
	s.mu.Unlock()
	return ReplyOK, nil
}

// Snapshots returns the stored snapshots in arrival order.
func (s *MemoryStore) Snapshots() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.snapshots))
	copy(out, s.snapshots)
	return out
}
