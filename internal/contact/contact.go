// Package contact stores contact-form submissions and lists them for staff.
package contact

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one contact-form submission.
type Message struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists contact messages.
type Store interface {
	Create(ctx context.Context, msg *Message) error
	List(ctx context.Context) ([]*Message, error)
}

// MemoryStore is the default mutex-guarded in-memory store.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[uuid.UUID]*Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[uuid.UUID]*Message)}
}

func (s *MemoryStore) Create(_ context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *msg
	s.messages[msg.ID] = &stored
	return nil
}

// List returns all messages, newest first.
func (s *MemoryStore) List(_ context.Context) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Message, 0, len(s.messages))
	for _, msg := range s.messages {
		copied := *msg
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
