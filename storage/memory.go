// In-memory thread storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral deployments

package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store using in-memory maps. Data is lost when
// the process terminates.
type MemoryStore struct {
	mu        sync.RWMutex
	threads   map[string]Thread
	messages  map[string][]Message
	summaries map[string][]Summary
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		threads:   make(map[string]Thread),
		messages:  make(map[string][]Message),
		summaries: make(map[string][]Summary),
	}
}

// CreateThread creates a new thread for a user.
func (s *MemoryStore) CreateThread(ctx context.Context, userID string) (Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	thread := Thread{
		UUID:      uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.threads[thread.UUID] = thread
	return thread, nil
}

// Thread loads a thread by UUID.
func (s *MemoryStore) Thread(ctx context.Context, threadUUID string) (Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread, ok := s.threads[threadUUID]
	if !ok {
		return Thread{}, fmt.Errorf("thread %s not found", threadUUID)
	}
	return thread, nil
}

// UpdateThread sets the thread title and bumps its timestamp.
func (s *MemoryStore) UpdateThread(ctx context.Context, threadUUID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[threadUUID]
	if !ok {
		return fmt.Errorf("thread %s not found", threadUUID)
	}
	thread.Title = title
	thread.UpdatedAt = time.Now().Unix()
	s.threads[threadUUID] = thread
	return nil
}

// CreateMessage appends a message to a thread.
func (s *MemoryStore) CreateMessage(ctx context.Context, threadUUID, role, content string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := Message{
		ID:         uuid.NewString(),
		ThreadUUID: threadUUID,
		Role:       role,
		Content:    content,
		CreatedAt:  time.Now().Unix(),
	}
	s.messages[threadUUID] = append(s.messages[threadUUID], msg)
	return msg, nil
}

// CreateSummary attaches a summary to a message.
func (s *MemoryStore) CreateSummary(ctx context.Context, threadUUID, messageID, content string) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := Summary{
		ID:         uuid.NewString(),
		MessageID:  messageID,
		ThreadUUID: threadUUID,
		Content:    content,
		CreatedAt:  time.Now().Unix(),
	}
	s.summaries[threadUUID] = append(s.summaries[threadUUID], summary)
	return summary, nil
}

// ThreadMessages returns a thread's messages in insertion order.
func (s *MemoryStore) ThreadMessages(ctx context.Context, threadUUID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.messages[threadUUID]
	// Return a copy to avoid external mutations
	copied := make([]Message, len(history))
	copy(copied, history)
	return copied, nil
}

// ThreadSummaries returns a thread's summaries in insertion order.
func (s *MemoryStore) ThreadSummaries(ctx context.Context, threadUUID string) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]Summary, len(s.summaries[threadUUID]))
	copy(copied, s.summaries[threadUUID])
	return copied, nil
}

// Verify MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
