// Package storage provides chat thread persistence.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Each implementation encapsulates its own data structures

package storage

import "context"

// Thread is one conversation thread owned by a user.
type Thread struct {
	UUID      string
	UserID    string
	Title     string
	CreatedAt int64
	UpdatedAt int64
}

// Message is one persisted conversation turn.
type Message struct {
	ID         string
	ThreadUUID string
	Role       string
	Content    string
	CreatedAt  int64
}

// Summary is a model-produced summary attached to a message.
type Summary struct {
	ID         string
	MessageID  string
	ThreadUUID string
	Content    string
	CreatedAt  int64
}

// Store defines the persistence interface for chat runs.
type Store interface {
	// CreateThread creates a new thread for a user and returns it with
	// a fresh UUID.
	CreateThread(ctx context.Context, userID string) (Thread, error)

	// Thread loads a thread by UUID.
	Thread(ctx context.Context, threadUUID string) (Thread, error)

	// UpdateThread sets the thread title and bumps its timestamp.
	UpdateThread(ctx context.Context, threadUUID, title string) error

	// CreateMessage appends a message to a thread and returns it with a
	// fresh ID.
	CreateMessage(ctx context.Context, threadUUID, role, content string) (Message, error)

	// CreateSummary attaches a summary to a message.
	CreateSummary(ctx context.Context, threadUUID, messageID, content string) (Summary, error)

	// ThreadMessages returns a thread's messages in insertion order.
	// Returns empty slice (not nil) for an unknown thread.
	ThreadMessages(ctx context.Context, threadUUID string) ([]Message, error)
}
