// SQLite-backed thread storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SqliteStore implements Store using SQLite.
type SqliteStore struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS threads (
			uuid TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_threads_user
		ON threads(user_id, updated_at DESC);

		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			thread_uuid TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (thread_uuid) REFERENCES threads(uuid) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_messages_thread
		ON messages(thread_uuid, created_at);

		CREATE TABLE IF NOT EXISTS summaries (
			id TEXT PRIMARY KEY,
			message_id TEXT NOT NULL,
			thread_uuid TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (thread_uuid) REFERENCES threads(uuid) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_summaries_thread
		ON summaries(thread_uuid);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateThread creates a new thread for a user.
func (s *SqliteStore) CreateThread(ctx context.Context, userID string) (Thread, error) {
	now := time.Now().Unix()
	thread := Thread{
		UUID:      uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO threads (uuid, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		thread.UUID, thread.UserID, thread.Title, thread.CreatedAt, thread.UpdatedAt)
	if err != nil {
		return Thread{}, fmt.Errorf("failed to create thread: %w", err)
	}
	return thread, nil
}

// Thread loads a thread by UUID.
func (s *SqliteStore) Thread(ctx context.Context, threadUUID string) (Thread, error) {
	var t Thread
	err := s.db.QueryRowContext(ctx,
		"SELECT uuid, user_id, title, created_at, updated_at FROM threads WHERE uuid = ?",
		threadUUID).Scan(&t.UUID, &t.UserID, &t.Title, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Thread{}, fmt.Errorf("failed to load thread: %w", err)
	}
	return t, nil
}

// UpdateThread sets the thread title and bumps its timestamp.
func (s *SqliteStore) UpdateThread(ctx context.Context, threadUUID, title string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE threads SET title = ?, updated_at = ? WHERE uuid = ?",
		title, time.Now().Unix(), threadUUID)
	if err != nil {
		return fmt.Errorf("failed to update thread: %w", err)
	}
	return nil
}

// CreateMessage appends a message to a thread.
func (s *SqliteStore) CreateMessage(ctx context.Context, threadUUID, role, content string) (Message, error) {
	msg := Message{
		ID:         uuid.NewString(),
		ThreadUUID: threadUUID,
		Role:       role,
		Content:    content,
		CreatedAt:  time.Now().Unix(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (id, thread_uuid, role, content, created_at) VALUES (?, ?, ?, ?, ?)",
		msg.ID, msg.ThreadUUID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// CreateSummary attaches a summary to a message.
func (s *SqliteStore) CreateSummary(ctx context.Context, threadUUID, messageID, content string) (Summary, error) {
	summary := Summary{
		ID:         uuid.NewString(),
		MessageID:  messageID,
		ThreadUUID: threadUUID,
		Content:    content,
		CreatedAt:  time.Now().Unix(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO summaries (id, message_id, thread_uuid, content, created_at) VALUES (?, ?, ?, ?, ?)",
		summary.ID, summary.MessageID, summary.ThreadUUID, summary.Content, summary.CreatedAt)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to create summary: %w", err)
	}
	return summary, nil
}

// ThreadMessages returns a thread's messages in insertion order.
func (s *SqliteStore) ThreadMessages(ctx context.Context, threadUUID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, thread_uuid, role, content, created_at FROM messages WHERE thread_uuid = ? ORDER BY created_at ASC, rowid ASC",
		threadUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{} // Start with empty slice, not nil
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ThreadUUID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// Verify SqliteStore implements Store
var _ Store = (*SqliteStore)(nil)
