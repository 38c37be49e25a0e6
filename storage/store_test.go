package storage

import (
	"context"
	"testing"
)

// Both implementations must behave identically against the Store
// contract.
func storeImplementations(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("NewSqliteInMemory: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func TestCreateAndLoadThread(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			thread, err := store.CreateThread(ctx, "user-1")
			if err != nil {
				t.Fatalf("CreateThread: %v", err)
			}
			if thread.UUID == "" {
				t.Fatal("thread UUID must be assigned")
			}
			if thread.UserID != "user-1" {
				t.Errorf("user = %q, want user-1", thread.UserID)
			}

			loaded, err := store.Thread(ctx, thread.UUID)
			if err != nil {
				t.Fatalf("Thread: %v", err)
			}
			if loaded.UUID != thread.UUID || loaded.UserID != "user-1" {
				t.Errorf("loaded = %+v", loaded)
			}
		})
	}
}

func TestUpdateThreadTitle(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			thread, _ := store.CreateThread(ctx, "user-1")

			if err := store.UpdateThread(ctx, thread.UUID, "Weather chat"); err != nil {
				t.Fatalf("UpdateThread: %v", err)
			}
			loaded, err := store.Thread(ctx, thread.UUID)
			if err != nil {
				t.Fatalf("Thread: %v", err)
			}
			if loaded.Title != "Weather chat" {
				t.Errorf("title = %q, want %q", loaded.Title, "Weather chat")
			}
		})
	}
}

func TestMessagesKeepInsertionOrder(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			thread, _ := store.CreateThread(ctx, "user-1")

			first, err := store.CreateMessage(ctx, thread.UUID, "user", "hello")
			if err != nil {
				t.Fatalf("CreateMessage: %v", err)
			}
			second, err := store.CreateMessage(ctx, thread.UUID, "assistant", "hi there")
			if err != nil {
				t.Fatalf("CreateMessage: %v", err)
			}
			if first.ID == second.ID {
				t.Error("message IDs must be unique")
			}

			messages, err := store.ThreadMessages(ctx, thread.UUID)
			if err != nil {
				t.Fatalf("ThreadMessages: %v", err)
			}
			if len(messages) != 2 {
				t.Fatalf("got %d messages, want 2", len(messages))
			}
			if messages[0].Role != "user" || messages[1].Role != "assistant" {
				t.Errorf("order = [%s %s], want [user assistant]", messages[0].Role, messages[1].Role)
			}
		})
	}
}

func TestThreadMessagesEmptyForUnknownThread(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			messages, err := store.ThreadMessages(context.Background(), "no-such-thread")
			if err != nil {
				t.Fatalf("ThreadMessages: %v", err)
			}
			if messages == nil || len(messages) != 0 {
				t.Errorf("got %v, want empty non-nil slice", messages)
			}
		})
	}
}

func TestCreateSummary(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			thread, _ := store.CreateThread(ctx, "user-1")
			msg, _ := store.CreateMessage(ctx, thread.UUID, "assistant", "long answer")

			summary, err := store.CreateSummary(ctx, thread.UUID, msg.ID, "short gist")
			if err != nil {
				t.Fatalf("CreateSummary: %v", err)
			}
			if summary.ID == "" || summary.MessageID != msg.ID || summary.Content != "short gist" {
				t.Errorf("summary = %+v", summary)
			}
		})
	}
}

func TestUnknownThreadLookupFails(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Thread(context.Background(), "missing"); err == nil {
				t.Error("expected error for unknown thread")
			}
		})
	}
}
