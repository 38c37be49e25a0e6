package chat

import (
	"strings"
	"testing"

	"catalyst/llm"
)

func TestTrimKeepsEverythingUnderBudget(t *testing.T) {
	messages := []llm.ChatMessage{
		llm.SystemMessage("be helpful"),
		llm.UserMessage("hello"),
		llm.AssistantMessage("hi"),
	}
	got := trimToBudget(messages, 1000)
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
}

func TestTrimDropsOldestNonSystemTurns(t *testing.T) {
	big := strings.Repeat("x", 400)
	messages := []llm.ChatMessage{
		llm.SystemMessage("sys"),
		llm.UserMessage(big),
		llm.AssistantMessage(big),
		llm.UserMessage("latest question"),
	}
	// Budget fits system plus the last turn only.
	got := trimToBudget(messages, 20)
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2: %v", len(got), got)
	}
	if got[0].Role != llm.RoleSystem {
		t.Errorf("first message role = %s, want system", got[0].Role)
	}
	if got[1].Content != "latest question" {
		t.Errorf("kept %q, want the newest turn", got[1].Content)
	}
}

func TestTrimPreservesOrder(t *testing.T) {
	messages := []llm.ChatMessage{
		llm.UserMessage("one"),
		llm.SystemMessage("sys"),
		llm.UserMessage("two"),
	}
	got := trimToBudget(messages, 1000)
	if got[0].Content != "one" || got[1].Content != "sys" || got[2].Content != "two" {
		t.Errorf("order not preserved: %v", got)
	}
}

func TestTrimTruncatesFinalMessageAsLastResort(t *testing.T) {
	messages := []llm.ChatMessage{
		llm.SystemMessage("sys"),
		llm.UserMessage(strings.Repeat("y", 4000)),
	}
	got := trimToBudget(messages, 10)
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if len(got[1].Content) >= 4000 {
		t.Errorf("final message not truncated, len = %d", len(got[1].Content))
	}
	if got[1].Role != llm.RoleUser {
		t.Errorf("truncated message role = %s, want user", got[1].Role)
	}
}

func TestTrimZeroBudgetDisablesTrimming(t *testing.T) {
	messages := []llm.ChatMessage{llm.UserMessage(strings.Repeat("z", 10000))}
	if got := trimToBudget(messages, 0); len(got) != 1 || len(got[0].Content) != 10000 {
		t.Error("zero budget should leave the history untouched")
	}
}
