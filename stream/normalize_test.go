package stream

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
)

func newTestNormalizer(t *testing.T, format Format) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(format, nil)
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	return n
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := NewNormalizer(Format(99), nil)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestOpenAITextChunk(t *testing.T) {
	n := newTestNormalizer(t, FormatOpenAI)
	events := n.OpenAIChunk(openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{
			{Delta: openai.ChatCompletionStreamChoiceDelta{Content: "hello"}},
		},
	})

	if len(events) != 1 || events[0].Kind != KindTokenDelta || events[0].Text != "hello" {
		t.Errorf("events = %+v, want single token delta %q", events, "hello")
	}
}

func TestOpenAIUsageChunk(t *testing.T) {
	n := newTestNormalizer(t, FormatOpenAI)
	events := n.OpenAIChunk(openai.ChatCompletionStreamResponse{
		Usage: &openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	})

	if len(events) != 1 || events[0].Kind != KindUsageUpdate {
		t.Fatalf("events = %+v, want single usage update", events)
	}
	u := events[0].Usage
	if u.InputTokens != 10 || u.OutputTokens != 5 || u.TotalTokens != 15 {
		t.Errorf("usage = %+v, want {10 5 15}", u)
	}
}

func TestOpenAIToolCallDeltas(t *testing.T) {
	n := newTestNormalizer(t, FormatOpenAI)
	index := 0

	first := n.OpenAIChunk(openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{{
			Delta: openai.ChatCompletionStreamChoiceDelta{
				ToolCalls: []openai.ToolCall{{
					Index: &index,
					ID:    "call_1",
					Function: openai.FunctionCall{
						Name:      "get_weather",
						Arguments: `{"city":`,
					},
				}},
			},
		}},
	})
	if len(first) != 1 || first[0].Kind != KindToolCallDelta {
		t.Fatalf("events = %+v, want single tool call delta", first)
	}
	tc := first[0].Tool
	if tc.Index != 0 || tc.ID != "call_1" || tc.Name != "get_weather" || tc.ArgumentsDelta != `{"city":` {
		t.Errorf("tool delta = %+v", tc)
	}

	second := n.OpenAIChunk(openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{{
			Delta: openai.ChatCompletionStreamChoiceDelta{
				ToolCalls: []openai.ToolCall{{
					Index:    &index,
					Function: openai.FunctionCall{Arguments: `"Oslo"}`},
				}},
			},
		}},
	})
	if len(second) != 1 || second[0].Tool.ArgumentsDelta != `"Oslo"}` {
		t.Errorf("continuation events = %+v", second)
	}
}

func TestOpenAIEmptyChunkIsSkipped(t *testing.T) {
	n := newTestNormalizer(t, FormatOpenAI)
	if events := n.OpenAIChunk(openai.ChatCompletionStreamResponse{}); len(events) != 0 {
		t.Errorf("events = %+v, want none", events)
	}
}

func anthropicEvent(t *testing.T, raw string) anthropic.MessageStreamEventUnion {
	t.Helper()
	var ev anthropic.MessageStreamEventUnion
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal stream event: %v", err)
	}
	return ev
}

func TestAnthropicMessageStartUsage(t *testing.T) {
	n := newTestNormalizer(t, FormatAnthropic)
	events := n.AnthropicEvent(anthropicEvent(t, `{
		"type": "message_start",
		"message": {
			"id": "msg_1", "type": "message", "role": "assistant",
			"content": [], "model": "claude-sonnet-4-20250514",
			"stop_reason": null, "stop_sequence": null,
			"usage": {
				"input_tokens": 10, "output_tokens": 5,
				"cache_creation_input_tokens": 2, "cache_read_input_tokens": 3
			}
		}
	}`))

	if len(events) != 1 || events[0].Kind != KindUsageUpdate {
		t.Fatalf("events = %+v, want single usage update", events)
	}
	u := events[0].Usage
	if u.InputTokens != 10 || u.OutputTokens != 5 || u.TotalTokens != 20 {
		t.Errorf("usage = %+v, want input 10 output 5 total 20 (cache included)", u)
	}
}

func TestAnthropicMessageDeltaUsage(t *testing.T) {
	n := newTestNormalizer(t, FormatAnthropic)
	events := n.AnthropicEvent(anthropicEvent(t, `{
		"type": "message_delta",
		"delta": {"stop_reason": "end_turn", "stop_sequence": null},
		"usage": {"output_tokens": 7}
	}`))

	if len(events) != 1 || events[0].Kind != KindUsageUpdate {
		t.Fatalf("events = %+v, want single usage update", events)
	}
	u := events[0].Usage
	if u.InputTokens != 0 || u.OutputTokens != 7 || u.TotalTokens != 7 {
		t.Errorf("usage = %+v, want output-only delta of 7", u)
	}
}

func TestAnthropicTextDelta(t *testing.T) {
	n := newTestNormalizer(t, FormatAnthropic)
	events := n.AnthropicEvent(anthropicEvent(t, `{
		"type": "content_block_delta",
		"index": 0,
		"delta": {"type": "text_delta", "text": "hi"}
	}`))

	if len(events) != 1 || events[0].Kind != KindTokenDelta || events[0].Text != "hi" {
		t.Errorf("events = %+v, want token delta %q", events, "hi")
	}
}

func TestAnthropicToolUseBlockAssignsSequentialIndexes(t *testing.T) {
	n := newTestNormalizer(t, FormatAnthropic)

	start := n.AnthropicEvent(anthropicEvent(t, `{
		"type": "content_block_start",
		"index": 1,
		"content_block": {"type": "tool_use", "id": "toolu_1", "name": "search", "input": {}}
	}`))
	if len(start) != 1 || start[0].Kind != KindToolCallDelta {
		t.Fatalf("events = %+v, want tool call delta", start)
	}
	if tc := start[0].Tool; tc.Index != 0 || tc.ID != "toolu_1" || tc.Name != "search" {
		t.Errorf("tool delta = %+v, want index 0 id toolu_1 name search", tc)
	}

	args := n.AnthropicEvent(anthropicEvent(t, `{
		"type": "content_block_delta",
		"index": 1,
		"delta": {"type": "input_json_delta", "partial_json": "{\"q\":\"go\"}"}
	}`))
	if len(args) != 1 || args[0].Tool.Index != 0 || args[0].Tool.ArgumentsDelta != `{"q":"go"}` {
		t.Errorf("argument events = %+v", args)
	}

	n.AnthropicEvent(anthropicEvent(t, `{"type": "content_block_stop", "index": 1}`))

	second := n.AnthropicEvent(anthropicEvent(t, `{
		"type": "content_block_start",
		"index": 2,
		"content_block": {"type": "tool_use", "id": "toolu_2", "name": "lookup", "input": {}}
	}`))
	if len(second) != 1 || second[0].Tool.Index != 1 {
		t.Errorf("second tool block = %+v, want index 1", second)
	}
}

func TestAnthropicMessageStop(t *testing.T) {
	n := newTestNormalizer(t, FormatAnthropic)
	events := n.AnthropicEvent(anthropicEvent(t, `{"type": "message_stop"}`))
	if len(events) != 1 || events[0].Kind != KindStreamEnd {
		t.Errorf("events = %+v, want stream end", events)
	}
}
