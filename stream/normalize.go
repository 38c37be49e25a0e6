// Provider chunk normalization.
//
// Each upstream provider streams a different chunk shape. The normalizer
// converts both into the uniform Event model so the filter, aggregator and
// usage accumulator never touch SDK types. A malformed chunk is logged and
// skipped; it never terminates the stream.

package stream

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
)

// Format identifies the upstream wire format a provider speaks.
type Format int

const (
	// FormatOpenAI covers OpenAI and OpenAI-compatible endpoints
	// (Groq, DeepSeek): one usage chunk, indexed tool-call deltas.
	FormatOpenAI Format = iota
	// FormatAnthropic covers the Anthropic Messages event stream:
	// message_start/message_delta usage pair, content block events.
	FormatAnthropic
)

// String returns the format name for logging.
func (f Format) String() string {
	switch f {
	case FormatOpenAI:
		return "openai"
	case FormatAnthropic:
		return "anthropic"
	default:
		return "unknown"
	}
}

// ErrUnsupportedProvider is returned when a normalizer is requested for a
// wire format it does not know.
var ErrUnsupportedProvider = errors.New("unsupported provider format")

// Normalizer converts provider-native chunks into Events. It is stateful:
// the Anthropic stream identifies tool-use blocks positionally, so the
// normalizer assigns sequential indexes and tracks the open block. One
// normalizer serves exactly one provider turn.
type Normalizer struct {
	format Format
	logger *slog.Logger

	nextToolIndex int
	openToolIndex int
}

// NewNormalizer creates a normalizer for the given wire format.
func NewNormalizer(format Format, logger *slog.Logger) (*Normalizer, error) {
	switch format {
	case FormatOpenAI, FormatAnthropic:
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedProvider, int(format))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		format:        format,
		logger:        logger,
		openToolIndex: -1,
	}, nil
}

// Format returns the wire format this normalizer was built for.
func (n *Normalizer) Format() Format {
	return n.format
}

// OpenAIChunk normalizes one OpenAI-format streaming chunk. A chunk may
// yield zero or more events: usage, tool-call deltas and text can all
// coexist in one chunk.
func (n *Normalizer) OpenAIChunk(chunk openai.ChatCompletionStreamResponse) []Event {
	if n.format != FormatOpenAI {
		n.logger.Warn("openai chunk on non-openai normalizer", "format", n.format)
		return nil
	}

	var events []Event

	if chunk.Usage != nil {
		events = append(events, Event{Kind: KindUsageUpdate, Usage: UsageDelta{
			InputTokens:  chunk.Usage.PromptTokens,
			OutputTokens: chunk.Usage.CompletionTokens,
			TotalTokens:  chunk.Usage.TotalTokens,
		}})
	}

	if len(chunk.Choices) == 0 {
		return events
	}
	delta := chunk.Choices[0].Delta

	for _, tc := range delta.ToolCalls {
		if tc.Index == nil {
			n.logger.Warn("tool call delta without index, skipping", "id", tc.ID)
			continue
		}
		events = append(events, Event{Kind: KindToolCallDelta, Tool: ToolCallDelta{
			Index:          *tc.Index,
			ID:             tc.ID,
			Name:           tc.Function.Name,
			ArgumentsDelta: tc.Function.Arguments,
		}})
	}

	if delta.Content != "" {
		events = append(events, TokenDelta(delta.Content))
	}

	return events
}

// AnthropicEvent normalizes one Anthropic stream event. Unknown event
// shapes are skipped.
func (n *Normalizer) AnthropicEvent(event anthropic.MessageStreamEventUnion) []Event {
	if n.format != FormatAnthropic {
		n.logger.Warn("anthropic event on non-anthropic normalizer", "format", n.format)
		return nil
	}

	switch ev := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		u := ev.Message.Usage
		total := u.InputTokens + u.OutputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens
		return []Event{{Kind: KindUsageUpdate, Usage: UsageDelta{
			InputTokens:  int(u.InputTokens),
			OutputTokens: int(u.OutputTokens),
			TotalTokens:  int(total),
		}}}

	case anthropic.MessageDeltaEvent:
		out := int(ev.Usage.OutputTokens)
		if out == 0 {
			return nil
		}
		return []Event{{Kind: KindUsageUpdate, Usage: UsageDelta{
			OutputTokens: out,
			TotalTokens:  out,
		}}}

	case anthropic.ContentBlockStartEvent:
		if block, ok := ev.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
			index := n.nextToolIndex
			n.nextToolIndex++
			n.openToolIndex = index
			return []Event{{Kind: KindToolCallDelta, Tool: ToolCallDelta{
				Index: index,
				ID:    block.ID,
				Name:  block.Name,
			}}}
		}
		return nil

	case anthropic.ContentBlockDeltaEvent:
		switch delta := ev.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			if delta.Text == "" {
				return nil
			}
			return []Event{TokenDelta(delta.Text)}
		case anthropic.InputJSONDelta:
			if n.openToolIndex < 0 {
				n.logger.Warn("input json delta outside tool block, skipping")
				return nil
			}
			return []Event{{Kind: KindToolCallDelta, Tool: ToolCallDelta{
				Index:          n.openToolIndex,
				ArgumentsDelta: delta.PartialJSON,
			}}}
		}
		return nil

	case anthropic.ContentBlockStopEvent:
		n.openToolIndex = -1
		return nil

	case anthropic.MessageStopEvent:
		return []Event{End()}
	}

	return nil
}
