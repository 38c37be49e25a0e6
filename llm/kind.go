// Provider kinds - the closed set of supported LLM backends.
//
// A model's kind is resolved exactly once, when its configuration is
// registered. Everything downstream (client construction, chunk
// normalization, error mapping) dispatches on the resolved Kind rather
// than re-inspecting provider name strings per request.

package llm

import (
	"fmt"
	"strings"

	"catalyst/stream"
)

// Kind represents supported LLM providers.
type Kind int

const (
	// KindOpenAI is the OpenAI provider (GPT models).
	KindOpenAI Kind = iota
	// KindOpenAIReasoning is the OpenAI reasoning family (o-series).
	// Same wire format as KindOpenAI with adjusted message handling.
	KindOpenAIReasoning
	// KindAnthropic is the Anthropic provider (Claude models).
	KindAnthropic
	// KindGroq is the Groq provider (OpenAI-compatible API).
	KindGroq
	// KindDeepSeek is the DeepSeek provider (OpenAI-compatible API).
	KindDeepSeek
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindOpenAI:
		return "openai"
	case KindOpenAIReasoning:
		return "openai-reasoning"
	case KindAnthropic:
		return "anthropic"
	case KindGroq:
		return "groq"
	case KindDeepSeek:
		return "deepseek"
	default:
		return "unknown"
	}
}

// Format returns the wire format this kind speaks, which selects the
// chunk normalizer.
func (k Kind) Format() stream.Format {
	if k == KindAnthropic {
		return stream.FormatAnthropic
	}
	return stream.FormatOpenAI
}

// Default OpenAI-compatible endpoints.
const (
	groqBaseURL     = "https://api.groq.com/openai/v1"
	deepseekBaseURL = "https://api.deepseek.com/v1"
)

// ParseKind parses a provider kind from a configuration string
// (case-insensitive). Unknown providers are rejected up front so a bad
// model record fails at registration, not mid-conversation.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "openai", "gpt":
		return KindOpenAI, nil
	case "openai-reasoning", "gpt-reasoning":
		return KindOpenAIReasoning, nil
	case "anthropic", "claude":
		return KindAnthropic, nil
	case "groq":
		return KindGroq, nil
	case "deepseek":
		return KindDeepSeek, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// ModelConfig is one model record as registered with the Registry.
type ModelConfig struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Engine      string  `json:"engine"`
	Provider    string  `json:"provider"`
	APIKey      string  `json:"-"`
	BaseURL     string  `json:"base_url,omitempty"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
	AcceptImage bool    `json:"accept_image"`
	IsPremium   bool    `json:"is_premium"`
	Enabled     bool    `json:"enabled"`
	Rank        int     `json:"rank"`
	Icon        string  `json:"icon,omitempty"`
}

// NewProvider builds the concrete provider for a model config.
func NewProvider(kind Kind, cfg ModelConfig) (Provider, error) {
	switch kind {
	case KindOpenAI:
		return newOpenAIProvider(kind, cfg, cfg.BaseURL), nil
	case KindOpenAIReasoning:
		return newOpenAIProvider(kind, cfg, cfg.BaseURL), nil
	case KindGroq:
		base := cfg.BaseURL
		if base == "" {
			base = groqBaseURL
		}
		return newOpenAIProvider(kind, cfg, base), nil
	case KindDeepSeek:
		base := cfg.BaseURL
		if base == "" {
			base = deepseekBaseURL
		}
		return newOpenAIProvider(kind, cfg, base), nil
	case KindAnthropic:
		return newAnthropicProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider kind: %v", kind)
	}
}
