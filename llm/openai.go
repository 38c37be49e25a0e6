// OpenAI-format provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication (Groq and DeepSeek reuse this
//   provider with their own base URLs)
// - Request/response format for the Chat Completions API
// - Reasoning-model message rules (developer role, no temperature)
// - Streaming chunk normalization via go-openai library

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"catalyst/stream"
)

type openAIProvider struct {
	client *openai.Client
	kind   Kind
	cfg    ModelConfig
}

func newOpenAIProvider(kind Kind, cfg ModelConfig, baseURL string) *openAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return &openAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		kind:   kind,
		cfg:    cfg,
	}
}

// Name returns the provider name.
func (p *openAIProvider) Name() string {
	return p.kind.String()
}

// Model returns the current model.
func (p *openAIProvider) Model() string {
	return p.cfg.Engine
}

func (p *openAIProvider) buildRequest(req Request, streaming bool) openai.ChatCompletionRequest {
	messages := convertToOpenAIMessages(req.Messages)
	if p.kind == KindOpenAIReasoning {
		messages = applyReasoningRules(messages)
	}

	out := openai.ChatCompletionRequest{
		Model:    p.cfg.Engine,
		Messages: messages,
		Tools:    convertToOpenAITools(req.Tools),
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.cfg.MaxTokens
	}
	if p.kind == KindOpenAIReasoning {
		// Reasoning models reject max_tokens and temperature.
		out.MaxCompletionTokens = maxTokens
	} else {
		out.MaxTokens = maxTokens
		if req.Temperature != nil {
			out.Temperature = *req.Temperature
		} else {
			out.Temperature = p.cfg.Temperature
		}
	}

	if streaming {
		out.Stream = true
		out.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	return out
}

// Complete sends a chat completion request and waits for the response.
func (p *openAIProvider) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req, false))
	if err != nil {
		return Response{}, fmt.Errorf("chat completion failed: %w", err)
	}

	result := Response{
		Usage: stream.UsageDelta{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) > 0 {
		result.Content = resp.Choices[0].Message.Content
		for _, tc := range resp.Choices[0].Message.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: []byte(tc.Function.Arguments),
			})
		}
	}
	return result, nil
}

// StreamCompletion streams a chat completion as normalized events.
func (p *openAIProvider) StreamCompletion(ctx context.Context, req Request, events chan<- stream.Event) error {
	upstream, err := p.client.CreateChatCompletionStream(ctx, p.buildRequest(req, true))
	if err != nil {
		return fmt.Errorf("stream creation failed: %w", err)
	}
	defer upstream.Close()

	normalizer, err := stream.NewNormalizer(p.kind.Format(), nil)
	if err != nil {
		return err
	}

	for {
		chunk, err := upstream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream recv failed: %w", err)
		}
		for _, event := range normalizer.OpenAIChunk(chunk) {
			select {
			case events <- event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// applyReasoningRules rewrites messages for o-series models: the system
// role is not accepted and must travel as a developer message.
func applyReasoningRules(messages []openai.ChatCompletionMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		if msg.Role == RoleSystem {
			msg.Role = RoleDeveloper
		}
		result[i] = msg
	}
	return result
}

// convertToOpenAIMessages converts our ChatMessage to openai.ChatCompletionMessage,
// carrying tool calls, tool results, and multi-part image content.
func convertToOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}

		if len(msg.Parts) > 0 {
			oaiMsg.Content = ""
			for _, part := range msg.Parts {
				switch part.Type {
				case "image":
					oaiMsg.MultiContent = append(oaiMsg.MultiContent, openai.ChatMessagePart{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: part.Source},
					})
				default:
					oaiMsg.MultiContent = append(oaiMsg.MultiContent, openai.ChatMessagePart{
						Type: openai.ChatMessagePartTypeText,
						Text: part.Text,
					})
				}
			}
		}

		// Handle tool calls from assistant
		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}

		// Handle tool response
		if msg.ToolCallID != "" {
			oaiMsg.ToolCallID = msg.ToolCallID
		}

		result[i] = oaiMsg
	}
	return result
}

// convertToOpenAITools converts tool definitions to OpenAI format.
func convertToOpenAITools(tools []ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

// Verify openAIProvider implements Provider
var _ Provider = (*openAIProvider)(nil)
