// Anthropic Provider implementation using official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for Anthropic Messages API
// - System prompt extraction (travels out-of-band, not as a message)
// - Streaming chunk normalization via official SDK

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"catalyst/stream"
)

type anthropicProvider struct {
	client anthropic.Client
	cfg    ModelConfig
}

func newAnthropicProvider(cfg ModelConfig) *anthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicProvider{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
	}
}

// Name returns the provider name.
func (p *anthropicProvider) Name() string {
	return "anthropic"
}

// Model returns the current model.
func (p *anthropicProvider) Model() string {
	return p.cfg.Engine
}

func (p *anthropicProvider) buildParams(req Request) anthropic.MessageNewParams {
	messages, systemPrompt := convertToAnthropicMessages(req.Messages)

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.cfg.MaxTokens
	}
	temperature := p.cfg.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.cfg.Engine),
		MaxTokens:   int64(maxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(float64(temperature)),
		Tools:       convertToAnthropicTools(req.Tools),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	return params
}

// Complete sends a chat completion request and waits for the response.
func (p *anthropicProvider) Complete(ctx context.Context, req Request) (Response, error) {
	message, err := p.client.Messages.New(ctx, p.buildParams(req))
	if err != nil {
		return Response{}, fmt.Errorf("chat completion failed: %w", err)
	}

	var result Response
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Content += variant.Text
		case anthropic.ToolUseBlock:
			inputJSON, _ := json.Marshal(variant.Input)
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: inputJSON,
			})
		}
	}

	usage := message.Usage
	input := usage.InputTokens + usage.CacheCreationInputTokens + usage.CacheReadInputTokens
	result.Usage = stream.UsageDelta{
		InputTokens:  int(input),
		OutputTokens: int(usage.OutputTokens),
		TotalTokens:  int(input + usage.OutputTokens),
	}
	return result, nil
}

// StreamCompletion streams a chat completion as normalized events.
func (p *anthropicProvider) StreamCompletion(ctx context.Context, req Request, events chan<- stream.Event) error {
	upstream := p.client.Messages.NewStreaming(ctx, p.buildParams(req))

	normalizer, err := stream.NewNormalizer(stream.FormatAnthropic, nil)
	if err != nil {
		return err
	}

	for upstream.Next() {
		for _, event := range normalizer.AnthropicEvent(upstream.Current()) {
			select {
			case events <- event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if err := upstream.Err(); err != nil {
		return fmt.Errorf("stream error: %w", err)
	}
	return nil
}

// convertToAnthropicMessages converts our ChatMessage to Anthropic format.
// The system message is extracted and returned separately; tool calls,
// tool results, and image parts are mapped to their block types.
func convertToAnthropicMessages(messages []ChatMessage) ([]anthropic.MessageParam, string) {
	var anthropicMessages []anthropic.MessageParam
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem, RoleDeveloper:
			systemPrompt = msg.Text()
		case RoleUser:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				convertUserBlocks(msg)...,
			))
		case RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				content := anthropic.MessageParam{
					Role: anthropic.MessageParamRoleAssistant,
				}
				if msg.Content != "" {
					content.Content = append(content.Content, anthropic.NewTextBlock(msg.Content))
				}
				for _, tc := range msg.ToolCalls {
					var input map[string]any
					_ = json.Unmarshal(tc.Arguments, &input)
					content.Content = append(content.Content, anthropic.ContentBlockParamUnion{
						OfToolUse: &anthropic.ToolUseBlockParam{
							ID:    tc.ID,
							Name:  tc.Name,
							Input: input,
						},
					})
				}
				anthropicMessages = append(anthropicMessages, content)
			} else {
				anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(
					anthropic.NewTextBlock(msg.Content),
				))
			}
		case RoleTool:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))
		}
	}

	return anthropicMessages, systemPrompt
}

func convertUserBlocks(msg ChatMessage) []anthropic.ContentBlockParamUnion {
	if len(msg.Parts) == 0 {
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Content)}
	}
	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range msg.Parts {
		switch part.Type {
		case "image":
			mediaType, data, ok := splitDataURL(part.Source)
			if !ok {
				continue
			}
			blocks = append(blocks, anthropic.NewImageBlockBase64(mediaType, data))
		default:
			blocks = append(blocks, anthropic.NewTextBlock(part.Text))
		}
	}
	return blocks
}

// splitDataURL parses "data:<media-type>;base64,<data>".
func splitDataURL(source string) (mediaType, data string, ok bool) {
	rest, found := strings.CutPrefix(source, "data:")
	if !found {
		return "", "", false
	}
	header, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	mediaType, _, _ = strings.Cut(header, ";")
	return mediaType, payload, mediaType != ""
}

// convertToAnthropicTools converts tool definitions to Anthropic format.
func convertToAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		// Extract properties and required from the full schema
		properties, _ := t.Parameters["properties"].(map[string]any)
		required := requiredFields(t.Parameters["required"])

		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
				Required:   required,
			},
		}
		result[i] = anthropic.ToolUnionParam{OfTool: &toolParam}
	}
	return result
}

// requiredFields tolerates both []string and the []any produced by
// decoding JSON schemas.
func requiredFields(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Verify anthropicProvider implements Provider
var _ Provider = (*anthropicProvider)(nil)
