// Multi-server MCP client manager.
//
// Information Hiding:
// - Per-server session lifecycle hidden behind Initialize/Close
// - Tool-to-server routing via the consolidated tool map
// - tools/call result unwrapping hidden

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"catalyst/llm"
)

// Descriptor identifies one MCP server and how to launch it.
type Descriptor struct {
	Name    string            `json:"name"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// ToolNotFoundError reports a tool name absent from the tool map.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found", e.Name)
}

// session is the per-server surface the manager depends on.
type session interface {
	ListTools(ctx context.Context) ([]ToolInfo, error)
	CallTool(ctx context.Context, name string, arguments json.RawMessage) (json.RawMessage, error)
	Close() error
}

// Manager holds sessions to multiple MCP servers and routes tool calls
// to the owning server. A Manager is built per chat run and must be
// closed when the run ends.
type Manager struct {
	order    []string
	sessions map[string]session
	logger   *slog.Logger
}

// NewManager creates an empty manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]session),
		logger:   logger,
	}
}

// Initialize launches and handshakes every descriptor's server. On any
// failure the already-started sessions are closed and the error is
// returned.
func (m *Manager) Initialize(ctx context.Context, descriptors []Descriptor) error {
	for _, d := range descriptors {
		if _, exists := m.sessions[d.Name]; exists {
			// Duplicate names keep the first registration.
			continue
		}
		client, err := NewClient(ctx, d.Command, d.Args, d.Env)
		if err != nil {
			m.Close()
			return fmt.Errorf("server %s: %w", d.Name, err)
		}
		m.order = append(m.order, d.Name)
		m.sessions[d.Name] = client
	}
	return nil
}

// ListTools queries every session and consolidates the results. The
// returned map routes tool names to server names; when two servers
// expose the same tool name, the first server queried wins.
func (m *Manager) ListTools(ctx context.Context) (map[string]string, []llm.ToolDefinition, error) {
	byServer := make(map[string][]ToolInfo, len(m.order))
	for _, name := range m.order {
		tools, err := m.sessions[name].ListTools(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("server %s: %w", name, err)
		}
		byServer[name] = tools
	}
	toolMap, definitions := consolidateTools(m.order, byServer)
	return toolMap, definitions, nil
}

// consolidateTools merges per-server tool listings in server order,
// keeping the first occurrence of each tool name.
func consolidateTools(order []string, byServer map[string][]ToolInfo) (map[string]string, []llm.ToolDefinition) {
	toolMap := make(map[string]string)
	var definitions []llm.ToolDefinition

	for _, server := range order {
		for _, tool := range byServer[server] {
			if _, seen := toolMap[tool.Name]; seen {
				continue
			}
			toolMap[tool.Name] = server

			description := ""
			if tool.Description != nil {
				description = *tool.Description
			}
			definitions = append(definitions, llm.ToolDefinition{
				Name:        tool.Name,
				Description: description,
				Parameters:  schemaToMap(tool.InputSchema),
			})
		}
	}
	return toolMap, definitions
}

// CallTool routes a tool invocation to its owning server and returns
// the textual result. An unknown tool name fails with
// ToolNotFoundError; a known name whose session is gone resolves to an
// empty result.
func (m *Manager) CallTool(ctx context.Context, name string, arguments json.RawMessage, toolMap map[string]string) (string, error) {
	server, ok := toolMap[name]
	if !ok {
		return "", &ToolNotFoundError{Name: name}
	}

	sess, ok := m.sessions[server]
	if !ok {
		m.logger.Warn("no session for tool server", "tool", name, "server", server)
		return "", nil
	}

	result, err := sess.CallTool(ctx, name, arguments)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}
	return extractText(result), nil
}

// Close shuts down every session. Safe to call more than once.
func (m *Manager) Close() {
	for name, sess := range m.sessions {
		if err := sess.Close(); err != nil {
			m.logger.Warn("closing MCP session", "server", name, "error", err)
		}
	}
	m.sessions = make(map[string]session)
	m.order = nil
}

// extractText pulls the first text block out of a tools/call result.
func extractText(result json.RawMessage) string {
	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return string(result)
	}
	for _, block := range parsed.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}

// schemaToMap decodes a JSON schema into the generic map form tool
// definitions carry.
func schemaToMap(schema json.RawMessage) map[string]any {
	var out map[string]any
	if err := json.Unmarshal(schema, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	return out
}
