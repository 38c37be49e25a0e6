// Collaborator interfaces consumed by the chat service. The concrete
// implementations live in mcp, storage, and telemetry; the service only
// sees these surfaces.

package chat

import (
	"context"
	"encoding/json"

	"catalyst/llm"
	"catalyst/mcp"
)

// ToolClients manages connections to tool servers for one run.
type ToolClients interface {
	// Initialize launches and handshakes the given servers.
	Initialize(ctx context.Context, descriptors []mcp.Descriptor) error

	// ListTools returns the name-to-server routing map and the tool
	// definitions to attach to provider requests.
	ListTools(ctx context.Context) (map[string]string, []llm.ToolDefinition, error)

	// CallTool invokes a tool by name and returns its textual result.
	CallTool(ctx context.Context, name string, arguments json.RawMessage, toolMap map[string]string) (string, error)

	// Close shuts down all sessions.
	Close()
}

// ToolResolver decides which tool servers a run connects to.
type ToolResolver interface {
	Resolve(userServers []mcp.Descriptor) []mcp.Descriptor
}
