package chat

import (
	"context"
	"encoding/json"
	"sync"

	"catalyst/llm"
	"catalyst/mcp"
	"catalyst/stream"
)

// scriptedTurn is one provider response in a fake script. The last turn
// repeats once the script is exhausted.
type scriptedTurn struct {
	text  string
	calls []llm.ToolCall
	usage stream.UsageDelta
}

type fakeProvider struct {
	turns    []scriptedTurn
	next     int
	requests []llm.Request
}

func (p *fakeProvider) Name() string  { return "fake" }
func (p *fakeProvider) Model() string { return "fake-model" }

func (p *fakeProvider) take() scriptedTurn {
	if len(p.turns) == 0 {
		return scriptedTurn{}
	}
	turn := p.turns[p.next]
	if p.next < len(p.turns)-1 {
		p.next++
	}
	return turn
}

func (p *fakeProvider) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	p.requests = append(p.requests, req)
	turn := p.take()
	return llm.Response{Content: turn.text, ToolCalls: turn.calls, Usage: turn.usage}, nil
}

func (p *fakeProvider) StreamCompletion(_ context.Context, req llm.Request, events chan<- stream.Event) error {
	p.requests = append(p.requests, req)
	turn := p.take()

	if turn.usage != (stream.UsageDelta{}) {
		events <- stream.Event{Kind: stream.KindUsageUpdate, Usage: turn.usage}
	}
	for i, call := range turn.calls {
		events <- stream.Event{Kind: stream.KindToolCallDelta, Tool: stream.ToolCallDelta{
			Index:          i,
			ID:             call.ID,
			Name:           call.Name,
			ArgumentsDelta: string(call.Arguments),
		}}
	}
	if turn.text != "" {
		events <- stream.TokenDelta(turn.text)
	}
	return nil
}

var _ llm.Provider = (*fakeProvider)(nil)

// stallingProvider emits usage and one delta, then holds the stream open
// until the caller's context is cancelled.
type stallingProvider struct {
	fakeProvider
	usage stream.UsageDelta
	text  string
}

func (p *stallingProvider) StreamCompletion(ctx context.Context, _ llm.Request, events chan<- stream.Event) error {
	events <- stream.Event{Kind: stream.KindUsageUpdate, Usage: p.usage}
	events <- stream.TokenDelta(p.text)
	<-ctx.Done()
	return ctx.Err()
}

type fakeClients struct {
	mu      sync.Mutex
	toolMap map[string]string
	tools   []llm.ToolDefinition
	results map[string]string
	called  []string
	closed  bool
}

func newFakeClients(results map[string]string) *fakeClients {
	toolMap := make(map[string]string)
	var tools []llm.ToolDefinition
	for name := range results {
		toolMap[name] = "fake-server"
		tools = append(tools, llm.ToolDefinition{Name: name, Parameters: map[string]any{"type": "object"}})
	}
	return &fakeClients{toolMap: toolMap, tools: tools, results: results}
}

func (c *fakeClients) Initialize(context.Context, []mcp.Descriptor) error { return nil }

func (c *fakeClients) ListTools(context.Context) (map[string]string, []llm.ToolDefinition, error) {
	return c.toolMap, c.tools, nil
}

func (c *fakeClients) CallTool(_ context.Context, name string, _ json.RawMessage, toolMap map[string]string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := toolMap[name]; !ok {
		return "", &mcp.ToolNotFoundError{Name: name}
	}
	c.called = append(c.called, name)
	return c.results[name], nil
}

func (c *fakeClients) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

var _ ToolClients = (*fakeClients)(nil)

type recordedUsage struct {
	userID string
	model  string
	totals stream.UsageTotals
}

type recordedException struct {
	code    int
	message string
}

type captureRecorder struct {
	mu         sync.Mutex
	usages     []recordedUsage
	exceptions []recordedException
}

func (r *captureRecorder) RecordUsage(_ context.Context, userID, _, model string, totals stream.UsageTotals) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usages = append(r.usages, recordedUsage{userID: userID, model: model, totals: totals})
}

func (r *captureRecorder) RecordException(_ context.Context, _, _ string, code int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exceptions = append(r.exceptions, recordedException{code: code, message: message})
}
