// Package chat runs the tool-use loop and the surrounding chat lifecycle.
//
// Information Hiding:
// - Turn loop and tool dispatch hidden behind the orchestrator
// - Envelope sequencing, retries and persistence hidden behind the service
// - Collaborators reached only through narrow interfaces

package chat

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"catalyst/llm"
	"catalyst/mcp"
	"catalyst/stream"
)

// RunOptions carries per-request overrides for a run.
type RunOptions struct {
	// Temperature overrides the model default when non-nil.
	Temperature *float32
	// MaxTokens bounds each response turn; zero uses the model default.
	MaxTokens int
}

// RunResult is the outcome of a completed non-streaming run.
type RunResult struct {
	// Text is the final turn's raw response text, markers included.
	Text string
	// Messages is the full history including tool turns and the final
	// assistant turn.
	Messages []llm.ChatMessage
	// Usage is the token accounting summed across every turn.
	Usage stream.UsageTotals
}

// Orchestrator drives the multi-turn tool-use loop against one provider.
// Build one per run, call Setup once, then Run or StreamRun per attempt.
type Orchestrator struct {
	provider llm.Provider
	clients  ToolClients
	maxTurns int
	logger   *slog.Logger

	toolMap map[string]string
	tools   []llm.ToolDefinition
}

// NewOrchestrator creates an orchestrator over an initialized set of
// tool clients.
func NewOrchestrator(provider llm.Provider, clients ToolClients, maxTurns int, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		provider: provider,
		clients:  clients,
		maxTurns: maxTurns,
		logger:   logger,
	}
}

// Setup consolidates the tool listing used by every subsequent turn.
func (o *Orchestrator) Setup(ctx context.Context) error {
	toolMap, tools, err := o.clients.ListTools(ctx)
	if err != nil {
		return err
	}
	o.toolMap = toolMap
	o.tools = tools
	return nil
}

// StreamRun executes the turn loop in streaming mode. Token deltas,
// usage updates and progress notices are passed to emit in arrival
// order; the orchestrator itself never renders output. The returned
// history includes every tool turn appended during the run. Hitting the
// turn limit is not an error; the last turn's text has already been
// emitted.
func (o *Orchestrator) StreamRun(ctx context.Context, messages []llm.ChatMessage, opts RunOptions, emit func(stream.Event)) ([]llm.ChatMessage, error) {
	history := slices.Clone(messages)

	for turn := 0; turn < o.maxTurns; turn++ {
		if turn == 0 {
			emit(stream.Progress(noticeAnalyzing))
		}

		agg := stream.NewToolCallAggregator()
		events := make(chan stream.Event)
		errc := make(chan error, 1)
		req := llm.Request{
			Messages:    history,
			Tools:       o.tools,
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		}
		go func() {
			errc <- o.provider.StreamCompletion(ctx, req, events)
			close(events)
		}()

		for ev := range events {
			switch ev.Kind {
			case stream.KindToolCallDelta:
				agg.Add(ev.Tool)
			case stream.KindStreamEnd:
				// Channel close is the authoritative end signal.
			default:
				emit(ev)
			}
		}
		if err := <-errc; err != nil {
			return history, err
		}

		calls := o.completeCalls(agg)
		if len(calls) == 0 {
			return history, nil
		}

		emit(stream.Progress(noticeUsingTools))
		history = o.executeCalls(ctx, history, calls, emit)
		emit(stream.Progress(noticeToolsDone))
		emit(stream.Progress(noticeFormulating))
	}

	o.logger.Warn("turn limit reached", "max_turns", o.maxTurns)
	return history, nil
}

// Run executes the turn loop without streaming. The final turn's text
// is returned even when the turn limit cuts the loop short.
func (o *Orchestrator) Run(ctx context.Context, messages []llm.ChatMessage, opts RunOptions) (RunResult, error) {
	history := slices.Clone(messages)
	var usage stream.UsageTotals
	var text string

	for turn := 0; turn < o.maxTurns; turn++ {
		req := llm.Request{
			Messages:    history,
			Tools:       o.tools,
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		}
		resp, err := o.provider.Complete(ctx, req)
		if err != nil {
			return RunResult{}, err
		}
		usage.Add(resp.Usage)
		text = resp.Content

		if len(resp.ToolCalls) == 0 {
			history = append(history, llm.AssistantMessage(resp.Content))
			return RunResult{Text: text, Messages: history, Usage: usage}, nil
		}

		calls := make([]stream.CompletedToolCall, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			calls = append(calls, stream.CompletedToolCall{ID: call.ID, Name: call.Name, Raw: call.Arguments})
		}
		history = o.executeCalls(ctx, history, calls, func(stream.Event) {})
	}

	o.logger.Warn("turn limit reached", "max_turns", o.maxTurns)
	history = append(history, llm.AssistantMessage(text))
	return RunResult{Text: text, Messages: history, Usage: usage}, nil
}

// completeCalls finalizes the aggregator, logging and dropping any call
// whose arguments failed to parse. One bad call never aborts the batch.
func (o *Orchestrator) completeCalls(agg *stream.ToolCallAggregator) []stream.CompletedToolCall {
	calls, errs := agg.Complete()
	for _, err := range errs {
		o.logger.Warn("dropping tool call", "error", err)
	}
	return calls
}

// executeCalls appends the assistant turn recording the calls, runs each
// call in arrival order, and appends one tool-result turn per successful
// execution. Unknown tools and failed executions are logged and skipped.
func (o *Orchestrator) executeCalls(ctx context.Context, history []llm.ChatMessage, calls []stream.CompletedToolCall, emit func(stream.Event)) []llm.ChatMessage {
	history = append(history, assistantToolTurn(calls))

	for _, call := range calls {
		emit(stream.Progress(noticeExecutingTool(call.Name)))

		result, err := o.clients.CallTool(ctx, call.Name, call.Raw, o.toolMap)
		var notFound *mcp.ToolNotFoundError
		switch {
		case errors.As(err, &notFound):
			o.logger.Warn("tool not found", "tool", call.Name)
		case err != nil:
			o.logger.Warn("tool execution failed", "tool", call.Name, "error", err)
		default:
			history = append(history, llm.ToolResultMessage(call.ID, result))
		}

		// The completion notice pairs with the executing notice even
		// when the call produced no result turn.
		emit(stream.Progress(noticeToolComplete(call.Name)))
	}
	return history
}

// assistantToolTurn builds the assistant turn that records a batch of
// requested tool calls.
func assistantToolTurn(calls []stream.CompletedToolCall) llm.ChatMessage {
	turn := llm.ChatMessage{Role: llm.RoleAssistant}
	for _, call := range calls {
		args := call.Raw
		if len(args) == 0 {
			args = []byte("{}")
		}
		turn.ToolCalls = append(turn.ToolCalls, llm.ToolCall{ID: call.ID, Name: call.Name, Arguments: args})
	}
	return turn
}
