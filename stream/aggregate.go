// Tool-call aggregation.
//
// Tool invocations arrive fragmented across many chunks: the first delta for
// an index carries id and name, later deltas carry argument text to append.
// The aggregator only accretes; the orchestrator decides turn boundaries and
// calls Complete once the response turn is exhausted.

package stream

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CompletedToolCall is a fully assembled tool invocation ready to execute.
type CompletedToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
	Raw       json.RawMessage
}

// InvalidToolArgumentsError reports a tool call whose accumulated argument
// text failed to parse as JSON. The failure is scoped to that one call.
type InvalidToolArgumentsError struct {
	ID   string
	Name string
	Err  error
}

func (e *InvalidToolArgumentsError) Error() string {
	return fmt.Sprintf("tool call %q (id %s): invalid arguments: %v", e.Name, e.ID, e.Err)
}

func (e *InvalidToolArgumentsError) Unwrap() error {
	return e.Err
}

type toolFragment struct {
	id   string
	name string
	args strings.Builder
}

// ToolCallAggregator merges ToolCallDelta events by stream-local index into
// complete tool calls.
type ToolCallAggregator struct {
	fragments map[int]*toolFragment
	order     []int
}

// NewToolCallAggregator creates an empty aggregator.
func NewToolCallAggregator() *ToolCallAggregator {
	return &ToolCallAggregator{fragments: make(map[int]*toolFragment)}
}

// Add merges one fragment. The first delta for an index establishes id and
// name; every delta appends its argument text.
func (a *ToolCallAggregator) Add(delta ToolCallDelta) {
	frag, ok := a.fragments[delta.Index]
	if !ok {
		frag = &toolFragment{id: delta.ID, name: delta.Name}
		a.fragments[delta.Index] = frag
		a.order = append(a.order, delta.Index)
	}
	frag.args.WriteString(delta.ArgumentsDelta)
}

// Pending reports whether any fragments accumulated this turn.
func (a *ToolCallAggregator) Pending() bool {
	return len(a.order) > 0
}

// Complete parses every accumulated fragment, in arrival order, into
// completed calls. A call whose arguments fail to parse is returned as an
// InvalidToolArgumentsError and skipped without aborting the others. The
// aggregator resets for the next turn.
func (a *ToolCallAggregator) Complete() ([]CompletedToolCall, []error) {
	var calls []CompletedToolCall
	var errs []error

	for _, index := range a.order {
		frag := a.fragments[index]
		raw := frag.args.String()
		if raw == "" {
			// Zero-argument tools stream no argument deltas at all.
			raw = "{}"
		}
		var args map[string]any
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			errs = append(errs, &InvalidToolArgumentsError{ID: frag.id, Name: frag.name, Err: err})
			continue
		}
		calls = append(calls, CompletedToolCall{
			ID:        frag.id,
			Name:      frag.name,
			Arguments: args,
			Raw:       json.RawMessage(raw),
		})
	}

	a.fragments = make(map[int]*toolFragment)
	a.order = nil
	return calls, errs
}
