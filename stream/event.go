// Package stream implements the streaming response pipeline: provider chunk
// normalization, marker-scanning output filtering, tool-call aggregation,
// usage accounting and output envelopes.
//
// Information Hiding:
// - Provider wire formats hidden behind one event shape
// - Marker protocol and scan state hidden
// - Envelope rendering details hidden

package stream

// EventKind identifies the variant carried by an Event.
type EventKind int

const (
	// KindTokenDelta is an incremental piece of assistant text.
	KindTokenDelta EventKind = iota
	// KindUsageUpdate is an additive token-count update.
	KindUsageUpdate
	// KindToolCallDelta is a fragment of a tool invocation.
	KindToolCallDelta
	// KindProgress is a human-readable progress notice.
	KindProgress
	// KindStreamEnd marks the end of one provider turn.
	KindStreamEnd
)

// Event is the uniform internal unit produced by the normalizer and consumed
// exactly once by the filter/aggregator pair.
type Event struct {
	Kind EventKind

	// Text carries the token delta for KindTokenDelta and the notice text
	// for KindProgress.
	Text string

	// Usage carries the delta for KindUsageUpdate.
	Usage UsageDelta

	// Tool carries the fragment for KindToolCallDelta.
	Tool ToolCallDelta
}

// UsageDelta is an additive token-count update. Fields are deltas to be
// summed into UsageTotals, never absolute snapshots. The OpenAI single usage
// chunk is both, since it is the only update emitted for that turn.
type UsageDelta struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// ToolCallDelta is one fragment of a tool invocation, keyed by a
// stream-local index. ID and Name are set only on the first fragment for an
// index; ArgumentsDelta must be concatenated by the consumer, not
// overwritten.
type ToolCallDelta struct {
	Index          int
	ID             string
	Name           string
	ArgumentsDelta string
}

// TokenDelta builds a text delta event.
func TokenDelta(text string) Event {
	return Event{Kind: KindTokenDelta, Text: text}
}

// Progress builds a progress notice event.
func Progress(text string) Event {
	return Event{Kind: KindProgress, Text: text}
}

// End builds a stream end event.
func End() Event {
	return Event{Kind: KindStreamEnd}
}
