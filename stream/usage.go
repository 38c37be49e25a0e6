// Usage accumulation.

package stream

// UsageTotals is a per-run accumulator of token telemetry. It is updated
// exclusively by usage events, never decremented, and read once by the
// telemetry collaborator at run completion, error or cancellation.
type UsageTotals struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add folds one additive usage delta into the totals. Two updates for the
// same provider turn (the Anthropic start+delta pair) accumulate; the OpenAI
// single usage chunk is already the turn's final snapshot and arrives alone.
func (u *UsageTotals) Add(delta UsageDelta) {
	u.InputTokens += delta.InputTokens
	u.OutputTokens += delta.OutputTokens
	u.TotalTokens += delta.TotalTokens
}
