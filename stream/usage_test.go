package stream

import "testing"

func TestAnthropicStyleDeltaAccumulation(t *testing.T) {
	var totals UsageTotals
	totals.Add(UsageDelta{InputTokens: 10, OutputTokens: 5, TotalTokens: 15})
	totals.Add(UsageDelta{OutputTokens: 5, TotalTokens: 5})
	totals.Add(UsageDelta{OutputTokens: 5, TotalTokens: 5})

	if totals.InputTokens != 10 {
		t.Errorf("input = %d, want 10", totals.InputTokens)
	}
	if totals.OutputTokens != 15 {
		t.Errorf("output = %d, want 15", totals.OutputTokens)
	}
	if totals.TotalTokens != 25 {
		t.Errorf("total = %d, want 25", totals.TotalTokens)
	}
}

func TestMultiTurnAccumulation(t *testing.T) {
	// One OpenAI snapshot per turn; turns add up across the run.
	var totals UsageTotals
	totals.Add(UsageDelta{InputTokens: 100, OutputTokens: 20, TotalTokens: 120})
	totals.Add(UsageDelta{InputTokens: 140, OutputTokens: 30, TotalTokens: 170})

	if totals.InputTokens != 240 || totals.OutputTokens != 50 || totals.TotalTokens != 290 {
		t.Errorf("totals = %+v, want {240 50 290}", totals)
	}
}
