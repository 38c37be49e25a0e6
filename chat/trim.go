// Conversation trimming under a token budget.
//
// Prompts grow without bound as threads age; before dispatch the history
// is cut down to fit the configured budget. System turns always survive.
// Of the rest, the newest run that fits is kept, found by binary search
// over the retained count. If even the final message alone overflows, its
// content is truncated as a last resort.

package chat

import "catalyst/llm"

// bytesPerToken is a coarse estimate standing in for a real tokenizer.
const bytesPerToken = 4

// estimateTokens approximates the token cost of one message.
func estimateTokens(msg llm.ChatMessage) int {
	cost := len(msg.Text())
	for _, call := range msg.ToolCalls {
		cost += len(call.Name) + len(call.Arguments)
	}
	return cost/bytesPerToken + 1
}

// trimToBudget returns the history reduced to fit budget tokens. The
// original order is preserved; only older non-system turns are dropped.
func trimToBudget(messages []llm.ChatMessage, budget int) []llm.ChatMessage {
	if budget <= 0 {
		return messages
	}

	systemCost := 0
	var rest []int
	for i, msg := range messages {
		if msg.Role == llm.RoleSystem || msg.Role == llm.RoleDeveloper {
			systemCost += estimateTokens(msg)
		} else {
			rest = append(rest, i)
		}
	}

	// suffixCost(k) is the cost of the newest k non-system turns.
	suffixCost := func(k int) int {
		total := 0
		for _, i := range rest[len(rest)-k:] {
			total += estimateTokens(messages[i])
		}
		return total
	}

	if systemCost+suffixCost(len(rest)) <= budget {
		return messages
	}

	// Largest k whose suffix still fits.
	lo, hi := 0, len(rest)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if systemCost+suffixCost(mid) <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	if lo == 0 {
		// Not even the final message fits whole; keep system turns and a
		// truncated copy of the final message.
		return truncateLast(messages, rest, budget-systemCost)
	}

	keep := make(map[int]bool, lo)
	for _, i := range rest[len(rest)-lo:] {
		keep[i] = true
	}

	var out []llm.ChatMessage
	for i, msg := range messages {
		if msg.Role == llm.RoleSystem || msg.Role == llm.RoleDeveloper || keep[i] {
			out = append(out, msg)
		}
	}
	return out
}

// truncateLast keeps the system turns plus the final non-system message
// with its content cut down to roughly the remaining budget.
func truncateLast(messages []llm.ChatMessage, rest []int, remaining int) []llm.ChatMessage {
	var out []llm.ChatMessage
	for _, msg := range messages {
		if msg.Role == llm.RoleSystem || msg.Role == llm.RoleDeveloper {
			out = append(out, msg)
		}
	}
	if len(rest) == 0 {
		return out
	}

	last := messages[rest[len(rest)-1]]
	limit := remaining * bytesPerToken
	if limit < 0 {
		limit = 0
	}
	content := last.Text()
	if len(content) > limit {
		content = content[:limit]
	}
	out = append(out, llm.ChatMessage{Role: last.Role, Content: content})
	return out
}
