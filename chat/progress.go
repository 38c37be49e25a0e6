package chat

import "fmt"

// Progress notices surfaced to the client while a run works.
const (
	noticeWarmingUp   = "Warming up the thinking engine..."
	noticeAnalyzing   = "Analyzing your question and determining next steps..."
	noticeUsingTools  = "Using tools to gather information..."
	noticeToolsDone   = "All tools executed successfully."
	noticeFormulating = "Information gathered. Formulating complete response..."
)

func noticeExecutingTool(name string) string {
	return fmt.Sprintf("Executing tool: %s...", name)
}

func noticeToolComplete(name string) string {
	return fmt.Sprintf("Tool %s execution complete.", name)
}
