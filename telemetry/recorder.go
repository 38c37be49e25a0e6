// Package telemetry records per-run accounting events.
//
// Information Hiding:
// - Sink details hidden behind the Recorder interface
// - Callers never format accounting output themselves

package telemetry

import (
	"context"
	"log/slog"

	"catalyst/stream"
)

// Recorder receives usage totals and coded failures for a chat run.
// Implementations must tolerate being called from deferred cleanup
// paths, including after cancellation.
type Recorder interface {
	// RecordUsage logs the accumulated token totals for one run.
	RecordUsage(ctx context.Context, userID, threadUUID, model string, totals stream.UsageTotals)

	// RecordException logs a user-facing failure with its stable code.
	RecordException(ctx context.Context, userID, threadUUID string, code int, message string)
}

// SlogRecorder writes accounting events to a structured logger.
type SlogRecorder struct {
	logger *slog.Logger
}

// NewSlogRecorder creates a recorder over the given logger.
func NewSlogRecorder(logger *slog.Logger) *SlogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogRecorder{logger: logger}
}

// RecordUsage logs the accumulated token totals for one run.
func (r *SlogRecorder) RecordUsage(ctx context.Context, userID, threadUUID, model string, totals stream.UsageTotals) {
	r.logger.InfoContext(ctx, "token usage",
		"user", userID,
		"thread", threadUUID,
		"model", model,
		"input_tokens", totals.InputTokens,
		"output_tokens", totals.OutputTokens,
		"total_tokens", totals.TotalTokens,
	)
}

// RecordException logs a user-facing failure with its stable code.
func (r *SlogRecorder) RecordException(ctx context.Context, userID, threadUUID string, code int, message string) {
	r.logger.ErrorContext(ctx, "chat exception",
		"user", userID,
		"thread", threadUUID,
		"code", code,
		"message", message,
	)
}

// Verify SlogRecorder implements Recorder
var _ Recorder = (*SlogRecorder)(nil)
