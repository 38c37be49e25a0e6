package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"catalyst/stream"
)

func newBufferRecorder() (*SlogRecorder, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return NewSlogRecorder(logger), &buf
}

func TestRecordUsageWritesTotals(t *testing.T) {
	recorder, buf := newBufferRecorder()

	recorder.RecordUsage(context.Background(), "u1", "t1", "gpt-4o", stream.UsageTotals{
		InputTokens:  10,
		OutputTokens: 5,
		TotalTokens:  15,
	})

	out := buf.String()
	for _, want := range []string{"token usage", "user=u1", "model=gpt-4o", "total_tokens=15"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestRecordExceptionWritesCode(t *testing.T) {
	recorder, buf := newBufferRecorder()

	recorder.RecordException(context.Background(), "u1", "t1", 1003, "rate limited")

	out := buf.String()
	if !strings.Contains(out, "code=1003") {
		t.Errorf("output missing code: %s", out)
	}
}

func TestRecorderToleratesCancelledContext(t *testing.T) {
	recorder, buf := newBufferRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recorder.RecordUsage(ctx, "u1", "t1", "gpt-4o", stream.UsageTotals{TotalTokens: 1})

	if !strings.Contains(buf.String(), "token usage") {
		t.Error("usage not recorded under a cancelled context")
	}
}
