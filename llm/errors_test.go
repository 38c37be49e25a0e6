package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"

	"catalyst/stream"
)

var mapper = ErrorMapper{AppName: "Catalyst"}

func TestOpenAIRateLimitMapping(t *testing.T) {
	err := fmt.Errorf("chat completion failed: %w", &openai.APIError{HTTPStatusCode: 429})
	ue := mapper.Map(stream.FormatOpenAI, err)
	if ue.Code != CodeOpenAIRateLimit {
		t.Errorf("code = %d, want %d", ue.Code, CodeOpenAIRateLimit)
	}
	if !strings.Contains(ue.Message, "Catalyst") {
		t.Errorf("message %q should carry the app name", ue.Message)
	}
}

func TestOpenAIContextLengthMapping(t *testing.T) {
	err := &openai.APIError{
		HTTPStatusCode: 400,
		Code:           "context_length_exceeded",
		Message:        "maximum context length exceeded",
	}
	ue := mapper.Map(stream.FormatOpenAI, err)
	if ue.Code != CodeOpenAIContextLength {
		t.Errorf("code = %d, want %d", ue.Code, CodeOpenAIContextLength)
	}
}

func TestOpenAIStringTooLongMapping(t *testing.T) {
	err := &openai.APIError{HTTPStatusCode: 400, Code: "string_above_max_length"}
	if ue := mapper.Map(stream.FormatOpenAI, err); ue.Code != CodeOpenAIStringTooLong {
		t.Errorf("code = %d, want %d", ue.Code, CodeOpenAIStringTooLong)
	}
}

func TestOpenAIInvalidRequestFallback(t *testing.T) {
	err := &openai.APIError{HTTPStatusCode: 400, Code: "something_else"}
	if ue := mapper.Map(stream.FormatOpenAI, err); ue.Code != CodeOpenAIInvalidRequest {
		t.Errorf("code = %d, want %d", ue.Code, CodeOpenAIInvalidRequest)
	}
}

func TestOpenAITimeoutMapping(t *testing.T) {
	err := fmt.Errorf("stream recv failed: %w", context.DeadlineExceeded)
	if ue := mapper.Map(stream.FormatOpenAI, err); ue.Code != CodeOpenAITimeout {
		t.Errorf("code = %d, want %d", ue.Code, CodeOpenAITimeout)
	}
}

func TestOpenAIConnectionMapping(t *testing.T) {
	err := &url.Error{Op: "Post", URL: "https://api.openai.com/v1", Err: errors.New("connection refused")}
	if ue := mapper.Map(stream.FormatOpenAI, err); ue.Code != CodeOpenAIConnection {
		t.Errorf("code = %d, want %d", ue.Code, CodeOpenAIConnection)
	}
}

func TestOpenAIUnknownFallback(t *testing.T) {
	if ue := mapper.Map(stream.FormatOpenAI, errors.New("boom")); ue.Code != CodeOpenAIUnknown {
		t.Errorf("code = %d, want %d", ue.Code, CodeOpenAIUnknown)
	}
}

func TestAnthropicStatusCodeMapping(t *testing.T) {
	cases := []struct {
		status int
		want   int
	}{
		{401, CodeAnthropicAuth},
		{403, CodeAnthropicPermission},
		{404, CodeAnthropicNotFound},
		{409, CodeAnthropicConflict},
		{429, CodeAnthropicRateLimit},
		{500, CodeAnthropicServer},
		{529, CodeAnthropicServer},
	}
	for _, c := range cases {
		err := fmt.Errorf("chat completion failed: %w", &anthropic.Error{StatusCode: c.status})
		if ue := mapper.Map(stream.FormatAnthropic, err); ue.Code != c.want {
			t.Errorf("status %d: code = %d, want %d", c.status, ue.Code, c.want)
		}
	}
}

func TestAnthropicTimeoutMapping(t *testing.T) {
	if ue := mapper.Map(stream.FormatAnthropic, context.DeadlineExceeded); ue.Code != CodeAnthropicTimeout {
		t.Errorf("code = %d, want %d", ue.Code, CodeAnthropicTimeout)
	}
}

func TestAnthropicConnectionMapping(t *testing.T) {
	err := &url.Error{Op: "Post", URL: "https://api.anthropic.com", Err: errors.New("no route to host")}
	if ue := mapper.Map(stream.FormatAnthropic, err); ue.Code != CodeAnthropicConnection {
		t.Errorf("code = %d, want %d", ue.Code, CodeAnthropicConnection)
	}
}

func TestErrorMessagesNeverEmpty(t *testing.T) {
	errs := []error{
		&openai.APIError{HTTPStatusCode: 429},
		context.DeadlineExceeded,
		errors.New("opaque failure"),
	}
	for _, format := range []stream.Format{stream.FormatOpenAI, stream.FormatAnthropic} {
		for _, err := range errs {
			if ue := mapper.Map(format, err); ue.Message == "" || ue.Code == 0 {
				t.Errorf("%v/%v mapped to empty user error", format, err)
			}
		}
	}
}
