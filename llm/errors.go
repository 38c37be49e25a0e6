// User-facing error mapping for provider failures.
//
// Raw SDK errors never reach end users. Each failure maps to a stable
// numeric code and a readable message so clients can branch on the code
// while the message stays safe to display. Anthropic codes live in the
// 1000 range, OpenAI-format codes in the 2000 range.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"

	"catalyst/stream"
)

// Stable user-facing error codes.
const (
	CodeAnthropicConnection    = 1001
	CodeAnthropicTimeout       = 1002
	CodeAnthropicRateLimit     = 1003
	CodeAnthropicBadRequest    = 1004
	CodeAnthropicAuth          = 1005
	CodeAnthropicPermission    = 1006
	CodeAnthropicNotFound      = 1007
	CodeAnthropicConflict      = 1008
	CodeAnthropicUnprocessable = 1009
	CodeAnthropicServer        = 1010
	CodeAnthropicUnknown       = 1011
	CodeAnthropicLowCredit     = 1012

	CodeOpenAIConnection     = 2001
	CodeOpenAIRateLimit      = 2002
	CodeOpenAIStringTooLong  = 2003
	CodeOpenAIContextLength  = 2004
	CodeOpenAIInvalidRequest = 2005
	CodeOpenAITimeout        = 2006
	CodeOpenAIUnknown        = 2007
)

// UserError is the displayable form of a provider failure.
type UserError struct {
	Message string
	Code    int
}

// ErrorMapper translates SDK errors into user-facing messages. AppName
// is interpolated into every message.
type ErrorMapper struct {
	AppName string
}

// Map converts a provider error into its user-facing form. The wire
// format decides which code family applies.
func (m ErrorMapper) Map(format stream.Format, err error) UserError {
	if format == stream.FormatAnthropic {
		return m.mapAnthropic(err)
	}
	return m.mapOpenAI(err)
}

func (m ErrorMapper) mapOpenAI(err error) UserError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 400:
			return m.openAIInvalidRequest(apiErr)
		case 429:
			return UserError{
				Message: fmt.Sprintf("%s Agent API request has exceeded the rate limit. please try again after Some time", m.AppName),
				Code:    CodeOpenAIRateLimit,
			}
		}
	}
	if isTimeout(err) {
		return UserError{
			Message: fmt.Sprintf("%s Agent API Timeout Error. please try again after Some time", m.AppName),
			Code:    CodeOpenAITimeout,
		}
	}
	if isConnectionError(err) {
		return UserError{
			Message: fmt.Sprintf("%s Agent is Unable to Establish Connection to API, please try again after Some time", m.AppName),
			Code:    CodeOpenAIConnection,
		}
	}
	return UserError{
		Message: fmt.Sprintf("%s Agent Couldn't Complete Request: %v", m.AppName, err),
		Code:    CodeOpenAIUnknown,
	}
}

func (m ErrorMapper) openAIInvalidRequest(apiErr *openai.APIError) UserError {
	code, _ := apiErr.Code.(string)
	switch code {
	case "string_above_max_length":
		return UserError{
			Message: fmt.Sprintf("%s Agent is unable to process strings that exceed the maximum length limit.", m.AppName),
			Code:    CodeOpenAIStringTooLong,
		}
	case "context_length_exceeded":
		return UserError{
			Message: fmt.Sprintf("%s Agent Can't Process Input : %s", m.AppName, apiErr.Message),
			Code:    CodeOpenAIContextLength,
		}
	default:
		return UserError{
			Message: fmt.Sprintf("%s Agent API cannot process the input due to invalid request details: %s", m.AppName, apiErr.Message),
			Code:    CodeOpenAIInvalidRequest,
		}
	}
}

func (m ErrorMapper) mapAnthropic(err error) UserError {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 400 && strings.Contains(err.Error(), "credit balance is too low") {
			return UserError{
				Message: fmt.Sprintf("%s Agent cannot access the Claude API due to insufficient credit balance. Please upgrade or purchase credits.", m.AppName),
				Code:    CodeAnthropicLowCredit,
			}
		}
		switch apiErr.StatusCode {
		case 400:
			return m.anthropicError("encountered a bad request error with the Anthropic API. Please try with a different model.", CodeAnthropicBadRequest)
		case 401:
			return m.anthropicError("is unauthorized to access the Anthropic API. Please check your API key.", CodeAnthropicAuth)
		case 403:
			return m.anthropicError("does not have permission to access the requested resource in the Anthropic API.", CodeAnthropicPermission)
		case 404:
			return m.anthropicError("couldn't find the requested resource in the Anthropic API.", CodeAnthropicNotFound)
		case 409:
			return m.anthropicError("encountered a conflict error with the Anthropic API. This may be due to conflicting data.", CodeAnthropicConflict)
		case 422:
			return UserError{
				Message: fmt.Sprintf("%s Agent couldn't process the entity in the Anthropic API: %v", m.AppName, err),
				Code:    CodeAnthropicUnprocessable,
			}
		case 429:
			return m.anthropicError("API request to Anthropic has exceeded the rate limit. Please try again after some time or try with another model.", CodeAnthropicRateLimit)
		}
		if apiErr.StatusCode >= 500 {
			return m.anthropicError("encountered an internal server error with the Anthropic API. Please try again later.", CodeAnthropicServer)
		}
	}
	if isTimeout(err) {
		return m.anthropicError("request to the Anthropic API timed out. Please try again after some time or try with another model.", CodeAnthropicTimeout)
	}
	if isConnectionError(err) {
		return m.anthropicError("is unable to establish a connection to the Anthropic API. Please try again after some time or try with another model.", CodeAnthropicConnection)
	}
	return UserError{
		Message: fmt.Sprintf("%s Agent encountered an unexpected error with the Anthropic API: %v", m.AppName, err),
		Code:    CodeAnthropicUnknown,
	}
}

func (m ErrorMapper) anthropicError(detail string, code int) UserError {
	return UserError{
		Message: fmt.Sprintf("%s Agent %s", m.AppName, detail),
		Code:    code,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
