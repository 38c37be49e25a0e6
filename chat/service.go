// Chat service: the full lifecycle of one chat run, from thread setup
// through streaming and persistence.
//
// Envelope order per run: thread_uuid (new threads only),
// last_user_message_id, progress notices, stream_start, data,
// conversation_title (first message only), last_ai_message_id,
// stream_end. A failed run emits exactly one error envelope instead.

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"catalyst/config"
	"catalyst/llm"
	"catalyst/mcp"
	"catalyst/personalize"
	"catalyst/storage"
	"catalyst/stream"
	"catalyst/telemetry"
)

const titlePrompt = `Analyze the conversation between the user and the AI assistant provided below.
Generate a concise and impactful title (maximum 4 words) that captures the essence of the discussion,
focusing on the main topic or recurring themes.
The title should be both relevant and appealing to the user.`

// Request is one incoming chat turn.
type Request struct {
	UserID string

	// ThreadUUID is empty when the run should start a new thread.
	ThreadUUID string

	// ModelSlug selects the registered model.
	ModelSlug string

	// Messages is the conversation so far; the last entry is the new
	// user turn.
	Messages []llm.ChatMessage

	// FirstMessage triggers title generation for the thread.
	FirstMessage bool

	// UserServers are the caller's own tool servers, appended after the
	// built-ins.
	UserServers []mcp.Descriptor

	// RestrictionCode, when set, short-circuits the run with the
	// matching plan-limit message.
	RestrictionCode string

	Options RunOptions
}

// Result is the outcome of a non-streaming run.
type Result struct {
	ThreadUUID string
	MessageID  string
	Content    string
	Title      string
	Usage      stream.UsageTotals
}

// Service wires the registry, persistence, tool clients and telemetry
// into complete chat runs.
type Service struct {
	registry   *llm.Registry
	store      storage.Store
	recorder   telemetry.Recorder
	resolver   ToolResolver
	tags       *personalize.TagCache
	newClients func() ToolClients
	settings   config.Settings
	envelope   stream.Envelope
	mapper     llm.ErrorMapper
	logger     *slog.Logger
}

// NewService creates a chat service. newClients builds one ToolClients
// per run; the service closes it when the run ends.
func NewService(
	registry *llm.Registry,
	store storage.Store,
	recorder telemetry.Recorder,
	resolver ToolResolver,
	tags *personalize.TagCache,
	newClients func() ToolClients,
	settings config.Settings,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	var envelope stream.Envelope = stream.StringEnvelope{}
	if settings.Chat.ObjectEnvelope {
		envelope = stream.ObjectEnvelope{Token: settings.Chat.StreamToken}
	}
	return &Service{
		registry:   registry,
		store:      store,
		recorder:   recorder,
		resolver:   resolver,
		tags:       tags,
		newClients: newClients,
		settings:   settings,
		envelope:   envelope,
		mapper:     llm.ErrorMapper{AppName: settings.AppName},
		logger:     logger,
	}
}

// Stream runs one chat turn and returns the channel of enveloped output
// lines. The channel is closed when the run ends, whether it finished,
// failed or was cancelled.
func (s *Service) Stream(ctx context.Context, req Request) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		s.run(ctx, req, out)
	}()
	return out
}

func (s *Service) run(ctx context.Context, req Request, out chan<- string) {
	emit := func(msgType stream.MessageType, content string) {
		select {
		case out <- s.envelope.Format(content, msgType):
		case <-ctx.Done():
		}
	}

	if req.RestrictionCode != "" {
		emit(stream.TypeError, config.RestrictionMessage(req.RestrictionCode))
		return
	}

	model, ok := s.registry.Get(req.ModelSlug)
	if !ok {
		emit(stream.TypeError, fmt.Sprintf("Model %q is not available", req.ModelSlug))
		return
	}
	format := model.Kind.Format()

	threadUUID := req.ThreadUUID
	firstMessage := req.FirstMessage || threadUUID == ""

	// Usage is flushed exactly once per run, cancelled runs included.
	var totals stream.UsageTotals
	flushCtx := context.WithoutCancel(ctx)
	defer func() {
		s.recorder.RecordUsage(flushCtx, req.UserID, threadUUID, model.Config.Slug, totals)
	}()

	fail := func(err error) {
		ue := s.mapper.Map(format, err)
		emit(stream.TypeError, ue.Message)
		s.recorder.RecordException(flushCtx, req.UserID, threadUUID, ue.Code, ue.Message)
	}

	if threadUUID == "" {
		thread, err := s.store.CreateThread(ctx, req.UserID)
		if err != nil {
			fail(err)
			return
		}
		threadUUID = thread.UUID
		emit(stream.TypeThreadUUID, threadUUID)
	}

	userText := lastUserText(req.Messages)
	if userMsg, err := s.store.CreateMessage(ctx, threadUUID, llm.RoleUser, userText); err != nil {
		s.logger.Warn("saving user message", "thread", threadUUID, "error", err)
	} else {
		emit(stream.TypeLastUserMessageID, userMsg.ID)
	}

	messages := injectTags(req.Messages, s.tags.Tags(req.UserID))
	messages = trimToBudget(messages, s.settings.Chat.TokenBudget)

	emit(stream.TypeProgress, noticeWarmingUp)
	clients := s.newClients()
	defer clients.Close()
	if err := clients.Initialize(ctx, s.resolver.Resolve(req.UserServers)); err != nil {
		fail(err)
		return
	}

	orch := NewOrchestrator(model.Provider, clients, s.settings.Chat.MaxTurns, s.logger)
	if err := orch.Setup(ctx); err != nil {
		fail(err)
		return
	}

	emit(stream.TypeStreamStart, "")

	// Retry the whole run while the model produces nothing visible.
	filter := stream.NewMarkerFilter()
	var visibleText string
	var runErr error
	for attempt := 0; attempt < max(1, s.settings.Chat.MaxRetries); attempt++ {
		filter = stream.NewMarkerFilter()
		var visible strings.Builder

		_, runErr = orch.StreamRun(ctx, messages, req.Options, func(ev stream.Event) {
			switch ev.Kind {
			case stream.KindTokenDelta:
				if show := filter.Write(ev.Text); show != "" {
					visible.WriteString(show)
					emit(stream.TypeData, show)
				}
			case stream.KindUsageUpdate:
				totals.Add(ev.Usage)
			case stream.KindProgress:
				emit(stream.TypeProgress, ev.Text)
			}
		})
		visibleText = visible.String()
		if runErr != nil || strings.TrimSpace(visibleText) != "" {
			break
		}
		s.logger.Warn("empty response, retrying", "thread", threadUUID, "attempt", attempt+1)
	}

	extraction := filter.Finish()

	if ctx.Err() != nil || errors.Is(runErr, context.Canceled) {
		// The client went away. Whatever was already generated is still
		// worth keeping; finish the bookkeeping detached from the dead
		// request context.
		if strings.TrimSpace(visibleText) != "" {
			go s.finishAfterCancel(flushCtx, req, threadUUID, firstMessage, userText, visibleText, extraction)
		}
		return
	}
	if runErr != nil {
		fail(runErr)
		return
	}

	if len(extraction.Tags) > 0 {
		s.tags.Update(req.UserID, extraction.Tags)
	}

	if firstMessage {
		if title, err := s.generateTitle(ctx, model.Provider, userText, visibleText); err != nil {
			s.logger.Warn("title generation failed", "thread", threadUUID, "error", err)
		} else {
			if err := s.store.UpdateThread(ctx, threadUUID, title); err != nil {
				s.logger.Warn("saving title", "thread", threadUUID, "error", err)
			}
			emit(stream.TypeConversationTitle, title)
		}
	}

	if aiMsg, err := s.saveAssistantTurn(ctx, threadUUID, visibleText, extraction.Summary); err != nil {
		s.logger.Warn("saving assistant message", "thread", threadUUID, "error", err)
	} else {
		emit(stream.TypeLastAIMessageID, aiMsg.ID)
	}

	emit(stream.TypeStreamEnd, "")
}

// Chat runs one turn without streaming and returns the assembled result.
func (s *Service) Chat(ctx context.Context, req Request) (Result, error) {
	if req.RestrictionCode != "" {
		return Result{}, errors.New(config.RestrictionMessage(req.RestrictionCode))
	}

	model, ok := s.registry.Get(req.ModelSlug)
	if !ok {
		return Result{}, fmt.Errorf("model %q is not available", req.ModelSlug)
	}
	format := model.Kind.Format()

	threadUUID := req.ThreadUUID
	firstMessage := req.FirstMessage || threadUUID == ""
	if threadUUID == "" {
		thread, err := s.store.CreateThread(ctx, req.UserID)
		if err != nil {
			return Result{}, err
		}
		threadUUID = thread.UUID
	}

	var totals stream.UsageTotals
	flushCtx := context.WithoutCancel(ctx)
	defer func() {
		s.recorder.RecordUsage(flushCtx, req.UserID, threadUUID, model.Config.Slug, totals)
	}()

	userText := lastUserText(req.Messages)
	if _, err := s.store.CreateMessage(ctx, threadUUID, llm.RoleUser, userText); err != nil {
		s.logger.Warn("saving user message", "thread", threadUUID, "error", err)
	}

	messages := injectTags(req.Messages, s.tags.Tags(req.UserID))
	messages = trimToBudget(messages, s.settings.Chat.TokenBudget)

	clients := s.newClients()
	defer clients.Close()
	if err := clients.Initialize(ctx, s.resolver.Resolve(req.UserServers)); err != nil {
		return Result{}, s.userError(format, err)
	}
	orch := NewOrchestrator(model.Provider, clients, s.settings.Chat.MaxTurns, s.logger)
	if err := orch.Setup(ctx); err != nil {
		return Result{}, s.userError(format, err)
	}

	var run RunResult
	var runErr error
	for attempt := 0; attempt < max(1, s.settings.Chat.MaxRetries); attempt++ {
		run, runErr = orch.Run(ctx, messages, req.Options)
		totals.Add(stream.UsageDelta(run.Usage))
		if runErr != nil || strings.TrimSpace(run.Text) != "" {
			break
		}
		s.logger.Warn("empty response, retrying", "thread", threadUUID, "attempt", attempt+1)
	}
	if runErr != nil {
		return Result{}, s.userError(format, runErr)
	}

	filter := stream.NewMarkerFilter()
	visibleText := filter.Write(run.Text)
	extraction := filter.Finish()
	if len(extraction.Tags) > 0 {
		s.tags.Update(req.UserID, extraction.Tags)
	}

	result := Result{ThreadUUID: threadUUID, Content: visibleText, Usage: totals}

	if firstMessage {
		if title, err := s.generateTitle(ctx, model.Provider, userText, visibleText); err != nil {
			s.logger.Warn("title generation failed", "thread", threadUUID, "error", err)
		} else {
			if err := s.store.UpdateThread(ctx, threadUUID, title); err != nil {
				s.logger.Warn("saving title", "thread", threadUUID, "error", err)
			}
			result.Title = title
		}
	}

	if aiMsg, err := s.saveAssistantTurn(ctx, threadUUID, visibleText, extraction.Summary); err != nil {
		s.logger.Warn("saving assistant message", "thread", threadUUID, "error", err)
	} else {
		result.MessageID = aiMsg.ID
	}
	return result, nil
}

// finishAfterCancel persists what a cancelled run already produced.
func (s *Service) finishAfterCancel(ctx context.Context, req Request, threadUUID string, firstMessage bool, userText, visibleText string, extraction stream.Extraction) {
	if len(extraction.Tags) > 0 {
		s.tags.Update(req.UserID, extraction.Tags)
	}
	if _, err := s.saveAssistantTurn(ctx, threadUUID, visibleText, extraction.Summary); err != nil {
		s.logger.Warn("saving assistant message after cancel", "thread", threadUUID, "error", err)
	}
	if !firstMessage {
		return
	}
	model, ok := s.registry.Get(req.ModelSlug)
	if !ok {
		return
	}
	title, err := s.generateTitle(ctx, model.Provider, userText, visibleText)
	if err != nil {
		s.logger.Warn("title generation after cancel failed", "thread", threadUUID, "error", err)
		return
	}
	if err := s.store.UpdateThread(ctx, threadUUID, title); err != nil {
		s.logger.Warn("saving title after cancel", "thread", threadUUID, "error", err)
	}
}

// saveAssistantTurn persists the assistant message and, when present,
// its summary.
func (s *Service) saveAssistantTurn(ctx context.Context, threadUUID, content, summary string) (storage.Message, error) {
	aiMsg, err := s.store.CreateMessage(ctx, threadUUID, llm.RoleAssistant, content)
	if err != nil {
		return storage.Message{}, err
	}
	if summary != "" {
		if _, err := s.store.CreateSummary(ctx, threadUUID, aiMsg.ID, summary); err != nil {
			s.logger.Warn("saving summary", "thread", threadUUID, "error", err)
		}
	}
	return aiMsg, nil
}

// generateTitle produces a thread title from the opening exchange with a
// one-shot completion.
func (s *Service) generateTitle(ctx context.Context, provider llm.Provider, userText, responseText string) (string, error) {
	resp, err := provider.Complete(ctx, llm.Request{
		Messages: []llm.ChatMessage{
			llm.SystemMessage(titlePrompt),
			llm.UserMessage(userText),
			llm.AssistantMessage(responseText),
		},
	})
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(resp.Content), `"`), nil
}

// userError wraps a provider failure in its displayable form.
func (s *Service) userError(format stream.Format, err error) error {
	ue := s.mapper.Map(format, err)
	return fmt.Errorf("%s (code %d)", ue.Message, ue.Code)
}

// lastUserText returns the text of the newest user turn.
func lastUserText(messages []llm.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return messages[i].Text()
		}
	}
	return ""
}

// injectTags appends the user's persona tags to the system turn so the
// model can personalize its answer. A conversation without a system turn
// gains one.
func injectTags(messages []llm.ChatMessage, tags []string) []llm.ChatMessage {
	if len(tags) == 0 {
		return messages
	}
	note := "Known user interests: " + strings.Join(tags, ", ")

	out := make([]llm.ChatMessage, len(messages))
	copy(out, messages)
	for i, msg := range out {
		if msg.Role == llm.RoleSystem {
			out[i].Content = msg.Text() + "\n\n" + note
			out[i].Parts = nil
			return out
		}
	}
	return append([]llm.ChatMessage{llm.SystemMessage(note)}, out...)
}

var (
	_ ToolClients  = (*mcp.Manager)(nil)
	_ ToolResolver = (*mcp.Resolver)(nil)
)
