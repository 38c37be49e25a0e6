// Command execution for CLI commands.
//
// Information Hiding:
// - Service wiring hidden
// - Envelope parsing for terminal display hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"catalyst/chat"
	"catalyst/config"
	"catalyst/llm"
	"catalyst/mcp"
	"catalyst/personalize"
	"catalyst/storage"
	"catalyst/stream"
	"catalyst/telemetry"
)

// Options holds CLI execution options.
type Options struct {
	Model   string
	Thread  string
	Verbose bool
}

// app bundles the collaborators wired for one CLI invocation.
type app struct {
	settings config.Settings
	registry *llm.Registry
	store    *storage.SqliteStore
	service  *chat.Service
	logger   *slog.Logger
}

func buildApp() (*app, error) {
	settings, err := config.New()
	if err != nil {
		return nil, err
	}
	// The terminal reader parses the string envelope.
	settings.Chat.ObjectEnvelope = false

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	registry, err := config.BuildRegistry(settings.Storage.ModelConfigPath)
	if err != nil {
		return nil, err
	}

	store, err := storage.OpenSqlite(settings.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var builtins []mcp.Descriptor
	if settings.Storage.MCPConfigPath != "" {
		mcpConfig, err := mcp.LoadConfig(settings.Storage.MCPConfigPath)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to load MCP config: %w", err)
		}
		builtins = mcpConfig.Descriptors()
	}

	service := chat.NewService(
		registry,
		store,
		telemetry.NewSlogRecorder(logger),
		mcp.NewResolver(builtins),
		personalize.NewTagCache(settings.Chat.TagCapacity),
		func() chat.ToolClients { return mcp.NewManager(logger) },
		settings,
		logger,
	)

	return &app{
		settings: settings,
		registry: registry,
		store:    store,
		service:  service,
		logger:   logger,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing database", "error", err)
	}
}

// Chat starts an interactive chat session against the selected model.
func Chat(ctx context.Context, opts Options) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, ok := a.registry.Get(opts.Model); !ok {
		return fmt.Errorf("model %q is not available, try 'catalyst models'", opts.Model)
	}

	threadUUID := opts.Thread
	var history []llm.ChatMessage

	if threadUUID != "" {
		stored, err := a.store.ThreadMessages(ctx, threadUUID)
		if err != nil {
			return fmt.Errorf("failed to load thread: %w", err)
		}
		for _, msg := range stored {
			history = append(history, llm.ChatMessage{Role: msg.Role, Content: msg.Content})
		}
		if len(history) > 0 {
			fmt.Printf("Resuming thread %s (%d messages)\n\n", threadUUID, len(history))
		}
	}

	fmt.Printf("Chat with %s. Type 'exit' to quit.\n\n", opts.Model)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		history = append(history, llm.UserMessage(input))

		req := chat.Request{
			UserID:     "local",
			ThreadUUID: threadUUID,
			ModelSlug:  opts.Model,
			Messages:   history,
		}

		var answer strings.Builder
		for line := range a.service.Stream(ctx, req) {
			msgType, content, _ := strings.Cut(line, ": ")
			switch stream.MessageType(msgType) {
			case stream.TypeData:
				fmt.Print(content)
				answer.WriteString(content)
			case stream.TypeThreadUUID:
				threadUUID = content
			case stream.TypeConversationTitle:
				if opts.Verbose {
					fmt.Fprintf(os.Stderr, "[title: %s]\n", content)
				}
			case stream.TypeProgress:
				if opts.Verbose {
					fmt.Fprintf(os.Stderr, "[%s]\n", content)
				}
			case stream.TypeError:
				fmt.Fprintf(os.Stderr, "\nError: %s\n", content)
			}
		}
		fmt.Println()
		fmt.Println()

		if answer.Len() > 0 {
			history = append(history, llm.AssistantMessage(answer.String()))
		} else {
			history = history[:len(history)-1]
		}
	}

	return scanner.Err()
}

// Models lists the registered models by rank.
func Models() error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	infos := a.registry.List()
	if len(infos) == 0 {
		fmt.Println("No models configured. Check the model config file and API keys.")
		return nil
	}

	fmt.Println("Available models:")
	fmt.Println()
	for _, info := range infos {
		premium := ""
		if info.IsPremium {
			premium = " (premium)"
		}
		images := ""
		if info.AcceptImage {
			images = ", images"
		}
		fmt.Printf("  %-20s %s%s%s\n", info.Slug, info.Name, premium, images)
	}
	return nil
}

// History prints a thread's persisted messages in order.
func History(ctx context.Context, threadUUID string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	thread, err := a.store.Thread(ctx, threadUUID)
	if err != nil {
		return fmt.Errorf("failed to load thread: %w", err)
	}
	if thread.Title != "" {
		fmt.Printf("%s\n\n", thread.Title)
	}

	messages, err := a.store.ThreadMessages(ctx, threadUUID)
	if err != nil {
		return err
	}
	for _, msg := range messages {
		fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
	}
	return nil
}
