// Package main provides the catalyst CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"catalyst/cli"
)

var (
	// Global flags
	model   string
	thread  string
	verbose bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "catalyst",
		Short: "Multi-tenant LLM chat backend with MCP tool use",
		Long: `Catalyst streams LLM chat completions with in-band persona tag and
summary extraction, multi-turn MCP tool use, and per-thread persistence.

Model records come from a JSON config file; API keys are read from the
environment per provider.`,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show progress notices and titles")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Model:   model,
				Thread:  thread,
				Verbose: verbose,
			}
			return cli.Chat(context.Background(), opts)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "gpt-4o", "Model slug to chat with")
	cmd.Flags().StringVar(&thread, "thread", "", "Thread UUID to resume")

	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Models()
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [thread-uuid]",
		Short: "Print a thread's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.History(context.Background(), args[0])
		},
	}
}
