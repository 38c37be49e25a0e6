package config

import (
	"os"
	"path/filepath"
	"testing"
)

const modelTable = `[
	{
		"name": "GPT-4o",
		"slug": "gpt-4o",
		"engine": "gpt-4o",
		"provider": "openai",
		"max_tokens": 4096,
		"temperature": 0.7,
		"enabled": true,
		"rank": 1
	},
	{
		"name": "Claude Sonnet",
		"slug": "claude-sonnet",
		"engine": "claude-sonnet-4-20250514",
		"provider": "anthropic",
		"max_tokens": 8192,
		"temperature": 0.7,
		"accept_image": true,
		"enabled": true,
		"rank": 2
	}
]`

func writeModelTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadModelsFillsAPIKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	models, err := LoadModels(writeModelTable(t, modelTable))
	if err != nil {
		t.Fatalf("LoadModels: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0].APIKey != "sk-openai" || models[1].APIKey != "sk-ant" {
		t.Error("API keys not resolved from environment")
	}
}

func TestLoadModelsDisablesWhenKeyMissing(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "")

	models, err := LoadModels(writeModelTable(t, modelTable))
	if err != nil {
		t.Fatalf("LoadModels: %v", err)
	}
	if !models[0].Enabled {
		t.Error("openai model should stay enabled")
	}
	if models[1].Enabled {
		t.Error("anthropic model should be disabled without a key")
	}
}

func TestLoadModelsRejectsUnknownProvider(t *testing.T) {
	table := `[{"name": "X", "slug": "x", "engine": "x", "provider": "mistral", "enabled": true}]`
	if _, err := LoadModels(writeModelTable(t, table)); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestBuildRegistry(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	registry, err := BuildRegistry(writeModelTable(t, modelTable))
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if _, ok := registry.Get("gpt-4o"); !ok {
		t.Error("gpt-4o not registered")
	}
	if infos := registry.List(); len(infos) != 2 || infos[0].Slug != "gpt-4o" {
		t.Errorf("listing = %v", infos)
	}
}
