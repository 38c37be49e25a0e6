// Model configuration file loading.
//
// The model table is a JSON array of records; API keys are never stored
// in the file and are resolved from the environment per provider.

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"catalyst/llm"
)

// apiKeyEnv maps provider names to their API key environment variable.
var apiKeyEnv = map[string]string{
	"openai":           "OPENAI_API_KEY",
	"gpt":              "OPENAI_API_KEY",
	"openai-reasoning": "OPENAI_API_KEY",
	"gpt-reasoning":    "OPENAI_API_KEY",
	"anthropic":        "ANTHROPIC_API_KEY",
	"claude":           "ANTHROPIC_API_KEY",
	"groq":             "GROQ_API_KEY",
	"deepseek":         "DEEPSEEK_API_KEY",
}

// LoadModels reads the model table from a JSON file and fills in each
// record's API key from the environment. A record whose provider has no
// key set is returned disabled rather than rejected, so one missing key
// doesn't take down the rest of the table.
func LoadModels(path string) ([]llm.ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model config: %w", err)
	}

	var models []llm.ModelConfig
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("failed to parse model config: %w", err)
	}

	for i := range models {
		envVar, ok := apiKeyEnv[models[i].Provider]
		if !ok {
			return nil, fmt.Errorf("model %s: unknown provider %q", models[i].Slug, models[i].Provider)
		}
		key := os.Getenv(envVar)
		if key == "" {
			models[i].Enabled = false
			continue
		}
		models[i].APIKey = key
	}
	return models, nil
}

// BuildRegistry loads the model table and registers every record.
func BuildRegistry(path string) (*llm.Registry, error) {
	models, err := LoadModels(path)
	if err != nil {
		return nil, err
	}

	registry := llm.NewRegistry()
	for _, model := range models {
		if err := registry.Register(model); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
