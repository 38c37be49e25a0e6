// Model registry - resolves model records into ready-to-use providers.
//
// Information Hiding:
// - Slug-to-provider lookup
// - One-time kind resolution at registration
// - Listing order (rank) and enabled filtering

package llm

import (
	"fmt"
	"sort"
)

// Model is a registered model: its record, resolved kind, and the
// provider built for it.
type Model struct {
	Config   ModelConfig
	Kind     Kind
	Provider Provider
}

// ModelInfo is the client-visible listing entry for a model.
type ModelInfo struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	AcceptImage bool   `json:"accept_image"`
	IsPremium   bool   `json:"is_premium"`
	Rank        int    `json:"rank"`
	Icon        string `json:"icon,omitempty"`
}

// Registry holds the registered models. Registration happens once at
// startup; lookups afterwards are read-only.
type Registry struct {
	models map[string]*Model
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Register resolves a model record's provider kind, builds its client,
// and adds it under its slug. A record with an unknown provider or a
// duplicate slug is rejected.
func (r *Registry) Register(cfg ModelConfig) error {
	if cfg.Slug == "" {
		return fmt.Errorf("model %q has no slug", cfg.Name)
	}
	if _, exists := r.models[cfg.Slug]; exists {
		return fmt.Errorf("duplicate model slug: %s", cfg.Slug)
	}

	kind, err := ParseKind(cfg.Provider)
	if err != nil {
		return fmt.Errorf("model %s: %w", cfg.Slug, err)
	}
	provider, err := NewProvider(kind, cfg)
	if err != nil {
		return fmt.Errorf("model %s: %w", cfg.Slug, err)
	}

	r.models[cfg.Slug] = &Model{Config: cfg, Kind: kind, Provider: provider}
	return nil
}

// RegisterModel adds a prebuilt model under its slug, bypassing provider
// construction. Use this to wire custom Provider implementations.
func (r *Registry) RegisterModel(m *Model) error {
	if m.Config.Slug == "" {
		return fmt.Errorf("model %q has no slug", m.Config.Name)
	}
	if _, exists := r.models[m.Config.Slug]; exists {
		return fmt.Errorf("duplicate model slug: %s", m.Config.Slug)
	}
	r.models[m.Config.Slug] = m
	return nil
}

// Get returns the model registered under slug.
func (r *Registry) Get(slug string) (*Model, bool) {
	m, ok := r.models[slug]
	return m, ok
}

// List returns the enabled models sorted by rank.
func (r *Registry) List() []ModelInfo {
	var infos []ModelInfo
	for _, m := range r.models {
		if !m.Config.Enabled {
			continue
		}
		infos = append(infos, ModelInfo{
			Name:        m.Config.Name,
			Slug:        m.Config.Slug,
			AcceptImage: m.Config.AcceptImage,
			IsPremium:   m.Config.IsPremium,
			Rank:        m.Config.Rank,
			Icon:        m.Config.Icon,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Rank < infos[j].Rank })
	return infos
}
