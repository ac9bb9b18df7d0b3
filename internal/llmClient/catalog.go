package llmclient

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ClientFactory builds a SessionClient for a model name.
type ClientFactory func(ctx context.Context, model string) (SessionClient, error)

// RateLimitConfig is the default request budget of a provider.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type ProviderRegistration struct {
	Provider     string
	DefaultModel string
	RateLimit    *RateLimitConfig
	Factory      ClientFactory
}

// Catalog maps provider names to factories.
type Catalog struct {
	mu        sync.RWMutex
	providers map[string]ProviderRegistration
}

func NewCatalog() *Catalog {
	return &Catalog{providers: map[string]ProviderRegistration{}}
}

func (c *Catalog) Register(reg ProviderRegistration) error {
	name := strings.ToLower(strings.TrimSpace(reg.Provider))
	if name == "" || reg.Factory == nil {
		return fmt.Errorf("llm catalog: provider name and factory are required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.providers[name]; ok {
		return fmt.Errorf("llm catalog: provider %q already registered", name)
	}
	reg.Provider = name
	c.providers[name] = reg
	return nil
}

func (c *Catalog) Lookup(provider string) (ProviderRegistration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, ok := c.providers[strings.ToLower(strings.TrimSpace(provider))]
	return reg, ok
}

// Providers returns the registered names, sorted.
func (c *Catalog) Providers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.providers))
	for name := range c.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Open builds a client for provider. An empty model selects the provider default.
func (c *Catalog) Open(ctx context.Context, provider, model string) (SessionClient, ProviderRegistration, error) {
	reg, ok := c.Lookup(provider)
	if !ok {
		return nil, ProviderRegistration{}, NewPermanentError(fmt.Errorf("%w: %q (known: %s)", ErrUnknownProvider, provider, strings.Join(c.Providers(), ", ")))
	}
	if model == "" {
		model = reg.DefaultModel
	}
	cli, err := reg.Factory(ctx, model)
	if err != nil {
		return nil, reg, err
	}
	return cli, reg, nil
}

// Credentials for the built-in providers.
type Credentials struct {
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// DefaultCatalog registers gemini, openai and fake.
func DefaultCatalog(creds Credentials) *Catalog {
	c := NewCatalog()
	_ = c.Register(ProviderRegistration{
		Provider:     "gemini",
		DefaultModel: "gemini-2.5-flash",
		RateLimit:    &RateLimitConfig{RPS: 0.25, Burst: 1},
		Factory: func(ctx context.Context, model string) (SessionClient, error) {
			return NewGeminiClient(ctx, creds.GeminiAPIKey, model)
		},
	})
	_ = c.Register(ProviderRegistration{
		Provider:     "openai",
		DefaultModel: "gpt-4o-mini",
		RateLimit:    &RateLimitConfig{RPS: 1, Burst: 1},
		Factory: func(ctx context.Context, model string) (SessionClient, error) {
			return NewOpenAIClient(creds.OpenAIAPIKey, creds.OpenAIBaseURL, model)
		},
	})
	_ = c.Register(ProviderRegistration{
		Provider:     "fake",
		DefaultModel: "fake",
		Factory: func(ctx context.Context, model string) (SessionClient, error) {
			return NewFakeClient(0, 0), nil
		},
	})
	return c
}
