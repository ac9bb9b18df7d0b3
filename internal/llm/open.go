package llm

import (
	"context"
	"log"
	"os"
	"strings"

	llmclient "sitegen/internal/llmClient"
)

// Open builds the provider's client from cat and wraps it with logging and
// rate limiting. <PROVIDER>_RPS / LLM_RPS override the provider default.
func Open(ctx context.Context, cat *llmclient.Catalog, provider, model string, logger *log.Logger) (llmclient.SessionClient, error) {
	cli, reg, err := cat.Open(ctx, provider, model)
	if err != nil {
		return nil, err
	}
	prefixes := []string{"LLM", strings.ToUpper(reg.Provider)}

	limit := RateLimitFromEnv(prefixes...)
	if !rateLimitInEnv(prefixes) && reg.RateLimit != nil {
		limit = RateLimit(reg.RateLimit.RPS, reg.RateLimit.Burst)
	}
	mws := []Middleware{limit}
	if logger != nil {
		mws = append([]Middleware{WithLogging(logger)}, mws...)
	}
	return Wrap(cli, mws...), nil
}

func rateLimitInEnv(prefixes []string) bool {
	for _, p := range prefixes {
		if os.Getenv(p+"_RPS") != "" {
			return true
		}
	}
	return false
}
