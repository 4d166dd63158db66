package rest

import (
	"krakenkit/internal/ratelimit"
	"krakenkit/pkg/core"
)

// RateLimitedClient is a Client that waits on the account's rate limits before
// every call. Only the admission step is serialised; requests themselves run
// concurrently.
type RateLimitedClient struct {
	*Client
	limiter *ratelimit.RateLimiter
}

// NewRateLimitedClient creates a client limited for config.Tier. opts may
// include WithRateLimiter to share one limiter between several clients of the
// same account.
func NewRateLimitedClient(config *core.Config, opts ...Option) (*RateLimitedClient, error) {
	if config == nil {
		config = core.DefaultConfig()
	}
	defaults := []Option{WithRateLimiter(ratelimit.New(config.Tier))}
	client, err := NewClient(config, append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}
	return &RateLimitedClient{Client: client, limiter: client.limiter}, nil
}

// Limiter returns the limiter shared by every call of this client.
func (c *RateLimitedClient) Limiter() *ratelimit.RateLimiter { return c.limiter }
