package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"krakenkit/pkg/core"
)

// Secrets is an API key pair. Formatting, JSON encoding and zerolog output all
// redact it; use the fields directly only when signing.
type Secrets struct {
	Key    string
	Secret string
}

func (s Secrets) String() string {
	return fmt.Sprintf("Secrets{Key:%s, Secret:****}", maskKey(s.Key))
}

func (s Secrets) GoString() string {
	return s.String()
}

// MarshalJSON never emits the key pair.
func (s Secrets) MarshalJSON() ([]byte, error) {
	return []byte(`{"key":"` + maskKey(s.Key) + `","secret":"****"}`), nil
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (s Secrets) MarshalZerologObject(e *zerolog.Event) {
	e.Str("key", maskKey(s.Key)).Str("secret", "****")
}

// Equal compares two key pairs in constant time.
func (s Secrets) Equal(other Secrets) bool {
	keyEq := subtle.ConstantTimeCompare([]byte(s.Key), []byte(other.Key))
	secretEq := subtle.ConstantTimeCompare([]byte(s.Secret), []byte(other.Secret))
	return keyEq&secretEq == 1
}

// IsZero reports whether both parts are empty.
func (s Secrets) IsZero() bool {
	return s.Key == "" && s.Secret == ""
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// SecretsProvider supplies the API key pair for signed requests.
type SecretsProvider interface {
	Secrets(ctx context.Context) (Secrets, error)
}

// StaticProvider returns a fixed key pair.
type StaticProvider struct {
	secrets Secrets
}

// NewStaticProvider creates a provider for a known key and secret.
func NewStaticProvider(key, secret string) *StaticProvider {
	return &StaticProvider{secrets: Secrets{Key: key, Secret: secret}}
}

func (p *StaticProvider) Secrets(context.Context) (Secrets, error) {
	return p.secrets, nil
}

// EnvProvider reads the key pair from two environment variables the first time
// it is asked and caches the result for its lifetime. A missing or empty
// variable is an error; it never hands out an empty key pair.
type EnvProvider struct {
	keyEnv    string
	secretEnv string
	dotenv    []string
	useDotenv bool
	lookup    func(string) (string, bool)
	logger    zerolog.Logger

	mu     sync.Mutex
	cached *Secrets
}

// EnvOption configures an EnvProvider.
type EnvOption func(*EnvProvider)

// WithDotEnv loads the given files (".env" when none are given) before reading
// the variables. Variables already set in the environment win.
func WithDotEnv(files ...string) EnvOption {
	return func(p *EnvProvider) {
		p.useDotenv = true
		p.dotenv = files
	}
}

// WithLookup replaces os.LookupEnv.
func WithLookup(lookup func(string) (string, bool)) EnvOption {
	return func(p *EnvProvider) {
		p.lookup = lookup
	}
}

// WithLogger sets the logger used to report .env loading.
func WithLogger(logger zerolog.Logger) EnvOption {
	return func(p *EnvProvider) {
		p.logger = logger
	}
}

// NewEnvProvider creates a provider reading keyEnv and secretEnv.
func NewEnvProvider(keyEnv, secretEnv string, opts ...EnvOption) *EnvProvider {
	p := &EnvProvider{
		keyEnv:    keyEnv,
		secretEnv: secretEnv,
		lookup:    os.LookupEnv,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Secrets returns the cached key pair, loading it on first use.
func (p *EnvProvider) Secrets(context.Context) (Secrets, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil {
		return *p.cached, nil
	}

	if p.useDotenv {
		if err := godotenv.Load(p.dotenv...); err != nil {
			p.logger.Debug().Err(err).Msg("no .env file loaded")
		}
	}

	key, ok := p.lookup(p.keyEnv)
	if !ok || key == "" {
		return Secrets{}, fmt.Errorf("%w: %s is required", core.ErrNoCredentials, p.keyEnv)
	}
	secret, ok := p.lookup(p.secretEnv)
	if !ok || secret == "" {
		return Secrets{}, fmt.Errorf("%w: %s is required", core.ErrNoCredentials, p.secretEnv)
	}

	p.cached = &Secrets{Key: key, Secret: secret}
	p.logger.Debug().Object("secrets", *p.cached).Msg("loaded api secrets from environment")
	return *p.cached, nil
}
