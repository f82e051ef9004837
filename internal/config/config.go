package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Keys looked up at runtime by the rate resolver and the notifier.
const (
	KeyCurrencyAPIURL = "currency_api_url"
	KeyDiscordWebhook = "discord_webhook"
)

// ErrMissingConfig is returned when a required key has no value.
var ErrMissingConfig = errors.New("missing configuration")

// Provider looks up process-wide configuration values.
// The boolean is false when the key is not defined.
type Provider interface {
	Lookup(key string) (string, bool)
}

// EnvProvider reads configuration from environment variables. A key such as
// "currency_api_url" maps to CURRENCY_API_URL, optionally prefixed.
type EnvProvider struct {
	Prefix string
}

// NewEnvProvider loads any .env files (missing files are ignored) and returns
// a provider over the process environment.
func NewEnvProvider(prefix string, envFiles ...string) *EnvProvider {
	_ = godotenv.Load(envFiles...)
	return &EnvProvider{Prefix: prefix}
}

// Lookup implements Provider. Empty values count as undefined.
func (p *EnvProvider) Lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(p.envName(key))
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func (p *EnvProvider) envName(key string) string {
	return p.Prefix + strings.ToUpper(key)
}

// MapProvider is an in-memory Provider, mostly for tests.
type MapProvider map[string]string

// Lookup implements Provider.
func (m MapProvider) Lookup(key string) (string, bool) {
	v, ok := m[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Require returns the value of key or an error wrapping ErrMissingConfig.
func Require(p Provider, key string) (string, error) {
	v, ok := p.Lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingConfig, key)
	}
	return v, nil
}

// Get returns the value of key or def when it is undefined.
func Get(p Provider, key, def string) string {
	if v, ok := p.Lookup(key); ok {
		return v
	}
	return def
}
