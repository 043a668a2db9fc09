// Package secrets resolves credentials from environment variables, a local
// JSON file, or HashiCorp Vault. Resolution is read-only; secrets are
// provisioned out of band.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// SecretKey identifies the credentials the binaries resolve.
type SecretKey string

const (
	SecretGraphUsername SecretKey = "graph_username"
	SecretGraphPassword SecretKey = "graph_password"
	SecretTemporalToken SecretKey = "temporal_token"
)

// Provider resolves one secret by key.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Name() string
}

// Config selects the backend. Provider is "env", "file", or "vault";
// empty means env.
type Config struct {
	Provider string
	File     *FileConfig
	Vault    *VaultConfig

	// EnvPrefix applies to the env backend and the env fallback.
	// Defaults to "GIRDER_".
	EnvPrefix string
}

// Resolver resolves secrets from a primary backend, falling back to the
// environment. Resolved values are cached for the process lifetime.
type Resolver struct {
	primary  Provider
	fallback *EnvProvider

	mu    sync.RWMutex
	cache map[string]string
}

// NewResolver creates a resolver for the configured backend.
func NewResolver(cfg *Config) (*Resolver, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	var primary Provider
	switch cfg.Provider {
	case "", "env":
		primary = NewEnvProvider(cfg.EnvPrefix)
	case "file":
		p, err := NewFileProvider(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("file secrets: %w", err)
		}
		primary = p
	case "vault":
		p, err := NewVaultProvider(cfg.Vault)
		if err != nil {
			return nil, fmt.Errorf("vault secrets: %w", err)
		}
		primary = p
	default:
		return nil, fmt.Errorf("unknown secrets provider %q", cfg.Provider)
	}

	return &Resolver{
		primary:  primary,
		fallback: NewEnvProvider(cfg.EnvPrefix),
		cache:    make(map[string]string),
	}, nil
}

// Get resolves a secret, trying the primary backend then the environment.
func (r *Resolver) Get(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	val, err := r.primary.Get(ctx, key)
	if err != nil || val == "" {
		val, err = r.fallback.Get(ctx, key)
	}
	if err != nil {
		return "", fmt.Errorf("secret %s: not found in %s or environment", key, r.primary.Name())
	}

	r.mu.Lock()
	r.cache[key] = val
	r.mu.Unlock()
	return val, nil
}

// GetOrDefault resolves a secret, returning def when it is absent.
func (r *Resolver) GetOrDefault(ctx context.Context, key, def string) string {
	val, err := r.Get(ctx, key)
	if err != nil || val == "" {
		return def
	}
	return val
}

// MustGet resolves a secret or panics.
func (r *Resolver) MustGet(ctx context.Context, key string) string {
	val, err := r.Get(ctx, key)
	if err != nil {
		panic(err.Error())
	}
	return val
}

// EnvProvider resolves secrets from environment variables. The key
// "graph_password" resolves from GIRDER_GRAPH_PASSWORD, then
// GRAPH_PASSWORD.
type EnvProvider struct {
	prefix string
}

func NewEnvProvider(prefix string) *EnvProvider {
	if prefix == "" {
		prefix = "GIRDER_"
	}
	return &EnvProvider{prefix: prefix}
}

func (p *EnvProvider) Name() string { return "env" }

func (p *EnvProvider) Get(ctx context.Context, key string) (string, error) {
	name := strings.ToUpper(key)
	if val := os.Getenv(p.prefix + name); val != "" {
		return val, nil
	}
	if val := os.Getenv(name); val != "" {
		return val, nil
	}
	return "", fmt.Errorf("env var %s%s not set", p.prefix, name)
}

var (
	global     *Resolver
	globalOnce sync.Once
)

// Init configures the package-level resolver. Without Init, the package
// helpers resolve from the environment.
func Init(cfg *Config) error {
	var err error
	globalOnce.Do(func() {
		global, err = NewResolver(cfg)
	})
	return err
}

func resolver() *Resolver {
	globalOnce.Do(func() {
		global, _ = NewResolver(nil)
	})
	return global
}

// Get resolves a secret with the package-level resolver.
func Get(ctx context.Context, key string) (string, error) {
	return resolver().Get(ctx, key)
}

// GetOrDefault resolves a secret with the package-level resolver.
func GetOrDefault(ctx context.Context, key, def string) string {
	return resolver().GetOrDefault(ctx, key, def)
}

// MustGet resolves a secret with the package-level resolver or panics.
func MustGet(ctx context.Context, key string) string {
	return resolver().MustGet(ctx, key)
}
