package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// VaultConfig configures the HashiCorp Vault backend (KV v2). All girder
// secrets live under a single path; the key selects the field.
type VaultConfig struct {
	Address   string
	Token     string
	Mount     string // secrets engine mount, default "secret"
	Path      string // path under the mount, default "girder"
	Timeout   time.Duration
}

// VaultProvider resolves secrets from a Vault KV v2 engine.
type VaultProvider struct {
	cfg    VaultConfig
	client *http.Client
}

func NewVaultProvider(cfg *VaultConfig) (*VaultProvider, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, fmt.Errorf("vault address required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("vault token required")
	}

	c := *cfg
	if c.Mount == "" {
		c.Mount = "secret"
	}
	if c.Path == "" {
		c.Path = "girder"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}

	return &VaultProvider{
		cfg:    c,
		client: &http.Client{Timeout: c.Timeout},
	}, nil
}

func (p *VaultProvider) Name() string { return "vault" }

func (p *VaultProvider) Get(ctx context.Context, key string) (string, error) {
	url := fmt.Sprintf("%s/v1/%s/data/%s",
		strings.TrimSuffix(p.cfg.Address, "/"), p.cfg.Mount, p.cfg.Path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Vault-Token", p.cfg.Token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vault: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vault %s: status %d: %s", p.cfg.Path, resp.StatusCode, body)
	}

	var payload struct {
		Data struct {
			Data map[string]any `json:"data"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("vault response: %w", err)
	}

	val, ok := payload.Data.Data[key]
	if !ok {
		return "", fmt.Errorf("key %s not at vault path %s", key, p.cfg.Path)
	}
	if s, ok := val.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", val), nil
}
