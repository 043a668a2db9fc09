package secrets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvProvider(t *testing.T) {
	t.Setenv("GIRDER_GRAPH_PASSWORD", "hunter2")

	p := NewEnvProvider("")
	val, err := p.Get(context.Background(), "graph_password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "hunter2" {
		t.Fatalf("got %q", val)
	}
}

func TestEnvProvider_UnprefixedFallback(t *testing.T) {
	t.Setenv("GRAPH_PASSWORD", "plain")

	p := NewEnvProvider("")
	val, err := p.Get(context.Background(), "graph_password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "plain" {
		t.Fatalf("got %q", val)
	}
}

func TestEnvProvider_Missing(t *testing.T) {
	p := NewEnvProvider("GIRDERTEST_")
	if _, err := p.Get(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unset variable")
	}
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	content, _ := json.Marshal(map[string]string{"graph_password": "filepass"})
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write secrets: %v", err)
	}

	p, err := NewFileProvider(&FileConfig{Path: path})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	val, err := p.Get(context.Background(), "graph_password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "filepass" {
		t.Fatalf("got %q", val)
	}

	if _, err := p.Get(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestFileProvider_BadConfig(t *testing.T) {
	if _, err := NewFileProvider(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := NewFileProvider(&FileConfig{Path: "/nonexistent/secrets.json"}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestVaultProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != "test-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path != "/v1/secret/data/girder" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data": map[string]any{"graph_password": "vaultpass"},
			},
		})
	}))
	defer srv.Close()

	p, err := NewVaultProvider(&VaultConfig{Address: srv.URL, Token: "test-token"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	val, err := p.Get(context.Background(), "graph_password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "vaultpass" {
		t.Fatalf("got %q", val)
	}

	if _, err := p.Get(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestVaultProvider_BadConfig(t *testing.T) {
	if _, err := NewVaultProvider(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := NewVaultProvider(&VaultConfig{Address: "http://localhost:8200"}); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestResolver_FallsBackToEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write secrets: %v", err)
	}
	t.Setenv("GIRDER_TEMPORAL_TOKEN", "from-env")

	r, err := NewResolver(&Config{Provider: "file", File: &FileConfig{Path: path}})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	val, err := r.Get(context.Background(), "temporal_token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "from-env" {
		t.Fatalf("got %q", val)
	}
}

func TestResolver_Caches(t *testing.T) {
	t.Setenv("GIRDER_GRAPH_PASSWORD", "first")

	r, err := NewResolver(nil)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	if got, _ := r.Get(context.Background(), "graph_password"); got != "first" {
		t.Fatalf("got %q", got)
	}

	// A later env change must not affect a resolved value.
	t.Setenv("GIRDER_GRAPH_PASSWORD", "second")
	if got, _ := r.Get(context.Background(), "graph_password"); got != "first" {
		t.Fatalf("cache miss: got %q", got)
	}
}

func TestResolver_GetOrDefault(t *testing.T) {
	r, err := NewResolver(&Config{EnvPrefix: "GIRDERTEST_"})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	if got := r.GetOrDefault(context.Background(), "graph_username", "neo4j"); got != "neo4j" {
		t.Fatalf("got %q", got)
	}
}

func TestResolver_UnknownProvider(t *testing.T) {
	if _, err := NewResolver(&Config{Provider: "consul"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
