package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/notedex/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestSearchConfig_Backends(t *testing.T) {
	for _, backend := range []string{"", "meilisearch", "Meili", "elasticsearch", "elastic"} {
		cfg := SearchConfig{Backend: backend}
		if err := cfg.Validate(); err != nil {
			t.Errorf("backend %q: %v", backend, err)
		}
	}
	cfg := SearchConfig{Backend: "solr"}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown backend should fail validation")
	}
}

func TestSearchConfig_NegativeTimeout(t *testing.T) {
	cfg := SearchConfig{Timeout: -time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("negative timeout should fail validation")
	}
}

func TestIngestConfig_WatchNeedsPatterns(t *testing.T) {
	cfg := IngestConfig{Watch: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("watch without patterns should fail")
	}
	cfg.Patterns = []string{"~/notes"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("watch with patterns should pass: %v", err)
	}
}

func TestIngestConfig_NegativeWorkers(t *testing.T) {
	cfg := IngestConfig{Workers: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("negative workers should fail validation")
	}
}

func TestLoadTOMLConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notedex.toml")
	content := `[app]
log_level = "debug"

[app.http]
port = 9090

[search]
backend = "elasticsearch"
url = "http://es:9200"
timeout = "3s"

[ingest]
workers = 2
exclude = ["drafts/"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9090 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Search.Backend != "elasticsearch" || cfg.Search.Timeout != 3*time.Second {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Ingest.Workers != 2 || len(cfg.Ingest.Exclude) != 1 || !cfg.Ingest.ChangedOnly {
		t.Errorf("ingest = %+v", cfg.Ingest)
	}
	if cfg.Search.Index != "notes" {
		t.Errorf("default index lost: %q", cfg.Search.Index)
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	t.Setenv("NOTEDEX_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "notedex.yaml")
	content := "search:\n  timeout: 5s\nauth:\n  mode: token\n  token: ${NOTEDEX_TOKEN}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatal(err)
	}
	if !cfg.Auth.AuthEnabled() || cfg.Auth.Token != "s3cret" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if cfg.Search.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Search.Timeout)
	}
}
