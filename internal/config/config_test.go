package config

import (
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/gateway"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_BACKEND", "SQLITE_PATH", "GCP_PROJECT", "FIRESTORE_PROJECT",
		"AUTH_MODE", "LLM_PROVIDER", "LLM_TIMEOUT", "LOG_FORMAT", "REPORTS_BUCKET"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" || cfg.StoreBackend != StoreSQLite || cfg.AuthMode != AuthHeader {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.LLMProvider != gateway.ProviderNone || cfg.LLMTimeout != gateway.DefaultTimeout {
		t.Errorf("unexpected provider defaults: %s %s", cfg.LLMProvider, cfg.LLMTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "bigquery")
	t.Setenv("GCP_PROJECT", "proj")
	t.Setenv("FIRESTORE_PROJECT", "")
	t.Setenv("AUTH_MODE", "firebase")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LLM_TIMEOUT", "3s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FirestoreProject != "proj" {
		t.Errorf("FirestoreProject = %q, want fallback to GCP_PROJECT", cfg.FirestoreProject)
	}
	p := cfg.Provider()
	if p.Provider != gateway.ProviderOllama || p.Timeout != 3*time.Second {
		t.Errorf("Provider() = %+v", p)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			StoreBackend: StoreSQLite,
			SQLitePath:   "x.db",
			AuthMode:     AuthHeader,
			LLMProvider:  gateway.ProviderNone,
			LLMTimeout:   time.Second,
			LogFormat:    "console",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.StoreBackend = "postgres" }},
		{"bigquery without project", func(c *Config) { c.StoreBackend = StoreBigQuery }},
		{"firestore without project", func(c *Config) { c.StoreBackend = StoreFirestore }},
		{"firebase auth without project", func(c *Config) { c.AuthMode = AuthFirebase }},
		{"unknown auth", func(c *Config) { c.AuthMode = "basic" }},
		{"unknown provider", func(c *Config) { c.LLMProvider = "gpt" }},
		{"zero timeout", func(c *Config) { c.LLMTimeout = 0 }},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }},
	}

	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("Validate() on valid config = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() expected error")
			}
		})
	}

	t.Run("bad timeout env", func(t *testing.T) {
		t.Setenv("LLM_TIMEOUT", "soon")
		if _, err := Load(); err == nil {
			t.Error("Load() expected error")
		}
	})
}
