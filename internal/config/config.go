// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/finance-insights/internal/gateway"
)

// Store backends.
const (
	StoreSQLite    = "sqlite"
	StoreBigQuery  = "bigquery"
	StoreFirestore = "firestore"
)

// Auth modes.
const (
	AuthFirebase = "firebase"
	AuthHeader   = "header"
)

// Config holds the process settings read from the environment by Load.
type Config struct {
	Port string

	StoreBackend     string
	SQLitePath       string
	GCPProject       string
	BQDataset        string
	FirestoreProject string
	CredentialsFile  string

	ReportsBucket string
	AuthMode      string

	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	OllamaURL    string
	OllamaModel  string
	LLMTimeout   time.Duration

	InsightsConfig string

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from environment variables, applying defaults.
func Load() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("LLM_TIMEOUT", gateway.DefaultTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("config: LLM_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		StoreBackend:     getEnv("STORE_BACKEND", StoreSQLite),
		SQLitePath:       getEnv("SQLITE_PATH", "./finance-insights.db"),
		GCPProject:       os.Getenv("GCP_PROJECT"),
		BQDataset:        getEnv("BQ_DATASET", "finance"),
		FirestoreProject: os.Getenv("FIRESTORE_PROJECT"),
		CredentialsFile:  os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		ReportsBucket:    os.Getenv("REPORTS_BUCKET"),
		AuthMode:         getEnv("AUTH_MODE", AuthHeader),
		LLMProvider:      getEnv("LLM_PROVIDER", gateway.ProviderNone),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", gateway.DefaultGeminiModel),
		OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:      getEnv("OLLAMA_MODEL", gateway.DefaultOllamaModel),
		LLMTimeout:       timeout,
		InsightsConfig:   os.Getenv("INSIGHTS_CONFIG"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
	}
	if cfg.FirestoreProject == "" {
		cfg.FirestoreProject = cfg.GCPProject
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("config: SQLITE_PATH is required for the sqlite store")
		}
	case StoreBigQuery:
		if c.GCPProject == "" || c.BQDataset == "" {
			return fmt.Errorf("config: GCP_PROJECT and BQ_DATASET are required for the bigquery store")
		}
	case StoreFirestore:
		if c.FirestoreProject == "" {
			return fmt.Errorf("config: FIRESTORE_PROJECT or GCP_PROJECT is required for the firestore store")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.AuthMode {
	case AuthHeader:
	case AuthFirebase:
		if c.FirestoreProject == "" {
			return fmt.Errorf("config: FIRESTORE_PROJECT or GCP_PROJECT is required for firebase auth")
		}
	default:
		return fmt.Errorf("config: unknown AUTH_MODE %q", c.AuthMode)
	}

	switch c.LLMProvider {
	case gateway.ProviderNone, gateway.ProviderGemini, gateway.ProviderOllama:
	default:
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.LLMTimeout <= 0 {
		return fmt.Errorf("config: LLM_TIMEOUT must be positive")
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("config: unknown LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// Provider returns the gateway provider settings.
func (c *Config) Provider() gateway.ProviderConfig {
	return gateway.ProviderConfig{
		Provider:     c.LLMProvider,
		GeminiAPIKey: c.GeminiAPIKey,
		GeminiModel:  c.GeminiModel,
		OllamaURL:    c.OllamaURL,
		OllamaModel:  c.OllamaModel,
		Timeout:      c.LLMTimeout,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
