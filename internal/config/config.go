// Package config loads and holds all gateway configuration.
// Settings are layered: defaults → gateway-config.json → environment variables (env vars win).
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// Config holds the full gateway configuration.
type Config struct {
	GatewayPort    int    `json:"gatewayPort"`
	ManagementPort int    `json:"managementPort"`
	BindAddress    string `json:"bindAddress"`
	LogLevel       string `json:"logLevel"`

	Provider        string `json:"provider"`        // "openai" or "azure"
	ProviderBaseURL string `json:"providerBaseUrl"` // upstream chat-completions base URL
	ProviderAPIKey  string `json:"providerApiKey"`
	DefaultModel    string `json:"defaultModel"`

	PIIDetectionEnabled bool     `json:"piiDetectionEnabled"`
	DisabledPIITypes    []string `json:"disabledPiiTypes"`

	PolicyFile      string `json:"policyFile"`      // path to the YAML policy document
	EnforcementMode string `json:"enforcementMode"` // "enforce", "warn", or "log_only"

	AuditStoreURL     string `json:"auditStoreUrl"`     // base URL of the audit read/write service
	AuditTimeoutMS    int    `json:"auditTimeoutMs"`
	LogRetentionDays  int    `json:"logRetentionDays"`

	DatabaseURL string `json:"databaseUrl"` // postgres DSN, used directly by cmd/auditsvc

	AlertWebhookURL  string `json:"alertWebhookUrl"`
	AlertEmailFrom   string `json:"alertEmailFrom"`
	AlertEmailTo     []string `json:"alertEmailTo"`
	SMTPHost         string `json:"smtpHost"`
	SMTPPort         int    `json:"smtpPort"`
	SMTPUsername     string `json:"smtpUsername"`
	SMTPPassword     string `json:"smtpPassword"`

	ManagementToken string `json:"managementToken"`

	TrendBucket string `json:"trendBucket"` // "utc" or an IANA zone name
}

// Load returns config with defaults overridden by gateway-config.json and env vars.
func Load() *Config {
	cfg := defaults()
	loadFile(cfg, "gateway-config.json")
	loadEnv(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		GatewayPort:         8080,
		ManagementPort:      8081,
		BindAddress:         "0.0.0.0",
		LogLevel:            "info",
		Provider:            "openai",
		ProviderBaseURL:     "https://api.openai.com/v1",
		DefaultModel:        "gpt-4o",
		PIIDetectionEnabled: true,
		PolicyFile:          "policy.yaml",
		EnforcementMode:     "enforce",
		AuditStoreURL:       "http://localhost:8090",
		AuditTimeoutMS:      5000,
		LogRetentionDays:    90,
		DatabaseURL:         "postgres://localhost:5432/compliance?sslmode=disable",
		SMTPPort:            587,
		TrendBucket:         "utc",
	}
}

func loadFile(cfg *Config, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // G703: path is a controlled config file path, not user input
	if err != nil {
		return // file is optional
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("[CONFIG] Warning: could not parse %s: %v", path, err)
	} else {
		log.Printf("[CONFIG] Loaded %s", path)
	}
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("GATEWAY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GatewayPort = n
		}
	}
	if v := os.Getenv("MANAGEMENT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ManagementPort = n
		}
	}
	if v := os.Getenv("BIND_ADDRESS"); v != "" {
		cfg.BindAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("PROVIDER_BASE_URL"); v != "" {
		cfg.ProviderBaseURL = v
	}
	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		cfg.ProviderAPIKey = v
	}
	if v := os.Getenv("DEFAULT_MODEL"); v != "" {
		cfg.DefaultModel = v
	}
	if v := os.Getenv("PII_DETECTION_ENABLED"); v == "false" {
		cfg.PIIDetectionEnabled = false
	}
	if v := os.Getenv("POLICY_FILE"); v != "" {
		cfg.PolicyFile = v
	}
	if v := os.Getenv("ENFORCEMENT_MODE"); v != "" {
		cfg.EnforcementMode = v
	}
	if v := os.Getenv("AUDIT_STORE_URL"); v != "" {
		cfg.AuditStoreURL = v
	}
	if v := os.Getenv("AUDIT_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AuditTimeoutMS = n
		}
	}
	if v := os.Getenv("LOG_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LogRetentionDays = n
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		cfg.AlertWebhookURL = v
	}
	if v := os.Getenv("ALERT_EMAIL_FROM"); v != "" {
		cfg.AlertEmailFrom = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SMTPPort = n
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.SMTPUsername = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTPPassword = v
	}
	if v := os.Getenv("MANAGEMENT_TOKEN"); v != "" {
		cfg.ManagementToken = v
	}
	if v := os.Getenv("TREND_BUCKET"); v != "" {
		cfg.TrendBucket = v
	}
}
