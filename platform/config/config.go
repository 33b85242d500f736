// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetWebhookRatePerSecond() float64
	GetWebhookRateBurst() int
}

// WebhookConfig provides settings for the inbound message webhook.
type WebhookConfig interface {
	GetBotNumber() string
}

// GeminiConfig provides settings for the Gemini analysis provider.
type GeminiConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
}

// OrchestratorConfig provides the conversation state-machine policy knobs.
type OrchestratorConfig interface {
	GetAnalysisThreshold() int
	GetAnalysisTimeout() time.Duration
	GetStickyHotLeads() bool
}

// BufferConfig provides settings for the in-memory conversation buffer.
type BufferConfig interface {
	GetConversationTTL() time.Duration
}

// AlertConfig provides settings for hot-lead email alerts.
type AlertConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUser() string
	GetSMTPPassword() string
	GetAlertRecipient() string
	GetAlertFromName() string
	GetAlertsEnabled() bool
}

// SchedulerConfig provides settings for the asynq alert queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env             string
	HTTPAddr        string
	DatabaseURL     string
	JWTAccessSecret string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	WebhookRatePerSecond float64
	WebhookRateBurst     int

	BotNumber string

	GeminiAPIKey      string
	GeminiModel       string
	AnalysisThreshold int
	AnalysisTimeout   time.Duration
	StickyHotLeads    bool
	ConversationTTL   time.Duration

	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	AlertRecipient string
	AlertFromName  string
	AlertsEnabled  bool

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string              { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool            { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string         { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool          { return c.CORSAllowCreds }
func (c *Config) GetWebhookRatePerSecond() float64 { return c.WebhookRatePerSecond }
func (c *Config) GetWebhookRateBurst() int         { return c.WebhookRateBurst }

// WebhookConfig implementation
func (c *Config) GetBotNumber() string { return c.BotNumber }

// GeminiConfig implementation
func (c *Config) GetGeminiAPIKey() string { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string  { return c.GeminiModel }

// OrchestratorConfig implementation
func (c *Config) GetAnalysisThreshold() int          { return c.AnalysisThreshold }
func (c *Config) GetAnalysisTimeout() time.Duration  { return c.AnalysisTimeout }
func (c *Config) GetStickyHotLeads() bool            { return c.StickyHotLeads }

// BufferConfig implementation
func (c *Config) GetConversationTTL() time.Duration { return c.ConversationTTL }

// AlertConfig implementation
func (c *Config) GetSMTPHost() string       { return c.SMTPHost }
func (c *Config) GetSMTPPort() int          { return c.SMTPPort }
func (c *Config) GetSMTPUser() string       { return c.SMTPUser }
func (c *Config) GetSMTPPassword() string   { return c.SMTPPassword }
func (c *Config) GetAlertRecipient() string { return c.AlertRecipient }
func (c *Config) GetAlertFromName() string  { return c.AlertFromName }
func (c *Config) GetAlertsEnabled() bool    { return c.AlertsEnabled }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpUser := getEnv("SMTP_USER", "")
	alertRecipient := getEnv("ALERT_RECIPIENT", "")
	alertsEnabled := strings.EqualFold(getEnv("ALERTS_ENABLED", "true"), "true")

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),

		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),

		WebhookRatePerSecond: mustFloat(getEnv("WEBHOOK_RATE_PER_SECOND", "5")),
		WebhookRateBurst:     mustInt(getEnv("WEBHOOK_RATE_BURST", "10")),

		BotNumber: getEnv("TWILIO_WHATSAPP_NUMBER", "whatsapp:+14155238886"),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		AnalysisThreshold: mustInt(getEnv("ANALYSIS_THRESHOLD", "3")),
		AnalysisTimeout:   mustDuration(getEnv("ANALYSIS_TIMEOUT", "30s")),
		StickyHotLeads:    strings.EqualFold(getEnv("LEAD_STICKY_HOT", "false"), "true"),
		ConversationTTL:   mustDuration(getEnv("CONVERSATION_TTL", "0")),

		SMTPHost:       getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:       mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUser:       smtpUser,
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		AlertRecipient: alertRecipient,
		AlertFromName:  getEnv("ALERT_FROM_NAME", "Education AI Bot"),
		AlertsEnabled:  alertsEnabled && smtpUser != "" && alertRecipient != "",

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.AnalysisThreshold < 1 {
		return nil, fmt.Errorf("ANALYSIS_THRESHOLD must be at least 1")
	}
	if alertsEnabled && smtpUser != "" && alertRecipient == "" {
		return nil, fmt.Errorf("ALERT_RECIPIENT is required when SMTP_USER is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
