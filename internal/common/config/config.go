// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Directory     DirectoryConfig    `mapstructure:"directory"`
	GenAI         GenAIConfig        `mapstructure:"genai"`
	Conversation  ConversationConfig `mapstructure:"conversation"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Audit         AuditConfig        `mapstructure:"audit"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Specific Configuration Sections ---

// DirectoryConfig selects and tunes the applicant directory backend.
type DirectoryConfig struct {
	Source   string `mapstructure:"source"`    // "postgres" or "static"
	SeedPath string `mapstructure:"seed_path"` // JSON seed for the static backend
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds; applicant record cache
}

// GenAIConfig holds settings for the external reply-generation service.
type GenAIConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// ConversationConfig tunes the stage machine surface.
type ConversationConfig struct {
	HistoryWindow  int     `mapstructure:"history_window"` // messages of context per turn
	SessionTTL     int     `mapstructure:"session_ttl"`    // seconds; redis session expiry
	InterestRate   float64 `mapstructure:"interest_rate"`  // annual %, for EMI quotes
	TenureMonths   int     `mapstructure:"tenure_months"`
	MinReplyLength int     `mapstructure:"min_reply_length"`
}

type NotificationConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	AWSRegion   string `mapstructure:"aws_region"`
	SenderEmail string `mapstructure:"sender_email"`
	SMSEnabled  bool   `mapstructure:"sms_enabled"`
}

type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
