// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like GENAI_BASE_URL
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored if not found
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Printf("Loaded .env from: %s\n", path)
				return
			}
		}
	}

	fmt.Printf(".env file not found in any location, using system environment variables\n")
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Expand ${VAR} placeholders in string values
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bankgpt-assistant"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 20
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Directory.Source == "" {
		cfg.Directory.Source = "static"
	}
	if cfg.Directory.SeedPath == "" {
		cfg.Directory.SeedPath = "data/applicants.json"
	}
	if cfg.Directory.CacheTTL == 0 {
		cfg.Directory.CacheTTL = 600
	}
	if cfg.GenAI.Timeout == 0 {
		cfg.GenAI.Timeout = 30000
	}
	if cfg.GenAI.MaxRetries == 0 {
		cfg.GenAI.MaxRetries = 2
	}
	if cfg.GenAI.MaxTokens == 0 {
		cfg.GenAI.MaxTokens = 300
	}
	if cfg.GenAI.Temperature == 0 {
		cfg.GenAI.Temperature = 0.7
	}
	if cfg.Conversation.HistoryWindow == 0 {
		cfg.Conversation.HistoryWindow = 6
	}
	if cfg.Conversation.SessionTTL == 0 {
		cfg.Conversation.SessionTTL = 1800
	}
	if cfg.Conversation.InterestRate == 0 {
		cfg.Conversation.InterestRate = 11.0
	}
	if cfg.Conversation.TenureMonths == 0 {
		cfg.Conversation.TenureMonths = 60
	}
	if cfg.Conversation.MinReplyLength == 0 {
		cfg.Conversation.MinReplyLength = 5
	}
	if cfg.Audit.Index == "" {
		cfg.Audit.Index = "loan-conversation-audit"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.GenAI.BaseURL == "" {
		if val := os.Getenv("GENAI_BASE_URL"); val != "" {
			cfg.GenAI.BaseURL = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}

	if cfg.Notifications.SenderEmail == "" {
		if val := os.Getenv("NOTIFICATION_SENDER_EMAIL"); val != "" {
			cfg.Notifications.SenderEmail = val
		}
	}
	if cfg.Notifications.AWSRegion == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Notifications.AWSRegion = val
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Directory.Source != "static" && cfg.Directory.Source != "postgres" {
		return fmt.Errorf("directory.source must be 'static' or 'postgres', got %q", cfg.Directory.Source)
	}
	if cfg.Directory.Source == "postgres" && cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required when directory.source is 'postgres'")
	}
	if cfg.Conversation.HistoryWindow < 1 {
		return fmt.Errorf("conversation.history_window must be positive")
	}
	if cfg.Notifications.Enabled && cfg.Notifications.SenderEmail == "" {
		return fmt.Errorf("notifications.sender_email is required when notifications are enabled")
	}
	return nil
}
