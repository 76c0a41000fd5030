package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Reddit struct {
		ClientID     string
		ClientSecret string
		UserAgent    string
		TokenURL     string
		APIBaseURL   string
		Transport    string // "std" or "tls"
		Timeout      time.Duration
	}
	Gemini struct {
		APIKey  string
		Model   string
		BaseURL string
	}
	Database struct {
		Type   string // "memory", "sqlite" or "libsql"
		DBName string
		Url    string
		Token  string
	}
	Fetch struct {
		DefaultLimit int
	}
	Server struct {
		Addr string
	}
}

// DefaultRedditTimeout bounds each Reddit request when reddit.timeout is unset.
const DefaultRedditTimeout = 30 * time.Second

// ConfigError reports required settings that are missing. It is returned
// before any network call is attempted.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// envBindings maps config keys to the environment variable names the
// deployment has always used.
var envBindings = map[string]string{
	"reddit.client_id":     "REDDIT_CLIENT_ID",
	"reddit.client_secret": "REDDIT_CLIENT_SECRET",
	"reddit.user_agent":    "REDDIT_USER_AGENT",
	"reddit.token_url":     "REDDIT_TOKEN_URL",
	"reddit.api_base_url":  "REDDIT_API_BASE_URL",
	"reddit.transport":     "REDDIT_TRANSPORT",
	"reddit.timeout":       "REDDIT_TIMEOUT",
	"gemini.api_key":       "GEMINI_API_KEY",
	"gemini.model":         "GEMINI_MODEL",
	"gemini.base_url":      "GEMINI_BASE_URL",
	"fetch.default_limit":  "FETCH_DEFAULT_LIMIT",
	"database.type":        "DATABASE_TYPE",
	"database.dbname":      "DATABASE_DBNAME",
	"database.url":         "DATABASE_URL",
	"database.token":       "DATABASE_TOKEN",
	"server.addr":          "SERVER_ADDR",
}

// Load reads config.yaml (optional), .env (optional) and the environment.
// It does not validate; callers that talk to Reddit or Gemini call Validate.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	// Read config file (optional - will use env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	// Reddit config
	cfg.Reddit.ClientID = v.GetString("reddit.client_id")
	cfg.Reddit.ClientSecret = v.GetString("reddit.client_secret")
	cfg.Reddit.UserAgent = v.GetString("reddit.user_agent")
	cfg.Reddit.TokenURL = v.GetString("reddit.token_url")
	cfg.Reddit.APIBaseURL = v.GetString("reddit.api_base_url")
	cfg.Reddit.Transport = v.GetString("reddit.transport")
	cfg.Reddit.Timeout = v.GetDuration("reddit.timeout")

	// Gemini config
	cfg.Gemini.APIKey = v.GetString("gemini.api_key")
	cfg.Gemini.Model = v.GetString("gemini.model")
	cfg.Gemini.BaseURL = v.GetString("gemini.base_url")

	// Database config
	cfg.Database.Type = v.GetString("database.type")
	cfg.Database.DBName = v.GetString("database.dbname")
	cfg.Database.Url = v.GetString("database.url")
	cfg.Database.Token = v.GetString("database.token")

	cfg.Fetch.DefaultLimit = v.GetInt("fetch.default_limit")
	cfg.Server.Addr = v.GetString("server.addr")

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("reddit.token_url", "https://www.reddit.com/api/v1/access_token")
	v.SetDefault("reddit.api_base_url", "https://oauth.reddit.com")
	v.SetDefault("reddit.transport", "std")
	v.SetDefault("reddit.timeout", DefaultRedditTimeout)

	v.SetDefault("gemini.model", "models/gemini-1.5-flash-latest")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dbname", "profiler.db")

	v.SetDefault("fetch.default_limit", 500)
	v.SetDefault("server.addr", ":8080")
}

// Validate checks the credentials needed by the fetch and analysis chain.
func (cfg *Config) Validate() error {
	var missing []string
	if cfg.Reddit.ClientID == "" {
		missing = append(missing, "reddit.client_id")
	}
	if cfg.Reddit.ClientSecret == "" {
		missing = append(missing, "reddit.client_secret")
	}
	if cfg.Reddit.UserAgent == "" {
		missing = append(missing, "reddit.user_agent")
	}
	if cfg.Gemini.APIKey == "" {
		missing = append(missing, "gemini.api_key")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// ValidateDatabase checks the settings of the selected store backend.
func (cfg *Config) ValidateDatabase() error {
	switch cfg.Database.Type {
	case "memory":
		return nil
	case "sqlite", "":
		if cfg.Database.DBName == "" {
			return &ConfigError{Missing: []string{"database.dbname"}}
		}
		return nil
	case "libsql":
		if cfg.Database.Url == "" {
			return &ConfigError{Missing: []string{"database.url"}}
		}
		return nil
	default:
		return fmt.Errorf("unknown database.type %q", cfg.Database.Type)
	}
}
