package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	Gemini        GeminiConfig
	OpenFoodFacts OpenFoodFactsConfig
	Cache         CacheConfig
	RateLimit     RateLimitConfig
	Region        string `mapstructure:"region"` // deployment region hint, informational only
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GeminiConfig holds the model endpoint configuration
type GeminiConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Models         []string      `mapstructure:"models"` // fallback order, preferred first
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	TotalTimeout   time.Duration `mapstructure:"total_timeout"`
}

// OpenFoodFactsConfig holds product database configuration
type OpenFoodFactsConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // only "memory" for now
	TTL  time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds inbound rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute per client IP, 0 disables
	Burst int `mapstructure:"burst"`
}

// Loader reads configuration and can watch the config file for changes
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with search paths, env bindings and defaults set
func NewLoader() *Loader {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/safescan/")

	// Environment variable settings: SAFESCAN_GEMINI_API_KEY -> gemini.api_key
	v.SetEnvPrefix("SAFESCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The credential is also accepted under its conventional name
	_ = v.BindEnv("gemini.api_key", "SAFESCAN_GEMINI_API_KEY", "GEMINI_API_KEY")

	setDefaults(v)

	return &Loader{v: v}
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return NewLoader().Load()
}

// Load reads the config file (optional) and decodes the merged configuration
func (l *Loader) Load() (*Config, error) {
	// Read config file (optional - will use env vars if file doesn't exist)
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	config.Gemini.Models = splitList(config.Gemini.Models)
	config.Server.AllowedOrigins = splitList(config.Server.AllowedOrigins)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Watch calls onChange with the reloaded configuration whenever the config
// file changes. Invalid edits are logged and ignored. Without a config file
// there is nothing to watch.
func (l *Loader) Watch(onChange func(*Config)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			log.Printf("[Config] Ignoring change to %s: %v", e.Name, err)
			return
		}
		log.Printf("[Config] Reloaded %s", e.Name)
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// ConfigFileUsed returns the path of the config file read, if any
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.models", []string{"gemini-2.5-flash-lite", "gemini-2.0-flash-lite", "gemini-2.0-flash"})
	// Three candidates at 3s each fit inside the 10s total budget
	v.SetDefault("gemini.request_timeout", "3s")
	v.SetDefault("gemini.total_timeout", "10s")

	// Open Food Facts defaults
	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("openfoodfacts.timeout", "10s")
	v.SetDefault("openfoodfacts.requests_per_minute", 100)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("region", "")
}

// validate validates the configuration.
// A missing API key is not an error here: every model call reports it instead.
func validate(config *Config) error {
	if len(config.Gemini.Models) == 0 {
		return fmt.Errorf("at least one Gemini model is required (set SAFESCAN_GEMINI_MODELS)")
	}

	if config.Gemini.RequestTimeout <= 0 {
		return fmt.Errorf("gemini request timeout must be positive, got: %s", config.Gemini.RequestTimeout)
	}

	if config.Gemini.TotalTimeout < 0 {
		return fmt.Errorf("gemini total timeout must not be negative, got: %s", config.Gemini.TotalTimeout)
	}

	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("per-IP rate limit must not be negative, got: %d", config.RateLimit.PerIP)
	}

	return nil
}

// splitList flattens comma-separated entries, as delivered by env vars, and drops blanks
func splitList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
