package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix        = "EXPLOREMORE_"
	ConfigPathEnvVar = "CONFIG_PATH"
)

var DefaultConfigPaths = []string{"config.yaml", "config.yml", "/etc/exploremore/config.yaml"}

type Config struct {
	Env        string           `koanf:"env"` // development|production
	HTTP       HTTPConfig       `koanf:"http"`
	DB         DBConfig         `koanf:"db"`
	Auth       AuthConfig       `koanf:"auth"`
	Quiz       QuizConfig       `koanf:"quiz"`
	Currency   CurrencyConfig   `koanf:"currency"`
	Moderation ModerationConfig `koanf:"moderation"`
	Blob       BlobConfig       `koanf:"blob"`
	Log        LogConfig        `koanf:"log"`
	Admin      AdminConfig      `koanf:"admin"`
}

type HTTPConfig struct {
	Addr           string        `koanf:"addr"`
	PublicURL      string        `koanf:"public_url"`
	CORSOrigins    []string      `koanf:"cors_origins"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	ShutdownGrace  time.Duration `koanf:"shutdown_grace"`
	// Requests per minute per IP on login, signup and feedback submission.
	RateLimit int `koanf:"rate_limit"`
}

type DBConfig struct {
	Driver string `koanf:"driver"` // sqlite|postgres
	DSN    string `koanf:"dsn"`
}

type AuthConfig struct {
	HMACSecret   string        `koanf:"hmac_secret"`
	TokenTTL     time.Duration `koanf:"token_ttl"`
	CookieName   string        `koanf:"cookie_name"`
	CookieSecure bool          `koanf:"cookie_secure"`
	BcryptCost   int           `koanf:"bcrypt_cost"`
}

type QuizConfig struct {
	CatalogPath string        `koanf:"catalog_path"` // empty = built-in catalog
	SessionTTL  time.Duration `koanf:"session_ttl"`
	Store       string        `koanf:"store"` // memory|redis
	RedisAddr   string        `koanf:"redis_addr"`
	RedisDB     int           `koanf:"redis_db"`
}

type CurrencyConfig struct {
	APIURL          string        `koanf:"api_url"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	Timeout         time.Duration `koanf:"timeout"`
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

type ModerationConfig struct {
	ExtraWords []string `koanf:"extra_words"`
}

type BlobConfig struct {
	BasePath string `koanf:"base_path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json|console
	Caller bool   `koanf:"caller"`
}

type AdminConfig struct {
	Email    string `koanf:"email"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:           ":8080",
			CORSOrigins:    []string{"http://localhost:3000", "http://localhost:8080"},
			RequestTimeout: 30 * time.Second,
			ShutdownGrace:  10 * time.Second,
			RateLimit:      30,
		},
		DB: DBConfig{
			Driver: "sqlite",
			DSN:    "file:exploremore.db?_pragma=busy_timeout(5000)",
		},
		Auth: AuthConfig{
			HMACSecret: "dev-secret-change-me",
			TokenTTL:   24 * time.Hour,
			CookieName: "exploremore_token",
			BcryptCost: 12,
		},
		Quiz: QuizConfig{
			SessionTTL: 2 * time.Hour,
			Store:      "memory",
			RedisAddr:  "localhost:6379",
		},
		Currency: CurrencyConfig{
			APIURL:          "https://open.er-api.com/v6/latest/PHP",
			CacheTTL:        10 * time.Minute,
			Timeout:         5 * time.Second,
			RefreshInterval: 10 * time.Minute,
		},
		Blob: BlobConfig{BasePath: "./data"},
		Log:  LogConfig{Level: "info", Format: "json"},
	}
}

// Load layers defaults, an optional YAML file and EXPLOREMORE_* environment
// variables, in that order of precedence.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitLists(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envKey maps EXPLOREMORE_HTTP__CORS_ORIGINS to http.cors_origins.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var listKeys = []string{"http.cors_origins", "moderation.extra_words"}

// splitLists turns comma-separated env values into slices for list keys.
func splitLists(k *koanf.Koanf) error {
	for _, key := range listKeys {
		v, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(key, out); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) Production() bool { return c.Env == "production" }

func (c *Config) Validate() error {
	var errs []error
	switch c.DB.Driver {
	case "sqlite", "postgres", "pgx":
	default:
		errs = append(errs, fmt.Errorf("db.driver %q: want sqlite or postgres", c.DB.Driver))
	}
	switch c.Quiz.Store {
	case "memory":
	case "redis":
		if c.Quiz.RedisAddr == "" {
			errs = append(errs, errors.New("quiz.redis_addr is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("quiz.store %q: want memory or redis", c.Quiz.Store))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want json or console", c.Log.Format))
	}
	if c.Auth.HMACSecret == "" {
		errs = append(errs, errors.New("auth.hmac_secret is required"))
	}
	if c.Production() {
		if c.Auth.HMACSecret == defaultConfig().Auth.HMACSecret {
			errs = append(errs, errors.New("auth.hmac_secret must be changed in production"))
		}
		if !c.Auth.CookieSecure {
			errs = append(errs, errors.New("auth.cookie_secure must be true in production"))
		}
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost %d out of range", c.Auth.BcryptCost))
	}
	if c.Quiz.SessionTTL <= 0 {
		errs = append(errs, errors.New("quiz.session_ttl must be positive"))
	}
	if c.Currency.CacheTTL <= 0 {
		errs = append(errs, errors.New("currency.cache_ttl must be positive"))
	}
	if c.HTTP.RateLimit < 0 {
		errs = append(errs, errors.New("http.rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}
