package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.DB.Driver != "sqlite" || cfg.Quiz.Store != "memory" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Currency.CacheTTL != 10*time.Minute {
		t.Fatalf("cache ttl = %v", cfg.Currency.CacheTTL)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
http:
  addr: ":9000"
  rate_limit: 5
quiz:
  session_ttl: 30m
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EXPLOREMORE_HTTP__ADDR", ":9100")
	t.Setenv("EXPLOREMORE_CURRENCY__CACHE_TTL", "1m")
	t.Setenv("EXPLOREMORE_HTTP__CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9100" {
		t.Fatalf("addr = %q, env should win", cfg.HTTP.Addr)
	}
	if cfg.HTTP.RateLimit != 5 || cfg.Log.Level != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Quiz.SessionTTL != 30*time.Minute || cfg.Currency.CacheTTL != time.Minute {
		t.Fatalf("durations: %v %v", cfg.Quiz.SessionTTL, cfg.Currency.CacheTTL)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 {
		t.Fatalf("cors origins = %v", cfg.HTTP.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"driver":     func(c *Config) { c.DB.Driver = "mysql" },
		"store":      func(c *Config) { c.Quiz.Store = "disk" },
		"secret":     func(c *Config) { c.Auth.HMACSecret = "" },
		"prod":       func(c *Config) { c.Env = "production" },
		"log format": func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			c := defaultConfig()
			mut(c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}
