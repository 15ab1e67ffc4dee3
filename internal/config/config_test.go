package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8000}}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_CatalogSources(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"csv default", func(c *Config) {}, ""},
		{"redis without addrs", func(c *Config) { c.Catalog.Source = SourceRedis }, "catalog.redis.addrs"},
		{"redis ok", func(c *Config) {
			c.Catalog.Source = SourceRedis
			c.Catalog.Redis.Addrs = []string{"localhost:6379"}
		}, ""},
		{"sqlite without dsn", func(c *Config) { c.Catalog.Source = SourceSQLite }, "catalog.sqlite.dsn"},
		{"snapshot without path", func(c *Config) { c.Catalog.Source = SourceSnapshot }, "catalog.snapshot.path"},
		{"save without path", func(c *Config) { c.Catalog.Snapshot.Save = true }, "catalog.snapshot.path"},
		{"save from snapshot", func(c *Config) {
			c.Catalog.Source = SourceSnapshot
			c.Catalog.Snapshot.Path = "model.db"
			c.Catalog.Snapshot.Save = true
		}, "cannot be combined"},
		{"unknown source", func(c *Config) { c.Catalog.Source = "parquet" }, "catalog.source"},
		{"negative cache", func(c *Config) { c.Discover.QueryCacheSize = -1 }, "query_cache_size"},
		{"negative rate limit", func(c *Config) { c.RateLimit.Requests = -5 }, "rate_limit.requests"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected read timeout 10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Catalog.Source != SourceCSV {
		t.Errorf("expected source csv, got %q", cfg.Catalog.Source)
	}
	if cfg.Catalog.Redis.KeyPrefix != "anime:" {
		t.Errorf("expected key prefix anime:, got %q", cfg.Catalog.Redis.KeyPrefix)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("expected 2 default origins, got %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Vectorizer.MinDocFreq != 1 {
		t.Errorf("expected min_doc_freq 1, got %d", cfg.Vectorizer.MinDocFreq)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 9000, ReadTimeoutSec: 30},
		Catalog: CatalogConfig{Source: SourceSQLite, SQLite: SQLiteConfig{Table: "titles"}},
		CORS:    CORSConfig{AllowedOrigins: []string{"https://anime.example"}},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9000 || cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("http overridden: %+v", cfg.HTTP)
	}
	if cfg.Catalog.Source != SourceSQLite || cfg.Catalog.SQLite.Table != "titles" {
		t.Errorf("catalog overridden: %+v", cfg.Catalog)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 {
		t.Errorf("origins overridden: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("ANIMEDEX_TEST_REDIS", "redis.internal:6379")

	data := []byte(`
http:
  port: ${ANIMEDEX_TEST_PORT:-8081}
catalog:
  source: redis
  redis:
    addrs: ["${ANIMEDEX_TEST_REDIS}"]
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("expected default port 8081, got %d", cfg.HTTP.Port)
	}
	if len(cfg.Catalog.Redis.Addrs) != 1 || cfg.Catalog.Redis.Addrs[0] != "redis.internal:6379" {
		t.Errorf("unexpected addrs %v", cfg.Catalog.Redis.Addrs)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Parse([]byte("catalog:\n  source: sqlite\n")); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Catalog.Source == "" {
		t.Error("expected a catalog source")
	}
}
