package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // no .env
	for _, key := range []string{"PORT", "HOST", "READ_TIMEOUT", "LOG_LEVEL", "DATABASE_URL", "HISTORY_PATH", "ALLOWED_ORIGINS", "SYNC_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.ReadTimeout != 15 || cfg.Server.ShutdownTimeout != 30 {
		t.Errorf("timeouts = %+v", cfg.Server)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.SyncInterval != 5 {
		t.Errorf("SyncInterval = %d, want 5", cfg.SyncInterval)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %s", cfg.Addr())
	}
}

func TestLoad_Environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("READ_TIMEOUT", "5")
	t.Setenv("WRITE_TIMEOUT", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://localhost/glucopredict")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "9090" || cfg.Server.ReadTimeout != 5 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.WriteTimeout != 15 {
		t.Errorf("WriteTimeout = %d, want default 15 for unparsable value", cfg.Server.WriteTimeout)
	}
	if cfg.Storage.DatabaseURL != "postgres://localhost/glucopredict" {
		t.Errorf("DatabaseURL = %s", cfg.Storage.DatabaseURL)
	}
	if cfg.Server.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	// godotenv never overrides a variable that is already set, even to ""
	t.Setenv("CATALOG_PATH", "")
	_ = os.Unsetenv("CATALOG_PATH")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CATALOG_PATH=/srv/foods.json\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CatalogPath != "/srv/foods.json" {
		t.Errorf("CatalogPath = %s, want value from .env", cfg.CatalogPath)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080", ReadTimeout: 1, WriteTimeout: 1, ShutdownTimeout: 1},
			LogLevel: "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"Valid", func(_ *Config) {}, false},
		{"Missing port", func(c *Config) { c.Server.Port = "" }, true},
		{"Non-numeric port", func(c *Config) { c.Server.Port = "http" }, true},
		{"Port out of range", func(c *Config) { c.Server.Port = "70000" }, true},
		{"Zero timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, true},
		{"Negative sync interval", func(c *Config) { c.SyncInterval = -1 }, true},
		{"Bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"Upper-case log level", func(c *Config) { c.LogLevel = "WARN" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q): %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore Chdir(%q): %v", prev, err)
		}
	})
}
