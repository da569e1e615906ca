package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT",
		"LOG_LEVEL",
		"EVENTMERGE_STORE_PATH",
		"EVENTMERGE_LOCATIONS_PATH",
		"EVENTMERGE_COMMUNITIES_FILE",
		"EVENTMERGE_URL_MATCH",
		"EVENTMERGE_METRICS_FILE",
		EnvFileVar,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Environment != "local" {
		t.Errorf("Environment = %q, want local", cfg.Environment)
	}
	if cfg.StorePath != "data/events.json" {
		t.Errorf("StorePath = %q", cfg.StorePath)
	}
	if cfg.LocationsPath != "data/locations.json" {
		t.Errorf("LocationsPath = %q", cfg.LocationsPath)
	}
	if cfg.URLMatch != "host" {
		t.Errorf("URLMatch = %q, want host", cfg.URLMatch)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EVENTMERGE_STORE_PATH", "/srv/events.json")
	t.Setenv("EVENTMERGE_URL_MATCH", "substring")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StorePath != "/srv/events.json" || cfg.URLMatch != "substring" || cfg.LogLevel != "debug" {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		LogLevel:      "info",
		StorePath:     "events.json",
		LocationsPath: "locations.json",
		URLMatch:      "host",
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty url match defaults to host", mutate: func(c *Config) { c.URLMatch = "" }},
		{name: "bad url match", mutate: func(c *Config) { c.URLMatch = "regex" }, wantErr: "EVENTMERGE_URL_MATCH"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "LOG_LEVEL"},
		{name: "blank store path", mutate: func(c *Config) { c.StorePath = "  " }, wantErr: "EVENTMERGE_STORE_PATH"},
		{name: "blank locations path", mutate: func(c *Config) { c.LocationsPath = "" }, wantErr: "EVENTMERGE_LOCATIONS_PATH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	t.Run("missing default file is fine", func(t *testing.T) {
		got, err := LoadEnvFile(filepath.Join(dir, "absent.env"))
		if err != nil || got != "" {
			t.Errorf("LoadEnvFile() = %q, %v; want empty, nil", got, err)
		}
	})

	t.Run("loads values", func(t *testing.T) {
		path := filepath.Join(dir, "test.env")
		if err := os.WriteFile(path, []byte("EVENTMERGE_METRICS_FILE=/tmp/m.prom\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("EVENTMERGE_METRICS_FILE", "")

		got, err := LoadEnvFile(path)
		if err != nil || got != path {
			t.Fatalf("LoadEnvFile() = %q, %v", got, err)
		}
		if v := os.Getenv("EVENTMERGE_METRICS_FILE"); v != "/tmp/m.prom" {
			t.Errorf("EVENTMERGE_METRICS_FILE = %q", v)
		}
	})

	t.Run("override variable wins", func(t *testing.T) {
		override := filepath.Join(dir, "override.env")
		if err := os.WriteFile(override, []byte("EVENTMERGE_URL_MATCH=substring\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv(EnvFileVar, override)
		t.Setenv("EVENTMERGE_URL_MATCH", "")

		got, err := LoadEnvFile(filepath.Join(dir, "absent.env"))
		if err != nil || got != override {
			t.Fatalf("LoadEnvFile() = %q, %v", got, err)
		}
		if v := os.Getenv("EVENTMERGE_URL_MATCH"); v != "substring" {
			t.Errorf("EVENTMERGE_URL_MATCH = %q", v)
		}
	})

	t.Run("missing override is an error", func(t *testing.T) {
		t.Setenv(EnvFileVar, filepath.Join(dir, "nope.env"))
		if _, err := LoadEnvFile(""); err == nil {
			t.Error("LoadEnvFile() expected error for missing override file")
		}
	})
}
