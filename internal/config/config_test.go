package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("REMINDERS_EVERY_MS", "")
	t.Setenv("PUBLIC_URL", "https://bot.example.com/")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "3000" || cfg.TimezoneOffset != "-03:00" || cfg.ArchiveSheet != "Historico" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.RemindersEvery != time.Minute {
		t.Errorf("expected one minute interval, got %s", cfg.RemindersEvery)
	}
	if cfg.PublicURL != "https://bot.example.com" {
		t.Errorf("expected trailing slash to be trimmed, got %q", cfg.PublicURL)
	}
	if cfg.StateStore != StateMemory {
		t.Errorf("expected memory state store, got %q", cfg.StateStore)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"no token":         {"TELEGRAM_TOKEN": "", "STORE_BACKEND": "memory"},
		"sheets needs id":  {"TELEGRAM_TOKEN": "x", "STORE_BACKEND": "sheets", "SPREADSHEET_ID": ""},
		"supabase needs":   {"TELEGRAM_TOKEN": "x", "STORE_BACKEND": "supabase", "SUPABASE_URL": ""},
		"unknown backend":  {"TELEGRAM_TOKEN": "x", "STORE_BACKEND": "excel"},
		"bad interval":     {"TELEGRAM_TOKEN": "x", "STORE_BACKEND": "memory", "REMINDERS_EVERY_MS": "soon"},
		"unknown state db": {"TELEGRAM_TOKEN": "x", "STORE_BACKEND": "memory", "STATE_STORE": "redis"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
