package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendSheets   = "sheets"
	BackendSupabase = "supabase"
	BackendMemory   = "memory"

	StateMemory = "memory"
	StateSQLite = "sqlite"
)

type Config struct {
	TelegramToken string
	PublicURL     string
	Port          string

	StoreBackend          string
	SpreadsheetID         string
	GoogleCredentialsJSON string
	GoogleCredentialsB64  string
	GoogleCredentialsFile string
	SupabaseURL           string
	SupabaseKey           string
	ArchiveSheet          string
	TimezoneOffset        string
	RemindersCronKey      string
	RemindersEvery        time.Duration
	StateStore            string
	StateDBPath           string
}

// LoadConfig читает .env (если он есть) и переменные окружения
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	everyMS, err := strconv.Atoi(getenv("REMINDERS_EVERY_MS", "60000"))
	if err != nil || everyMS < 0 {
		return nil, fmt.Errorf("invalid REMINDERS_EVERY_MS %q", os.Getenv("REMINDERS_EVERY_MS"))
	}

	cfg := &Config{
		TelegramToken:         os.Getenv("TELEGRAM_TOKEN"),
		PublicURL:             strings.TrimRight(os.Getenv("PUBLIC_URL"), "/"),
		Port:                  getenv("PORT", "3000"),
		StoreBackend:          strings.ToLower(getenv("STORE_BACKEND", BackendSheets)),
		SpreadsheetID:         os.Getenv("SPREADSHEET_ID"),
		GoogleCredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		GoogleCredentialsB64:  os.Getenv("GOOGLE_CREDENTIALS_JSON_BASE64"),
		GoogleCredentialsFile: getenv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		SupabaseURL:           os.Getenv("SUPABASE_URL"),
		SupabaseKey:           os.Getenv("SUPABASE_KEY"),
		ArchiveSheet:          getenv("HIST_SHEET", "Historico"),
		TimezoneOffset:        getenv("TIMEZONE_OFFSET", "-03:00"),
		RemindersCronKey:      os.Getenv("REMINDERS_CRON_KEY"),
		RemindersEvery:        time.Duration(everyMS) * time.Millisecond,
		StateStore:            strings.ToLower(getenv("STATE_STORE", StateMemory)),
		StateDBPath:           getenv("STATE_DB_PATH", "state.db"),
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}
	switch c.StoreBackend {
	case BackendSheets:
		if c.SpreadsheetID == "" {
			return errors.New("SPREADSHEET_ID is required for the sheets backend")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_KEY are required for the supabase backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.StateStore {
	case StateMemory, StateSQLite:
	default:
		return fmt.Errorf("unknown STATE_STORE %q", c.StateStore)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
