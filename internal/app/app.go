package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ivanoskov/gastos_bot/internal/bot"
	"github.com/ivanoskov/gastos_bot/internal/charts"
	"github.com/ivanoskov/gastos_bot/internal/config"
	"github.com/ivanoskov/gastos_bot/internal/dateutil"
	"github.com/ivanoskov/gastos_bot/internal/flow"
	"github.com/ivanoskov/gastos_bot/internal/repository"
	"github.com/ivanoskov/gastos_bot/internal/service"
)

// Messenger - исходящая сторона мессенджера для бота и планировщика
type Messenger interface {
	bot.Transport
	service.Notifier
}

// App собирает все компоненты процесса
type App struct {
	cfg *config.Config

	Repo      *repository.Repository
	Bot       *bot.Bot
	Scheduler *service.ReminderScheduler
	Archiver  *service.Archiver

	closers []io.Closer
}

// New открывает хранилища по конфигурации и связывает сервисы с messenger.
// Недостающие листы создаются сразу.
func New(ctx context.Context, cfg *config.Config, messenger Messenger) (*App, error) {
	clock, err := dateutil.NewClock(cfg.TimezoneOffset)
	if err != nil {
		return nil, err
	}

	table, err := openTable(ctx, cfg)
	if err != nil {
		return nil, err
	}
	repo := repository.New(table, cfg.ArchiveSheet)
	if err := repo.EnsureSheets(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare sheets: %w", err)
	}

	a := &App{cfg: cfg, Repo: repo}

	states, err := a.openStates(cfg)
	if err != nil {
		return nil, err
	}

	a.Archiver = service.NewArchiver(repo, clock)
	a.Scheduler = service.NewReminderScheduler(repo, messenger, clock)
	a.Bot = bot.NewBot(messenger, bot.Services{
		Expenses:  service.NewExpenseTracker(repo, clock),
		Reminders: service.NewReminderBook(repo, clock),
		Archiver:  a.Archiver,
		Charts:    charts.NewChartGenerator(),
	}, states, clock)

	log.Printf("Bot ready: store=%s state=%s offset=%s", cfg.StoreBackend, cfg.StateStore, cfg.TimezoneOffset)
	return a, nil
}

// Close освобождает открытые ресурсы
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RunReminders выполняет один проход планировщика и возвращает число доставленных
func (a *App) RunReminders(ctx context.Context) (int, error) {
	result, err := a.Scheduler.RunOnce(ctx)
	if err != nil {
		return 0, err
	}
	return result.Delivered(), nil
}

// AuthorizeCron проверяет ключ внешнего триггера; без настроенного ключа пускает всех
func (a *App) AuthorizeCron(key string) bool {
	return a.cfg.RemindersCronKey == "" || key == a.cfg.RemindersCronKey
}

func openTable(ctx context.Context, cfg *config.Config) (repository.Table, error) {
	switch cfg.StoreBackend {
	case config.BackendSupabase:
		return repository.NewSupabaseTable(cfg.SupabaseURL, cfg.SupabaseKey)
	case config.BackendMemory:
		return repository.NewMemoryTable(), nil
	}

	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewSheetsTable(ctx, cfg.SpreadsheetID, creds)
}

// credentials: base64, затем JSON из переменной, затем файл
func credentials(cfg *config.Config) ([]byte, error) {
	if cfg.GoogleCredentialsB64 != "" {
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(cfg.GoogleCredentialsB64))
		if err != nil {
			return nil, fmt.Errorf("failed to decode GOOGLE_CREDENTIALS_JSON_BASE64: %w", err)
		}
		return b, nil
	}
	if cfg.GoogleCredentialsJSON != "" {
		return []byte(cfg.GoogleCredentialsJSON), nil
	}
	b, err := os.ReadFile(cfg.GoogleCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}
	return b, nil
}

func (a *App) openStates(cfg *config.Config) (flow.Store, error) {
	if cfg.StateStore != config.StateSQLite {
		return flow.NewMemoryStore(), nil
	}
	store, err := flow.NewSQLiteStore(cfg.StateDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	a.closers = append(a.closers, store)
	return store, nil
}
