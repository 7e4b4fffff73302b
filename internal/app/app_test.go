package app

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ivanoskov/gastos_bot/internal/bot"
	"github.com/ivanoskov/gastos_bot/internal/config"
	"github.com/ivanoskov/gastos_bot/internal/flow"
	"github.com/ivanoskov/gastos_bot/internal/model"
)

type fakeMessenger struct {
	mu       sync.Mutex
	sent     []string
	notified []string
}

func (m *fakeMessenger) Send(ctx context.Context, chatID int64, reply flow.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, reply.Text)
	return nil
}

func (m *fakeMessenger) Edit(ctx context.Context, ref bot.MessageRef, reply flow.Reply) error {
	return nil
}

func (m *fakeMessenger) AnswerCallback(ctx context.Context, callbackID, note string) error {
	return nil
}

func (m *fakeMessenger) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error {
	return nil
}

func (m *fakeMessenger) Notify(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = append(m.notified, text)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		TelegramToken:    "123:abc",
		PublicURL:        "https://gastos.example.com",
		Port:             "0",
		StoreBackend:     config.BackendMemory,
		ArchiveSheet:     "Historico",
		TimezoneOffset:   "-03:00",
		RemindersCronKey: "s3cret",
		StateStore:       config.StateMemory,
	}
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, *fakeMessenger) {
	t.Helper()
	messenger := &fakeMessenger{}
	a, err := New(context.Background(), cfg, messenger)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, messenger
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	a, _ := newTestApp(t, testConfig())
	h := a.Handler()

	rec := do(t, h, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || rec.Body.String() != healthText {
		t.Errorf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestWebhook(t *testing.T) {
	a, messenger := newTestApp(t, testConfig())
	h := a.Handler()

	update := `{"update_id":1,"message":{"message_id":1,"date":0,
		"chat":{"id":555,"type":"private"},
		"from":{"id":42,"is_bot":false,"first_name":"Ana"},
		"text":"Gaste 100 en pan / comida"}}`

	rec := do(t, h, http.MethodPost, "/bot123:abc", update)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(messenger.sent) != 1 || !strings.HasPrefix(messenger.sent[0], "✅ Gasto registrado: $100.00") {
		t.Errorf("unexpected replies %v", messenger.sent)
	}

	expenses, err := a.Repo.GetExpenses(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(expenses) != 1 || expenses[0].UserID != "42" {
		t.Errorf("unexpected expenses %+v", expenses)
	}

	// Битое тело все равно подтверждается
	rec = do(t, h, http.MethodPost, "/bot123:abc", "{")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for malformed update, got %d", rec.Code)
	}
}

func TestWebhookDisabledWithoutPublicURL(t *testing.T) {
	cfg := testConfig()
	cfg.PublicURL = ""
	a, _ := newTestApp(t, cfg)

	rec := do(t, a.Handler(), http.MethodPost, "/bot123:abc", "{}")
	if rec.Code == http.StatusOK {
		t.Errorf("webhook should not be routed in polling mode")
	}
}

func TestRunReminders(t *testing.T) {
	a, messenger := newTestApp(t, testConfig())
	h := a.Handler()

	err := a.Repo.CreateReminder(context.Background(), model.Reminder{
		Date: "2020-01-01", Time: "10:00", UserID: "42", UserName: "Ana",
		Body: "pagar luz", DeliveryTarget: "555",
	})
	if err != nil {
		t.Fatal(err)
	}

	rec := do(t, h, http.MethodGet, "/run-reminders", "")
	if rec.Code != http.StatusForbidden || rec.Body.String() != "forbidden" {
		t.Errorf("expected forbidden, got %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/run-reminders?key=s3cret", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK 1" {
		t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if len(messenger.notified) != 1 || !strings.Contains(messenger.notified[0], "pagar luz") {
		t.Errorf("unexpected notifications %v", messenger.notified)
	}

	rec = do(t, h, http.MethodGet, "/run-reminders?key=s3cret", "")
	if rec.Body.String() != "OK 0" {
		t.Errorf("reminder must be delivered once, got %q", rec.Body.String())
	}
}

func TestAuthorizeCronWithoutKey(t *testing.T) {
	cfg := testConfig()
	cfg.RemindersCronKey = ""
	a, _ := newTestApp(t, cfg)
	if !a.AuthorizeCron("") {
		t.Errorf("empty key should allow every caller")
	}
}

func TestSQLiteStateStore(t *testing.T) {
	cfg := testConfig()
	cfg.StateStore = config.StateSQLite
	cfg.StateDBPath = filepath.Join(t.TempDir(), "state", "state.db")
	a, _ := newTestApp(t, cfg)

	rec := do(t, a.Handler(), http.MethodPost, "/bot123:abc", `{"update_id":2,"message":{"message_id":2,"date":0,
		"chat":{"id":555,"type":"private"},"from":{"id":42,"first_name":"Ana"},"text":"/recordar"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, err := os.Stat(cfg.StateDBPath); err != nil {
		t.Errorf("expected state db on disk: %v", err)
	}
}

func TestCredentials(t *testing.T) {
	raw := `{"type":"service_account"}`

	cfg := &config.Config{GoogleCredentialsB64: base64.StdEncoding.EncodeToString([]byte(raw))}
	if got, err := credentials(cfg); err != nil || string(got) != raw {
		t.Errorf("base64: got %q, %v", got, err)
	}

	cfg = &config.Config{GoogleCredentialsJSON: raw}
	if got, err := credentials(cfg); err != nil || string(got) != raw {
		t.Errorf("json: got %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg = &config.Config{GoogleCredentialsFile: path}
	if got, err := credentials(cfg); err != nil || string(got) != raw {
		t.Errorf("file: got %q, %v", got, err)
	}

	cfg = &config.Config{GoogleCredentialsB64: "%%%"}
	if _, err := credentials(cfg); err == nil {
		t.Errorf("expected error for malformed base64")
	}
}
