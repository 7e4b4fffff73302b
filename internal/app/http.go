package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const healthText = "Bot de gastos activo ✅"

// WebhookPath - путь, на который Telegram присылает обновления
func (a *App) WebhookPath() string {
	return "/bot" + a.cfg.TelegramToken
}

// Handler возвращает HTTP-маршруты процесса. Webhook подключается только
// при заданном PUBLIC_URL.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.handleHealth)
	mux.HandleFunc("GET /run-reminders", a.handleRunReminders)
	if a.cfg.PublicURL != "" {
		mux.HandleFunc("POST "+a.WebhookPath(), a.handleWebhook)
	}
	return mux
}

// Serve слушает PORT до отмены ctx
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("HTTP server listening on :%s", a.cfg.Port)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, healthText)
}

func (a *App) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeText(w, http.StatusBadRequest, "bad request")
		return
	}

	// Telegram повторяет обновление при любом ответе кроме 200,
	// поэтому ошибки обработки только логируются
	ctx := context.WithoutCancel(r.Context())
	if err := a.Bot.HandleWebhook(ctx, body); err != nil {
		log.Printf("Error handling webhook update: %v", err)
	}
	w.WriteHeader(http.StatusOK)
}

func (a *App) handleRunReminders(w http.ResponseWriter, r *http.Request) {
	if !a.AuthorizeCron(r.URL.Query().Get("key")) {
		writeText(w, http.StatusForbidden, "forbidden")
		return
	}
	n, err := a.RunReminders(r.Context())
	if err != nil {
		log.Printf("Error running reminders: %v", err)
		writeText(w, http.StatusInternalServerError, "ERR "+err.Error())
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("OK %d", n))
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, text)
}
