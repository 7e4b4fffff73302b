package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/ivanoskov/gastos_bot/internal/app"
	"github.com/ivanoskov/gastos_bot/internal/bot"
	"github.com/ivanoskov/gastos_bot/internal/config"
)

// Request структура входящего запроса от API Gateway
type Request struct {
	HTTPMethod            string            `json:"httpMethod"`
	Path                  string            `json:"path"`
	QueryStringParameters map[string]string `json:"queryStringParameters"`
	Body                  string            `json:"body"`
}

// Response структура ответа для API Gateway
type Response struct {
	StatusCode int               `json:"statusCode"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Приложение живет, пока жив экземпляр функции, чтобы диалоги не терялись между вызовами
var (
	mu     sync.Mutex
	shared *app.App
)

func instance(ctx context.Context) (*app.App, error) {
	mu.Lock()
	defer mu.Unlock()
	if shared != nil {
		return shared, nil
	}

	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	tg, err := bot.NewTelegram(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, tg)
	if err != nil {
		return nil, err
	}
	shared = a
	return shared, nil
}

func Handler(ctx context.Context, request Request) (*Response, error) {
	a, err := instance(ctx)
	if err != nil {
		return errorResponse(err)
	}

	// Внешний cron для напоминаний
	if strings.HasSuffix(request.Path, "/run-reminders") {
		if !a.AuthorizeCron(request.QueryStringParameters["key"]) {
			return textResponse(403, "forbidden"), nil
		}
		n, err := a.RunReminders(ctx)
		if err != nil {
			return textResponse(500, "ERR "+err.Error()), nil
		}
		return textResponse(200, fmt.Sprintf("OK %d", n)), nil
	}

	// Обработка webhook-обновления; ошибку не возвращаем, иначе Telegram
	// пришлет то же обновление повторно
	if err := a.Bot.HandleWebhook(ctx, []byte(request.Body)); err != nil {
		log.Printf("Error handling webhook update: %v", err)
	}

	return &Response{
		StatusCode: 200,
		Body:       "",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func textResponse(status int, body string) *Response {
	return &Response{
		StatusCode: status,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
		},
	}
}

func errorResponse(err error) (*Response, error) {
	return &Response{
		StatusCode: 500,
		Body:       err.Error(),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func main() {
	// Точка входа для локального тестирования
}
