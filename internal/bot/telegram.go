package bot

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ivanoskov/gastos_bot/internal/flow"
)

// MessageRef указывает на уже отправленное сообщение
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Transport - исходящая сторона мессенджера
type Transport interface {
	Send(ctx context.Context, chatID int64, reply flow.Reply) error
	Edit(ctx context.Context, ref MessageRef, reply flow.Reply) error
	AnswerCallback(ctx context.Context, callbackID, note string) error
	SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error
}

// Telegram реализует Transport поверх Bot API
type Telegram struct {
	api *tgbotapi.BotAPI
}

func NewTelegram(token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{api: api}, nil
}

func (t *Telegram) Send(ctx context.Context, chatID int64, reply flow.Reply) error {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	msg.ReplyMarkup = replyMarkup(reply)
	_, err := t.api.Send(msg)
	return err
}

func (t *Telegram) Edit(ctx context.Context, ref MessageRef, reply flow.Reply) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(ref.ChatID, ref.MessageID, reply.Text, inlineKeyboard(reply.Inline))
	if reply.Markdown {
		edit.ParseMode = tgbotapi.ModeMarkdown
	}
	_, err := t.api.Send(edit)
	return err
}

func (t *Telegram) AnswerCallback(ctx context.Context, callbackID, note string) error {
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, note))
	return err
}

func (t *Telegram) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "gastos.png", Bytes: png})
	photo.Caption = caption
	_, err := t.api.Send(photo)
	return err
}

// Notify доставляет напоминание простым текстом
func (t *Telegram) Notify(ctx context.Context, chatID int64, text string) error {
	return t.Send(ctx, chatID, flow.Reply{Text: text})
}

// SetWebhook регистрирует адрес для входящих обновлений
func (t *Telegram) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	if _, err := t.api.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	log.Printf("Webhook configured")
	return nil
}

// DeleteWebhook переключает бота на long polling
func (t *Telegram) DeleteWebhook() error {
	_, err := t.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false})
	return err
}

// Updates открывает канал long polling; канал закрывается после отмены ctx
func (t *Telegram) Updates(ctx context.Context) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		t.api.StopReceivingUpdates()
	}()
	return updates
}
