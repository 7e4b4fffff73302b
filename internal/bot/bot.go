package bot

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"hash/fnv"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ivanoskov/gastos_bot/internal/calendar"
	"github.com/ivanoskov/gastos_bot/internal/charts"
	"github.com/ivanoskov/gastos_bot/internal/dateutil"
	"github.com/ivanoskov/gastos_bot/internal/flow"
	"github.com/ivanoskov/gastos_bot/internal/model"
	"github.com/ivanoskov/gastos_bot/internal/service"
)

const genericFailure = "❌ Ocurrió un error procesando tu mensaje."

const lockStripes = 64

// Services - прикладные сервисы, которые вызывает бот
type Services struct {
	Expenses  *service.ExpenseTracker
	Reminders *service.ReminderBook
	Archiver  *service.Archiver
	Charts    *charts.ChartGenerator
}

type Bot struct {
	transport Transport
	services  Services
	states    flow.Store
	clock     *dateutil.Clock

	expenseFlow  flow.ExpenseFlow
	reminderFlow flow.ReminderFlow

	// locks упорядочивает события одного диалога; число полос фиксировано
	locks [lockStripes]sync.Mutex
}

func NewBot(transport Transport, services Services, states flow.Store, clock *dateutil.Clock) *Bot {
	return &Bot{
		transport: transport,
		services:  services,
		states:    states,
		clock:     clock,
	}
}

// HandleUpdate обрабатывает одно обновление Telegram
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

// HandleWebhook - точка входа для обработки входящих webhook-обновлений
func (b *Bot) HandleWebhook(ctx context.Context, body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return err
	}

	return b.HandleUpdate(ctx, update)
}

// Start запускает бота в режиме long polling до отмены ctx
func (b *Bot) Start(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := b.HandleUpdate(ctx, update); err != nil {
				// Логируем ошибку, но продолжаем работу
				log.Printf("Error handling update %d: %v", update.UpdateID, err)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.Chat == nil || message.From == nil {
		return nil
	}
	id := model.Identity{ChatID: message.Chat.ID, UserID: message.From.ID}
	defer b.lock(id)()

	text := strings.TrimSpace(message.Text)
	intent := detectIntent(text)

	state, err := b.states.Get(ctx, id)
	if err != nil {
		return b.fail(ctx, id.ChatID, err)
	}

	if intent == intentCancel {
		return b.cancel(ctx, id, state)
	}

	switch st := state.(type) {
	case *model.ExpenseEntryState:
		next, out := b.expenseFlow.Step(st, text)
		return b.apply(ctx, id, message.From, nil, next, out)
	case *model.ReminderEntryState:
		// Пока идет диалог, команды не маршрутизируются: шаги выбора переспрашивают
		next, out := b.reminderFlow.Step(st, flow.TextEvent(text))
		return b.apply(ctx, id, message.From, nil, next, out)
	}

	return b.route(ctx, id, message.From, intent, text)
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	action, err := calendar.Decode(query.Data)
	if err != nil {
		if !errors.Is(err, calendar.ErrForeignToken) {
			log.Printf("Error decoding callback %q: %v", query.Data, err)
		}
		return b.transport.AnswerCallback(ctx, query.ID, "")
	}
	if query.Message == nil || query.Message.Chat == nil || query.From == nil {
		return b.transport.AnswerCallback(ctx, query.ID, "")
	}

	id := model.Identity{ChatID: query.Message.Chat.ID, UserID: query.From.ID}
	ref := &MessageRef{ChatID: query.Message.Chat.ID, MessageID: query.Message.MessageID}
	defer b.lock(id)()

	state, err := b.states.Get(ctx, id)
	if err != nil {
		log.Printf("Error loading state %s: %v", id, err)
		return b.transport.AnswerCallback(ctx, query.ID, "")
	}

	var current *model.ReminderEntryState
	switch st := state.(type) {
	case *model.ReminderEntryState:
		current = st
	case nil:
		now := b.clock.Now()
		current = b.reminderFlow.Resume(now.Year(), int(now.Month()))
	default:
		// Идет другой диалог: старый календарь ничего не меняет
		return b.transport.AnswerCallback(ctx, query.ID, "")
	}

	next, out := b.reminderFlow.Step(current, flow.ActionEvent(action))
	if state == nil && out.Kind == flow.Retry {
		return b.transport.AnswerCallback(ctx, query.ID, "")
	}

	applyErr := b.apply(ctx, id, query.From, ref, next, out)
	if err := b.transport.AnswerCallback(ctx, query.ID, out.AckNote); err != nil {
		log.Printf("Error answering callback: %v", err)
	}
	return applyErr
}

// apply выполняет эффект шага, сохраняет или удаляет состояние и отправляет ответы.
// При ошибке эффекта на промежуточном шаге состояние остается прежним,
// на финальном шаге оно удаляется, чтобы не повторять запись.
func (b *Bot) apply(ctx context.Context, id model.Identity, user *tgbotapi.User, ref *MessageRef, next model.ConversationState, out flow.Outcome) error {
	if err := b.execute(ctx, id, user, out.Effect); err != nil {
		if out.Kind == flow.Terminate {
			if delErr := b.states.Delete(ctx, id); delErr != nil {
				log.Printf("Error deleting state %s: %v", id, delErr)
			}
		}
		if errors.Is(err, service.ErrInvalidSchedule) {
			return b.sendText(ctx, id.ChatID, "❌ Fecha u hora inválida. Probá de nuevo con /recordar.")
		}
		return b.fail(ctx, id.ChatID, err)
	}

	switch out.Kind {
	case flow.Advance:
		if err := b.states.Put(ctx, id, next); err != nil {
			return b.fail(ctx, id.ChatID, err)
		}
	case flow.Terminate:
		if err := b.states.Delete(ctx, id); err != nil {
			log.Printf("Error deleting state %s: %v", id, err)
		}
	}

	return b.sendReplies(ctx, id.ChatID, ref, out.Replies)
}

func (b *Bot) execute(ctx context.Context, id model.Identity, user *tgbotapi.User, effect flow.Effect) error {
	userID := userKey(user)
	switch effect.Kind {
	case flow.RegisterCategory:
		_, err := b.services.Expenses.EnsureCategory(ctx, userID, userName(user), effect.Category)
		return err
	case flow.CommitExpense:
		_, err := b.services.Expenses.AddExpense(ctx, userID, userName(user), effect.Amount, effect.Description, effect.Category)
		return err
	case flow.CommitReminder:
		_, err := b.services.Reminders.Add(ctx, model.Reminder{
			Date:           effect.Date,
			Time:           effect.Time,
			UserID:         userID,
			UserName:       userName(user),
			Body:           effect.Body,
			DeliveryTarget: strconv.FormatInt(id.ChatID, 10),
		})
		return err
	}
	return nil
}

func (b *Bot) cancel(ctx context.Context, id model.Identity, state model.ConversationState) error {
	if err := b.states.Delete(ctx, id); err != nil {
		return b.fail(ctx, id.ChatID, err)
	}
	if _, ok := state.(*model.ReminderEntryState); ok {
		return b.sendText(ctx, id.ChatID, "🚫 Recordatorio cancelado.")
	}
	return b.transport.Send(ctx, id.ChatID, flow.Reply{Text: "🚫 Flujo cancelado.", RemoveKeyboard: true})
}

func (b *Bot) sendReplies(ctx context.Context, chatID int64, ref *MessageRef, replies []flow.Reply) error {
	for _, r := range replies {
		var err error
		if r.EditInPlace && ref != nil {
			err = b.transport.Edit(ctx, *ref, r)
		} else {
			err = b.transport.Send(ctx, chatID, r)
		}
		if err != nil {
			log.Printf("Error sending reply to chat %d: %v", chatID, err)
			return err
		}
	}
	return nil
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string) error {
	return b.transport.Send(ctx, chatID, flow.Reply{Text: text})
}

func (b *Bot) sendMarkdown(ctx context.Context, chatID int64, text string) error {
	return b.transport.Send(ctx, chatID, flow.Reply{Text: text, Markdown: true})
}

// fail логирует ошибку хранилища и отвечает пользователю общим сообщением
func (b *Bot) fail(ctx context.Context, chatID int64, err error) error {
	log.Printf("Error handling chat %d: %v", chatID, err)
	return b.sendText(ctx, chatID, genericFailure)
}

func (b *Bot) lock(id model.Identity) func() {
	mu := b.stripe(id)
	mu.Lock()
	return mu.Unlock
}

// stripe выбирает мьютекс по хешу идентичности
func (b *Bot) stripe(id model.Identity) *sync.Mutex {
	h := fnv.New32a()
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(id.ChatID))
	binary.LittleEndian.PutUint64(buf[8:], uint64(id.UserID))
	h.Write(buf[:])
	return &b.locks[h.Sum32()%lockStripes]
}

// userName: имя и фамилия, иначе username, иначе id
func userName(user *tgbotapi.User) string {
	name := strings.TrimSpace(strings.Join([]string{user.FirstName, user.LastName}, " "))
	if name != "" {
		return name
	}
	if user.UserName != "" {
		return user.UserName
	}
	return strconv.FormatInt(user.ID, 10)
}
