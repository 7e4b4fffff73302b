package service

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/ivanoskov/gastos_bot/internal/dateutil"
	"github.com/ivanoskov/gastos_bot/internal/model"
)

// PendingListLimit - сколько напоминаний показывает /recordatorios
const PendingListLimit = 15

var (
	// ErrInvalidSchedule - дата или время напоминания не складываются в момент
	ErrInvalidSchedule = errors.New("invalid reminder date or time")
	// ErrEmptyReminder - пустой текст напоминания
	ErrEmptyReminder = errors.New("empty reminder text")
	// ErrQuickReminderFormat - сообщение не подходит под "recordar AAAA-MM-DD [HH:MM] texto"
	ErrQuickReminderFormat = errors.New("quick reminder format")
)

var quickReminderRe = regexp.MustCompile(`(?i)^recordar\s+(\d{4}-\d{2}-\d{2})(?:[ T](\d{2}:\d{2}))?\s+(.+)$`)

// QuickReminder - разобранная строка быстрого напоминания
type QuickReminder struct {
	Date string
	Time string
	Body string
}

// ParseQuickReminder разбирает "recordar 2026-10-20 18:30 pagar la luz"
func ParseQuickReminder(text string) (QuickReminder, error) {
	m := quickReminderRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return QuickReminder{}, ErrQuickReminderFormat
	}
	return QuickReminder{Date: m[1], Time: m[2], Body: strings.TrimSpace(m[3])}, nil
}

// ReminderBook создает напоминания и показывает ожидающие
type ReminderBook struct {
	repo  Repository
	clock *dateutil.Clock
}

func NewReminderBook(repo Repository, clock *dateutil.Clock) *ReminderBook {
	return &ReminderBook{
		repo:  repo,
		clock: clock,
	}
}

// Add проверяет дату и время и сохраняет напоминание со статусом PEND.
// Время в прошлом допустимо: планировщик доставит его при следующем проходе.
func (b *ReminderBook) Add(ctx context.Context, reminder model.Reminder) (model.Reminder, error) {
	reminder.Body = strings.TrimSpace(reminder.Body)
	if reminder.Body == "" {
		return model.Reminder{}, ErrEmptyReminder
	}
	if reminder.Time != "" && !dateutil.IsTimeOfDay(reminder.Time) {
		return model.Reminder{}, ErrInvalidSchedule
	}
	if _, ok := b.clock.ComposeDueInstant(reminder.Date, reminder.Time); !ok {
		return model.Reminder{}, ErrInvalidSchedule
	}

	reminder.Status = model.ReminderPending
	reminder.SentAt = ""
	if err := b.repo.CreateReminder(ctx, reminder); err != nil {
		return model.Reminder{}, err
	}
	return reminder, nil
}

// Pending возвращает до limit недоставленных напоминаний пользователя по возрастанию даты
func (b *ReminderBook) Pending(ctx context.Context, userID string, limit int) ([]model.Reminder, error) {
	reminders, err := b.repo.GetReminders(ctx)
	if err != nil {
		return nil, err
	}

	var pending []model.Reminder
	for _, r := range reminders {
		if r.UserID == userID && !r.IsSent() {
			pending = append(pending, r)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Date+" "+dateutil.NormalizeTime(pending[i].Time) <
			pending[j].Date+" "+dateutil.NormalizeTime(pending[j].Time)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}
