package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ivanoskov/gastos_bot/internal/dateutil"
	"github.com/ivanoskov/gastos_bot/internal/model"
)

// markSentTimeout ограничивает запись статуса после отправки
const markSentTimeout = 15 * time.Second

// Notifier доставляет текст в чат
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Outcome - итог обработки одной строки напоминаний за проход
type Outcome int

const (
	NotDue Outcome = iota
	AlreadySent
	Delivered
	FailedRetryable
	SkippedPermanently
)

func (o Outcome) String() string {
	switch o {
	case NotDue:
		return "not_due"
	case AlreadySent:
		return "already_sent"
	case Delivered:
		return "delivered"
	case FailedRetryable:
		return "failed_retryable"
	case SkippedPermanently:
		return "skipped_permanently"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// RecordResult - итог по строке листа
type RecordResult struct {
	Row     int
	Outcome Outcome
	Err     error
}

// RunResult - сводка одного прохода планировщика
type RunResult struct {
	RunID   string
	Records []RecordResult
}

// Count возвращает число строк с данным итогом
func (r RunResult) Count(o Outcome) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Outcome == o {
			n++
		}
	}
	return n
}

// Delivered - число успешных доставок (ответ /run-reminders)
func (r RunResult) Delivered() int {
	return r.Count(Delivered)
}

// ReminderScheduler рассылает наступившие напоминания
type ReminderScheduler struct {
	repo     Repository
	notifier Notifier
	clock    *dateutil.Clock

	// run не дает двум проходам пересечься внутри процесса
	run sync.Mutex
}

func NewReminderScheduler(repo Repository, notifier Notifier, clock *dateutil.Clock) *ReminderScheduler {
	return &ReminderScheduler{
		repo:     repo,
		notifier: notifier,
		clock:    clock,
	}
}

// RunOnce читает все напоминания и доставляет наступившие.
// Строка переводится в ENVIADO только после успешной отправки; при ошибке
// отправки она остается PEND и будет повторена следующим проходом.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (RunResult, error) {
	s.run.Lock()
	defer s.run.Unlock()

	result := RunResult{RunID: uuid.NewString()}

	reminders, err := s.repo.GetReminders(ctx)
	if err != nil {
		return result, fmt.Errorf("run %s: %w", result.RunID, err)
	}

	now := s.clock.Now()
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	record := func(rec RecordResult) {
		mu.Lock()
		result.Records = append(result.Records, rec)
		mu.Unlock()
	}

	for _, r := range reminders {
		outcome, target := s.classify(r, now)
		if outcome != Delivered {
			record(RecordResult{Row: r.Row, Outcome: outcome})
			continue
		}

		wg.Add(1)
		go func(r model.Reminder, target int64) {
			defer wg.Done()
			record(s.deliver(ctx, result.RunID, r, target))
		}(r, target)
	}
	wg.Wait()

	sort.Slice(result.Records, func(i, j int) bool {
		return result.Records[i].Row < result.Records[j].Row
	})

	if n := result.Count(Delivered) + result.Count(FailedRetryable); n > 0 {
		log.Printf("Reminder run %s: delivered %d, failed %d, skipped %d",
			result.RunID, result.Count(Delivered), result.Count(FailedRetryable), result.Count(SkippedPermanently))
	}
	return result, nil
}

// classify решает судьбу строки; Delivered здесь означает "пора отправлять"
func (s *ReminderScheduler) classify(r model.Reminder, now time.Time) (Outcome, int64) {
	if r.IsSent() {
		return AlreadySent, 0
	}
	due, ok := s.clock.ComposeDueInstant(r.Date, r.Time)
	if !ok {
		log.Printf("Skipping reminder row %d: invalid date or time %q %q", r.Row+1, r.Date, r.Time)
		return SkippedPermanently, 0
	}
	if due.After(now) {
		return NotDue, 0
	}
	target, ok := r.Target()
	if !ok {
		log.Printf("Skipping reminder row %d: no delivery chat", r.Row+1)
		return SkippedPermanently, 0
	}
	return Delivered, target
}

func (s *ReminderScheduler) deliver(ctx context.Context, runID string, r model.Reminder, target int64) RecordResult {
	text := fmt.Sprintf("⏰ Recordatorio: %s\n(%s)", r.Body, r.When())
	if err := s.notifier.Notify(ctx, target, text); err != nil {
		log.Printf("Run %s: error sending reminder row %d: %v", runID, r.Row+1, err)
		return RecordResult{Row: r.Row, Outcome: FailedRetryable, Err: err}
	}

	// Сообщение уже ушло: отмена вызывающего не должна сорвать запись статуса
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markSentTimeout)
	defer cancel()

	sentAt := time.Now().UTC().Format(time.RFC3339)
	if err := s.repo.MarkReminderSent(markCtx, r.Row, sentAt); err != nil {
		// Сообщение уже ушло: следующий проход отправит его повторно
		log.Printf("Run %s: reminder row %d sent but not marked, may be delivered twice: %v", runID, r.Row+1, err)
		return RecordResult{Row: r.Row, Outcome: FailedRetryable, Err: err}
	}
	return RecordResult{Row: r.Row, Outcome: Delivered}
}

// Start запускает проходы с интервалом every до отмены ctx
func (s *ReminderScheduler) Start(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				log.Printf("Error running reminders: %v", err)
			}
		}
	}
}
