package flow

import (
	"fmt"
	"strings"

	"github.com/ivanoskov/gastos_bot/internal/calendar"
	"github.com/ivanoskov/gastos_bot/internal/model"
)

// Event - входящее событие диалога напоминания: текст или действие календаря
type Event struct {
	Text   string
	Action *calendar.Action
}

// TextEvent оборачивает текстовое сообщение
func TextEvent(s string) Event {
	return Event{Text: s}
}

// ActionEvent оборачивает декодированный callback
func ActionEvent(a calendar.Action) Event {
	return Event{Action: &a}
}

// ReminderFlow - создание напоминания через календарь:
//
//	picking_date --pick--> picking_time --time--> entering_text --text--> commit
//
// nav и changeDate перерисовывают сообщение календаря на месте.
type ReminderFlow struct{}

// Start показывает календарь месяца year/month
func (ReminderFlow) Start(year, month int) (*model.ReminderEntryState, Outcome) {
	state := &model.ReminderEntryState{
		Step:      model.StepPickingDate,
		ViewYear:  year,
		ViewMonth: month,
	}
	return state, advance(ViewReply(calendar.RenderMonth(year, month), false))
}

// Step применяет событие к состоянию
func (f ReminderFlow) Step(state *model.ReminderEntryState, ev Event) (*model.ReminderEntryState, Outcome) {
	if ev.Action != nil {
		return f.onAction(state, *ev.Action)
	}
	return f.onText(state, ev.Text)
}

func (ReminderFlow) onAction(state *model.ReminderEntryState, a calendar.Action) (*model.ReminderEntryState, Outcome) {
	next := *state

	switch a.Kind {
	case calendar.NoOp:
		return state, retry()

	case calendar.Navigate:
		if state.Step == model.StepEnteringText {
			return state, retry()
		}
		next.Step = model.StepPickingDate
		next.ViewYear, next.ViewMonth = a.Year, a.Month
		next.Date, next.Time = "", ""
		return &next, advance(ViewReply(calendar.RenderMonth(a.Year, a.Month), true))

	case calendar.Pick:
		if state.Step == model.StepEnteringText {
			return state, retry()
		}
		next.Step = model.StepPickingTime
		next.Date = a.Date()
		next.ViewYear, next.ViewMonth = a.Year, a.Month
		return &next, advance(ViewReply(calendar.RenderTimePicker(next.Date), true))

	case calendar.ChangeDate:
		if state.Step != model.StepPickingTime {
			return state, retry()
		}
		next.Step = model.StepPickingDate
		next.Date = ""
		return &next, advance(ViewReply(calendar.RenderMonth(state.ViewYear, state.ViewMonth), true))

	case calendar.PickTime:
		if state.Step != model.StepPickingTime {
			return state, retry()
		}
		next.Step = model.StepEnteringText
		next.Time = a.Time
		note := "Sin hora (09:00)"
		if a.Time != "" {
			note = "Hora " + a.Time
		}
		out := advance(Reply{Text: "📝 ¿Qué te tengo que recordar?", ForceReply: true})
		out.AckNote = note
		return &next, out
	}
	return state, retry()
}

func (ReminderFlow) onText(state *model.ReminderEntryState, input string) (*model.ReminderEntryState, Outcome) {
	input = strings.TrimSpace(input)

	switch state.Step {
	case model.StepPickingDate:
		return state, retry(text("📅 Elegí un día en el calendario (o /cancel)."))
	case model.StepPickingTime:
		return state, retry(text("🕒 Elegí una hora con los botones (o /cancel)."))
	case model.StepEnteringText:
		if input == "" {
			return state, retry(Reply{Text: "❌ Texto vacío. Decime qué recordarte.", ForceReply: true})
		}
		when := state.Date
		if state.Time != "" {
			when += " " + state.Time
		}
		out := terminate(Reply{
			Text:     fmt.Sprintf("⏰ Recordatorio guardado para *%s*: %s", when, EscapeMarkdown(input)),
			Markdown: true,
		})
		out.Effect = Effect{Kind: CommitReminder, Date: state.Date, Time: state.Time, Body: input}
		return nil, out
	}
	return nil, terminate(text("🚫 Flujo cancelado."))
}

// Resume создает пустое состояние выбора даты, когда пришел callback от
// старого календаря, а состояния уже нет (например, после перезапуска)
func (ReminderFlow) Resume(year, month int) *model.ReminderEntryState {
	return &model.ReminderEntryState{
		Step:      model.StepPickingDate,
		ViewYear:  year,
		ViewMonth: month,
	}
}
