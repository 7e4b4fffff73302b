package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ivanoskov/gastos_bot/internal/calendar"
	"github.com/ivanoskov/gastos_bot/internal/flow"
	"github.com/ivanoskov/gastos_bot/internal/model"
	"github.com/ivanoskov/gastos_bot/internal/service"
)

const recentExpensesLimit = 5

const helpText = `📌 *Comandos*

🧭 *Gasto guiado*:
/nuevo  (registrar gastos)
O escribí: Gaste 3500,50 en almuerzo / comida

📊 *Consultar*:
/gastos (ver gastos en una categoria)
/ultimos (ver últimos gastos)
/grafico (gastos del mes por categoría)

⏭ *Cierre de mes*:
/cambiarmes  (mueve todos los gastos del mes anterior al historico)
/cambiarmeshoy  (mueve todos los gastos previos a hoy al historico)

⏰ *Recordatorios*:
/recordar  (registra un evento)
/recordatorios  (lista próximos eventos)

❌ *Cancelar flujo*:
/cancel`

var expenseQueryRe = regexp.MustCompile(`(?i)gastos (?:en|de) (.+)`)

func (b *Bot) route(ctx context.Context, id model.Identity, user *tgbotapi.User, intent intent, text string) error {
	switch intent {
	case intentHelp:
		return b.sendMarkdown(ctx, id.ChatID, helpText)
	case intentNewExpense:
		return b.handleNewExpense(ctx, id, user)
	case intentQuickExpense:
		return b.handleQuickExpense(ctx, id, user, text)
	case intentLastExpenses:
		return b.handleLastExpenses(ctx, id, user)
	case intentExpenseQuery:
		return b.handleExpenseQuery(ctx, id, user, text)
	case intentChart:
		return b.handleChart(ctx, id, user)
	case intentGuidedReminder:
		return b.handleGuidedReminder(ctx, id, user)
	case intentQuickReminder:
		return b.handleQuickReminder(ctx, id, user, text)
	case intentListReminders:
		return b.handleListReminders(ctx, id, user)
	case intentCloseMonth:
		return b.handleCloseMonth(ctx, id, user, service.ArchiveBeforeMonth)
	case intentCloseMonthToday:
		return b.handleCloseMonth(ctx, id, user, service.ArchiveBeforeToday)
	}
	return b.sendText(ctx, id.ChatID, "❓ No entendí. Escribí /start para ver comandos.")
}

func (b *Bot) handleNewExpense(ctx context.Context, id model.Identity, user *tgbotapi.User) error {
	categories, err := b.services.Expenses.GetCategories(ctx, userKey(user))
	if err != nil {
		return b.fail(ctx, id.ChatID, err)
	}
	state, out := b.expenseFlow.Start(categories)
	return b.apply(ctx, id, user, nil, state, out)
}

func (b *Bot) handleQuickExpense(ctx context.Context, id model.Identity, user *tgbotapi.User, text string) error {
	quick, err := service.ParseQuickExpense(text)
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		return b.sendText(ctx, id.ChatID, "❌ Monto inválido. Probá con 1234,56")
	case err != nil:
		return b.sendText(ctx, id.ChatID, `❌ Formato incorrecto. Usá: "Gaste 3500,50 en almuerzo / comida"`)
	}

	expense, err := b.services.Expenses.AddExpense(ctx, userKey(user), userName(user), quick.Amount, quick.Description, quick.Category)
	if err != nil {
		return b.fail(ctx, id.ChatID, err)
	}
	return b.sendText(ctx, id.ChatID, fmt.Sprintf("✅ Gasto registrado: %s en \"%s\" (%s)",
		service.FormatAmount(expense.Amount), expense.Description, expense.Category))
}

func (b *Bot) handleLastExpenses(ctx context.Context, id model.Identity, user *tgbotapi.User) error {
	expenses, err := b.services.Expenses.GetRecentExpenses(ctx, userKey(user), recentExpensesLimit)
	if err != nil {
		return b.fail(ctx, id.ChatID, err)
	}
	if len(expenses) == 0 {
		return b.sendText(ctx, id.ChatID, "📭 Todavía no registraste gastos.")
	}

	var sb strings.Builder
	sb.WriteString("📋 *Tus últimos gastos registrados:*\n\n")
	for i, e := range expenses {
		fmt.Fprintf(&sb, "#%d — %s\n💸 %s en *%s* _(cat: %s)_\n\n",
			i+1, flow.EscapeMarkdown(orDefault(e.Date, "📅 sin fecha")), service.FormatAmount(e.Amount),
			flow.EscapeMarkdown(orDefault(e.Description, "sin desc.")), flow.EscapeMarkdown(orDefault(e.Category, "sin cat.")))
	}
	return b.sendMarkdown(ctx, id.ChatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) handleExpenseQuery(ctx context.Context, id model.Identity, user *tgbotapi.User, text string) error {
	m := expenseQueryRe.FindStringSubmatch(text)
	if m == nil {
		categories, err := b.services.Expenses.GetCategories(ctx, userKey(user))
		if err != nil {
			return b.fail(ctx, id.ChatID, err)
		}
		if len(categories) == 0 {
			return b.sendText(ctx, id.ChatID, "No tenés categorías todavía. Creá una con /nuevo.")
		}
		var keyboard [][]string
		for _, c := range append(categories, "Total") {
			keyboard = append(keyboard, []string{"Gastos en " + c})
		}
		return b.transport.Send(ctx, id.ChatID, flow.Reply{Text: "📊 ¿Qué categoría querés ver?", Keyboard: keyboard})
	}

	category := strings.TrimSpace(m[1])
	if strings.EqualFold(category, "total") {
		total, err := b.services.Expenses.Total(ctx, userKey(user), "")
		if err != nil {
			return b.fail(ctx, id.ChatID, err)
		}
		return b.transport.Send(ctx, id.ChatID, flow.Reply{
			Text:           fmt.Sprintf("💸 Tu *total* es *%s*", service.FormatAmount(total)),
			Markdown:       true,
			RemoveKeyboard: true,
		})
	}

	total, err := b.services.Expenses.Total(ctx, userKey(user), category)
	if err != nil {
		return b.fail(ctx, id.ChatID, err)
	}
	return b.transport.Send(ctx, id.ChatID, flow.Reply{
		Text:           fmt.Sprintf("💸 Tus gastos en *%s* suman *%s*", flow.EscapeMarkdown(category), service.FormatAmount(total)),
		Markdown:       true,
		RemoveKeyboard: true,
	})
}

func (b *Bot) handleChart(ctx context.Context, id model.Identity, user *tgbotapi.User) error {
	stats, err := b.services.Expenses.GetMonthlyByCategory(ctx, userKey(user))
	if err != nil {
		return b.fail(ctx, id.ChatID, err)
	}
	png, err := b.services.Charts.GenerateCategoryPieChart(stats)
	if err != nil {
		return b.fail(ctx, id.ChatID, err)
	}
	if png == nil {
		return b.sendText(ctx, id.ChatID, "📭 No hay gastos este mes para graficar.")
	}

	now := b.clock.Now()
	caption := "📊 Gastos de " + calendar.MonthLabel(now.Year(), int(now.Month()))
	return b.transport.SendPhoto(ctx, id.ChatID, png, caption)
}

func (b *Bot) handleGuidedReminder(ctx context.Context, id model.Identity, user *tgbotapi.User) error {
	now := b.clock.Now()
	state, out := b.reminderFlow.Start(now.Year(), int(now.Month()))
	return b.apply(ctx, id, user, nil, state, out)
}

func (b *Bot) handleQuickReminder(ctx context.Context, id model.Identity, user *tgbotapi.User, text string) error {
	quick, err := service.ParseQuickReminder(text)
	if err != nil {
		return b.sendText(ctx, id.ChatID, "❌ Formato: \"Recordar 2026-08-30 10:00 pagar alquiler\" (hora opcional)\nO probá /recordar para usar el calendario.")
	}

	reminder, err := b.services.Reminders.Add(ctx, model.Reminder{
		Date:           quick.Date,
		Time:           quick.Time,
		UserID:         userKey(user),
		UserName:       userName(user),
		Body:           quick.Body,
		DeliveryTarget: strconv.FormatInt(id.ChatID, 10),
	})
	switch {
	case errors.Is(err, service.ErrInvalidSchedule), errors.Is(err, service.ErrEmptyReminder):
		return b.sendText(ctx, id.ChatID, "❌ Fecha u hora inválida.")
	case err != nil:
		return b.fail(ctx, id.ChatID, err)
	}
	return b.sendMarkdown(ctx, id.ChatID, fmt.Sprintf("⏰ Recordatorio guardado para *%s*: %s", reminder.When(), flow.EscapeMarkdown(reminder.Body)))
}

func (b *Bot) handleListReminders(ctx context.Context, id model.Identity, user *tgbotapi.User) error {
	pending, err := b.services.Reminders.Pending(ctx, userKey(user), service.PendingListLimit)
	if err != nil {
		return b.fail(ctx, id.ChatID, err)
	}
	if len(pending) == 0 {
		return b.sendText(ctx, id.ChatID, "No tenés recordatorios pendientes 👍")
	}

	lines := make([]string, 0, len(pending))
	for _, r := range pending {
		lines = append(lines, fmt.Sprintf("• %s — %s", flow.EscapeMarkdown(r.When()), flow.EscapeMarkdown(r.Body)))
	}
	return b.sendMarkdown(ctx, id.ChatID, "🗒️ *Tus próximos recordatorios:*\n"+strings.Join(lines, "\n"))
}

func (b *Bot) handleCloseMonth(ctx context.Context, id model.Identity, user *tgbotapi.User, mode service.ArchiveMode) error {
	result, err := b.services.Archiver.Archive(ctx, userKey(user), mode)

	var archiveErr *service.ArchiveError
	if errors.As(err, &archiveErr) && archiveErr.Stage == "delete" {
		log.Printf("Error closing month for chat %d: %v", id.ChatID, err)
		return b.sendMarkdown(ctx, id.ChatID, fmt.Sprintf(
			"⚠️ Se copiaron *%d* gastos a *%s* pero no se pudieron borrar de *%s*. Revisá las hojas antes de volver a intentar.",
			archiveErr.Copied, flow.EscapeMarkdown(result.Sheet), model.SheetExpenses))
	}
	if err != nil {
		return b.fail(ctx, id.ChatID, err)
	}

	if result.Count == 0 {
		cut := "anteriores a " + result.Cutoff
		if mode == service.ArchiveBeforeToday {
			cut = "antes de hoy (" + result.Cutoff + ")"
		}
		return b.sendText(ctx, id.ChatID, fmt.Sprintf("No encontré gastos %s para archivar.", cut))
	}

	cut := fmt.Sprintf("previos a %s (mes anterior)", result.Cutoff)
	if mode == service.ArchiveBeforeToday {
		cut = fmt.Sprintf("previos a hoy (%s)", result.Cutoff)
	}
	return b.sendMarkdown(ctx, id.ChatID, fmt.Sprintf(
		"📦 *Archivados %d gastos* %s.\n💵 Importe movido: *%s*\n📄 Hoja: *%s*",
		result.Count, cut, service.FormatAmount(result.Total), flow.EscapeMarkdown(result.Sheet)))
}

// userKey - id пользователя в виде, в котором он хранится в таблице
func userKey(user *tgbotapi.User) string {
	return strconv.FormatInt(user.ID, 10)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
