package bot

import (
	"regexp"
	"strings"
)

type intent int

const (
	intentUnknown intent = iota
	intentHelp
	intentCancel
	intentNewExpense
	intentQuickExpense
	intentLastExpenses
	intentExpenseQuery
	intentChart
	intentGuidedReminder
	intentQuickReminder
	intentListReminders
	intentCloseMonth
	intentCloseMonthToday
)

var commands = map[string]intent{
	"/start":         intentHelp,
	"/ayuda":         intentHelp,
	"/help":          intentHelp,
	"/cancel":        intentCancel,
	"/nuevo":         intentNewExpense,
	"/ultimos":       intentLastExpenses,
	"/gastos":        intentExpenseQuery,
	"/grafico":       intentChart,
	"/recordar":      intentGuidedReminder,
	"/recordatorios": intentListReminders,
	"/cambiarmes":    intentCloseMonth,
	"/cambiarmeshoy": intentCloseMonthToday,
}

var (
	quickExpenseIntentRe  = regexp.MustCompile(`(?i)^gast[eé]\s+`)
	expenseQueryIntentRe  = regexp.MustCompile(`(?i)^gastos(\s|$)`)
	quickReminderIntentRe = regexp.MustCompile(`(?i)^recordar\s+`)
)

// detectIntent классифицирует входящий текст. Команды сравниваются без
// учета регистра и суффикса @имя_бота.
func detectIntent(text string) intent {
	t := strings.TrimSpace(text)
	if t == "" {
		return intentUnknown
	}

	if strings.HasPrefix(t, "/") {
		cmd := strings.ToLower(strings.Fields(t)[0])
		if i := strings.Index(cmd, "@"); i >= 0 {
			cmd = cmd[:i]
		}
		return commands[cmd]
	}

	switch {
	case strings.HasPrefix(strings.ToLower(t), "ayuda"):
		return intentHelp
	case quickExpenseIntentRe.MatchString(t):
		return intentQuickExpense
	case expenseQueryIntentRe.MatchString(t):
		return intentExpenseQuery
	case quickReminderIntentRe.MatchString(t):
		return intentQuickReminder
	}
	return intentUnknown
}
