package flow

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ivanoskov/gastos_bot/internal/model"
	"github.com/ivanoskov/gastos_bot/internal/service"
	"github.com/shopspring/decimal"
)

const (
	NewCategoryButton = "➕ Nueva categoría"
	ConfirmButton     = "✅ Confirmar"
	RejectButton      = "❌ Cancelar"

	minNameLength = 2
)

// ExpenseFlow - пошаговое добавление расхода:
//
//	choosing_category -> entering_description -> entering_amount -> confirming
//	choosing_category -> entering_new_category -> entering_description
type ExpenseFlow struct{}

// Start открывает диалог. Без категорий сразу просит первую.
func (ExpenseFlow) Start(categories []string) (*model.ExpenseEntryState, Outcome) {
	state := &model.ExpenseEntryState{
		KnownCategories: append([]string(nil), categories...),
	}
	if len(categories) == 0 {
		state.Step = model.StepEnteringNewCategory
		return state, advance(Reply{
			Text:           "❗ No tenés categorías. Escribí el nombre de tu primera categoría:",
			RemoveKeyboard: true,
		})
	}
	state.Step = model.StepChoosingCategory
	return state, advance(Reply{
		Text:     "📂 ¿En qué categoría fue el gasto?\n(Usá /cancel para cancelar)",
		Keyboard: categoryKeyboard(categories),
	})
}

// Step обрабатывает текст пользователя на текущем шаге
func (f ExpenseFlow) Step(state *model.ExpenseEntryState, input string) (*model.ExpenseEntryState, Outcome) {
	input = strings.TrimSpace(input)
	next := *state

	switch state.Step {
	case model.StepChoosingCategory:
		if strings.EqualFold(input, NewCategoryButton) {
			next.Step = model.StepEnteringNewCategory
			return &next, advance(Reply{
				Text:           "✍️ Escribí el nombre de la nueva categoría:",
				RemoveKeyboard: true,
			})
		}
		name, ok := lookup(state.KnownCategories, input)
		if !ok {
			return state, retry(Reply{
				Text:     "❌ Elegí una categoría del teclado o tocá " + NewCategoryButton + ".",
				Keyboard: categoryKeyboard(state.KnownCategories),
			})
		}
		next.Category = name
		next.Step = model.StepEnteringDescription
		return &next, advance(Reply{Text: "📝 ¿Qué compraste?", RemoveKeyboard: true})

	case model.StepEnteringNewCategory:
		if utf8.RuneCountInString(input) < minNameLength {
			return state, retry(text("❌ El nombre debe tener al menos 2 caracteres."))
		}
		if name, ok := lookup(state.KnownCategories, input); ok {
			input = name
		}
		next.Category = input
		next.KnownCategories = append(append([]string(nil), state.KnownCategories...), input)
		next.Step = model.StepEnteringDescription
		out := advance(Reply{Text: "📝 ¿Qué compraste?", RemoveKeyboard: true})
		out.Effect = Effect{Kind: RegisterCategory, Category: input}
		return &next, out

	case model.StepEnteringDescription:
		if utf8.RuneCountInString(input) < minNameLength {
			return state, retry(text("❌ Descripción muy corta. Contame qué compraste."))
		}
		next.Description = input
		next.Step = model.StepEnteringAmount
		return &next, advance(text("💸 ¿Cuánto gastaste?"))

	case model.StepEnteringAmount:
		amount, err := service.ParseAmount(input)
		if err != nil {
			return state, retry(text("❌ Monto inválido. Probá con 1234,56"))
		}
		next.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
		next.Step = model.StepConfirming
		return &next, advance(Reply{
			Text:     fmt.Sprintf("🧾 *Confirmá*: %s — \"%s\" (%s)", service.FormatAmount(amount), EscapeMarkdown(next.Description), EscapeMarkdown(next.Category)),
			Markdown: true,
			Keyboard: [][]string{{ConfirmButton, RejectButton}},
		})

	case model.StepConfirming:
		switch {
		case isConfirm(input):
			out := terminate(Reply{
				Text:           fmt.Sprintf("✅ Gasto registrado: %s en \"%s\" (%s)", service.FormatAmount(state.Amount.Decimal), state.Description, state.Category),
				RemoveKeyboard: true,
			})
			out.Effect = Effect{
				Kind:        CommitExpense,
				Category:    state.Category,
				Description: state.Description,
				Amount:      state.Amount.Decimal,
			}
			return nil, out
		case isReject(input):
			return nil, terminate(Reply{Text: "🚫 Gasto cancelado.", RemoveKeyboard: true})
		}
		return state, retry(Reply{
			Text:     "Tocá " + ConfirmButton + " o " + RejectButton + ".",
			Keyboard: [][]string{{ConfirmButton, RejectButton}},
		})
	}

	// Неизвестный шаг (например, после смены версии) - начинаем заново
	return nil, terminate(Reply{Text: "🚫 Flujo cancelado.", RemoveKeyboard: true})
}

func categoryKeyboard(categories []string) [][]string {
	var rows [][]string
	for i := 0; i < len(categories); i += 2 {
		end := i + 2
		if end > len(categories) {
			end = len(categories)
		}
		rows = append(rows, append([]string(nil), categories[i:end]...))
	}
	return append(rows, []string{NewCategoryButton})
}

// lookup ищет категорию без учета регистра и возвращает ее каноническое имя
func lookup(categories []string, name string) (string, bool) {
	for _, c := range categories {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

func isConfirm(s string) bool {
	switch strings.ToLower(s) {
	case strings.ToLower(ConfirmButton), "confirmar", "si", "sí", "ok":
		return true
	}
	return false
}

func isReject(s string) bool {
	switch strings.ToLower(s) {
	case strings.ToLower(RejectButton), "cancelar", "no":
		return true
	}
	return false
}
