package flow

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ivanoskov/gastos_bot/internal/calendar"
	"github.com/shopspring/decimal"
)

// Reply - одно исходящее сообщение. Транспорт сам решает, как нарисовать клавиатуры.
type Reply struct {
	Text     string
	Markdown bool

	// Keyboard - обычная клавиатура с кнопками-текстами
	Keyboard [][]string
	// Inline - inline-кнопки с токенами календаря
	Inline [][]calendar.Button

	RemoveKeyboard bool
	ForceReply     bool
	// EditInPlace - перерисовать сообщение, из которого пришел callback
	EditInPlace bool
}

// ViewReply превращает представление календаря в ответ
func ViewReply(v calendar.View, edit bool) Reply {
	return Reply{
		Text:        v.Text,
		Markdown:    v.Markdown,
		Inline:      v.Rows,
		EditInPlace: edit,
	}
}

// Kind - тип перехода
type Kind int

const (
	// Advance - состояние изменилось и сохраняется
	Advance Kind = iota
	// Retry - ввод отклонен, шаг не меняется
	Retry
	// Terminate - диалог закончен, состояние удаляется
	Terminate
)

// EffectKind - побочный эффект, который выполняет роутер
type EffectKind int

const (
	NoEffect EffectKind = iota
	RegisterCategory
	CommitExpense
	CommitReminder
)

// Effect - данные для записи в хранилище
type Effect struct {
	Kind EffectKind

	Category    string
	Description string
	Amount      decimal.Decimal

	Date string
	Time string
	Body string
}

// Outcome - результат шага. Replies отправляются только если эффект
// выполнен успешно (или его нет).
type Outcome struct {
	Kind    Kind
	Replies []Reply
	Effect  Effect
	// AckNote - короткая подпись к ответу на callback
	AckNote string
}

func advance(replies ...Reply) Outcome {
	return Outcome{Kind: Advance, Replies: replies}
}

func retry(replies ...Reply) Outcome {
	return Outcome{Kind: Retry, Replies: replies}
}

func terminate(replies ...Reply) Outcome {
	return Outcome{Kind: Terminate, Replies: replies}
}

func text(s string) Reply {
	return Reply{Text: s}
}

// EscapeMarkdown экранирует пользовательский текст для ответа с Markdown
func EscapeMarkdown(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
