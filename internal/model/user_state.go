package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Identity - ключ диалога: чат и пользователь
type Identity struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}

func (i Identity) String() string {
	return fmt.Sprintf("%d:%d", i.ChatID, i.UserID)
}

// ConversationState - состояние одного из пошаговых диалогов.
// Реализации: *ExpenseEntryState и *ReminderEntryState.
type ConversationState interface {
	StateKind() string
}

const (
	KindExpenseEntry  = "expense_entry"
	KindReminderEntry = "reminder_entry"
)

// ExpenseStep - шаг диалога добавления расхода
type ExpenseStep string

const (
	StepChoosingCategory    ExpenseStep = "choosing_category"
	StepEnteringNewCategory ExpenseStep = "entering_new_category"
	StepEnteringDescription ExpenseStep = "entering_description"
	StepEnteringAmount      ExpenseStep = "entering_amount"
	StepConfirming          ExpenseStep = "confirming"
)

// ExpenseEntryState хранит накопленные поля расхода между сообщениями
type ExpenseEntryState struct {
	Step            ExpenseStep         `json:"step"`
	KnownCategories []string            `json:"known_categories"`
	Category        string              `json:"category,omitempty"`
	Description     string              `json:"description,omitempty"`
	Amount          decimal.NullDecimal `json:"amount"`
}

func (*ExpenseEntryState) StateKind() string { return KindExpenseEntry }

// ReminderStep - шаг диалога создания напоминания
type ReminderStep string

const (
	StepPickingDate  ReminderStep = "picking_date"
	StepPickingTime  ReminderStep = "picking_time"
	StepEnteringText ReminderStep = "entering_text"
)

// ReminderEntryState хранит выбранные дату и время и показываемый месяц
type ReminderEntryState struct {
	Step      ReminderStep `json:"step"`
	ViewYear  int          `json:"view_year"`
	ViewMonth int          `json:"view_month"`
	Date      string       `json:"date,omitempty"`
	Time      string       `json:"time,omitempty"` // пусто - 09:00
}

func (*ReminderEntryState) StateKind() string { return KindReminderEntry }
