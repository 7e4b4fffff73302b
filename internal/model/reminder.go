package model

import (
	"strconv"
	"strings"
)

// ReminderStatus хранится в колонке F листа Recordatorios
type ReminderStatus string

const (
	ReminderPending ReminderStatus = "PEND"
	ReminderSent    ReminderStatus = "ENVIADO"
)

// Reminder - строка листа Recordatorios
type Reminder struct {
	Date           string
	Time           string // пусто - 09:00
	UserID         string
	UserName       string
	Body           string
	Status         ReminderStatus
	SentAt         string
	DeliveryTarget string

	// Row - индекс строки листа с нуля, заполняется при чтении
	Row int
}

// ToRow кодирует напоминание в порядке колонок Recordatorios!A:H
func (r Reminder) ToRow() []string {
	status := r.Status
	if status == "" {
		status = ReminderPending
	}
	return []string{r.Date, r.Time, r.UserID, r.UserName, r.Body, string(status), r.SentAt, r.DeliveryTarget}
}

// ReminderFromRow разбирает строку листа. Пустой статус считается ожидающим.
func ReminderFromRow(row []string, index int) Reminder {
	status := ReminderStatus(strings.TrimSpace(cell(row, 5)))
	if status == "" {
		status = ReminderPending
	}
	return Reminder{
		Date:           strings.TrimSpace(cell(row, 0)),
		Time:           strings.TrimSpace(cell(row, 1)),
		UserID:         strings.TrimSpace(cell(row, 2)),
		UserName:       cell(row, 3),
		Body:           cell(row, 4),
		Status:         status,
		SentAt:         cell(row, 6),
		DeliveryTarget: strings.TrimSpace(cell(row, 7)),
		Row:            index,
	}
}

// IsSent сообщает, было ли напоминание уже доставлено
func (r Reminder) IsSent() bool {
	return r.Status == ReminderSent
}

// Target возвращает чат доставки; для старых строк без чата - id пользователя
func (r Reminder) Target() (int64, bool) {
	target := r.DeliveryTarget
	if target == "" {
		target = r.UserID
	}
	id, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// When возвращает дату и время для показа пользователю
func (r Reminder) When() string {
	if r.Time == "" {
		return r.Date
	}
	return r.Date + " " + r.Time
}
