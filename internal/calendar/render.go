package calendar

import (
	"fmt"
	"strconv"
	"time"
)

// Button - одна кнопка inline-клавиатуры: подпись и токен
type Button struct {
	Text  string
	Token string
}

// View - текст сообщения и сетка кнопок
type View struct {
	Text     string
	Markdown bool
	Rows     [][]Button
}

// QuickTimes - часы, предлагаемые после выбора даты
var QuickTimes = []string{"08:00", "09:00", "12:00", "18:00", "20:00"}

var monthNames = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

var weekdayLabels = []string{"Lu", "Ma", "Mi", "Ju", "Vi", "Sa", "Do"}

// MonthLabel возвращает подпись месяца, например "Octubre 2026"
func MonthLabel(year, month int) string {
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}

// RenderMonth рисует сетку месяца: шапка с навигацией, дни недели и до шести недель.
// Неделя начинается с понедельника, пустые ячейки получают noop-токен.
func RenderMonth(year, month int) View {
	noop := Encode(Action{Kind: NoOp})
	rows := [][]Button{
		{
			{Text: "◀︎", Token: Encode(NavigateTo(year, month-1))},
			{Text: MonthLabel(year, month), Token: noop},
			{Text: "▶︎", Token: Encode(NavigateTo(year, month+1))},
		},
	}

	weekdays := make([]Button, 0, len(weekdayLabels))
	for _, label := range weekdayLabels {
		weekdays = append(weekdays, Button{Text: label, Token: noop})
	}
	rows = append(rows, weekdays)

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	lead := (int(first.Weekday()) + 6) % 7

	day := 1
	for week := 0; week < 6 && day <= lastDay; week++ {
		row := make([]Button, 0, 7)
		for col := 0; col < 7; col++ {
			if (week == 0 && col < lead) || day > lastDay {
				row = append(row, Button{Text: " ", Token: noop})
				continue
			}
			row = append(row, Button{Text: strconv.Itoa(day), Token: Encode(PickDay(year, month, day))})
			day++
		}
		rows = append(rows, row)
	}

	return View{Text: "📅 Elegí un día", Rows: rows}
}

// RenderTimePicker рисует выбор времени для уже выбранной даты
func RenderTimePicker(date string) View {
	quick := make([]Button, 0, len(QuickTimes))
	for _, t := range QuickTimes {
		quick = append(quick, Button{Text: t, Token: Encode(PickTimeOfDay(t))})
	}
	return View{
		Text:     fmt.Sprintf("🕒 Fecha: *%s*\nElegí una hora:", date),
		Markdown: true,
		Rows: [][]Button{
			quick,
			{{Text: "⏱ Sin hora (09:00)", Token: Encode(PickTimeOfDay(""))}},
			{{Text: "↩︎ Cambiar fecha", Token: Encode(Action{Kind: ChangeDate})}},
		},
	}
}
