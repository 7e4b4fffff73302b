package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Expense - строка листа Gastos
type Expense struct {
	Date        string
	UserID      string
	UserName    string
	Amount      decimal.Decimal
	Description string
	Category    string

	// Row - индекс строки листа с нуля (заголовок - 0), заполняется при чтении
	Row int
}

// ToRow кодирует расход в порядке колонок Gastos!A:F
func (e Expense) ToRow() []string {
	return []string{e.Date, e.UserID, e.UserName, e.Amount.StringFixed(2), e.Description, e.Category}
}

// ExpenseFromRow разбирает строку листа. Нечитаемая сумма превращается в ноль.
func ExpenseFromRow(row []string, index int) Expense {
	amount, err := decimal.NewFromString(strings.TrimSpace(cell(row, 3)))
	if err != nil {
		amount = decimal.Zero
	}
	return Expense{
		Date:        strings.TrimSpace(cell(row, 0)),
		UserID:      strings.TrimSpace(cell(row, 1)),
		UserName:    cell(row, 2),
		Amount:      amount,
		Description: cell(row, 4),
		Category:    strings.TrimSpace(cell(row, 5)),
		Row:         index,
	}
}

// ArchivedExpense - расход, перенесенный в исторический лист
type ArchivedExpense struct {
	Expense
	ArchivedAt string
}

// ToRow кодирует запись архива: колонки Gastos плюс ArchivedAt
func (a ArchivedExpense) ToRow() []string {
	return append(a.Expense.ToRow(), a.ArchivedAt)
}

// RowRange - полуинтервал строк листа [Start, End) с нуля
type RowRange struct {
	Start int
	End   int
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
