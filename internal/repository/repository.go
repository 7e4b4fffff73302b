package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ivanoskov/gastos_bot/internal/model"
)

// Table - построчное табличное хранилище (таблица с листами).
// Диапазоны передаются в нотации A1 без имени листа.
type Table interface {
	ReadRange(ctx context.Context, sheet, rng string) ([][]string, error)
	AppendRows(ctx context.Context, sheet, rng string, rows [][]string) error
	UpdateRange(ctx context.Context, sheet, rng string, rows [][]string) error
	BatchUpdate(ctx context.Context, requests []Request) ([]Reply, error)
	SheetID(ctx context.Context, title string) (int64, bool, error)
}

// Request - одна структурная правка; заполнено ровно одно поле
type Request struct {
	AddSheet   *AddSheetRequest
	DeleteRows *DeleteRowsRequest
}

// AddSheetRequest создает лист
type AddSheetRequest struct {
	Title string
}

// DeleteRowsRequest удаляет строки [Start, End) листа
type DeleteRowsRequest struct {
	SheetID int64
	Start   int
	End     int
}

// Reply - ответ на Request; SheetID заполнен для AddSheet
type Reply struct {
	SheetID int64
}

// Repository дает типизированный доступ к листам Gastos, Categorias,
// Recordatorios и историческому листу
type Repository struct {
	table        Table
	archiveSheet string
}

func New(table Table, archiveSheet string) *Repository {
	if archiveSheet == "" {
		archiveSheet = model.DefaultArchiveSheet
	}
	return &Repository{
		table:        table,
		archiveSheet: archiveSheet,
	}
}

// ArchiveSheet возвращает имя исторического листа
func (r *Repository) ArchiveSheet() string {
	return r.archiveSheet
}

// EnsureSheets создает рабочие листы с заголовками, если их еще нет
func (r *Repository) EnsureSheets(ctx context.Context) error {
	sheets := []struct {
		title  string
		header []string
	}{
		{model.SheetExpenses, model.ExpenseHeader},
		{model.SheetCategories, model.CategoryHeader},
		{model.SheetReminders, model.ReminderHeader},
	}
	for _, s := range sheets {
		if _, err := r.ensureSheet(ctx, s.title, s.header); err != nil {
			return err
		}
	}
	return nil
}

// EnsureArchiveSheet создает исторический лист при первом архивировании
func (r *Repository) EnsureArchiveSheet(ctx context.Context) (int64, error) {
	return r.ensureSheet(ctx, r.archiveSheet, model.ArchiveHeader)
}

func (r *Repository) ensureSheet(ctx context.Context, title string, header []string) (int64, error) {
	id, ok, err := r.table.SheetID(ctx, title)
	if err != nil {
		return 0, fmt.Errorf("failed to look up sheet %s: %w", title, err)
	}
	if ok {
		return id, nil
	}

	replies, err := r.table.BatchUpdate(ctx, []Request{{AddSheet: &AddSheetRequest{Title: title}}})
	if err != nil {
		return 0, fmt.Errorf("failed to create sheet %s: %w", title, err)
	}
	if len(replies) == 0 {
		return 0, fmt.Errorf("failed to create sheet %s: empty reply", title)
	}

	headerRange := fmt.Sprintf("A1:%s1", columnName(len(header)-1))
	if err := r.table.UpdateRange(ctx, title, headerRange, [][]string{header}); err != nil {
		return 0, fmt.Errorf("failed to write header of %s: %w", title, err)
	}
	return replies[0].SheetID, nil
}

// GetExpenses читает все строки расходов (без заголовка)
func (r *Repository) GetExpenses(ctx context.Context) ([]model.Expense, error) {
	rows, err := r.body(ctx, model.SheetExpenses, "A:F")
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	expenses := make([]model.Expense, 0, len(rows))
	for i, row := range rows {
		expenses = append(expenses, model.ExpenseFromRow(row, i+1))
	}
	return expenses, nil
}

func (r *Repository) CreateExpense(ctx context.Context, expense model.Expense) error {
	if err := r.table.AppendRows(ctx, model.SheetExpenses, "A:F", [][]string{expense.ToRow()}); err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// DeleteExpenseRows удаляет строки листа Gastos одной пачкой.
// Диапазоны применяются в переданном порядке.
func (r *Repository) DeleteExpenseRows(ctx context.Context, ranges []model.RowRange) error {
	if len(ranges) == 0 {
		return nil
	}
	sheetID, ok, err := r.table.SheetID(ctx, model.SheetExpenses)
	if err != nil {
		return fmt.Errorf("failed to look up sheet %s: %w", model.SheetExpenses, err)
	}
	if !ok {
		return fmt.Errorf("sheet %s not found", model.SheetExpenses)
	}

	requests := make([]Request, 0, len(ranges))
	for _, rr := range ranges {
		requests = append(requests, Request{DeleteRows: &DeleteRowsRequest{
			SheetID: sheetID,
			Start:   rr.Start,
			End:     rr.End,
		}})
	}
	if _, err := r.table.BatchUpdate(ctx, requests); err != nil {
		return fmt.Errorf("failed to delete expense rows: %w", err)
	}
	return nil
}

// AppendArchive дописывает записи в исторический лист
func (r *Repository) AppendArchive(ctx context.Context, records []model.ArchivedExpense) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.ToRow())
	}
	if err := r.table.AppendRows(ctx, r.archiveSheet, "A:G", rows); err != nil {
		return fmt.Errorf("failed to append archive rows: %w", err)
	}
	return nil
}

func (r *Repository) GetCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.body(ctx, model.SheetCategories, "A:E")
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	categories := make([]model.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, model.CategoryFromRow(row))
	}
	return categories, nil
}

func (r *Repository) CreateCategory(ctx context.Context, category model.Category) error {
	if err := r.table.AppendRows(ctx, model.SheetCategories, "A:E", [][]string{category.ToRow()}); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *Repository) GetReminders(ctx context.Context) ([]model.Reminder, error) {
	rows, err := r.body(ctx, model.SheetReminders, "A:H")
	if err != nil {
		return nil, fmt.Errorf("failed to get reminders: %w", err)
	}
	reminders := make([]model.Reminder, 0, len(rows))
	for i, row := range rows {
		reminders = append(reminders, model.ReminderFromRow(row, i+1))
	}
	return reminders, nil
}

func (r *Repository) CreateReminder(ctx context.Context, reminder model.Reminder) error {
	if err := r.table.AppendRows(ctx, model.SheetReminders, "A:H", [][]string{reminder.ToRow()}); err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

// MarkReminderSent одной записью диапазона F:G переводит строку в ENVIADO
func (r *Repository) MarkReminderSent(ctx context.Context, row int, sentAt string) error {
	n := strconv.Itoa(row + 1)
	values := [][]string{{string(model.ReminderSent), sentAt}}
	if err := r.table.UpdateRange(ctx, model.SheetReminders, "F"+n+":G"+n, values); err != nil {
		return fmt.Errorf("failed to mark reminder row %d as sent: %w", row+1, err)
	}
	return nil
}

// body читает лист и отбрасывает строку заголовка
func (r *Repository) body(ctx context.Context, sheet, rng string) ([][]string, error) {
	rows, err := r.table.ReadRange(ctx, sheet, rng)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}
