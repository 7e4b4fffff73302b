package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/ivanoskov/gastos_bot/internal/dateutil"
	"github.com/ivanoskov/gastos_bot/internal/model"
	"github.com/shopspring/decimal"
)

// ArchiveMode задает границу отбора расходов
type ArchiveMode int

const (
	// ArchiveBeforeMonth переносит все до первого числа текущего месяца
	ArchiveBeforeMonth ArchiveMode = iota
	// ArchiveBeforeToday переносит все до сегодняшнего дня
	ArchiveBeforeToday
)

// ArchiveResult - сводка архивирования
type ArchiveResult struct {
	Cutoff string
	Count  int
	Total  decimal.Decimal
	Sheet  string
}

// ArchiveError сообщает, на каком этапе прервалось архивирование.
// Stage "copy": лист Gastos не менялся. Stage "delete": записи уже
// скопированы в архив, но остались в Gastos; повторный запуск их продублирует.
type ArchiveError struct {
	Stage    string
	Selected int
	Copied   int
	Err      error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s stage failed (selected %d, copied %d): %v", e.Stage, e.Selected, e.Copied, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// Archiver переносит старые расходы пользователя в исторический лист
type Archiver struct {
	repo  Repository
	clock *dateutil.Clock
}

func NewArchiver(repo Repository, clock *dateutil.Clock) *Archiver {
	return &Archiver{
		repo:  repo,
		clock: clock,
	}
}

// Cutoff возвращает первую дату, которая остается в Gastos
func (a *Archiver) Cutoff(mode ArchiveMode) string {
	if mode == ArchiveBeforeToday {
		return a.clock.Today()
	}
	return a.clock.FirstOfMonth()
}

// Archive копирует расходы пользователя с датой раньше границы в архив,
// затем удаляет их из Gastos одной пачкой. Строки с нечитаемой датой не трогаются.
func (a *Archiver) Archive(ctx context.Context, userID string, mode ArchiveMode) (ArchiveResult, error) {
	result := ArchiveResult{
		Cutoff: a.Cutoff(mode),
		Total:  decimal.Zero,
		Sheet:  a.repo.ArchiveSheet(),
	}

	expenses, err := a.repo.GetExpenses(ctx)
	if err != nil {
		return result, err
	}

	archivedAt := time.Now().UTC().Format(time.RFC3339)
	var (
		records []model.ArchivedExpense
		rows    []int
	)
	for _, e := range expenses {
		if e.UserID != userID || !dateutil.ValidDate(e.Date) || !dateutil.Before(e.Date, result.Cutoff) {
			continue
		}
		records = append(records, model.ArchivedExpense{Expense: e, ArchivedAt: archivedAt})
		rows = append(rows, e.Row)
		result.Total = result.Total.Add(e.Amount)
	}
	if len(records) == 0 {
		return result, nil
	}

	if _, err := a.repo.EnsureArchiveSheet(ctx); err != nil {
		return result, &ArchiveError{Stage: "copy", Selected: len(records), Err: err}
	}
	if err := a.repo.AppendArchive(ctx, records); err != nil {
		return result, &ArchiveError{Stage: "copy", Selected: len(records), Err: err}
	}

	if err := a.repo.DeleteExpenseRows(ctx, CoalesceRanges(rows)); err != nil {
		log.Printf("Archived %d expenses of user %s but failed to delete them: %v", len(records), userID, err)
		return result, &ArchiveError{Stage: "delete", Selected: len(records), Copied: len(records), Err: err}
	}

	result.Count = len(records)
	return result, nil
}

// CoalesceRanges склеивает индексы строк в полуинтервалы и возвращает их
// по убыванию начала, чтобы удаление одного не сдвигало остальные.
// [1 2 3 7 8 10] -> [10,11) [7,9) [1,4)
func CoalesceRanges(rows []int) []model.RowRange {
	if len(rows) == 0 {
		return nil
	}
	sorted := append([]int(nil), rows...)
	sort.Ints(sorted)

	var ranges []model.RowRange
	cur := model.RowRange{Start: sorted[0], End: sorted[0] + 1}
	for _, r := range sorted[1:] {
		switch {
		case r < cur.End:
			// дубликат
		case r == cur.End:
			cur.End++
		default:
			ranges = append(ranges, cur)
			cur = model.RowRange{Start: r, End: r + 1}
		}
	}
	ranges = append(ranges, cur)

	for i, j := 0, len(ranges)-1; i < j; i, j = i+1, j-1 {
		ranges[i], ranges[j] = ranges[j], ranges[i]
	}
	return ranges
}
