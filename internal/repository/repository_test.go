package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ivanoskov/gastos_bot/internal/model"
	"github.com/shopspring/decimal"
)

func newTestRepository(t *testing.T) (*Repository, *MemoryTable) {
	t.Helper()
	table := NewMemoryTable()
	repo := New(table, "")
	if err := repo.EnsureSheets(context.Background()); err != nil {
		t.Fatalf("ensure sheets: %v", err)
	}
	return repo, table
}

func TestParseA1(t *testing.T) {
	cases := []struct {
		in   string
		want a1Range
	}{
		{"A:F", a1Range{firstCol: 0, lastCol: 5, firstRow: 0, lastRow: -1}},
		{"F5:G5", a1Range{firstCol: 5, lastCol: 6, firstRow: 4, lastRow: 4}},
		{"A1:G1", a1Range{firstCol: 0, lastCol: 6, firstRow: 0, lastRow: 0}},
		{"AA3", a1Range{firstCol: 26, lastCol: 26, firstRow: 2, lastRow: 2}},
	}
	for _, tc := range cases {
		got, err := parseA1(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("parse %q: expected %+v, got %+v", tc.in, tc.want, got)
		}
	}

	for _, bad := range []string{"", "1:2", "G1:A1", "A5:A2", "A0"} {
		if _, err := parseA1(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}

	if columnName(0) != "A" || columnName(6) != "G" || columnName(26) != "AA" {
		t.Errorf("unexpected column names: %s %s %s", columnName(0), columnName(6), columnName(26))
	}
}

func TestEnsureSheetsWritesHeadersOnce(t *testing.T) {
	ctx := context.Background()
	repo, table := newTestRepository(t)

	if err := repo.EnsureSheets(ctx); err != nil {
		t.Fatalf("ensure sheets twice: %v", err)
	}
	rows, err := table.ReadRange(ctx, model.SheetReminders, "A:H")
	if err != nil {
		t.Fatalf("read reminders: %v", err)
	}
	if len(rows) != 1 || !reflect.DeepEqual(rows[0], model.ReminderHeader) {
		t.Errorf("expected only the header row, got %v", rows)
	}
}

func TestExpenseRowsCarrySheetIndex(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	for _, desc := range []string{"taxi", "cafe"} {
		err := repo.CreateExpense(ctx, model.Expense{
			Date: "2026-10-15", UserID: "7", UserName: "Ana",
			Amount: decimal.RequireFromString("10.5"), Description: desc, Category: "varios",
		})
		if err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}

	expenses, err := repo.GetExpenses(ctx)
	if err != nil {
		t.Fatalf("get expenses: %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(expenses))
	}
	if expenses[0].Row != 1 || expenses[1].Row != 2 {
		t.Errorf("expected rows 1 and 2, got %d and %d", expenses[0].Row, expenses[1].Row)
	}
	if expenses[1].Description != "cafe" || !expenses[1].Amount.Equal(decimal.RequireFromString("10.50")) {
		t.Errorf("unexpected expense: %+v", expenses[1])
	}
}

func TestMarkReminderSentUpdatesOnlyStatusColumns(t *testing.T) {
	ctx := context.Background()
	repo, table := newTestRepository(t)

	reminder := model.Reminder{Date: "2026-10-15", Time: "08:00", UserID: "7", UserName: "Ana", Body: "pagar", DeliveryTarget: "99"}
	if err := repo.CreateReminder(ctx, reminder); err != nil {
		t.Fatalf("create reminder: %v", err)
	}
	if err := repo.MarkReminderSent(ctx, 1, "2026-10-15T11:00:00Z"); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	rows, _ := table.ReadRange(ctx, model.SheetReminders, "A:H")
	want := []string{"2026-10-15", "08:00", "7", "Ana", "pagar", "ENVIADO", "2026-10-15T11:00:00Z", "99"}
	if !reflect.DeepEqual(rows[1], want) {
		t.Errorf("expected %v, got %v", want, rows[1])
	}

	reminders, _ := repo.GetReminders(ctx)
	if !reminders[0].IsSent() {
		t.Error("expected reminder to be sent")
	}
}

func TestDeleteExpenseRowsAppliesRangesInOrder(t *testing.T) {
	ctx := context.Background()
	repo, table := newTestRepository(t)

	for i := 0; i < 6; i++ {
		_ = repo.CreateExpense(ctx, model.Expense{
			Date: "2026-09-01", UserID: "7", Amount: decimal.NewFromInt(int64(i)),
			Description: string(rune('a' + i)), Category: "x",
		})
	}
	// rows 1..6 hold a..f; remove b,c and f, highest range first
	err := repo.DeleteExpenseRows(ctx, []model.RowRange{{Start: 6, End: 7}, {Start: 2, End: 4}})
	if err != nil {
		t.Fatalf("delete rows: %v", err)
	}

	rows, _ := table.ReadRange(ctx, model.SheetExpenses, "E:E")
	var got []string
	for _, r := range rows[1:] {
		got = append(got, r[0])
	}
	if !reflect.DeepEqual(got, []string{"a", "d", "e"}) {
		t.Errorf("expected a,d,e to remain, got %v", got)
	}
}

func TestReadMissingSheetFails(t *testing.T) {
	table := NewMemoryTable()
	if _, err := table.ReadRange(context.Background(), "Nope", "A:B"); err == nil {
		t.Error("expected error for missing sheet")
	}
}

func TestReminderRowDefaults(t *testing.T) {
	r := model.ReminderFromRow([]string{"2026-10-15", "", "7", "Ana", "pagar"}, 3)
	if r.Status != model.ReminderPending {
		t.Errorf("expected empty status to read as pending, got %q", r.Status)
	}
	target, ok := r.Target()
	if !ok || target != 7 {
		t.Errorf("expected fallback target 7, got %d %v", target, ok)
	}
	if r.When() != "2026-10-15" {
		t.Errorf("expected date only, got %q", r.When())
	}
}

func TestCollectPagesReadsPastResponseCap(t *testing.T) {
	cases := map[string]int{"partial last page": 2501, "exact multiple": 2000, "empty": 0}
	for name, total := range cases {
		t.Run(name, func(t *testing.T) {
			var calls [][2]int
			rows, err := collectPages(1000, func(from, to int) ([]supabaseRow, error) {
				calls = append(calls, [2]int{from, to})
				var page []supabaseRow
				for i := from; i <= to && i < total; i++ {
					page = append(page, supabaseRow{Sheet: "Gastos", Idx: i})
				}
				return page, nil
			})
			if err != nil {
				t.Fatalf("collect: %v", err)
			}
			if len(rows) != total {
				t.Fatalf("got %d rows, want %d", len(rows), total)
			}
			if want := total/1000 + 1; len(calls) != want {
				t.Fatalf("got %d fetches, want %d: %v", len(calls), want, calls)
			}
			for i, c := range calls {
				if c != [2]int{i * 1000, i*1000 + 999} {
					t.Errorf("fetch %d requested %v", i, c)
				}
			}
		})
	}
}

func TestCollectPagesStopsOnError(t *testing.T) {
	calls := 0
	_, err := collectPages(2, func(from, to int) ([]supabaseRow, error) {
		calls++
		if from > 0 {
			return nil, errors.New("boom")
		}
		return []supabaseRow{{Idx: 0}, {Idx: 1}}, nil
	})
	if err == nil || calls != 2 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestGridFromRowsOrdersAndFillsGaps(t *testing.T) {
	grid := gridFromRows([]supabaseRow{
		{Idx: 3, Cells: []string{"d"}},
		{Idx: 0, Cells: []string{"a"}},
		{Idx: 1, Cells: []string{"b"}},
	})
	want := [][]string{{"a"}, {"b"}, nil, {"d"}}
	if !reflect.DeepEqual(grid, want) {
		t.Fatalf("got %v, want %v", grid, want)
	}
}
